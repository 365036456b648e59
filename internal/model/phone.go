package model

// Phone is a row of the phones table.
type Phone struct {
	ID              int64  `json:"id_celular"`
	Code            string `json:"codigo_interno"`
	Brand           string `json:"marca"`
	Model           string `json:"modelo"`
	IMEI            string `json:"imei"`
	LineNumber      string `json:"numero_linea"`
	OperatingSystem string `json:"sistema_operativo"`
	Storage         string `json:"capacidad_almacenamiento"`
	Comments        string `json:"comentarios"`
}

func (p *Phone) Ref() AssetRef { return AssetRef{Type: AssetPhone, ID: p.ID} }

func (p *Phone) Validate() error { return validateCode(p.Code) }

func (p *Phone) Detail() Detail {
	return Detail{
		Type:       AssetPhone,
		Code:       p.Code,
		Brand:      p.Brand,
		Model:      p.Model,
		IMEI:       p.IMEI,
		LineNumber: p.LineNumber,
	}
}

// PhonePatch is a partial update of a phone.
type PhonePatch struct {
	Code            Optional[string] `json:"codigo_interno"`
	Brand           Optional[string] `json:"marca"`
	Model           Optional[string] `json:"modelo"`
	IMEI            Optional[string] `json:"imei"`
	LineNumber      Optional[string] `json:"numero_linea"`
	OperatingSystem Optional[string] `json:"sistema_operativo"`
	Storage         Optional[string] `json:"capacidad_almacenamiento"`
	Comments        Optional[string] `json:"comentarios"`
}

func (p *PhonePatch) Kind() AssetType { return AssetPhone }

func (p *PhonePatch) Validate() error { return validateCodePatch(p.Code) }
