package model

// Computer is a row of the computers table.
type Computer struct {
	ID              int64  `json:"id_equipo"`
	Code            string `json:"codigo_interno"`
	Brand           string `json:"marca"`
	Model           string `json:"modelo"`
	Processor       string `json:"procesador"`
	RAM             string `json:"ram"`
	Disk            string `json:"disco_duro"`
	OperatingSystem string `json:"sistema_operativo"`
	Office          string `json:"office"`
	Antivirus       string `json:"antivirus"`
	Drive           string `json:"drive"`
	Hostname        string `json:"nombre_equipo"`
	SerialNumber    string `json:"serial_number"`
	ReviewDate      Date   `json:"fecha_revision"`
	DeliveredBy     string `json:"entregado_por"`
	Comments        string `json:"comentarios"`
}

func (c *Computer) Ref() AssetRef { return AssetRef{Type: AssetComputer, ID: c.ID} }

func (c *Computer) Validate() error { return validateCode(c.Code) }

func (c *Computer) Detail() Detail {
	return Detail{
		Type:            AssetComputer,
		Code:            c.Code,
		Brand:           c.Brand,
		Model:           c.Model,
		Processor:       c.Processor,
		RAM:             c.RAM,
		OperatingSystem: c.OperatingSystem,
	}
}

// ComputerPatch is a partial update of a computer.
type ComputerPatch struct {
	Code            Optional[string] `json:"codigo_interno"`
	Brand           Optional[string] `json:"marca"`
	Model           Optional[string] `json:"modelo"`
	Processor       Optional[string] `json:"procesador"`
	RAM             Optional[string] `json:"ram"`
	Disk            Optional[string] `json:"disco_duro"`
	OperatingSystem Optional[string] `json:"sistema_operativo"`
	Office          Optional[string] `json:"office"`
	Antivirus       Optional[string] `json:"antivirus"`
	Drive           Optional[string] `json:"drive"`
	Hostname        Optional[string] `json:"nombre_equipo"`
	SerialNumber    Optional[string] `json:"serial_number"`
	ReviewDate      Optional[Date]   `json:"fecha_revision"`
	DeliveredBy     Optional[string] `json:"entregado_por"`
	Comments        Optional[string] `json:"comentarios"`
}

func (p *ComputerPatch) Kind() AssetType { return AssetComputer }

func (p *ComputerPatch) Validate() error { return validateCodePatch(p.Code) }
