package model

// Printer is a row of the printers table. TechnicalNotes travels as
// observaciones_tecnicas so it never collides with the ledger's notes.
type Printer struct {
	ID             int64  `json:"id_impresora"`
	Code           string `json:"codigo_interno"`
	Brand          string `json:"marca"`
	Model          string `json:"modelo"`
	ConnectionType string `json:"tipo_conexion"`
	IP             string `json:"ip_asignada"`
	SerialNumber   string `json:"serial_number"`
	TechnicalNotes string `json:"observaciones_tecnicas"`
}

func (p *Printer) Ref() AssetRef { return AssetRef{Type: AssetPrinter, ID: p.ID} }

func (p *Printer) Validate() error { return validateCode(p.Code) }

func (p *Printer) Detail() Detail {
	return Detail{
		Type:  AssetPrinter,
		Code:  p.Code,
		Brand: p.Brand,
		Model: p.Model,
		IP:    p.IP,
	}
}

// PrinterPatch is a partial update of a printer.
type PrinterPatch struct {
	Code           Optional[string] `json:"codigo_interno"`
	Brand          Optional[string] `json:"marca"`
	Model          Optional[string] `json:"modelo"`
	ConnectionType Optional[string] `json:"tipo_conexion"`
	IP             Optional[string] `json:"ip_asignada"`
	SerialNumber   Optional[string] `json:"serial_number"`
	TechnicalNotes Optional[string] `json:"observaciones_tecnicas"`
}

func (p *PrinterPatch) Kind() AssetType { return AssetPrinter }

func (p *PrinterPatch) Validate() error { return validateCodePatch(p.Code) }
