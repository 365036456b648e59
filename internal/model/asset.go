package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AssetType discriminates the three asset tables behind the ledger.
type AssetType string

// Asset types, using the values stored in the ledger's tipo_equipo column.
const (
	AssetComputer AssetType = "Computacional"
	AssetPhone    AssetType = "Celular"
	AssetPrinter  AssetType = "Impresora"
)

// AssetTypes lists every asset type in a stable order.
var AssetTypes = []AssetType{AssetComputer, AssetPhone, AssetPrinter}

// ParseAssetType validates s against the closed set of asset types.
func ParseAssetType(s string) (AssetType, error) {
	t := AssetType(s)
	if !t.Valid() {
		return "", Invalid("tipo_equipo", "unknown asset type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known asset types.
func (t AssetType) Valid() bool {
	switch t {
	case AssetComputer, AssetPhone, AssetPrinter:
		return true
	}
	return false
}

func (t *AssetType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return Invalid("tipo_equipo", "must be a string")
	}
	parsed, err := ParseAssetType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AssetRef points at one row of one asset table. The id alone is ambiguous;
// it is only unique together with the type.
type AssetRef struct {
	Type AssetType
	ID   int64
}

// NewAssetRef validates both halves of a reference.
func NewAssetRef(t AssetType, id int64) (AssetRef, error) {
	if !t.Valid() {
		return AssetRef{}, Invalid("tipo_equipo", "unknown asset type %q", string(t))
	}
	if id <= 0 {
		return AssetRef{}, Invalid("id", "must be positive")
	}
	return AssetRef{Type: t, ID: id}, nil
}

func (r AssetRef) String() string {
	return fmt.Sprintf("%s %d", r.Type, r.ID)
}

// Asset is a row of one of the asset tables.
type Asset interface {
	Ref() AssetRef
	Detail() Detail
	Validate() error
}

// Detail is the type-independent summary shown next to a ledger entry.
// Error is set instead of the descriptive fields when the asset row the
// entry points to does not exist.
type Detail struct {
	Type            AssetType `json:"tipo"`
	Code            string    `json:"codigo,omitempty"`
	Brand           string    `json:"marca,omitempty"`
	Model           string    `json:"modelo,omitempty"`
	Processor       string    `json:"procesador,omitempty"`
	RAM             string    `json:"ram,omitempty"`
	OperatingSystem string    `json:"sistema_operativo,omitempty"`
	IMEI            string    `json:"imei,omitempty"`
	LineNumber      string    `json:"numero_linea,omitempty"`
	IP              string    `json:"ip,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// MissingDetail describes a ledger entry whose asset row is gone.
func MissingDetail(ref AssetRef) Detail {
	return Detail{
		Type:  ref.Type,
		Error: fmt.Sprintf("%s %d not found", strings.ToLower(string(ref.Type)), ref.ID),
	}
}

// validateCode checks the internal code every asset carries.
func validateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return Invalid("codigo_interno", "required")
	}
	return nil
}

// validateCodePatch checks the internal code of a partial update.
func validateCodePatch(code Optional[string]) error {
	if code.Set {
		return validateCode(code.Value)
	}
	return nil
}

// AssetPatch is a partial update of one asset type.
type AssetPatch interface {
	Kind() AssetType
	Validate() error
}
