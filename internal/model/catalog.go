package model

// Role groups users. Only RoleAdministrator carries elevated rights.
type Role struct {
	ID          int64  `json:"id_rol"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
}

// Branch is an office where assets and consumables are located.
type Branch struct {
	ID      int64  `json:"id_sucursal"`
	Name    string `json:"nombre_sucursal"`
	Address string `json:"direccion"`
	Region  string `json:"region"`
	Phone   string `json:"telefono_contacto"`
}

// Area is an organisational unit that can be responsible for an asset.
type Area struct {
	ID   int64  `json:"id_area"`
	Name string `json:"nombre_area"`
}
