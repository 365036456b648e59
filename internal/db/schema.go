package db

import (
	"context"
	"database/sql"
	"fmt"
)

// sqliteSchema creates every table and index for SQLite.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS roles (
    id_rol      INTEGER PRIMARY KEY,
    nombre      TEXT NOT NULL,
    descripcion TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS sucursales (
    id_sucursal       INTEGER PRIMARY KEY,
    nombre_sucursal   TEXT NOT NULL,
    direccion         TEXT NOT NULL DEFAULT '',
    region            TEXT NOT NULL DEFAULT '',
    telefono_contacto TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS areas (
    id_area     INTEGER PRIMARY KEY,
    nombre_area TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS usuarios (
    id              INTEGER PRIMARY KEY,
    usuario         TEXT NOT NULL UNIQUE,
    password_hash   TEXT NOT NULL,
    nombre          TEXT NOT NULL DEFAULT '',
    id_rol          INTEGER NOT NULL REFERENCES roles(id_rol),
    id_sucursal     INTEGER REFERENCES sucursales(id_sucursal),
    sucursal_activa INTEGER REFERENCES sucursales(id_sucursal),
    activo          INTEGER NOT NULL DEFAULT 1,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at      DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS equipos_computacionales (
    id_equipo         INTEGER PRIMARY KEY AUTOINCREMENT,
    codigo_interno    TEXT NOT NULL UNIQUE,
    marca             TEXT,
    modelo            TEXT,
    procesador        TEXT,
    ram               TEXT,
    disco_duro        TEXT,
    sistema_operativo TEXT,
    office            TEXT,
    antivirus         TEXT,
    drive             TEXT,
    nombre_equipo     TEXT,
    serial_number     TEXT,
    fecha_revision    DATE,
    entregado_por     TEXT,
    comentarios       TEXT
)`,
	`CREATE TABLE IF NOT EXISTS celulares (
    id_celular               INTEGER PRIMARY KEY AUTOINCREMENT,
    codigo_interno           TEXT NOT NULL UNIQUE,
    marca                    TEXT,
    modelo                   TEXT,
    imei                     TEXT,
    numero_linea             TEXT,
    sistema_operativo        TEXT,
    capacidad_almacenamiento TEXT,
    comentarios              TEXT
)`,
	`CREATE TABLE IF NOT EXISTS impresoras (
    id_impresora   INTEGER PRIMARY KEY AUTOINCREMENT,
    codigo_interno TEXT NOT NULL UNIQUE,
    marca          TEXT,
    modelo         TEXT,
    tipo_conexion  TEXT,
    ip_asignada    TEXT,
    serial_number  TEXT,
    observaciones  TEXT
)`,
	`CREATE TABLE IF NOT EXISTS inventario_general (
    id_inventario          INTEGER PRIMARY KEY AUTOINCREMENT,
    tipo_equipo            TEXT NOT NULL CHECK (tipo_equipo IN ('Computacional', 'Celular', 'Impresora')),
    id_registro            INTEGER NOT NULL,
    estado                 TEXT NOT NULL DEFAULT 'SinAsignar' CHECK (estado IN ('DeBaja', 'Asignado', 'SinAsignar', 'EnReparacion')),
    id_usuario_responsable INTEGER REFERENCES usuarios(id),
    id_area_responsable    INTEGER REFERENCES areas(id_area),
    id_sucursal_ubicacion  INTEGER REFERENCES sucursales(id_sucursal),
    fecha_ingreso          DATE,
    observaciones          TEXT,
    foto                   BLOB,
    foto_mime              TEXT
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_inventario_asset
    ON inventario_general(tipo_equipo, id_registro)`,
	`CREATE INDEX IF NOT EXISTS idx_inventario_sucursal
    ON inventario_general(id_sucursal_ubicacion)`,
	`CREATE TABLE IF NOT EXISTS historial_movimientos (
    id                   INTEGER PRIMARY KEY,
    tipo_equipo          TEXT NOT NULL CHECK (tipo_equipo IN ('Computacional', 'Celular', 'Impresora')),
    id_equipo            INTEGER NOT NULL,
    responsable_anterior INTEGER REFERENCES usuarios(id),
    responsable_nuevo    INTEGER REFERENCES usuarios(id),
    fecha                DATETIME NOT NULL,
    observaciones        TEXT,
    registrado_por       INTEGER REFERENCES usuarios(id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_historial_asset
    ON historial_movimientos(tipo_equipo, id_equipo)`,
	`CREATE TABLE IF NOT EXISTS consumibles (
    id_consumible     INTEGER PRIMARY KEY,
    tipo              TEXT NOT NULL,
    marca             TEXT,
    modelo            TEXT,
    stock_actual      INTEGER NOT NULL DEFAULT 0 CHECK (stock_actual >= 0),
    stock_minimo      INTEGER NOT NULL DEFAULT 0 CHECK (stock_minimo >= 0),
    id_sucursal_stock INTEGER REFERENCES sucursales(id_sucursal)
)`,
	`CREATE TABLE IF NOT EXISTS settings (
    name  TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
)`,
}

// mysqlSchema mirrors sqliteSchema for MySQL 8.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS roles (
    id_rol      BIGINT AUTO_INCREMENT PRIMARY KEY,
    nombre      VARCHAR(100) NOT NULL,
    descripcion VARCHAR(255) NOT NULL DEFAULT ''
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS sucursales (
    id_sucursal       BIGINT AUTO_INCREMENT PRIMARY KEY,
    nombre_sucursal   VARCHAR(100) NOT NULL,
    direccion         VARCHAR(255) NOT NULL DEFAULT '',
    region            VARCHAR(100) NOT NULL DEFAULT '',
    telefono_contacto VARCHAR(50) NOT NULL DEFAULT ''
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS areas (
    id_area     BIGINT AUTO_INCREMENT PRIMARY KEY,
    nombre_area VARCHAR(100) NOT NULL
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS usuarios (
    id              BIGINT AUTO_INCREMENT PRIMARY KEY,
    usuario         VARCHAR(100) NOT NULL UNIQUE,
    password_hash   VARCHAR(255) NOT NULL,
    nombre          VARCHAR(150) NOT NULL DEFAULT '',
    id_rol          BIGINT NOT NULL,
    id_sucursal     BIGINT NULL,
    sucursal_activa BIGINT NULL,
    activo          BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at      DATETIME NULL,
    FOREIGN KEY (id_rol) REFERENCES roles(id_rol),
    FOREIGN KEY (id_sucursal) REFERENCES sucursales(id_sucursal),
    FOREIGN KEY (sucursal_activa) REFERENCES sucursales(id_sucursal)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS equipos_computacionales (
    id_equipo         BIGINT AUTO_INCREMENT PRIMARY KEY,
    codigo_interno    VARCHAR(50) NOT NULL UNIQUE,
    marca             VARCHAR(100),
    modelo            VARCHAR(100),
    procesador        VARCHAR(100),
    ram               VARCHAR(50),
    disco_duro        VARCHAR(100),
    sistema_operativo VARCHAR(100),
    office            VARCHAR(100),
    antivirus         VARCHAR(100),
    drive             VARCHAR(100),
    nombre_equipo     VARCHAR(100),
    serial_number     VARCHAR(100),
    fecha_revision    DATE,
    entregado_por     VARCHAR(100),
    comentarios       TEXT
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS celulares (
    id_celular               BIGINT AUTO_INCREMENT PRIMARY KEY,
    codigo_interno           VARCHAR(50) NOT NULL UNIQUE,
    marca                    VARCHAR(100),
    modelo                   VARCHAR(100),
    imei                     VARCHAR(50),
    numero_linea             VARCHAR(20),
    sistema_operativo        VARCHAR(100),
    capacidad_almacenamiento VARCHAR(50),
    comentarios              TEXT
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS impresoras (
    id_impresora   BIGINT AUTO_INCREMENT PRIMARY KEY,
    codigo_interno VARCHAR(50) NOT NULL UNIQUE,
    marca          VARCHAR(100),
    modelo         VARCHAR(100),
    tipo_conexion  VARCHAR(50),
    ip_asignada    VARCHAR(50),
    serial_number  VARCHAR(100),
    observaciones  TEXT
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS inventario_general (
    id_inventario          BIGINT AUTO_INCREMENT PRIMARY KEY,
    tipo_equipo            ENUM('Computacional', 'Celular', 'Impresora') NOT NULL,
    id_registro            BIGINT NOT NULL,
    estado                 ENUM('DeBaja', 'Asignado', 'SinAsignar', 'EnReparacion') NOT NULL DEFAULT 'SinAsignar',
    id_usuario_responsable BIGINT NULL,
    id_area_responsable    BIGINT NULL,
    id_sucursal_ubicacion  BIGINT NULL,
    fecha_ingreso          DATE,
    observaciones          TEXT,
    foto                   MEDIUMBLOB,
    foto_mime              VARCHAR(50),
    UNIQUE KEY idx_inventario_asset (tipo_equipo, id_registro),
    KEY idx_inventario_sucursal (id_sucursal_ubicacion),
    FOREIGN KEY (id_usuario_responsable) REFERENCES usuarios(id),
    FOREIGN KEY (id_area_responsable) REFERENCES areas(id_area),
    FOREIGN KEY (id_sucursal_ubicacion) REFERENCES sucursales(id_sucursal)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS historial_movimientos (
    id                   BIGINT AUTO_INCREMENT PRIMARY KEY,
    tipo_equipo          ENUM('Computacional', 'Celular', 'Impresora') NOT NULL,
    id_equipo            BIGINT NOT NULL,
    responsable_anterior BIGINT NULL,
    responsable_nuevo    BIGINT NULL,
    fecha                DATETIME(6) NOT NULL,
    observaciones        TEXT,
    registrado_por       BIGINT NULL,
    KEY idx_historial_asset (tipo_equipo, id_equipo),
    FOREIGN KEY (responsable_anterior) REFERENCES usuarios(id),
    FOREIGN KEY (responsable_nuevo) REFERENCES usuarios(id),
    FOREIGN KEY (registrado_por) REFERENCES usuarios(id)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS consumibles (
    id_consumible     BIGINT AUTO_INCREMENT PRIMARY KEY,
    tipo              VARCHAR(100) NOT NULL,
    marca             VARCHAR(100),
    modelo            VARCHAR(100),
    stock_actual      INT NOT NULL DEFAULT 0 CHECK (stock_actual >= 0),
    stock_minimo      INT NOT NULL DEFAULT 0 CHECK (stock_minimo >= 0),
    id_sucursal_stock BIGINT NULL,
    FOREIGN KEY (id_sucursal_stock) REFERENCES sucursales(id_sucursal)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS settings (
    name  VARCHAR(100) PRIMARY KEY,
    value TEXT NOT NULL
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        VARCHAR(64) PRIMARY KEY,
    expires_at DATETIME NOT NULL
) ENGINE=InnoDB`,
}

// seedRoles are created on first start. Role 1 is the administrator.
var seedRoles = []struct {
	id                int64
	name, description string
}{
	{1, "Administrador", "Acceso completo a todas las sucursales"},
	{2, "Usuario", "Acceso a la sucursal activa"},
}

// EnsureSchema creates all tables and indexes if they don't already exist
// and seeds the fixed roles.
func EnsureSchema(db *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case DriverSQLite:
		statements = sqliteSchema
	case DriverMySQL:
		statements = mysqlSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema (statement %d): %w", i+1, err)
		}
	}

	return seed(context.Background(), db)
}

func seed(ctx context.Context, db *sql.DB) error {
	for _, r := range seedRoles {
		var count int
		if err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM roles WHERE id_rol = ?`, r.id,
		).Scan(&count); err != nil {
			return fmt.Errorf("checking role %d: %w", r.id, err)
		}
		if count > 0 {
			continue
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO roles (id_rol, nombre, descripcion) VALUES (?, ?, ?)`,
			r.id, r.name, r.description,
		); err != nil {
			return fmt.Errorf("seeding role %d: %w", r.id, err)
		}
	}
	return nil
}
