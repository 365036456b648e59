package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/inventario-ti/inventario/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// setList collects the columns of a partial UPDATE.
type setList struct {
	columns []string
	args    []any
}

func (s *setList) add(column string, value any) {
	s.columns = append(s.columns, column+" = ?")
	s.args = append(s.args, value)
}

func (s *setList) empty() bool {
	return len(s.columns) == 0
}

// setOpt adds column to s when the patch field is present.
func setOpt[T any](s *setList, column string, o model.Optional[T]) {
	if o.Set {
		s.add(column, o.Value)
	}
}

// assetTable describes how one asset type is stored.
type assetTable struct {
	kind    model.AssetType
	table   string
	key     string
	columns []string
	// dates are columns scanned into model.Date; all others are text.
	dates  []string
	scan   func(sc scanner) (model.Asset, error)
	values func(a model.Asset) []any
	setID  func(a model.Asset, id int64)
	patch  func(p model.AssetPatch) *setList
}

var assetTables = map[model.AssetType]*assetTable{
	model.AssetComputer: computers,
	model.AssetPhone:    phones,
	model.AssetPrinter:  printers,
}

// tableFor returns the storage description of asset type t.
func tableFor(t model.AssetType) (*assetTable, error) {
	tbl, ok := assetTables[t]
	if !ok {
		return nil, model.Invalid("tipo_equipo", "unknown asset type %q", string(t))
	}
	return tbl, nil
}

func (t *assetTable) selectList() string {
	cols := []string{t.key}
	for _, c := range t.columns {
		if slices.Contains(t.dates, c) {
			cols = append(cols, c)
		} else {
			cols = append(cols, "COALESCE("+c+", '')")
		}
	}
	return strings.Join(cols, ", ")
}

func (t *assetTable) check(a model.Asset) error {
	if a == nil || a.Ref().Type != t.kind {
		return fmt.Errorf("asset %T is not of type %s", a, t.kind)
	}
	return nil
}

func (t *assetTable) insert(ctx context.Context, q querier, a model.Asset) (int64, error) {
	if err := t.check(a); err != nil {
		return 0, err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	result, err := q.ExecContext(ctx,
		`INSERT INTO `+t.table+` (`+strings.Join(t.columns, ", ")+`) VALUES (`+placeholders+`)`,
		t.values(a)...,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting %s: %w", t.kind, classify(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting %s id: %w", t.kind, err)
	}
	t.setID(a, id)
	return id, nil
}

func (t *assetTable) get(ctx context.Context, q querier, id int64) (model.Asset, error) {
	a, err := t.scan(q.QueryRowContext(ctx,
		`SELECT `+t.selectList()+` FROM `+t.table+` WHERE `+t.key+` = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %d: %w", t.kind, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", t.kind, err)
	}
	return a, nil
}

// lookup returns the rows with the given ids, keyed by id. Ids without a row
// are absent from the map.
func (t *assetTable) lookup(ctx context.Context, q querier, ids []int64) (map[int64]model.Asset, error) {
	found := make(map[int64]model.Asset, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	rows, err := q.QueryContext(ctx,
		`SELECT `+t.selectList()+` FROM `+t.table+` WHERE `+t.key+` IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("looking up %s rows: %w", t.kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", t.kind, err)
		}
		found[a.Ref().ID] = a
	}
	return found, rows.Err()
}

func (t *assetTable) update(ctx context.Context, q querier, id int64, p model.AssetPatch) error {
	if p == nil {
		return nil
	}
	if p.Kind() != t.kind {
		return fmt.Errorf("patch %T is not for type %s", p, t.kind)
	}
	set := t.patch(p)
	if set.empty() {
		return nil
	}
	_, err := q.ExecContext(ctx,
		`UPDATE `+t.table+` SET `+strings.Join(set.columns, ", ")+` WHERE `+t.key+` = ?`,
		append(set.args, id)...,
	)
	if err != nil {
		return fmt.Errorf("updating %s: %w", t.kind, classify(err))
	}
	return nil
}

func (t *assetTable) delete(ctx context.Context, q querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM `+t.table+` WHERE `+t.key+` = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", t.kind, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", t.kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", t.kind, id, ErrNotFound)
	}
	return nil
}

var computers = &assetTable{
	kind:  model.AssetComputer,
	table: "equipos_computacionales",
	key:   "id_equipo",
	columns: []string{
		"codigo_interno", "marca", "modelo", "procesador", "ram", "disco_duro",
		"sistema_operativo", "office", "antivirus", "drive", "nombre_equipo",
		"serial_number", "fecha_revision", "entregado_por", "comentarios",
	},
	dates: []string{"fecha_revision"},
	scan: func(sc scanner) (model.Asset, error) {
		c := &model.Computer{}
		err := sc.Scan(&c.ID, &c.Code, &c.Brand, &c.Model, &c.Processor, &c.RAM, &c.Disk,
			&c.OperatingSystem, &c.Office, &c.Antivirus, &c.Drive, &c.Hostname,
			&c.SerialNumber, &c.ReviewDate, &c.DeliveredBy, &c.Comments)
		return c, err
	},
	values: func(a model.Asset) []any {
		c := a.(*model.Computer)
		return []any{c.Code, c.Brand, c.Model, c.Processor, c.RAM, c.Disk,
			c.OperatingSystem, c.Office, c.Antivirus, c.Drive, c.Hostname,
			c.SerialNumber, c.ReviewDate, c.DeliveredBy, c.Comments}
	},
	setID: func(a model.Asset, id int64) { a.(*model.Computer).ID = id },
	patch: func(p model.AssetPatch) *setList {
		c := p.(*model.ComputerPatch)
		s := &setList{}
		setOpt(s, "codigo_interno", c.Code)
		setOpt(s, "marca", c.Brand)
		setOpt(s, "modelo", c.Model)
		setOpt(s, "procesador", c.Processor)
		setOpt(s, "ram", c.RAM)
		setOpt(s, "disco_duro", c.Disk)
		setOpt(s, "sistema_operativo", c.OperatingSystem)
		setOpt(s, "office", c.Office)
		setOpt(s, "antivirus", c.Antivirus)
		setOpt(s, "drive", c.Drive)
		setOpt(s, "nombre_equipo", c.Hostname)
		setOpt(s, "serial_number", c.SerialNumber)
		setOpt(s, "fecha_revision", c.ReviewDate)
		setOpt(s, "entregado_por", c.DeliveredBy)
		setOpt(s, "comentarios", c.Comments)
		return s
	},
}

var phones = &assetTable{
	kind:  model.AssetPhone,
	table: "celulares",
	key:   "id_celular",
	columns: []string{
		"codigo_interno", "marca", "modelo", "imei", "numero_linea",
		"sistema_operativo", "capacidad_almacenamiento", "comentarios",
	},
	scan: func(sc scanner) (model.Asset, error) {
		p := &model.Phone{}
		err := sc.Scan(&p.ID, &p.Code, &p.Brand, &p.Model, &p.IMEI, &p.LineNumber,
			&p.OperatingSystem, &p.Storage, &p.Comments)
		return p, err
	},
	values: func(a model.Asset) []any {
		p := a.(*model.Phone)
		return []any{p.Code, p.Brand, p.Model, p.IMEI, p.LineNumber,
			p.OperatingSystem, p.Storage, p.Comments}
	},
	setID: func(a model.Asset, id int64) { a.(*model.Phone).ID = id },
	patch: func(p model.AssetPatch) *setList {
		ph := p.(*model.PhonePatch)
		s := &setList{}
		setOpt(s, "codigo_interno", ph.Code)
		setOpt(s, "marca", ph.Brand)
		setOpt(s, "modelo", ph.Model)
		setOpt(s, "imei", ph.IMEI)
		setOpt(s, "numero_linea", ph.LineNumber)
		setOpt(s, "sistema_operativo", ph.OperatingSystem)
		setOpt(s, "capacidad_almacenamiento", ph.Storage)
		setOpt(s, "comentarios", ph.Comments)
		return s
	},
}

var printers = &assetTable{
	kind:  model.AssetPrinter,
	table: "impresoras",
	key:   "id_impresora",
	columns: []string{
		"codigo_interno", "marca", "modelo", "tipo_conexion", "ip_asignada",
		"serial_number", "observaciones",
	},
	scan: func(sc scanner) (model.Asset, error) {
		p := &model.Printer{}
		err := sc.Scan(&p.ID, &p.Code, &p.Brand, &p.Model, &p.ConnectionType, &p.IP,
			&p.SerialNumber, &p.TechnicalNotes)
		return p, err
	},
	values: func(a model.Asset) []any {
		p := a.(*model.Printer)
		return []any{p.Code, p.Brand, p.Model, p.ConnectionType, p.IP,
			p.SerialNumber, p.TechnicalNotes}
	},
	setID: func(a model.Asset, id int64) { a.(*model.Printer).ID = id },
	patch: func(p model.AssetPatch) *setList {
		pr := p.(*model.PrinterPatch)
		s := &setList{}
		setOpt(s, "codigo_interno", pr.Code)
		setOpt(s, "marca", pr.Brand)
		setOpt(s, "modelo", pr.Model)
		setOpt(s, "tipo_conexion", pr.ConnectionType)
		setOpt(s, "ip_asignada", pr.IP)
		setOpt(s, "serial_number", pr.SerialNumber)
		setOpt(s, "observaciones", pr.TechnicalNotes)
		return s
	},
}
