package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/inventario-ti/inventario/internal/model"
)

// SetAssetPhoto stores an already normalised image on the asset's ledger
// entry, replacing any previous photo.
func SetAssetPhoto(ctx context.Context, db *sql.DB, ref model.AssetRef, data []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE inventario_general SET foto = ?, foto_mime = ?
		 WHERE tipo_equipo = ? AND id_registro = ?`,
		data, mime, string(ref.Type), ref.ID,
	)
	if err != nil {
		return fmt.Errorf("storing photo: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("storing photo: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ledger entry for %s: %w", ref, ErrNotFound)
	}
	return nil
}

// GetAssetPhoto returns the photo bytes and MIME type of an asset.
func GetAssetPhoto(ctx context.Context, db *sql.DB, ref model.AssetRef) ([]byte, string, error) {
	var (
		data []byte
		mime sql.NullString
	)
	err := db.QueryRowContext(ctx,
		`SELECT foto, foto_mime FROM inventario_general
		 WHERE tipo_equipo = ? AND id_registro = ?`,
		string(ref.Type), ref.ID,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("ledger entry for %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting photo: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("photo of %s: %w", ref, ErrNotFound)
	}
	return data, mime.String, nil
}
