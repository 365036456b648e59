package store

import (
	"context"
	"errors"
	"testing"

	"github.com/inventario-ti/inventario/internal/db"
	"github.com/inventario-ti/inventario/internal/model"
	"github.com/inventario-ti/inventario/internal/policy"
)

func TestCreateAssetDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	branch := mustBranch(t, database, "Central")

	pc, entry := mustComputer(t, database, "PC-001", &branch)
	if pc.ID == 0 || entry.ID == 0 {
		t.Fatalf("expected ids to be set, got asset %d ledger %d", pc.ID, entry.ID)
	}
	if entry.Status != model.StatusUnassigned {
		t.Errorf("expected status %q, got %q", model.StatusUnassigned, entry.Status)
	}
	if !entry.IntakeDate.Valid() {
		t.Error("expected intake date to default to today")
	}

	rec, err := GetAssetRecord(ctx, database, pc.Ref())
	if err != nil {
		t.Fatalf("GetAssetRecord: %v", err)
	}
	got, ok := rec.Asset.(*model.Computer)
	if !ok {
		t.Fatalf("expected *model.Computer, got %T", rec.Asset)
	}
	if got.Code != "PC-001" || got.Brand != "Dell" {
		t.Errorf("unexpected computer: %+v", got)
	}
	if rec.Entry.Branch == nil || *rec.Entry.Branch != branch {
		t.Errorf("expected branch %d, got %v", branch, rec.Entry.Branch)
	}
}

func TestCreateAssetAtomic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// The ledger insert fails on the unknown branch, so the asset row must
	// not survive either.
	printer := &model.Printer{Code: "IMP-001", IP: "10.0.0.5"}
	_, err := CreateAsset(ctx, database, printer, model.LedgerEntry{Branch: ptr(99)})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	if n := countRows(t, database, "impresoras"); n != 0 {
		t.Errorf("expected no printer rows, got %d", n)
	}
	if n := countRows(t, database, "inventario_general"); n != 0 {
		t.Errorf("expected no ledger rows, got %d", n)
	}
}

func TestCreateAssetValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	var verr *model.ValidationError
	_, err := CreateAsset(ctx, database, &model.Phone{}, model.LedgerEntry{})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for missing code, got %v", err)
	}

	_, err = CreateAsset(ctx, database, &model.Phone{Code: "CEL-1"}, model.LedgerEntry{Status: "Perdido"})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	mustComputer(t, database, "PC-001", nil)
	_, err = CreateAsset(ctx, database, &model.Computer{Code: "PC-001"}, model.LedgerEntry{})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate code, got %v", err)
	}
	if n := countRows(t, database, "inventario_general"); n != 1 {
		t.Errorf("expected 1 ledger row, got %d", n)
	}
}

func TestSameIDDifferentTypes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	pc, _ := mustComputer(t, database, "PC-001", nil)
	phone := &model.Phone{Code: "CEL-001", IMEI: "356938035643809"}
	if _, err := CreateAsset(ctx, database, phone, model.LedgerEntry{}); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if pc.ID != phone.ID {
		t.Skipf("ids differ (%d, %d); nothing to disambiguate", pc.ID, phone.ID)
	}

	rec, err := GetAssetRecord(ctx, database, phone.Ref())
	if err != nil {
		t.Fatalf("GetAssetRecord: %v", err)
	}
	if _, ok := rec.Asset.(*model.Phone); !ok {
		t.Errorf("expected phone, got %T", rec.Asset)
	}
}

func TestUpdateAssetPartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	branch := mustBranch(t, database, "Central")

	pc, _ := mustComputer(t, database, "PC-001", &branch)

	moved, err := UpdateAsset(ctx, database, pc.Ref(), AssetUpdate{
		Asset:  &model.ComputerPatch{RAM: model.Some("32GB")},
		Ledger: model.LedgerPatch{Status: model.Some(model.StatusInRepair)},
	})
	if err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}
	if moved != nil {
		t.Errorf("expected no history entry, got %+v", moved)
	}

	rec, err := GetAssetRecord(ctx, database, pc.Ref())
	if err != nil {
		t.Fatalf("GetAssetRecord: %v", err)
	}
	got := rec.Asset.(*model.Computer)
	if got.RAM != "32GB" {
		t.Errorf("expected RAM updated, got %q", got.RAM)
	}
	if got.Code != "PC-001" || got.Brand != "Dell" || got.Processor != "i5" {
		t.Errorf("absent fields changed: %+v", got)
	}
	if rec.Entry.Status != model.StatusInRepair {
		t.Errorf("expected status %q, got %q", model.StatusInRepair, rec.Entry.Status)
	}
	if rec.Entry.Branch == nil || *rec.Entry.Branch != branch {
		t.Errorf("expected branch unchanged, got %v", rec.Entry.Branch)
	}

	date, _ := model.ParseDate("2024-03-01")
	if _, err := UpdateAsset(ctx, database, pc.Ref(), AssetUpdate{
		Asset: &model.ComputerPatch{ReviewDate: model.Some(date)},
	}); err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}
	rec, _ = GetAssetRecord(ctx, database, pc.Ref())
	if s := rec.Asset.(*model.Computer).ReviewDate.String(); s != "2024-03-01" {
		t.Errorf("expected review date 2024-03-01, got %q", s)
	}
}

func TestUpdateAssetRecordsCustodyChange(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	branch := mustBranch(t, database, "Central")
	admin := mustUser(t, database, "admin", model.RoleAdministrator, nil)
	ana := mustUser(t, database, "ana", model.RoleStandard, &branch)
	luis := mustUser(t, database, "luis", model.RoleStandard, &branch)

	pc, _ := mustComputer(t, database, "PC-001", &branch)
	ref := pc.Ref()

	// Assigning from nobody to ana records one entry with the default note.
	moved, err := UpdateAsset(ctx, database, ref, AssetUpdate{
		Ledger: model.LedgerPatch{ResponsibleUser: model.Some(&ana.ID)},
		Actor:  &admin.ID,
	})
	if err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}
	if moved == nil || moved.PreviousOwner != nil || *moved.NewOwner != ana.ID {
		t.Fatalf("unexpected history entry: %+v", moved)
	}
	if moved.Notes != model.DefaultCustodyNote {
		t.Errorf("expected default note, got %q", moved.Notes)
	}

	// Same owner again: nothing recorded.
	moved, err = UpdateAsset(ctx, database, ref, AssetUpdate{
		Ledger: model.LedgerPatch{ResponsibleUser: model.Some(&ana.ID)},
	})
	if err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}
	if moved != nil {
		t.Errorf("expected no entry for unchanged owner, got %+v", moved)
	}

	// Owner absent from the patch: nothing recorded.
	if _, err := UpdateAsset(ctx, database, ref, AssetUpdate{
		Ledger: model.LedgerPatch{Notes: model.Some("revisado")},
	}); err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}

	// ana to luis with a custom note.
	moved, err = UpdateAsset(ctx, database, ref, AssetUpdate{
		Ledger: model.LedgerPatch{ResponsibleUser: model.Some(&luis.ID)},
		Note:   "Traspaso por vacaciones",
		Actor:  &admin.ID,
	})
	if err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}
	if moved == nil || *moved.PreviousOwner != ana.ID || *moved.NewOwner != luis.ID {
		t.Fatalf("unexpected history entry: %+v", moved)
	}

	// luis to nobody.
	if _, err := UpdateAsset(ctx, database, ref, AssetUpdate{
		Ledger: model.LedgerPatch{ResponsibleUser: model.Some[*int64](nil)},
	}); err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}

	history, err := ListHistory(ctx, database, policy.Scope{All: true}, HistoryFilter{Type: ref.Type, AssetID: ref.ID})
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	if history[0].NewOwner != nil || *history[0].PreviousOwner != luis.ID {
		t.Errorf("expected newest entry luis -> nobody, got %+v", history[0])
	}
	if history[1].Notes != "Traspaso por vacaciones" {
		t.Errorf("expected custom note, got %q", history[1].Notes)
	}
	if history[2].RecordedBy == nil || *history[2].RecordedBy != admin.ID {
		t.Errorf("expected oldest entry recorded by admin, got %v", history[2].RecordedBy)
	}

	rec, _ := GetAssetRecord(ctx, database, ref)
	if rec.Entry.ResponsibleUser != nil {
		t.Errorf("expected no responsible user, got %v", *rec.Entry.ResponsibleUser)
	}
}

func TestUpdateAssetRollsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	branch := mustBranch(t, database, "Central")
	ana := mustUser(t, database, "ana", model.RoleStandard, &branch)

	mustComputer(t, database, "PC-001", &branch)
	pc, _ := mustComputer(t, database, "PC-002", &branch)

	// The code collides, so neither the owner change nor its history
	// entry may be stored.
	_, err := UpdateAsset(ctx, database, pc.Ref(), AssetUpdate{
		Ledger: model.LedgerPatch{ResponsibleUser: model.Some(&ana.ID)},
		Asset:  &model.ComputerPatch{Code: model.Some("PC-001")},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	rec, _ := GetAssetRecord(ctx, database, pc.Ref())
	if rec.Entry.ResponsibleUser != nil {
		t.Error("expected owner change to be rolled back")
	}
	if n := countRows(t, database, "historial_movimientos"); n != 0 {
		t.Errorf("expected no history rows, got %d", n)
	}
}

func TestUpdateAssetErrors(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	pc, _ := mustComputer(t, database, "PC-001", nil)

	_, err := UpdateAsset(ctx, database, model.AssetRef{Type: model.AssetComputer, ID: 999}, AssetUpdate{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	var verr *model.ValidationError
	_, err = UpdateAsset(ctx, database, model.AssetRef{Type: "Tablet", ID: pc.ID}, AssetUpdate{})
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error for unknown type, got %v", err)
	}

	_, err = UpdateAsset(ctx, database, pc.Ref(), AssetUpdate{
		Asset: &model.ComputerPatch{Code: model.Some("")},
	})
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error for empty code, got %v", err)
	}
}

func TestDeleteAsset(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	pc, _ := mustComputer(t, database, "PC-001", nil)
	mustComputer(t, database, "PC-002", nil)

	if err := DeleteAsset(ctx, database, pc.Ref()); err != nil {
		t.Fatalf("DeleteAsset: %v", err)
	}
	if _, err := GetLedgerEntry(ctx, database, pc.Ref()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ledger entry gone, got %v", err)
	}
	if n := countRows(t, database, "equipos_computacionales"); n != 1 {
		t.Errorf("expected 1 computer row, got %d", n)
	}
	if n := countRows(t, database, "inventario_general"); n != 1 {
		t.Errorf("expected 1 ledger row, got %d", n)
	}

	if err := DeleteAsset(ctx, database, pc.Ref()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeletedAssetIDNotReused(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	branch := mustBranch(t, database, "Central")
	ana := mustUser(t, database, "ana", model.RoleStandard, &branch)

	old, oldEntry := mustComputer(t, database, "PC-OLD", &branch)
	if _, err := UpdateAsset(ctx, database, old.Ref(), AssetUpdate{
		Ledger: model.LedgerPatch{ResponsibleUser: model.Some(&ana.ID)},
	}); err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}
	if err := DeleteAsset(ctx, database, old.Ref()); err != nil {
		t.Fatalf("DeleteAsset: %v", err)
	}

	fresh, entry := mustComputer(t, database, "PC-NEW", &branch)
	if fresh.ID == old.ID {
		t.Fatalf("new computer reused id %d of deleted one", old.ID)
	}

	scope := policy.Scope{Branch: &branch}
	got, err := ListHistory(ctx, database, scope, HistoryFilter{Type: model.AssetComputer, AssetID: fresh.ID})
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no history for new computer, got %d entries", len(got))
	}

	// The deleted computer's history is kept under its own id.
	kept, err := ListHistory(ctx, database, policy.Scope{All: true}, HistoryFilter{Type: model.AssetComputer, AssetID: old.ID})
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("expected 1 kept history entry, got %d", len(kept))
	}
	if entry.ID <= oldEntry.ID {
		t.Errorf("expected ledger id past %d, got %d", oldEntry.ID, entry.ID)
	}
}

func TestListLedgerScopeAndOrphans(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	b3 := mustBranch(t, database, "Tres")
	b5 := mustBranch(t, database, "Cinco")

	pc, _ := mustComputer(t, database, "PC-001", &b3)
	mustComputer(t, database, "PC-002", &b5)
	printer := &model.Printer{Code: "IMP-001", IP: "10.0.0.9"}
	if _, err := CreateAsset(ctx, database, printer, model.LedgerEntry{Branch: &b3}); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	mustComputer(t, database, "PC-003", nil)

	// Remove the asset row behind one entry.
	if _, err := database.Exec(`DELETE FROM equipos_computacionales WHERE id_equipo = ?`, pc.ID); err != nil {
		t.Fatal(err)
	}

	all, err := ListLedger(ctx, database, policy.Scope{All: true}, LedgerFilter{})
	if err != nil {
		t.Fatalf("ListLedger: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}
	if all[0].Detail.Error != "computacional 1 not found" {
		t.Errorf("expected orphan error, got %+v", all[0].Detail)
	}
	if all[2].Detail.IP != "10.0.0.9" || all[2].Detail.Type != model.AssetPrinter {
		t.Errorf("unexpected printer detail: %+v", all[2].Detail)
	}

	scoped, err := ListLedger(ctx, database, policy.Scope{Branch: &b3}, LedgerFilter{})
	if err != nil {
		t.Fatalf("ListLedger: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("expected 2 entries in branch %d, got %d", b3, len(scoped))
	}
	for _, item := range scoped {
		if item.Branch == nil || *item.Branch != b3 {
			t.Errorf("entry %d outside scope: %v", item.ID, item.Branch)
		}
	}

	printers, err := ListLedger(ctx, database, policy.Scope{Branch: &b3}, LedgerFilter{Type: model.AssetPrinter})
	if err != nil {
		t.Fatalf("ListLedger: %v", err)
	}
	if len(printers) != 1 {
		t.Errorf("expected 1 printer, got %d", len(printers))
	}

	none, err := ListLedger(ctx, database, policy.Scope{}, LedgerFilter{})
	if err != nil {
		t.Fatalf("ListLedger: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected empty scope to see nothing, got %d", len(none))
	}

	var verr *model.ValidationError
	if _, err := ListLedger(ctx, database, policy.Scope{All: true}, LedgerFilter{Type: "Tablet"}); !errors.As(err, &verr) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestListAssetsKeepsOrphans(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	pc, _ := mustComputer(t, database, "PC-001", nil)
	mustComputer(t, database, "PC-002", nil)
	if _, err := database.Exec(`DELETE FROM equipos_computacionales WHERE id_equipo = ?`, pc.ID); err != nil {
		t.Fatal(err)
	}

	records, err := ListAssets(ctx, database, model.AssetComputer, policy.Scope{All: true})
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Asset != nil {
		t.Errorf("expected orphan record, got %+v", records[0].Asset)
	}
	if records[1].Asset.(*model.Computer).Code != "PC-002" {
		t.Errorf("unexpected second record: %+v", records[1].Asset)
	}

	rec, err := GetAssetRecord(ctx, database, pc.Ref())
	if err != nil {
		t.Fatalf("GetAssetRecord: %v", err)
	}
	if rec.Asset != nil {
		t.Error("expected nil asset for orphaned entry")
	}
}

func TestAssetPhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	pc, _ := mustComputer(t, database, "PC-001", nil)

	if _, _, err := GetAssetPhoto(ctx, database, pc.Ref()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before upload, got %v", err)
	}

	if err := SetAssetPhoto(ctx, database, pc.Ref(), []byte{0xff, 0xd8, 0xff}, "image/jpeg"); err != nil {
		t.Fatalf("SetAssetPhoto: %v", err)
	}
	data, mime, err := GetAssetPhoto(ctx, database, pc.Ref())
	if err != nil {
		t.Fatalf("GetAssetPhoto: %v", err)
	}
	if len(data) != 3 || mime != "image/jpeg" {
		t.Errorf("unexpected photo: %d bytes, %q", len(data), mime)
	}

	entry, _ := GetLedgerEntry(ctx, database, pc.Ref())
	if !entry.HasPhoto {
		t.Error("expected entry to report a photo")
	}

	missing := model.AssetRef{Type: model.AssetPhone, ID: 7}
	if err := SetAssetPhoto(ctx, database, missing, []byte{1}, "image/jpeg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
