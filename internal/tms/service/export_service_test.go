package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/testutil"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func setupExportService(t *testing.T) (*ExportService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewExportService(repos.Party, repos.Item, repos.Lookup, repos.AuditLog)
	return svc, db
}

func buildSheet(t *testing.T, headers []string, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		t.Fatalf("write sheet: %v", err)
	}
	return buf
}

func TestExportPartiesRoundTrip(t *testing.T) {
	svc, db := setupExportService(t)
	ctx := context.Background()

	testutil.SeedTestParty(t, db, "V001", "Die Works Ltd")
	testutil.SeedTestParty(t, db, "V002", "Pattern Makers")

	f, err := svc.ExportParties(ctx, "admin")
	if err != nil {
		t.Fatalf("export parties: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Parties")
	if err != nil {
		t.Fatalf("read exported sheet: %v", err)
	}
	// Header plus two data rows
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Code" || rows[0][1] != "Name" {
		t.Errorf("unexpected header row: %v", rows[0])
	}

	// Re-importing the unmodified export yields no new rows:
	// everything is already in the database
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		t.Fatalf("serialize export: %v", err)
	}
	result, err := svc.ValidatePartyImport(ctx, buf)
	if err != nil {
		t.Fatalf("validate re-import: %v", err)
	}
	if len(result.Valid) != 0 {
		t.Errorf("expected no valid rows on re-import, got %d", len(result.Valid))
	}
	if len(result.AlreadyExists) != 2 {
		t.Errorf("expected both rows already existing, got %d", len(result.AlreadyExists))
	}
	if len(result.Duplicates) != 0 || len(result.Invalid) != 0 {
		t.Errorf("expected clean partition, got duplicates=%d invalid=%d",
			len(result.Duplicates), len(result.Invalid))
	}
}

func TestValidatePartyImportPartitionsRows(t *testing.T) {
	svc, db := setupExportService(t)
	ctx := context.Background()

	// V001 already in the registry
	testutil.SeedTestParty(t, db, "V001", "Die Works Ltd")

	buf := buildSheet(t, partyHeaders, [][]string{
		{"V002", "Pattern Makers"},        // valid
		{"V002", "Pattern Makers Again"},  // duplicate within file
		{"V001", "Die Works Ltd"},         // already exists
		{"", "No Code Vendor"},            // invalid: code missing
	})

	result, err := svc.ValidatePartyImport(ctx, buf)
	if err != nil {
		t.Fatalf("validate import: %v", err)
	}

	if len(result.Valid) != 1 {
		t.Errorf("expected 1 valid row, got %d", len(result.Valid))
	}
	if len(result.Duplicates) != 1 {
		t.Errorf("expected 1 duplicate row, got %d", len(result.Duplicates))
	}
	if len(result.AlreadyExists) != 1 {
		t.Errorf("expected 1 already-exists row, got %d", len(result.AlreadyExists))
	}
	if len(result.Invalid) != 1 {
		t.Errorf("expected 1 invalid row, got %d", len(result.Invalid))
	}
}

func TestImportPartiesWritesOnlyValidRows(t *testing.T) {
	svc, db := setupExportService(t)
	ctx := context.Background()

	testutil.SeedTestParty(t, db, "V001", "Die Works Ltd")

	buf := buildSheet(t, partyHeaders, [][]string{
		{"V003", "Casting House"},
		{"V001", "Die Works Ltd"},
	})

	result, err := svc.ImportParties(ctx, "admin", buf)
	if err != nil {
		t.Fatalf("import parties: %v", err)
	}
	if len(result.Valid) != 1 {
		t.Fatalf("expected 1 imported row, got %d", len(result.Valid))
	}

	var count int64
	db.Table("parties").Count(&count)
	if count != 2 {
		t.Errorf("expected 2 parties after import, got %d", count)
	}
}

func TestValidateImportRejectsBadHeader(t *testing.T) {
	svc, _ := setupExportService(t)

	buf := buildSheet(t, []string{"Only", "Two"}, nil)
	if _, err := svc.ValidatePartyImport(context.Background(), buf); err == nil {
		t.Error("expected error for incomplete header")
	}
}

func TestValidateItemImportResolvesLookups(t *testing.T) {
	svc, db := setupExportService(t)
	ctx := context.Background()

	db.Exec(`INSERT INTO item_types (id, name, is_active, created_at, updated_at) VALUES (?, 'Press Die', true, NOW(), NOW())`, testutil.NewID())
	db.Exec(`INSERT INTO materials (id, name, is_active, created_at, updated_at) VALUES (?, 'Cast Iron', true, NOW(), NOW())`, testutil.NewID())
	db.Exec(`INSERT INTO owner_types (id, name, is_active, created_at, updated_at) VALUES (?, 'Own', true, NOW(), NOW())`, testutil.NewID())
	db.Exec(`INSERT INTO item_statuses (id, name, is_active, created_at, updated_at) VALUES (?, 'Serviceable', true, NOW(), NOW())`, testutil.NewID())

	buf := buildSheet(t, itemHeaders, [][]string{
		{"DIE-IMP-001", "DIE-IMP-001", "DRG-1", "R0", "Press Die", "Cast Iron", "Own", "Serviceable"},
		{"DIE-IMP-002", "DIE-IMP-002", "DRG-2", "R0", "Unknown Type", "Cast Iron", "Own", "Serviceable"},
	})

	result, err := svc.ValidateItemImport(ctx, buf)
	if err != nil {
		t.Fatalf("validate item import: %v", err)
	}
	if len(result.Valid) != 1 {
		t.Errorf("expected 1 valid item row, got %d", len(result.Valid))
	}
	if len(result.Invalid) != 1 {
		t.Errorf("expected 1 invalid item row (unknown lookup), got %d", len(result.Invalid))
	}
}
