package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/testutil"
	"gorm.io/gorm"
)

func setupItemService(t *testing.T) (*ItemService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewItemService(repos.Item, repos.AuditLog, db), db
}

func registerReq(mainPartName string) *RegisterItemRequest {
	return &RegisterItemRequest{
		MainPartName: mainPartName,
		DrawingNo:    "DRG-100",
		RevisionNo:   "R0",
		ItemTypeID:   "it-die",
		MaterialID:   "mat-ci",
		OwnerTypeID:  "ot-own",
		ItemStatusID: "st-ok",
	}
}

func TestRegisterItem(t *testing.T) {
	svc, _ := setupItemService(t)
	ctx := context.Background()

	item, err := svc.RegisterItem(ctx, "user-1", registerReq("DIE-BRKT-001"))
	if err != nil {
		t.Fatalf("register item: %v", err)
	}
	if item.MainPartName != "DIE-BRKT-001" {
		t.Errorf("expected main part name DIE-BRKT-001, got %s", item.MainPartName)
	}
	// Current name defaults to the permanent main part name
	if item.CurrentName != "DIE-BRKT-001" {
		t.Errorf("expected current name to default to main part name, got %s", item.CurrentName)
	}
	if item.CurrentProcess != entity.ProcessNotInStock {
		t.Errorf("expected process not_in_stock, got %s", item.CurrentProcess)
	}
}

func TestRegisterItemDuplicateMainPartName(t *testing.T) {
	svc, _ := setupItemService(t)
	ctx := context.Background()

	if _, err := svc.RegisterItem(ctx, "user-1", registerReq("DIE-BRKT-001")); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.RegisterItem(ctx, "user-1", registerReq("DIE-BRKT-001"))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for duplicate main part name, got %v", err)
	}

	// Case differs, so it is a different identity
	if _, err := svc.RegisterItem(ctx, "user-1", registerReq("die-brkt-001")); err != nil {
		t.Errorf("case-sensitive main part name should register: %v", err)
	}
}

func TestChangeProcessRecordsLogAndRenames(t *testing.T) {
	svc, _ := setupItemService(t)
	ctx := context.Background()

	item, err := svc.RegisterItem(ctx, "user-1", registerReq("DIE-PNL-007"))
	if err != nil {
		t.Fatalf("register item: %v", err)
	}

	updated, err := svc.ApplyChangeProcess(ctx, item.ID, "user-1", &ChangeProcessRequest{
		NewName:       "DIE-PNL-007-M1",
		NewRevisionNo: "R1",
		ChangeType:    entity.ChangeTypeModification,
		Remarks:       "profile rework",
	})
	if err != nil {
		t.Fatalf("apply change process: %v", err)
	}

	if updated.CurrentName != "DIE-PNL-007-M1" {
		t.Errorf("expected current name updated, got %s", updated.CurrentName)
	}
	if updated.RevisionNo != "R1" {
		t.Errorf("expected revision R1, got %s", updated.RevisionNo)
	}
	// Permanent identity never changes
	if updated.MainPartName != "DIE-PNL-007" {
		t.Errorf("main part name must stay DIE-PNL-007, got %s", updated.MainPartName)
	}

	logs, err := svc.GetChangeLogs(ctx, item.ID)
	if err != nil {
		t.Fatalf("get change logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 change log, got %d", len(logs))
	}
	if logs[0].ChangeType != entity.ChangeTypeModification {
		t.Errorf("expected modification log, got %s", logs[0].ChangeType)
	}
}

func TestChangeProcessRejectsUnknownType(t *testing.T) {
	svc, _ := setupItemService(t)
	ctx := context.Background()

	item, err := svc.RegisterItem(ctx, "user-1", registerReq("DIE-X-001"))
	if err != nil {
		t.Fatalf("register item: %v", err)
	}

	_, err = svc.ApplyChangeProcess(ctx, item.ID, "user-1", &ChangeProcessRequest{
		NewName:    "whatever",
		ChangeType: "upgrade",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown change type, got %v", err)
	}
}

func TestDeactivateItemIsIdempotent(t *testing.T) {
	svc, _ := setupItemService(t)
	ctx := context.Background()

	item, err := svc.RegisterItem(ctx, "user-1", registerReq("DIE-OLD-001"))
	if err != nil {
		t.Fatalf("register item: %v", err)
	}

	first, err := svc.DeactivateItem(ctx, item.ID, "user-1")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if first.IsActive {
		t.Error("expected item inactive after deactivation")
	}

	second, err := svc.DeactivateItem(ctx, item.ID, "user-1")
	if err != nil {
		t.Fatalf("second deactivate should be a no-op: %v", err)
	}
	if second.IsActive {
		t.Error("expected item to stay inactive")
	}
}

func TestTransitionHolderRejectsAmbiguousHolder(t *testing.T) {
	svc, db := setupItemService(t)
	ctx := context.Background()

	item, err := svc.RegisterItem(ctx, "user-1", registerReq("DIE-HLD-001"))
	if err != nil {
		t.Fatalf("register item: %v", err)
	}

	loc := testutil.SeedTestLocation(t, db, "Plant A")
	party := testutil.SeedTestParty(t, db, "V001", "Vendor A")

	// Both holder references set at once
	err = svc.TransitionHolder(ctx, item.ID, entity.ProcessInStock, entity.HolderTypeLocation, &loc.ID, &party.ID)
	if !errors.Is(err, ErrInvalidHolderState) {
		t.Errorf("expected ErrInvalidHolderState, got %v", err)
	}

	// Vendor holder without a party
	err = svc.TransitionHolder(ctx, item.ID, entity.ProcessPOIssued, entity.HolderTypeVendor, nil, nil)
	if !errors.Is(err, ErrInvalidHolderState) {
		t.Errorf("expected ErrInvalidHolderState, got %v", err)
	}

	// Valid transition to a location holder
	if err := svc.TransitionHolder(ctx, item.ID, entity.ProcessInStock, entity.HolderTypeLocation, &loc.ID, nil); err != nil {
		t.Fatalf("valid transition failed: %v", err)
	}

	var got entity.Item
	if err := db.First(&got, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if got.CurrentLocationID == nil || *got.CurrentLocationID != loc.ID {
		t.Error("expected item held at the location")
	}
	if got.CurrentPartyID != nil {
		t.Error("expected party reference cleared for location holder")
	}
}
