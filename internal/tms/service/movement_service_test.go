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

func setupMovementService(t *testing.T) (*MovementService, *ItemService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	movements := NewMovementService(repos.Movement, repos.Item, repos.Location, repos.Party, repos.User, repos.AuditLog, db)
	items := NewItemService(repos.Item, repos.AuditLog, db)
	return movements, items, db
}

func stockItemAt(t *testing.T, items *ItemService, db *gorm.DB, mainPartName string, locID string) *entity.Item {
	t.Helper()
	item := testutil.SeedTestItem(t, db, mainPartName, entity.ProcessNotInStock)
	if err := items.TransitionHolder(context.Background(), item.ID, entity.ProcessInStock, entity.HolderTypeLocation, &locID, nil); err != nil {
		t.Fatalf("stock item: %v", err)
	}
	return item
}

func TestRecordOutwardMovement(t *testing.T) {
	movements, items, db := setupMovementService(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, db, "Tool Room")
	testutil.GrantTestLocationAccess(t, db, "store-1", loc)
	vendor := testutil.SeedTestParty(t, db, "V200", "Repair Shop")
	item := stockItemAt(t, items, db, "DIE-MOV-001", loc.ID)

	m, err := movements.RecordMovement(ctx, "store-1", &RecordMovementRequest{
		Type:      entity.MovementTypeOutward,
		ItemID:    item.ID,
		ToType:    entity.HolderTypeVendor,
		ToPartyID: &vendor.ID,
		Reason:    "sent for polishing",
	})
	if err != nil {
		t.Fatalf("record outward: %v", err)
	}
	if m.RefType != entity.MovementRefManual {
		t.Errorf("expected manual ref type, got %s", m.RefType)
	}
	// Source holder is taken from the item's current state
	if m.FromLocationID == nil || *m.FromLocationID != loc.ID {
		t.Error("expected movement source to be the stocking location")
	}

	var got entity.Item
	db.First(&got, "id = ?", item.ID)
	if got.CurrentProcess != entity.ProcessInOutward {
		t.Errorf("expected item in_outward, got %s", got.CurrentProcess)
	}
	if got.CurrentPartyID == nil || *got.CurrentPartyID != vendor.ID {
		t.Error("expected item held by vendor")
	}
}

func TestOutwardRequiresItemInStock(t *testing.T) {
	movements, _, db := setupMovementService(t)
	ctx := context.Background()

	vendor := testutil.SeedTestParty(t, db, "V201", "Repair Shop")
	item := testutil.SeedTestItem(t, db, "DIE-MOV-002", entity.ProcessNotInStock)

	_, err := movements.RecordMovement(ctx, "store-1", &RecordMovementRequest{
		Type:      entity.MovementTypeOutward,
		ItemID:    item.ID,
		ToType:    entity.HolderTypeVendor,
		ToPartyID: &vendor.ID,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestManualMovementRejectsInwardType(t *testing.T) {
	movements, _, db := setupMovementService(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, db, "Tool Room")
	item := testutil.SeedTestItem(t, db, "DIE-MOV-003", entity.ProcessNotInStock)

	_, err := movements.RecordMovement(ctx, "store-1", &RecordMovementRequest{
		Type:         entity.MovementTypeInward,
		ItemID:       item.ID,
		ToType:       entity.HolderTypeLocation,
		ToLocationID: &loc.ID,
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for manual inward, got %v", err)
	}
}

func TestManualMovementValidatesTargetHolder(t *testing.T) {
	movements, items, db := setupMovementService(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, db, "Tool Room")
	vendor := testutil.SeedTestParty(t, db, "V202", "Repair Shop")
	item := stockItemAt(t, items, db, "DIE-MOV-004", loc.ID)

	// Both target references at once
	_, err := movements.RecordMovement(ctx, "store-1", &RecordMovementRequest{
		Type:         entity.MovementTypeOutward,
		ItemID:       item.ID,
		ToType:       entity.HolderTypeLocation,
		ToLocationID: &loc.ID,
		ToPartyID:    &vendor.ID,
	})
	if !errors.Is(err, ErrInvalidHolderState) {
		t.Errorf("expected ErrInvalidHolderState, got %v", err)
	}

	// Inactive target location
	loc2 := testutil.SeedTestLocation(t, db, "Closed Plant")
	db.Model(&entity.Location{}).Where("id = ?", loc2.ID).Update("is_active", false)
	_, err = movements.RecordMovement(ctx, "store-1", &RecordMovementRequest{
		Type:         entity.MovementTypeSystemReturn,
		ItemID:       item.ID,
		ToType:       entity.HolderTypeLocation,
		ToLocationID: &loc2.ID,
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for inactive target, got %v", err)
	}
}

func TestMovementRequiresLocationAccess(t *testing.T) {
	movements, items, db := setupMovementService(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, db, "Tool Room")
	vendor := testutil.SeedTestParty(t, db, "V204", "Repair Shop")
	item := stockItemAt(t, items, db, "DIE-MOV-006", loc.ID)

	// Shipping out of a location requires a grant for that location
	req := &RecordMovementRequest{
		Type:      entity.MovementTypeOutward,
		ItemID:    item.ID,
		ToType:    entity.HolderTypeVendor,
		ToPartyID: &vendor.ID,
	}
	if _, err := movements.RecordMovement(ctx, "store-1", req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden without location access, got %v", err)
	}

	testutil.GrantTestLocationAccess(t, db, "store-1", loc)
	if _, err := movements.RecordMovement(ctx, "store-1", req); err != nil {
		t.Fatalf("record outward with grant: %v", err)
	}
}

func TestSystemReturnToLocationRestocks(t *testing.T) {
	movements, items, db := setupMovementService(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, db, "Tool Room")
	testutil.GrantTestLocationAccess(t, db, "store-1", loc)
	vendor := testutil.SeedTestParty(t, db, "V203", "Repair Shop")
	item := stockItemAt(t, items, db, "DIE-MOV-005", loc.ID)

	// Out to vendor, then corrected back to the location
	if _, err := movements.RecordMovement(ctx, "store-1", &RecordMovementRequest{
		Type:      entity.MovementTypeOutward,
		ItemID:    item.ID,
		ToType:    entity.HolderTypeVendor,
		ToPartyID: &vendor.ID,
	}); err != nil {
		t.Fatalf("record outward: %v", err)
	}
	if _, err := movements.RecordMovement(ctx, "store-1", &RecordMovementRequest{
		Type:         entity.MovementTypeSystemReturn,
		ItemID:       item.ID,
		ToType:       entity.HolderTypeLocation,
		ToLocationID: &loc.ID,
		Reason:       "returned after polishing",
	}); err != nil {
		t.Fatalf("record return: %v", err)
	}

	var got entity.Item
	db.First(&got, "id = ?", item.ID)
	if got.CurrentProcess != entity.ProcessInStock {
		t.Errorf("expected item back in_stock, got %s", got.CurrentProcess)
	}

	trail, err := movements.GetItemTrail(ctx, item.ID)
	if err != nil {
		t.Fatalf("get trail: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(trail))
	}
}
