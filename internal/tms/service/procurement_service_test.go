package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/testutil"
	"gorm.io/gorm"
)

func setupProcurementService(t *testing.T) (*ProcurementService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewProcurementService(repos.Indent, repos.Order, repos.Item, repos.Party, repos.AuditLog, db)
	return svc, db
}

func TestCreateIndentMovesItemsToPIIssued(t *testing.T) {
	svc, db := setupProcurementService(t)
	ctx := context.Background()

	item := testutil.SeedTestItem(t, db, "DIE-A-001", entity.ProcessNotInStock)

	indent, err := svc.CreateIndent(ctx, "user-1", &CreateIndentRequest{
		Type:    entity.IndentTypeNew,
		ItemIDs: []string{item.ID},
	})
	if err != nil {
		t.Fatalf("create indent: %v", err)
	}
	if indent.Status != entity.IndentStatusPending {
		t.Errorf("expected pending indent, got %s", indent.Status)
	}
	if !strings.HasPrefix(indent.PINo, "PI-") {
		t.Errorf("expected PI- prefixed number, got %s", indent.PINo)
	}

	var got entity.Item
	db.First(&got, "id = ?", item.ID)
	if got.CurrentProcess != entity.ProcessPIIssued {
		t.Errorf("expected item in pi_issued, got %s", got.CurrentProcess)
	}
}

func TestCreateIndentRejectsWrongProcessState(t *testing.T) {
	svc, db := setupProcurementService(t)
	ctx := context.Background()

	inStock := testutil.SeedTestItem(t, db, "DIE-B-001", entity.ProcessInStock)

	// A new-procurement indent only accepts items that were never stocked
	_, err := svc.CreateIndent(ctx, "user-1", &CreateIndentRequest{
		Type:    entity.IndentTypeNew,
		ItemIDs: []string{inStock.ID},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	// A repair indent only accepts items currently in stock
	notInStock := testutil.SeedTestItem(t, db, "DIE-B-002", entity.ProcessNotInStock)
	_, err = svc.CreateIndent(ctx, "user-1", &CreateIndentRequest{
		Type:    entity.IndentTypeRepair,
		ItemIDs: []string{notInStock.ID},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for repair of unstocked item, got %v", err)
	}
}

func TestCreateIndentRejectsEmptySelection(t *testing.T) {
	svc, _ := setupProcurementService(t)

	_, err := svc.CreateIndent(context.Background(), "user-1", &CreateIndentRequest{
		Type:    entity.IndentTypeNew,
		ItemIDs: []string{},
	})
	if !errors.Is(err, ErrEmptySelection) {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
}

func TestApproveIndentOnlyOnce(t *testing.T) {
	svc, db := setupProcurementService(t)
	ctx := context.Background()

	item := testutil.SeedTestItem(t, db, "DIE-C-001", entity.ProcessNotInStock)
	indent, err := svc.CreateIndent(ctx, "user-1", &CreateIndentRequest{
		Type:    entity.IndentTypeNew,
		ItemIDs: []string{item.ID},
	})
	if err != nil {
		t.Fatalf("create indent: %v", err)
	}

	approved, err := svc.ApproveIndent(ctx, indent.ID, "approver-1")
	if err != nil {
		t.Fatalf("approve indent: %v", err)
	}
	if approved.Status != entity.IndentStatusApproved {
		t.Errorf("expected approved, got %s", approved.Status)
	}

	if _, err := svc.ApproveIndent(ctx, indent.ID, "approver-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on double approval, got %v", err)
	}
}

func TestRejectIndentRevertsItemProcess(t *testing.T) {
	svc, db := setupProcurementService(t)
	ctx := context.Background()

	item := testutil.SeedTestItem(t, db, "DIE-D-001", entity.ProcessNotInStock)
	indent, err := svc.CreateIndent(ctx, "user-1", &CreateIndentRequest{
		Type:    entity.IndentTypeNew,
		ItemIDs: []string{item.ID},
	})
	if err != nil {
		t.Fatalf("create indent: %v", err)
	}

	if _, err := svc.RejectIndent(ctx, indent.ID, "approver-1", "not budgeted"); err != nil {
		t.Fatalf("reject indent: %v", err)
	}

	var got entity.Item
	db.First(&got, "id = ?", item.ID)
	if got.CurrentProcess != entity.ProcessNotInStock {
		t.Errorf("expected item reverted to not_in_stock, got %s", got.CurrentProcess)
	}
}

func approvedIndentWithItem(t *testing.T, svc *ProcurementService, db *gorm.DB, mainPartName string) (string, string) {
	t.Helper()
	ctx := context.Background()
	item := testutil.SeedTestItem(t, db, mainPartName, entity.ProcessNotInStock)
	indent, err := svc.CreateIndent(ctx, "user-1", &CreateIndentRequest{
		Type:    entity.IndentTypeNew,
		ItemIDs: []string{item.ID},
	})
	if err != nil {
		t.Fatalf("create indent: %v", err)
	}
	if _, err := svc.ApproveIndent(ctx, indent.ID, "approver-1"); err != nil {
		t.Fatalf("approve indent: %v", err)
	}
	var line entity.PurchaseIndentItem
	if err := db.First(&line, "purchase_indent_id = ?", indent.ID).Error; err != nil {
		t.Fatalf("load indent line: %v", err)
	}
	return line.ID, item.ID
}

func TestCreateOrderAndBlockDoubleOrdering(t *testing.T) {
	svc, db := setupProcurementService(t)
	ctx := context.Background()

	party := testutil.SeedTestParty(t, db, "V001", "Vendor A")
	lineID, _ := approvedIndentWithItem(t, svc, db, "DIE-E-001")

	order, err := svc.CreateOrder(ctx, "user-1", &CreateOrderRequest{
		PartyID: party.ID,
		Lines:   []OrderLineRequest{{IndentItemID: lineID, Rate: 1500}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if !strings.HasPrefix(order.PONo, "PO-") {
		t.Errorf("expected PO- prefixed number, got %s", order.PONo)
	}

	// Same indent line ordered again must be rejected
	_, err = svc.CreateOrder(ctx, "user-1", &CreateOrderRequest{
		PartyID: party.ID,
		Lines:   []OrderLineRequest{{IndentItemID: lineID, Rate: 1600}},
	})
	if !errors.Is(err, ErrAlreadyOrdered) {
		t.Errorf("expected ErrAlreadyOrdered, got %v", err)
	}
}

func TestCreateOrderRequiresPositiveRate(t *testing.T) {
	svc, db := setupProcurementService(t)
	ctx := context.Background()

	party := testutil.SeedTestParty(t, db, "V002", "Vendor B")
	lineID, _ := approvedIndentWithItem(t, svc, db, "DIE-F-001")

	_, err := svc.CreateOrder(ctx, "user-1", &CreateOrderRequest{
		PartyID: party.ID,
		Lines:   []OrderLineRequest{{IndentItemID: lineID, Rate: 0}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for zero rate, got %v", err)
	}
}

func TestApproveOrderMovesItemsToPOIssued(t *testing.T) {
	svc, db := setupProcurementService(t)
	ctx := context.Background()

	party := testutil.SeedTestParty(t, db, "V003", "Vendor C")
	lineID, itemID := approvedIndentWithItem(t, svc, db, "DIE-G-001")

	order, err := svc.CreateOrder(ctx, "user-1", &CreateOrderRequest{
		PartyID: party.ID,
		Lines:   []OrderLineRequest{{IndentItemID: lineID, Rate: 2000}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := svc.ApproveOrder(ctx, order.ID, "approver-1"); err != nil {
		t.Fatalf("approve order: %v", err)
	}

	var got entity.Item
	db.First(&got, "id = ?", itemID)
	if got.CurrentProcess != entity.ProcessPOIssued {
		t.Errorf("expected item in po_issued, got %s", got.CurrentProcess)
	}
}

func TestRejectOrderReleasesIndentLines(t *testing.T) {
	svc, db := setupProcurementService(t)
	ctx := context.Background()

	party := testutil.SeedTestParty(t, db, "V004", "Vendor D")
	lineID, _ := approvedIndentWithItem(t, svc, db, "DIE-H-001")

	order, err := svc.CreateOrder(ctx, "user-1", &CreateOrderRequest{
		PartyID: party.ID,
		Lines:   []OrderLineRequest{{IndentItemID: lineID, Rate: 900}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := svc.RejectOrder(ctx, order.ID, "approver-1", "price too high"); err != nil {
		t.Fatalf("reject order: %v", err)
	}

	// Rejection frees the indent line for a fresh order
	if _, err := svc.CreateOrder(ctx, "user-1", &CreateOrderRequest{
		PartyID: party.ID,
		Lines:   []OrderLineRequest{{IndentItemID: lineID, Rate: 850}},
	}); err != nil {
		t.Errorf("re-order after rejection should succeed: %v", err)
	}
}
