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

type flowEnv struct {
	db          *gorm.DB
	items       *ItemService
	procurement *ProcurementService
	inward      *InwardService
	qc          *QCService
	movements   *MovementService
}

func setupFlowEnv(t *testing.T) *flowEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return &flowEnv{
		db:          db,
		items:       NewItemService(repos.Item, repos.AuditLog, db),
		procurement: NewProcurementService(repos.Indent, repos.Order, repos.Item, repos.Party, repos.AuditLog, db),
		inward:      NewInwardService(repos.Inward, repos.QC, repos.Movement, repos.Item, repos.Order, repos.Location, repos.Party, repos.User, repos.AuditLog, db),
		qc:          NewQCService(repos.QC, repos.Inward, repos.Movement, repos.Item, repos.AuditLog, db),
		movements:   NewMovementService(repos.Movement, repos.Item, repos.Location, repos.Party, repos.User, repos.AuditLog, db),
	}
}

// driveToApprovedOrder walks an item through indent and order approval,
// leaving it in po_issued with the vendor.
func (e *flowEnv) driveToApprovedOrder(t *testing.T, mainPartName, partyID string) (itemID, orderID string) {
	t.Helper()
	ctx := context.Background()

	item := testutil.SeedTestItem(t, e.db, mainPartName, entity.ProcessNotInStock)

	indent, err := e.procurement.CreateIndent(ctx, "buyer-1", &CreateIndentRequest{
		Type:    entity.IndentTypeNew,
		ItemIDs: []string{item.ID},
	})
	if err != nil {
		t.Fatalf("create indent: %v", err)
	}
	if _, err := e.procurement.ApproveIndent(ctx, indent.ID, "approver-1"); err != nil {
		t.Fatalf("approve indent: %v", err)
	}

	var line entity.PurchaseIndentItem
	if err := e.db.First(&line, "purchase_indent_id = ?", indent.ID).Error; err != nil {
		t.Fatalf("load indent line: %v", err)
	}

	order, err := e.procurement.CreateOrder(ctx, "buyer-1", &CreateOrderRequest{
		PartyID: partyID,
		Lines:   []OrderLineRequest{{IndentItemID: line.ID, Rate: 5000}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := e.procurement.ApproveOrder(ctx, order.ID, "approver-1"); err != nil {
		t.Fatalf("approve order: %v", err)
	}
	return item.ID, order.ID
}

func TestNewDieEndToEndFlow(t *testing.T) {
	e := setupFlowEnv(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, e.db, "Tool Room")
	testutil.GrantTestLocationAccess(t, e.db, "store-1", loc)
	party := testutil.SeedTestParty(t, e.db, "V100", "Die Works Ltd")
	itemID, orderID := e.driveToApprovedOrder(t, "DIE-FLOW-001", party.ID)

	// Receive the die against the approved order
	in, err := e.inward.CreateInwardDraft(ctx, "store-1", &CreateInwardRequest{
		SourceType:  entity.SourceTypePO,
		SourceRefID: orderID,
		LocationID:  loc.ID,
		ItemIDs:     []string{itemID},
	})
	if err != nil {
		t.Fatalf("create inward draft: %v", err)
	}
	// Vendor is inherited from the order
	if in.PartyID == nil || *in.PartyID != party.ID {
		t.Error("expected inward to inherit the order vendor")
	}

	submitted, err := e.inward.SubmitInward(ctx, in.ID, "store-1")
	if err != nil {
		t.Fatalf("submit inward: %v", err)
	}
	if submitted.Status != entity.InwardStatusSubmitted {
		t.Errorf("expected submitted inward, got %s", submitted.Status)
	}

	// Submission parks the item in QC, not stock
	var item entity.Item
	e.db.First(&item, "id = ?", itemID)
	if item.CurrentProcess != entity.ProcessInQC {
		t.Errorf("expected item in_qc after submission, got %s", item.CurrentProcess)
	}

	// A pending QC entry was opened for the batch
	var qcItem entity.QualityControlItem
	if err := e.db.First(&qcItem, "item_id = ?", itemID).Error; err != nil {
		t.Fatalf("load qc item: %v", err)
	}
	if qcItem.IsApproved != nil {
		t.Error("expected undecided qc item")
	}

	approve := true
	entry, err := e.qc.RecordDecision(ctx, qcItem.QCEntryID, qcItem.ID, "inspector-1", &DecisionRequest{
		IsApproved: &approve,
	})
	if err != nil {
		t.Fatalf("record qc decision: %v", err)
	}
	// Last undecided line closes the batch
	if entry.Status != entity.QCStatusApproved {
		t.Errorf("expected qc entry auto-closed, got %s", entry.Status)
	}

	// Item lands in stock at the receiving location
	e.db.First(&item, "id = ?", itemID)
	if item.CurrentProcess != entity.ProcessInStock {
		t.Errorf("expected item in_stock, got %s", item.CurrentProcess)
	}
	if item.CurrentLocationID == nil || *item.CurrentLocationID != loc.ID {
		t.Error("expected item held at receiving location")
	}

	// The ledger shows exactly one inward movement, QC-cleared
	trail, err := e.movements.GetItemTrail(ctx, itemID)
	if err != nil {
		t.Fatalf("get trail: %v", err)
	}
	if len(trail) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(trail))
	}
	if trail[0].Type != entity.MovementTypeInward {
		t.Errorf("expected inward movement, got %s", trail[0].Type)
	}
	if trail[0].IsQCPending || !trail[0].IsQCApproved {
		t.Error("expected movement flagged QC approved")
	}
}

func TestSubmitInwardIsIdempotent(t *testing.T) {
	e := setupFlowEnv(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, e.db, "Tool Room")
	testutil.GrantTestLocationAccess(t, e.db, "store-1", loc)
	party := testutil.SeedTestParty(t, e.db, "V101", "Die Works Ltd")
	itemID, orderID := e.driveToApprovedOrder(t, "DIE-FLOW-002", party.ID)

	in, err := e.inward.CreateInwardDraft(ctx, "store-1", &CreateInwardRequest{
		SourceType:  entity.SourceTypePO,
		SourceRefID: orderID,
		LocationID:  loc.ID,
		ItemIDs:     []string{itemID},
	})
	if err != nil {
		t.Fatalf("create inward draft: %v", err)
	}
	if _, err := e.inward.SubmitInward(ctx, in.ID, "store-1"); err != nil {
		t.Fatalf("submit inward: %v", err)
	}

	if _, err := e.inward.SubmitInward(ctx, in.ID, "store-1"); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("expected ErrAlreadySubmitted on double submit, got %v", err)
	}

	// Still exactly one movement for the item
	var count int64
	e.db.Model(&entity.Movement{}).Where("item_id = ?", itemID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 movement after double submit, got %d", count)
	}
}

func TestQCDecisionIsImmutable(t *testing.T) {
	e := setupFlowEnv(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, e.db, "Tool Room")
	testutil.GrantTestLocationAccess(t, e.db, "store-1", loc)
	party := testutil.SeedTestParty(t, e.db, "V102", "Die Works Ltd")
	itemID, orderID := e.driveToApprovedOrder(t, "DIE-FLOW-003", party.ID)

	in, _ := e.inward.CreateInwardDraft(ctx, "store-1", &CreateInwardRequest{
		SourceType:  entity.SourceTypePO,
		SourceRefID: orderID,
		LocationID:  loc.ID,
		ItemIDs:     []string{itemID},
	})
	if _, err := e.inward.SubmitInward(ctx, in.ID, "store-1"); err != nil {
		t.Fatalf("submit inward: %v", err)
	}

	var qcItem entity.QualityControlItem
	e.db.First(&qcItem, "item_id = ?", itemID)

	approve := true
	if _, err := e.qc.RecordDecision(ctx, qcItem.QCEntryID, qcItem.ID, "inspector-1", &DecisionRequest{IsApproved: &approve}); err != nil {
		t.Fatalf("record decision: %v", err)
	}

	reject := false
	_, err := e.qc.RecordDecision(ctx, qcItem.QCEntryID, qcItem.ID, "inspector-2", &DecisionRequest{IsApproved: &reject})
	if !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("expected ErrAlreadyDecided, got %v", err)
	}
}

func TestQCRejectionReturnsItemToVendor(t *testing.T) {
	e := setupFlowEnv(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, e.db, "Tool Room")
	testutil.GrantTestLocationAccess(t, e.db, "store-1", loc)
	party := testutil.SeedTestParty(t, e.db, "V103", "Die Works Ltd")
	itemID, orderID := e.driveToApprovedOrder(t, "DIE-FLOW-004", party.ID)

	in, _ := e.inward.CreateInwardDraft(ctx, "store-1", &CreateInwardRequest{
		SourceType:  entity.SourceTypePO,
		SourceRefID: orderID,
		LocationID:  loc.ID,
		ItemIDs:     []string{itemID},
	})
	if _, err := e.inward.SubmitInward(ctx, in.ID, "store-1"); err != nil {
		t.Fatalf("submit inward: %v", err)
	}

	var qcItem entity.QualityControlItem
	e.db.First(&qcItem, "item_id = ?", itemID)

	reject := false
	if _, err := e.qc.RecordDecision(ctx, qcItem.QCEntryID, qcItem.ID, "inspector-1", &DecisionRequest{
		IsApproved: &reject,
		Remarks:    "dimensional deviation",
	}); err != nil {
		t.Fatalf("record rejection: %v", err)
	}

	// Item goes back to the vendor awaiting redelivery
	var item entity.Item
	e.db.First(&item, "id = ?", itemID)
	if item.CurrentProcess != entity.ProcessPOIssued {
		t.Errorf("expected item back in po_issued, got %s", item.CurrentProcess)
	}
	if item.CurrentPartyID == nil || *item.CurrentPartyID != party.ID {
		t.Error("expected item held by the vendor")
	}

	// Ledger records the compensating return movement
	trail, err := e.movements.GetItemTrail(ctx, itemID)
	if err != nil {
		t.Fatalf("get trail: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected inward + return movements, got %d", len(trail))
	}
	last := trail[len(trail)-1]
	if last.Type != entity.MovementTypeSystemReturn {
		t.Errorf("expected system_return movement, got %s", last.Type)
	}
}

func TestQCEntryClosesWithLastDecision(t *testing.T) {
	e := setupFlowEnv(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, e.db, "Tool Room")
	testutil.GrantTestLocationAccess(t, e.db, "store-1", loc)
	party := testutil.SeedTestParty(t, e.db, "V106", "Die Works Ltd")
	itemA, orderID := e.driveToApprovedOrder(t, "DIE-FLOW-007A", party.ID)
	itemB, _ := e.driveToApprovedOrder(t, "DIE-FLOW-007B", party.ID)

	in, err := e.inward.CreateInwardDraft(ctx, "store-1", &CreateInwardRequest{
		SourceType:  entity.SourceTypePO,
		SourceRefID: orderID,
		LocationID:  loc.ID,
		ItemIDs:     []string{itemA, itemB},
	})
	if err != nil {
		t.Fatalf("create inward draft: %v", err)
	}
	if _, err := e.inward.SubmitInward(ctx, in.ID, "store-1"); err != nil {
		t.Fatalf("submit inward: %v", err)
	}

	var qcItemA, qcItemB entity.QualityControlItem
	e.db.First(&qcItemA, "item_id = ?", itemA)
	e.db.First(&qcItemB, "item_id = ?", itemB)
	if qcItemA.QCEntryID != qcItemB.QCEntryID {
		t.Fatal("expected both lines merged into one qc batch")
	}

	// First decision leaves the batch open
	approve := true
	entry, err := e.qc.RecordDecision(ctx, qcItemA.QCEntryID, qcItemA.ID, "inspector-1", &DecisionRequest{IsApproved: &approve})
	if err != nil {
		t.Fatalf("record first decision: %v", err)
	}
	if entry.Status != entity.QCStatusPending {
		t.Errorf("expected batch still pending after first decision, got %s", entry.Status)
	}

	// The decision and the batch flip commit together
	entry, err = e.qc.RecordDecision(ctx, qcItemB.QCEntryID, qcItemB.ID, "inspector-1", &DecisionRequest{IsApproved: &approve})
	if err != nil {
		t.Fatalf("record last decision: %v", err)
	}
	if entry.Status != entity.QCStatusApproved {
		t.Errorf("expected batch approved with last decision, got %s", entry.Status)
	}
	var stored entity.QualityControlEntry
	e.db.First(&stored, "id = ?", qcItemA.QCEntryID)
	if stored.Status != entity.QCStatusApproved {
		t.Errorf("expected stored batch approved, got %s", stored.Status)
	}
}

func TestInwardRequiresLocationAccess(t *testing.T) {
	e := setupFlowEnv(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, e.db, "Tool Room")
	party := testutil.SeedTestParty(t, e.db, "V105", "Die Works Ltd")
	itemID, orderID := e.driveToApprovedOrder(t, "DIE-FLOW-006", party.ID)

	// No grant for the receiving location yet
	_, err := e.inward.CreateInwardDraft(ctx, "store-1", &CreateInwardRequest{
		SourceType:  entity.SourceTypePO,
		SourceRefID: orderID,
		LocationID:  loc.ID,
		ItemIDs:     []string{itemID},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden without location access, got %v", err)
	}

	testutil.GrantTestLocationAccess(t, e.db, "store-1", loc)
	in, err := e.inward.CreateInwardDraft(ctx, "store-1", &CreateInwardRequest{
		SourceType:  entity.SourceTypePO,
		SourceRefID: orderID,
		LocationID:  loc.ID,
		ItemIDs:     []string{itemID},
	})
	if err != nil {
		t.Fatalf("create inward draft: %v", err)
	}

	// Submission is gated for each operator separately
	if _, err := e.inward.SubmitInward(ctx, in.ID, "store-2"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for ungranted submitter, got %v", err)
	}
	if _, err := e.inward.SubmitInward(ctx, in.ID, "store-1"); err != nil {
		t.Errorf("submit by granted user: %v", err)
	}
}

func TestInwardDraftLineManagement(t *testing.T) {
	e := setupFlowEnv(t)
	ctx := context.Background()

	loc := testutil.SeedTestLocation(t, e.db, "Tool Room")
	testutil.GrantTestLocationAccess(t, e.db, "store-1", loc)
	party := testutil.SeedTestParty(t, e.db, "V104", "Die Works Ltd")
	itemID, orderID := e.driveToApprovedOrder(t, "DIE-FLOW-005", party.ID)

	in, err := e.inward.CreateInwardDraft(ctx, "store-1", &CreateInwardRequest{
		SourceType:  entity.SourceTypePO,
		SourceRefID: orderID,
		LocationID:  loc.ID,
		ItemIDs:     []string{itemID},
	})
	if err != nil {
		t.Fatalf("create inward draft: %v", err)
	}

	var line entity.InwardLine
	if err := e.db.First(&line, "inward_id = ?", in.ID).Error; err != nil {
		t.Fatalf("load line: %v", err)
	}
	// Snapshot fields captured at receipt time
	if line.MainPartName != "DIE-FLOW-005" {
		t.Errorf("expected snapshot of main part name, got %s", line.MainPartName)
	}

	// Removing the only line reverts the item and leaves an empty draft
	if _, err := e.inward.RemoveLine(ctx, in.ID, line.ID, "store-1"); err != nil {
		t.Fatalf("remove line: %v", err)
	}
	var item entity.Item
	e.db.First(&item, "id = ?", itemID)
	if item.CurrentProcess != entity.ProcessPOIssued {
		t.Errorf("expected item reverted to po_issued, got %s", item.CurrentProcess)
	}

	// Empty drafts cannot be submitted
	if _, err := e.inward.SubmitInward(ctx, in.ID, "store-1"); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("expected ErrEmptySelection for empty draft, got %v", err)
	}
}
