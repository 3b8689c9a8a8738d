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

func setupMasterService(t *testing.T) (*MasterService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewMasterService(repos.Company, repos.Location, repos.Party, repos.Lookup, repos.AppSetting, repos.AuditLog)
	return svc, db
}

func TestCompanyLocationLifecycle(t *testing.T) {
	svc, _ := setupMasterService(t)
	ctx := context.Background()

	company, err := svc.CreateCompany(ctx, "admin", &CompanyRequest{Code: "HO", Name: "Head Office"})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}

	loc, err := svc.CreateLocation(ctx, "admin", &LocationRequest{
		CompanyID: company.ID,
		Code:      "TR",
		Name:      "Tool Room",
	})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}

	// Company with active locations cannot be deactivated
	err = svc.DeactivateCompany(ctx, company.ID, "admin")
	if !errors.Is(err, ErrDependencyConflict) {
		t.Errorf("expected ErrDependencyConflict, got %v", err)
	}

	if err := svc.DeactivateLocation(ctx, loc.ID, "admin"); err != nil {
		t.Fatalf("deactivate location: %v", err)
	}
	if err := svc.DeactivateCompany(ctx, company.ID, "admin"); err != nil {
		t.Errorf("deactivate company after locations removed: %v", err)
	}
}

func TestCreateLocationRequiresCompany(t *testing.T) {
	svc, _ := setupMasterService(t)

	_, err := svc.CreateLocation(context.Background(), "admin", &LocationRequest{
		CompanyID: "missing",
		Code:      "X",
		Name:      "Nowhere",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown company, got %v", err)
	}
}

func TestDeactivatePartyBlockedByReferences(t *testing.T) {
	svc, db := setupMasterService(t)
	ctx := context.Background()

	party, err := svc.CreateParty(ctx, "admin", &PartyRequest{Code: "V001", Name: "Die Works Ltd"})
	if err != nil {
		t.Fatalf("create party: %v", err)
	}

	// An item currently held by the vendor blocks deactivation
	item := testutil.SeedTestItem(t, db, "DIE-MST-001", entity.ProcessPOIssued)
	db.Model(&entity.Item{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"current_holder_type": entity.HolderTypeVendor,
		"current_party_id":    party.ID,
	})

	err = svc.DeactivateParty(ctx, party.ID, "admin")
	if !errors.Is(err, ErrDependencyConflict) {
		t.Errorf("expected ErrDependencyConflict, got %v", err)
	}

	db.Model(&entity.Item{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"current_holder_type": entity.HolderTypeLocation,
		"current_party_id":    nil,
	})
	if err := svc.DeactivateParty(ctx, party.ID, "admin"); err != nil {
		t.Errorf("deactivate party after references cleared: %v", err)
	}
}

func TestPartyDuplicateCode(t *testing.T) {
	svc, _ := setupMasterService(t)
	ctx := context.Background()

	if _, err := svc.CreateParty(ctx, "admin", &PartyRequest{Code: "V010", Name: "First"}); err != nil {
		t.Fatalf("create party: %v", err)
	}
	_, err := svc.CreateParty(ctx, "admin", &PartyRequest{Code: "V010", Name: "Second"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for duplicate party code, got %v", err)
	}
}

func TestLookupDictionaries(t *testing.T) {
	svc, _ := setupMasterService(t)
	ctx := context.Background()

	created, err := svc.CreateItemType(ctx, "admin", &LookupRequest{Name: "Press Die"})
	if err != nil {
		t.Fatalf("create item type: %v", err)
	}

	inactive := false
	updated, err := svc.UpdateItemType(ctx, created.ID, "admin", &LookupRequest{
		Name:     "Press Die",
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("update item type: %v", err)
	}
	if updated.IsActive {
		t.Error("expected item type deactivated")
	}

	// Inactive entries are hidden from the default listing
	visible, err := svc.ListItemTypes(ctx, false)
	if err != nil {
		t.Fatalf("list item types: %v", err)
	}
	for _, it := range visible {
		if it.ID == created.ID {
			t.Error("deactivated item type should not appear in active listing")
		}
	}

	all, err := svc.ListItemTypes(ctx, true)
	if err != nil {
		t.Fatalf("list all item types: %v", err)
	}
	found := false
	for _, it := range all {
		if it.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Error("deactivated item type should appear when inactive included")
	}
}

func TestSaveSettingUpserts(t *testing.T) {
	svc, _ := setupMasterService(t)
	ctx := context.Background()

	if _, err := svc.SaveSetting(ctx, "admin", &SettingRequest{Key: "company_name", Value: "Acme Tools"}); err != nil {
		t.Fatalf("save setting: %v", err)
	}
	if _, err := svc.SaveSetting(ctx, "admin", &SettingRequest{Key: "company_name", Value: "Acme Tools Pvt Ltd"}); err != nil {
		t.Fatalf("resave setting: %v", err)
	}

	settings, err := svc.ListSettings(ctx)
	if err != nil {
		t.Fatalf("list settings: %v", err)
	}
	if len(settings) != 1 {
		t.Fatalf("expected 1 setting after upsert, got %d", len(settings))
	}
	if settings[0].Value != "Acme Tools Pvt Ltd" {
		t.Errorf("expected updated value, got %s", settings[0].Value)
	}
}
