package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/testutil"
	"gorm.io/gorm"
)

func setupPermissionService(t *testing.T) (*PermissionService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	// nil redis client: cache layer is skipped and reads hit the database
	svc := NewPermissionService(repos.User, repos.AuditLog, nil)
	return svc, db
}

func TestHasCapabilityDefaultsToFalse(t *testing.T) {
	svc, db := setupPermissionService(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "u1", "alice", "Alice")

	ok, err := svc.HasCapability(ctx, "u1", "can_create_items")
	if err != nil {
		t.Fatalf("has capability: %v", err)
	}
	if ok {
		t.Error("fresh user must not have any capability")
	}

	// Unknown users are simply denied, not errored
	ok, err = svc.HasCapability(ctx, "missing-user", "can_create_items")
	if err != nil {
		t.Fatalf("has capability for unknown user: %v", err)
	}
	if ok {
		t.Error("unknown user must be denied")
	}
}

func TestUpdatePermissionsIsFullOverwrite(t *testing.T) {
	svc, db := setupPermissionService(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "u1", "alice", "Alice")

	if _, err := svc.UpdatePermissions(ctx, "u1", "admin", &UpdatePermissionRequest{
		Flags: map[string]bool{
			"can_view_items":   true,
			"can_create_items": true,
		},
	}); err != nil {
		t.Fatalf("update permissions: %v", err)
	}

	if ok, _ := svc.HasCapability(ctx, "u1", "can_create_items"); !ok {
		t.Error("expected can_create_items granted")
	}

	// Second update omits can_create_items: omitted flags are cleared
	if _, err := svc.UpdatePermissions(ctx, "u1", "admin", &UpdatePermissionRequest{
		Flags: map[string]bool{
			"can_view_items": true,
		},
	}); err != nil {
		t.Fatalf("second update: %v", err)
	}

	if ok, _ := svc.HasCapability(ctx, "u1", "can_create_items"); ok {
		t.Error("expected can_create_items revoked by full overwrite")
	}
	if ok, _ := svc.HasCapability(ctx, "u1", "can_view_items"); !ok {
		t.Error("expected can_view_items still granted")
	}
}

func TestUpdatePermissionsUnknownUser(t *testing.T) {
	svc, _ := setupPermissionService(t)

	_, err := svc.UpdatePermissions(context.Background(), "missing", "admin", &UpdatePermissionRequest{
		Flags: map[string]bool{"can_view_items": true},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
