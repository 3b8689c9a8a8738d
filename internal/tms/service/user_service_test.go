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

func setupUserService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewUserService(repos.User, repos.AuditLog, nil, db)
	return svc, db
}

func TestCreateUserWithEmptyPermissions(t *testing.T) {
	svc, db := setupUserService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "admin", &CreateUserRequest{
		Username: "store1",
		Password: "secret123",
		Name:     "Store Keeper",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.PasswordHash == "secret123" {
		t.Error("password must be stored hashed")
	}

	// Permission row is created alongside, all flags off
	var perm entity.UserPermission
	if err := db.First(&perm, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("load permission row: %v", err)
	}
	if perm.CanViewItems || perm.CanCreateItems {
		t.Error("new user must start with no capabilities")
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	req := &CreateUserRequest{Username: "store1", Password: "secret123", Name: "First"}
	if _, err := svc.CreateUser(ctx, "admin", req); err != nil {
		t.Fatalf("create user: %v", err)
	}

	_, err := svc.CreateUser(ctx, "admin", &CreateUserRequest{
		Username: "store1", Password: "other456", Name: "Second",
	})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestLocationAccessGrantAndRevoke(t *testing.T) {
	svc, db := setupUserService(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "u1", "alice", "Alice")

	grant := &GrantLocationAccessRequest{CompanyID: "comp-1", LocationID: "loc-1"}
	if _, err := svc.GrantLocationAccess(ctx, user.ID, "admin", grant); err != nil {
		t.Fatalf("grant access: %v", err)
	}

	// Granting the same triple twice is a conflict
	if _, err := svc.GrantLocationAccess(ctx, user.ID, "admin", grant); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey on repeated grant, got %v", err)
	}

	access, err := svc.ListLocationAccess(ctx, user.ID)
	if err != nil {
		t.Fatalf("list access: %v", err)
	}
	if len(access) != 1 {
		t.Fatalf("expected 1 access row, got %d", len(access))
	}

	if err := svc.RevokeLocationAccess(ctx, user.ID, access[0].ID, "admin"); err != nil {
		t.Fatalf("revoke access: %v", err)
	}
	access, _ = svc.ListLocationAccess(ctx, user.ID)
	if len(access) != 0 {
		t.Errorf("expected access revoked, got %d rows", len(access))
	}
}
