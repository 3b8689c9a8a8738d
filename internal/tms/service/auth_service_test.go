package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/config"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/testutil"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func setupAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:             testutil.JWTSecret,
			AccessTokenExpire:  time.Hour,
			RefreshTokenExpire: 24 * time.Hour,
			Issuer:             "die-pattern-tms",
		},
	}
	return NewAuthService(repos.User, nil, cfg), db
}

func seedLoginUser(t *testing.T, db *gorm.DB, username, password string, active bool) *entity.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &entity.User{
		ID:           testutil.NewID(),
		Username:     username,
		PasswordHash: hash,
		Name:         "Login User",
		IsActive:     active,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed login user: %v", err)
	}
	if !active {
		// The column's default:true makes GORM drop a zero-value IsActive on
		// insert, so deactivate explicitly
		if err := db.Model(&entity.User{}).Where("id = ?", user.ID).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate login user: %v", err)
		}
		user.IsActive = false
	}
	return user
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, db := setupAuthService(t)
	ctx := context.Background()

	seedLoginUser(t, db, "alice", "secret123", true)

	user, pair, err := svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("unexpected user: %s", user.Username)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens issued")
	}

	// Access token carries identity claims signed with our secret
	token, err := jwt.Parse(pair.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testutil.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("access token invalid: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["uid"] != user.ID {
		t.Errorf("expected uid claim %s, got %v", user.ID, claims["uid"])
	}
}

func TestLoginFailures(t *testing.T) {
	svc, db := setupAuthService(t)
	ctx := context.Background()

	seedLoginUser(t, db, "alice", "secret123", true)
	seedLoginUser(t, db, "bob", "secret123", false)

	if _, _, err := svc.Login(ctx, "alice", "wrongpass"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for wrong password, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "secret123"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for unknown user, got %v", err)
	}
	// Deactivated accounts cannot log in even with correct credentials
	if _, _, err := svc.Login(ctx, "bob", "secret123"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for inactive user, got %v", err)
	}
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	svc, db := setupAuthService(t)
	ctx := context.Background()

	seedLoginUser(t, db, "alice", "secret123", true)
	_, pair, err := svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// An access token is not acceptable on the refresh endpoint
	if _, err := svc.RefreshToken(ctx, pair.AccessToken); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for access token used as refresh, got %v", err)
	}
}
