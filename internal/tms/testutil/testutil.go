package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/middleware"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_tms"
	JWTSecret  = "die-pattern-tms-test-secret"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "tms")
	password := getEnv("DB_PASSWORD", "tms123")
	dbname := getEnv("DB_NAME", "die_pattern_tms")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
		&entity.AppSetting{},
		&entity.Company{},
		&entity.Location{},
		&entity.Party{},
		&entity.ItemType{},
		&entity.Material{},
		&entity.OwnerType{},
		&entity.ItemStatus{},
		&entity.Item{},
		&entity.ItemChangeLog{},
		&entity.PurchaseIndent{},
		&entity.PurchaseIndentItem{},
		&entity.PurchaseOrder{},
		&entity.PurchaseOrderItem{},
		&entity.Inward{},
		&entity.InwardLine{},
		&entity.QualityControlEntry{},
		&entity.QualityControlItem{},
		&entity.Movement{},
		&entity.User{},
		&entity.UserPermission{},
		&entity.UserLocationAccess{},
		&entity.AuditLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// AllowAll is a capability factory that grants every flag, for tests
// that exercise business logic rather than permission gating.
func AllowAll(flag string) gin.HandlerFunc {
	return func(c *gin.Context) { c.Next() }
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"uid":  userID,
		"name": name,
		"iss":  "die-pattern-tms",
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
		"jti":  fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default admin test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Admin")
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// NewID returns a fresh 32-char identifier in the same shape production code uses
func NewID() string {
	return uuid.New().String()[:32]
}

// SeedTestUser creates a test user with an empty permission row
func SeedTestUser(t *testing.T, db *gorm.DB, id, username, name string) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:           id,
		Username:     username,
		PasswordHash: "$2a$10$test.hash.not.checked.in.tests",
		Name:         name,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	perm := &entity.UserPermission{ID: NewID(), UserID: id}
	if err := db.Create(perm).Error; err != nil {
		t.Fatalf("Failed to seed test user permission: %v", err)
	}
	return user
}

// SeedTestLocation creates an active location
func SeedTestLocation(t *testing.T, db *gorm.DB, name string) *entity.Location {
	t.Helper()
	id := NewID()
	loc := &entity.Location{
		ID:       id,
		Code:     "LOC-" + id[:8],
		Name:     name,
		IsActive: true,
	}
	if err := db.Create(loc).Error; err != nil {
		t.Fatalf("Failed to seed test location: %v", err)
	}
	return loc
}

// GrantTestLocationAccess lets the user operate against the location
func GrantTestLocationAccess(t *testing.T, db *gorm.DB, userID string, loc *entity.Location) {
	t.Helper()
	access := &entity.UserLocationAccess{
		ID:         NewID(),
		UserID:     userID,
		CompanyID:  loc.CompanyID,
		LocationID: loc.ID,
	}
	if err := db.Create(access).Error; err != nil {
		t.Fatalf("Failed to grant test location access: %v", err)
	}
}

// SeedTestParty creates an active vendor party
func SeedTestParty(t *testing.T, db *gorm.DB, code, name string) *entity.Party {
	t.Helper()
	party := &entity.Party{
		ID:       NewID(),
		Code:     code,
		Name:     name,
		IsActive: true,
	}
	if err := db.Create(party).Error; err != nil {
		t.Fatalf("Failed to seed test party: %v", err)
	}
	return party
}

// SeedTestItem creates an active item with the given process state
func SeedTestItem(t *testing.T, db *gorm.DB, mainPartName, process string) *entity.Item {
	t.Helper()
	item := &entity.Item{
		ID:             NewID(),
		MainPartName:   mainPartName,
		CurrentName:    mainPartName,
		CurrentProcess: process,
		IsActive:       true,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed test item: %v", err)
	}
	return item
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
