package database

import (
	"context"
	"fmt"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migrate 建表与增量迁移。AutoMigrate 负责建表，补丁SQL负责老库的列级修复。
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(
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
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// 老库补丁：AutoMigrate对带FK的表可能跳过新列
	migrationSQL := []string{
		"ALTER TABLE items ADD COLUMN IF NOT EXISTS drawing_url VARCHAR(512)",
		"ALTER TABLE inward_lines ADD COLUMN IF NOT EXISTS movement_id VARCHAR(32)",
		"ALTER TABLE user_permissions ADD COLUMN IF NOT EXISTS navigation_layout VARCHAR(50) DEFAULT 'sidebar'",
		"CREATE INDEX IF NOT EXISTS idx_movements_item_created ON movements(item_id, created_at)",
	}
	for _, sql := range migrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			logger.Warn("Migration SQL warning (may already exist)", zap.String("sql", sql), zap.Error(err))
		}
	}

	logger.Info("Database migration completed")
	return nil
}

// Seed 幂等初始化：字典数据与内置管理员。重复执行不产生重复记录。
func Seed(ctx context.Context, db *gorm.DB, adminPassword string, logger *zap.Logger) error {
	seedLookup := func(table string, names []string) error {
		for _, name := range names {
			err := db.WithContext(ctx).Exec(
				fmt.Sprintf(`INSERT INTO %s (id, name, is_active, created_at, updated_at)
					VALUES (?, ?, true, NOW(), NOW())
					ON CONFLICT (name) DO NOTHING`, table),
				uuid.New().String()[:32], name).Error
			if err != nil {
				return fmt.Errorf("seed %s %q: %w", table, name, err)
			}
		}
		return nil
	}
	lookups := []struct {
		table string
		names []string
	}{
		{"item_types", []string{"模具", "木模", "检具", "夹具"}},
		{"materials", []string{"铸铁", "铸钢", "铝合金", "木材"}},
		{"owner_types", []string{"自有", "客户", "供应商"}},
		{"item_statuses", []string{"可用", "维修中", "报废"}},
	}
	for _, l := range lookups {
		if err := seedLookup(l.table, l.names); err != nil {
			return err
		}
	}

	// 内置管理员
	var count int64
	if err := db.WithContext(ctx).Model(&entity.User{}).
		Where("username = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			admin := &entity.User{
				ID:           uuid.New().String()[:32],
				Username:     "admin",
				PasswordHash: string(hash),
				Name:         "系统管理员",
				IsActive:     true,
			}
			if err := tx.Create(admin).Error; err != nil {
				return err
			}

			perm := &entity.UserPermission{
				ID:     uuid.New().String()[:32],
				UserID: admin.ID,
			}
			perm.GrantAll()
			return tx.Create(perm).Error
		})
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		logger.Info("Seeded built-in admin user")
	}

	logger.Info("Database seed completed")
	return nil
}
