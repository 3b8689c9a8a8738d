package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// translateErr 将GORM错误映射为仓库层哨兵错误。
// 依赖 gorm.Config{TranslateError: true} 将唯一索引冲突翻译为 ErrDuplicatedKey。
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// Repositories 仓库集合
type Repositories struct {
	Company    *CompanyRepository
	Location   *LocationRepository
	Party      *PartyRepository
	Lookup     *LookupRepository
	AppSetting *AppSettingRepository
	Item       *ItemRepository
	Indent     *IndentRepository
	Order      *OrderRepository
	Inward     *InwardRepository
	QC         *QCRepository
	Movement   *MovementRepository
	User       *UserRepository
	AuditLog   *AuditLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Company:    NewCompanyRepository(db),
		Location:   NewLocationRepository(db),
		Party:      NewPartyRepository(db),
		Lookup:     NewLookupRepository(db),
		AppSetting: NewAppSettingRepository(db),
		Item:       NewItemRepository(db),
		Indent:     NewIndentRepository(db),
		Order:      NewOrderRepository(db),
		Inward:     NewInwardRepository(db),
		QC:         NewQCRepository(db),
		Movement:   NewMovementRepository(db),
		User:       NewUserRepository(db),
		AuditLog:   NewAuditLogRepository(db),
	}
}
