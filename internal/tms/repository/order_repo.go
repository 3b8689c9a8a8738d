package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"gorm.io/gorm"
)

// OrderRepository 采购订单仓库
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindAll 查询采购订单列表
func (r *OrderRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseOrder, int64, error) {
	var items []entity.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{})

	if partyID := filters["party_id"]; partyID != "" {
		query = query.Where("party_id = ?", partyID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("po_no ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Party").
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找采购订单（含行项）
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Party").
		Preload("Items").
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &po, nil
}

func (r *OrderRepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return translateErr(r.db.WithContext(ctx).Create(po).Error)
}

func (r *OrderRepository) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	return translateErr(r.db.WithContext(ctx).Save(po).Error)
}

// FindOrderItemByIndentItemID 查找引用了指定请购行项的订单行项（防重复下单预检）
func (r *OrderRepository) FindOrderItemByIndentItemID(ctx context.Context, indentItemID string) (*entity.PurchaseOrderItem, error) {
	var item entity.PurchaseOrderItem
	err := r.db.WithContext(ctx).
		Where("purchase_indent_item_id = ?", indentItemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GenerateCode 生成采购订单号 PO-{year}-{4位}
func (r *OrderRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("PO-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Select("COALESCE(MAX(po_no), '')").
		Where("po_no LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "PO-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("PO-%s-%04d", year, seq), nil
}
