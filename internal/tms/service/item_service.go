package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemService 工装台账服务。
// 登记后只有两类修改入口：工作流驱动的持有方/流程变化，以及显式的变更流程。
type ItemService struct {
	itemRepo  *repository.ItemRepository
	auditRepo *repository.AuditLogRepository
	db        *gorm.DB
}

func NewItemService(itemRepo *repository.ItemRepository, auditRepo *repository.AuditLogRepository, db *gorm.DB) *ItemService {
	return &ItemService{
		itemRepo:  itemRepo,
		auditRepo: auditRepo,
		db:        db,
	}
}

// ListItems 获取工装列表
func (s *ItemService) ListItems(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Item, int64, error) {
	return s.itemRepo.FindAll(ctx, page, pageSize, filters)
}

// GetItem 获取工装详情
func (s *ItemService) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return item, nil
}

// RegisterItemRequest 工装登记请求
type RegisterItemRequest struct {
	MainPartName string `json:"main_part_name" binding:"required"`
	CurrentName  string `json:"current_name"`
	DrawingNo    string `json:"drawing_no"`
	RevisionNo   string `json:"revision_no"`
	ItemTypeID   string `json:"item_type_id" binding:"required"`
	MaterialID   string `json:"material_id" binding:"required"`
	OwnerTypeID  string `json:"owner_type_id" binding:"required"`
	ItemStatusID string `json:"item_status_id" binding:"required"`
	DrawingURL   string `json:"drawing_url"`
	Remarks      string `json:"remarks"`
}

// RegisterItem 登记工装。MainPartName 全局唯一（大小写敏感），登记后不可变更。
func (s *ItemService) RegisterItem(ctx context.Context, userID string, req *RegisterItemRequest) (*entity.Item, error) {
	existing, err := s.itemRepo.FindByMainPartName(ctx, req.MainPartName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: 主件号 %s 已存在", ErrDuplicateKey, req.MainPartName)
	}

	currentName := req.CurrentName
	if currentName == "" {
		currentName = req.MainPartName
	}

	item := &entity.Item{
		ID:             uuid.New().String()[:32],
		MainPartName:   req.MainPartName,
		CurrentName:    currentName,
		DrawingNo:      req.DrawingNo,
		RevisionNo:     req.RevisionNo,
		ItemTypeID:     req.ItemTypeID,
		MaterialID:     req.MaterialID,
		OwnerTypeID:    req.OwnerTypeID,
		ItemStatusID:   req.ItemStatusID,
		CurrentProcess: entity.ProcessNotInStock,
		DrawingURL:     req.DrawingURL,
		Remarks:        req.Remarks,
		IsActive:       true,
		CreatedBy:      userID,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 主件号 %s 已存在", ErrDuplicateKey, req.MainPartName)
		}
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "item", item.ID, item.MainPartName,
		"create", "", entity.ProcessNotInStock, "工装登记: "+item.MainPartName, userID, "")

	return item, nil
}

// UpdateItemRequest 工装基础信息更新请求。
// 名称/版本不在此处修改，必须走变更流程。
type UpdateItemRequest struct {
	DrawingNo    *string `json:"drawing_no"`
	ItemTypeID   *string `json:"item_type_id"`
	MaterialID   *string `json:"material_id"`
	OwnerTypeID  *string `json:"owner_type_id"`
	ItemStatusID *string `json:"item_status_id"`
	DrawingURL   *string `json:"drawing_url"`
	Remarks      *string `json:"remarks"`
}

// UpdateItem 更新工装基础信息
func (s *ItemService) UpdateItem(ctx context.Context, id, userID string, req *UpdateItemRequest) (*entity.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if req.DrawingNo != nil {
		item.DrawingNo = *req.DrawingNo
	}
	if req.ItemTypeID != nil {
		item.ItemTypeID = *req.ItemTypeID
	}
	if req.MaterialID != nil {
		item.MaterialID = *req.MaterialID
	}
	if req.OwnerTypeID != nil {
		item.OwnerTypeID = *req.OwnerTypeID
	}
	if req.ItemStatusID != nil {
		item.ItemStatusID = *req.ItemStatusID
	}
	if req.DrawingURL != nil {
		item.DrawingURL = *req.DrawingURL
	}
	if req.Remarks != nil {
		item.Remarks = *req.Remarks
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "item", item.ID, item.MainPartName,
		"update", "", "", "工装信息更新", userID, "")

	return item, nil
}

// ChangeProcessRequest 变更流程请求
type ChangeProcessRequest struct {
	NewName       string `json:"new_name" binding:"required"`
	NewRevisionNo string `json:"new_revision_no"`
	ChangeType    string `json:"change_type" binding:"required"` // modification/repair
	Remarks       string `json:"remarks"`
}

// ApplyChangeProcess 执行变更流程：先落变更记录，再更新当前名称/版本。
// 任何流程状态下均可变更。
func (s *ItemService) ApplyChangeProcess(ctx context.Context, itemID, userID string, req *ChangeProcessRequest) (*entity.Item, error) {
	if req.ChangeType != entity.ChangeTypeModification && req.ChangeType != entity.ChangeTypeRepair {
		return nil, fmt.Errorf("%w: 变更类型必须为 modification 或 repair", ErrValidation)
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, ErrNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changeLog := &entity.ItemChangeLog{
			ID:            uuid.New().String()[:32],
			ItemID:        item.ID,
			ChangeType:    req.ChangeType,
			OldName:       item.CurrentName,
			NewName:       req.NewName,
			OldRevisionNo: item.RevisionNo,
			NewRevisionNo: req.NewRevisionNo,
			Remarks:       req.Remarks,
			ChangedBy:     userID,
		}
		if err := tx.Create(changeLog).Error; err != nil {
			return err
		}

		item.CurrentName = req.NewName
		if req.NewRevisionNo != "" {
			item.RevisionNo = req.NewRevisionNo
		}
		return tx.Save(item).Error
	})
	if err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "item", item.ID, item.MainPartName,
		"change_process", "", "",
		fmt.Sprintf("变更流程(%s): %s", req.ChangeType, req.NewName), userID, "")

	return item, nil
}

// GetChangeLogs 查询工装变更记录
func (s *ItemService) GetChangeLogs(ctx context.Context, itemID string) ([]entity.ItemChangeLog, error) {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, ErrNotFound
	}
	return s.itemRepo.FindChangeLogs(ctx, itemID)
}

// DeactivateItem 停用工装（软删除，保留全部历史）
func (s *ItemService) DeactivateItem(ctx context.Context, id, userID string) (*entity.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !item.IsActive {
		return item, nil
	}

	item.IsActive = false
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "item", item.ID, item.MainPartName,
		"deactivate", "", "", "工装停用", userID, "")

	return item, nil
}

// transitionHolderTx 在事务内更新工装持有方与流程状态。
// holderType 与 locationID/partyID 必须严格配对，二者有且只有一个。
func transitionHolderTx(tx *gorm.DB, item *entity.Item, process, holderType string, locationID, partyID *string) error {
	switch holderType {
	case entity.HolderTypeLocation:
		if locationID == nil || partyID != nil {
			return fmt.Errorf("%w: location持有方必须且仅提供locationId", ErrInvalidHolderState)
		}
	case entity.HolderTypeVendor:
		if partyID == nil || locationID != nil {
			return fmt.Errorf("%w: vendor持有方必须且仅提供partyId", ErrInvalidHolderState)
		}
	default:
		return fmt.Errorf("%w: 未知持有方类型 %s", ErrInvalidHolderState, holderType)
	}

	item.CurrentProcess = process
	item.CurrentHolderType = holderType
	item.CurrentLocationID = locationID
	item.CurrentPartyID = partyID
	item.UpdatedAt = time.Now()

	return tx.Save(item).Error
}

// TransitionHolder 工作流组件调用的持有方迁移入口
func (s *ItemService) TransitionHolder(ctx context.Context, itemID, process, holderType string, locationID, partyID *string) error {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return ErrNotFound
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return transitionHolderTx(tx, item, process, holderType, locationID, partyID)
	})
}
