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

// ProcurementService 采购服务：请购单与采购订单。
// 流程：请购(pi_issued) → 审批 → 下单 → 订单审批(po_issued) → 入库。
type ProcurementService struct {
	indentRepo *repository.IndentRepository
	orderRepo  *repository.OrderRepository
	itemRepo   *repository.ItemRepository
	partyRepo  *repository.PartyRepository
	auditRepo  *repository.AuditLogRepository
	db         *gorm.DB
}

func NewProcurementService(
	indentRepo *repository.IndentRepository,
	orderRepo *repository.OrderRepository,
	itemRepo *repository.ItemRepository,
	partyRepo *repository.PartyRepository,
	auditRepo *repository.AuditLogRepository,
	db *gorm.DB,
) *ProcurementService {
	return &ProcurementService{
		indentRepo: indentRepo,
		orderRepo:  orderRepo,
		itemRepo:   itemRepo,
		partyRepo:  partyRepo,
		auditRepo:  auditRepo,
		db:         db,
	}
}

// === 请购单 ===

func (s *ProcurementService) ListIndents(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseIndent, int64, error) {
	return s.indentRepo.FindAll(ctx, page, pageSize, filters)
}

func (s *ProcurementService) GetIndent(ctx context.Context, id string) (*entity.PurchaseIndent, error) {
	pi, err := s.indentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return pi, nil
}

// CreateIndentRequest 创建请购单请求
type CreateIndentRequest struct {
	Type    string   `json:"type" binding:"required"` // new/repair
	ItemIDs []string `json:"item_ids" binding:"required"`
	Remarks string   `json:"remarks"`
}

// CreateIndent 创建请购单。
// new类型要求工装处于 not_in_stock；repair类型要求处于 in_stock。
// 全部行项与工装状态流转在同一事务内完成。
func (s *ProcurementService) CreateIndent(ctx context.Context, userID string, req *CreateIndentRequest) (*entity.PurchaseIndent, error) {
	if req.Type != entity.IndentTypeNew && req.Type != entity.IndentTypeRepair {
		return nil, fmt.Errorf("%w: 请购类型必须为 new 或 repair", ErrValidation)
	}
	if len(req.ItemIDs) == 0 {
		return nil, fmt.Errorf("%w: 请购单至少包含一个工装", ErrEmptySelection)
	}

	seen := make(map[string]bool, len(req.ItemIDs))
	for _, itemID := range req.ItemIDs {
		if seen[itemID] {
			return nil, fmt.Errorf("%w: 工装 %s 在请购单中重复", ErrValidation, itemID)
		}
		seen[itemID] = true
	}

	piNo, err := s.indentRepo.GenerateCode(ctx)
	if err != nil {
		return nil, err
	}

	pi := &entity.PurchaseIndent{
		ID:        uuid.New().String()[:32],
		PINo:      piNo,
		Type:      req.Type,
		Status:    entity.IndentStatusPending,
		Remarks:   req.Remarks,
		CreatedBy: userID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pi).Error; err != nil {
			return err
		}

		for _, itemID := range req.ItemIDs {
			var item entity.Item
			if err := tx.Where("id = ?", itemID).First(&item).Error; err != nil {
				return fmt.Errorf("%w: 工装 %s 不存在", ErrValidation, itemID)
			}
			if !item.IsActive {
				return fmt.Errorf("%w: 工装 %s 已停用", ErrValidation, item.MainPartName)
			}

			switch req.Type {
			case entity.IndentTypeNew:
				if item.CurrentProcess != entity.ProcessNotInStock {
					return fmt.Errorf("%w: 工装 %s 当前状态为 %s，不可新购请购",
						ErrInvalidTransition, item.MainPartName, item.CurrentProcess)
				}
			case entity.IndentTypeRepair:
				if item.CurrentProcess != entity.ProcessInStock {
					return fmt.Errorf("%w: 工装 %s 当前状态为 %s，不可返修请购",
						ErrInvalidTransition, item.MainPartName, item.CurrentProcess)
				}
			}

			line := &entity.PurchaseIndentItem{
				ID:               uuid.New().String()[:32],
				PurchaseIndentID: pi.ID,
				ItemID:           item.ID,
				MainPartName:     item.MainPartName,
				ItemName:         item.CurrentName,
			}
			if err := tx.Create(line).Error; err != nil {
				return err
			}

			item.CurrentProcess = entity.ProcessPIIssued
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "purchase_indent", pi.ID, pi.PINo,
		"create", "", entity.IndentStatusPending,
		fmt.Sprintf("创建请购单(%s)，共%d项", req.Type, len(req.ItemIDs)), userID, "")

	return s.indentRepo.FindByID(ctx, pi.ID)
}

// ApproveIndent 审批通过请购单。事务内重读状态，并发审批只有一方成功。
func (s *ProcurementService) ApproveIndent(ctx context.Context, id, userID string) (*entity.PurchaseIndent, error) {
	var piNo string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pi entity.PurchaseIndent
		if err := tx.Where("id = ?", id).First(&pi).Error; err != nil {
			return ErrNotFound
		}
		if pi.Status != entity.IndentStatusPending {
			return fmt.Errorf("%w: 请购单当前状态为 %s", ErrInvalidTransition, pi.Status)
		}
		piNo = pi.PINo

		now := time.Now()
		pi.Status = entity.IndentStatusApproved
		pi.ApprovedBy = &userID
		pi.ApprovedAt = &now
		return tx.Save(&pi).Error
	})
	if err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "purchase_indent", id, piNo,
		"approve", entity.IndentStatusPending, entity.IndentStatusApproved, "请购单审批通过", userID, "")
	return s.indentRepo.FindByID(ctx, id)
}

// RejectIndent 驳回请购单，关联工装回退到请购前状态。
func (s *ProcurementService) RejectIndent(ctx context.Context, id, userID, reason string) (*entity.PurchaseIndent, error) {
	var piNo string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pi entity.PurchaseIndent
		if err := tx.Preload("Items").Where("id = ?", id).First(&pi).Error; err != nil {
			return ErrNotFound
		}
		if pi.Status != entity.IndentStatusPending {
			return fmt.Errorf("%w: 请购单当前状态为 %s", ErrInvalidTransition, pi.Status)
		}
		piNo = pi.PINo

		now := time.Now()
		pi.Status = entity.IndentStatusRejected
		pi.ApprovedBy = &userID
		pi.ApprovedAt = &now
		if reason != "" {
			pi.Remarks = reason
		}
		if err := tx.Save(&pi).Error; err != nil {
			return err
		}

		// 回退工装状态
		revert := entity.ProcessNotInStock
		if pi.Type == entity.IndentTypeRepair {
			revert = entity.ProcessInStock
		}
		for _, line := range pi.Items {
			if err := tx.Model(&entity.Item{}).
				Where("id = ? AND current_process = ?", line.ItemID, entity.ProcessPIIssued).
				Update("current_process", revert).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "purchase_indent", id, piNo,
		"reject", entity.IndentStatusPending, entity.IndentStatusRejected, "请购单驳回: "+reason, userID, "")
	return s.indentRepo.FindByID(ctx, id)
}

// === 采购订单 ===

func (s *ProcurementService) ListOrders(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseOrder, int64, error) {
	return s.orderRepo.FindAll(ctx, page, pageSize, filters)
}

func (s *ProcurementService) GetOrder(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return po, nil
}

// OrderLineRequest 订单行项请求
type OrderLineRequest struct {
	IndentItemID string  `json:"indent_item_id" binding:"required"`
	Rate         float64 `json:"rate" binding:"required"`
	Remarks      string  `json:"remarks"`
}

// CreateOrderRequest 创建采购订单请求
type CreateOrderRequest struct {
	PartyID      string             `json:"party_id" binding:"required"`
	DeliveryDate *time.Time         `json:"delivery_date"`
	Lines        []OrderLineRequest `json:"lines" binding:"required"`
	Remarks      string             `json:"remarks"`
}

// CreateOrder 创建采购订单。
// 行项必须来自已审批请购单，且每个请购行项只能被下单一次；
// 唯一索引兜底并发下的重复下单。
func (s *ProcurementService) CreateOrder(ctx context.Context, userID string, req *CreateOrderRequest) (*entity.PurchaseOrder, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: 订单至少包含一个行项", ErrEmptySelection)
	}

	party, err := s.partyRepo.FindByID(ctx, req.PartyID)
	if err != nil {
		return nil, fmt.Errorf("%w: 往来单位不存在", ErrValidation)
	}
	if !party.IsActive {
		return nil, fmt.Errorf("%w: 往来单位 %s 已停用", ErrValidation, party.Name)
	}

	poNo, err := s.orderRepo.GenerateCode(ctx)
	if err != nil {
		return nil, err
	}

	po := &entity.PurchaseOrder{
		ID:           uuid.New().String()[:32],
		PONo:         poNo,
		PartyID:      req.PartyID,
		Status:       entity.OrderStatusPending,
		DeliveryDate: req.DeliveryDate,
		Remarks:      req.Remarks,
		CreatedBy:    userID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(po).Error; err != nil {
			return err
		}

		for _, lineReq := range req.Lines {
			indentItem, err := s.indentRepo.FindItemByID(ctx, lineReq.IndentItemID)
			if err != nil {
				return fmt.Errorf("%w: 请购行项 %s 不存在", ErrValidation, lineReq.IndentItemID)
			}

			var pi entity.PurchaseIndent
			if err := tx.Where("id = ?", indentItem.PurchaseIndentID).First(&pi).Error; err != nil {
				return err
			}
			if pi.Status != entity.IndentStatusApproved {
				return fmt.Errorf("%w: 请购单 %s 未审批通过", ErrInvalidTransition, pi.PINo)
			}

			existing, err := s.orderRepo.FindOrderItemByIndentItemID(ctx, lineReq.IndentItemID)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: 请购行项 %s 已被订单引用", ErrAlreadyOrdered, indentItem.MainPartName)
			}

			if lineReq.Rate <= 0 {
				return fmt.Errorf("%w: 单价必须大于0", ErrValidation)
			}

			line := &entity.PurchaseOrderItem{
				ID:                   uuid.New().String()[:32],
				PurchaseOrderID:      po.ID,
				PurchaseIndentItemID: indentItem.ID,
				ItemID:               indentItem.ItemID,
				MainPartName:         indentItem.MainPartName,
				ItemName:             indentItem.ItemName,
				Rate:                 lineReq.Rate,
				Remarks:              lineReq.Remarks,
			}
			if err := tx.Create(line).Error; err != nil {
				if err == gorm.ErrDuplicatedKey {
					return fmt.Errorf("%w: 请购行项 %s 已被订单引用", ErrAlreadyOrdered, indentItem.MainPartName)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "purchase_order", po.ID, po.PONo,
		"create", "", entity.OrderStatusPending,
		fmt.Sprintf("创建采购订单，供应商: %s，共%d项", party.Name, len(req.Lines)), userID, "")

	return s.orderRepo.FindByID(ctx, po.ID)
}

// ApproveOrder 审批通过采购订单，关联工装流转到 po_issued。
func (s *ProcurementService) ApproveOrder(ctx context.Context, id, userID string) (*entity.PurchaseOrder, error) {
	var poNo string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var po entity.PurchaseOrder
		if err := tx.Preload("Items").Where("id = ?", id).First(&po).Error; err != nil {
			return ErrNotFound
		}
		if po.Status != entity.OrderStatusPending {
			return fmt.Errorf("%w: 采购订单当前状态为 %s", ErrInvalidTransition, po.Status)
		}
		poNo = po.PONo

		now := time.Now()
		po.Status = entity.OrderStatusApproved
		po.ApprovedBy = &userID
		po.ApprovedAt = &now
		if err := tx.Save(&po).Error; err != nil {
			return err
		}

		for _, line := range po.Items {
			if err := tx.Model(&entity.Item{}).
				Where("id = ?", line.ItemID).
				Update("current_process", entity.ProcessPOIssued).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "purchase_order", id, poNo,
		"approve", entity.OrderStatusPending, entity.OrderStatusApproved, "采购订单审批通过", userID, "")
	return s.orderRepo.FindByID(ctx, id)
}

// RejectOrder 驳回采购订单。请购行项重新可被下单，工装状态保持 pi_issued。
func (s *ProcurementService) RejectOrder(ctx context.Context, id, userID, reason string) (*entity.PurchaseOrder, error) {
	var poNo string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var po entity.PurchaseOrder
		if err := tx.Preload("Items").Where("id = ?", id).First(&po).Error; err != nil {
			return ErrNotFound
		}
		if po.Status != entity.OrderStatusPending {
			return fmt.Errorf("%w: 采购订单当前状态为 %s", ErrInvalidTransition, po.Status)
		}
		poNo = po.PONo

		now := time.Now()
		po.Status = entity.OrderStatusRejected
		po.ApprovedBy = &userID
		po.ApprovedAt = &now
		if reason != "" {
			po.Remarks = reason
		}
		if err := tx.Save(&po).Error; err != nil {
			return err
		}

		// 释放请购行项占用，允许重新下单
		return tx.Where("purchase_order_id = ?", po.ID).
			Delete(&entity.PurchaseOrderItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "purchase_order", id, poNo,
		"reject", entity.OrderStatusPending, entity.OrderStatusRejected, "采购订单驳回: "+reason, userID, "")
	return s.orderRepo.FindByID(ctx, id)
}
