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

// InwardService 入库收货服务。
// 草稿可编辑，提交为单向终态：提交时生成移转台账、归并质检批次，工装流转到 in_qc。
type InwardService struct {
	inwardRepo   *repository.InwardRepository
	qcRepo       *repository.QCRepository
	movementRepo *repository.MovementRepository
	itemRepo     *repository.ItemRepository
	orderRepo    *repository.OrderRepository
	locationRepo *repository.LocationRepository
	partyRepo    *repository.PartyRepository
	userRepo     *repository.UserRepository
	auditRepo    *repository.AuditLogRepository
	db           *gorm.DB
}

func NewInwardService(
	inwardRepo *repository.InwardRepository,
	qcRepo *repository.QCRepository,
	movementRepo *repository.MovementRepository,
	itemRepo *repository.ItemRepository,
	orderRepo *repository.OrderRepository,
	locationRepo *repository.LocationRepository,
	partyRepo *repository.PartyRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditLogRepository,
	db *gorm.DB,
) *InwardService {
	return &InwardService{
		inwardRepo:   inwardRepo,
		qcRepo:       qcRepo,
		movementRepo: movementRepo,
		itemRepo:     itemRepo,
		orderRepo:    orderRepo,
		locationRepo: locationRepo,
		partyRepo:    partyRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

func (s *InwardService) ListInwards(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Inward, int64, error) {
	return s.inwardRepo.FindAll(ctx, page, pageSize, filters)
}

func (s *InwardService) GetInward(ctx context.Context, id string) (*entity.Inward, error) {
	in, err := s.inwardRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return in, nil
}

// CreateInwardRequest 创建入库草稿请求
type CreateInwardRequest struct {
	SourceType  string   `json:"source_type" binding:"required"` // po/job_work/outward_return
	SourceRefID string   `json:"source_ref_id"`
	LocationID  string   `json:"location_id" binding:"required"`
	PartyID     *string  `json:"party_id"`
	ItemIDs     []string `json:"item_ids" binding:"required"`
	Remarks     string   `json:"remarks"`
}

// CreateInwardDraft 创建入库草稿。
// 行项字段在此刻快照，主数据后续变更不影响收货记录；工装流转到 in_inward。
func (s *InwardService) CreateInwardDraft(ctx context.Context, userID string, req *CreateInwardRequest) (*entity.Inward, error) {
	switch req.SourceType {
	case entity.SourceTypePO, entity.SourceTypeJobWork, entity.SourceTypeOutwardReturn:
	default:
		return nil, fmt.Errorf("%w: 未知入库来源 %s", ErrValidation, req.SourceType)
	}
	if len(req.ItemIDs) == 0 {
		return nil, fmt.Errorf("%w: 入库单至少包含一个工装", ErrEmptySelection)
	}

	loc, err := s.locationRepo.FindByID(ctx, req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("%w: 地点不存在", ErrValidation)
	}
	if !loc.IsActive {
		return nil, fmt.Errorf("%w: 地点 %s 已停用", ErrValidation, loc.Name)
	}
	if err := requireLocationAccess(ctx, s.userRepo, userID, loc.CompanyID, loc.ID); err != nil {
		return nil, err
	}

	if req.SourceType == entity.SourceTypePO {
		if req.SourceRefID == "" {
			return nil, fmt.Errorf("%w: 采购入库必须关联采购订单", ErrValidation)
		}
		po, err := s.orderRepo.FindByID(ctx, req.SourceRefID)
		if err != nil {
			return nil, fmt.Errorf("%w: 采购订单不存在", ErrValidation)
		}
		if po.Status != entity.OrderStatusApproved {
			return nil, fmt.Errorf("%w: 采购订单 %s 未审批通过", ErrInvalidTransition, po.PONo)
		}
		if req.PartyID == nil {
			req.PartyID = &po.PartyID
		}
	}

	if req.PartyID != nil {
		if _, err := s.partyRepo.FindByID(ctx, *req.PartyID); err != nil {
			return nil, fmt.Errorf("%w: 往来单位不存在", ErrValidation)
		}
	}

	inwardNo, err := s.inwardRepo.GenerateCode(ctx)
	if err != nil {
		return nil, err
	}

	in := &entity.Inward{
		ID:          uuid.New().String()[:32],
		InwardNo:    inwardNo,
		SourceType:  req.SourceType,
		SourceRefID: req.SourceRefID,
		LocationID:  req.LocationID,
		PartyID:     req.PartyID,
		Status:      entity.InwardStatusDraft,
		Remarks:     req.Remarks,
		CreatedBy:   userID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(in).Error; err != nil {
			return err
		}
		for _, itemID := range req.ItemIDs {
			if err := s.createLineTx(tx, in, itemID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "inward", in.ID, in.InwardNo,
		"create", "", entity.InwardStatusDraft,
		fmt.Sprintf("创建入库草稿(%s)，共%d项", req.SourceType, len(req.ItemIDs)), userID, "")

	return s.inwardRepo.FindByID(ctx, in.ID)
}

func (s *InwardService) createLineTx(tx *gorm.DB, in *entity.Inward, itemID string) error {
	var item entity.Item
	err := tx.Preload("ItemType").Preload("Material").
		Where("id = ?", itemID).First(&item).Error
	if err != nil {
		return fmt.Errorf("%w: 工装 %s 不存在", ErrValidation, itemID)
	}

	if in.SourceType == entity.SourceTypePO && item.CurrentProcess != entity.ProcessPOIssued {
		return fmt.Errorf("%w: 工装 %s 当前状态为 %s，不可采购入库",
			ErrInvalidTransition, item.MainPartName, item.CurrentProcess)
	}

	line := &entity.InwardLine{
		ID:           uuid.New().String()[:32],
		InwardID:     in.ID,
		ItemID:       item.ID,
		MainPartName: item.MainPartName,
		DrawingNo:    item.DrawingNo,
		RevisionNo:   item.RevisionNo,
		IsQCPending:  true,
	}
	if item.ItemType != nil {
		line.ItemTypeName = item.ItemType.Name
	}
	if item.Material != nil {
		line.MaterialName = item.Material.Name
	}
	if err := tx.Create(line).Error; err != nil {
		return err
	}

	item.CurrentProcess = entity.ProcessInInward
	return tx.Save(&item).Error
}

// AddLine 向草稿追加行项
func (s *InwardService) AddLine(ctx context.Context, inwardID, itemID, userID string) (*entity.Inward, error) {
	in, err := s.inwardRepo.FindByID(ctx, inwardID)
	if err != nil {
		return nil, ErrNotFound
	}
	if in.Status != entity.InwardStatusDraft {
		return nil, fmt.Errorf("%w: 入库单已提交，不可修改", ErrAlreadySubmitted)
	}
	for _, line := range in.Lines {
		if line.ItemID == itemID {
			return nil, fmt.Errorf("%w: 工装已在入库单中", ErrValidation)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.createLineTx(tx, in, itemID)
	})
	if err != nil {
		return nil, err
	}
	return s.inwardRepo.FindByID(ctx, inwardID)
}

// RemoveLine 从草稿移除行项，工装回退到入库前状态
func (s *InwardService) RemoveLine(ctx context.Context, inwardID, lineID, userID string) (*entity.Inward, error) {
	in, err := s.inwardRepo.FindByID(ctx, inwardID)
	if err != nil {
		return nil, ErrNotFound
	}
	if in.Status != entity.InwardStatusDraft {
		return nil, fmt.Errorf("%w: 入库单已提交，不可修改", ErrAlreadySubmitted)
	}

	var target *entity.InwardLine
	for i := range in.Lines {
		if in.Lines[i].ID == lineID {
			target = &in.Lines[i]
			break
		}
	}
	if target == nil {
		return nil, ErrNotFound
	}

	revert := entity.ProcessNotInStock
	if in.SourceType == entity.SourceTypePO {
		revert = entity.ProcessPOIssued
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.InwardLine{}, "id = ?", lineID).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Item{}).
			Where("id = ? AND current_process = ?", target.ItemID, entity.ProcessInInward).
			Update("current_process", revert).Error
	})
	if err != nil {
		return nil, err
	}
	return s.inwardRepo.FindByID(ctx, inwardID)
}

// SubmitInward 提交入库单（单向，幂等防护）。
// 同一事务内：逐行生成入库移转、归并质检批次、工装流转到 in_qc。
// 重复提交返回 ErrAlreadySubmitted；移转按（单据，工装）查重，保证不重复记账。
func (s *InwardService) SubmitInward(ctx context.Context, id, userID string) (*entity.Inward, error) {
	draft, err := s.inwardRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	loc, err := s.locationRepo.FindByID(ctx, draft.LocationID)
	if err != nil {
		return nil, fmt.Errorf("%w: 地点不存在", ErrValidation)
	}
	if err := requireLocationAccess(ctx, s.userRepo, userID, loc.CompanyID, loc.ID); err != nil {
		return nil, err
	}

	var inwardNo string
	var lineCount int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var in entity.Inward
		if err := tx.Preload("Lines").Where("id = ?", id).First(&in).Error; err != nil {
			return ErrNotFound
		}
		if in.Status == entity.InwardStatusSubmitted {
			return fmt.Errorf("%w: 入库单 %s 已提交", ErrAlreadySubmitted, in.InwardNo)
		}
		if len(in.Lines) == 0 {
			return fmt.Errorf("%w: 入库单无行项，不可提交", ErrEmptySelection)
		}
		inwardNo = in.InwardNo
		lineCount = len(in.Lines)

		qcEntry, err := s.findOrCreateQCEntryTx(tx, &in)
		if err != nil {
			return err
		}

		for i := range in.Lines {
			line := &in.Lines[i]

			existing, err := s.movementRepo.FindByRefTx(tx, entity.MovementRefInward, in.ID, line.ItemID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}

			var item entity.Item
			if err := tx.Where("id = ?", line.ItemID).First(&item).Error; err != nil {
				return err
			}

			movement := &entity.Movement{
				ID:           uuid.New().String()[:32],
				Type:         entity.MovementTypeInward,
				ItemID:       line.ItemID,
				ToType:       entity.HolderTypeLocation,
				ToLocationID: &in.LocationID,
				IsQCPending:  true,
				RefType:      entity.MovementRefInward,
				RefID:        in.ID,
				CreatedBy:    userID,
			}
			// 来源持有方：有往来单位则从供应商入库，否则沿用工装当前持有方
			if in.PartyID != nil {
				movement.FromType = entity.HolderTypeVendor
				movement.FromPartyID = in.PartyID
			} else if item.CurrentHolderType != "" {
				movement.FromType = item.CurrentHolderType
				movement.FromLocationID = item.CurrentLocationID
				movement.FromPartyID = item.CurrentPartyID
			}
			if err := tx.Create(movement).Error; err != nil {
				return err
			}

			line.MovementID = &movement.ID
			if err := tx.Save(line).Error; err != nil {
				return err
			}

			qcItem := &entity.QualityControlItem{
				ID:           uuid.New().String()[:32],
				QCEntryID:    qcEntry.ID,
				InwardLineID: line.ID,
				ItemID:       line.ItemID,
				MainPartName: line.MainPartName,
			}
			if err := tx.Create(qcItem).Error; err != nil {
				return err
			}

			if err := transitionHolderTx(tx, &item, entity.ProcessInQC,
				entity.HolderTypeLocation, &in.LocationID, nil); err != nil {
				return err
			}
		}

		now := time.Now()
		in.Status = entity.InwardStatusSubmitted
		in.SubmittedAt = &now
		return tx.Save(&in).Error
	})
	if err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "inward", id, inwardNo,
		"submit", entity.InwardStatusDraft, entity.InwardStatusSubmitted,
		fmt.Sprintf("入库提交，共%d项进入质检", lineCount), userID, "")
	return s.inwardRepo.FindByID(ctx, id)
}

// findOrCreateQCEntryTx 按（地点，往来单位，来源类型）归并待检批次
func (s *InwardService) findOrCreateQCEntryTx(tx *gorm.DB, in *entity.Inward) (*entity.QualityControlEntry, error) {
	var qc entity.QualityControlEntry
	query := tx.Where("location_id = ? AND source_type = ? AND status = ?",
		in.LocationID, in.SourceType, entity.QCStatusPending)
	if in.PartyID != nil {
		query = query.Where("party_id = ?", *in.PartyID)
	} else {
		query = query.Where("party_id IS NULL")
	}
	if err := query.First(&qc).Error; err == nil {
		return &qc, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	qcNo, err := s.qcRepo.GenerateCode(tx)
	if err != nil {
		return nil, err
	}
	entry := &entity.QualityControlEntry{
		ID:         uuid.New().String()[:32],
		QCNo:       qcNo,
		LocationID: in.LocationID,
		PartyID:    in.PartyID,
		SourceType: in.SourceType,
		Status:     entity.QCStatusPending,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}
