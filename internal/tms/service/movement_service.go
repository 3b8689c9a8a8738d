package service

import (
	"context"
	"fmt"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementService 移转台账服务。
// 台账只追加：查询、工装轨迹回放、人工移转（出库/更正退回）。
type MovementService struct {
	movementRepo *repository.MovementRepository
	itemRepo     *repository.ItemRepository
	locationRepo *repository.LocationRepository
	partyRepo    *repository.PartyRepository
	userRepo     *repository.UserRepository
	auditRepo    *repository.AuditLogRepository
	db           *gorm.DB
}

func NewMovementService(
	movementRepo *repository.MovementRepository,
	itemRepo *repository.ItemRepository,
	locationRepo *repository.LocationRepository,
	partyRepo *repository.PartyRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditLogRepository,
	db *gorm.DB,
) *MovementService {
	return &MovementService{
		movementRepo: movementRepo,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		partyRepo:    partyRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

func (s *MovementService) ListMovements(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Movement, int64, error) {
	return s.movementRepo.FindAll(ctx, page, pageSize, filters)
}

// GetItemTrail 工装完整移转轨迹（时间正序）
func (s *MovementService) GetItemTrail(ctx context.Context, itemID string) ([]entity.Movement, error) {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, ErrNotFound
	}
	return s.movementRepo.FindByItem(ctx, itemID)
}

// RecordMovementRequest 人工移转请求
type RecordMovementRequest struct {
	Type         string  `json:"type" binding:"required"` // outward/system_return
	ItemID       string  `json:"item_id" binding:"required"`
	ToType       string  `json:"to_type" binding:"required"` // location/vendor
	ToLocationID *string `json:"to_location_id"`
	ToPartyID    *string `json:"to_party_id"`
	Reason       string  `json:"reason"`
	Remarks      string  `json:"remarks"`
}

// RecordMovement 人工记录移转。
// outward 要求工装在库；system_return 是更正入口，任何状态都可记录，
// 但目标持有方必须合法。来源持有方取工装当前状态，不接受外部指定。
func (s *MovementService) RecordMovement(ctx context.Context, userID string, req *RecordMovementRequest) (*entity.Movement, error) {
	if req.Type != entity.MovementTypeOutward && req.Type != entity.MovementTypeSystemReturn {
		return nil, fmt.Errorf("%w: 人工移转仅支持 outward 或 system_return", ErrValidation)
	}

	item, err := s.itemRepo.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !item.IsActive {
		return nil, fmt.Errorf("%w: 工装 %s 已停用", ErrValidation, item.MainPartName)
	}

	if req.Type == entity.MovementTypeOutward && item.CurrentProcess != entity.ProcessInStock {
		return nil, fmt.Errorf("%w: 工装 %s 当前状态为 %s，不可出库",
			ErrInvalidTransition, item.MainPartName, item.CurrentProcess)
	}

	var toLoc *entity.Location
	switch req.ToType {
	case entity.HolderTypeLocation:
		if req.ToLocationID == nil || req.ToPartyID != nil {
			return nil, fmt.Errorf("%w: location目标必须且仅提供locationId", ErrInvalidHolderState)
		}
		loc, err := s.locationRepo.FindByID(ctx, *req.ToLocationID)
		if err != nil {
			return nil, fmt.Errorf("%w: 目标地点不存在", ErrValidation)
		}
		if !loc.IsActive {
			return nil, fmt.Errorf("%w: 目标地点 %s 已停用", ErrValidation, loc.Name)
		}
		toLoc = loc
	case entity.HolderTypeVendor:
		if req.ToPartyID == nil || req.ToLocationID != nil {
			return nil, fmt.Errorf("%w: vendor目标必须且仅提供partyId", ErrInvalidHolderState)
		}
		party, err := s.partyRepo.FindByID(ctx, *req.ToPartyID)
		if err != nil {
			return nil, fmt.Errorf("%w: 目标往来单位不存在", ErrValidation)
		}
		if !party.IsActive {
			return nil, fmt.Errorf("%w: 目标往来单位 %s 已停用", ErrValidation, party.Name)
		}
	default:
		return nil, fmt.Errorf("%w: 未知目标持有方类型 %s", ErrInvalidHolderState, req.ToType)
	}

	// 地点操作权门禁：涉及的目标地点与来源地点都要求授权
	if toLoc != nil {
		if err := requireLocationAccess(ctx, s.userRepo, userID, toLoc.CompanyID, toLoc.ID); err != nil {
			return nil, err
		}
	}
	if item.CurrentHolderType == entity.HolderTypeLocation && item.CurrentLocationID != nil {
		src, err := s.locationRepo.FindByID(ctx, *item.CurrentLocationID)
		if err != nil {
			return nil, err
		}
		if err := requireLocationAccess(ctx, s.userRepo, userID, src.CompanyID, src.ID); err != nil {
			return nil, err
		}
	}

	movement := &entity.Movement{
		ID:             uuid.New().String()[:32],
		Type:           req.Type,
		ItemID:         item.ID,
		FromType:       item.CurrentHolderType,
		FromLocationID: item.CurrentLocationID,
		FromPartyID:    item.CurrentPartyID,
		ToType:         req.ToType,
		ToLocationID:   req.ToLocationID,
		ToPartyID:      req.ToPartyID,
		RefType:        entity.MovementRefManual,
		Reason:         req.Reason,
		Remarks:        req.Remarks,
		CreatedBy:      userID,
	}

	// 出库到供应商进入在外状态；回到地点视为在库
	process := entity.ProcessInStock
	if req.Type == entity.MovementTypeOutward {
		process = entity.ProcessInOutward
	} else if req.ToType == entity.HolderTypeVendor {
		process = entity.ProcessInOutward
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(movement).Error; err != nil {
			return err
		}
		return transitionHolderTx(tx, item, process, req.ToType, req.ToLocationID, req.ToPartyID)
	})
	if err != nil {
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "movement", movement.ID, "",
		req.Type, "", "", fmt.Sprintf("人工移转: %s", item.MainPartName), userID, "")

	return movement, nil
}
