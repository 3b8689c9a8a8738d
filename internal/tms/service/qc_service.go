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

// QCService 质检服务。
// 行项结论一经记录不可更改，后续更正走反向移转（system_return）。
type QCService struct {
	qcRepo       *repository.QCRepository
	inwardRepo   *repository.InwardRepository
	movementRepo *repository.MovementRepository
	itemRepo     *repository.ItemRepository
	auditRepo    *repository.AuditLogRepository
	db           *gorm.DB
}

func NewQCService(
	qcRepo *repository.QCRepository,
	inwardRepo *repository.InwardRepository,
	movementRepo *repository.MovementRepository,
	itemRepo *repository.ItemRepository,
	auditRepo *repository.AuditLogRepository,
	db *gorm.DB,
) *QCService {
	return &QCService{
		qcRepo:       qcRepo,
		inwardRepo:   inwardRepo,
		movementRepo: movementRepo,
		itemRepo:     itemRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

func (s *QCService) ListEntries(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.QualityControlEntry, int64, error) {
	return s.qcRepo.FindAll(ctx, page, pageSize, filters)
}

func (s *QCService) GetEntry(ctx context.Context, id string) (*entity.QualityControlEntry, error) {
	qc, err := s.qcRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return qc, nil
}

// DecisionRequest 质检结论请求
type DecisionRequest struct {
	IsApproved *bool  `json:"is_approved" binding:"required"`
	Remarks    string `json:"remarks"`
}

// RecordDecision 记录单个行项的质检结论。
// 合格：入库行项解除质检门禁，移转回写通过标记，工装入库（in_stock）。
// 不合格：有往来单位时记录反向移转退回供应商，工装回到 po_issued 等待重新交付。
// 批次内全部行项出结论后，批次自动翻转为 approved。
func (s *QCService) RecordDecision(ctx context.Context, entryID, qcItemID, userID string, req *DecisionRequest) (*entity.QualityControlEntry, error) {
	if req.IsApproved == nil {
		return nil, fmt.Errorf("%w: 必须给出合格/不合格结论", ErrValidation)
	}

	var qcNo string
	entryClosed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry entity.QualityControlEntry
		if err := tx.Where("id = ?", entryID).First(&entry).Error; err != nil {
			return ErrNotFound
		}
		qcNo = entry.QCNo

		var qcItem entity.QualityControlItem
		if err := tx.Where("id = ? AND qc_entry_id = ?", qcItemID, entryID).First(&qcItem).Error; err != nil {
			return ErrNotFound
		}
		if qcItem.IsApproved != nil {
			return fmt.Errorf("%w: 行项 %s 已有质检结论", ErrAlreadyDecided, qcItem.MainPartName)
		}

		now := time.Now()
		qcItem.IsApproved = req.IsApproved
		qcItem.Remarks = req.Remarks
		qcItem.DecidedBy = &userID
		qcItem.DecidedAt = &now
		if err := tx.Save(&qcItem).Error; err != nil {
			return err
		}

		var line entity.InwardLine
		if err := tx.Where("id = ?", qcItem.InwardLineID).First(&line).Error; err != nil {
			return err
		}
		line.IsQCPending = false
		line.IsQCApproved = *req.IsApproved
		if err := tx.Save(&line).Error; err != nil {
			return err
		}

		var item entity.Item
		if err := tx.Where("id = ?", qcItem.ItemID).First(&item).Error; err != nil {
			return err
		}

		if *req.IsApproved {
			if line.MovementID != nil {
				if err := s.movementRepo.MarkQCDecidedTx(tx, *line.MovementID, true); err != nil {
					return err
				}
			}
			if err := transitionHolderTx(tx, &item, entity.ProcessInStock,
				entity.HolderTypeLocation, &entry.LocationID, nil); err != nil {
				return err
			}
		} else {
			if line.MovementID != nil {
				if err := s.movementRepo.MarkQCDecidedTx(tx, *line.MovementID, false); err != nil {
					return err
				}
			}

			if entry.PartyID != nil {
				ret := &entity.Movement{
					ID:             uuid.New().String()[:32],
					Type:           entity.MovementTypeSystemReturn,
					ItemID:         item.ID,
					FromType:       entity.HolderTypeLocation,
					FromLocationID: &entry.LocationID,
					ToType:         entity.HolderTypeVendor,
					ToPartyID:      entry.PartyID,
					RefType:        entity.MovementRefInward,
					RefID:          line.InwardID,
					Reason:         "质检不合格退回",
					Remarks:        req.Remarks,
					CreatedBy:      userID,
				}
				if err := tx.Create(ret).Error; err != nil {
					return err
				}
				if err := transitionHolderTx(tx, &item, entity.ProcessPOIssued,
					entity.HolderTypeVendor, nil, entry.PartyID); err != nil {
					return err
				}
			} else {
				// 无往来单位来源：原地滞留，退出在库流程
				if err := transitionHolderTx(tx, &item, entity.ProcessNotInStock,
					entity.HolderTypeLocation, &entry.LocationID, nil); err != nil {
					return err
				}
			}
		}

		// 最后一项出结论时批次在同一事务内归档；
		// 条件更新保证并发下只有一次翻转生效
		undecided, err := s.qcRepo.CountUndecidedTx(tx, entryID)
		if err != nil {
			return err
		}
		if undecided == 0 {
			res := tx.Model(&entity.QualityControlEntry{}).
				Where("id = ? AND status = ?", entryID, entity.QCStatusPending).
				Update("status", entity.QCStatusApproved)
			if res.Error != nil {
				return res.Error
			}
			entryClosed = res.RowsAffected > 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if entryClosed {
		s.auditRepo.LogAction(ctx, "qc_entry", entryID, qcNo,
			"close", entity.QCStatusPending, entity.QCStatusApproved, "质检批次全部出结论", userID, "")
	}

	verdict := "合格"
	if !*req.IsApproved {
		verdict = "不合格"
	}
	s.auditRepo.LogAction(ctx, "qc_entry", entryID, qcNo,
		"decide", "", "", fmt.Sprintf("质检结论: %s", verdict), userID, "")

	entry, err := s.qcRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return entry, nil
}
