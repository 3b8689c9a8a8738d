package entity

import "time"

// AuditLog 操作日志
type AuditLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_audit_entity"` // item/indent/order/inward/qc/movement/user等
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_audit_entity"`
	EntityCode string `json:"entity_code" gorm:"size:50"`

	Action     string `json:"action" gorm:"size:50;not null"` // create/approve/reject/submit/qc_decision/change_process等
	FromStatus string `json:"from_status" gorm:"size:20"`
	ToStatus   string `json:"to_status" gorm:"size:20"`

	Content  string `json:"content" gorm:"type:text"`
	Metadata JSONB  `json:"metadata" gorm:"type:jsonb"`

	OperatorID   string    `json:"operator_id" gorm:"size:32"`
	OperatorName string    `json:"operator_name" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
