package entity

import "time"

// QualityControlEntry 质检批次。
// 入库单提交时按（地点，往来单位，来源类型）归并生成，状态由行项检验结果推导。
type QualityControlEntry struct {
	ID   string `json:"id" gorm:"primaryKey;size:32"`
	QCNo string `json:"qc_no" gorm:"size:32;uniqueIndex;not null"`

	LocationID string  `json:"location_id" gorm:"size:32;not null;index"`
	PartyID    *string `json:"party_id" gorm:"size:32"`
	SourceType string  `json:"source_type" gorm:"size:20;not null"`

	Status string `json:"status" gorm:"size:20;default:pending"` // pending/approved

	Remarks   string    `json:"remarks" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Items    []QualityControlItem `json:"items,omitempty" gorm:"foreignKey:QCEntryID;constraint:OnDelete:CASCADE"`
	Location *Location            `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	Party    *Party               `json:"party,omitempty" gorm:"foreignKey:PartyID"`
}

func (QualityControlEntry) TableName() string {
	return "qc_entries"
}

// 质检批次状态
const (
	QCStatusPending  = "pending"
	QCStatusApproved = "approved"
)

// QualityControlItem 质检行项。
// IsApproved 三态：nil=待检，true=合格，false=不合格。检验结论一经记录不可更改。
type QualityControlItem struct {
	ID           string `json:"id" gorm:"primaryKey;size:32"`
	QCEntryID    string `json:"qc_entry_id" gorm:"size:32;not null;index"`
	InwardLineID string `json:"inward_line_id" gorm:"size:32;not null;uniqueIndex"`
	ItemID       string `json:"item_id" gorm:"size:32;not null;index"`

	MainPartName string `json:"main_part_name" gorm:"size:100"`

	IsApproved *bool      `json:"is_approved"`
	Remarks    string     `json:"remarks" gorm:"type:text"`
	DecidedBy  *string    `json:"decided_by" gorm:"size:32"`
	DecidedAt  *time.Time `json:"decided_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InwardLine *InwardLine `json:"inward_line,omitempty" gorm:"foreignKey:InwardLineID"`
}

func (QualityControlItem) TableName() string {
	return "qc_items"
}
