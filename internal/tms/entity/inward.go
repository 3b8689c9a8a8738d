package entity

import "time"

// Inward 入库收货单
type Inward struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	InwardNo string `json:"inward_no" gorm:"size:32;uniqueIndex;not null"`

	// 来源：采购订单/外协加工/出库返回
	SourceType  string `json:"source_type" gorm:"size:20;not null"` // po/job_work/outward_return
	SourceRefID string `json:"source_ref_id" gorm:"size:32"`

	LocationID string  `json:"location_id" gorm:"size:32;not null;index"`
	PartyID    *string `json:"party_id" gorm:"size:32"`

	Status      string     `json:"status" gorm:"size:20;default:draft"` // draft/submitted
	SubmittedAt *time.Time `json:"submitted_at"`

	Remarks   string    `json:"remarks" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Lines    []InwardLine `json:"lines,omitempty" gorm:"foreignKey:InwardID;constraint:OnDelete:CASCADE"`
	Location *Location    `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	Party    *Party       `json:"party,omitempty" gorm:"foreignKey:PartyID"`
}

func (Inward) TableName() string {
	return "inwards"
}

// 入库单状态。submitted 为终态，提交后单据锁定，行项进入质检队列。
const (
	InwardStatusDraft     = "draft"
	InwardStatusSubmitted = "submitted"
)

// 入库来源类型
const (
	SourceTypePO            = "po"
	SourceTypeJobWork       = "job_work"
	SourceTypeOutwardReturn = "outward_return"
)

// InwardLine 入库行项。
// 工装类型/材质/图号/版本为收货时快照，保证主数据后续修改不影响历史收货记录。
type InwardLine struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	InwardID string `json:"inward_id" gorm:"size:32;not null;index"`
	ItemID   string `json:"item_id" gorm:"size:32;not null;index"`

	// 收货时快照
	MainPartName string `json:"main_part_name" gorm:"size:100"`
	ItemTypeName string `json:"item_type_name" gorm:"size:100"`
	MaterialName string `json:"material_name" gorm:"size:100"`
	DrawingNo    string `json:"drawing_no" gorm:"size:100"`
	RevisionNo   string `json:"revision_no" gorm:"size:32"`

	// 质检门禁：IsQCPending=true 时 IsQCApproved 恒为 false；
	// 质检通过后 IsQCApproved=true 且 IsQCPending 永久为 false。
	IsQCPending  bool `json:"is_qc_pending" gorm:"not null;default:true"`
	IsQCApproved bool `json:"is_qc_approved" gorm:"not null;default:false"`

	MovementID *string `json:"movement_id" gorm:"size:32"`

	Remarks   string    `json:"remarks" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (InwardLine) TableName() string {
	return "inward_lines"
}
