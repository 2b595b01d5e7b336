package models

import "time"

// ExpenseStatus 费用审批状态
const (
	ExpenseStatusPending  = "PENDING"  // 待审批
	ExpenseStatusApproved = "APPROVED" // 已批准
	ExpenseStatusRejected = "REJECTED" // 已驳回
)

// ExpenseCategory 费用类别
const (
	ExpenseCategoryOperational = "OPERATIONAL"
	ExpenseCategoryFuel        = "FUEL"
	ExpenseCategorySalary      = "SALARY"
	ExpenseCategoryMarketing   = "MARKETING"
	ExpenseCategoryUtilities   = "UTILITIES"
	ExpenseCategorySpareParts  = "SPARE_PARTS"
	ExpenseCategoryOther       = "OTHER"
)

// Expense 费用
type Expense struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ResortID    *int64     `gorm:"index" json:"resort_id,omitempty"` // 为空表示公司级费用
	Category    string     `gorm:"type:varchar(30);index;not null" json:"category"`
	Amount      float64    `gorm:"type:decimal(15,2);not null;default:0" json:"amount"`
	Date        Date       `gorm:"type:date;index;not null" json:"date"`
	Status      string     `gorm:"type:varchar(20);index;not null;default:'PENDING'" json:"status"`
	Description *string    `gorm:"type:varchar(255)" json:"description,omitempty"`
	ApprovedBy  *int64     `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Expense) TableName() string {
	return "expenses"
}

// IsApproved 是否计入财务汇总
func (e *Expense) IsApproved() bool {
	return e.Status == ExpenseStatusApproved
}

// MaintenanceRecord 维修记录
type MaintenanceRecord struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AssetID       int64      `gorm:"index;not null" json:"asset_id"`
	Description   *string    `gorm:"type:varchar(255)" json:"description,omitempty"`
	LaborCost     float64    `gorm:"type:decimal(15,2);not null;default:0" json:"labor_cost"`
	SparePartCost float64    `gorm:"type:decimal(15,2);not null;default:0" json:"spare_part_cost"`
	StartDate     Date       `gorm:"type:date;index;not null" json:"start_date"`
	EndDate       *Date      `gorm:"type:date" json:"end_date,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Asset *Asset `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
}

// TableName 表名
func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}

// TotalCost 维修总成本（人工 + 配件）
func (m *MaintenanceRecord) TotalCost() float64 {
	return m.LaborCost + m.SparePartCost
}
