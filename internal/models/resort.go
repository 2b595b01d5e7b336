// Package models 定义数据模型
package models

import "time"

// Resort 度假村（合作方）
type Resort struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Location  *string   `gorm:"type:varchar(255)" json:"location,omitempty"`
	Status    int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Resort) TableName() string {
	return "resorts"
}

// ResortStatus 度假村状态
const (
	ResortStatusDisabled = 0 // 停用
	ResortStatusActive   = 1 // 合作中
)

// Asset 租赁资产（ATV、水上设备等）
type Asset struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ResortID     int64         `gorm:"index;not null" json:"resort_id"`
	Code         string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name         string        `gorm:"type:varchar(100);not null" json:"name"`
	Category     AssetCategory `gorm:"type:varchar(20);index;not null" json:"category"`
	Status       string        `gorm:"type:varchar(20);index;not null;default:'ACTIVE'" json:"status"`
	PurchaseCost float64       `gorm:"type:decimal(15,2);not null;default:0" json:"purchase_cost"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Resort *Resort `gorm:"foreignKey:ResortID" json:"resort,omitempty"`
}

// TableName 表名
func (Asset) TableName() string {
	return "assets"
}

// AssetStatus 资产状态
const (
	AssetStatusActive      = "ACTIVE"      // 可租用
	AssetStatusMaintenance = "MAINTENANCE" // 维修中
	AssetStatusInactive    = "INACTIVE"    // 停用
)
