package models

import (
	"strings"
	"time"
)

// AssetCategory 资产类别
type AssetCategory string

// 资产类别
const (
	AssetCategoryATV       AssetCategory = "ATV"
	AssetCategoryUTV       AssetCategory = "UTV"
	AssetCategorySeaSport  AssetCategory = "SEA_SPORT"
	AssetCategoryPoolToys  AssetCategory = "POOL_TOYS"
	AssetCategoryLineSport AssetCategory = "LINE_SPORT"
)

// AssetCategories 全部资产类别（固定展示顺序）
var AssetCategories = []AssetCategory{
	AssetCategoryATV,
	AssetCategoryUTV,
	AssetCategorySeaSport,
	AssetCategoryPoolToys,
	AssetCategoryLineSport,
}

// Valid 是否为已知类别
func (c AssetCategory) Valid() bool {
	for _, v := range AssetCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Label 展示名称，下划线替换为空格
func (c AssetCategory) Label() string {
	return CategoryLabel(string(c))
}

// CategoryLabel 枚举值转展示名称
func CategoryLabel(v string) string {
	return strings.ReplaceAll(v, "_", " ")
}

// RevenueRecord 收入记录（一笔度假村/类别/日期的计费流水）
type RevenueRecord struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ResortID      int64         `gorm:"index:idx_revenue_resort_category;not null" json:"resort_id"`
	AssetCategory AssetCategory `gorm:"type:varchar(20);index:idx_revenue_resort_category;not null" json:"asset_category"`
	Date          Date          `gorm:"type:date;index;not null" json:"date"`
	Amount        float64       `gorm:"type:decimal(15,2);not null;default:0" json:"amount"`
	Discount      float64       `gorm:"type:decimal(15,2);not null;default:0" json:"discount"`
	TaxService    float64       `gorm:"type:decimal(15,2);not null;default:0" json:"tax_service"`
	Notes         *string       `gorm:"type:varchar(255)" json:"notes,omitempty"`
	CreatedBy     *int64        `json:"created_by,omitempty"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (RevenueRecord) TableName() string {
	return "revenue_records"
}

// ProfitSharingConfig 分成配置，可按生效日期多版本
type ProfitSharingConfig struct {
	ID               int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ResortID         int64         `gorm:"index:idx_psc_resort_category;not null" json:"resort_id"`
	AssetCategory    AssetCategory `gorm:"type:varchar(20);index:idx_psc_resort_category;not null" json:"asset_category"`
	DkuPercentage    float64       `gorm:"type:decimal(5,2);not null" json:"dku_percentage"`
	ResortPercentage float64       `gorm:"type:decimal(5,2);not null" json:"resort_percentage"`
	EffectiveFrom    Date          `gorm:"type:date;not null" json:"effective_from"`
	CreatedAt        time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (ProfitSharingConfig) TableName() string {
	return "profit_sharing_configs"
}
