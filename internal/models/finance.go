package models

// ProcessedRevenue 计算分成后的收入记录，与原始记录一一对应
type ProcessedRevenue struct {
	RecordID      int64         `json:"record_id"`
	ResortID      int64         `json:"resort_id"`
	AssetCategory AssetCategory `json:"asset_category"`
	Date          Date          `json:"date"`
	Amount        float64       `json:"amount"`
	Discount      float64       `json:"discount"`
	TaxService    float64       `json:"tax_service"`
	NetAmount     float64       `json:"net_amount"`     // amount - discount - tax_service，允许为负
	DkuPercentage float64       `json:"dku_percentage"` // 未配置时为 0
	DkuShare      float64       `json:"dku_share"`
	ResortShare   float64       `json:"resort_share"`
	HasConfig     bool          `json:"has_config"`
	ConfigID      *int64        `json:"config_id,omitempty"`
}

// MonthlyFinance 月度财务汇总
type MonthlyFinance struct {
	Month            string  `json:"month"` // YYYY-MM
	Label            string  `json:"label"` // 如 "Mar 2024"
	GrossRevenue     float64 `json:"gross_revenue"`
	TotalRevenue     float64 `json:"total_revenue"` // 净收入合计
	TotalDkuShare    float64 `json:"total_dku_share"`
	TotalResortShare float64 `json:"total_resort_share"`
	TotalExpenses    float64 `json:"total_expenses"` // 仅已批准费用
	MaintenanceCost  float64 `json:"maintenance_cost"`
	NetProfit        float64 `json:"net_profit"`    // dku_share - expenses
	ProfitMargin     float64 `json:"profit_margin"` // net_profit / dku_share * 100
	RecordCount      int     `json:"record_count"`
}

// ResortRevenue 按度假村汇总
type ResortRevenue struct {
	ResortID          int64   `json:"resort_id"`
	ResortName        string  `json:"resort_name"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalDkuShare     float64 `json:"total_dku_share"`
	TotalResortShare  float64 `json:"total_resort_share"`
	AverageRevenue    float64 `json:"average_revenue"` // 单笔平均净收入
	Percentage        float64 `json:"percentage"`      // 占总净收入百分比
	RecordCount       int     `json:"record_count"`
	UnconfiguredCount int     `json:"unconfigured_count"`
}

// CategoryRevenue 按资产类别汇总
type CategoryRevenue struct {
	Category          AssetCategory `json:"category"`
	Label             string        `json:"label"`
	TotalRevenue      float64       `json:"total_revenue"`
	TotalDkuShare     float64       `json:"total_dku_share"`
	TotalResortShare  float64       `json:"total_resort_share"`
	AverageRevenue    float64       `json:"average_revenue"`
	Percentage        float64       `json:"percentage"`
	RecordCount       int           `json:"record_count"`
	UnconfiguredCount int           `json:"unconfigured_count"`
}

// ResortMonthBreakdown 度假村按月明细，AllTime 为整个窗口的汇总
type ResortMonthBreakdown struct {
	Months  []string                   `json:"months"` // 月份标签，按时间顺序
	AllTime []ResortRevenue            `json:"all_time"`
	ByMonth map[string][]ResortRevenue `json:"by_month"` // 键为月份标签
}

// CategoryMonthBreakdown 资产类别按月明细
type CategoryMonthBreakdown struct {
	Months  []string                     `json:"months"`
	AllTime []CategoryRevenue            `json:"all_time"`
	ByMonth map[string][]CategoryRevenue `json:"by_month"`
}

// AmountBucket 通用金额分组
type AmountBucket struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// ExpenseSummary 费用汇总，金额只统计已批准费用
type ExpenseSummary struct {
	TotalApproved float64        `json:"total_approved"`
	ApprovedCount int            `json:"approved_count"`
	PendingCount  int            `json:"pending_count"`
	PendingAmount float64        `json:"pending_amount"`
	RejectedCount int            `json:"rejected_count"`
	ByCategory    []AmountBucket `json:"by_category"`
	ByMonth       []AmountBucket `json:"by_month"`
}

// MaintenanceMonth 月度维修成本
type MaintenanceMonth struct {
	Month         string  `json:"month"`
	Label         string  `json:"label"`
	LaborCost     float64 `json:"labor_cost"`
	SparePartCost float64 `json:"spare_part_cost"`
	TotalCost     float64 `json:"total_cost"`
	RunningTotal  float64 `json:"running_total"`
	Count         int     `json:"count"`
}

// MaintenanceSummary 维修成本汇总
type MaintenanceSummary struct {
	TotalCost     float64            `json:"total_cost"`
	LaborCost     float64            `json:"labor_cost"`
	SparePartCost float64            `json:"spare_part_cost"`
	RecordCount   int                `json:"record_count"`
	ByMonth       []MaintenanceMonth `json:"by_month"`
	ByResort      []AmountBucket     `json:"by_resort"`
}

// DashboardSummary 仪表盘概览
type DashboardSummary struct {
	PeriodStart Date `json:"period_start"` // 不限时间时为 null
	PeriodEnd   Date `json:"period_end"`
	Months      int  `json:"months"`

	// 资产运营
	TotalResorts      int     `json:"total_resorts"`
	TotalAssets       int     `json:"total_assets"`
	ActiveAssets      int     `json:"active_assets"`
	MaintenanceAssets int     `json:"maintenance_assets"`
	UtilizationRate   float64 `json:"utilization_rate"`

	// 收入
	TotalRevenue        float64 `json:"total_revenue"`
	UnconfiguredRecords int     `json:"unconfigured_records"`

	// 财务（仅管理角色可见）
	TotalDkuShare             float64 `json:"total_dku_share"`
	TotalResortShare          float64 `json:"total_resort_share"`
	TotalExpenses             float64 `json:"total_expenses"`
	NetProfit                 float64 `json:"net_profit"`
	ProfitMargin              float64 `json:"profit_margin"`
	PendingExpenses           int     `json:"pending_expenses"`
	TotalMaintenanceCost      float64 `json:"total_maintenance_cost"`
	NetProfitAfterMaintenance float64 `json:"net_profit_after_maintenance"`

	Restricted bool `json:"restricted"`
}

// WithoutFinancials 返回去除财务字段的副本，用于非管理角色
func (s DashboardSummary) WithoutFinancials() DashboardSummary {
	s.TotalDkuShare = 0
	s.TotalResortShare = 0
	s.TotalExpenses = 0
	s.NetProfit = 0
	s.ProfitMargin = 0
	s.PendingExpenses = 0
	s.TotalMaintenanceCost = 0
	s.NetProfitAfterMaintenance = 0
	s.Restricted = true
	return s
}

// UnconfiguredRecord 缺少分成配置的收入记录（审计用）
type UnconfiguredRecord struct {
	RecordID      int64         `json:"record_id"`
	ResortID      int64         `json:"resort_id"`
	ResortName    string        `json:"resort_name"`
	AssetCategory AssetCategory `json:"asset_category"`
	Date          Date          `json:"date"`
	NetAmount     float64       `json:"net_amount"`
}
