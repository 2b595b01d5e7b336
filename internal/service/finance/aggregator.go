package finance

import (
	"sort"
	"strconv"
	"time"

	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// unknownResortName 资源列表中找不到度假村时的显示名
const unknownResortName = "Unknown Resort"

// unassignedKey 维修记录找不到所属资产时的分组键
const unassignedKey = "UNASSIGNED"

// Aggregator 汇总计算，纯函数，不持有状态
type Aggregator struct {
	now func() time.Time
}

// NewAggregator 创建汇总器，now 为空时使用 time.Now
func NewAggregator(now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{now: now}
}

// Now 当前时间
func (a *Aggregator) Now() time.Time {
	return a.now()
}

// Window 最近 N 个月窗口
func (a *Aggregator) Window(months int) Window {
	return MonthWindow(a.now(), months)
}

// revenueTotals 收入累加器
type revenueTotals struct {
	gross        float64
	net          float64
	dku          float64
	resort       float64
	count        int
	unconfigured int
}

func (t *revenueTotals) add(p *models.ProcessedRevenue) {
	t.gross += p.Amount
	t.net += p.NetAmount
	t.dku += p.DkuShare
	t.resort += p.ResortShare
	t.count++
	if !p.HasConfig {
		t.unconfigured++
	}
}

// FilterRevenue 按窗口过滤已处理收入，保持原顺序
func FilterRevenue(processed []models.ProcessedRevenue, w Window) []models.ProcessedRevenue {
	if w.IsAllTime() {
		return processed
	}
	out := make([]models.ProcessedRevenue, 0, len(processed))
	for i := range processed {
		if w.Contains(processed[i].Date.Time) {
			out = append(out, processed[i])
		}
	}
	return out
}

// FilterExpenses 按窗口过滤费用
func FilterExpenses(expenses []models.Expense, w Window) []models.Expense {
	if w.IsAllTime() {
		return expenses
	}
	out := make([]models.Expense, 0, len(expenses))
	for i := range expenses {
		if w.Contains(expenses[i].Date.Time) {
			out = append(out, expenses[i])
		}
	}
	return out
}

// FilterMaintenance 按窗口过滤维修记录（以开始日期为准）
func FilterMaintenance(records []models.MaintenanceRecord, w Window) []models.MaintenanceRecord {
	if w.IsAllTime() {
		return records
	}
	out := make([]models.MaintenanceRecord, 0, len(records))
	for i := range records {
		if w.Contains(records[i].StartDate.Time) {
			out = append(out, records[i])
		}
	}
	return out
}

// ByMonth 按月汇总，窗口内每个月都有一项，无数据的月份补零
func (a *Aggregator) ByMonth(
	processed []models.ProcessedRevenue,
	expenses []models.Expense,
	maintenance []models.MaintenanceRecord,
	w Window,
) []models.MonthlyFinance {
	processed = FilterRevenue(processed, w)
	expenses = FilterExpenses(expenses, w)
	maintenance = FilterMaintenance(maintenance, w)

	var dates []time.Time
	if len(w.Buckets) == 0 {
		for i := range processed {
			dates = append(dates, processed[i].Date.Time)
		}
		for i := range expenses {
			if expenses[i].IsApproved() {
				dates = append(dates, expenses[i].Date.Time)
			}
		}
		for i := range maintenance {
			dates = append(dates, maintenance[i].StartDate.Time)
		}
	}
	buckets := w.bucketsFor(dates)

	months := make([]models.MonthlyFinance, len(buckets))
	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		months[i] = models.MonthlyFinance{Month: b.Key, Label: b.Label}
		index[b.Key] = i
	}

	for i := range processed {
		p := &processed[i]
		idx, ok := index[MonthKey(p.Date.Time)]
		if !ok {
			continue
		}
		m := &months[idx]
		m.GrossRevenue += p.Amount
		m.TotalRevenue += p.NetAmount
		m.TotalDkuShare += p.DkuShare
		m.TotalResortShare += p.ResortShare
		m.RecordCount++
	}

	for i := range expenses {
		e := &expenses[i]
		if !e.IsApproved() {
			continue
		}
		if idx, ok := index[MonthKey(e.Date.Time)]; ok {
			months[idx].TotalExpenses += finite(e.Amount)
		}
	}

	for i := range maintenance {
		r := &maintenance[i]
		if idx, ok := index[MonthKey(r.StartDate.Time)]; ok {
			months[idx].MaintenanceCost += finite(r.TotalCost())
		}
	}

	for i := range months {
		m := &months[i]
		m.NetProfit = m.TotalDkuShare - m.TotalExpenses
		m.ProfitMargin = percentage(m.NetProfit, m.TotalDkuShare)
	}
	return months
}

// ByResort 按度假村汇总，只保留净收入非零的度假村，按净收入降序
func (a *Aggregator) ByResort(processed []models.ProcessedRevenue, resorts []models.Resort, w Window) []models.ResortRevenue {
	return resortTotals(FilterRevenue(processed, w), resortNames(resorts))
}

// ByCategory 按资产类别汇总，按净收入降序
func (a *Aggregator) ByCategory(processed []models.ProcessedRevenue, w Window) []models.CategoryRevenue {
	return categoryTotals(FilterRevenue(processed, w))
}

// ByResortPerMonth 度假村按月明细
func (a *Aggregator) ByResortPerMonth(processed []models.ProcessedRevenue, resorts []models.Resort, w Window) models.ResortMonthBreakdown {
	processed = FilterRevenue(processed, w)
	names := resortNames(resorts)
	buckets, grouped := groupByMonth(processed, w)

	out := models.ResortMonthBreakdown{
		Months:  make([]string, 0, len(buckets)),
		AllTime: resortTotals(processed, names),
		ByMonth: make(map[string][]models.ResortRevenue, len(buckets)),
	}
	for _, b := range buckets {
		out.Months = append(out.Months, b.Label)
		out.ByMonth[b.Label] = resortTotals(grouped[b.Key], names)
	}
	return out
}

// ByCategoryPerMonth 资产类别按月明细
func (a *Aggregator) ByCategoryPerMonth(processed []models.ProcessedRevenue, w Window) models.CategoryMonthBreakdown {
	processed = FilterRevenue(processed, w)
	buckets, grouped := groupByMonth(processed, w)

	out := models.CategoryMonthBreakdown{
		Months:  make([]string, 0, len(buckets)),
		AllTime: categoryTotals(processed),
		ByMonth: make(map[string][]models.CategoryRevenue, len(buckets)),
	}
	for _, b := range buckets {
		out.Months = append(out.Months, b.Label)
		out.ByMonth[b.Label] = categoryTotals(grouped[b.Key])
	}
	return out
}

// ExpenseSummary 费用汇总：金额只计已批准费用，待审批与驳回单独计数
func (a *Aggregator) ExpenseSummary(expenses []models.Expense, w Window) models.ExpenseSummary {
	expenses = FilterExpenses(expenses, w)

	summary := models.ExpenseSummary{}
	var order []string
	byCategory := make(map[string]*models.AmountBucket)
	var approvedDates []time.Time

	for i := range expenses {
		e := &expenses[i]
		amount := finite(e.Amount)
		switch e.Status {
		case models.ExpenseStatusApproved:
			summary.TotalApproved += amount
			summary.ApprovedCount++
			approvedDates = append(approvedDates, e.Date.Time)

			b, ok := byCategory[e.Category]
			if !ok {
				b = &models.AmountBucket{Key: e.Category, Label: models.CategoryLabel(e.Category)}
				byCategory[e.Category] = b
				order = append(order, e.Category)
			}
			b.Amount += amount
			b.Count++
		case models.ExpenseStatusPending:
			summary.PendingCount++
			summary.PendingAmount += amount
		case models.ExpenseStatusRejected:
			summary.RejectedCount++
		}
	}

	summary.ByCategory = make([]models.AmountBucket, 0, len(order))
	for _, key := range order {
		summary.ByCategory = append(summary.ByCategory, *byCategory[key])
	}
	sort.SliceStable(summary.ByCategory, func(i, j int) bool {
		return summary.ByCategory[i].Amount > summary.ByCategory[j].Amount
	})

	buckets := w.bucketsFor(approvedDates)
	summary.ByMonth = make([]models.AmountBucket, len(buckets))
	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		summary.ByMonth[i] = models.AmountBucket{Key: b.Key, Label: b.Label}
		index[b.Key] = i
	}
	for i := range expenses {
		e := &expenses[i]
		if !e.IsApproved() {
			continue
		}
		if idx, ok := index[MonthKey(e.Date.Time)]; ok {
			summary.ByMonth[idx].Amount += finite(e.Amount)
			summary.ByMonth[idx].Count++
		}
	}
	return summary
}

// MaintenanceSummary 维修成本汇总，按月带累计值，按度假村经由资产归属
func (a *Aggregator) MaintenanceSummary(
	records []models.MaintenanceRecord,
	assets []models.Asset,
	resorts []models.Resort,
	w Window,
) models.MaintenanceSummary {
	records = FilterMaintenance(records, w)

	summary := models.MaintenanceSummary{}
	dates := make([]time.Time, 0, len(records))
	for i := range records {
		r := &records[i]
		summary.LaborCost += finite(r.LaborCost)
		summary.SparePartCost += finite(r.SparePartCost)
		summary.RecordCount++
		dates = append(dates, r.StartDate.Time)
	}
	summary.TotalCost = summary.LaborCost + summary.SparePartCost

	buckets := w.bucketsFor(dates)
	summary.ByMonth = make([]models.MaintenanceMonth, len(buckets))
	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		summary.ByMonth[i] = models.MaintenanceMonth{Month: b.Key, Label: b.Label}
		index[b.Key] = i
	}
	for i := range records {
		r := &records[i]
		idx, ok := index[MonthKey(r.StartDate.Time)]
		if !ok {
			continue
		}
		m := &summary.ByMonth[idx]
		m.LaborCost += finite(r.LaborCost)
		m.SparePartCost += finite(r.SparePartCost)
		m.Count++
	}
	running := 0.0
	for i := range summary.ByMonth {
		m := &summary.ByMonth[i]
		m.TotalCost = m.LaborCost + m.SparePartCost
		running += m.TotalCost
		m.RunningTotal = running
	}

	assetResort := make(map[int64]int64, len(assets))
	for i := range assets {
		assetResort[assets[i].ID] = assets[i].ResortID
	}
	names := resortNames(resorts)
	var order []string
	byResort := make(map[string]*models.AmountBucket)
	for i := range records {
		r := &records[i]
		key, label := unassignedKey, models.CategoryLabel(unassignedKey)
		if resortID, ok := assetResort[r.AssetID]; ok {
			key = strconv.FormatInt(resortID, 10)
			label = resortName(names, resortID)
		}
		b, ok := byResort[key]
		if !ok {
			b = &models.AmountBucket{Key: key, Label: label}
			byResort[key] = b
			order = append(order, key)
		}
		b.Amount += finite(r.TotalCost())
		b.Count++
	}
	summary.ByResort = make([]models.AmountBucket, 0, len(order))
	for _, key := range order {
		summary.ByResort = append(summary.ByResort, *byResort[key])
	}
	sort.SliceStable(summary.ByResort, func(i, j int) bool {
		return summary.ByResort[i].Amount > summary.ByResort[j].Amount
	})
	return summary
}

// Summary 仪表盘概览
//
// 资产与度假村计数不受窗口限制，收入、费用、维修按窗口统计。
func (a *Aggregator) Summary(processed []models.ProcessedRevenue, ds *Dataset, w Window, months int) models.DashboardSummary {
	summary := models.DashboardSummary{
		PeriodStart:  models.NewDate(w.Start),
		PeriodEnd:    models.NewDate(w.End),
		Months:       months,
		TotalResorts: len(ds.Resorts),
		TotalAssets:  len(ds.Assets),
	}

	for i := range ds.Assets {
		switch ds.Assets[i].Status {
		case models.AssetStatusActive:
			summary.ActiveAssets++
		case models.AssetStatusMaintenance:
			summary.MaintenanceAssets++
		}
	}
	summary.UtilizationRate = percentage(float64(summary.ActiveAssets), float64(summary.TotalAssets))

	var totals revenueTotals
	for _, p := range FilterRevenue(processed, w) {
		totals.add(&p)
	}
	summary.TotalRevenue = totals.net
	summary.TotalDkuShare = totals.dku
	summary.TotalResortShare = totals.resort
	summary.UnconfiguredRecords = totals.unconfigured

	expenses := a.ExpenseSummary(ds.Expenses, w)
	summary.TotalExpenses = expenses.TotalApproved
	summary.PendingExpenses = expenses.PendingCount

	for _, r := range FilterMaintenance(ds.Maintenance, w) {
		summary.TotalMaintenanceCost += finite(r.TotalCost())
	}

	summary.NetProfit = summary.TotalDkuShare - summary.TotalExpenses
	summary.ProfitMargin = percentage(summary.NetProfit, summary.TotalDkuShare)
	summary.NetProfitAfterMaintenance = summary.NetProfit - summary.TotalMaintenanceCost
	return summary
}

// Unconfigured 缺少分成配置的记录，按日期升序
func (a *Aggregator) Unconfigured(processed []models.ProcessedRevenue, resorts []models.Resort, w Window) []models.UnconfiguredRecord {
	names := resortNames(resorts)
	out := make([]models.UnconfiguredRecord, 0)
	for _, p := range FilterRevenue(processed, w) {
		if p.HasConfig {
			continue
		}
		out = append(out, models.UnconfiguredRecord{
			RecordID:      p.RecordID,
			ResortID:      p.ResortID,
			ResortName:    resortName(names, p.ResortID),
			AssetCategory: p.AssetCategory,
			Date:          p.Date,
			NetAmount:     p.NetAmount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// groupByMonth 按月分组，返回窗口月桶与分组结果
func groupByMonth(processed []models.ProcessedRevenue, w Window) ([]MonthBucket, map[string][]models.ProcessedRevenue) {
	var dates []time.Time
	if len(w.Buckets) == 0 {
		dates = make([]time.Time, 0, len(processed))
		for i := range processed {
			dates = append(dates, processed[i].Date.Time)
		}
	}
	grouped := make(map[string][]models.ProcessedRevenue)
	for i := range processed {
		key := MonthKey(processed[i].Date.Time)
		grouped[key] = append(grouped[key], processed[i])
	}
	return w.bucketsFor(dates), grouped
}

func resortTotals(processed []models.ProcessedRevenue, names map[int64]string) []models.ResortRevenue {
	var order []int64
	acc := make(map[int64]*revenueTotals)
	grand := 0.0
	for i := range processed {
		p := &processed[i]
		t, ok := acc[p.ResortID]
		if !ok {
			t = &revenueTotals{}
			acc[p.ResortID] = t
			order = append(order, p.ResortID)
		}
		t.add(p)
		grand += p.NetAmount
	}

	out := make([]models.ResortRevenue, 0, len(order))
	for _, id := range order {
		t := acc[id]
		if t.net == 0 {
			continue
		}
		out = append(out, models.ResortRevenue{
			ResortID:          id,
			ResortName:        resortName(names, id),
			TotalRevenue:      t.net,
			TotalDkuShare:     t.dku,
			TotalResortShare:  t.resort,
			AverageRevenue:    average(t.net, t.count),
			Percentage:        percentage(t.net, grand),
			RecordCount:       t.count,
			UnconfiguredCount: t.unconfigured,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalRevenue > out[j].TotalRevenue
	})
	return out
}

func categoryTotals(processed []models.ProcessedRevenue) []models.CategoryRevenue {
	var order []models.AssetCategory
	acc := make(map[models.AssetCategory]*revenueTotals)
	grand := 0.0
	for i := range processed {
		p := &processed[i]
		t, ok := acc[p.AssetCategory]
		if !ok {
			t = &revenueTotals{}
			acc[p.AssetCategory] = t
			order = append(order, p.AssetCategory)
		}
		t.add(p)
		grand += p.NetAmount
	}

	out := make([]models.CategoryRevenue, 0, len(order))
	for _, c := range order {
		t := acc[c]
		out = append(out, models.CategoryRevenue{
			Category:          c,
			Label:             c.Label(),
			TotalRevenue:      t.net,
			TotalDkuShare:     t.dku,
			TotalResortShare:  t.resort,
			AverageRevenue:    average(t.net, t.count),
			Percentage:        percentage(t.net, grand),
			RecordCount:       t.count,
			UnconfiguredCount: t.unconfigured,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalRevenue > out[j].TotalRevenue
	})
	return out
}

func resortNames(resorts []models.Resort) map[int64]string {
	names := make(map[int64]string, len(resorts))
	for i := range resorts {
		names[resorts[i].ID] = resorts[i].Name
	}
	return names
}

func resortName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return unknownResortName
}
