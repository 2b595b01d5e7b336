package finance

import (
	"context"
	"time"

	"github.com/dumeirei/resort-fleet-backend/internal/common/errors"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
	"github.com/dumeirei/resort-fleet-backend/internal/repository"
)

// Dataset 一次汇总所需的完整记录集合
type Dataset struct {
	Resorts     []models.Resort
	Assets      []models.Asset
	Revenue     []models.RevenueRecord
	Configs     []models.ProfitSharingConfig
	Expenses    []models.Expense
	Maintenance []models.MaintenanceRecord
}

// ForResort 只保留指定度假村的数据
//
// 公司级费用（无度假村）被排除；维修记录按资产归属过滤；分成配置不过滤。
func (d *Dataset) ForResort(resortID int64) *Dataset {
	out := &Dataset{Configs: d.Configs}

	for i := range d.Resorts {
		if d.Resorts[i].ID == resortID {
			out.Resorts = append(out.Resorts, d.Resorts[i])
		}
	}

	owned := make(map[int64]struct{})
	for i := range d.Assets {
		if d.Assets[i].ResortID == resortID {
			out.Assets = append(out.Assets, d.Assets[i])
			owned[d.Assets[i].ID] = struct{}{}
		}
	}
	for i := range d.Revenue {
		if d.Revenue[i].ResortID == resortID {
			out.Revenue = append(out.Revenue, d.Revenue[i])
		}
	}
	for i := range d.Expenses {
		if d.Expenses[i].ResortID != nil && *d.Expenses[i].ResortID == resortID {
			out.Expenses = append(out.Expenses, d.Expenses[i])
		}
	}
	for i := range d.Maintenance {
		if _, ok := owned[d.Maintenance[i].AssetID]; ok {
			out.Maintenance = append(out.Maintenance, d.Maintenance[i])
		}
	}
	return out
}

// RecordLoader 从仓储加载汇总所需的记录
type RecordLoader struct {
	resortRepo        *repository.ResortRepository
	assetRepo         *repository.AssetRepository
	revenueRepo       *repository.RevenueRepository
	profitSharingRepo *repository.ProfitSharingRepository
	expenseRepo       *repository.ExpenseRepository
	maintenanceRepo   *repository.MaintenanceRepository
}

// NewRecordLoader 创建记录加载器
func NewRecordLoader(
	resortRepo *repository.ResortRepository,
	assetRepo *repository.AssetRepository,
	revenueRepo *repository.RevenueRepository,
	profitSharingRepo *repository.ProfitSharingRepository,
	expenseRepo *repository.ExpenseRepository,
	maintenanceRepo *repository.MaintenanceRepository,
) *RecordLoader {
	return &RecordLoader{
		resortRepo:        resortRepo,
		assetRepo:         assetRepo,
		revenueRepo:       revenueRepo,
		profitSharingRepo: profitSharingRepo,
		expenseRepo:       expenseRepo,
		maintenanceRepo:   maintenanceRepo,
	}
}

// Load 加载窗口内的全部记录，任何一项失败都返回错误且不返回部分数据
func (l *RecordLoader) Load(ctx context.Context, w Window) (*Dataset, error) {
	dateRange := windowRange(w)
	ds := &Dataset{}
	var err error

	if ds.Resorts, err = l.resortRepo.ListAll(ctx); err != nil {
		return nil, loadFailed("度假村", err)
	}
	if ds.Assets, err = l.assetRepo.ListAll(ctx, nil); err != nil {
		return nil, loadFailed("资产", err)
	}
	if ds.Revenue, err = l.revenueRepo.ListAll(ctx, &repository.RevenueFilter{DateRange: dateRange}); err != nil {
		return nil, loadFailed("收入记录", err)
	}
	if ds.Configs, err = l.profitSharingRepo.ListAll(ctx); err != nil {
		return nil, loadFailed("分成配置", err)
	}
	if ds.Expenses, err = l.expenseRepo.ListAll(ctx, dateRange); err != nil {
		return nil, loadFailed("费用", err)
	}
	if ds.Maintenance, err = l.maintenanceRepo.ListAll(ctx, dateRange); err != nil {
		return nil, loadFailed("维修记录", err)
	}
	return ds, nil
}

// loadFailed 沿用记录加载失败的错误码，消息中标明失败的数据集
func loadFailed(what string, err error) *errors.AppError {
	return errors.Wrap(errors.ErrRecordLoadFailed.Code, what+"加载失败", err)
}

// Configs 只加载分成配置
func (l *RecordLoader) Configs(ctx context.Context) ([]models.ProfitSharingConfig, error) {
	configs, err := l.profitSharingRepo.ListAll(ctx)
	if err != nil {
		return nil, errors.ErrRecordLoadFailed.WithError(err)
	}
	return configs, nil
}

// Resorts 只加载度假村
func (l *RecordLoader) Resorts(ctx context.Context) ([]models.Resort, error) {
	resorts, err := l.resortRepo.ListAll(ctx)
	if err != nil {
		return nil, errors.ErrRecordLoadFailed.WithError(err)
	}
	return resorts, nil
}

// windowRange 窗口转换为仓储日期范围，不限时间时返回 nil
func windowRange(w Window) *repository.DateRange {
	if w.IsAllTime() {
		return nil
	}
	r := &repository.DateRange{}
	if !w.Start.IsZero() {
		start := w.Start
		r.Start = &start
	}
	if !w.End.IsZero() {
		end := w.End
		r.End = &end
	}
	return r
}

// Engine 分成计算与汇总的组合入口
type Engine struct {
	pairs           []PairKey
	alwaysVersioned bool
	aggregator      *Aggregator
}

// EngineOptions 引擎选项
type EngineOptions struct {
	MultiVersionPairs []PairKey
	AlwaysVersioned   bool
	Now               func() time.Time
}

// NewEngine 创建引擎
func NewEngine(opts EngineOptions) *Engine {
	return &Engine{
		pairs:           opts.MultiVersionPairs,
		alwaysVersioned: opts.AlwaysVersioned,
		aggregator:      NewAggregator(opts.Now),
	}
}

// Aggregator 汇总器
func (e *Engine) Aggregator() *Aggregator {
	return e.aggregator
}

// Resolver 基于数据集中的配置创建解析器
func (e *Engine) Resolver(configs []models.ProfitSharingConfig) *ConfigResolver {
	return NewConfigResolver(configs,
		WithMultiVersionPairs(e.pairs...),
		WithAlwaysVersioned(e.alwaysVersioned),
	)
}

// Process 计算数据集中全部收入记录的分成
func (e *Engine) Process(ds *Dataset) []models.ProcessedRevenue {
	return NewRevenueProcessor(e.Resolver(ds.Configs)).Process(ds.Revenue)
}
