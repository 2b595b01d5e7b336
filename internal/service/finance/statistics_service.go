package finance

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/dumeirei/resort-fleet-backend/internal/common/errors"
	"github.com/dumeirei/resort-fleet-backend/internal/common/logger"
	"github.com/dumeirei/resort-fleet-backend/internal/common/metrics"
	"github.com/dumeirei/resort-fleet-backend/internal/common/tracing"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
	"github.com/dumeirei/resort-fleet-backend/internal/repository"
)

// StatisticsService 财务统计服务
type StatisticsService struct {
	loader      *RecordLoader
	engine      *Engine
	revenueRepo *repository.RevenueRepository
	opts        ReportOptions
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewStatisticsService 创建财务统计服务
func NewStatisticsService(
	loader *RecordLoader,
	engine *Engine,
	revenueRepo *repository.RevenueRepository,
	opts ReportOptions,
) *StatisticsService {
	return &StatisticsService{
		loader:      loader,
		engine:      engine,
		revenueRepo: revenueRepo,
		opts:        opts.normalized(),
		metrics:     metrics.GetMetrics(),
		log:         logger.Named("finance-statistics"),
	}
}

// reportInput 一次报表计算的输入
type reportInput struct {
	window    Window
	months    int
	dataset   *Dataset
	processed []models.ProcessedRevenue
}

// prepare 解析窗口、加载记录并计算分成
func (s *StatisticsService) prepare(ctx context.Context, report string, q *PeriodQuery) (*reportInput, error) {
	w, months, err := resolvePeriod(q, s.engine.Aggregator().Now(), s.opts)
	if err != nil {
		return nil, err
	}

	ds, err := s.loader.Load(ctx, w)
	if err != nil {
		s.log.Error("加载报表记录失败", logger.Report(report), zap.Error(err))
		return nil, err
	}
	if q != nil && q.ResortID != nil {
		ds = ds.ForResort(*q.ResortID)
	}

	processed := s.engine.Process(ds)
	unconfigured := 0
	for i := range processed {
		if !processed[i].HasConfig {
			unconfigured++
		}
	}
	s.metrics.RecordRevenueProcessed("configured", len(processed)-unconfigured)
	s.metrics.RecordRevenueProcessed("unconfigured", unconfigured)
	tracing.SetAttributes(ctx, tracing.WithRecordCount(len(processed)), tracing.WithMonths(months))

	return &reportInput{window: w, months: months, dataset: ds, processed: processed}, nil
}

// track 开始报表 span 并在结束时记录耗时
func (s *StatisticsService) track(ctx context.Context, report string, q *PeriodQuery) (context.Context, func(error)) {
	attrs := []attribute.KeyValue{tracing.WithReport(report)}
	if q != nil && q.ResortID != nil {
		attrs = append(attrs, tracing.WithResortID(*q.ResortID))
	}
	ctx, span := tracing.Start(ctx, "finance."+report, attrs...)
	start := time.Now()
	return ctx, func(err error) {
		tracing.SetError(ctx, err)
		s.metrics.ObserveReport(report, time.Since(start))
		span.End()
	}
}

// MonthlyTrend 按月财务趋势
func (s *StatisticsService) MonthlyTrend(ctx context.Context, q *PeriodQuery) (result []models.MonthlyFinance, err error) {
	ctx, done := s.track(ctx, "monthly", q)
	defer func() { done(err) }()

	in, err := s.prepare(ctx, "monthly", q)
	if err != nil {
		return nil, err
	}
	return s.engine.Aggregator().ByMonth(in.processed, in.dataset.Expenses, in.dataset.Maintenance, in.window), nil
}

// RevenueByResort 按度假村汇总收入
func (s *StatisticsService) RevenueByResort(ctx context.Context, q *PeriodQuery) (result []models.ResortRevenue, err error) {
	ctx, done := s.track(ctx, "by_resort", q)
	defer func() { done(err) }()

	in, err := s.prepare(ctx, "by_resort", q)
	if err != nil {
		return nil, err
	}
	return s.engine.Aggregator().ByResort(in.processed, in.dataset.Resorts, in.window), nil
}

// RevenueByCategory 按资产类别汇总收入
func (s *StatisticsService) RevenueByCategory(ctx context.Context, q *PeriodQuery) (result []models.CategoryRevenue, err error) {
	ctx, done := s.track(ctx, "by_category", q)
	defer func() { done(err) }()

	in, err := s.prepare(ctx, "by_category", q)
	if err != nil {
		return nil, err
	}
	return s.engine.Aggregator().ByCategory(in.processed, in.window), nil
}

// ResortMonthly 度假村按月明细
func (s *StatisticsService) ResortMonthly(ctx context.Context, q *PeriodQuery) (result *models.ResortMonthBreakdown, err error) {
	ctx, done := s.track(ctx, "resort_monthly", q)
	defer func() { done(err) }()

	in, err := s.prepare(ctx, "resort_monthly", q)
	if err != nil {
		return nil, err
	}
	breakdown := s.engine.Aggregator().ByResortPerMonth(in.processed, in.dataset.Resorts, in.window)
	return &breakdown, nil
}

// CategoryMonthly 资产类别按月明细
func (s *StatisticsService) CategoryMonthly(ctx context.Context, q *PeriodQuery) (result *models.CategoryMonthBreakdown, err error) {
	ctx, done := s.track(ctx, "category_monthly", q)
	defer func() { done(err) }()

	in, err := s.prepare(ctx, "category_monthly", q)
	if err != nil {
		return nil, err
	}
	breakdown := s.engine.Aggregator().ByCategoryPerMonth(in.processed, in.window)
	return &breakdown, nil
}

// ExpenseSummary 费用汇总
func (s *StatisticsService) ExpenseSummary(ctx context.Context, q *PeriodQuery) (result *models.ExpenseSummary, err error) {
	ctx, done := s.track(ctx, "expenses", q)
	defer func() { done(err) }()

	in, err := s.prepare(ctx, "expenses", q)
	if err != nil {
		return nil, err
	}
	summary := s.engine.Aggregator().ExpenseSummary(in.dataset.Expenses, in.window)
	return &summary, nil
}

// MaintenanceSummary 维修成本汇总
func (s *StatisticsService) MaintenanceSummary(ctx context.Context, q *PeriodQuery) (result *models.MaintenanceSummary, err error) {
	ctx, done := s.track(ctx, "maintenance", q)
	defer func() { done(err) }()

	in, err := s.prepare(ctx, "maintenance", q)
	if err != nil {
		return nil, err
	}
	summary := s.engine.Aggregator().MaintenanceSummary(
		in.dataset.Maintenance, in.dataset.Assets, in.dataset.Resorts, in.window)
	return &summary, nil
}

// Summary 仪表盘概览（不经缓存）
func (s *StatisticsService) Summary(ctx context.Context, q *PeriodQuery) (result *models.DashboardSummary, err error) {
	ctx, done := s.track(ctx, "summary", q)
	defer func() { done(err) }()

	in, err := s.prepare(ctx, "summary", q)
	if err != nil {
		return nil, err
	}
	summary := s.engine.Aggregator().Summary(in.processed, in.dataset, in.window, in.months)
	return &summary, nil
}

// UnconfiguredRecords 缺少分成配置的记录（内存分页）
func (s *StatisticsService) UnconfiguredRecords(ctx context.Context, q *PeriodQuery, offset, limit int) (result []models.UnconfiguredRecord, total int64, err error) {
	ctx, done := s.track(ctx, "unconfigured", q)
	defer func() { done(err) }()

	in, err := s.prepare(ctx, "unconfigured", q)
	if err != nil {
		return nil, 0, err
	}
	all := s.engine.Aggregator().Unconfigured(in.processed, in.dataset.Resorts, in.window)
	if len(all) > 0 {
		s.log.Info("存在未配置分成的收入记录", zap.Int("count", len(all)))
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ProcessedRecords 分页查询收入记录并计算分成
//
// 只加载当前页的收入记录，分成配置全量加载后解析。
func (s *StatisticsService) ProcessedRecords(
	ctx context.Context,
	q *PeriodQuery,
	category models.AssetCategory,
	offset, limit int,
) (result []models.ProcessedRevenue, total int64, err error) {
	ctx, done := s.track(ctx, "records", q)
	defer func() { done(err) }()

	w, _, err := resolvePeriod(q, s.engine.Aggregator().Now(), s.opts)
	if err != nil {
		return nil, 0, err
	}

	filter := &repository.RevenueFilter{DateRange: windowRange(w), AssetCategory: string(category)}
	if q != nil {
		filter.ResortID = q.ResortID
	}
	records, total, err := s.revenueRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrRecordLoadFailed.WithError(err)
	}
	configs, err := s.loader.Configs(ctx)
	if err != nil {
		return nil, 0, err
	}
	return NewRevenueProcessor(s.engine.Resolver(configs)).Process(records), total, nil
}

// paginate 内存分页
func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
