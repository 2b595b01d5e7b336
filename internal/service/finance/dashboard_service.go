package finance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/resort-fleet-backend/internal/common/cache"
	"github.com/dumeirei/resort-fleet-backend/internal/common/logger"
	"github.com/dumeirei/resort-fleet-backend/internal/common/metrics"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// dashboardCacheName 缓存指标标签
const dashboardCacheName = "dashboard"

// warmLockName 预热互斥锁
const warmLockName = "dashboard-warm"

// DefaultDashboardCacheTTL 默认缓存时间
const DefaultDashboardCacheTTL = 5 * time.Minute

// FinancialRoleChecker 判断角色能否查看财务数据
type FinancialRoleChecker func(role string) bool

// DashboardService 仪表盘服务，概览结果按窗口与度假村缓存在 Redis
type DashboardService struct {
	stats          *StatisticsService
	cache          *cache.Store
	ttl            time.Duration
	showFinancials FinancialRoleChecker
	metrics        *metrics.Metrics
	log            *zap.Logger
}

// NewDashboardService 创建仪表盘服务，store 为空时不使用缓存
func NewDashboardService(
	stats *StatisticsService,
	store *cache.Store,
	ttl time.Duration,
	showFinancials FinancialRoleChecker,
) *DashboardService {
	if store == nil {
		store = cache.NewStore(nil, cache.KeyPrefixDashboard)
	}
	if ttl <= 0 {
		ttl = DefaultDashboardCacheTTL
	}
	if showFinancials == nil {
		showFinancials = func(string) bool { return false }
	}
	return &DashboardService{
		stats:          stats,
		cache:          store,
		ttl:            ttl,
		showFinancials: showFinancials,
		metrics:        metrics.GetMetrics(),
		log:            logger.Named("dashboard"),
	}
}

// Overview 获取仪表盘概览，非财务角色只返回运营与收入字段
func (s *DashboardService) Overview(ctx context.Context, q *PeriodQuery, role string) (*models.DashboardSummary, error) {
	summary, err := s.summary(ctx, q)
	if err != nil {
		return nil, err
	}
	if !s.showFinancials(role) {
		restricted := summary.WithoutFinancials()
		return &restricted, nil
	}
	return summary, nil
}

// summary 先读缓存，未命中再计算并写回
func (s *DashboardService) summary(ctx context.Context, q *PeriodQuery) (*models.DashboardSummary, error) {
	w, months, err := resolvePeriod(q, s.stats.engine.Aggregator().Now(), s.stats.opts)
	if err != nil {
		return nil, err
	}
	key := s.cache.Key(q.cacheKeyParts(w, months)...)

	var cached models.DashboardSummary
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("读取仪表盘缓存失败", zap.String("key", key), zap.Error(err))
	}
	if hit {
		s.metrics.RecordCacheHit(dashboardCacheName)
		return &cached, nil
	}
	s.metrics.RecordCacheMiss(dashboardCacheName)

	summary, err := s.stats.Summary(ctx, q)
	if err != nil {
		return nil, err
	}
	if q == nil || q.ResortID == nil {
		s.metrics.SetAssetGauges(summary.ActiveAssets, summary.MaintenanceAssets, summary.TotalAssets, summary.UtilizationRate)
	}

	if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
		s.log.Warn("写入仪表盘缓存失败", zap.String("key", key), zap.Error(err))
	}
	return summary, nil
}

// Invalidate 清除全部仪表盘缓存，返回清除的键数量
func (s *DashboardService) Invalidate(ctx context.Context) (int64, error) {
	n, err := s.cache.Purge(ctx)
	if err != nil {
		s.log.Error("清除仪表盘缓存失败", zap.Error(err))
		return n, err
	}
	if n > 0 {
		s.log.Info("仪表盘缓存已清除", zap.Int64("keys", n))
	}
	return n, nil
}

// Warm 预计算默认窗口的概览并写入缓存
//
// 多实例部署时只有取得锁的实例执行，返回是否执行了预热。
func (s *DashboardService) Warm(ctx context.Context, monthsList []int) (bool, error) {
	if !s.cache.Enabled() {
		return false, nil
	}
	lock, err := s.cache.TryLock(ctx, warmLockName, time.Minute)
	if err != nil {
		return false, err
	}
	if lock == nil {
		return false, nil
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			s.log.Warn("释放预热锁失败", zap.Error(err))
		}
	}()

	for _, months := range monthsList {
		q := &PeriodQuery{Months: months}
		w, n, err := resolvePeriod(q, s.stats.engine.Aggregator().Now(), s.stats.opts)
		if err != nil {
			return true, err
		}
		summary, err := s.stats.Summary(ctx, q)
		if err != nil {
			return true, err
		}
		if err := s.cache.Set(ctx, s.cache.Key(q.cacheKeyParts(w, n)...), summary, s.ttl); err != nil {
			return true, err
		}
	}
	return true, nil
}
