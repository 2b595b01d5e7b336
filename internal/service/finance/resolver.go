package finance

import (
	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// PairKey 度假村 + 资产类别
type PairKey struct {
	ResortID int64
	Category models.AssetCategory
}

// ConfigResolver 为收入记录选出适用的分成配置
//
// 普通组合只有一条配置，直接返回；多版本组合按生效日期取
// 不晚于记录日期的最新一条。找不到时返回 nil，表示未配置。
type ConfigResolver struct {
	byPair          map[PairKey][]*models.ProfitSharingConfig
	multiVersion    map[PairKey]struct{}
	alwaysVersioned bool
}

// ResolverOption 解析器选项
type ResolverOption func(*ConfigResolver)

// WithMultiVersionPairs 标记按生效日期多版本的组合
func WithMultiVersionPairs(pairs ...PairKey) ResolverOption {
	return func(r *ConfigResolver) {
		for _, p := range pairs {
			r.multiVersion[p] = struct{}{}
		}
	}
}

// WithAlwaysVersioned 所有组合都按生效日期选取
func WithAlwaysVersioned(enabled bool) ResolverOption {
	return func(r *ConfigResolver) {
		r.alwaysVersioned = enabled
	}
}

// NewConfigResolver 创建解析器，configs 会被复制
func NewConfigResolver(configs []models.ProfitSharingConfig, opts ...ResolverOption) *ConfigResolver {
	r := &ConfigResolver{
		byPair:       make(map[PairKey][]*models.ProfitSharingConfig),
		multiVersion: make(map[PairKey]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	owned := make([]models.ProfitSharingConfig, len(configs))
	copy(owned, configs)
	for i := range owned {
		c := &owned[i]
		key := PairKey{ResortID: c.ResortID, Category: c.AssetCategory}
		r.byPair[key] = append(r.byPair[key], c)
	}
	return r
}

// IsMultiVersion 组合是否走按日期选取
func (r *ConfigResolver) IsMultiVersion(key PairKey) bool {
	if r.alwaysVersioned {
		return true
	}
	_, ok := r.multiVersion[key]
	return ok
}

// Resolve 返回适用配置，没有则返回 nil
func (r *ConfigResolver) Resolve(rec *models.RevenueRecord) *models.ProfitSharingConfig {
	key := PairKey{ResortID: rec.ResortID, Category: rec.AssetCategory}
	matches := r.byPair[key]
	if len(matches) == 0 {
		return nil
	}
	if len(matches) == 1 && !r.IsMultiVersion(key) {
		return matches[0]
	}

	recordDate := models.NewDate(rec.Date.Time)
	var selected *models.ProfitSharingConfig
	for _, c := range matches {
		effective := models.NewDate(c.EffectiveFrom.Time)
		if effective.After(recordDate) {
			continue
		}
		// 生效日期相同时保留先出现的一条
		if selected == nil || effective.After(models.NewDate(selected.EffectiveFrom.Time)) {
			selected = c
		}
	}
	return selected
}

// ResolveConfig 单条记录的便捷解析
func ResolveConfig(rec *models.RevenueRecord, configs []models.ProfitSharingConfig, opts ...ResolverOption) *models.ProfitSharingConfig {
	return NewConfigResolver(configs, opts...).Resolve(rec)
}
