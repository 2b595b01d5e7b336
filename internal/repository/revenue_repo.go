package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// RevenueRepository 收入记录仓储
type RevenueRepository struct {
	db       *gorm.DB
	pageSize int
}

// NewRevenueRepository 创建收入记录仓储
func NewRevenueRepository(db *gorm.DB, pageSize int) *RevenueRepository {
	return &RevenueRepository{db: db, pageSize: normalizePageSize(pageSize)}
}

// RevenueFilter 收入查询过滤条件
type RevenueFilter struct {
	DateRange     *DateRange
	ResortID      *int64
	AssetCategory string
}

func (r *RevenueRepository) filtered(ctx context.Context, filter *RevenueFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.RevenueRecord{})
	if filter == nil {
		return query
	}
	query = filter.DateRange.apply(query, "date")
	if filter.ResortID != nil {
		query = query.Where("resort_id = ?", *filter.ResortID)
	}
	if filter.AssetCategory != "" {
		query = query.Where("asset_category = ?", filter.AssetCategory)
	}
	return query
}

// Create 创建收入记录
func (r *RevenueRepository) Create(ctx context.Context, record *models.RevenueRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// CreateBatch 批量创建收入记录，在同一事务内完成
func (r *RevenueRepository) CreateBatch(ctx context.Context, records []models.RevenueRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&records, 200).Error
	})
}

// ListAll 分页拉取全部符合条件的收入记录，按日期升序
func (r *RevenueRepository) ListAll(ctx context.Context, filter *RevenueFilter) ([]models.RevenueRecord, error) {
	return listAllPages[models.RevenueRecord](r.filtered(ctx, filter), r.pageSize, "date ASC, id ASC")
}

// List 获取收入记录列表
func (r *RevenueRepository) List(ctx context.Context, filter *RevenueFilter, offset, limit int) ([]models.RevenueRecord, int64, error) {
	var records []models.RevenueRecord
	var total int64

	query := r.filtered(ctx, filter)

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 获取数据
	err := query.Order("date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
