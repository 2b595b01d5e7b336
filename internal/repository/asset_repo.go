package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// AssetRepository 资产仓储
type AssetRepository struct {
	db       *gorm.DB
	pageSize int
}

// NewAssetRepository 创建资产仓储
func NewAssetRepository(db *gorm.DB, pageSize int) *AssetRepository {
	return &AssetRepository{db: db, pageSize: normalizePageSize(pageSize)}
}

// Create 创建资产
func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

// UpdateStatus 更新资产状态
func (r *AssetRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Asset{}).Where("id = ?", id).Update("status", status).Error
}

// ListAll 获取全部资产，resortID 不为空时只取该度假村
func (r *AssetRepository) ListAll(ctx context.Context, resortID *int64) ([]models.Asset, error) {
	query := r.db.WithContext(ctx).Model(&models.Asset{})
	if resortID != nil {
		query = query.Where("resort_id = ?", *resortID)
	}
	return listAllPages[models.Asset](query, r.pageSize, "id ASC")
}

// CountByStatus 按状态统计资产数
func (r *AssetRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&models.Asset{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
