package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// ProfitSharingRepository 分成配置仓储
type ProfitSharingRepository struct {
	db       *gorm.DB
	pageSize int
}

// NewProfitSharingRepository 创建分成配置仓储
func NewProfitSharingRepository(db *gorm.DB, pageSize int) *ProfitSharingRepository {
	return &ProfitSharingRepository{db: db, pageSize: normalizePageSize(pageSize)}
}

// Create 创建分成配置
func (r *ProfitSharingRepository) Create(ctx context.Context, config *models.ProfitSharingConfig) error {
	return r.db.WithContext(ctx).Create(config).Error
}

// ListAll 获取全部分成配置，按生效日期升序
func (r *ProfitSharingRepository) ListAll(ctx context.Context) ([]models.ProfitSharingConfig, error) {
	query := r.db.WithContext(ctx).Model(&models.ProfitSharingConfig{})
	return listAllPages[models.ProfitSharingConfig](query, r.pageSize, "effective_from ASC, id ASC")
}

// ListByPair 获取指定度假村与资产类别的全部版本
func (r *ProfitSharingRepository) ListByPair(ctx context.Context, resortID int64, category models.AssetCategory) ([]models.ProfitSharingConfig, error) {
	var configs []models.ProfitSharingConfig
	err := r.db.WithContext(ctx).
		Where("resort_id = ? AND asset_category = ?", resortID, category).
		Order("effective_from ASC, id ASC").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}
