package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// ResortRepository 度假村仓储
type ResortRepository struct {
	db       *gorm.DB
	pageSize int
}

// NewResortRepository 创建度假村仓储
func NewResortRepository(db *gorm.DB, pageSize int) *ResortRepository {
	return &ResortRepository{db: db, pageSize: normalizePageSize(pageSize)}
}

// Create 创建度假村
func (r *ResortRepository) Create(ctx context.Context, resort *models.Resort) error {
	return r.db.WithContext(ctx).Create(resort).Error
}

// GetByID 根据 ID 获取度假村
func (r *ResortRepository) GetByID(ctx context.Context, id int64) (*models.Resort, error) {
	var resort models.Resort
	err := r.db.WithContext(ctx).First(&resort, id).Error
	if err != nil {
		return nil, err
	}
	return &resort, nil
}

// GetByCode 根据编码获取度假村
func (r *ResortRepository) GetByCode(ctx context.Context, code string) (*models.Resort, error) {
	var resort models.Resort
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&resort).Error
	if err != nil {
		return nil, err
	}
	return &resort, nil
}

// ListAll 获取全部度假村
func (r *ResortRepository) ListAll(ctx context.Context) ([]models.Resort, error) {
	query := r.db.WithContext(ctx).Model(&models.Resort{})
	return listAllPages[models.Resort](query, r.pageSize, "id ASC")
}
