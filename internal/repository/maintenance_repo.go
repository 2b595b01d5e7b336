package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// MaintenanceRepository 维修记录仓储
type MaintenanceRepository struct {
	db       *gorm.DB
	pageSize int
}

// NewMaintenanceRepository 创建维修记录仓储
func NewMaintenanceRepository(db *gorm.DB, pageSize int) *MaintenanceRepository {
	return &MaintenanceRepository{db: db, pageSize: normalizePageSize(pageSize)}
}

// Create 创建维修记录
func (r *MaintenanceRepository) Create(ctx context.Context, record *models.MaintenanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListAll 分页拉取开始日期在范围内的全部维修记录
func (r *MaintenanceRepository) ListAll(ctx context.Context, dateRange *DateRange) ([]models.MaintenanceRecord, error) {
	query := dateRange.apply(r.db.WithContext(ctx).Model(&models.MaintenanceRecord{}), "start_date")
	return listAllPages[models.MaintenanceRecord](query, r.pageSize, "start_date ASC, id ASC")
}
