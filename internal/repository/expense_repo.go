package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// ExpenseRepository 费用仓储
type ExpenseRepository struct {
	db       *gorm.DB
	pageSize int
}

// NewExpenseRepository 创建费用仓储
func NewExpenseRepository(db *gorm.DB, pageSize int) *ExpenseRepository {
	return &ExpenseRepository{db: db, pageSize: normalizePageSize(pageSize)}
}

// Create 创建费用
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

// UpdateStatus 更新审批状态
func (r *ExpenseRepository) UpdateStatus(ctx context.Context, id int64, status string, approverID *int64) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if status == models.ExpenseStatusApproved {
		now := time.Now()
		updates["approved_at"] = &now
		if approverID != nil {
			updates["approved_by"] = *approverID
		}
	}
	return r.db.WithContext(ctx).Model(&models.Expense{}).Where("id = ?", id).Updates(updates).Error
}

// ListAll 分页拉取日期范围内的全部费用（所有状态）
func (r *ExpenseRepository) ListAll(ctx context.Context, dateRange *DateRange) ([]models.Expense, error) {
	query := dateRange.apply(r.db.WithContext(ctx).Model(&models.Expense{}), "date")
	return listAllPages[models.Expense](query, r.pageSize, "date ASC, id ASC")
}
