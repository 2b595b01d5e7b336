// Package repository 提供数据访问层
package repository

import (
	"time"

	"gorm.io/gorm"
)

// DefaultPageSize 分页拉取的默认页大小
const DefaultPageSize = 1000

// DateRange 日期范围，首尾均包含，为空表示不限
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// NewDateRange 创建日期范围
func NewDateRange(start, end time.Time) *DateRange {
	return &DateRange{Start: &start, End: &end}
}

// apply 将日期范围应用到查询，按日历日期比较
func (r *DateRange) apply(query *gorm.DB, column string) *gorm.DB {
	if r == nil {
		return query
	}
	if r.Start != nil {
		query = query.Where(column+" >= ?", calendarDate(*r.Start))
	}
	if r.End != nil {
		query = query.Where(column+" <= ?", calendarDate(*r.End))
	}
	return query
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func normalizePageSize(pageSize int) int {
	if pageSize <= 0 {
		return DefaultPageSize
	}
	return pageSize
}

// listAllPages 逐页拉取直到返回不足一页，任何一页出错即整体失败
func listAllPages[T any](query *gorm.DB, pageSize int, order string) ([]T, error) {
	pageSize = normalizePageSize(pageSize)
	base := query.Session(&gorm.Session{})

	all := make([]T, 0)
	for offset := 0; ; offset += pageSize {
		var page []T
		if err := base.Order(order).Offset(offset).Limit(pageSize).Find(&page).Error; err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}
	return all, nil
}
