package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/resort-fleet-backend/internal/common/metrics"
)

const queryStartKey = "metrics:query_start"

// RegisterQueryMetrics 在 GORM 回调链上记录每条语句的耗时
func RegisterQueryMetrics(conn *gorm.DB, m *metrics.Metrics) error {
	if m == nil {
		return nil
	}

	start := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	finish := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			begin, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			m.RecordDBQuery(operation, table, time.Since(begin))
		}
	}

	cb := conn.Callback()
	for _, err := range []error{
		cb.Create().Before("gorm:create").Register("metrics:before_create", start),
		cb.Create().After("gorm:create").Register("metrics:after_create", finish("INSERT")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", start),
		cb.Query().After("gorm:query").Register("metrics:after_query", finish("SELECT")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", start),
		cb.Update().After("gorm:update").Register("metrics:after_update", finish("UPDATE")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", start),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", finish("DELETE")),
		cb.Row().Before("gorm:row").Register("metrics:before_row", start),
		cb.Row().After("gorm:row").Register("metrics:after_row", finish("SELECT")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", start),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", finish("RAW")),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
