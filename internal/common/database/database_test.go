// Package database 数据库模块单元测试
package database

import (
	"context"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/resort-fleet-backend/internal/common/config"
	"github.com/dumeirei/resort-fleet-backend/internal/common/metrics"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// sqliteConfig 内存 sqlite 配置
func sqliteConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:        "sqlite",
		Path:          ":memory:",
		Name:          "resort_fleet_test",
		SlowThreshold: 200,
	}
}

// ==================== getLogLevel 测试 ====================

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logMode  bool
		expected logger.LogLevel
	}{
		{"log mode enabled", true, logger.Info},
		{"log mode disabled", false, logger.Silent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getLogLevel(tt.logMode)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// ==================== Init 测试 ====================

func TestInit_SQLite(t *testing.T) {
	oldDB := db
	t.Cleanup(func() {
		_ = Close()
		db = oldDB
	})

	conn, err := Init(sqliteConfig())
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, conn, GetDB())

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.NotNil(t, conn.Callback().Query().Get("metrics:after_query"))
}

// ==================== 查询指标测试 ====================

// queryCount 从默认注册表读取 db_queries_total
func queryCount(t *testing.T, namespace, operation, table string) float64 {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != namespace+"_db_queries_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["operation"] == operation && labels["table"] == table {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRegisterQueryMetrics(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Expense{}))
	require.NoError(t, RegisterQueryMetrics(conn, metrics.Init("dbcb_test")))

	expense := &models.Expense{Category: models.ExpenseCategorySalary, Amount: 300, Date: models.DateOf(2024, time.February, 1), Status: models.ExpenseStatusApproved}
	require.NoError(t, conn.Create(expense).Error)

	var loaded []models.Expense
	require.NoError(t, conn.Find(&loaded).Error)
	require.NoError(t, conn.Find(&loaded).Error)
	require.NoError(t, conn.Model(expense).Update("amount", 350).Error)
	require.NoError(t, conn.Delete(expense).Error)

	assert.Equal(t, 1.0, queryCount(t, "dbcb_test", "INSERT", "expenses"))
	assert.Equal(t, 2.0, queryCount(t, "dbcb_test", "SELECT", "expenses"))
	assert.Equal(t, 1.0, queryCount(t, "dbcb_test", "UPDATE", "expenses"))
	assert.Equal(t, 1.0, queryCount(t, "dbcb_test", "DELETE", "expenses"))

	t.Run("未启用指标", func(t *testing.T) {
		assert.NoError(t, RegisterQueryMetrics(conn, nil))
	})
}

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database driver "oracle"`)
}

func TestOpenDialector(t *testing.T) {
	for _, driver := range []string{"", "postgres", "mysql", "sqlite"} {
		d, err := openDialector(&config.DatabaseConfig{Driver: driver, Path: ":memory:"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	postgresDialector, _ := openDialector(&config.DatabaseConfig{Driver: "postgres"})
	mysqlDialector, _ := openDialector(&config.DatabaseConfig{Driver: "mysql"})
	assert.Equal(t, "postgres", postgresDialector.Name())
	assert.Equal(t, "mysql", mysqlDialector.Name())
}

// ==================== Migrate 测试 ====================

func TestMigrate_SQLiteAutoMigrate(t *testing.T) {
	oldDB := db
	t.Cleanup(func() {
		_ = Close()
		db = oldDB
	})

	cfg := sqliteConfig()
	conn, err := Init(cfg)
	require.NoError(t, err)

	require.NoError(t, Migrate(conn, cfg))

	for _, model := range Models() {
		assert.True(t, conn.Migrator().HasTable(model))
	}

	// 迁移可重复执行
	require.NoError(t, Migrate(conn, cfg))

	ctx := context.Background()
	record := &models.RevenueRecord{
		ResortID:      1,
		AssetCategory: models.AssetCategoryATV,
		Date:          models.DateOf(2024, time.January, 10),
		Amount:        1000,
	}
	require.NoError(t, conn.WithContext(ctx).Create(record).Error)
	assert.NotZero(t, record.ID)
}

func TestEmbeddedMigrations(t *testing.T) {
	source, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	t.Cleanup(func() { _ = source.Close() })

	first, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, name, err := source.ReadUp(first)
	require.NoError(t, err)
	assert.Equal(t, "init_fleet", name)
	_ = up.Close()

	down, _, err := source.ReadDown(first)
	require.NoError(t, err)
	_ = down.Close()
}

// ==================== GetDB / Close 测试 ====================

func TestGetDB_ReturnsGlobalDB(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	oldDB := db
	db = testDB
	t.Cleanup(func() {
		db = oldDB
	})

	assert.Equal(t, testDB, GetDB())
}

func TestClose_WithNilDB(t *testing.T) {
	oldDB := db
	db = nil
	t.Cleanup(func() {
		db = oldDB
	})

	assert.NoError(t, Close())
}

func TestClose_WithActiveDB(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	oldDB := db
	db = testDB
	t.Cleanup(func() {
		db = oldDB
	})

	assert.NoError(t, Close())
}
