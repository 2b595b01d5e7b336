package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/dumeirei/resort-fleet-backend/internal/common/config"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Models 财务数据表对应的模型
func Models() []interface{} {
	return []interface{}{
		&models.Resort{},
		&models.Asset{},
		&models.ProfitSharingConfig{},
		&models.RevenueRecord{},
		&models.Expense{},
		&models.MaintenanceRecord{},
	}
}

// Migrate 建表
//
// postgres 使用版本化 SQL 迁移，mysql 与 sqlite 直接按模型 AutoMigrate。
func Migrate(conn *gorm.DB, cfg *config.DatabaseConfig) error {
	switch cfg.Driver {
	case "", "postgres":
		return migratePostgres(cfg.MigrateURL())
	default:
		if err := conn.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}
}

// migratePostgres 执行嵌入的 SQL 迁移
func migratePostgres(databaseURL string) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
