// Package db opens the configured database and migrates the schema.
package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kandinsky-studio/design-shop/internal/config"
	"github.com/kandinsky-studio/design-shop/internal/db/dsn"
	"github.com/kandinsky-studio/design-shop/internal/db/models"
)

// Open connects to the database selected by cfg.DB.GormEngine.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		dialector = mysql.Open(dsn.Create(cfg))
	case config.EnginePostgres:
		dialector = postgres.Open(dsn.Create(cfg))
	default:
		if dir := filepath.Dir(cfg.DB.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		dialector = sqlite.Open(dsn.Create(cfg))
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if cfg.DevMode {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.DB.GormEngine == config.EngineSQLite {
		sqlDB, errDB := conn.DB()
		if errDB != nil {
			return nil, errDB
		}

		// one writer at a time, sqlite serializes writes anyway
		sqlDB.SetMaxOpenConns(1)
	}

	return conn, nil
}

// Migrate creates missing tables, columns and indexes.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.Package{},
		&models.Order{},
		&models.Donation{},
		&models.Setting{},
		&models.OrderStatusChange{},
		&models.WebhookEvent{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
