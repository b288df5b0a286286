// Package dbtest opens throwaway databases for package tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kandinsky-studio/design-shop/internal/db"
)

// Open returns a migrated in-memory SQLite database that lives as long as t.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := conn.DB()
	require.NoError(t, err)

	// every connection of ":memory:" is its own database
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(conn), "failed to migrate test database")

	return conn
}
