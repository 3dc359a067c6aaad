// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"testing"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated, seeded in-memory SQLite database. A single
// connection keeps every query on the same in-memory instance.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CategoryBySlug loads one of the seeded categories.
func CategoryBySlug(t testing.TB, db *gorm.DB, slug string) model.Category {
	t.Helper()
	var c model.Category
	require.NoError(t, db.Where("slug = ?", slug).First(&c).Error)
	return c
}
