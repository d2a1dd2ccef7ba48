// Package dbtest opens throwaway in-memory SQLite databases with every table
// migrated, for repository and service tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/models"
)

var counter atomic.Int64

// Open returns a migrated database private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:cms_test_%d?mode=memory&cache=shared&_foreign_keys=on", counter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// New returns a Database aggregate over a fresh migrated database.
func New(t testing.TB) database.Database {
	return database.New(Open(t))
}

// Category inserts a category for tests that need a valid reference.
func Category(t testing.TB, db database.Database, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Slug: slug, Name: slug}
	if err := db.CategoryRepo().Add(t.Context(), c); err != nil {
		t.Fatalf("add category: %v", err)
	}
	return c
}
