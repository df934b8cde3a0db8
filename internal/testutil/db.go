// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"catalog-service/pkg/config"
	"catalog-service/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated, isolated in-memory SQLite database
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(&config.DBConfig{
		Driver:       "sqlite",
		DBName:       "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     logger.Silent,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
