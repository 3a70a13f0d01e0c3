// Package testutil opens throwaway migrated databases for package tests.
package testutil

import (
	"testing"

	"ems-inventory/internal/database"

	"gorm.io/gorm"
)

const Secret = "test-secret-0123456789-abcdefghijklmnop"

// NewDB returns a migrated in-memory sqlite database closed at test cleanup.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Options{DSN: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
