// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
	"github.com/Skotchmaster/bookstore_checkout/pkg/db"
)

// NewDB returns a migrated in-memory sqlite database closed at test end.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}
