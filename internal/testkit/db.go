// Package testkit holds helpers shared by the package tests: an in-memory
// SQLite database migrated with the application schema.
package testkit

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/car-marketplace/internal/database"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database, applies the schema and
// closes it when the test ends.
func NewDB(t testing.TB) *database.DB {
	t.Helper()
	name := fmt.Sprintf("file:testkit_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Open(database.Options{Dialect: database.SQLite, Name: name})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}
