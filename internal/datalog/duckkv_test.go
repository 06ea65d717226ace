//go:build integration

// Requires the DuckDB cgo driver.
//
// Run: go test -tags=integration ./internal/datalog/
package datalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapdraw/internal/db"
)

func TestDuckKV(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(db.Config{DataDir: t.TempDir(), DBName: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	kv, err := NewDuckKV(ctx, conn)
	require.NoError(t, err)

	_, err = kv.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, ErrNotFound)

	log := New(kv)
	e, err := log.Add(ctx, pin(t, -93.2650, 44.9778), "")
	require.NoError(t, err)

	// Overwrite path.
	_, err = log.Add(ctx, area(t), "")
	require.NoError(t, err)

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, e.ID, entries[0].ID)

	require.NoError(t, log.Clear(ctx))
	entries, err = log.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
