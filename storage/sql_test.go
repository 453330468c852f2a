package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"gorm.io/gorm"
)

func newTestSQLStorage(t *testing.T) *SQLStorage {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := NewFromSQLite(path, DefaultSQLConfig(), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store.(*SQLStorage)
}

func TestSQLStorageRoundTrip(t *testing.T) {
	store := newTestSQLStorage(t)
	ctx := context.Background()

	want := testDocument()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	requireDocumentsEqual(t, want, got)
}

func TestSQLStorageSaveReplacesRows(t *testing.T) {
	store := newTestSQLStorage(t)
	ctx := context.Background()

	doc := testDocument()
	require.NoError(t, store.Save(ctx, doc))

	delete(doc.Users, "7")
	delete(doc.Coins, "ethereum")
	require.NoError(t, store.Save(ctx, doc))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Users, 1)
	require.Equal(t, map[string]string{"bitcoin": "Bitcoin"}, got.Coins)
}

func TestSQLStorageLoadFresh(t *testing.T) {
	store := newTestSQLStorage(t)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, doc.Coins)
	require.Empty(t, doc.Users)
}
