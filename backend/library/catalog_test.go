package library

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/amandeep2102/photoedit/shared/models"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Catalog {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := OpenDB(ctx, dsn, 3)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(ctx, db))

	dir, err := NewDir(t.TempDir())
	require.NoError(t, err)
	return NewCatalog(db, dir)
}

func TestCatalogCreateAndRefresh(t *testing.T) {
	catalog := openTestDB(t)
	ctx := context.Background()

	asset, err := catalog.Create(ctx, jpegBytes(t, 8, 6))
	require.NoError(t, err)

	assets, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Contains(t, ids(assets), asset.ID)

	got, err := catalog.Get(ctx, asset.ID)
	require.NoError(t, err)
	require.Equal(t, asset.Path, got.Path)
	require.Equal(t, 8, got.Width)

	require.NoError(t, os.Remove(asset.Path))
	removed, err := catalog.Refresh(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, removed, 1)

	assets, err = catalog.List(ctx)
	require.NoError(t, err)
	require.NotContains(t, ids(assets), asset.ID)

	_, err = catalog.Get(ctx, asset.ID)
	require.ErrorIs(t, err, ErrAssetNotFound)
}

func ids(assets []models.Asset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.ID)
	}
	return out
}
