package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/amandeep2102/photoedit/shared/models"
)

// ErrAssetNotFound is returned by Get for an unknown asset id.
var ErrAssetNotFound = errors.New("asset not found")

// Library creates photo assets from encoded image data.
type Library interface {
	Create(ctx context.Context, data []byte) (models.Asset, error)
}

// Catalog records every asset created by the wrapped library in the assets table.
type Catalog struct {
	db   *sql.DB
	next Library
}

func NewCatalog(db *sql.DB, next Library) *Catalog {
	return &Catalog{db: db, next: next}
}

func (c *Catalog) Create(ctx context.Context, data []byte) (models.Asset, error) {
	asset, err := c.next.Create(ctx, data)
	if err != nil {
		return models.Asset{}, err
	}

	_, err = c.db.ExecContext(ctx, `
        INSERT INTO assets (id, path, content_type, size_bytes, width, height, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, asset.ID, asset.Path, asset.ContentType, asset.SizeBytes, asset.Width, asset.Height, asset.CreatedAt)
	if err != nil {
		return asset, fmt.Errorf("failed to record asset %s: %w", asset.ID, err)
	}
	return asset, nil
}

// List returns catalogued assets, newest first.
func (c *Catalog) List(ctx context.Context) ([]models.Asset, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT id, path, content_type, size_bytes, width, height, created_at
        FROM assets
        ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]models.Asset, 0)
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.Path, &a.ContentType, &a.SizeBytes, &a.Width, &a.Height, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (c *Catalog) Get(ctx context.Context, id string) (models.Asset, error) {
	var a models.Asset
	err := c.db.QueryRowContext(ctx, `
        SELECT id, path, content_type, size_bytes, width, height, created_at
        FROM assets
        WHERE id = $1
    `, id).Scan(&a.ID, &a.Path, &a.ContentType, &a.SizeBytes, &a.Width, &a.Height, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Asset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if err != nil {
		return models.Asset{}, fmt.Errorf("failed to get asset %s: %w", id, err)
	}
	return a, nil
}

// Refresh drops catalogue rows whose file no longer exists and reports how
// many were removed.
func (c *Catalog) Refresh(ctx context.Context) (int, error) {
	assets, err := c.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, a := range assets {
		if fileExists(a.Path) {
			continue
		}
		if _, err := c.db.ExecContext(ctx, "DELETE FROM assets WHERE id = $1", a.ID); err != nil {
			return removed, fmt.Errorf("failed to delete asset %s: %w", a.ID, err)
		}
		slog.Info("Removed missing asset from catalogue", "id", a.ID, "path", a.Path)
		removed++
	}
	return removed, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil
}
