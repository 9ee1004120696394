package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/amandeep2102/photoedit/backend/library"
	"github.com/amandeep2102/photoedit/backend/processor"
	"github.com/amandeep2102/photoedit/shared/models"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

const thumbnailSize = 256

// photoStore is the read side of the asset catalogue.
type photoStore interface {
	List(ctx context.Context) ([]models.Asset, error)
	Get(ctx context.Context, id string) (models.Asset, error)
}

type gallery struct {
	store photoStore
}

func newRouter(store photoStore) *gin.Engine {
	g := &gallery{store: store}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/photos", g.handleList)
	r.GET("/photos/:id", g.handleDownload)
	r.GET("/photos/:id/thumbnail", g.handleThumbnail)
	r.GET("/stats", g.handleStats)

	return r
}

func (g *gallery) handleList(c *gin.Context) {
	assets, err := g.store.List(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list photos", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "catalogue query failed"})
		return
	}

	photos := make([]gin.H, 0, len(assets))
	for _, a := range assets {
		photos = append(photos, gin.H{
			"id":         a.ID,
			"width":      a.Width,
			"height":     a.Height,
			"size_bytes": a.SizeBytes,
			"size":       humanize.Bytes(uint64(a.SizeBytes)),
			"created_at": a.CreatedAt,
			"age":        humanize.Time(a.CreatedAt),
		})
	}
	c.JSON(http.StatusOK, gin.H{"photos": photos, "count": len(photos)})
}

// lookup resolves the :id parameter, writing the error response itself when
// the photo cannot be served.
func (g *gallery) lookup(c *gin.Context) (models.Asset, bool) {
	asset, err := g.store.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, library.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "photo not found"})
		return asset, false
	case err != nil:
		slog.Error("Failed to look up photo", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "catalogue query failed"})
		return asset, false
	}

	if _, err := os.Stat(asset.Path); err != nil {
		slog.Warn("Catalogued photo missing on disk", "id", asset.ID, "path", asset.Path)
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "photo file missing"})
		return asset, false
	}
	return asset, true
}

func (g *gallery) handleDownload(c *gin.Context) {
	asset, ok := g.lookup(c)
	if !ok {
		return
	}

	c.Header("Content-Type", asset.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(asset.Path)))
	c.File(asset.Path)
}

func (g *gallery) handleThumbnail(c *gin.Context) {
	asset, ok := g.lookup(c)
	if !ok {
		return
	}

	f, err := os.Open(asset.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to open photo"})
		return
	}
	defer f.Close()

	img, _, err := processor.Decode(f, 0)
	if err != nil {
		slog.Error("Failed to decode photo", "id", asset.ID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to decode photo"})
		return
	}

	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := processor.WritePNG(c.Writer, processor.Preview(img, thumbnailSize)); err != nil {
		slog.Warn("Failed to write thumbnail", "id", asset.ID, "error", err)
	}
}

func (g *gallery) handleStats(c *gin.Context) {
	assets, err := g.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get stats"})
		return
	}

	var total int64
	for _, a := range assets {
		total += a.SizeBytes
	}

	stats := gin.H{
		"total_photos":     len(assets),
		"total_size_bytes": total,
		"total_size":       humanize.Bytes(uint64(total)),
	}
	if len(assets) > 0 {
		stats["last_saved"] = humanize.Time(assets[0].CreatedAt)
	}
	c.JSON(http.StatusOK, stats)
}
