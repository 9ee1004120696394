package library

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/amandeep2102/photoedit/shared/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Dir is a photo library kept as one file per asset in a directory.
type Dir struct {
	root string
}

func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create library dir: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Root() string {
	return d.root
}

// Create writes data as a new asset. The file appears under its final name
// only once fully written.
func (d *Dir) Create(ctx context.Context, data []byte) (models.Asset, error) {
	if err := ctx.Err(); err != nil {
		return models.Asset{}, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.Asset{}, fmt.Errorf("asset is not a decodable image: %w", err)
	}
	mtype := mimetype.Detect(data)

	id := uuid.New().String()
	path := filepath.Join(d.root, id+mtype.Extension())

	tmp, err := os.CreateTemp(d.root, ".incoming-*")
	if err != nil {
		return models.Asset{}, fmt.Errorf("failed to create asset file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return models.Asset{}, fmt.Errorf("failed to write asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return models.Asset{}, fmt.Errorf("failed to write asset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return models.Asset{}, fmt.Errorf("failed to store asset: %w", err)
	}

	return models.Asset{
		ID:          id,
		Path:        path,
		ContentType: mtype.String(),
		SizeBytes:   int64(len(data)),
		Width:       cfg.Width,
		Height:      cfg.Height,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
