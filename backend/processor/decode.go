package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	// formats beyond the standard library ones the picker accepts
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotImage = errors.New("content is not an image")
	ErrTooLarge = errors.New("image exceeds upload limit")
)

// Decode reads a picked image from r. At most limit bytes are read; a limit
// of zero or less disables the check.
func Decode(r io.Reader, limit int64) (image.Image, string, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, mtype.String(), fmt.Errorf("%w: %s", ErrNotImage, mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, mtype.String(), fmt.Errorf("failed to decode image from bytes: %w", err)
	}
	return img, mtype.String(), nil
}
