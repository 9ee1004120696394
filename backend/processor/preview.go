package processor

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preview scales img down to fit within a maxSize square, keeping the aspect
// ratio. Images already small enough are returned as is.
func Preview(img image.Image, maxSize int) image.Image {
	if maxSize <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxSize && b.Dy() <= maxSize {
		return img
	}
	return imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
}
