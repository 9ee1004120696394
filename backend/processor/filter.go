package processor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
)

// Kind names one of the built-in filters.
type Kind string

const (
	KindSepia      Kind = "sepia"
	KindMonochrome Kind = "monochrome"
	KindBlur       Kind = "blur"
	KindContrast   Kind = "contrast"
)

// Kinds lists the filters in the order "apply all" runs them.
var Kinds = []Kind{KindSepia, KindMonochrome, KindBlur, KindContrast}

var (
	// ErrNoOutput is returned when a filter cannot produce an image from its input.
	ErrNoOutput    = errors.New("filter produced no output")
	ErrUnknownKind = errors.New("unknown filter kind")
)

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// SepiaAmount maps intensity to the sepia tone amount in [0,1].
func SepiaAmount(intensity float64) float64 {
	return intensity
}

// BlurRadius maps intensity to the gaussian blur radius. The slope steepens
// past the midpoint of the slider.
func BlurRadius(intensity float64) float64 {
	if intensity <= 0.5 {
		return intensity * 30
	}
	return intensity * 50
}

// ContrastFactor maps intensity to a contrast multiplier; 1 leaves the image unchanged.
func ContrastFactor(intensity float64) float64 {
	return intensity * 2
}

// Apply runs the filter of the given kind against src.
func Apply(kind Kind, src image.Image, intensity float64) (*image.NRGBA, error) {
	switch kind {
	case KindSepia:
		return Sepia(src, SepiaAmount(intensity))
	case KindMonochrome:
		return Monochrome(src)
	case KindBlur:
		return Blur(src, BlurRadius(intensity))
	case KindContrast:
		return Contrast(src, ContrastFactor(intensity))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func Sepia(src image.Image, amount float64) (*image.NRGBA, error) {
	if err := checkSource(src); err != nil {
		return nil, err
	}
	g := gift.New(gift.Sepia(float32(clampUnit(amount) * 100)))
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst, nil
}

func Monochrome(src image.Image) (*image.NRGBA, error) {
	if err := checkSource(src); err != nil {
		return nil, err
	}
	return imaging.Grayscale(src), nil
}

func Blur(src image.Image, radius float64) (*image.NRGBA, error) {
	if err := checkSource(src); err != nil {
		return nil, err
	}
	return imaging.Blur(src, radius), nil
}

func Contrast(src image.Image, factor float64) (*image.NRGBA, error) {
	if err := checkSource(src); err != nil {
		return nil, err
	}
	if factor < 0 {
		factor = 0
	}

	var lut [256]uint8
	for i := range lut {
		lut[i] = clampChannel((float64(i)-127.5)*factor + 127.5)
	}

	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	}), nil
}

func checkSource(src image.Image) error {
	if src == nil || src.Bounds().Empty() {
		return ErrNoOutput
	}
	return nil
}

func clampUnit(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func clampChannel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
