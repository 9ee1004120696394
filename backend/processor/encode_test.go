package processor

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(gradient(32, 24))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 32, cfg.Width)
	require.Equal(t, 24, cfg.Height)

	_, err = EncodeJPEG(image.NewNRGBA(image.Rectangle{}))
	require.ErrorIs(t, err, ErrNoOutput)
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(20, 10)))

	img, mtype, err := Decode(bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	require.Equal(t, "image/png", mtype)
	require.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())
}

func TestDecodeRejectsNonImages(t *testing.T) {
	_, _, err := Decode(strings.NewReader("definitely not a picture"), 0)
	require.ErrorIs(t, err, ErrNotImage)
}

func TestDecodeLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(64, 64), nil))

	_, _, err := Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()-1))
	require.ErrorIs(t, err, ErrTooLarge)

	_, _, err = Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
}

func TestPreview(t *testing.T) {
	src := gradient(400, 200)

	out := Preview(src, 100)
	require.Equal(t, 100, out.Bounds().Dx())
	require.Equal(t, 50, out.Bounds().Dy())

	require.Same(t, src, Preview(src, 0))
	require.Same(t, src, Preview(src, 1000))
}
