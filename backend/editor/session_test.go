package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/amandeep2102/photoedit/backend/processor"
	"github.com/amandeep2102/photoedit/backend/worker"
	"github.com/amandeep2102/photoedit/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLibrary struct {
	mu    sync.Mutex
	saved [][]byte
	err   error
}

func (l *recordingLibrary) Create(_ context.Context, data []byte) (models.Asset, error) {
	if l.err != nil {
		return models.Asset{}, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.saved = append(l.saved, data)
	return models.Asset{ID: "asset-1", SizeBytes: int64(len(data))}, nil
}

func newTestSession(t *testing.T, lib *recordingLibrary) *Session {
	t.Helper()
	pool := worker.NewPool(1, lib)
	pool.Start()
	t.Cleanup(pool.Stop)
	return NewSession(pool)
}

func photo() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 15), B: uint8((x * y) % 256), A: 255})
		}
	}
	return img
}

func pick(t *testing.T, s *Session, img image.Image) {
	t.Helper()
	s.PresentPicker()
	require.NoError(t, s.CompletePick(img))
}

func pixels(t *testing.T, img image.Image) []uint8 {
	t.Helper()
	nrgba, ok := img.(*image.NRGBA)
	require.True(t, ok, "expected *image.NRGBA, got %T", img)
	return nrgba.Pix
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewSessionDefaults(t *testing.T) {
	s := newTestSession(t, &recordingLibrary{})

	state := s.State()
	require.Nil(t, state.Selected)
	require.Nil(t, state.Edited)
	require.Equal(t, DefaultIntensity, state.Intensity)
	require.False(t, state.PickerPresented)
	require.False(t, state.SaveSheetPresented)
	require.Equal(t, []string{"sepia", "monochrome", "blur", "contrast"}, state.Filters)
	require.Nil(t, s.Display())
}

func TestPicker(t *testing.T) {
	s := newTestSession(t, &recordingLibrary{})
	img := photo()

	require.ErrorIs(t, s.CompletePick(img), ErrPickerNotPresented)

	s.PresentPicker()
	require.True(t, s.State().PickerPresented)
	s.CancelPick()
	require.False(t, s.State().PickerPresented)
	require.Nil(t, s.Selected())

	pick(t, s, img)
	state := s.State()
	require.False(t, state.PickerPresented)
	require.Equal(t, &models.ImageInfo{Width: 24, Height: 16}, state.Selected)
	require.Same(t, img, s.Display())
}

func TestNewPickClearsEdit(t *testing.T) {
	s := newTestSession(t, &recordingLibrary{})
	pick(t, s, photo())
	require.True(t, s.ApplySepia())
	require.True(t, s.PresentSaveSheet())

	next := photo()
	pick(t, s, next)
	require.Nil(t, s.Edited())
	require.False(t, s.State().SaveSheetPresented)
	require.Same(t, next, s.Display())
}

func TestSetIntensity(t *testing.T) {
	s := newTestSession(t, &recordingLibrary{})

	tests := []struct {
		in, want float64
	}{
		{0.2, 0.2},
		{0.123, 0.12},
		{0.125, 0.13},
		{-1, 0},
		{7, 1},
		{1, 1},
	}
	for _, tt := range tests {
		require.InDelta(t, tt.want, s.SetIntensity(tt.in), 1e-12, "input %v", tt.in)
		require.InDelta(t, tt.want, s.Intensity(), 1e-12, "input %v", tt.in)
	}
}

func TestFiltersWithoutSelectionAreNoOps(t *testing.T) {
	s := newTestSession(t, &recordingLibrary{})

	require.False(t, s.ApplySepia())
	require.False(t, s.ApplyMonochrome())
	require.False(t, s.ApplyBlur())
	require.False(t, s.ApplyContrast())
	require.False(t, s.ApplyAll())
	require.Nil(t, s.Edited())
}

func TestFilterFailureKeepsPreviousEdit(t *testing.T) {
	s := newTestSession(t, &recordingLibrary{})
	pick(t, s, photo())
	require.True(t, s.ApplyMonochrome())
	before := s.Edited()

	// an empty picture cannot be filtered; swap it in behind the picker
	s.mu.Lock()
	s.selected = image.NewNRGBA(image.Rectangle{})
	s.mu.Unlock()

	require.False(t, s.ApplyBlur())
	require.Same(t, before, s.Edited())
}

func TestFiltersReadSelectedImage(t *testing.T) {
	s := newTestSession(t, &recordingLibrary{})
	src := photo()
	pick(t, s, src)

	require.True(t, s.ApplyMonochrome())
	require.True(t, s.ApplyContrast())

	want, err := processor.Contrast(src, processor.ContrastFactor(DefaultIntensity))
	require.NoError(t, err)
	require.Equal(t, want.Pix, pixels(t, s.Edited()))
}

func TestApplyAllMatchesContrastAlone(t *testing.T) {
	for _, intensity := range []float64{0.5, 0.2, 0.9} {
		src := photo()

		all := newTestSession(t, &recordingLibrary{})
		pick(t, all, src)
		all.SetIntensity(intensity)
		require.True(t, all.ApplyAll())

		single := newTestSession(t, &recordingLibrary{})
		pick(t, single, src)
		single.SetIntensity(intensity)
		require.True(t, single.ApplyContrast())

		require.Equal(t, pixels(t, single.Edited()), pixels(t, all.Edited()), "intensity %v", intensity)
	}
}

func TestReset(t *testing.T) {
	s := newTestSession(t, &recordingLibrary{})

	s.Reset()
	require.Nil(t, s.Edited())
	require.Equal(t, DefaultIntensity, s.Intensity())

	pick(t, s, photo())
	s.SetIntensity(0.9)
	require.True(t, s.ApplyBlur())
	require.True(t, s.PresentSaveSheet())

	s.Reset()
	state := s.State()
	require.Nil(t, state.Edited)
	require.NotNil(t, state.Selected)
	require.Equal(t, DefaultIntensity, state.Intensity)
	require.False(t, state.SaveSheetPresented)
}

func TestSaveSheetNeedsEdit(t *testing.T) {
	s := newTestSession(t, &recordingLibrary{})
	require.False(t, s.PresentSaveSheet())

	pick(t, s, photo())
	require.False(t, s.PresentSaveSheet())

	require.True(t, s.ApplyContrast())
	require.True(t, s.PresentSaveSheet())
	require.True(t, s.State().SaveSheetPresented)

	s.DismissSaveSheet()
	require.False(t, s.State().SaveSheetPresented)
}

func TestSaveWithoutEditIsNoOp(t *testing.T) {
	lib := &recordingLibrary{}
	s := newTestSession(t, lib)

	require.Nil(t, s.Save(context.Background()))
	pick(t, s, photo())
	require.Nil(t, s.Save(context.Background()))
	require.Empty(t, lib.saved)
}

func TestSaveFailureIsReported(t *testing.T) {
	lib := &recordingLibrary{err: errors.New("library unavailable")}
	s := newTestSession(t, lib)
	pick(t, s, photo())
	require.True(t, s.ApplySepia())

	task := s.Save(context.Background())
	require.NotNil(t, task)
	res := task.Wait(waitCtx(t))
	require.False(t, res.Success())
	require.EqualError(t, res.Err, "library unavailable")
	require.NotNil(t, s.Edited())
}

func TestEditingScenario(t *testing.T) {
	lib := &recordingLibrary{}
	s := newTestSession(t, lib)
	src := photo()

	pick(t, s, src)
	s.SetIntensity(0.2)
	require.True(t, s.ApplyBlur())

	assert.InDelta(t, 6, processor.BlurRadius(0.2), 1e-9)
	blurred, err := processor.Blur(src, processor.BlurRadius(0.2))
	require.NoError(t, err)
	require.Equal(t, blurred.Pix, pixels(t, s.Edited()))

	s.Reset()
	require.Nil(t, s.Edited())
	require.Equal(t, 0.5, s.Intensity())

	require.True(t, s.ApplySepia())
	sepia, err := processor.Sepia(src, 0.5)
	require.NoError(t, err)
	require.Equal(t, sepia.Pix, pixels(t, s.Edited()))

	require.True(t, s.PresentSaveSheet())
	task := s.Save(context.Background())
	require.NotNil(t, task)
	res := task.Wait(waitCtx(t))
	require.True(t, res.Success())
	require.Equal(t, "asset-1", res.Asset.ID)

	require.Len(t, lib.saved, 1)
	want, err := processor.EncodeJPEG(sepia)
	require.NoError(t, err)
	assert.Equal(t, want, lib.saved[0])

	cfg, format, err := image.DecodeConfig(bytes.NewReader(lib.saved[0]))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 24, cfg.Width)
	assert.Equal(t, 16, cfg.Height)
}
