// Package editor holds the state of a single photo editing session: the
// picked image, the latest filter result, the intensity slider and the
// flags for the picker and save sheet.
//
// Every filter reads the picked image, never a previous result. That holds
// for "apply all" too, so only its last stage is visible in the output.
package editor

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/amandeep2102/photoedit/backend/processor"
	"github.com/amandeep2102/photoedit/backend/worker"
	"github.com/amandeep2102/photoedit/shared/models"
	"github.com/dustin/go-humanize"
)

const (
	DefaultIntensity = 0.5
	IntensityStep    = 0.01

	stepsPerUnit = 100
)

var ErrPickerNotPresented = errors.New("picker is not presented")

// Saver starts asynchronous photo library writes.
type Saver interface {
	Submit(ctx context.Context, data []byte) *worker.Task
}

type Session struct {
	saver Saver

	mu                 sync.Mutex
	selected           image.Image
	edited             image.Image
	intensity          float64
	pickerPresented    bool
	saveSheetPresented bool
	revision           uint64
}

func NewSession(saver Saver) *Session {
	return &Session{
		saver:     saver,
		intensity: DefaultIntensity,
	}
}

// ============ Image source ============

func (s *Session) PresentPicker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pickerPresented {
		s.pickerPresented = true
		s.revision++
	}
}

// CompletePick makes img the selected image and closes the picker. Any
// previous edit is dropped since it was derived from the old image.
func (s *Session) CompletePick(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pickerPresented {
		return ErrPickerNotPresented
	}
	s.selected = img
	s.edited = nil
	s.saveSheetPresented = false
	s.pickerPresented = false
	s.revision++
	return nil
}

func (s *Session) CancelPick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pickerPresented {
		s.pickerPresented = false
		s.revision++
	}
}

// ============ Intensity ============

// SetIntensity clamps v to [0,1], snaps it to the slider step and returns
// the stored value.
func (s *Session) SetIntensity(v float64) float64 {
	if math.IsNaN(v) {
		v = DefaultIntensity
	}
	v = math.Min(math.Max(v, 0), 1)
	v = math.Round(v*stepsPerUnit) / stepsPerUnit

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.intensity != v {
		s.intensity = v
		s.revision++
	}
	return v
}

func (s *Session) Intensity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intensity
}

// ============ Filters ============

// ApplyFilter runs one filter against the selected image and stores the
// output as the edited image. It reports whether the edited image changed;
// without a selected image, or when the filter yields nothing, the session
// is left as it was.
func (s *Session) ApplyFilter(kind processor.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(kind)
}

func (s *Session) ApplySepia() bool      { return s.ApplyFilter(processor.KindSepia) }
func (s *Session) ApplyMonochrome() bool { return s.ApplyFilter(processor.KindMonochrome) }
func (s *Session) ApplyBlur() bool       { return s.ApplyFilter(processor.KindBlur) }
func (s *Session) ApplyContrast() bool   { return s.ApplyFilter(processor.KindContrast) }

// ApplyAll runs every filter in order. Each one starts from the selected
// image and overwrites the edited image.
func (s *Session) ApplyAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := false
	for _, kind := range processor.Kinds {
		if s.apply(kind) {
			applied = true
		}
	}
	return applied
}

func (s *Session) apply(kind processor.Kind) bool {
	if s.selected == nil {
		return false
	}

	out, err := processor.Apply(kind, s.selected, s.intensity)
	if err != nil {
		slog.Debug("Filter skipped", "filter", kind, "intensity", s.intensity, "error", err)
		return false
	}

	s.edited = out
	s.revision++
	return true
}

// Reset drops the edited image and restores the default intensity.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edited = nil
	s.intensity = DefaultIntensity
	s.saveSheetPresented = false
	s.revision++
}

// ============ Presentation ============

// Display returns the image to show: the edited image if there is one,
// otherwise the selected image, otherwise nil.
func (s *Session) Display() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edited != nil {
		return s.edited
	}
	return s.selected
}

func (s *Session) Selected() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Session) Edited() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edited
}

// PresentSaveSheet opens the save sheet. It only opens when there is an
// edited image to save and reports whether the sheet is now presented.
func (s *Session) PresentSaveSheet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edited == nil {
		return false
	}
	if !s.saveSheetPresented {
		s.saveSheetPresented = true
		s.revision++
	}
	return true
}

func (s *Session) DismissSaveSheet() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveSheetPresented {
		s.saveSheetPresented = false
		s.revision++
	}
}

func (s *Session) State() models.EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()

	filters := make([]string, 0, len(processor.Kinds))
	for _, k := range processor.Kinds {
		filters = append(filters, string(k))
	}

	return models.EditorState{
		Selected:           info(s.selected),
		Edited:             info(s.edited),
		Intensity:          s.intensity,
		PickerPresented:    s.pickerPresented,
		SaveSheetPresented: s.saveSheetPresented,
		Revision:           s.revision,
		Filters:            filters,
	}
}

func info(img image.Image) *models.ImageInfo {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	return &models.ImageInfo{Width: b.Dx(), Height: b.Dy()}
}

// ============ Persistence ============

// Save encodes the edited image and hands it to the photo library. It
// returns nil when there is nothing to save. The outcome is logged once the
// write finishes; callers may also wait on the returned task.
func (s *Session) Save(ctx context.Context) *worker.Task {
	edited := s.Edited()
	if edited == nil {
		return nil
	}

	data, err := processor.EncodeJPEG(edited)
	if err != nil {
		slog.Error("Error saving photo", "error", err)
		return nil
	}

	task := s.saver.Submit(ctx, data)
	go func() {
		res := task.Wait(context.Background())
		if !res.Success() {
			slog.Error("Error saving photo", "error", res.Err)
			return
		}
		slog.Info("Photo saved",
			"asset", res.Asset.ID,
			"path", res.Asset.Path,
			"size", humanize.Bytes(uint64(res.Asset.SizeBytes)),
			"duration", res.Duration)
	}()
	return task
}
