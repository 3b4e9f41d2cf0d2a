// Package accessibility stores the display and speech preferences and
// tells interested views when they change.
package accessibility

import (
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/store"
)

// FileName is the preferences file inside the data directory.
const FileName = "accessibility.json"

// FontStep is how much IncreaseFont and DecreaseFont change the scale.
const FontStep = 0.1

// Reference point sizes before scaling.
const (
	BaseFontSize   = 22.0
	smallFontSize  = 18.0
	largeFontSize  = 28.0
	xlargeFontSize = 36.0
	hugeFontSize   = 48.0
)

// Sizes are the scaled font sizes in points.
type Sizes struct {
	Small, Actual, Large, XLarge, Huge float64
}

// SizesFor returns the scaled sizes for scale.
func SizesFor(scale float64) Sizes {
	return Sizes{
		Small:  smallFontSize * scale,
		Actual: BaseFontSize * scale,
		Large:  largeFontSize * scale,
		XLarge: xlargeFontSize * scale,
		Huge:   hugeFontSize * scale,
	}
}

// Listener is called with the new settings after every change.
type Listener func(model.AccessibilitySettings)

// Service owns the accessibility settings.
type Service struct {
	path      string
	mu        sync.Mutex
	settings  model.AccessibilitySettings
	listeners map[int]Listener
	nextID    int
}

// Open loads accessibility.json from dataDir, falling back to defaults.
func Open(dataDir string) (*Service, error) {
	s := &Service{
		path:      filepath.Join(dataDir, FileName),
		settings:  model.DefaultAccessibility(),
		listeners: make(map[int]Listener),
	}
	if _, err := store.ReadJSON(s.path, &s.settings); err != nil {
		return nil, err
	}
	s.settings = s.settings.Clamp()
	return s, nil
}

// Settings returns the current settings.
func (s *Service) Settings() model.AccessibilitySettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Sizes returns the font sizes for the current scale.
func (s *Service) Sizes() Sizes {
	return SizesFor(s.Settings().FontScale)
}

// Subscribe registers fn for change notifications and returns a
// function that removes it.
func (s *Service) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// SetFontScale sets the scale, clamped to 0.5-2.0.
func (s *Service) SetFontScale(scale float64) error {
	return s.update(func(a *model.AccessibilitySettings) {
		a.FontScale = math.Round(scale*100) / 100
	})
}

// IncreaseFont makes text one step larger.
func (s *Service) IncreaseFont() error {
	return s.SetFontScale(s.Settings().FontScale + FontStep)
}

// DecreaseFont makes text one step smaller.
func (s *Service) DecreaseFont() error {
	return s.SetFontScale(s.Settings().FontScale - FontStep)
}

// SetSpeechRate sets the speech rate, clamped to -10..10.
func (s *Service) SetSpeechRate(rate int) error {
	return s.update(func(a *model.AccessibilitySettings) { a.SpeechRate = rate })
}

// SetHighContrast turns the high contrast theme on or off.
func (s *Service) SetHighContrast(on bool) error {
	return s.update(func(a *model.AccessibilitySettings) { a.HighContrastMode = on })
}

// ToggleHighContrast flips the high contrast theme.
func (s *Service) ToggleHighContrast() error {
	return s.update(func(a *model.AccessibilitySettings) { a.HighContrastMode = !a.HighContrastMode })
}

// Reset restores the factory settings.
func (s *Service) Reset() error {
	return s.update(func(a *model.AccessibilitySettings) { *a = model.DefaultAccessibility() })
}

// update applies fn, saves, and notifies listeners when something
// actually changed.
func (s *Service) update(fn func(*model.AccessibilitySettings)) error {
	s.mu.Lock()
	next := s.settings
	fn(&next)
	next = next.Clamp()
	if next == s.settings {
		s.mu.Unlock()
		return nil
	}
	if err := store.WriteJSON(s.path, next); err != nil {
		s.mu.Unlock()
		return apperr.Internal("設定を保存できませんでした", fmt.Errorf("saving accessibility: %w", err))
	}
	s.settings = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return nil
}
