package accessibility

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/model"
)

func TestDefaults(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, model.DefaultAccessibility(), s.Settings())
	sizes := s.Sizes()
	assert.InDelta(t, 22, sizes.Actual, 1e-9)
	assert.InDelta(t, 48, sizes.Huge, 1e-9)
}

func TestFontScaleSteppingAndClamp(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.IncreaseFont())
	require.NoError(t, s.IncreaseFont())
	assert.Equal(t, 1.2, s.Settings().FontScale)
	assert.InDelta(t, 33.6, s.Sizes().Large, 1e-9)

	for i := 0; i < 20; i++ {
		require.NoError(t, s.IncreaseFont())
	}
	assert.Equal(t, model.MaxFontScale, s.Settings().FontScale)

	require.NoError(t, s.SetFontScale(0.1))
	assert.Equal(t, model.MinFontScale, s.Settings().FontScale)
	require.NoError(t, s.DecreaseFont())
	assert.Equal(t, model.MinFontScale, s.Settings().FontScale)
}

func TestSpeechRateClamp(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.SetSpeechRate(25))
	assert.Equal(t, 10, s.Settings().SpeechRate)
	require.NoError(t, s.SetSpeechRate(-25))
	assert.Equal(t, -10, s.Settings().SpeechRate)
}

func TestSubscribersAndPersistence(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	var got []model.AccessibilitySettings
	unsubscribe := s.Subscribe(func(a model.AccessibilitySettings) { got = append(got, a) })

	require.NoError(t, s.ToggleHighContrast())
	require.NoError(t, s.SetHighContrast(true)) // unchanged, no event
	require.NoError(t, s.SetFontScale(1.5))
	require.Len(t, got, 2)
	assert.True(t, got[0].HighContrastMode)
	assert.Equal(t, 1.5, got[1].FontScale)

	unsubscribe()
	require.NoError(t, s.Reset())
	assert.Len(t, got, 2)

	require.NoError(t, s.SetSpeechRate(4))
	reopened, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, model.AccessibilitySettings{FontScale: 1.0, SpeechRate: 4}, reopened.Settings())
}

func TestOpenClampsStoredValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName),
		[]byte(`{"font_scale": 9, "speech_rate": -99, "high_contrast_mode": true}`), 0o644))

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, model.AccessibilitySettings{FontScale: 2.0, SpeechRate: -10, HighContrastMode: true}, s.Settings())
}
