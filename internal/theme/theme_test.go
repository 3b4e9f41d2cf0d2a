package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaletteFallback(t *testing.T) {
	assert.Equal(t, palettes[Modern], PaletteFor("unknown"))
	assert.Equal(t, palettes[Sheets], PaletteFor("Sheets"))
}

func TestApplyHighContrastOverridesTheme(t *testing.T) {
	t.Cleanup(func() { Apply(Modern, false) })

	Apply(Senior, true)
	assert.Equal(t, palettes[HighContrast], Current)

	Apply(Senior, false)
	assert.Equal(t, palettes[Senior], Current)
}

func TestEveryThemeHasLabel(t *testing.T) {
	for _, name := range Names {
		assert.NotEmpty(t, Label(name), name)
		_, ok := palettes[name]
		assert.True(t, ok, name)
	}
}
