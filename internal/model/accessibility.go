package model

// AccessibilitySettings holds display and speech preferences.
type AccessibilitySettings struct {
	FontScale        float64 `json:"font_scale"`
	SpeechRate       int     `json:"speech_rate"`
	HighContrastMode bool    `json:"high_contrast_mode"`
}

const (
	MinFontScale  = 0.5
	MaxFontScale  = 2.0
	MinSpeechRate = -10
	MaxSpeechRate = 10
)

// DefaultAccessibility returns the factory accessibility settings.
func DefaultAccessibility() AccessibilitySettings {
	return AccessibilitySettings{FontScale: 1.0}
}

// Clamp forces every field into its valid range.
func (a AccessibilitySettings) Clamp() AccessibilitySettings {
	if a.FontScale < MinFontScale {
		a.FontScale = MinFontScale
	}
	if a.FontScale > MaxFontScale {
		a.FontScale = MaxFontScale
	}
	if a.SpeechRate < MinSpeechRate {
		a.SpeechRate = MinSpeechRate
	}
	if a.SpeechRate > MaxSpeechRate {
		a.SpeechRate = MaxSpeechRate
	}
	return a
}
