package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme names accepted in settings.json.
const (
	Modern       = "modern"
	Sheets       = "sheets"
	Senior       = "senior"
	HighContrast = "high-contrast"
)

// Names lists the selectable themes in display order.
var Names = []string{Modern, Sheets, Senior, HighContrast}

// Label returns the Japanese name shown on the settings screen.
func Label(name string) string {
	switch name {
	case Sheets:
		return "表計算風（緑）"
	case Senior:
		return "見やすい（暖色）"
	case HighContrast:
		return "ハイコントラスト（黒地に黄色）"
	default:
		return "モダン（青）"
	}
}

// Palette is the set of colors a theme is built from.
type Palette struct {
	Accent  lipgloss.TerminalColor
	Text    lipgloss.TerminalColor
	Muted   lipgloss.TerminalColor
	Subtle  lipgloss.TerminalColor
	Border  lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	// Select is the background of the cell or item under the cursor.
	Select lipgloss.TerminalColor
	// OnAccent is text drawn on Accent or Select backgrounds.
	OnAccent lipgloss.TerminalColor
}

var palettes = map[string]Palette{
	Modern: {
		Accent:   lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"},
		Text:     lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"},
		Muted:    lipgloss.AdaptiveColor{Dark: "#ADB5BD", Light: "#4A5568"},
		Subtle:   lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"},
		Border:   lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"},
		Success:  lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"},
		Warning:  lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"},
		Error:    lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"},
		Select:   lipgloss.AdaptiveColor{Dark: "#2B6CB0", Light: "#BEE3F8"},
		OnAccent: lipgloss.AdaptiveColor{Dark: "#FFFFFF", Light: "#1A202C"},
	},
	Sheets: {
		Accent:   lipgloss.AdaptiveColor{Dark: "#34A853", Light: "#188038"},
		Text:     lipgloss.AdaptiveColor{Dark: "#F1F3F4", Light: "#202124"},
		Muted:    lipgloss.AdaptiveColor{Dark: "#BDC1C6", Light: "#5F6368"},
		Subtle:   lipgloss.AdaptiveColor{Dark: "#3C4043", Light: "#DADCE0"},
		Border:   lipgloss.AdaptiveColor{Dark: "#5F6368", Light: "#DADCE0"},
		Success:  lipgloss.AdaptiveColor{Dark: "#81C995", Light: "#137333"},
		Warning:  lipgloss.AdaptiveColor{Dark: "#FDD663", Light: "#B06000"},
		Error:    lipgloss.AdaptiveColor{Dark: "#F28B82", Light: "#C5221F"},
		Select:   lipgloss.AdaptiveColor{Dark: "#137333", Light: "#CEEAD6"},
		OnAccent: lipgloss.AdaptiveColor{Dark: "#FFFFFF", Light: "#202124"},
	},
	Senior: {
		Accent:   lipgloss.AdaptiveColor{Dark: "#F6AD55", Light: "#9C4221"},
		Text:     lipgloss.AdaptiveColor{Dark: "#FFFAF0", Light: "#1A1A1A"},
		Muted:    lipgloss.AdaptiveColor{Dark: "#E2D6C6", Light: "#4A3F35"},
		Subtle:   lipgloss.AdaptiveColor{Dark: "#5C4B3B", Light: "#EADBC8"},
		Border:   lipgloss.AdaptiveColor{Dark: "#F6AD55", Light: "#9C4221"},
		Success:  lipgloss.AdaptiveColor{Dark: "#9AE6B4", Light: "#22543D"},
		Warning:  lipgloss.AdaptiveColor{Dark: "#FAF089", Light: "#744210"},
		Error:    lipgloss.AdaptiveColor{Dark: "#FEB2B2", Light: "#9B2C2C"},
		Select:   lipgloss.AdaptiveColor{Dark: "#9C4221", Light: "#FBD38D"},
		OnAccent: lipgloss.AdaptiveColor{Dark: "#FFFFFF", Light: "#1A1A1A"},
	},
	HighContrast: {
		Accent:   lipgloss.Color("#FFFF00"),
		Text:     lipgloss.Color("#FFFFFF"),
		Muted:    lipgloss.Color("#FFFFFF"),
		Subtle:   lipgloss.Color("#000000"),
		Border:   lipgloss.Color("#FFFFFF"),
		Success:  lipgloss.Color("#00FF00"),
		Warning:  lipgloss.Color("#FFFF00"),
		Error:    lipgloss.Color("#FF4040"),
		Select:   lipgloss.Color("#FFFF00"),
		OnAccent: lipgloss.Color("#000000"),
	},
}

// PaletteFor returns the palette for name, falling back to Modern.
func PaletteFor(name string) Palette {
	if p, ok := palettes[strings.ToLower(name)]; ok {
		return p
	}
	return palettes[Modern]
}

// Current is the palette the styles below were built from.
var Current = palettes[Modern]

// Styles shared by every view. Apply rebuilds them.
var (
	HeaderStyle       lipgloss.Style
	StatusBarStyle    lipgloss.Style
	TitleStyle        lipgloss.Style
	PanelStyle        lipgloss.Style
	ListItemStyle     lipgloss.Style
	SelectedItemStyle lipgloss.Style
	HelpStyle         lipgloss.Style
	BorderStyle       lipgloss.Style
	ErrorStyle        lipgloss.Style
	SuccessStyle      lipgloss.Style
	WarningStyle      lipgloss.Style
	MutedStyle        lipgloss.Style

	// Spreadsheet grid.
	GridHeaderStyle   lipgloss.Style
	CellStyle         lipgloss.Style
	CursorCellStyle   lipgloss.Style
	SelectedCellStyle lipgloss.Style
)

func init() {
	Apply(Modern, false)
}

// Apply rebuilds the shared styles from the named theme. High contrast
// overrides the theme choice.
func Apply(name string, highContrast bool) {
	if highContrast {
		name = HighContrast
	}
	p := PaletteFor(name)
	Current = p

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.OnAccent).
		Background(p.Accent).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Subtle).
		Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent).
		MarginBottom(1)

	PanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border)

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2).
		Foreground(p.Text)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(p.Accent).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Accent)

	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border)

	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Error)
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Warning)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)

	GridHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Muted).
		Align(lipgloss.Center)

	CellStyle = lipgloss.NewStyle().
		Foreground(p.Text)

	CursorCellStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.OnAccent).
		Background(p.Select)

	SelectedCellStyle = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Subtle)
	if highContrast {
		SelectedCellStyle = SelectedCellStyle.Underline(true)
	}
}
