package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestLayoutContentHeight(t *testing.T) {
	assert.Equal(t, 27, NewLayout(80, 30).ContentHeight())
	assert.Equal(t, 1, NewLayout(80, 2).ContentHeight())
}

func TestRenderHints(t *testing.T) {
	got := RenderHints([]Hint{{Key: "F1", Label: "ヘルプ"}, {Key: "Esc", Label: "もどる"}})
	assert.Equal(t, "[F1] ヘルプ  [Esc] もどる", got)
	assert.Empty(t, RenderHints(nil))
}

func TestFrameKeepsFooterAtBottom(t *testing.T) {
	l := NewLayout(40, 10)
	out := l.Frame(l.Header("表計算", "未読なし"), "one line", l.Footer("保存しました", []Hint{{Key: "F1", Label: "ヘルプ"}}))

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 10)
	assert.Contains(t, lines[0], "HarmonicSheet ▸ 表計算")
	assert.Contains(t, lines[8], "保存しました")
	assert.Contains(t, lines[9], "[F1] ヘルプ")
	assert.Equal(t, 40, lipgloss.Width(lines[0]))
}
