package tutorial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/model"
)

func TestEmbeddedSteps(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 10, s.TotalSteps())
	for i, st := range s.Steps() {
		assert.NotEmpty(t, st.Title, "step %d", i)
		assert.NotEmpty(t, st.Description, "step %d", i)
		assert.NotEmpty(t, st.Target, "step %d", i)
	}

	first, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "HarmonicSheetへようこそ！", first.Title)
	assert.Contains(t, s.Steps()[3].Description, "「A2に1万円入れて」")
}

func TestNavigation(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Previous())
	assert.Equal(t, 0, s.Progress().CurrentStep)

	for i := 0; i < 9; i++ {
		require.NoError(t, s.Next())
	}
	assert.Equal(t, 9, s.Progress().CurrentStep)
	assert.False(t, s.IsCompleted())

	require.NoError(t, s.Next())
	assert.True(t, s.IsCompleted())
	assert.Equal(t, 9, s.Progress().CurrentStep)
	_, ok := s.Current()
	assert.False(t, ok)

	require.NoError(t, s.Reset())
	assert.Equal(t, model.TutorialProgress{}, s.Progress())

	require.NoError(t, s.Skip())
	assert.True(t, s.IsCompleted())
}

func TestProgressPersists(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Next())
	require.NoError(t, s.Next())

	reopened, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, model.TutorialProgress{CurrentStep: 2}, reopened.Progress())
}

func TestHints(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	for _, topic := range []string{
		"spreadsheet_input", "spreadsheet_formula", "mail_compose",
		"mail_reply", "voice_input", "print", "save",
	} {
		assert.NotEqual(t, FallbackHint, s.Hint(topic), topic)
	}
	assert.Contains(t, s.Hint("mail_reply"), "宛先と件名は自動で入ります。")
	assert.Equal(t, FallbackHint, s.Hint("unknown"))
}
