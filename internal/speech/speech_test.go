package speech

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/apperr"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

// recorder writes whatever it receives on stdin to out.
func recorder(out string) Engine {
	return Engine{
		Name: "sh",
		Args: func(_ int) []string {
			return []string{"-c", `cat > "$1"`, "sh", out}
		},
	}
}

func sleeper() Engine {
	return Engine{
		Name: "sleep",
		Args: func(_ int) []string { return []string{"30"} },
	}
}

func TestRateMapping(t *testing.T) {
	assert.Equal(t, -5, SAPIRate(0))
	assert.Equal(t, 0, SAPIRate(5))
	assert.Equal(t, 5, SAPIRate(10))
	assert.Equal(t, 5, SAPIRate(42))
	assert.Equal(t, 80, WordsPerMinute(0))
	assert.Equal(t, 140, WordsPerMinute(DefaultRate))
	assert.Equal(t, 80, WordsPerMinute(-3))
}

func TestEnginesPerPlatform(t *testing.T) {
	assert.Equal(t, "powershell", Engines("windows")[0].Name)
	assert.Equal(t, "say", Engines("darwin")[0].Name)
	linux := Engines("linux")
	require.Len(t, linux, 3)
	assert.Equal(t, "espeak-ng", linux[0].Name)
}

func TestEnginesReadTextFromStdin(t *testing.T) {
	stdinFlag := map[string][]string{
		"powershell": {"[Console]::In.ReadToEnd()"},
		"say":        {"-f", "-"},
		"espeak-ng":  {"--stdin"},
		"espeak":     {"--stdin"},
		"spd-say":    {"-e"},
	}
	for _, goos := range []string{"windows", "darwin", "linux"} {
		for _, e := range Engines(goos) {
			args := e.Args(DefaultRate)
			joined := strings.Join(args, " ")
			for _, want := range stdinFlag[e.Name] {
				assert.Contains(t, joined, want, e.Name)
			}
		}
	}
}

func TestSpeakPassesDashLeadingTextIntact(t *testing.T) {
	skipWithoutShell(t)
	out := filepath.Join(t.TempDir(), "spoken.txt")
	s := New(DefaultRate, WithEngines(recorder(out)))

	text := "-v 注意: " + strings.Repeat("長い文章です。", 20000)
	require.NoError(t, s.Speak(context.Background(), text))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, text, string(got))
}

func TestSpeakSendsText(t *testing.T) {
	skipWithoutShell(t)
	out := filepath.Join(t.TempDir(), "spoken.txt")
	s := New(DefaultRate, WithEngines(recorder(out)))

	require.NoError(t, s.Speak(context.Background(), "  おはようございます  "))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "おはようございます", string(got))
	assert.False(t, s.IsSpeaking())
}

func TestSpeakIgnoresEmptyText(t *testing.T) {
	s := New(DefaultRate, WithEngines())
	assert.NoError(t, s.Speak(context.Background(), "   "))
}

func TestSpeakWithoutEngine(t *testing.T) {
	s := New(DefaultRate, WithEngines(Engine{Name: "no-such-speech-engine-xyz"}))
	err := s.Speak(context.Background(), "テスト")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotConfigured))
	assert.False(t, s.Available())
}

func TestStopInterruptsSpeech(t *testing.T) {
	skipWithoutShell(t)
	s := New(DefaultRate, WithEngines(sleeper()))

	errc := make(chan error, 1)
	go func() { errc <- s.Speak(context.Background(), "長い文章") }()

	require.Eventually(t, s.IsSpeaking, 5*time.Second, 10*time.Millisecond)
	s.Stop()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Speak did not return after Stop")
	}
	assert.False(t, s.IsSpeaking())
}

func TestSpeakReplacesCurrentUtterance(t *testing.T) {
	skipWithoutShell(t)
	out := filepath.Join(t.TempDir(), "spoken.txt")
	s := New(DefaultRate, WithEngines(sleeper()))

	first := make(chan error, 1)
	go func() { first <- s.Speak(context.Background(), "一つ目") }()
	require.Eventually(t, s.IsSpeaking, 5*time.Second, 10*time.Millisecond)

	s.mu.Lock()
	s.engine = nil
	s.engines = []Engine{recorder(out)}
	s.mu.Unlock()

	require.NoError(t, s.Speak(context.Background(), "二つ目"))
	select {
	case err := <-first:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("first utterance was not stopped")
	}

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "二つ目", string(got))
}

func TestSetRateClamps(t *testing.T) {
	s := New(20)
	assert.Equal(t, MaxRate, s.Rate())
	s.SetRate(-1)
	assert.Equal(t, MinRate, s.Rate())
}

func TestVoiceTypingHint(t *testing.T) {
	assert.Contains(t, VoiceTypingHint("windows"), "H")
	assert.NotEmpty(t, VoiceTypingHint("linux"))
}
