// Package speech reads text aloud through the speech engine of the
// operating system.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/harmonicsheet/internal/apperr"
)

// Rate bounds as shown on the settings screen.
const (
	MinRate     = 0
	MaxRate     = 10
	DefaultRate = 3
)

// Engine is a command-line speech synthesizer. The text is always sent
// on standard input so that it is never parsed as a flag and long
// documents do not hit the argument size limit.
type Engine struct {
	// Name is the executable looked up on PATH.
	Name string
	// Args builds the arguments for a 0-10 rate.
	Args func(rate int) []string
}

// Engines returns the engines tried on goos, in order of preference.
func Engines(goos string) []Engine {
	switch goos {
	case "windows":
		return []Engine{sapi}
	case "darwin":
		return []Engine{say}
	default:
		return []Engine{espeakNG, espeak, spdSay}
	}
}

var (
	sapi = Engine{
		Name: "powershell",
		Args: func(rate int) []string {
			script := "Add-Type -AssemblyName System.Speech; " +
				"$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; " +
				"$v = $s.GetInstalledVoices() | Where-Object { $_.VoiceInfo.Culture.Name -like 'ja*' } | Select-Object -First 1; " +
				"if ($v) { $s.SelectVoice($v.VoiceInfo.Name) }; " +
				"$s.Rate = " + strconv.Itoa(SAPIRate(rate)) + "; " +
				"$s.Speak([Console]::In.ReadToEnd())"
			return []string{"-NoProfile", "-NonInteractive", "-Command", script}
		},
	}
	say = Engine{
		Name: "say",
		Args: func(rate int) []string {
			return []string{"-r", strconv.Itoa(WordsPerMinute(rate)), "-f", "-"}
		},
	}
	espeakNG = Engine{
		Name: "espeak-ng",
		Args: func(rate int) []string {
			return []string{"-v", "ja", "-s", strconv.Itoa(WordsPerMinute(rate)), "--stdin"}
		},
	}
	espeak = Engine{
		Name: "espeak",
		Args: func(rate int) []string {
			return []string{"-v", "ja", "-s", strconv.Itoa(WordsPerMinute(rate)), "--stdin"}
		},
	}
	spdSay = Engine{
		Name: "spd-say",
		Args: func(rate int) []string {
			// -w waits until the utterance is finished; -e reads stdin.
			return []string{"-w", "-e", "-l", "ja", "-r", strconv.Itoa(rate*20 - 100)}
		},
	}
)

// SAPIRate maps a 0-10 rate onto SAPI's -10..10 scale with 5 as normal.
func SAPIRate(rate int) int {
	return clampRate(rate) - 5
}

// WordsPerMinute maps a 0-10 rate onto words per minute for espeak and
// say. The default rate 3 is a little slower than normal speech.
func WordsPerMinute(rate int) int {
	return 80 + clampRate(rate)*20
}

func clampRate(rate int) int {
	return max(MinRate, min(MaxRate, rate))
}

// VoiceTypingHint tells the user how to dictate text on goos.
func VoiceTypingHint(goos string) string {
	switch goos {
	case "windows":
		return "Windowsキー + H を押すと、声で文字を入力できます。"
	case "darwin":
		return "fnキーを2回押すと、声で文字を入力できます。"
	default:
		return "お使いのパソコンの音声入力機能を使ってください。"
	}
}

// ErrNoEngine is returned when no speech engine is installed.
var ErrNoEngine = apperr.NotConfigured("読み上げ機能が見つかりません。espeak-ng などの読み上げソフトをインストールしてください。")

// Speaker plays one utterance at a time.
type Speaker struct {
	engines  []Engine
	lookPath func(string) (string, error)
	logger   *zap.Logger

	mu      sync.Mutex
	rate    int
	engine  *Engine
	path    string
	cancel  context.CancelFunc
	current chan struct{}
}

// Option configures a Speaker.
type Option func(*Speaker)

// WithEngines replaces the platform engines.
func WithEngines(engines ...Engine) Option {
	return func(s *Speaker) { s.engines = engines }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Speaker) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a speaker for the current platform at rate (0-10).
func New(rate int, opts ...Option) *Speaker {
	s := &Speaker{
		engines:  Engines(runtime.GOOS),
		lookPath: exec.LookPath,
		logger:   zap.NewNop(),
		rate:     clampRate(rate),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRate changes the rate used for the next utterance.
func (s *Speaker) SetRate(rate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = clampRate(rate)
}

// Rate returns the current rate.
func (s *Speaker) Rate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// Available reports whether a speech engine is installed.
func (s *Speaker) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _, err := s.resolve()
	return err == nil
}

// resolve finds the first installed engine. Callers hold mu.
func (s *Speaker) resolve() (*Engine, string, error) {
	if s.engine != nil {
		return s.engine, s.path, nil
	}
	for i := range s.engines {
		if p, err := s.lookPath(s.engines[i].Name); err == nil {
			s.engine, s.path = &s.engines[i], p
			return s.engine, s.path, nil
		}
	}
	return nil, "", ErrNoEngine
}

// Speak stops anything being read and reads text, returning when the
// utterance finishes, is stopped, or ctx ends. Empty text is ignored.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	s.Stop()

	s.mu.Lock()
	engine, path, err := s.resolve()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, path, engine.Args(s.rate)...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		cancel()
		return apperr.External("読み上げを開始できませんでした。", fmt.Errorf("starting %s: %w", engine.Name, err))
	}
	done := make(chan struct{})
	s.cancel, s.current = cancel, done
	s.mu.Unlock()

	s.logger.Debug("speaking", zap.String("engine", engine.Name), zap.Int("chars", len([]rune(text))))
	err = cmd.Wait()

	s.mu.Lock()
	stopped := ctx.Err() != nil
	if s.current == done {
		s.cancel, s.current = nil, nil
	}
	s.mu.Unlock()
	cancel()
	close(done)

	if err != nil && !stopped {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return apperr.External("読み上げに失敗しました。", fmt.Errorf("%s: %w", engine.Name, err))
		}
		return fmt.Errorf("waiting for %s: %w", engine.Name, err)
	}
	return nil
}

// Stop interrupts the current utterance and waits for it to end.
func (s *Speaker) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.current
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// IsSpeaking reports whether an utterance is playing.
func (s *Speaker) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}
