// Package tutorial walks a first-time user through the app and keeps
// their place between sessions.
package tutorial

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/store"
)

// FileName is the progress file inside the data directory.
const FileName = "tutorial_progress.json"

// FallbackHint is returned for unknown hint topics.
const FallbackHint = "ヘルプが見つかりませんでした。\n設定画面の「ヘルプ」を確認してください。"

//go:embed steps.yaml
var stepsYAML []byte

type content struct {
	Steps []model.TutorialStep `yaml:"steps"`
	Hints map[string]string    `yaml:"hints"`
}

// Service tracks the user's progress through the tutorial.
type Service struct {
	path     string
	steps    []model.TutorialStep
	hints    map[string]string
	mu       sync.Mutex
	progress model.TutorialProgress
}

// Open loads the embedded steps and the saved progress from dataDir.
func Open(dataDir string) (*Service, error) {
	var c content
	if err := yaml.Unmarshal(stepsYAML, &c); err != nil {
		return nil, fmt.Errorf("parsing tutorial steps: %w", err)
	}
	for i := range c.Steps {
		c.Steps[i].Description = strings.TrimRight(c.Steps[i].Description, "\n")
	}
	for k, v := range c.Hints {
		c.Hints[k] = strings.TrimRight(v, "\n")
	}

	s := &Service{
		path:  filepath.Join(dataDir, FileName),
		steps: c.Steps,
		hints: c.Hints,
	}
	if _, err := store.ReadJSON(s.path, &s.progress); err != nil {
		return nil, err
	}
	if s.progress.CurrentStep < 0 || s.progress.CurrentStep >= len(s.steps) {
		s.progress.CurrentStep = 0
	}
	return s, nil
}

// Steps returns all steps.
func (s *Service) Steps() []model.TutorialStep {
	return append([]model.TutorialStep(nil), s.steps...)
}

// TotalSteps is the number of steps.
func (s *Service) TotalSteps() int {
	return len(s.steps)
}

// Progress returns the current position.
func (s *Service) Progress() model.TutorialProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// IsCompleted reports whether the tutorial was finished or skipped.
func (s *Service) IsCompleted() bool {
	return s.Progress().IsCompleted
}

// Current returns the step being shown; ok is false once completed.
func (s *Service) Current() (step model.TutorialStep, ok bool) {
	p := s.Progress()
	if p.IsCompleted {
		return model.TutorialStep{}, false
	}
	return s.steps[p.CurrentStep], true
}

// Next advances one step; at the last step it completes the tutorial.
func (s *Service) Next() error {
	return s.update(func(p *model.TutorialProgress) {
		if p.CurrentStep < len(s.steps)-1 {
			p.CurrentStep++
		} else {
			p.IsCompleted = true
		}
	})
}

// Previous goes back one step.
func (s *Service) Previous() error {
	return s.update(func(p *model.TutorialProgress) {
		if p.CurrentStep > 0 {
			p.CurrentStep--
		}
	})
}

// Skip marks the tutorial completed.
func (s *Service) Skip() error {
	return s.update(func(p *model.TutorialProgress) { p.IsCompleted = true })
}

// Reset starts over from the first step.
func (s *Service) Reset() error {
	return s.update(func(p *model.TutorialProgress) { *p = model.TutorialProgress{} })
}

// Hint returns help text for a topic such as "mail_reply".
func (s *Service) Hint(topic string) string {
	if h, ok := s.hints[topic]; ok {
		return h
	}
	return FallbackHint
}

func (s *Service) update(fn func(*model.TutorialProgress)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.progress
	fn(&next)
	if err := store.WriteJSON(s.path, next); err != nil {
		return apperr.Internal("進み具合を保存できませんでした", fmt.Errorf("saving tutorial progress: %w", err))
	}
	s.progress = next
	return nil
}
