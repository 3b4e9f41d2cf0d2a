// Package sync polls the mail inbox in the background and reports the
// results to the Bubble Tea runtime.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
)

// SyncState represents the current state of the inbox sync.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the state of the last inbox sync.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when an inbox refresh completes.
type SyncResultMsg struct {
	Messages []model.MailMessage
	Error    error
	// AuthError is set when the server rejected the stored password.
	AuthError *AuthErrorMsg
	// NewCount is the number of messages not seen in the previous sync.
	NewCount int
}

// AuthErrorMsg is a tea.Msg sent when the mail server rejects the login.
type AuthErrorMsg struct {
	Message string
}

// DefaultInterval is used when no poll interval is configured.
const DefaultInterval = 300 * time.Second

// fetchTimeout is the maximum time allowed for a single refresh.
const fetchTimeout = 60 * time.Second

// Inbox is the part of the mail service the poller drives.
type Inbox interface {
	Cached(ctx context.Context) ([]model.MailMessage, error)
	Refresh(ctx context.Context) ([]model.MailMessage, error)
}

// Poller refreshes the inbox on a fixed interval and on demand.
type Poller struct {
	inbox     Inbox
	interval  time.Duration
	clock     clockwork.Clock
	logger    *zap.Logger
	status    SyncStatus
	known     map[uint32]bool
	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	done      chan struct{}
	mu        gosync.Mutex
	running   bool
	stopped   bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock sets the clock that drives the ticker.
func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a poller for inbox refreshing every interval.
func New(inbox Inbox, interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		inbox:     inbox,
		interval:  interval,
		clock:     clockwork.NewRealClock(),
		logger:    zap.NewNop(),
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the polling goroutine and returns a tea.Cmd that
// delivers the first result. Calling Start twice, or after Stop, is a
// no-op.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	// Messages already cached are not new.
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	cached, err := p.inbox.Cached(ctx)
	cancel()
	if err != nil {
		p.logger.Warn("reading mail cache", zap.Error(err))
	}
	p.mu.Lock()
	if len(cached) > 0 {
		p.known = make(map[uint32]bool, len(cached))
		for _, m := range cached {
			p.known[m.UID] = true
		}
	}
	p.mu.Unlock()

	go p.loop()
	return p.waitForResult()
}

// Stop halts the polling goroutine and waits for it to exit. It is safe
// to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.stopped = true
	close(p.stopCh)
	p.mu.Unlock()

	<-p.done
}

// Refresh asks for an immediate inbox refresh.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A refresh is already pending.
	}
	return nil
}

// Status returns the state of the last sync.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop() {
	defer close(p.done)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetch()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.Chan():
			p.fetch()
		case <-p.triggerCh:
			p.fetch()
		}
	}
}

// fetch performs one refresh and sends a SyncResultMsg.
func (p *Poller) fetch() {
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	msgs, err := p.inbox.Refresh(ctx)
	if err != nil {
		p.setStatus(SyncError, err)
		p.logger.Warn("inbox sync failed", zap.Error(err))

		result := SyncResultMsg{Error: err}
		if apperr.Is(err, apperr.KindAuth) {
			result.AuthError = &AuthErrorMsg{Message: apperr.UserMessage(err)}
		}
		p.sendResult(result)
		return
	}

	p.mu.Lock()
	newCount := 0
	if p.known != nil {
		for _, m := range msgs {
			if !p.known[m.UID] && !m.IsRead {
				newCount++
			}
		}
	}
	p.known = make(map[uint32]bool, len(msgs))
	for _, m := range msgs {
		p.known[m.UID] = true
	}
	p.mu.Unlock()

	p.setStatus(SyncIdle, nil)
	p.logger.Debug("inbox synced", zap.Int("messages", len(msgs)), zap.Int("new", newCount))
	p.sendResult(SyncResultMsg{Messages: msgs, NewCount: newCount})
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle {
		p.status.LastSync = p.clock.Now()
	}
}

// sendResult sends a result without blocking the poller.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.done:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync
// result. Call it after handling a SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
