package mail

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/store"
)

// DefaultInboxLimit is how many of the newest messages the inbox shows.
const DefaultInboxLimit = 20

// Fetcher reads the server-side inbox.
type Fetcher interface {
	FetchInbox(ctx context.Context, limit int) ([]model.MailMessage, error)
	SetFlags(ctx context.Context, uid uint32, flags []imap.Flag, add bool) error
}

// Submitter sends a composed draft.
type Submitter interface {
	Send(ctx context.Context, draft model.MailDraft) error
}

// Service is the mail client used by the UI: server access plus the
// local cache and sent log.
type Service struct {
	settings Settings
	fetcher  Fetcher
	sender   Submitter
	store    store.Store
	limit    int
	clock    clockwork.Clock
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithInboxLimit sets the number of messages fetched.
func WithInboxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithFetcher replaces the IMAP client.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithSubmitter replaces the SMTP sender.
func WithSubmitter(sub Submitter) Option {
	return func(s *Service) { s.sender = sub }
}

// WithClock sets the clock used to stamp the sent log.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a mail service. st may be nil, in which case
// nothing is cached.
func NewService(settings Settings, st store.Store, opts ...Option) *Service {
	s := &Service{
		settings: settings,
		fetcher:  NewIMAPClient(settings),
		sender:   NewSender(settings),
		store:    st,
		limit:    DefaultInboxLimit,
		clock:    clockwork.NewRealClock(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the account settings.
func (s *Service) Settings() Settings {
	return s.settings
}

// IsConfigured reports whether the account can send mail.
func (s *Service) IsConfigured() bool {
	return s.settings.IsConfigured()
}

// Cached returns the cached inbox, newest first.
func (s *Service) Cached(ctx context.Context) ([]model.MailMessage, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.GetMessages(ctx, store.MessageFilter{Account: s.settings.Address, Limit: s.limit})
}

// Refresh fetches the inbox from the server, updates the cache and
// returns the newest messages first. Messages read locally stay read
// even if the server has not caught up yet.
func (s *Service) Refresh(ctx context.Context) ([]model.MailMessage, error) {
	if !s.settings.CanReceive() {
		return nil, errNotConfigured
	}

	var fetched, cached []model.MailMessage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fetched, err = s.fetcher.FetchInbox(gctx, s.limit)
		return err
	})
	g.Go(func() error {
		var err error
		cached, err = s.Cached(gctx)
		if err != nil {
			s.logger.Warn("reading mail cache", zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("fetching inbox", zap.String("account", s.settings.Address), zap.Error(err))
		return nil, err
	}

	read := make(map[uint32]bool, len(cached))
	for _, m := range cached {
		if m.IsRead {
			read[m.UID] = true
		}
	}
	uids := make([]uint32, 0, len(fetched))
	for i := range fetched {
		if read[fetched[i].UID] {
			fetched[i].IsRead = true
		}
		uids = append(uids, fetched[i].UID)
	}
	sortNewestFirst(fetched)

	if s.store != nil {
		if err := s.store.UpsertMessages(ctx, s.settings.Address, fetched); err != nil {
			return fetched, fmt.Errorf("caching inbox: %w", err)
		}
		if err := s.store.PruneMessages(ctx, s.settings.Address, uids); err != nil {
			return fetched, fmt.Errorf("pruning mail cache: %w", err)
		}
	}

	s.logger.Debug("inbox refreshed", zap.Int("messages", len(fetched)))
	return fetched, nil
}

// MarkRead marks a message as read locally and sets \Seen on the server.
func (s *Service) MarkRead(ctx context.Context, uid uint32) error {
	if s.store != nil {
		if err := s.store.MarkMessageRead(ctx, s.settings.Address, uid); err != nil {
			return fmt.Errorf("marking uid %d read: %w", uid, err)
		}
	}
	if err := s.fetcher.SetFlags(ctx, uid, []imap.Flag{imap.FlagSeen}, true); err != nil {
		s.logger.Warn("setting \\Seen", zap.Uint32("uid", uid), zap.Error(err))
		return err
	}
	return nil
}

// UnreadCount returns the number of unread cached messages.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	return s.store.CountUnread(ctx, s.settings.Address)
}

// Send submits the draft and records it in the sent log.
func (s *Service) Send(ctx context.Context, draft model.MailDraft) error {
	if _, err := parseRecipients(draft.To); err != nil {
		return err
	}
	if err := s.sender.Send(ctx, draft); err != nil {
		s.logger.Warn("sending mail", zap.String("to", draft.To), zap.Error(err))
		return err
	}
	s.logger.Info("mail sent", zap.String("to", draft.To), zap.Int("attachments", len(draft.Attachments)))

	if s.store == nil {
		return nil
	}
	err := s.store.RecordSent(ctx, store.SentMessage{
		ID:      uuid.NewString(),
		Account: s.settings.Address,
		To:      draft.To,
		Subject: draft.Subject,
		Body:    draft.Body,
		SentAt:  s.clock.Now(),
	})
	if err != nil {
		// The message already went out.
		s.logger.Warn("recording sent mail", zap.Error(err))
	}
	return nil
}

// Sent returns the most recent entries of the sent log.
func (s *Service) Sent(ctx context.Context, limit int) ([]store.SentMessage, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.GetSent(ctx, s.settings.Address, limit)
}
