package store

import (
	"context"
	"time"

	"github.com/nhle/harmonicsheet/internal/model"
)

// MessageFilter controls which cached messages are returned.
type MessageFilter struct {
	Account    string
	UnreadOnly bool
	Query      *string
	Limit      int
}

// SentMessage is an entry in the local log of mail sent from the app.
type SentMessage struct {
	ID      string
	Account string
	To      string
	Subject string
	Body    string
	SentAt  time.Time
}

// Store defines the persistence interface for the local mail cache.
// Everything else the app keeps (settings, contacts, preferences) lives
// in flat JSON files handled by the services that own them.
type Store interface {
	// === Inbox cache ===

	UpsertMessages(ctx context.Context, account string, msgs []model.MailMessage) error
	GetMessages(ctx context.Context, filter MessageFilter) ([]model.MailMessage, error)
	GetMessageByUID(ctx context.Context, account string, uid uint32) (*model.MailMessage, error)
	MarkMessageRead(ctx context.Context, account string, uid uint32) error
	CountUnread(ctx context.Context, account string) (int, error)
	PruneMessages(ctx context.Context, account string, keep []uint32) error

	// === Sent log ===

	RecordSent(ctx context.Context, msg SentMessage) error
	GetSent(ctx context.Context, account string, limit int) ([]SentMessage, error)
}
