// Package testutil holds mail cache fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/store"
)

// MailCache opens an empty in-memory mail cache that is closed when the
// test ends.
func MailCache(t testing.TB) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "opening mail cache")
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing mail cache: %v", err)
		}
	})
	return s
}

// SeedInbox stores msgs as the cached inbox of account.
func SeedInbox(t testing.TB, s store.Store, account string, msgs ...model.MailMessage) {
	t.Helper()
	require.NoError(t, s.UpsertMessages(context.Background(), account, msgs), "seeding inbox")
}

// Message builds an unread cached message with the given UID and subject,
// received uid hours after a fixed base time.
func Message(uid uint32, subject string) model.MailMessage {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return model.MailMessage{
		UID:         uid,
		From:        "差出人",
		FromAddress: "sender@example.jp",
		Subject:     subject,
		Date:        base.Add(time.Duration(uid) * time.Hour),
	}
}
