package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/model"
)

func TestMigrationsStampVersionAndSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mail.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)

	v, err := s.schemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].version, v)

	msg := model.MailMessage{UID: 7, Subject: "再起動", Date: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	require.NoError(t, s.UpsertMessages(ctx, "a@example.jp", []model.MailMessage{msg}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetMessageByUID(ctx, "a@example.jp", 7)
	require.NoError(t, err)
	assert.Equal(t, "再起動", got.Subject)
}
