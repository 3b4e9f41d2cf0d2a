package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/testutil"
)

type fakeFetcher struct {
	messages []model.MailMessage
	err      error
	flagged  []uint32
}

func (f *fakeFetcher) FetchInbox(_ context.Context, limit int) ([]model.MailMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := append([]model.MailMessage(nil), f.messages...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeFetcher) SetFlags(_ context.Context, uid uint32, flags []imap.Flag, add bool) error {
	if add && len(flags) == 1 && flags[0] == imap.FlagSeen {
		f.flagged = append(f.flagged, uid)
	}
	return nil
}

type fakeSubmitter struct {
	sent []model.MailDraft
	err  error
}

func (f *fakeSubmitter) Send(_ context.Context, d model.MailDraft) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, d)
	return nil
}

var testSettings = Settings{
	Address:    "hanako@example.jp",
	SMTPServer: "smtp.example.jp",
	IMAPServer: "imap.example.jp",
}

func inbox() []model.MailMessage {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return []model.MailMessage{
		{ID: "<1@x>", UID: 1, From: "A", Subject: "古い", Date: base},
		{ID: "<2@x>", UID: 2, From: "B", Subject: "新しい", Date: base.Add(time.Hour)},
	}
}

func TestRefreshCachesNewestFirst(t *testing.T) {
	st := testutil.MailCache(t)
	fetcher := &fakeFetcher{messages: inbox()}
	svc := NewService(testSettings, st, WithFetcher(fetcher))
	ctx := context.Background()

	msgs, err := svc.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, uint32(2), msgs[0].UID)

	cached, err := svc.Cached(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, "新しい", cached[0].Subject)

	n, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMarkReadSurvivesRefresh(t *testing.T) {
	st := testutil.MailCache(t)
	fetcher := &fakeFetcher{messages: inbox()}
	svc := NewService(testSettings, st, WithFetcher(fetcher))
	ctx := context.Background()

	_, err := svc.Refresh(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.MarkRead(ctx, 1))
	assert.Equal(t, []uint32{1}, fetcher.flagged)

	// The server still reports the message unseen.
	msgs, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, msgs[1].IsRead)
	assert.False(t, msgs[0].IsRead)
}

func TestRefreshPrunesVanishedMessages(t *testing.T) {
	st := testutil.MailCache(t)
	fetcher := &fakeFetcher{messages: inbox()}
	svc := NewService(testSettings, st, WithFetcher(fetcher))
	ctx := context.Background()

	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	fetcher.messages = fetcher.messages[1:]
	_, err = svc.Refresh(ctx)
	require.NoError(t, err)

	cached, err := svc.Cached(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, uint32(2), cached[0].UID)
}

func TestRefreshErrors(t *testing.T) {
	authErr := apperr.Auth("bad password", errors.New("LOGIN failed"))
	svc := NewService(testSettings, nil, WithFetcher(&fakeFetcher{err: authErr}))
	_, err := svc.Refresh(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	_, err = NewService(Settings{}, nil).Refresh(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindNotConfigured))
}

func TestSendRecordsSentLog(t *testing.T) {
	st := testutil.MailCache(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
	sub := &fakeSubmitter{}
	svc := NewService(testSettings, st, WithSubmitter(sub), WithClock(clock))
	ctx := context.Background()

	draft := model.MailDraft{To: "taro@example.jp", Subject: "件名", Body: "本文"}
	require.NoError(t, svc.Send(ctx, draft))
	assert.Equal(t, []model.MailDraft{draft}, sub.sent)

	sent, err := svc.Sent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "taro@example.jp", sent[0].To)
	assert.True(t, sent[0].SentAt.Equal(clock.Now()))
}

func TestSendFailures(t *testing.T) {
	st := testutil.MailCache(t)
	sub := &fakeSubmitter{err: apperr.External("down", errors.New("dial"))}
	svc := NewService(testSettings, st, WithSubmitter(sub))
	ctx := context.Background()

	err := svc.Send(ctx, model.MailDraft{})
	assert.Equal(t, "宛先を入力してください", apperr.UserMessage(err))

	err = svc.Send(ctx, model.MailDraft{To: "taro@example.jp"})
	assert.True(t, apperr.Is(err, apperr.KindExternal))

	sent, err := svc.Sent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, sent)
}
