package contacts

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
)

func openTest(t *testing.T) (*Service, *clockwork.FakeClock, string) {
	t.Helper()
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	s, err := Open(dir, WithClock(clock))
	require.NoError(t, err)
	return s, clock, dir
}

func names(cs []model.Contact) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.DisplayName)
	}
	return out
}

func TestAddAssignsIDAndDefaults(t *testing.T) {
	s, clock, _ := openTest(t)

	c, err := s.Add(model.Contact{DisplayName: " 山田太郎 ", Email: "taro@example.jp"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "山田太郎", c.DisplayName)
	assert.Equal(t, model.DefaultGroup, c.Group)
	assert.Equal(t, clock.Now(), c.CreatedAt)

	got, ok := s.ByID(c.ID)
	require.True(t, ok)
	assert.Equal(t, c, got)
}

func TestAddValidation(t *testing.T) {
	s, _, _ := openTest(t)

	_, err := s.Add(model.Contact{Email: "a@example.jp"})
	assert.Equal(t, "お名前を入力してください", apperr.UserMessage(err))

	_, err = s.Add(model.Contact{DisplayName: "名前だけ"})
	assert.Equal(t, "メールアドレスを入力してください", apperr.UserMessage(err))

	_, err = s.Add(model.Contact{DisplayName: "x", Email: "no-at-sign"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, s.All())
}

func TestOrdering(t *testing.T) {
	s, clock, _ := openTest(t)

	b, err := s.Add(model.Contact{DisplayName: "B", Email: "b@example.jp"})
	require.NoError(t, err)
	_, err = s.Add(model.Contact{DisplayName: "A", Email: "a@example.jp"})
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = s.Add(model.Contact{DisplayName: "C", Email: "c@example.jp", IsFavorite: true})
	require.NoError(t, err)

	// A and B were created together: alphabetical.
	assert.Equal(t, []string{"C", "A", "B"}, names(s.All()))

	clock.Advance(time.Hour)
	require.NoError(t, s.MarkAsUsed(b.ID))
	assert.Equal(t, []string{"C", "B", "A"}, names(s.All()))
	assert.Equal(t, []string{"C"}, names(s.Favorites()))
}

func TestGroupSearchAndEmailLookup(t *testing.T) {
	s, _, _ := openTest(t)

	for _, c := range []model.Contact{
		{DisplayName: "田中医院", Email: "info@tanaka-clinic.jp", Group: "病院", Notes: "内科"},
		{DisplayName: "花子", Email: "Hanako@Example.jp", Group: "家族"},
		{DisplayName: "八百屋", Email: "yaoya@example.jp", Group: "お店"},
	} {
		_, err := s.Add(c)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"田中医院"}, names(s.ByGroup("病院")))
	assert.Equal(t, []string{"田中医院"}, names(s.Search("内科")))
	assert.Equal(t, []string{"花子"}, names(s.Search("HANAKO")))
	assert.Len(t, s.Search("  "), 3)
	assert.Empty(t, s.Search("存在しない"))

	c, ok := s.ByEmail("hanako@example.JP")
	require.True(t, ok)
	assert.Equal(t, "花子", c.DisplayName)
	_, ok = s.ByEmail("nobody@example.jp")
	assert.False(t, ok)
}

func TestUpdateAndDelete(t *testing.T) {
	s, _, _ := openTest(t)

	c, err := s.Add(model.Contact{DisplayName: "佐藤", Email: "sato@example.jp"})
	require.NoError(t, err)

	c.DisplayName = "佐藤一郎"
	c.Group = "友人"
	c.IsFavorite = true
	require.NoError(t, s.Update(c))

	got, ok := s.ByID(c.ID)
	require.True(t, ok)
	assert.Equal(t, "佐藤一郎", got.DisplayName)
	assert.Equal(t, "友人", got.Group)
	assert.Equal(t, c.CreatedAt, got.CreatedAt)

	err = s.Update(model.Contact{ID: "missing", DisplayName: "x", Email: "x@example.jp"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, s.Delete(c.ID))
	_, ok = s.ByID(c.ID)
	assert.False(t, ok)
	require.NoError(t, s.Delete("missing"))
}

func TestPersistence(t *testing.T) {
	s, _, dir := openTest(t)

	c, err := s.Add(model.Contact{DisplayName: "鈴木", Email: "suzuki@example.jp", PhoneNumber: "03-1234-5678"})
	require.NoError(t, err)
	require.NoError(t, s.MarkAsUsed(c.ID))

	reopened, err := Open(dir)
	require.NoError(t, err)
	all := reopened.All()
	require.Len(t, all, 1)
	assert.Equal(t, c.ID, all[0].ID)
	assert.Equal(t, "03-1234-5678", all[0].PhoneNumber)
	assert.True(t, c.CreatedAt.Equal(all[0].CreatedAt))
}
