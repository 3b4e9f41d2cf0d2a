// Package contacts is the address book used to pick mail recipients.
package contacts

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/store"
)

// FileName is the address book file inside the data directory.
const FileName = "contacts.json"

// Service keeps the address book in memory and writes the whole file
// after every change.
type Service struct {
	path     string
	clock    clockwork.Clock
	logger   *zap.Logger
	mu       sync.Mutex
	contacts []model.Contact
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for CreatedAt and LastUsed.
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

// Open loads contacts.json from dataDir. A missing file is an empty book.
func Open(dataDir string, opts ...Option) (*Service, error) {
	s := &Service{
		path:   filepath.Join(dataDir, FileName),
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := store.ReadJSON(s.path, &s.contacts); err != nil {
		return nil, err
	}
	return s, nil
}

// All returns every contact: favourites first, then most recently used,
// then by name.
func (s *Service) All() []model.Contact {
	return s.filter(func(model.Contact) bool { return true })
}

// ByGroup returns the contacts of one group.
func (s *Service) ByGroup(group string) []model.Contact {
	return s.filter(func(c model.Contact) bool { return c.Group == group })
}

// Favorites returns the favourite contacts.
func (s *Service) Favorites() []model.Contact {
	return s.filter(func(c model.Contact) bool { return c.IsFavorite })
}

// Search matches name, e-mail and notes case-insensitively. An empty
// query returns everything.
func (s *Service) Search(query string) []model.Contact {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.All()
	}
	return s.filter(func(c model.Contact) bool {
		return strings.Contains(strings.ToLower(c.DisplayName), q) ||
			strings.Contains(strings.ToLower(c.Email), q) ||
			strings.Contains(strings.ToLower(c.Notes), q)
	})
}

// ByID returns the contact with the given ID.
func (s *Service) ByID(id string) (model.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.contacts[i], true
	}
	return model.Contact{}, false
}

// ByEmail looks a contact up by address, ignoring case.
func (s *Service) ByEmail(email string) (model.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.contacts {
		if strings.EqualFold(c.Email, strings.TrimSpace(email)) {
			return c, true
		}
	}
	return model.Contact{}, false
}

// Add stores a new contact, assigning its ID and creation time.
func (s *Service) Add(c model.Contact) (model.Contact, error) {
	c, err := normalize(c)
	if err != nil {
		return model.Contact{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedAt = s.clock.Now()
	c.LastUsed = c.CreatedAt
	s.contacts = append(s.contacts, c)
	if err := s.save(); err != nil {
		s.contacts = s.contacts[:len(s.contacts)-1]
		return model.Contact{}, err
	}
	s.logger.Debug("contact added", zap.String("id", c.ID))
	return c, nil
}

// Update replaces the editable fields of an existing contact.
func (s *Service) Update(c model.Contact) error {
	c, err := normalize(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(c.ID)
	if i < 0 {
		return apperr.NotFound("連絡先が見つかりません", nil)
	}
	prev := s.contacts[i]
	cur := prev
	cur.DisplayName = c.DisplayName
	cur.Email = c.Email
	cur.PhoneNumber = c.PhoneNumber
	cur.Notes = c.Notes
	cur.Group = c.Group
	cur.IsFavorite = c.IsFavorite
	s.contacts[i] = cur
	if err := s.save(); err != nil {
		s.contacts[i] = prev
		return err
	}
	return nil
}

// Delete removes a contact. Deleting an unknown ID is not an error.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil
	}
	prev := s.contacts
	s.contacts = append(append([]model.Contact{}, s.contacts[:i]...), s.contacts[i+1:]...)
	if err := s.save(); err != nil {
		s.contacts = prev
		return err
	}
	return nil
}

// MarkAsUsed records that a contact was just used as a recipient.
func (s *Service) MarkAsUsed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil
	}
	s.contacts[i].LastUsed = s.clock.Now()
	return s.save()
}

func (s *Service) index(id string) int {
	for i, c := range s.contacts {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) filter(keep func(model.Contact) bool) []model.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		if !a.LastUsed.Equal(b.LastUsed) {
			return a.LastUsed.After(b.LastUsed)
		}
		return a.DisplayName < b.DisplayName
	})
	return out
}

func (s *Service) save() error {
	if err := store.WriteJSON(s.path, s.contacts); err != nil {
		return apperr.Internal("連絡先を保存できませんでした", fmt.Errorf("saving contacts: %w", err))
	}
	return nil
}

func normalize(c model.Contact) (model.Contact, error) {
	c.DisplayName = strings.TrimSpace(c.DisplayName)
	c.Email = strings.TrimSpace(c.Email)
	if c.DisplayName == "" {
		return c, apperr.Validation("お名前を入力してください")
	}
	if c.Email == "" {
		return c, apperr.Validation("メールアドレスを入力してください")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return c, apperr.Validation("メールアドレスが正しくありません: " + c.Email)
	}
	if c.Group == "" {
		c.Group = model.DefaultGroup
	}
	return c, nil
}
