package credential

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "harmonicsheet"

// Keys under which secrets are stored.
const (
	KeyClaudeAPI    = "claude-api-key"
	KeyMailPassword = "mail-password"
)

// ErrNotFound is returned by Get when no secret is stored under the key.
var ErrNotFound = keyring.ErrKeyNotFound

// Store reads and writes secrets in the OS keyring. Dir is used by the
// encrypted-file fallback backend on systems without a keyring daemon.
type Store struct {
	Dir string

	open func() (keyring.Keyring, error)
}

// New returns a keyring-backed Store whose file fallback lives in dataDir.
func New(dataDir string) *Store {
	s := &Store{Dir: filepath.Join(dataDir, "credentials")}
	s.open = s.openKeyring
	return s
}

// NewWithKeyring returns a Store over an existing keyring, for tests.
func NewWithKeyring(ring keyring.Keyring) *Store {
	return &Store{open: func() (keyring.Keyring, error) { return ring, nil }}
}

// openKeyring returns a configured keyring instance.
func (s *Store) openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  s.Dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("harmonicsheet-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	ring, err := s.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Lookup is Get that treats a missing key as an empty value.
func (s *Store) Lookup(key string) (string, error) {
	v, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Set stores a credential value by key. An empty value deletes the key.
func (s *Store) Set(key string, value string) error {
	if value == "" {
		err := s.Delete(key)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "HarmonicSheet " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key.
func (s *Store) Delete(key string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
