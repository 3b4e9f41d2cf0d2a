package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/nhle/harmonicsheet/internal/accessibility"
	"github.com/nhle/harmonicsheet/internal/ai"
	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/contacts"
	"github.com/nhle/harmonicsheet/internal/credential"
	"github.com/nhle/harmonicsheet/internal/mail"
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/printing"
	"github.com/nhle/harmonicsheet/internal/speech"
	"github.com/nhle/harmonicsheet/internal/store"
	"github.com/nhle/harmonicsheet/internal/tutorial"
)

// MailCacheFile is the SQLite database inside the data directory.
const MailCacheFile = "mail.db"

// Services are the long-lived collaborators shared by the screens.
type Services struct {
	Config       *model.AppConfig
	SettingsPath string
	Settings     *model.AppSettings

	Secrets       *credential.Store
	Cache         *store.SQLiteStore
	AI            *ai.Client
	Interpreter   *ai.Interpreter
	Mail          *mail.Service
	Contacts      *contacts.Service
	Accessibility *accessibility.Service
	Tutorial      *tutorial.Service
	Speaker       *speech.Speaker
	Printer       *printing.Printer
	RecentSheets  *store.RecentFiles
	RecentDocs    *store.RecentFiles

	Clock  clockwork.Clock
	Logger *zap.Logger
}

// Open builds every service from cfg. The API key and mail password are
// read from the keyring when it has them; ANTHROPIC_API_KEY overrides the
// stored key.
func Open(cfg *model.AppConfig, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Contacts, settings and the mail cache are private to the user.
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", cfg.DataDir, err)
	}

	s := &Services{
		Config:       cfg,
		SettingsPath: filepath.Join(cfg.DataDir, model.SettingsFileName),
		Secrets:      credential.New(cfg.DataDir),
		Clock:        clockwork.NewRealClock(),
		Logger:       logger,
		RecentSheets: store.NewRecentFiles(filepath.Join(cfg.DataDir, store.RecentSpreadsheetsFile)),
		RecentDocs:   store.NewRecentFiles(filepath.Join(cfg.DataDir, store.RecentDocumentsFile)),
	}

	settings, err := model.LoadSettings(s.SettingsPath)
	if err != nil {
		return nil, err
	}
	s.loadSecrets(settings)
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		settings.ClaudeAPIKey = key
	}
	s.Settings = settings

	if s.Contacts, err = contacts.Open(cfg.DataDir, contacts.WithLogger(logger)); err != nil {
		return nil, err
	}
	if s.Accessibility, err = accessibility.Open(cfg.DataDir); err != nil {
		return nil, err
	}
	if s.Tutorial, err = tutorial.Open(cfg.DataDir); err != nil {
		return nil, err
	}
	if s.Cache, err = store.NewSQLiteStore(filepath.Join(cfg.DataDir, MailCacheFile)); err != nil {
		return nil, err
	}

	s.AI = ai.New(settings.ClaudeAPIKey,
		ai.WithEndpoint(cfg.AI.Endpoint),
		ai.WithModel(cfg.AI.Model),
		ai.WithMaxTokens(cfg.AI.MaxTokens),
		ai.WithTimeout(time.Duration(cfg.AI.TimeoutSec)*time.Second),
		ai.WithLogger(logger.Named("ai")),
	)
	s.Interpreter = ai.NewInterpreter(s.AI, logger.Named("interpreter"))
	s.Mail = s.newMailService(settings)
	s.Speaker = speech.New(settings.SpeechRate, speech.WithLogger(logger.Named("speech")))
	s.Printer = printing.New(printing.WithClock(s.Clock), printing.WithLogger(logger.Named("print")))

	logger.Info("services ready",
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("ai", s.AI.Configured()),
		zap.Bool("mail", s.Mail.IsConfigured()),
	)
	return s, nil
}

// Close stops speech and closes the mail cache.
func (s *Services) Close() error {
	if s.Speaker != nil {
		s.Speaker.Stop()
	}
	if s.Cache != nil {
		return s.Cache.Close()
	}
	return nil
}

// PollInterval is how often the inbox is refreshed.
func (s *Services) PollInterval() time.Duration {
	return time.Duration(s.Config.Mail.PollIntervalSec) * time.Second
}

func (s *Services) newMailService(settings *model.AppSettings) *mail.Service {
	timeout := time.Duration(s.Config.Mail.TimeoutSec) * time.Second
	return mail.NewService(mail.SettingsFrom(settings, timeout), s.Cache,
		mail.WithInboxLimit(s.Config.Mail.InboxLimit),
		mail.WithClock(s.Clock),
		mail.WithLogger(s.Logger.Named("mail")),
	)
}

// loadSecrets fills the secrets from the keyring. Values already in
// settings.json are kept when the keyring is unavailable or empty.
func (s *Services) loadSecrets(settings *model.AppSettings) {
	for key, field := range map[string]*string{
		credential.KeyClaudeAPI:    &settings.ClaudeAPIKey,
		credential.KeyMailPassword: &settings.EmailPassword,
	} {
		v, err := s.Secrets.Lookup(key)
		if err != nil {
			s.Logger.Warn("keyring unavailable", zap.String("key", key), zap.Error(err))
			continue
		}
		if v != "" {
			*field = v
		}
	}
}

// Save stores the secrets in the keyring and everything else in
// settings.json. When the keyring cannot be written the secrets go into
// settings.json instead.
func (s *Services) Save(settings *model.AppSettings, a model.AccessibilitySettings) error {
	onDisk := *settings
	keyErr := errors.Join(
		s.Secrets.Set(credential.KeyClaudeAPI, settings.ClaudeAPIKey),
		s.Secrets.Set(credential.KeyMailPassword, settings.EmailPassword),
	)
	if keyErr == nil {
		onDisk.ClaudeAPIKey = ""
		onDisk.EmailPassword = ""
	} else {
		s.Logger.Warn("keeping secrets in settings file", zap.Error(keyErr))
	}

	if err := model.SaveSettings(s.SettingsPath, &onDisk); err != nil {
		return apperr.Internal("設定を保存できませんでした", err)
	}

	a = a.Clamp()
	if err := errors.Join(
		s.Accessibility.SetFontScale(a.FontScale),
		s.Accessibility.SetSpeechRate(a.SpeechRate),
		s.Accessibility.SetHighContrast(a.HighContrastMode),
	); err != nil {
		return err
	}

	s.Settings = settings
	return nil
}

// TestConnection logs in to the IMAP server with settings and logs out.
func (s *Services) TestConnection(ctx context.Context, settings *model.AppSettings) error {
	ms := mail.SettingsFrom(settings, time.Duration(s.Config.Mail.TimeoutSec)*time.Second)
	if !ms.CanReceive() {
		return apperr.Validation("受信サーバー (IMAP) を入力してください")
	}
	client, err := mail.NewIMAPClient(ms).Connect(ctx)
	if err != nil {
		return err
	}
	return client.Logout().Wait()
}

// Reconfigure applies saved settings to the running services and returns
// the new mail service.
func (s *Services) Reconfigure(settings *model.AppSettings) *mail.Service {
	s.Settings = settings
	s.AI.SetAPIKey(settings.ClaudeAPIKey)
	s.Speaker.SetRate(settings.SpeechRate)
	s.Mail = s.newMailService(settings)
	return s.Mail
}
