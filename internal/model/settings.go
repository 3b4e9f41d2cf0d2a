package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AppSettings holds the preferences a user edits on the settings screen.
// Secrets are normally kept in the OS keyring; ClaudeAPIKey and
// EmailPassword are only written here when no keyring is available.
type AppSettings struct {
	ClaudeAPIKey  string `mapstructure:"claude_api_key" json:"claude_api_key"`
	EmailAddress  string `mapstructure:"email_address" json:"email_address"`
	EmailPassword string `mapstructure:"email_password" json:"email_password"`
	DisplayName   string `mapstructure:"display_name" json:"display_name"`
	SMTPServer    string `mapstructure:"smtp_server" json:"smtp_server"`
	SMTPPort      int    `mapstructure:"smtp_port" json:"smtp_port"`
	IMAPServer    string `mapstructure:"imap_server" json:"imap_server"`
	IMAPPort      int    `mapstructure:"imap_port" json:"imap_port"`
	SpeechRate    int    `mapstructure:"speech_rate" json:"speech_rate"`
	Theme         string `mapstructure:"theme" json:"theme"`
}

const (
	DefaultSMTPPort   = 587
	DefaultIMAPPort   = 993
	DefaultSpeechRate = 3
	DefaultTheme      = "modern"
)

// SettingsFileName is the name of the settings file inside the data dir.
const SettingsFileName = "settings.json"

// DefaultSettings returns the settings used before the user saves anything.
func DefaultSettings() *AppSettings {
	return &AppSettings{
		SMTPPort:   DefaultSMTPPort,
		IMAPPort:   DefaultIMAPPort,
		SpeechRate: DefaultSpeechRate,
		Theme:      DefaultTheme,
	}
}

// MailConfigured reports whether enough is set to send mail.
func (s *AppSettings) MailConfigured() bool {
	return s.SMTPServer != "" && s.EmailAddress != ""
}

// LoadSettings reads settings.json from path. A missing file yields the
// defaults.
func LoadSettings(path string) (*AppSettings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("smtp_port", DefaultSMTPPort)
	v.SetDefault("imap_port", DefaultIMAPPort)
	v.SetDefault("speech_rate", DefaultSpeechRate)
	v.SetDefault("theme", DefaultTheme)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return DefaultSettings(), nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	s := DefaultSettings()
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if s.SpeechRate < 0 {
		s.SpeechRate = 0
	}
	if s.SpeechRate > 10 {
		s.SpeechRate = 10
	}
	return s, nil
}

const settingsFileMode = 0o600

// SaveSettings writes s to path as JSON, creating parent directories.
// The file may hold the API key and mail password when no keyring is
// available, so it is readable by the owner only.
func SaveSettings(path string, s *AppSettings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating settings directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetConfigPermissions(settingsFileMode)

	v.Set("claude_api_key", s.ClaudeAPIKey)
	v.Set("email_address", s.EmailAddress)
	v.Set("email_password", s.EmailPassword)
	v.Set("display_name", s.DisplayName)
	v.Set("smtp_server", s.SMTPServer)
	v.Set("smtp_port", s.SMTPPort)
	v.Set("imap_server", s.IMAPServer)
	v.Set("imap_port", s.IMAPPort)
	v.Set("speech_rate", s.SpeechRate)
	v.Set("theme", s.Theme)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing settings to %s: %w", path, err)
	}
	// The mode above only applies when the file is created.
	if err := os.Chmod(path, settingsFileMode); err != nil {
		return fmt.Errorf("restricting %s: %w", path, err)
	}
	return nil
}
