package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AIConfig holds settings for the LLM-backed command services.
type AIConfig struct {
	Endpoint   string `mapstructure:"endpoint" yaml:"endpoint"`
	Model      string `mapstructure:"model" yaml:"model"`
	MaxTokens  int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// MailConfig holds technical knobs for inbox retrieval.
type MailConfig struct {
	// PollIntervalSec is how often (in seconds) the inbox is refreshed.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// InboxLimit is the number of newest messages shown in the inbox.
	InboxLimit int `mapstructure:"inbox_limit" yaml:"inbox_limit"`

	// TimeoutSec bounds a single IMAP or SMTP session.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the technical configuration read from config.yaml. User
// facing preferences live in AppSettings instead.
type AppConfig struct {
	DataDir string     `mapstructure:"data_dir" yaml:"data_dir"`
	AI      AIConfig   `mapstructure:"ai" yaml:"ai"`
	Mail    MailConfig `mapstructure:"mail" yaml:"mail"`
	Log     LogConfig  `mapstructure:"log" yaml:"log"`
}

const (
	DefaultAIEndpoint  = "https://api.anthropic.com/v1/messages"
	DefaultAIModel     = "claude-3-haiku-20240307"
	DefaultAIMaxTokens = 1024
)

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/harmonicsheet/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "harmonicsheet", "config.yaml")
}

// DefaultDataDir returns the per-user application data directory that
// holds settings, contacts and the other JSON files.
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "HarmonicSheet")
	}
	return filepath.Join(dir, "HarmonicSheet")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dataDir := DefaultDataDir()
	return &AppConfig{
		DataDir: dataDir,
		AI: AIConfig{
			Endpoint:   DefaultAIEndpoint,
			Model:      DefaultAIModel,
			MaxTokens:  DefaultAIMaxTokens,
			TimeoutSec: 60,
		},
		Mail: MailConfig{
			PollIntervalSec: 300,
			InboxLimit:      20,
			TimeoutSec:      30,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dataDir, "harmonicsheet.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := defaultAppConfig()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("ai.endpoint", def.AI.Endpoint)
	v.SetDefault("ai.model", def.AI.Model)
	v.SetDefault("ai.max_tokens", def.AI.MaxTokens)
	v.SetDefault("ai.timeout_sec", def.AI.TimeoutSec)
	v.SetDefault("mail.poll_interval_sec", def.Mail.PollIntervalSec)
	v.SetDefault("mail.inbox_limit", def.Mail.InboxLimit)
	v.SetDefault("mail.timeout_sec", def.Mail.TimeoutSec)
	v.SetDefault("log.level", def.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return def, nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	if cfg.Log.File == "" || !v.IsSet("log.file") {
		cfg.Log.File = filepath.Join(cfg.DataDir, "harmonicsheet.log")
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("data_dir", cfg.DataDir)
	v.Set("ai", cfg.AI)
	v.Set("mail", cfg.Mail)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
