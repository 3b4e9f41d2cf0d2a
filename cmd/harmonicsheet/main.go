// Command harmonicsheet is a large-print document, spreadsheet and mail
// workspace for the terminal.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/harmonicsheet/internal/app"
	"github.com/nhle/harmonicsheet/internal/model"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *model.AppConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "harmonicsheet",
	Short: "HarmonicSheet - 文書・表計算・メールをひとつに",
	Long: `HarmonicSheet bundles a document editor, a spreadsheet and a mail
client behind large, high-contrast screens. Spreadsheet cells can be
filled by typing plain Japanese such as 「A2に1万円入れて」.

Run without arguments to start the full-screen interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = model.LoadConfig(configPath)
		if err != nil {
			return err
		}

		// The full-screen UI owns stdout, so it logs to a file.
		tui := cmd == cmd.Root()
		logger, err = newLogger(cfg.Log, tui)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

// newLogger builds a production zap logger at the configured level.
func newLogger(lc model.LogConfig, toFile bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if lc.Level != "" {
		if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", lc.Level, err)
		}
	}
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}
	config.Level = level

	if toFile && lc.File != "" {
		if err := os.MkdirAll(filepath.Dir(lc.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		config.OutputPaths = []string{lc.File}
		config.ErrorOutputPaths = []string{lc.File}
	}
	return config.Build()
}

func runInteractive() error {
	services, err := app.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	m := app.New(services)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(app.Model); ok {
		fm.Shutdown()
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// openServices is used by the sub-commands.
func openServices() (*app.Services, error) {
	return app.Open(cfg, logger)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "config.yaml のパス")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(sheetCmd)
	rootCmd.AddCommand(mailCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(tutorialCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
