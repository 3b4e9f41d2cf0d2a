package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/speech"
)

var speakRate int

var speakCmd = &cobra.Command{
	Use:   "speak [文章]",
	Short: "文章を読み上げます (省略時は標準入力)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if text == "" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(b)
		}
		if strings.TrimSpace(text) == "" {
			return errors.New("読み上げる文章がありません")
		}

		rate := speakRate
		if !cmd.Flags().Changed("rate") {
			settings, err := model.LoadSettings(filepath.Join(cfg.DataDir, model.SettingsFileName))
			if err == nil {
				rate = settings.SpeechRate
			}
		}

		speaker := speech.New(rate, speech.WithLogger(logger.Named("speech")))
		return speaker.Speak(cmd.Context(), text)
	},
}

func init() {
	speakCmd.Flags().IntVar(&speakRate, "rate", model.DefaultSpeechRate, "読み上げの速さ (0 から 10)")
}
