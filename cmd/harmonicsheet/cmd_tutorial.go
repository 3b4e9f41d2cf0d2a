package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/harmonicsheet/internal/tutorial"
)

var tutorialCmd = &cobra.Command{
	Use:   "tutorial",
	Short: "使い方ガイドの進み具合",
}

var tutorialStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "ガイドの進み具合を表示します",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := tutorial.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		step, ok := svc.Current()
		if !ok {
			fmt.Fprintln(out, "ガイドはすべて終わっています")
			return nil
		}
		fmt.Fprintf(out, "ステップ %d / %d: %s\n", svc.Progress().CurrentStep+1, svc.TotalSteps(), step.Title)
		return nil
	},
}

var tutorialResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "ガイドを最初からやり直します",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := tutorial.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		if err := svc.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ガイドを最初に戻しました")
		return nil
	},
}

func init() {
	tutorialCmd.AddCommand(tutorialStatusCmd)
	tutorialCmd.AddCommand(tutorialResetCmd)
}
