package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/sheet"
)

var sheetCmd = &cobra.Command{
	Use:   "sheet",
	Short: "表計算ファイルを操作します",
}

var sheetApplyCmd = &cobra.Command{
	Use:   "apply <file.xlsx> <指示>",
	Short: "日本語の指示で表を書き換えて保存します",
	Example: `  harmonicsheet sheet apply 家計簿.xlsx "A2に1万円入れて"
  harmonicsheet sheet apply 家計簿.xlsx "A1とA2を足してA3に"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSheetApply,
}

var sheetBudgetCmd = &cobra.Command{
	Use:   "budget <file.xlsx>",
	Short: "家計簿のひな形を作ります",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheetBudget,
}

func init() {
	sheetCmd.AddCommand(sheetApplyCmd)
	sheetCmd.AddCommand(sheetBudgetCmd)
}

func runSheetApply(cmd *cobra.Command, args []string) error {
	path := args[0]
	instruction := strings.Join(args[1:], " ")

	services, err := openServices()
	if err != nil {
		return err
	}
	defer services.Close()

	wb, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer wb.Close()

	timeout := time.Duration(cfg.AI.TimeoutSec) * time.Second
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	logger.Debug("applying instruction", zap.String("file", path), zap.String("text", instruction))
	res := services.Interpreter.Interpret(ctx, instruction, wb.Context())
	if !res.Success {
		return errors.New(res.Message)
	}
	if err := wb.Apply(res.Changes); err != nil {
		return err
	}
	if err := wb.Save(path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Message)
	for _, c := range res.Changes {
		cell, err := wb.CellAt(fmt.Sprintf("%s%d", c.Column, c.Row))
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "  %s = %s\n", cell.Address(), cell.Display)
	}
	return nil
}

func runSheetBudget(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil {
		return apperr.Validation(path + " はすでにあります")
	}

	wb, err := sheet.BudgetTemplate(time.Now())
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "家計簿を作りました: %s\n", path)
	return nil
}

// openOrCreate loads path, or starts an empty workbook when it does not
// exist yet.
func openOrCreate(path string) (*sheet.Workbook, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return sheet.New()
	}
	return sheet.Load(path)
}
