package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nhle/harmonicsheet/internal/apperr"
)

// OpResult describes what a range operation wrote.
type OpResult struct {
	// Target is the (first) cell that received the result.
	Target  string
	Message string
}

// Operator is an arithmetic operator for Arithmetic.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
)

// Name returns the Japanese name of the operation.
func (o Operator) Name() string {
	switch o {
	case OpAdd:
		return "足し算"
	case OpSub:
		return "引き算"
	case OpMul:
		return "掛け算"
	case OpDiv:
		return "割り算"
	default:
		return string(o)
	}
}

// Consumption tax multipliers.
const (
	Tax10 = 1.10
	Tax8  = 1.08
)

// below returns the address under the top-left column of r.
func below(r Range) string {
	return CellName(r.Left, r.Bottom+1)
}

// Sum writes =SUM(range) under the range.
func (w *Workbook) Sum(r Range) (OpResult, error) {
	target := below(r)
	if err := w.SetFormula(target, "SUM("+r.String()+")"); err != nil {
		return OpResult{}, err
	}
	return OpResult{Target: target, Message: fmt.Sprintf("合計を %s に計算しました。", target)}, nil
}

// Average writes =AVERAGE(range) under the range.
func (w *Workbook) Average(r Range) (OpResult, error) {
	target := below(r)
	if err := w.SetFormula(target, "AVERAGE("+r.String()+")"); err != nil {
		return OpResult{}, err
	}
	return OpResult{Target: target, Message: fmt.Sprintf("平均を %s に計算しました。", target)}, nil
}

// Arithmetic joins every cell of the range with op (=A1+A2+B1...) and
// writes the formula under the range.
func (w *Workbook) Arithmetic(r Range, op Operator) (OpResult, error) {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
	default:
		return OpResult{}, apperr.Validation("計算の種類が正しくありません")
	}
	if r.Size() < 2 {
		return OpResult{}, apperr.Validation("2つ以上のセルを選択してください。")
	}

	target := below(r)
	if err := w.SetFormula(target, strings.Join(r.Cells(), string(op))); err != nil {
		return OpResult{}, err
	}
	return OpResult{
		Target:  target,
		Message: fmt.Sprintf("%sの結果を %s に計算しました。", op.Name(), target),
	}, nil
}

// Tax applies a consumption tax multiplier (Tax10 or Tax8).
func (w *Workbook) Tax(r Range, multiplier float64) (OpResult, error) {
	label := fmt.Sprintf("%d%%の消費税", int(math.Round((multiplier-1)*100)))
	return w.applyMultiplier(r, multiplier, label)
}

// Discount applies a percentage discount; percent must be in (0, 100).
func (w *Workbook) Discount(r Range, percent float64) (OpResult, error) {
	if percent <= 0 || percent >= 100 {
		return OpResult{}, apperr.Validation("0から100の間の数字を入れてください。")
	}
	label := formatNumber(percent) + "%割引"
	return w.applyMultiplier(r, (100-percent)/100, label)
}

// applyMultiplier writes the rounded value under a single cell, or
// =SUM(range)*m under a larger range.
func (w *Workbook) applyMultiplier(r Range, m float64, label string) (OpResult, error) {
	if r.IsSingle() {
		v, ok := w.NumberAt(r.Left, r.Top)
		if !ok {
			return OpResult{}, apperr.Validation("数字が入っているセルを選んでください。")
		}
		result := math.Round(v * m)
		target := below(r)
		if err := w.SetValue(target, formatNumber(result)); err != nil {
			return OpResult{}, err
		}
		return OpResult{
			Target: target,
			Message: fmt.Sprintf("%sを適用しました。%s円 → %s円。結果は %s に入力されました。",
				label, formatNumber(v), formatNumber(result), target),
		}, nil
	}

	target := below(r)
	formula := fmt.Sprintf("SUM(%s)*%s", r.String(), formatNumber(m))
	if err := w.SetFormula(target, formula); err != nil {
		return OpResult{}, err
	}
	return OpResult{Target: target, Message: fmt.Sprintf("%sを適用して %s に計算しました。", label, target)}, nil
}

// Cumulative writes running totals of a single row into the row below,
// or of a single column into the column to the right. Non-numeric cells
// are skipped.
func (w *Workbook) Cumulative(r Range) (OpResult, error) {
	var total float64
	switch {
	case r.Top == r.Bottom:
		for col := r.Left; col <= r.Right; col++ {
			v, ok := w.NumberAt(col, r.Top)
			if !ok {
				continue
			}
			total += v
			if err := w.SetValue(CellName(col, r.Top+1), formatNumber(total)); err != nil {
				return OpResult{}, err
			}
		}
		return OpResult{
			Target:  CellName(r.Left, r.Top+1),
			Message: "累計を計算しました。下の行に累計が表示されています。",
		}, nil

	case r.Left == r.Right:
		for row := r.Top; row <= r.Bottom; row++ {
			v, ok := w.NumberAt(r.Left, row)
			if !ok {
				continue
			}
			total += v
			if err := w.SetValue(CellName(r.Right+1, row), formatNumber(total)); err != nil {
				return OpResult{}, err
			}
		}
		return OpResult{
			Target:  CellName(r.Right+1, r.Top),
			Message: "累計を計算しました。右の列に累計が表示されています。",
		}, nil

	default:
		return OpResult{}, apperr.Validation("一行または一列を選んでください。")
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
