package spreadsheet

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/sheet"
)

// Operation keys offered in the calculation menu.
const (
	OpSum        = "sum"
	OpAverage    = "average"
	OpAdd        = "add"
	OpSub        = "sub"
	OpMul        = "mul"
	OpDiv        = "div"
	OpTax10      = "tax10"
	OpTax8       = "tax8"
	OpDiscount   = "discount"
	OpCumulative = "cumulative"
)

func (m *Model) startOperations() tea.Cmd {
	m.fb.op = OpSum
	m.fb.percent = ""
	m.opsForm = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("計算の種類").
				Description(m.Selection().String()+" を選んでいます").
				Options(
					huh.NewOption("合計", OpSum),
					huh.NewOption("平均", OpAverage),
					huh.NewOption("足し算", OpAdd),
					huh.NewOption("引き算", OpSub),
					huh.NewOption("掛け算", OpMul),
					huh.NewOption("割り算", OpDiv),
					huh.NewOption("消費税 10%", OpTax10),
					huh.NewOption("消費税 8%（軽減税率）", OpTax8),
					huh.NewOption("割引", OpDiscount),
					huh.NewOption("累計", OpCumulative),
				).
				Value(&m.fb.op),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("何%引きですか？").
				Placeholder("30").
				Value(&m.fb.percent).
				Validate(validatePercent),
		).WithHideFunc(func() bool { return m.fb.op != OpDiscount }),
	).WithWidth(max(40, min(60, m.width-4))).WithShowHelp(false)
	m.mode = ModeOperations
	return m.opsForm.Init()
}

func (m Model) updateOperations(msg tea.Msg) (Model, tea.Cmd) {
	if m.opsForm == nil {
		m.mode = ModeGrid
		return m, nil
	}

	mdl, cmd := m.opsForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.opsForm = f
	}

	switch m.opsForm.State {
	case huh.StateCompleted:
		m.mode = ModeGrid
		res, err := m.runOperation(m.fb.op, m.fb.percent)
		if err != nil {
			m.setMessage(apperr.UserMessage(err), true)
			return m, status("", err)
		}
		if col, row, perr := sheet.ParseCell(res.Target); perr == nil {
			m.selecting = false
			m.cursorCol, m.cursorRow = col, row
			m.scrollToCursor()
		}
		m.setMessage(res.Message, false)
		return m, status(res.Message, nil)
	case huh.StateAborted:
		m.mode = ModeGrid
		return m, nil
	}
	return m, cmd
}

func (m Model) runOperation(op, percent string) (sheet.OpResult, error) {
	if m.wb == nil {
		return sheet.OpResult{}, apperr.Validation("表が開かれていません。")
	}
	r := m.Selection()
	switch op {
	case OpSum:
		return m.wb.Sum(r)
	case OpAverage:
		return m.wb.Average(r)
	case OpAdd:
		return m.wb.Arithmetic(r, sheet.OpAdd)
	case OpSub:
		return m.wb.Arithmetic(r, sheet.OpSub)
	case OpMul:
		return m.wb.Arithmetic(r, sheet.OpMul)
	case OpDiv:
		return m.wb.Arithmetic(r, sheet.OpDiv)
	case OpTax10:
		return m.wb.Tax(r, sheet.Tax10)
	case OpTax8:
		return m.wb.Tax(r, sheet.Tax8)
	case OpDiscount:
		p, err := parsePercent(percent)
		if err != nil {
			return sheet.OpResult{}, err
		}
		return m.wb.Discount(r, p)
	case OpCumulative:
		return m.wb.Cumulative(r)
	}
	return sheet.OpResult{}, apperr.Validation("その計算には対応していません。")
}

func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperr.Validation("0から100の間の数字を入れてください。")
	}
	return p, nil
}

func validatePercent(s string) error {
	p, err := parsePercent(s)
	if err != nil {
		return err
	}
	if p <= 0 || p >= 100 {
		return apperr.Validation("0から100の間の数字を入れてください。")
	}
	return nil
}
