package sheet

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// BudgetItems are the expense rows of the household budget template.
var BudgetItems = []string{"食費", "光熱費", "水道代", "電気代", "ガス代", "通信費", "医療費", "交通費", "その他"}

// BudgetTemplate returns a new workbook laid out as a monthly household
// budget (家計簿): budget, actual and difference columns with totals.
func BudgetTemplate(now time.Time) (*Workbook, error) {
	w, err := New()
	if err != nil {
		return nil, err
	}
	if err := w.fillBudget(now); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Workbook) fillBudget(now time.Time) error {
	title, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 20, Bold: true}})
	if err != nil {
		return fmt.Errorf("creating title style: %w", err)
	}
	month, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 16}})
	if err != nil {
		return fmt.Errorf("creating month style: %w", err)
	}
	header, err := w.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: FontSize, Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C0C0C0"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	bold, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: FontSize, Bold: true}})
	if err != nil {
		return fmt.Errorf("creating total style: %w", err)
	}

	writes := []struct{ addr, value string }{
		{"A1", "家計簿"},
		{"B1", now.Format("2006年01月")},
		{"A3", "項目"}, {"B3", "予算"}, {"C3", "実際"}, {"D3", "差額"},
	}
	for _, wr := range writes {
		if err := w.f.SetCellStr(w.sheet, wr.addr, wr.value); err != nil {
			return fmt.Errorf("writing %s: %w", wr.addr, err)
		}
	}
	if err := w.f.SetCellStyle(w.sheet, "A1", "A1", title); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(w.sheet, "B1", "B1", month); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(w.sheet, "A3", "D3", header); err != nil {
		return err
	}

	row := 4
	for _, item := range BudgetItems {
		if err := w.SetValue(CellName(1, row), item); err != nil {
			return err
		}
		if err := w.SetFormula(CellName(4, row), fmt.Sprintf("B%d-C%d", row, row)); err != nil {
			return err
		}
		row++
	}

	last := row - 1
	total := CellName(1, row)
	if err := w.f.SetCellStr(w.sheet, total, "合計"); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(w.sheet, total, total, bold); err != nil {
		return err
	}
	for _, col := range []string{"B", "C", "D"} {
		if err := w.SetFormula(fmt.Sprintf("%s%d", col, row), fmt.Sprintf("SUM(%s4:%s%d)", col, col, last)); err != nil {
			return err
		}
	}
	w.grow(4, row)
	return nil
}
