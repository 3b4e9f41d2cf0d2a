package sheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/apperr"
)

func fill(t *testing.T, w *Workbook, values map[string]string) {
	t.Helper()
	for addr, v := range values {
		require.NoError(t, w.SetValue(addr, v))
	}
}

func mustRange(t *testing.T, s string) Range {
	t.Helper()
	r, err := ParseRange(s)
	require.NoError(t, err)
	return r
}

func TestSumAndAverage(t *testing.T) {
	w := newWorkbook(t)
	fill(t, w, map[string]string{"A1": "10", "A2": "20", "A3": "30"})

	res, err := w.Sum(mustRange(t, "A1:A3"))
	require.NoError(t, err)
	assert.Equal(t, "A4", res.Target)
	assert.Equal(t, "合計を A4 に計算しました。", res.Message)
	assert.Equal(t, "=SUM(A1:A3)", w.Cell(1, 4).Formula)
	assert.Equal(t, "60", w.Cell(1, 4).Display)

	fill(t, w, map[string]string{"B1": "1", "C1": "2"})
	res, err = w.Average(mustRange(t, "B1:C1"))
	require.NoError(t, err)
	assert.Equal(t, "B2", res.Target)
	assert.Equal(t, "=AVERAGE(B1:C1)", w.Cell(2, 2).Formula)
	assert.Equal(t, "1.5", w.Cell(2, 2).Display)
}

func TestSumSingleCell(t *testing.T) {
	w := newWorkbook(t)
	fill(t, w, map[string]string{"B2": "42"})

	res, err := w.Sum(mustRange(t, "B2"))
	require.NoError(t, err)
	assert.Equal(t, "B3", res.Target)
	assert.Equal(t, "=SUM(B2)", w.Cell(2, 3).Formula)
	assert.Equal(t, "42", w.Cell(2, 3).Display)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		op      Operator
		formula string
		display string
	}{
		{OpAdd, "=A1+B1+A2+B2", "57"},
		{OpSub, "=A1-B1-A2-B2", "39"},
		{OpMul, "=A1*B1*A2*B2", "1152"},
		{OpDiv, "=A1/B1/A2/B2", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.op.Name(), func(t *testing.T) {
			w := newWorkbook(t)
			fill(t, w, map[string]string{"A1": "48", "B1": "2", "A2": "4", "B2": "3"})

			res, err := w.Arithmetic(mustRange(t, "A1:B2"), tt.op)
			require.NoError(t, err)
			assert.Equal(t, "A3", res.Target)
			assert.Contains(t, res.Message, tt.op.Name())
			assert.Equal(t, tt.formula, w.Cell(1, 3).Formula)
			assert.Equal(t, tt.display, w.Cell(1, 3).Display)
		})
	}
}

func TestArithmeticNeedsTwoCells(t *testing.T) {
	w := newWorkbook(t)
	_, err := w.Arithmetic(SingleCell(1, 1), OpAdd)
	require.Error(t, err)
	assert.Equal(t, "2つ以上のセルを選択してください。", apperr.UserMessage(err))
}

func TestTaxSingleCell(t *testing.T) {
	w := newWorkbook(t)
	fill(t, w, map[string]string{"B2": "1234"})

	res, err := w.Tax(SingleCell(2, 2), Tax10)
	require.NoError(t, err)
	assert.Equal(t, "B3", res.Target)
	assert.Equal(t, "10%の消費税を適用しました。1234円 → 1357円。結果は B3 に入力されました。", res.Message)
	assert.Empty(t, w.Cell(2, 3).Formula)
	assert.Equal(t, "1357", w.Cell(2, 3).Display)

	res, err = w.Tax(SingleCell(2, 2), Tax8)
	require.NoError(t, err)
	assert.Equal(t, "1333", w.Cell(2, 3).Display)
	assert.Contains(t, res.Message, "8%の消費税")
}

func TestTaxRange(t *testing.T) {
	w := newWorkbook(t)
	fill(t, w, map[string]string{"A1": "1000", "A2": "2000"})

	res, err := w.Tax(mustRange(t, "A1:A2"), Tax10)
	require.NoError(t, err)
	assert.Equal(t, "A3", res.Target)
	assert.Equal(t, "=SUM(A1:A2)*1.1", w.Cell(1, 3).Formula)
	v, ok := w.NumberAt(1, 3)
	require.True(t, ok)
	assert.InDelta(t, 3300, v, 0.001)
}

func TestTaxRejectsText(t *testing.T) {
	w := newWorkbook(t)
	fill(t, w, map[string]string{"A1": "りんご"})

	_, err := w.Tax(SingleCell(1, 1), Tax10)
	require.Error(t, err)
	assert.Equal(t, "数字が入っているセルを選んでください。", apperr.UserMessage(err))
}

func TestDiscount(t *testing.T) {
	w := newWorkbook(t)
	fill(t, w, map[string]string{"A1": "1000", "B1": "500", "B2": "500"})

	res, err := w.Discount(SingleCell(1, 1), 30)
	require.NoError(t, err)
	assert.Equal(t, "700", w.Cell(1, 2).Display)
	assert.Contains(t, res.Message, "30%割引")

	_, err = w.Discount(mustRange(t, "B1:B2"), 30)
	require.NoError(t, err)
	assert.Equal(t, "=SUM(B1:B2)*0.7", w.Cell(2, 3).Formula)

	for _, p := range []float64{0, 100, -5, 150} {
		_, err := w.Discount(SingleCell(1, 1), p)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "percent %v", p)
	}
}

func TestCumulativeRow(t *testing.T) {
	w := newWorkbook(t)
	fill(t, w, map[string]string{"A1": "1", "B1": "x", "C1": "3", "D1": "4"})

	res, err := w.Cumulative(mustRange(t, "A1:D1"))
	require.NoError(t, err)
	assert.Contains(t, res.Message, "下の行")

	assert.Equal(t, "1", w.Cell(1, 2).Display)
	assert.Equal(t, "", w.Cell(2, 2).Display)
	assert.Equal(t, "4", w.Cell(3, 2).Display)
	assert.Equal(t, "8", w.Cell(4, 2).Display)
	assert.Empty(t, w.Cell(4, 2).Formula)
}

func TestCumulativeColumn(t *testing.T) {
	w := newWorkbook(t)
	fill(t, w, map[string]string{"B1": "100", "B2": "200", "B3": "300"})

	res, err := w.Cumulative(mustRange(t, "B1:B3"))
	require.NoError(t, err)
	assert.Equal(t, "C1", res.Target)
	assert.Contains(t, res.Message, "右の列")
	assert.Equal(t, "100", w.Cell(3, 1).Display)
	assert.Equal(t, "300", w.Cell(3, 2).Display)
	assert.Equal(t, "600", w.Cell(3, 3).Display)
}

func TestCumulativeRejectsBlock(t *testing.T) {
	w := newWorkbook(t)
	_, err := w.Cumulative(mustRange(t, "A1:B2"))
	require.Error(t, err)
	assert.Equal(t, "一行または一列を選んでください。", apperr.UserMessage(err))
}

func TestBudgetTemplate(t *testing.T) {
	w, err := BudgetTemplate(time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, "家計簿", w.Cell(1, 1).Display)
	assert.Equal(t, "2026年04月", w.Cell(2, 1).Display)
	assert.Equal(t, "差額", w.Cell(4, 3).Display)

	for i, item := range BudgetItems {
		assert.Equal(t, item, w.Cell(1, 4+i).Display)
	}
	assert.Equal(t, "=B4-C4", w.Cell(4, 4).Formula)
	assert.Equal(t, "合計", w.Cell(1, 13).Display)
	assert.Equal(t, "=SUM(B4:B12)", w.Cell(2, 13).Formula)
	assert.Equal(t, "=SUM(D4:D12)", w.Cell(4, 13).Formula)

	require.NoError(t, w.SetValue("B4", "30000"))
	require.NoError(t, w.SetValue("C4", "25000"))
	assert.Equal(t, "5000", w.Cell(4, 4).Display)
	assert.Equal(t, "5000", w.Cell(4, 13).Display)

	rows, _ := w.Dimensions()
	assert.Equal(t, 13, rows)
}
