package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/model"
)

func TestParseSetValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.CellChange
		msg   string
	}{
		{"plain", "A2に10000入れて", model.CellChange{Column: "A", Row: 2, Value: "10000"}, "A2 に 10000 を入れました"},
		{"man yen", "A2に1万円入れて", model.CellChange{Column: "A", Row: 2, Value: "10000"}, "A2 に 10000 を入れました"},
		{"man with remainder", "B3に1万5000円を入れて", model.CellChange{Column: "B", Row: 3, Value: "15000"}, ""},
		{"commas", "C10に1,500円いれて", model.CellChange{Column: "C", Row: 10, Value: "1500"}, ""},
		{"lowercase with no", "bの4に 300 入れてください", model.CellChange{Column: "B", Row: 4, Value: "300"}, ""},
		{"full width", "Ａ２に５００入れて", model.CellChange{Column: "A", Row: 2, Value: "500"}, ""},
		{"decimal", "D1に2.5入れて", model.CellChange{Column: "D", Row: 1, Value: "2.5"}, ""},
		{"row digit is not the value", "A12に7入れて", model.CellChange{Column: "A", Row: 12, Value: "7"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.input)
			require.True(t, res.Success, res.Message)
			require.Len(t, res.Changes, 1)
			assert.Equal(t, tt.want, res.Changes[0])
			if tt.msg != "" {
				assert.Equal(t, tt.msg, res.Message)
			}
		})
	}
}

func TestParseSum(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		formula string
		target  string
		msg     string
	}{
		{"two sources", "A1とA2を足してA3に", "=A1+A2", "A3", "A1 と A2 を足して A3 に入れました"},
		{"three sources", "B1とB2とB3を合計してB4に入れて", "=B1+B2+B3", "B4", "B1 と B2 と B3 を足して B4 に入れました"},
		{"plus keyword", "a1プラスa2をc1に", "=A1+A2", "C1", ""},
		{"full width", "Ａ１とＡ２を足してＡ３に", "=A1+A2", "A3", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.input)
			require.True(t, res.Success, res.Message)
			require.Len(t, res.Changes, 1)
			assert.Equal(t, tt.formula, res.Changes[0].Formula)
			assert.Equal(t, tt.target, res.Changes[0].Address())
			assert.Empty(t, res.Changes[0].Value)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, res.Message)
			}
		})
	}
}

func TestParseFailures(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"こんにちは",
		"A2に入れて",
		"数字を入れて",
		"A1を足して",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			res := Parse(in)
			assert.False(t, res.Success)
			assert.Equal(t, FailureMessage, res.Message)
			assert.Empty(t, res.Changes)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "A2に500", Normalize("　Ａ２に５００ "))
}
