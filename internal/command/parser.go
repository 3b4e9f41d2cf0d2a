// Package command turns short Japanese instructions such as
// "A2に1万円入れて" into spreadsheet edits without calling the LLM.
package command

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/nhle/harmonicsheet/internal/model"
)

// FailureMessage is returned for text the parser cannot interpret.
const FailureMessage = "よくわかりませんでした。「A2に1000入れて」のように言ってください。"

// Result is the outcome of interpreting one instruction.
type Result struct {
	Success bool
	Message string
	Changes []model.CellChange
}

var (
	// A column of up to three letters, an optional の between column and
	// row, and the row number: A2, a 2, Aの2, AB12.
	cellPattern = regexp.MustCompile(`([A-Za-z]{1,3})\s*[のノ]?\s*(\d+)`)

	// A number with optional thousands separators and decimals, optionally
	// followed by 万 and a remainder (1万5000), and an optional 円.
	valuePattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)(?:\s*(万)\s*(\d[\d,]*)?)?\s*円?`)
)

var (
	setKeywords = []string{"入れ", "いれ", "入力"}
	sumKeywords = []string{"足", "たして", "合計", "プラス"}
)

// Normalize folds full-width letters and digits to ASCII and trims
// surrounding space, so "Ａ２に５００" reads as "A2に500".
func Normalize(text string) string {
	return strings.TrimSpace(width.Fold.String(text))
}

// Parse interprets text as a spreadsheet instruction.
func Parse(text string) Result {
	text = Normalize(text)
	if text == "" {
		return failure()
	}

	switch {
	case containsAny(text, sumKeywords):
		return parseSum(text)
	case containsAny(text, setKeywords):
		return parseSetValue(text)
	default:
		return failure()
	}
}

// parseSetValue handles "A2に10000入れて". The value is only searched
// after the cell address so the row number is never taken as the value.
func parseSetValue(text string) Result {
	loc := cellPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return failure()
	}
	col := strings.ToUpper(text[loc[2]:loc[3]])
	row, err := strconv.Atoi(text[loc[4]:loc[5]])
	if err != nil || row < 1 {
		return failure()
	}

	value, ok := parseValue(text[loc[1]:])
	if !ok {
		return failure()
	}

	change := model.CellChange{Column: col, Row: row, Value: value}
	return Result{
		Success: true,
		Message: change.Address() + " に " + value + " を入れました",
		Changes: []model.CellChange{change},
	}
}

// parseSum handles "A1とA2を足してA3に": every address but the last is
// a source and the last one receives the formula.
func parseSum(text string) Result {
	matches := cellPattern.FindAllStringSubmatch(text, -1)
	if len(matches) < 2 {
		return failure()
	}

	addrs := make([]string, 0, len(matches))
	for _, m := range matches {
		row, err := strconv.Atoi(m[2])
		if err != nil || row < 1 {
			return failure()
		}
		addrs = append(addrs, strings.ToUpper(m[1])+strconv.Itoa(row))
	}

	target := matches[len(matches)-1]
	row, _ := strconv.Atoi(target[2])
	sources := addrs[:len(addrs)-1]

	change := model.CellChange{
		Column:  strings.ToUpper(target[1]),
		Row:     row,
		Formula: "=" + strings.Join(sources, "+"),
	}
	return Result{
		Success: true,
		Message: strings.Join(sources, " と ") + " を足して " + change.Address() + " に入れました",
		Changes: []model.CellChange{change},
	}
}

// parseValue finds the first number in s and applies the 万 multiplier.
func parseValue(s string) (string, bool) {
	m := valuePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}

	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return "", false
	}
	if m[2] == "万" {
		n *= 10000
		if m[3] != "" {
			rest, err := strconv.ParseFloat(strings.ReplaceAll(m[3], ",", ""), 64)
			if err != nil {
				return "", false
			}
			n += rest
		}
	}
	return strconv.FormatFloat(n, 'f', -1, 64), true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func failure() Result {
	return Result{Message: FailureMessage}
}
