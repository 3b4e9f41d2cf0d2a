package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxHistory is the number of calculator history entries kept.
const MaxHistory = 20

// CalcError is displayed after a division by zero.
const CalcError = "エラー"

// Calculator is the on-screen keypad calculator.
type Calculator struct {
	current   string
	operator  string
	stored    float64
	newNumber bool
	history   []string
}

// NewCalculator returns a cleared calculator.
func NewCalculator() *Calculator {
	c := &Calculator{}
	c.Clear()
	return c
}

// Digit appends a digit, or starts a new number after an operator.
func (c *Calculator) Digit(d rune) {
	if d < '0' || d > '9' {
		return
	}
	if c.newNumber || c.current == CalcError || c.current == "0" {
		c.current = string(d)
		c.newNumber = false
		return
	}
	c.current += string(d)
}

// Decimal adds a decimal point once per number.
func (c *Calculator) Decimal() {
	if c.newNumber || c.current == CalcError {
		c.current = "0."
		c.newNumber = false
		return
	}
	if !strings.Contains(c.current, ".") {
		c.current += "."
	}
}

// Operator finishes any pending operation and stores op for the next one.
func (c *Calculator) Operator(op string) {
	switch op {
	case "+", "-", "*", "/":
	default:
		return
	}
	if c.operator != "" && !c.newNumber {
		c.perform()
	} else {
		c.stored = c.value()
	}
	c.operator = op
	c.newNumber = true
}

// Equals performs the pending operation.
func (c *Calculator) Equals() {
	if c.operator == "" {
		return
	}
	c.perform()
	c.operator = ""
}

// Clear resets everything except the history.
func (c *Calculator) Clear() {
	c.current = "0"
	c.operator = ""
	c.stored = 0
	c.newNumber = true
}

// Backspace removes the last typed character.
func (c *Calculator) Backspace() {
	if c.newNumber || c.current == CalcError {
		return
	}
	c.current = c.current[:len(c.current)-1]
	if c.current == "" || c.current == "-" {
		c.current = "0"
	}
}

// Percent turns the current number into a percentage. After an
// operator it is taken as a percentage of the stored value (100 + 10%).
func (c *Calculator) Percent() {
	v := c.value()
	if c.operator != "" {
		v = c.stored * v / 100
	} else {
		v /= 100
	}
	c.current = formatNumber(v)
	c.newNumber = false
}

func (c *Calculator) value() float64 {
	v, err := strconv.ParseFloat(c.current, 64)
	if err != nil {
		return 0
	}
	return v
}

func (c *Calculator) perform() {
	cur := c.value()
	var result float64
	switch c.operator {
	case "+":
		result = c.stored + cur
	case "-":
		result = c.stored - cur
	case "*":
		result = c.stored * cur
	case "/":
		if cur == 0 {
			result = math.NaN()
		} else {
			result = c.stored / cur
		}
	default:
		result = cur
	}

	entry := fmt.Sprintf("%s %s %s = ", formatNumber(c.stored), symbol(c.operator), formatNumber(cur))
	if math.IsNaN(result) {
		c.record(entry + CalcError)
		c.current = CalcError
		c.stored = 0
	} else {
		c.record(entry + formatNumber(result))
		c.current = formatNumber(result)
		c.stored = result
	}
	c.newNumber = true
}

func (c *Calculator) record(entry string) {
	c.history = append([]string{entry}, c.history...)
	if len(c.history) > MaxHistory {
		c.history = c.history[:MaxHistory]
	}
}

func symbol(op string) string {
	switch op {
	case "*":
		return "×"
	case "/":
		return "÷"
	default:
		return op
	}
}

// Value returns the current number as typed or computed.
func (c *Calculator) Value() string {
	return c.current
}

// Display returns "stored op current" while an operation is being typed,
// else the current number.
func (c *Calculator) Display() string {
	if c.operator != "" && !c.newNumber {
		return fmt.Sprintf("%s %s %s", formatNumber(c.stored), symbol(c.operator), c.current)
	}
	return c.current
}

// History returns the past calculations, newest first.
func (c *Calculator) History() []string {
	out := make([]string, len(c.history))
	copy(out, c.history)
	return out
}

// ClearHistory forgets all past calculations.
func (c *Calculator) ClearHistory() {
	c.history = nil
}

// Recall loads the result of a history entry as the current number.
func (c *Calculator) Recall(index int) bool {
	if index < 0 || index >= len(c.history) {
		return false
	}
	_, res, ok := strings.Cut(c.history[index], "=")
	if !ok {
		return false
	}
	res = strings.TrimSpace(res)
	v, err := strconv.ParseFloat(res, 64)
	if err != nil {
		return false
	}
	c.current = res
	c.stored = v
	c.operator = ""
	c.newNumber = true
	return true
}
