// Package keypad maps calculator keys to engine calls. It is shared by the
// HTTP keystroke replay and the terminal front end.
package keypad

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"countonme/internal/expression"
)

var ErrUnknownKey = errors.New("unknown key")

// Action is what a key asks the engine to do.
type Action int

const (
	ActionDigit Action = iota
	ActionDecimalSeparator
	ActionOperator
	ActionCalculate
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionDigit:
		return "digit"
	case ActionDecimalSeparator:
		return "decimal"
	case ActionOperator:
		return "operator"
	case ActionCalculate:
		return "calculate"
	case ActionErase:
		return "erase"
	}
	return "unknown"
}

// Key is one keypad button.
type Key struct {
	Action   Action
	Digit    string
	Operator expression.Operator
}

func Digit(d string) Key                  { return Key{Action: ActionDigit, Digit: d} }
func Operator(op expression.Operator) Key { return Key{Action: ActionOperator, Operator: op} }
func DecimalSeparator() Key               { return Key{Action: ActionDecimalSeparator} }
func Calculate() Key                      { return Key{Action: ActionCalculate} }
func Erase() Key                          { return Key{Action: ActionErase} }

// String returns the label printed on the key.
func (k Key) String() string {
	switch k.Action {
	case ActionDigit:
		return k.Digit
	case ActionDecimalSeparator:
		return expression.DecimalSeparator
	case ActionOperator:
		return k.Operator.Glyph()
	case ActionCalculate:
		return "="
	case ActionErase:
		return "C"
	}
	return "?"
}

// Parse reads one key label. Digits, "." or ",", the operator glyphs and
// their aliases, "=" and "C" are understood.
func Parse(s string) (Key, error) {
	switch s {
	case ".", ",":
		return DecimalSeparator(), nil
	case "=":
		return Calculate(), nil
	case "C", "c", "AC":
		return Erase(), nil
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return Digit(s), nil
	}
	if op, ok := expression.ParseOperator(s); ok {
		return Operator(op), nil
	}
	return Key{}, fmt.Errorf("%w %q", ErrUnknownKey, s)
}

// ParseSequence reads a run of single character keys such as "12+3x4=".
// Whitespace is ignored.
func ParseSequence(s string) ([]Key, error) {
	keys := make([]Key, 0, len(s))
	for i, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		k, err := Parse(string(r))
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Format writes keys back as a sequence ParseSequence understands.
func Format(keys []Key) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k.String())
	}
	return b.String()
}

// Apply presses k on e and reports whether the engine accepted it.
func (k Key) Apply(e *expression.Engine) bool {
	switch k.Action {
	case ActionDigit:
		return e.AddDigit(k.Digit)
	case ActionDecimalSeparator:
		return e.AddDecimalSeparator()
	case ActionOperator:
		return e.AddOperator(k.Operator)
	case ActionCalculate:
		return e.CalculateExpression()
	case ActionErase:
		e.EraseExpression()
		return true
	}
	return false
}

// Enabled reports whether pressing k would currently be accepted, using the
// engine's query predicates.
func (k Key) Enabled(st expression.State) bool {
	switch k.Action {
	case ActionDigit:
		return st.CanAddDigit
	case ActionDecimalSeparator:
		return st.CanAddDecimalSeparator
	case ActionOperator:
		return st.CanAddOperator
	case ActionCalculate:
		return st.CanCalculate
	case ActionErase:
		return true
	}
	return false
}
