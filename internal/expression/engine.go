// Package expression implements an incremental arithmetic expression engine.
//
// An Engine accumulates keystrokes into a space separated expression such as
// "2.1 x 18.8", refuses input that would break the shape
// "operand (operator operand)*", and reduces the expression to a single
// rounded value on request, giving multiplication and division precedence
// over addition and subtraction.
//
// An Engine is not safe for concurrent use. Callers serialize access.
package expression

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Engine edits one expression and notifies its Listener of every change and
// rejected input. It is not safe for concurrent use.
type Engine struct {
	cfg      Config
	rounder  rounder
	listener Listener
	text     string
}

// New returns an empty engine. l may be nil.
func New(cfg Config, l Listener) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = nopListener{}
	}
	return &Engine{
		cfg:      cfg,
		rounder:  newRounder(cfg),
		listener: l,
	}, nil
}

// Config returns the settings the engine was created with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Expression returns the current text, e.g. "2.1 x 18.8 = 39.48".
func (e *Engine) Expression() string {
	return e.text
}

// Result returns the calculated value once the expression holds one.
func (e *Engine) Result() (decimal.Decimal, bool) {
	if !e.HasResult() {
		return decimal.Zero, false
	}
	v, err := parseNumber(e.lastElement())
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

func (e *Engine) setText(text string) {
	e.text = text
	e.listener.ExpressionChanged(text)
}

func (e *Engine) fail(kind ErrorKind) bool {
	e.listener.ErrorRaised(kind)
	return false
}

// AddDigit appends one digit 0-9. A digit typed after a result starts a new
// expression. It reports whether the digit was appended.
func (e *Engine) AddDigit(digit string) bool {
	if len(digit) != 1 || digit[0] < '0' || digit[0] > '9' {
		return e.fail(NotADigit)
	}

	if e.HasResult() {
		e.EraseExpression()
	}

	if !e.CanAddDigit() {
		return e.fail(AddDigitImpossible)
	}

	e.setText(e.text + digit)
	return true
}

// AddDecimalSeparator turns the integer being typed into a decimal.
func (e *Engine) AddDecimalSeparator() bool {
	if !e.CanAddDecimalSeparator() {
		return e.fail(AddDecimalSeparatorNotPossible)
	}

	e.setText(e.text + DecimalSeparator)
	return true
}

// AddOperator appends op surrounded by single spaces. After a result the
// result value becomes the first operand of the new expression.
func (e *Engine) AddOperator(op Operator) bool {
	if !e.CanAddOperator() {
		return e.fail(OperatorNotAfterNumber)
	}

	text := e.text
	if e.HasResult() {
		text = e.lastElement()
	}

	e.setText(text + " " + op.Glyph() + " ")
	return true
}

// EraseExpression clears the expression.
func (e *Engine) EraseExpression() {
	e.setText("")
}

// State is a snapshot of the text and of every query predicate.
type State struct {
	Expression             string
	IsEmpty                bool
	HasResult              bool
	CanAddDigit            bool
	CanAddOperator         bool
	CanAddDecimalSeparator bool
	CanCalculate           bool
}

// State returns the current text and predicates in one snapshot.
func (e *Engine) State() State {
	return State{
		Expression:             e.text,
		IsEmpty:                e.IsEmpty(),
		HasResult:              e.HasResult(),
		CanAddDigit:            e.CanAddDigit(),
		CanAddOperator:         e.CanAddOperator(),
		CanAddDecimalSeparator: e.CanAddDecimalSeparator(),
		CanCalculate:           e.CanCalculate(),
	}
}

// ResultText returns the text after the result marker, or "".
func (s State) ResultText() string {
	if !s.HasResult {
		return ""
	}
	_, after, found := strings.Cut(s.Expression, resultMarker)
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}
