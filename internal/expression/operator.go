package expression

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Operator is one of the four binary operations the engine understands.
type Operator int

const (
	Add Operator = iota
	Subtract
	Multiply
	Divide
)

var operatorGlyphs = [...]string{
	Add:      "+",
	Subtract: "-",
	Multiply: "x",
	Divide:   "÷",
}

var operatorNames = [...]string{
	Add:      "add",
	Subtract: "subtract",
	Multiply: "multiply",
	Divide:   "divide",
}

// Operators lists the operators in declaration order.
func Operators() []Operator {
	return []Operator{Add, Subtract, Multiply, Divide}
}

// Glyph is the symbol written into the expression text.
func (op Operator) Glyph() string {
	if op < Add || op > Divide {
		return "?"
	}
	return operatorGlyphs[op]
}

func (op Operator) String() string {
	if op < Add || op > Divide {
		return "unknown"
	}
	return operatorNames[op]
}

// HighPrecedence reports whether op binds tighter than addition.
func (op Operator) HighPrecedence() bool {
	return op == Multiply || op == Divide
}

// operatorFromGlyph only accepts the exact glyphs used in expression text.
func operatorFromGlyph(s string) (Operator, bool) {
	for i, g := range operatorGlyphs {
		if s == g {
			return Operator(i), true
		}
	}
	return 0, false
}

// ParseOperator accepts a glyph, an operator name, or one of the usual
// keyboard aliases ("*", "/", "X").
func ParseOperator(s string) (Operator, bool) {
	if op, ok := operatorFromGlyph(s); ok {
		return op, true
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "plus":
		return Add, true
	case "subtract", "minus":
		return Subtract, true
	case "multiply", "times", "*", "x":
		return Multiply, true
	case "divide", "/":
		return Divide, true
	}
	return 0, false
}

// apply runs the operation and rounds the outcome through r.
func (op Operator) apply(a, b decimal.Decimal, r rounder) (decimal.Decimal, error) {
	switch op {
	case Add:
		return r.round(a.Add(b))
	case Subtract:
		return r.round(a.Sub(b))
	case Multiply:
		return r.round(a.Mul(b))
	case Divide:
		return r.quotient(a, b)
	}
	return decimal.Zero, OperatorMissing
}
