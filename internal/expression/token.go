package expression

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Token is one typed element of an expression: an Operand, an
// OperatorToken or a ResultMarker.
type Token interface {
	token()
}

// Operand is a parsed number together with the text it was read from.
type Operand struct {
	Value decimal.Decimal
	Text  string
}

// OperatorToken is one of the four arithmetic operators.
type OperatorToken struct {
	Op Operator
}

// ResultMarker is the "=" separating a calculated expression from its value.
type ResultMarker struct{}

func (Operand) token()       {}
func (OperatorToken) token() {}
func (ResultMarker) token()  {}

func operandOf(v decimal.Decimal) Operand {
	return Operand{Value: v, Text: v.String()}
}

// Tokenize parses the expression text once into typed tokens.
func Tokenize(text string) ([]Token, error) {
	elements := Elements(text)
	tokens := make([]Token, 0, len(elements))

	for _, el := range elements {
		if el == resultMarker {
			tokens = append(tokens, ResultMarker{})
			continue
		}
		if op, ok := operatorFromGlyph(el); ok {
			tokens = append(tokens, OperatorToken{Op: op})
			continue
		}
		v, err := parseNumber(el)
		if err != nil {
			return nil, OneOfOperandIsNotNumber
		}
		tokens = append(tokens, Operand{Value: v, Text: el})
	}

	return tokens, nil
}

// parseNumber accepts a dangling separator ("5.") as the integer it ends.
func parseNumber(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSuffix(s, DecimalSeparator))
}
