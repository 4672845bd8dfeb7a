package expression

import (
	"errors"

	"github.com/shopspring/decimal"
)

// CalculateExpression reduces the expression and appends " = <value>".
//
// Division by zero and overflow erase the whole expression before the error
// is raised. Any other failure leaves the text as it was.
func (e *Engine) CalculateExpression() bool {
	if !e.CanCalculate() {
		return e.fail(ExpressionCanNotBeCalculated)
	}

	tokens, err := Tokenize(e.text)
	var value decimal.Decimal
	if err == nil {
		value, err = evaluate(tokens, e.rounder, e.cfg.Strategy)
	}

	if err != nil {
		kind := OperatorMissing
		errors.As(err, &kind)
		if kind.Fatal() {
			e.EraseExpression()
		}
		return e.fail(kind)
	}

	e.setText(e.text + " " + resultMarker + " " + value.String())
	return true
}

// Evaluate reduces an "operand (operator operand)*" token sequence with the
// strategy, precision and magnitude limit of cfg.
func Evaluate(tokens []Token, cfg Config) (decimal.Decimal, error) {
	if err := cfg.Validate(); err != nil {
		return decimal.Zero, err
	}
	return evaluate(tokens, newRounder(cfg), cfg.Strategy)
}

func evaluate(tokens []Token, r rounder, s Strategy) (decimal.Decimal, error) {
	if len(tokens)%2 == 0 {
		return decimal.Zero, ExpressionCanNotBeCalculated
	}
	if s == StrategyRecursive {
		return reduceRecursive(tokens, r)
	}
	return reduceIterative(tokens, r)
}

// reduceIterative folds every multiplication and division into its left
// operand in one left to right pass, then folds the remaining additions and
// subtractions left to right. tokens is never modified.
func reduceIterative(tokens []Token, r rounder) (decimal.Decimal, error) {
	if err := checkShape(tokens); err != nil {
		return decimal.Zero, err
	}

	values := make([]decimal.Decimal, 1, len(tokens)/2+1)
	ops := make([]Operator, 0, len(tokens)/2)
	values[0] = tokens[0].(Operand).Value

	for i := 1; i < len(tokens); i += 2 {
		op := tokens[i].(OperatorToken).Op
		v := tokens[i+1].(Operand).Value
		if !op.HighPrecedence() {
			values = append(values, v)
			ops = append(ops, op)
			continue
		}
		top := len(values) - 1
		folded, err := op.apply(values[top], v, r)
		if err != nil {
			return decimal.Zero, err
		}
		values[top] = folded
	}

	acc := values[0]
	for i, op := range ops {
		var err error
		if acc, err = op.apply(acc, values[i+1], r); err != nil {
			return decimal.Zero, err
		}
	}
	return r.round(acc)
}

// checkShape verifies the "operand (operator operand)*" alternation.
func checkShape(tokens []Token) error {
	for i, t := range tokens {
		if i%2 == 0 {
			if _, ok := t.(Operand); !ok {
				return OneOfOperandIsNotNumber
			}
		} else if _, ok := t.(OperatorToken); !ok {
			return OperatorMissing
		}
	}
	return nil
}

// reduceRecursive reads the head of the sequence with one operator of
// lookahead, applies whichever operation binds first and recurses on the
// shortened sequence. It works on a single copy of tokens.
func reduceRecursive(tokens []Token, r rounder) (decimal.Decimal, error) {
	work := make([]Token, len(tokens))
	copy(work, tokens)
	return reduceHead(work, r)
}

func reduceHead(work []Token, r rounder) (decimal.Decimal, error) {
	first, rest, err := nextOperand(work)
	if err != nil {
		return decimal.Zero, err
	}
	if len(rest) == 0 {
		return r.round(first)
	}

	op1, rest, err := nextOperator(rest)
	if err != nil {
		return decimal.Zero, err
	}
	second, rest, err := nextOperand(rest)
	if err != nil {
		return decimal.Zero, err
	}

	if op1.HighPrecedence() || len(rest) == 0 {
		v, err := op1.apply(first, second, r)
		if err != nil {
			return decimal.Zero, err
		}
		return reduceHead(pushFront(work, rest, operandOf(v)), r)
	}

	op2, rest, err := nextOperator(rest)
	if err != nil {
		return decimal.Zero, err
	}

	if op2.HighPrecedence() {
		third, rest, err := nextOperand(rest)
		if err != nil {
			return decimal.Zero, err
		}
		v, err := op2.apply(second, third, r)
		if err != nil {
			return decimal.Zero, err
		}
		return reduceHead(pushFront(work, rest, operandOf(first), OperatorToken{Op: op1}, operandOf(v)), r)
	}

	v, err := op1.apply(first, second, r)
	if err != nil {
		return decimal.Zero, err
	}
	return reduceHead(pushFront(work, rest, operandOf(v), OperatorToken{Op: op2}), r)
}

func nextOperand(tokens []Token) (decimal.Decimal, []Token, error) {
	if len(tokens) == 0 {
		return decimal.Zero, nil, OneOfOperandIsNotNumber
	}
	o, ok := tokens[0].(Operand)
	if !ok {
		return decimal.Zero, nil, OneOfOperandIsNotNumber
	}
	return o.Value, tokens[1:], nil
}

func nextOperator(tokens []Token) (Operator, []Token, error) {
	if len(tokens) == 0 {
		return 0, nil, OperatorMissing
	}
	o, ok := tokens[0].(OperatorToken)
	if !ok {
		return 0, nil, OperatorMissing
	}
	return o.Op, tokens[1:], nil
}

// pushFront writes head into the consumed tail of work just before rest and
// returns the shortened sequence. rest must be a suffix of work and head no
// longer than what was consumed.
func pushFront(work, rest []Token, head ...Token) []Token {
	start := len(work) - len(rest) - len(head)
	copy(work[start:], head)
	return work[start:]
}
