package expression

// ErrorKind identifies why an engine operation was rejected. It carries no
// payload and doubles as an error value so evaluators can return it directly.
type ErrorKind int

const (
	NotADigit ErrorKind = iota + 1
	AddDigitImpossible
	AddDecimalSeparatorNotPossible
	OperatorNotAfterNumber
	OperatorMissing
	OneOfOperandIsNotNumber
	ExpressionCanNotBeCalculated
	DivisionByZero
	Overflow
)

var errorKindNames = map[ErrorKind]string{
	NotADigit:                      "not_a_digit",
	AddDigitImpossible:             "add_digit_impossible",
	AddDecimalSeparatorNotPossible: "add_decimal_separator_not_possible",
	OperatorNotAfterNumber:         "operator_not_after_number",
	OperatorMissing:                "operator_missing",
	OneOfOperandIsNotNumber:        "one_of_operand_is_not_number",
	ExpressionCanNotBeCalculated:   "expression_can_not_be_calculated",
	DivisionByZero:                 "division_by_zero",
	Overflow:                       "overflow",
}

// ErrorKinds lists every kind in declaration order.
func ErrorKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, len(errorKindNames))
	for k := NotADigit; k <= Overflow; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// String returns the stable snake_case code of the kind.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k ErrorKind) Error() string {
	return "expression: " + k.String()
}

// Fatal reports whether the kind wipes the whole expression when raised by
// the evaluator.
func (k ErrorKind) Fatal() bool {
	return k == DivisionByZero || k == Overflow
}
