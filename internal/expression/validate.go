package expression

// WholeDigits returns the number of digits in front of the separator of a
// numeric element, 0 for an empty element and -1 for anything that is not a
// number.
func WholeDigits(element string) int {
	switch Classify(element) {
	case KindEmpty:
		return 0
	case KindInteger:
		return len(element)
	case KindDecimal:
		v, err := parseNumber(element)
		if err != nil {
			return -1
		}
		return len(element) + int(v.Exponent()) - 1
	}
	return -1
}

// FractionDigits returns the number of digits after the separator, 0 when
// there is none and -1 for anything that is not a number.
func FractionDigits(element string) int {
	whole := WholeDigits(element)
	if whole < 0 {
		return -1
	}
	if whole == len(element) {
		return 0
	}
	return len(element) - whole - 1
}

func (e *Engine) lastElement() string {
	elements := Elements(e.text)
	if len(elements) == 0 {
		return ""
	}
	return elements[len(elements)-1]
}

// CanAddOperator reports whether an operator may follow the current text.
func (e *Engine) CanAddOperator() bool {
	switch ClassifyLast(e.text) {
	case KindInteger, KindDecimal, KindResult:
		return true
	}
	return false
}

// CanAddDigit reports whether a digit may be appended, taking the whole and
// fractional digit limits into account.
func (e *Engine) CanAddDigit() bool {
	switch ClassifyLast(e.text) {
	case KindEmpty, KindOperator, KindResult:
		return true
	case KindInteger:
		return WholeDigits(e.lastElement()) < e.cfg.MaxWholeDigits
	case KindDecimal:
		return FractionDigits(e.lastElement()) < e.cfg.Precision
	}
	return false
}

// CanAddDecimalSeparator is true only while a bare integer is being typed.
func (e *Engine) CanAddDecimalSeparator() bool {
	return ClassifyLast(e.text) == KindInteger
}

// CanCalculate is true for a complete "operand (operator operand)+" chain
// that has not been calculated yet.
func (e *Engine) CanCalculate() bool {
	n := len(Elements(e.text))
	if n == 1 || e.HasResult() {
		return false
	}
	return n%2 == 1
}

// HasResult reports whether the expression ends with a calculated value.
func (e *Engine) HasResult() bool {
	return ClassifyLast(e.text) == KindResult
}

// IsEmpty reports whether nothing has been typed.
func (e *Engine) IsEmpty() bool {
	return e.text == ""
}
