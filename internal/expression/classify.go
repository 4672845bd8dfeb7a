package expression

import "strings"

// DecimalSeparator is the only separator the engine writes or accepts.
const DecimalSeparator = "."

const resultMarker = "="

// Kind is the structural classification of one element of the expression.
type Kind int

const (
	KindEmpty Kind = iota
	KindInteger
	KindDecimal
	KindOperator
	KindUnknown
	KindResult
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindOperator:
		return "operator"
	case KindResult:
		return "result"
	}
	return "unknown"
}

// Elements splits the expression text into its space separated elements.
func Elements(text string) []string {
	return strings.Fields(text)
}

// Classify reports the kind of a single element, judged only on its
// characters.
func Classify(element string) Kind {
	if element == "" {
		return KindEmpty
	}
	if _, ok := operatorFromGlyph(element); ok {
		return KindOperator
	}

	separators := 0
	for _, c := range element {
		switch {
		case c >= '0' && c <= '9':
		case string(c) == DecimalSeparator:
			separators++
		default:
			return KindUnknown
		}
	}

	switch separators {
	case 0:
		return KindInteger
	case 1:
		return KindDecimal
	}
	return KindUnknown
}

// ClassifyLast reports the kind of the trailing element. Once the text holds
// a result marker the whole expression is a result, whatever the trailing
// value looks like.
func ClassifyLast(text string) Kind {
	elements := Elements(text)
	if len(elements) == 0 {
		return KindEmpty
	}
	if strings.Contains(text, resultMarker) {
		return KindResult
	}
	return Classify(elements[len(elements)-1])
}
