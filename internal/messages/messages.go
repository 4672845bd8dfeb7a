// Package messages holds the user facing text for engine errors.
package messages

import (
	"golang.org/x/text/language"

	"countonme/internal/expression"
)

const (
	French  = "fr"
	English = "en"
)

// Default is the language used when nothing better is known.
const Default = French

var catalog = map[string]map[expression.ErrorKind]string{
	French: {
		expression.OperatorMissing:                "Opérateur manquant",
		expression.ExpressionCanNotBeCalculated:   "Expression se termine par un opérateur ou elle n'a pas d'opérateur",
		expression.OperatorNotAfterNumber:         "Un opérateur doit être utilisé après un nombre",
		expression.Overflow:                       "Le calcul a dépassé la capacité autorisée",
		expression.NotADigit:                      "Touche tapée n'est pas un chiffre",
		expression.DivisionByZero:                 "Division par 0 impossible",
		expression.AddDigitImpossible:             "Trop de chiffres pour la partie entière ou décimale",
		expression.AddDecimalSeparatorNotPossible: "L'expression est vide, ou contient déjà un décimal ou bien un opérateur ou résultat",
		expression.OneOfOperandIsNotNumber:        "Un des opérandes n'est pas un nombre",
	},
	English: {
		expression.OperatorMissing:                "Operator missing",
		expression.ExpressionCanNotBeCalculated:   "The expression ends with an operator or has no operator",
		expression.OperatorNotAfterNumber:         "An operator must follow a number",
		expression.Overflow:                       "The calculation exceeded the allowed capacity",
		expression.NotADigit:                      "The key pressed is not a digit",
		expression.DivisionByZero:                 "Division by 0 is impossible",
		expression.AddDigitImpossible:             "Too many digits for the whole or decimal part",
		expression.AddDecimalSeparatorNotPossible: "The expression is empty, or already ends with a decimal, an operator or a result",
		expression.OneOfOperandIsNotNumber:        "One of the operands is not a number",
	},
}

var unknownError = map[string]string{
	French:  "Une erreur inconnue s'est produite",
	English: "An unknown error occurred",
}

var titles = map[string]string{
	French:  "Erreur",
	English: "Error",
}

// supported is ordered like Languages; the matcher returns indexes into it.
var supported = []language.Tag{language.French, language.English}

var matcher = language.NewMatcher(supported)

// Languages returns the supported language codes, default first.
func Languages() []string {
	return []string{French, English}
}

func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

// Text returns the message for kind in lang, falling back to Default for an
// unsupported language.
func Text(lang string, kind expression.ErrorKind) string {
	if !Supported(lang) {
		lang = Default
	}
	if msg, ok := catalog[lang][kind]; ok {
		return msg
	}
	return unknownError[lang]
}

// Title returns the heading shown above an error message.
func Title(lang string) string {
	if !Supported(lang) {
		lang = Default
	}
	return titles[lang]
}

// FromAcceptLanguage picks a supported language from an Accept-Language
// header value, or returns fallback when nothing matches.
func FromAcceptLanguage(header, fallback string) string {
	if header == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return Languages()[idx]
}
