package expression

import (
	"reflect"
	"strings"
	"testing"
)

func newTestEngine(t *testing.T, cfg Config) (*Engine, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	e, err := New(cfg, rec)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	return e, rec
}

// typeKeys drives e the way a keypad would: digits, ".", the four operator
// glyphs, "*" and "/" as aliases, "=" and "C".
func typeKeys(t *testing.T, e *Engine, keys string) {
	t.Helper()
	for _, k := range keys {
		switch s := string(k); {
		case k >= '0' && k <= '9':
			e.AddDigit(s)
		case s == ".":
			e.AddDecimalSeparator()
		case s == "=":
			e.CalculateExpression()
		case s == "C":
			e.EraseExpression()
		case s == " ":
		default:
			op, ok := ParseOperator(s)
			if !ok {
				t.Fatalf("unknown key %q", s)
			}
			e.AddOperator(op)
		}
	}
}

func check(t *testing.T, e *Engine, text string) {
	t.Helper()
	if got := e.Expression(); got != text {
		t.Fatalf("wrong expression\n  got: %q\n want: %q", got, text)
	}
}

func checkLastError(t *testing.T, rec *Recorder, want ErrorKind) {
	t.Helper()
	errs := rec.Errors()
	if len(errs) == 0 {
		t.Fatalf("expected error %s, got none", want)
	}
	if got := errs[len(errs)-1]; got != want {
		t.Fatalf("expected error %s, got %s", want, got)
	}
}

func strategies() []Strategy {
	return []Strategy{StrategyIterative, StrategyRecursive}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "negative precision", cfg: Config{Precision: -1, MaxWholeDigits: 3}},
		{name: "zero whole digits", cfg: Config{Precision: 2, MaxWholeDigits: 0}},
		{name: "unknown strategy", cfg: Config{Precision: 2, MaxWholeDigits: 3, Strategy: Strategy(7)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg, nil); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestAddDigitOnEmptyEngine(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		e, _ := newTestEngine(t, DefaultConfig())
		if !e.AddDigit(string(d)) {
			t.Fatalf("expected digit %q to be accepted", d)
		}
		check(t, e, string(d))
	}
}

func TestAddDigitRejectsNonDigits(t *testing.T) {
	for _, in := range []string{"", "a", "12", ".", "+", "x", " ", "٣"} {
		t.Run(in, func(t *testing.T) {
			e, rec := newTestEngine(t, DefaultConfig())
			typeKeys(t, e, "4")
			rec.Reset()

			if e.AddDigit(in) {
				t.Fatalf("expected %q to be rejected", in)
			}
			check(t, e, "4")
			checkLastError(t, rec, NotADigit)
			if n := len(rec.Events()); n != 1 {
				t.Fatalf("expected exactly 1 event, got %d", n)
			}
		})
	}
}

func TestWholeDigitLimit(t *testing.T) {
	e, rec := newTestEngine(t, Config{Precision: 2, MaxWholeDigits: 4})

	for _, d := range []string{"1", "2", "3", "4"} {
		if !e.AddDigit(d) {
			t.Fatalf("expected digit %s to be accepted", d)
		}
	}
	if e.CanAddDigit() {
		t.Fatal("expected CanAddDigit to be false at the limit")
	}
	if e.AddDigit("5") {
		t.Fatal("expected fifth digit to be rejected")
	}
	check(t, e, "1234")
	checkLastError(t, rec, AddDigitImpossible)

	// a new operand starts counting again
	typeKeys(t, e, "+9876")
	check(t, e, "1234 + 9876")
}

func TestFractionDigitLimit(t *testing.T) {
	e, rec := newTestEngine(t, Config{Precision: 3, MaxWholeDigits: 4})
	typeKeys(t, e, "12.")

	for _, d := range []string{"3", "4", "5"} {
		if !e.AddDigit(d) {
			t.Fatalf("expected fractional digit %s to be accepted", d)
		}
	}
	if e.AddDigit("6") {
		t.Fatal("expected fourth fractional digit to be rejected")
	}
	check(t, e, "12.345")
	checkLastError(t, rec, AddDigitImpossible)
}

func TestZeroPrecisionRejectsFractionDigits(t *testing.T) {
	e, rec := newTestEngine(t, Config{Precision: 0, MaxWholeDigits: 4})
	typeKeys(t, e, "7.")

	if e.AddDigit("1") {
		t.Fatal("expected digit after separator to be rejected with zero precision")
	}
	check(t, e, "7.")
	checkLastError(t, rec, AddDigitImpossible)
}

func TestAddOperator(t *testing.T) {
	tests := []struct {
		name   string
		keys   string
		op     Operator
		ok     bool
		expect string
	}{
		{name: "empty", keys: "", op: Add, ok: false, expect: ""},
		{name: "after operator", keys: "1+", op: Multiply, ok: false, expect: "1 + "},
		{name: "after integer", keys: "1", op: Add, ok: true, expect: "1 + "},
		{name: "after decimal", keys: "1.5", op: Divide, ok: true, expect: "1.5 ÷ "},
		{name: "after dangling separator", keys: "1.", op: Subtract, ok: true, expect: "1. - "},
		{name: "after result", keys: "1+2=", op: Multiply, ok: true, expect: "3 x "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, rec := newTestEngine(t, DefaultConfig())
			typeKeys(t, e, tc.keys)
			rec.Reset()

			if got := e.AddOperator(tc.op); got != tc.ok {
				t.Fatalf("expected %t, got %t", tc.ok, got)
			}
			check(t, e, tc.expect)
			if !tc.ok {
				checkLastError(t, rec, OperatorNotAfterNumber)
			}
		})
	}
}

func TestAddDecimalSeparator(t *testing.T) {
	tests := []struct {
		name   string
		keys   string
		ok     bool
		expect string
	}{
		{name: "empty", keys: "", ok: false, expect: ""},
		{name: "after integer", keys: "12", ok: true, expect: "12."},
		{name: "already decimal", keys: "1.2", ok: false, expect: "1.2"},
		{name: "dangling separator", keys: "1.", ok: false, expect: "1."},
		{name: "after operator", keys: "1+", ok: false, expect: "1 + "},
		{name: "after result", keys: "1+2=", ok: false, expect: "1 + 2 = 3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, rec := newTestEngine(t, DefaultConfig())
			typeKeys(t, e, tc.keys)
			rec.Reset()

			if got := e.AddDecimalSeparator(); got != tc.ok {
				t.Fatalf("expected %t, got %t", tc.ok, got)
			}
			check(t, e, tc.expect)
			if !tc.ok {
				checkLastError(t, rec, AddDecimalSeparatorNotPossible)
			}
		})
	}
}

func TestDigitAfterResultStartsFreshExpression(t *testing.T) {
	e, rec := newTestEngine(t, DefaultConfig())
	typeKeys(t, e, "12+3=")
	check(t, e, "12 + 3 = 15")
	rec.Reset()

	if !e.AddDigit("8") {
		t.Fatal("expected digit after result to be accepted")
	}
	check(t, e, "8")

	want := []Event{
		{Type: EventExpressionChanged, Expression: ""},
		{Type: EventExpressionChanged, Expression: "8"},
	}
	if got := rec.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected events %+v, got %+v", want, got)
	}
}

func TestOperatorAfterNegativeResult(t *testing.T) {
	for _, s := range strategies() {
		t.Run(s.String(), func(t *testing.T) {
			e, _ := newTestEngine(t, Config{Precision: 2, MaxWholeDigits: 5, Strategy: s})
			typeKeys(t, e, "1-3=")
			check(t, e, "1 - 3 = -2")

			typeKeys(t, e, "+5")
			check(t, e, "-2 + 5")
			typeKeys(t, e, "=")
			check(t, e, "-2 + 5 = 3")
		})
	}
}

func TestCalculateExpression(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		keys   string
		expect string
	}{
		{name: "precedence", cfg: DefaultConfig(), keys: "1+2x3", expect: "1 + 2 x 3 = 7"},
		{name: "mixed chain", cfg: DefaultConfig(), keys: "1+2x3÷2-9", expect: "1 + 2 x 3 ÷ 2 - 9 = -5"},
		{name: "subtraction chain", cfg: DefaultConfig(), keys: "10-2-3-4", expect: "10 - 2 - 3 - 4 = 1"},
		{name: "division chain", cfg: DefaultConfig(), keys: "100÷5÷2", expect: "100 ÷ 5 ÷ 2 = 10"},
		{name: "decimal product", cfg: DefaultConfig(), keys: "2.1x18.8", expect: "2.1 x 18.8 = 39.48"},
		{name: "dangling separator", cfg: DefaultConfig(), keys: "5.+1", expect: "5. + 1 = 6"},
		{name: "repeating quotient", cfg: DefaultConfig(), keys: "5÷3", expect: "5 ÷ 3 = 1.6666666667"},
		{name: "repeating quotient precision 4", cfg: Config{Precision: 4, MaxWholeDigits: 15}, keys: "5÷3", expect: "5 ÷ 3 = 1.6667"},
		{name: "repeating quotient precision 1", cfg: Config{Precision: 1, MaxWholeDigits: 15}, keys: "5÷3", expect: "5 ÷ 3 = 1.7"},
		{name: "half to even down", cfg: Config{Precision: 2, MaxWholeDigits: 15}, keys: "1÷8", expect: "1 ÷ 8 = 0.12"},
		{name: "half to even up", cfg: Config{Precision: 2, MaxWholeDigits: 15}, keys: "3÷8", expect: "3 ÷ 8 = 0.38"},
		{name: "intermediate rounding", cfg: Config{Precision: 1, MaxWholeDigits: 15}, keys: "1÷3x3", expect: "1 ÷ 3 x 3 = 0.9"},
		{name: "zero result", cfg: DefaultConfig(), keys: "4-4", expect: "4 - 4 = 0"},
	}

	for _, tc := range tests {
		for _, s := range strategies() {
			t.Run(tc.name+"/"+s.String(), func(t *testing.T) {
				cfg := tc.cfg
				cfg.Strategy = s
				e, rec := newTestEngine(t, cfg)
				typeKeys(t, e, tc.keys)
				rec.Reset()

				if !e.CalculateExpression() {
					t.Fatalf("expected calculation to succeed, errors %v", rec.Errors())
				}
				check(t, e, tc.expect)
				if !e.HasResult() {
					t.Fatal("expected HasResult after calculation")
				}
			})
		}
	}
}

func TestCalculateRejectsIncompleteExpression(t *testing.T) {
	for _, keys := range []string{"", "5", "5+", "5+3="} {
		t.Run(keys, func(t *testing.T) {
			e, rec := newTestEngine(t, DefaultConfig())
			typeKeys(t, e, keys)
			before := e.Expression()
			rec.Reset()

			if e.CalculateExpression() {
				t.Fatal("expected calculation to be rejected")
			}
			check(t, e, before)
			checkLastError(t, rec, ExpressionCanNotBeCalculated)
		})
	}
}

func TestFatalErrorsEraseExpression(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		keys string
		want ErrorKind
	}{
		{name: "division by zero", cfg: DefaultConfig(), keys: "5÷0", want: DivisionByZero},
		{name: "zero by zero", cfg: DefaultConfig(), keys: "0÷0", want: DivisionByZero},
		{name: "nested division by zero", cfg: DefaultConfig(), keys: "1+6÷0.0x2", want: DivisionByZero},
		{name: "sum overflow", cfg: Config{Precision: 2, MaxWholeDigits: 3}, keys: "999+1", want: Overflow},
		{name: "product overflow", cfg: Config{Precision: 2, MaxWholeDigits: 3}, keys: "100x10", want: Overflow},
		{name: "negative overflow", cfg: Config{Precision: 2, MaxWholeDigits: 3}, keys: "1-999x2", want: Overflow},
	}

	for _, tc := range tests {
		for _, s := range strategies() {
			t.Run(tc.name+"/"+s.String(), func(t *testing.T) {
				cfg := tc.cfg
				cfg.Strategy = s
				e, rec := newTestEngine(t, cfg)
				typeKeys(t, e, tc.keys)
				rec.Reset()

				if e.CalculateExpression() {
					t.Fatal("expected calculation to fail")
				}
				check(t, e, "")

				want := []Event{
					{Type: EventExpressionChanged, Expression: ""},
					{Type: EventErrorRaised, Error: tc.want},
				}
				if got := rec.Events(); !reflect.DeepEqual(got, want) {
					t.Fatalf("expected events %+v, got %+v", want, got)
				}

				// the engine stays usable
				typeKeys(t, e, "2+2=")
				check(t, e, "2 + 2 = 4")
			})
		}
	}
}

func TestEraseExpression(t *testing.T) {
	for _, keys := range []string{"", "1", "1+", "1.5x2", "1+2="} {
		t.Run(keys, func(t *testing.T) {
			e, rec := newTestEngine(t, DefaultConfig())
			typeKeys(t, e, keys)
			rec.Reset()

			e.EraseExpression()
			check(t, e, "")
			if !e.IsEmpty() {
				t.Fatal("expected IsEmpty after erase")
			}
			if n := len(rec.Events()); n != 1 {
				t.Fatalf("expected 1 notification, got %d", n)
			}
		})
	}
}

func TestStatePredicates(t *testing.T) {
	tests := []struct {
		keys string
		want State
	}{
		{keys: "", want: State{IsEmpty: true, CanAddDigit: true}},
		{keys: "1", want: State{Expression: "1", CanAddDigit: true, CanAddOperator: true, CanAddDecimalSeparator: true}},
		{keys: "1.", want: State{Expression: "1.", CanAddDigit: true, CanAddOperator: true}},
		{keys: "1+", want: State{Expression: "1 + ", CanAddDigit: true}},
		{keys: "1+2", want: State{Expression: "1 + 2", CanAddDigit: true, CanAddOperator: true, CanAddDecimalSeparator: true, CanCalculate: true}},
		{keys: "1+2=", want: State{Expression: "1 + 2 = 3", HasResult: true, CanAddDigit: true, CanAddOperator: true}},
	}

	for _, tc := range tests {
		t.Run(tc.keys, func(t *testing.T) {
			e, _ := newTestEngine(t, DefaultConfig())
			typeKeys(t, e, tc.keys)
			if got := e.State(); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestResult(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())
	typeKeys(t, e, "2.1x18.8")
	if _, ok := e.Result(); ok {
		t.Fatal("did not expect a result before calculating")
	}

	typeKeys(t, e, "=")
	v, ok := e.Result()
	if !ok {
		t.Fatal("expected a result")
	}
	if v.String() != "39.48" {
		t.Fatalf("expected 39.48, got %s", v)
	}
	if got := e.State().ResultText(); got != "39.48" {
		t.Fatalf("expected result text 39.48, got %q", got)
	}
}

func TestListenerFuncs(t *testing.T) {
	var texts []string
	var kinds []ErrorKind
	e, err := New(DefaultConfig(), ListenerFuncs{
		OnExpressionChanged: func(text string) { texts = append(texts, text) },
		OnErrorRaised:       func(kind ErrorKind) { kinds = append(kinds, kind) },
	})
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	e.AddDigit("3")
	e.AddOperator(Multiply)
	e.AddOperator(Multiply)

	if got := strings.Join(texts, "|"); got != "3|3 x " {
		t.Fatalf("unexpected expression notifications %q", got)
	}
	if !reflect.DeepEqual(kinds, []ErrorKind{OperatorNotAfterNumber}) {
		t.Fatalf("unexpected error notifications %v", kinds)
	}
}
