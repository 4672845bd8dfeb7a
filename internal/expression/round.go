package expression

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// rounder keeps every computed value inside the configured precision and
// magnitude. Rounding is half-to-even.
type rounder struct {
	precision int32
	limit     decimal.Decimal
	unit      decimal.Decimal
}

func newRounder(cfg Config) rounder {
	return rounder{
		precision: int32(cfg.Precision),
		limit:     decimal.New(1, int32(cfg.MaxWholeDigits)),
		unit:      decimal.New(1, -int32(cfg.Precision)),
	}
}

func (r rounder) round(v decimal.Decimal) (decimal.Decimal, error) {
	v = v.RoundBank(r.precision)
	if v.Abs().GreaterThanOrEqual(r.limit) {
		return decimal.Zero, Overflow
	}
	return v, nil
}

// quotient divides a by b at the configured precision. The quotient is
// truncated first and then adjusted from the exact remainder, so a tie is
// only ever seen once.
func (r rounder) quotient(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, DivisionByZero
	}

	q, rem := a.QuoRem(b, r.precision)
	if !rem.IsZero() {
		cmp := rem.Abs().Mul(two).Cmp(b.Abs().Mul(r.unit))
		if cmp > 0 || (cmp == 0 && lastDigitOdd(q, r.precision)) {
			if a.Sign()*b.Sign() < 0 {
				q = q.Sub(r.unit)
			} else {
				q = q.Add(r.unit)
			}
		}
	}

	return r.round(q)
}

func lastDigitOdd(q decimal.Decimal, precision int32) bool {
	return q.Shift(precision).Abs().BigInt().Bit(0) == 1
}
