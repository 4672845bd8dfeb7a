package expression

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy selects the reduction algorithm used by CalculateExpression.
type Strategy int

const (
	// StrategyIterative repeatedly collapses the first multiplication or
	// division, falling back to the first operator.
	StrategyIterative Strategy = iota
	// StrategyRecursive consumes the tokens head first with one operator of
	// lookahead.
	StrategyRecursive
)

func (s Strategy) String() string {
	switch s {
	case StrategyIterative:
		return "iterative"
	case StrategyRecursive:
		return "recursive"
	}
	return "unknown"
}

// ParseStrategy reads a strategy name. The empty string selects the
// iterative strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "iterative", "loop":
		return StrategyIterative, nil
	case "recursive":
		return StrategyRecursive, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, s)
}

var ErrInvalidConfig = errors.New("invalid engine configuration")

// Config is fixed for the lifetime of an Engine.
type Config struct {
	// Precision is the maximum number of digits after the separator, both
	// while typing and after rounding.
	Precision int
	// MaxWholeDigits is the maximum number of digits in front of the
	// separator. Results reaching 10^MaxWholeDigits overflow.
	MaxWholeDigits int
	Strategy       Strategy
}

// DefaultConfig returns ten fractional digits, fifteen whole digits and the
// iterative strategy.
func DefaultConfig() Config {
	return Config{
		Precision:      10,
		MaxWholeDigits: 15,
		Strategy:       StrategyIterative,
	}
}

// Validate reports settings the engine cannot work with as ErrInvalidConfig.
func (c Config) Validate() error {
	if c.Precision < 0 {
		return fmt.Errorf("%w: precision must not be negative, got %d", ErrInvalidConfig, c.Precision)
	}
	if c.MaxWholeDigits < 1 {
		return fmt.Errorf("%w: max whole digits must be positive, got %d", ErrInvalidConfig, c.MaxWholeDigits)
	}
	if c.Strategy != StrategyIterative && c.Strategy != StrategyRecursive {
		return fmt.Errorf("%w: unknown strategy %d", ErrInvalidConfig, int(c.Strategy))
	}
	return nil
}
