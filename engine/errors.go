package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRules is returned for a GameRules value that cannot drive a game.
	ErrInvalidRules = errors.New("invalid game rules")
	// ErrBeliefLength is returned when a supplied belief container does not have K entries.
	ErrBeliefLength = errors.New("belief container length does not match choice set size")
	// ErrBeliefValue is returned when a supplied belief weight is negative or not finite.
	ErrBeliefValue = errors.New("belief weight must be finite and non-negative")
	// ErrInvalidAction is returned for an action outside [0, K).
	ErrInvalidAction = errors.New("action outside choice set")
)

func invalidRules(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRules, fmt.Sprintf(format, args...))
}

func invalidAction(a Action, k uint16) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidAction, a, k)
}

// BeliefLengthError wraps ErrBeliefLength with the offending sizes.
func BeliefLengthError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has %d entries, want %d", ErrBeliefLength, what, got, want)
}

// BeliefValueError wraps ErrBeliefValue with the offending entry.
func BeliefValueError(what string, index int, v float64) error {
	return fmt.Errorf("%w: %s[%d] = %v", ErrBeliefValue, what, index, v)
}
