// Package guardrail centralizes the named preconditions the observation
// lifecycle enforces. Keeping every predicate in one place keeps the
// conditions a client displays and the conditions this engine enforces from
// drifting apart: the condition names here are surfaced to operators
// verbatim.
package guardrail

import (
	"fmt"

	"github.com/commonground/dismissal-detection/go-engine/internal/config"
)

// #region conditions

// Condition names a guardrail precondition. The string form is the public,
// operator-facing identifier.
type Condition string

const (
	// AckRequired: the caller must acknowledge the guardrail notice before
	// any state transition past draft.
	AckRequired Condition = "ack_required"

	// MinOneTestRequired: at least one falsifiable test must carry a
	// pass/fail result before finalization.
	MinOneTestRequired Condition = "min_one_test_required"

	// Stage9RequiresExplicitConfirmation: the terminal ladder stage is
	// never inferred; it must be explicitly confirmed.
	Stage9RequiresExplicitConfirmation Condition = "stage9_requires_explicit_confirmation"
)

// #endregion conditions

// #region error

// Error reports an unmet guardrail condition. Always recoverable: satisfy
// the condition and retry. Never bypassed or downgraded internally.
type Error struct {
	Condition Condition
}

func (e *Error) Error() string {
	return fmt.Sprintf("guardrail not satisfied: %s", e.Condition)
}

// #endregion error

// #region check-input

// CheckInput is the slice of observation state the predicates read. The
// lifecycle builds it; this package never sees the full observation.
type CheckInput struct {
	Ack                  bool
	CompletedTests       int // tests with a pass or fail result
	ExplicitConfirmation bool
}

// #endregion check-input

// #region policy

// Policy evaluates guardrail conditions against one constant set.
type Policy struct {
	cfg config.Config
}

// NewPolicy creates a policy bound to one constant set.
func NewPolicy(cfg config.Config) *Policy {
	return &Policy{cfg: cfg}
}

// Check returns nil when the named condition holds, or an *Error naming the
// violated condition. Unknown conditions fail closed.
func (p *Policy) Check(cond Condition, in CheckInput) error {
	switch cond {
	case AckRequired:
		if !in.Ack {
			return &Error{Condition: AckRequired}
		}
	case MinOneTestRequired:
		if in.CompletedTests < p.cfg.MinCompletedTests {
			return &Error{Condition: MinOneTestRequired}
		}
	case Stage9RequiresExplicitConfirmation:
		if !in.ExplicitConfirmation {
			return &Error{Condition: Stage9RequiresExplicitConfirmation}
		}
	default:
		return &Error{Condition: cond}
	}
	return nil
}

// #endregion policy
