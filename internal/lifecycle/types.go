package lifecycle

import (
	"fmt"
	"time"

	"github.com/commonground/dismissal-detection/go-engine/internal/feature"
	"github.com/commonground/dismissal-detection/go-engine/internal/scoring"
)

// #region status

// Status is the lifecycle state of an observation.
// draft -> preliminary -> finalized, no skips, no reversals.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusPreliminary Status = "preliminary"
	StatusFinalized   Status = "finalized"
)

// #endregion status

// #region test-entry

// TestResult is the recorded outcome of one falsifiable test.
type TestResult string

const (
	TestPass    TestResult = "pass"
	TestFail    TestResult = "fail"
	TestUnknown TestResult = "unknown"
)

// Completed reports whether the result counts toward the finalization
// minimum. Only pass and fail count; unknown does not.
func (r TestResult) Completed() bool {
	return r == TestPass || r == TestFail
}

// TestEntry is the recorded state of one falsifiable test.
type TestEntry struct {
	Result TestResult `json:"result"`
	Notes  string     `json:"notes,omitempty"`
}

// #endregion test-entry

// #region context

// Context is the free-form response context attached at creation. Opaque to
// the engine; never interpreted.
type Context struct {
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
}

// Empty reports whether no response context was supplied.
func (c Context) Empty() bool {
	return c.Title == "" && c.Notes == ""
}

// #endregion context

// #region observation

// Observation is the central entity: one scored, guarded record of an
// observed response to a claim. Mutated only through Machine operations,
// which work on value copies; a failed transition leaves the caller's copy
// untouched.
type Observation struct {
	ID         string  `json:"id"`
	Context    Context `json:"context"`
	SubjectRef string  `json:"subject_ref"` // opaque grouping key, never resolved

	Vector feature.Vector `json:"vector"`
	Score  scoring.Result `json:"score"`

	Status       Status `json:"status"`
	GuardrailAck bool   `json:"guardrail_ack"`

	Tests map[string]TestEntry `json:"tests"`

	// Stage9Confirmed is a permanent audit flag: set once the terminal
	// stage has been explicitly confirmed, never cleared.
	Stage9Confirmed bool `json:"stage_9_explicit_confirmation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompletedTests counts tests with a pass or fail result.
func (o Observation) CompletedTests() int {
	n := 0
	for _, e := range o.Tests {
		if e.Result.Completed() {
			n++
		}
	}
	return n
}

// #endregion observation

// #region state-error

// StateError reports an operation attempted against an observation whose
// state forbids it. Terminal for the call; a new observation is needed.
type StateError struct {
	Reason string // "immutable_once_finalized" | "finalize_requires_preliminary"
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid observation state: %s", e.Reason)
}

// #endregion state-error
