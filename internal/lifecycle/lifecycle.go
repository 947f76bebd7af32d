// Package lifecycle implements the guarded observation state machine:
// draft -> preliminary -> finalized, with every transition checked against
// the guardrail policy before anything is committed. Operations are pure
// check-then-commit functions over observation values: on any failure the
// input observation is returned unchanged alongside the error.
package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/commonground/dismissal-detection/go-engine/internal/config"
	"github.com/commonground/dismissal-detection/go-engine/internal/feature"
	"github.com/commonground/dismissal-detection/go-engine/internal/guardrail"
	"github.com/commonground/dismissal-detection/go-engine/internal/scoring"
)

// #region machine

// Machine runs lifecycle operations with an injected constant set, scorer,
// and guardrail policy. The clock is injectable for tests.
type Machine struct {
	cfg    config.Config
	model  *feature.Model
	scorer *scoring.Engine
	policy *guardrail.Policy
	now    func() time.Time
}

// NewMachine creates a lifecycle machine from one constant set.
func NewMachine(cfg config.Config) *Machine {
	return &Machine{
		cfg:    cfg,
		model:  feature.NewModel(cfg),
		scorer: scoring.NewEngine(cfg),
		policy: guardrail.NewPolicy(cfg),
		now:    time.Now,
	}
}

// WithClock replaces the machine's clock. Test hook.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Scorer exposes the machine's scoring engine.
func (m *Machine) Scorer() *scoring.Engine {
	return m.scorer
}

// Model exposes the machine's feature model.
func (m *Machine) Model() *feature.Model {
	return m.model
}

// #endregion machine

// #region create

// Create validates the raw input, scores it, and returns a new observation.
// Scoring always happens at creation. The observation starts preliminary
// when response context was supplied, draft otherwise.
func (m *Machine) Create(ctx Context, subjectRef string, rawVec, rawAux map[string]float64) (Observation, error) {
	vec, err := m.model.Validate(rawVec)
	if err != nil {
		return Observation{}, err
	}
	aux, err := m.model.ValidateAux(rawAux)
	if err != nil {
		return Observation{}, err
	}

	status := StatusPreliminary
	if ctx.Empty() {
		status = StatusDraft
	}

	tests := make(map[string]TestEntry, len(m.cfg.Tests))
	for _, id := range m.cfg.Tests {
		tests[id] = TestEntry{Result: TestUnknown}
	}

	now := m.now().UTC()
	return Observation{
		ID:         uuid.New().String(),
		Context:    ctx,
		SubjectRef: subjectRef,
		Vector:     vec,
		Score:      m.scorer.Score(vec, aux),
		Status:     status,
		Tests:      tests,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// #endregion create

// #region record-tests

// RecordTests merges falsifiable-test updates into the observation. Requires
// the guardrail acknowledgement. A draft observation with an acknowledged
// test update moves to preliminary; a finalized observation is immutable.
func (m *Machine) RecordTests(obs Observation, updates map[string]TestEntry, ack bool) (Observation, error) {
	if obs.Status == StatusFinalized {
		return obs, &StateError{Reason: "immutable_once_finalized"}
	}
	if err := m.policy.Check(guardrail.AckRequired, guardrail.CheckInput{Ack: ack}); err != nil {
		return obs, err
	}
	for id, entry := range updates {
		if !m.cfg.IsTest(id) {
			return obs, &feature.ValidationError{Key: id, Reason: "unknown_test"}
		}
		switch entry.Result {
		case TestPass, TestFail, TestUnknown:
		default:
			return obs, &feature.ValidationError{Key: id, Reason: "bad_test_result"}
		}
	}

	next := obs.clone()
	for id, entry := range updates {
		next.Tests[id] = entry
	}
	if next.Status == StatusDraft {
		next.Status = StatusPreliminary
	}
	next.GuardrailAck = true
	next.Score.NextTest = m.scorer.RecommendNext(next.completedSet())
	next.UpdatedAt = m.now().UTC()
	return next, nil
}

// #endregion record-tests

// #region finalize

// Finalize moves a preliminary observation to finalized. Preconditions, in
// order: the observation must still be mutable and past draft, the guardrail
// acknowledgement must be given, and at least the configured minimum of
// falsifiable tests must carry a pass/fail result. Finalize never touches
// the stage estimate; in particular it can never set the terminal stage.
func (m *Machine) Finalize(obs Observation, ack bool) (Observation, error) {
	if obs.Status == StatusFinalized {
		return obs, &StateError{Reason: "immutable_once_finalized"}
	}
	if obs.Status == StatusDraft {
		return obs, &StateError{Reason: "finalize_requires_preliminary"}
	}
	if err := m.policy.Check(guardrail.AckRequired, guardrail.CheckInput{Ack: ack}); err != nil {
		return obs, err
	}
	in := guardrail.CheckInput{Ack: ack, CompletedTests: obs.CompletedTests()}
	if err := m.policy.Check(guardrail.MinOneTestRequired, in); err != nil {
		return obs, err
	}

	next := obs.clone()
	next.Status = StatusFinalized
	next.GuardrailAck = true
	next.UpdatedAt = m.now().UTC()
	return next, nil
}

// #endregion finalize

// #region confirm-stage9

// ConfirmStage9 is the only path that records the terminal ladder stage.
// It demands an explicit confirmation, works before or after finalization,
// and sets the permanent stage-9 audit flag. It does not change the
// observation's lifecycle status.
func (m *Machine) ConfirmStage9(obs Observation, explicitConfirmation bool) (Observation, error) {
	in := guardrail.CheckInput{ExplicitConfirmation: explicitConfirmation}
	if err := m.policy.Check(guardrail.Stage9RequiresExplicitConfirmation, in); err != nil {
		return obs, err
	}

	next := obs.clone()
	next.Score.StageEstimate = config.Stage9
	next.Stage9Confirmed = true
	next.UpdatedAt = m.now().UTC()
	return next, nil
}

// #endregion confirm-stage9

// #region clone

// clone deep-copies the observation so committed mutations never alias the
// caller's value.
func (o Observation) clone() Observation {
	next := o
	next.Vector = make(feature.Vector, len(o.Vector))
	copy(next.Vector, o.Vector)
	next.Tests = make(map[string]TestEntry, len(o.Tests))
	for id, e := range o.Tests {
		next.Tests[id] = e
	}
	if o.Score.Protected != nil {
		next.Score.Protected = make(map[string]float64, len(o.Score.Protected))
		for k, v := range o.Score.Protected {
			next.Score.Protected[k] = v
		}
	}
	return next
}

// completedSet returns the IDs of tests with a pass/fail result.
func (o Observation) completedSet() map[string]bool {
	done := make(map[string]bool, len(o.Tests))
	for id, e := range o.Tests {
		if e.Result.Completed() {
			done[id] = true
		}
	}
	return done
}

// #endregion clone
