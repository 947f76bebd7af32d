// Package engine is the in-process service surface a transport layer mounts:
// observe, update tests, finalize, confirm the terminal stage, and trend.
// Each operation loads the observation, runs the pure lifecycle transition,
// commits through the store's optimistic revision check, and writes an audit
// row either way. Nothing is logged-and-swallowed: every rejection reaches
// the caller with its condition name.
package engine

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/commonground/dismissal-detection/go-engine/internal/audit"
	"github.com/commonground/dismissal-detection/go-engine/internal/config"
	"github.com/commonground/dismissal-detection/go-engine/internal/feature"
	"github.com/commonground/dismissal-detection/go-engine/internal/guardrail"
	"github.com/commonground/dismissal-detection/go-engine/internal/lifecycle"
	"github.com/commonground/dismissal-detection/go-engine/internal/store"
	"github.com/commonground/dismissal-detection/go-engine/internal/trend"
)

// #region engine

// Engine wires the scoring machine, trend analyzer, store, and audit log.
type Engine struct {
	cfg      config.Config
	machine  *lifecycle.Machine
	analyzer *trend.Analyzer
	store    *store.Store
	log      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock injects the lifecycle clock. Test hook.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.machine.WithClock(now) }
}

// New creates an engine over an open store.
func New(cfg config.Config, st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		machine:  lifecycle.NewMachine(cfg),
		analyzer: trend.NewAnalyzer(cfg),
		store:    st,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// #endregion engine

// #region observe

// Observe scores a feature vector and stores the new observation.
func (e *Engine) Observe(ctx lifecycle.Context, subjectRef string, rawVec, rawAux map[string]float64) (store.Record, error) {
	obs, err := e.machine.Create(ctx, subjectRef, rawVec, rawAux)
	if err != nil {
		e.reject("observe", "", err)
		return store.Record{}, err
	}
	rec, err := e.store.Insert(obs)
	if err != nil {
		return store.Record{}, err
	}
	e.accept("observe", rec)
	e.log.Info("observation created",
		zap.String("observation_id", obs.ID),
		zap.String("subject_ref", subjectRef),
		zap.Float64("severity_index", obs.Score.SeverityIndex),
		zap.String("band", string(obs.Score.Band)),
		zap.Int("stage_estimate", obs.Score.StageEstimate),
		zap.String("status", string(obs.Status)))
	return rec, nil
}

// #endregion observe

// #region update-tests

// UpdateTests merges falsifiable-test results into a stored observation.
func (e *Engine) UpdateTests(observationID string, updates map[string]lifecycle.TestEntry, ack bool) (store.Record, error) {
	return e.mutate("record_tests", observationID, func(obs lifecycle.Observation) (lifecycle.Observation, error) {
		return e.machine.RecordTests(obs, updates, ack)
	})
}

// #endregion update-tests

// #region finalize

// Finalize moves a stored observation to its terminal, immutable status.
func (e *Engine) Finalize(observationID string, ack bool) (store.Record, error) {
	return e.mutate("finalize", observationID, func(obs lifecycle.Observation) (lifecycle.Observation, error) {
		return e.machine.Finalize(obs, ack)
	})
}

// #endregion finalize

// #region confirm-stage9

// ConfirmStage9 records the explicitly confirmed terminal ladder stage.
func (e *Engine) ConfirmStage9(observationID string, explicitConfirmation bool) (store.Record, error) {
	return e.mutate("confirm_stage9", observationID, func(obs lifecycle.Observation) (lifecycle.Observation, error) {
		return e.machine.ConfirmStage9(obs, explicitConfirmation)
	})
}

// #endregion confirm-stage9

// #region trend

// Trend builds the longitudinal report for a subject from stored history.
func (e *Engine) Trend(subjectRef string) (trend.Report, error) {
	records, err := e.store.ListBySubject(subjectRef)
	if err != nil {
		return trend.Report{}, err
	}
	history := make([]lifecycle.Observation, len(records))
	for i, rec := range records {
		history[i] = rec.Observation
	}
	return e.analyzer.Analyze(subjectRef, history)
}

// #endregion trend

// #region get

// Get loads one stored observation.
func (e *Engine) Get(observationID string) (store.Record, error) {
	return e.store.Get(observationID)
}

// #endregion get

// #region mutate

// mutate runs one load -> pure transition -> optimistic commit cycle and
// audits the outcome. A revision conflict surfaces as store.ErrRevConflict;
// retrying is the caller's decision.
func (e *Engine) mutate(operation, observationID string, op func(lifecycle.Observation) (lifecycle.Observation, error)) (store.Record, error) {
	rec, err := e.store.Get(observationID)
	if err != nil {
		return store.Record{}, err
	}

	next, err := op(rec.Observation)
	if err != nil {
		e.reject(operation, observationID, err)
		return store.Record{}, err
	}

	committed, err := e.store.Update(next, rec.Rev)
	if err != nil {
		return store.Record{}, err
	}
	e.accept(operation, committed)
	e.log.Info("observation updated",
		zap.String("operation", operation),
		zap.String("observation_id", observationID),
		zap.String("status", string(committed.Observation.Status)),
		zap.Int64("rev", committed.Rev))
	return committed, nil
}

// #endregion mutate

// #region audit

func (e *Engine) accept(operation string, rec store.Record) {
	entry := audit.Entry{
		ObservationID: rec.Observation.ID,
		Operation:     operation,
		Decision:      audit.DecisionAccepted,
	}
	if err := audit.Log(e.store.DB(), entry); err != nil {
		e.log.Error("audit write failed", zap.String("operation", operation), zap.Error(err))
	}
}

func (e *Engine) reject(operation, observationID string, cause error) {
	entry := audit.Entry{
		ObservationID: observationID,
		Operation:     operation,
		Decision:      audit.DecisionRejected,
		Condition:     conditionOf(cause),
		Reason:        cause.Error(),
	}
	if err := audit.Log(e.store.DB(), entry); err != nil {
		e.log.Error("audit write failed", zap.String("operation", operation), zap.Error(err))
	}
	e.log.Warn("operation rejected",
		zap.String("operation", operation),
		zap.String("observation_id", observationID),
		zap.String("condition", entry.Condition),
		zap.Error(cause))
}

// conditionOf extracts the operator-facing condition name from a lifecycle
// failure.
func conditionOf(err error) string {
	var gerr *guardrail.Error
	if errors.As(err, &gerr) {
		return string(gerr.Condition)
	}
	var serr *lifecycle.StateError
	if errors.As(err, &serr) {
		return serr.Reason
	}
	var verr *feature.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	var rerr *feature.OutOfRangeError
	if errors.As(err, &rerr) {
		return "out_of_range"
	}
	return "error"
}

// #endregion audit
