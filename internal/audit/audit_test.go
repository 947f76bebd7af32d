package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/commonground/dismissal-detection/go-engine/internal/config"
	"github.com/commonground/dismissal-detection/go-engine/internal/feature"
	"github.com/commonground/dismissal-detection/go-engine/internal/store"
)

func tempDB(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"), feature.NewModel(config.Default()))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLogAndReadBack(t *testing.T) {
	s := tempDB(t)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	entries := []Entry{
		{ObservationID: "obs-1", Operation: "observe", Decision: DecisionAccepted, CreatedAt: base},
		{ObservationID: "obs-1", Operation: "finalize", Decision: DecisionRejected,
			Condition: "min_one_test_required", Reason: "all tests unknown", CreatedAt: base.Add(time.Minute)},
		{ObservationID: "obs-2", Operation: "observe", Decision: DecisionAccepted, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := Log(s.DB(), e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	trail, err := ForObservation(s.DB(), "obs-1")
	if err != nil {
		t.Fatalf("ForObservation: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(trail))
	}
	if trail[0].Operation != "observe" || trail[1].Operation != "finalize" {
		t.Fatal("trail not in insertion order")
	}
	if trail[1].Condition != "min_one_test_required" {
		t.Fatalf("condition = %q, want min_one_test_required", trail[1].Condition)
	}
	if trail[0].Condition != "" {
		t.Fatalf("accepted entry should carry no condition, got %q", trail[0].Condition)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	s := tempDB(t)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, op := range []string{"observe", "record_tests", "finalize"} {
		err := Log(s.DB(), Entry{
			ObservationID: "obs-1",
			Operation:     op,
			Decision:      DecisionAccepted,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	recent, err := Recent(s.DB(), 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].Operation != "finalize" {
		t.Fatalf("newest entry = %s, want finalize", recent[0].Operation)
	}
}

func TestLogFillsTimestamp(t *testing.T) {
	s := tempDB(t)
	if err := Log(s.DB(), Entry{ObservationID: "obs-1", Operation: "observe", Decision: DecisionAccepted}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	trail, err := ForObservation(s.DB(), "obs-1")
	if err != nil {
		t.Fatalf("ForObservation: %v", err)
	}
	if trail[0].CreatedAt.IsZero() {
		t.Fatal("expected auto-filled timestamp")
	}
}
