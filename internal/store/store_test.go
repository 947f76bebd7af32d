package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/commonground/dismissal-detection/go-engine/internal/config"
	"github.com/commonground/dismissal-detection/go-engine/internal/feature"
	"github.com/commonground/dismissal-detection/go-engine/internal/lifecycle"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"), feature.NewModel(config.Default()))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeObservation(t *testing.T, subject string, created time.Time) lifecycle.Observation {
	t.Helper()
	m := lifecycle.NewMachine(config.Default()).WithClock(func() time.Time { return created })
	raw := make(map[string]float64, 8)
	for _, f := range config.Default().Features {
		raw[f.Key] = 0.4
	}
	obs, err := m.Create(lifecycle.Context{Title: "stored"}, subject, raw,
		map[string]float64{"group_language": 0.3})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return obs
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	s := tempStore(t)
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	obs := makeObservation(t, "subject-1", created)

	if _, err := s.Insert(obs); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rec, err := s.Get(obs.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Rev != 1 {
		t.Fatalf("rev = %d, want 1", rec.Rev)
	}
	if diff := cmp.Diff(obs, rec.Observation); diff != "" {
		t.Fatalf("round trip mismatch (-stored +loaded):\n%s", diff)
	}
}

func TestGetUnknownID(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBumpsRevision(t *testing.T) {
	s := tempStore(t)
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	obs := makeObservation(t, "subject-1", created)
	if _, err := s.Insert(obs); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	m := lifecycle.NewMachine(config.Default()).WithClock(func() time.Time { return created.Add(time.Hour) })
	next, err := m.RecordTests(obs, map[string]lifecycle.TestEntry{
		"symmetry": {Result: lifecycle.TestPass},
	}, true)
	if err != nil {
		t.Fatalf("RecordTests: %v", err)
	}

	rec, err := s.Update(next, 1)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Rev != 2 {
		t.Fatalf("rev = %d, want 2", rec.Rev)
	}

	loaded, err := s.Get(obs.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.Observation.Tests["symmetry"].Result != lifecycle.TestPass {
		t.Fatal("update not persisted")
	}
	if !loaded.Observation.GuardrailAck {
		t.Fatal("ack flag not persisted")
	}
}

func TestUpdateRevConflict(t *testing.T) {
	s := tempStore(t)
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	obs := makeObservation(t, "subject-1", created)
	if _, err := s.Insert(obs); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Stale revision: a concurrent writer already bumped it.
	if _, err := s.Update(obs, 1); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if _, err := s.Update(obs, 1); !errors.Is(err, ErrRevConflict) {
		t.Fatalf("expected ErrRevConflict, got %v", err)
	}
}

func TestUpdateMissingRow(t *testing.T) {
	s := tempStore(t)
	obs := makeObservation(t, "subject-1", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	if _, err := s.Update(obs, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBySubjectOrdered(t *testing.T) {
	s := tempStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of chronological order on purpose.
	for _, offset := range []int{2, 0, 1} {
		obs := makeObservation(t, "subject-1", base.AddDate(0, 0, offset))
		if _, err := s.Insert(obs); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	other := makeObservation(t, "subject-2", base)
	if _, err := s.Insert(other); err != nil {
		t.Fatalf("Insert other subject: %v", err)
	}

	records, err := s.ListBySubject("subject-1")
	if err != nil {
		t.Fatalf("ListBySubject: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Observation.CreatedAt.Before(records[i-1].Observation.CreatedAt) {
			t.Fatal("records not in ascending creation order")
		}
	}
}

func TestListRecent(t *testing.T) {
	s := tempStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		obs := makeObservation(t, "subject-1", base.AddDate(0, 0, i))
		if _, err := s.Insert(obs); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	records, err := s.ListRecent(2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].Observation.CreatedAt.After(records[1].Observation.CreatedAt) {
		t.Fatal("expected newest first")
	}
}
