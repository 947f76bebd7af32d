package feature

import (
	"errors"
	"math"
	"testing"

	"github.com/commonground/dismissal-detection/go-engine/internal/config"
)

func rawVector(score float64) map[string]float64 {
	raw := make(map[string]float64, 8)
	for _, f := range config.Default().Features {
		raw[f.Key] = score
	}
	return raw
}

func TestValidateAcceptsFullVector(t *testing.T) {
	m := NewModel(config.Default())
	vec, err := m.Validate(rawVector(0.5))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(vec) != 8 {
		t.Fatalf("expected 8 features, got %d", len(vec))
	}
	// Order must follow the configured model, not map iteration
	for i, f := range config.Default().Features {
		if vec[i].Key != f.Key {
			t.Fatalf("position %d: got %s, want %s", i, vec[i].Key, f.Key)
		}
		if vec[i].Weight != f.Weight {
			t.Fatalf("weight for %s = %v, want %v", f.Key, vec[i].Weight, f.Weight)
		}
	}
}

func TestValidateRejectsMissingKey(t *testing.T) {
	m := NewModel(config.Default())
	raw := rawVector(0.5)
	delete(raw, "deflection")
	if _, err := m.Validate(raw); err == nil {
		t.Fatal("expected error for 7-key vector")
	}
}

func TestValidateRejectsUnknownKey(t *testing.T) {
	m := NewModel(config.Default())
	raw := rawVector(0.5)
	delete(raw, "deflection")
	raw["sarcasm"] = 0.5
	_, err := m.Validate(raw)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Key != "sarcasm" || verr.Reason != "unknown_key" {
		t.Fatalf("unexpected error detail: %+v", verr)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	m := NewModel(config.Default())
	for _, bad := range []float64{-0.01, 1.01, 2.0} {
		raw := rawVector(0.5)
		raw["erasure"] = bad
		_, err := m.Validate(raw)
		var rerr *OutOfRangeError
		if !errors.As(err, &rerr) {
			t.Fatalf("value %v: expected OutOfRangeError, got %v", bad, err)
		}
		if rerr.Key != "erasure" {
			t.Fatalf("expected offending key erasure, got %s", rerr.Key)
		}
	}
}

func TestValidateDoesNotClampBoundaries(t *testing.T) {
	m := NewModel(config.Default())
	raw := rawVector(0.0)
	raw["erasure"] = 1.0
	vec, err := m.Validate(raw)
	if err != nil {
		t.Fatalf("boundary values 0.0 and 1.0 must be accepted: %v", err)
	}
	for _, f := range vec {
		if f.Key == "erasure" && f.Score != 1.0 {
			t.Fatalf("score mutated: %v", f.Score)
		}
	}
}

func TestWeightedSum(t *testing.T) {
	m := NewModel(config.Default())
	vec, err := m.Validate(rawVector(1.0))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := vec.WeightedSum(); math.Abs(got-8.7) > 1e-9 {
		t.Fatalf("weighted sum = %v, want 8.7", got)
	}
}

func TestTopContribution(t *testing.T) {
	m := NewModel(config.Default())
	raw := rawVector(0.1)
	raw["flat_denial"] = 0.9 // 0.9*1.0 beats 0.1*1.5
	vec, err := m.Validate(raw)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	pos, key := vec.TopContribution()
	if key != "flat_denial" {
		t.Fatalf("top contribution = %s, want flat_denial", key)
	}
	if pos != 2 {
		t.Fatalf("top contribution position = %d, want 2", pos)
	}
}

func TestTopContributionTieResolvesLater(t *testing.T) {
	m := NewModel(config.Default())
	// normalization and substitution share weight 1.2; equal scores tie.
	vec, err := m.Validate(rawVector(0.0))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	pos1, _ := vec.TopContribution()
	pos2, _ := vec.TopContribution()
	if pos1 != pos2 {
		t.Fatalf("tie-break not deterministic: %d vs %d", pos1, pos2)
	}
	if pos1 != 7 {
		t.Fatalf("all-equal contributions should resolve to last position, got %d", pos1)
	}
}

func TestValidateAux(t *testing.T) {
	m := NewModel(config.Default())
	aux, err := m.ValidateAux(map[string]float64{"identity_reference": 0.4})
	if err != nil {
		t.Fatalf("ValidateAux: %v", err)
	}
	if aux["identity_reference"] != 0.4 {
		t.Fatalf("aux value lost: %v", aux)
	}

	if _, err := m.ValidateAux(map[string]float64{"mood": 0.4}); err == nil {
		t.Fatal("expected error for unknown aux key")
	}
	if _, err := m.ValidateAux(map[string]float64{"group_language": 1.5}); err == nil {
		t.Fatal("expected error for out-of-range aux value")
	}
}
