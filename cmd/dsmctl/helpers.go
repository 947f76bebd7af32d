package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/commonground/dismissal-detection/go-engine/internal/store"
)

// #region output

// printRecord renders a stored observation as text or JSON.
func printRecord(rec store.Record) error {
	if jsonOut {
		return printJSON(struct {
			Rev int64 `json:"rev"`
			Obs any   `json:"observation"`
		}{Rev: rec.Rev, Obs: rec.Observation})
	}

	obs := rec.Observation
	fmt.Printf("observation %s (rev %d)\n", obs.ID, rec.Rev)
	fmt.Printf("  subject:    %s\n", obs.SubjectRef)
	if obs.Context.Title != "" {
		fmt.Printf("  context:    %s\n", obs.Context.Title)
	}
	fmt.Printf("  status:     %s\n", obs.Status)
	fmt.Printf("  severity:   %.2f (%s)\n", obs.Score.SeverityIndex, obs.Score.Band)
	fmt.Printf("  confidence: %.2f\n", obs.Score.Confidence)
	fmt.Printf("  stage:      %d", obs.Score.StageEstimate)
	if obs.Stage9Confirmed {
		fmt.Printf(" (explicitly confirmed)")
	}
	fmt.Println()
	fmt.Printf("  next test:  %s\n", obs.Score.NextTest)
	ids := make([]string, 0, len(obs.Tests))
	for id := range obs.Tests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := obs.Tests[id]
		note := ""
		if e.Notes != "" {
			note = " / " + e.Notes
		}
		fmt.Printf("  test %-18s %s%s\n", id+":", e.Result, note)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion output

// #region input

// parseScoreMap decodes a JSON object of key -> score.
func parseScoreMap(raw string) (map[string]float64, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]float64
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parse score map %q: %w", raw, err)
	}
	return m, nil
}

// #endregion input
