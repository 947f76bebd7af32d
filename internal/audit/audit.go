// Package audit records every lifecycle decision, accepted or rejected, in
// the audit_log table. The workflow's value is that nothing is silent: a
// refused transition leaves the same kind of trace as a committed one, with
// the violated condition name verbatim.
package audit

import (
	"database/sql"
	"fmt"
	"time"
)

// #region types

// Decision classifies the outcome of a lifecycle operation.
type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// Entry is a single row in the audit_log table.
type Entry struct {
	ObservationID string
	Operation     string // "observe" | "record_tests" | "finalize" | "confirm_stage9"
	Decision      Decision
	Condition     string // violated guardrail/state condition, empty when accepted
	Reason        string
	CreatedAt     time.Time
}

// #endregion types

// #region log

// Log appends an audit entry.
func Log(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO audit_log (observation_id, operation, decision, condition_name, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ObservationID,
		entry.Operation,
		string(entry.Decision),
		nullIfEmpty(entry.Condition),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

// #endregion log

// #region queries

// ForObservation returns an observation's audit trail, oldest first.
func ForObservation(db *sql.DB, observationID string) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT observation_id, operation, decision, condition_name, reason, created_at
		 FROM audit_log WHERE observation_id = ? ORDER BY id ASC`,
		observationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", err)
	}
	return scanEntries(rows)
}

// Recent returns the most recent audit entries, newest first.
func Recent(db *sql.DB, limit int) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT observation_id, operation, decision, condition_name, reason, created_at
		 FROM audit_log ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent audit entries: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			condition  sql.NullString
			reason     sql.NullString
			createdStr string
		)
		if err := rows.Scan(&e.ObservationID, &e.Operation, (*string)(&e.Decision),
			&condition, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.Condition = condition.String
		e.Reason = reason.String
		var err error
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			return nil, fmt.Errorf("parse audit timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion queries

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
