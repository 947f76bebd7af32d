// Package store is the persistence collaborator the lifecycle assumes: it
// serializes observations to SQLite and provides the per-observation
// check-then-commit atomicity the core requires, via optimistic revision
// numbers. Observations are never physically deleted here.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/commonground/dismissal-detection/go-engine/internal/feature"
	"github.com/commonground/dismissal-detection/go-engine/internal/lifecycle"
	"github.com/commonground/dismissal-detection/go-engine/internal/scoring"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS observations (
	observation_id   TEXT PRIMARY KEY,
	subject_ref      TEXT NOT NULL,
	context_title    TEXT,
	context_notes    TEXT,
	vector_json      TEXT NOT NULL,
	score_json       TEXT NOT NULL,
	status           TEXT NOT NULL,
	guardrail_ack    INTEGER NOT NULL DEFAULT 0,
	tests_json       TEXT NOT NULL,
	stage9_confirmed INTEGER NOT NULL DEFAULT 0,
	rev              INTEGER NOT NULL,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_observations_subject
	ON observations(subject_ref, created_at);

CREATE TABLE IF NOT EXISTS audit_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	observation_id TEXT NOT NULL,
	operation      TEXT NOT NULL,
	decision       TEXT NOT NULL,
	condition_name TEXT,
	reason         TEXT,
	created_at     TEXT NOT NULL
);
`
// #endregion schema

// #region errors

// ErrNotFound reports an unknown observation ID.
var ErrNotFound = errors.New("observation not found")

// ErrRevConflict reports a lost optimistic-concurrency race: the stored
// revision no longer matches the one the caller read. Reload and retry.
var ErrRevConflict = errors.New("observation revision conflict")

// #endregion errors

// #region record

// Record pairs a stored observation with its revision number. The revision
// must be passed back on update.
type Record struct {
	Observation lifecycle.Observation
	Rev         int64
}

// #endregion record

// #region store-struct

// Store manages observations and the audit log in SQLite.
type Store struct {
	db    *sql.DB
	model *feature.Model
}

// NewStore opens a SQLite database, runs migrations, and binds the feature
// model used to rehydrate stored vectors.
func NewStore(dbPath string, model *feature.Model) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, model: model}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. audit).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region insert

// Insert stores a freshly created observation at revision 1.
func (s *Store) Insert(obs lifecycle.Observation) (Record, error) {
	cols, err := encode(obs)
	if err != nil {
		return Record{}, err
	}

	_, err = s.db.Exec(
		`INSERT INTO observations
		 (observation_id, subject_ref, context_title, context_notes, vector_json,
		  score_json, status, guardrail_ack, tests_json, stage9_confirmed, rev,
		  created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		obs.ID, obs.SubjectRef, nullIfEmpty(obs.Context.Title), nullIfEmpty(obs.Context.Notes),
		cols.vectorJSON, cols.scoreJSON, string(obs.Status), boolInt(obs.GuardrailAck),
		cols.testsJSON, boolInt(obs.Stage9Confirmed),
		obs.CreatedAt.Format(time.RFC3339Nano), obs.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert observation: %w", err)
	}
	return Record{Observation: obs, Rev: 1}, nil
}

// #endregion insert

// #region update

// Update commits a mutated observation only when the stored revision still
// matches expectedRev, bumping the revision on success. A mismatch returns
// ErrRevConflict and leaves the row untouched.
func (s *Store) Update(obs lifecycle.Observation, expectedRev int64) (Record, error) {
	cols, err := encode(obs)
	if err != nil {
		return Record{}, err
	}

	res, err := s.db.Exec(
		`UPDATE observations
		 SET score_json = ?, status = ?, guardrail_ack = ?, tests_json = ?,
		     stage9_confirmed = ?, rev = rev + 1, updated_at = ?
		 WHERE observation_id = ? AND rev = ?`,
		cols.scoreJSON, string(obs.Status), boolInt(obs.GuardrailAck), cols.testsJSON,
		boolInt(obs.Stage9Confirmed), obs.UpdatedAt.Format(time.RFC3339Nano),
		obs.ID, expectedRev,
	)
	if err != nil {
		return Record{}, fmt.Errorf("update observation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a missing row from a lost race.
		var exists int
		if err := s.db.QueryRow(
			`SELECT COUNT(*) FROM observations WHERE observation_id = ?`, obs.ID,
		).Scan(&exists); err != nil {
			return Record{}, fmt.Errorf("check observation: %w", err)
		}
		if exists == 0 {
			return Record{}, ErrNotFound
		}
		return Record{}, ErrRevConflict
	}
	return Record{Observation: obs, Rev: expectedRev + 1}, nil
}

// #endregion update

// #region get

// Get retrieves one observation by ID.
func (s *Store) Get(id string) (Record, error) {
	row := s.db.QueryRow(selectColumns+` FROM observations WHERE observation_id = ?`, id)
	rec, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// #endregion get

// #region list

// ListBySubject returns a subject's observations ordered by creation time
// ascending, ready for trend analysis.
func (s *Store) ListBySubject(subjectRef string) ([]Record, error) {
	rows, err := s.db.Query(
		selectColumns+` FROM observations WHERE subject_ref = ? ORDER BY created_at ASC`,
		subjectRef,
	)
	if err != nil {
		return nil, fmt.Errorf("list by subject: %w", err)
	}
	return s.scanAll(rows)
}

// ListRecent returns the most recently created observations, newest first.
func (s *Store) ListRecent(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		selectColumns+` FROM observations ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	return s.scanAll(rows)
}

// ListAll returns every stored observation ordered by creation time
// ascending. Used by the verification tool.
func (s *Store) ListAll() ([]Record, error) {
	rows, err := s.db.Query(selectColumns + ` FROM observations ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list all: %w", err)
	}
	return s.scanAll(rows)
}

// #endregion list

// #region encoding

const selectColumns = `SELECT observation_id, subject_ref, context_title, context_notes,
	vector_json, score_json, status, guardrail_ack, tests_json, stage9_confirmed,
	rev, created_at, updated_at`

type encoded struct {
	vectorJSON string
	scoreJSON  string
	testsJSON  string
}

func encode(obs lifecycle.Observation) (encoded, error) {
	vec, err := json.Marshal(obs.Vector.Map())
	if err != nil {
		return encoded{}, fmt.Errorf("marshal vector: %w", err)
	}
	score, err := json.Marshal(obs.Score)
	if err != nil {
		return encoded{}, fmt.Errorf("marshal score: %w", err)
	}
	tests, err := json.Marshal(obs.Tests)
	if err != nil {
		return encoded{}, fmt.Errorf("marshal tests: %w", err)
	}
	return encoded{
		vectorJSON: string(vec),
		scoreJSON:  string(score),
		testsJSON:  string(tests),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(row rowScanner) (Record, error) {
	var (
		rec        Record
		obs        lifecycle.Observation
		title      sql.NullString
		notes      sql.NullString
		vectorJSON string
		scoreJSON  string
		status     string
		ack        int
		testsJSON  string
		confirmed  int
		createdStr string
		updatedStr string
	)
	err := row.Scan(&obs.ID, &obs.SubjectRef, &title, &notes, &vectorJSON, &scoreJSON,
		&status, &ack, &testsJSON, &confirmed, &rec.Rev, &createdStr, &updatedStr)
	if err != nil {
		return Record{}, err
	}

	obs.Context = lifecycle.Context{Title: title.String, Notes: notes.String}
	obs.Status = lifecycle.Status(status)
	obs.GuardrailAck = ack != 0
	obs.Stage9Confirmed = confirmed != 0

	var raw map[string]float64
	if err := json.Unmarshal([]byte(vectorJSON), &raw); err != nil {
		return Record{}, fmt.Errorf("unmarshal vector: %w", err)
	}
	obs.Vector, err = s.model.Validate(raw)
	if err != nil {
		return Record{}, fmt.Errorf("rehydrate vector for %s: %w", obs.ID, err)
	}

	obs.Score = scoring.Result{}
	if err := json.Unmarshal([]byte(scoreJSON), &obs.Score); err != nil {
		return Record{}, fmt.Errorf("unmarshal score: %w", err)
	}
	if err := json.Unmarshal([]byte(testsJSON), &obs.Tests); err != nil {
		return Record{}, fmt.Errorf("unmarshal tests: %w", err)
	}

	obs.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	obs.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedStr)
	if err != nil {
		return Record{}, fmt.Errorf("parse updated_at: %w", err)
	}

	rec.Observation = obs
	return rec, nil
}

func (s *Store) scanAll(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var records []Record
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion encoding
