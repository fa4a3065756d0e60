package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

// Run is one batch validation recorded in the catalog.
type Run struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Source    string    `json:"source"`
	Routing   string    `json:"routing"`
	StartedAt time.Time `json:"started_at"`
}

// InstanceRecord is the outcome of validating one instance in a run.
type InstanceRecord struct {
	RunID       string `json:"run_id"`
	Seq         int64  `json:"seq"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Stages      int    `json:"stages"`
	Machines    int    `json:"machines"`
	Casts       int    `json:"casts"`
	Charges     int    `json:"charges"`
	Valid       bool   `json:"valid"`
	ErrorCode   string `json:"error_code,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BeginRun starts a new run. Run ids are UUIDv7 so they sort by creation.
func (s *Store) BeginRun(ctx context.Context, source, routing string) (Run, error) {
	run := Run{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Source:    source,
		Routing:   routing,
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO runs (id, seq, source, routing, started_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?)
		RETURNING seq
	`, run.ID, run.Source, run.Routing, run.StartedAt.Format(time.RFC3339)).Scan(&run.Seq)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

// RecordInstance stores the outcome for one instance. seq is assigned by
// insertion order within the run.
func (s *Store) RecordInstance(ctx context.Context, rec InstanceRecord) error {
	return insertInstance(ctx, s.db, rec)
}

// RecordViolations stores the violations of an instance in one transaction.
// The instance must have been recorded first.
func (s *Store) RecordViolations(ctx context.Context, runID, name string, vs []instance.Violation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record violations: %w", err)
	}
	defer tx.Rollback()

	if err := insertViolations(ctx, tx, runID, name, vs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record violations: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func insertInstance(ctx context.Context, db execer, rec InstanceRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO instances
		(run_id, seq, name, fingerprint, stages, machines, casts, charges, valid, error_code, error)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM instances WHERE run_id = ?), ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RunID,
		rec.RunID,
		rec.Name,
		rec.Fingerprint,
		rec.Stages,
		rec.Machines,
		rec.Casts,
		rec.Charges,
		rec.Valid,
		rec.ErrorCode,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("record instance %s: %w", rec.Name, err)
	}
	return nil
}

func insertViolations(ctx context.Context, db execer, runID, name string, vs []instance.Violation) error {
	if len(vs) == 0 {
		return nil
	}
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO violations
		(run_id, instance, seq, code, file, cast_id, charge, stage, machine, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("record violations: %w", err)
	}
	defer stmt.Close()

	for i, v := range vs {
		if _, err := stmt.ExecContext(ctx, runID, name, i+1, v.Code, string(v.File), v.Cast, v.Charge, v.Stage, v.Machine, v.Message); err != nil {
			return fmt.Errorf("record violation %d of %s: %w", i+1, name, err)
		}
	}
	return nil
}

// RecordOutcome stores the result of loading one instance: sizes and
// fingerprint on success, the error code and any violations on failure.
func (s *Store) RecordOutcome(ctx context.Context, runID, name string, inst *instance.Instance, loadErr error) (InstanceRecord, error) {
	rec := InstanceRecord{RunID: runID, Name: name, Valid: loadErr == nil}

	var violations []instance.Violation
	switch {
	case loadErr == nil:
		fp, err := inst.Fingerprint()
		if err != nil {
			return rec, err
		}
		rec.Fingerprint = fp
		rec.Stages = len(inst.Stages())
		rec.Machines = inst.MachineCount()
		rec.Casts = len(inst.CastIDs())
		rec.Charges = len(inst.Charges())
	default:
		rec.Error = loadErr.Error()
		var perr *instance.ParseError
		var rerr *instance.ReferentialIntegrityError
		switch {
		case errors.As(loadErr, &perr):
			rec.ErrorCode = perr.Code
		case errors.As(loadErr, &rerr) && len(rerr.Violations) > 0:
			rec.ErrorCode = rerr.Violations[0].Code
			violations = rerr.Violations
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("record outcome %s: %w", name, err)
	}
	defer tx.Rollback()

	if err := insertInstance(ctx, tx, rec); err != nil {
		return rec, err
	}
	if err := insertViolations(ctx, tx, runID, name, violations); err != nil {
		return rec, err
	}
	if err := tx.Commit(); err != nil {
		return rec, fmt.Errorf("record outcome %s: %w", name, err)
	}
	return rec, nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, source, routing, started_at FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// LatestRun returns the run with the highest seq.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, source, routing, started_at FROM runs ORDER BY seq DESC LIMIT 1
	`)
	return scanRun(row)
}

func scanRun(row *sql.Row) (Run, error) {
	var run Run
	var started string
	if err := row.Scan(&run.ID, &run.Seq, &run.Source, &run.Routing, &started); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run: %w", ErrNotFound)
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(time.RFC3339, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", started, err)
	}
	run.StartedAt = t
	return run, nil
}

// ListInstances returns the instances of a run in recording order.
// Returns an empty slice (not nil) when the run has none.
func (s *Store) ListInstances(ctx context.Context, runID string) ([]InstanceRecord, error) {
	return s.queryInstances(ctx, `
		SELECT run_id, seq, name, fingerprint, stages, machines, casts, charges, valid, error_code, error
		FROM instances
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// FindByFingerprint returns every recorded instance with the given content
// fingerprint, oldest run first.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]InstanceRecord, error) {
	return s.queryInstances(ctx, `
		SELECT i.run_id, i.seq, i.name, i.fingerprint, i.stages, i.machines, i.casts, i.charges, i.valid, i.error_code, i.error
		FROM instances i JOIN runs r ON r.id = i.run_id
		WHERE i.fingerprint = ?
		ORDER BY r.seq ASC, i.seq ASC
	`, fingerprint)
}

func (s *Store) queryInstances(ctx context.Context, query string, args ...any) ([]InstanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	records := []InstanceRecord{}
	for rows.Next() {
		var rec InstanceRecord
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Name, &rec.Fingerprint, &rec.Stages, &rec.Machines,
			&rec.Casts, &rec.Charges, &rec.Valid, &rec.ErrorCode, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return records, nil
}

// ListViolations returns the violations of one instance in a run.
func (s *Store) ListViolations(ctx context.Context, runID, name string) ([]instance.Violation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, file, cast_id, charge, stage, machine, message
		FROM violations
		WHERE run_id = ? AND instance = ?
		ORDER BY seq ASC
	`, runID, name)
	if err != nil {
		return nil, fmt.Errorf("query violations: %w", err)
	}
	defer rows.Close()

	vs := []instance.Violation{}
	for rows.Next() {
		var v instance.Violation
		var file string
		if err := rows.Scan(&v.Code, &file, &v.Cast, &v.Charge, &v.Stage, &v.Machine, &v.Message); err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		v.File = instance.FileKind(file)
		vs = append(vs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate violations: %w", err)
	}
	return vs, nil
}
