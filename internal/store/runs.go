package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RecordRun writes rec in a single transaction and returns the run id. A
// fresh UUID is assigned when rec.Run.ID is empty.
func (s *Store) RecordRun(ctx context.Context, rec *RunRecord) (string, error) {
	if rec == nil {
		return "", errors.New("run record is nil")
	}
	ctx = ensureContext(ctx)
	if rec.Run.ID == "" {
		rec.Run.ID = uuid.NewString()
	}
	rec.Run.Failures = len(rec.Failures)

	err := s.withWriteLock(ctx, func() error {
		return retryOnBusy(ctx, func() error { return s.insertRun(ctx, rec) })
	})
	if err != nil {
		return "", err
	}
	return rec.Run.ID, nil
}

func (s *Store) insertRun(ctx context.Context, rec *RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run := rec.Run
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SessionDir,
		nullableString(run.Participant),
		run.Policy,
		run.Reducer,
		run.SampleRate,
		run.Files,
		run.Failures,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, p := range rec.Profiles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mvc_profiles (run_id, channel, channel_name, value, source, exercise, repetition)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, p.Channel, p.Name, p.Value, p.Source, nullableString(p.Exercise), nullableInt(p.Repetition),
		); err != nil {
			return fmt.Errorf("insert profile channel %d: %w", p.Channel, err)
		}
	}

	for i, a := range rec.Activations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO activations (run_id, seq, exercise, channel, repetition, source, mean, stable_seconds)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, a.Exercise, a.Channel, a.Repetition, a.Source, a.Mean, nullableFloat(a.StableSeconds),
		); err != nil {
			return fmt.Errorf("insert activation %s: %w", a.Source, err)
		}
	}

	for i, f := range rec.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failures (run_id, seq, source, channel, kind, message) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, i, f.Source, f.Channel, f.Kind, f.Message,
		); err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run by id or unique id prefix. It returns nil when
// nothing matches.
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	ctx = ensureContext(ctx)
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, errors.New("run id is empty")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, idOrPrefix)
	run, err := scanRun(row)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`,
		len(idOrPrefix), idOrPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("get run by prefix: %w", err)
	}
	defer rows.Close()
	var matches []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}

// RunProfiles returns the calibration of runID in channel order.
func (s *Store) RunProfiles(ctx context.Context, runID string) ([]ProfileEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel, channel_name, value, source, exercise, repetition
         FROM mvc_profiles WHERE run_id = ? ORDER BY channel`, runID)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []ProfileEntry
	for rows.Next() {
		var (
			p          ProfileEntry
			exercise   sql.NullString
			repetition sql.NullInt64
		)
		if err := rows.Scan(&p.Channel, &p.Name, &p.Value, &p.Source, &exercise, &repetition); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.Exercise = exercise.String
		p.Repetition = int(repetition.Int64)
		out = append(out, p)
	}
	return out, rows.Err()
}

// RunActivations returns the stored activations of runID in insertion order.
func (s *Store) RunActivations(ctx context.Context, runID string) ([]ActivationEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT exercise, channel, repetition, source, mean, stable_seconds
         FROM activations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query activations: %w", err)
	}
	defer rows.Close()

	var out []ActivationEntry
	for rows.Next() {
		var (
			a      ActivationEntry
			stable sql.NullFloat64
		)
		if err := rows.Scan(&a.Exercise, &a.Channel, &a.Repetition, &a.Source, &a.Mean, &stable); err != nil {
			return nil, fmt.Errorf("scan activation: %w", err)
		}
		if stable.Valid {
			v := stable.Float64
			a.StableSeconds = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RunFailures returns the stored failures of runID in insertion order.
func (s *Store) RunFailures(ctx context.Context, runID string) ([]FailureEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, channel, kind, message FROM failures WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []FailureEntry
	for rows.Next() {
		var f FailureEntry
		if err := rows.Scan(&f.Source, &f.Channel, &f.Kind, &f.Message); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteRun removes runID and its children. It reports whether a run existed.
func (s *Store) DeleteRun(ctx context.Context, runID string) (bool, error) {
	ctx = ensureContext(ctx)
	var affected int64
	err := s.withWriteLock(ctx, func() error {
		return retryOnBusy(ctx, func() error {
			tx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()
			for _, table := range []string{"mvc_profiles", "activations", "failures"} {
				if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
					return err
				}
			}
			res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
			if err != nil {
				return err
			}
			if affected, err = res.RowsAffected(); err != nil {
				return err
			}
			return tx.Commit()
		})
	})
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	return affected > 0, nil
}
