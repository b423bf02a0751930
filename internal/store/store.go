// Package store handles SQLite persistence of comparison results.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/kmerdiff/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for saved comparison rows.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Filter restricts ListRows. Empty fields match everything.
type Filter struct {
	Treatment string
	Alphabet  string
	Since     *time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			saved_at TEXT NOT NULL,
			summary_path TEXT NOT NULL,
			sample TEXT NOT NULL,
			treatment TEXT NOT NULL,
			pore TEXT NOT NULL,
			lab TEXT NOT NULL,
			date TEXT NOT NULL,
			alphabet TEXT NOT NULL,
			UNIQUE (sample, treatment, pore, lab, date, alphabet)
		);`,
		`CREATE TABLE IF NOT EXISTS model_rows (
			run_id INTEGER NOT NULL,
			model TEXT NOT NULL,
			total_events INTEGER NOT NULL,
			total_kmers INTEGER NOT NULL,
			trained_kmers INTEGER NOT NULL,
			d0 INTEGER NOT NULL,
			d1 INTEGER NOT NULL,
			d2 INTEGER NOT NULL,
			d3 INTEGER NOT NULL,
			d4 INTEGER NOT NULL,
			PRIMARY KEY (run_id, model)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_treatment_alphabet ON runs(treatment, alphabet);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores the rows of one training summary, replacing any earlier
// save of the same run.
func (s *Store) SaveRun(ctx context.Context, summaryPath string, run model.RunInfo, rows []model.Row) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM model_rows WHERE run_id IN (
			SELECT id FROM runs WHERE sample = ? AND treatment = ? AND pore = ? AND lab = ? AND date = ? AND alphabet = ?)`,
		run.Sample, run.Treatment, run.Pore, run.Lab, run.Date, run.ShortAlphabet); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM runs WHERE sample = ? AND treatment = ? AND pore = ? AND lab = ? AND date = ? AND alphabet = ?`,
		run.Sample, run.Treatment, run.Pore, run.Lab, run.Date, run.ShortAlphabet); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (saved_at, summary_path, sample, treatment, pore, lab, date, alphabet)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.now().UTC().Format(time.RFC3339Nano),
		summaryPath,
		run.Sample,
		run.Treatment,
		run.Pore,
		run.Lab,
		run.Date,
		run.ShortAlphabet,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(rows) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO model_rows (run_id, model, total_events, total_kmers, trained_kmers, d0, d1, d2, d3, d4)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, r := range rows {
			d := r.DeviationCounts
			if _, err = stmt.ExecContext(ctx, id, r.Model, r.TotalEvents, r.TotalKmers, r.TrainedKmers,
				d[0], d[1], d[2], d[3], d[4]); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRows returns saved rows matching the filter, oldest save first.
func (s *Store) ListRows(ctx context.Context, f Filter) ([]model.Row, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.Treatment != "" {
		clauses = append(clauses, "r.treatment = ?")
		args = append(args, f.Treatment)
	}
	if f.Alphabet != "" {
		clauses = append(clauses, "r.alphabet = ?")
		args = append(args, f.Alphabet)
	}
	if f.Since != nil {
		clauses = append(clauses, "r.saved_at >= ?")
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT r.sample, r.treatment, r.pore, r.lab, r.date, r.alphabet,
			m.model, m.total_events, m.total_kmers, m.trained_kmers, m.d0, m.d1, m.d2, m.d3, m.d4
		FROM model_rows m
		JOIN runs r ON r.id = m.run_id
		WHERE %s
		ORDER BY r.id ASC, m.model ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Row
	for rows.Next() {
		var r model.Row
		d := &r.DeviationCounts
		if err := rows.Scan(&r.Sample, &r.Treatment, &r.Pore, &r.Lab, &r.Date, &r.Alphabet,
			&r.Model, &r.TotalEvents, &r.TotalKmers, &r.TrainedKmers,
			&d[0], &d[1], &d[2], &d[3], &d[4]); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountRuns returns the number of saved runs.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
