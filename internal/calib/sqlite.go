// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calib

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSource serves tables from a calibration database created by Import.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens or creates the calibration database at path and ensures
// the schema exists.
func OpenSQLite(path string) (*SQLiteSource, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLiteSource{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tables (
			name TEXT PRIMARY KEY,
			rows INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			name TEXT NOT NULL REFERENCES tables(name) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			PRIMARY KEY (name, idx)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Table implements Source.
func (s *SQLiteSource) Table(ctx context.Context, name string) (Table, error) {
	var rows int
	err := s.db.QueryRowContext(ctx, `SELECT rows FROM tables WHERE name = ?`, name).Scan(&rows)
	if errors.Is(err, sql.ErrNoRows) {
		return Table{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return Table{}, fmt.Errorf("looking up %s: %w", name, err)
	}

	rs, err := s.db.QueryContext(ctx, `SELECT x, y FROM samples WHERE name = ? ORDER BY idx`, name)
	if err != nil {
		return Table{}, fmt.Errorf("querying %s: %w", name, err)
	}
	defer rs.Close()

	t := Table{Name: name, X: make([]float64, 0, rows), Y: make([]float64, 0, rows)}
	for rs.Next() {
		var x, y float64
		if err := rs.Scan(&x, &y); err != nil {
			return Table{}, fmt.Errorf("scanning %s: %w", name, err)
		}
		t.X = append(t.X, x)
		t.Y = append(t.Y, y)
	}
	if err := rs.Err(); err != nil {
		return Table{}, fmt.Errorf("iterating %s: %w", name, err)
	}
	if t.Len() != rows {
		return Table{}, fmt.Errorf("%s: expected %d rows, read %d", name, rows, t.Len())
	}
	return t, nil
}

// Put stores t, replacing any table with the same name.
func (s *SQLiteSource) Put(ctx context.Context, t Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM samples WHERE name = ?`, t.Name); err != nil {
		return fmt.Errorf("deleting old samples: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tables (name, rows) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET rows=excluded.rows`,
		t.Name, t.Len(),
	); err != nil {
		return fmt.Errorf("upserting table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (name, idx, x, y) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range t.X {
		if _, err := stmt.ExecContext(ctx, t.Name, i, t.X[i], t.Y[i]); err != nil {
			return fmt.Errorf("inserting %s row %d: %w", t.Name, i, err)
		}
	}
	return tx.Commit()
}

// ImportSummary holds counts from an Import run.
type ImportSummary struct {
	Imported int
	Failed   int
}

// Import copies every .dat table from dir into the database, printing one
// status line per table to w.
func (s *SQLiteSource) Import(ctx context.Context, dir DirSource, w io.Writer) (ImportSummary, error) {
	names, err := dir.Names()
	if err != nil {
		return ImportSummary{}, err
	}

	var summary ImportSummary
	for _, name := range names {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		t, err := dir.Table(ctx, name)
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		if err := s.Put(ctx, t); err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "imported %s (%d rows)\n", name, t.Len())
		summary.Imported++
	}

	fmt.Fprintf(w, "\nimported: %d, failed: %d\n", summary.Imported, summary.Failed)
	return summary, nil
}
