// Package history records generated cover letters in a SQLite database so
// earlier applications can be looked up by company.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the database file kept next to the settings file
const FileName = "history.db"

// Entry is one generated document
type Entry struct {
	ID          int64
	RequestID   string
	CreatedAt   time.Time
	Template    string
	Document    string
	CompanyName string
	JobTitle    string
	JobSource   string
	OutputPath  string
	ExportPath  string
}

// Store persists entries in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// DefaultPath returns the database path inside dir
func DefaultPath(dir string) string {
	return filepath.Join(dir, FileName)
}

// Open opens or creates the database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS letters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL,
		template TEXT NOT NULL,
		document TEXT NOT NULL,
		company_name TEXT NOT NULL,
		job_title TEXT NOT NULL,
		job_source TEXT NOT NULL,
		output_path TEXT NOT NULL,
		export_path TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_company ON letters(company_name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_created_at ON letters(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores an entry. A zero CreatedAt is set to the current time.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.RequestID == "" {
		return 0, errors.New("entry has no request id")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO letters (request_id, created_at, template, document, company_name, job_title, job_source, output_path, export_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.CreatedAt.UnixNano(), e.Template, e.Document, e.CompanyName, e.JobTitle, e.JobSource, e.OutputPath, e.ExportPath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	return res.LastInsertId()
}

const selectColumns = "SELECT id, request_id, created_at, template, document, company_name, job_title, job_source, output_path, export_path FROM letters"

// List returns the most recent entries first. A limit of 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + " ORDER BY created_at DESC, id DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// FindByCompany returns the entries for a company, ignoring case, most
// recent first.
func (s *Store) FindByCompany(ctx context.Context, company string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		selectColumns+" WHERE company_name = ? COLLATE NOCASE ORDER BY created_at DESC, id DESC",
		company,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		err := rows.Scan(&e.ID, &e.RequestID, &created, &e.Template, &e.Document,
			&e.CompanyName, &e.JobTitle, &e.JobSource, &e.OutputPath, &e.ExportPath)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
