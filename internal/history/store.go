package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DefaultFile is the history database name inside the config directory
const DefaultFile = "history.db"

// Entry represents one submitted search
type Entry struct {
	ID           int64
	Library      string
	Backend      string
	QueryParam   string // serialized q parameter
	Expression   string // text form of the query
	ExecutedAt   time.Time
	Duration     time.Duration
	ResultCount  int
	Success      bool
	ErrorMessage string
}

// Store manages search history persistence
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (creating if needed) the history database at path. Use
// ":memory:" for a throwaway store.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Add records a search. A zero ExecutedAt is stamped with the current time.
func (s *Store) Add(ctx context.Context, entry Entry) (int64, error) {
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO search_history
		(library, backend, query_param, expression, executed_at_ms, duration_ms, result_count, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Library,
		entry.Backend,
		entry.QueryParam,
		entry.Expression,
		entry.ExecutedAt.UnixMilli(),
		entry.Duration.Milliseconds(),
		entry.ResultCount,
		entry.Success,
		entry.ErrorMessage,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record search: %w", err)
	}
	return res.LastInsertId()
}

const selectColumns = `
	SELECT id, library, backend, query_param, expression, executed_at_ms,
	       duration_ms, result_count, success, error_message
	FROM search_history`

// GetRecent retrieves the most recent searches
func (s *Store) GetRecent(ctx context.Context, limit int) ([]Entry, error) {
	return s.query(ctx, selectColumns+`
		ORDER BY executed_at_ms DESC, id DESC
		LIMIT ?`, limit)
}

// Search finds searches whose text form or q parameter contains text
func (s *Store) Search(ctx context.Context, text string, limit int) ([]Entry, error) {
	pattern := "%" + escapeLike(text) + "%"
	return s.query(ctx, selectColumns+`
		WHERE expression LIKE ? ESCAPE '\' OR query_param LIKE ? ESCAPE '\'
		ORDER BY executed_at_ms DESC, id DESC
		LIMIT ?`, pattern, pattern, limit)
}

// Prune keeps only the newest keep entries and returns how many were removed
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM search_history
		WHERE id NOT IN (
			SELECT id FROM search_history
			ORDER BY executed_at_ms DESC, id DESC
			LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var executedAtMs, durationMs int64

		err := rows.Scan(
			&e.ID,
			&e.Library,
			&e.Backend,
			&e.QueryParam,
			&e.Expression,
			&executedAtMs,
			&durationMs,
			&e.ResultCount,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}

		e.ExecutedAt = time.UnixMilli(executedAtMs)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
