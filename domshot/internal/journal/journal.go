// CLAUDE:SUMMARY SQLite capture journal: one row per capture attempt, queried by the HTTP and MCP surfaces.
// Package journal persists capture outcomes in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/pagesnap/dbopen"
	"github.com/hazyhaar/pagesnap/domshot/internal/capture"
	"github.com/hazyhaar/pagesnap/domshot/shot"
)

// Schema is the DDL of the journal.
const Schema = `
CREATE TABLE IF NOT EXISTS captures (
    capture_id  TEXT PRIMARY KEY,
    page_id     TEXT NOT NULL,
    page_url    TEXT NOT NULL DEFAULT '',
    format      TEXT NOT NULL,
    target      TEXT NOT NULL DEFAULT '',
    filename    TEXT NOT NULL DEFAULT '',
    sha256      TEXT NOT NULL DEFAULT '',
    bytes       INTEGER NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT '',
    started_at  INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_captures_started
    ON captures(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_captures_page
    ON captures(page_id, started_at DESC);
`

// DefaultLimit caps Recent when Query.Limit is zero.
const DefaultLimit = 50

// Store reads and writes the captures table.
type Store struct {
	db *sql.DB
}

var _ capture.Recorder = (*Store)(nil)

// Options tunes the SQLite connection. Zero values keep dbopen defaults.
type Options struct {
	BusyTimeout time.Duration
	Synchronous string
}

// Open opens (or creates) the journal database at path.
func Open(path string, o Options) (*Store, error) {
	opts := []dbopen.Option{dbopen.WithMkdirAll(), dbopen.WithSchema(Schema)}
	if o.BusyTimeout > 0 {
		opts = append(opts, dbopen.WithBusyTimeout(int(o.BusyTimeout.Milliseconds())))
	}
	if o.Synchronous != "" {
		opts = append(opts, dbopen.WithSynchronous(strings.ToUpper(o.Synchronous)))
	}
	db, err := dbopen.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an open database, applying the schema.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("journal: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts one capture outcome.
func (s *Store) Record(ctx context.Context, e capture.Entry) error {
	_, err := dbopen.Exec(ctx, s.db, `
		INSERT INTO captures (
			capture_id, page_id, page_url, format, target, filename,
			sha256, bytes, error, started_at, duration_ms
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.PageID, e.PageURL, string(e.Format), e.Target, e.Filename,
		e.Hash, e.Bytes, e.Err, e.StartedAt.UnixMilli(), e.DurationMs)
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// Query filters Recent.
type Query struct {
	PageID     string
	FailedOnly bool
	Limit      int
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, q Query) ([]capture.Entry, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT capture_id, page_id, page_url, format, target, filename,
		       sha256, bytes, error, started_at, duration_ms
		FROM captures
		WHERE (? = '' OR page_id = ?)
		  AND (? = 0 OR error != '')
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`,
		q.PageID, q.PageID, boolInt(q.FailedOnly), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []capture.Entry
	for rows.Next() {
		var e capture.Entry
		var format string
		var startedMs int64
		if err := rows.Scan(&e.ID, &e.PageID, &e.PageURL, &format, &e.Target, &e.Filename,
			&e.Hash, &e.Bytes, &e.Err, &startedMs, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Format = shot.Format(format)
		e.StartedAt = time.UnixMilli(startedMs)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats summarises the journal.
type Stats struct {
	Total  int   `json:"total"`
	Failed int   `json:"failed"`
	Bytes  int64 `json:"bytes"`
}

// Stats counts captures, failures and exported bytes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(bytes), 0)
		FROM captures`).Scan(&st.Total, &st.Failed, &st.Bytes)
	if err != nil {
		return Stats{}, fmt.Errorf("journal: stats: %w", err)
	}
	return st, nil
}

// Prune deletes entries started before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := dbopen.Exec(ctx, s.db, `DELETE FROM captures WHERE started_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	return res.RowsAffected()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
