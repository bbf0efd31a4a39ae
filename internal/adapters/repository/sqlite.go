package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/strokeheat/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS scripts (
	id           TEXT PRIMARY KEY,
	digest       TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	creator      TEXT NOT NULL DEFAULT '',
	tags         TEXT NOT NULL DEFAULT '[]',
	duration_ms  INTEGER NOT NULL,
	action_count INTEGER NOT NULL,
	avg_speed    REAL NOT NULL,
	actions      TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scripts_rank ON scripts (avg_speed DESC, id ASC);
CREATE INDEX IF NOT EXISTS idx_scripts_digest ON scripts (digest);
`

const selectColumns = `id, digest, title, creator, tags, duration_ms, action_count, avg_speed, actions, created_at`

// SQLiteStore is a Store persisted in a SQLite database file.
type SQLiteStore struct {
	db            *sql.DB
	maxOpenConns  int
	busyTimeoutMS int
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{maxOpenConns: 4, busyTimeoutMS: 5000}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, s.busyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxOpenConns)
	s.db = db

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}

	if n, err := s.Count(ctx); err == nil {
		metrics.UpdateLibrarySize(n)
	}
	return s, nil
}

// Put inserts or replaces a record.
func (s *SQLiteStore) Put(ctx context.Context, r Record) error {
	if r.ID == "" {
		return ErrInvalidID
	}
	start := time.Now()
	defer func() {
		metrics.RecordLibraryWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	tags, err := json.Marshal(nonNil(r.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	actions, err := json.Marshal(r.Actions)
	if err != nil {
		return fmt.Errorf("encode actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scripts (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			digest = excluded.digest,
			title = excluded.title,
			creator = excluded.creator,
			tags = excluded.tags,
			duration_ms = excluded.duration_ms,
			action_count = excluded.action_count,
			avg_speed = excluded.avg_speed,
			actions = excluded.actions,
			created_at = excluded.created_at`,
		r.ID, r.Digest, r.Title, r.Creator, string(tags),
		r.Stats.DurationMS, r.Stats.ActionCount, r.Stats.AverageSpeed,
		string(actions), r.CreatedAt.UnixNano(),
	)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		return fmt.Errorf("put %s: %w", r.ID, err)
	}

	if n, err := s.Count(ctx); err == nil {
		metrics.UpdateLibrarySize(n)
	}
	return nil
}

// Get returns a record with its rank.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLibraryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`,
			(SELECT COUNT(*) FROM scripts f WHERE f.avg_speed > s.avg_speed) + 1
		FROM scripts s WHERE id = ?`, id)

	var r Record
	var rank int
	if err := scanRecord(row, &r, &rank); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.RecordErrorByComponent("repository", "not_found")
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Record{}, fmt.Errorf("get %s: %w", id, err)
	}
	r.Rank = rank
	return r, nil
}

// TopN returns the n fastest records.
func (s *SQLiteStore) TopN(ctx context.Context, n int) ([]Record, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	start := time.Now()
	defer func() {
		metrics.RecordLibraryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM scripts ORDER BY avg_speed DESC, id ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("top %d: %w", n, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := scanRecord(rows, &r); err != nil {
			return nil, fmt.Errorf("top %d: %w", n, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top %d: %w", n, err)
	}
	assignRanks(out)
	return out, nil
}

// Count returns the number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scripts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner, r *Record, extra ...any) error {
	var tags, actions string
	var created int64
	dest := []any{
		&r.ID, &r.Digest, &r.Title, &r.Creator, &tags,
		&r.Stats.DurationMS, &r.Stats.ActionCount, &r.Stats.AverageSpeed,
		&actions, &created,
	}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(actions), &r.Actions); err != nil {
		return fmt.Errorf("decode actions: %w", err)
	}
	if len(r.Tags) == 0 {
		r.Tags = nil
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	return nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

var _ Store = (*SQLiteStore)(nil)
var _ Store = (*MemoryStore)(nil)
