package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/resolve"
)

// ErrEmptyQuery is returned when recording a lookup without a query.
var ErrEmptyQuery = errors.New("empty query")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS lookups (
  id               INTEGER PRIMARY KEY,
  occurred_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  query            TEXT NOT NULL,
  query_normalized TEXT NOT NULL,
  source_url       TEXT,
  record_count     INTEGER NOT NULL DEFAULT 0,
  hit_count        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_lookups_time ON lookups(occurred_at);
CREATE INDEX IF NOT EXISTS idx_lookups_query ON lookups(query_normalized);
CREATE TABLE IF NOT EXISTS lookup_hits (
  id          INTEGER PRIMARY KEY,
  lookup_id   INTEGER NOT NULL REFERENCES lookups(id) ON DELETE CASCADE,
  record_key  TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  name        TEXT NOT NULL,
  platform_id TEXT NOT NULL,
  entity_id   TEXT
);
CREATE INDEX IF NOT EXISTS idx_hits_lookup ON lookup_hits(lookup_id);
CREATE INDEX IF NOT EXISTS idx_hits_platform ON lookup_hits(platform_id);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// RecordLookup stores a lookup and one hit per platform contribution of records.
func (d *DB) RecordLookup(ctx context.Context, query, sourceURL string, records []resolve.Record) (id int64, err error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return 0, ErrEmptyQuery
	}

	hits := 0
	for _, r := range records {
		hits += len(r.Contributions)
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO lookups(occurred_at, query, query_normalized, source_url, record_count, hit_count) VALUES(?,?,?,?,?,?)`,
		time.Now().UTC().Format(timeLayout), query, normalized, nullIfEmpty(NormalizeSourceURL(sourceURL)), len(records), hits)
	if err != nil {
		return 0, err
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, err
	}

	for _, r := range records {
		for _, c := range r.Contributions {
			_, err = tx.ExecContext(ctx, `INSERT INTO lookup_hits(lookup_id, record_key, entity_type, name, platform_id, entity_id) VALUES(?,?,?,?,?,?)`,
				id, r.Key, c.Match.Type, c.Match.RepresentativeName(), c.PlatformID, nullIfEmpty(c.Match.EntityID))
			if err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRecentLookups returns the most recent N lookups.
func (d *DB) ListRecentLookups(ctx context.Context, limit int) ([]Lookup, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT id, occurred_at, query, source_url, record_count, hit_count FROM lookups ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lookups := []Lookup{}
	for rows.Next() {
		var l Lookup
		var occurredAtStr string
		var source sql.NullString
		if err := rows.Scan(&l.ID, &occurredAtStr, &l.Query, &source, &l.RecordCount, &l.HitCount); err != nil {
			return nil, err
		}
		l.OccurredAt = parseTime(occurredAtStr)
		l.SourceURL = source.String
		lookups = append(lookups, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lookups, nil
}

// ListHits returns the hits recorded for a lookup.
func (d *DB) ListHits(ctx context.Context, lookupID int64) ([]Hit, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT lookup_id, record_key, entity_type, name, platform_id, entity_id FROM lookup_hits WHERE lookup_id = ? ORDER BY id", lookupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var h Hit
		var entityID sql.NullString
		if err := rows.Scan(&h.LookupID, &h.RecordKey, &h.EntityType, &h.Name, &h.PlatformID, &entityID); err != nil {
			return nil, err
		}
		h.EntityID = entityID.String
		out = append(out, h)
	}
	return out, rows.Err()
}

func (d *DB) GetStats(ctx context.Context) ([]PlatformStats, error) {
	query := `
		SELECT
			platform_id,
			COUNT(DISTINCT lookup_id),
			COUNT(*),
			COUNT(DISTINCT record_key)
		FROM
			lookup_hits
		GROUP BY
			platform_id
		ORDER BY
			platform_id;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PlatformStats
	for rows.Next() {
		var s PlatformStats
		if err := rows.Scan(&s.Platform, &s.LookupCount, &s.HitCount, &s.DistinctEntity); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

const timeLayout = "2006-01-02 15:04:05"

// parseTime accepts SQLite's CURRENT_TIMESTAMP format and RFC3339.
func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
