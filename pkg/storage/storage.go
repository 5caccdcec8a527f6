package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrAbortingChallengeWipe is returned when a sync would remove most of a
// source's challenges at once, which usually means the poller got an
// empty or broken page rather than a real delisting.
var ErrAbortingChallengeWipe = errors.New("refusing to remove most challenges in one sync")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// SQLite allows a single writer. Funnel all connections through one so
	// concurrent poll workers queue instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS challenges (
  id            INTEGER PRIMARY KEY,
  challenge_id  TEXT NOT NULL UNIQUE,
  source        TEXT NOT NULL,
  title         TEXT NOT NULL,
  url           TEXT,
  run_id        INTEGER NOT NULL DEFAULT 0,
  first_seen_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_seen_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_challenges_source ON challenges(source);
CREATE TABLE IF NOT EXISTS challenge_requirements (
  id           INTEGER PRIMARY KEY,
  challenge_id TEXT NOT NULL,
  position     INTEGER NOT NULL,
  title        TEXT NOT NULL,
  rarity_text  TEXT,
  UNIQUE(challenge_id, position)
);
CREATE INDEX IF NOT EXISTS idx_requirements_challenge ON challenge_requirements(challenge_id);
CREATE TABLE IF NOT EXISTS library_cards (
  id          INTEGER PRIMARY KEY,
  card_id     TEXT NOT NULL UNIQUE,
  player_name TEXT NOT NULL,
  play_type   TEXT,
  series      TEXT,
  team        TEXT,
  rarity      TEXT NOT NULL,
  raw_text    TEXT,
  imported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS analyses (
  id             INTEGER PRIMARY KEY,
  analysis_id    TEXT NOT NULL UNIQUE,
  challenge_id   TEXT NOT NULL,
  strategy       TEXT NOT NULL,
  completion_pct INTEGER NOT NULL CHECK (completion_pct BETWEEN 0 AND 100),
  can_complete   INTEGER NOT NULL CHECK (can_complete IN (0,1)),
  result_json    TEXT NOT NULL,
  created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_analyses_challenge ON analyses(challenge_id, created_at);
CREATE TABLE IF NOT EXISTS challenge_changes (
  id           INTEGER PRIMARY KEY,
  occurred_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  challenge_id TEXT NOT NULL,
  source       TEXT NOT NULL,
  title        TEXT NOT NULL,
  change_type  TEXT NOT NULL CHECK (change_type IN ('added','updated','removed'))
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON challenge_changes(occurred_at);
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

// UpsertChallenge writes one challenge and its requirement list, tagging
// the row with runID so SyncSourceChallenges can sweep stale entries
// afterwards. Requirements are replaced wholesale; a challenge whose
// title or requirement set changed produces an "updated" change row.
func (d *DB) UpsertChallenge(ctx context.Context, runID int64, rec ChallengeRecord) ([]Change, error) {
	now := time.Now().UTC()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existingTitle string
	err = tx.QueryRowContext(ctx, "SELECT title FROM challenges WHERE challenge_id = ?", rec.ChallengeID).Scan(&existingTitle)
	existed := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	err = nil

	var changes []Change
	if !existed {
		_, err = tx.ExecContext(ctx, `INSERT INTO challenges(challenge_id, source, title, url, run_id, first_seen_at, last_seen_at) VALUES(?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)`,
			rec.ChallengeID, rec.Source, rec.Title, nullIfEmpty(rec.URL), runID)
		if err != nil {
			return nil, err
		}
		changes = append(changes, Change{OccurredAt: now, ChallengeID: rec.ChallengeID, Source: rec.Source, Title: rec.Title, ChangeType: "added"})
	} else {
		reqChanged, cerr := d.requirementsChanged(ctx, tx, rec)
		if cerr != nil {
			err = cerr
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `UPDATE challenges SET source = ?, title = ?, url = ?, run_id = ?, last_seen_at = CURRENT_TIMESTAMP WHERE challenge_id = ?`,
			rec.Source, rec.Title, nullIfEmpty(rec.URL), runID, rec.ChallengeID)
		if err != nil {
			return nil, err
		}
		if existingTitle != rec.Title || reqChanged {
			changes = append(changes, Change{OccurredAt: now, ChallengeID: rec.ChallengeID, Source: rec.Source, Title: rec.Title, ChangeType: "updated"})
		}
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM challenge_requirements WHERE challenge_id = ?", rec.ChallengeID)
	if err != nil {
		return nil, err
	}
	for _, req := range rec.Requirements {
		_, err = tx.ExecContext(ctx, `INSERT INTO challenge_requirements(challenge_id, position, title, rarity_text) VALUES(?,?,?,?)`,
			rec.ChallengeID, req.Position, req.Title, nullIfEmpty(req.RarityText))
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return changes, nil
}

// requirementsChanged compares the stored requirement list with the
// incoming one.
func (d *DB) requirementsChanged(ctx context.Context, tx *sql.Tx, rec ChallengeRecord) (bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT position, title, COALESCE(rarity_text,'') FROM challenge_requirements WHERE challenge_id = ? ORDER BY position", rec.ChallengeID)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var existing []RequirementRecord
	for rows.Next() {
		var r RequirementRecord
		if err := rows.Scan(&r.Position, &r.Title, &r.RarityText); err != nil {
			return false, err
		}
		existing = append(existing, r)
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	if len(existing) != len(rec.Requirements) {
		return true, nil
	}
	for i, r := range rec.Requirements {
		if existing[i] != r {
			return true, nil
		}
	}
	return false, nil
}

// SyncSourceChallenges removes challenges of a source not seen in the
// given run and logs them as removed. If the sweep would wipe more than
// half of a source with more than 10 challenges, it aborts with
// ErrAbortingChallengeWipe.
func (d *DB) SyncSourceChallenges(ctx context.Context, source string, runID int64) ([]Change, error) {
	now := time.Now().UTC()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var total, stale int
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(run_id != ?),0) FROM challenges WHERE source = ?", runID, source).Scan(&total, &stale); err != nil {
		return nil, err
	}
	if total > 10 && stale*2 > total {
		err = ErrAbortingChallengeWipe
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, "SELECT challenge_id, title FROM challenges WHERE source = ? AND run_id != ?", source, runID)
	if err != nil {
		return nil, err
	}
	type staleChallenge struct{ ID, Title string }
	var toRemove []staleChallenge
	for rows.Next() {
		var s staleChallenge
		if err = rows.Scan(&s.ID, &s.Title); err != nil {
			rows.Close()
			return nil, err
		}
		toRemove = append(toRemove, s)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}

	var changes []Change
	for _, s := range toRemove {
		if _, err = tx.ExecContext(ctx, "DELETE FROM challenges WHERE challenge_id = ?", s.ID); err != nil {
			return nil, err
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM challenge_requirements WHERE challenge_id = ?", s.ID); err != nil {
			return nil, err
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO challenge_changes(occurred_at, challenge_id, source, title, change_type) VALUES(CURRENT_TIMESTAMP, ?, ?, ?, 'removed')`, s.ID, source, s.Title); err != nil {
			return nil, err
		}
		changes = append(changes, Change{OccurredAt: now, ChallengeID: s.ID, Source: source, Title: s.Title, ChangeType: "removed"})
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return changes, nil
}

// LogChanges appends added/updated change rows produced by UpsertChallenge.
func (d *DB) LogChanges(ctx context.Context, changes []Change) error {
	for _, c := range changes {
		if c.ChangeType == "removed" {
			// Removed rows are logged inside SyncSourceChallenges.
			continue
		}
		if _, err := d.sql.ExecContext(ctx, `INSERT INTO challenge_changes(occurred_at, challenge_id, source, title, change_type) VALUES(CURRENT_TIMESTAMP, ?, ?, ?, ?)`,
			c.ChallengeID, c.Source, c.Title, c.ChangeType); err != nil {
			return err
		}
	}
	return nil
}

// GetChallengeCount returns the number of stored challenges for a source.
func (d *DB) GetChallengeCount(ctx context.Context, source string) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM challenges WHERE source = ?", source).Scan(&n)
	return n, err
}

// ListOptions controls selection when listing challenges.
type ListOptions struct {
	Source      string
	TitleFilter string
	Since       time.Time
}

// ListChallenges returns stored challenges with their requirements.
func (d *DB) ListChallenges(ctx context.Context, opts ListOptions) ([]ChallengeRecord, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Source != "" && opts.Source != "all" {
		where += " AND source = ?"
		args = append(args, opts.Source)
	}
	if opts.TitleFilter != "" {
		where += " AND title LIKE ?"
		args = append(args, fmt.Sprintf("%%%s%%", opts.TitleFilter))
	}
	if !opts.Since.IsZero() {
		where += " AND last_seen_at >= ?"
		args = append(args, opts.Since.UTC())
	}

	q := "SELECT challenge_id, source, title, COALESCE(url,'') FROM challenges " + where + " ORDER BY source, challenge_id"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChallengeRecord
	for rows.Next() {
		var rec ChallengeRecord
		if err := rows.Scan(&rec.ChallengeID, &rec.Source, &rec.Title, &rec.URL); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		reqs, err := d.listRequirements(ctx, out[i].ChallengeID)
		if err != nil {
			return nil, err
		}
		out[i].Requirements = reqs
	}
	return out, nil
}

// GetChallenge fetches one challenge by id.
func (d *DB) GetChallenge(ctx context.Context, challengeID string) (ChallengeRecord, error) {
	var rec ChallengeRecord
	err := d.sql.QueryRowContext(ctx, "SELECT challenge_id, source, title, COALESCE(url,'') FROM challenges WHERE challenge_id = ?", challengeID).
		Scan(&rec.ChallengeID, &rec.Source, &rec.Title, &rec.URL)
	if err != nil {
		return rec, err
	}
	rec.Requirements, err = d.listRequirements(ctx, challengeID)
	return rec, err
}

func (d *DB) listRequirements(ctx context.Context, challengeID string) ([]RequirementRecord, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT position, title, COALESCE(rarity_text,'') FROM challenge_requirements WHERE challenge_id = ? ORDER BY position", challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RequirementRecord
	for rows.Next() {
		var r RequirementRecord
		if err := rows.Scan(&r.Position, &r.Title, &r.RarityText); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListRecentChanges returns the most recent N challenge changes.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT occurred_at, challenge_id, source, title, change_type FROM challenge_changes ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var occurredAtStr string
		if err := rows.Scan(&occurredAtStr, &c.ChallengeID, &c.Source, &c.Title, &c.ChangeType); err != nil {
			return nil, err
		}
		c.OccurredAt = parseSQLiteTime(occurredAtStr)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// GetStats aggregates totals per source.
func (d *DB) GetStats(ctx context.Context) ([]SourceStats, error) {
	query := `
		SELECT
			c.source,
			COUNT(DISTINCT c.challenge_id),
			COUNT(r.id)
		FROM
			challenges c
			LEFT JOIN challenge_requirements r ON r.challenge_id = c.challenge_id
		GROUP BY
			c.source
		ORDER BY
			c.source;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SourceStats
	for rows.Next() {
		var s SourceStats
		if err := rows.Scan(&s.Source, &s.ChallengeCount, &s.RequirementCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// parseSQLiteTime handles both CURRENT_TIMESTAMP and RFC3339 formats.
func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
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
