package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/foundercircle/growthengine/internal/domain/model"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// sqliteTimeLayout is fixed-width so stored timestamps order correctly as
// text. RFC3339Nano trims trailing zeros and breaks lexicographic order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS interaction_events (
	id          TEXT PRIMARY KEY,
	member_id   TEXT NOT NULL,
	type        TEXT NOT NULL,
	payload     TEXT NOT NULL DEFAULT '{}',
	occurred_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_member_time
	ON interaction_events(member_id, occurred_at DESC);

CREATE TABLE IF NOT EXISTS funding_snapshots (
	member_id   TEXT NOT NULL,
	total       INTEGER NOT NULL,
	components  TEXT NOT NULL,
	status      TEXT NOT NULL,
	computed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_member_time
	ON funding_snapshots(member_id, computed_at DESC);

CREATE TABLE IF NOT EXISTS streaks (
	member_id            TEXT NOT NULL,
	streak_type          TEXT NOT NULL,
	current_length       INTEGER NOT NULL,
	last_qualifying_date TEXT NOT NULL,
	PRIMARY KEY (member_id, streak_type)
);

CREATE TABLE IF NOT EXISTS growth_tasks (
	id           TEXT PRIMARY KEY,
	member_id    TEXT NOT NULL,
	category     TEXT NOT NULL,
	title_key    TEXT NOT NULL,
	priority     TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_member ON growth_tasks(member_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_open_unique
	ON growth_tasks(member_id, category, title_key)
	WHERE completed_at IS NULL;

CREATE TABLE IF NOT EXISTS member_states (
	member_id TEXT PRIMARY KEY,
	state     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS behavior_profiles (
	member_id TEXT PRIMARY KEY,
	profile   TEXT NOT NULL
);
`

// SQLiteStore is the persistent Store implementation. It relies on the
// partial unique index on open tasks for the no-duplicate-open-task
// invariant and otherwise mirrors MemStore semantics.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at path and
// applies the schema. Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// Serialized access keeps the upsert paths simple under the per-member
	// locks held above this layer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, e model.InteractionEvent) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interaction_events (id, member_id, type, payload, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.MemberID, string(e.Type), string(payload), e.OccurredAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentEvents(ctx context.Context, memberID string, limit int) ([]model.InteractionEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, member_id, type, payload, occurred_at
		 FROM interaction_events WHERE member_id = ?
		 ORDER BY occurred_at DESC LIMIT ?`, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []model.InteractionEvent
	for rows.Next() {
		var (
			e        model.InteractionEvent
			typ      string
			payload  string
			occurred string
		)
		if err := rows.Scan(&e.ID, &e.MemberID, &typ, &payload, &occurred); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = model.EventType(typ)
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		if e.OccurredAt, err = time.Parse(sqliteTimeLayout, occurred); err != nil {
			return nil, fmt.Errorf("parse occurred_at: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LastEventAt(ctx context.Context, memberID string) (time.Time, error) {
	var occurred sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(occurred_at) FROM interaction_events WHERE member_id = ?`, memberID).Scan(&occurred)
	if err != nil {
		return time.Time{}, fmt.Errorf("query last event: %w", err)
	}
	if !occurred.Valid {
		return time.Time{}, nil
	}
	t, err := time.Parse(sqliteTimeLayout, occurred.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse occurred_at: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) AppendSnapshot(ctx context.Context, snap model.FundingScoreSnapshot) error {
	components, err := json.Marshal(snap.Components)
	if err != nil {
		return fmt.Errorf("encode components: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO funding_snapshots (member_id, total, components, status, computed_at) VALUES (?, ?, ?, ?, ?)`,
		snap.MemberID, snap.Total, string(components), string(snap.Status), snap.ComputedAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, memberID string) (model.FundingScoreSnapshot, error) {
	snaps, err := s.SnapshotHistory(ctx, memberID, 1)
	if err != nil {
		return model.FundingScoreSnapshot{}, err
	}
	if len(snaps) == 0 {
		return model.FundingScoreSnapshot{}, fmt.Errorf("snapshot for %s: %w", memberID, ErrNotFound)
	}
	return snaps[0], nil
}

func (s *SQLiteStore) SnapshotHistory(ctx context.Context, memberID string, limit int) ([]model.FundingScoreSnapshot, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT member_id, total, components, status, computed_at
		 FROM funding_snapshots WHERE member_id = ?
		 ORDER BY computed_at DESC, rowid DESC LIMIT ?`, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.FundingScoreSnapshot
	for rows.Next() {
		var (
			snap       model.FundingScoreSnapshot
			components string
			status     string
			computed   string
		)
		if err := rows.Scan(&snap.MemberID, &snap.Total, &components, &status, &computed); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(components), &snap.Components); err != nil {
			return nil, fmt.Errorf("decode components: %w", err)
		}
		snap.Status = model.FundingStatus(status)
		if snap.ComputedAt, err = time.Parse(sqliteTimeLayout, computed); err != nil {
			return nil, fmt.Errorf("parse computed_at: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Streaks(ctx context.Context, memberID string) (map[model.StreakType]model.Streak, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member_id, streak_type, current_length, last_qualifying_date FROM streaks WHERE member_id = ?`, memberID)
	if err != nil {
		return nil, fmt.Errorf("query streaks: %w", err)
	}
	defer rows.Close()

	out := make(map[model.StreakType]model.Streak)
	for rows.Next() {
		var (
			streak model.Streak
			typ    string
			last   string
		)
		if err := rows.Scan(&streak.MemberID, &typ, &streak.CurrentLength, &last); err != nil {
			return nil, fmt.Errorf("scan streak: %w", err)
		}
		streak.Type = model.StreakType(typ)
		if streak.LastQualifyingDate, err = time.Parse("2006-01-02", last); err != nil {
			return nil, fmt.Errorf("parse last_qualifying_date: %w", err)
		}
		out[streak.Type] = streak
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertStreak(ctx context.Context, streak model.Streak) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO streaks (member_id, streak_type, current_length, last_qualifying_date)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (member_id, streak_type) DO UPDATE SET
		 	current_length = excluded.current_length,
		 	last_qualifying_date = excluded.last_qualifying_date`,
		streak.MemberID, string(streak.Type), streak.CurrentLength, streak.LastQualifyingDate.UTC().Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("upsert streak: %w", err)
	}
	return nil
}

func (s *SQLiteStore) OpenTasks(ctx context.Context, memberID string) ([]model.GrowthTask, error) {
	return s.queryTasks(ctx,
		`SELECT id, member_id, category, title_key, priority, created_at, completed_at
		 FROM growth_tasks WHERE member_id = ? AND completed_at IS NULL ORDER BY created_at`, memberID)
}

func (s *SQLiteStore) TasksCompletedSince(ctx context.Context, memberID string, since time.Time) ([]model.GrowthTask, error) {
	return s.queryTasks(ctx,
		`SELECT id, member_id, category, title_key, priority, created_at, completed_at
		 FROM growth_tasks WHERE member_id = ? AND completed_at >= ? ORDER BY completed_at`,
		memberID, since.UTC().Format(sqliteTimeLayout))
}

func (s *SQLiteStore) queryTasks(ctx context.Context, query string, args ...any) ([]model.GrowthTask, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []model.GrowthTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.GrowthTask, error) {
	var (
		t         model.GrowthTask
		priority  string
		created   string
		completed sql.NullString
	)
	if err := row.Scan(&t.ID, &t.MemberID, &t.Category, &t.TitleKey, &priority, &created, &completed); err != nil {
		return model.GrowthTask{}, fmt.Errorf("scan task: %w", err)
	}
	t.Priority = model.TaskPriority(priority)
	var err error
	if t.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return model.GrowthTask{}, fmt.Errorf("parse created_at: %w", err)
	}
	if completed.Valid {
		at, err := time.Parse(sqliteTimeLayout, completed.String)
		if err != nil {
			return model.GrowthTask{}, fmt.Errorf("parse completed_at: %w", err)
		}
		t.CompletedAt = &at
	}
	return t, nil
}

func (s *SQLiteStore) TaskCounts(ctx context.Context, memberID string, since time.Time) (assigned, completed int, err error) {
	cutoff := since.UTC().Format(sqliteTimeLayout)
	err = s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(CASE WHEN created_at >= ? THEN 1 END),
			COUNT(CASE WHEN completed_at IS NOT NULL AND completed_at >= ? THEN 1 END)
		 FROM growth_tasks WHERE member_id = ?`, cutoff, cutoff, memberID).Scan(&assigned, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", err)
	}
	return assigned, completed, nil
}

func (s *SQLiteStore) InsertTask(ctx context.Context, t model.GrowthTask) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO growth_tasks (id, member_id, category, title_key, priority, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.MemberID, t.Category, t.TitleKey, string(t.Priority), t.CreatedAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		// The partial unique index rejects a second open (category, title key).
		return fmt.Errorf("%s/%s for %s: %w", t.Category, t.TitleKey, t.MemberID, ErrConflict)
	}
	return nil
}

func (s *SQLiteStore) CompleteTask(ctx context.Context, taskID, memberID string, at time.Time) (model.GrowthTask, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE growth_tasks SET completed_at = ? WHERE id = ? AND member_id = ? AND completed_at IS NULL`,
		at.UTC().Format(sqliteTimeLayout), taskID, memberID)
	if err != nil {
		return model.GrowthTask{}, fmt.Errorf("complete task: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, member_id, category, title_key, priority, created_at, completed_at
		 FROM growth_tasks WHERE id = ? AND member_id = ?`, taskID, memberID)
	t, err := scanTask(row)
	if err != nil {
		return model.GrowthTask{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return t, nil
}

func (s *SQLiteStore) MemberState(ctx context.Context, memberID string) (model.MemberState, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM member_states WHERE member_id = ?`, memberID).Scan(&blob)
	if err == sql.ErrNoRows {
		return model.MemberState{}, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	if err != nil {
		return model.MemberState{}, fmt.Errorf("query member state: %w", err)
	}
	var state model.MemberState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return model.MemberState{}, fmt.Errorf("decode member state: %w", err)
	}
	return state, nil
}

func (s *SQLiteStore) UpsertMemberState(ctx context.Context, state model.MemberState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode member state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO member_states (member_id, state) VALUES (?, ?)
		 ON CONFLICT (member_id) DO UPDATE SET state = excluded.state`,
		state.MemberID, string(blob))
	if err != nil {
		return fmt.Errorf("upsert member state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CachedProfile(ctx context.Context, memberID string) (model.BehaviorProfile, bool) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM behavior_profiles WHERE member_id = ?`, memberID).Scan(&blob)
	if err != nil {
		return model.BehaviorProfile{}, false
	}
	var p model.BehaviorProfile
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return model.BehaviorProfile{}, false
	}
	return p, true
}

func (s *SQLiteStore) CacheProfile(ctx context.Context, p model.BehaviorProfile) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO behavior_profiles (member_id, profile) VALUES (?, ?)
		 ON CONFLICT (member_id) DO UPDATE SET profile = excluded.profile`,
		p.MemberID, string(blob))
	if err != nil {
		return fmt.Errorf("cache profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MemberCount(ctx context.Context) int {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (
			SELECT member_id FROM member_states
			UNION
			SELECT member_id FROM interaction_events
		)`).Scan(&n)
	if err != nil {
		return 0
	}
	return n
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
