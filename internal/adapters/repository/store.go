// Package repository defines the engine's persistence interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/foundercircle/growthengine/internal/domain/model"
)

// DefaultWindow is how many recent events reads return unless asked
// otherwise.
const DefaultWindow = 100

// Store owns all engine state: the append-only interaction log, funding
// score snapshot history, streak rows, growth tasks, the member-state view,
// and the derived profile cache. Events and snapshots are immutable once
// written; reads on them are safe without external locking.
type Store interface {
	// AppendEvent appends an immutable interaction event.
	AppendEvent(ctx context.Context, e model.InteractionEvent) error

	// RecentEvents returns up to limit events for a member, most recent
	// first. Re-querying returns the same results unless new events arrive.
	RecentEvents(ctx context.Context, memberID string, limit int) ([]model.InteractionEvent, error)

	// LastEventAt returns the timestamp of the member's newest event, zero
	// when the member has no events.
	LastEventAt(ctx context.Context, memberID string) (time.Time, error)

	// AppendSnapshot appends one funding score computation to history.
	AppendSnapshot(ctx context.Context, s model.FundingScoreSnapshot) error

	// LatestSnapshot returns the current score. ErrNotFound when the member
	// has no snapshot history yet.
	LatestSnapshot(ctx context.Context, memberID string) (model.FundingScoreSnapshot, error)

	// SnapshotHistory returns up to limit snapshots, most recent first.
	SnapshotHistory(ctx context.Context, memberID string, limit int) ([]model.FundingScoreSnapshot, error)

	// Streaks returns the member's streak rows keyed by type; absent types
	// have never qualified.
	Streaks(ctx context.Context, memberID string) (map[model.StreakType]model.Streak, error)

	// UpsertStreak writes the single row for (member, streak type).
	UpsertStreak(ctx context.Context, s model.Streak) error

	// OpenTasks returns the member's tasks with no completion timestamp.
	OpenTasks(ctx context.Context, memberID string) ([]model.GrowthTask, error)

	// TasksCompletedSince returns tasks completed at or after since.
	TasksCompletedSince(ctx context.Context, memberID string, since time.Time) ([]model.GrowthTask, error)

	// TaskCounts returns how many tasks were created and completed since
	// the given time.
	TaskCounts(ctx context.Context, memberID string, since time.Time) (assigned, completed int, err error)

	// InsertTask stores a new open task. ErrConflict when an open task with
	// the same (member, category, title key) already exists.
	InsertTask(ctx context.Context, t model.GrowthTask) error

	// CompleteTask marks a task completed. Idempotent: completing an
	// already-completed task returns it unchanged. ErrNotFound for unknown
	// ids or a task owned by a different member.
	CompleteTask(ctx context.Context, taskID, memberID string, at time.Time) (model.GrowthTask, error)

	// MemberState returns the read-only member/business view. ErrNotFound
	// when the profile layer knows nothing about the member.
	MemberState(ctx context.Context, memberID string) (model.MemberState, error)

	// UpsertMemberState replaces the member/business view. The engine only
	// calls this on behalf of the profile collaborator (seeding, tests).
	UpsertMemberState(ctx context.Context, s model.MemberState) error

	// CachedProfile returns the cached behavior profile, if any.
	CachedProfile(ctx context.Context, memberID string) (model.BehaviorProfile, bool)

	// CacheProfile stores a recomputed behavior profile.
	CacheProfile(ctx context.Context, p model.BehaviorProfile) error

	// MemberCount returns the number of members with any recorded state.
	MemberCount(ctx context.Context) int

	// Close releases store resources.
	Close() error
}
