package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/foundercircle/growthengine/internal/domain/model"
)

// MemStore is the in-memory Store implementation. State is partitioned per
// member; events and snapshots are append-only slices ordered by write time,
// so reads copy slices without touching written entries.
type MemStore struct {
	mu sync.RWMutex

	events    map[string][]model.InteractionEvent     // member -> oldest first
	snapshots map[string][]model.FundingScoreSnapshot // member -> oldest first
	streaks   map[string]map[model.StreakType]model.Streak
	tasks     map[string]model.GrowthTask // task id -> task
	byMember  map[string][]string         // member -> task ids, creation order
	members   map[string]model.MemberState
	profiles  map[string]model.BehaviorProfile

	closed bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		events:    make(map[string][]model.InteractionEvent),
		snapshots: make(map[string][]model.FundingScoreSnapshot),
		streaks:   make(map[string]map[model.StreakType]model.Streak),
		tasks:     make(map[string]model.GrowthTask),
		byMember:  make(map[string][]string),
		members:   make(map[string]model.MemberState),
		profiles:  make(map[string]model.BehaviorProfile),
	}
}

func (s *MemStore) AppendEvent(_ context.Context, e model.InteractionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	log := append(s.events[e.MemberID], e)
	// Keep the log ordered by occurrence; backdated events slot in place.
	for i := len(log) - 1; i > 0 && log[i].OccurredAt.Before(log[i-1].OccurredAt); i-- {
		log[i], log[i-1] = log[i-1], log[i]
	}
	s.events[e.MemberID] = log
	return nil
}

func (s *MemStore) RecentEvents(_ context.Context, memberID string, limit int) ([]model.InteractionEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.events[memberID]
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	// newest first
	out := make([]model.InteractionEvent, len(log))
	for i, e := range log {
		out[len(log)-1-i] = e
	}
	return out, nil
}

func (s *MemStore) LastEventAt(_ context.Context, memberID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.events[memberID]
	if len(log) == 0 {
		return time.Time{}, nil
	}
	return log[len(log)-1].OccurredAt, nil
}

func (s *MemStore) AppendSnapshot(_ context.Context, snap model.FundingScoreSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.snapshots[snap.MemberID] = append(s.snapshots[snap.MemberID], snap)
	return nil
}

func (s *MemStore) LatestSnapshot(_ context.Context, memberID string) (model.FundingScoreSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.snapshots[memberID]
	if len(history) == 0 {
		return model.FundingScoreSnapshot{}, fmt.Errorf("snapshot for %s: %w", memberID, ErrNotFound)
	}
	return history[len(history)-1], nil
}

func (s *MemStore) SnapshotHistory(_ context.Context, memberID string, limit int) ([]model.FundingScoreSnapshot, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.snapshots[memberID]
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]model.FundingScoreSnapshot, len(history))
	for i, snap := range history {
		out[len(history)-1-i] = snap
	}
	return out, nil
}

func (s *MemStore) Streaks(_ context.Context, memberID string) (map[model.StreakType]model.Streak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.StreakType]model.Streak, len(s.streaks[memberID]))
	for st, streak := range s.streaks[memberID] {
		out[st] = streak
	}
	return out, nil
}

func (s *MemStore) UpsertStreak(_ context.Context, streak model.Streak) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	rows, ok := s.streaks[streak.MemberID]
	if !ok {
		rows = make(map[model.StreakType]model.Streak, len(model.StreakTypes()))
		s.streaks[streak.MemberID] = rows
	}
	rows[streak.Type] = streak
	return nil
}

func (s *MemStore) OpenTasks(_ context.Context, memberID string) ([]model.GrowthTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.GrowthTask
	for _, id := range s.byMember[memberID] {
		if t := s.tasks[id]; t.Open() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemStore) TasksCompletedSince(_ context.Context, memberID string, since time.Time) ([]model.GrowthTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.GrowthTask
	for _, id := range s.byMember[memberID] {
		t := s.tasks[id]
		if t.CompletedAt != nil && !t.CompletedAt.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemStore) TaskCounts(_ context.Context, memberID string, since time.Time) (assigned, completed int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.byMember[memberID] {
		t := s.tasks[id]
		if !t.CreatedAt.Before(since) {
			assigned++
		}
		if t.CompletedAt != nil && !t.CompletedAt.Before(since) {
			completed++
		}
	}
	return assigned, completed, nil
}

func (s *MemStore) InsertTask(_ context.Context, t model.GrowthTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, id := range s.byMember[t.MemberID] {
		existing := s.tasks[id]
		if existing.Open() && existing.Category == t.Category && existing.TitleKey == t.TitleKey {
			return fmt.Errorf("%s/%s for %s: %w", t.Category, t.TitleKey, t.MemberID, ErrConflict)
		}
	}
	s.tasks[t.ID] = t
	s.byMember[t.MemberID] = append(s.byMember[t.MemberID], t.ID)
	return nil
}

func (s *MemStore) CompleteTask(_ context.Context, taskID, memberID string, at time.Time) (model.GrowthTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.MemberID != memberID {
		return model.GrowthTask{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	if t.CompletedAt != nil {
		return t, nil
	}
	completed := at
	t.CompletedAt = &completed
	s.tasks[taskID] = t
	return t, nil
}

func (s *MemStore) MemberState(_ context.Context, memberID string) (model.MemberState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.members[memberID]
	if !ok {
		return model.MemberState{}, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	return state, nil
}

func (s *MemStore) UpsertMemberState(_ context.Context, state model.MemberState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.members[state.MemberID] = state
	return nil
}

func (s *MemStore) CachedProfile(_ context.Context, memberID string) (model.BehaviorProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[memberID]
	return p, ok
}

func (s *MemStore) CacheProfile(_ context.Context, p model.BehaviorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.profiles[p.MemberID] = p
	return nil
}

func (s *MemStore) MemberCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{}, len(s.members)+len(s.events))
	for id := range s.members {
		ids[id] = struct{}{}
	}
	for id := range s.events {
		ids[id] = struct{}{}
	}
	return len(ids)
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
