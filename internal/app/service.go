// Package service provides the core engine service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	refreshqueue "github.com/foundercircle/growthengine/internal/adapters/mq/queue"
	workerpool "github.com/foundercircle/growthengine/internal/adapters/mq/worker"
	"github.com/foundercircle/growthengine/internal/adapters/repository"
	"github.com/foundercircle/growthengine/internal/domain/behavior"
	"github.com/foundercircle/growthengine/internal/domain/dedupe"
	"github.com/foundercircle/growthengine/internal/domain/model"
	"github.com/foundercircle/growthengine/internal/domain/score"
	"github.com/foundercircle/growthengine/internal/domain/streak"
	"github.com/foundercircle/growthengine/internal/domain/suggest"
	"github.com/foundercircle/growthengine/internal/domain/tasks"
	"github.com/foundercircle/growthengine/internal/domain/types"
	"github.com/foundercircle/growthengine/pkg/logger"
	"github.com/foundercircle/growthengine/pkg/metrics"
)

// completionWindow is how far back the profile's task completion rate
// looks when counting assigned and completed tasks.
const completionWindow = 30 * 24 * time.Hour

// scorePostingWindow bounds the recent-post count fed into the funding
// score's posting component.
const scorePostingWindow = 7 * 24 * time.Hour

// Service implements the API dependencies for the growth engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        repository.Store
	deduper      dedupe.Deduper
	refreshQueue refreshqueue.Queue
	analyzer     *behavior.Analyzer
	calculator   *score.Calculator
	generator    *tasks.Generator
	pool         *workerpool.Pool
	locks        *memberLocks

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	windowSize  int
	scoreOpts   []score.Option
	taskOpts    []tasks.Option
	now         func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of refresh worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the profile refresh queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the event deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithWindowSize sets how many recent events analysis reads consider.
func WithWindowSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.windowSize = size
		}
	}
}

// WithScoreOptions forwards options to the funding score calculator.
func WithScoreOptions(opts ...score.Option) Option {
	return func(s *Service) {
		s.scoreOpts = append(s.scoreOpts, opts...)
	}
}

// WithTaskOptions forwards options to the growth task generator.
func WithTaskOptions(opts ...tasks.Option) Option {
	return func(s *Service) {
		s.taskOpts = append(s.taskOpts, opts...)
	}
}

// WithClock sets the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10000,
		dedupeSize:  50000,
		windowSize:  repository.DefaultWindow,
		now:         time.Now,
		locks:       newMemberLocks(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.refreshQueue = refreshqueue.NewInMemoryQueue(
		refreshqueue.WithCapacity(s.queueSize),
	)
	s.analyzer = behavior.New()
	s.calculator = score.New(s.scoreOpts...)
	s.generator = tasks.New(s.taskOpts...)

	s.pool = workerpool.NewPool(s.workerCount, s.refreshQueue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "growth engine service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("windowSize", s.windowSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping growth engine service...")

	if s.pool != nil {
		s.pool.Stop()
	}
	if s.refreshQueue != nil {
		_ = s.refreshQueue.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "growth engine service stopped")
}

// Track ingests one interaction event. The append and the streak update
// happen under the member's lock; profile and score refresh runs
// asynchronously afterwards.
func (s *Service) Track(ctx context.Context, eventID, memberID, eventType string, payload map[string]string, occurredAt time.Time) (string, bool, error) {
	t := model.EventType(eventType)
	if !t.Valid() {
		metrics.RecordEventRejected()
		return "", false, fmt.Errorf("%w: unknown event type %q", model.ErrValidation, eventType)
	}
	if memberID == "" {
		metrics.RecordEventRejected()
		return "", false, fmt.Errorf("%w: missing member id", model.ErrValidation)
	}

	if eventID == "" {
		eventID = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, eventID) {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate event skipped",
			logger.String("eventID", eventID),
			logger.String("memberID", memberID),
		)
		return eventID, true, nil
	}

	if occurredAt.IsZero() {
		occurredAt = s.now()
	}
	e := model.InteractionEvent{
		ID:         eventID,
		MemberID:   memberID,
		Type:       t,
		Payload:    payload,
		OccurredAt: occurredAt,
	}

	unlock := s.locks.Lock(memberID)
	err := s.ingest(ctx, e)
	unlock()
	if err != nil {
		// Let the caller retry the same event id.
		s.deduper.Unrecord(ctx, eventID)
		return "", false, err
	}

	metrics.RecordEventTracked()
	s.enqueueRefresh(ctx, memberID, eventType)
	return eventID, false, nil
}

// ingest appends the event and advances qualifying streaks. The caller must
// hold the member's lock.
func (s *Service) ingest(ctx context.Context, e model.InteractionEvent) error {
	if err := s.store.AppendEvent(ctx, e); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return s.advanceStreaks(ctx, e)
}

func (s *Service) advanceStreaks(ctx context.Context, e model.InteractionEvent) error {
	qualifying := streak.Qualifying(e.Type)
	if len(qualifying) == 0 {
		return nil
	}

	rows, err := s.store.Streaks(ctx, e.MemberID)
	if err != nil {
		return fmt.Errorf("load streaks: %w", err)
	}
	for _, st := range qualifying {
		cur, ok := rows[st]
		if !ok {
			cur = model.Streak{MemberID: e.MemberID, Type: st}
		}
		next := streak.Advance(cur, e.OccurredAt)
		if next.CurrentLength == cur.CurrentLength && next.LastQualifyingDate.Equal(cur.LastQualifyingDate) {
			continue
		}
		if err := s.store.UpsertStreak(ctx, next); err != nil {
			return fmt.Errorf("upsert streak: %w", err)
		}
		metrics.RecordStreakAdvance(string(st))
	}
	return nil
}

func (s *Service) enqueueRefresh(ctx context.Context, memberID, reason string) {
	j := refreshqueue.Job{MemberID: memberID, Reason: reason, EnqueuedAt: s.now()}
	if !s.refreshQueue.Enqueue(ctx, j) {
		// Reads recompute on a stale watermark, so a dropped refresh only
		// delays the cached snapshot.
		s.logger.Debug(ctx, "refresh job dropped",
			logger.String("memberID", memberID),
			logger.String("reason", reason),
		)
	}
}

// Refresh recomputes and caches the member's profile and funding score.
// It is the callback the refresh worker pool drives.
func (s *Service) Refresh(ctx context.Context, memberID string) error {
	if _, err := s.computeProfile(ctx, memberID); err != nil {
		return err
	}
	_, err := s.computeScore(ctx, memberID)
	return err
}

// BehaviorProfile returns the member's behavior profile, recomputing it when
// the cached copy predates the newest event.
func (s *Service) BehaviorProfile(ctx context.Context, memberID string) (types.BehaviorProfile, error) {
	p, err := s.profile(ctx, memberID)
	if err != nil {
		return types.BehaviorProfile{}, err
	}
	return types.FromProfile(p), nil
}

func (s *Service) profile(ctx context.Context, memberID string) (model.BehaviorProfile, error) {
	lastEvent, err := s.store.LastEventAt(ctx, memberID)
	if err != nil {
		return model.BehaviorProfile{}, fmt.Errorf("last event: %w", err)
	}
	if cached, ok := s.store.CachedProfile(ctx, memberID); ok && !cached.ComputedAt.Before(lastEvent) {
		return cached, nil
	}
	return s.computeProfile(ctx, memberID)
}

func (s *Service) computeProfile(ctx context.Context, memberID string) (model.BehaviorProfile, error) {
	events, err := s.store.RecentEvents(ctx, memberID, s.windowSize)
	if err != nil {
		return model.BehaviorProfile{}, fmt.Errorf("recent events: %w", err)
	}
	now := s.now()
	assigned, completed, err := s.store.TaskCounts(ctx, memberID, now.Add(-completionWindow))
	if err != nil {
		return model.BehaviorProfile{}, fmt.Errorf("task counts: %w", err)
	}

	p := s.analyzer.Analyze(memberID, events, behavior.TaskHistory{Assigned: assigned, Completed: completed}, now)
	if err := s.store.CacheProfile(ctx, p); err != nil {
		return model.BehaviorProfile{}, fmt.Errorf("cache profile: %w", err)
	}
	metrics.RecordProfileComputation()
	return p, nil
}

// ComputeScore recomputes the funding score from current inputs and appends
// the snapshot to history.
func (s *Service) ComputeScore(ctx context.Context, memberID string) (types.FundingScore, error) {
	snap, err := s.computeScore(ctx, memberID)
	if err != nil {
		return types.FundingScore{}, err
	}
	return types.FromSnapshot(snap), nil
}

func (s *Service) computeScore(ctx context.Context, memberID string) (model.FundingScoreSnapshot, error) {
	member, err := s.memberState(ctx, memberID)
	if err != nil {
		return model.FundingScoreSnapshot{}, err
	}

	now := s.now()
	weekly, err := s.recentPosts(ctx, memberID, now)
	if err != nil {
		return model.FundingScoreSnapshot{}, err
	}

	snap := s.calculator.Compute(score.Input{Member: member, WeeklyPosts: weekly}, now)
	if err := s.store.AppendSnapshot(ctx, snap); err != nil {
		return model.FundingScoreSnapshot{}, fmt.Errorf("append snapshot: %w", err)
	}
	metrics.RecordScoreComputation()
	return snap, nil
}

// memberState loads the read-only member view, falling back to a zero state
// when the profile layer knows nothing about the member yet.
func (s *Service) memberState(ctx context.Context, memberID string) (model.MemberState, error) {
	member, err := s.store.MemberState(ctx, memberID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.MemberState{MemberID: memberID}, nil
	case err != nil:
		return model.MemberState{}, fmt.Errorf("member state: %w", err)
	}
	return member, nil
}

func (s *Service) recentPosts(ctx context.Context, memberID string, now time.Time) (int, error) {
	events, err := s.store.RecentEvents(ctx, memberID, s.windowSize)
	if err != nil {
		return 0, fmt.Errorf("recent events: %w", err)
	}
	cutoff := now.Add(-scorePostingWindow)
	n := 0
	for _, e := range events {
		if e.Type == model.EventPostCreated && !e.OccurredAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

// LatestScore returns the most recent snapshot, computing the first one for
// members with no history.
func (s *Service) LatestScore(ctx context.Context, memberID string) (types.FundingScore, error) {
	snap, err := s.latestOrCompute(ctx, memberID)
	if err != nil {
		return types.FundingScore{}, err
	}
	return types.FromSnapshot(snap), nil
}

func (s *Service) latestOrCompute(ctx context.Context, memberID string) (model.FundingScoreSnapshot, error) {
	snap, err := s.store.LatestSnapshot(ctx, memberID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return s.computeScore(ctx, memberID)
	case err != nil:
		return model.FundingScoreSnapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

// ScoreHistory returns up to limit snapshots, most recent first.
func (s *Service) ScoreHistory(ctx context.Context, memberID string, limit int) ([]types.FundingScore, error) {
	snaps, err := s.store.SnapshotHistory(ctx, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("snapshot history: %w", err)
	}
	out := make([]types.FundingScore, 0, len(snaps))
	for _, sn := range snaps {
		out = append(out, types.FromSnapshot(sn))
	}
	return out, nil
}

// Tasks materializes due growth tasks for the member and returns the open
// set ordered by priority. Materialization runs under the member's lock so
// concurrent calls never create duplicate open tasks.
func (s *Service) Tasks(ctx context.Context, memberID string) ([]types.GrowthTask, error) {
	in, err := s.taskInput(ctx, memberID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	unlock := s.locks.Lock(memberID)
	defer unlock()

	open, err := s.store.OpenTasks(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("open tasks: %w", err)
	}
	recent, err := s.store.TasksCompletedSince(ctx, memberID, now.Add(-s.generator.Cooldown()))
	if err != nil {
		return nil, fmt.Errorf("completed tasks: %w", err)
	}

	for _, c := range s.generator.Candidates(in, open, recent, now) {
		t := model.GrowthTask{
			ID:        uuid.NewString(),
			MemberID:  memberID,
			Category:  c.Category,
			TitleKey:  c.TitleKey,
			Priority:  c.Priority,
			CreatedAt: now,
		}
		if err := s.store.InsertTask(ctx, t); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				// Another writer already materialized this rule.
				continue
			}
			return nil, fmt.Errorf("insert task: %w", err)
		}
		metrics.RecordTaskGenerated()
	}

	open, err = s.store.OpenTasks(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("open tasks: %w", err)
	}
	return types.FromTasks(open), nil
}

func (s *Service) taskInput(ctx context.Context, memberID string) (tasks.Input, error) {
	profile, err := s.profile(ctx, memberID)
	if err != nil {
		return tasks.Input{}, err
	}
	snap, err := s.latestOrCompute(ctx, memberID)
	if err != nil {
		return tasks.Input{}, err
	}
	member, err := s.memberState(ctx, memberID)
	if err != nil {
		return tasks.Input{}, err
	}
	return tasks.Input{Member: member, Profile: profile, Score: snap}, nil
}

// CompleteTask marks a task completed. The first completion records a
// task_completed interaction event and advances the task streak; repeats
// return the task unchanged.
func (s *Service) CompleteTask(ctx context.Context, taskID, memberID string) (types.GrowthTask, error) {
	if taskID == "" || memberID == "" {
		return types.GrowthTask{}, fmt.Errorf("%w: missing task or member id", model.ErrValidation)
	}

	at := s.now()
	unlock := s.locks.Lock(memberID)
	defer unlock()

	t, err := s.store.CompleteTask(ctx, taskID, memberID, at)
	if err != nil {
		return types.GrowthTask{}, err
	}

	if t.CompletedAt != nil && t.CompletedAt.Equal(at) {
		metrics.RecordTaskCompleted()
		e := model.InteractionEvent{
			ID:       uuid.NewString(),
			MemberID: memberID,
			Type:     model.EventTaskCompleted,
			Payload: map[string]string{
				"task_id":  t.ID,
				"category": t.Category,
			},
			OccurredAt: at,
		}
		if err := s.ingest(ctx, e); err != nil {
			// The completion itself is durable; only the derived event is
			// lost. Surface it in logs rather than failing the call.
			s.logger.Warn(ctx, "task completion event not recorded",
				logger.String("taskID", t.ID),
				logger.Error(err),
			)
		} else {
			metrics.RecordEventTracked()
		}
		s.enqueueRefresh(ctx, memberID, string(model.EventTaskCompleted))
	}

	return types.FromTask(t), nil
}

// Suggestions builds up to three ephemeral next-step suggestions. Nothing
// is persisted.
func (s *Service) Suggestions(ctx context.Context, memberID string) ([]types.Suggestion, error) {
	profile, err := s.profile(ctx, memberID)
	if err != nil {
		return nil, err
	}
	snap, err := s.latestOrCompute(ctx, memberID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Streaks(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load streaks: %w", err)
	}

	built := suggest.Build(memberID, suggest.Input{Profile: profile, Score: snap, Streaks: rows}, s.now())
	metrics.RecordSuggestionsServed(len(built))

	out := make([]types.Suggestion, 0, len(built))
	for _, sg := range built {
		out = append(out, types.FromSuggestion(sg))
	}
	return out, nil
}

// Streaks returns the member's streaks keyed by type, with zero-length rows
// for types that never qualified.
func (s *Service) Streaks(ctx context.Context, memberID string) (map[string]types.Streak, error) {
	rows, err := s.store.Streaks(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load streaks: %w", err)
	}
	return types.FromStreaks(memberID, rows), nil
}

// UpsertMemberState replaces the read-only member view on behalf of the
// profile collaborator.
func (s *Service) UpsertMemberState(ctx context.Context, st model.MemberState) error {
	if st.MemberID == "" {
		return fmt.Errorf("%w: missing member id", model.ErrValidation)
	}
	if err := s.store.UpsertMemberState(ctx, st); err != nil {
		return fmt.Errorf("upsert member state: %w", err)
	}
	s.enqueueRefresh(ctx, st.MemberID, "member_state_updated")
	return nil
}

// GetStats returns service statistics for the stats endpoint.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"worker_count": s.workerCount,
		"queue_size":   s.queueSize,
		"dedupe_size":  s.dedupeSize,
		"window_size":  s.windowSize,
	}
	if s.started {
		ctx := context.Background()
		members := s.store.MemberCount(ctx)
		metrics.UpdateMemberCount(members)
		stats["member_count"] = members
		stats["queue_length"] = s.refreshQueue.Len(ctx)
		stats["deduper_entries"] = s.deduper.Size()
	}
	return stats
}
