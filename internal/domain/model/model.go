// Package model contains domain models passed between layers.
package model

import "time"

// EventType enumerates the tracked member actions. The set is fixed;
// unknown values are rejected at the ingestion boundary.
type EventType string

// Tracked interaction event types.
const (
	EventPostCreated      EventType = "post_created"
	EventTaskCompleted    EventType = "task_completed"
	EventCommentMade      EventType = "comment_made"
	EventLikeGiven        EventType = "like_given"
	EventFeedViewed       EventType = "feed_viewed"
	EventProfileUpdated   EventType = "profile_updated"
	EventProductAdded     EventType = "product_added"
	EventPitchDeckUpdated EventType = "pitch_deck_updated"
)

// EventTypes lists every valid event type, in a stable order.
func EventTypes() []EventType {
	return []EventType{
		EventPostCreated,
		EventTaskCompleted,
		EventCommentMade,
		EventLikeGiven,
		EventFeedViewed,
		EventProfileUpdated,
		EventProductAdded,
		EventPitchDeckUpdated,
	}
}

// Valid reports whether t is one of the fixed event types.
func (t EventType) Valid() bool {
	switch t {
	case EventPostCreated, EventTaskCompleted, EventCommentMade, EventLikeGiven,
		EventFeedViewed, EventProfileUpdated, EventProductAdded, EventPitchDeckUpdated:
		return true
	}
	return false
}

// InteractionEvent is an immutable, append-only record of a member action.
// It is owned by the interaction store and never mutated after being written.
type InteractionEvent struct {
	ID         string            // unique id for idempotency
	MemberID   string            // subject member identifier
	Type       EventType         // one of the fixed event types
	Payload    map[string]string // free-form key/value attributes, e.g. content_type
	OccurredAt time.Time         // event timestamp
}

// Level classifies activity intensity bands used by the behavior profile.
type Level string

// Activity intensity bands.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// BehaviorProfile is the derived classification of a member's recent activity.
// It is a pure function of a bounded event window plus task history and is
// safe to recompute at any time; ComputedAt is the cache watermark.
type BehaviorProfile struct {
	MemberID           string
	PostingFrequency   Level
	EngagementLevel    Level
	PreferredHours     []int              // top hour-of-day buckets, best first
	ContentTypeMix     map[string]float64 // normalized to sum 1.0, empty when no posts
	TaskCompletionRate *float64           // nil when no tasks were assigned in the window
	LearningScore      int                // 0..100
	ComputedAt         time.Time
}

// FundingStatus is the readiness band derived from the funding score total.
type FundingStatus string

// Funding readiness bands.
const (
	StatusBuilding FundingStatus = "Building"
	StatusEmerging FundingStatus = "Emerging"
	StatusVCReady  FundingStatus = "VC-Ready"
)

// FundingScoreSnapshot is one computation of the 0-100 funding readiness
// score. Components are independently capped and always sum to Total.
// Every computation appends a snapshot; the latest one is the current score.
type FundingScoreSnapshot struct {
	MemberID   string
	Total      int
	Components map[string]int
	Status     FundingStatus
	ComputedAt time.Time
}

// StreakType enumerates the tracked consecutive-day activity streaks.
type StreakType string

// Tracked streak types.
const (
	StreakPosting        StreakType = "posting"
	StreakTaskCompletion StreakType = "task_completion"
	StreakEngagement     StreakType = "engagement"
)

// StreakTypes lists every streak type, in a stable order.
func StreakTypes() []StreakType {
	return []StreakType{StreakPosting, StreakTaskCompletion, StreakEngagement}
}

// Streak counts consecutive qualifying calendar days for one member and
// streak type. CurrentLength zero means no activity was ever recorded.
// LastQualifyingDate is a civil date (midnight UTC).
type Streak struct {
	MemberID           string
	Type               StreakType
	CurrentLength      int
	LastQualifyingDate time.Time
}

// TaskPriority orders growth tasks for surfacing.
type TaskPriority string

// Task priorities, high first.
const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Rank maps a priority to a sortable weight; higher sorts earlier.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// GrowthTask is a persistent, completable recommendation. At most one open
// task per (member, category, title key) may exist; tasks are never deleted,
// only completed and superseded.
type GrowthTask struct {
	ID          string
	MemberID    string
	Category    string
	TitleKey    string
	Priority    TaskPriority
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Open reports whether the task has not been completed yet.
func (t GrowthTask) Open() bool { return t.CompletedAt == nil }

// Suggestion is an ephemeral advisory produced per request. It has no
// completion lifecycle and is never persisted.
type Suggestion struct {
	MemberID    string
	Kind        string
	Priority    TaskPriority
	GeneratedAt time.Time
}

// Product is a catalog item owned by the profile layer.
type Product struct {
	Name  string
	Price *float64 // nil when no price is defined
	Sold  bool
}

// PitchDeck holds the required pitch fields collected during onboarding.
type PitchDeck struct {
	Problem  string
	Solution string
	Market   string
	Ask      string
}

// Complete reports whether every required pitch field is filled in.
func (d PitchDeck) Complete() bool {
	return d.Problem != "" && d.Solution != "" && d.Market != "" && d.Ask != ""
}

// MemberState is the read-only member/business view consumed from the
// profile layer. The engine never mutates it.
type MemberState struct {
	MemberID          string
	BusinessName      string
	Bio               string
	Category          string
	Products          []Product
	PitchDeck         *PitchDeck
	FollowerCount     int
	FollowerCountPrev int // follower count roughly 30 days ago
	ReceivedLikes     int // likes received on own content, trailing 30 days
	ReceivedComments  int // comments received on own content, trailing 30 days
}
