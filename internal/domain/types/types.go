// Package types contains the wire shapes returned by the HTTP API.
package types

import (
	"sort"
	"time"

	"github.com/foundercircle/growthengine/internal/domain/model"
)

// BehaviorProfile mirrors the derived activity classification of a member.
type BehaviorProfile struct {
	MemberID           string             `json:"member_id"`
	PostingFrequency   string             `json:"posting_frequency"`
	EngagementLevel    string             `json:"engagement_level"`
	PreferredHours     []int              `json:"preferred_hours"`
	ContentTypeMix     map[string]float64 `json:"content_type_mix"`
	TaskCompletionRate *float64           `json:"task_completion_rate,omitempty"`
	LearningScore      int                `json:"learning_score"`
	ComputedAt         time.Time          `json:"computed_at"`
}

// FundingScore mirrors one funding readiness score snapshot.
type FundingScore struct {
	MemberID   string         `json:"member_id"`
	Total      int            `json:"total"`
	Components map[string]int `json:"components"`
	Status     string         `json:"status"`
	ComputedAt time.Time      `json:"computed_at"`
}

// GrowthTask mirrors a persistent growth task.
type GrowthTask struct {
	ID          string     `json:"id"`
	MemberID    string     `json:"member_id"`
	Category    string     `json:"category"`
	TitleKey    string     `json:"title_key"`
	Priority    string     `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Suggestion mirrors an ephemeral advisory.
type Suggestion struct {
	MemberID    string    `json:"member_id"`
	Kind        string    `json:"kind"`
	Priority    string    `json:"priority"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Streak mirrors a consecutive-day activity streak.
type Streak struct {
	MemberID           string `json:"member_id"`
	StreakType         string `json:"streak_type"`
	CurrentLength      int    `json:"current_length"`
	LastQualifyingDate string `json:"last_qualifying_date,omitempty"` // YYYY-MM-DD
}

// FromProfile converts a domain profile to its wire shape.
func FromProfile(p model.BehaviorProfile) BehaviorProfile {
	return BehaviorProfile{
		MemberID:           p.MemberID,
		PostingFrequency:   string(p.PostingFrequency),
		EngagementLevel:    string(p.EngagementLevel),
		PreferredHours:     p.PreferredHours,
		ContentTypeMix:     p.ContentTypeMix,
		TaskCompletionRate: p.TaskCompletionRate,
		LearningScore:      p.LearningScore,
		ComputedAt:         p.ComputedAt,
	}
}

// FromSnapshot converts a domain score snapshot to its wire shape.
func FromSnapshot(s model.FundingScoreSnapshot) FundingScore {
	return FundingScore{
		MemberID:   s.MemberID,
		Total:      s.Total,
		Components: s.Components,
		Status:     string(s.Status),
		ComputedAt: s.ComputedAt,
	}
}

// FromTask converts a domain task to its wire shape.
func FromTask(t model.GrowthTask) GrowthTask {
	return GrowthTask{
		ID:          t.ID,
		MemberID:    t.MemberID,
		Category:    t.Category,
		TitleKey:    t.TitleKey,
		Priority:    string(t.Priority),
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
	}
}

// FromSuggestion converts a domain suggestion to its wire shape.
func FromSuggestion(s model.Suggestion) Suggestion {
	return Suggestion{
		MemberID:    s.MemberID,
		Kind:        s.Kind,
		Priority:    string(s.Priority),
		GeneratedAt: s.GeneratedAt,
	}
}

// FromStreak converts a domain streak to its wire shape.
func FromStreak(s model.Streak) Streak {
	out := Streak{
		MemberID:      s.MemberID,
		StreakType:    string(s.Type),
		CurrentLength: s.CurrentLength,
	}
	if !s.LastQualifyingDate.IsZero() {
		out.LastQualifyingDate = s.LastQualifyingDate.Format("2006-01-02")
	}
	return out
}

// FromStreaks converts a streak map keyed by streak type, filling in zero
// streaks for types the member has never qualified for.
func FromStreaks(memberID string, streaks map[model.StreakType]model.Streak) map[string]Streak {
	out := make(map[string]Streak, len(model.StreakTypes()))
	for _, st := range model.StreakTypes() {
		s, ok := streaks[st]
		if !ok {
			s = model.Streak{MemberID: memberID, Type: st}
		}
		out[string(st)] = FromStreak(s)
	}
	return out
}

// FromTasks converts a task slice, ordered by priority then creation time.
func FromTasks(tasks []model.GrowthTask) []GrowthTask {
	sorted := make([]model.GrowthTask, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority.Rank() != sorted[j].Priority.Rank() {
			return sorted[i].Priority.Rank() > sorted[j].Priority.Rank()
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	out := make([]GrowthTask, len(sorted))
	for i, t := range sorted {
		out[i] = FromTask(t)
	}
	return out
}
