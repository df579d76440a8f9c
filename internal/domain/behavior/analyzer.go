// Package behavior derives a member's activity pattern profile from a
// bounded window of recent interaction events.
package behavior

import (
	"math"
	"sort"
	"time"

	"github.com/foundercircle/growthengine/internal/domain/model"
)

// Default analysis configuration constants.
const (
	defaultPostingWindow    = 7 * 24 * time.Hour  // trailing window for posting frequency
	defaultCompletionWindow = 30 * 24 * time.Hour // trailing window for task completion rate
	defaultPreferredHours   = 3                   // number of preferred hour buckets reported

	highPostingPerWeek    = 5
	mediumPostingPerWeek  = 2
	highEngagementRatio   = 3.0
	mediumEngagementRatio = 1.0

	learningScoreFactor = 10
	learningScoreMax    = 100
)

// TaskHistory carries the assigned/completed task counts for the trailing
// completion window. Both are zero when the member never had tasks.
type TaskHistory struct {
	Assigned  int
	Completed int
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithPostingWindow overrides the trailing window used for posting frequency.
func WithPostingWindow(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.postingWindow = d
		}
	}
}

// WithPreferredHourCount overrides how many preferred hour buckets are kept.
func WithPreferredHourCount(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.preferredHours = n
		}
	}
}

// Analyzer computes behavior profiles. It holds no per-member state; Analyze
// is a pure function of its inputs and is safe to call concurrently.
type Analyzer struct {
	postingWindow    time.Duration
	completionWindow time.Duration
	preferredHours   int
}

// New creates an Analyzer with default configuration.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		postingWindow:    defaultPostingWindow,
		completionWindow: defaultCompletionWindow,
		preferredHours:   defaultPreferredHours,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze derives a profile from the event window, most recent first, as
// returned by the interaction store. A member with zero interactions gets a
// fully defined low/low profile, never an error.
func (a *Analyzer) Analyze(memberID string, events []model.InteractionEvent, tasks TaskHistory, now time.Time) model.BehaviorProfile {
	var (
		recentPosts int // posts inside the trailing posting window
		posts       int
		likes       int
		comments    int
		hourCounts  [24]int
		contentMix  = map[string]int{}
	)

	postingCutoff := now.Add(-a.postingWindow)
	for _, e := range events {
		switch e.Type {
		case model.EventPostCreated:
			posts++
			if !e.OccurredAt.Before(postingCutoff) {
				recentPosts++
			}
			hourCounts[e.OccurredAt.UTC().Hour()]++
			if ct := e.Payload["content_type"]; ct != "" {
				contentMix[ct]++
			}
		case model.EventLikeGiven:
			likes++
		case model.EventCommentMade:
			comments++
		case model.EventFeedViewed:
			hourCounts[e.OccurredAt.UTC().Hour()]++
		}
	}

	return model.BehaviorProfile{
		MemberID:           memberID,
		PostingFrequency:   postingBand(recentPosts),
		EngagementLevel:    engagementBand(likes+comments, posts),
		PreferredHours:     topHours(hourCounts, a.preferredHours),
		ContentTypeMix:     normalizeMix(contentMix),
		TaskCompletionRate: completionRate(tasks),
		LearningScore:      learningScore(len(events)),
		ComputedAt:         now,
	}
}

func postingBand(recentPosts int) model.Level {
	switch {
	case recentPosts >= highPostingPerWeek:
		return model.LevelHigh
	case recentPosts >= mediumPostingPerWeek:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

func engagementBand(reactions, posts int) model.Level {
	ratio := float64(reactions) / math.Max(float64(posts), 1)
	switch {
	case ratio >= highEngagementRatio:
		return model.LevelHigh
	case ratio >= mediumEngagementRatio:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// topHours returns the n most frequent hour buckets, ties broken by the
// earliest hour. Hours with zero activity are never reported.
func topHours(counts [24]int, n int) []int {
	hours := make([]int, 0, 24)
	for h, c := range counts {
		if c > 0 {
			hours = append(hours, h)
		}
	}
	sort.SliceStable(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > n {
		hours = hours[:n]
	}
	return hours
}

// normalizeMix converts a content-type histogram to ratios summing to 1.0.
// An empty histogram yields an empty map.
func normalizeMix(counts map[string]int) map[string]float64 {
	mix := make(map[string]float64, len(counts))
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return mix
	}
	for ct, c := range counts {
		mix[ct] = float64(c) / float64(total)
	}
	return mix
}

// completionRate returns completed/assigned for the trailing window, or nil
// when no tasks were assigned. Absence of tasks is not a zero rate.
func completionRate(tasks TaskHistory) *float64 {
	if tasks.Assigned <= 0 {
		return nil
	}
	rate := float64(tasks.Completed) / float64(tasks.Assigned)
	if rate > 1 {
		rate = 1
	}
	return &rate
}

// learningScore grows logarithmically with window activity: early events
// move the score quickly and it plateaus near the window cap.
func learningScore(eventCount int) int {
	score := int(math.Round(learningScoreFactor * math.Log2(float64(eventCount)+1)))
	if score > learningScoreMax {
		score = learningScoreMax
	}
	return score
}
