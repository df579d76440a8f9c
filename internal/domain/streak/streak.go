// Package streak implements the consecutive-day activity streak state
// machine. All functions are pure; persistence and per-member serialization
// belong to the caller.
package streak

import (
	"time"

	"github.com/foundercircle/growthengine/internal/domain/model"
)

const day = 24 * time.Hour

// Qualifying maps an event type to the streak types it advances. Feed views
// and profile edits advance no streak.
func Qualifying(t model.EventType) []model.StreakType {
	switch t {
	case model.EventPostCreated:
		return []model.StreakType{model.StreakPosting}
	case model.EventTaskCompleted:
		return []model.StreakType{model.StreakTaskCompletion}
	case model.EventLikeGiven, model.EventCommentMade:
		return []model.StreakType{model.StreakEngagement}
	default:
		return nil
	}
}

// Day truncates t to its civil date in UTC.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(day)
}

// Advance applies one qualifying event on the given timestamp and returns
// the resulting streak. Transitions:
//   - same day as the last qualifying date: unchanged (idempotent)
//   - the day after: length + 1
//   - any gap of two or more days, or no prior record: reset to length 1
//
// A streak never decrements here; length 0 only ever means "no activity yet".
func Advance(s model.Streak, occurredAt time.Time) model.Streak {
	today := Day(occurredAt)

	if s.CurrentLength == 0 || s.LastQualifyingDate.IsZero() {
		s.CurrentLength = 1
		s.LastQualifyingDate = today
		return s
	}

	last := Day(s.LastQualifyingDate)
	switch {
	case today.Before(last):
		// late-arriving event; a streak never rewinds
	case today.Equal(last):
		// multiple qualifying events on the same calendar day
	case today.Equal(last.Add(day)):
		s.CurrentLength++
		s.LastQualifyingDate = today
	default:
		s.CurrentLength = 1
		s.LastQualifyingDate = today
	}
	return s
}
