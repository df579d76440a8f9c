// Package suggest builds short-lived advisory messages from the current
// behavior profile, funding score, and streak state. Suggestions are pure
// per-request output: nothing here is persisted and there is no completion
// lifecycle, which distinguishes them from growth tasks.
package suggest

import (
	"sort"
	"time"

	"github.com/foundercircle/growthengine/internal/domain/model"
	"github.com/foundercircle/growthengine/internal/domain/score"
)

// Default selection constants.
const (
	maxSuggestions = 3

	highGap   = 10
	mediumGap = 5

	momentumStreakLength = 2 // streaks this long get a keep-it-going nudge
)

// Suggestion kinds.
const (
	KindExtendPostingStreak = "extend_posting_streak"
	KindRestartPosting      = "restart_posting"
	KindReplyToComments     = "reply_to_comments"
	KindBoostEngagement     = "boost_community_engagement"
	KindGrowFollowers       = "grow_followers"
	KindSharpenBrand        = "sharpen_brand"
	KindShipProduct         = "ship_a_product"
	KindPolishPitch         = "polish_pitch_deck"
	KindPostMore            = "post_more_often"
)

// Input bundles the derived state a suggestion run reads.
type Input struct {
	Profile model.BehaviorProfile
	Score   model.FundingScoreSnapshot
	Streaks map[model.StreakType]model.Streak
}

type candidate struct {
	kind string
	gap  int
}

// Build returns at most three suggestions ranked by the same
// point-gap-to-max heuristic the task generator uses, with streak nudges
// weighted as full-gap candidates so momentum is never buried.
func Build(memberID string, in Input, now time.Time) []model.Suggestion {
	candidates := make([]candidate, 0, 8)

	if s, ok := in.Streaks[model.StreakPosting]; ok && s.CurrentLength >= momentumStreakLength {
		if sameOrPreviousDay(s.LastQualifyingDate, now) {
			candidates = append(candidates, candidate{KindExtendPostingStreak, score.MaxPostingFrequency})
		} else {
			candidates = append(candidates, candidate{KindRestartPosting, score.MaxPostingFrequency})
		}
	}
	if in.Profile.EngagementLevel == model.LevelLow {
		candidates = append(candidates, candidate{KindReplyToComments, gap(in, score.ComponentCommunityEngagement, score.MaxCommunityEngagement)})
	}

	componentKinds := []struct {
		component string
		max       int
		kind      string
	}{
		{score.ComponentPostingFrequency, score.MaxPostingFrequency, KindPostMore},
		{score.ComponentCommunityEngagement, score.MaxCommunityEngagement, KindBoostEngagement},
		{score.ComponentFollowerGrowth, score.MaxFollowerGrowth, KindGrowFollowers},
		{score.ComponentBrandClarity, score.MaxBrandClarity, KindSharpenBrand},
		{score.ComponentProductCatalog, score.MaxProductCatalog, KindShipProduct},
		{score.ComponentPitchDeck, score.MaxPitchDeck, KindPolishPitch},
	}
	for _, ck := range componentKinds {
		if g := gap(in, ck.component, ck.max); g > 0 {
			candidates = append(candidates, candidate{ck.kind, g})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].gap != candidates[j].gap {
			return candidates[i].gap > candidates[j].gap
		}
		return candidates[i].kind < candidates[j].kind
	})

	seen := make(map[string]bool, len(candidates))
	out := make([]model.Suggestion, 0, maxSuggestions)
	for _, c := range candidates {
		if seen[c.kind] {
			continue
		}
		seen[c.kind] = true
		out = append(out, model.Suggestion{
			MemberID:    memberID,
			Kind:        c.kind,
			Priority:    priorityForGap(c.gap),
			GeneratedAt: now,
		})
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func gap(in Input, component string, max int) int {
	g := max - in.Score.Components[component]
	if g < 0 {
		return 0
	}
	return g
}

func priorityForGap(g int) model.TaskPriority {
	switch {
	case g >= highGap:
		return model.PriorityHigh
	case g >= mediumGap:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// sameOrPreviousDay reports whether the civil date of d is today or
// yesterday relative to now, i.e. the streak can still be extended.
func sameOrPreviousDay(d, now time.Time) bool {
	day := d.UTC().Truncate(24 * time.Hour)
	today := now.UTC().Truncate(24 * time.Hour)
	return day.Equal(today) || day.Equal(today.Add(-24*time.Hour))
}
