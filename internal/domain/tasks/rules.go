// Package tasks evaluates the fixed growth-task rule catalog and selects
// which tasks to surface for a member.
package tasks

import (
	"github.com/foundercircle/growthengine/internal/domain/model"
	"github.com/foundercircle/growthengine/internal/domain/score"
)

// Task categories.
const (
	CategoryProfile    = "profile"
	CategoryContent    = "content"
	CategoryProduct    = "product"
	CategoryPitch      = "pitch"
	CategoryEngagement = "engagement"
	CategoryRevenue    = "revenue"
	CategoryAudience   = "audience"
	CategoryHabits     = "habits"
)

const lowCompletionRate = 0.5

// Input is the member state a rule predicate reads. All fields are derived,
// read-only views; rules never mutate them.
type Input struct {
	Member  model.MemberState
	Profile model.BehaviorProfile
	Score   model.FundingScoreSnapshot
}

// gap returns the points left to earn on a score component. Larger gaps
// rank a candidate earlier within its priority.
func (in Input) gap(component string, max int) int {
	g := max - in.Score.Components[component]
	if g < 0 {
		return 0
	}
	return g
}

// Rule is one tagged (predicate, effect) record of the catalog.
type Rule struct {
	Category string
	TitleKey string
	Priority model.TaskPriority
	When     func(Input) bool
	Gap      func(Input) int
}

// Catalog returns the fixed, versioned rule set evaluated in-process. The
// order here is not significant; candidates are re-sorted by priority and
// point gap.
func Catalog() []Rule {
	return []Rule{
		{
			Category: CategoryProfile,
			TitleKey: "update_bio",
			Priority: model.PriorityHigh,
			When:     func(in Input) bool { return in.Member.Bio == "" },
			Gap:      func(in Input) int { return in.gap(score.ComponentBrandClarity, score.MaxBrandClarity) },
		},
		{
			Category: CategoryProfile,
			TitleKey: "pick_category",
			Priority: model.PriorityMedium,
			When:     func(in Input) bool { return in.Member.Category == "" },
			Gap:      func(in Input) int { return in.gap(score.ComponentBrandClarity, score.MaxBrandClarity) },
		},
		{
			Category: CategoryContent,
			TitleKey: "post_consistently",
			Priority: model.PriorityHigh,
			When:     func(in Input) bool { return in.Profile.PostingFrequency == model.LevelLow },
			Gap:      func(in Input) int { return in.gap(score.ComponentPostingFrequency, score.MaxPostingFrequency) },
		},
		{
			Category: CategoryProduct,
			TitleKey: "add_product",
			Priority: model.PriorityMedium,
			When:     func(in Input) bool { return in.gap(score.ComponentProductCatalog, score.MaxProductCatalog) > 0 },
			Gap:      func(in Input) int { return in.gap(score.ComponentProductCatalog, score.MaxProductCatalog) },
		},
		{
			Category: CategoryProduct,
			TitleKey: "set_product_pricing",
			Priority: model.PriorityMedium,
			When: func(in Input) bool {
				return len(in.Member.Products) > 0 && in.Score.Components[score.ComponentBusinessModel] < score.MaxBusinessModel
			},
			Gap: func(in Input) int { return in.gap(score.ComponentBusinessModel, score.MaxBusinessModel) },
		},
		{
			Category: CategoryPitch,
			TitleKey: "create_pitch_deck",
			Priority: model.PriorityMedium,
			When:     func(in Input) bool { return in.Score.Components[score.ComponentPitchDeck] == 0 },
			Gap:      func(in Input) int { return in.gap(score.ComponentPitchDeck, score.MaxPitchDeck) },
		},
		{
			Category: CategoryPitch,
			TitleKey: "complete_pitch_deck",
			Priority: model.PriorityMedium,
			When: func(in Input) bool {
				pts := in.Score.Components[score.ComponentPitchDeck]
				return pts > 0 && pts < score.MaxPitchDeck
			},
			Gap: func(in Input) int { return in.gap(score.ComponentPitchDeck, score.MaxPitchDeck) },
		},
		{
			Category: CategoryEngagement,
			TitleKey: "engage_community",
			Priority: model.PriorityLow,
			When:     func(in Input) bool { return in.Profile.EngagementLevel == model.LevelLow },
			Gap:      func(in Input) int { return in.gap(score.ComponentCommunityEngagement, score.MaxCommunityEngagement) },
		},
		{
			Category: CategoryRevenue,
			TitleKey: "record_first_sale",
			Priority: model.PriorityLow,
			When: func(in Input) bool {
				return len(in.Member.Products) > 0 && in.Score.Components[score.ComponentRevenueSignals] == 0
			},
			Gap: func(in Input) int { return in.gap(score.ComponentRevenueSignals, score.MaxRevenueSignals) },
		},
		{
			Category: CategoryAudience,
			TitleKey: "grow_audience",
			Priority: model.PriorityLow,
			When:     func(in Input) bool { return in.Score.Components[score.ComponentFollowerGrowth] == 0 },
			Gap:      func(in Input) int { return in.gap(score.ComponentFollowerGrowth, score.MaxFollowerGrowth) },
		},
		{
			Category: CategoryHabits,
			TitleKey: "finish_open_tasks",
			Priority: model.PriorityLow,
			When: func(in Input) bool {
				return in.Profile.TaskCompletionRate != nil && *in.Profile.TaskCompletionRate < lowCompletionRate
			},
			Gap: func(Input) int { return 0 },
		},
	}
}
