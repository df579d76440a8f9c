// Package score computes the deterministic 0-100 funding readiness score
// from current member/business state and recent activity counters.
//
// The score is the sum of independently capped components declared in a
// data-driven table, so individual rules can be tested in isolation and the
// caps guarantee total <= 100 by construction.
package score

import (
	"time"

	"github.com/foundercircle/growthengine/internal/domain/model"
)

// Component names, used as keys in the snapshot components map.
const (
	ComponentPostingFrequency    = "posting_frequency"
	ComponentBrandClarity        = "brand_clarity"
	ComponentBusinessModel       = "business_model"
	ComponentCommunityEngagement = "community_engagement"
	ComponentFollowerGrowth      = "follower_growth"
	ComponentRevenueSignals      = "revenue_signals"
	ComponentProductCatalog      = "product_catalog"
	ComponentPitchDeck           = "pitch_deck"
)

// Component maximums. They sum to 100.
const (
	MaxPostingFrequency    = 15
	MaxBrandClarity        = 10
	MaxBusinessModel       = 15
	MaxCommunityEngagement = 20
	MaxFollowerGrowth      = 15
	MaxRevenueSignals      = 10
	MaxProductCatalog      = 10
	MaxPitchDeck           = 5
)

// Default band and scaling constants. Bands are configurable; the
// 8-component/3-band shape is fixed.
const (
	defaultEmergingMin       = 50
	defaultVCReadyMin        = 80
	defaultEngagementDivisor = 10
	defaultFollowerDivisor   = 2

	productCatalogPointsEach = 2
	businessModelNoPrice     = 8
	brandClarityPartial      = 5
	pitchDeckPartial         = 2
	weeklyPostsFull          = 5
	weeklyPostsMid           = 3
	weeklyPostsLow           = 1
	postingPointsMid         = 10
	postingPointsLow         = 5
)

// Input bundles everything a score computation reads: the read-only member
// state from the profile layer plus counters derived from the event log.
type Input struct {
	Member      model.MemberState
	WeeklyPosts int // post_created events in the trailing 7 days
}

// Component is one capped scoring rule. Points must return a value in
// [0, Max]; Compute clamps defensively anyway.
type Component struct {
	Name   string
	Max    int
	Points func(in Input, c *Calculator) int
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithBands overrides the status band boundaries.
func WithBands(emergingMin, vcReadyMin int) Option {
	return func(c *Calculator) {
		if emergingMin > 0 && vcReadyMin > emergingMin {
			c.emergingMin = emergingMin
			c.vcReadyMin = vcReadyMin
		}
	}
}

// WithEngagementDivisor overrides the community engagement scaling divisor.
func WithEngagementDivisor(d int) Option {
	return func(c *Calculator) {
		if d > 0 {
			c.engagementDivisor = d
		}
	}
}

// WithFollowerDivisor overrides the follower growth scaling divisor.
func WithFollowerDivisor(d int) Option {
	return func(c *Calculator) {
		if d > 0 {
			c.followerDivisor = d
		}
	}
}

// Calculator evaluates the component table. It is stateless and safe for
// concurrent use; Compute is deterministic for identical inputs.
type Calculator struct {
	components        []Component
	emergingMin       int
	vcReadyMin        int
	engagementDivisor int
	followerDivisor   int
}

// New creates a Calculator with the fixed component table and default bands.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		components:        componentTable(),
		emergingMin:       defaultEmergingMin,
		vcReadyMin:        defaultVCReadyMin,
		engagementDivisor: defaultEngagementDivisor,
		followerDivisor:   defaultFollowerDivisor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Components exposes the component table for rule inspection (task
// generation uses the maximums to compute point gaps).
func (c *Calculator) Components() []Component {
	return c.components
}

// Compute evaluates every component and assembles a snapshot. Missing
// upstream data (no products, empty bio) degrades components to zero, never
// an error.
func (c *Calculator) Compute(in Input, now time.Time) model.FundingScoreSnapshot {
	components := make(map[string]int, len(c.components))
	total := 0
	for _, comp := range c.components {
		pts := comp.Points(in, c)
		if pts < 0 {
			pts = 0
		}
		if pts > comp.Max {
			pts = comp.Max
		}
		components[comp.Name] = pts
		total += pts
	}
	return model.FundingScoreSnapshot{
		MemberID:   in.Member.MemberID,
		Total:      total,
		Components: components,
		Status:     c.status(total),
		ComputedAt: now,
	}
}

// status maps a total to its readiness band. Bands are non-overlapping and
// exhaustive.
func (c *Calculator) status(total int) model.FundingStatus {
	switch {
	case total >= c.vcReadyMin:
		return model.StatusVCReady
	case total >= c.emergingMin:
		return model.StatusEmerging
	default:
		return model.StatusBuilding
	}
}

func componentTable() []Component {
	return []Component{
		{
			Name: ComponentPostingFrequency,
			Max:  MaxPostingFrequency,
			Points: func(in Input, _ *Calculator) int {
				switch {
				case in.WeeklyPosts >= weeklyPostsFull:
					return MaxPostingFrequency
				case in.WeeklyPosts >= weeklyPostsMid:
					return postingPointsMid
				case in.WeeklyPosts >= weeklyPostsLow:
					return postingPointsLow
				default:
					return 0
				}
			},
		},
		{
			Name: ComponentBrandClarity,
			Max:  MaxBrandClarity,
			Points: func(in Input, _ *Calculator) int {
				filled := 0
				if in.Member.BusinessName != "" {
					filled++
				}
				if in.Member.Bio != "" {
					filled++
				}
				if in.Member.Category != "" {
					filled++
				}
				switch filled {
				case 3:
					return MaxBrandClarity
				case 2:
					return brandClarityPartial
				default:
					return 0
				}
			},
		},
		{
			Name: ComponentBusinessModel,
			Max:  MaxBusinessModel,
			Points: func(in Input, _ *Calculator) int {
				if len(in.Member.Products) == 0 {
					return 0
				}
				for _, p := range in.Member.Products {
					if p.Price != nil {
						return MaxBusinessModel
					}
				}
				return businessModelNoPrice
			},
		},
		{
			Name: ComponentCommunityEngagement,
			Max:  MaxCommunityEngagement,
			Points: func(in Input, c *Calculator) int {
				received := in.Member.ReceivedLikes + in.Member.ReceivedComments
				return received / c.engagementDivisor
			},
		},
		{
			Name: ComponentFollowerGrowth,
			Max:  MaxFollowerGrowth,
			Points: func(in Input, c *Calculator) int {
				delta := in.Member.FollowerCount - in.Member.FollowerCountPrev
				if delta <= 0 {
					return 0
				}
				return delta / c.followerDivisor
			},
		},
		{
			Name: ComponentRevenueSignals,
			Max:  MaxRevenueSignals,
			Points: func(in Input, _ *Calculator) int {
				for _, p := range in.Member.Products {
					if p.Sold || p.Price != nil {
						return MaxRevenueSignals
					}
				}
				return 0
			},
		},
		{
			Name: ComponentProductCatalog,
			Max:  MaxProductCatalog,
			Points: func(in Input, _ *Calculator) int {
				return len(in.Member.Products) * productCatalogPointsEach
			},
		},
		{
			Name: ComponentPitchDeck,
			Max:  MaxPitchDeck,
			Points: func(in Input, _ *Calculator) int {
				deck := in.Member.PitchDeck
				if deck == nil {
					return 0
				}
				if deck.Complete() {
					return MaxPitchDeck
				}
				if deck.Problem != "" || deck.Solution != "" || deck.Market != "" || deck.Ask != "" {
					return pitchDeckPartial
				}
				return 0
			},
		},
	}
}
