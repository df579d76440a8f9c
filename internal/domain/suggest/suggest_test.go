package suggest_test

import (
	"testing"
	"time"

	"github.com/foundercircle/growthengine/internal/domain/model"
	suggest "github.com/foundercircle/growthengine/internal/domain/suggest"
	. "github.com/smartystreets/goconvey/convey"
)

func kinds(suggestions []model.Suggestion) []string {
	out := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, s.Kind)
	}
	return out
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	Convey("Given a member with everything left to do", t, func() {
		in := suggest.Input{
			Profile: model.BehaviorProfile{EngagementLevel: model.LevelLow},
			Score:   model.FundingScoreSnapshot{Components: map[string]int{}},
		}

		Convey("When building suggestions", func() {
			out := suggest.Build("member-1", in, now)

			Convey("Then at most three come back", func() {
				So(len(out), ShouldEqual, 3)
			})

			Convey("Then the biggest point gaps lead", func() {
				So(kinds(out), ShouldResemble, []string{
					"boost_community_engagement",
					"reply_to_comments",
					"grow_followers",
				})
			})

			Convey("Then priorities follow the gap size", func() {
				So(out[0].Priority, ShouldEqual, model.PriorityHigh)
				So(out[0].MemberID, ShouldEqual, "member-1")
				So(out[0].GeneratedAt, ShouldEqual, now)
			})
		})

		Convey("When building twice with identical inputs", func() {
			a := suggest.Build("member-1", in, now)
			b := suggest.Build("member-1", in, now)

			Convey("Then the output is deterministic", func() {
				So(b, ShouldResemble, a)
			})
		})
	})

	Convey("Given a member on an active posting streak", t, func() {
		in := suggest.Input{
			Profile: model.BehaviorProfile{EngagementLevel: model.LevelHigh},
			Score: model.FundingScoreSnapshot{Components: map[string]int{
				"posting_frequency":    10,
				"community_engagement": 20,
				"follower_growth":      15,
				"brand_clarity":        10,
				"product_catalog":      10,
				"pitch_deck":           5,
			}},
			Streaks: map[model.StreakType]model.Streak{
				model.StreakPosting: {
					MemberID:           "member-1",
					Type:               model.StreakPosting,
					CurrentLength:      4,
					LastQualifyingDate: now.Add(-24 * time.Hour).Truncate(24 * time.Hour),
				},
			},
		}

		Convey("When the last qualifying day was yesterday", func() {
			out := suggest.Build("member-1", in, now)

			Convey("Then extending the streak is the top suggestion", func() {
				So(out[0].Kind, ShouldEqual, suggest.KindExtendPostingStreak)
				So(out[0].Priority, ShouldEqual, model.PriorityHigh)
			})
		})

		Convey("When the streak already lapsed days ago", func() {
			lapsed := in
			lapsed.Streaks = map[model.StreakType]model.Streak{
				model.StreakPosting: {
					MemberID:           "member-1",
					Type:               model.StreakPosting,
					CurrentLength:      4,
					LastQualifyingDate: now.Add(-5 * 24 * time.Hour),
				},
			}
			out := suggest.Build("member-1", lapsed, now)

			Convey("Then the nudge flips to restarting", func() {
				So(out[0].Kind, ShouldEqual, suggest.KindRestartPosting)
			})
		})
	})

	Convey("Given a member with nothing left to improve", t, func() {
		in := suggest.Input{
			Profile: model.BehaviorProfile{EngagementLevel: model.LevelHigh},
			Score: model.FundingScoreSnapshot{Components: map[string]int{
				"posting_frequency":    15,
				"community_engagement": 20,
				"follower_growth":      15,
				"brand_clarity":        10,
				"product_catalog":      10,
				"pitch_deck":           5,
			}},
		}

		Convey("When building suggestions", func() {
			out := suggest.Build("member-1", in, now)

			Convey("Then none are produced", func() {
				So(out, ShouldBeEmpty)
			})
		})
	})
}
