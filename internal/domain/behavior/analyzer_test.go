package behavior_test

import (
	"testing"
	"time"

	behavior "github.com/foundercircle/growthengine/internal/domain/behavior"
	"github.com/foundercircle/growthengine/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func event(t model.EventType, at time.Time, payload map[string]string) model.InteractionEvent {
	return model.InteractionEvent{
		ID:         "e-" + at.Format("20060102150405"),
		MemberID:   "member-1",
		Type:       t,
		Payload:    payload,
		OccurredAt: at,
	}
}

func TestAnalyzer(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	Convey("Given a behavior analyzer", t, func() {
		a := behavior.New()

		Convey("When analyzing a member with no interactions", func() {
			p := a.Analyze("member-1", nil, behavior.TaskHistory{}, now)

			Convey("Then it should return a fully defined low/low profile", func() {
				So(p.MemberID, ShouldEqual, "member-1")
				So(p.PostingFrequency, ShouldEqual, model.LevelLow)
				So(p.EngagementLevel, ShouldEqual, model.LevelLow)
				So(p.PreferredHours, ShouldBeEmpty)
				So(p.ContentTypeMix, ShouldBeEmpty)
				So(p.ContentTypeMix, ShouldNotBeNil)
				So(p.TaskCompletionRate, ShouldBeNil)
				So(p.LearningScore, ShouldEqual, 0)
				So(p.ComputedAt, ShouldEqual, now)
			})
		})

		Convey("When the member posted five times inside the trailing week", func() {
			var events []model.InteractionEvent
			for day := 1; day <= 5; day++ {
				events = append(events, event(model.EventPostCreated, now.Add(-time.Duration(day)*24*time.Hour), nil))
			}
			p := a.Analyze("member-1", events, behavior.TaskHistory{}, now)

			Convey("Then posting frequency should be high", func() {
				So(p.PostingFrequency, ShouldEqual, model.LevelHigh)
			})
		})

		Convey("When the member posted twice inside the trailing week", func() {
			events := []model.InteractionEvent{
				event(model.EventPostCreated, now.Add(-24*time.Hour), nil),
				event(model.EventPostCreated, now.Add(-48*time.Hour), nil),
			}
			p := a.Analyze("member-1", events, behavior.TaskHistory{}, now)

			Convey("Then posting frequency should be medium", func() {
				So(p.PostingFrequency, ShouldEqual, model.LevelMedium)
			})
		})

		Convey("When a post lands exactly on the window boundary", func() {
			events := []model.InteractionEvent{
				event(model.EventPostCreated, now.Add(-24*time.Hour), nil),
				event(model.EventPostCreated, now.Add(-7*24*time.Hour), nil),
			}
			p := a.Analyze("member-1", events, behavior.TaskHistory{}, now)

			Convey("Then the boundary post still counts toward the band", func() {
				So(p.PostingFrequency, ShouldEqual, model.LevelMedium)
			})
		})

		Convey("When old posts fall outside the posting window", func() {
			events := []model.InteractionEvent{
				event(model.EventPostCreated, now.Add(-10*24*time.Hour), nil),
				event(model.EventPostCreated, now.Add(-11*24*time.Hour), nil),
				event(model.EventPostCreated, now.Add(-12*24*time.Hour), nil),
			}
			p := a.Analyze("member-1", events, behavior.TaskHistory{}, now)

			Convey("Then they should not count toward posting frequency", func() {
				So(p.PostingFrequency, ShouldEqual, model.LevelLow)
			})
		})

		Convey("When likes and comments outnumber posts three to one", func() {
			events := []model.InteractionEvent{
				event(model.EventPostCreated, now.Add(-24*time.Hour), nil),
				event(model.EventLikeGiven, now.Add(-2*time.Hour), nil),
				event(model.EventLikeGiven, now.Add(-3*time.Hour), nil),
				event(model.EventCommentMade, now.Add(-4*time.Hour), nil),
			}
			p := a.Analyze("member-1", events, behavior.TaskHistory{}, now)

			Convey("Then engagement should be high", func() {
				So(p.EngagementLevel, ShouldEqual, model.LevelHigh)
			})
		})

		Convey("When the member only reacts and never posts", func() {
			events := []model.InteractionEvent{
				event(model.EventLikeGiven, now.Add(-2*time.Hour), nil),
				event(model.EventCommentMade, now.Add(-4*time.Hour), nil),
			}
			p := a.Analyze("member-1", events, behavior.TaskHistory{}, now)

			Convey("Then the ratio should use a denominator of one", func() {
				So(p.EngagementLevel, ShouldEqual, model.LevelMedium)
			})
		})

		Convey("When activity clusters around specific hours", func() {
			events := []model.InteractionEvent{
				event(model.EventPostCreated, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), nil),
				event(model.EventPostCreated, time.Date(2026, 3, 8, 9, 30, 0, 0, time.UTC), nil),
				event(model.EventFeedViewed, time.Date(2026, 3, 9, 21, 0, 0, 0, time.UTC), nil),
				event(model.EventFeedViewed, time.Date(2026, 3, 8, 21, 15, 0, 0, time.UTC), nil),
				event(model.EventPostCreated, time.Date(2026, 3, 7, 14, 0, 0, 0, time.UTC), nil),
			}
			p := a.Analyze("member-1", events, behavior.TaskHistory{}, now)

			Convey("Then preferred hours should rank by frequency with hour ties ascending", func() {
				So(p.PreferredHours, ShouldResemble, []int{9, 21, 14})
			})
		})

		Convey("When event timestamps carry a non-UTC location", func() {
			karachi := time.FixedZone("PKT", 5*60*60)
			events := []model.InteractionEvent{
				event(model.EventPostCreated, time.Date(2026, 3, 9, 14, 0, 0, 0, karachi), nil),
				event(model.EventPostCreated, time.Date(2026, 3, 8, 14, 30, 0, 0, karachi), nil),
			}
			p := a.Analyze("member-1", events, behavior.TaskHistory{}, now)

			Convey("Then hour buckets should normalize to UTC", func() {
				So(p.PreferredHours, ShouldResemble, []int{9})
			})
		})

		Convey("When posts carry content types", func() {
			events := []model.InteractionEvent{
				event(model.EventPostCreated, now.Add(-1*time.Hour), map[string]string{"content_type": "photo"}),
				event(model.EventPostCreated, now.Add(-2*time.Hour), map[string]string{"content_type": "photo"}),
				event(model.EventPostCreated, now.Add(-3*time.Hour), map[string]string{"content_type": "video"}),
				event(model.EventPostCreated, now.Add(-4*time.Hour), map[string]string{"content_type": "text"}),
			}
			p := a.Analyze("member-1", events, behavior.TaskHistory{}, now)

			Convey("Then the content mix should normalize to ratios summing to one", func() {
				So(p.ContentTypeMix["photo"], ShouldAlmostEqual, 0.5)
				So(p.ContentTypeMix["video"], ShouldAlmostEqual, 0.25)
				So(p.ContentTypeMix["text"], ShouldAlmostEqual, 0.25)
			})
		})

		Convey("When task history is present", func() {
			p := a.Analyze("member-1", nil, behavior.TaskHistory{Assigned: 4, Completed: 3}, now)

			Convey("Then the completion rate should be completed over assigned", func() {
				So(p.TaskCompletionRate, ShouldNotBeNil)
				So(*p.TaskCompletionRate, ShouldAlmostEqual, 0.75)
			})
		})

		Convey("When more tasks completed than assigned in the window", func() {
			p := a.Analyze("member-1", nil, behavior.TaskHistory{Assigned: 2, Completed: 5}, now)

			Convey("Then the rate should clamp to one", func() {
				So(*p.TaskCompletionRate, ShouldAlmostEqual, 1.0)
			})
		})

		Convey("When computing the learning score", func() {
			one := a.Analyze("member-1", []model.InteractionEvent{
				event(model.EventFeedViewed, now.Add(-time.Hour), nil),
			}, behavior.TaskHistory{}, now)

			var many []model.InteractionEvent
			for i := 0; i < 100; i++ {
				many = append(many, event(model.EventFeedViewed, now.Add(-time.Duration(i)*time.Minute), nil))
			}
			hundred := a.Analyze("member-1", many, behavior.TaskHistory{}, now)

			Convey("Then it should grow logarithmically with window activity", func() {
				So(one.LearningScore, ShouldEqual, 10)
				So(hundred.LearningScore, ShouldEqual, 67)
				So(hundred.LearningScore, ShouldBeLessThanOrEqualTo, 100)
			})
		})

		Convey("When analyzing the same inputs twice", func() {
			events := []model.InteractionEvent{
				event(model.EventPostCreated, now.Add(-24*time.Hour), map[string]string{"content_type": "photo"}),
				event(model.EventLikeGiven, now.Add(-2*time.Hour), nil),
			}
			p1 := a.Analyze("member-1", events, behavior.TaskHistory{Assigned: 1, Completed: 1}, now)
			p2 := a.Analyze("member-1", events, behavior.TaskHistory{Assigned: 1, Completed: 1}, now)

			Convey("Then both profiles should be identical", func() {
				So(p2, ShouldResemble, p1)
			})
		})
	})
}
