package streak_test

import (
	"testing"
	"time"

	"github.com/foundercircle/growthengine/internal/domain/model"
	streak "github.com/foundercircle/growthengine/internal/domain/streak"
	. "github.com/smartystreets/goconvey/convey"
)

func TestQualifying(t *testing.T) {
	Convey("Given the event-to-streak mapping", t, func() {
		Convey("When a post is created", func() {
			So(streak.Qualifying(model.EventPostCreated), ShouldResemble, []model.StreakType{model.StreakPosting})
		})

		Convey("When a task is completed", func() {
			So(streak.Qualifying(model.EventTaskCompleted), ShouldResemble, []model.StreakType{model.StreakTaskCompletion})
		})

		Convey("When a like or comment is given", func() {
			So(streak.Qualifying(model.EventLikeGiven), ShouldResemble, []model.StreakType{model.StreakEngagement})
			So(streak.Qualifying(model.EventCommentMade), ShouldResemble, []model.StreakType{model.StreakEngagement})
		})

		Convey("When the event is passive", func() {
			So(streak.Qualifying(model.EventFeedViewed), ShouldBeNil)
			So(streak.Qualifying(model.EventProfileUpdated), ShouldBeNil)
		})
	})
}

func TestAdvance(t *testing.T) {
	monday := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	Convey("Given a member with no streak history", t, func() {
		s := model.Streak{MemberID: "member-1", Type: model.StreakPosting}

		Convey("When the first qualifying event arrives", func() {
			next := streak.Advance(s, monday)

			Convey("Then the streak starts at one", func() {
				So(next.CurrentLength, ShouldEqual, 1)
				So(next.LastQualifyingDate, ShouldEqual, streak.Day(monday))
			})
		})
	})

	Convey("Given an active streak", t, func() {
		s := streak.Advance(model.Streak{MemberID: "member-1", Type: model.StreakPosting}, monday)

		Convey("When a second event arrives the same day", func() {
			next := streak.Advance(s, monday.Add(6*time.Hour))

			Convey("Then the streak is unchanged", func() {
				So(next, ShouldResemble, s)
			})
		})

		Convey("When an event arrives the next day", func() {
			next := streak.Advance(s, monday.Add(24*time.Hour))

			Convey("Then the streak increments", func() {
				So(next.CurrentLength, ShouldEqual, 2)
				So(next.LastQualifyingDate, ShouldEqual, streak.Day(monday.Add(24*time.Hour)))
			})
		})

		Convey("When an event arrives just before the day boundary", func() {
			next := streak.Advance(s, monday.Add(13*time.Hour+59*time.Minute))

			Convey("Then it still counts as the same day", func() {
				So(next.CurrentLength, ShouldEqual, 1)
			})
		})

		Convey("When a late-arriving event predates the last qualifying day", func() {
			next := streak.Advance(s, monday.Add(-48*time.Hour))

			Convey("Then the streak never rewinds", func() {
				So(next, ShouldResemble, s)
			})
		})

		Convey("When the member skips a day", func() {
			next := streak.Advance(s, monday.Add(2*24*time.Hour))

			Convey("Then the streak resets to one", func() {
				So(next.CurrentLength, ShouldEqual, 1)
				So(next.LastQualifyingDate, ShouldEqual, streak.Day(monday.Add(2*24*time.Hour)))
			})
		})
	})

	Convey("Given events across consecutive days", t, func() {
		s := model.Streak{MemberID: "member-1", Type: model.StreakEngagement}
		for day := 0; day < 5; day++ {
			s = streak.Advance(s, monday.AddDate(0, 0, day))
		}

		Convey("Then the streak matches the day count", func() {
			So(s.CurrentLength, ShouldEqual, 5)
		})
	})
}
