package repository_test

import (
	"context"
	"testing"
	"time"

	repository "github.com/foundercircle/growthengine/internal/adapters/repository"
	"github.com/foundercircle/growthengine/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func memEvent(id string, at time.Time) model.InteractionEvent {
	return model.InteractionEvent{
		ID:         id,
		MemberID:   "member-1",
		Type:       model.EventPostCreated,
		OccurredAt: at,
	}
}

func TestMemStoreEvents(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	Convey("Given an in-memory store", t, func() {
		s := repository.NewMemStore()

		Convey("When no events exist", func() {
			events, err := s.RecentEvents(ctx, "member-1", 10)
			last, lastErr := s.LastEventAt(ctx, "member-1")

			Convey("Then reads return empty results without errors", func() {
				So(err, ShouldBeNil)
				So(events, ShouldBeEmpty)
				So(lastErr, ShouldBeNil)
				So(last.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When events are appended", func() {
			So(s.AppendEvent(ctx, memEvent("e1", base)), ShouldBeNil)
			So(s.AppendEvent(ctx, memEvent("e2", base.Add(time.Hour))), ShouldBeNil)
			So(s.AppendEvent(ctx, memEvent("e3", base.Add(2*time.Hour))), ShouldBeNil)

			Convey("Then recent events come back newest first", func() {
				events, err := s.RecentEvents(ctx, "member-1", 10)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 3)
				So(events[0].ID, ShouldEqual, "e3")
				So(events[2].ID, ShouldEqual, "e1")
			})

			Convey("Then the limit truncates to the newest entries", func() {
				events, err := s.RecentEvents(ctx, "member-1", 2)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 2)
				So(events[0].ID, ShouldEqual, "e3")
				So(events[1].ID, ShouldEqual, "e2")
			})

			Convey("Then the last event time matches the newest event", func() {
				last, err := s.LastEventAt(ctx, "member-1")
				So(err, ShouldBeNil)
				So(last, ShouldEqual, base.Add(2*time.Hour))
			})

			Convey("And a backdated event arrives", func() {
				So(s.AppendEvent(ctx, memEvent("e0", base.Add(-time.Hour))), ShouldBeNil)

				Convey("Then it slots into occurrence order", func() {
					events, err := s.RecentEvents(ctx, "member-1", 10)
					So(err, ShouldBeNil)
					So(events[len(events)-1].ID, ShouldEqual, "e0")
				})
			})
		})

		Convey("When the limit is not positive", func() {
			_, err := s.RecentEvents(ctx, "member-1", 0)

			Convey("Then the read is rejected", func() {
				So(err, ShouldWrap, repository.ErrInvalidLimit)
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)
			err := s.AppendEvent(ctx, memEvent("e1", base))

			Convey("Then writes are rejected", func() {
				So(err, ShouldWrap, repository.ErrClosed)
			})
		})
	})
}

func TestMemStoreSnapshots(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	snap := func(total int, at time.Time) model.FundingScoreSnapshot {
		return model.FundingScoreSnapshot{
			MemberID:   "member-1",
			Total:      total,
			Components: map[string]int{"posting_frequency": total},
			Status:     model.StatusBuilding,
			ComputedAt: at,
		}
	}

	Convey("Given an in-memory store", t, func() {
		s := repository.NewMemStore()

		Convey("When no snapshots exist", func() {
			_, err := s.LatestSnapshot(ctx, "member-1")

			Convey("Then the latest read reports not found", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When snapshots accumulate", func() {
			So(s.AppendSnapshot(ctx, snap(5, base)), ShouldBeNil)
			So(s.AppendSnapshot(ctx, snap(10, base.Add(time.Hour))), ShouldBeNil)
			So(s.AppendSnapshot(ctx, snap(15, base.Add(2*time.Hour))), ShouldBeNil)

			Convey("Then the latest snapshot wins", func() {
				latest, err := s.LatestSnapshot(ctx, "member-1")
				So(err, ShouldBeNil)
				So(latest.Total, ShouldEqual, 15)
			})

			Convey("Then history returns newest first up to the limit", func() {
				history, err := s.SnapshotHistory(ctx, "member-1", 2)
				So(err, ShouldBeNil)
				So(len(history), ShouldEqual, 2)
				So(history[0].Total, ShouldEqual, 15)
				So(history[1].Total, ShouldEqual, 10)
			})
		})
	})
}

func TestMemStoreStreaks(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	Convey("Given an in-memory store", t, func() {
		s := repository.NewMemStore()

		Convey("When no streaks were written", func() {
			rows, err := s.Streaks(ctx, "member-1")

			Convey("Then the map is empty", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})

		Convey("When streak rows are upserted", func() {
			So(s.UpsertStreak(ctx, model.Streak{
				MemberID: "member-1", Type: model.StreakPosting, CurrentLength: 3, LastQualifyingDate: day,
			}), ShouldBeNil)
			So(s.UpsertStreak(ctx, model.Streak{
				MemberID: "member-1", Type: model.StreakPosting, CurrentLength: 4, LastQualifyingDate: day.AddDate(0, 0, 1),
			}), ShouldBeNil)

			Convey("Then the single (member, type) row reflects the last write", func() {
				rows, err := s.Streaks(ctx, "member-1")
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 1)
				So(rows[model.StreakPosting].CurrentLength, ShouldEqual, 4)
			})
		})
	})
}

func TestMemStoreTasks(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	task := func(id, titleKey string) model.GrowthTask {
		return model.GrowthTask{
			ID:        id,
			MemberID:  "member-1",
			Category:  "profile",
			TitleKey:  titleKey,
			Priority:  model.PriorityHigh,
			CreatedAt: base,
		}
	}

	Convey("Given an in-memory store", t, func() {
		s := repository.NewMemStore()

		Convey("When inserting tasks", func() {
			So(s.InsertTask(ctx, task("t1", "update_bio")), ShouldBeNil)

			Convey("Then a duplicate open (category, title key) conflicts", func() {
				err := s.InsertTask(ctx, task("t2", "update_bio"))
				So(err, ShouldWrap, repository.ErrConflict)
			})

			Convey("Then a different title key inserts cleanly", func() {
				So(s.InsertTask(ctx, task("t3", "pick_category")), ShouldBeNil)
				open, err := s.OpenTasks(ctx, "member-1")
				So(err, ShouldBeNil)
				So(len(open), ShouldEqual, 2)
			})
		})

		Convey("When completing a task", func() {
			So(s.InsertTask(ctx, task("t1", "update_bio")), ShouldBeNil)

			done, err := s.CompleteTask(ctx, "t1", "member-1", base.Add(time.Hour))

			Convey("Then the completion timestamp is recorded", func() {
				So(err, ShouldBeNil)
				So(done.CompletedAt, ShouldNotBeNil)
				So(*done.CompletedAt, ShouldEqual, base.Add(time.Hour))
			})

			Convey("Then completing again is idempotent", func() {
				again, err := s.CompleteTask(ctx, "t1", "member-1", base.Add(2*time.Hour))
				So(err, ShouldBeNil)
				So(*again.CompletedAt, ShouldEqual, base.Add(time.Hour))
			})

			Convey("Then the same rule may be re-inserted once closed", func() {
				So(s.InsertTask(ctx, task("t2", "update_bio")), ShouldBeNil)
			})

			Convey("Then it leaves the open set", func() {
				open, openErr := s.OpenTasks(ctx, "member-1")
				So(openErr, ShouldBeNil)
				So(open, ShouldBeEmpty)
			})

			Convey("Then completed-since reads see it", func() {
				done, doneErr := s.TasksCompletedSince(ctx, "member-1", base)
				So(doneErr, ShouldBeNil)
				So(len(done), ShouldEqual, 1)

				none, noneErr := s.TasksCompletedSince(ctx, "member-1", base.Add(3*time.Hour))
				So(noneErr, ShouldBeNil)
				So(none, ShouldBeEmpty)
			})

			Convey("Then task counts cover assigned and completed", func() {
				assigned, completed, countErr := s.TaskCounts(ctx, "member-1", base.Add(-time.Hour))
				So(countErr, ShouldBeNil)
				So(assigned, ShouldEqual, 1)
				So(completed, ShouldEqual, 1)
			})
		})

		Convey("When completing an unknown or foreign task", func() {
			So(s.InsertTask(ctx, task("t1", "update_bio")), ShouldBeNil)

			_, unknownErr := s.CompleteTask(ctx, "missing", "member-1", base)
			_, foreignErr := s.CompleteTask(ctx, "t1", "member-2", base)

			Convey("Then both report not found", func() {
				So(unknownErr, ShouldWrap, repository.ErrNotFound)
				So(foreignErr, ShouldWrap, repository.ErrNotFound)
			})
		})
	})
}

func TestMemStoreMembers(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory store", t, func() {
		s := repository.NewMemStore()

		Convey("When the member is unknown", func() {
			_, err := s.MemberState(ctx, "member-1")

			Convey("Then the read reports not found", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When member state is upserted", func() {
			So(s.UpsertMemberState(ctx, model.MemberState{MemberID: "member-1", BusinessName: "Candle Studio"}), ShouldBeNil)

			Convey("Then the state reads back", func() {
				state, err := s.MemberState(ctx, "member-1")
				So(err, ShouldBeNil)
				So(state.BusinessName, ShouldEqual, "Candle Studio")
			})
		})

		Convey("When profiles are cached", func() {
			_, ok := s.CachedProfile(ctx, "member-1")
			So(ok, ShouldBeFalse)

			now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
			So(s.CacheProfile(ctx, model.BehaviorProfile{MemberID: "member-1", ComputedAt: now}), ShouldBeNil)

			Convey("Then the cached copy reads back", func() {
				p, ok := s.CachedProfile(ctx, "member-1")
				So(ok, ShouldBeTrue)
				So(p.ComputedAt, ShouldEqual, now)
			})
		})

		Convey("When counting members", func() {
			So(s.UpsertMemberState(ctx, model.MemberState{MemberID: "member-1"}), ShouldBeNil)
			So(s.AppendEvent(ctx, model.InteractionEvent{
				ID: "e1", MemberID: "member-2", Type: model.EventFeedViewed,
				OccurredAt: time.Now(),
			}), ShouldBeNil)

			Convey("Then members with state or events both count once", func() {
				So(s.MemberCount(ctx), ShouldEqual, 2)
			})
		})
	})
}
