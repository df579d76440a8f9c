package activitygen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/foundercircle/growthengine/pkg/logger"
)

// randomFloatDivisor scales crypto/rand integers into [0, 1).
const randomFloatDivisor = 1000000

// Archetype names drive which activity shape a synthetic member gets.
const (
	archetypeDailyBuilder     = "daily_builder"
	archetypeCasualPoster     = "casual_poster"
	archetypeCommunityBooster = "community_booster"
	archetypeNewMember        = "new_member"
)

var archetypes = []string{
	archetypeDailyBuilder,
	archetypeCasualPoster,
	archetypeCommunityBooster,
	archetypeNewMember,
}

// member pairs a synthetic id with its archetype and seeded state.
type member struct {
	id        string
	archetype string
	state     MemberState
}

// getRandomFloat returns a random float64 in [0, 1) using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func price(v float64) *float64 { return &v }

// generateMembers creates synthetic members cycling through the archetypes.
func generateMembers(ctx context.Context, config *Config) []member {
	logger.Get().Info(ctx, "generating synthetic members", logger.Int("members", config.Members))

	members := make([]member, config.Members)
	for i := range members {
		id := uuid.New().String()
		archetype := archetypes[i%len(archetypes)]
		members[i] = member{
			id:        id,
			archetype: archetype,
			state:     stateFor(archetype, i),
		}
	}
	return members
}

// stateFor builds the member/business view each archetype carries.
func stateFor(archetype string, i int) MemberState {
	switch archetype {
	case archetypeDailyBuilder:
		return MemberState{
			BusinessName: fmt.Sprintf("Candle Studio %d", i),
			Bio:          "Hand-poured candles, small batches, big plans.",
			Category:     "crafts",
			Products: []Product{
				{Name: "Lavender Candle", Price: price(18), Sold: true},
				{Name: "Cedar Candle", Price: price(22)},
			},
			PitchDeck: &PitchDeck{
				Problem:  "Mass-market candles burn fast and smell artificial.",
				Solution: "Small-batch soy candles with custom scents.",
				Market:   "Local gift shops and online craft buyers.",
				Ask:      "5k for materials and a booth at three fairs.",
			},
			FollowerCount:     120 + i,
			FollowerCountPrev: 90 + i,
			ReceivedLikes:     180,
			ReceivedComments:  40,
		}
	case archetypeCasualPoster:
		return MemberState{
			BusinessName:  fmt.Sprintf("Sticker Lab %d", i),
			Category:      "art",
			FollowerCount: 25,
			ReceivedLikes: 12,
		}
	case archetypeCommunityBooster:
		return MemberState{
			BusinessName: fmt.Sprintf("Bake Club %d", i),
			Bio:          "Cookies every weekend.",
			Category:     "food",
			Products: []Product{
				{Name: "Cookie Box", Sold: false},
			},
			PitchDeck: &PitchDeck{
				Problem: "No good cookie delivery in town.",
			},
			FollowerCount:     60,
			FollowerCountPrev: 58,
			ReceivedLikes:     95,
			ReceivedComments:  30,
		}
	default:
		return MemberState{}
	}
}

// generateEvents builds each member's activity over the configured number
// of days, ending at now. Event ids are unique so the run is replayable
// against the idempotency cache.
func generateEvents(ctx context.Context, config *Config, members []member, stats *Stats) []Event {
	now := time.Now().UTC()
	var events []Event

	for _, m := range members {
		for day := config.Days - 1; day >= 0; day-- {
			base := now.AddDate(0, 0, -day)
			events = append(events, dayEvents(m, base)...)
		}
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events",
		logger.Int("events", len(events)),
		logger.Int("days", config.Days),
	)
	return events
}

// dayEvents emits one member-day of activity according to the archetype.
func dayEvents(m member, base time.Time) []Event {
	var out []Event
	emit := func(eventType string, hour int, payload map[string]string) {
		at := time.Date(base.Year(), base.Month(), base.Day(), hour, 0, 0, 0, time.UTC)
		out = append(out, Event{
			EventID:    uuid.New().String(),
			MemberID:   m.id,
			Type:       eventType,
			Payload:    payload,
			OccurredAt: at.Format(time.RFC3339),
		})
	}

	switch m.archetype {
	case archetypeDailyBuilder:
		emit("post_created", 9, map[string]string{"content_type": "photo"})
		emit("like_given", 12, nil)
		if getRandomFloat() < 0.5 {
			emit("comment_made", 18, nil)
		}
		if getRandomFloat() < 0.2 {
			emit("product_added", 20, map[string]string{"name": "New Scent"})
		}
	case archetypeCasualPoster:
		if getRandomFloat() < 0.3 {
			emit("post_created", 16, map[string]string{"content_type": "text"})
		}
		emit("feed_viewed", 21, nil)
	case archetypeCommunityBooster:
		emit("like_given", 8, nil)
		emit("comment_made", 8, nil)
		if getRandomFloat() < 0.15 {
			emit("post_created", 19, map[string]string{"content_type": "photo"})
		}
	default:
		if getRandomFloat() < 0.4 {
			emit("feed_viewed", 15, nil)
		}
	}
	return out
}
