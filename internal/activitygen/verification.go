package activitygen

import (
	"context"
	"fmt"

	"github.com/foundercircle/growthengine/pkg/logger"
)

// statusFor mirrors the engine's default score bands.
func statusFor(total int) string {
	switch {
	case total >= 80:
		return "VC-Ready"
	case total >= 50:
		return "Emerging"
	default:
		return "Building"
	}
}

// verifyMembers reads every derived surface back and checks the engine's
// published invariants hold for each synthetic member.
func verifyMembers(ctx context.Context, config *Config, client *HTTPClient, members []member, stats *Stats) error {
	logger.Get().Info(ctx, "verifying derived state", logger.Int("members", len(members)))

	for _, m := range members {
		violations := checkMember(ctx, config, client, m)
		stats.Violations += len(violations)
		for _, v := range violations {
			logger.Get().Warn(ctx, "invariant violation",
				logger.String("memberID", m.id),
				logger.String("archetype", m.archetype),
				logger.String("violation", v),
			)
		}
		stats.MembersVerified++
	}

	if stats.Violations > 0 {
		return fmt.Errorf("%d invariant violations across %d members", stats.Violations, stats.MembersVerified)
	}
	return nil
}

func checkMember(ctx context.Context, config *Config, client *HTTPClient, m member) []string {
	base := config.BaseURL + "/members/" + m.id
	var violations []string

	var score Score
	if err := client.getJSON(ctx, base+"/score", &score); err != nil {
		return []string{fmt.Sprintf("fetch score: %v", err)}
	}
	sum := 0
	for _, pts := range score.Components {
		if pts < 0 {
			violations = append(violations, fmt.Sprintf("negative component points: %v", score.Components))
		}
		sum += pts
	}
	if sum != score.Total {
		violations = append(violations, fmt.Sprintf("total %d != component sum %d", score.Total, sum))
	}
	if score.Total < 0 || score.Total > 100 {
		violations = append(violations, fmt.Sprintf("total %d out of range", score.Total))
	}
	if want := statusFor(score.Total); score.Status != want {
		violations = append(violations, fmt.Sprintf("status %q for total %d, want %q", score.Status, score.Total, want))
	}

	var tasks []Task
	if err := client.getJSON(ctx, base+"/tasks", &tasks); err != nil {
		violations = append(violations, fmt.Sprintf("fetch tasks: %v", err))
	} else {
		if len(tasks) > 5 {
			violations = append(violations, fmt.Sprintf("%d open tasks, cap is 5", len(tasks)))
		}
		seen := make(map[string]bool, len(tasks))
		for _, t := range tasks {
			key := t.Category + "/" + t.TitleKey
			if seen[key] {
				violations = append(violations, "duplicate open task "+key)
			}
			seen[key] = true
			if t.MemberID != m.id {
				violations = append(violations, "task for wrong member "+t.MemberID)
			}
		}
	}

	var suggestions []Suggestion
	if err := client.getJSON(ctx, base+"/suggestions", &suggestions); err != nil {
		violations = append(violations, fmt.Sprintf("fetch suggestions: %v", err))
	} else if len(suggestions) > 3 {
		violations = append(violations, fmt.Sprintf("%d suggestions, cap is 3", len(suggestions)))
	}

	var streaks map[string]Streak
	if err := client.getJSON(ctx, base+"/streaks", &streaks); err != nil {
		violations = append(violations, fmt.Sprintf("fetch streaks: %v", err))
	} else {
		for _, want := range []string{"posting", "task_completion", "engagement"} {
			if _, ok := streaks[want]; !ok {
				violations = append(violations, "missing streak type "+want)
			}
		}
		if m.archetype == archetypeDailyBuilder && config.Days >= 2 {
			if s := streaks["posting"]; s.CurrentLength < 2 {
				violations = append(violations, fmt.Sprintf("daily builder posting streak %d, want >= 2", s.CurrentLength))
			}
		}
	}

	return violations
}
