package tasks

import (
	"sort"
	"time"

	"github.com/foundercircle/growthengine/internal/domain/model"
)

// Default generation constants.
const (
	defaultMaxOpen  = 5
	defaultCooldown = 7 * 24 * time.Hour
)

// Candidate is a rule that fired and survived deduplication.
type Candidate struct {
	Category string
	TitleKey string
	Priority model.TaskPriority
	Gap      int
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithMaxOpen caps how many candidates are surfaced per run.
func WithMaxOpen(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxOpen = n
		}
	}
}

// WithCooldown sets how long a completed task suppresses its rule.
func WithCooldown(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.cooldown = d
		}
	}
}

// WithRules replaces the rule catalog, for tests.
func WithRules(rules []Rule) Option {
	return func(g *Generator) {
		if len(rules) > 0 {
			g.rules = rules
		}
	}
}

// Generator evaluates the catalog against member state. It is stateless;
// materializing candidates into stored tasks is the caller's job, under the
// member's exclusivity boundary.
type Generator struct {
	rules    []Rule
	maxOpen  int
	cooldown time.Duration
}

// New creates a Generator over the fixed catalog.
func New(opts ...Option) *Generator {
	g := &Generator{
		rules:    Catalog(),
		maxOpen:  defaultMaxOpen,
		cooldown: defaultCooldown,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Cooldown returns the configured completion cool-down window.
func (g *Generator) Cooldown() time.Duration { return g.cooldown }

// Candidates evaluates every rule, drops those with an open task or a task
// completed inside the cool-down for the same (category, title key), and
// returns candidates ordered by priority then point gap, capped so open
// tasks plus new candidates never exceed maxOpen. The ordering is fully
// deterministic: ties after priority and gap fall back to category and
// title key.
func (g *Generator) Candidates(in Input, open []model.GrowthTask, completed []model.GrowthTask, now time.Time) []Candidate {
	type key struct{ category, titleKey string }

	openCount := 0
	suppressed := make(map[key]bool, len(open)+len(completed))
	for _, t := range open {
		if t.Open() {
			openCount++
			suppressed[key{t.Category, t.TitleKey}] = true
		}
	}
	cutoff := now.Add(-g.cooldown)
	for _, t := range completed {
		if t.CompletedAt != nil && t.CompletedAt.After(cutoff) {
			suppressed[key{t.Category, t.TitleKey}] = true
		}
	}

	candidates := make([]Candidate, 0, len(g.rules))
	for _, r := range g.rules {
		if !r.When(in) {
			continue
		}
		if suppressed[key{r.Category, r.TitleKey}] {
			continue
		}
		candidates = append(candidates, Candidate{
			Category: r.Category,
			TitleKey: r.TitleKey,
			Priority: r.Priority,
			Gap:      r.Gap(in),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if a.Gap != b.Gap {
			return a.Gap > b.Gap
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.TitleKey < b.TitleKey
	})

	budget := g.maxOpen - openCount
	if budget < 0 {
		budget = 0
	}
	if len(candidates) > budget {
		candidates = candidates[:budget]
	}
	return candidates
}
