// Package planner implements the constrained per-day recipe selection
// pipeline: per-day candidate pools are sampled deterministically from the
// recipe store, a model picks one recipe per day from its own pool, and the
// result is validated against the parsed requirements with a bounded retry
// loop that feeds failures back into the next attempt.
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dinner-planner/internal/llm"
	"dinner-planner/internal/recipe"
	"dinner-planner/internal/requirements"
	"dinner-planner/internal/shared"

	"github.com/rs/zerolog/log"
)

// maxRetries bounds the number of re-selection attempts after the first.
// The loop is latency-bounded for interactive use, not an exhaustive search.
const maxRetries = 2

// Service ties the pool builder, selector and validator together.
type Service struct {
	pools    *PoolBuilder
	selector *Selector
}

// NewService creates the planning service.
func NewService(store recipe.Searcher, textGen llm.TextGenerator) *Service {
	return &Service{
		pools:    NewPoolBuilder(store),
		selector: NewSelector(textGen),
	}
}

// PlanRequest is the input to one planning run.
type PlanRequest struct {
	UserID           string
	Message          string
	Dates            []string
	WeekStart        time.Time
	RecentNames      []string
	ExcludeAllergens []string
}

// PlanResult is the pipeline's final output: the ordered selections plus
// the last attempt's findings for caller-side logging or disclosure.
type PlanResult struct {
	Requirements []requirements.DayRequirement
	Selections   []Selection
	HardFailures []Finding
	SoftWarnings []Finding
	Attempts     int
	Metas        []shared.AgentMeta
}

// Plan runs the full pipeline. It never fails for a normal request: the
// worst case is a plan with fewer days filled than asked, or one whose
// constraints were not perfectly met, described by the returned findings.
func (s *Service) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	reqs := requirements.Parse(req.Message, req.Dates)
	result := &PlanResult{Requirements: reqs}
	if len(reqs) == 0 {
		return result, nil
	}

	sc := SeedContext{UserID: req.UserID, WeekStart: req.WeekStart}
	excluded := make(map[string][]string)
	feedback := ""

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result.Attempts = attempt + 1

		pools, timings, err := s.pools.BuildPools(ctx, reqs, req.RecentNames, req.ExcludeAllergens, excluded, sc)
		if err != nil {
			return nil, fmt.Errorf("failed to build candidate pools: %w", err)
		}
		for date, d := range timings {
			log.Debug().Str("date", date).Dur("took", d).Int("pool", len(pools[date])).Msg("built pool")
		}

		selections, meta := s.selector.Select(ctx, pools, reqs, req.RecentNames, feedback)
		if meta.Usage.TotalTokens > 0 || meta.Latency > 0 {
			result.Metas = append(result.Metas, meta)
		}

		pairedRecipes, pairedReqs := pairByDate(selections, reqs)
		hard, soft := Validate(pairedRecipes, pairedReqs)

		result.Selections = selections
		result.HardFailures = hard
		result.SoftWarnings = soft

		if len(hard) == 0 {
			return result, nil
		}
		if attempt == maxRetries {
			break
		}

		feedback = buildFeedback(hard)
		for _, f := range hard {
			excluded[f.Date] = append(excluded[f.Date], f.RecipeID)
		}
		log.Info().Int("attempt", attempt+1).Int("hard_failures", len(hard)).
			Msg("retrying selection with feedback")
	}

	// Out of retries: deliver the last attempt anyway and let the caller
	// disclose the unmet constraints.
	log.Warn().Int("hard_failures", len(result.HardFailures)).
		Msg("retry budget exhausted, delivering plan with unmet constraints")
	return result, nil
}

// pairByDate aligns selections with their day requirements so the
// validator can compare them positionally. Days that produced no selection
// are dropped from both sides.
func pairByDate(selections []Selection, reqs []requirements.DayRequirement) ([]recipe.Recipe, []requirements.DayRequirement) {
	byDate := make(map[string]requirements.DayRequirement, len(reqs))
	for _, r := range reqs {
		byDate[r.Date] = r
	}

	recipes := make([]recipe.Recipe, 0, len(selections))
	paired := make([]requirements.DayRequirement, 0, len(selections))
	for _, sel := range selections {
		r, ok := byDate[sel.Date]
		if !ok {
			continue
		}
		recipes = append(recipes, sel.Recipe)
		paired = append(paired, r)
	}
	return recipes, paired
}

// buildFeedback renders hard failures as prompt feedback for the next
// selection attempt.
func buildFeedback(hard []Finding) string {
	var sb strings.Builder
	for _, f := range hard {
		fmt.Fprintf(&sb, "on %s, %q violates %s because %s\n", f.Date, f.RecipeName, f.Requirement, f.Reason)
	}
	return sb.String()
}

// GetNextMonday returns the Monday strictly after t.
func GetNextMonday(t time.Time) time.Time {
	daysAhead := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	next := t.AddDate(0, 0, daysAhead)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, t.Location())
}

// WeekDates returns the ISO dates of the seven days starting at weekStart.
func WeekDates(weekStart time.Time) []string {
	dates := make([]string, 7)
	for i := range dates {
		dates[i] = weekStart.AddDate(0, 0, i).Format("2006-01-02")
	}
	return dates
}
