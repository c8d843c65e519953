package planner

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"dinner-planner/internal/recipe"
	"dinner-planner/internal/requirements"
	"dinner-planner/internal/vocab"

	"github.com/rs/zerolog/log"
)

// PoolSize caps the number of candidates offered per day.
const PoolSize = 80

// SeedContext identifies a planning run for seeding purposes. The same user
// and week always produce the same per-day pools over unchanged data.
type SeedContext struct {
	UserID    string
	WeekStart time.Time
}

// DaySeed derives the deterministic seed for one day of a planning run.
// Different days within a week get different samples; different weeks get
// different seeds entirely.
func DaySeed(sc SeedContext, dayIndex int) int64 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s", sc.UserID, sc.WeekStart.Format("2006-01-02"))
	base := int64(h.Sum32()) % (1 << 31)
	return base + int64(dayIndex)
}

// PoolBuilder assembles per-day candidate pools from the recipe store.
type PoolBuilder struct {
	store recipe.Searcher
}

// NewPoolBuilder creates a PoolBuilder backed by the given store.
func NewPoolBuilder(store recipe.Searcher) *PoolBuilder {
	return &PoolBuilder{store: store}
}

// BuildPools queries a bounded, seeded candidate set for each day
// requirement in list order, applies allergen filtering, and demotes
// recently-used recipes to the back of each pool. An empty pool for a day
// is not an error here; the selector decides what a missing day means.
func (b *PoolBuilder) BuildPools(
	ctx context.Context,
	reqs []requirements.DayRequirement,
	recentNames []string,
	excludeAllergens []string,
	excludedIDs map[string][]string,
	sc SeedContext,
) (map[string][]recipe.Recipe, map[string]time.Duration, error) {
	pools := make(map[string][]recipe.Recipe, len(reqs))
	timings := make(map[string]time.Duration, len(reqs))

	for i, req := range reqs {
		start := time.Now()

		includeTags := []string{"main-dish"}
		if req.Cuisine != "" {
			includeTags = append(includeTags, req.Cuisine)
		}
		includeTags = append(includeTags, req.DietaryHard...)

		candidates, err := b.store.SearchSampled(ctx, recipe.SearchParams{
			IncludeTags: includeTags,
			ExcludeTags: vocab.ExcludedCourseTags(),
			ExcludeIDs:  excludedIDs[req.Date],
			Query:       strings.Join(req.Unhandled, " "),
			Limit:       PoolSize,
			Seed:        DaySeed(sc, i),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to search candidates for %s: %w", req.Date, err)
		}

		if len(excludeAllergens) > 0 {
			candidates = filterAllergens(candidates, excludeAllergens)
		}

		pools[req.Date] = demoteRecent(candidates, recentNames)
		timings[req.Date] = time.Since(start)

		if len(pools[req.Date]) == 0 {
			log.Warn().Str("date", req.Date).Strs("include_tags", includeTags).
				Msg("no candidates found for day")
		}
	}

	return pools, timings, nil
}

// filterAllergens drops any candidate that either lacks structured
// ingredient data or matches an excluded allergen. Unknown allergen data is
// treated as unsafe whenever allergen exclusion is active.
func filterAllergens(candidates []recipe.Recipe, exclude []string) []recipe.Recipe {
	var safe []recipe.Recipe
	for _, rec := range candidates {
		if !rec.HasIngredientData() {
			continue
		}
		unsafe := false
		for _, allergen := range exclude {
			if rec.HasAllergen(allergen) {
				unsafe = true
				break
			}
		}
		if !unsafe {
			safe = append(safe, rec)
		}
	}
	return safe
}

// demoteRecent moves recipes whose name matches recent history to the end
// of the pool. Stale recipes stay available as a last resort; they are
// demoted, never removed.
func demoteRecent(candidates []recipe.Recipe, recentNames []string) []recipe.Recipe {
	if len(recentNames) == 0 || len(candidates) == 0 {
		return candidates
	}

	recent := make(map[string]struct{}, len(recentNames))
	for _, name := range recentNames {
		recent[strings.ToLower(name)] = struct{}{}
	}

	fresh := make([]recipe.Recipe, 0, len(candidates))
	var stale []recipe.Recipe
	for _, rec := range candidates {
		if _, seen := recent[strings.ToLower(rec.Name)]; seen {
			stale = append(stale, rec)
		} else {
			fresh = append(fresh, rec)
		}
	}
	return append(fresh, stale...)
}
