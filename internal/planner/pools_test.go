package planner

import (
	"context"
	"testing"
	"time"

	"dinner-planner/internal/recipe"
	"dinner-planner/internal/requirements"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeedContext() SeedContext {
	return SeedContext{
		UserID:    "user-1",
		WeekStart: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	}
}

func TestDaySeedDeterministic(t *testing.T) {
	sc := testSeedContext()
	assert.Equal(t, DaySeed(sc, 0), DaySeed(sc, 0))
	assert.NotEqual(t, DaySeed(sc, 0), DaySeed(sc, 1))

	other := sc
	other.WeekStart = other.WeekStart.AddDate(0, 0, 7)
	assert.NotEqual(t, DaySeed(sc, 0), DaySeed(other, 0))

	otherUser := sc
	otherUser.UserID = "user-2"
	assert.NotEqual(t, DaySeed(sc, 0), DaySeed(otherUser, 0))
}

func TestBuildPoolsSearchParams(t *testing.T) {
	store := &fakeStore{recipes: []recipe.Recipe{mainDish("r1", "Lasagna", "italian")}}
	builder := NewPoolBuilder(store)

	reqs := []requirements.DayRequirement{
		{Date: "2025-01-06", Cuisine: "italian", DietaryHard: []string{"vegetarian"}},
	}
	excluded := map[string][]string{"2025-01-06": {"bad-id"}}

	_, _, err := builder.BuildPools(context.Background(), reqs, nil, nil, excluded, testSeedContext())
	require.NoError(t, err)
	require.Len(t, store.calls, 1)

	params := store.calls[0]
	assert.Equal(t, []string{"main-dish", "italian", "vegetarian"}, params.IncludeTags)
	assert.Contains(t, params.ExcludeTags, "dessert")
	assert.Contains(t, params.ExcludeTags, "beverage")
	assert.Equal(t, []string{"bad-id"}, params.ExcludeIDs)
	assert.Equal(t, PoolSize, params.Limit)
	assert.Equal(t, DaySeed(testSeedContext(), 0), params.Seed)
}

func TestBuildPoolsPerDaySeeds(t *testing.T) {
	store := &fakeStore{}
	builder := NewPoolBuilder(store)

	reqs := []requirements.DayRequirement{
		{Date: "2025-01-06"},
		{Date: "2025-01-07"},
	}
	_, _, err := builder.BuildPools(context.Background(), reqs, nil, nil, nil, testSeedContext())
	require.NoError(t, err)
	require.Len(t, store.calls, 2)
	assert.NotEqual(t, store.calls[0].Seed, store.calls[1].Seed)
}

func TestBuildPoolsAllergenFilteringIsConservative(t *testing.T) {
	withData := mainDish("r1", "Peanut Stew")
	withData.Ingredients = []recipe.Ingredient{{Name: "peanuts", Allergens: []string{"peanut"}}}

	safe := mainDish("r2", "Tomato Soup")
	safe.Ingredients = []recipe.Ingredient{{Name: "tomato"}}

	noData := mainDish("r3", "Mystery Dish")
	noData.Ingredients = nil

	store := &fakeStore{recipes: []recipe.Recipe{withData, safe, noData}}
	builder := NewPoolBuilder(store)
	reqs := []requirements.DayRequirement{{Date: "2025-01-06"}}

	pools, _, err := builder.BuildPools(context.Background(), reqs, nil, []string{"peanut"}, nil, testSeedContext())
	require.NoError(t, err)

	pool := pools["2025-01-06"]
	require.Len(t, pool, 1, "allergen match and missing ingredient data must both be dropped")
	assert.Equal(t, "r2", pool[0].ID)
}

func TestBuildPoolsNoAllergenFilterWhenNoneExcluded(t *testing.T) {
	noData := mainDish("r1", "Mystery Dish")
	noData.Ingredients = nil

	store := &fakeStore{recipes: []recipe.Recipe{noData}}
	builder := NewPoolBuilder(store)
	reqs := []requirements.DayRequirement{{Date: "2025-01-06"}}

	pools, _, err := builder.BuildPools(context.Background(), reqs, nil, nil, nil, testSeedContext())
	require.NoError(t, err)
	assert.Len(t, pools["2025-01-06"], 1)
}

func TestBuildPoolsDemotesRecentWithoutRemoving(t *testing.T) {
	store := &fakeStore{recipes: []recipe.Recipe{
		mainDish("r1", "Lasagna"),
		mainDish("r2", "Tacos"),
		mainDish("r3", "Curry"),
	}}
	builder := NewPoolBuilder(store)
	reqs := []requirements.DayRequirement{{Date: "2025-01-06"}}

	pools, _, err := builder.BuildPools(context.Background(), reqs, []string{"LASAGNA"}, nil, nil, testSeedContext())
	require.NoError(t, err)

	pool := pools["2025-01-06"]
	require.Len(t, pool, 3, "recently cooked recipes are demoted, never removed")
	assert.Equal(t, "r2", pool[0].ID)
	assert.Equal(t, "r3", pool[1].ID)
	assert.Equal(t, "r1", pool[2].ID)
}

func TestBuildPoolsEmptyPoolIsNotAnError(t *testing.T) {
	store := &fakeStore{}
	builder := NewPoolBuilder(store)
	reqs := []requirements.DayRequirement{{Date: "2025-01-06"}}

	pools, timings, err := builder.BuildPools(context.Background(), reqs, nil, nil, nil, testSeedContext())
	require.NoError(t, err)
	assert.Empty(t, pools["2025-01-06"])
	assert.Contains(t, timings, "2025-01-06")
}
