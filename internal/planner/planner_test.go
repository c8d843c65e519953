package planner

import (
	"context"
	"testing"
	"time"

	"dinner-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planRequest(message string) PlanRequest {
	return PlanRequest{
		UserID:    "user-1",
		Message:   message,
		Dates:     []string{"2025-01-06", "2025-01-07"},
		WeekStart: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlanHappyPath(t *testing.T) {
	store := &fakeStore{strict: true, recipes: []recipe.Recipe{
		mainDish("r1", "Lasagna", "italian"),
		mainDish("r2", "Risotto", "italian"),
		mainDish("r3", "Veggie Stir Fry", "vegetarian"),
		mainDish("r4", "Lentil Curry", "vegetarian"),
	}}
	gen := &scriptedGenerator{replies: []string{`{"2025-01-06": "r1", "2025-01-07": "r3"}`}}
	svc := NewService(store, gen)

	result, err := svc.Plan(context.Background(), planRequest("monday italian, tuesday vegetarian"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, result.HardFailures)
	require.Len(t, result.Selections, 2)
	assert.Equal(t, "r1", result.Selections[0].Recipe.ID)
	assert.Equal(t, "r3", result.Selections[1].Recipe.ID)

	require.Len(t, result.Requirements, 2)
	assert.Equal(t, "italian", result.Requirements[0].Cuisine)
	assert.Contains(t, result.Requirements[1].DietaryHard, "vegetarian")

	require.Len(t, result.Metas, 1)
	assert.Equal(t, "Selector", result.Metas[0].AgentName)
}

func TestPlanRetryExcludesRejectedRecipe(t *testing.T) {
	// the store is permissive here, so a mis-tagged recipe can land in the
	// pool and trip the validator
	store := &fakeStore{recipes: []recipe.Recipe{
		mainDish("bad", "Tacos", "mexican"),
		mainDish("good", "Lasagna", "italian"),
	}}
	gen := &scriptedGenerator{replies: []string{
		`{"2025-01-06": "bad"}`,
		`{"2025-01-06": "good"}`,
	}}
	svc := NewService(store, gen)

	req := planRequest("italian dinners")
	req.Dates = req.Dates[:1]

	result, err := svc.Plan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempts)
	assert.Empty(t, result.HardFailures)
	require.Len(t, result.Selections, 1)
	assert.Equal(t, "good", result.Selections[0].Recipe.ID)

	// second round must not re-offer the rejected recipe
	require.Len(t, store.calls, 2)
	assert.Empty(t, store.calls[0].ExcludeIDs)
	assert.Contains(t, store.calls[1].ExcludeIDs, "bad")

	// and the rejection reason must reach the next prompt
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "Tacos")
}

func TestPlanRetryExhaustionDeliversPlanWithFindings(t *testing.T) {
	store := &fakeStore{recipes: []recipe.Recipe{
		mainDish("m1", "Tacos", "mexican"),
		mainDish("m2", "Enchiladas", "mexican"),
		mainDish("m3", "Burrito Bowl", "mexican"),
	}}
	// an empty object makes every attempt fall back to the first candidate
	gen := &scriptedGenerator{replies: []string{`{}`}}
	svc := NewService(store, gen)

	req := planRequest("italian dinners")
	req.Dates = req.Dates[:1]

	result, err := svc.Plan(context.Background(), req)
	require.NoError(t, err, "exhausted retries still deliver a plan")

	assert.Equal(t, 3, result.Attempts)
	require.Len(t, result.Selections, 1)
	assert.NotEmpty(t, result.HardFailures, "unmet constraints are disclosed, not hidden")
}

func TestPlanEmptyDates(t *testing.T) {
	store := &fakeStore{}
	gen := &scriptedGenerator{replies: []string{`{}`}}
	svc := NewService(store, gen)

	result, err := svc.Plan(context.Background(), PlanRequest{UserID: "user-1", Message: "italian"})
	require.NoError(t, err)
	assert.Empty(t, result.Requirements)
	assert.Empty(t, result.Selections)
	assert.Empty(t, store.calls)
}

func TestPlanEmptyStore(t *testing.T) {
	store := &fakeStore{}
	gen := &scriptedGenerator{replies: []string{`{}`}}
	svc := NewService(store, gen)

	result, err := svc.Plan(context.Background(), planRequest("italian dinners"))
	require.NoError(t, err)
	assert.Empty(t, result.Selections)
	assert.Zero(t, gen.calls, "nothing to select from, so the model is never asked")
}

func TestPlanSurpriseDayNeverFails(t *testing.T) {
	store := &fakeStore{recipes: []recipe.Recipe{
		mainDish("m1", "Tacos", "mexican"),
	}}
	gen := &scriptedGenerator{replies: []string{`{"2025-01-06": "m1"}`}}
	svc := NewService(store, gen)

	req := planRequest("monday surprise me")
	req.Dates = req.Dates[:1]

	result, err := svc.Plan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, result.HardFailures)
	require.Len(t, result.Selections, 1)
}

func TestGetNextMonday(t *testing.T) {
	wed := time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC) // a wednesday
	next := GetNextMonday(wed)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, "2025-01-06", next.Format("2006-01-02"))

	// from a monday, the following monday, never the same day
	mon := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-01-13", GetNextMonday(mon).Format("2006-01-02"))
}

func TestWeekDates(t *testing.T) {
	dates := WeekDates(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	require.Len(t, dates, 7)
	assert.Equal(t, "2025-01-06", dates[0])
	assert.Equal(t, "2025-01-12", dates[6])
}
