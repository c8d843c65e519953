package planner

import (
	"context"
	"fmt"
	"testing"

	"dinner-planner/internal/recipe"
	"dinner-planner/internal/requirements"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoDayFixture() (map[string][]recipe.Recipe, []requirements.DayRequirement) {
	pools := map[string][]recipe.Recipe{
		"2025-01-06": {mainDish("r1", "Lasagna", "italian"), mainDish("r2", "Risotto", "italian")},
		"2025-01-07": {mainDish("r3", "Veggie Stir Fry", "vegetarian"), mainDish("r4", "Lentil Curry", "vegetarian")},
	}
	reqs := []requirements.DayRequirement{
		{Date: "2025-01-06", Cuisine: "italian"},
		{Date: "2025-01-07", DietaryHard: []string{"vegetarian"}},
	}
	return pools, reqs
}

func TestSelectHonorsModelChoice(t *testing.T) {
	pools, reqs := twoDayFixture()
	gen := &scriptedGenerator{replies: []string{`{"2025-01-06": "r2", "2025-01-07": "r3"}`}}

	selections, meta := NewSelector(gen).Select(context.Background(), pools, reqs, nil, "")
	require.Len(t, selections, 2)
	assert.Equal(t, "r2", selections[0].Recipe.ID)
	assert.Equal(t, "r3", selections[1].Recipe.ID)
	assert.Equal(t, "Selector", meta.AgentName)
	assert.Equal(t, 120, meta.Usage.TotalTokens)
}

func TestSelectContainment(t *testing.T) {
	// whatever the model answers, every selection must come from the day's own pool
	pools, reqs := twoDayFixture()
	replies := []string{
		`{"2025-01-06": "r3", "2025-01-07": "r1"}`, // ids from the other day's pool
		`{"2025-01-06": "r999"}`,                   // unknown id
		`{"2025-01-06": 42}`,                       // numeric id
	}
	for _, reply := range replies {
		gen := &scriptedGenerator{replies: []string{reply}}
		selections, _ := NewSelector(gen).Select(context.Background(), pools, reqs, nil, "")
		require.Len(t, selections, 2, "reply %q", reply)
		for _, sel := range selections {
			_, inPool := findByID(pools[sel.Date], sel.Recipe.ID)
			assert.True(t, inPool, "reply %q selected %s outside the pool for %s", reply, sel.Recipe.ID, sel.Date)
		}
	}
}

func TestSelectInvalidIDFallsBackToFirstCandidate(t *testing.T) {
	pools, reqs := twoDayFixture()
	gen := &scriptedGenerator{replies: []string{`{"2025-01-06": "r999", "2025-01-07": "r4"}`}}

	selections, _ := NewSelector(gen).Select(context.Background(), pools, reqs, nil, "")
	require.Len(t, selections, 2)
	assert.Equal(t, "r1", selections[0].Recipe.ID)
	assert.Equal(t, "r4", selections[1].Recipe.ID)
}

func TestSelectFencedAndProseReplies(t *testing.T) {
	pools, reqs := twoDayFixture()
	replies := []string{
		"```json\n{\"2025-01-06\": \"r2\", \"2025-01-07\": \"r4\"}\n```",
		"Here is my selection:\n{\"2025-01-06\": \"r2\", \"2025-01-07\": \"r4\"}\nEnjoy!",
	}
	for _, reply := range replies {
		gen := &scriptedGenerator{replies: []string{reply}}
		selections, _ := NewSelector(gen).Select(context.Background(), pools, reqs, nil, "")
		require.Len(t, selections, 2, "reply %q", reply)
		assert.Equal(t, "r2", selections[0].Recipe.ID)
		assert.Equal(t, "r4", selections[1].Recipe.ID)
	}
}

func TestSelectModelFailureDegradesToFallback(t *testing.T) {
	pools, reqs := twoDayFixture()
	gen := &scriptedGenerator{err: fmt.Errorf("model unavailable")}

	selections, _ := NewSelector(gen).Select(context.Background(), pools, reqs, nil, "")
	require.Len(t, selections, 2)
	assert.Equal(t, "r1", selections[0].Recipe.ID)
	assert.Equal(t, "r3", selections[1].Recipe.ID)
}

func TestSelectUnparseableReplyDegradesToFallback(t *testing.T) {
	pools, reqs := twoDayFixture()
	gen := &scriptedGenerator{replies: []string{"I could not decide, sorry."}}

	selections, _ := NewSelector(gen).Select(context.Background(), pools, reqs, nil, "")
	require.Len(t, selections, 2)
	assert.Equal(t, "r1", selections[0].Recipe.ID)
}

func TestSelectEmptyPoolsSkipsModelCall(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{`{}`}}
	reqs := []requirements.DayRequirement{{Date: "2025-01-06"}}
	pools := map[string][]recipe.Recipe{"2025-01-06": {}}

	selections, _ := NewSelector(gen).Select(context.Background(), pools, reqs, nil, "")
	assert.Empty(t, selections)
	assert.Zero(t, gen.calls, "no candidates means nothing to ask the model about")
}

func TestSelectSkipsEmptyDayButFillsOthers(t *testing.T) {
	pools, reqs := twoDayFixture()
	pools["2025-01-07"] = nil
	gen := &scriptedGenerator{replies: []string{`{"2025-01-06": "r2"}`}}

	selections, _ := NewSelector(gen).Select(context.Background(), pools, reqs, nil, "")
	require.Len(t, selections, 1)
	assert.Equal(t, "2025-01-06", selections[0].Date)
	assert.Equal(t, "r2", selections[0].Recipe.ID)
}

func TestSelectPromptCapsCandidates(t *testing.T) {
	var pool []recipe.Recipe
	for i := 0; i < PoolSize; i++ {
		pool = append(pool, mainDish(fmt.Sprintf("r%d", i), fmt.Sprintf("Dish %d", i)))
	}
	pools := map[string][]recipe.Recipe{"2025-01-06": pool}
	reqs := []requirements.DayRequirement{{Date: "2025-01-06"}}

	gen := &scriptedGenerator{replies: []string{`{"2025-01-06": "r0"}`}}
	_, _ = NewSelector(gen).Select(context.Background(), pools, reqs, nil, "")

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Dish 19")
	assert.NotContains(t, prompt, "Dish 20", "prompt must stay bounded regardless of pool size")
}

func TestSelectFeedbackReachesPrompt(t *testing.T) {
	pools, reqs := twoDayFixture()
	gen := &scriptedGenerator{replies: []string{`{"2025-01-06": "r1"}`}}

	_, _ = NewSelector(gen).Select(context.Background(), pools, reqs, nil, "Lasagna was rejected last time")
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Lasagna was rejected last time")
}

func TestParseSelectorReply(t *testing.T) {
	chosen, err := parseSelectorReply(`{"2025-01-06": "abc", "2025-01-07": 7}`)
	require.NoError(t, err)
	assert.Equal(t, "abc", chosen["2025-01-06"])
	assert.Equal(t, "7", chosen["2025-01-07"])

	_, err = parseSelectorReply("no json here")
	assert.Error(t, err)

	_, err = parseSelectorReply("{broken")
	assert.Error(t, err)
}
