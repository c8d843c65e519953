package planner

import (
	"context"
	"fmt"

	"dinner-planner/internal/llm"
	"dinner-planner/internal/recipe"
	"dinner-planner/internal/shared"
)

// fakeStore implements recipe.Searcher over an in-memory recipe list. It
// honors exclusion IDs and, when strict is set, the include/exclude tag
// semantics of the real store. Results keep insertion order so tests can
// assert on pool positions.
type fakeStore struct {
	recipes []recipe.Recipe
	strict  bool
	calls   []recipe.SearchParams
}

func (f *fakeStore) SearchSampled(_ context.Context, params recipe.SearchParams) ([]recipe.Recipe, error) {
	f.calls = append(f.calls, params)

	excluded := make(map[string]struct{})
	for _, id := range params.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	var out []recipe.Recipe
	for _, rec := range f.recipes {
		if _, skip := excluded[rec.ID]; skip {
			continue
		}
		if f.strict && !hasAllTags(&rec, params.IncludeTags) {
			continue
		}
		if f.strict && hasAnyTag(&rec, params.ExcludeTags) {
			continue
		}
		out = append(out, rec)
		if params.Limit > 0 && len(out) == params.Limit {
			break
		}
	}
	return out, nil
}

func hasAllTags(rec *recipe.Recipe, tags []string) bool {
	for _, t := range tags {
		if !rec.HasTag(t) {
			return false
		}
	}
	return true
}

func hasAnyTag(rec *recipe.Recipe, tags []string) bool {
	for _, t := range tags {
		if rec.HasTag(t) {
			return true
		}
	}
	return false
}

// scriptedGenerator returns canned replies in order, then repeats the last
// one. A nil replies slice makes every call fail.
type scriptedGenerator struct {
	replies []string
	err     error
	calls   int
	prompts []string
}

func (g *scriptedGenerator) GenerateContent(_ context.Context, prompt string) (llm.ContentResponse, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return llm.ContentResponse{}, g.err
	}
	if len(g.replies) == 0 {
		return llm.ContentResponse{}, fmt.Errorf("no scripted reply")
	}
	idx := g.calls - 1
	if idx >= len(g.replies) {
		idx = len(g.replies) - 1
	}
	return llm.ContentResponse{
		Content: g.replies[idx],
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120, Model: "scripted"},
	}, nil
}

func mainDish(id, name string, extraTags ...string) recipe.Recipe {
	return recipe.Recipe{
		ID:   id,
		Name: name,
		Tags: append([]string{"main-dish"}, extraTags...),
		Ingredients: []recipe.Ingredient{
			{Name: "onion"},
		},
	}
}
