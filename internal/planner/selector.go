package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"dinner-planner/internal/llm"
	"dinner-planner/internal/recipe"
	"dinner-planner/internal/requirements"
	"dinner-planner/internal/shared"

	"github.com/rs/zerolog/log"
)

//go:embed selector_prompt.md
var selectorPrompt string

const (
	promptCandidatesPerDay = 20
	promptTagsPerRecipe    = 5
)

// Selection pairs a date with the recipe chosen for it.
type Selection struct {
	Date   string
	Recipe recipe.Recipe
}

// Selector asks the model to pick one recipe per day from pre-filtered
// pools. The model cannot introduce recipes from outside a pool: any id it
// returns is validated against the day's own candidates, and anything
// invalid falls back to the first pool entry.
type Selector struct {
	textGen llm.TextGenerator
}

// NewSelector creates a Selector backed by the given text generator.
func NewSelector(textGen llm.TextGenerator) *Selector {
	return &Selector{textGen: textGen}
}

type selectorPromptData struct {
	RecentMeals []string
	Feedback    string
	Days        []selectorDay
}

type selectorDay struct {
	Date         string
	Requirements string
	Candidates   []selectorCandidate
}

type selectorCandidate struct {
	ID   string
	Name string
	Tags string
}

// Select returns one Selection per day requirement in order, skipping days
// whose pool is empty. Model failures never surface: they degrade to a
// deterministic first-of-pool choice for every day.
func (s *Selector) Select(
	ctx context.Context,
	pools map[string][]recipe.Recipe,
	reqs []requirements.DayRequirement,
	recentMeals []string,
	feedback string,
) ([]Selection, shared.AgentMeta) {
	empty := true
	for _, req := range reqs {
		if len(pools[req.Date]) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return nil, shared.AgentMeta{AgentName: "Selector"}
	}

	start := time.Now()
	prompt, err := buildSelectorPrompt(pools, reqs, recentMeals, feedback)
	if err != nil {
		log.Error().Err(err).Msg("failed to build selector prompt, falling back to first candidates")
		return fallbackSelections(pools, reqs), shared.AgentMeta{AgentName: "Selector"}
	}

	resp, err := s.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{
		AgentName: "Selector",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if err != nil {
		log.Warn().Err(err).Msg("selector model call failed, falling back to first candidates")
		return fallbackSelections(pools, reqs), meta
	}

	chosen, err := parseSelectorReply(resp.Content)
	if err != nil {
		log.Warn().Err(err).Msg("selector reply unparseable, falling back to first candidates")
		return fallbackSelections(pools, reqs), meta
	}

	var selections []Selection
	for _, req := range reqs {
		pool := pools[req.Date]
		if len(pool) == 0 {
			continue
		}

		picked := pool[0]
		if id, ok := chosen[req.Date]; ok {
			if match, found := findByID(pool, id); found {
				picked = match
			} else {
				log.Warn().Str("date", req.Date).Str("recipe_id", id).
					Msg("model returned id outside the offered pool, substituting first candidate")
			}
		}
		selections = append(selections, Selection{Date: req.Date, Recipe: picked})
	}
	return selections, meta
}

func buildSelectorPrompt(
	pools map[string][]recipe.Recipe,
	reqs []requirements.DayRequirement,
	recentMeals []string,
	feedback string,
) (string, error) {
	data := selectorPromptData{RecentMeals: recentMeals, Feedback: feedback}
	for i := range reqs {
		req := &reqs[i]
		pool := pools[req.Date]
		if len(pool) == 0 {
			continue
		}
		day := selectorDay{Date: req.Date, Requirements: req.Describe()}
		for _, rec := range pool {
			if len(day.Candidates) == promptCandidatesPerDay {
				break
			}
			tags := rec.Tags
			if len(tags) > promptTagsPerRecipe {
				tags = tags[:promptTagsPerRecipe]
			}
			day.Candidates = append(day.Candidates, selectorCandidate{
				ID:   rec.ID,
				Name: rec.Name,
				Tags: strings.Join(tags, ", "),
			})
		}
		data.Days = append(data.Days, day)
	}

	tmpl, err := template.New("selector").Parse(selectorPrompt)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// parseSelectorReply extracts the date-to-id mapping from an untrusted
// model reply: markdown fences are stripped and only the outermost JSON
// object is considered, tolerating surrounding prose.
func parseSelectorReply(content string) (map[string]string, error) {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	open := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if open < 0 || end <= open {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned[open:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse selection JSON: %w", err)
	}

	chosen := make(map[string]string, len(raw))
	for date, v := range raw {
		switch id := v.(type) {
		case string:
			chosen[date] = id
		case float64:
			chosen[date] = fmt.Sprintf("%v", id)
		}
	}
	return chosen, nil
}

func findByID(pool []recipe.Recipe, id string) (recipe.Recipe, bool) {
	id = strings.TrimSpace(id)
	for _, rec := range pool {
		if rec.ID == id {
			return rec, true
		}
	}
	return recipe.Recipe{}, false
}

// fallbackSelections takes the first candidate of every non-empty pool in
// one deterministic pass.
func fallbackSelections(pools map[string][]recipe.Recipe, reqs []requirements.DayRequirement) []Selection {
	var selections []Selection
	for _, req := range reqs {
		if pool := pools[req.Date]; len(pool) > 0 {
			selections = append(selections, Selection{Date: req.Date, Recipe: pool[0]})
		}
	}
	return selections
}
