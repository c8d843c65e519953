// Package swap classifies free-text "swap this meal" requests against a
// fixed set of backup categories using tiered matching, with a model-based
// yes/no check as the last tier.
package swap

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"dinner-planner/internal/llm"
	"dinner-planner/internal/vocab"

	"github.com/rs/zerolog/log"
)

// Decision is the outcome of classifying a swap request.
type Decision string

const (
	// DecisionAuto applies the swap without further confirmation.
	DecisionAuto Decision = "auto"
	// DecisionConfirm asks the user to pick from the shown options.
	DecisionConfirm Decision = "confirm"
	// DecisionNoMatch leaves the meal untouched.
	DecisionNoMatch Decision = "no_match"
)

// Categories are the backup categories swap requests are matched against.
var Categories = []string{"chicken", "beef", "fish", "pasta", "vegetarian", "soup"}

// relatedTerms maps each category to terms that also identify it.
var relatedTerms = map[string][]string{
	"chicken":    {"poultry", "bird", "wings", "thighs"},
	"beef":       {"steak", "burger", "meatballs", "brisket"},
	"fish":       {"seafood", "salmon", "tuna", "shrimp", "cod"},
	"pasta":      {"noodles", "spaghetti", "penne", "lasagna"},
	"vegetarian": {"veggie", "meatless", "plant"},
	"soup":       {"stew", "broth", "chowder"},
}

// vagueTerms indicate the user wants a change without naming one.
var vagueTerms = []string{"something", "anything", "other", "else", "different"}

var modifierTerms = []string{"swap", "replace", "change"}

// Negated terms must not trigger a match: "no beef please" is a request to
// avoid beef, not to get it.
var negationPattern = regexp.MustCompile(`\b(?:no|without|not)\s+(\w+)`)

// Matcher classifies swap requests.
type Matcher struct {
	classifier llm.TextGenerator
}

// NewMatcher creates a Matcher. The classifier is only consulted when all
// deterministic tiers fail to decide.
func NewMatcher(classifier llm.TextGenerator) *Matcher {
	return &Matcher{classifier: classifier}
}

// Classify decides whether the request text asks for the given category.
// Ambiguity and classifier failure fail closed: an uncertain swap is never
// auto-applied.
func (m *Matcher) Classify(ctx context.Context, requirementsText, category string) Decision {
	text := strings.ToLower(strings.TrimSpace(requirementsText))
	category = strings.ToLower(category)

	text = stripNegations(text)

	if containsWord(text, category) {
		return DecisionAuto
	}

	for _, term := range relatedTerms[category] {
		if containsWord(text, term) {
			return DecisionAuto
		}
	}

	if isVague(text) && !mentionsSpecificFood(text) {
		return DecisionConfirm
	}

	if hasModifier(text) && mentionsCategoryish(text, category) {
		return DecisionAuto
	}

	return m.classifySemantic(ctx, text, category)
}

// stripNegations removes "no/without/not X" phrases so negated terms do
// not falsely trigger a match.
func stripNegations(text string) string {
	return negationPattern.ReplaceAllString(text, " ")
}

func containsWord(text, word string) bool {
	matched, _ := regexp.MatchString(`\b`+regexp.QuoteMeta(word)+`\b`, text)
	return matched
}

func isVague(text string) bool {
	for _, term := range vagueTerms {
		if containsWord(text, term) {
			return true
		}
	}
	return false
}

// mentionsSpecificFood reports whether the text names a concrete food term:
// any canonical vocabulary tag or any category-related term counts.
func mentionsSpecificFood(text string) bool {
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,!?")
		if _, ok := vocab.Normalize(word); ok {
			return true
		}
		for _, cat := range Categories {
			if word == cat {
				return true
			}
			for _, term := range relatedTerms[cat] {
				if word == term {
					return true
				}
			}
		}
	}
	return false
}

func hasModifier(text string) bool {
	for _, term := range modifierTerms {
		if containsWord(text, term) {
			return true
		}
	}
	return false
}

// mentionsCategoryish is a looser category check used together with a
// modifier word: substring match instead of whole-word, so "swap to a
// beefy stew" still counts for beef.
func mentionsCategoryish(text, category string) bool {
	if strings.Contains(text, category) {
		return true
	}
	for _, term := range relatedTerms[category] {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// classifySemantic asks the model a strict yes/no question as the final
// tier. Any failure or ambiguous answer means no match.
func (m *Matcher) classifySemantic(ctx context.Context, text, category string) Decision {
	if m.classifier == nil {
		return DecisionNoMatch
	}

	prompt := fmt.Sprintf(`Does the following meal request ask for a %s dish?
Request: %q
Answer with exactly one word: yes or no.`, category, text)

	resp, err := m.classifier.GenerateContent(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("swap classifier call failed, treating as no match")
		return DecisionNoMatch
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Content))
	if answer == "yes" || strings.HasPrefix(answer, "yes") {
		return DecisionAuto
	}
	return DecisionNoMatch
}

// Match classifies the request against every known category in order and
// returns the first category that can be auto-applied, or a confirm/no
// match decision otherwise.
func (m *Matcher) Match(ctx context.Context, requirementsText string) (string, Decision) {
	confirm := false
	for _, category := range Categories {
		switch m.Classify(ctx, requirementsText, category) {
		case DecisionAuto:
			return category, DecisionAuto
		case DecisionConfirm:
			confirm = true
		}
	}
	if confirm {
		return "", DecisionConfirm
	}
	return "", DecisionNoMatch
}
