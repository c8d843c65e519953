package requirements

import (
	"regexp"
	"strings"

	"dinner-planner/internal/vocab"
)

// dayIndexes maps day-name tokens to a zero-based weekday position,
// Monday = 0. Abbreviations share the full name's index.
var dayIndexes = map[string]int{
	"monday": 0, "mon": 0,
	"tuesday": 1, "tue": 1, "tues": 1,
	"wednesday": 2, "wed": 2,
	"thursday": 3, "thu": 3, "thur": 3, "thurs": 3,
	"friday": 4, "fri": 4,
	"saturday": 5, "sat": 5,
	"sunday": 6, "sun": 6,
}

// Word-boundary matching keeps "fri" from firing inside "friendly".
// Full names are listed before abbreviations so the longest form wins.
var dayPattern = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|tues|thurs|thur|mon|tue|wed|thu|fri|sat|sun)\b`)

var allDaysPattern = regexp.MustCompile(`^\s*all\s+([a-zA-Z-]+)\s*$`)

// surprisePhrases void every other constraint in their clause.
var surprisePhrases = []string{
	"surprise me", "surprise", "dealer's choice", "dealers choice",
	"your choice", "anything",
}

// multiWordPhrases are checked before word-level tokenization so that
// phrases like "gluten free" resolve as one tag instead of two noise words.
var multiWordPhrases = []string{
	"kid friendly", "kid-friendly",
	"gluten free", "gluten-free",
	"dairy free", "dairy-free",
	"low carb", "low-carb",
	"plant based", "plant-based",
	"family friendly", "family-friendly",
	"middle eastern", "middle-eastern",
}

// stopWords are skipped during word-level extraction. Components of the
// multi-word phrases above are included so a matched phrase is not counted
// twice through its parts.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"with": {}, "for": {}, "on": {}, "of": {}, "to": {}, "in": {},
	"i": {}, "me": {}, "my": {}, "we": {}, "us": {}, "please": {},
	"want": {}, "like": {}, "would": {}, "something": {}, "some": {},
	"make": {}, "have": {}, "get": {}, "give": {}, "do": {},
	"day": {}, "days": {}, "meal": {}, "meals": {}, "dinner": {},
	"dinners": {}, "food": {}, "recipe": {}, "recipes": {},
	"week": {}, "night": {}, "nights": {}, "all": {},
	"cuisine": {}, "style": {},
	"kid": {}, "friendly": {}, "gluten": {}, "free": {},
	"dairy": {}, "low": {}, "carb": {}, "plant": {}, "based": {},
	"family": {}, "middle": {}, "eastern": {},
}

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z-]*`)

// Parse converts one free-text message plus an ordered list of target dates
// into one DayRequirement per date, same length and order as dates. The
// returned list is empty iff dates is empty.
func Parse(message string, dates []string) []DayRequirement {
	reqs := make([]DayRequirement, len(dates))
	for i, d := range dates {
		reqs[i] = DayRequirement{Date: d}
	}
	if len(dates) == 0 {
		return reqs
	}

	msg := strings.ToLower(strings.TrimSpace(message))

	// "all <word>" short-circuits day-specific parsing entirely.
	if m := allDaysPattern.FindStringSubmatch(msg); m != nil {
		for i := range reqs {
			applyConstraints(&reqs[i], m[1])
		}
		return reqs
	}

	// No day specifier anywhere: the whole message is one global clause.
	if !dayPattern.MatchString(msg) {
		for i := range reqs {
			applyConstraints(&reqs[i], msg)
		}
		return reqs
	}

	for _, clause := range splitClauses(msg) {
		dayNames := dayPattern.FindAllString(clause, -1)
		if len(dayNames) == 0 {
			continue
		}

		var indexes []int
		seen := map[int]struct{}{}
		for _, name := range dayNames {
			idx := dayIndexes[name]
			if idx >= len(reqs) {
				continue
			}
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			indexes = append(indexes, idx)
		}

		remainder := strings.TrimSpace(dayPattern.ReplaceAllString(clause, " "))
		for _, idx := range indexes {
			applyConstraints(&reqs[idx], remainder)
		}
	}

	return reqs
}

func splitClauses(msg string) []string {
	parts := regexp.MustCompile(`[,.;]`).Split(msg, -1)
	var clauses []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clauses = append(clauses, p)
		}
	}
	return clauses
}

// applyConstraints extracts constraints from one text fragment and merges
// them into the requirement. Cuisine is last-write-wins across the whole
// parse; dietary sets and unhandled tokens accumulate.
func applyConstraints(req *DayRequirement, fragment string) {
	if req.RawText == "" {
		req.RawText = fragment
	} else if fragment != "" {
		req.RawText += "; " + fragment
	}

	// Surprise wins outright within its clause.
	for _, phrase := range surprisePhrases {
		if strings.Contains(fragment, phrase) {
			req.Surprise = true
			return
		}
	}

	remaining := fragment
	for _, phrase := range multiWordPhrases {
		if !strings.Contains(remaining, phrase) {
			continue
		}
		if canonical, ok := vocab.Normalize(phrase); ok {
			categorize(req, canonical)
		}
		remaining = strings.ReplaceAll(remaining, phrase, " ")
	}

	for _, word := range wordPattern.FindAllString(remaining, -1) {
		if _, skip := stopWords[word]; skip {
			continue
		}
		if canonical, ok := vocab.Normalize(word); ok {
			categorize(req, canonical)
			continue
		}
		if len(word) > 2 && isAlpha(word) {
			req.Unhandled = appendUnique(req.Unhandled, word)
		}
	}
}

// categorize routes a canonical tag into the right requirement field.
// Cuisine is checked first, so a tag that is both a cuisine and a dietary
// tag lands in cuisine and is never re-added to the dietary sets.
func categorize(req *DayRequirement, canonical string) {
	switch {
	case vocab.IsCuisine(canonical):
		req.Cuisine = canonical
	case vocab.IsHardDietary(canonical):
		req.DietaryHard = appendUnique(req.DietaryHard, canonical)
	case vocab.IsSoftDietary(canonical):
		req.DietarySoft = appendUnique(req.DietarySoft, canonical)
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func isAlpha(word string) bool {
	for _, r := range word {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
