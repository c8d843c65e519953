// Package vocab holds the canonical tag vocabulary used across parsing,
// pool building and validation. The tables are compiled constants: they are
// built once at init and never mutated afterwards.
package vocab

import "strings"

// Cuisines is the set of canonical cuisine tags.
var Cuisines = newSet(
	"italian", "mexican", "chinese", "indian", "thai", "japanese",
	"french", "greek", "mediterranean", "american", "korean",
	"vietnamese", "spanish", "irish", "middle-eastern", "caribbean",
)

// HardDietary tags must be present on a chosen recipe or the plan retries.
var HardDietary = newSet(
	"vegetarian", "vegan", "gluten-free", "dairy-free", "pescatarian",
	"keto", "paleo", "nut-free", "halal", "kosher",
)

// SoftDietary tags are preferences: their absence is logged, never blocking.
var SoftDietary = newSet(
	"healthy", "quick", "easy", "kid-friendly", "low-carb",
	"high-protein", "comfort", "light", "spicy", "budget",
)

// MainCourse tags identify a recipe as dinner-worthy.
var MainCourse = newSet("main-dish", "main-course", "entree", "dinner")

// ExcludedCourses are never offered for dinner selection regardless of
// day-specific constraints.
var ExcludedCourses = newSet(
	"dessert", "appetizer", "beverage", "condiment", "sauce",
	"snack", "salad-dressing",
)

// synonyms maps each canonical tag to its accepted spellings and phrases.
// Every synonym resolves to exactly one canonical tag.
var synonyms = map[string][]string{
	"vegetarian":     {"veggie", "veggies", "meatless"},
	"vegan":          {"plant-based", "plant based"},
	"gluten-free":    {"gluten free", "glutenfree"},
	"dairy-free":     {"dairy free", "dairyfree", "lactose-free", "lactose free"},
	"kid-friendly":   {"kid friendly", "family-friendly", "family friendly"},
	"low-carb":       {"low carb", "lowcarb"},
	"quick":          {"fast", "speedy"},
	"easy":           {"simple"},
	"healthy":        {"nutritious", "wholesome"},
	"spicy":          {"hot"},
	"comfort":        {"cozy", "hearty"},
	"budget":         {"cheap", "affordable", "inexpensive"},
	"mexican":        {"tex-mex"},
	"mediterranean":  {"med"},
	"middle-eastern": {"middle eastern"},
	"american":       {"bbq", "barbecue"},
}

// synonymIndex is the reverse lookup, built once at init.
var synonymIndex = func() map[string]string {
	idx := make(map[string]string)
	for canonical, alts := range synonyms {
		for _, alt := range alts {
			idx[alt] = canonical
		}
	}
	return idx
}()

func newSet(tags ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Normalize resolves a token to its canonical tag. It first tries an exact
// match against the union of all canonical sets, then the synonym table.
// The second return is false when the token is not recognized; that is not
// an error condition.
func Normalize(token string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return "", false
	}
	if IsCuisine(t) || IsHardDietary(t) || IsSoftDietary(t) || IsMainCourse(t) || IsExcludedCourse(t) {
		return t, true
	}
	if canonical, ok := synonymIndex[t]; ok {
		return canonical, true
	}
	return "", false
}

// Variants returns the canonical tag together with all of its accepted
// synonyms, for matching against a recipe's tag set.
func Variants(canonical string) []string {
	out := []string{canonical}
	return append(out, synonyms[canonical]...)
}

// IsCuisine reports whether tag is a canonical cuisine.
func IsCuisine(tag string) bool { _, ok := Cuisines[tag]; return ok }

// IsHardDietary reports whether tag is a canonical hard dietary constraint.
func IsHardDietary(tag string) bool { _, ok := HardDietary[tag]; return ok }

// IsSoftDietary reports whether tag is a canonical soft dietary preference.
func IsSoftDietary(tag string) bool { _, ok := SoftDietary[tag]; return ok }

// IsMainCourse reports whether tag marks a recipe as a main course.
func IsMainCourse(tag string) bool { _, ok := MainCourse[tag]; return ok }

// IsExcludedCourse reports whether tag identifies a non-dinner course.
func IsExcludedCourse(tag string) bool { _, ok := ExcludedCourses[tag]; return ok }

// ExcludedCourseTags returns the fixed course-exclusion list in stable order.
func ExcludedCourseTags() []string {
	return []string{"dessert", "appetizer", "beverage", "condiment", "sauce", "snack", "salad-dressing"}
}
