package clipper

import (
	"regexp"

	"dinner-planner/internal/recipe"
)

// allergenPatterns maps allergen groups to ingredient-name patterns. The
// model usually tags allergens during extraction; this pass backfills
// ingredients it left untagged so allergen filtering can stay conservative
// without dropping every imported recipe.
var allergenPatterns = map[string]*regexp.Regexp{
	"dairy":     regexp.MustCompile(`(?i)\b(milk|butter|cream|cheese|parmesan|mozzarella|cheddar|yogurt|ghee)\b`),
	"gluten":    regexp.MustCompile(`(?i)\b(flour|wheat|pasta|spaghetti|noodles|bread|breadcrumbs|couscous|barley|rye)\b`),
	"nuts":      regexp.MustCompile(`(?i)\b(almond|walnut|cashew|pecan|hazelnut|pistachio|macadamia)s?\b`),
	"peanuts":   regexp.MustCompile(`(?i)\bpeanuts?\b`),
	"eggs":      regexp.MustCompile(`(?i)\beggs?\b`),
	"fish":      regexp.MustCompile(`(?i)\b(salmon|tuna|cod|anchovy|anchovies|sardines?|trout|haddock)\b`),
	"shellfish": regexp.MustCompile(`(?i)\b(shrimp|prawns?|crab|lobster|mussels?|clams?|oysters?|scallops?)\b`),
	"soy":       regexp.MustCompile(`(?i)\b(soy|soya|tofu|edamame|tempeh|miso)\b`),
	"sesame":    regexp.MustCompile(`(?i)\b(sesame|tahini)\b`),
}

// allergenOrder keeps enrichment output stable across runs.
var allergenOrder = []string{"dairy", "gluten", "nuts", "peanuts", "eggs", "fish", "shellfish", "soy", "sesame"}

// EnrichAllergens fills in allergen groups for ingredients the extraction
// left untagged, matching ingredient names against known keyword patterns.
// Existing tags are kept as-is.
func EnrichAllergens(rec *recipe.Recipe) {
	for i := range rec.Ingredients {
		ing := &rec.Ingredients[i]
		if len(ing.Allergens) > 0 {
			continue
		}
		for _, allergen := range allergenOrder {
			if allergenPatterns[allergen].MatchString(ing.Name) {
				ing.Allergens = append(ing.Allergens, allergen)
			}
		}
	}
}
