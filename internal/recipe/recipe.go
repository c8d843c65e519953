// Package recipe holds the recipe domain model and its SQLite-backed store.
package recipe

import "strings"

// Ingredient is one structured ingredient line, tagged with the allergen
// groups it belongs to during ingestion.
type Ingredient struct {
	Name      string   `json:"name"`
	Quantity  string   `json:"quantity,omitempty"`
	Allergens []string `json:"allergens,omitempty"`
}

// Recipe is the stored representation of a single recipe.
type Recipe struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Tags         []string     `json:"tags"`
	Ingredients  []Ingredient `json:"ingredients,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
	PrepTime     string       `json:"prep_time,omitempty"`
	Difficulty   string       `json:"difficulty,omitempty"`
	SourceURL    string       `json:"source_url,omitempty"`
	UpdatedAt    string       `json:"updated_at,omitempty"`
}

// HasTag reports whether the recipe carries the tag (case-insensitive).
func (r *Recipe) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// HasAllergen reports whether any structured ingredient belongs to the
// given allergen group. A recipe with no ingredient data cannot answer
// this reliably; callers that exclude allergens must treat such recipes
// as unsafe.
func (r *Recipe) HasAllergen(allergen string) bool {
	for _, ing := range r.Ingredients {
		for _, a := range ing.Allergens {
			if strings.EqualFold(a, allergen) {
				return true
			}
		}
	}
	return false
}

// HasIngredientData reports whether structured ingredient data is present.
func (r *Recipe) HasIngredientData() bool {
	return len(r.Ingredients) > 0
}
