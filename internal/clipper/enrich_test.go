package clipper

import (
	"testing"

	"dinner-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
)

func TestEnrichAllergensBackfillsUntagged(t *testing.T) {
	rec := &recipe.Recipe{Ingredients: []recipe.Ingredient{
		{Name: "2 cups all-purpose flour"},
		{Name: "1 cup whole milk"},
		{Name: "3 eggs"},
		{Name: "fresh basil"},
	}}
	EnrichAllergens(rec)

	assert.Equal(t, []string{"gluten"}, rec.Ingredients[0].Allergens)
	assert.Equal(t, []string{"dairy"}, rec.Ingredients[1].Allergens)
	assert.Equal(t, []string{"eggs"}, rec.Ingredients[2].Allergens)
	assert.Empty(t, rec.Ingredients[3].Allergens)
}

func TestEnrichAllergensKeepsExistingTags(t *testing.T) {
	rec := &recipe.Recipe{Ingredients: []recipe.Ingredient{
		{Name: "peanut butter", Allergens: []string{"legumes"}},
	}}
	EnrichAllergens(rec)
	assert.Equal(t, []string{"legumes"}, rec.Ingredients[0].Allergens)
}

func TestEnrichAllergensMultipleGroups(t *testing.T) {
	rec := &recipe.Recipe{Ingredients: []recipe.Ingredient{
		{Name: "spaghetti with parmesan"},
	}}
	EnrichAllergens(rec)
	assert.Equal(t, []string{"dairy", "gluten"}, rec.Ingredients[0].Allergens)
}

func TestEnrichAllergensCaseInsensitive(t *testing.T) {
	rec := &recipe.Recipe{Ingredients: []recipe.Ingredient{
		{Name: "TOFU cubes"},
	}}
	EnrichAllergens(rec)
	assert.Equal(t, []string{"soy"}, rec.Ingredients[0].Allergens)
}
