package shopping

import (
	"testing"

	"dinner-planner/internal/planner"
	"dinner-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
)

func selection(date string, ingredients ...string) planner.Selection {
	rec := recipe.Recipe{ID: "r-" + date, Name: "Dish " + date}
	for _, name := range ingredients {
		rec.Ingredients = append(rec.Ingredients, recipe.Ingredient{Name: name})
	}
	return planner.Selection{Date: date, Recipe: rec}
}

func TestConsolidateMergesDuplicates(t *testing.T) {
	items := Consolidate([]planner.Selection{
		selection("2025-01-06", "Onion", "Garlic", "Olive Oil"),
		selection("2025-01-07", "onion", "Tomatoes"),
	})
	assert.Equal(t, []string{"Onion (x2)", "Garlic", "Olive Oil", "Tomatoes"}, items)
}

func TestConsolidateKeepsFirstSeenOrder(t *testing.T) {
	items := Consolidate([]planner.Selection{
		selection("2025-01-06", "Rice", "Beans"),
		selection("2025-01-07", "Corn", "Rice"),
	})
	assert.Equal(t, []string{"Rice (x2)", "Beans", "Corn"}, items)
}

func TestConsolidateSkipsBlankIngredients(t *testing.T) {
	items := Consolidate([]planner.Selection{
		selection("2025-01-06", "  ", "Salt"),
	})
	assert.Equal(t, []string{"Salt"}, items)
}

func TestConsolidateEmpty(t *testing.T) {
	assert.Empty(t, Consolidate(nil))
	assert.Empty(t, Consolidate([]planner.Selection{selection("2025-01-06")}))
}
