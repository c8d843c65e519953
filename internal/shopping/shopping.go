// Package shopping consolidates a plan's ingredients into a shopping list
// and persists it.
package shopping

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"dinner-planner/internal/planner"
)

// ShoppingList represents a shopping list for a meal plan.
type ShoppingList struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	MealPlanID string    `json:"meal_plan_id"`
	Items      []string  `json:"items"`
	CreatedAt  time.Time `json:"created_at"`
}

// Consolidate aggregates the ingredients of every selected recipe into a
// deduplicated list. Ingredients appearing in several recipes are merged
// into one line with an occurrence count; quantities are carried through
// as written since recipe units are free text.
func Consolidate(selections []planner.Selection) []string {
	type entry struct {
		name  string
		count int
		first int
	}

	seen := make(map[string]*entry)
	order := 0
	for _, sel := range selections {
		for _, ing := range sel.Recipe.Ingredients {
			key := strings.ToLower(strings.TrimSpace(ing.Name))
			if key == "" {
				continue
			}
			if e, ok := seen[key]; ok {
				e.count++
				continue
			}
			seen[key] = &entry{name: strings.TrimSpace(ing.Name), count: 1, first: order}
			order++
		}
	}

	entries := make([]*entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].first < entries[j].first })

	items := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.count > 1 {
			items = append(items, fmt.Sprintf("%s (x%d)", e.name, e.count))
		} else {
			items = append(items, e.name)
		}
	}
	return items
}
