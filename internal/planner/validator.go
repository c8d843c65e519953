package planner

import (
	"fmt"
	"strings"

	"dinner-planner/internal/recipe"
	"dinner-planner/internal/requirements"
	"dinner-planner/internal/vocab"
)

// Finding describes one constraint check result for a chosen recipe.
// Hard findings trigger a retry; soft findings are logged and delivered
// with the plan, never blocking it.
type Finding struct {
	Date        string `json:"date"`
	RecipeID    string `json:"recipe_id"`
	RecipeName  string `json:"recipe_name"`
	Requirement string `json:"requirement"`
	Reason      string `json:"reason"`
}

// Validate checks chosen recipes against their day requirements, paired
// positionally. All findings are collected; there is no short-circuit on
// the first failure for a day. Days with Surprise set are skipped entirely.
func Validate(selected []recipe.Recipe, reqs []requirements.DayRequirement) (hard, soft []Finding) {
	for i, req := range reqs {
		if i >= len(selected) {
			break
		}
		rec := selected[i]

		if req.Surprise {
			continue
		}

		if req.Cuisine != "" && !hasTagVariant(&rec, req.Cuisine) {
			hard = append(hard, Finding{
				Date:        req.Date,
				RecipeID:    rec.ID,
				RecipeName:  rec.Name,
				Requirement: "cuisine=" + req.Cuisine,
				Reason:      fmt.Sprintf("recipe is not tagged %s", req.Cuisine),
			})
		}

		for _, tag := range req.DietaryHard {
			if !hasTagVariant(&rec, tag) {
				hard = append(hard, Finding{
					Date:        req.Date,
					RecipeID:    rec.ID,
					RecipeName:  rec.Name,
					Requirement: "dietary=" + tag,
					Reason:      fmt.Sprintf("recipe is not tagged %s", tag),
				})
			}
		}

		for _, tag := range req.DietarySoft {
			if !hasTagVariant(&rec, tag) {
				soft = append(soft, Finding{
					Date:        req.Date,
					RecipeID:    rec.ID,
					RecipeName:  rec.Name,
					Requirement: "preference=" + tag,
					Reason:      fmt.Sprintf("recipe is not tagged %s", tag),
				})
			}
		}

		checkCourse(&rec, req.Date, &hard, &soft)

		if len(req.Unhandled) > 0 {
			soft = append(soft, Finding{
				Date:        req.Date,
				RecipeID:    rec.ID,
				RecipeName:  rec.Name,
				Requirement: "unrecognized",
				Reason:      fmt.Sprintf("could not interpret: %s", strings.Join(req.Unhandled, ", ")),
			})
		}
	}
	return hard, soft
}

// checkCourse flags a recipe that is identifiably a non-dinner course
// (dessert, beverage, etc.) with no redeeming main-dish tag as a hard
// failure. A recipe that merely lacks a main-course tag gets a soft
// warning: untagged recipes are tolerated rather than rejected outright.
func checkCourse(rec *recipe.Recipe, date string, hard, soft *[]Finding) {
	hasMain := false
	hasExcluded := false
	for _, tag := range rec.Tags {
		t := strings.ToLower(tag)
		if vocab.IsMainCourse(t) {
			hasMain = true
		}
		if vocab.IsExcludedCourse(t) {
			hasExcluded = true
		}
	}

	if hasMain {
		return
	}
	if hasExcluded {
		*hard = append(*hard, Finding{
			Date:        date,
			RecipeID:    rec.ID,
			RecipeName:  rec.Name,
			Requirement: "course=main",
			Reason:      "recipe is tagged as a non-dinner course",
		})
		return
	}
	*soft = append(*soft, Finding{
		Date:        date,
		RecipeID:    rec.ID,
		RecipeName:  rec.Name,
		Requirement: "course=main",
		Reason:      "recipe has no main-course tag",
	})
}

// hasTagVariant reports whether the recipe carries the canonical tag or
// any of its accepted synonym spellings.
func hasTagVariant(rec *recipe.Recipe, canonical string) bool {
	for _, variant := range vocab.Variants(canonical) {
		if rec.HasTag(variant) {
			return true
		}
	}
	return false
}
