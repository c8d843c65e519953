// Package history supplies the planning pipeline with recent meal names
// and per-user allergen exclusions.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository is a SQLite-backed store of cooked-meal history and allergen
// preferences.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new history repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// RecordCooked appends one cooked meal to the user's history.
func (r *Repository) RecordCooked(ctx context.Context, userID, recipeID, recipeName string, cookedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meal_history (user_id, recipe_id, recipe_name, cooked_at)
		VALUES (?, ?, ?, ?)`,
		userID, recipeID, recipeName, cookedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record cooked meal: %w", err)
	}
	return nil
}

// RecentNames returns the names of the user's most recently cooked meals,
// newest first, for the freshness penalty.
func (r *Repository) RecentNames(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT recipe_name FROM meal_history
		WHERE user_id = ? ORDER BY cooked_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent meals: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan meal history row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// AddAllergen registers an allergen exclusion for the user.
func (r *Repository) AddAllergen(ctx context.Context, userID, allergen string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_allergens (user_id, allergen) VALUES (?, ?)`,
		userID, allergen)
	if err != nil {
		return fmt.Errorf("failed to add allergen: %w", err)
	}
	return nil
}

// RemoveAllergen drops an allergen exclusion for the user.
func (r *Repository) RemoveAllergen(ctx context.Context, userID, allergen string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM user_allergens WHERE user_id = ? AND allergen = ?`,
		userID, allergen)
	if err != nil {
		return fmt.Errorf("failed to remove allergen: %w", err)
	}
	return nil
}

// Allergens returns the user's allergen exclusion list.
func (r *Repository) Allergens(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT allergen FROM user_allergens WHERE user_id = ? ORDER BY allergen`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allergens: %w", err)
	}
	defer rows.Close()

	var allergens []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("failed to scan allergen row: %w", err)
		}
		allergens = append(allergens, a)
	}
	return allergens, rows.Err()
}
