package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StoredPlan is a persisted planning result.
type StoredPlan struct {
	ID        string
	UserID    string
	WeekStart time.Time
	PlanData  []byte // raw JSON of the PlanResult
	CreatedAt time.Time
}

// PlanRepository persists final planning results. The pipeline itself owns
// nothing beyond a single call; this is the "save plan" collaborator the
// final selection map is handed to.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save stores a planning result for a user and week, returning the plan ID.
func (r *PlanRepository) Save(ctx context.Context, userID string, weekStart time.Time, result *PlanResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO meal_plans (id, user_id, week_start, plan_data, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, weekStart.Format("2006-01-02"), string(data), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return id, nil
}

// ExistsForWeek reports whether the user already has a plan for the week.
func (r *PlanRepository) ExistsForWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM meal_plans WHERE user_id = ? AND week_start = ?`,
		userID, weekStart.Format("2006-01-02")).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check plan existence: %w", err)
	}
	return count > 0, nil
}

// GetByUserAndWeek retrieves the most recent plan for a user and week.
// Returns (nil, nil) when no plan exists.
func (r *PlanRepository) GetByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*StoredPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, week_start, plan_data, created_at FROM meal_plans
		WHERE user_id = ? AND week_start = ?
		ORDER BY created_at DESC LIMIT 1`,
		userID, weekStart.Format("2006-01-02"))
	return scanPlan(row)
}

// ListRecentByUserID retrieves the N most recent plans for a user, newest
// first.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, week_start, plan_data, created_at FROM meal_plans
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		var p StoredPlan
		var weekStart string
		if err := rows.Scan(&p.ID, &p.UserID, &weekStart, &p.PlanData, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan row: %w", err)
		}
		p.WeekStart, _ = time.Parse("2006-01-02", weekStart)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func scanPlan(row *sql.Row) (*StoredPlan, error) {
	var p StoredPlan
	var weekStart string
	err := row.Scan(&p.ID, &p.UserID, &weekStart, &p.PlanData, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // plan not found
		}
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}
	p.WeekStart, _ = time.Parse("2006-01-02", weekStart)
	return &p, nil
}
