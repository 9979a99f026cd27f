package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// ListGoals returns all of the user's goals, newest first.
func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, title, description, target_amount_cents, current_amount_cents,
		target_date, priority, is_completed, user_id, category_id, created_at, updated_at
		FROM goals WHERE user_id = ?
		ORDER BY created_at DESC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		var (
			g          core.Goal
			targetDate sql.NullString
			categoryID sql.NullString
		)
		err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.TargetAmount.Cents,
			&g.CurrentAmount.Cents, &targetDate, &g.Priority, &g.IsCompleted,
			&g.UserID, &categoryID, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.TargetDate = datePtr(targetDate)
		g.CategoryID = categoryID.String
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

// CreateGoal inserts a new goal record.
func (r *Repository) CreateGoal(ctx context.Context, g *core.Goal) error {
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	var targetDate, categoryID any
	if g.TargetDate != nil {
		targetDate = g.TargetDate.String()
	}
	if g.CategoryID != "" {
		categoryID = g.CategoryID
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO goals
		(id, title, description, target_amount_cents, current_amount_cents,
		 target_date, priority, is_completed, user_id, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.Description, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		targetDate, string(g.Priority), g.IsCompleted, g.UserID, categoryID,
		g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// DeleteGoal removes one goal, or returns core.ErrNotFound.
func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM goals WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete goal result: %w", err)
	} else if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
