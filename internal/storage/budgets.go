package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// ListBudgets returns all of the user's budgets, newest first.
func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, name, amount_cents, period, start_date, end_date, alert_threshold,
		is_active, user_id, category_id, created_at, updated_at
		FROM budgets WHERE user_id = ?
		ORDER BY created_at DESC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	for rows.Next() {
		var (
			b          core.Budget
			startDate  string
			endDate    sql.NullString
			categoryID sql.NullString
		)
		err := rows.Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.Period, &startDate,
			&endDate, &b.AlertThreshold, &b.IsActive, &b.UserID, &categoryID,
			&b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.StartDate, err = core.ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("parse stored budget date %q: %w", startDate, err)
		}
		b.EndDate = datePtr(endDate)
		b.CategoryID = categoryID.String
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

// CreateBudget inserts a new budget record.
func (r *Repository) CreateBudget(ctx context.Context, b *core.Budget) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	var endDate, categoryID any
	if b.EndDate != nil {
		endDate = b.EndDate.String()
	}
	if b.CategoryID != "" {
		categoryID = b.CategoryID
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO budgets
		(id, name, amount_cents, period, start_date, end_date, alert_threshold,
		 is_active, user_id, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Amount.Cents, b.Period, b.StartDate.String(), endDate,
		b.AlertThreshold, b.IsActive, b.UserID, categoryID, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

// DeleteBudget removes one budget, or returns core.ErrNotFound.
func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM budgets WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete budget result: %w", err)
	} else if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
