package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"fintrack/internal/core"
)

// TransactionStats aggregates the user's completed transactions on or
// after since. A zero since means all time. recentSince bounds the
// trailing recent-activity count and is independent of the main window.
func (r *Repository) TransactionStats(ctx context.Context, userID string, since core.Date, recentSince core.Date) (core.TransactionStats, error) {
	var stats core.TransactionStats

	where := "user_id = ? AND status = 'completed'"
	joinedWhere := "t.user_id = ? AND t.status = 'completed'"
	args := []any{userID}
	if !since.IsZero() {
		where += " AND date >= ?"
		joinedWhere += " AND t.date >= ?"
		args = append(args, since.String())
	}

	err := r.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0),
		COUNT(*),
		CAST(ROUND(COALESCE(AVG(CASE WHEN type = 'income' THEN amount_cents END), 0)) AS INTEGER),
		CAST(ROUND(COALESCE(AVG(CASE WHEN type = 'expense' THEN amount_cents END), 0)) AS INTEGER)
		FROM transactions WHERE `+where, args...).Scan(
		&stats.TotalIncome.Cents, &stats.TotalExpenses.Cents, &stats.TransactionCount,
		&stats.AverageIncome.Cents, &stats.AverageExpense.Cents)
	if err != nil {
		return stats, fmt.Errorf("transaction stats: %w", err)
	}
	stats.NetAmount.Cents = stats.TotalIncome.Cents - stats.TotalExpenses.Cents

	topQuery := `SELECT c.name
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.type = 'expense' AND ` + joinedWhere + `
		GROUP BY c.id
		ORDER BY SUM(t.amount_cents) DESC
		LIMIT 1`
	err = r.db.QueryRowContext(ctx, topQuery, args...).Scan(&stats.TopCategory)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return stats, fmt.Errorf("top expense category: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE user_id = ? AND status = 'completed' AND date >= ?",
		userID, recentSince.String()).Scan(&stats.RecentTransactions)
	if err != nil {
		return stats, fmt.Errorf("recent transaction count: %w", err)
	}

	return stats, nil
}

// MonthlySummaries buckets the user's completed transactions for one
// year by calendar month. Months without transactions are omitted.
func (r *Repository) MonthlySummaries(ctx context.Context, userID string, year int) ([]core.MonthlySummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		CAST(strftime('%m', date) AS INTEGER) AS month,
		COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0),
		COUNT(*)
		FROM transactions
		WHERE user_id = ? AND status = 'completed' AND CAST(strftime('%Y', date) AS INTEGER) = ?
		GROUP BY month
		ORDER BY month ASC`, userID, year)
	if err != nil {
		return nil, fmt.Errorf("monthly summaries: %w", err)
	}
	defer rows.Close()

	out := []core.MonthlySummary{}
	for rows.Next() {
		s := core.MonthlySummary{Year: year}
		if err := rows.Scan(&s.Month, &s.Income.Cents, &s.Expenses.Cents, &s.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan monthly summary: %w", err)
		}
		s.Net.Cents = s.Income.Cents - s.Expenses.Cents
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly summaries: %w", err)
	}
	return out, nil
}

// CategorySpending breaks down completed expense spend by category on or
// after since, highest spend first, with each category's percentage of
// the window total.
func (r *Repository) CategorySpending(ctx context.Context, userID string, since core.Date) ([]core.CategorySpending, error) {
	query := `SELECT c.id, c.name, c.icon,
		COALESCE(SUM(t.amount_cents), 0),
		COUNT(t.id),
		CAST(ROUND(COALESCE(AVG(t.amount_cents), 0)) AS INTEGER)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.status = 'completed' AND t.type = 'expense'`
	args := []any{userID}
	if !since.IsZero() {
		query += " AND t.date >= ?"
		args = append(args, since.String())
	}
	query += ` GROUP BY c.id ORDER BY SUM(t.amount_cents) DESC, c.rowid ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category spending: %w", err)
	}
	defer rows.Close()

	out := []core.CategorySpending{}
	var totalCents int64
	for rows.Next() {
		var s core.CategorySpending
		err := rows.Scan(&s.CategoryID, &s.CategoryName, &s.CategoryIcon,
			&s.TotalAmount.Cents, &s.TransactionCount, &s.AverageAmount.Cents)
		if err != nil {
			return nil, fmt.Errorf("scan category spending: %w", err)
		}
		totalCents += s.TotalAmount.Cents
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category spending: %w", err)
	}

	for i := range out {
		if totalCents > 0 {
			out[i].Percentage = core.Round2(float64(out[i].TotalAmount.Cents) / float64(totalCents) * 100)
		}
	}
	return out, nil
}

// BudgetUtilization reports spend against each budgeted active category
// for completed expense transactions on or after monthStart, ordered
// with the most exhausted budgets first.
func (r *Repository) BudgetUtilization(ctx context.Context, userID string, monthStart core.Date) ([]core.BudgetUtilization, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT c.id, c.name, c.budget_cents,
		COALESCE(SUM(CASE WHEN t.status = 'completed' AND t.type = 'expense' AND t.date >= ? THEN t.amount_cents ELSE 0 END), 0)
		FROM categories c
		LEFT JOIN transactions t ON t.category_id = c.id
		WHERE c.user_id = ? AND c.status = 'active' AND c.budget_cents IS NOT NULL
		GROUP BY c.id`, monthStart.String(), userID)
	if err != nil {
		return nil, fmt.Errorf("budget utilization: %w", err)
	}
	defer rows.Close()

	out := []core.BudgetUtilization{}
	for rows.Next() {
		var u core.BudgetUtilization
		if err := rows.Scan(&u.CategoryID, &u.CategoryName, &u.Budget.Cents, &u.Spent.Cents); err != nil {
			return nil, fmt.Errorf("scan budget utilization: %w", err)
		}
		u.Remaining.Cents = u.Budget.Cents - u.Spent.Cents
		if u.Budget.Cents > 0 {
			u.Utilization = core.Round2(float64(u.Spent.Cents) / float64(u.Budget.Cents) * 100)
		} else if u.Spent.Cents > 0 {
			u.Utilization = 100
		}
		u.OverBudget = u.Spent.Cents > u.Budget.Cents
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget utilization: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Utilization > out[j].Utilization })
	return out, nil
}
