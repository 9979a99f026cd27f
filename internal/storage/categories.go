package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

const categoryStatsColumns = `
	c.id, c.name, c.description, c.type, c.icon, c.color, c.budget_cents,
	c.status, c.priority, c.tags, c.metadata, c.user_id, c.created_at, c.updated_at,
	COALESCE(SUM(t.amount_cents), 0) AS total_amount,
	COUNT(t.id) AS transaction_count,
	CAST(ROUND(COALESCE(AVG(t.amount_cents), 0)) AS INTEGER) AS average_amount,
	MAX(t.date) AS last_transaction_date`

func scanCategoryWithStats(row interface{ Scan(...any) error }) (core.CategoryWithStats, error) {
	var (
		c        core.CategoryWithStats
		budget   sql.NullInt64
		tags     string
		metadata string
		lastDate sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Type, &c.Icon, &c.Color, &budget,
		&c.Status, &c.Priority, &tags, &metadata, &c.UserID, &c.CreatedAt, &c.UpdatedAt,
		&c.TotalAmount.Cents, &c.TransactionCount, &c.AverageAmount.Cents, &lastDate,
	)
	if err != nil {
		return c, err
	}
	c.Budget = centsPtr(budget)
	c.Tags = unmarshalTags(tags)
	_ = json.Unmarshal([]byte(metadata), &c.Metadata)
	c.LastTransactionDate = datePtr(lastDate)
	return c, nil
}

// ListCategories returns one page of the user's categories with derived
// transaction stats, plus the unpaged match count.
func (r *Repository) ListCategories(ctx context.Context, userID string, f CategoryFilter, ps PageSort) ([]core.CategoryWithStats, int64, error) {
	where := []string{"c.user_id = ?"}
	args := []any{userID}

	if f.Type != "" {
		where = append(where, "c.type = ?")
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		where = append(where, "c.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Search != "" {
		where = append(where, "(LOWER(c.name) LIKE '%'||LOWER(?)||'%' OR LOWER(c.description) LIKE '%'||LOWER(?)||'%')")
		args = append(args, f.Search, f.Search)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM categories c WHERE " + cond
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM categories c
		LEFT JOIN transactions t ON t.category_id = c.id
		WHERE %s
		GROUP BY c.id
		%s
		LIMIT ? OFFSET ?`,
		categoryStatsColumns, cond, orderClause(categorySortColumns, ps, "c.name", "c"))
	args = append(args, ps.Limit, ps.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.CategoryWithStats{}
	for rows.Next() {
		c, err := scanCategoryWithStats(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate categories: %w", err)
	}
	return out, total, nil
}

// GetCategory returns one category with stats, or core.ErrNotFound.
func (r *Repository) GetCategory(ctx context.Context, userID, id string) (*core.CategoryWithStats, error) {
	query := fmt.Sprintf(`SELECT %s
		FROM categories c
		LEFT JOIN transactions t ON t.category_id = c.id
		WHERE c.id = ? AND c.user_id = ?
		GROUP BY c.id`, categoryStatsColumns)

	c, err := scanCategoryWithStats(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// CreateCategory inserts a new category. The duplicate check and insert
// run in one transaction so concurrent creates cannot both pass the
// check. Archived categories still reserve their name.
func (r *Repository) CreateCategory(ctx context.Context, c *core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create category: %w", err)
	}
	defer tx.Rollback()

	dup, err := categoryNameTaken(ctx, tx, c.UserID, c.NormalizedName(), c.Type, "")
	if err != nil {
		return err
	}
	if dup {
		return core.ErrConflict
	}

	tags, err := marshalTags(c.Tags)
	if err != nil {
		return err
	}
	metadata, err := marshalJSON(c.Metadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `INSERT INTO categories
		(id, name, description, type, icon, color, budget_cents, status, priority, tags, metadata, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.NormalizedName(), c.Description, string(c.Type), c.Icon, c.Color,
		nullableCents(c.Budget), string(c.Status), string(c.Priority), tags, metadata,
		c.UserID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	c.Name = c.NormalizedName()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create category: %w", err)
	}
	return nil
}

// UpdateCategory persists an already-merged category record. The
// duplicate check excludes the category itself.
func (r *Repository) UpdateCategory(ctx context.Context, c *core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update category: %w", err)
	}
	defer tx.Rollback()

	dup, err := categoryNameTaken(ctx, tx, c.UserID, c.NormalizedName(), c.Type, c.ID)
	if err != nil {
		return err
	}
	if dup {
		return core.ErrConflict
	}

	tags, err := marshalTags(c.Tags)
	if err != nil {
		return err
	}
	metadata, err := marshalJSON(c.Metadata)
	if err != nil {
		return err
	}

	c.UpdatedAt = time.Now().UTC()

	res, err := tx.ExecContext(ctx, `UPDATE categories SET
		name = ?, description = ?, icon = ?, color = ?, budget_cents = ?,
		status = ?, priority = ?, tags = ?, metadata = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		c.NormalizedName(), c.Description, c.Icon, c.Color, nullableCents(c.Budget),
		string(c.Status), string(c.Priority), tags, metadata, c.UpdatedAt,
		c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update category result: %w", err)
	} else if n == 0 {
		return core.ErrNotFound
	}
	c.Name = c.NormalizedName()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category, archiving instead of deleting when
// transactions reference it. Reports whether the category was archived.
func (r *Repository) DeleteCategory(ctx context.Context, userID, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM categories WHERE id = ? AND user_id = ?", id, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, core.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}

	var count int64
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE category_id = ? AND user_id = ?", id, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count category transactions: %w", err)
	}

	archived := count > 0
	if archived {
		_, err = tx.ExecContext(ctx,
			"UPDATE categories SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?",
			string(core.CategoryArchived), time.Now().UTC(), id, userID)
	} else {
		_, err = tx.ExecContext(ctx,
			"DELETE FROM categories WHERE id = ? AND user_id = ?", id, userID)
	}
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete category: %w", err)
	}
	return archived, nil
}

// CountCategoryTransactions returns how many transactions reference the
// category.
func (r *Repository) CountCategoryTransactions(ctx context.Context, userID, id string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE category_id = ? AND user_id = ?", id, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return n, nil
}

// CategoryTotals aggregates portfolio-level counts and budgets across the
// user's active categories.
func (r *Repository) CategoryTotals(ctx context.Context, userID string) (core.CategoryTotals, error) {
	var t core.CategoryTotals
	err := r.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN type = 'income' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN type = 'expense' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(budget_cents), 0),
		COALESCE(SUM(CASE WHEN budget_cents IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM categories WHERE user_id = ? AND status = 'active'`, userID).Scan(
		&t.TotalCategories, &t.IncomeCategories, &t.ExpenseCategories,
		&t.TotalBudget.Cents, &t.BudgetedCategories)
	if err != nil {
		return t, fmt.Errorf("category totals: %w", err)
	}
	return t, nil
}

func categoryNameTaken(ctx context.Context, tx *sql.Tx, userID, name string, typ core.EntryType, excludeID string) (bool, error) {
	query := "SELECT COUNT(*) FROM categories WHERE user_id = ? AND LOWER(name) = LOWER(?) AND type = ?"
	args := []any{userID, name, string(typ)}
	if excludeID != "" {
		query += " AND id != ?"
		args = append(args, excludeID)
	}

	var n int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return n > 0, nil
}
