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

const transactionColumns = `
	t.id, t.title, t.description, t.amount_cents, t.type, t.status, t.date,
	t.location, t.payment_method, t.reference, t.tags, t.metadata,
	t.user_id, t.category_id, t.created_at, t.updated_at,
	c.id, c.name, c.description, c.type, c.icon, c.color, c.budget_cents,
	c.status, c.priority, c.tags, c.metadata, c.user_id, c.created_at, c.updated_at`

func scanTransactionWithCategory(row interface{ Scan(...any) error }) (core.TransactionWithCategory, error) {
	var (
		t      core.TransactionWithCategory
		date   string
		tTags  string
		tMeta  string
		budget sql.NullInt64
		cTags  string
		cMeta  string
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Amount.Cents, &t.Type, &t.Status, &date,
		&t.Location, &t.PaymentMethod, &t.Reference, &tTags, &tMeta,
		&t.UserID, &t.CategoryID, &t.CreatedAt, &t.UpdatedAt,
		&t.Category.ID, &t.Category.Name, &t.Category.Description, &t.Category.Type,
		&t.Category.Icon, &t.Category.Color, &budget, &t.Category.Status,
		&t.Category.Priority, &cTags, &cMeta, &t.Category.UserID,
		&t.Category.CreatedAt, &t.Category.UpdatedAt,
	)
	if err != nil {
		return t, err
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return t, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	t.Tags = unmarshalTags(tTags)
	_ = json.Unmarshal([]byte(tMeta), &t.Metadata)
	t.Category.Budget = centsPtr(budget)
	t.Category.Tags = unmarshalTags(cTags)
	_ = json.Unmarshal([]byte(cMeta), &t.Category.Metadata)
	return t, nil
}

func transactionConditions(userID string, f TransactionFilter) ([]string, []any) {
	where := []string{"t.user_id = ?"}
	args := []any{userID}

	if f.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		where = append(where, "t.status = ?")
		args = append(args, string(f.Status))
	}
	if f.CategoryID != "" {
		where = append(where, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.StartDate != nil {
		where = append(where, "t.date >= ?")
		args = append(args, f.StartDate.String())
	}
	if f.EndDate != nil {
		where = append(where, "t.date <= ?")
		args = append(args, f.EndDate.String())
	}
	if f.Search != "" {
		where = append(where, "(LOWER(t.title) LIKE '%'||LOWER(?)||'%' OR LOWER(t.description) LIKE '%'||LOWER(?)||'%')")
		args = append(args, f.Search, f.Search)
	}
	return where, args
}

// ListTransactions returns one page of the user's transactions, each
// joined to its category, plus the unpaged match count.
func (r *Repository) ListTransactions(ctx context.Context, userID string, f TransactionFilter, ps PageSort) ([]core.TransactionWithCategory, int64, error) {
	where, args := transactionConditions(userID, f)
	cond := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM transactions t WHERE " + cond
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE %s
		%s
		LIMIT ? OFFSET ?`,
		transactionColumns, cond, orderClause(transactionSortColumns, ps, "t.date", "t"))
	args = append(args, ps.Limit, ps.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.TransactionWithCategory{}
	for rows.Next() {
		t, err := scanTransactionWithCategory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, total, nil
}

// GetTransaction returns one transaction with its category, or
// core.ErrNotFound.
func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (*core.TransactionWithCategory, error) {
	query := fmt.Sprintf(`SELECT %s
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.id = ? AND t.user_id = ?`, transactionColumns)

	t, err := scanTransactionWithCategory(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// CreateTransaction inserts a new transaction after verifying, in the
// same database transaction, that the category exists, belongs to the
// same user, and carries the same type.
func (r *Repository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkCategoryType(ctx, tx, t.UserID, t.CategoryID, t.Type); err != nil {
		return err
	}

	tags, err := marshalTags(t.Tags)
	if err != nil {
		return err
	}
	metadata, err := marshalJSON(t.Metadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `INSERT INTO transactions
		(id, title, description, amount_cents, type, status, date, location,
		 payment_method, reference, tags, metadata, user_id, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Amount.Cents, string(t.Type), string(t.Status),
		t.Date.String(), t.Location, t.PaymentMethod, t.Reference, tags, metadata,
		t.UserID, t.CategoryID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create transaction: %w", err)
	}
	return nil
}

// UpdateTransaction persists an already-merged transaction record,
// re-verifying the category link under the same database transaction.
func (r *Repository) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkCategoryType(ctx, tx, t.UserID, t.CategoryID, t.Type); err != nil {
		return err
	}

	tags, err := marshalTags(t.Tags)
	if err != nil {
		return err
	}
	metadata, err := marshalJSON(t.Metadata)
	if err != nil {
		return err
	}

	t.UpdatedAt = time.Now().UTC()

	res, err := tx.ExecContext(ctx, `UPDATE transactions SET
		title = ?, description = ?, amount_cents = ?, type = ?, status = ?,
		date = ?, location = ?, payment_method = ?, reference = ?, tags = ?,
		metadata = ?, category_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Title, t.Description, t.Amount.Cents, string(t.Type), string(t.Status),
		t.Date.String(), t.Location, t.PaymentMethod, t.Reference, tags,
		metadata, t.CategoryID, t.UpdatedAt, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update transaction result: %w", err)
	} else if n == 0 {
		return core.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update transaction: %w", err)
	}
	return nil
}

// DeleteTransaction removes one transaction, or returns core.ErrNotFound.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete transaction result: %w", err)
	} else if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// checkCategoryType resolves the category for a transaction write.
// A missing or foreign category reads as not found; a type mismatch is
// its own error so the handler can report 400 rather than 404.
func checkCategoryType(ctx context.Context, tx *sql.Tx, userID, categoryID string, typ core.EntryType) error {
	var catType string
	err := tx.QueryRowContext(ctx,
		"SELECT type FROM categories WHERE id = ? AND user_id = ?", categoryID, userID).Scan(&catType)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if catType != string(typ) {
		return core.ErrTypeMismatch
	}
	return nil
}
