package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite persistence layer. All queries are scoped by
// user id; a row owned by another user is indistinguishable from a
// missing row.
type Repository struct {
	db *sql.DB
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection is still usable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CategoryFilter narrows a category listing. Zero values mean no filter.
type CategoryFilter struct {
	Type   core.EntryType
	Status core.CategoryStatus
	Search string
}

// TransactionFilter narrows a transaction listing. Filters compose
// conjunctively; nil dates leave that bound open.
type TransactionFilter struct {
	Type       core.EntryType
	Status     core.TransactionStatus
	CategoryID string
	StartDate  *core.Date
	EndDate    *core.Date
	Search     string
}

// PageSort carries validated pagination and ordering. SortBy must be one
// of the request-layer sort keys; unknown keys fall back to the column
// map's default.
type PageSort struct {
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

var transactionSortColumns = map[string]string{
	"date":      "t.date",
	"amount":    "t.amount_cents",
	"title":     "t.title",
	"createdAt": "t.created_at",
}

var categorySortColumns = map[string]string{
	"name":      "c.name",
	"createdAt": "c.created_at",
	"type":      "c.type",
}

// orderClause builds a deterministic ORDER BY. The rowid tie-break keeps
// pagination stable when the sort column has duplicates.
func orderClause(columns map[string]string, ps PageSort, fallback, alias string) string {
	col, ok := columns[ps.SortBy]
	if !ok {
		col = fallback
	}
	dir := "DESC"
	if ps.SortOrder == "asc" {
		dir = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s, %s.rowid ASC", col, dir, alias)
}

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(raw), nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(raw), nil
}

func unmarshalTags(raw string) []string {
	tags := []string{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &tags)
	}
	return tags
}

// nullableCents maps an optional Money to a sql NULL.
func nullableCents(m *core.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m.Cents, Valid: true}
}

func centsPtr(n sql.NullInt64) *core.Money {
	if !n.Valid {
		return nil
	}
	return &core.Money{Cents: n.Int64}
}

func datePtr(n sql.NullString) *core.Date {
	if !n.Valid || n.String == "" {
		return nil
	}
	d, err := core.ParseDate(n.String)
	if err != nil {
		return nil
	}
	return &d
}
