package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeIncome  EntryType = "income"
	TypeExpense EntryType = "expense"

	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"

	CategoryActive   CategoryStatus = "active"
	CategoryInactive CategoryStatus = "inactive"
	CategoryArchived CategoryStatus = "archived"

	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type (
	// EntryType classifies categories and transactions as income or expense.
	EntryType string

	// TransactionStatus is the settlement state of a transaction.
	TransactionStatus string

	// CategoryStatus is the lifecycle state of a category. Archived is
	// terminal-but-retained: it replaces deletion when history exists.
	CategoryStatus string

	// Priority is the user-assigned importance of a category or goal.
	Priority string

	// Preferences is the free-form profile preference blob.
	Preferences struct {
		Theme         string `json:"theme,omitempty"`
		Notifications bool   `json:"notifications"`
		Language      string `json:"language,omitempty"`
		DateFormat    string `json:"dateFormat,omitempty"`
	}

	// Profile is one authenticated user. It owns every other entity.
	Profile struct {
		ID          string      `json:"id"`
		Email       string      `json:"email"`
		FullName    string      `json:"fullName,omitempty"`
		AvatarURL   string      `json:"avatarUrl,omitempty"`
		Currency    string      `json:"currency"`
		Timezone    string      `json:"timezone"`
		Preferences Preferences `json:"preferences"`
		CreatedAt   time.Time   `json:"createdAt"`
		UpdatedAt   time.Time   `json:"updatedAt"`
	}

	// CategoryMetadata is the free-form category metadata blob.
	CategoryMetadata struct {
		Subcategories  []string `json:"subcategories,omitempty"`
		BudgetPeriod   string   `json:"budgetPeriod,omitempty"`
		AlertThreshold *float64 `json:"alertThreshold,omitempty"`
		Notes          string   `json:"notes,omitempty"`
	}

	// Category is a named bucket for transactions. (UserID, Name, Type) is
	// unique per user; the type constrains what transactions the category
	// may hold and can only change while no transactions reference it.
	Category struct {
		ID          string           `json:"id"`
		Name        string           `json:"name"`
		Description string           `json:"description,omitempty"`
		Type        EntryType        `json:"type"`
		Icon        string           `json:"icon"`
		Color       string           `json:"color"`
		Budget      *Money           `json:"budget,omitempty"`
		Status      CategoryStatus   `json:"status"`
		Priority    Priority         `json:"priority"`
		Tags        []string         `json:"tags"`
		Metadata    CategoryMetadata `json:"metadata"`
		UserID      string           `json:"userId"`
		CreatedAt   time.Time        `json:"createdAt"`
		UpdatedAt   time.Time        `json:"updatedAt"`
	}

	// CategoryWithStats is a category enriched with derived transaction totals.
	CategoryWithStats struct {
		Category
		TotalAmount         Money `json:"totalAmount"`
		TransactionCount    int64 `json:"transactionCount"`
		AverageAmount       Money `json:"averageAmount"`
		LastTransactionDate *Date `json:"lastTransactionDate,omitempty"`
	}

	// TransactionMetadata is the free-form transaction metadata blob.
	TransactionMetadata struct {
		Subcategory       string   `json:"subcategory,omitempty"`
		Vendor            string   `json:"vendor,omitempty"`
		Recurring         bool     `json:"recurring,omitempty"`
		RecurringInterval string   `json:"recurringInterval,omitempty"`
		Attachments       []string `json:"attachments,omitempty"`
		Notes             string   `json:"notes,omitempty"`
		ExchangeRate      *float64 `json:"exchangeRate,omitempty"`
		OriginalAmount    *Money   `json:"originalAmount,omitempty"`
		OriginalCurrency  string   `json:"originalCurrency,omitempty"`
	}

	// Transaction is a single dated financial event filed under exactly one
	// category of the same type and owner.
	Transaction struct {
		ID            string              `json:"id"`
		Title         string              `json:"title"`
		Description   string              `json:"description,omitempty"`
		Amount        Money               `json:"amount"`
		Type          EntryType           `json:"type"`
		Status        TransactionStatus   `json:"status"`
		Date          Date                `json:"date"`
		Location      string              `json:"location,omitempty"`
		PaymentMethod string              `json:"paymentMethod,omitempty"`
		Reference     string              `json:"reference,omitempty"`
		Tags          []string            `json:"tags"`
		Metadata      TransactionMetadata `json:"metadata"`
		UserID        string              `json:"userId"`
		CategoryID    string              `json:"categoryId"`
		CreatedAt     time.Time           `json:"createdAt"`
		UpdatedAt     time.Time           `json:"updatedAt"`
	}

	// TransactionWithCategory joins a transaction to its owning category.
	TransactionWithCategory struct {
		Transaction
		Category Category `json:"category"`
	}

	// Budget is a spending ceiling for a period, optionally scoped to a
	// category. Simple record; no aggregation engine operates over it.
	Budget struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		Amount         Money     `json:"amount"`
		Period         string    `json:"period"`
		StartDate      Date      `json:"startDate"`
		EndDate        *Date     `json:"endDate,omitempty"`
		AlertThreshold float64   `json:"alertThreshold"`
		IsActive       bool      `json:"isActive"`
		UserID         string    `json:"userId"`
		CategoryID     string    `json:"categoryId,omitempty"`
		CreatedAt      time.Time `json:"createdAt"`
		UpdatedAt      time.Time `json:"updatedAt"`
	}

	// Goal is a savings target with current progress. Simple record.
	Goal struct {
		ID            string    `json:"id"`
		Title         string    `json:"title"`
		Description   string    `json:"description,omitempty"`
		TargetAmount  Money     `json:"targetAmount"`
		CurrentAmount Money     `json:"currentAmount"`
		TargetDate    *Date     `json:"targetDate,omitempty"`
		Priority      Priority  `json:"priority"`
		IsCompleted   bool      `json:"isCompleted"`
		UserID        string    `json:"userId"`
		CategoryID    string    `json:"categoryId,omitempty"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}
)

var (
	// ErrNotFound signals that an entity is absent or owned by a different
	// user. One error for both cases, so existence never leaks across users.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness violation, e.g. a duplicate
	// (name, type) category for the same user.
	ErrConflict = errors.New("conflict")

	// ErrTypeMismatch signals a transaction whose type differs from its
	// category's type.
	ErrTypeMismatch = errors.New("transaction type must match category type")

	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Valid reports whether s is a known transaction status.
func (s TransactionStatus) Valid() bool {
	return s == StatusCompleted || s == StatusPending || s == StatusFailed
}

// Valid reports whether s is a known category status.
func (s CategoryStatus) Valid() bool {
	return s == CategoryActive || s == CategoryInactive || s == CategoryArchived
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// NormalizedName returns the category name trimmed the way the uniqueness
// check compares it.
func (c Category) NormalizedName() string {
	return strings.TrimSpace(c.Name)
}
