package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/validate"
)

// TransactionService orchestrates transaction operations over the
// repository.
type TransactionService struct {
	storage     *storage.Repository
	invalidator Invalidator
}

func NewTransactionService(storage *storage.Repository, invalidator Invalidator) *TransactionService {
	return &TransactionService{storage: storage, invalidator: invalidator}
}

// List returns one page of transactions with their categories plus the
// total match count.
func (s *TransactionService) List(ctx context.Context, userID string, q *validate.TransactionQuery) ([]core.TransactionWithCategory, int64, error) {
	filter := storage.TransactionFilter{
		Type:       q.Type,
		Status:     q.Status,
		CategoryID: q.CategoryID,
		StartDate:  q.StartDate,
		EndDate:    q.EndDate,
		Search:     q.Search,
	}
	return s.storage.ListTransactions(ctx, userID, filter, pageSort(q.Pagination, q.Sort))
}

// Get returns one transaction with its category.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (*core.TransactionWithCategory, error) {
	return s.storage.GetTransaction(ctx, userID, id)
}

// Create inserts a new transaction. Category existence, ownership and
// type match are enforced atomically with the insert.
func (s *TransactionService) Create(ctx context.Context, userID string, in *validate.TransactionInput) (*core.TransactionWithCategory, error) {
	t := &core.Transaction{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Description:   in.Description,
		Amount:        in.Amount,
		Type:          in.Type,
		Status:        in.Status,
		Date:          in.Date,
		Location:      in.Location,
		PaymentMethod: in.PaymentMethod,
		Reference:     in.Reference,
		Tags:          in.Tags,
		Metadata:      in.Metadata,
		UserID:        userID,
		CategoryID:    in.CategoryID,
	}
	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}
	s.invalidator.Invalidate(userID)

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"amount_cents", t.Amount.Cents,
		"type", t.Type,
		"category_id", t.CategoryID)

	return s.storage.GetTransaction(ctx, userID, t.ID)
}

// Update applies a partial update, re-verifying the category link with
// the merged type and category.
func (s *TransactionService) Update(ctx context.Context, userID, id string, patch *validate.TransactionPatch) (*core.TransactionWithCategory, error) {
	existing, err := s.storage.GetTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	t := existing.Transaction

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.Location != nil {
		t.Location = *patch.Location
	}
	if patch.PaymentMethod != nil {
		t.PaymentMethod = *patch.PaymentMethod
	}
	if patch.Reference != nil {
		t.Reference = *patch.Reference
	}
	if patch.HasTags {
		t.Tags = patch.Tags
	}
	if patch.CategoryID != nil {
		t.CategoryID = *patch.CategoryID
	}
	if patch.Metadata != nil {
		t.Metadata = *patch.Metadata
	}

	if err := s.storage.UpdateTransaction(ctx, &t); err != nil {
		return nil, err
	}
	s.invalidator.Invalidate(userID)

	slog.InfoContext(ctx, "Transaction updated", "transaction_id", id)

	return s.storage.GetTransaction(ctx, userID, id)
}

// Delete removes one transaction.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.invalidator.Invalidate(userID)

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}
