package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/validate"
)

// recentWindow bounds the trailing recent-activity count in period stats.
const recentWindow = 7 * 24 * time.Hour

// AnalyticsService computes period aggregations over completed
// transactions. Responses are cached per (user, query) and dropped
// whenever the user writes.
type AnalyticsService struct {
	storage *storage.Repository
	cache   cache.Cache[any]
	now     func() time.Time
}

func NewAnalyticsService(storage *storage.Repository, c cache.Cache[any]) *AnalyticsService {
	return &AnalyticsService{
		storage: storage,
		cache:   c,
		now:     time.Now,
	}
}

// Invalidate drops every cached analytics entry for the user.
func (s *AnalyticsService) Invalidate(userID string) {
	s.cache.DeletePrefix(userID + "|")
}

// Stats aggregates completed transactions inside the requested window.
func (s *AnalyticsService) Stats(ctx context.Context, userID string, q *validate.AnalyticsQuery) (core.TransactionStats, error) {
	key := fmt.Sprintf("%s|stats|%s", userID, q.Period)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(core.TransactionStats), nil
	}

	now := s.now()
	since := q.Period.WindowStart(now)
	recent := now.Add(-recentWindow)
	recentSince := core.NewDate(recent.Year(), int(recent.Month()), recent.Day())

	stats, err := s.storage.TransactionStats(ctx, userID, since, recentSince)
	if err != nil {
		return stats, err
	}
	s.cache.Set(key, stats)
	return stats, nil
}

// Monthly buckets the year's completed transactions by calendar month.
func (s *AnalyticsService) Monthly(ctx context.Context, userID string, q *validate.AnalyticsQuery) ([]core.MonthlySummary, error) {
	key := fmt.Sprintf("%s|monthly|%d", userID, q.Year)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]core.MonthlySummary), nil
	}

	months, err := s.storage.MonthlySummaries(ctx, userID, q.Year)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, months)
	return months, nil
}

// Spending breaks down expense spend by category inside the requested
// window, with percentage shares of the window total.
func (s *AnalyticsService) Spending(ctx context.Context, userID string, q *validate.AnalyticsQuery) ([]core.CategorySpending, error) {
	key := fmt.Sprintf("%s|spending|%s", userID, q.Period)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]core.CategorySpending), nil
	}

	since := q.Period.WindowStart(s.now())
	spending, err := s.storage.CategorySpending(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, spending)
	return spending, nil
}

// BudgetView reports current-month spend against each budgeted category.
func (s *AnalyticsService) BudgetView(ctx context.Context, userID string) ([]core.BudgetUtilization, error) {
	key := userID + "|budget"
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]core.BudgetUtilization), nil
	}

	monthStart := core.PeriodMonth.WindowStart(s.now())
	rows, err := s.storage.BudgetUtilization(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, rows)
	return rows, nil
}
