package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/validate"
)

type fixture struct {
	repo         *storage.Repository
	categories   *CategoryService
	transactions *TransactionService
	analytics    *AnalyticsService
	profiles     *ProfileService
	userID       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := storage.New(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	analytics := NewAnalyticsService(repo, cache.NewLRUCache[any](64, time.Minute))
	f := &fixture{
		repo:         repo,
		categories:   NewCategoryService(repo, analytics),
		transactions: NewTransactionService(repo, analytics),
		analytics:    analytics,
		profiles:     NewProfileService(repo),
		userID:       uuid.NewString(),
	}
	if _, err := f.profiles.Ensure(context.Background(), f.userID); err != nil {
		t.Fatalf("provision profile: %v", err)
	}
	return f
}

func (f *fixture) createCategory(t *testing.T, name string, typ core.EntryType) *core.CategoryWithStats {
	t.Helper()
	c, err := f.categories.Create(context.Background(), f.userID, &validate.CategoryInput{
		Name: name, Type: typ, Icon: "📁", Color: "#3B82F6",
		Status: core.CategoryActive, Priority: core.PriorityMedium, Tags: []string{},
	})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func (f *fixture) createTransaction(t *testing.T, categoryID string, typ core.EntryType, cents int64, date string) *core.TransactionWithCategory {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	tr, err := f.transactions.Create(context.Background(), f.userID, &validate.TransactionInput{
		Title: "entry", Amount: core.Money{Cents: cents}, Type: typ,
		Status: core.StatusCompleted, Date: d, Tags: []string{}, CategoryID: categoryID,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tr
}

func TestCategoryTypeChangeOnlyWithoutHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Side gig", core.TypeExpense)

	income := core.TypeIncome
	updated, err := f.categories.Update(ctx, f.userID, cat.ID, &validate.CategoryPatch{Type: &income})
	if err != nil {
		t.Fatalf("type change on empty category: %v", err)
	}
	if updated.Type != core.TypeIncome {
		t.Fatalf("expected income type, got %s", updated.Type)
	}

	f.createTransaction(t, cat.ID, core.TypeIncome, 1000, "2024-01-10")

	expense := core.TypeExpense
	_, err = f.categories.Update(ctx, f.userID, cat.ID, &validate.CategoryPatch{Type: &expense})
	if !errors.Is(err, core.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch with history, got %v", err)
	}
}

func TestArchivedCategoryCanBeReactivated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Dining", core.TypeExpense)
	f.createTransaction(t, cat.ID, core.TypeExpense, 2500, "2024-02-01")

	archived, err := f.categories.Delete(ctx, f.userID, cat.ID)
	if err != nil || !archived {
		t.Fatalf("expected archive, got %v/%v", archived, err)
	}

	active := core.CategoryActive
	updated, err := f.categories.Update(ctx, f.userID, cat.ID, &validate.CategoryPatch{Status: &active})
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if updated.Status != core.CategoryActive {
		t.Fatalf("expected active, got %s", updated.Status)
	}
}

func TestCategoryUpdateDuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createCategory(t, "Food", core.TypeExpense)
	other := f.createCategory(t, "Dining", core.TypeExpense)

	name := "Food"
	_, err := f.categories.Update(ctx, f.userID, other.ID, &validate.CategoryPatch{Name: &name})
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Renaming to itself is fine.
	same := "Dining"
	if _, err := f.categories.Update(ctx, f.userID, other.ID, &validate.CategoryPatch{Name: &same}); err != nil {
		t.Fatalf("self rename: %v", err)
	}
}

func TestTransactionUpdateMovesCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	food := f.createCategory(t, "Food", core.TypeExpense)
	travel := f.createCategory(t, "Travel", core.TypeExpense)
	salary := f.createCategory(t, "Salary", core.TypeIncome)

	tr := f.createTransaction(t, food.ID, core.TypeExpense, 4200, "2024-03-05")

	moved, err := f.transactions.Update(ctx, f.userID, tr.ID, &validate.TransactionPatch{CategoryID: &travel.ID})
	if err != nil {
		t.Fatalf("move category: %v", err)
	}
	if moved.Category.ID != travel.ID {
		t.Fatalf("expected travel category, got %s", moved.Category.Name)
	}

	// Moving to a category of the other type fails without a type change.
	_, err = f.transactions.Update(ctx, f.userID, tr.ID, &validate.TransactionPatch{CategoryID: &salary.ID})
	if !errors.Is(err, core.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}

	// With the type changed in the same request it succeeds.
	income := core.TypeIncome
	moved, err = f.transactions.Update(ctx, f.userID, tr.ID, &validate.TransactionPatch{CategoryID: &salary.ID, Type: &income})
	if err != nil {
		t.Fatalf("move with type change: %v", err)
	}
	if moved.Type != core.TypeIncome || moved.Category.ID != salary.ID {
		t.Fatalf("unexpected result: %+v", moved.Transaction)
	}
}

func TestAnalyticsCachingAndInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.analytics.now = func() time.Time {
		return time.Date(2024, 1, 18, 12, 0, 0, 0, time.UTC)
	}

	cat := f.createCategory(t, "Food", core.TypeExpense)
	f.createTransaction(t, cat.ID, core.TypeExpense, 10000, "2024-01-16")

	q := &validate.AnalyticsQuery{Period: core.PeriodWeek, Year: 2024}
	first, err := f.analytics.Stats(ctx, f.userID, q)
	if err != nil {
		t.Fatalf("first stats: %v", err)
	}
	if first.TotalExpenses.Cents != 10000 {
		t.Fatalf("unexpected first stats: %+v", first)
	}

	// A write through the service invalidates, so new data shows up.
	f.createTransaction(t, cat.ID, core.TypeExpense, 5000, "2024-01-17")
	second, err := f.analytics.Stats(ctx, f.userID, q)
	if err != nil {
		t.Fatalf("second stats: %v", err)
	}
	if second.TotalExpenses.Cents != 15000 {
		t.Fatalf("expected invalidated stats, got %+v", second)
	}

	// A write that bypasses the services does not invalidate: the cached
	// value is served until the next service write.
	d, _ := core.ParseDate("2024-01-18")
	stale := &core.Transaction{
		ID: uuid.NewString(), Title: "direct", Amount: core.Money{Cents: 7000},
		Type: core.TypeExpense, Status: core.StatusCompleted, Date: d,
		Tags: []string{}, UserID: f.userID, CategoryID: cat.ID,
	}
	if err := f.repo.CreateTransaction(ctx, stale); err != nil {
		t.Fatalf("direct insert: %v", err)
	}
	third, err := f.analytics.Stats(ctx, f.userID, q)
	if err != nil {
		t.Fatalf("third stats: %v", err)
	}
	if third.TotalExpenses.Cents != second.TotalExpenses.Cents {
		t.Fatalf("expected cached stats, got %+v", third)
	}

	f.analytics.Invalidate(f.userID)
	fresh, err := f.analytics.Stats(ctx, f.userID, q)
	if err != nil {
		t.Fatalf("fresh stats: %v", err)
	}
	if fresh.TotalExpenses.Cents != 22000 {
		t.Fatalf("expected fresh stats after invalidation, got %+v", fresh)
	}
}

func TestAnalyticsWeekWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Thursday 2024-01-18: the week window starts Monday 2024-01-15.
	f.analytics.now = func() time.Time {
		return time.Date(2024, 1, 18, 12, 0, 0, 0, time.UTC)
	}

	cat := f.createCategory(t, "Food", core.TypeExpense)
	f.createTransaction(t, cat.ID, core.TypeExpense, 1000, "2024-01-14")
	f.createTransaction(t, cat.ID, core.TypeExpense, 2000, "2024-01-15")

	stats, err := f.analytics.Stats(ctx, f.userID, &validate.AnalyticsQuery{Period: core.PeriodWeek})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalExpenses.Cents != 2000 {
		t.Fatalf("expected only Monday's transaction in window, got %+v", stats)
	}
	if stats.RecentTransactions != 2 {
		t.Fatalf("recent count ignores the period window, got %d", stats.RecentTransactions)
	}
}

func TestGoalCompletionFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	done, err := f.profiles.CreateGoal(ctx, f.userID, &validate.GoalInput{
		Title: "Laptop", TargetAmount: core.Money{Cents: 100000},
		CurrentAmount: core.Money{Cents: 100000}, Priority: core.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if !done.IsCompleted {
		t.Fatal("fully funded goal must be completed")
	}

	open, err := f.profiles.CreateGoal(ctx, f.userID, &validate.GoalInput{
		Title: "Car", TargetAmount: core.Money{Cents: 100000}, Priority: core.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("create open goal: %v", err)
	}
	if open.IsCompleted {
		t.Fatal("unfunded goal must not be completed")
	}
}

func TestBudgetRequiresOwnCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, _ := core.ParseDate("2024-01-01")

	_, err := f.profiles.CreateBudget(ctx, f.userID, &validate.BudgetInput{
		Name: "Cap", Amount: core.Money{Cents: 5000}, Period: "monthly",
		StartDate: start, AlertThreshold: 80, IsActive: true,
		CategoryID: uuid.NewString(),
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for unknown category, got %v", err)
	}
}

func TestProfileUpdateMergesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "Avery"
	cur := "EUR"
	p, err := f.profiles.Update(ctx, f.userID, &validate.ProfilePatch{
		FullName: &name, Currency: &cur,
		Preferences: &core.Preferences{Theme: "dark", Notifications: true},
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if p.FullName != "Avery" || p.Currency != "EUR" || p.Timezone != "UTC" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	got, err := f.profiles.Ensure(ctx, f.userID)
	if err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if got.Preferences.Theme != "dark" || !got.Preferences.Notifications {
		t.Fatalf("preferences not persisted: %+v", got.Preferences)
	}
}
