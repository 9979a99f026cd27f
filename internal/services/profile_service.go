package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/validate"
)

// ProfileService covers the profile record plus the simple budget and
// goal records. No aggregation engine operates over these.
type ProfileService struct {
	storage *storage.Repository
}

func NewProfileService(storage *storage.Repository) *ProfileService {
	return &ProfileService{storage: storage}
}

// Ensure returns the user's profile, provisioning it on first sight.
func (s *ProfileService) Ensure(ctx context.Context, userID string) (*core.Profile, error) {
	return s.storage.EnsureProfile(ctx, userID, userID+"@users.fintrack.local")
}

// Update applies a partial profile update and returns the merged record.
func (s *ProfileService) Update(ctx context.Context, userID string, patch *validate.ProfilePatch) (*core.Profile, error) {
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = *patch.AvatarURL
	}
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.Timezone != nil {
		p.Timezone = *patch.Timezone
	}
	if patch.Preferences != nil {
		p.Preferences = *patch.Preferences
	}

	if err := s.storage.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Profile updated", "profile_id", userID)
	return p, nil
}

// Budgets returns all of the user's budgets.
func (s *ProfileService) Budgets(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, userID)
}

// CreateBudget inserts a new budget record. A category link must point
// at one of the user's own categories.
func (s *ProfileService) CreateBudget(ctx context.Context, userID string, in *validate.BudgetInput) (*core.Budget, error) {
	if in.CategoryID != "" {
		if _, err := s.storage.GetCategory(ctx, userID, in.CategoryID); err != nil {
			return nil, err
		}
	}

	b := &core.Budget{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Amount:         in.Amount,
		Period:         in.Period,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		AlertThreshold: in.AlertThreshold,
		IsActive:       in.IsActive,
		UserID:         userID,
		CategoryID:     in.CategoryID,
	}
	if err := s.storage.CreateBudget(ctx, b); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Budget created", "budget_id", b.ID, "name", b.Name)
	return b, nil
}

// DeleteBudget removes one budget.
func (s *ProfileService) DeleteBudget(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budget deleted", "budget_id", id)
	return nil
}

// Goals returns all of the user's goals.
func (s *ProfileService) Goals(ctx context.Context, userID string) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx, userID)
}

// CreateGoal inserts a new goal record. A category link must point at
// one of the user's own categories.
func (s *ProfileService) CreateGoal(ctx context.Context, userID string, in *validate.GoalInput) (*core.Goal, error) {
	if in.CategoryID != "" {
		if _, err := s.storage.GetCategory(ctx, userID, in.CategoryID); err != nil {
			return nil, err
		}
	}

	g := &core.Goal{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Description:   in.Description,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		TargetDate:    in.TargetDate,
		Priority:      in.Priority,
		IsCompleted:   in.CurrentAmount.Cents >= in.TargetAmount.Cents,
		UserID:        userID,
		CategoryID:    in.CategoryID,
	}
	if err := s.storage.CreateGoal(ctx, g); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Goal created", "goal_id", g.ID, "title", g.Title)
	return g, nil
}

// DeleteGoal removes one goal.
func (s *ProfileService) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Goal deleted", "goal_id", id)
	return nil
}
