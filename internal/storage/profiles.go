package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// EnsureProfile returns the profile for id, creating it with defaults on
// first sight. The INSERT is idempotent so concurrent first requests for
// the same user cannot fail each other.
func (r *Repository) EnsureProfile(ctx context.Context, id, email string) (*core.Profile, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO profiles
		(id, email, full_name, avatar_url, currency, timezone, preferences, created_at, updated_at)
		VALUES (?, ?, '', '', 'USD', 'UTC', '{}', ?, ?)`,
		id, email, now, now)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return r.GetProfile(ctx, id)
}

// GetProfile returns one profile, or core.ErrNotFound.
func (r *Repository) GetProfile(ctx context.Context, id string) (*core.Profile, error) {
	var (
		p     core.Profile
		prefs string
	)
	err := r.db.QueryRowContext(ctx, `SELECT
		id, email, full_name, avatar_url, currency, timezone, preferences, created_at, updated_at
		FROM profiles WHERE id = ?`, id).Scan(
		&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.Currency, &p.Timezone,
		&prefs, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	_ = json.Unmarshal([]byte(prefs), &p.Preferences)
	return &p, nil
}

// UpdateProfile persists the mutable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, p *core.Profile) error {
	prefs, err := marshalJSON(p.Preferences)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET
		full_name = ?, avatar_url = ?, currency = ?, timezone = ?, preferences = ?, updated_at = ?
		WHERE id = ?`,
		p.FullName, p.AvatarURL, p.Currency, p.Timezone, prefs, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update profile result: %w", err)
	} else if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
