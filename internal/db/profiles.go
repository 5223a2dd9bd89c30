package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loydmilligan/mashboard-strategist/internal/league"
)

// profileID keys the single listener profile row.
const profileID = "default"

// ProfileRepository persists the long-term listener profile.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// Load returns the profile singleton.
func (r *ProfileRepository) Load(ctx context.Context) (*league.UserProfile, error) {
	query := `SELECT data FROM listener_profiles WHERE id = $1`
	var data []byte
	err := r.pool.QueryRow(ctx, query, profileID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, league.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	var profile league.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &profile, nil
}

// Save upserts the profile singleton.
func (r *ProfileRepository) Save(ctx context.Context, profile *league.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	query := `
		INSERT INTO listener_profiles (id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query, profileID, data, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

var _ league.ProfileStore = (*ProfileRepository)(nil)
