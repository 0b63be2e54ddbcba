package favorites

import (
	"context"
	"errors"
	"fmt"

	"backend-nextquest/internal/db"

	"github.com/jackc/pgx/v5"
)

// ProfileStore reads and merge-writes the favorite list on a user profile.
type ProfileStore interface {
	// LoadFavorites returns nil ids when the profile does not exist.
	LoadFavorites(ctx context.Context, userID string) ([]string, error)
	// SaveFavorites replaces the favorite list and leaves every other
	// profile field as it was.
	SaveFavorites(ctx context.Context, userID string, ids []string) error
}

type PGProfileStore struct {
	db db.Querier
}

func NewPGProfileStore(db db.Querier) *PGProfileStore {
	return &PGProfileStore{db: db}
}

func (s *PGProfileStore) LoadFavorites(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.QueryRow(ctx, `SELECT favorite_spots FROM user_profiles WHERE user_id=$1`, userID).Scan(&ids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	return ids, nil
}

func (s *PGProfileStore) SaveFavorites(ctx context.Context, userID string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id, favorite_spots)
		VALUES ($1,$2)
		ON CONFLICT (user_id) DO UPDATE
		SET favorite_spots=EXCLUDED.favorite_spots, updated_at=now()
	`, userID, ids)
	if err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}
