package spot

import (
	"context"
	"errors"
	"fmt"

	"backend-nextquest/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

const spotColumns = `id, name, address, latitude, longitude, category, created_by, created_at`

// Create saves a draft. The id is assigned here, never by the caller.
func (s *Service) Create(ctx context.Context, createdBy string, d Draft) (Persisted, error) {
	if !d.Fields.Category.Valid() {
		return Persisted{}, ErrInvalidCategory
	}
	p := Persisted{ID: uuid.NewString(), Fields: d.Fields, CreatedBy: createdBy}
	row := s.db.QueryRow(ctx, `
		INSERT INTO spots (id, name, address, latitude, longitude, category, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, p.ID, p.Fields.Name, p.Fields.Address, p.Fields.Latitude, p.Fields.Longitude, string(p.Fields.Category), p.CreatedBy)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return Persisted{}, fmt.Errorf("insert spot: %w", err)
	}
	return p, nil
}

// Replace overwrites every field of a saved spot. Only its creator may.
func (s *Service) Replace(ctx context.Context, userID, id string, f Fields) (Persisted, error) {
	if !f.Category.Valid() {
		return Persisted{}, ErrInvalidCategory
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Persisted{}, err
	}
	if current.CreatedBy != userID {
		return Persisted{}, ErrNotOwner
	}

	_, err = s.db.Exec(ctx, `
		UPDATE spots
		SET name=$2, address=$3, latitude=$4, longitude=$5, category=$6
		WHERE id=$1
	`, id, f.Name, f.Address, f.Latitude, f.Longitude, string(f.Category))
	if err != nil {
		return Persisted{}, fmt.Errorf("update spot: %w", err)
	}
	current.Fields = f
	return current, nil
}

func (s *Service) Get(ctx context.Context, id string) (Persisted, error) {
	if id == "" {
		return Persisted{}, ErrNotPersisted
	}
	row := s.db.QueryRow(ctx, `SELECT `+spotColumns+` FROM spots WHERE id=$1`, id)
	sp, err := scanSpot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Persisted{}, ErrNotFound
	}
	if err != nil {
		return Persisted{}, err
	}
	return sp.State().(Persisted), nil
}

// List returns every saved spot, oldest first.
func (s *Service) List(ctx context.Context) ([]Spot, error) {
	rows, err := s.db.Query(ctx, `SELECT `+spotColumns+` FROM spots ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spots := []Spot{}
	for rows.Next() {
		sp, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, sp)
	}
	return spots, rows.Err()
}

// RequireSaved returns ErrNotPersisted unless a spot with id exists.
func (s *Service) RequireSaved(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotPersisted
	}
	var ok bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM spots WHERE id=$1)`, id).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return ErrNotPersisted
	}
	return nil
}

func scanSpot(row pgx.Row) (Spot, error) {
	var sp Spot
	var category string
	if err := row.Scan(&sp.ID, &sp.Name, &sp.Address, &sp.Latitude, &sp.Longitude, &category, &sp.CreatedBy, &sp.CreatedAt); err != nil {
		return Spot{}, err
	}
	sp.Category = Category(category)
	return sp, nil
}
