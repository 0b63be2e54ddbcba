package review

import (
	"context"
	"errors"
	"fmt"

	"backend-nextquest/internal/db"
	"backend-nextquest/internal/ranking"
	"backend-nextquest/internal/spot"
	"backend-nextquest/internal/validation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const foreignKeyViolation = "23503"

// SpotChecker confirms a spot has been saved before anything is attached to it.
type SpotChecker interface {
	RequireSaved(ctx context.Context, id string) error
}

type Service struct {
	db    db.Querier
	spots SpotChecker
	board *ranking.RatingBoard
}

func NewService(db db.Querier, spots SpotChecker, board *ranking.RatingBoard) *Service {
	if board == nil {
		board = ranking.NewRatingBoard()
	}
	return &Service{db: db, spots: spots, board: board}
}

// Board is the rating snapshot this service keeps current.
func (s *Service) Board() *ranking.RatingBoard {
	return s.board
}

func (s *Service) Create(ctx context.Context, reviewer, spotID string, in Input) (Review, error) {
	if err := validation.Struct(in); err != nil {
		return Review{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.spots.RequireSaved(ctx, spotID); err != nil {
		return Review{}, err
	}

	r := Review{
		ID:       uuid.NewString(),
		SpotID:   spotID,
		Title:    in.Title,
		Body:     in.Body,
		Rating:   *in.Rating,
		Reviewer: reviewer,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO spot_reviews (id, spot_id, title, body, rating, reviewer)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING posted_on
	`, r.ID, r.SpotID, r.Title, r.Body, r.Rating, r.Reviewer)
	if err := row.Scan(&r.PostedOn); err != nil {
		return Review{}, storeError("insert review", err)
	}
	s.RefreshSpot(ctx, spotID)
	return r, nil
}

// Update edits a review in place. The reviewer and spot never change.
func (s *Service) Update(ctx context.Context, reviewer, spotID, reviewID string, in Input) (Review, error) {
	if err := validation.Struct(in); err != nil {
		return Review{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	r, err := s.owned(ctx, reviewer, spotID, reviewID)
	if err != nil {
		return Review{}, err
	}
	r.Title, r.Body, r.Rating = in.Title, in.Body, *in.Rating

	_, err = s.db.Exec(ctx, `
		UPDATE spot_reviews SET title=$3, body=$4, rating=$5
		WHERE id=$1 AND spot_id=$2
	`, r.ID, r.SpotID, r.Title, r.Body, r.Rating)
	if err != nil {
		return Review{}, fmt.Errorf("update review: %w", err)
	}
	s.RefreshSpot(ctx, spotID)
	return r, nil
}

func (s *Service) Delete(ctx context.Context, reviewer, spotID, reviewID string) error {
	if _, err := s.owned(ctx, reviewer, spotID, reviewID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM spot_reviews WHERE id=$1 AND spot_id=$2`, reviewID, spotID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	s.RefreshSpot(ctx, spotID)
	return nil
}

func (s *Service) Get(ctx context.Context, spotID, reviewID string) (Review, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, spot_id, title, body, rating, reviewer, posted_on
		FROM spot_reviews WHERE id=$1 AND spot_id=$2
	`, reviewID, spotID)
	var r Review
	err := row.Scan(&r.ID, &r.SpotID, &r.Title, &r.Body, &r.Rating, &r.Reviewer, &r.PostedOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return Review{}, ErrNotFound
	}
	if err != nil {
		return Review{}, err
	}
	return r, nil
}

// List returns a spot's reviews, newest first.
func (s *Service) List(ctx context.Context, spotID string) ([]Review, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, spot_id, title, body, rating, reviewer, posted_on
		FROM spot_reviews WHERE spot_id=$1
		ORDER BY posted_on DESC, id
	`, spotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.SpotID, &r.Title, &r.Body, &r.Rating, &r.Reviewer, &r.PostedOn); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// Rating aggregates one spot's reviews.
func (s *Service) Rating(ctx context.Context, spotID string) (ranking.Rating, error) {
	var sum int64
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(rating), 0), COUNT(*)
		FROM spot_reviews WHERE spot_id=$1
	`, spotID).Scan(&sum, &count)
	if err != nil {
		return ranking.Unrated, err
	}
	return ranking.FromTotals(sum, count), nil
}

// Ratings aggregates every spot's reviews in one query. Spots without
// reviews are absent from the map.
func (s *Service) Ratings(ctx context.Context) (map[string]ranking.Rating, error) {
	rows, err := s.db.Query(ctx, `
		SELECT spot_id, SUM(rating), COUNT(*)
		FROM spot_reviews
		GROUP BY spot_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]ranking.Rating{}
	for rows.Next() {
		var spotID string
		var sum int64
		var count int
		if err := rows.Scan(&spotID, &sum, &count); err != nil {
			return nil, err
		}
		out[spotID] = ranking.FromTotals(sum, count)
	}
	return out, rows.Err()
}

// Refresh reloads the whole board. A refresh that loses the race to a newer
// one is dropped by the board.
func (s *Service) Refresh(ctx context.Context) (map[string]ranking.Rating, error) {
	gen := s.board.Begin()
	ratings, err := s.Ratings(ctx)
	if err != nil {
		return nil, err
	}
	s.board.Apply(gen, ratings)
	return ratings, nil
}

// RefreshSpot re-aggregates one spot after a write. Failures leave the board
// as it was; the next full refresh corrects it.
func (s *Service) RefreshSpot(ctx context.Context, spotID string) {
	gen := s.board.Begin()
	r, err := s.Rating(ctx, spotID)
	if err != nil {
		return
	}
	s.board.Merge(gen, spotID, r)
}

func (s *Service) owned(ctx context.Context, reviewer, spotID, reviewID string) (Review, error) {
	r, err := s.Get(ctx, spotID, reviewID)
	if err != nil {
		return Review{}, err
	}
	if r.Reviewer != reviewer {
		return Review{}, ErrNotReviewer
	}
	return r, nil
}

// storeError maps a foreign key failure (the spot vanished between the
// existence check and the insert) to spot.ErrNotPersisted.
func storeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return spot.ErrNotPersisted
	}
	return fmt.Errorf("%s: %w", op, err)
}
