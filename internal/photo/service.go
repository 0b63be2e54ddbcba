package photo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-nextquest/internal/db"
	"backend-nextquest/internal/logging"
	"backend-nextquest/internal/metrics"
	"backend-nextquest/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound = errors.New("photo not found")
	ErrNotOwner = errors.New("only the uploader can edit this photo")
)

// Photo belongs to one spot. Reviewer is the uploader's email.
type Photo struct {
	ID          string    `json:"id"`
	SpotID      string    `json:"spot_id"`
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
	Reviewer    string    `json:"reviewer"`
	PostedOn    time.Time `json:"posted_on"`
}

type SpotChecker interface {
	RequireSaved(ctx context.Context, id string) error
}

// Uploader stores image bytes and returns their locator.
type Uploader interface {
	UploadImage(ctx context.Context, userID, kind string, data []byte) (storage.Object, error)
}

type Service struct {
	db    db.Querier
	spots SpotChecker
	blobs Uploader
}

func NewService(db db.Querier, spots SpotChecker, blobs Uploader) *Service {
	return &Service{db: db, spots: spots, blobs: blobs}
}

// Add uploads image and then records it against spotID. The row is written
// only after the upload succeeded and carries its locator; a failed upload
// writes nothing.
func (s *Service) Add(ctx context.Context, userID, reviewer, spotID, description string, image []byte) (Photo, error) {
	if err := s.spots.RequireSaved(ctx, spotID); err != nil {
		return Photo{}, err
	}

	obj, err := s.blobs.UploadImage(ctx, userID, "photo", image)
	if err != nil {
		return Photo{}, err
	}

	p := Photo{
		ID:          uuid.NewString(),
		SpotID:      spotID,
		ImageURL:    obj.URL,
		Description: description,
		Reviewer:    reviewer,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO spot_photos (id, spot_id, image_url, description, reviewer)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING posted_on
	`, p.ID, p.SpotID, p.ImageURL, p.Description, p.Reviewer)
	if err := row.Scan(&p.PostedOn); err != nil {
		metrics.RecordRemoteWriteFailure("spot_photos")
		logging.Ctx(ctx).Error().Err(err).Str("spot_id", spotID).Str("blob_key", obj.Key).Msg("photo metadata write failed after upload")
		return Photo{}, fmt.Errorf("insert photo: %w", err)
	}
	return p, nil
}

// List returns a spot's photos, newest first.
func (s *Service) List(ctx context.Context, spotID string) ([]Photo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, spot_id, image_url, description, reviewer, posted_on
		FROM spot_photos WHERE spot_id=$1
		ORDER BY posted_on DESC, id
	`, spotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.SpotID, &p.ImageURL, &p.Description, &p.Reviewer, &p.PostedOn); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// Describe replaces a photo's description. The image itself is immutable.
func (s *Service) Describe(ctx context.Context, reviewer, spotID, photoID, description string) (Photo, error) {
	var p Photo
	err := s.db.QueryRow(ctx, `
		SELECT id, spot_id, image_url, description, reviewer, posted_on
		FROM spot_photos WHERE id=$1 AND spot_id=$2
	`, photoID, spotID).Scan(&p.ID, &p.SpotID, &p.ImageURL, &p.Description, &p.Reviewer, &p.PostedOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return Photo{}, ErrNotFound
	}
	if err != nil {
		return Photo{}, err
	}
	if p.Reviewer != reviewer {
		return Photo{}, ErrNotOwner
	}

	if _, err := s.db.Exec(ctx, `UPDATE spot_photos SET description=$3 WHERE id=$1 AND spot_id=$2`, photoID, spotID, description); err != nil {
		return Photo{}, fmt.Errorf("update photo: %w", err)
	}
	p.Description = description
	return p, nil
}
