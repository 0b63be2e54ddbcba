package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"backend-nextquest/internal/db"
	"backend-nextquest/internal/logging"
	"backend-nextquest/internal/metrics"

	"github.com/google/uuid"
)

var (
	ErrEmptyUpload  = errors.New("upload is empty")
	ErrTooLarge     = errors.New("upload exceeds the size limit")
	ErrNotAnImage   = errors.New("upload is not an image")
	defaultMaxBytes = int64(10 << 20)
)

// Object is a stored blob and the locator clients fetch it by.
type Object struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Kind        string    `json:"kind"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

type Service struct {
	db        db.Querier
	blobs     BlobStore
	publicURL string
	maxBytes  int64
}

// NewService builds the upload service. publicURL prefixes blob keys to form
// locators, e.g. "https://api.example/blobs".
func NewService(db db.Querier, blobs BlobStore, publicURL string, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Service{
		db:        db,
		blobs:     blobs,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
	}
}

func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// URLFor is the public locator of key.
func (s *Service) URLFor(key string) string {
	return s.publicURL + "/" + key
}

// UploadImage stores data if it sniffs as an image, then records it.
func (s *Service) UploadImage(ctx context.Context, userID, kind string, data []byte) (Object, error) {
	if len(data) > 0 && !strings.HasPrefix(http.DetectContentType(data), "image/") {
		metrics.BlobUploads.WithLabelValues("rejected").Inc()
		return Object{}, ErrNotAnImage
	}
	return s.Upload(ctx, userID, kind, data)
}

// Upload writes the blob first and records the object only once the blob is
// durable, so a row never points at missing bytes.
func (s *Service) Upload(ctx context.Context, userID, kind string, data []byte) (Object, error) {
	switch {
	case len(data) == 0:
		metrics.BlobUploads.WithLabelValues("rejected").Inc()
		return Object{}, ErrEmptyUpload
	case int64(len(data)) > s.maxBytes:
		metrics.BlobUploads.WithLabelValues("rejected").Inc()
		return Object{}, ErrTooLarge
	}

	key := KeyFor(data)
	if err := s.blobs.Put(ctx, key, data); err != nil {
		metrics.BlobUploads.WithLabelValues("failure").Inc()
		metrics.RecordRemoteWriteFailure("blobs")
		logging.Ctx(ctx).Error().Err(err).Str("user_id", userID).Str("key", key).Msg("blob upload failed")
		return Object{}, fmt.Errorf("put blob: %w", err)
	}
	metrics.BlobUploads.WithLabelValues("success").Inc()
	metrics.BlobUploadBytes.Add(float64(len(data)))

	obj := Object{
		UserID:      userID,
		Key:         key,
		URL:         s.URLFor(key),
		Kind:        kind,
		ContentType: http.DetectContentType(data),
		SizeBytes:   int64(len(data)),
	}
	id, err := s.SaveObject(ctx, obj)
	if err != nil {
		metrics.RecordRemoteWriteFailure("storage_objects")
		return Object{}, err
	}
	obj.ID = id
	obj.CreatedAt = time.Now().UTC()
	return obj, nil
}

// SaveObject records an uploaded blob.
func (s *Service) SaveObject(ctx context.Context, obj Object) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_id, blob_key, url, kind, size_bytes)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, id, obj.UserID, obj.Key, obj.URL, obj.Kind, obj.SizeBytes)
	if err != nil {
		return "", fmt.Errorf("record object: %w", err)
	}
	return id, nil
}

// Open returns the bytes stored under key.
func (s *Service) Open(ctx context.Context, key string) ([]byte, error) {
	return s.blobs.Get(ctx, key)
}
