package position

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend-nextquest/internal/metrics"
	"backend-nextquest/internal/shared/geo"
	"backend-nextquest/internal/validation"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

// Service keeps one position per user in redis. Entries expire after ttl so a
// device that stops reporting stops influencing proximity sorting.
type Service struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewService accepts a nil client; every call then reports ErrUnavailable.
func NewService(rdb *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{rdb: rdb, ttl: ttl, now: time.Now}
}

func key(userID string) string {
	return "position:" + userID
}

func (s *Service) Report(ctx context.Context, userID string, in Report) (Fix, error) {
	if err := validation.Struct(in); err != nil {
		return Fix{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if s.rdb == nil {
		return Fix{}, ErrUnavailable
	}
	fix := Fix{
		Point:      geo.Point{Lat: *in.Lat, Lng: *in.Lng},
		AccuracyM:  in.AccuracyM,
		ReportedAt: s.now().UTC(),
	}
	payload, err := json.Marshal(fix)
	if err != nil {
		return Fix{}, err
	}
	if err := s.rdb.Set(ctx, key(userID), payload, s.ttl).Err(); err != nil {
		metrics.RecordRemoteWriteFailure("positions")
		return Fix{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fix, nil
}

// Current returns the user's last fix. ok is false when none is stored or it
// has expired.
func (s *Service) Current(ctx context.Context, userID string) (fix Fix, ok bool, err error) {
	if s.rdb == nil {
		return Fix{}, false, ErrUnavailable
	}
	raw, err := s.rdb.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Fix{}, false, nil
	}
	if err != nil {
		return Fix{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(raw, &fix); err != nil {
		return Fix{}, false, fmt.Errorf("decode position: %w", err)
	}
	if !fix.Point.Valid() {
		return Fix{}, false, nil
	}
	return fix, true, nil
}

// Clear forgets the user's position, as when location permission is revoked.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if s.rdb == nil {
		return ErrUnavailable
	}
	if err := s.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
