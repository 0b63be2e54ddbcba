package storage

import (
	"context"
	"errors"
	"time"

	"backend-nextquest/internal/logging"
	"backend-nextquest/internal/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrStoreUnavailable is returned while the breaker is open.
var ErrStoreUnavailable = errors.New("blob store unavailable, try again later")

// BreakerStore guards writes to a BlobStore with a circuit breaker so a dead
// store fails fast instead of holding every upload until it times out.
type BreakerStore struct {
	next BlobStore
	cb   *gobreaker.CircuitBreaker[struct{}]
	name string
}

type BreakerSettings struct {
	Name string
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

func NewBreakerStore(next BlobStore, s BreakerSettings) *BreakerStore {
	if s.Name == "" {
		s.Name = "blob-store"
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// Context cancellation is the caller giving up, not the store failing.
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidKey)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &BreakerStore{next: next, cb: cb, name: s.Name}
}

func (b *BreakerStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Put(ctx, key, data)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrStoreUnavailable
	}
	return err
}

// Get bypasses the breaker; reads of existing blobs should keep working
// while writes are shed.
func (b *BreakerStore) Get(ctx context.Context, key string) ([]byte, error) {
	return b.next.Get(ctx, key)
}

// State exposes the breaker state for health reporting.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
