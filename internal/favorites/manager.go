package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"backend-nextquest/internal/logging"
	"backend-nextquest/internal/metrics"
)

var (
	ErrNoUser            = errors.New("favorites require a signed-in user")
	ErrDataUnavailable   = errors.New("favorites could not be loaded")
	ErrRemoteWriteFailed = errors.New("favorites were changed locally but not saved")
)

// DefaultMaxAge bounds how long Ensure trusts a loaded set before reading
// the profile store again.
const DefaultMaxAge = 30 * time.Second

type userState struct {
	// write serializes Toggle and its remote write for one user, so remote
	// writes land in the same order as local changes.
	write sync.Mutex

	set      Set
	loaded   bool
	loadedAt time.Time

	// version increments on every local change; a Load that started at an
	// older version must not overwrite the newer local set.
	version uint64
	// dirty marks a local change whose remote write failed. The store is
	// behind until the next successful write, so it is not read back.
	dirty bool
}

// Manager keeps the favorite set of each signed-in user in memory. Local
// state is authoritative for changes made here; other API instances write
// to the same profile row, so the set is re-read before every toggle and
// whenever it is older than maxAge.
type Manager struct {
	store  ProfileStore
	maxAge time.Duration
	now    func() time.Time

	mu    sync.Mutex
	users map[string]*userState
}

func NewManager(store ProfileStore) *Manager {
	return &Manager{
		store:  store,
		maxAge: DefaultMaxAge,
		now:    time.Now,
		users:  make(map[string]*userState),
	}
}

func (m *Manager) state(userID string) *userState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.users[userID]
	if !ok {
		st = &userState{}
		m.users[userID] = st
	}
	return st
}

// Load replaces the local set of userID with the stored one. A result that
// arrives after Forget, or after a newer local change, is dropped and the
// current local set is returned instead. An unsaved local change also wins.
func (m *Manager) Load(ctx context.Context, userID string) (Set, error) {
	if userID == "" {
		return Set{}, ErrNoUser
	}
	st := m.state(userID)

	m.mu.Lock()
	startVersion := st.version
	m.mu.Unlock()

	ids, err := m.store.LoadFavorites(ctx, userID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("favorites load failed")
		return Set{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users[userID] != st {
		return Set{}, nil
	}
	if st.version == startVersion && !st.dirty {
		st.set = NewSet(ids...)
		st.loaded = true
		st.loadedAt = m.now()
	}
	return st.set, nil
}

// Ensure returns the local set, loading it when this is the first access
// for userID or the loaded copy is older than maxAge. A failed reload of a
// set that was loaded before returns the local copy.
func (m *Manager) Ensure(ctx context.Context, userID string) (Set, error) {
	if userID == "" {
		return Set{}, ErrNoUser
	}
	m.mu.Lock()
	st, ok := m.users[userID]
	if ok && st.loaded && (st.dirty || m.now().Sub(st.loadedAt) < m.maxAge) {
		s := st.set
		m.mu.Unlock()
		return s, nil
	}
	loaded := ok && st.loaded
	m.mu.Unlock()

	set, err := m.Load(ctx, userID)
	if err != nil && loaded {
		return m.Set(userID), nil
	}
	return set, err
}

// Toggle re-reads the stored set, flips spotID and writes the whole set
// back. The returned set is the local state after the flip. When the remote
// write fails the local flip is kept and ErrRemoteWriteFailed is returned
// with it.
func (m *Manager) Toggle(ctx context.Context, userID, spotID string) (Set, bool, error) {
	if userID == "" {
		return Set{}, false, ErrNoUser
	}
	if spotID == "" {
		return Set{}, false, errors.New("spot id is required")
	}
	st := m.state(userID)
	st.write.Lock()
	defer st.write.Unlock()

	m.mu.Lock()
	loaded, dirty := st.loaded, st.dirty
	m.mu.Unlock()
	if !dirty {
		if _, err := m.Load(ctx, userID); err != nil && !loaded {
			return Set{}, false, err
		}
	}

	m.mu.Lock()
	if m.users[userID] != st {
		m.mu.Unlock()
		return Set{}, false, ErrNoUser
	}
	next, member := st.set.Toggle(spotID)
	st.set = next
	st.loaded = true
	st.version++
	m.mu.Unlock()

	result := "removed"
	if member {
		result = "added"
	}
	metrics.FavoriteToggles.WithLabelValues(result).Inc()

	err := m.store.SaveFavorites(ctx, userID, next.IDs())

	m.mu.Lock()
	st.dirty = err != nil
	m.mu.Unlock()

	if err != nil {
		metrics.RecordRemoteWriteFailure("profiles")
		logging.Ctx(ctx).Error().Err(err).
			Str("user_id", userID).
			Str("spot_id", spotID).
			Msg("favorites write failed")
		return next, member, fmt.Errorf("%w: %v", ErrRemoteWriteFailed, err)
	}
	return next, member, nil
}

// Contains reports local membership only. An unloaded user has no favorites.
func (m *Manager) Contains(userID, spotID string) bool {
	return m.Set(userID).Contains(spotID)
}

// Set returns the current local set without touching the store.
func (m *Manager) Set(userID string) Set {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.users[userID]; ok {
		return st.set
	}
	return Set{}
}

// Forget drops everything held for userID, typically on sign-out.
func (m *Manager) Forget(userID string) {
	m.mu.Lock()
	delete(m.users, userID)
	m.mu.Unlock()
}
