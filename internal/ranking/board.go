package ranking

import (
	"sync"
	"sync/atomic"
)

// RatingBoard keeps the latest aggregated ratings for all spots.
//
// Every refresh takes a generation from Begin before it starts fetching.
// Results are applied only when their generation is newer than what the
// board already holds, so a slow fetch that finishes after a newer one
// cannot overwrite it.
type RatingBoard struct {
	issued atomic.Uint64

	mu       sync.RWMutex
	applied  uint64
	perSpot  map[string]uint64
	snapshot map[string]Rating
}

func NewRatingBoard() *RatingBoard {
	return &RatingBoard{
		perSpot:  map[string]uint64{},
		snapshot: map[string]Rating{},
	}
}

// Begin reserves the generation for a new refresh.
func (b *RatingBoard) Begin() uint64 {
	return b.issued.Add(1)
}

// Apply replaces the whole snapshot with ratings fetched under gen, except
// for spots whose per-spot entry is newer than gen. It returns false when
// gen is older than the last applied snapshot.
func (b *RatingBoard) Apply(gen uint64, ratings map[string]Rating) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen <= b.applied {
		return false
	}
	next := make(map[string]Rating, len(ratings))
	for id, r := range ratings {
		if b.perSpot[id] > gen {
			continue
		}
		next[id] = r
		b.perSpot[id] = gen
	}
	// Spots merged after this refresh began keep their newer entry, even
	// when the batch has nothing for them.
	for id, g := range b.perSpot {
		if g <= gen {
			continue
		}
		if r, ok := b.snapshot[id]; ok {
			next[id] = r
		} else {
			delete(next, id)
		}
	}
	b.applied = gen
	b.snapshot = next
	return true
}

// Merge applies a single spot's rating fetched under gen. A spot's entry
// only moves forward in generation.
func (b *RatingBoard) Merge(gen uint64, spotID string, r Rating) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen < b.applied || gen <= b.perSpot[spotID] {
		return false
	}
	b.perSpot[spotID] = gen
	if r.Rated() {
		b.snapshot[spotID] = r
	} else {
		delete(b.snapshot, spotID)
	}
	return true
}

// Get returns the rating for spotID, Unrated when unknown.
func (b *RatingBoard) Get(spotID string) Rating {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot[spotID]
}

// Snapshot returns a copy of every known rating.
func (b *RatingBoard) Snapshot() map[string]Rating {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Rating, len(b.snapshot))
	for id, r := range b.snapshot {
		out[id] = r
	}
	return out
}

// Generation is the generation of the last applied full snapshot.
func (b *RatingBoard) Generation() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.applied
}
