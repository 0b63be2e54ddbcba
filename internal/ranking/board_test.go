package ranking

import (
	"sync"
	"testing"
)

func TestRatingBoardDropsStaleApply(t *testing.T) {
	b := NewRatingBoard()
	slow := b.Begin()
	fast := b.Begin()

	if !b.Apply(fast, map[string]Rating{"a": {Mean: 5, Count: 1}}) {
		t.Fatalf("newer generation must apply")
	}
	if b.Apply(slow, map[string]Rating{"a": {Mean: 1, Count: 1}}) {
		t.Fatalf("older generation must be rejected")
	}
	if got := b.Get("a"); got.Mean != 5 {
		t.Fatalf("stale result overwrote newer one: %+v", got)
	}
	if b.Generation() != fast {
		t.Fatalf("generation = %d, want %d", b.Generation(), fast)
	}
}

func TestRatingBoardMerge(t *testing.T) {
	b := NewRatingBoard()
	full := b.Begin()
	b.Apply(full, map[string]Rating{"a": {Mean: 3, Count: 2}, "b": {Mean: 2, Count: 1}})

	older := b.Begin()
	newer := b.Begin()
	if !b.Merge(newer, "a", Rating{Mean: 4, Count: 3}) {
		t.Fatalf("merge must apply")
	}
	if b.Merge(older, "a", Rating{Mean: 1, Count: 1}) {
		t.Fatalf("older per-spot result must be rejected")
	}
	if !b.Merge(older, "b", Unrated) {
		t.Fatalf("older generation for a different spot still applies")
	}

	snap := b.Snapshot()
	if snap["a"].Mean != 4 {
		t.Fatalf("unexpected a: %+v", snap["a"])
	}
	if _, ok := snap["b"]; ok {
		t.Fatalf("unrated merge must drop the entry")
	}
	if b.Get("missing") != Unrated {
		t.Fatalf("unknown spot must be unrated")
	}

	snap["a"] = Unrated
	if !b.Get("a").Rated() {
		t.Fatalf("snapshot must be a copy")
	}
}

func TestRatingBoardMergeOlderThanSnapshot(t *testing.T) {
	b := NewRatingBoard()
	stale := b.Begin()
	full := b.Begin()
	b.Apply(full, map[string]Rating{})
	if b.Merge(stale, "a", Rating{Mean: 2, Count: 1}) {
		t.Fatalf("merge older than the applied snapshot must be rejected")
	}
}

func TestRatingBoardConcurrentApply(t *testing.T) {
	b := NewRatingBoard()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gen := b.Begin()
			b.Apply(gen, map[string]Rating{"a": {Mean: float64(gen), Count: 1}})
		}()
	}
	wg.Wait()
	if got := b.Get("a").Mean; got != float64(b.Generation()) {
		t.Fatalf("snapshot %v does not match last applied generation %d", got, b.Generation())
	}
}

func TestRatingBoardApplyKeepsNewerMerge(t *testing.T) {
	b := NewRatingBoard()
	full := b.Begin()
	write := b.Begin()

	if !b.Merge(write, "a", Rating{Mean: 5, Count: 2}) {
		t.Fatalf("merge must apply")
	}
	if !b.Apply(full, map[string]Rating{"a": {Mean: 1, Count: 1}, "b": {Mean: 3, Count: 1}}) {
		t.Fatalf("full snapshot is newer than the last applied one")
	}
	if got := b.Get("a"); got != (Rating{Mean: 5, Count: 2}) {
		t.Fatalf("older batch overwrote newer merge: %+v", got)
	}
	if got := b.Get("b"); got.Mean != 3 {
		t.Fatalf("untouched spot should take the batch value, got %+v", got)
	}

	// A later merge of a's old generation must still be rejected.
	if b.Merge(full, "a", Rating{Mean: 1, Count: 1}) {
		t.Fatalf("per-spot generation must not move backwards")
	}
}

func TestRatingBoardApplyCarriesMergedSpotMissingFromBatch(t *testing.T) {
	b := NewRatingBoard()
	full := b.Begin()
	write := b.Begin()

	b.Merge(write, "new", Rating{Mean: 4, Count: 1})
	b.Apply(full, map[string]Rating{"a": {Mean: 2, Count: 1}})

	if got := b.Get("new"); got.Mean != 4 {
		t.Fatalf("merged spot absent from the batch was dropped: %+v", got)
	}
	if _, ok := b.Snapshot()["a"]; !ok {
		t.Fatalf("batch entries must still apply")
	}
}

func TestRatingBoardApplyKeepsNewerUnratedMerge(t *testing.T) {
	b := NewRatingBoard()
	seed := b.Begin()
	b.Apply(seed, map[string]Rating{"a": {Mean: 4, Count: 1}})

	full := b.Begin()
	write := b.Begin()
	b.Merge(write, "a", Unrated)
	b.Apply(full, map[string]Rating{"a": {Mean: 4, Count: 1}})

	if b.Get("a").Rated() {
		t.Fatalf("last review deleted after the batch began; spot must stay unrated")
	}
}
