package oddsportal

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// Odds lookups run on a worker pool, so request pacing must hold up
// under concurrency: each caller gets its own slot one interval after
// the previous one, instead of every caller observing the same stale
// timestamp and going out at once.
func TestWaitTurnSpacesConcurrentRequests(t *testing.T) {
	interval := 20 * time.Millisecond
	p := &Provider{interval: interval}

	const callers = 4
	times := make([]time.Time, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.waitTurn()
			times[i] = time.Now()
		}(i)
	}
	wg.Wait()

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	// Allow a little scheduler slack; a burst would show near-zero gaps.
	minGap := interval / 2
	for i := 1; i < callers; i++ {
		if gap := times[i].Sub(times[i-1]); gap < minGap {
			t.Errorf("callers %d and %d only %v apart, want at least %v", i-1, i, gap, minGap)
		}
	}
}

func TestWaitTurnFirstRequestDoesNotWait(t *testing.T) {
	p := &Provider{interval: time.Second}

	start := time.Now()
	p.waitTurn()

	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first request waited %v, want immediate", elapsed)
	}
	if p.lastRequest.IsZero() {
		t.Error("waitTurn must stamp the request time")
	}
}
