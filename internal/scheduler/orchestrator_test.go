package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Swai-D/bet-bot-sub000/internal/store"
	"github.com/Swai-D/bet-bot-sub000/internal/strategy"
)

const fixtureMarkup = `<table>
<tr><td colspan="8">14.03.2026</td></tr>
<tr>
  <td>England</td>
  <td>Arsenal - Tottenham</td>
  <td bgcolor="#01DF01">1</td><td bgcolor="#01DF01">1.85</td>
  <td bgcolor="#01DF01">Over 2.5 goals</td><td bgcolor="#01DF01">1.70</td>
</tr>
</table>`

type fakeFetcher struct {
	markup   string
	err      error
	failures int // fail this many times before succeeding
	calls    int
}

func (f *fakeFetcher) FetchPredictions(ctx context.Context) (string, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return "", errors.New("site unreachable")
	}
	if f.err != nil {
		return "", f.err
	}
	return f.markup, nil
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*store.Prediction
	upserts int
	failKey string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*store.Prediction)}
}

func (s *fakeStore) Upsert(ctx context.Context, p *store.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.failKey != "" && p.MatchKey == s.failKey {
		return errors.New("constraint violation")
	}
	copied := *p
	s.records[p.MatchKey] = &copied
	return nil
}

func (s *fakeStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return 0, nil
}

type fakeBets struct {
	bets []*store.Bet
}

func (b *fakeBets) Insert(ctx context.Context, bet *store.Bet) error {
	b.bets = append(b.bets, bet)
	return nil
}

type fakeOdds struct {
	prices map[string]float64
}

func (o *fakeOdds) ResolveAll(ctx context.Context, home, away string, options []string) map[string]float64 {
	results := make(map[string]float64)
	for _, option := range options {
		if v, ok := o.prices[option]; ok {
			results[option] = v
		}
	}
	return results
}

type fakeFlags struct {
	enabled   bool
	placed    int
	increment int
}

func (f *fakeFlags) AutomationEnabled(ctx context.Context) (bool, error) { return f.enabled, nil }
func (f *fakeFlags) BetsPlacedToday(ctx context.Context) (int, error)    { return f.placed, nil }
func (f *fakeFlags) IncrementBetsPlaced(ctx context.Context) error {
	f.increment++
	return nil
}

type fakePlacer struct {
	ok    bool
	err   error
	calls int
}

func (p *fakePlacer) PlaceBet(ctx context.Context, matchKey, option string, stake float64) (bool, error) {
	p.calls++
	return p.ok, p.err
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.Policy.ConfidenceThreshold = strategy.ConfidenceMedium
	return cfg
}

func newTestOrchestrator(fetcher Fetcher, predictions PredictionStore, bets BetStore,
	odds OddsService, flags RunFlags, placer Placer, cfg *Config) *Orchestrator {
	o := NewOrchestrator(fetcher, predictions, bets, odds, flags, placer, cfg)
	o.sleep = func(time.Duration) {}
	o.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return o
}

func TestRunOncePipeline(t *testing.T) {
	fetcher := &fakeFetcher{markup: fixtureMarkup}
	predictions := newFakeStore()
	bets := &fakeBets{}
	odds := &fakeOdds{prices: map[string]float64{"1": 2.2, "+2.5": 1.7}}
	flags := &fakeFlags{enabled: true}
	placer := &fakePlacer{ok: true}

	o := newTestOrchestrator(fetcher, predictions, bets, odds, flags, placer, testConfig())
	summary := o.RunOnce(context.Background())

	if summary.Saved != 1 || summary.Errors != 0 {
		t.Fatalf("summary = %+v, want 1 saved, 0 errors", summary)
	}

	// Arsenal - Tottenham in England scores 5 + 2 + 1 = 8, above the
	// medium cutoff, so odds are resolved and a bet placed.
	if !summary.BetPlaced {
		t.Fatal("expected a bet to be placed")
	}
	if summary.BetOption != "1" {
		t.Errorf("bet option = %q, want 1 (2.2 beats 1.7 on value)", summary.BetOption)
	}
	if summary.BetStake != 750 {
		t.Errorf("stake = %v, want 750 (base 1000 × 0.75 at odds 2.2)", summary.BetStake)
	}
	if len(bets.bets) != 1 {
		t.Errorf("recorded %d bets, want 1", len(bets.bets))
	}
	if flags.increment != 1 {
		t.Errorf("bet counter bumped %d times, want 1", flags.increment)
	}

	// The chosen tip is marked selected in the stored prediction.
	p := predictions.records["arsenal-vs-tottenham-2026-03-14"]
	if p == nil {
		t.Fatal("prediction not stored under expected key")
	}
	if p.Tips[0].Status != store.TipSelected {
		t.Errorf("chosen tip status = %q, want selected", p.Tips[0].Status)
	}
	if p.Score != 8 {
		t.Errorf("stored score = %v, want 8", p.Score)
	}
}

func TestRunSkippedWhenAutomationDisabled(t *testing.T) {
	fetcher := &fakeFetcher{markup: fixtureMarkup}
	o := newTestOrchestrator(fetcher, newFakeStore(), &fakeBets{}, &fakeOdds{},
		&fakeFlags{enabled: false}, &fakePlacer{}, testConfig())

	summary := o.RunOnce(context.Background())
	if summary.Skipped != 1 || summary.Saved != 0 {
		t.Errorf("summary = %+v, want skipped run", summary)
	}
	if fetcher.calls != 0 {
		t.Error("disabled run must not fetch")
	}
}

func TestRunSkippedWhenCapReached(t *testing.T) {
	cfg := testConfig()
	cfg.DailyBetCap = 2

	fetcher := &fakeFetcher{markup: fixtureMarkup}
	o := newTestOrchestrator(fetcher, newFakeStore(), &fakeBets{}, &fakeOdds{},
		&fakeFlags{enabled: true, placed: 2}, &fakePlacer{}, cfg)

	summary := o.RunOnce(context.Background())
	if summary.Skipped != 1 {
		t.Errorf("summary = %+v, want skipped run", summary)
	}
	if fetcher.calls != 0 {
		t.Error("capped run must not fetch")
	}
}

func TestRunFetchFailureIsNoData(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("site down")}
	o := newTestOrchestrator(fetcher, newFakeStore(), &fakeBets{}, &fakeOdds{},
		&fakeFlags{enabled: true}, &fakePlacer{}, testConfig())

	summary := o.RunOnce(context.Background())
	if !summary.NoEligible {
		t.Error("fetch failure must surface as no data this cycle")
	}
	if fetcher.calls != 3 {
		t.Errorf("fetch attempted %d times, want 3", fetcher.calls)
	}
}

func TestRunFetchRetrySucceeds(t *testing.T) {
	fetcher := &fakeFetcher{markup: fixtureMarkup, failures: 2}
	o := newTestOrchestrator(fetcher, newFakeStore(), &fakeBets{},
		&fakeOdds{prices: map[string]float64{"1": 2.2}},
		&fakeFlags{enabled: true}, &fakePlacer{ok: true}, testConfig())

	summary := o.RunOnce(context.Background())
	if summary.Saved != 1 {
		t.Errorf("summary = %+v, want successful run after retries", summary)
	}
	if fetcher.calls != 3 {
		t.Errorf("fetch attempted %d times, want 3", fetcher.calls)
	}
}

func TestRunPersistErrorContinuesBatch(t *testing.T) {
	markup := `<table>
<tr><td colspan="8">14.03.2026</td></tr>
<tr><td>England</td><td>Arsenal - Tottenham</td><td bgcolor="#01DF01">1</td><td bgcolor="#01DF01">1.85</td></tr>
<tr><td>Spain</td><td>Girona - Sevilla</td><td bgcolor="#01DF01">2</td><td bgcolor="#01DF01">2.10</td></tr>
</table>`

	predictions := newFakeStore()
	predictions.failKey = "arsenal-vs-tottenham-2026-03-14"

	o := newTestOrchestrator(&fakeFetcher{markup: markup}, predictions, &fakeBets{},
		&fakeOdds{}, &fakeFlags{enabled: true}, &fakePlacer{}, testConfig())

	summary := o.RunOnce(context.Background())
	if summary.Errors != 1 {
		t.Errorf("errors = %d, want 1", summary.Errors)
	}
	if summary.Saved != 1 {
		t.Errorf("saved = %d, want 1 (batch must continue)", summary.Saved)
	}
}

func TestRunNoEligibleBet(t *testing.T) {
	// Odds resolve outside the policy bounds.
	odds := &fakeOdds{prices: map[string]float64{"1": 4.5, "+2.5": 1.1}}

	o := newTestOrchestrator(&fakeFetcher{markup: fixtureMarkup}, newFakeStore(), &fakeBets{},
		odds, &fakeFlags{enabled: true}, &fakePlacer{}, testConfig())

	summary := o.RunOnce(context.Background())
	if !summary.NoEligible {
		t.Error("expected no eligible matches")
	}
	if summary.BetPlaced {
		t.Error("no bet should be placed")
	}
	if summary.Saved != 1 {
		t.Errorf("saved = %d, want 1 (predictions persist regardless)", summary.Saved)
	}
}

func TestRunBelowConfidenceCutoffSkipsOdds(t *testing.T) {
	// An unknown country with one tip scores 0.5, below every cutoff.
	markup := `<table>
<tr><td colspan="8">14.03.2026</td></tr>
<tr><td>Ruritania</td><td>Alpha - Beta</td><td bgcolor="#01DF01">1</td><td bgcolor="#01DF01">1.85</td></tr>
</table>`

	odds := &fakeOdds{prices: map[string]float64{"1": 2.0}}
	placer := &fakePlacer{ok: true}

	o := newTestOrchestrator(&fakeFetcher{markup: markup}, newFakeStore(), &fakeBets{},
		odds, &fakeFlags{enabled: true}, placer, testConfig())

	summary := o.RunOnce(context.Background())
	if !summary.NoEligible {
		t.Error("low-confidence match must yield no eligible bet")
	}
	if placer.calls != 0 {
		t.Error("no placement for low-confidence matches")
	}
}

func TestRunRejectsOverlap(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{markup: fixtureMarkup}, newFakeStore(), &fakeBets{},
		&fakeOdds{}, &fakeFlags{enabled: true}, &fakePlacer{}, testConfig())

	// Simulate an in-flight run.
	o.mu.Lock()
	o.running = true
	o.mu.Unlock()

	summary := o.RunOnce(context.Background())
	if summary.Skipped != 1 {
		t.Errorf("overlapping run must be skipped, got %+v", summary)
	}
}

func TestRunListenerNotified(t *testing.T) {
	var got []RunSummary
	o := newTestOrchestrator(&fakeFetcher{markup: fixtureMarkup}, newFakeStore(), &fakeBets{},
		&fakeOdds{prices: map[string]float64{"1": 2.2}},
		&fakeFlags{enabled: true}, &fakePlacer{ok: true}, testConfig())
	o.AddListener(listenerFunc(func(ctx context.Context, s RunSummary) {
		got = append(got, s)
	}))

	o.RunOnce(context.Background())
	if len(got) != 1 {
		t.Fatalf("listener called %d times, want 1", len(got))
	}
	if got[0].Saved != 1 {
		t.Errorf("listener saw %+v", got[0])
	}
}

type listenerFunc func(context.Context, RunSummary)

func (f listenerFunc) OnRunComplete(ctx context.Context, s RunSummary) { f(ctx, s) }

func TestRunCountsSkippedRows(t *testing.T) {
	// One row is missing its team pair, another carries no marked tip:
	// both surface in the summary's skipped count rather than vanishing.
	markup := `<table>
<tr><td colspan="8">14.03.2026</td></tr>
<tr><td>England</td><td>Arsenal</td><td bgcolor="#01DF01">1</td><td bgcolor="#01DF01">1.85</td></tr>
<tr><td>Italy</td><td>Torino - Genoa</td><td>1</td><td>1.85</td></tr>
<tr><td>Spain</td><td>Girona - Sevilla</td><td bgcolor="#01DF01">2</td><td bgcolor="#01DF01">2.10</td></tr>
</table>`

	o := newTestOrchestrator(&fakeFetcher{markup: markup}, newFakeStore(), &fakeBets{},
		&fakeOdds{}, &fakeFlags{enabled: true}, &fakePlacer{}, testConfig())

	summary := o.RunOnce(context.Background())
	if summary.Skipped != 2 {
		t.Errorf("skipped = %d, want 2 (one malformed row, one without selections)", summary.Skipped)
	}
	if summary.Saved != 1 {
		t.Errorf("saved = %d, want 1", summary.Saved)
	}
	if summary.Errors != 0 {
		t.Errorf("errors = %d, want 0 (skips are not errors)", summary.Errors)
	}
}

func TestRunStoresOnlyHighlightedTips(t *testing.T) {
	// The second tip code lacks dual-cell emphasis, so it is decoration:
	// not stored, not priced, not counted toward tip density.
	markup := `<table>
<tr><td colspan="8">14.03.2026</td></tr>
<tr>
  <td>England</td>
  <td>Arsenal - Tottenham</td>
  <td bgcolor="#01DF01">1</td><td bgcolor="#01DF01">1.85</td>
  <td>Over 2.5 goals</td><td>1.70</td>
</tr>
</table>`

	predictions := newFakeStore()
	odds := &fakeOdds{prices: map[string]float64{"1": 2.2, "+2.5": 1.7}}

	o := newTestOrchestrator(&fakeFetcher{markup: markup}, predictions, &fakeBets{},
		odds, &fakeFlags{enabled: true}, &fakePlacer{ok: true}, testConfig())

	summary := o.RunOnce(context.Background())

	p := predictions.records["arsenal-vs-tottenham-2026-03-14"]
	if p == nil {
		t.Fatal("prediction not stored")
	}
	if len(p.Tips) != 1 || p.Tips[0].Option != "1" {
		t.Fatalf("stored tips = %+v, want only the highlighted '1'", p.Tips)
	}
	if p.Score != 7.5 {
		t.Errorf("score = %v, want 7.5 (5 + 2 + 0.5×1 highlighted tip)", p.Score)
	}
	if summary.BetOption != "1" {
		t.Errorf("bet option = %q, want 1", summary.BetOption)
	}
}

func TestRunUpsertIdempotent(t *testing.T) {
	predictions := newFakeStore()
	o := newTestOrchestrator(&fakeFetcher{markup: fixtureMarkup}, predictions, &fakeBets{},
		&fakeOdds{}, &fakeFlags{enabled: true}, &fakePlacer{}, testConfig())

	o.RunOnce(context.Background())
	o.RunOnce(context.Background())

	if len(predictions.records) != 1 {
		t.Errorf("two runs stored %d records, want 1 (upsert, not duplicate)", len(predictions.records))
	}
}
