// Package scheduler sequences the prediction pipeline: fetch → parse →
// score → persist → resolve odds → select → place bet. One run executes
// at a time; overlapping invocations are skipped.
package scheduler

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Swai-D/bet-bot-sub000/internal/ingest/adibet"
	"github.com/Swai-D/bet-bot-sub000/internal/scoring"
	"github.com/Swai-D/bet-bot-sub000/internal/store"
	"github.com/Swai-D/bet-bot-sub000/internal/strategy"
)

// Fetcher retrieves the raw predictions markup
type Fetcher interface {
	FetchPredictions(ctx context.Context) (string, error)
}

// PredictionStore persists predictions keyed by match identity
type PredictionStore interface {
	Upsert(ctx context.Context, p *store.Prediction) error
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// BetStore records placed bets
type BetStore interface {
	Insert(ctx context.Context, bet *store.Bet) error
}

// OddsService resolves prices for a match's tips
type OddsService interface {
	ResolveAll(ctx context.Context, homeTeam, awayTeam string, options []string) map[string]float64
}

// RunFlags is the process-wide automation state, read at the top of each
// run and written only by the orchestrator.
type RunFlags interface {
	AutomationEnabled(ctx context.Context) (bool, error)
	BetsPlacedToday(ctx context.Context) (int, error)
	IncrementBetsPlaced(ctx context.Context) error
}

// Placer is the external bet placement capability
type Placer interface {
	PlaceBet(ctx context.Context, matchKey, option string, stake float64) (bool, error)
}

// RunListener observes completed runs (notifications, broadcasts)
type RunListener interface {
	OnRunComplete(ctx context.Context, summary RunSummary)
}

// RunSummary aggregates one run's outcome for observability.
type RunSummary struct {
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Saved      int           `json:"saved"`
	Skipped    int           `json:"skipped"`
	Errors     int           `json:"errors"`
	NoEligible bool          `json:"no_eligible"`
	BetPlaced  bool          `json:"bet_placed"`
	BetMatch   string        `json:"bet_match,omitempty"`
	BetOption  string        `json:"bet_option,omitempty"`
	BetStake   float64       `json:"bet_stake,omitempty"`
}

// Config holds orchestrator tuning
type Config struct {
	RunInterval  time.Duration // Default: 1h
	RunBudget    time.Duration // Default: 10m, bounds odds resolution
	MaxRetries   int           // Default: 3
	RetryDelay   time.Duration // Default: 5s
	DailyBetCap  int           // Default: 0 (unbounded)
	RetentionAge time.Duration // Default: 30 days
	Policy       strategy.StakingPolicy
}

// DefaultConfig returns default orchestrator configuration
func DefaultConfig() *Config {
	return &Config{
		RunInterval:  time.Hour,
		RunBudget:    10 * time.Minute,
		MaxRetries:   3,
		RetryDelay:   5 * time.Second,
		DailyBetCap:  0,
		RetentionAge: 30 * 24 * time.Hour,
		Policy:       strategy.DefaultPolicy(),
	}
}

// Orchestrator drives scheduled pipeline runs
type Orchestrator struct {
	fetcher     Fetcher
	predictions PredictionStore
	bets        BetStore
	odds        OddsService
	flags       RunFlags
	placer      Placer
	listeners   []RunListener
	config      *Config

	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	last    *RunSummary

	// sleep and now are swapped out in tests
	sleep func(time.Duration)
	now   func() time.Time
}

// NewOrchestrator creates a new pipeline orchestrator
func NewOrchestrator(fetcher Fetcher, predictions PredictionStore, bets BetStore,
	odds OddsService, flags RunFlags, placer Placer, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Orchestrator{
		fetcher:     fetcher,
		predictions: predictions,
		bets:        bets,
		odds:        odds,
		flags:       flags,
		placer:      placer,
		config:      config,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// AddListener registers a run observer
func (o *Orchestrator) AddListener(l RunListener) {
	o.listeners = append(o.listeners, l)
}

// Start runs the pipeline on a fixed interval until ctx is canceled.
func (o *Orchestrator) Start(ctx context.Context) {
	log.Printf("Pipeline orchestrator started (interval: %v)", o.config.RunInterval)

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	ticker := time.NewTicker(o.config.RunInterval)
	defer ticker.Stop()

	// Run immediately on start
	o.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Pipeline orchestrator stopped")
			return
		case <-ticker.C:
			o.RunOnce(ctx)
		}
	}
}

// Stop cancels the run loop
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
}

// LastSummary returns the most recent run summary, or nil before the
// first run completes.
func (o *Orchestrator) LastSummary() *RunSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return nil
	}
	copied := *o.last
	return &copied
}

// RunOnce executes one full pipeline run. Concurrent invocations are
// rejected so two runs never race on the same upsert key.
func (o *Orchestrator) RunOnce(ctx context.Context) RunSummary {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		log.Println("⊘ Run already in progress, skipping")
		return RunSummary{StartedAt: o.now(), Skipped: 1}
	}
	o.running = true
	o.mu.Unlock()

	summary := o.run(ctx)

	o.mu.Lock()
	o.running = false
	o.last = &summary
	o.mu.Unlock()

	for _, l := range o.listeners {
		l.OnRunComplete(ctx, summary)
	}

	return summary
}

func (o *Orchestrator) run(ctx context.Context) RunSummary {
	start := o.now()
	summary := RunSummary{StartedAt: start}
	defer func() {
		log.Printf("✓ Run complete in %v: saved=%d skipped=%d errors=%d",
			o.now().Sub(start).Round(time.Millisecond), summary.Saved, summary.Skipped, summary.Errors)
	}()

	// Global flags are read once, at the top of the run.
	enabled, err := o.flags.AutomationEnabled(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to read automation flag: %v", err)
		enabled = false
	}
	if !enabled {
		log.Println("⊘ Automation disabled, skipping run")
		summary.Skipped++
		summary.Duration = o.now().Sub(start)
		return summary
	}

	if o.config.DailyBetCap > 0 {
		placed, err := o.flags.BetsPlacedToday(ctx)
		if err != nil {
			log.Printf("⚠️  Failed to read bet counter: %v", err)
		} else if placed >= o.config.DailyBetCap {
			log.Printf("⊘ Daily bet cap reached (%d/%d), skipping run", placed, o.config.DailyBetCap)
			summary.Skipped++
			summary.Duration = o.now().Sub(start)
			return summary
		}
	}

	// Fetching
	markup, err := o.fetchWithRetry(ctx)
	if err != nil {
		// The one whole-run failure mode: no data this cycle.
		log.Printf("❌ Fetch failed after %d attempts: %v (no data this cycle)", o.config.MaxRetries, err)
		summary.NoEligible = true
		summary.Errors++
		summary.Duration = o.now().Sub(start)
		return summary
	}

	// Parsing + Scoring. Rows the parser drops are counted, not lost.
	records, rowsSkipped := adibet.Parse(markup, o.now())
	summary.Skipped += rowsSkipped
	if len(records) == 0 {
		log.Println("⚠️  No prediction rows parsed this cycle")
		summary.NoEligible = true
		summary.Duration = o.now().Sub(start)
		return summary
	}
	log.Printf("→ Parsed %d prediction rows (%d skipped)", len(records), rowsSkipped)

	// Persisting: one failure counts an error and the batch continues.
	predictions := make([]*store.Prediction, 0, len(records))
	for _, record := range records {
		p := buildPrediction(record)
		if len(p.Tips) == 0 {
			// The site marked nothing on this row; there is no
			// prediction to store.
			summary.Skipped++
			continue
		}
		if err := o.predictions.Upsert(ctx, p); err != nil {
			log.Printf("  ⚠️  Failed to save %s: %v", p.MatchKey, err)
			summary.Errors++
			continue
		}
		summary.Saved++
		predictions = append(predictions, p)
	}

	// OddsResolving + Selecting, bounded by the run budget.
	selection, chosen := o.selectBet(ctx, predictions)
	if selection == nil {
		log.Println("→ No eligible matches this cycle")
		summary.NoEligible = true
	} else {
		o.placeBet(ctx, chosen, selection, &summary)
	}

	// Retention sweep
	if o.config.RetentionAge > 0 {
		if deleted, err := o.predictions.DeleteOlderThan(ctx, o.config.RetentionAge); err != nil {
			log.Printf("⚠️  Retention sweep failed: %v", err)
		} else if deleted > 0 {
			log.Printf("→ Retention sweep removed %d stale predictions", deleted)
		}
	}

	summary.Duration = o.now().Sub(start)
	return summary
}

// fetchWithRetry fetches markup with the bounded retry policy.
func (o *Orchestrator) fetchWithRetry(ctx context.Context) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		markup, err := o.fetcher.FetchPredictions(ctx)
		if err == nil {
			return markup, nil
		}

		lastErr = err
		log.Printf("  ⚠️  Fetch attempt %d/%d failed: %v", attempt, o.config.MaxRetries, err)
		if attempt < o.config.MaxRetries {
			o.sleep(o.config.RetryDelay)
		}
	}

	return "", lastErr
}

// selectBet resolves odds for the highest-scored matches and picks the
// first one yielding an eligible selection. Matches below the confidence
// cutoff are never priced.
func (o *Orchestrator) selectBet(ctx context.Context, predictions []*store.Prediction) (*strategy.Selection, *store.Prediction) {
	cutoff := o.config.Policy.ConfidenceCutoff()

	// Stable sort: equal scores keep discovery order.
	ranked := make([]*store.Prediction, len(predictions))
	copy(ranked, predictions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	budgetCtx, cancel := context.WithTimeout(ctx, o.config.RunBudget)
	defer cancel()

	for _, p := range ranked {
		if p.Score < cutoff {
			break // ranked by score, nothing below the cutoff qualifies
		}

		options := make([]string, len(p.Tips))
		for i, tip := range p.Tips {
			options[i] = tip.Option
		}

		resolved := o.odds.ResolveAll(budgetCtx, p.HomeTeam, p.AwayTeam, options)

		candidates := make([]store.Tip, len(p.Tips))
		copy(candidates, p.Tips)
		for i := range candidates {
			if value, ok := resolved[candidates[i].Option]; ok {
				candidates[i].Odd = value
			}
		}
		p.Tips = candidates

		if sel := strategy.Select(candidates, p.Score, o.config.Policy); sel != nil {
			return sel, p
		}

		if budgetCtx.Err() != nil {
			// Budget exhausted: work with what we have, which is nothing
			// more for the remaining matches.
			log.Println("⚠️  Run budget exhausted during odds resolution")
			return nil, nil
		}
	}

	return nil, nil
}

// placeBet hands the selection to the placement collaborator and records
// the outcome.
func (o *Orchestrator) placeBet(ctx context.Context, p *store.Prediction, sel *strategy.Selection, summary *RunSummary) {
	log.Printf("→ Selected %s (%s) at %.2f, stake %.0f",
		p.MatchKey, sel.Tip.Option, sel.Tip.Odd, sel.Stake)

	ok, err := o.placer.PlaceBet(ctx, p.MatchKey, sel.Tip.Option, sel.Stake)
	if err != nil {
		log.Printf("❌ Bet placement failed: %v", err)
		summary.Errors++
		return
	}
	if !ok {
		log.Println("⚠️  Bet placement declined")
		return
	}

	summary.BetPlaced = true
	summary.BetMatch = p.MatchKey
	summary.BetOption = sel.Tip.Option
	summary.BetStake = sel.Stake

	if err := o.bets.Insert(ctx, &store.Bet{
		MatchKey: p.MatchKey,
		Option:   sel.Tip.Option,
		Odd:      sel.Tip.Odd,
		Stake:    sel.Stake,
	}); err != nil {
		log.Printf("⚠️  Failed to record bet: %v", err)
		summary.Errors++
	}

	if err := o.flags.IncrementBetsPlaced(ctx); err != nil {
		log.Printf("⚠️  Failed to bump bet counter: %v", err)
	}

	// Mark the chosen tip and overwrite the stored prediction in place.
	for i := range p.Tips {
		if p.Tips[i].Option == sel.Tip.Option {
			p.Tips[i].Status = store.TipSelected
			p.Tips[i].Odd = sel.Tip.Odd
		}
	}
	if err := o.predictions.Upsert(ctx, p); err != nil {
		log.Printf("⚠️  Failed to update prediction after bet: %v", err)
		summary.Errors++
	}
}

// buildPrediction converts a parsed row into the persisted aggregate.
// Only highlighted tips are the site's selections; unmarked codes in
// the row are decoration and never stored.
func buildPrediction(record adibet.MatchRecord) *store.Prediction {
	tips := make([]store.Tip, 0, record.HighlightedCount())
	for _, mark := range record.Tips {
		if !mark.Highlighted {
			continue
		}
		tips = append(tips, store.Tip{
			Option: mark.Option,
			Odd:    store.OddUnavailable,
			Status: store.TipNotSelected,
		})
	}

	return &store.Prediction{
		MatchKey:  record.Key(),
		Country:   record.Country,
		League:    store.DefaultLeague,
		HomeTeam:  record.HomeTeam,
		AwayTeam:  record.AwayTeam,
		MatchDate: record.Date,
		Score:     scoring.Score(record.Country, record.HomeTeam, record.AwayTeam, record.HighlightedCount()),
		Tips:      tips,
	}
}
