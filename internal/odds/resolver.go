// Package odds resolves real-money prices for normalized tips. Each
// request walks a fixed state machine: cache → primary provider →
// fallback provider → unavailable.
package odds

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// ErrUnavailable is the terminal "no stake-able price" outcome. It is a
// valid result, not a failure: callers exclude the tip and move on.
var ErrUnavailable = errors.New("odds unavailable")

// Provider is a single odds source
type Provider interface {
	Name() string
	QueryOdds(ctx context.Context, homeTeam, awayTeam, option string) (float64, error)
}

// Cache is the time-bounded odds cache shared across runs
type Cache interface {
	GetOdds(ctx context.Context, key string) (float64, bool, error)
	SetOdds(ctx context.Context, key string, value float64, ttl time.Duration) error
}

// Config holds resolver tuning knobs
type Config struct {
	CacheTTL   time.Duration // Default: 30m
	MaxRetries int           // Default: 3
	RetryDelay time.Duration // Default: 5s
	Workers    int           // Default: 4
}

// DefaultConfig returns default resolver configuration
func DefaultConfig() *Config {
	return &Config{
		CacheTTL:   30 * time.Minute,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
		Workers:    4,
	}
}

// Resolver finds the best available price for a tip, preferring cached
// values, then the primary provider, then the fallback.
type Resolver struct {
	cache    Cache
	primary  Provider
	fallback Provider
	config   *Config

	// sleep is swapped out in tests to avoid real delays
	sleep func(time.Duration)
}

// NewResolver creates a new odds resolver
func NewResolver(cache Cache, primary, fallback Provider, config *Config) *Resolver {
	if config == nil {
		config = DefaultConfig()
	}

	return &Resolver{
		cache:    cache,
		primary:  primary,
		fallback: fallback,
		config:   config,
		sleep:    time.Sleep,
	}
}

// Resolve returns the best available odds for a tip, or ErrUnavailable
// when no provider can price it.
func (r *Resolver) Resolve(ctx context.Context, homeTeam, awayTeam, option string) (float64, error) {
	key := cacheKey(homeTeam, awayTeam, option)

	// CheckCache
	if r.cache != nil {
		if value, ok, err := r.cache.GetOdds(ctx, key); err == nil && ok {
			return value, nil
		}
	}

	// QueryPrimary
	if r.primary != nil {
		value, err := r.queryWithRetry(ctx, r.primary, homeTeam, awayTeam, option)
		if err == nil {
			r.storeCached(ctx, key, value)
			return value, nil
		}
		log.Printf("  ⚠️  %s failed for %s - %s (%s): %v (trying fallback)",
			r.primary.Name(), homeTeam, awayTeam, option, err)
	}

	// QueryFallback
	if r.fallback != nil {
		value, err := r.queryWithRetry(ctx, r.fallback, homeTeam, awayTeam, option)
		if err == nil {
			r.storeCached(ctx, key, value)
			return value, nil
		}
		log.Printf("  ⚠️  %s failed for %s - %s (%s): %v",
			r.fallback.Name(), homeTeam, awayTeam, option, err)
	}

	return 0, ErrUnavailable
}

// ResolveAll resolves odds for many tips of one match concurrently with a
// bounded worker pool. Tips whose resolution fails or is cut short by ctx
// cancellation are absent from the result; callers treat missing entries
// as unavailable.
func (r *Resolver) ResolveAll(ctx context.Context, homeTeam, awayTeam string, options []string) map[string]float64 {
	results := make(map[string]float64, len(options))

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.config.Workers)

	for _, option := range options {
		select {
		case <-ctx.Done():
			// Budget exhausted: proceed with whatever already has a price.
			wg.Wait()
			return results
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(option string) {
			defer wg.Done()
			defer func() { <-sem }()

			value, err := r.Resolve(ctx, homeTeam, awayTeam, option)
			if err != nil {
				return
			}

			mu.Lock()
			results[option] = value
			mu.Unlock()
		}(option)
	}

	wg.Wait()
	return results
}

// queryWithRetry wraps a provider call in the bounded retry policy.
// Retries are sequential with a fixed delay.
func (r *Resolver) queryWithRetry(ctx context.Context, provider Provider, homeTeam, awayTeam, option string) (float64, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		value, err := provider.QueryOdds(ctx, homeTeam, awayTeam, option)
		if err == nil {
			if value < 1.0 {
				return 0, fmt.Errorf("%s returned implausible odds %v", provider.Name(), value)
			}
			return value, nil
		}

		lastErr = err
		if attempt < r.config.MaxRetries {
			r.sleep(r.config.RetryDelay)
		}
	}

	return 0, fmt.Errorf("failed after %d attempts: %w", r.config.MaxRetries, lastErr)
}

func (r *Resolver) storeCached(ctx context.Context, key string, value float64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetOdds(ctx, key, value, r.config.CacheTTL); err != nil {
		log.Printf("  ⚠️  Failed to cache odds for %s: %v", key, err)
	}
}

// cacheKey builds the cache lookup key for a (teams, option) triple.
func cacheKey(homeTeam, awayTeam, option string) string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return fmt.Sprintf("odds:%s|%s|%s", norm(homeTeam), norm(awayTeam), option)
}
