// Package placer holds the bet placement boundary. The pipeline decides
// WHAT to bet; this package is the seam where the decision leaves the
// process.
package placer

import (
	"context"
	"log"
)

// DryRun logs each placement decision without submitting it anywhere.
// It is the default placer: wiring a real bookmaker integration means
// swapping this out behind the scheduler's Placer interface.
type DryRun struct{}

// NewDryRun creates a logging-only placer
func NewDryRun() *DryRun {
	return &DryRun{}
}

// PlaceBet records the decision and reports it as accepted.
func (d *DryRun) PlaceBet(ctx context.Context, matchKey, option string, stake float64) (bool, error) {
	log.Printf("→ [dry-run] Would place bet: %s option=%s stake=%.0f", matchKey, option, stake)
	return true, nil
}
