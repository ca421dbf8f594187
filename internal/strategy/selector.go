// Package strategy decides which tip, if any, is worth a real-money bet
// and how much to stake on it.
package strategy

import (
	"fmt"

	"github.com/Swai-D/bet-bot-sub000/internal/store"
)

// Confidence thresholds and their numeric cutoffs on the 0-10 scale.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

var confidenceCutoffs = map[string]float64{
	ConfidenceHigh:   8,
	ConfidenceMedium: 6,
	ConfidenceLow:    4,
}

// StakingPolicy holds the configurable bounds and stake parameters.
type StakingPolicy struct {
	MinOdds             float64         `yaml:"min_odds"`
	MaxOdds             float64         `yaml:"max_odds"`
	BaseStake           float64         `yaml:"base_stake"`
	ConfidenceThreshold string          `yaml:"confidence_threshold"`
	EnabledTipTypes     map[string]bool `yaml:"enabled_tip_types"`
}

// DefaultPolicy returns the default staking policy
func DefaultPolicy() StakingPolicy {
	return StakingPolicy{
		MinOdds:             1.5,
		MaxOdds:             3.0,
		BaseStake:           1000,
		ConfidenceThreshold: ConfidenceMedium,
		EnabledTipTypes: map[string]bool{
			store.OptionHomeWin: true,
			store.OptionDraw:    true,
			store.OptionAwayWin: true,
			store.OptionOver25:  true,
		},
	}
}

// Validate rejects inconsistent policies before any run starts.
func (p StakingPolicy) Validate() error {
	if p.MinOdds >= p.MaxOdds {
		return fmt.Errorf("max odds (%v) must exceed min odds (%v)", p.MaxOdds, p.MinOdds)
	}
	if p.MinOdds < 1.0 {
		return fmt.Errorf("min odds (%v) below 1.0", p.MinOdds)
	}
	if p.BaseStake <= 0 {
		return fmt.Errorf("base stake (%v) must be positive", p.BaseStake)
	}
	if _, ok := confidenceCutoffs[p.ConfidenceThreshold]; !ok {
		return fmt.Errorf("unknown confidence threshold %q", p.ConfidenceThreshold)
	}
	return nil
}

// ConfidenceCutoff returns the numeric score a match must reach before
// its tips are considered.
func (p StakingPolicy) ConfidenceCutoff() float64 {
	return confidenceCutoffs[p.ConfidenceThreshold]
}

// enabled reports whether the policy allows betting on a tip type. Tip
// types absent from the map default to enabled.
func (p StakingPolicy) enabled(option string) bool {
	if p.EnabledTipTypes == nil {
		return true
	}
	v, ok := p.EnabledTipTypes[option]
	if !ok {
		return true
	}
	return v
}

// Selection is the decision handed to the bet placement collaborator.
// Not persisted by the pipeline itself.
type Selection struct {
	Tip             store.Tip
	Stake           float64
	ConfidenceScore float64
}

// Select filters candidate tips against the policy and picks the single
// best-value one. Returns nil when nothing survives filtering — that is
// "no eligible bet this cycle", not an error.
func Select(candidates []store.Tip, matchScore float64, policy StakingPolicy) *Selection {
	var best *store.Tip
	bestValue := 0.0

	for i := range candidates {
		tip := &candidates[i]

		if !policy.enabled(tip.Option) {
			continue
		}
		if !tip.Available() {
			continue
		}
		if tip.Odd < policy.MinOdds || tip.Odd > policy.MaxOdds {
			continue
		}

		// Value favors higher odds, with a boost once a tip clears 2.0.
		value := tip.Odd * 0.5
		if tip.Odd >= 2.0 {
			value *= 1.2
		}

		// Strict comparison keeps the first occurrence on exact ties.
		if best == nil || value > bestValue {
			best = tip
			bestValue = value
		}
	}

	if best == nil {
		return nil
	}

	return &Selection{
		Tip:             *best,
		Stake:           stakeFor(best.Odd, policy.BaseStake),
		ConfidenceScore: clampScore(matchScore),
	}
}

// stakeFor scales the base stake down for riskier, higher-odds picks.
func stakeFor(odd, baseStake float64) float64 {
	switch {
	case odd >= 3.0:
		return baseStake * 0.5
	case odd >= 2.0:
		return baseStake * 0.75
	default:
		return baseStake
	}
}

// clampScore maps a raw match score onto the 0-10 confidence scale.
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
