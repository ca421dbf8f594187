package strategy

import (
	"testing"

	"github.com/Swai-D/bet-bot-sub000/internal/store"
)

func TestSelectWorkedExample(t *testing.T) {
	// The 1.4 tip falls below min odds, the 3.5 tip above max; the 2.2
	// home win survives and its stake is scaled by 0.75.
	candidates := []store.Tip{
		{Option: "1", Odd: 2.2},
		{Option: "X", Odd: 1.4},
		{Option: "2", Odd: 3.5},
	}

	policy := DefaultPolicy()
	sel := Select(candidates, 7, policy)
	if sel == nil {
		t.Fatal("expected a selection")
	}
	if sel.Tip.Option != "1" || sel.Tip.Odd != 2.2 {
		t.Errorf("selected %+v, want home win at 2.2", sel.Tip)
	}
	if want := policy.BaseStake * 0.75; sel.Stake != want {
		t.Errorf("stake = %v, want %v", sel.Stake, want)
	}
	if sel.ConfidenceScore != 7 {
		t.Errorf("confidence = %v, want 7", sel.ConfidenceScore)
	}
}

func TestSelectNoEligible(t *testing.T) {
	candidates := []store.Tip{
		{Option: "1", Odd: 1.2},
		{Option: "2", Odd: 4.0},
		{Option: "X", Odd: store.OddUnavailable},
	}

	if sel := Select(candidates, 8, DefaultPolicy()); sel != nil {
		t.Errorf("expected nil selection, got %+v", sel)
	}
}

func TestSelectDisabledTipType(t *testing.T) {
	policy := DefaultPolicy()
	policy.EnabledTipTypes["1"] = false

	candidates := []store.Tip{
		{Option: "1", Odd: 2.2},
		{Option: "2", Odd: 1.8},
	}

	sel := Select(candidates, 8, policy)
	if sel == nil || sel.Tip.Option != "2" {
		t.Errorf("disabled type must be skipped, got %+v", sel)
	}
}

func TestSelectValueRanking(t *testing.T) {
	// 1.9 → value 0.95; 2.0 → value 1.2 thanks to the boost.
	candidates := []store.Tip{
		{Option: "1", Odd: 1.9},
		{Option: "2", Odd: 2.0},
	}

	sel := Select(candidates, 8, DefaultPolicy())
	if sel == nil || sel.Tip.Option != "2" {
		t.Errorf("boost above 2.0 should win, got %+v", sel)
	}
}

func TestSelectTieKeepsFirst(t *testing.T) {
	candidates := []store.Tip{
		{Option: "1", Odd: 2.5},
		{Option: "2", Odd: 2.5},
	}

	sel := Select(candidates, 8, DefaultPolicy())
	if sel == nil || sel.Tip.Option != "1" {
		t.Errorf("exact tie must keep first occurrence, got %+v", sel)
	}
}

func TestStakeScaling(t *testing.T) {
	tests := []struct {
		odd  float64
		want float64
	}{
		{1.6, 1000},
		{2.0, 750},
		{2.9, 750},
		{3.0, 500},
	}

	for _, tt := range tests {
		if got := stakeFor(tt.odd, 1000); got != tt.want {
			t.Errorf("stakeFor(%v) = %v, want %v", tt.odd, got, tt.want)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StakingPolicy)
		wantErr bool
	}{
		{"default ok", func(p *StakingPolicy) {}, false},
		{"inverted bounds", func(p *StakingPolicy) { p.MinOdds = 3.0; p.MaxOdds = 1.5 }, true},
		{"equal bounds", func(p *StakingPolicy) { p.MinOdds = 2.0; p.MaxOdds = 2.0 }, true},
		{"min below 1", func(p *StakingPolicy) { p.MinOdds = 0.5 }, true},
		{"zero stake", func(p *StakingPolicy) { p.BaseStake = 0 }, true},
		{"bad threshold", func(p *StakingPolicy) { p.ConfidenceThreshold = "extreme" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultPolicy()
			tt.mutate(&policy)
			err := policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfidenceCutoffs(t *testing.T) {
	tests := []struct {
		threshold string
		want      float64
	}{
		{ConfidenceHigh, 8},
		{ConfidenceMedium, 6},
		{ConfidenceLow, 4},
	}

	for _, tt := range tests {
		policy := DefaultPolicy()
		policy.ConfidenceThreshold = tt.threshold
		if got := policy.ConfidenceCutoff(); got != tt.want {
			t.Errorf("cutoff for %s = %v, want %v", tt.threshold, got, tt.want)
		}
	}
}
