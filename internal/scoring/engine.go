// Package scoring ranks matches by how attractive they are to bet on.
// The score is additive: league tier + rivalry bonus + tip density.
package scoring

import "strings"

// topTierCountries contribute a fixed per-country base score.
var topTierCountries = map[string]float64{
	"england": 5,
	"germany": 4,
	"spain":   4,
	"italy":   3,
	"france":  3,
}

// moderateTierCountries contribute a flat 2. Checked only when the
// country is not in the top tier, so a country never scores twice.
var moderateTierCountries = map[string]bool{
	"netherlands": true,
	"portugal":    true,
	"belgium":     true,
	"turkey":      true,
	"scotland":    true,
	"austria":     true,
	"switzerland": true,
	"greece":      true,
}

const (
	moderateTierScore = 2.0
	rivalryBonus      = 2.0
	tipDensityWeight  = 0.5
)

// rivalries lists high-importance fixtures as unordered team pairs.
var rivalries = [][2]string{
	{"manchester united", "manchester city"},
	{"arsenal", "tottenham"},
	{"liverpool", "everton"},
	{"liverpool", "manchester united"},
	{"barcelona", "real madrid"},
	{"atletico madrid", "real madrid"},
	{"bayern munich", "borussia dortmund"},
	{"inter", "milan"},
	{"roma", "lazio"},
	{"juventus", "inter"},
	{"celtic", "rangers"},
	{"ajax", "feyenoord"},
	{"benfica", "porto"},
	{"galatasaray", "fenerbahce"},
	{"psg", "marseille"},
}

// Score computes a match's bettability score. Deterministic and pure;
// never negative.
func Score(country, homeTeam, awayTeam string, tipCount int) float64 {
	score := tierScore(country)

	if isRivalry(homeTeam, awayTeam) {
		score += rivalryBonus
	}

	if tipCount > 0 {
		score += tipDensityWeight * float64(tipCount)
	}

	return score
}

// tierScore looks up the league tier for a country. Top tier is checked
// first; the first match wins.
func tierScore(country string) float64 {
	c := strings.ToLower(strings.TrimSpace(country))

	if v, ok := topTierCountries[c]; ok {
		return v
	}
	if moderateTierCountries[c] {
		return moderateTierScore
	}
	return 0
}

// isRivalry reports whether the unordered team pair is a listed derby.
func isRivalry(homeTeam, awayTeam string) bool {
	home := normalizeTeam(homeTeam)
	away := normalizeTeam(awayTeam)

	for _, pair := range rivalries {
		if (pair[0] == home && pair[1] == away) || (pair[0] == away && pair[1] == home) {
			return true
		}
	}
	return false
}

func normalizeTeam(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
