package store

import (
	"strings"
	"time"
	"unicode"
)

// Tip option vocabulary. Anything outside this set is dropped at the
// normalization boundary and never reaches storage.
const (
	OptionHomeWin  = "1"
	OptionDraw     = "X"
	OptionAwayWin  = "2"
	OptionOver25   = "+2.5"
	OptionUnder25  = "-2.5"
	OptionBothGoal = "GG"
	OptionNoGoal   = "NG"
	OptionHomeDraw = "1X"
	OptionDrawAway = "X2"
	OptionAnyWin   = "12"
)

// OddUnavailable marks a tip for which no provider could price the selection.
// It is a valid terminal value, not an error.
const OddUnavailable = -1.0

// Tip statuses.
const (
	TipSelected    = "selected"
	TipNotSelected = "not selected"
)

// Tip is a single normalized prediction outcome with its resolved price.
type Tip struct {
	Option string  `json:"option"`
	Odd    float64 `json:"odd"`
	Status string  `json:"status"`
}

// Available reports whether the tip carries a usable price.
func (t Tip) Available() bool {
	return t.Odd >= 1.0
}

// Prediction is the persisted aggregate for one match. Exactly one row
// exists per MatchKey; repeat sightings overwrite fields in place.
type Prediction struct {
	ID        int       `json:"id" db:"id"`
	MatchKey  string    `json:"match_key" db:"match_key"`
	Country   string    `json:"country" db:"country"`
	League    string    `json:"league" db:"league"`
	HomeTeam  string    `json:"home_team" db:"home_team"`
	AwayTeam  string    `json:"away_team" db:"away_team"`
	MatchDate time.Time `json:"match_date" db:"match_date"`
	Score     float64   `json:"score" db:"score"`
	Tips      []Tip     `json:"tips" db:"tips"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultLeague is stored when the source markup carries no league info.
const DefaultLeague = "Unknown League"

// Bet records a placed bet. Predictions referenced by a bet are exempt
// from the retention sweep.
type Bet struct {
	ID       int       `json:"id" db:"id"`
	MatchKey string    `json:"match_key" db:"match_key"`
	Option   string    `json:"option" db:"option"`
	Odd      float64   `json:"odd" db:"odd"`
	Stake    float64   `json:"stake" db:"stake"`
	PlacedAt time.Time `json:"placed_at" db:"placed_at"`
}

// MatchKey builds the stable identity used for deduplication and upserts.
// Identical (home, away, date) tuples yield the identical key regardless
// of casing and whitespace. Format: home-vs-away-YYYY-MM-DD.
func MatchKey(homeTeam, awayTeam string, date time.Time) string {
	return slugify(homeTeam) + "-vs-" + slugify(awayTeam) + "-" + date.Format("2006-01-02")
}

// slugify lowercases, trims and collapses runs of non-alphanumeric
// characters into single hyphens.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
