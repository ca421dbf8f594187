// Package tips canonicalizes the free-form tip labels found in prediction
// markup into the fixed option vocabulary used by the rest of the pipeline.
package tips

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Swai-D/bet-bot-sub000/internal/store"
)

// vocabulary is the full set of canonical tip options.
var vocabulary = map[string]bool{
	store.OptionHomeWin:  true,
	store.OptionDraw:     true,
	store.OptionAwayWin:  true,
	store.OptionOver25:   true,
	store.OptionUnder25:  true,
	store.OptionBothGoal: true,
	store.OptionNoGoal:   true,
	store.OptionHomeDraw: true,
	store.OptionDrawAway: true,
	store.OptionAnyWin:   true,
}

// Normalize maps a raw tip label to its canonical option code. It returns
// the empty string for labels outside the vocabulary; callers must drop
// those, never store them.
func Normalize(label string) string {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return ""
	}

	// Synonym replacement before vocabulary matching
	s = strings.ReplaceAll(s, "BOTH TEAMS TO SCORE", "GG")
	s = strings.ReplaceAll(s, "NO GOAL", "NG")
	s = strings.ReplaceAll(s, "NO BTS", "NG")
	s = strings.ReplaceAll(s, "BTS", "GG")
	s = strings.ReplaceAll(s, "OVER", "+")
	s = strings.ReplaceAll(s, "UNDER", "-")
	s = strings.TrimSuffix(s, " GOALS")
	s = strings.TrimSuffix(s, " GOAL")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "+ ", "+")
	s = strings.ReplaceAll(s, "- ", "-")

	if vocabulary[s] {
		return s
	}

	// Handicap labels arrive in assorted numeric shapes ("2.5", "+2,5").
	// Parse and re-render with an explicit sign.
	if code := normalizeHandicap(s); code != "" {
		return code
	}

	return ""
}

// normalizeHandicap parses a numeric goal-line label and renders it in
// signed form. Only lines present in the vocabulary survive.
func normalizeHandicap(s string) string {
	numeric := strings.ReplaceAll(s, ",", ".")
	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return ""
	}

	var code string
	if value < 0 {
		code = fmt.Sprintf("-%.1f", -value)
	} else {
		code = fmt.Sprintf("+%.1f", value)
	}

	if vocabulary[code] {
		return code
	}
	return ""
}

// IsValid reports whether an option code is part of the canonical vocabulary.
func IsValid(option string) bool {
	return vocabulary[option]
}
