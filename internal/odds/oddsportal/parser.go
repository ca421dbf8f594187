package oddsportal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Swai-D/bet-bot-sub000/internal/store"
)

// marketRows maps canonical tip options to the market row label used on
// the odds page.
var marketRows = map[string]string{
	store.OptionHomeWin:  "1",
	store.OptionDraw:     "X",
	store.OptionAwayWin:  "2",
	store.OptionOver25:   "Over 2.5",
	store.OptionUnder25:  "Under 2.5",
	store.OptionBothGoal: "BTS Yes",
	store.OptionNoGoal:   "BTS No",
	store.OptionHomeDraw: "1X",
	store.OptionDrawAway: "X2",
	store.OptionAnyWin:   "12",
}

// FindMatchLink scans search results for an event link mentioning both
// team names. Returns "" when no row matches.
func FindMatchLink(doc *goquery.Document, homeTeam, awayTeam string) string {
	home := strings.ToLower(homeTeam)
	away := strings.ToLower(awayTeam)

	var href string
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.ToLower(s.Text())
		if containsTeam(text, home) && containsTeam(text, away) {
			href, _ = s.Attr("href")
			return false
		}
		return true
	})

	return href
}

// ParseOdds extracts the average price for a tip from a rendered match
// page. The page lays markets out as rows with a label cell followed by
// an odds cell.
func ParseOdds(doc *goquery.Document, option string) (float64, error) {
	label, ok := marketRows[option]
	if !ok {
		return 0, fmt.Errorf("unsupported tip option %q", option)
	}

	var value float64
	var found bool

	doc.Find("tr, div[data-testid='odd-container']").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td, span")
		if cells.Length() < 2 {
			return true
		}

		rowLabel := strings.TrimSpace(cells.Eq(0).Text())
		if !strings.EqualFold(rowLabel, label) {
			return true
		}

		for j := 1; j < cells.Length(); j++ {
			if v, err := parsePrice(cells.Eq(j).Text()); err == nil {
				value = v
				found = true
				return false
			}
		}
		return true
	})

	if !found {
		return 0, fmt.Errorf("no odds for %q on page", option)
	}

	return value, nil
}

// parsePrice parses a decimal odds cell, tolerating comma separators.
func parsePrice(text string) (float64, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if value < 1.0 {
		return 0, fmt.Errorf("implausible price %v", value)
	}
	return value, nil
}

// containsTeam checks whether the significant part of a team name occurs
// in a search result row.
func containsTeam(haystack, team string) bool {
	team = strings.TrimSpace(team)
	if team == "" {
		return false
	}
	if strings.Contains(haystack, team) {
		return true
	}

	// Fall back to the longest word of the team name; search rows often
	// abbreviate ("Man United", "Atletico").
	longest := ""
	for _, word := range strings.Fields(team) {
		if len(word) > len(longest) {
			longest = word
		}
	}
	return len(longest) >= 4 && strings.Contains(haystack, longest)
}
