package betexplorer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Swai-D/bet-bot-sub000/internal/store"
)

// marketLabels maps canonical tip options to the row labels used on the
// match odds page.
var marketLabels = map[string]string{
	store.OptionHomeWin:  "1",
	store.OptionDraw:     "X",
	store.OptionAwayWin:  "2",
	store.OptionOver25:   "Over 2.5",
	store.OptionUnder25:  "Under 2.5",
	store.OptionBothGoal: "Both teams to score Yes",
	store.OptionNoGoal:   "Both teams to score No",
	store.OptionHomeDraw: "1X",
	store.OptionDrawAway: "X2",
	store.OptionAnyWin:   "12",
}

// findMatchLink scans search results for an event link mentioning both
// team names.
func findMatchLink(doc *goquery.Document, homeTeam, awayTeam string) string {
	home := strings.ToLower(homeTeam)
	away := strings.ToLower(awayTeam)

	var href string
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.ToLower(s.Text())
		if strings.Contains(text, home) && strings.Contains(text, away) {
			href, _ = s.Attr("href")
			return false
		}
		return true
	})

	return href
}

// ParseOdds extracts the price for a tip from a match odds page. Rows
// carry a label cell followed by bookmaker prices; the first parseable
// price wins.
func ParseOdds(doc *goquery.Document, option string) (float64, error) {
	label, ok := marketLabels[option]
	if !ok {
		return 0, fmt.Errorf("unsupported tip option %q", option)
	}

	var value float64
	var found bool

	doc.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return true
		}

		rowLabel := strings.Join(strings.Fields(cells.Eq(0).Text()), " ")
		if !strings.EqualFold(rowLabel, label) {
			return true
		}

		for j := 1; j < cells.Length(); j++ {
			text := strings.ReplaceAll(strings.TrimSpace(cells.Eq(j).Text()), ",", ".")
			if v, err := strconv.ParseFloat(text, 64); err == nil && v >= 1.0 {
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
