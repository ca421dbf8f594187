package adibet

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Swai-D/bet-bot-sub000/internal/store"
	"github.com/Swai-D/bet-bot-sub000/internal/tips"
)

// MatchRecord is one prediction row extracted from the markup. It is the
// raw boundary object; normalization and scoring happen downstream.
type MatchRecord struct {
	Date     time.Time
	Country  string
	HomeTeam string
	AwayTeam string
	Tips     []TipMark
}

// TipMark is a normalized tip code plus whether the site emphasized it
// as an active selection.
type TipMark struct {
	Option      string
	Highlighted bool
}

// Key returns the derived match identity for deduplication.
func (m MatchRecord) Key() string {
	return store.MatchKey(m.HomeTeam, m.AwayTeam, m.Date)
}

// HighlightedCount returns the number of emphasized tips.
func (m MatchRecord) HighlightedCount() int {
	n := 0
	for _, t := range m.Tips {
		if t.Highlighted {
			n++
		}
	}
	return n
}

// dateHeaderRe matches date header rows like "14.3", "14.03" or "14.03.2026".
var dateHeaderRe = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})(?:\.(\d{4}))?$`)

// Parse extracts prediction rows from raw page markup. It is a pure
// function of its input: no network, deterministic output, and it never
// fails on malformed fragments — rows that cannot yield a country, two
// teams and at least one recognizable tip are dropped and counted in
// the skipped return.
//
// Rows are attributed to the most recently seen date header above them;
// rows preceding any header are skipped. Duplicate rows for the same
// derived match identity keep the first occurrence.
func Parse(markup string, today time.Time) (records []MatchRecord, skipped int) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, 0
	}

	var currentDate time.Time
	seen := make(map[string]bool)

	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		if date, ok := parseDateHeader(row, today); ok {
			currentDate = date
			return
		}

		if currentDate.IsZero() {
			skipped++ // rows before the first date header carry no date
			return
		}

		record := parseMatchRow(row, currentDate)
		if record == nil {
			skipped++
			return
		}

		key := record.Key()
		if seen[key] {
			skipped++
			return
		}
		seen[key] = true

		records = append(records, *record)
	})

	return records, skipped
}

// parseDateHeader recognizes rows whose entire text is a D.M or D.M.YYYY
// date and resolves them against the reference date.
func parseDateHeader(row *goquery.Selection, today time.Time) (time.Time, bool) {
	text := strings.TrimSpace(row.Text())
	m := dateHeaderRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	day := atoi(m[1])
	month := atoi(m[2])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, false
	}

	year := today.Year()
	if m[3] != "" {
		year = atoi(m[3])
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	// Headers without a year are resolved to the nearest season: a date
	// landing more than six months away is assumed to belong to the
	// adjacent year.
	if m[3] == "" {
		if date.Sub(today) > 182*24*time.Hour {
			date = date.AddDate(-1, 0, 0)
		} else if today.Sub(date) > 182*24*time.Hour {
			date = date.AddDate(1, 0, 0)
		}
	}

	return date, true
}

// parseMatchRow extracts one prediction from a table row. Returns nil for
// rows that do not carry a complete match.
func parseMatchRow(row *goquery.Selection, date time.Time) *MatchRecord {
	cells := row.Find("td")
	if cells.Length() < 3 {
		return nil
	}

	country := strings.TrimSpace(cells.Eq(0).Text())
	if country == "" {
		// Some layouts carry the country only as a flag image title.
		if title, ok := cells.Eq(0).Find("img").Attr("title"); ok {
			country = strings.TrimSpace(title)
		}
	}

	home, away := splitTeams(cells.Eq(1).Text())

	if country == "" || home == "" || away == "" {
		return nil
	}

	record := &MatchRecord{
		Date:     date,
		Country:  country,
		HomeTeam: home,
		AwayTeam: away,
	}

	// Remaining cells come in (option, odds) pairs. A tip counts as
	// highlighted only when BOTH cells of its pair carry emphasis
	// styling; a lone colored cell is decoration, not a selection.
	for i := 2; i+1 < cells.Length(); i += 2 {
		optionCell := cells.Eq(i)
		oddsCell := cells.Eq(i + 1)

		option := tips.Normalize(optionCell.Text())
		if option == "" {
			continue
		}

		record.Tips = append(record.Tips, TipMark{
			Option:      option,
			Highlighted: emphasized(optionCell) && emphasized(oddsCell),
		})
	}

	if len(record.Tips) == 0 {
		return nil
	}

	return record
}

// splitTeams breaks a "Home - Away" cell into its team names.
func splitTeams(text string) (string, string) {
	text = strings.TrimSpace(text)

	for _, sep := range []string{" - ", " – ", " vs "} {
		if parts := strings.SplitN(text, sep, 2); len(parts) == 2 {
			return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
	}

	return "", ""
}

// emphasized reports whether a cell carries selection styling: a bgcolor
// attribute, an inline background-color, or a colored font child.
func emphasized(cell *goquery.Selection) bool {
	if v, ok := cell.Attr("bgcolor"); ok && v != "" {
		return true
	}
	if style, ok := cell.Attr("style"); ok && strings.Contains(strings.ToLower(style), "background") {
		return true
	}
	if _, ok := cell.Find("font").Attr("color"); ok {
		return true
	}
	return false
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
