package oddsportal

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const matchPage = `
<html><body><table>
<tr><td>1</td><td>1.85</td><td>1.88</td></tr>
<tr><td>X</td><td>3.40</td></tr>
<tr><td>2</td><td>4.20</td></tr>
<tr><td>Over 2.5</td><td>-</td><td>1.70</td></tr>
<tr><td>BTS Yes</td><td>1.65</td></tr>
</table></body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc
}

func TestParseOdds(t *testing.T) {
	doc := parseDoc(t, matchPage)

	tests := []struct {
		option string
		want   float64
	}{
		{"1", 1.85},
		{"X", 3.40},
		{"2", 4.20},
		{"+2.5", 1.70}, // first cell is a dash, parser moves on
		{"GG", 1.65},
	}

	for _, tt := range tests {
		got, err := ParseOdds(doc, tt.option)
		if err != nil {
			t.Errorf("ParseOdds(%q) error: %v", tt.option, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOdds(%q) = %v, want %v", tt.option, got, tt.want)
		}
	}
}

func TestParseOddsMissingMarket(t *testing.T) {
	doc := parseDoc(t, matchPage)

	if _, err := ParseOdds(doc, "NG"); err == nil {
		t.Error("expected error for market absent from page")
	}
	if _, err := ParseOdds(doc, "bogus"); err == nil {
		t.Error("expected error for unknown option")
	}
}

func TestFindMatchLink(t *testing.T) {
	searchPage := `
<html><body>
<a href="/football/england/arsenal-tottenham/">Arsenal - Tottenham Hotspur</a>
<a href="/football/spain/girona-sevilla/">Girona - Sevilla</a>
</body></html>`

	doc := parseDoc(t, searchPage)

	if got := FindMatchLink(doc, "Arsenal", "Tottenham"); got != "/football/england/arsenal-tottenham/" {
		t.Errorf("FindMatchLink = %q", got)
	}
	if got := FindMatchLink(doc, "Liverpool", "Everton"); got != "" {
		t.Errorf("FindMatchLink for absent match = %q, want empty", got)
	}
}
