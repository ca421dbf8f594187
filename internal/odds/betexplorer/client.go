// Package betexplorer implements the fallback odds provider. Unlike the
// primary, the site serves static markup, so a plain HTTP client is
// sufficient.
package betexplorer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// BaseURL of the odds site
	BaseURL = "https://www.betexplorer.com"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// RequestTimeout bounds a single HTTP request
	RequestTimeout = 15 * time.Second
)

// Provider queries betexplorer over plain HTTP.
type Provider struct {
	baseURL string
	client  *http.Client
}

// NewProvider creates a new betexplorer provider
func NewProvider(baseURL string) *Provider {
	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Provider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: RequestTimeout,
		},
	}
}

// Name identifies the provider in logs
func (p *Provider) Name() string {
	return "betexplorer"
}

// QueryOdds finds the current price for a tip on the given match.
func (p *Provider) QueryOdds(ctx context.Context, homeTeam, awayTeam, option string) (float64, error) {
	searchURL := fmt.Sprintf("%s/search/?q=%s",
		p.baseURL, url.QueryEscape(homeTeam+" "+awayTeam))

	doc, err := p.get(ctx, searchURL)
	if err != nil {
		return 0, fmt.Errorf("searching match: %w", err)
	}

	href := findMatchLink(doc, homeTeam, awayTeam)
	if href == "" {
		return 0, fmt.Errorf("no match found for %s - %s", homeTeam, awayTeam)
	}
	if strings.HasPrefix(href, "/") {
		href = p.baseURL + href
	}

	matchDoc, err := p.get(ctx, href)
	if err != nil {
		return 0, fmt.Errorf("fetching match page: %w", err)
	}

	return ParseOdds(matchDoc, option)
}

// get fetches and parses one page
func (p *Provider) get(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	return doc, nil
}
