// Package oddsportal implements the primary odds provider. The site is
// JS-rendered, so pages go through a headless browser before parsing.
package oddsportal

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const (
	// BaseURL of the odds site
	BaseURL = "https://www.oddsportal.com"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to prevent rate limiting
	MinRequestInterval = 2 * time.Second

	// QueryTimeout bounds a single odds lookup (shorter than the page
	// fetch budget; odds queries run many times per cycle)
	QueryTimeout = 20 * time.Second
)

// Provider queries oddsportal through a headless browser. Safe for
// concurrent use: queries run on the resolver's worker pool.
type Provider struct {
	baseURL string

	// mu serializes request pacing across concurrent queries
	mu          sync.Mutex
	lastRequest time.Time
	interval    time.Duration

	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewProvider creates a new oddsportal provider
func NewProvider(baseURL string) (*Provider, error) {
	if baseURL == "" {
		baseURL = BaseURL
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Provider{
		baseURL:  baseURL,
		interval: MinRequestInterval,
		allocCtx: allocCtx,
		cancel:   cancel,
	}, nil
}

// Name identifies the provider in logs
func (p *Provider) Name() string {
	return "oddsportal"
}

// Close releases resources
func (p *Provider) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}

// QueryOdds finds the current price for a tip on the given match.
func (p *Provider) QueryOdds(ctx context.Context, homeTeam, awayTeam, option string) (float64, error) {
	matchURL, err := p.findMatch(ctx, homeTeam, awayTeam)
	if err != nil {
		return 0, fmt.Errorf("finding match: %w", err)
	}

	html, err := p.fetch(ctx, matchURL)
	if err != nil {
		return 0, fmt.Errorf("fetching match page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parsing match page: %w", err)
	}

	return ParseOdds(doc, option)
}

// findMatch searches the site for the team pair and returns the first
// matching event URL.
func (p *Provider) findMatch(ctx context.Context, homeTeam, awayTeam string) (string, error) {
	query := url.QueryEscape(homeTeam + " " + awayTeam)
	searchURL := fmt.Sprintf("%s/search/?q=%s", p.baseURL, query)

	html, err := p.fetch(ctx, searchURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	href := FindMatchLink(doc, homeTeam, awayTeam)
	if href == "" {
		return "", fmt.Errorf("no match found for %s - %s", homeTeam, awayTeam)
	}

	if strings.HasPrefix(href, "/") {
		href = p.baseURL + href
	}
	return href, nil
}

// waitTurn blocks until this request may go out. The lock is held
// through the sleep so concurrent queries are spaced one interval
// apart rather than all observing the same stale timestamp and
// hitting the site at once.
func (p *Provider) waitTurn() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastRequest.IsZero() {
		elapsed := time.Since(p.lastRequest)
		if elapsed < p.interval {
			waitTime := p.interval - elapsed
			log.Printf("Rate limiting: waiting %v before next request", waitTime)
			time.Sleep(waitTime)
		}
	}
	p.lastRequest = time.Now()
}

// fetch renders a page and returns its markup, with rate limiting.
func (p *Provider) fetch(ctx context.Context, pageURL string) (string, error) {
	p.waitTurn()

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(p.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, QueryTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second), // Allow JS to render
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}

	if html == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}

	return html, nil
}
