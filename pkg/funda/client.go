// Package funda searches the Funda listing portal and extracts raw listing
// rows from its search result pages.
package funda

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Funda blocks the default Go User-Agent; present a browser one.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Result page selectors.
const (
	resultSelector = "div.search-result"
	linkSelector   = "a.search-result__header-title-link"
	priceSelector  = "span.search-result-price"
)

// Listing holds the raw fields extracted from one search result row.
type Listing struct {
	URL     string
	City    string
	Address string
	Price   int
}

// Client searches Funda for houses in a city.
type Client interface {
	// Search returns the listings for a city keyed by house ID. An empty map
	// with a nil error means the search matched nothing.
	Search(ctx context.Context, city string) (map[string]Listing, error)
}

// SearchParams are the fixed search criteria applied to every city.
type SearchParams struct {
	WantTo       string // "buy" or "rent"
	MinPrice     int
	MaxPrice     int
	DaysSince    int
	PropertyType string // e.g. "huis"
	PageStart    int
	PageCount    int
}

// Option configures the Funda client.
type Option func(*fundaClient)

// WithBaseURL overrides the portal base URL (tests).
func WithBaseURL(baseURL string) Option {
	return func(c *fundaClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *fundaClient) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second ceiling for page fetches.
func WithRateLimit(rps float64) Option {
	return func(c *fundaClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
}

type fundaClient struct {
	baseURL    string
	params     SearchParams
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Funda search client with the given criteria.
func NewClient(params SearchParams, opts ...Option) Client {
	c := &fundaClient{
		baseURL:    "https://www.funda.nl",
		params:     params,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(1, 1), // polite default for a public portal
	}
	if c.params.PageStart <= 0 {
		c.params.PageStart = 1
	}
	if c.params.PageCount <= 0 {
		c.params.PageCount = 1
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search walks the configured page window for a city and extracts every
// result row. Rows are deduplicated by house ID, first occurrence wins: the
// same listing can appear on more than one result page. Any row that fails
// extraction aborts the whole search.
func (c *fundaClient) Search(ctx context.Context, city string) (map[string]Listing, error) {
	listings := make(map[string]Listing)

	for page := c.params.PageStart; page < c.params.PageStart+c.params.PageCount; page++ {
		rows, err := c.fetchPage(ctx, city, page)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break // past the last result page
		}

		for _, row := range rows {
			id, listing, err := ParseRow(row.url, row.priceBlob)
			if err != nil {
				return nil, err
			}
			if _, seen := listings[id]; seen {
				continue
			}
			listings[id] = listing
		}
	}

	zap.L().Debug("funda search done",
		zap.String("city", city),
		zap.Int("listings", len(listings)),
	)
	return listings, nil
}

// rawRow is one result row before extraction.
type rawRow struct {
	url       string
	priceBlob string
}

func (c *fundaClient) fetchPage(ctx context.Context, city string, page int) ([]rawRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "funda: rate limit")
	}

	pageURL := c.pageURL(city, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "funda: build request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "funda: fetch %s", pageURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("funda: %s returned status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "funda: parse %s", pageURL)
	}

	var rows []rawRow
	doc.Find(resultSelector).Each(func(_ int, sel *goquery.Selection) {
		href := sel.Find(linkSelector).First().AttrOr("href", "")
		if href == "" {
			return // promo blocks interleaved with results carry no link
		}
		if strings.HasPrefix(href, "/") {
			href = c.baseURL + href
		}
		rows = append(rows, rawRow{
			url:       href,
			priceBlob: strings.TrimSpace(sel.Find(priceSelector).First().Text()),
		})
	})

	return rows, nil
}

// pageURL builds a classic Funda search path, e.g.
// /koop/amsterdam/beschikbaar/300000-500000/huis/30-dagen/p2/.
func (c *fundaClient) pageURL(city string, page int) string {
	transaction := "koop"
	if c.params.WantTo == "rent" {
		transaction = "huur"
	}

	segments := []string{c.baseURL, transaction, city, "beschikbaar"}
	if c.params.MinPrice > 0 || c.params.MaxPrice > 0 {
		// An unset bound renders empty, Funda's open-ended form (300000-).
		lo, hi := "", ""
		if c.params.MinPrice > 0 {
			lo = strconv.Itoa(c.params.MinPrice)
		}
		if c.params.MaxPrice > 0 {
			hi = strconv.Itoa(c.params.MaxPrice)
		}
		segments = append(segments, lo+"-"+hi)
	}
	if c.params.PropertyType != "" {
		segments = append(segments, c.params.PropertyType)
	}
	if c.params.DaysSince > 0 {
		segments = append(segments, fmt.Sprintf("%d-dagen", c.params.DaysSince))
	}
	if page > 1 {
		segments = append(segments, fmt.Sprintf("p%d", page))
	}
	return strings.Join(segments, "/") + "/"
}
