// Package maps wraps the Google Maps Geocoding and Distance Matrix APIs for
// postal-code and travel-time resolution.
package maps

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Sentinel results for lookups that found nothing. These are valid values,
// not errors: they flow into the house record as-is.
const (
	ZipNotFound        = "ZIP CODE NOT FOUND"
	TravelTimeNotFound = "TRAVEL TIME NOT FOUND"
)

// Client resolves postal codes and travel times for free-text addresses.
type Client interface {
	// PostalCode returns the postal code of an address, or ZipNotFound.
	PostalCode(ctx context.Context, address string) (string, error)

	// TravelTime returns the human-readable travel duration from origin to
	// destination at the client's fixed departure time, or TravelTimeNotFound.
	TravelTime(ctx context.Context, origin, destination string) (string, error)
}

// Option configures the maps client.
type Option func(*mapsClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *mapsClient) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second ceiling for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *mapsClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
}

// WithMode sets the travel mode for Distance Matrix calls (default "transit").
func WithMode(mode string) Option {
	return func(c *mapsClient) {
		c.mode = mode
	}
}

// WithDepartureTime overrides the departure time used for travel-time calls.
func WithDepartureTime(t time.Time) Option {
	return func(c *mapsClient) {
		c.departureTime = t
	}
}

type mapsClient struct {
	apiKey        string
	mode          string
	departureTime time.Time
	httpClient    *http.Client
	limiter       *rate.Limiter
}

// NewClient creates a maps Client with the given API key. The departure time
// for travel-time lookups is fixed at construction to tomorrow 08:00 local,
// so every travel time within a run is comparable.
func NewClient(apiKey string, opts ...Option) Client {
	c := &mapsClient{
		apiKey:        apiKey,
		mode:          "transit",
		departureTime: nextMorning(time.Now()),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		limiter:       rate.NewLimiter(50, 50),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nextMorning returns 08:00 local time on the day after now.
func nextMorning(now time.Time) time.Time {
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 8, 0, 0, 0, now.Location())
}
