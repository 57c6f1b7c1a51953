// Package tomtom is the client for the secondary geocoding service, an
// ArcGIS locator backed by TomTom street data. It resolves free-form
// addresses anywhere in the US to coordinates; it carries no enrichment
// payload. Outcomes follow the same tri-state contract as the primary
// adapter: match, no match, or transient error.
package tomtom

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/phila-data/enrich-cli/internal/resilience"
)

const defaultBaseURL = "https://citygeo-geocoder-aws.phila.city/arcgis/rest/services/TomTom/US_StreetAddress/GeocodeServer"

const defaultRateLimit = 10.0

// Client calls the TomTom locator. One shared rate limiter caps the
// aggregate request rate across all pipeline workers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the locator base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateLimit sets the sustained requests-per-second budget.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates a TomTom locator client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Candidate is the best locator match for an address.
type Candidate struct {
	Address  string
	Lat, Lon float64
	Score    float64
}

type candidatesResponse struct {
	Candidates []struct {
		Address  string `json:"address"`
		Location struct {
			X float64 `json:"x"` // longitude
			Y float64 `json:"y"` // latitude
		} `json:"location"`
		Score float64 `json:"score"`
	} `json:"candidates"`
}

// FindCandidates geocodes a free-form address. The locator orders
// candidates by score, so the first is taken; an empty candidate list
// means no match and returns (nil, nil).
func (c *Client) FindCandidates(ctx context.Context, address string) (*Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "tomtom: rate limit wait")
	}

	params := url.Values{
		"Address": {address},
		"f":       {"pjson"},
	}
	reqURL := c.baseURL + "/findAddressCandidates?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "tomtom: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resilience.IsTransient(err) {
			return nil, resilience.NewTransientError(err, 0)
		}
		return nil, eris.Wrap(err, "tomtom: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("tomtom: status %d", resp.StatusCode), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("tomtom: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "tomtom: read body"), 0)
	}

	var wire candidatesResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, eris.Wrap(err, "tomtom: parse response")
	}

	if len(wire.Candidates) == 0 {
		return nil, nil
	}

	best := wire.Candidates[0]
	return &Candidate{
		Address: best.Address,
		Lat:     best.Location.Y,
		Lon:     best.Location.X,
		Score:   best.Score,
	}, nil
}
