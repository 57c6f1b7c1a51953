// Package ais is the client for the city's Address Information System,
// the primary remote geocoding service. It exposes the three operations
// the pipeline needs — address search, intersection search, and reverse
// geocode — each reporting one of three outcomes per call: a match
// (result, nil), no match (nil, nil), or a transient failure (nil, err
// wrapped as resilience.TransientError when retryable).
package ais

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/phila-data/enrich-cli/internal/resilience"
)

const defaultBaseURL = "https://api.phila.gov/ais/v1"

// AIS sustains roughly 9 requests per second before returning 429s.
const defaultRateLimit = 9.0

// Client calls the AIS API. The rate limiter is shared across every
// worker holding this client, so the aggregate call rate respects the
// service budget regardless of concurrency.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	limiter    *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateLimit sets the sustained requests-per-second budget.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates an AIS client with the given gatekeeper key.
func NewClient(key string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		key:        key,
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Feature is one candidate in an AIS response.
type Feature struct {
	StreetAddress string
	ZipCode       string
	Lat, Lon      float64
	HasCoords     bool

	// Properties holds every AIS property stringified, keyed by field
	// name. Enrichment values come from here.
	Properties map[string]string
}

// Result is a parsed AIS response.
type Result struct {
	// SearchType is AIS's own classification of the query:
	// "address", "intersection", "block", ...
	SearchType string

	// Normalized is the address string AIS normalized the query to.
	Normalized string

	Features []Feature
}

// aisResponse mirrors the GeoJSON-style wire format.
type aisResponse struct {
	SearchType string `json:"search_type"`
	Normalized string `json:"normalized"`
	Features   []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}

// Search looks up a standardized single-line address. A 404 from the
// service means no match and returns (nil, nil).
func (c *Client) Search(ctx context.Context, address string) (*Result, error) {
	return c.get(ctx, c.baseURL+"/search/"+url.PathEscape(address))
}

// SearchIntersection looks up the crossing of two streets.
func (c *Client) SearchIntersection(ctx context.Context, street1, street2 string) (*Result, error) {
	return c.get(ctx, c.baseURL+"/search/"+url.PathEscape(street1+" & "+street2))
}

// ReverseGeocode resolves a coordinate to the nearest address.
func (c *Client) ReverseGeocode(ctx context.Context, lon, lat float64) (*Result, error) {
	coord := strconv.FormatFloat(lon, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64)
	return c.get(ctx, c.baseURL+"/reverse_geocode/"+coord)
}

func (c *Client) get(ctx context.Context, reqURL string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "ais: rate limit wait")
	}

	u, err := url.Parse(reqURL)
	if err != nil {
		return nil, eris.Wrap(err, "ais: parse url")
	}
	q := u.Query()
	q.Set("gatekeeperKey", c.key)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "ais: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resilience.IsTransient(err) {
			return nil, resilience.NewTransientError(err, 0)
		}
		return nil, eris.Wrap(err, "ais: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// AIS reports "no match" as 404.
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, eris.New("ais: invalid gatekeeper key")
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("ais: status %d", resp.StatusCode), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("ais: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "ais: read body"), 0)
	}

	var wire aisResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, eris.Wrap(err, "ais: parse response")
	}

	result := &Result{
		SearchType: wire.SearchType,
		Normalized: wire.Normalized,
	}
	for _, f := range wire.Features {
		feat := Feature{Properties: stringifyProperties(f.Properties)}
		feat.StreetAddress = feat.Properties["street_address"]
		feat.ZipCode = feat.Properties["zip_code"]
		if len(f.Geometry.Coordinates) >= 2 {
			feat.Lon = f.Geometry.Coordinates[0]
			feat.Lat = f.Geometry.Coordinates[1]
			feat.HasCoords = true
		}
		result.Features = append(result.Features, feat)
	}
	return result, nil
}

// stringifyProperties flattens AIS property values to strings. Empty
// values (including empty lists, e.g. opa_owners) are dropped so callers
// can treat absence uniformly.
func stringifyProperties(props map[string]any) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val != "" {
				out[k] = val
			}
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			raw, err := json.Marshal(val)
			if err != nil || string(raw) == "[]" || string(raw) == "{}" {
				continue
			}
			out[k] = string(raw)
		}
	}
	return out
}

// Tiebreak selects among multiple address candidates using the caller's
// zip code. Exactly one zip-consistent candidate wins; anything else is
// ambiguous and returns nil, per the never-pick-arbitrarily rule.
func Tiebreak(features []Feature, zip string) *Feature {
	if len(features) == 1 {
		return &features[0]
	}
	var match *Feature
	for i := range features {
		if zip != "" && features[i].ZipCode == zip {
			if match != nil {
				return nil
			}
			match = &features[i]
		}
	}
	return match
}
