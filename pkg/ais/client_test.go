package ais

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phila-data/enrich-cli/internal/resilience"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateLimit(1000),
	)
	return c, srv
}

const addressResponse = `{
	"search_type": "address",
	"normalized": "1234 MARKET ST",
	"features": [{
		"geometry": {"coordinates": [-75.1607, 39.9517]},
		"properties": {
			"street_address": "1234 MARKET ST",
			"zip_code": "19107",
			"census_tract_2020": "000500",
			"police_district": 6,
			"opa_owners": ["CITY OF PHILADELPHIA"],
			"historic_district": null,
			"zoning_document_ids": []
		}
	}]
}`

func TestSearch_Match(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/1234 MARKET ST", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("gatekeeperKey"))
		w.Write([]byte(addressResponse)) //nolint:errcheck
	})
	defer srv.Close()

	res, err := c.Search(context.Background(), "1234 MARKET ST")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "address", res.SearchType)
	require.Len(t, res.Features, 1)

	f := res.Features[0]
	assert.Equal(t, "1234 MARKET ST", f.StreetAddress)
	assert.Equal(t, "19107", f.ZipCode)
	assert.True(t, f.HasCoords)
	assert.InDelta(t, 39.9517, f.Lat, 1e-9)
	assert.InDelta(t, -75.1607, f.Lon, 1e-9)

	// Property stringification: numbers flatten, lists marshal, empties drop.
	assert.Equal(t, "6", f.Properties["police_district"])
	assert.Equal(t, `["CITY OF PHILADELPHIA"]`, f.Properties["opa_owners"])
	_, hasNull := f.Properties["historic_district"]
	assert.False(t, hasNull)
	_, hasEmptyList := f.Properties["zoning_document_ids"]
	assert.False(t, hasEmptyList)
}

func TestSearch_NoMatchIs404(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	res, err := c.Search(context.Background(), "999 NOWHERE ST")
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestSearch_ServerErrorIsTransient(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	_, err := c.Search(context.Background(), "1234 MARKET ST")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestSearch_TooManyRequestsIsTransient(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer srv.Close()

	_, err := c.Search(context.Background(), "1234 MARKET ST")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestSearch_UnauthorizedIsPermanent(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer srv.Close()

	_, err := c.Search(context.Background(), "1234 MARKET ST")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestSearchIntersection(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/BROAD ST & MARKET ST", r.URL.Path)
		w.Write([]byte(`{
			"search_type": "intersection",
			"features": [{"geometry": {"coordinates": [-75.1635, 39.9526]}, "properties": {}}]
		}`)) //nolint:errcheck
	})
	defer srv.Close()

	res, err := c.SearchIntersection(context.Background(), "BROAD ST", "MARKET ST")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "intersection", res.SearchType)
	require.Len(t, res.Features, 1)
	assert.True(t, res.Features[0].HasCoords)
}

func TestReverseGeocode(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse_geocode/-75.1635,39.9526", r.URL.Path)
		w.Write([]byte(addressResponse)) //nolint:errcheck
	})
	defer srv.Close()

	res, err := c.ReverseGeocode(context.Background(), -75.1635, 39.9526)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "1234 MARKET ST", res.Features[0].StreetAddress)
}

func TestTiebreak(t *testing.T) {
	features := []Feature{
		{StreetAddress: "1234 MARKET ST", ZipCode: "19107"},
		{StreetAddress: "1234 MARKET ST", ZipCode: "19102"},
	}

	// Zip selects exactly one.
	got := Tiebreak(features, "19102")
	require.NotNil(t, got)
	assert.Equal(t, "19102", got.ZipCode)

	// No zip to break the tie: ambiguous.
	assert.Nil(t, Tiebreak(features, ""))

	// Two candidates in the same zip: still ambiguous.
	features[1].ZipCode = "19107"
	assert.Nil(t, Tiebreak(features, "19107"))

	// A single candidate needs no tiebreak.
	one := []Feature{{ZipCode: "19107"}}
	require.NotNil(t, Tiebreak(one, ""))
}
