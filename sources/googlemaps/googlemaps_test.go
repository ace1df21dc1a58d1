// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package googlemaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcodagnone/geochain/config"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoResults = `{
  "status": "OK",
  "results": [
    {
      "formatted_address": "Tasker St & S 15th St, Philadelphia, PA 19146, USA",
      "types": ["intersection"],
      "geometry": {"location": {"lat": 39.9306, "lng": -75.1700}, "location_type": "GEOMETRIC_CENTER"},
      "address_components": [
        {"long_name": "Philadelphia", "short_name": "Philadelphia", "types": ["locality", "political"]},
        {"long_name": "Pennsylvania", "short_name": "PA", "types": ["administrative_area_level_1", "political"]},
        {"long_name": "United States", "short_name": "US", "types": ["country", "political"]},
        {"long_name": "19146", "short_name": "19146", "types": ["postal_code"]}
      ]
    },
    {
      "formatted_address": "340 N 12th St, Philadelphia, PA 19107, USA",
      "types": ["street_address"],
      "geometry": {"location": {"lat": 39.9589, "lng": -75.1590}, "location_type": "ROOFTOP"},
      "address_components": []
    }
  ]
}`

func newTestServer(t *testing.T, status int, body string, gotQuery *string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotQuery != nil {
			*gotQuery = r.URL.RawQuery
		}

		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestLookup(t *testing.T) {
	var query string

	srv := newTestServer(t, http.StatusOK, twoResults, &query)
	g := New("google", "secret", WithBaseURL(srv.URL), WithRegion("us"))

	resp, err := g.Lookup(context.Background(), geocoding.Request{
		Address: geocoding.Address{Street: "Tasker & 15th", City: "Philadelphia", Region: "PA"},
	})
	require.NoError(t, err)

	assert.Contains(t, query, "key=secret")
	assert.Contains(t, query, "region=us")
	assert.Contains(t, query, "address=Tasker+%26+15th%2C+Philadelphia%2C+PA")

	require.Equal(t, 2, resp.Count())
	assert.Equal(t, "google", resp.Source)

	best := resp.Best()
	assert.Equal(t, "street_address", best.MatchType)
	assert.InDelta(t, 8.1, best.MatchScore, 1e-9)
	assert.Equal(t, "340 N 12th St", best.Street)

	second := resp.Candidates[1]
	assert.Equal(t, "intersection", second.MatchType)
	assert.InDelta(t, 7, second.MatchScore, 1e-9)
	assert.Equal(t, "Tasker St & S 15th St", second.Street)
	assert.Equal(t, "Philadelphia", second.City)
	assert.Equal(t, "Pennsylvania", second.Region)
	assert.Equal(t, "United States", second.Country)
	assert.Equal(t, "19146", second.PostalCode)
	assert.InDelta(t, 39.9306, second.Latitude, 1e-9)
	assert.Contains(t, second.RawData, `"formatted_address": "Tasker St & S 15th St`)
}

func TestLookupStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "over query limit",
			status: http.StatusOK,
			body:   `{"status": "OVER_QUERY_LIMIT", "results": []}`,
			check:  geocoding.IsRateLimitError,
		},
		{
			name:   "request denied",
			status: http.StatusOK,
			body:   `{"status": "REQUEST_DENIED", "error_message": "bad key", "results": []}`,
			check:  geocoding.IsQuotaExceededError,
		},
		{
			name:   "http 429",
			status: http.StatusTooManyRequests,
			body:   `slow down`,
			check:  geocoding.IsRateLimitError,
		},
		{
			name:   "http 403",
			status: http.StatusForbidden,
			body:   `no`,
			check:  geocoding.IsQuotaExceededError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body, nil)
			g := New("google", "k", WithBaseURL(srv.URL))

			_, err := g.Lookup(context.Background(), geocoding.Request{FreeText: "somewhere"})
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
}

func TestLookupZeroResults(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"status": "ZERO_RESULTS", "results": []}`, nil)
	g := New("google", "k", WithBaseURL(srv.URL))

	resp, err := g.Lookup(context.Background(), geocoding.Request{FreeText: "nowhere"})
	require.NoError(t, err)
	assert.False(t, resp.HasCandidates())
	assert.NotNil(t, resp.Candidates)
}

func TestLookupEmptyQuerySkipsProvider(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	g := New("google", "k", WithBaseURL(srv.URL))

	resp, err := g.Lookup(context.Background(), geocoding.Request{})
	require.NoError(t, err)
	assert.False(t, resp.HasCandidates())
	assert.False(t, called)
}

func TestScore(t *testing.T) {
	tests := map[string]float64{
		"street_address":    8.1,
		"intersection":      7,
		"premise":           9,
		"point_of_interest": 8,
		"locality":          6,
		"":                  6,
	}

	for matchType, want := range tests {
		assert.InDelta(t, want, Score(matchType), 1e-9, matchType)
	}
}

func TestStreetOf(t *testing.T) {
	assert.Equal(t, "1 Main Street", streetOf("point_of_interest", "Union Station, 1 Main Street, Burlington, VT 05401, USA"))
	assert.Equal(t, "", streetOf("point_of_interest", "Union Station"))
	assert.Equal(t, "", streetOf("locality", "Burlington, VT, USA"))
	assert.Equal(t, "340 N 12th St", streetOf("premise", "340 N 12th St, Philadelphia"))
}

func TestRegisterBuildsPipeline(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, twoResults, nil)

	cfg := config.New("")
	cfg.AddSection("geocoder", config.Param{Key: "gmaps", Value: TypeName})
	cfg.AddSection("gmaps",
		config.Param{Key: "BaseURL", Value: srv.URL},
		config.Param{Key: "Timeout", Value: "2s"},
	)
	cfg.Set(config.SettingsSection, "GoogleApiKey", "from-settings")

	r := geocoding.NewRegistry()
	Register(r)

	src, err := r.BuildSource(cfg, TypeName, "gmaps")
	require.NoError(t, err)
	assert.Equal(t, spatial.WGS84, src.CRS())

	resp, err := src.Geocode(context.Background(), geocoding.Request{FreeText: "340 N 12th St"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count())
	assert.Equal(t, "gmaps", resp.Source)
}

func TestRegisterRejectsBadTimeout(t *testing.T) {
	cfg := config.New("")
	cfg.AddSection("gmaps",
		config.Param{Key: "ApiKey", Value: "k"},
		config.Param{Key: "Timeout", Value: "soon"},
	)

	r := geocoding.NewRegistry()
	Register(r)

	_, err := r.BuildSource(cfg, TypeName, "gmaps")
	require.Error(t, err)
	assert.True(t, geocoding.IsConfigError(err))
}
