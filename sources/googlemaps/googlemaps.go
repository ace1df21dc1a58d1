// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package googlemaps is a leaf source over the Google Maps Geocoding API.
package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/spatial"
	"github.com/jcodagnone/geochain/utils/httputils"
)

// DefaultBaseURL is the JSON geocoding endpoint.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder is the Google backend. Wrap it with geocoding.NewPipeline or
// build it through the registry.
type Geocoder struct {
	name       string
	apiKey     string
	baseURL    string
	region     string
	httpClient *http.Client
}

// Option configures a Geocoder.
type Option func(*Geocoder)

// WithBaseURL overrides the endpoint.
func WithBaseURL(u string) Option {
	return func(g *Geocoder) { g.baseURL = u }
}

// WithRegion biases results to a ccTLD region code.
func WithRegion(region string) Option {
	return func(g *Geocoder) { g.region = region }
}

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Geocoder) { g.httpClient = c }
}

// New creates a Google backend named name.
func New(name, apiKey string, opts ...Option) *Geocoder {
	g := &Geocoder{
		name:    name,
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.httpClient == nil {
		g.httpClient = httputils.NewClient(httputils.ClientOptions{})
	}

	return g
}

func (g *Geocoder) Name() string { return g.name }

// CRS is always geographic.
func (g *Geocoder) CRS() spatial.CRS { return spatial.WGS84 }

type apiResponse struct {
	Status       string            `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string            `json:"error_message"`
	Results      []json.RawMessage `json:"results"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type apiResult struct {
	FormattedAddress  string             `json:"formatted_address"`
	Types             []string           `json:"types"`
	PlaceID           string             `json:"place_id"`
	AddressComponents []addressComponent `json:"address_components"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
	} `json:"geometry"`
}

// Lookup implements geocoding.Backend.
func (g *Geocoder) Lookup(ctx context.Context, req geocoding.Request) (*geocoding.Response, error) {
	query := req.Text()
	if query == "" {
		return geocoding.NewResponse(g.name, nil), nil
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	if g.region != "" {
		params.Set("region", g.region)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(err)
	}

	defer resp.Body.Close()

	body, err := httputils.AsReader(resp, "application/json")
	if err != nil {
		var statusErr *httputils.StatusError
		if errors.As(err, &statusErr) {
			e := geocoding.ClassifyHTTPStatus(statusErr.StatusCode)
			e.Err = statusErr

			return nil, e
		}

		return nil, fmt.Errorf("reading response: %w", err)
	}

	var gmResp apiResponse
	if err := json.NewDecoder(body).Decode(&gmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if err := statusError(gmResp.Status, gmResp.ErrorMessage); err != nil {
		return nil, err
	}

	candidates := make([]*geocoding.Candidate, 0, len(gmResp.Results))

	for _, raw := range gmResp.Results {
		c, err := toCandidate(raw)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, c)
	}

	return geocoding.NewResponse(g.name, candidates), nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &geocoding.Error{Kind: geocoding.KindTimeout, Message: "google request timed out", Err: err}
	}

	return &geocoding.Error{Kind: geocoding.KindNetwork, Message: "google request failed", Err: err}
}

// statusError maps the API status field. ZERO_RESULTS is not an error.
func statusError(status, message string) error {
	var kind geocoding.ErrorKind

	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "OVER_QUERY_LIMIT":
		kind = geocoding.KindRateLimit
	case "OVER_DAILY_LIMIT", "REQUEST_DENIED":
		kind = geocoding.KindQuotaExceeded
	case "INVALID_REQUEST":
		kind = geocoding.KindInvalidRequest
	case "UNKNOWN_ERROR":
		kind = geocoding.KindNetwork
	default:
		kind = geocoding.KindUnknown
	}

	msg := "google maps status: " + status
	if message != "" {
		msg += ": " + message
	}

	return &geocoding.Error{Kind: kind, Message: msg}
}

// Score maps a result type onto the old 0-9 accuracy scale, weighting street
// addresses over points of interest.
func Score(matchType string) float64 {
	switch matchType {
	case "street_address":
		return 8.1
	case "intersection":
		return 7
	case "premise":
		return 9
	case "point_of_interest":
		return 8
	default:
		return 6
	}
}

func toCandidate(raw json.RawMessage) (*geocoding.Candidate, error) {
	var r apiResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}

	c := &geocoding.Candidate{
		StandardizedAddress: r.FormattedAddress,
		Latitude:            r.Geometry.Location.Lat,
		Longitude:           r.Geometry.Location.Lng,
		RawData:             string(raw),
	}

	if len(r.Types) > 0 {
		c.MatchType = r.Types[0]
	}

	c.MatchScore = Score(c.MatchType)
	c.Street = streetOf(c.MatchType, r.FormattedAddress)

	for _, comp := range r.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "country":
				c.Country = comp.LongName
			case "administrative_area_level_1":
				c.Region = comp.LongName
			case "locality":
				c.City = comp.LongName
			case "postal_code":
				c.PostalCode = comp.LongName
			}
		}
	}

	return c, nil
}

// streetOf extracts the street part of a formatted address. Points of
// interest carry their name first: "Union Station, 1 Main Street, ...".
func streetOf(matchType, formatted string) string {
	parts := strings.Split(formatted, ",")

	switch matchType {
	case "street_address", "premise", "intersection", "route":
		return strings.TrimSpace(parts[0])
	case "point_of_interest":
		if len(parts) > 1 {
			return strings.TrimSpace(parts[1])
		}
	}

	return ""
}
