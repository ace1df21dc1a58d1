// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package nominatim is a leaf source over OpenStreetMap Nominatim.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	geo "github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/spatial"
)

const (
	// MatchType is reported on every candidate.
	MatchType = "osm"
	// Score is the fixed score of the single candidate. Nominatim does not
	// rank its answer.
	Score = 5.0
)

// Geocoder is the Nominatim backend.
type Geocoder struct {
	name     string
	geocoder geo.Geocoder
	reverse  bool
	logger   *slog.Logger
}

// Option configures a Geocoder.
type Option func(*Geocoder)

// WithGeocoder replaces the OpenStreetMap client, mostly for tests.
func WithGeocoder(g geo.Geocoder) Option {
	return func(n *Geocoder) { n.geocoder = g }
}

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) Option {
	return func(n *Geocoder) { n.geocoder = openstreetmap.GeocoderWithURL(u) }
}

// WithoutReverse skips the reverse lookup that fills the structured fields.
func WithoutReverse() Option {
	return func(n *Geocoder) { n.reverse = false }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Geocoder) { n.logger = l }
}

// New creates a Nominatim backend named name.
func New(name string, opts ...Option) *Geocoder {
	n := &Geocoder{
		name:     name,
		geocoder: openstreetmap.Geocoder(),
		reverse:  true,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

func (n *Geocoder) Name() string { return n.name }

// CRS is always geographic.
func (n *Geocoder) CRS() spatial.CRS { return spatial.WGS84 }

// Lookup implements geocoding.Backend. The client has no context support so
// the context is only checked before each call.
func (n *Geocoder) Lookup(ctx context.Context, req geocoding.Request) (*geocoding.Response, error) {
	query := req.Text()
	if query == "" {
		return geocoding.NewResponse(n.name, nil), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	location, err := n.geocoder.Geocode(query)
	if err != nil {
		return nil, &geocoding.Error{Kind: geocoding.KindNetwork, Message: "nominatim geocode", Err: err}
	}

	if location == nil {
		return geocoding.NewResponse(n.name, nil), nil
	}

	c := &geocoding.Candidate{
		MatchScore:          Score,
		MatchType:           MatchType,
		Latitude:            location.Lat,
		Longitude:           location.Lng,
		StandardizedAddress: query,
	}

	if n.reverse && ctx.Err() == nil {
		n.fill(c)
	}

	return geocoding.NewResponse(n.name, []*geocoding.Candidate{c}), nil
}

// fill populates the structured fields from a reverse lookup. Failures keep
// the candidate as is.
func (n *Geocoder) fill(c *geocoding.Candidate) {
	address, err := n.geocoder.ReverseGeocode(c.Latitude, c.Longitude)
	if err != nil {
		n.logger.Warn("nominatim reverse geocode failed", "source", n.name, "error", err)

		return
	}

	if address == nil {
		return
	}

	c.Street = strings.TrimSpace(address.HouseNumber + " " + address.Street)
	c.City = address.City
	c.Region = address.State
	c.PostalCode = address.Postcode
	c.Country = address.Country

	if address.FormattedAddress != "" {
		c.StandardizedAddress = address.FormattedAddress
	}

	if raw, err := json.Marshal(address); err == nil {
		c.RawData = string(raw)
	}
}

// TypeName is the registry type of this source.
const TypeName = "nominatim"

// Register binds the nominatim source type.
func Register(r *geocoding.Registry) {
	r.RegisterSource(TypeName, newFromConfig)
}

func newFromConfig(r *geocoding.Registry, cfg geocoding.Config, section string) (geocoding.Source, error) {
	opts := []Option{WithLogger(r.Logger())}

	if v := cfg.GetDefault(section, "BaseURL", ""); v != "" {
		opts = append(opts, WithBaseURL(v))
	}

	switch v := strings.ToLower(cfg.GetDefault(section, "Reverse", "true")); v {
	case "true":
	case "false":
		opts = append(opts, WithoutReverse())
	default:
		return nil, geocoding.ConfigErrorf("nominatim %q: Reverse must be true or false, got %q", section, v)
	}

	src, err := r.NewSource(cfg, section, New(section, opts...))
	if err != nil {
		return nil, fmt.Errorf("nominatim %q: %w", section, err)
	}

	return src, nil
}
