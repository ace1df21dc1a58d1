// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package nominatim

import (
	"context"
	"errors"
	"testing"

	geo "github.com/codingsince1985/geo-golang"
	"github.com/jcodagnone/geochain/config"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	location   *geo.Location
	address    *geo.Address
	err        error
	reverseErr error
	queries    []string
	reverses   int
}

func (f *fakeGeocoder) Geocode(address string) (*geo.Location, error) {
	f.queries = append(f.queries, address)

	return f.location, f.err
}

func (f *fakeGeocoder) ReverseGeocode(_, _ float64) (*geo.Address, error) {
	f.reverses++

	return f.address, f.reverseErr
}

func TestLookupFillsFields(t *testing.T) {
	fake := &fakeGeocoder{
		location: &geo.Location{Lat: 39.9589, Lng: -75.1590},
		address: &geo.Address{
			FormattedAddress: "340, North 12th Street, Philadelphia, Pennsylvania, 19107, United States",
			HouseNumber:      "340",
			Street:           "North 12th Street",
			City:             "Philadelphia",
			State:            "Pennsylvania",
			Postcode:         "19107",
			Country:          "United States",
			CountryCode:      "US",
		},
	}

	n := New("osm", WithGeocoder(fake))

	resp, err := n.Lookup(context.Background(), geocoding.Request{FreeText: "340 N 12th St, Philadelphia"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count())

	c := resp.Best()
	assert.Equal(t, MatchType, c.MatchType)
	assert.InDelta(t, Score, c.MatchScore, 1e-9)
	assert.Equal(t, "340 North 12th Street", c.Street)
	assert.Equal(t, "Philadelphia", c.City)
	assert.Equal(t, "Pennsylvania", c.Region)
	assert.Equal(t, "19107", c.PostalCode)
	assert.Equal(t, "United States", c.Country)
	assert.Equal(t, fake.address.FormattedAddress, c.StandardizedAddress)
	assert.Contains(t, c.RawData, "North 12th Street")
	assert.Equal(t, []string{"340 N 12th St, Philadelphia"}, fake.queries)
}

func TestLookupNotFound(t *testing.T) {
	fake := &fakeGeocoder{}
	n := New("osm", WithGeocoder(fake))

	resp, err := n.Lookup(context.Background(), geocoding.Request{FreeText: "nowhere"})
	require.NoError(t, err)
	assert.False(t, resp.HasCandidates())
	assert.Zero(t, fake.reverses)
}

func TestLookupErrors(t *testing.T) {
	fake := &fakeGeocoder{err: errors.New("connection refused")}
	n := New("osm", WithGeocoder(fake))

	_, err := n.Lookup(context.Background(), geocoding.Request{FreeText: "x"})
	require.Error(t, err)

	var gerr *geocoding.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, geocoding.KindNetwork, gerr.Kind)
}

func TestLookupReverseFailureKeepsCandidate(t *testing.T) {
	fake := &fakeGeocoder{
		location:   &geo.Location{Lat: 1, Lng: 2},
		reverseErr: errors.New("boom"),
	}
	n := New("osm", WithGeocoder(fake))

	resp, err := n.Lookup(context.Background(), geocoding.Request{FreeText: "x"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count())
	assert.Equal(t, "x", resp.Best().StandardizedAddress)
	assert.Empty(t, resp.Best().City)
}

func TestLookupWithoutReverse(t *testing.T) {
	fake := &fakeGeocoder{location: &geo.Location{Lat: 1, Lng: 2}}
	n := New("osm", WithGeocoder(fake), WithoutReverse())

	_, err := n.Lookup(context.Background(), geocoding.Request{FreeText: "x"})
	require.NoError(t, err)
	assert.Zero(t, fake.reverses)
}

func TestLookupCancelled(t *testing.T) {
	fake := &fakeGeocoder{}
	n := New("osm", WithGeocoder(fake))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.Lookup(ctx, geocoding.Request{FreeText: "x"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.queries)
}

func TestRegister(t *testing.T) {
	r := geocoding.NewRegistry()
	Register(r)

	cfg := config.New("")
	cfg.AddSection("osm", config.Param{Key: "Reverse", Value: "false"})

	src, err := r.BuildSource(cfg, TypeName, "osm")
	require.NoError(t, err)
	assert.Equal(t, "osm", src.Name())

	cfg.Set("osm", "Reverse", "maybe")

	_, err = r.BuildSource(cfg, TypeName, "osm")
	assert.True(t, geocoding.IsConfigError(err))
}
