// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"cmp"
	"strings"

	"github.com/jcodagnone/geochain/spatial"
)

// Candidate is one proposed match for a request. Latitude and Longitude are
// expressed in the coordinate system of the response carrying it; for
// projected systems Longitude holds the easting and Latitude the northing.
type Candidate struct {
	Address

	MatchScore          float64 `json:"match_score"`
	MatchType           string  `json:"match_type,omitempty"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	StandardizedAddress string  `json:"standardized_address,omitempty"`
	RawData             string  `json:"raw_data,omitempty"`
}

// Clone returns an independent copy.
func (c *Candidate) Clone() *Candidate {
	out := *c

	return &out
}

// Point returns the coordinates as a spatial.Point.
func (c *Candidate) Point() spatial.Point {
	return spatial.Point{Lat: c.Latitude, Lng: c.Longitude}
}

// Field extends Address.Field with the candidate text fields.
func (c *Candidate) Field(name string) *string {
	switch strings.ToLower(name) {
	case "standardizedaddress", "standardized_address":
		return &c.StandardizedAddress
	case "matchtype", "match_type":
		return &c.MatchType
	case "rawdata", "raw_data":
		return &c.RawData
	}

	return c.Address.Field(name)
}

// CompareCandidates orders by descending MatchScore. Ties compare equal.
func CompareCandidates(a, b *Candidate) int {
	return cmp.Compare(b.MatchScore, a.MatchScore)
}

// CompareTo compares c with other, which must be a *Candidate.
func (c *Candidate) CompareTo(other any) (int, error) {
	o, ok := other.(*Candidate)
	if !ok || o == nil {
		return 0, InvariantErrorf("cannot compare a candidate with %T", other)
	}

	return CompareCandidates(c, o), nil
}
