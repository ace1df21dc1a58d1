// Copyright 2025 The GeoChain Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds coordinate types, coordinate reference systems and
// the reprojection service used to reconcile results from different sources.
package spatial

import (
	"fmt"
	"math"
)

// earthRadius is the mean radius in meters.
const earthRadius = 6371e3

// Point is a WGS84 position, or an easting (Lng) and northing (Lat) pair
// once reprojected.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders the point as WKT.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Valid reports whether the point lies in the WGS84 domain.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p *Point) parseWKT(s string) error {
	if _, err := fmt.Sscanf(s, "POINT (%f %f)", &p.Lng, &p.Lat); err != nil {
		return fmt.Errorf("spatial: parsing %q: %w", s, err)
	}

	return nil
}

// Scan implements sql.Scanner. DuckDB returns STRUCT(x, y) columns as maps
// and geometries as WKT text.
func (p *Point) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*p = Point{}

		return nil
	case []byte:
		return p.parseWKT(string(v))
	case string:
		return p.parseWKT(v)
	case map[string]any:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: point struct needs float64 x and y, got %+v", v)
		}

		p.Lng, p.Lat = x, y

		return nil
	}

	return fmt.Errorf("spatial: cannot scan %T into a Point", value)
}

// DistanceTo is the great circle distance to q in meters.
func (p Point) DistanceTo(q Point) float64 {
	dLat := radians(q.Lat - p.Lat)
	dLng := radians(q.Lng - p.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(p.Lat))*math.Cos(radians(q.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadius * math.Asin(math.Sqrt(math.Min(1, h)))
}
