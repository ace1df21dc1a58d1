// Copyright 2025 The GeoChain Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedCRS is returned when a coordinate system has no registered projection.
var ErrUnsupportedCRS = errors.New("unsupported coordinate system")

// Reprojector converts a coordinate pair between two reference systems.
// x is the easting (or longitude) and y the northing (or latitude).
type Reprojector interface {
	Reproject(from, to CRS, x, y float64) (float64, float64, error)
}

// Projection maps geographic WGS84 degrees to projected coordinates and back.
type Projection interface {
	Forward(lng, lat float64) (x, y float64)
	Inverse(x, y float64) (lng, lat float64)
}

// Projections is a Reprojector pivoting every conversion through WGS84.
type Projections map[CRS]Projection

// DefaultProjections returns the systems supported out of the box.
func DefaultProjections() Projections {
	return Projections{
		WGS84:             geographic{},
		WebMercator:       webMercator{},
		PennsylvaniaSouth: PennsylvaniaSouthProjection(),
	}
}

// Reproject implements Reprojector.
func (p Projections) Reproject(from, to CRS, x, y float64) (float64, float64, error) {
	if from == to || from.IsZero() || to.IsZero() {
		return x, y, nil
	}

	src, ok := p[from]
	if !ok {
		return 0, 0, fmt.Errorf("reprojecting from %s: %w", from, ErrUnsupportedCRS)
	}

	dst, ok := p[to]
	if !ok {
		return 0, 0, fmt.Errorf("reprojecting to %s: %w", to, ErrUnsupportedCRS)
	}

	lng, lat := src.Inverse(x, y)
	if math.IsNaN(lng) || math.IsNaN(lat) {
		return 0, 0, fmt.Errorf("reprojecting (%f, %f) from %s: coordinates out of domain", x, y, from)
	}

	rx, ry := dst.Forward(lng, lat)

	return rx, ry, nil
}

// Supports reports whether crs has a registered projection.
func (p Projections) Supports(crs CRS) bool {
	_, ok := p[crs]

	return ok
}

type geographic struct{}

func (geographic) Forward(lng, lat float64) (float64, float64) { return lng, lat }
func (geographic) Inverse(x, y float64) (float64, float64)     { return x, y }

const mercatorRadius = 6378137.0

type webMercator struct{}

// mercator is undefined at the poles, clamp like the tile services do.
const maxMercatorLat = 85.05112877980659

func (webMercator) Forward(lng, lat float64) (float64, float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))

	x := mercatorRadius * lng * math.Pi / 180
	y := mercatorRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))

	return x, y
}

func (webMercator) Inverse(x, y float64) (float64, float64) {
	lng := x / mercatorRadius * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/mercatorRadius)) - math.Pi/2) * 180 / math.Pi

	return lng, lat
}
