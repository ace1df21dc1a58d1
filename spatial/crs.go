// Copyright 2025 The GeoChain Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"strings"
)

// CRS identifies a coordinate reference system, normally as "EPSG:<code>".
// The zero value means "whatever the producing source declares".
type CRS string

const (
	// WGS84 is geographic longitude/latitude in degrees.
	WGS84 CRS = "EPSG:4326"
	// WebMercator is the spherical mercator used by web tiles, in meters.
	WebMercator CRS = "EPSG:3857"
	// PennsylvaniaSouth is NAD83 / Pennsylvania South in US survey feet.
	PennsylvaniaSouth CRS = "EPSG:2272"
)

var crsAliases = map[string]CRS{
	"4326":        WGS84,
	"WGS84":       WGS84,
	"WGS 84":      WGS84,
	"CRS84":       WGS84,
	"3857":        WebMercator,
	"900913":      WebMercator,
	"EPSG:900913": WebMercator,
	"2272":        PennsylvaniaSouth,
}

// ParseCRS normalises a user supplied identifier. Unknown identifiers are
// returned upper-cased so the reprojector can report them.
func ParseCRS(s string) CRS {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	if crs, ok := crsAliases[s]; ok {
		return crs
	}

	return CRS(s)
}

// IsZero reports whether no system was specified.
func (c CRS) IsZero() bool {
	return c == ""
}

// Or returns c, or fallback when c is unset.
func (c CRS) Or(fallback CRS) CRS {
	if c.IsZero() {
		return fallback
	}

	return c
}

func (c CRS) String() string {
	return string(c)
}
