// Copyright 2025 The GeoChain Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import "math"

// GRS80 ellipsoid, used by NAD83.
const (
	grs80A = 6378137.0
	grs80F = 1 / 298.257222101
)

// USSurveyFoot expressed in meters.
const USSurveyFoot = 0.3048006096012192

// LambertConformal is a two standard parallel Lambert conformal conic
// projection on an ellipsoid.
type LambertConformal struct {
	e       float64
	n       float64
	af      float64 // a * F
	rho0    float64
	lng0    float64
	falseE  float64
	falseN  float64
	toMeter float64
}

// LambertParams describes a LambertConformal projection. Angles are in
// degrees, false easting/northing in meters.
type LambertParams struct {
	Lat1, Lat2, Lat0, Lng0 float64
	FalseEasting           float64
	FalseNorthing          float64
	SemiMajor, Flattening  float64
	UnitToMeter            float64
}

// NewLambertConformal precomputes the projection constants.
func NewLambertConformal(p LambertParams) *LambertConformal {
	e2 := p.Flattening * (2 - p.Flattening)
	l := &LambertConformal{
		e:       math.Sqrt(e2),
		lng0:    radians(p.Lng0),
		falseE:  p.FalseEasting,
		falseN:  p.FalseNorthing,
		toMeter: p.UnitToMeter,
	}

	if l.toMeter == 0 {
		l.toMeter = 1
	}

	phi1, phi2, phi0 := radians(p.Lat1), radians(p.Lat2), radians(p.Lat0)
	m1, m2 := l.m(phi1), l.m(phi2)
	t1, t2, t0 := l.t(phi1), l.t(phi2), l.t(phi0)

	if p.Lat1 == p.Lat2 {
		l.n = math.Sin(phi1)
	} else {
		l.n = (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	}

	f := m1 / (l.n * math.Pow(t1, l.n))
	l.af = p.SemiMajor * f
	l.rho0 = l.af * math.Pow(t0, l.n)

	return l
}

// PennsylvaniaSouthProjection returns EPSG:2272.
func PennsylvaniaSouthProjection() *LambertConformal {
	return NewLambertConformal(LambertParams{
		Lat1:         40.96666666666667,
		Lat2:         39.93333333333333,
		Lat0:         39.33333333333334,
		Lng0:         -77.75,
		FalseEasting: 600000,
		SemiMajor:    grs80A,
		Flattening:   grs80F,
		UnitToMeter:  USSurveyFoot,
	})
}

func (l *LambertConformal) m(phi float64) float64 {
	s := l.e * math.Sin(phi)

	return math.Cos(phi) / math.Sqrt(1-s*s)
}

func (l *LambertConformal) t(phi float64) float64 {
	s := l.e * math.Sin(phi)

	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-s)/(1+s), l.e/2)
}

// Forward implements Projection.
func (l *LambertConformal) Forward(lng, lat float64) (float64, float64) {
	rho := l.af * math.Pow(l.t(radians(lat)), l.n)
	theta := l.n * (radians(lng) - l.lng0)

	x := l.falseE + rho*math.Sin(theta)
	y := l.falseN + l.rho0 - rho*math.Cos(theta)

	return x / l.toMeter, y / l.toMeter
}

// Inverse implements Projection.
func (l *LambertConformal) Inverse(x, y float64) (float64, float64) {
	dx := x*l.toMeter - l.falseE
	dy := l.rho0 - (y*l.toMeter - l.falseN)

	rho := math.Copysign(math.Hypot(dx, dy), l.n)
	if l.n < 0 {
		dx, dy = -dx, -dy
	}

	t := math.Pow(rho/l.af, 1/l.n)
	theta := math.Atan2(dx, dy)

	phi := math.Pi/2 - 2*math.Atan(t)
	for range 15 {
		s := l.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-s)/(1+s), l.e/2))

		if math.Abs(next-phi) < 1e-12 {
			phi = next

			break
		}

		phi = next
	}

	return degrees(theta/l.n + l.lng0), degrees(phi)
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
