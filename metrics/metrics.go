// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes Prometheus instrumentation for sources and the
// HTTP API.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/jcodagnone/geochain/geocoding"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes of a geocoding call.
const (
	OutcomeMatch = "match"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000}

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geochain_requests_total",
		Help: "Geocoded requests by source and outcome",
	}, []string{"source", "outcome"})
	CandidatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geochain_candidates_total",
		Help: "Candidates returned by source",
	}, []string{"source"})
	DurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geochain_duration_ms",
		Help:    "Geocode call duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"source", "mode"})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geochain_http_requests_total",
		Help: "HTTP API requests by route and status",
	}, []string{"route", "status"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geochain_http_duration_ms",
		Help:    "HTTP API request duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(CandidatesTotal)
	prometheus.MustRegister(DurationMs)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPDurationMs)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

// Source records every call made to the wrapped source.
type Source struct {
	geocoding.Source
}

// Instrument wraps src.
func Instrument(src geocoding.Source) *Source {
	return &Source{Source: src}
}

func (s *Source) observe(resp *geocoding.Response, err error) {
	name := s.Name()

	switch {
	case err != nil:
		RequestsTotal.WithLabelValues(name, OutcomeError).Inc()
	case resp.HasCandidates():
		RequestsTotal.WithLabelValues(name, OutcomeMatch).Inc()
		CandidatesTotal.WithLabelValues(name).Add(float64(resp.Count()))
	default:
		RequestsTotal.WithLabelValues(name, OutcomeEmpty).Inc()
	}
}

// Geocode implements geocoding.Source.
func (s *Source) Geocode(ctx context.Context, req geocoding.Request) (*geocoding.Response, error) {
	start := time.Now()
	resp, err := s.Source.Geocode(ctx, req)
	DurationMs.WithLabelValues(s.Name(), "single").Observe(sinceMs(start))
	s.observe(resp, err)

	return resp, err
}

// GeocodeBatch implements geocoding.Source. A failed batch counts one error.
func (s *Source) GeocodeBatch(ctx context.Context, reqs []geocoding.Request) ([]*geocoding.Response, error) {
	start := time.Now()
	resps, err := s.Source.GeocodeBatch(ctx, reqs)
	DurationMs.WithLabelValues(s.Name(), "batch").Observe(sinceMs(start))

	if err != nil {
		s.observe(nil, err)

		return nil, err
	}

	for _, resp := range resps {
		s.observe(resp, nil)
	}

	return resps, nil
}
