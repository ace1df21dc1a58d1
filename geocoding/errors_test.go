// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsConfigError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "config error", err: ConfigErrorf("missing %s", "x"), want: true},
		{name: "wrapped config error", err: fmt.Errorf("building: %w", ConfigErrorf("x")), want: true},
		{name: "invariant error", err: InvariantErrorf("x"), want: false},
		{name: "plain error", err: errors.New("config"), want: false},
	}, IsConfigError)
}

func TestIsInvariantError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "invariant error", err: InvariantErrorf("x"), want: true},
		{name: "config error", err: ConfigErrorf("x"), want: false},
	}, IsInvariantError)
}

func TestIsRateLimitError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "rate limit kind", err: &Error{Kind: KindRateLimit, Message: "slow down"}, want: true},
		{name: "message contains rate limit", err: errors.New("rate limit exceeded"), want: true},
		{name: "message contains too many requests", err: errors.New("too many requests"), want: true},
		{name: "message contains 429", err: errors.New("nominatim returned status 429"), want: true},
		{name: "other kind", err: &Error{Kind: KindTimeout, Message: "rate limit"}, want: false},
		{name: "generic error", err: errors.New("boom"), want: false},
	}, IsRateLimitError)
}

func TestIsQuotaExceededError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "quota kind", err: &Error{Kind: KindQuotaExceeded, Message: "no"}, want: true},
		{name: "google status", err: errors.New("google maps status: OVER_QUERY_LIMIT"), want: true},
		{name: "generic error", err: errors.New("boom"), want: false},
	}, IsQuotaExceededError)
}

func TestIsTimeoutError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "timeout kind", err: &Error{Kind: KindTimeout, Message: "late"}, want: true},
		{name: "deadline", err: errors.New("context deadline exceeded"), want: true},
		{name: "generic error", err: errors.New("boom"), want: false},
	}, IsTimeoutError)
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusForbidden, KindQuotaExceeded},
		{http.StatusUnauthorized, KindQuotaExceeded},
		{http.StatusBadRequest, KindInvalidRequest},
		{http.StatusBadGateway, KindNetwork},
		{http.StatusTeapot, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if got := ClassifyHTTPStatus(tt.status).Kind; got != tt.want {
				t.Errorf("ClassifyHTTPStatus(%d) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &Error{Kind: KindNetwork, Message: "outer", Err: inner}

	if !errors.Is(err, inner) {
		t.Errorf("errors.Is(%v, inner) = false", err)
	}

	if got, want := err.Error(), "outer: inner"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if got := ErrorKind(99).String(); got != "kind(99)" {
		t.Errorf("String() = %q", got)
	}
}
