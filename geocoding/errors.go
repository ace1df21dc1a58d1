// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnknownType is wrapped by configuration errors naming an unregistered
// source or processor type.
var ErrUnknownType = errors.New("unknown type")

// Error is the error type produced by the geocoding core and its sources.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// ErrorKind classifies an Error.
type ErrorKind int

const (
	// KindUnknown is an unclassified failure.
	KindUnknown ErrorKind = iota
	// KindConfig is a construction time failure: unknown type, missing or
	// malformed parameter, empty composite.
	KindConfig
	// KindInvariant is a broken internal assumption detected at call time.
	KindInvariant
	// KindRateLimit means the provider throttled us.
	KindRateLimit
	// KindQuotaExceeded means the provider refused because of quota or credentials.
	KindQuotaExceeded
	// KindTimeout is a connection or deadline timeout.
	KindTimeout
	// KindInvalidRequest means the provider rejected the request.
	KindInvalidRequest
	// KindNetwork is a transport or upstream availability failure.
	KindNetwork
)

var kindNames = map[ErrorKind]string{
	KindUnknown:        "unknown",
	KindConfig:         "config",
	KindInvariant:      "invariant",
	KindRateLimit:      "rate_limit",
	KindQuotaExceeded:  "quota_exceeded",
	KindTimeout:        "timeout",
	KindInvalidRequest: "invalid_request",
	KindNetwork:        "network",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConfigErrorf builds a configuration error.
func ConfigErrorf(format string, args ...any) error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// InvariantErrorf builds an invariant violation.
func InvariantErrorf(format string, args ...any) error {
	return &Error{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

func kindOf(err error) (ErrorKind, bool) {
	var geoErr *Error
	if errors.As(err, &geoErr) {
		return geoErr.Kind, true
	}

	return KindUnknown, false
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	kind, _ := kindOf(err)

	return kind == KindConfig
}

// IsInvariantError reports whether err is an invariant violation.
func IsInvariantError(err error) bool {
	kind, _ := kindOf(err)

	return kind == KindInvariant
}

// IsRateLimitError reports whether err means the provider is throttling.
func IsRateLimitError(err error) bool {
	if kind, ok := kindOf(err); ok {
		return kind == KindRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err means the provider quota is exhausted.
func IsQuotaExceededError(err error) bool {
	if kind, ok := kindOf(err); ok {
		return kind == KindQuotaExceeded
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	if kind, ok := kindOf(err); ok {
		return kind == KindTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPStatus maps a provider HTTP status to an Error.
func ClassifyHTTPStatus(statusCode int) *Error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimit, Message: "rate limit reached"}
	case http.StatusForbidden, http.StatusUnauthorized:
		return &Error{Kind: KindQuotaExceeded, Message: "quota exceeded or access denied"}
	case http.StatusBadRequest:
		return &Error{Kind: KindInvalidRequest, Message: "invalid request"}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("service unavailable (status %d)", statusCode)}
	default:
		return &Error{Kind: KindUnknown, Message: fmt.Sprintf("http status %d", statusCode)}
	}
}
