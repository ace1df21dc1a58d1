// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package processors

import (
	"strings"

	"github.com/jcodagnone/geochain/geocoding"
)

// CountrySelector blanks requests whose country is not allowed, so the
// sources behind it skip them. An empty country is not allowed either.
type CountrySelector struct {
	allowed map[string]struct{}
}

// NewCountrySelector builds a selector over the given country codes.
func NewCountrySelector(countries ...string) (*CountrySelector, error) {
	s := &CountrySelector{allowed: make(map[string]struct{})}

	for _, c := range countries {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			s.allowed[c] = struct{}{}
		}
	}

	if len(s.allowed) == 0 {
		return nil, geocoding.ConfigErrorf("country selector: empty country list")
	}

	return s, nil
}

// Allows reports whether country passes, ignoring case.
func (s *CountrySelector) Allows(country string) bool {
	_, ok := s.allowed[strings.ToUpper(strings.TrimSpace(country))]

	return ok
}

// ProcessRequest implements geocoding.RequestProcessor.
func (s *CountrySelector) ProcessRequest(req geocoding.Request) geocoding.Request {
	if !s.Allows(req.Country) {
		return geocoding.BlankRequest()
	}

	return req
}

func newCountrySelectorFromConfig(cfg geocoding.Config, section string) (any, error) {
	list, ok := cfg.Get(section, "CountryList")
	if !ok {
		return nil, geocoding.ConfigErrorf("country selector %q: CountryList is required", section)
	}

	return NewCountrySelector(strings.Split(list, "|")...)
}
