// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package processors

import (
	"strings"

	"github.com/jcodagnone/geochain/geocoding"
)

// MatchTypeSelector drops candidates whose match type is set and not
// allowed. Candidates without a match type are always kept.
type MatchTypeSelector struct {
	allowed map[string]struct{}
}

// NewMatchTypeSelector builds a selector over the given match types.
func NewMatchTypeSelector(types ...string) (*MatchTypeSelector, error) {
	s := &MatchTypeSelector{allowed: make(map[string]struct{})}

	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			s.allowed[t] = struct{}{}
		}
	}

	if len(s.allowed) == 0 {
		return nil, geocoding.ConfigErrorf("match type selector: empty match type list")
	}

	return s, nil
}

// ProcessResponse implements geocoding.ResponseProcessor.
func (s *MatchTypeSelector) ProcessResponse(resp *geocoding.Response) {
	resp.Filter(func(c *geocoding.Candidate) bool {
		if c.MatchType == "" {
			return true
		}

		_, ok := s.allowed[c.MatchType]

		return ok
	})
}

func newMatchTypeSelectorFromConfig(cfg geocoding.Config, section string) (any, error) {
	list, ok := cfg.Get(section, "MatchTypes")
	if !ok {
		return nil, geocoding.ConfigErrorf("match type selector %q: MatchTypes is required", section)
	}

	return NewMatchTypeSelector(strings.Split(list, "|")...)
}
