// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package processors

import (
	"regexp"
	"strings"

	"github.com/jcodagnone/geochain/config"
	"github.com/jcodagnone/geochain/geocoding"
)

const (
	patternSuffix = "re"
	concatSuffix  = "concat"
)

// AddressSplitter parses a single line address into fields. It tries its
// patterns in order and uses the first that matches: every named group
// naming a field sets it. When several groups share a name their captures
// are joined with the field's configured joiner; without a joiner the
// field is left as is.
//
// Go regular expressions keep only the last capture of a repeated group,
// so `(?:(?P<Address>\w+) )+` sets Address to its final word. Patterns
// that need several pieces of a field must repeat the group name instead.
//
// On requests it parses the free text, on responses the standardized
// address of each candidate.
type AddressSplitter struct {
	patterns []*regexp.Regexp
	joiners  map[string]string
}

// NewAddressSplitter builds a splitter from parameters ending in "re"
// (patterns, matched ignoring case, in order) and "<Field>Concat" (joiners).
func NewAddressSplitter(params ...config.Param) (*AddressSplitter, error) {
	s := &AddressSplitter{joiners: make(map[string]string)}

	for _, p := range params {
		key := strings.ToLower(p.Key)

		switch {
		case strings.HasSuffix(key, concatSuffix):
			s.joiners[strings.TrimSuffix(key, concatSuffix)] = p.Value
		case strings.HasSuffix(key, patternSuffix):
			re, err := regexp.Compile("(?i)" + p.Value)
			if err != nil {
				return nil, geocoding.ConfigErrorf("address splitter: pattern %s: %v", p.Key, err)
			}

			s.patterns = append(s.patterns, re)
		}
	}

	if len(s.patterns) == 0 {
		return nil, geocoding.ConfigErrorf("address splitter: no patterns configured")
	}

	return s, nil
}

// Split parses text into fs. It reports whether a pattern matched.
func (s *AddressSplitter) Split(text string, fs geocoding.FieldSet) bool {
	for _, re := range s.patterns {
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}

		captures := make(map[string][]string)
		order := make([]string, 0)

		for i, name := range re.SubexpNames() {
			if name == "" || m[2*i] < 0 {
				continue
			}

			if _, seen := captures[name]; !seen {
				order = append(order, name)
			}

			captures[name] = append(captures[name], strings.TrimSpace(text[m[2*i]:m[2*i+1]]))
		}

		for _, name := range order {
			values := captures[name]

			switch {
			case len(values) == 1:
				geocoding.SetField(fs, name, values[0])
			case len(values) > 1:
				if joiner, ok := s.joiners[strings.ToLower(name)]; ok {
					geocoding.SetField(fs, name, strings.Join(values, joiner))
				}
			}
		}

		return true
	}

	return false
}

// ProcessRequest implements geocoding.RequestProcessor.
func (s *AddressSplitter) ProcessRequest(req geocoding.Request) geocoding.Request {
	if req.FreeText != "" {
		s.Split(req.FreeText, &req)
	}

	return req
}

// ProcessResponse implements geocoding.ResponseProcessor.
func (s *AddressSplitter) ProcessResponse(resp *geocoding.Response) {
	for _, c := range resp.Candidates {
		if c.StandardizedAddress != "" {
			s.Split(c.StandardizedAddress, c)
		}
	}
}

func newAddressSplitterFromConfig(cfg geocoding.Config, section string) (any, error) {
	return NewAddressSplitter(cfg.Params(section)...)
}
