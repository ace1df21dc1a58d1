// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package processors

import (
	"regexp"
	"strings"

	"github.com/jcodagnone/geochain/geocoding"
)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// TextReplacer rewrites one candidate field with a regular expression. The
// replacement may reference other fields of the same candidate as {Field};
// those are substituted before the expression is applied.
type TextReplacer struct {
	field       string
	find        *regexp.Regexp
	replaceWith string
}

// NewTextReplacer builds a replacer for field.
func NewTextReplacer(field, find, replaceWith string) (*TextReplacer, error) {
	if (&geocoding.Candidate{}).Field(field) == nil {
		return nil, geocoding.ConfigErrorf("text replacer: %q names no candidate field", field)
	}

	re, err := regexp.Compile(find)
	if err != nil {
		return nil, geocoding.ConfigErrorf("text replacer: pattern %q: %v", find, err)
	}

	return &TextReplacer{field: field, find: re, replaceWith: replaceWith}, nil
}

func (r *TextReplacer) expand(c *geocoding.Candidate) string {
	return placeholder.ReplaceAllStringFunc(r.replaceWith, func(m string) string {
		v, ok := geocoding.GetField(c, m[1:len(m)-1])
		if !ok {
			return m
		}

		return strings.ReplaceAll(v, "$", "$$")
	})
}

// ProcessResponse implements geocoding.ResponseProcessor.
func (r *TextReplacer) ProcessResponse(resp *geocoding.Response) {
	for _, c := range resp.Candidates {
		target := c.Field(r.field)
		*target = r.find.ReplaceAllString(*target, r.expand(c))
	}
}

func newTextReplacerFromConfig(cfg geocoding.Config, section string) (any, error) {
	var values [3]string

	for i, key := range []string{"ReplaceField", "Find", "ReplaceWith"} {
		v, ok := cfg.Get(section, key)
		if !ok {
			return nil, geocoding.ConfigErrorf("text replacer %q: %s is required", section, key)
		}

		values[i] = v
	}

	return NewTextReplacer(values[0], values[1], values[2])
}
