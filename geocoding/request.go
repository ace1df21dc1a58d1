// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"strings"

	"github.com/jcodagnone/geochain/spatial"
)

// Request is the input of a geocode call. It is a value: every pipeline
// stage receives and returns its own copy.
type Request struct {
	Address

	// FreeText is unparsed input and takes precedence over the structured
	// parts when present.
	FreeText string `json:"free_text,omitempty"`
	// TargetCRS, when set, is the system the returned coordinates must be
	// expressed in.
	TargetCRS spatial.CRS `json:"target_crs,omitempty"`
}

// Clone returns an independent copy.
func (r Request) Clone() Request {
	return r
}

// BlankRequest is the sentinel a request processor returns to tell
// downstream sources to skip the lookup.
func BlankRequest() Request {
	return Request{}
}

// IsBlank reports whether the request carries nothing to look up.
func (r Request) IsBlank() bool {
	return r.Address.IsEmpty() && strings.TrimSpace(r.FreeText) == ""
}

// Text is what a single line provider should be asked for.
func (r Request) Text() string {
	if s := strings.TrimSpace(r.FreeText); s != "" {
		return s
	}

	return r.TextString()
}

// Field extends Address.Field with the free text.
func (r *Request) Field(name string) *string {
	switch strings.ToLower(name) {
	case "freetext", "free_text", "textstring", "text":
		return &r.FreeText
	}

	return r.Address.Field(name)
}

// TextFields returns pointers to every textual part, free text first.
func (r *Request) TextFields() []*string {
	return []*string{&r.FreeText, &r.Street, &r.City, &r.Region, &r.PostalCode, &r.Country}
}

// Key is a canonical form of the request, used for caching.
func (r Request) Key() string {
	parts := []string{r.FreeText, r.Street, r.City, r.Region, r.PostalCode, r.Country, string(r.TargetCRS)}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.Join(strings.Fields(p), " "))
	}

	return strings.Join(parts, "|")
}
