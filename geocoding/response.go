// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"slices"

	"github.com/jcodagnone/geochain/spatial"
)

// Response aggregates the candidates a source produced for one request.
type Response struct {
	// Source names the source that produced the candidates.
	Source string `json:"source"`
	// Candidates is never nil and is kept sorted by descending score.
	Candidates []*Candidate `json:"candidates"`
	// StrictAddressMatch is false when the source ignored some of the
	// structured input.
	StrictAddressMatch bool `json:"strict_address_match"`
	// CRS is the system candidate coordinates are expressed in.
	CRS spatial.CRS `json:"crs,omitempty"`
}

// NewResponse builds a sorted response. Nil candidates are dropped.
func NewResponse(source string, candidates []*Candidate) *Response {
	r := &Response{
		Source:             source,
		Candidates:         make([]*Candidate, 0, len(candidates)),
		StrictAddressMatch: true,
	}

	for _, c := range candidates {
		if c != nil {
			r.Candidates = append(r.Candidates, c)
		}
	}

	r.Sort()

	return r
}

// Sort restores descending score order.
func (r *Response) Sort() {
	slices.SortStableFunc(r.Candidates, CompareCandidates)
}

// HasCandidates reports whether at least one candidate is present.
func (r *Response) HasCandidates() bool {
	return r != nil && len(r.Candidates) > 0
}

// Count returns the number of candidates.
func (r *Response) Count() int {
	if r == nil {
		return 0
	}

	return len(r.Candidates)
}

// Best returns the top candidate, or nil.
func (r *Response) Best() *Candidate {
	if !r.HasCandidates() {
		return nil
	}

	return r.Candidates[0]
}

// Filter keeps the candidates for which keep returns true.
func (r *Response) Filter(keep func(*Candidate) bool) {
	r.Candidates = slices.DeleteFunc(r.Candidates, func(c *Candidate) bool {
		return !keep(c)
	})
}

// Clone deep copies the response.
func (r *Response) Clone() *Response {
	out := *r
	out.Candidates = make([]*Candidate, len(r.Candidates))

	for i, c := range r.Candidates {
		out.Candidates[i] = c.Clone()
	}

	return &out
}

func (r *Response) normalize() {
	if r.Candidates == nil {
		r.Candidates = []*Candidate{}
	}

	r.Candidates = slices.DeleteFunc(r.Candidates, func(c *Candidate) bool { return c == nil })
}
