// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"sync"

	"github.com/jcodagnone/geochain/spatial"
)

// fakeBackend answers from a fixed table keyed by street, or with answer.
type fakeBackend struct {
	name    string
	crs     spatial.CRS
	answer  func(Request) []*Candidate
	err     error
	nilResp bool

	mu    sync.Mutex
	calls []Request
}

func (f *fakeBackend) Name() string     { return f.name }
func (f *fakeBackend) CRS() spatial.CRS { return f.crs }

func (f *fakeBackend) Lookup(_ context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	if f.nilResp {
		return nil, nil
	}

	var candidates []*Candidate
	if f.answer != nil {
		candidates = f.answer(req)
	}

	return NewResponse(f.name, candidates), nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

// fakeBatchBackend adds a native batch lookup to fakeBackend.
type fakeBatchBackend struct {
	*fakeBackend
	batches [][]Request
	short   bool
}

func (f *fakeBatchBackend) LookupBatch(ctx context.Context, reqs []Request) ([]*Response, error) {
	f.batches = append(f.batches, reqs)

	out := make([]*Response, 0, len(reqs))

	for _, req := range reqs {
		resp, err := f.fakeBackend.Lookup(ctx, req)
		if err != nil {
			return nil, err
		}

		out = append(out, resp)
	}

	if f.short && len(out) > 0 {
		out = out[:len(out)-1]
	}

	return out, nil
}

// nilSource is a broken Source returning nothing at all.
type nilSource struct{}

func (nilSource) Name() string       { return "nil" }
func (nilSource) CRS() spatial.CRS   { return "" }
func (nilSource) SupportsBatch() bool { return false }

func (nilSource) Geocode(context.Context, Request) (*Response, error) { return nil, nil }

func (nilSource) GeocodeBatch(_ context.Context, reqs []Request) ([]*Response, error) {
	return make([]*Response, len(reqs)), nil
}

func answerStreet(street string, candidates ...*Candidate) func(Request) []*Candidate {
	return func(req Request) []*Candidate {
		if req.Street != street && req.FreeText != street {
			return nil
		}

		out := make([]*Candidate, len(candidates))
		for i, c := range candidates {
			out[i] = c.Clone()
		}

		return out
	}
}

func always(candidates ...*Candidate) func(Request) []*Candidate {
	return func(Request) []*Candidate {
		out := make([]*Candidate, len(candidates))
		for i, c := range candidates {
			out[i] = c.Clone()
		}

		return out
	}
}
