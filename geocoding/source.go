// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding is the orchestration core: the address model, the
// processor pipeline every source runs, the composite source that falls
// back across children, and the registry that builds all of it from
// configuration.
package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcodagnone/geochain/spatial"
)

// Source resolves requests into responses. Implementations are safe for
// concurrent use once constructed.
type Source interface {
	Name() string
	// CRS is the system the source reports coordinates in. Empty means it
	// varies per response.
	CRS() spatial.CRS
	// Geocode never returns a nil response together with a nil error.
	Geocode(ctx context.Context, req Request) (*Response, error)
	// GeocodeBatch returns one response per request, in request order.
	GeocodeBatch(ctx context.Context, reqs []Request) ([]*Response, error)
	// SupportsBatch reports whether GeocodeBatch is native rather than a
	// loop over Geocode.
	SupportsBatch() bool
}

// Backend is the source specific lookup a Pipeline wraps.
type Backend interface {
	Name() string
	CRS() spatial.CRS
	Lookup(ctx context.Context, req Request) (*Response, error)
}

// BatchBackend is a Backend with a native batch lookup.
type BatchBackend interface {
	Backend
	LookupBatch(ctx context.Context, reqs []Request) ([]*Response, error)
}

// Pipeline is a Source running request processors, a Backend lookup and
// response processors, in that order.
type Pipeline struct {
	backend            Backend
	batch              BatchBackend
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
	logger             *slog.Logger
}

type options struct {
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
	logger             *slog.Logger
	reprojector        spatial.Reprojector
	batchMode          BatchMode
}

// Option configures a Pipeline or a Composite.
type Option func(*options)

// WithRequestProcessors appends request processors.
func WithRequestProcessors(p ...RequestProcessor) Option {
	return func(o *options) { o.requestProcessors = append(o.requestProcessors, p...) }
}

// WithResponseProcessors appends response processors.
func WithResponseProcessors(p ...ResponseProcessor) Option {
	return func(o *options) { o.responseProcessors = append(o.responseProcessors, p...) }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithReprojector sets the reprojection service used by a Composite.
func WithReprojector(r spatial.Reprojector) Option {
	return func(o *options) { o.reprojector = r }
}

// WithBatchMode sets how a Composite distributes batches.
func WithBatchMode(m BatchMode) Option {
	return func(o *options) { o.batchMode = m }
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	if o.reprojector == nil {
		o.reprojector = spatial.DefaultProjections()
	}

	return o
}

// NewPipeline wraps backend. Batch capability is resolved here, once.
func NewPipeline(backend Backend, opts ...Option) *Pipeline {
	o := buildOptions(opts)

	p := &Pipeline{
		backend:            backend,
		requestProcessors:  o.requestProcessors,
		responseProcessors: o.responseProcessors,
		logger:             o.logger.With("source", backend.Name()),
	}

	if b, ok := backend.(BatchBackend); ok {
		p.batch = b
	}

	return p
}

// Name implements Source.
func (p *Pipeline) Name() string { return p.backend.Name() }

// CRS implements Source.
func (p *Pipeline) CRS() spatial.CRS { return p.backend.CRS() }

// SupportsBatch implements Source.
func (p *Pipeline) SupportsBatch() bool { return p.batch != nil }

// Backend returns the wrapped lookup.
func (p *Pipeline) Backend() Backend { return p.backend }

// RequestProcessors returns a copy of the request processors, in order.
// It is never nil.
func (p *Pipeline) RequestProcessors() []RequestProcessor {
	return append([]RequestProcessor{}, p.requestProcessors...)
}

// ResponseProcessors returns a copy of the response processors, in order.
func (p *Pipeline) ResponseProcessors() []ResponseProcessor {
	return append([]ResponseProcessor{}, p.responseProcessors...)
}

func (p *Pipeline) processRequest(req Request) Request {
	for _, rp := range p.requestProcessors {
		req = rp.ProcessRequest(req.Clone())
	}

	return req
}

func (p *Pipeline) processResponse(resp *Response) {
	resp.normalize()

	if resp.Source == "" {
		resp.Source = p.Name()
	}

	if resp.CRS.IsZero() {
		resp.CRS = p.CRS()
	}

	for _, rp := range p.responseProcessors {
		rp.ProcessResponse(resp)
	}

	resp.Sort()
}

func (p *Pipeline) lookup(ctx context.Context, req Request) (*Response, error) {
	if req.IsBlank() {
		return NewResponse(p.Name(), nil), nil
	}

	start := time.Now()

	resp, err := p.backend.Lookup(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("geocoding with %s: %w", p.Name(), err)
	}

	if resp == nil {
		resp = NewResponse(p.Name(), nil)
	}

	p.logger.DebugContext(ctx, "lookup", "candidates", resp.Count(), "elapsed", time.Since(start))

	return resp, nil
}

// Geocode implements Source.
func (p *Pipeline) Geocode(ctx context.Context, req Request) (*Response, error) {
	req = p.processRequest(req)

	resp, err := p.lookup(ctx, req)
	if err != nil {
		return nil, err
	}

	p.processResponse(resp)

	return resp, nil
}

// GeocodeBatch implements Source. Requests are pre-processed independently,
// looked up with the native batch call when the backend has one, and
// post-processed independently.
func (p *Pipeline) GeocodeBatch(ctx context.Context, reqs []Request) ([]*Response, error) {
	processed := make([]Request, len(reqs))
	for i, req := range reqs {
		processed[i] = p.processRequest(req)
	}

	var (
		responses []*Response
		err       error
	)

	if p.batch != nil {
		responses, err = p.lookupBatch(ctx, processed)
	} else {
		responses = make([]*Response, len(processed))
		for i, req := range processed {
			if responses[i], err = p.lookup(ctx, req); err != nil {
				break
			}
		}
	}

	if err != nil {
		return nil, err
	}

	for _, resp := range responses {
		p.processResponse(resp)
	}

	return responses, nil
}

// lookupBatch hands the non blank requests to the native batch lookup and
// stitches the answers back in request order.
func (p *Pipeline) lookupBatch(ctx context.Context, reqs []Request) ([]*Response, error) {
	responses := make([]*Response, len(reqs))
	pending := make([]Request, 0, len(reqs))
	index := make([]int, 0, len(reqs))

	for i, req := range reqs {
		if req.IsBlank() {
			responses[i] = NewResponse(p.Name(), nil)

			continue
		}

		pending = append(pending, req)
		index = append(index, i)
	}

	if len(pending) == 0 {
		return responses, nil
	}

	start := time.Now()

	got, err := p.batch.LookupBatch(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("batch geocoding with %s: %w", p.Name(), err)
	}

	if len(got) != len(pending) {
		return nil, InvariantErrorf("source %s answered %d of %d requests", p.Name(), len(got), len(pending))
	}

	for j, resp := range got {
		if resp == nil {
			resp = NewResponse(p.Name(), nil)
		}

		responses[index[j]] = resp
	}

	p.logger.DebugContext(ctx, "batch lookup", "requests", len(pending), "elapsed", time.Since(start))

	return responses, nil
}
