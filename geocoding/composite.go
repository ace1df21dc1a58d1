// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jcodagnone/geochain/spatial"
)

// BatchMode selects how a Composite distributes a batch over its children.
type BatchMode int

const (
	// BatchAll visits every child and returns the responses of the last
	// one. A batch capable child gets the whole batch; at any other child
	// each request runs the full single request fallback.
	BatchAll BatchMode = iota
	// BatchFirstMatch forwards to the next child only the requests still
	// without candidates, mirroring the single request fallback.
	BatchFirstMatch
)

// ParseBatchMode accepts "all" and "first-match".
func ParseBatchMode(s string) (BatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return BatchAll, nil
	case "first-match", "firstmatch", "first_match":
		return BatchFirstMatch, nil
	}

	return BatchAll, ConfigErrorf("unknown batch mode %q", s)
}

func (m BatchMode) String() string {
	if m == BatchFirstMatch {
		return "first-match"
	}

	return "all"
}

// Composite is a Source falling back across an ordered list of children.
// It runs its own processors around the fallback like any other source.
type Composite struct {
	*Pipeline
}

type child struct {
	source Source
	batch  bool
}

type fallback struct {
	name        string
	children    []child
	reprojector spatial.Reprojector
	batchMode   BatchMode
	logger      *slog.Logger
}

// NewComposite builds a composite over children, in order. It fails with a
// configuration error when children is empty.
func NewComposite(name string, children []Source, opts ...Option) (*Composite, error) {
	if len(children) == 0 {
		return nil, ConfigErrorf("composite %q: no sources configured", name)
	}

	o := buildOptions(opts)
	f := &fallback{
		name:        name,
		children:    make([]child, len(children)),
		reprojector: o.reprojector,
		batchMode:   o.batchMode,
		logger:      o.logger.With("composite", name),
	}

	for i, s := range children {
		if s == nil {
			return nil, ConfigErrorf("composite %q: source #%d is nil", name, i)
		}

		f.children[i] = child{source: s, batch: s.SupportsBatch()}
	}

	return &Composite{Pipeline: NewPipeline(f, opts...)}, nil
}

func (c *Composite) chain() *fallback {
	f, _ := c.backend.(*fallback)

	return f
}

// Children returns the child sources in fallback order.
func (c *Composite) Children() []Source {
	f := c.chain()
	out := make([]Source, len(f.children))

	for i, ch := range f.children {
		out[i] = ch.source
	}

	return out
}

// SourceCount is the number of children.
func (c *Composite) SourceCount() int {
	return len(c.chain().children)
}

// processorLister is implemented by Pipeline and everything embedding it.
type processorLister interface {
	RequestProcessors() []RequestProcessor
	ResponseProcessors() []ResponseProcessor
}

func (c *Composite) lister(index int) processorLister {
	f := c.chain()
	if index < 0 || index >= len(f.children) {
		return nil
	}

	l, _ := f.children[index].source.(processorLister)

	return l
}

// ChildRequestProcessors returns the request processors of the child at
// index. It is empty when index is out of range or the child does not
// expose its processors.
func (c *Composite) ChildRequestProcessors(index int) []RequestProcessor {
	if l := c.lister(index); l != nil {
		return l.RequestProcessors()
	}

	return []RequestProcessor{}
}

// ChildResponseProcessors is ChildRequestProcessors for response processors.
func (c *Composite) ChildResponseProcessors(index int) []ResponseProcessor {
	if l := c.lister(index); l != nil {
		return l.ResponseProcessors()
	}

	return []ResponseProcessor{}
}

func (f *fallback) Name() string { return f.name }

// CRS is the children's common system, or empty when they disagree.
func (f *fallback) CRS() spatial.CRS {
	crs := f.children[0].source.CRS()
	for _, ch := range f.children[1:] {
		if ch.source.CRS() != crs {
			return ""
		}
	}

	return crs
}

// Lookup tries children in order and stops at the first one producing
// candidates.
func (f *fallback) Lookup(ctx context.Context, req Request) (*Response, error) {
	var last *Response

	for _, ch := range f.children {
		resp, err := ch.source.Geocode(ctx, req)
		if err != nil {
			return nil, err
		}

		if resp == nil {
			return nil, InvariantErrorf("composite %q: source %s returned no response", f.name, ch.source.Name())
		}

		last = resp

		if !resp.HasCandidates() {
			f.logger.DebugContext(ctx, "no candidates, falling back", "child", ch.source.Name())

			continue
		}

		if err := f.reproject(resp, ch.source, req.TargetCRS); err != nil {
			return nil, err
		}

		return resp, nil
	}

	if last == nil {
		return nil, InvariantErrorf("composite %q: no source produced a response", f.name)
	}

	return last, nil
}

// LookupBatch distributes reqs over the children according to the batch mode.
func (f *fallback) LookupBatch(ctx context.Context, reqs []Request) ([]*Response, error) {
	if f.batchMode == BatchFirstMatch {
		return f.lookupFirstMatch(ctx, reqs)
	}

	var responses []*Response

	for _, ch := range f.children {
		var (
			got []*Response
			err error
		)

		if ch.batch {
			got, err = f.childBatch(ctx, ch, reqs)
		} else {
			got, err = f.lookupEach(ctx, reqs)
		}

		if err != nil {
			return nil, err
		}

		if err := f.reprojectAll(got, ch.source, reqs); err != nil {
			return nil, err
		}

		responses = got
	}

	return responses, nil
}

// lookupEach runs the single request fallback over every request. It stands
// in for a child without native batch support in BatchAll mode, so such a
// position answers each request like Geocode would.
func (f *fallback) lookupEach(ctx context.Context, reqs []Request) ([]*Response, error) {
	out := make([]*Response, len(reqs))

	for i, req := range reqs {
		resp, err := f.Lookup(ctx, req)
		if err != nil {
			return nil, err
		}

		out[i] = resp
	}

	return out, nil
}

func (f *fallback) lookupFirstMatch(ctx context.Context, reqs []Request) ([]*Response, error) {
	responses := make([]*Response, len(reqs))
	pending := make([]int, len(reqs))

	for i := range pending {
		pending[i] = i
	}

	for _, ch := range f.children {
		if len(pending) == 0 {
			break
		}

		sub := make([]Request, len(pending))
		for j, i := range pending {
			sub[j] = reqs[i]
		}

		got, err := f.childBatch(ctx, ch, sub)
		if err != nil {
			return nil, err
		}

		if err := f.reprojectAll(got, ch.source, sub); err != nil {
			return nil, err
		}

		next := pending[:0]

		for j, i := range pending {
			responses[i] = got[j]
			if !got[j].HasCandidates() {
				next = append(next, i)
			}
		}

		pending = next
	}

	return responses, nil
}

func (f *fallback) childBatch(ctx context.Context, ch child, reqs []Request) ([]*Response, error) {
	var (
		got []*Response
		err error
	)

	if ch.batch {
		got, err = ch.source.GeocodeBatch(ctx, reqs)
		if err != nil {
			return nil, err
		}
	} else {
		got = make([]*Response, len(reqs))
		for i, req := range reqs {
			if got[i], err = ch.source.Geocode(ctx, req); err != nil {
				return nil, err
			}
		}
	}

	if len(got) != len(reqs) {
		return nil, InvariantErrorf("composite %q: source %s answered %d of %d requests",
			f.name, ch.source.Name(), len(got), len(reqs))
	}

	for i, resp := range got {
		if resp == nil {
			return nil, InvariantErrorf("composite %q: source %s returned no response for request #%d",
				f.name, ch.source.Name(), i)
		}
	}

	return got, nil
}

func (f *fallback) reprojectAll(responses []*Response, src Source, reqs []Request) error {
	for i, resp := range responses {
		if !resp.HasCandidates() {
			continue
		}

		if err := f.reproject(resp, src, reqs[i].TargetCRS); err != nil {
			return err
		}
	}

	return nil
}

// reproject converts the candidates of resp into target. Candidates are
// replaced by converted copies so the child's values are left untouched.
func (f *fallback) reproject(resp *Response, src Source, target spatial.CRS) error {
	from := resp.CRS.Or(src.CRS())
	resp.CRS = from

	if target.IsZero() || from.IsZero() || target == from {
		return nil
	}

	for i, c := range resp.Candidates {
		x, y, err := f.reprojector.Reproject(from, target, c.Longitude, c.Latitude)
		if err != nil {
			return &Error{
				Kind:    KindConfig,
				Message: fmt.Sprintf("composite %q: reprojecting %s result", f.name, src.Name()),
				Err:     err,
			}
		}

		moved := c.Clone()
		moved.Longitude, moved.Latitude = x, y
		resp.Candidates[i] = moved
	}

	resp.CRS = target

	return nil
}
