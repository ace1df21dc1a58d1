// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

// RequestProcessor transforms a request before the lookup. It receives its
// own copy and returns the transformed request; returning BlankRequest()
// asks downstream sources to skip the lookup.
type RequestProcessor interface {
	ProcessRequest(req Request) Request
}

// ResponseProcessor filters, rewrites or rescores the candidates of a
// response in place. An empty candidate list is a no-op.
type ResponseProcessor interface {
	ProcessResponse(resp *Response)
}

// RequestProcessorFunc adapts a function to RequestProcessor.
type RequestProcessorFunc func(Request) Request

// ProcessRequest implements RequestProcessor.
func (f RequestProcessorFunc) ProcessRequest(req Request) Request { return f(req) }

// ResponseProcessorFunc adapts a function to ResponseProcessor.
type ResponseProcessorFunc func(*Response)

// ProcessResponse implements ResponseProcessor.
func (f ResponseProcessorFunc) ProcessResponse(resp *Response) { f(resp) }

// SplitProcessors sorts processors into the request and response lists,
// keeping their relative order. A value implementing both contracts lands
// in both lists. It returns false if some value implements neither.
func SplitProcessors(processors ...any) ([]RequestProcessor, []ResponseProcessor, bool) {
	var (
		reqs  []RequestProcessor
		resps []ResponseProcessor
		ok    = true
	)

	for _, p := range processors {
		rq, isReq := p.(RequestProcessor)
		rs, isResp := p.(ResponseProcessor)

		if isReq {
			reqs = append(reqs, rq)
		}

		if isResp {
			resps = append(resps, rs)
		}

		if !isReq && !isResp {
			ok = false
		}
	}

	return reqs, resps, ok
}
