// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides the HTTP plumbing shared by the remote sources.
package httputils

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// UserAgent identifies our requests to providers. Nominatim's usage policy
// requires one.
const UserAgent = "geochain (+https://github.com/jcodagnone/geochain)"

// ClientOptions configures NewClient.
type ClientOptions struct {
	Timeout time.Duration
	// Trace, when set, receives a dump of every request and response.
	Trace     io.Writer
	TraceBody bool
	Headers   map[string]string
}

// NewClient builds an http.Client with the header and tracing round trippers.
func NewClient(opts ClientOptions) *http.Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	headers := map[string]string{"User-Agent": UserAgent}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	var transport http.RoundTripper = &AppendRequestHeadersRoundTripper{
		Transport: http.DefaultTransport,
		Headers:   headers,
	}

	if opts.Trace != nil {
		transport = &LoggingRoundTripper{
			Transport: transport,
			Writer:    opts.Trace,
			DumpBody:  opts.TraceBody,
		}
	}

	return &http.Client{Timeout: opts.Timeout, Transport: transport}
}

/////////////////////////////////////////
/// RoundTrippers

// LoggingRoundTripper adds a very primitive logging to a http transaction.
// Credentials in the query string and Authorization headers are redacted.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

var secrets = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([?&](?:key|api_key|apikey|token)=)[^&\s]+`),
	regexp.MustCompile(`(?i)^(Authorization:\s*)\S.*$`),
}

func redact(line string) string {
	for _, re := range secrets {
		line = re.ReplaceAllString(line, "${1}REDACTED")
	}

	return line
}

// reduce the content of the lines.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 2048, 512

	for i, line := range lines {
		if i >= maxLines {
			break
		}

		lines[i] = fmt.Sprintf("%c %s", prefix, redact(line))
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, "…")
	}

	for i, line := range lines {
		if len(line) > maxChars {
			lines[i] = line[0:maxChars] + "…"
		}
	}

	return lines
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '>')
	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '<')

	_, err = fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", duration)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	if err := t.dumpRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := t.dumpResponse(resp, time.Since(start)); err != nil {
		return nil, err
	}

	return resp, nil
}

// AppendRequestHeadersRoundTripper adds headers the request does not set.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	for k, v := range t.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	return t.Transport.RoundTrip(req)
}

////////////////////////////////////////////////////

// StatusError reports a non 2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}

	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// AsReader returns the body of a successful response decoded to UTF-8
// according to its declared charset. mediaType, when not empty, must match
// the response content type.
func AsReader(resp *http.Response, mediaType string) (io.Reader, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	contentType := resp.Header.Get("Content-Type")

	if mediaType != "" {
		got, _, err := mime.ParseMediaType(contentType)
		if err != nil || !strings.EqualFold(got, mediaType) {
			return nil, fmt.Errorf("media type is %q, expected %s", contentType, mediaType)
		}
	}

	rr, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding %q body: %w", contentType, err)
	}

	return rr, nil
}
