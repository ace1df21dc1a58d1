// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes a geocoding source over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/metrics"
	"github.com/jcodagnone/geochain/spatial"
	"github.com/jcodagnone/geochain/store"
)

// DefaultMaxBatch bounds the requests accepted by the batch endpoint.
const DefaultMaxBatch = 1000

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// Server serves geocoding requests.
type Server struct {
	source      geocoding.Source
	store       *store.Store
	logger      *slog.Logger
	projections spatial.Projections
	maxBatch    int
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the proximity endpoint.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxBatch bounds the batch endpoint.
func WithMaxBatch(n int) Option {
	return func(s *Server) { s.maxBatch = n }
}

// New creates a server over src.
func New(src geocoding.Source, opts ...Option) *Server {
	s := &Server{
		source:      src,
		logger:      slog.Default(),
		projections: spatial.DefaultProjections(),
		maxBatch:    DefaultMaxBatch,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID, s.observe)

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/api/geocode", s.geocode)
	r.POST("/api/geocode/batch", s.geocodeBatch)
	r.GET("/api/near", s.near)

	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("listening", "addr", addr, "source", s.source.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) requestID(ctx *gin.Context) {
	id := ctx.GetHeader(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}

	ctx.Set("request_id", id)
	ctx.Header(RequestIDHeader, id)
	ctx.Next()
}

func (s *Server) observe(ctx *gin.Context) {
	start := time.Now()

	ctx.Next()

	route := ctx.FullPath()
	if route == "" {
		route = "unmatched"
	}

	status := ctx.Writer.Status()

	metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	metrics.HTTPDurationMs.WithLabelValues(route).Observe(float64(time.Since(start).Microseconds()) / 1000)

	s.logger.Debug("http request",
		"request_id", ctx.GetString("request_id"),
		"method", ctx.Request.Method,
		"route", route,
		"status", status,
		"duration", time.Since(start),
	)
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "source": s.source.Name()})
}

// statusOf maps a geocoding failure to an HTTP status.
func statusOf(err error) int {
	var gerr *geocoding.Error
	if !errors.As(err, &gerr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}

		return http.StatusBadGateway
	}

	switch gerr.Kind {
	case geocoding.KindInvalidRequest:
		return http.StatusBadRequest
	case geocoding.KindRateLimit:
		return http.StatusTooManyRequests
	case geocoding.KindTimeout:
		return http.StatusGatewayTimeout
	case geocoding.KindConfig, geocoding.KindInvariant:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(ctx *gin.Context, err error) {
	status := statusOf(err)

	s.logger.Warn("geocoding failed", "request_id", ctx.GetString("request_id"), "status", status, "error", err)
	ctx.JSON(status, gin.H{"error": err.Error(), "request_id": ctx.GetString("request_id")})
}

func (s *Server) checkCRS(req *geocoding.Request) error {
	req.TargetCRS = spatial.ParseCRS(string(req.TargetCRS))
	if !req.TargetCRS.IsZero() && !s.projections.Supports(req.TargetCRS) {
		return fmt.Errorf("unsupported crs %q", req.TargetCRS)
	}

	return nil
}

func (s *Server) geocode(ctx *gin.Context) {
	req := geocoding.Request{
		Address: geocoding.Address{
			Street:     ctx.Query("street"),
			City:       ctx.Query("city"),
			Region:     ctx.Query("state"),
			PostalCode: ctx.Query("zip"),
			Country:    ctx.Query("country"),
		},
		FreeText:  ctx.Query("q"),
		TargetCRS: spatial.CRS(ctx.Query("crs")),
	}

	if req.IsBlank() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q or at least one address part is required"})

		return
	}

	if err := s.checkCRS(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	resp, err := s.source.Geocode(ctx.Request.Context(), req)
	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// BatchRequest is the body of the batch endpoint.
type BatchRequest struct {
	Requests []geocoding.Request `json:"requests"`
}

// BatchResponse answers a batch, one response per request in order.
type BatchResponse struct {
	JobID     string                `json:"job_id"`
	Responses []*geocoding.Response `json:"responses"`
}

func (s *Server) geocodeBatch(ctx *gin.Context) {
	var body BatchRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})

		return
	}

	if len(body.Requests) == 0 || len(body.Requests) > s.maxBatch {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("requests must hold 1 to %d entries", s.maxBatch)})

		return
	}

	for i := range body.Requests {
		if err := s.checkCRS(&body.Requests[i]); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("request %d: %v", i, err)})

			return
		}
	}

	jobID := uuid.NewString()

	s.logger.Info("batch", "job_id", jobID, "request_id", ctx.GetString("request_id"), "size", len(body.Requests))

	resps, err := s.source.GeocodeBatch(ctx.Request.Context(), body.Requests)
	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, BatchResponse{JobID: jobID, Responses: resps})
}

func (s *Server) near(ctx *gin.Context) {
	if s.store == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no store configured"})

		return
	}

	var (
		p      spatial.Point
		radius = 100.0
		err    error
	)

	if p.Lat, err = strconv.ParseFloat(ctx.Query("lat"), 64); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat parameter"})

		return
	}

	if p.Lng, err = strconv.ParseFloat(ctx.Query("lng"), 64); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng parameter"})

		return
	}

	if v := ctx.Query("radius"); v != "" {
		if radius, err = strconv.ParseFloat(v, 64); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius parameter"})

			return
		}
	}

	hits, err := s.store.Near(p, radius)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	type hit struct {
		Key       string               `json:"key"`
		Source    string               `json:"source"`
		Distance  float64              `json:"distance_m"`
		Candidate *geocoding.Candidate `json:"candidate"`
	}

	out := make([]hit, 0, len(hits))
	for _, h := range hits {
		out = append(out, hit{Key: h.Key, Source: h.Source, Distance: h.Distance, Candidate: h.Candidate})
	}

	ctx.JSON(http.StatusOK, out)
}
