// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache memoizes source responses in Redis or in process memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/spatial"
	"github.com/redis/go-redis/v9"
)

// Store is where cached responses live.
type Store interface {
	// Get returns the value under key; ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// RedisStore keeps entries in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore stores entries under prefix with the given TTL.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// MemoryStore is a bounded in-process LRU with expiration.
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryStore keeps up to size entries for ttl.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)

	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.lru.Add(key, value)

	return nil
}

// Backend serves requests from a Store and forwards misses to the wrapped
// source. Store failures are logged and treated as misses.
type Backend struct {
	source geocoding.Source
	store  Store
	logger *slog.Logger
}

// BatchBackend is a Backend over a source with native batch support. Only
// the misses of a batch are forwarded, in one call.
type BatchBackend struct {
	*Backend
}

// New wraps source. The result is a BatchBackend when source supports batch.
func New(source geocoding.Source, store Store, logger *slog.Logger) geocoding.Backend {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Backend{source: source, store: store, logger: logger}

	if source.SupportsBatch() {
		return &BatchBackend{Backend: b}
	}

	return b
}

func (b *Backend) Name() string { return b.source.Name() }

func (b *Backend) CRS() spatial.CRS { return b.source.CRS() }

func (b *Backend) key(req geocoding.Request) string {
	return b.source.Name() + "|" + req.Key()
}

func (b *Backend) get(ctx context.Context, req geocoding.Request) *geocoding.Response {
	raw, ok, err := b.store.Get(ctx, b.key(req))
	if err != nil {
		b.logger.Warn("cache read failed", "source", b.source.Name(), "error", err)

		return nil
	}

	if !ok {
		return nil
	}

	var resp geocoding.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		b.logger.Warn("discarding corrupt cache entry", "source", b.source.Name(), "error", err)

		return nil
	}

	if resp.Candidates == nil {
		resp.Candidates = []*geocoding.Candidate{}
	}

	return &resp
}

func (b *Backend) put(ctx context.Context, req geocoding.Request, resp *geocoding.Response) {
	raw, err := json.Marshal(resp)
	if err != nil {
		b.logger.Warn("encoding cache entry", "source", b.source.Name(), "error", err)

		return
	}

	if err := b.store.Set(ctx, b.key(req), raw); err != nil {
		b.logger.Warn("cache write failed", "source", b.source.Name(), "error", err)
	}
}

// Lookup implements geocoding.Backend.
func (b *Backend) Lookup(ctx context.Context, req geocoding.Request) (*geocoding.Response, error) {
	if resp := b.get(ctx, req); resp != nil {
		return resp, nil
	}

	resp, err := b.source.Geocode(ctx, req)
	if err != nil {
		return nil, err
	}

	b.put(ctx, req, resp)

	return resp, nil
}

// LookupBatch implements geocoding.BatchBackend.
func (b *BatchBackend) LookupBatch(ctx context.Context, reqs []geocoding.Request) ([]*geocoding.Response, error) {
	responses := make([]*geocoding.Response, len(reqs))

	var (
		misses []geocoding.Request
		index  []int
	)

	for i, req := range reqs {
		if resp := b.get(ctx, req); resp != nil {
			responses[i] = resp

			continue
		}

		misses = append(misses, req)
		index = append(index, i)
	}

	if len(misses) == 0 {
		return responses, nil
	}

	fetched, err := b.source.GeocodeBatch(ctx, misses)
	if err != nil {
		return nil, err
	}

	if len(fetched) != len(misses) {
		return nil, geocoding.InvariantErrorf("source %q returned %d responses for %d requests", b.source.Name(), len(fetched), len(misses))
	}

	for j, resp := range fetched {
		if resp == nil {
			return nil, geocoding.InvariantErrorf("source %q returned a nil response", b.source.Name())
		}

		responses[index[j]] = resp
		b.put(ctx, misses[j], resp)
	}

	return responses, nil
}
