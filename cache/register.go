// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"strconv"
	"strings"
	"time"

	"github.com/jcodagnone/geochain/config"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/redis/go-redis/v9"
)

// TypeName is the registry type of the cache decorator.
const TypeName = "cached"

const (
	defaultTTL    = 24 * time.Hour
	defaultSize   = 10000
	defaultPrefix = "geochain:"
)

// Register binds the cached source type. A cached section holds exactly one
// source entry, the wrapped source, plus the parameters:
//
//	Backend  redis or memory; redis when the RedisAddr setting is present
//	TTL      entry lifetime, defaults to the CacheTTL setting or 24h
//	Size     memory backend capacity
//	Prefix   redis key prefix
func Register(r *geocoding.Registry) {
	r.RegisterSource(TypeName, newFromConfig)
}

func newFromConfig(r *geocoding.Registry, cfg geocoding.Config, section string) (geocoding.Source, error) {
	var inner geocoding.Source

	for _, p := range cfg.Params(section) {
		if !r.IsSource(p.Value) {
			continue
		}

		if inner != nil {
			return nil, geocoding.ConfigErrorf("cached %q: more than one wrapped source", section)
		}

		src, err := r.BuildSource(cfg, p.Value, p.Key)
		if err != nil {
			return nil, err
		}

		inner = src
	}

	if inner == nil {
		return nil, geocoding.ConfigErrorf("cached %q: no wrapped source", section)
	}

	ttl := defaultTTL

	if v := cfg.GetDefault(section, "TTL", cfg.GetDefault(config.SettingsSection, "CacheTTL", "")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, geocoding.ConfigErrorf("cached %q: invalid TTL %q", section, v)
		}

		ttl = d
	}

	redisAddr := cfg.GetDefault(config.SettingsSection, "RedisAddr", "")

	backend := "memory"
	if redisAddr != "" {
		backend = "redis"
	}

	backend = strings.ToLower(cfg.GetDefault(section, "Backend", backend))

	var store Store

	switch backend {
	case "memory":
		size := defaultSize

		if v, ok := cfg.Get(section, "Size"); ok {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return nil, geocoding.ConfigErrorf("cached %q: invalid Size %q", section, v)
			}

			size = n
		}

		store = NewMemoryStore(size, ttl)
	case "redis":
		if redisAddr == "" {
			return nil, geocoding.ConfigErrorf("cached %q: redis backend needs the RedisAddr setting", section)
		}

		db, err := strconv.Atoi(cfg.GetDefault(config.SettingsSection, "RedisDB", "0"))
		if err != nil {
			return nil, geocoding.ConfigErrorf("cached %q: invalid RedisDB: %v", section, err)
		}

		client := redis.NewClient(&redis.Options{Addr: redisAddr, DB: db})
		store = NewRedisStore(client, cfg.GetDefault(section, "Prefix", defaultPrefix), ttl)
	default:
		return nil, geocoding.ConfigErrorf("cached %q: unknown backend %q", section, backend)
	}

	r.Logger().Debug("cache configured", "section", section, "backend", backend, "ttl", ttl)

	return r.NewSource(cfg, section, New(inner, store, r.Logger()))
}
