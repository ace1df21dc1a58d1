// Copyright 2025 The GeoChain Authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Settings are the process level knobs. Priority: env > yaml > defaults.
type Settings struct {
	Topology     string        `yaml:"topology"       env:"GEOCHAIN_TOPOLOGY"       env-default:"geochain.yaml"`
	Listen       string        `yaml:"listen"         env:"GEOCHAIN_LISTEN"         env-default:":8080"`
	StorePath    string        `yaml:"store"          env:"GEOCHAIN_STORE"          env-default:"geochain.duckdb"`
	RedisAddr    string        `yaml:"redis_addr"     env:"GEOCHAIN_REDIS_ADDR"`
	RedisDB      int           `yaml:"redis_db"       env:"GEOCHAIN_REDIS_DB"       env-default:"0"`
	GoogleAPIKey string        `yaml:"google_api_key" env:"GEOCHAIN_GOOGLE_API_KEY"`
	CacheTTL     time.Duration `yaml:"cache_ttl"      env:"GEOCHAIN_CACHE_TTL"      env-default:"24h"`
	Workers      int           `yaml:"workers"        env:"GEOCHAIN_WORKERS"        env-default:"4"`
	LogLevel     string        `yaml:"log_level"      env:"GEOCHAIN_LOG_LEVEL"      env-default:"info"`
	LogFormat    string        `yaml:"log_format"     env:"GEOCHAIN_LOG_FORMAT"     env-default:"text"`
	TraceHTTP    bool          `yaml:"trace_http"     env:"GEOCHAIN_TRACE_HTTP"`
}

// LoadSettings reads settings from path, when it exists, and the environment.
// An empty path reads the environment only.
func LoadSettings(path string) (*Settings, error) {
	var s Settings

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("settings file %s: %w", path, err)
		}

		if err := cleanenv.ReadConfig(path, &s); err != nil {
			return nil, fmt.Errorf("reading settings %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&s); err != nil {
		return nil, fmt.Errorf("reading settings from env: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}

	return &s, nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	var errs []error

	if s.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", s.Workers))
	}

	if s.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must not be negative, got %s", s.CacheTTL))
	}

	if !slices.Contains([]string{"text", "json"}, strings.ToLower(s.LogFormat)) {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", s.LogFormat))
	}

	if _, err := s.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (s *Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}

	return level, nil
}

// Inject copies the settings leaf sources consume into cfg's settings section.
func (s *Settings) Inject(cfg *Config) {
	if s.GoogleAPIKey != "" {
		cfg.Set(SettingsSection, "GoogleApiKey", s.GoogleAPIKey)
	}

	if s.RedisAddr != "" {
		cfg.Set(SettingsSection, "RedisAddr", s.RedisAddr)
		cfg.Set(SettingsSection, "RedisDB", fmt.Sprint(s.RedisDB))
	}

	cfg.Set(SettingsSection, "StorePath", s.StorePath)
	cfg.Set(SettingsSection, "CacheTTL", s.CacheTTL.String())

	if s.TraceHTTP {
		cfg.Set(SettingsSection, TraceHTTPKey, "true")
	}
}
