// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package googlemaps

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/jcodagnone/geochain/config"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/utils/httputils"
)

// TypeName is the registry type of this source.
const TypeName = "google"

// Register binds the google source type.
func Register(r *geocoding.Registry) {
	r.RegisterSource(TypeName, newFromConfig)
}

// newFromConfig reads ApiKey, BaseURL, Region and Timeout from section. The
// key falls back to the GoogleApiKey setting and then to the key named
// ApiKeyName in the Application Default Credentials project.
func newFromConfig(r *geocoding.Registry, cfg geocoding.Config, section string) (geocoding.Source, error) {
	apiKey := cfg.GetDefault(section, "ApiKey", cfg.GetDefault(config.SettingsSection, "GoogleApiKey", ""))

	if apiKey == "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		name := cfg.GetDefault(section, "ApiKeyName", DefaultKeyDisplayName)

		key, err := KeyFromADC(ctx, name)
		if err != nil {
			return nil, geocoding.ConfigErrorf("google %q: no ApiKey configured and ADC lookup failed: %v", section, err)
		}

		r.Logger().Info("retrieved Google Maps API key via ADC", "section", section)
		apiKey = key
	}

	clientOpts := httputils.ClientOptions{}

	if v := cfg.GetDefault(section, "Timeout", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, geocoding.ConfigErrorf("google %q: Timeout %q: %v", section, v, err)
		}

		clientOpts.Timeout = d
	}

	if trace, _ := strconv.ParseBool(cfg.GetDefault(config.SettingsSection, config.TraceHTTPKey, "")); trace {
		clientOpts.Trace = os.Stderr
	}

	opts := []Option{WithHTTPClient(httputils.NewClient(clientOpts))}

	if v := cfg.GetDefault(section, "BaseURL", ""); v != "" {
		opts = append(opts, WithBaseURL(v))
	}

	if v := cfg.GetDefault(section, "Region", ""); v != "" {
		opts = append(opts, WithRegion(v))
	}

	return r.NewSource(cfg, section, New(section, apiKey, opts...))
}
