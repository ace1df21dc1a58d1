// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package local is a leaf source answering from previously stored results.
package local

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcodagnone/geochain/config"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/spatial"
	"github.com/jcodagnone/geochain/store"
)

// TypeName is the registry type of this source.
const TypeName = "local"

// Source looks requests up by their folded key. Misses answer empty so a
// composite falls through to the next child.
type Source struct {
	name  string
	store *store.Store
}

// New creates a local backend over st.
func New(name string, st *store.Store) *Source {
	return &Source{name: name, store: st}
}

func (s *Source) Name() string { return s.name }

// CRS is empty: stored responses keep the system they were saved in.
func (s *Source) CRS() spatial.CRS { return "" }

// Lookup implements geocoding.Backend.
func (s *Source) Lookup(ctx context.Context, req geocoding.Request) (*geocoding.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := store.Key(req)
	if key == "" {
		return geocoding.NewResponse(s.name, nil), nil
	}

	resp, err := s.store.Find(key)
	if errors.Is(err, store.ErrNotFound) {
		return geocoding.NewResponse(s.name, nil), nil
	}

	if err != nil {
		return nil, err
	}

	resp.Source = s.name

	return resp, nil
}

// Register binds the local source type. Sections use st when it is not nil,
// otherwise they open StorePath (section parameter or setting).
func Register(r *geocoding.Registry, st *store.Store) {
	r.RegisterSource(TypeName, func(r *geocoding.Registry, cfg geocoding.Config, section string) (geocoding.Source, error) {
		s := st

		if s == nil {
			path := cfg.GetDefault(section, "StorePath", cfg.GetDefault(config.SettingsSection, "StorePath", ""))
			if path == "" {
				return nil, geocoding.ConfigErrorf("local %q: StorePath is required", section)
			}

			opened, err := store.Open(path)
			if err != nil {
				return nil, fmt.Errorf("local %q: %w", section, err)
			}

			s = opened
		}

		return r.NewSource(cfg, section, New(section, s))
	})
}
