// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jcodagnone/geochain/cache"
	"github.com/jcodagnone/geochain/config"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/processors"
	"github.com/jcodagnone/geochain/sources/googlemaps"
	"github.com/jcodagnone/geochain/sources/local"
	"github.com/jcodagnone/geochain/sources/nominatim"
	"github.com/jcodagnone/geochain/store"
)

// app holds what a command needs: the built source tree and, when
// requested or referenced by the topology, the result store.
type app struct {
	source geocoding.Source
	store  *store.Store
}

// newRegistry binds every source and processor type the binary ships with.
func newRegistry(st *store.Store) *geocoding.Registry {
	r := geocoding.NewRegistry(geocoding.WithLogger(slog.Default()))

	processors.Register(r)
	googlemaps.Register(r)
	nominatim.Register(r)
	local.Register(r, st)
	cache.Register(r)

	return r
}

// referencesType reports whether any entry of cfg names typeName.
func referencesType(cfg *config.Config, typeName string) bool {
	for _, section := range cfg.Sections() {
		for _, p := range cfg.Params(section) {
			if strings.EqualFold(p.Value, typeName) {
				return true
			}
		}
	}

	return false
}

// newApp loads the topology and builds the source tree. The store is
// opened when withStore is set or the topology holds a local source, so a
// single handle serves both.
func newApp(withStore bool) (*app, error) {
	cfg, err := config.Load(settings.Topology)
	if err != nil {
		return nil, err
	}

	settings.Inject(cfg)

	a := &app{}

	if withStore || referencesType(cfg, local.TypeName) {
		if a.store, err = store.Open(settings.StorePath); err != nil {
			return nil, err
		}
	}

	a.source, err = newRegistry(a.store).Build(cfg, cfg.Root())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("building %s: %w", settings.Topology, err), a.Close())
	}

	slog.Debug("topology loaded", "file", settings.Topology, "root", cfg.Root(), "batch", a.source.SupportsBatch())

	return a, nil
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}

	return a.store.Close()
}
