// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package processors

import (
	"strconv"

	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/spatial"
	"github.com/uber/h3-go/v4"
)

// DefaultCellResolution is roughly a 25m hexagon edge.
const DefaultCellResolution = 11

// CellDeduplicator collapses candidates falling in the same H3 cell,
// keeping the best scored one. It only acts on WGS84 responses.
type CellDeduplicator struct {
	resolution int
}

// NewCellDeduplicator builds a deduplicator at resolution.
func NewCellDeduplicator(resolution int) (*CellDeduplicator, error) {
	if resolution < 0 || resolution > spatial.MaxCellResolution {
		return nil, geocoding.ConfigErrorf("cell deduplicator: resolution %d out of range", resolution)
	}

	return &CellDeduplicator{resolution: resolution}, nil
}

// ProcessResponse implements geocoding.ResponseProcessor.
func (d *CellDeduplicator) ProcessResponse(resp *geocoding.Response) {
	if resp.Count() < 2 || resp.CRS.Or(spatial.WGS84) != spatial.WGS84 {
		return
	}

	resp.Sort()

	seen := make(map[h3.Cell]struct{}, len(resp.Candidates))

	resp.Filter(func(c *geocoding.Candidate) bool {
		cell, err := c.Point().Cell(d.resolution)
		if err != nil {
			return true
		}

		if _, dup := seen[cell]; dup {
			return false
		}

		seen[cell] = struct{}{}

		return true
	})
}

func newCellDeduplicatorFromConfig(cfg geocoding.Config, section string) (any, error) {
	res := DefaultCellResolution

	if v, ok := cfg.Get(section, "Resolution"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, geocoding.ConfigErrorf("cell deduplicator %q: resolution %q: %v", section, v, err)
		}

		res = n
	}

	return NewCellDeduplicator(res)
}
