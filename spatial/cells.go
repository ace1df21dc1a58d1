// Copyright 2025 The GeoChain Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"

	"github.com/uber/h3-go/v4"
)

// MaxCellResolution is the finest H3 resolution.
const MaxCellResolution = 15

// Cell returns the H3 cell containing p at the given resolution.
func (p Point) Cell(resolution int) (h3.Cell, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("computing cell for %s: not a WGS84 coordinate", p)
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), resolution)
	if err != nil {
		return 0, fmt.Errorf("computing cell for %s at res %d: %w", p, resolution, err)
	}

	return cell, nil
}

// Neighborhood returns the cells within k steps of the cell containing p.
func (p Point) Neighborhood(resolution, k int) ([]h3.Cell, error) {
	cell, err := p.Cell(resolution)
	if err != nil {
		return nil, err
	}

	cells, err := h3.GridDisk(cell, k)
	if err != nil {
		return nil, fmt.Errorf("expanding cell %s: %w", cell, err)
	}

	return cells, nil
}
