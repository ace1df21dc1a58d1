// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/spatial"
)

// Record is the JSON lines form of one stored response.
type Record struct {
	Key                string                 `json:"key"`
	Source             string                 `json:"source"`
	CRS                spatial.CRS            `json:"crs,omitempty"`
	StrictAddressMatch bool                   `json:"strict_address_match"`
	Candidates         []*geocoding.Candidate `json:"candidates"`
}

// Export writes every stored response to w, one JSON record per line,
// ordered by key. It returns the number of records written.
func (s *Store) Export(w io.Writer) (int, error) {
	rows, err := s.db.Query(`SELECT ` + selectColumns + ` FROM results ORDER BY address_key, candidate_rank`)
	if err != nil {
		return 0, fmt.Errorf("exporting results: %w", err)
	}
	defer rows.Close()

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	var (
		current *Record
		n       int
	)

	flush := func() error {
		if current == nil {
			return nil
		}

		n++

		return enc.Encode(current)
	}

	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return n, fmt.Errorf("exporting results: %w", err)
		}

		if current == nil || current.Key != r.key {
			if err := flush(); err != nil {
				return n, fmt.Errorf("writing record: %w", err)
			}

			current = &Record{Key: r.key, Source: r.source, CRS: spatial.CRS(r.crs), StrictAddressMatch: r.strict}
		}

		current.Candidates = append(current.Candidates, r.cand)
	}

	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("exporting results: %w", err)
	}

	if err := flush(); err != nil {
		return n, fmt.Errorf("writing record: %w", err)
	}

	return n, bw.Flush()
}

// Import saves every record read from r, replacing existing keys. It returns
// the number of records imported.
func (s *Store) Import(r io.Reader) (int, error) {
	dec := json.NewDecoder(r)

	n := 0

	for {
		var rec Record

		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return n, nil
		}

		if err != nil {
			return n, fmt.Errorf("decoding record %d: %w", n+1, err)
		}

		if rec.Key == "" {
			return n, fmt.Errorf("record %d: empty key", n+1)
		}

		resp := geocoding.NewResponse(rec.Source, rec.Candidates)
		resp.CRS = rec.CRS
		resp.StrictAddressMatch = rec.StrictAddressMatch

		if err := s.Save(rec.Key, resp); err != nil {
			return n, err
		}

		n++
	}
}
