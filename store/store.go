// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package store keeps geocoded responses in DuckDB so they can be answered
// locally, searched by proximity and moved between machines.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // registers the duckdb driver
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/spatial"
	"github.com/jcodagnone/geochain/utils/textutils"
)

// ErrNotFound is returned when no response is stored under a key.
var ErrNotFound = errors.New("store: not found")

// cellResolutions are the H3 resolutions indexed per candidate, finest
// first, with a conservative center to center spacing in meters.
var cellResolutions = []struct {
	res     int
	column  string
	spacing float64
}{
	{res: 11, column: "h3_res11", spacing: 40},
	{res: 9, column: "h3_res9", spacing: 280},
	{res: 7, column: "h3_res7", spacing: 1900},
}

// maxRing bounds the GridDisk size Near queries, 331 cells.
const maxRing = 10

// Store persists responses keyed by a folded address.
type Store struct {
	db *sql.DB
}

// New wraps an open DuckDB handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens the DuckDB database at path and creates the schema. An empty
// path opens an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", path, err)
	}

	s := New(db)
	if err := s.CreateSchema(); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key is the store key of a request: its text folded to lower case ASCII
// letters, digits and single spaces.
func Key(req geocoding.Request) string {
	return textutils.Key(req.Text())
}

// CreateSchema creates the results table.
func (s *Store) CreateSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			address_key VARCHAR NOT NULL,
			candidate_rank INTEGER NOT NULL,
			source VARCHAR NOT NULL,
			crs VARCHAR NOT NULL,
			strict_match BOOLEAN NOT NULL,
			street VARCHAR,
			city VARCHAR,
			region VARCHAR,
			country VARCHAR,
			postal_code VARCHAR,
			match_score DOUBLE NOT NULL,
			match_type VARCHAR,
			standardized_address VARCHAR,
			raw_data VARCHAR,
			point STRUCT(x DOUBLE, y DOUBLE) NOT NULL,
			h3_res7 UBIGINT,
			h3_res9 UBIGINT,
			h3_res11 UBIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (address_key, candidate_rank)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating results table: %w", err)
	}

	return nil
}

// cells computes the indexed cells of c, or NULLs when the response is not
// geographic.
func cells(c *geocoding.Candidate, crs spatial.CRS) ([]any, error) {
	out := make([]any, len(cellResolutions))

	if crs.Or(spatial.WGS84) != spatial.WGS84 {
		return out, nil
	}

	p := c.Point()
	if !p.Valid() {
		return out, nil
	}

	// columns are declared coarse to fine
	for i, cr := range cellResolutions {
		cell, err := p.Cell(cr.res)
		if err != nil {
			return nil, err
		}

		out[len(out)-1-i] = int64(cell)
	}

	return out, nil
}

// Save replaces whatever is stored under key with resp. Responses without
// candidates clear the key.
func (s *Store) Save(key string, resp *geocoding.Response) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("saving %q: %w", key, err)
	}

	if err := save(tx, key, resp); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = errors.Join(err, rErr)
		}

		return fmt.Errorf("saving %q: %w", key, err)
	}

	return tx.Commit()
}

func save(tx *sql.Tx, key string, resp *geocoding.Response) error {
	if _, err := tx.Exec(`DELETE FROM results WHERE address_key = ?`, key); err != nil {
		return err
	}

	if !resp.HasCandidates() {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO results(
			address_key, candidate_rank, source, crs, strict_match,
			street, city, region, country, postal_code,
			match_score, match_type, standardized_address, raw_data,
			point, h3_res7, h3_res9, h3_res11
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, struct_pack(x := CAST(? AS DOUBLE), y := CAST(? AS DOUBLE)), ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for rank, c := range resp.Candidates {
		cellArgs, err := cells(c, resp.CRS)
		if err != nil {
			return err
		}

		args := []any{
			key, rank, resp.Source, string(resp.CRS), resp.StrictAddressMatch,
			c.Street, c.City, c.Region, c.Country, c.PostalCode,
			c.MatchScore, c.MatchType, c.StandardizedAddress, c.RawData,
			c.Longitude, c.Latitude,
		}

		if _, err := stmt.Exec(append(args, cellArgs...)...); err != nil {
			return err
		}
	}

	return nil
}

const selectColumns = `
	address_key, source, crs, strict_match,
	street, city, region, country, postal_code,
	match_score, match_type, standardized_address, raw_data, point`

type row struct {
	key    string
	source string
	crs    string
	strict bool
	cand   *geocoding.Candidate
}

func scanRow(rows *sql.Rows) (*row, error) {
	r := &row{cand: &geocoding.Candidate{}}

	var (
		street, city, region, country, postal sql.NullString
		matchType, standardized, raw          sql.NullString
		point                                 spatial.Point
	)

	err := rows.Scan(
		&r.key, &r.source, &r.crs, &r.strict,
		&street, &city, &region, &country, &postal,
		&r.cand.MatchScore, &matchType, &standardized, &raw, &point,
	)
	if err != nil {
		return nil, err
	}

	r.cand.Street = street.String
	r.cand.City = city.String
	r.cand.Region = region.String
	r.cand.Country = country.String
	r.cand.PostalCode = postal.String
	r.cand.MatchType = matchType.String
	r.cand.StandardizedAddress = standardized.String
	r.cand.RawData = raw.String
	r.cand.Latitude = point.Lat
	r.cand.Longitude = point.Lng

	return r, nil
}

// Find returns the response stored under key, or ErrNotFound.
func (s *Store) Find(key string) (*geocoding.Response, error) {
	rows, err := s.db.Query(`SELECT `+selectColumns+` FROM results WHERE address_key = ? ORDER BY candidate_rank`, key)
	if err != nil {
		return nil, fmt.Errorf("finding %q: %w", key, err)
	}
	defer rows.Close()

	var (
		resp  *geocoding.Response
		cands []*geocoding.Candidate
	)

	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("finding %q: %w", key, err)
		}

		if resp == nil {
			resp = &geocoding.Response{Source: r.source, CRS: spatial.CRS(r.crs), StrictAddressMatch: r.strict}
		}

		cands = append(cands, r.cand)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding %q: %w", key, err)
	}

	if resp == nil {
		return nil, fmt.Errorf("%q: %w", key, ErrNotFound)
	}

	out := geocoding.NewResponse(resp.Source, cands)
	out.CRS = resp.CRS
	out.StrictAddressMatch = resp.StrictAddressMatch

	return out, nil
}

// Count returns the number of stored keys.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(DISTINCT address_key) FROM results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting results: %w", err)
	}

	return n, nil
}

// Hit is a stored candidate close to a point.
type Hit struct {
	Key       string
	Source    string
	Candidate *geocoding.Candidate
	Distance  float64 // meters
}

// ringFor picks the finest indexed resolution covering radius within maxRing steps.
func ringFor(radius float64) (res int, column string, k int, err error) {
	for _, cr := range cellResolutions {
		k := int(math.Ceil(radius/cr.spacing)) + 1
		if k <= maxRing {
			return cr.res, cr.column, k, nil
		}
	}

	return 0, "", 0, fmt.Errorf("radius %.0fm is too large", radius)
}

// Near returns the geographic candidates within radius meters of p, closest
// first.
func (s *Store) Near(p spatial.Point, radius float64) ([]Hit, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %v", radius)
	}

	res, column, k, err := ringFor(radius)
	if err != nil {
		return nil, err
	}

	disk, err := p.Neighborhood(res, k)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(disk))
	for i, c := range disk {
		args[i] = int64(c)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM results WHERE %s IN (%s) ORDER BY address_key, candidate_rank`,
		selectColumns, column, strings.TrimSuffix(strings.Repeat("?,", len(disk)), ","),
	)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching near %s: %w", p, err)
	}
	defer rows.Close()

	var hits []Hit

	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("searching near %s: %w", p, err)
		}

		d := p.DistanceTo(r.cand.Point())
		if d > radius {
			continue
		}

		hits = append(hits, Hit{Key: r.key, Source: r.source, Candidate: r.cand, Distance: d})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching near %s: %w", p, err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	return hits, nil
}
