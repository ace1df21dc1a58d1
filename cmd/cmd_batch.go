// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/spatial"
	"github.com/jcodagnone/geochain/store"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var batchFlags struct {
	out     string
	workers int
	chunk   int
	crs     string
	save    bool
}

var batchCmd = &cobra.Command{
	Use:   "batch <input.csv>",
	Short: "Geocodes every row of a CSV file",
	Long: `
Reads a CSV file with a header row and geocodes each row. Addresses are read
from a free text column (text, address or free_text) or from the structured
columns street, city, state (or region), zip (or postal_code) and country.

The output repeats every input column followed by the best candidate:
latitude, longitude, match_score, match_type, standardized_address, source
and error. Failed rows are reported in the error column and do not stop the
run.
`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchFlags.out, "out", "o", "-", "output file, - for stdout")
	f.IntVar(&batchFlags.workers, "workers", 0, "concurrent lookups, defaults to the workers setting")
	f.IntVar(&batchFlags.chunk, "chunk", 0, "rows per native batch call when the topology supports it; 0 geocodes row by row")
	f.StringVar(&batchFlags.crs, "crs", "", "target coordinate reference system")
	f.BoolVar(&batchFlags.save, "save", false, "save every match in the store")

	rootCmd.AddCommand(batchCmd)
}

var resultHeader = []string{"latitude", "longitude", "match_score", "match_type", "standardized_address", "source", "error"}

// columnMap locates the address columns of a CSV header.
type columnMap struct {
	text   int
	fields map[string]int
}

var columnAliases = map[string]string{
	"text":        "text",
	"address":     "text",
	"free_text":   "text",
	"street":      "street",
	"city":        "city",
	"state":       "region",
	"region":      "region",
	"zip":         "postal_code",
	"postal_code": "postal_code",
	"country":     "country",
}

func newColumnMap(header []string) (columnMap, error) {
	m := columnMap{text: -1, fields: make(map[string]int)}

	for i, name := range header {
		field, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}

		if field == "text" {
			m.text = i
		} else {
			m.fields[field] = i
		}
	}

	if m.text < 0 && len(m.fields) == 0 {
		return m, errors.New("header has no address column")
	}

	return m, nil
}

func (m columnMap) request(record []string, crs spatial.CRS) geocoding.Request {
	at := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}

		return strings.TrimSpace(record[i])
	}

	req := geocoding.Request{FreeText: at(m.text), TargetCRS: crs}
	for field, i := range m.fields {
		geocoding.SetField(&req.Address, field, at(i))
	}

	return req
}

func resultColumns(resp *geocoding.Response, err error) []string {
	if err != nil {
		return []string{"", "", "", "", "", "", err.Error()}
	}

	best := resp.Best()
	if best == nil {
		return []string{"", "", "", "", "", resp.Source, ""}
	}

	return []string{
		strconv.FormatFloat(best.Latitude, 'f', -1, 64),
		strconv.FormatFloat(best.Longitude, 'f', -1, 64),
		strconv.FormatFloat(best.MatchScore, 'f', -1, 64),
		best.MatchType,
		best.StandardizedAddress,
		resp.Source,
		"",
	}
}

// chunks splits n rows into [lo, hi) ranges of at most size rows.
func chunks(n, size int) [][2]int {
	if size < 1 {
		size = 1
	}

	out := make([][2]int, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}

	return out
}

type batchResult struct {
	resps []*geocoding.Response
	errs  []error
}

// geocodeAll resolves reqs with up to workers concurrent calls. Native batch
// calls are used when size > 1 and src supports them.
func geocodeAll(ctx context.Context, src geocoding.Source, reqs []geocoding.Request, workers, size int, bar *progressbar.ProgressBar) batchResult {
	res := batchResult{
		resps: make([]*geocoding.Response, len(reqs)),
		errs:  make([]error, len(reqs)),
	}

	if !src.SupportsBatch() {
		size = 1
	}

	var wg sync.WaitGroup

	semaphore := make(chan struct{}, max(workers, 1))

	for _, span := range chunks(len(reqs), size) {
		wg.Add(1)

		go func(lo, hi int) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			if hi-lo == 1 {
				res.resps[lo], res.errs[lo] = src.Geocode(ctx, reqs[lo])
			} else {
				resps, err := src.GeocodeBatch(ctx, reqs[lo:hi])
				for i := lo; i < hi; i++ {
					if err != nil {
						res.errs[i] = err
					} else {
						res.resps[i] = resps[i-lo]
					}
				}
			}

			if bar != nil {
				_ = bar.Add(hi - lo)
			}
		}(span[0], span[1])
	}

	wg.Wait()

	return res
}

func runBatch(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer in.Close()

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	if len(records) == 0 {
		return fmt.Errorf("%s is empty", args[0])
	}

	columns, err := newColumnMap(records[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	crs := spatial.ParseCRS(batchFlags.crs)
	rows := records[1:]

	reqs := make([]geocoding.Request, len(rows))
	for i, record := range rows {
		reqs[i] = columns.request(record, crs)
	}

	a, err := newApp(batchFlags.save)
	if err != nil {
		return err
	}
	defer a.Close()

	workers := batchFlags.workers
	if workers < 1 {
		workers = settings.Workers
	}

	jobID := uuid.NewString()
	log.Printf("Batch %s - %d rows from %s, %d workers", jobID, len(rows), args[0], workers)

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(rows),
			progressbar.OptionSetDescription("Geocoding "+args[0]),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	res := geocodeAll(cmd.Context(), a.source, reqs, workers, batchFlags.chunk, bar)

	var out io.Writer = cmd.OutOrStdout()

	if batchFlags.out != "-" {
		f, err := os.Create(batchFlags.out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", batchFlags.out, err)
		}
		defer f.Close()

		out = f
	}

	if err := writeResults(out, records[0], rows, res); err != nil {
		return err
	}

	var matched, empty, failed, saved int

	for i, resp := range res.resps {
		switch {
		case res.errs[i] != nil:
			failed++
		case resp.HasCandidates():
			matched++

			if batchFlags.save {
				if err := a.store.Save(store.Key(reqs[i]), resp); err != nil {
					return err
				}

				saved++
			}
		default:
			empty++
		}
	}

	log.Printf("Batch %s complete - %d matched, %d without candidates, %d failed, %d saved.", jobID, matched, empty, failed, saved)

	return nil
}

func writeResults(w io.Writer, header []string, rows [][]string, res batchResult) error {
	out := csv.NewWriter(w)

	if err := out.Write(append(append([]string{}, header...), resultHeader...)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, record := range rows {
		line := append(append([]string{}, record...), resultColumns(res.resps[i], res.errs[i])...)
		if err := out.Write(line); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	out.Flush()

	return out.Error()
}
