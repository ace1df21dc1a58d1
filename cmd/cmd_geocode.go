// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jcodagnone/geochain/geocoding"
	"github.com/jcodagnone/geochain/spatial"
	"github.com/jcodagnone/geochain/store"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var geocodeFlags struct {
	street  string
	city    string
	region  string
	zip     string
	country string
	crs     string
	asJSON  bool
	save    bool
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode [free text address]",
	Short: "Geocodes a single address",
	Long: `
Geocodes one address through the configured topology. The address is given
either as free text arguments or with the structured flags.

    geochain geocode "340 N 12th St, Philadelphia, PA 19107"
    geochain geocode --street "340 N 12th St" --city Philadelphia --state PA
`,
	RunE: runGeocode,
}

func init() {
	f := geocodeCmd.Flags()
	f.StringVar(&geocodeFlags.street, "street", "", "street line")
	f.StringVar(&geocodeFlags.city, "city", "", "city")
	f.StringVar(&geocodeFlags.region, "state", "", "state or region")
	f.StringVar(&geocodeFlags.zip, "zip", "", "postal code")
	f.StringVar(&geocodeFlags.country, "country", "", "country")
	f.StringVar(&geocodeFlags.crs, "crs", "", "target coordinate reference system, e.g. EPSG:3857")
	f.BoolVar(&geocodeFlags.asJSON, "json", false, "print the raw response as JSON")
	f.BoolVar(&geocodeFlags.save, "save", false, "save the response in the store")

	rootCmd.AddCommand(geocodeCmd)
}

func runGeocode(cmd *cobra.Command, args []string) error {
	req := geocoding.Request{
		Address: geocoding.Address{
			Street:     geocodeFlags.street,
			City:       geocodeFlags.city,
			Region:     geocodeFlags.region,
			PostalCode: geocodeFlags.zip,
			Country:    geocodeFlags.country,
		},
		FreeText:  strings.Join(args, " "),
		TargetCRS: spatial.ParseCRS(geocodeFlags.crs),
	}

	if req.IsBlank() {
		return errors.New("an address is required, as arguments or flags")
	}

	a, err := newApp(geocodeFlags.save)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.source.Geocode(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("geocoding %q: %w", req.Text(), err)
	}

	if geocodeFlags.save && resp.HasCandidates() {
		if err := a.store.Save(store.Key(req), resp); err != nil {
			return err
		}
	}

	if geocodeFlags.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(resp)
	}

	printResponse(cmd.OutOrStdout(), resp)

	return nil
}

func printResponse(w io.Writer, resp *geocoding.Response) {
	if !resp.HasCandidates() {
		fmt.Fprintln(w, "no candidates")

		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Score", "Type", "Address", "Lat/Y", "Lng/X"})
	table.SetAutoFormatHeaders(false)

	for _, c := range resp.Candidates {
		table.Append([]string{
			fmt.Sprintf("%.2f", c.MatchScore),
			c.MatchType,
			c.StandardizedAddress,
			fmt.Sprintf("%.6f", c.Latitude),
			fmt.Sprintf("%.6f", c.Longitude),
		})
	}

	table.Render()

	crs := resp.CRS
	if crs.IsZero() {
		crs = "unknown"
	}

	fmt.Fprintf(w, "source: %s  crs: %s  strict: %t\n", resp.Source, crs, resp.StrictAddressMatch)
}
