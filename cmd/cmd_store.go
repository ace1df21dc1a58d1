// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/jcodagnone/geochain/spatial"
	"github.com/jcodagnone/geochain/store"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manages the saved results store",
}

func openStore() (*store.Store, error) {
	return store.Open(settings.StorePath)
}

var storeExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Exports saved results as JSON lines",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var w io.Writer = cmd.OutOrStdout()

		if len(args) == 1 && args[0] != "-" {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[0], err)
			}
			defer f.Close()

			w = f
		}

		n, err := st.Export(w)
		if err != nil {
			return err
		}

		log.Printf("Exported %d records from %s", n, settings.StorePath)

		return nil
	},
}

var storeImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Imports results exported as JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.Import(f)
		if err != nil {
			return err
		}

		log.Printf("Imported %d records into %s", n, settings.StorePath)

		return nil
	},
}

var nearRadius float64

var storeNearCmd = &cobra.Command{
	Use:   "near <lat> <lng>",
	Short: "Lists saved candidates around a point",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			p   spatial.Point
			err error
		)

		if p.Lat, err = strconv.ParseFloat(args[0], 64); err != nil {
			return fmt.Errorf("invalid latitude %q", args[0])
		}

		if p.Lng, err = strconv.ParseFloat(args[1], 64); err != nil {
			return fmt.Errorf("invalid longitude %q", args[1])
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		hits, err := st.Near(p, nearRadius)
		if err != nil {
			return err
		}

		for _, h := range hits {
			fmt.Fprintf(cmd.OutOrStdout(), "%8.1fm  %-12s %s  (%s)\n", h.Distance, h.Source, h.Candidate.StandardizedAddress, h.Key)
		}

		return nil
	},
}

func init() {
	storeNearCmd.Flags().Float64Var(&nearRadius, "radius", 100, "search radius in meters")

	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeImportCmd)
	storeCmd.AddCommand(storeNearCmd)
	rootCmd.AddCommand(storeCmd)
}
