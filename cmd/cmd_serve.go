// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcodagnone/geochain/metrics"
	"github.com/jcodagnone/geochain/server"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	listen   string
	maxBatch int
	noStore  bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the geocoding API over HTTP",
	Long: `
Serves the configured topology over HTTP:

    GET  /api/geocode?q=...            or street, city, state, zip, country
    POST /api/geocode/batch            {"requests": [...]}
    GET  /api/near?lat=..&lng=..&radius=..
    GET  /healthz
    GET  /metrics
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(!serveFlags.noStore)
		if err != nil {
			return err
		}
		defer a.Close()

		listen := serveFlags.listen
		if listen == "" {
			listen = settings.Listen
		}

		opts := []server.Option{
			server.WithLogger(slog.Default()),
			server.WithMaxBatch(serveFlags.maxBatch),
		}

		if a.store != nil {
			opts = append(opts, server.WithStore(a.store))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(metrics.Instrument(a.source), opts...).Run(ctx, listen)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", "", "listen address, defaults to the listen setting")
	serveCmd.Flags().IntVar(&serveFlags.maxBatch, "max-batch", server.DefaultMaxBatch, "largest batch accepted")
	serveCmd.Flags().BoolVar(&serveFlags.noStore, "no-store", false, "do not open the store; disables /api/near")

	rootCmd.AddCommand(serveCmd)
}
