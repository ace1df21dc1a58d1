// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/geochain/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var (
	settingsFile string
	topologyFile string
	logFormat    string
	logLevel     string
	traceHTTP    bool

	settings *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "geochain",
	Short: "composable geocoding with fallback across providers",
	Long: `
geochain resolves postal addresses into coordinates by chaining geocoding
providers. The chain, its fallback order and the processors that clean
requests and responses are described in a topology file.
`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "config", "", "settings file (yaml); the environment and .env are always read")
	rootCmd.PersistentFlags().StringVar(&topologyFile, "topology", "", "topology file, overrides the topology setting")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&traceHTTP, "trace-http", false, "dump provider HTTP traffic to stderr")
}

func setup(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load(".env")

	s, err := config.LoadSettings(settingsFile)
	if err != nil {
		return err
	}

	if topologyFile != "" {
		s.Topology = topologyFile
	}

	if logFormat != "" {
		s.LogFormat = logFormat
	}

	if logLevel != "" {
		s.LogLevel = logLevel
	}

	if traceHTTP {
		s.TraceHTTP = true
	}

	if err := s.Validate(); err != nil {
		return err
	}

	level, _ := s.Level()
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(s.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))

	settings = s

	return nil
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
