// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package processors holds the request and response processors that can be
// plugged into any source through configuration.
package processors

import (
	"strings"

	"github.com/jcodagnone/geochain/config"
	"github.com/jcodagnone/geochain/geocoding"
)

const defaultPrefix = "default"

// Defaulter overwrites request fields with configured values. A parameter
// "Default<Field>" sets <Field>, whatever the request carried.
type Defaulter struct {
	defaults []config.Param
}

// NewDefaulter builds a Defaulter from "Default<Field>" parameters. Other
// parameters are ignored. A field the request does not have is kept, so
// Default reports it, but never applied.
func NewDefaulter(params ...config.Param) (*Defaulter, error) {
	d := &Defaulter{}

	for _, p := range params {
		if len(p.Key) <= len(defaultPrefix) || !strings.EqualFold(p.Key[:len(defaultPrefix)], defaultPrefix) {
			continue
		}

		d.defaults = append(d.defaults, config.Param{Key: p.Key[len(defaultPrefix):], Value: p.Value})
	}

	return d, nil
}

// Default returns the value configured for field, if any. Names match
// ignoring case.
func (d *Defaulter) Default(field string) (string, bool) {
	for _, p := range d.defaults {
		if strings.EqualFold(p.Key, field) {
			return p.Value, true
		}
	}

	return "", false
}

// ProcessRequest implements geocoding.RequestProcessor.
func (d *Defaulter) ProcessRequest(req geocoding.Request) geocoding.Request {
	for _, p := range d.defaults {
		// unknown fields are skipped
		geocoding.SetField(&req, p.Key, p.Value)
	}

	return req
}

func newDefaulterFromConfig(cfg geocoding.Config, section string) (any, error) {
	return NewDefaulter(cfg.Params(section)...)
}
