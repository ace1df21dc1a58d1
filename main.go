// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/geochain/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
