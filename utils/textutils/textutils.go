// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils normalizes address text for comparisons and keys.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// Key folds s and keeps only letters, digits and single spaces, so
// "Av. 18 de Julio  1234" and "av 18 de julio 1234" collide.
func Key(s string) string {
	folded := LowerASCIIFolding(s)

	var sb strings.Builder

	space := false

	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}

			space = false

			sb.WriteRune(r)
		default:
			space = true
		}
	}

	return sb.String()
}
