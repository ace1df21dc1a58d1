// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package processors

import (
	"strings"

	"github.com/jcodagnone/geochain/geocoding"
)

// DefaultCharactersToRemove is the exclusion set of a CharacterRemover
// configured without CharactersToRemove.
const DefaultCharactersToRemove = "@$%*^(){}[]<>~`:;\\=|?!"

// CharacterRemover strips a set of characters from every text field of a
// request.
type CharacterRemover struct {
	remove map[rune]struct{}
}

// NewCharacterRemover builds a remover for the characters in chars.
func NewCharacterRemover(chars string) *CharacterRemover {
	r := &CharacterRemover{remove: make(map[rune]struct{}, len(chars))}
	for _, c := range chars {
		r.remove[c] = struct{}{}
	}

	return r
}

// Clean strips the configured characters from s.
func (r *CharacterRemover) Clean(s string) string {
	return strings.Map(func(c rune) rune {
		if _, drop := r.remove[c]; drop {
			return -1
		}

		return c
	}, s)
}

// ProcessRequest implements geocoding.RequestProcessor.
func (r *CharacterRemover) ProcessRequest(req geocoding.Request) geocoding.Request {
	for _, f := range req.TextFields() {
		*f = r.Clean(*f)
	}

	return req
}

func newCharacterRemoverFromConfig(cfg geocoding.Config, section string) (any, error) {
	return NewCharacterRemover(cfg.GetDefault(section, "CharactersToRemove", DefaultCharactersToRemove)), nil
}
