// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package processors

import "github.com/jcodagnone/geochain/geocoding"

// Register binds every processor type, under its name and legacy aliases.
func Register(r *geocoding.Registry) {
	for _, name := range []string{"Defaulter", "AddressPartDefaulter"} {
		r.RegisterProcessor(name, newDefaulterFromConfig)
	}

	r.RegisterProcessor("CountrySelector", newCountrySelectorFromConfig)

	for _, name := range []string{"CharacterRemover", "SpecialCharacterRemover"} {
		r.RegisterProcessor(name, newCharacterRemoverFromConfig)
	}

	r.RegisterProcessor("AddressSplitter", newAddressSplitterFromConfig)
	r.RegisterProcessor("MatchTypeSelector", newMatchTypeSelectorFromConfig)
	r.RegisterProcessor("ScoreNormalizer", newScoreNormalizerFromConfig)

	for _, name := range []string{"TextReplacer", "CandidateTextReplacer"} {
		r.RegisterProcessor(name, newTextReplacerFromConfig)
	}

	r.RegisterProcessor("CellDeduplicator", newCellDeduplicatorFromConfig)
}
