// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package processors

import (
	"math"
	"strconv"
	"strings"

	"github.com/jcodagnone/geochain/geocoding"
)

// ScoreNormalizer adds a per match type modifier to each score, then
// divides every score by ceil(max/100) so the best lands in (0, 100].
// Relative order is preserved.
type ScoreNormalizer struct {
	modifiers map[string]float64
}

// NewScoreNormalizer builds a normalizer. At least one modifier is required.
func NewScoreNormalizer(modifiers map[string]int) (*ScoreNormalizer, error) {
	if len(modifiers) == 0 {
		return nil, geocoding.ConfigErrorf("score normalizer: no modifiers configured")
	}

	n := &ScoreNormalizer{modifiers: make(map[string]float64, len(modifiers))}
	for k, v := range modifiers {
		n.modifiers[k] = float64(v)
	}

	return n, nil
}

// ParseModifiers reads "Type:int|Type:int".
func ParseModifiers(s string) (map[string]int, error) {
	out := make(map[string]int)

	for _, entry := range strings.Split(s, "|") {
		if strings.TrimSpace(entry) == "" {
			continue
		}

		name, value, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, geocoding.ConfigErrorf("score normalizer: modifier %q is not Type:int", entry)
		}

		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, geocoding.ConfigErrorf("score normalizer: modifier %q: %v", entry, err)
		}

		out[strings.TrimSpace(name)] = v
	}

	return out, nil
}

// ProcessResponse implements geocoding.ResponseProcessor.
func (n *ScoreNormalizer) ProcessResponse(resp *geocoding.Response) {
	if !resp.HasCandidates() {
		return
	}

	best := math.Inf(-1)

	for _, c := range resp.Candidates {
		c.MatchScore += n.modifiers[c.MatchType]
		best = math.Max(best, c.MatchScore)
	}

	weight := math.Max(1, math.Ceil(best/100))

	for _, c := range resp.Candidates {
		c.MatchScore /= weight
	}
}

func newScoreNormalizerFromConfig(cfg geocoding.Config, section string) (any, error) {
	modifiers, err := ParseModifiers(cfg.GetDefault(section, "Modifiers", ""))
	if err != nil {
		return nil, err
	}

	return NewScoreNormalizer(modifiers)
}
