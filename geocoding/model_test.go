// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressCloneIsolation(t *testing.T) {
	orig := Address{Street: "340 N 12th St", City: "Philadelphia", Region: "PA", Country: "USA", PostalCode: "19107"}
	clone := orig.Clone()

	for _, name := range []string{"street", "city", "region", "country", "postalcode"} {
		SetField(&clone, name, "changed")
	}

	assert.Equal(t, "340 N 12th St", orig.Street)
	assert.Equal(t, "Philadelphia", orig.City)
	assert.Equal(t, "PA", orig.Region)
	assert.Equal(t, "USA", orig.Country)
	assert.Equal(t, "19107", orig.PostalCode)
	assert.Equal(t, "changed", clone.Street)
}

func TestCandidateCloneIsolation(t *testing.T) {
	orig := &Candidate{Address: Address{Street: "a"}, MatchScore: 10, StandardizedAddress: "a, b"}
	clone := orig.Clone()
	clone.Street = "x"
	clone.MatchScore = 1
	clone.StandardizedAddress = "y"

	assert.Equal(t, "a", orig.Street)
	assert.InDelta(t, 10, orig.MatchScore, 0)
	assert.Equal(t, "a, b", orig.StandardizedAddress)
}

func TestTextString(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want string
	}{
		{name: "empty", addr: Address{}, want: ""},
		{
			name: "full",
			addr: Address{Street: "340 N 12th St", City: "Philadelphia", Region: "PA", PostalCode: "19107", Country: "USA"},
			want: "340 N 12th St, Philadelphia, PA 19107, USA",
		},
		{name: "zip only", addr: Address{PostalCode: "19107"}, want: "19107"},
		{name: "city and country", addr: Address{City: "Montevideo", Country: "UY"}, want: "Montevideo, UY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.addr.TextString())
		})
	}
}

func TestFieldAliases(t *testing.T) {
	req := Request{}

	require.True(t, SetField(&req, "Address", "street"))
	require.True(t, SetField(&req, "State", "region"))
	require.True(t, SetField(&req, "ZIP", "zip"))
	require.True(t, SetField(&req, "TextString", "free"))
	assert.False(t, SetField(&req, "StandardizedAddress", "nope"))

	assert.Equal(t, "street", req.Street)
	assert.Equal(t, "region", req.Region)
	assert.Equal(t, "zip", req.PostalCode)
	assert.Equal(t, "free", req.FreeText)

	c := &Candidate{}
	require.True(t, SetField(c, "standardizedaddress", "s"))
	require.True(t, SetField(c, "MatchType", "m"))
	require.True(t, SetField(c, "city", "c"))

	v, ok := GetField(c, "StandardizedAddress")
	assert.True(t, ok)
	assert.Equal(t, "s", v)

	_, ok = GetField(c, "TextString")
	assert.False(t, ok)
}

func TestRequestBlankAndText(t *testing.T) {
	assert.True(t, BlankRequest().IsBlank())
	assert.True(t, Request{FreeText: "   ", TargetCRS: "EPSG:4326"}.IsBlank())
	assert.False(t, Request{Address: Address{Country: "USA"}}.IsBlank())

	req := Request{FreeText: " 1 Main St ", Address: Address{City: "Springfield"}}
	assert.Equal(t, "1 Main St", req.Text())

	req.FreeText = ""
	assert.Equal(t, "Springfield", req.Text())
}

func TestRequestKey(t *testing.T) {
	a := Request{FreeText: "340  N 12th St", TargetCRS: "EPSG:4326"}
	b := Request{FreeText: "340 n 12TH st ", TargetCRS: "EPSG:4326"}
	c := Request{FreeText: "340 N 12th St", TargetCRS: "EPSG:3857"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestNewResponseSortsDescending(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	for range 50 {
		n := rnd.Intn(20)
		candidates := make([]*Candidate, n)

		for i := range candidates {
			candidates[i] = &Candidate{MatchScore: float64(rnd.Intn(10))}
		}

		resp := NewResponse("test", candidates)
		for i := 1; i < len(resp.Candidates); i++ {
			require.GreaterOrEqual(t, resp.Candidates[i-1].MatchScore, resp.Candidates[i].MatchScore)
		}
	}
}

func TestNewResponseNeverNil(t *testing.T) {
	resp := NewResponse("test", nil)
	assert.NotNil(t, resp.Candidates)
	assert.False(t, resp.HasCandidates())
	assert.Zero(t, resp.Count())
	assert.Nil(t, resp.Best())
	assert.True(t, resp.StrictAddressMatch)

	resp = NewResponse("test", []*Candidate{nil, {MatchScore: 1}, nil})
	assert.Equal(t, 1, resp.Count())

	var none *Response
	assert.False(t, none.HasCandidates())
	assert.Zero(t, none.Count())
}

func TestResponseFilterAndClone(t *testing.T) {
	resp := NewResponse("test", []*Candidate{
		{MatchScore: 3, MatchType: "a"},
		{MatchScore: 2, MatchType: "b"},
		{MatchScore: 1, MatchType: "a"},
	})

	clone := resp.Clone()
	resp.Filter(func(c *Candidate) bool { return c.MatchType == "a" })

	assert.Equal(t, 2, resp.Count())
	assert.Equal(t, 3, clone.Count())

	clone.Candidates[0].MatchScore = 100
	assert.InDelta(t, 3, resp.Candidates[0].MatchScore, 0)
}

func TestCompareTo(t *testing.T) {
	hi := &Candidate{MatchScore: 90}
	lo := &Candidate{MatchScore: 10}

	got, err := hi.CompareTo(lo)
	require.NoError(t, err)
	assert.Negative(t, got)

	got, err = lo.CompareTo(hi)
	require.NoError(t, err)
	assert.Positive(t, got)

	got, err = lo.CompareTo(&Candidate{MatchScore: 10})
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = hi.CompareTo("not a candidate")
	require.Error(t, err)
	assert.True(t, IsInvariantError(err))

	_, err = hi.CompareTo((*Candidate)(nil))
	assert.True(t, IsInvariantError(err))
}
