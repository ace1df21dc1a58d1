// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package processors

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/geochain/config"
	"github.com/jcodagnone/geochain/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaulter(t *testing.T) {
	d, err := NewDefaulter(
		config.Param{Key: "DefaultCountry", Value: "USA"},
		config.Param{Key: "defaultState", Value: "PA"},
		config.Param{Key: "Unrelated", Value: "x"},
	)
	require.NoError(t, err)

	v, ok := d.Default("country")
	assert.True(t, ok)
	assert.Equal(t, "USA", v)

	_, ok = d.Default("City")
	assert.False(t, ok)

	in := geocoding.Request{Address: geocoding.Address{Street: "1 Main St", Country: "CAN"}}
	out := d.ProcessRequest(in)

	assert.Equal(t, "USA", out.Country, "defaults overwrite unconditionally")
	assert.Equal(t, "PA", out.Region)
	assert.Equal(t, "1 Main St", out.Street)
	assert.Equal(t, "CAN", in.Country, "input must not be mutated")
}

func TestDefaulterUnknownField(t *testing.T) {
	d, err := NewDefaulter(
		config.Param{Key: "DefaultPlanet", Value: "Earth"},
		config.Param{Key: "DefaultCity", Value: "Philadelphia"},
	)
	require.NoError(t, err)

	v, ok := d.Default("PLANET")
	assert.True(t, ok)
	assert.Equal(t, "Earth", v)

	in := geocoding.Request{Address: geocoding.Address{Street: "1 Main St"}}
	want := in
	want.City = "Philadelphia"

	if diff := cmp.Diff(want, d.ProcessRequest(in)); diff != "" {
		t.Errorf("ProcessRequest mismatch (-want +got):\n%s", diff)
	}
}

func TestCountrySelector(t *testing.T) {
	s, err := NewCountrySelector("USA", "CAN")
	require.NoError(t, err)

	tests := []struct {
		name    string
		country string
		blank   bool
	}{
		{name: "lower case allowed", country: "usa", blank: false},
		{name: "exact", country: "CAN", blank: false},
		{name: "not allowed", country: "FRA", blank: true},
		{name: "empty", country: "", blank: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := geocoding.Request{
				Address:  geocoding.Address{Street: "1 Main St", City: "Somewhere", Country: tt.country},
				FreeText: "1 Main St",
			}

			out := s.ProcessRequest(in)
			if tt.blank {
				assert.True(t, out.IsBlank())
				assert.Equal(t, geocoding.Request{}, out)

				return
			}

			assert.Equal(t, in, out)
		})
	}
}

func TestCountrySelectorConfig(t *testing.T) {
	cfg := config.New("")
	cfg.AddSection("countries", config.Param{Key: "CountryList", Value: "usa| can"})

	p, err := newCountrySelectorFromConfig(cfg, "countries")
	require.NoError(t, err)
	assert.True(t, p.(*CountrySelector).Allows("CAN"))

	_, err = newCountrySelectorFromConfig(cfg, "missing")
	assert.True(t, geocoding.IsConfigError(err))

	_, err = NewCountrySelector(" ", "")
	assert.True(t, geocoding.IsConfigError(err))
}

func TestCharacterRemoverDefaults(t *testing.T) {
	r := NewCharacterRemover(DefaultCharactersToRemove)

	in := geocoding.Request{
		Address: geocoding.Address{
			Street:     "230 No%rtheast @1st$ St.",
			City:       "O*klahoma? (City)",
			PostalCode: "[73104]",
			Region:     "OK!",
			Country:    "US@",
		},
		FreeText: "230 No%rtheast",
	}

	out := r.ProcessRequest(in)

	assert.Equal(t, "230 Northeast 1st St.", out.Street)
	assert.Equal(t, "Oklahoma City", out.City)
	assert.Equal(t, "73104", out.PostalCode)
	assert.Equal(t, "OK", out.Region)
	assert.Equal(t, "US", out.Country)
	assert.Equal(t, "230 Northeast", out.FreeText)
	assert.Equal(t, "230 No%rtheast @1st$ St.", in.Street)
}

func TestCharacterRemoverCustomSet(t *testing.T) {
	cfg := config.New("")
	cfg.AddSection("pipes", config.Param{Key: "CharactersToRemove", Value: "|"})

	p, err := newCharacterRemoverFromConfig(cfg, "pipes")
	require.NoError(t, err)

	out := p.(geocoding.RequestProcessor).ProcessRequest(geocoding.Request{
		FreeText: "14th @ Impossible | Philadelphia | PA | 19107",
	})
	assert.Equal(t, "14th @ Impossible  Philadelphia  PA  19107", out.FreeText)
}

func splitterTestParams() []config.Param {
	return []config.Param{
		{Key: "CrossStreetRe", Value: `^(?P<Address>[^,]+?)\s+(?:and|&|@|\\|\+)\s+(?P<Address>[^,]+),\s*(?P<City>[^,]+),\s*(?P<State>[^,]+),\s*(?P<Country>[^,]+)$`},
		{Key: "AddressConcat", Value: " & "},
		{Key: "FullRe", Value: `^(?P<Address>[^,]+),\s*(?P<City>[^,]+),\s*(?P<State>[^,]+),\s*(?P<Country>[^,]+)$`},
		{Key: "ZipRe", Value: `^(?P<Address>[^,]+),\s*(?P<PostalCode>\d{5}(?:-?\d{4})?)$`},
	}
}

func TestAddressSplitterRequest(t *testing.T) {
	s, err := NewAddressSplitter(splitterTestParams()...)
	require.NoError(t, err)

	tests := []struct {
		text string
		want geocoding.Address
	}{
		{
			text: "340 N 12th St, Philadelphia, PA, USA",
			want: geocoding.Address{Street: "340 N 12th St", City: "Philadelphia", Region: "PA", Country: "USA"},
		},
		{
			text: "340 N 12th St #402, Philadelphia, PA, USA",
			want: geocoding.Address{Street: "340 N 12th St #402", City: "Philadelphia", Region: "PA", Country: "USA"},
		},
		{
			text: "12th St and Callowhill St, Philadelphia, PA, USA",
			want: geocoding.Address{Street: "12th St & Callowhill St", City: "Philadelphia", Region: "PA", Country: "USA"},
		},
		{
			text: "12th St AND Callowhill St, Philadelphia, PA, USA",
			want: geocoding.Address{Street: "12th St & Callowhill St", City: "Philadelphia", Region: "PA", Country: "USA"},
		},
		{
			text: "12th St & Callowhill St, Philadelphia, PA, USA",
			want: geocoding.Address{Street: "12th St & Callowhill St", City: "Philadelphia", Region: "PA", Country: "USA"},
		},
		{
			text: "12th St @ Callowhill St, Philadelphia, PA, USA",
			want: geocoding.Address{Street: "12th St & Callowhill St", City: "Philadelphia", Region: "PA", Country: "USA"},
		},
		{
			text: `12th St \ Callowhill St, Philadelphia, PA, USA`,
			want: geocoding.Address{Street: "12th St & Callowhill St", City: "Philadelphia", Region: "PA", Country: "USA"},
		},
		{
			text: "12th St + Callowhill St, Philadelphia, PA, USA",
			want: geocoding.Address{Street: "12th St & Callowhill St", City: "Philadelphia", Region: "PA", Country: "USA"},
		},
		{
			text: "340 N 12th St, 19107",
			want: geocoding.Address{Street: "340 N 12th St", PostalCode: "19107"},
		},
		{
			text: "340 N 12th St, 19107-1234",
			want: geocoding.Address{Street: "340 N 12th St", PostalCode: "19107-1234"},
		},
		{
			text: "340 N 12th St, 191071234",
			want: geocoding.Address{Street: "340 N 12th St", PostalCode: "191071234"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			out := s.ProcessRequest(geocoding.Request{FreeText: tt.text})
			assert.Equal(t, tt.want, out.Address)
			assert.Equal(t, tt.text, out.FreeText)
		})
	}
}

func TestAddressSplitterNoMatchLeavesFields(t *testing.T) {
	s, err := NewAddressSplitter(splitterTestParams()...)
	require.NoError(t, err)

	in := geocoding.Request{FreeText: "somewhere", Address: geocoding.Address{City: "Kept"}}
	assert.Equal(t, in, s.ProcessRequest(in))
}

func TestAddressSplitterRepeatedGroupWithoutJoiner(t *testing.T) {
	params := splitterTestParams()
	params = append(params[:1], params[2:]...)

	s, err := NewAddressSplitter(params...)
	require.NoError(t, err)

	out := s.ProcessRequest(geocoding.Request{
		FreeText: "12th St and Callowhill St, Philadelphia, PA, USA",
		Address:  geocoding.Address{Street: "original"},
	})
	assert.Equal(t, "original", out.Street)
	assert.Equal(t, "Philadelphia", out.City)
}

func TestAddressSplitterQuantifiedGroup(t *testing.T) {
	s, err := NewAddressSplitter(
		config.Param{Key: "WordsRe", Value: `^(?:(?P<Address>\w+)\s+)+at\s+(?P<City>\w+)$`},
		config.Param{Key: "AddressConcat", Value: " "},
	)
	require.NoError(t, err)

	tests := []struct {
		text       string
		wantStreet string
	}{
		{"Callowhill at Philadelphia", "Callowhill"},
		{"12th Callowhill at Philadelphia", "Callowhill"},
		{"North 12th Callowhill at Philadelphia", "Callowhill"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			out := s.ProcessRequest(geocoding.Request{FreeText: tt.text})
			assert.Equal(t, tt.wantStreet, out.Street, "only the last repetition is captured")
			assert.Equal(t, "Philadelphia", out.City)
		})
	}
}

func TestAddressSplitterConfigErrors(t *testing.T) {
	_, err := NewAddressSplitter(config.Param{Key: "BadRe", Value: "(unclosed"})
	assert.True(t, geocoding.IsConfigError(err))

	_, err = NewAddressSplitter(config.Param{Key: "AddressConcat", Value: " & "})
	assert.True(t, geocoding.IsConfigError(err))
}
