// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"strings"
)

// Address is a structured postal address. Absent parts are empty strings.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// Clone returns an independent copy.
func (a Address) Clone() Address {
	return a
}

// IsEmpty reports whether every part is empty.
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// TextString renders the address on one line as
// "street, city, region postalCode, country", skipping empty parts.
func (a Address) TextString() string {
	parts := make([]string, 0, 4)

	for _, p := range []string{
		a.Street,
		a.City,
		strings.TrimSpace(a.Region + " " + a.PostalCode),
		a.Country,
	} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}

// Field returns a pointer to the named part, or nil. Names match
// case-insensitively and accept the usual aliases (address, state, zip).
func (a *Address) Field(name string) *string {
	switch strings.ToLower(name) {
	case "street", "address":
		return &a.Street
	case "city":
		return &a.City
	case "region", "state":
		return &a.Region
	case "country":
		return &a.Country
	case "postalcode", "postal_code", "zip", "zipcode":
		return &a.PostalCode
	}

	return nil
}

// FieldSet is implemented by records whose text parts are addressable by name.
type FieldSet interface {
	Field(name string) *string
}

// GetField reads the named part of fs.
func GetField(fs FieldSet, name string) (string, bool) {
	p := fs.Field(name)
	if p == nil {
		return "", false
	}

	return *p, true
}

// SetField writes the named part of fs, reporting whether it exists.
func SetField(fs FieldSet, name, value string) bool {
	p := fs.Field(name)
	if p == nil {
		return false
	}

	*p = value

	return true
}
