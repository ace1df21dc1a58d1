// Copyright 2025 The GeoChain Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package config provides the ordered section configuration that describes a
// geocoder topology, and the process level settings.
//
// A topology document is a YAML mapping of section names to mappings of
// string parameters:
//
//	root: geocoder
//	geocoder:
//	  local: local
//	  google: google
//	google:
//	  chars: CharacterRemover
//	  ApiKey: ...
//
// Parameter order inside a section is significant and is preserved.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRoot is the section built when the document has no root key.
const DefaultRoot = "geocoder"

// SettingsSection receives process settings injected by the command line.
const SettingsSection = "settings"

// TraceHTTPKey in the settings section enables HTTP tracing on leaf sources.
const TraceHTTPKey = "TraceHttp"

const rootKey = "root"

// Param is a single key/value entry of a section.
type Param struct {
	Key   string
	Value string
}

// Config is an ordered collection of named sections.
type Config struct {
	root     string
	order    []string
	sections map[string][]Param
}

// New creates an empty configuration whose entry point is root.
func New(root string) *Config {
	if root == "" {
		root = DefaultRoot
	}

	return &Config{
		root:     root,
		sections: make(map[string][]Param),
	}
}

// Load reads a topology document from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes a topology document.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}

	cfg := New("")

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return cfg, nil
	}

	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of sections", top.Line)
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		name, body := top.Content[i], top.Content[i+1]

		if name.Value == rootKey && body.Kind == yaml.ScalarNode {
			cfg.root = body.Value

			continue
		}

		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: section %q must be a mapping", body.Line, name.Value)
		}

		if cfg.HasSection(name.Value) {
			return nil, fmt.Errorf("line %d: duplicate section %q", name.Line, name.Value)
		}

		params := make([]Param, 0, len(body.Content)/2)

		for j := 0; j+1 < len(body.Content); j += 2 {
			key, value := body.Content[j], body.Content[j+1]
			if value.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: parameter %s.%s must be a scalar", value.Line, name.Value, key.Value)
			}

			v := value.Value
			if value.Tag == "!!null" {
				v = ""
			}

			params = append(params, Param{Key: key.Value, Value: v})
		}

		cfg.AddSection(name.Value, params...)
	}

	return cfg, nil
}

// Root returns the name of the entry section.
func (c *Config) Root() string {
	return c.root
}

// Sections returns the section names in declaration order.
func (c *Config) Sections() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)

	return out
}

// AddSection appends params to section, creating it if needed.
func (c *Config) AddSection(section string, params ...Param) {
	if _, ok := c.sections[section]; !ok {
		c.order = append(c.order, section)
	}

	c.sections[section] = append(c.sections[section], params...)
}

// Set overwrites key in section, appending it when absent.
func (c *Config) Set(section, key, value string) {
	params := c.sections[section]
	for i := range params {
		if strings.EqualFold(params[i].Key, key) {
			params[i].Value = value

			return
		}
	}

	c.AddSection(section, Param{Key: key, Value: value})
}

// Params returns the parameters of section in declaration order. The slice
// is a copy.
func (c *Config) Params(section string) []Param {
	params := c.sections[section]
	out := make([]Param, len(params))
	copy(out, params)

	return out
}

// Get looks up key in section. Keys match case-insensitively.
func (c *Config) Get(section, key string) (string, bool) {
	for _, p := range c.sections[section] {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}

	return "", false
}

// GetDefault looks up key in section, returning def when missing.
func (c *Config) GetDefault(section, key, def string) string {
	if v, ok := c.Get(section, key); ok {
		return v
	}

	return def
}

// HasSection reports whether section was declared.
func (c *Config) HasSection(section string) bool {
	_, ok := c.sections[section]

	return ok
}

// Has reports whether section declares key.
func (c *Config) Has(section, key string) bool {
	_, ok := c.Get(section, key)

	return ok
}
