// Copyright 2025 The GeoChain Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jcodagnone/geochain/config"
	"github.com/jcodagnone/geochain/spatial"
)

// CompositeType is the registered type of the fallback composite.
const CompositeType = "composite"

// batchModeKey is the composite parameter selecting the BatchMode.
const batchModeKey = "batchMode"

// Config is the configuration provider consumed while building sources.
// *config.Config implements it.
type Config interface {
	Params(section string) []config.Param
	Get(section, key string) (string, bool)
	GetDefault(section, key, def string) string
	HasSection(section string) bool
	Has(section, key string) bool
}

// SourceFactory builds the source configured in section.
type SourceFactory func(r *Registry, cfg Config, section string) (Source, error)

// ProcessorFactory builds the processor configured in section. The result
// must implement RequestProcessor, ResponseProcessor or both.
type ProcessorFactory func(cfg Config, section string) (any, error)

// Registry maps type identifiers to factories. It is populated at startup
// and read only afterwards.
type Registry struct {
	sources     map[string]SourceFactory
	processors  map[string]ProcessorFactory
	reprojector spatial.Reprojector
	logger      *slog.Logger
}

// NewRegistry returns a registry knowing the composite type. opts supply the
// logger and reprojector handed to every source built through it.
func NewRegistry(opts ...Option) *Registry {
	o := buildOptions(opts)

	r := &Registry{
		sources:     make(map[string]SourceFactory),
		processors:  make(map[string]ProcessorFactory),
		reprojector: o.reprojector,
		logger:      o.logger,
	}
	r.RegisterSource(CompositeType, newCompositeFromConfig)

	return r
}

func typeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RegisterSource binds a source type identifier.
func (r *Registry) RegisterSource(typeName string, f SourceFactory) {
	r.sources[typeKey(typeName)] = f
}

// RegisterProcessor binds a processor type identifier.
func (r *Registry) RegisterProcessor(typeName string, f ProcessorFactory) {
	r.processors[typeKey(typeName)] = f
}

// IsSource reports whether typeName is a registered source type.
func (r *Registry) IsSource(typeName string) bool {
	_, ok := r.sources[typeKey(typeName)]

	return ok
}

// IsProcessor reports whether typeName is a registered processor type.
func (r *Registry) IsProcessor(typeName string) bool {
	_, ok := r.processors[typeKey(typeName)]

	return ok
}

// Types lists the registered source and processor identifiers, sorted.
func (r *Registry) Types() (sources, processors []string) {
	for k := range r.sources {
		sources = append(sources, k)
	}

	for k := range r.processors {
		processors = append(processors, k)
	}

	sort.Strings(sources)
	sort.Strings(processors)

	return sources, processors
}

// Logger is the logger sources should log through.
func (r *Registry) Logger() *slog.Logger { return r.logger }

// Reprojector is the reprojection service composites use.
func (r *Registry) Reprojector() spatial.Reprojector { return r.reprojector }

// Build builds section as a composite, the usual shape of a topology root.
func (r *Registry) Build(cfg Config, section string) (Source, error) {
	return r.BuildSource(cfg, CompositeType, section)
}

// BuildSource builds the source of type typeName configured in section.
func (r *Registry) BuildSource(cfg Config, typeName, section string) (Source, error) {
	f, ok := r.sources[typeKey(typeName)]
	if !ok {
		return nil, &Error{
			Kind:    KindConfig,
			Message: fmt.Sprintf("section %q: source type %q", section, typeName),
			Err:     ErrUnknownType,
		}
	}

	src, err := f(r, cfg, section)
	if err != nil {
		if IsConfigError(err) {
			return nil, err
		}

		return nil, &Error{
			Kind:    KindConfig,
			Message: fmt.Sprintf("section %q: building source %q", section, typeName),
			Err:     err,
		}
	}

	return src, nil
}

// BuildProcessor builds the processor of type typeName configured in section.
func (r *Registry) BuildProcessor(cfg Config, typeName, section string) (any, error) {
	f, ok := r.processors[typeKey(typeName)]
	if !ok {
		return nil, &Error{
			Kind:    KindConfig,
			Message: fmt.Sprintf("section %q: processor type %q", section, typeName),
			Err:     ErrUnknownType,
		}
	}

	p, err := f(cfg, section)
	if err != nil {
		if IsConfigError(err) {
			return nil, err
		}

		return nil, &Error{
			Kind:    KindConfig,
			Message: fmt.Sprintf("section %q: building processor %q", section, typeName),
			Err:     err,
		}
	}

	_, isReq := p.(RequestProcessor)
	_, isResp := p.(ResponseProcessor)

	if !isReq && !isResp {
		return nil, ConfigErrorf("section %q: type %q is not a processor", section, typeName)
	}

	return p, nil
}

// Processors builds, in declaration order, every entry of section whose
// value names a registered processor type. The entry key is the section
// holding that processor's own parameters. Other entries are left to the
// source as parameters.
func (r *Registry) Processors(cfg Config, section string) ([]Option, error) {
	var built []any

	for _, p := range cfg.Params(section) {
		if !r.IsProcessor(p.Value) {
			continue
		}

		proc, err := r.BuildProcessor(cfg, p.Value, p.Key)
		if err != nil {
			return nil, err
		}

		built = append(built, proc)
	}

	reqs, resps, _ := SplitProcessors(built...)

	return []Option{
		WithRequestProcessors(reqs...),
		WithResponseProcessors(resps...),
		WithLogger(r.logger),
		WithReprojector(r.reprojector),
	}, nil
}

// NewSource wraps backend in a pipeline using the processors declared in
// section. Leaf source factories end with it.
func (r *Registry) NewSource(cfg Config, section string, backend Backend) (Source, error) {
	opts, err := r.Processors(cfg, section)
	if err != nil {
		return nil, err
	}

	return NewPipeline(backend, opts...), nil
}

func newCompositeFromConfig(r *Registry, cfg Config, section string) (Source, error) {
	if !cfg.HasSection(section) {
		return nil, ConfigErrorf("composite %q: section not found", section)
	}

	var children []Source

	for _, p := range cfg.Params(section) {
		switch {
		case strings.EqualFold(p.Key, batchModeKey):
			continue
		case r.IsProcessor(p.Value):
			continue
		case r.IsSource(p.Value):
			src, err := r.BuildSource(cfg, p.Value, p.Key)
			if err != nil {
				return nil, err
			}

			children = append(children, src)
		default:
			return nil, &Error{
				Kind:    KindConfig,
				Message: fmt.Sprintf("composite %q: entry %s=%q", section, p.Key, p.Value),
				Err:     ErrUnknownType,
			}
		}
	}

	mode, err := ParseBatchMode(cfg.GetDefault(section, batchModeKey, ""))
	if err != nil {
		return nil, fmt.Errorf("composite %q: %w", section, err)
	}

	opts, err := r.Processors(cfg, section)
	if err != nil {
		return nil, err
	}

	return NewComposite(section, children, append(opts, WithBatchMode(mode))...)
}
