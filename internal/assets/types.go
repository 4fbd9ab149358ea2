package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/wolfeidau/webassets/internal/bundle"
)

// Manifest records the outputs of the most recent builds, keyed by output path.
type Manifest struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	Bundle  string    `json:"bundle"`
	Version string    `json:"version"`
	Size    int       `json:"size"`
	Sources []string  `json:"sources"`
	Debug   bool      `json:"debug,omitempty"`
	BuiltAt time.Time `json:"builtAt"`
}

// Pipeline builds the bundles of a frozen registry and serves their URLs.
type Pipeline struct {
	config   Config
	registry *bundle.Registry
	filters  *FilterRegistry
	manifest *Manifest
	tmpl     *template.Template
	mu       sync.RWMutex
}

// New creates a pipeline using the default filters.
func New(config Config, registry *bundle.Registry) (*Pipeline, error) {
	return NewWithFilters(config, registry, DefaultFilters(config))
}

// NewWithFilters creates a pipeline, checking every filter named by the registry resolves.
func NewWithFilters(config Config, registry *bundle.Registry, filters *FilterRegistry) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if !registry.Frozen() {
		return nil, ErrNotFrozen
	}

	for _, b := range registry.Bundles() {
		err := b.Walk(func(n *bundle.Bundle) error {
			for _, name := range n.Filters() {
				if _, err := filters.Lookup(name); err != nil {
					return fmt.Errorf("bundle %s: %w", b.Name(), err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		config:   config,
		registry: registry,
		filters:  filters,
		manifest: &Manifest{Outputs: make(map[string]OutputInfo)},
	}, nil
}

func (p *Pipeline) Registry() *bundle.Registry {
	return p.registry
}

// Manifest returns a copy of the current build manifest.
func (p *Pipeline) Manifest() Manifest {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Manifest{Outputs: maps.Clone(p.manifest.Outputs)}
}

// LoadManifest reads a manifest written by an earlier build, so URLs can be served without rebuilding.
func (p *Pipeline) LoadManifest() error {
	data, err := os.ReadFile(p.config.ManifestPath)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}

	if manifest.Outputs == nil {
		manifest.Outputs = make(map[string]OutputInfo)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.manifest = &manifest
	return nil
}

// LoadTemplates parses page templates with the asset helpers available.
func (p *Pipeline) LoadTemplates(pattern string, customFuncs template.FuncMap) error {
	funcs := p.FuncMap()
	maps.Copy(funcs, customFuncs)

	tmpl, err := template.New("").Funcs(funcs).ParseGlob(pattern)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.tmpl = tmpl
	return nil
}

// FuncMap returns the template helpers: assets lists the URLs for a bundle.
func (p *Pipeline) FuncMap() template.FuncMap {
	return template.FuncMap{
		"assets":  p.URLs,
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
