package bundle

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// declFile is the on-disk form of a registry.
//
//	bundles:
//	  app_js:
//	    sources:
//	      - bundle:
//	          sources: [js/app/TileMap.coffee]
//	          filters: [coffeescript]
//	          output: build/coffee.js
//	          debug: false
//	    filters: [uglifyjs]
//	    output: build/app.js
type declFile struct {
	Bundles map[string]declBundle `yaml:"bundles"`
}

type declBundle struct {
	Sources []declSource `yaml:"sources"`
	Filters []string     `yaml:"filters"`
	Output  string       `yaml:"output"`
	Debug   *bool        `yaml:"debug"`
}

type declSource struct {
	Path   string
	Bundle *declBundle
}

func (s *declSource) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&s.Path)
	case yaml.MappingNode:
		var wrapper struct {
			Bundle *declBundle `yaml:"bundle"`
		}
		if err := node.Decode(&wrapper); err != nil {
			return err
		}
		if wrapper.Bundle == nil {
			return fmt.Errorf("line %d: source mapping must contain a bundle key", node.Line)
		}
		if err := knownFields(node, "bundle"); err != nil {
			return err
		}
		if err := knownFields(node.Content[1], "sources", "filters", "output", "debug"); err != nil {
			return err
		}
		s.Bundle = wrapper.Bundle
		return nil
	default:
		return fmt.Errorf("line %d: source must be a path or a bundle", node.Line)
	}
}

// knownFields rejects mapping keys outside keys. Nested mappings are decoded by
// UnmarshalYAML, which does not inherit the decoder's strictness.
func knownFields(node *yaml.Node, keys ...string) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(keys, key.Value) {
			return fmt.Errorf("line %d: field %s not found in bundle", key.Line, key.Value)
		}
	}
	return nil
}

// LoadFile reads a YAML declaration file into a frozen registry.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle declarations: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes YAML declarations into a frozen registry.
func Parse(r io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var decl declFile
	if err := dec.Decode(&decl); err != nil {
		if errors.Is(err, io.EOF) {
			return NewRegistry().Freeze(), nil
		}
		return nil, fmt.Errorf("failed to decode bundle declarations: %w", err)
	}

	reg := NewRegistry()

	for _, name := range slices.Sorted(maps.Keys(decl.Bundles)) {
		db := decl.Bundles[name]

		sources, err := db.refs()
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", name, err)
		}

		if _, err := reg.Define(name, sources, db.Filters, db.Output, db.options()...); err != nil {
			return nil, err
		}
	}

	return reg.Freeze(), nil
}

func (d declBundle) options() []Option {
	if d.Debug == nil {
		return nil
	}
	return []Option{WithDebug(*d.Debug)}
}

func (d declBundle) refs() ([]AssetRef, error) {
	refs := make([]AssetRef, 0, len(d.Sources))
	for _, src := range d.Sources {
		if src.Bundle == nil {
			refs = append(refs, File(src.Path))
			continue
		}

		childRefs, err := src.Bundle.refs()
		if err != nil {
			return nil, err
		}

		child, err := New(childRefs, src.Bundle.Filters, src.Bundle.Output, src.Bundle.options()...)
		if err != nil {
			return nil, err
		}
		refs = append(refs, Nested(child))
	}
	return refs, nil
}
