package assets

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Filter transforms the concatenated content of a bundle.
type Filter interface {
	Name() string
	Apply(ctx context.Context, input []byte) ([]byte, error)
}

// FilterRegistry resolves filter names used in bundle declarations.
type FilterRegistry struct {
	filters map[string]Filter
}

func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{filters: make(map[string]Filter)}
}

// DefaultFilters registers cssmin, uglifyjs and coffeescript.
func DefaultFilters(config Config) *FilterRegistry {
	fr := NewFilterRegistry()
	fr.Register(&esbuildFilter{name: "cssmin", loader: api.LoaderCSS})
	fr.Register(&esbuildFilter{name: "uglifyjs", loader: api.LoaderJS})

	coffee := NewCoffeeScriptFilter(config.CoffeeScriptCompiler)
	fr.Register(coffee)
	fr.Alias("coffeescript-compile", coffee.Name())
	return fr
}

func (fr *FilterRegistry) Register(f Filter) {
	fr.filters[f.Name()] = f
}

// Alias makes an existing filter available under another name.
func (fr *FilterRegistry) Alias(alias, name string) {
	if f, ok := fr.filters[name]; ok {
		fr.filters[alias] = f
	}
}

func (fr *FilterRegistry) Lookup(name string) (Filter, error) {
	f, ok := fr.filters[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownFilter)
	}
	return f, nil
}

func (fr *FilterRegistry) Names() []string {
	return slices.Sorted(maps.Keys(fr.filters))
}

// esbuildFilter minifies CSS or JavaScript without bundling.
type esbuildFilter struct {
	name   string
	loader api.Loader
}

func (f *esbuildFilter) Name() string { return f.name }

func (f *esbuildFilter) Apply(_ context.Context, input []byte) ([]byte, error) {
	result := api.Transform(string(input), api.TransformOptions{
		Loader:            f.loader,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LegalComments:     api.LegalCommentsEndOfFile,
	})

	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, msg := range result.Errors {
			if msg.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text))
				continue
			}
			msgs = append(msgs, msg.Text)
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}

	return result.Code, nil
}
