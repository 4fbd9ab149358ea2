package bundle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_DeclaredBundles(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	require.True(t, reg.Frozen())
	require.Equal(t, []string{AllCSS, AppJS, LibsJS}, reg.Names())

	tests := []struct {
		name    string
		sources []string
		filters []string
		output  string
	}{
		{
			name:    AllCSS,
			sources: []string{"css/bootstrap.css", "css/bootstrap-responsive.css", "css/TileMap.css"},
			filters: []string{"cssmin"},
			output:  "build/all.css",
		},
		{
			name:    LibsJS,
			sources: []string{"js/libs/underscore.js", "js/libs/backbone.js", "js/libs/bootstrap.js"},
			filters: []string{"uglifyjs"},
			output:  "build/libs.js",
		},
		{
			name:    AppJS,
			sources: []string{"js/app/TileMap.coffee", "js/app/ColorMap.coffee", "js/app/Mandelbrot.coffee"},
			filters: []string{"uglifyjs"},
			output:  "build/app.js",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := reg.Resolve(tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.name, b.Name())
			require.Equal(t, tt.sources, b.Flatten())
			require.Equal(t, tt.filters, b.Filters())
			require.Equal(t, tt.output, b.Output())

			_, set := b.Debug()
			require.False(t, set)
		})
	}
}

func TestDefault_AppJSNestedCoffeeBundle(t *testing.T) {
	reg := MustDefault()

	app, err := reg.Resolve(AppJS)
	require.NoError(t, err)

	sources := app.Sources()
	require.Len(t, sources, 1)
	require.True(t, sources[0].IsNested())

	coffee := sources[0].Bundle()
	require.Equal(t, []string{"coffeescript"}, coffee.Filters())
	require.Equal(t, "build/coffee.js", coffee.Output())

	debug, set := coffee.Debug()
	require.True(t, set)
	require.False(t, debug)
}

func TestDefault_InvariantsHold(t *testing.T) {
	reg := MustDefault()

	outputs := map[string]bool{}
	for _, b := range reg.Bundles() {
		require.NotEmpty(t, b.Sources(), b.Name())
		for _, out := range b.outputs() {
			require.False(t, outputs[out], "duplicate output %s", out)
			outputs[out] = true
		}
	}
}

func TestRegistry_ResolveNotFound(t *testing.T) {
	reg := MustDefault()

	_, err := reg.Resolve("nonexistent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_Define(t *testing.T) {
	nested, err := New(Files("a.coffee"), []string{"coffeescript"}, "build/a.js")
	require.NoError(t, err)

	tests := []struct {
		name    string
		setup   func(r *Registry)
		bundle  string
		sources []AssetRef
		output  string
		wantErr error
	}{
		{
			name:    "valid",
			bundle:  "css",
			sources: Files("a.css"),
			output:  "build/a.css",
		},
		{
			name:    "empty sources",
			bundle:  "css",
			sources: nil,
			output:  "build/a.css",
			wantErr: ErrEmptySources,
		},
		{
			name:    "empty path",
			bundle:  "css",
			sources: Files(""),
			output:  "build/a.css",
			wantErr: ErrEmptyPath,
		},
		{
			name:    "empty name",
			bundle:  "",
			sources: Files("a.css"),
			output:  "build/a.css",
			wantErr: ErrEmptyName,
		},
		{
			name:    "missing output",
			bundle:  "css",
			sources: Files("a.css"),
			wantErr: ErrMissingOutput,
		},
		{
			name: "duplicate name",
			setup: func(r *Registry) {
				_, err := r.Define("css", Files("b.css"), nil, "build/b.css")
				require.NoError(t, err)
			},
			bundle:  "css",
			sources: Files("a.css"),
			output:  "build/a.css",
			wantErr: ErrDuplicateName,
		},
		{
			name: "duplicate output",
			setup: func(r *Registry) {
				_, err := r.Define("other", Files("b.css"), nil, "build/a.css")
				require.NoError(t, err)
			},
			bundle:  "css",
			sources: Files("a.css"),
			output:  "build/a.css",
			wantErr: ErrDuplicateOutput,
		},
		{
			name:    "nested output collides with parent",
			bundle:  "js",
			sources: []AssetRef{Nested(nested)},
			output:  "build/a.js",
			wantErr: ErrDuplicateOutput,
		},
		{
			name: "nested output collides with registered bundle",
			setup: func(r *Registry) {
				_, err := r.Define("other", Files("b.js"), nil, "build/a.js")
				require.NoError(t, err)
			},
			bundle:  "js",
			sources: []AssetRef{Nested(nested)},
			output:  "build/app.js",
			wantErr: ErrDuplicateOutput,
		},
		{
			name:    "frozen",
			setup:   func(r *Registry) { r.Freeze() },
			bundle:  "css",
			sources: Files("a.css"),
			output:  "build/a.css",
			wantErr: ErrFrozen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			if tt.setup != nil {
				tt.setup(reg)
			}

			b, err := reg.Define(tt.bundle, tt.sources, nil, tt.output)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, b)
				return
			}
			require.NoError(t, err)

			got, err := reg.Resolve(tt.bundle)
			require.NoError(t, err)
			require.Same(t, b, got)
		})
	}
}

func TestRegistry_FailedDefineLeavesNoTrace(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Define("a", Files("a.css"), nil, "build/a.css")
	require.NoError(t, err)

	_, err = reg.Define("b", Files("b.css"), nil, "build/a.css")
	require.ErrorIs(t, err, ErrDuplicateOutput)

	_, err = reg.Resolve("b")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = reg.Define("b", Files("b.css"), nil, "build/b.css")
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())
}
