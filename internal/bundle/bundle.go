package bundle

import "slices"

// AssetRef is a single entry in a bundle's sources: either a file path or a nested bundle.
type AssetRef struct {
	path   string
	nested *Bundle
}

// File references a source file relative to the static directory.
func File(path string) AssetRef {
	return AssetRef{path: path}
}

// Nested references a child bundle whose content is concatenated in place.
func Nested(b *Bundle) AssetRef {
	return AssetRef{nested: b}
}

// Files is a shorthand for a list of file references.
func Files(paths ...string) []AssetRef {
	refs := make([]AssetRef, 0, len(paths))
	for _, p := range paths {
		refs = append(refs, File(p))
	}
	return refs
}

func (r AssetRef) IsNested() bool { return r.nested != nil }

// Path returns the file path, empty for nested references.
func (r AssetRef) Path() string { return r.path }

// Bundle returns the nested bundle, nil for file references.
func (r AssetRef) Bundle() *Bundle { return r.nested }

// Bundle is an immutable, ordered group of sources with the filters and output used to build it.
type Bundle struct {
	name    string
	sources []AssetRef
	filters []string
	output  string
	debug   *bool
}

// Option configures optional bundle attributes.
type Option func(*Bundle)

// WithDebug sets the debug flag. True skips filters, false forces them even in debug mode.
func WithDebug(debug bool) Option {
	return func(b *Bundle) {
		b.debug = &debug
	}
}

// New constructs an unregistered bundle, typically used as a nested source.
func New(sources []AssetRef, filters []string, output string, opts ...Option) (*Bundle, error) {
	if len(sources) == 0 {
		return nil, ErrEmptySources
	}

	for _, src := range sources {
		if !src.IsNested() && src.path == "" {
			return nil, ErrEmptyPath
		}
	}

	b := &Bundle{
		sources: slices.Clone(sources),
		filters: slices.Clone(filters),
		output:  output,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

func (b *Bundle) Name() string { return b.name }

func (b *Bundle) Output() string { return b.output }

// Sources returns a copy of the ordered sources.
func (b *Bundle) Sources() []AssetRef { return slices.Clone(b.sources) }

// Filters returns a copy of the ordered filter names.
func (b *Bundle) Filters() []string { return slices.Clone(b.filters) }

// Debug returns the debug flag and whether it was set explicitly.
func (b *Bundle) Debug() (debug bool, ok bool) {
	if b.debug == nil {
		return false, false
	}
	return *b.debug, true
}

// Flatten returns the leaf file paths in depth-first order.
func (b *Bundle) Flatten() []string {
	var paths []string
	for _, src := range b.sources {
		if src.IsNested() {
			paths = append(paths, src.nested.Flatten()...)
			continue
		}
		paths = append(paths, src.path)
	}
	return paths
}

// Walk visits nested bundles before the bundle containing them, in source order.
// Returning an error stops the walk.
func (b *Bundle) Walk(fn func(*Bundle) error) error {
	for _, src := range b.sources {
		if !src.IsNested() {
			continue
		}
		if err := src.nested.Walk(fn); err != nil {
			return err
		}
	}
	return fn(b)
}

// Contains reports whether path is one of the bundle's leaf sources.
func (b *Bundle) Contains(path string) bool {
	return slices.Contains(b.Flatten(), path)
}

// outputs lists every non-empty output in the tree.
func (b *Bundle) outputs() []string {
	var outs []string
	_ = b.Walk(func(n *Bundle) error {
		if n.output != "" {
			outs = append(outs, n.output)
		}
		return nil
	})
	return outs
}
