package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wolfeidau/webassets/internal/bundle"
)

type ShowCmd struct {
	Name    string `arg:"" help:"bundle name"`
	Bundles string `help:"YAML bundle declarations, defaults to the built-in bundles" default:"" env:"WEBASSETS_BUNDLES"`
}

func (s *ShowCmd) Run(ctx context.Context, globals *Globals) error {
	flags := AssetFlags{Bundles: s.Bundles}
	reg, err := flags.registry()
	if err != nil {
		return fmt.Errorf("failed to load bundles: %w", err)
	}

	b, err := reg.Resolve(s.Name)
	if err != nil {
		return err
	}

	printBundle(os.Stdout, b)
	return nil
}

func printBundle(w io.Writer, b *bundle.Bundle) {
	fmt.Fprintf(w, "Bundle: %s\n", b.Name())
	printTree(w, b, 0)

	fmt.Fprintln(w, "\nFlattened sources:")
	for i, src := range b.Flatten() {
		fmt.Fprintf(w, "  %d. %s\n", i+1, src)
	}
}

func printTree(w io.Writer, b *bundle.Bundle, depth int) {
	indent := strings.Repeat("  ", depth)

	fmt.Fprintf(w, "%soutput:  %s\n", indent, orNone(b.Output()))
	fmt.Fprintf(w, "%sfilters: %s\n", indent, orNone(strings.Join(b.Filters(), ", ")))
	if debug, ok := b.Debug(); ok {
		fmt.Fprintf(w, "%sdebug:   %t\n", indent, debug)
	}
	fmt.Fprintf(w, "%ssources:\n", indent)

	for _, src := range b.Sources() {
		if !src.IsNested() {
			fmt.Fprintf(w, "%s  - %s\n", indent, src.Path())
			continue
		}
		fmt.Fprintf(w, "%s  - bundle:\n", indent)
		printTree(w, src.Bundle(), depth+2)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
