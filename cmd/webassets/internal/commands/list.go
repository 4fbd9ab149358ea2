package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wolfeidau/webassets/internal/bundle"
)

type ListCmd struct {
	Bundles string `help:"YAML bundle declarations, defaults to the built-in bundles" default:"" env:"WEBASSETS_BUNDLES"`
}

func (l *ListCmd) Run(ctx context.Context, globals *Globals) error {
	flags := AssetFlags{Bundles: l.Bundles}
	reg, err := flags.registry()
	if err != nil {
		return fmt.Errorf("failed to load bundles: %w", err)
	}

	printBundles(os.Stdout, reg)
	return nil
}

func printBundles(w io.Writer, reg *bundle.Registry) {
	if reg.Len() == 0 {
		fmt.Fprintln(w, "No bundles declared.")
		return
	}

	fmt.Fprintf(w, "%-16s %-20s %-24s %s\n", "Bundle", "Output", "Filters", "Sources")
	fmt.Fprintln(w, strings.Repeat("─", 72))

	for _, b := range reg.Bundles() {
		fmt.Fprintf(w, "%-16s %-20s %-24s %d\n",
			b.Name(),
			b.Output(),
			strings.Join(b.Filters(), ","),
			len(b.Flatten()))
	}

	fmt.Fprintf(w, "\nTotal bundles: %d\n", reg.Len())
}
