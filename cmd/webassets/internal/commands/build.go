package commands

import (
	"context"
	"fmt"
	"time"
)

type BuildCmd struct {
	AssetFlags `embed:""`

	Bundle []string `help:"bundle to build, repeatable; builds all when omitted" short:"b"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	if err := c.Validate(); err != nil {
		return err
	}

	ctx, log, shutdown := c.setup(ctx, globals)
	defer shutdown()

	pipeline, err := c.pipeline()
	if err != nil {
		return err
	}

	started := time.Now()

	if len(c.Bundle) == 0 {
		if err := pipeline.Build(ctx); err != nil {
			return fmt.Errorf("failed to build bundles: %w", err)
		}
	} else {
		for _, name := range c.Bundle {
			if err := pipeline.BuildBundle(ctx, name); err != nil {
				return fmt.Errorf("failed to build %s: %w", name, err)
			}
		}
	}

	log.Info().
		Int("outputs", len(pipeline.Manifest().Outputs)).
		Dur("duration", time.Since(started)).
		Msg("Build complete")

	return nil
}
