package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type WatchCmd struct {
	AssetFlags `embed:""`
}

func (c *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	if err := c.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, log, shutdown := c.setup(ctx, globals)
	defer shutdown()

	pipeline, err := c.pipeline()
	if err != nil {
		return err
	}

	if err := pipeline.Build(ctx); err != nil {
		return fmt.Errorf("failed to build bundles: %w", err)
	}

	log.Info().Msg("Watching for changes (press Ctrl+C to stop)")

	return pipeline.Watch(ctx, func(name string, err error) {
		if err != nil {
			log.Error().Err(err).Str("bundle", name).Msg("Rebuild failed")
			return
		}
		log.Info().Str("bundle", name).Msg("Rebuilt")
	})
}
