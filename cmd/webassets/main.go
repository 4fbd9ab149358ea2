package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/webassets/cmd/webassets/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug logging."`
		Version kong.VersionFlag
		Build   commands.BuildCmd `cmd:"" help:"Build bundles"`
		List    commands.ListCmd  `cmd:"" help:"List declared bundles"`
		Show    commands.ShowCmd  `cmd:"" help:"Show a bundle and its flattened sources"`
		Watch   commands.WatchCmd `cmd:"" help:"Rebuild bundles when their sources change"`
		Serve   commands.ServeCmd `cmd:"" help:"Serve the static tree and pages for local development"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Description("Build and serve the web asset bundles."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
