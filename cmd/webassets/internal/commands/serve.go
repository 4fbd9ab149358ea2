package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/wolfeidau/webassets/internal/assets"
	httpmiddleware "github.com/wolfeidau/webassets/internal/http"
)

type ServeCmd struct {
	AssetFlags `embed:""`

	Listen      string   `help:"HTTP server listen address" default:"127.0.0.1:8080" env:"WEBASSETS_LISTEN"`
	Cert        string   `help:"path to TLS cert file" default:"" env:"WEBASSETS_TLS_CERT"`
	Key         string   `help:"path to TLS key file" default:"" env:"WEBASSETS_TLS_KEY"`
	CORSOrigins []string `help:"allowed CORS origins for static assets" default:"" env:"WEBASSETS_CORS_ORIGINS"`
	Templates   string   `help:"glob of page templates, enables the index page" default:"" env:"WEBASSETS_TEMPLATES"`
	Index       string   `help:"template rendered at /" default:"index.html"`
	Title       string   `help:"page title passed to the index template" default:"TileMap"`
	Page        []string `help:"bundles included in the index page" default:"all_css,libs_js,app_js"`
	NoBuild     bool     `help:"serve the existing manifest instead of building on startup" default:"false"`
	Watch       bool     `help:"rebuild bundles when their sources change" default:"false"`
}

func (c *ServeCmd) Validate() error {
	if err := c.AssetFlags.Validate(); err != nil {
		return err
	}
	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS certificate and key must be provided together (--cert and --key)")
	}
	return nil
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	if err := c.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, log, shutdown := c.setup(ctx, globals)
	defer shutdown()

	log.Info().Str("version", globals.Version).Bool("assets_debug", c.AssetsDebug).Msg("Starting server")

	pipeline, err := c.pipeline()
	if err != nil {
		return err
	}

	if c.NoBuild {
		if err := pipeline.LoadManifest(); err != nil {
			return err
		}
	} else if err := pipeline.Build(ctx); err != nil {
		return fmt.Errorf("failed to build bundles: %w", err)
	}

	handler, err := c.handler(pipeline)
	if err != nil {
		return err
	}

	if c.Watch {
		go func() {
			err := pipeline.Watch(ctx, func(name string, err error) {
				if err != nil {
					log.Error().Err(err).Str("bundle", name).Msg("Rebuild failed")
					return
				}
				log.Info().Str("bundle", name).Msg("Rebuilt")
			})
			if err != nil {
				log.Error().Err(err).Msg("Watcher stopped")
			}
		}()
	}

	srv := configureHTTPServer(c.Listen, httpmiddleware.AccessLog(log)(handler))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Bool("tls", c.Cert != "").Msg("Listening")
		if c.Cert != "" {
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (c *ServeCmd) handler(pipeline *assets.Pipeline) (http.Handler, error) {
	mux := http.NewServeMux()

	prefix := "/" + strings.Trim(c.URLPrefix, "/")
	static := httpmiddleware.CacheControl()(http.StripPrefix(prefix, pipeline.FileServer()))
	if origins := nonEmpty(c.CORSOrigins); len(origins) > 0 {
		static = cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
		}).Handler(static)
	}
	mux.Handle(prefix+"/", static)

	if c.Templates != "" {
		if err := pipeline.LoadTemplates(c.Templates, nil); err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}

		index, err := pipeline.Handler(c.Index, c.Title, c.Page, nil)
		if err != nil {
			return nil, err
		}
		mux.Handle("GET /{$}", index)
	}

	return mux, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
