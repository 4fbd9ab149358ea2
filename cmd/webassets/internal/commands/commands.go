package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/webassets/internal/assets"
	"github.com/wolfeidau/webassets/internal/bundle"
	"github.com/wolfeidau/webassets/internal/logger"
	"github.com/wolfeidau/webassets/internal/telemetry"
)

type Globals struct {
	Debug   bool
	Version string
}

// AssetFlags configures the bundle registry and the pipeline building it.
type AssetFlags struct {
	StaticDir    string  `help:"static assets directory" default:"static" env:"WEBASSETS_STATIC_DIR"`
	Bundles      string  `help:"YAML bundle declarations, defaults to the built-in bundles" default:"" env:"WEBASSETS_BUNDLES"`
	URLPrefix    string  `help:"URL path the static directory is served under" default:"/static" env:"WEBASSETS_URL_PREFIX"`
	Manifest     string  `help:"build manifest path" default:"static/build/manifest.json" env:"WEBASSETS_MANIFEST"`
	AssetsDebug  bool    `help:"skip filters for bundles without an explicit debug setting" default:"false" env:"WEBASSETS_DEBUG"`
	Compress     bool    `help:"write gzip and zstd copies of each output" default:"false" env:"WEBASSETS_COMPRESS"`
	CoffeeScript string  `help:"path to the CoffeeScript compiler (coffee-script.js)" default:"" env:"WEBASSETS_COFFEESCRIPT"`
	Concurrency  int     `help:"bundles built in parallel" default:"4" env:"WEBASSETS_CONCURRENCY"`
	Tracing      bool    `help:"export traces and metrics over OTLP" default:"false" env:"WEBASSETS_TRACING"`
	SampleRatio  float64 `help:"fraction of builds traced" default:"1" env:"WEBASSETS_TRACE_SAMPLE_RATIO"`
}

func (f *AssetFlags) Validate() error {
	if f.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", f.Concurrency)
	}
	if f.SampleRatio < 0 || f.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be between 0 and 1, got %v", f.SampleRatio)
	}
	return nil
}

func (f *AssetFlags) registry() (*bundle.Registry, error) {
	if f.Bundles == "" {
		return bundle.Default()
	}
	return bundle.LoadFile(f.Bundles)
}

func (f *AssetFlags) config() assets.Config {
	return assets.Config{
		StaticDir:            f.StaticDir,
		URLPrefix:            f.URLPrefix,
		ManifestPath:         f.Manifest,
		Debug:                f.AssetsDebug,
		Compress:             f.Compress,
		CoffeeScriptCompiler: f.CoffeeScript,
		Concurrency:          f.Concurrency,
	}
}

func (f *AssetFlags) pipeline() (*assets.Pipeline, error) {
	reg, err := f.registry()
	if err != nil {
		return nil, fmt.Errorf("failed to load bundles: %w", err)
	}

	pipeline, err := assets.New(f.config(), reg)
	if err != nil {
		return nil, fmt.Errorf("failed to create assets pipeline: %w", err)
	}
	return pipeline, nil
}

// setup configures logging and, when enabled, telemetry. The returned func flushes telemetry.
func (f *AssetFlags) setup(ctx context.Context, globals *Globals) (context.Context, zerolog.Logger, func()) {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	if !f.Tracing {
		return ctx, log, func() {}
	}

	shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Options{
		ServiceName: "webassets",
		Version:     globals.Version,
		SampleRatio: f.SampleRatio,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without tracing")
		return ctx, log, func() {}
	}

	return ctx, log, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
