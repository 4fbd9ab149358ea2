package assets

import (
	"errors"
	"runtime"
)

type Config struct {
	// Root of the static tree; sources and outputs are relative to it
	StaticDir string
	// URL path the static tree is served under (e.g., "/static")
	URLPrefix string
	// Path to the JSON build manifest
	ManifestPath string
	// Skip filters for bundles that do not set debug explicitly
	Debug bool
	// Write .gz and .zst siblings next to each output
	Compress bool
	// Path to the CoffeeScript compiler JavaScript (coffee-script.js)
	CoffeeScriptCompiler string
	// Maximum number of bundles built at once
	Concurrency int
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		StaticDir:    "static",
		URLPrefix:    "/static",
		ManifestPath: "static/build/manifest.json",
		Concurrency:  runtime.GOMAXPROCS(0),
	}
}

func (c Config) Validate() error {
	if c.StaticDir == "" {
		return errors.New("static directory is required")
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	return nil
}
