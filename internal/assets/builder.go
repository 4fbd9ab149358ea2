package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/webassets/internal/bundle"
	"github.com/wolfeidau/webassets/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Build builds every bundle in the registry and writes the manifest.
func (p *Pipeline) Build(ctx context.Context) error {
	bundles := p.registry.Bundles()
	if len(bundles) == 0 {
		return errors.New("no bundles declared")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)

	var (
		mu      sync.Mutex
		outputs = make(map[string]OutputInfo)
	)

	for _, b := range bundles {
		g.Go(func() error {
			outs, err := p.build(gctx, b)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			maps.Copy(outputs, outs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return p.record(outputs)
}

// BuildBundle builds a single bundle by name and updates the manifest.
func (p *Pipeline) BuildBundle(ctx context.Context, name string) error {
	b, err := p.registry.Resolve(name)
	if err != nil {
		return err
	}

	outs, err := p.build(ctx, b)
	if err != nil {
		return err
	}

	return p.record(outs)
}

func (p *Pipeline) build(ctx context.Context, b *bundle.Bundle) (map[string]OutputInfo, error) {
	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("bundle", b.Name()))

	ctx, span := telemetry.Tracer().Start(ctx, "assets.build", trace.WithAttributes(attribute.String("bundle", b.Name())))
	defer span.End()

	started := time.Now()
	outs := make(map[string]OutputInfo)

	_, err := p.compile(ctx, b.Name(), b, p.config.Debug, outs)
	if err != nil {
		m.BuildErrorsTotal.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		zerolog.Ctx(ctx).Error().Err(err).Str("bundle", b.Name()).Msg("Build failed")
		return nil, err
	}

	m.BuildDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)

	zerolog.Ctx(ctx).Info().
		Str("bundle", b.Name()).
		Str("output", b.Output()).
		Dur("duration", time.Since(started)).
		Msg("Built bundle")

	return outs, nil
}

// compile resolves a bundle depth-first: nested bundles are built and written before their
// content joins the parent's input, then the parent's filters run unless it is in debug mode.
func (p *Pipeline) compile(ctx context.Context, name string, b *bundle.Bundle, inherited bool, outs map[string]OutputInfo) ([]byte, error) {
	debug := inherited
	if d, ok := b.Debug(); ok {
		debug = d
	}

	var buf bytes.Buffer
	for _, src := range b.Sources() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var data []byte
		if src.IsNested() {
			child, err := p.compile(ctx, name, src.Bundle(), debug, outs)
			if err != nil {
				return nil, err
			}
			data = child
		} else {
			source, err := p.readSource(src.Path())
			if err != nil {
				return nil, fmt.Errorf("bundle %s: %w", name, err)
			}
			data = source
		}

		buf.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}

	content := buf.Bytes()

	if !debug {
		var err error
		content, err = p.applyFilters(ctx, name, b.Filters(), content)
		if err != nil {
			return nil, err
		}
	}

	if b.Output() == "" {
		return content, nil
	}

	if err := p.writeOutput(b.Output(), content); err != nil {
		return nil, fmt.Errorf("bundle %s: %w", name, err)
	}

	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("bundle", name))
	m.BundlesBuiltTotal.Add(ctx, 1, attrs)
	m.OutputBytes.Record(ctx, int64(len(content)), attrs)

	outs[b.Output()] = OutputInfo{
		Bundle:  name,
		Version: fingerprint(content),
		Size:    len(content),
		Sources: b.Flatten(),
		Debug:   debug,
		BuiltAt: time.Now().UTC(),
	}

	zerolog.Ctx(ctx).Debug().Str("bundle", name).Str("file", b.Output()).Int("size", len(content)).Msg("Wrote output")

	return content, nil
}

func (p *Pipeline) applyFilters(ctx context.Context, name string, filters []string, content []byte) ([]byte, error) {
	m := telemetry.GetMetrics()

	for _, filterName := range filters {
		f, err := p.filters.Lookup(filterName)
		if err != nil {
			return nil, &FilterError{Bundle: name, Filter: filterName, Err: err}
		}

		started := time.Now()
		content, err = f.Apply(ctx, content)
		if err != nil {
			return nil, &FilterError{Bundle: name, Filter: filterName, Err: err}
		}

		m.FilterDuration.Record(ctx, float64(time.Since(started).Milliseconds()),
			metric.WithAttributes(attribute.String("filter", filterName)))
	}

	return content, nil
}

func (p *Pipeline) readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(p.config.StaticDir, filepath.FromSlash(path)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w: %w", path, ErrFileNotFound, err)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput replaces the output atomically so a concurrent server never sees a partial file.
func (p *Pipeline) writeOutput(output string, content []byte) error {
	path := filepath.Join(p.config.StaticDir, filepath.FromSlash(output))

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".webassets-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	if err := tmp.Chmod(0644); err != nil { //nolint:gosec // public asset
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", output, err)
	}

	if p.config.Compress {
		return writeCompressed(path, content)
	}
	return nil
}

// record merges build outputs into the manifest and persists it.
func (p *Pipeline) record(outs map[string]OutputInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	maps.Copy(p.manifest.Outputs, outs)

	if p.config.ManifestPath == "" {
		return nil
	}

	data, err := json.MarshalIndent(p.manifest, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.config.ManifestPath), 0750); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	return os.WriteFile(p.config.ManifestPath, data, 0600)
}
