package assets

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/webassets/internal/telemetry"
)

// editors often emit several events per save
const watchDebounce = 100 * time.Millisecond

// Watch rebuilds the bundles containing a source file whenever it changes, until ctx is done.
// onBuild is called after each rebuild with its result.
func (p *Pipeline) Watch(ctx context.Context, onBuild func(name string, err error)) error {
	return p.watch(ctx, nil, onBuild)
}

func (p *Pipeline) watch(ctx context.Context, ready chan<- struct{}, onBuild func(name string, err error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range p.sourceDirs() {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	zerolog.Ctx(ctx).Info().Strs("dirs", watcher.WatchList()).Msg("Watching sources")

	if ready != nil {
		close(ready)
	}

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			names := p.bundlesContaining(event.Name)
			if len(names) == 0 {
				continue
			}

			zerolog.Ctx(ctx).Debug().Str("file", event.Name).Strs("bundles", names).Msg("Source changed")
			for _, name := range names {
				pending[name] = true
			}
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Watcher error")

		case <-timer.C:
			for _, name := range slices.Sorted(maps.Keys(pending)) {
				err := p.BuildBundle(ctx, name)
				telemetry.GetMetrics().RebuildsTotal.Add(ctx, 1)
				if onBuild != nil {
					onBuild(name, err)
				}
			}
			clear(pending)
		}
	}
}

// sourceDirs lists the directories holding bundle sources.
func (p *Pipeline) sourceDirs() []string {
	seen := make(map[string]bool)
	for _, b := range p.registry.Bundles() {
		for _, src := range b.Flatten() {
			seen[filepath.Dir(filepath.Join(p.config.StaticDir, filepath.FromSlash(src)))] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (p *Pipeline) bundlesContaining(file string) []string {
	rel, err := filepath.Rel(p.config.StaticDir, file)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)

	var names []string
	for _, b := range p.registry.Bundles() {
		if b.Contains(rel) {
			names = append(names, b.Name())
		}
	}
	return names
}
