package assets

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webassets/internal/bundle"
)

// URLs returns the URLs a page includes for the named bundle.
//
// Outside debug mode this is the built output with its version appended. In debug mode each
// source is listed individually, except nested bundles forced out of debug which contribute
// their own output.
func (p *Pipeline) URLs(name string) ([]string, error) {
	b, err := p.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.urls(b, p.config.Debug)
}

func (p *Pipeline) urls(b *bundle.Bundle, inherited bool) ([]string, error) {
	debug := inherited
	if d, ok := b.Debug(); ok {
		debug = d
	}

	if !debug && b.Output() != "" {
		info, ok := p.manifest.Outputs[b.Output()]
		if !ok {
			return nil, fmt.Errorf("%s: %w", b.Output(), ErrNotBuilt)
		}
		return []string{p.assetURL(b.Output()) + "?v=" + info.Version}, nil
	}

	var urls []string
	for _, src := range b.Sources() {
		if !src.IsNested() {
			urls = append(urls, p.assetURL(src.Path()))
			continue
		}

		child, err := p.urls(src.Bundle(), debug)
		if err != nil {
			return nil, err
		}
		urls = append(urls, child...)
	}
	return urls, nil
}

func (p *Pipeline) assetURL(asset string) string {
	return strings.TrimSuffix(p.config.URLPrefix, "/") + "/" + strings.TrimPrefix(asset, "/")
}

// Handler returns an http.HandlerFunc that renders the given template with the URLs of the named bundles.
// Stylesheets and scripts are split so templates can place them in the head and body.
func (p *Pipeline) Handler(templateName, title string, bundles []string, contextFn func(ctx context.Context) any) (http.HandlerFunc, error) {
	p.mu.RLock()
	tmpl := p.tmpl
	p.mu.RUnlock()

	if tmpl == nil {
		return nil, errors.New("templates not loaded, call LoadTemplates first")
	}

	for _, name := range bundles {
		if _, err := p.registry.Resolve(name); err != nil {
			return nil, err
		}
	}

	if contextFn == nil {
		contextFn = func(ctx context.Context) any {
			return nil
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var styles, scripts []string
		for _, name := range bundles {
			urls, err := p.URLs(name)
			if err != nil {
				log.Error().Err(err).Str("bundle", name).Msg("Failed to load bundle urls")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			for _, u := range urls {
				if isStylesheet(u) {
					styles = append(styles, u)
					continue
				}
				scripts = append(scripts, u)
			}
		}

		data := map[string]any{
			"Title":   title,
			"Styles":  styles,
			"Scripts": scripts,
			"Context": contextFn(r.Context()),
		}

		if err := tmpl.ExecuteTemplate(w, templateName, data); err != nil {
			log.Error().Err(err).Msg("Failed to render template")
		}
	}, nil
}

func isStylesheet(u string) bool {
	u, _, _ = strings.Cut(u, "?")
	return path.Ext(u) == ".css"
}

// FileServer serves the static tree, preferring precompressed outputs the client accepts.
func (p *Pipeline) FileServer() http.Handler {
	root := http.Dir(p.config.StaticDir)
	files := http.FileServer(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		accept := r.Header.Get("Accept-Encoding")

		for _, enc := range encodings {
			if !acceptsEncoding(accept, enc.name) {
				continue
			}

			f, err := root.Open(name + enc.ext)
			if err != nil {
				continue
			}

			st, err := f.Stat()
			if err != nil || st.IsDir() {
				f.Close()
				continue
			}

			w.Header().Set("Content-Encoding", enc.name)
			w.Header().Add("Vary", "Accept-Encoding")
			if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
				w.Header().Set("Content-Type", ct)
			}

			http.ServeContent(w, r, name, st.ModTime(), f)
			f.Close()
			return
		}

		files.ServeHTTP(w, r)
	})
}

// acceptsEncoding reports whether an Accept-Encoding header allows coding.
func acceptsEncoding(header, coding string) bool {
	for part := range strings.SplitSeq(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(name), coding) {
			continue
		}
		q := strings.ReplaceAll(strings.TrimSpace(params), " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}
