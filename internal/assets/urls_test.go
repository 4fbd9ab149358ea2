package assets

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/webassets/internal/bundle"
)

func TestPipeline_URLs(t *testing.T) {
	config := testConfig(t)
	p := newTestPipeline(t, config)

	_, err := p.URLs(bundle.AllCSS)
	require.ErrorIs(t, err, ErrNotBuilt)

	_, err = p.URLs("nonexistent")
	require.ErrorIs(t, err, bundle.ErrNotFound)

	require.NoError(t, p.Build(context.Background()))

	manifest := p.Manifest()
	for _, name := range []string{bundle.AllCSS, bundle.LibsJS, bundle.AppJS} {
		b, err := p.Registry().Resolve(name)
		require.NoError(t, err)

		urls, err := p.URLs(name)
		require.NoError(t, err)
		require.Equal(t, []string{"/static/" + b.Output() + "?v=" + manifest.Outputs[b.Output()].Version}, urls)
	}
}

func TestPipeline_URLsDebug(t *testing.T) {
	config := testConfig(t)
	config.Debug = true
	config.URLPrefix = "/assets/"
	p := newTestPipeline(t, config)

	require.NoError(t, p.Build(context.Background()))

	urls, err := p.URLs(bundle.AllCSS)
	require.NoError(t, err)
	require.Equal(t, []string{
		"/assets/css/bootstrap.css",
		"/assets/css/bootstrap-responsive.css",
		"/assets/css/TileMap.css",
	}, urls)

	urls, err = p.URLs(bundle.AppJS)
	require.NoError(t, err)
	require.Equal(t, []string{
		"/assets/build/coffee.js?v=" + p.Manifest().Outputs["build/coffee.js"].Version,
	}, urls)
}

func TestPipeline_Handler(t *testing.T) {
	config := testConfig(t)
	p := newTestPipeline(t, config)
	require.NoError(t, p.Build(context.Background()))

	_, err := p.Handler("index.html", "TileMap", []string{bundle.AllCSS}, nil)
	require.Error(t, err)

	tmplDir := t.TempDir()
	page := `{{define "index.html"}}<title>{{.Title}}</title>` +
		`{{range .Styles}}<link href="{{.}}">{{end}}` +
		`{{range .Scripts}}<script src="{{.}}"></script>{{end}}` +
		`{{range assets "libs_js"}}<script data-helper src="{{.}}"></script>{{end}}{{end}}`
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "layout.tmpl"), []byte(page), 0600))
	require.NoError(t, p.LoadTemplates(filepath.Join(tmplDir, "*.tmpl"), nil))

	_, err = p.Handler("index.html", "TileMap", []string{"nonexistent"}, nil)
	require.ErrorIs(t, err, bundle.ErrNotFound)

	h, err := p.Handler("index.html", "TileMap", []string{bundle.AllCSS, bundle.AppJS}, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	manifest := p.Manifest()
	require.Contains(t, body, "<title>TileMap</title>")
	require.Contains(t, body, `<link href="/static/build/all.css?v=`+manifest.Outputs["build/all.css"].Version+`">`)
	require.Contains(t, body, `<script src="/static/build/app.js?v=`+manifest.Outputs["build/app.js"].Version+`"></script>`)
	require.Contains(t, body, `<script data-helper src="/static/build/libs.js?v=`+manifest.Outputs["build/libs.js"].Version+`"></script>`)
}

func TestPipeline_FileServer(t *testing.T) {
	config := testConfig(t)
	config.Compress = true
	p := newTestPipeline(t, config)
	require.NoError(t, p.BuildBundle(context.Background(), bundle.AllCSS))

	srv := httptest.NewServer(http.StripPrefix("/static", p.FileServer()))
	defer srv.Close()

	want := readOutput(t, config, "build/all.css")

	tests := []struct {
		name     string
		accept   string
		encoding string
	}{
		{name: "identity", accept: "", encoding: ""},
		{name: "gzip", accept: "gzip", encoding: "gzip"},
		{name: "zstd preferred", accept: "gzip, zstd", encoding: "zstd"},
		{name: "zstd refused", accept: "gzip, zstd;q=0", encoding: "gzip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/static/build/all.css", nil)
			require.NoError(t, err)
			// disable transparent decompression so the raw encoding is visible
			req.Header.Set("Accept-Encoding", tt.accept)
			if tt.accept == "" {
				req.Header.Set("Accept-Encoding", "identity")
			}

			resp, err := http.DefaultTransport.RoundTrip(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, tt.encoding, resp.Header.Get("Content-Encoding"))
			require.Contains(t, resp.Header.Get("Content-Type"), "text/css")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			if tt.encoding == "gzip" {
				zr, err := gzip.NewReader(bytes.NewReader(body))
				require.NoError(t, err)
				body, err = io.ReadAll(zr)
				require.NoError(t, err)
			}
			if tt.encoding == "zstd" {
				dec, err := zstd.NewReader(bytes.NewReader(body))
				require.NoError(t, err)
				body, err = io.ReadAll(dec)
				dec.Close()
				require.NoError(t, err)
			}

			require.Equal(t, want, string(body))
		})
	}
}

func TestAcceptsEncoding(t *testing.T) {
	tests := []struct {
		header   string
		coding   string
		expected bool
	}{
		{header: "", coding: "gzip", expected: false},
		{header: "gzip", coding: "gzip", expected: true},
		{header: "deflate, GZIP", coding: "gzip", expected: true},
		{header: "gzip;q=0.5", coding: "gzip", expected: true},
		{header: "gzip; q=0", coding: "gzip", expected: false},
		{header: "br, zstd", coding: "gzip", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			require.Equal(t, tt.expected, acceptsEncoding(tt.header, tt.coding))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := fingerprint([]byte("body{margin:0}"))
	require.Equal(t, a, fingerprint([]byte("body{margin:0}")))
	require.NotEqual(t, a, fingerprint([]byte("body{margin:1px}")))
	require.NotEmpty(t, a)
}
