package assets

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// encodings in order of preference when serving
var encodings = []struct {
	name string
	ext  string
}{
	{name: "zstd", ext: ".zst"},
	{name: "gzip", ext: ".gz"},
}

// writeCompressed writes precompressed siblings of an output file.
func writeCompressed(path string, data []byte) error {
	var gz bytes.Buffer
	gw, err := gzip.NewWriterLevel(&gz, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if err := copyClose(gw, data); err != nil {
		return fmt.Errorf("failed to gzip %s: %w", path, err)
	}
	if err := os.WriteFile(path+".gz", gz.Bytes(), 0644); err != nil { //nolint:gosec // public asset
		return err
	}

	var zs bytes.Buffer
	enc, err := zstd.NewWriter(&zs, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}
	if err := copyClose(enc, data); err != nil {
		return fmt.Errorf("failed to compress %s: %w", path, err)
	}
	return os.WriteFile(path+".zst", zs.Bytes(), 0644) //nolint:gosec // public asset
}

func copyClose(w io.WriteCloser, data []byte) error {
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
