package streamloc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// OpenFile opens path as a byte source, transparently decompressing ".gz"
// and ".zst" files. Offsets and columns then address the decompressed
// content, which is what diagnostics against compressed sources want.
//
// Decompressed sources are not seekable, so they cannot warm-start from a
// Snapshot.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		return &decompressedFile{r: gz, close: func() error {
			gzErr := gz.Close()
			if err := f.Close(); err != nil {
				return err
			}
			return gzErr
		}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd %s: %w", path, err)
		}
		return &decompressedFile{r: zr, close: func() error {
			zr.Close()
			return f.Close()
		}}, nil
	default:
		return f, nil
	}
}

type decompressedFile struct {
	r     io.Reader
	close func() error
}

func (d *decompressedFile) Read(p []byte) (int, error) { return d.r.Read(p) }
func (d *decompressedFile) Close() error               { return d.close() }
