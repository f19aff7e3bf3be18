package xbgf

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// gzReader reads through a decompressor if the stream was compressed,
// otherwise straight from the source.
type gzReader struct {
	r    io.Reader
	zrdr *gzip.Reader
}

func (g *gzReader) Read(p []byte) (int, error) { return g.r.Read(p) }

// Close closes the decompressor. The underlying source is left alone,
// since we did not open it.
func (g *gzReader) Close() error {
	if g.zrdr == nil {
		return nil
	}
	return g.zrdr.Close()
}

// MaybeGzip looks at the first two bytes of r. If they are the gzip
// magic number, we return a decompressing reader. Otherwise reads come
// from r unchanged.
func MaybeGzip(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zrdr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &gzReader{r: zrdr, zrdr: zrdr}, nil
	}
	return &gzReader{r: br}, nil
}

// ReadFile maps the file read-only and reads it with Read. Compressed
// files are fine.
func ReadFile(fname string, opts Options) (*Structure, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	fi, err := fp.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 { // cannot map an empty file
		return nil, fmt.Errorf("%s: %w", fname, ErrNoAtoms)
	}
	mm, err := mmap.Map(fp, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", fname, err)
	}
	defer mm.Unmap()
	s, err := Read(bytes.NewReader(mm), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return s, nil
}
