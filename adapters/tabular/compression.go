package tabular

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	gzip "github.com/klauspost/pgzip"
)

// Compression suffixes understood on input and output paths
const (
	CompressionNone  = ""
	CompressionGzip  = ".gz"
	CompressionBzip2 = ".bz2"
)

// SplitCompression strips a .gz or .bz2 suffix and reports it
func SplitCompression(path string) (base, compression string) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case CompressionGzip, CompressionBzip2:
		return path[:len(path)-len(ext)], ext
	}
	return path, CompressionNone
}

// stackCloser closes its layers innermost first
type stackCloser struct {
	io.Reader
	io.Writer
	layers []io.Closer
}

func (s *stackCloser) Close() error {
	var first error
	for _, c := range s.layers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openReader opens path, decompressing by suffix
func openReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	buffered := bufio.NewReader(f)

	_, compression := SplitCompression(path)
	switch compression {
	case CompressionGzip:
		zr, err := gzip.NewReader(buffered)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &stackCloser{Reader: zr, layers: []io.Closer{zr, f}}, nil
	case CompressionBzip2:
		br, err := bzip2.NewReader(buffered, new(bzip2.ReaderConfig))
		if err != nil {
			f.Close()
			return nil, err
		}
		return &stackCloser{Reader: br, layers: []io.Closer{br, f}}, nil
	}
	return &stackCloser{Reader: buffered, layers: []io.Closer{f}}, nil
}

// createWriter creates path, compressing by suffix
func createWriter(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	_, compression := SplitCompression(path)
	switch compression {
	case CompressionGzip:
		zw := gzip.NewWriter(f)
		return &stackCloser{Writer: zw, layers: []io.Closer{zw, f}}, nil
	case CompressionBzip2:
		bw, err := bzip2.NewWriter(f, new(bzip2.WriterConfig))
		if err != nil {
			f.Close()
			return nil, err
		}
		return &stackCloser{Writer: bw, layers: []io.Closer{bw, f}}, nil
	}
	return f, nil
}
