package compression

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Type represents the compression algorithm
type Type int

const (
	None Type = iota
	Gzip
	Zstd

	// Auto detects gzip or zstd input from its magic number and falls
	// back to None.
	Auto
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ParseType maps a configuration name onto a Type
func ParseType(name string) (Type, error) {
	switch name {
	case "", "none":
		return None, nil
	case "gzip":
		return Gzip, nil
	case "zstd":
		return Zstd, nil
	case "auto":
		return Auto, nil
	default:
		return None, fmt.Errorf("unsupported compression type: %q", name)
	}
}

// String returns the configuration name of t
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case Auto:
		return "auto"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Detect sniffs the compression of the stream behind br without consuming it
func Detect(br *bufio.Reader) Type {
	head, _ := br.Peek(len(zstdMagic))
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	default:
		return None
	}
}

// NewReader returns a reader yielding the decompressed contents of r
func NewReader(t Type, r io.Reader) (io.ReadCloser, error) {
	if t == Auto {
		br := bufio.NewReader(r)
		t, r = Detect(br), br
	}

	switch t {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", t)
	}
}

// Compressor handles data compression
type Compressor struct {
	compressionType Type
	level           int
	zstdEncoder     *zstd.Encoder
}

// NewCompressor creates a new compressor
func NewCompressor(t Type, level int) (*Compressor, error) {
	c := &Compressor{
		compressionType: t,
		level:           level,
	}

	if t == Zstd {
		var err error
		c.zstdEncoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}

	return c, nil
}

// Compress compresses data
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	switch c.compressionType {
	case None:
		return data, nil
	case Gzip:
		return c.compressGzip(data)
	case Zstd:
		return c.zstdEncoder.EncodeAll(data, make([]byte, 0, len(data))), nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", c.compressionType)
	}
}

// CompressedSize returns the length data would have after compression
func (c *Compressor) CompressedSize(data []byte) (int, error) {
	out, err := c.Compress(data)
	if err != nil {
		return 0, err
	}
	return len(out), nil
}

// Decompress decompresses data
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	if c.compressionType == None {
		return data, nil
	}
	r, err := NewReader(c.compressionType, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	decompressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed data: %w", err)
	}
	return decompressed, nil
}

// compressGzip compresses data using gzip
func (c *Compressor) compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write compressed data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Close releases resources
func (c *Compressor) Close() error {
	if c.zstdEncoder != nil {
		return c.zstdEncoder.Close()
	}
	return nil
}

// DefaultCompressor returns the zstd compressor used for size estimates
func DefaultCompressor() (*Compressor, error) {
	return NewCompressor(Zstd, 3)
}
