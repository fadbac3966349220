package normalize

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

const (
	dictCap = 1 << 16

	// maxDecompressed bounds the output of a single blob.
	maxDecompressed = 16 << 20
)

// compress writes data as a classic .lzma stream with its size in the header.
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	cfg := lzma.WriterConfig{
		DictCap:      dictCap,
		SizeInHeader: true,
		Size:         int64(len(data)),
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating lzma writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("writing lzma stream: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing lzma stream: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading lzma header: %w", err)
	}
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressed+1))
	if err != nil {
		return nil, fmt.Errorf("reading lzma stream: %w", err)
	}
	if len(out) > maxDecompressed {
		return nil, fmt.Errorf("decompressed configuration exceeds %d bytes", maxDecompressed)
	}
	return out, nil
}
