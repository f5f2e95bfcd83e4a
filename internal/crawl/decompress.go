package crawl

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// gzip magic bytes, used to detect compression when content-encoding is
// absent or unreliable (spec.md §4.6 step 2).
var gzipMagic = []byte{0x1f, 0x8b}

// zstd magic bytes.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// decompressPayload decompresses body according to the fetcher's
// Content-Encoding header, falling back to magic-byte sniffing when the
// header is absent or "identity". Supports gzip and zstd, the two lossless
// schemes the fetcher is known to use.
func decompressPayload(body []byte, contentEncoding string) ([]byte, error) {
	switch contentEncoding {
	case "gzip":
		return gunzip(body)
	case "zstd":
		return unzstd(body)
	case "", "identity":
		switch {
		case bytes.HasPrefix(body, gzipMagic):
			return gunzip(body)
		case bytes.HasPrefix(body, zstdMagic):
			return unzstd(body)
		default:
			return body, nil
		}
	default:
		return nil, fmt.Errorf("unsupported content-encoding %q", contentEncoding)
	}
}

func gunzip(body []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	return out, nil
}

func unzstd(body []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zstd read: %w", err)
	}
	return out, nil
}
