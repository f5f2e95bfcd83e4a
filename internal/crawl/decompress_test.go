package crawl

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestDecompressPayload_PlainBody(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	out, err := decompressPayload(body, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != string(body) {
		t.Errorf("got %q, want %q", out, body)
	}
}

func TestDecompressPayload_GzipByHeader(t *testing.T) {
	plain := []byte(`{"hello":"gzip"}`)
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(plain); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	out, err := decompressPayload(buf.Bytes(), "gzip")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != string(plain) {
		t.Errorf("got %q, want %q", out, plain)
	}
}

func TestDecompressPayload_GzipByMagicBytes(t *testing.T) {
	plain := []byte(`{"hello":"sniffed"}`)
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write(plain)
	_ = w.Close()

	// No content-encoding header at all; detection falls back to magic bytes.
	out, err := decompressPayload(buf.Bytes(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != string(plain) {
		t.Errorf("got %q, want %q", out, plain)
	}
}

func TestDecompressPayload_Zstd(t *testing.T) {
	plain := []byte(`{"hello":"zstd"}`)
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	compressed := enc.EncodeAll(plain, nil)
	_ = enc.Close()

	out, err := decompressPayload(compressed, "zstd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != string(plain) {
		t.Errorf("got %q, want %q", out, plain)
	}
}

func TestDecompressPayload_UnsupportedEncoding(t *testing.T) {
	_, err := decompressPayload([]byte("whatever"), "br")
	if err == nil {
		t.Fatal("expected error for unsupported content-encoding")
	}
}
