package compression

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	data := []byte(strings.Repeat("scholarly documents and posting lists ", 100))

	algos := []Algorithm{AlgorithmNone, AlgorithmSnappy, AlgorithmZstd, AlgorithmGzip}
	for _, algo := range algos {
		compressed, err := Compress(data, algo)
		if err != nil {
			t.Fatalf("%s: Compress failed: %v", algo, err)
		}

		decompressed, err := Decompress(compressed)
		if err != nil {
			t.Fatalf("%s: Decompress failed: %v", algo, err)
		}

		if !bytes.Equal(data, decompressed) {
			t.Errorf("%s: round trip mismatch", algo)
		}
	}
}

func TestCompressReducesSize(t *testing.T) {
	data := []byte(strings.Repeat("abcdefgh", 1000))

	for _, algo := range []Algorithm{AlgorithmSnappy, AlgorithmZstd, AlgorithmGzip} {
		compressed, err := Compress(data, algo)
		if err != nil {
			t.Fatalf("%s: Compress failed: %v", algo, err)
		}
		if len(compressed) >= len(data) {
			t.Errorf("%s: expected compression, got %d >= %d bytes", algo, len(compressed), len(data))
		}
	}
}

func TestDecompressEmpty(t *testing.T) {
	if _, err := Decompress(nil); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestParseAlgorithm(t *testing.T) {
	cases := map[string]Algorithm{
		"":       AlgorithmNone,
		"none":   AlgorithmNone,
		"snappy": AlgorithmSnappy,
		"zstd":   AlgorithmZstd,
		"gzip":   AlgorithmGzip,
	}
	for name, want := range cases {
		got, err := ParseAlgorithm(name)
		if err != nil {
			t.Fatalf("ParseAlgorithm(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseAlgorithm(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseAlgorithm("lzma"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}
