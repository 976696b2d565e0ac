package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// Algorithm represents a compression algorithm for on-disk containers.
type Algorithm byte

const (
	// AlgorithmNone stores containers uncompressed
	AlgorithmNone Algorithm = iota
	// AlgorithmSnappy is fast compression with moderate ratio (default for barrels)
	AlgorithmSnappy
	// AlgorithmZstd is balanced compression with good speed and ratio
	AlgorithmZstd
	// AlgorithmGzip is standard compression with good ratio
	AlgorithmGzip
)

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "none"
	case AlgorithmSnappy:
		return "snappy"
	case AlgorithmZstd:
		return "zstd"
	case AlgorithmGzip:
		return "gzip"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps a config string to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "", "none":
		return AlgorithmNone, nil
	case "snappy":
		return AlgorithmSnappy, nil
	case "zstd":
		return AlgorithmZstd, nil
	case "gzip":
		return AlgorithmGzip, nil
	default:
		return AlgorithmNone, fmt.Errorf("unknown compression algorithm: %s", name)
	}
}

// Compress compresses data with the given algorithm. The first byte of
// the output records the algorithm so Decompress is self-describing.
func Compress(data []byte, algo Algorithm) ([]byte, error) {
	switch algo {
	case AlgorithmNone:
		out := make([]byte, 1+len(data))
		out[0] = byte(AlgorithmNone)
		copy(out[1:], data)
		return out, nil

	case AlgorithmSnappy:
		encoded := snappy.Encode(nil, data)
		out := make([]byte, 1+len(encoded))
		out[0] = byte(AlgorithmSnappy)
		copy(out[1:], encoded)
		return out, nil

	case AlgorithmZstd:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		defer encoder.Close()
		encoded := encoder.EncodeAll(data, nil)
		out := make([]byte, 1+len(encoded))
		out[0] = byte(AlgorithmZstd)
		copy(out[1:], encoded)
		return out, nil

	case AlgorithmGzip:
		var buf bytes.Buffer
		buf.WriteByte(byte(AlgorithmGzip))
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to gzip data: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to close gzip writer: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %d", algo)
	}
}

// Decompress reverses Compress using the algorithm byte prefix.
func Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty compressed payload")
	}

	algo := Algorithm(data[0])
	payload := data[1:]

	switch algo {
	case AlgorithmNone:
		return payload, nil

	case AlgorithmSnappy:
		decoded, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode snappy data: %w", err)
		}
		return decoded, nil

	case AlgorithmZstd:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()
		decoded, err := decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decode zstd data: %w", err)
		}
		return decoded, nil

	case AlgorithmGzip:
		r, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer r.Close()
		decoded, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode gzip data: %w", err)
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %d", algo)
	}
}
