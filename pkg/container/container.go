// Package container persists the engine's logical maps (lexicon, forward
// index, barrels, metadata) as JSON documents on disk. Writes go to a
// temp file in the same directory followed by an atomic rename, so a
// crash mid-write leaves the previous version intact.
package container

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mnohosten/paperfind/pkg/compression"
)

// ErrCorrupt is returned when a container file cannot be parsed.
var ErrCorrupt = errors.New("corrupt container")

// Codec serializes values to container files with optional compression.
type Codec struct {
	Algorithm compression.Algorithm
}

// NewCodec creates a codec with the given compression algorithm.
func NewCodec(algo compression.Algorithm) *Codec {
	return &Codec{Algorithm: algo}
}

// Save marshals v and atomically writes it to path.
func (c *Codec) Save(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal container %s: %w", filepath.Base(path), err)
	}

	payload, err := compression.Compress(data, c.Algorithm)
	if err != nil {
		return fmt.Errorf("failed to compress container %s: %w", filepath.Base(path), err)
	}

	return WriteAtomic(path, payload)
}

// Load reads path and unmarshals it into v. A file that cannot be
// decompressed or parsed yields ErrCorrupt; the caller must not ingest
// partial state.
func (c *Codec) Load(path string, v interface{}) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data, err := compression.Decompress(payload)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}

	return nil
}

// Exists reports whether a container file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteAtomic writes data to path via a temp file and rename. The temp
// file lives in the target directory so the rename never crosses
// filesystems.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
