// Package docstore provides random access into the corpus CSV through a
// persistent doc_id → byte offset index. Records may contain quoted
// embedded newlines, so all scanning goes through encoding/csv rather
// than line splitting.
package docstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mnohosten/paperfind/pkg/container"
)

// Columns is the corpus CSV header, in order.
var Columns = []string{
	"id", "title", "keywords", "venue", "year", "n_citation",
	"url", "abstract", "authors", "doc_type", "references",
}

// Record is one corpus row. All fields are kept as raw CSV strings;
// callers parse year and citation counts as needed.
type Record struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Keywords   string `json:"keywords"`
	Venue      string `json:"venue"`
	Year       string `json:"year"`
	NCitation  string `json:"n_citation"`
	URL        string `json:"url"`
	Abstract   string `json:"abstract"`
	Authors    string `json:"authors"`
	DocType    string `json:"doc_type"`
	References string `json:"references"`
}

func recordFromRow(row []string) *Record {
	return &Record{
		ID:         row[0],
		Title:      row[1],
		Keywords:   row[2],
		Venue:      row[3],
		Year:       row[4],
		NCitation:  row[5],
		URL:        row[6],
		Abstract:   row[7],
		Authors:    row[8],
		DocType:    row[9],
		References: row[10],
	}
}

func (r *Record) row() []string {
	return []string{
		r.ID, r.Title, r.Keywords, r.Venue, r.Year, r.NCitation,
		r.URL, r.Abstract, r.Authors, r.DocType, r.References,
	}
}

// Store maps document IDs to byte offsets in the corpus CSV. Fetches
// require an open handle; the handle is shared and guarded by a mutex.
type Store struct {
	csvPath   string
	indexPath string
	codec     *container.Codec

	mu      sync.Mutex
	file    *os.File
	offsets map[string]int64
}

// New creates a store over csvPath with its offset index at indexPath.
// No index is loaded or built; call BuildIndex or LoadIndex first.
func New(csvPath, indexPath string, codec *container.Codec) *Store {
	return &Store{
		csvPath:   csvPath,
		indexPath: indexPath,
		codec:     codec,
		offsets:   make(map[string]int64),
	}
}

// BuildIndex scans the CSV once, recording the byte offset of every
// record (header excluded), and persists the index.
func (s *Store) BuildIndex() error {
	f, err := os.Open(s.csvPath)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(Columns)

	// Skip the header row.
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("failed to read corpus header: %w", err)
	}

	offsets := make(map[string]int64)
	for {
		offset := reader.InputOffset()
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to scan corpus at offset %d: %w", offset, err)
		}
		offsets[row[0]] = offset
	}

	s.mu.Lock()
	s.offsets = offsets
	s.mu.Unlock()

	return s.saveIndex()
}

// LoadIndex reads a previously persisted offset index.
func (s *Store) LoadIndex() error {
	offsets := make(map[string]int64)
	if err := s.codec.Load(s.indexPath, &offsets); err != nil {
		return err
	}

	s.mu.Lock()
	s.offsets = offsets
	s.mu.Unlock()
	return nil
}

func (s *Store) saveIndex() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codec.Save(s.indexPath, s.offsets)
}

// Open acquires the CSV file handle. Fetch operations fail with
// ErrNotOpen until Open succeeds.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		return nil
	}

	f, err := os.Open(s.csvPath)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	s.file = f
	return nil
}

// Close releases the file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Get fetches a single record by ID. Unknown IDs yield ErrNotFound;
// a closed store yields ErrNotOpen.
func (s *Store) Get(docID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(docID)
}

// GetMany fetches records preserving input order; unknown IDs map to nil.
func (s *Store) GetMany(docIDs []string) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*Record, len(docIDs))
	for i, id := range docIDs {
		rec, err := s.getLocked(id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}
	return records, nil
}

func (s *Store) getLocked(docID string) (*Record, error) {
	if s.file == nil {
		return nil, ErrNotOpen
	}

	offset, ok := s.offsets[docID]
	if !ok {
		return nil, ErrNotFound
	}

	if _, err := s.file.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to document %s: %w", docID, err)
	}

	reader := csv.NewReader(s.file)
	reader.FieldsPerRecord = len(Columns)

	row, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", docID, err)
	}

	return recordFromRow(row), nil
}

// Has reports whether a document ID is present in the offset index.
func (s *Store) Has(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.offsets[docID]
	return ok
}

// Len returns the number of indexed documents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.offsets)
}

// Append writes a new record to the end of the CSV and indexes its
// offset. Fields are escaped by encoding/csv.
func (s *Store) Append(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.offsets[rec.ID]; exists {
		return ErrDuplicateID
	}

	f, err := os.OpenFile(s.csvPath, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open corpus for append: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat corpus: %w", err)
	}
	offset := info.Size()

	// Guard against a corpus missing its final newline.
	if offset > 0 {
		r, err := os.Open(s.csvPath)
		if err != nil {
			return fmt.Errorf("failed to reopen corpus: %w", err)
		}
		last := make([]byte, 1)
		_, err = r.ReadAt(last, offset-1)
		r.Close()
		if err != nil {
			return fmt.Errorf("failed to read corpus tail: %w", err)
		}
		if last[0] != '\n' {
			if _, err := f.WriteString("\n"); err != nil {
				return fmt.Errorf("failed to terminate previous record: %w", err)
			}
			offset++
		}
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(rec.row()); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush record: %w", err)
	}

	s.offsets[rec.ID] = offset
	return s.codec.Save(s.indexPath, s.offsets)
}
