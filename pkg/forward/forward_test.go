package forward

import (
	"path/filepath"
	"testing"

	"github.com/mnohosten/paperfind/pkg/compression"
	"github.com/mnohosten/paperfind/pkg/container"
)

func sampleEntry() *Entry {
	return &Entry{
		Length: 4,
		WordData: map[int]*TermData{
			0: {Frequency: [NumSections]int{1, 0, 0}, Positions: []int{0}},
			1: {Frequency: [NumSections]int{1, 1, 0}, Positions: []int{1, 2}},
			2: {Frequency: [NumSections]int{0, 0, 1}, Positions: []int{4}},
		},
	}
}

func TestAddAndGet(t *testing.T) {
	idx := New()

	if err := idx.Add("d1", sampleEntry()); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entry, ok := idx.Get("d1")
	if !ok {
		t.Fatal("expected entry for d1")
	}
	if entry.Length != 4 {
		t.Errorf("Length = %d, want 4", entry.Length)
	}
	if entry.WordData[1].Frequency[SectionAbstract] != 1 {
		t.Errorf("term 1 abstract frequency = %d, want 1", entry.WordData[1].Frequency[SectionAbstract])
	}
}

func TestAddDuplicate(t *testing.T) {
	idx := New()

	if err := idx.Add("d1", sampleEntry()); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add("d1", sampleEntry()); err != ErrDuplicateDoc {
		t.Errorf("duplicate Add = %v, want ErrDuplicateDoc", err)
	}
	if idx.Len() != 1 {
		t.Errorf("Len = %d, want 1", idx.Len())
	}
}

func TestTotalLength(t *testing.T) {
	idx := New()
	idx.Add("d1", &Entry{Length: 3, WordData: map[int]*TermData{}})
	idx.Add("d2", &Entry{Length: 7, WordData: map[int]*TermData{}})

	if got := idx.TotalLength(); got != 10 {
		t.Errorf("TotalLength = %d, want 10", got)
	}
}

func TestDocIDsSorted(t *testing.T) {
	idx := New()
	for _, id := range []string{"z9", "a1", "m5"} {
		idx.Add(id, &Entry{WordData: map[int]*TermData{}})
	}

	ids := idx.DocIDs()
	want := []string{"a1", "m5", "z9"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("DocIDs[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestPersistRoundTrip(t *testing.T) {
	idx := New()
	idx.Add("d1", sampleEntry())

	codec := container.NewCodec(compression.AlgorithmZstd)
	path := filepath.Join(t.TempDir(), "forward_index")

	if err := idx.Save(codec, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(codec, path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entry, ok := loaded.Get("d1")
	if !ok {
		t.Fatal("expected d1 after reload")
	}
	if entry.Length != 4 || len(entry.WordData) != 3 {
		t.Errorf("reloaded entry = %+v", entry)
	}
	if got := entry.WordData[2].Positions[0]; got != 4 {
		t.Errorf("term 2 position = %d, want 4", got)
	}
}
