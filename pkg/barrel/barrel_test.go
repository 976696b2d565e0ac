package barrel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mnohosten/paperfind/pkg/compression"
	"github.com/mnohosten/paperfind/pkg/container"
	"github.com/mnohosten/paperfind/pkg/forward"
)

func testCodec() *container.Codec {
	return container.NewCodec(compression.AlgorithmNone)
}

// buildForward creates a forward index with numDocs documents, each
// containing numTerms terms carrying numPositions positions. Large
// position lists inflate posting sizes enough to exercise rollover,
// which only triggers past target + Overshoot.
func buildForward(numDocs, numTerms, numPositions int) *forward.Index {
	fwd := forward.New()
	for d := 0; d < numDocs; d++ {
		wordData := make(map[int]*forward.TermData)
		for term := 0; term < numTerms; term++ {
			positions := make([]int, numPositions)
			for i := range positions {
				positions[i] = i * 3
			}
			wordData[term] = &forward.TermData{
				Frequency: [forward.NumSections]int{1, 2, 0},
				Positions: positions,
			}
		}
		fwd.Add(fmt.Sprintf("doc%03d", d), &forward.Entry{Length: 40, WordData: wordData})
	}
	return fwd
}

func TestBuildAssignsEveryTermOnce(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{TargetSize: 1 << 10, Codec: testCodec()})
	if err != nil {
		t.Fatal(err)
	}

	fwd := buildForward(25, 30, 150)
	if err := store.BuildFromForward(fwd); err != nil {
		t.Fatalf("BuildFromForward failed: %v", err)
	}

	if store.TermCount() != 30 {
		t.Errorf("TermCount = %d, want 30", store.TermCount())
	}

	// The union of barrel keys equals the full term set, each term in
	// exactly one barrel.
	seen := make(map[int]int)
	for barrelID := 0; barrelID <= store.LastBarrel(); barrelID++ {
		barrel, err := store.readBarrel(barrelID)
		if err != nil {
			t.Fatalf("readBarrel(%d) failed: %v", barrelID, err)
		}
		for termID := range barrel {
			seen[termID]++
			if got, ok := store.BarrelOf(termID); !ok || got != barrelID {
				t.Errorf("metadata for term %d = %d, %v; found in barrel %d", termID, got, ok, barrelID)
			}
		}
	}
	for term := 0; term < 30; term++ {
		if seen[term] != 1 {
			t.Errorf("term %d appears in %d barrels, want 1", term, seen[term])
		}
	}
}

func TestBuildRespectsSizeBound(t *testing.T) {
	dir := t.TempDir()
	target := 1 << 10
	store, err := Open(dir, Options{TargetSize: target, Codec: testCodec()})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.BuildFromForward(buildForward(25, 40, 150)); err != nil {
		t.Fatal(err)
	}

	if store.LastBarrel() < 1 {
		t.Fatalf("expected rollover with tiny target, got %d barrels", store.LastBarrel()+1)
	}

	for barrelID := 0; barrelID <= store.LastBarrel(); barrelID++ {
		info, err := os.Stat(store.barrelPath(barrelID))
		if err != nil {
			t.Fatalf("stat barrel %d: %v", barrelID, err)
		}
		if info.Size() > int64(target+Overshoot) {
			t.Errorf("barrel %d is %d bytes, exceeds %d", barrelID, info.Size(), target+Overshoot)
		}
	}
}

func TestPostingsFor(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{Codec: testCodec()})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.BuildFromForward(buildForward(5, 10, 20)); err != nil {
		t.Fatal(err)
	}

	postings, err := store.PostingsFor(3)
	if err != nil {
		t.Fatalf("PostingsFor failed: %v", err)
	}
	if len(postings) != 5 {
		t.Fatalf("expected 5 postings, got %d", len(postings))
	}
	// Postings follow ascending doc ID order.
	for i := 1; i < len(postings); i++ {
		if postings[i-1].DocID >= postings[i].DocID {
			t.Errorf("postings out of order: %s before %s", postings[i-1].DocID, postings[i].DocID)
		}
	}
	if postings[0].Length != 40 {
		t.Errorf("posting length = %d, want 40", postings[0].Length)
	}

	// Unknown term resolves to an empty list without error.
	postings, err = store.PostingsFor(999)
	if err != nil || postings != nil {
		t.Errorf("unknown term = %v, %v, want nil, nil", postings, err)
	}
}

func TestPostingsForMissingBarrelFile(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{Codec: testCodec()})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.BuildFromForward(buildForward(2, 4, 20)); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(store.barrelPath(0)); err != nil {
		t.Fatal(err)
	}

	postings, err := store.PostingsFor(0)
	if err != nil {
		t.Fatalf("expected missing barrel to be treated as empty, got %v", err)
	}
	if postings != nil {
		t.Errorf("expected nil postings, got %d", len(postings))
	}
}

func TestAddPostingExistingTerm(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{Codec: testCodec()})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.BuildFromForward(buildForward(3, 5, 20)); err != nil {
		t.Fatal(err)
	}

	// Warm the cache, then write; the read after must not be stale.
	before, _ := store.PostingsFor(2)
	p := &Posting{DocID: "new-doc", Frequency: [forward.NumSections]int{1, 0, 0}, Positions: []int{0}, Length: 1}
	if err := store.AddPosting(2, p); err != nil {
		t.Fatalf("AddPosting failed: %v", err)
	}

	after, err := store.PostingsFor(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d postings, got %d", len(before)+1, len(after))
	}
	if after[len(after)-1].DocID != "new-doc" {
		t.Errorf("appended posting = %+v", after[len(after)-1])
	}
}

func TestAddPostingNewTermFillsLastBarrel(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{TargetSize: DefaultTargetSize, Codec: testCodec()})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.BuildFromForward(buildForward(2, 4, 20)); err != nil {
		t.Fatal(err)
	}
	last := store.LastBarrel()

	p := &Posting{DocID: "d-new", Positions: []int{0}, Length: 2}
	if err := store.AddPosting(100, p); err != nil {
		t.Fatal(err)
	}

	// Large target: the new key lands in the existing last barrel.
	if got, ok := store.BarrelOf(100); !ok || got != last {
		t.Errorf("BarrelOf(100) = %d, %v, want %d", got, ok, last)
	}
	if store.LastBarrel() != last {
		t.Errorf("LastBarrel changed to %d", store.LastBarrel())
	}
}

func TestAddPostingNewTermRollsOver(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{TargetSize: 256, Codec: testCodec()})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.BuildFromForward(buildForward(2, 4, 20)); err != nil {
		t.Fatal(err)
	}
	last := store.LastBarrel()

	// Tiny target: the last barrel is already full, so a fresh barrel is
	// allocated.
	p := &Posting{DocID: "d-new", Positions: []int{0}, Length: 2}
	if err := store.AddPosting(200, p); err != nil {
		t.Fatal(err)
	}

	if got, ok := store.BarrelOf(200); !ok || got != last+1 {
		t.Errorf("BarrelOf(200) = %d, %v, want %d", got, ok, last+1)
	}
	if store.LastBarrel() != last+1 {
		t.Errorf("LastBarrel = %d, want %d", store.LastBarrel(), last+1)
	}

	postings, err := store.PostingsFor(200)
	if err != nil || len(postings) != 1 {
		t.Errorf("PostingsFor(200) = %v, %v", postings, err)
	}
}

func TestMetadataPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{Codec: testCodec()})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.BuildFromForward(buildForward(3, 6, 20)); err != nil {
		t.Fatal(err)
	}
	lastBarrel := store.LastBarrel()

	reopened, err := Open(dir, Options{Codec: testCodec(), LastBarrel: lastBarrel})
	if err != nil {
		t.Fatal(err)
	}
	if reopened.TermCount() != 6 {
		t.Errorf("TermCount after reopen = %d, want 6", reopened.TermCount())
	}
	postings, err := reopened.PostingsFor(1)
	if err != nil || len(postings) != 3 {
		t.Errorf("PostingsFor(1) after reopen = %d postings, %v", len(postings), err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	layout := func() string {
		dir := t.TempDir()
		store, err := Open(dir, Options{TargetSize: 1 << 10, Codec: testCodec()})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.BuildFromForward(buildForward(25, 40, 150)); err != nil {
			t.Fatal(err)
		}
		var sb strings.Builder
		for term := 0; term < 20; term++ {
			id, _ := store.BarrelOf(term)
			fmt.Fprintf(&sb, "%d:%d;", term, id)
		}
		return sb.String()
	}

	first := layout()
	for i := 0; i < 3; i++ {
		if got := layout(); got != first {
			t.Fatalf("barrel layout not deterministic:\n%s\n%s", first, got)
		}
	}
}

func TestBarrelFilesOnDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{Codec: testCodec()})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.BuildFromForward(buildForward(2, 3, 20)); err != nil {
		t.Fatal(err)
	}

	if !container.Exists(filepath.Join(dir, "barrel_0")) {
		t.Error("expected barrel_0 on disk")
	}
	if !container.Exists(filepath.Join(dir, metadataFile)) {
		t.Error("expected barrel_metadata on disk")
	}
}
