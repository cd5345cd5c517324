package offsettable

import "testing"

type fakeSegment struct {
	number uint32
	delta  bool
}

func (f fakeSegment) SegmentNumber() uint32 { return f.number }
func (f fakeSegment) IsDelta() bool         { return f.delta }

func TestSetAndGet(t *testing.T) {
	table := New(0)
	seg := fakeSegment{number: 1}

	if err := table.Set(0, Entry{Handle: seg, FileOffset: 100, Size: 64}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	e, ok := table.Get(0)
	if !ok {
		t.Fatal("expected entry to be present")
	}
	if e.FileOffset != 100 || e.Size != 64 {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestHasDistinguishesUnwritten(t *testing.T) {
	table := New(4)
	if table.Has(0) {
		t.Fatal("expected index 0 to be unset before any write")
	}
	if err := table.Set(0, Entry{Handle: fakeSegment{number: 1}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !table.Has(0) {
		t.Fatal("expected index 0 to be set after write")
	}
	if table.Has(1) {
		t.Fatal("expected index 1 to remain unset")
	}
}

func TestGrowsGeometricallyOnSparseIndex(t *testing.T) {
	table := New(0)
	if err := table.Set(9, Entry{Handle: fakeSegment{number: 1}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if table.Len() < 10 {
		t.Fatalf("expected table to grow to at least index 9, len=%d", table.Len())
	}
	for i := 0; i < 9; i++ {
		if table.Has(i) {
			t.Fatalf("expected index %d to remain unset after a sparse insert at 9", i)
		}
	}
}

func TestResizePreservesExistingEntries(t *testing.T) {
	table := New(0)
	if err := table.Set(0, Entry{Handle: fakeSegment{number: 1}, FileOffset: 42}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	table.Resize(100)
	e, ok := table.Get(0)
	if !ok || e.FileOffset != 42 {
		t.Fatalf("expected index 0 preserved after resize, got %+v ok=%v", e, ok)
	}
}

func TestSetRejectsNegativeIndex(t *testing.T) {
	table := New(0)
	if err := table.Set(-1, Entry{}); err == nil {
		t.Fatal("expected an error for a negative chunk index")
	}
}

func TestGetOutOfRangeReturnsFalse(t *testing.T) {
	table := New(1)
	if _, ok := table.Get(5); ok {
		t.Fatal("expected ok=false for an out-of-range index")
	}
}
