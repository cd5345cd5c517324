// Package offsettable implements the growing chunk-index -> location map
// described in spec.md §4.C: a dense array indexed by chunk number, mapping
// each written chunk to the segment file that holds it, the payload's
// absolute file offset, its stored size, and whether it is compressed.
//
// The table borrows segment-file handles rather than owning them, per
// spec.md §9's ownership note: the offset table never closes or reads
// through a handle on its own.
package offsettable

import "fmt"

// SegmentHandle is the borrowed identity of the file a chunk's payload
// lives in. It is opaque to the offset table; the root package's segment
// type supplies concrete values (a file opened through internal/filepool).
type SegmentHandle interface {
	SegmentNumber() uint32
	IsDelta() bool
}

// Entry is one chunk's recorded location.
type Entry struct {
	Handle     SegmentHandle
	FileOffset int64
	Size       uint32
	Compressed bool

	// set is false for a zero-value Entry that has never been assigned;
	// used to distinguish "not yet written" from "written at offset 0".
	set bool
}

// Table is the offset table for one image write. It is not safe for
// concurrent use; the coordinator that owns it serializes all access.
type Table struct {
	entries []Entry
}

// New returns an empty table, optionally preallocated to capacity entries
// when the total chunk count is known up front (spec §4.C: "preallocate to
// media.amount_of_chunks on first primary write if known").
func New(capacity uint32) *Table {
	t := &Table{}
	if capacity > 0 {
		t.entries = make([]Entry, 0, capacity)
	}
	return t
}

// Len returns the number of index slots in the table, set or not.
func (t *Table) Len() int {
	return len(t.entries)
}

// Resize grows the table to at least n entries, zero-initialized, without
// truncating existing data. Set uses it for geometric growth; callers may
// also call it directly to size the table ahead of writes.
func (t *Table) Resize(n int) {
	if n <= len(t.entries) {
		return
	}
	grown := make([]Entry, n)
	copy(grown, t.entries)
	t.entries = grown
}

func (t *Table) growTo(i int) {
	if i < len(t.entries) {
		return
	}
	// Geometric growth: double capacity, or fit i+1 exactly if doubling
	// isn't enough (first insert, or large index jump).
	next := len(t.entries) * 2
	if next <= i {
		next = i + 1
	}
	t.Resize(next)
}

// Set records index i's location. isDelta callers (the delta writer) may
// overwrite an already-set entry; primary callers must not — the invariant
// in spec §3 ("re-writing i through the primary path fails") is enforced by
// the caller checking Has before calling Set for primary writes. Set itself
// only guards against a negative or nonsensical index.
func (t *Table) Set(i int, e Entry) error {
	if i < 0 {
		return fmt.Errorf("offsettable: negative chunk index %d", i)
	}
	t.growTo(i)
	e.set = true
	t.entries[i] = e
	return nil
}

// Has reports whether index i has ever been assigned a primary entry.
func (t *Table) Has(i int) bool {
	if i < 0 || i >= len(t.entries) {
		return false
	}
	return t.entries[i].set
}

// Get returns index i's recorded location.
func (t *Table) Get(i int) (Entry, bool) {
	if i < 0 || i >= len(t.entries) {
		return Entry{}, false
	}
	e := t.entries[i]
	return e, e.set
}
