package lsm

import "sort"

// memtableEntry is the in-memory twin of a blockRecord: either a Put
// carrying a value or a Delete tombstone.
type memtableEntry struct {
	value   []byte
	deleted bool
}

func entryCost(key []byte, e memtableEntry) int {
	n := 1 + 4 + 4 + len(key)
	if !e.deleted {
		n += len(e.value)
	}
	return n
}

// memtable is a single ordered write buffer. Keys are kept sorted so a
// flush can stream records straight into ascending-key data blocks
// without an intermediate sort pass. See spec §4.5.
type memtable struct {
	entries   map[string]memtableEntry
	keys      []string // sorted
	bytesUsed int
}

func newMemtable() *memtable {
	return &memtable{entries: make(map[string]memtableEntry)}
}

func (m *memtable) insertKey(k string) {
	i := sort.SearchStrings(m.keys, k)
	if i < len(m.keys) && m.keys[i] == k {
		return
	}
	m.keys = append(m.keys, "")
	copy(m.keys[i+1:], m.keys[i:])
	m.keys[i] = k
}

// adjustRemove subtracts the cost of any existing entry for key before
// the caller installs a replacement, per spec §4.5's byte-accounting
// invariant (a key's second write must not double-count its first).
func (m *memtable) adjustRemove(key []byte) {
	if old, ok := m.entries[string(key)]; ok {
		m.bytesUsed -= entryCost(key, old)
	}
}

func (m *memtable) Put(key, value []byte) {
	m.adjustRemove(key)
	e := memtableEntry{value: append([]byte(nil), value...)}
	m.entries[string(key)] = e
	m.insertKey(string(key))
	m.bytesUsed += entryCost(key, e)
}

func (m *memtable) Delete(key []byte) {
	m.adjustRemove(key)
	e := memtableEntry{deleted: true}
	m.entries[string(key)] = e
	m.insertKey(string(key))
	m.bytesUsed += entryCost(key, e)
}

// Get returns the entry for key and whether it is present at all
// (Put or Delete — callers distinguish via e.deleted).
func (m *memtable) Get(key []byte) (memtableEntry, bool) {
	e, ok := m.entries[string(key)]
	return e, ok
}

func (m *memtable) isEmpty() bool {
	return len(m.keys) == 0
}

func (m *memtable) overThreshold(maxBytes int) bool {
	return m.bytesUsed >= maxBytes
}

// records returns every entry in ascending key order, ready to stream
// into an sstableBuilder.
func (m *memtable) records() []blockRecord {
	out := make([]blockRecord, 0, len(m.keys))
	for _, k := range m.keys {
		e := m.entries[k]
		out = append(out, blockRecord{Key: []byte(k), Value: e.value, Deleted: e.deleted})
	}
	return out
}

// memtableSet holds the single active memtable plus a queue of frozen
// immutable memtables awaiting flush. See spec §4.5/§4.6.
//
// Per DESIGN.md open question #5, Put/Delete rotate and hand back the
// newly frozen memtable directly for an immediate synchronous flush;
// the engine then drops it from the queue with popOldestImmutable.
// There is no deferred path that drains the queue later.
type memtableSet struct {
	active      *memtable
	immutable   []*memtable // oldest first
	maxBytes    int
}

func newMemtableSet(maxBytes int) *memtableSet {
	return &memtableSet{active: newMemtable(), maxBytes: maxBytes}
}

// rotate freezes the active memtable (if non-empty) onto the immutable
// queue and replaces it with a fresh one, returning the frozen table.
func (s *memtableSet) rotate() *memtable {
	if s.active.isEmpty() {
		return nil
	}
	frozen := s.active
	s.immutable = append(s.immutable, frozen)
	s.active = newMemtable()
	return frozen
}

// Put writes into the active memtable and rotates it out if the write
// pushed it over maxBytes, returning the frozen memtable for the
// caller to flush (or nil if no rotation happened).
func (s *memtableSet) Put(key, value []byte) *memtable {
	s.active.Put(key, value)
	if s.active.overThreshold(s.maxBytes) {
		return s.rotate()
	}
	return nil
}

func (s *memtableSet) Delete(key []byte) *memtable {
	s.active.Delete(key)
	if s.active.overThreshold(s.maxBytes) {
		return s.rotate()
	}
	return nil
}

// Get checks the active memtable, then each immutable memtable from
// newest to oldest, matching the overall engine read order.
func (s *memtableSet) Get(key []byte) (memtableEntry, bool) {
	if e, ok := s.active.Get(key); ok {
		return e, true
	}
	for i := len(s.immutable) - 1; i >= 0; i-- {
		if e, ok := s.immutable[i].Get(key); ok {
			return e, true
		}
	}
	return memtableEntry{}, false
}

// popOldestImmutable removes and returns the oldest immutable memtable,
// or nil if none remain.
func (s *memtableSet) popOldestImmutable() *memtable {
	if len(s.immutable) == 0 {
		return nil
	}
	m := s.immutable[0]
	s.immutable = s.immutable[1:]
	return m
}
