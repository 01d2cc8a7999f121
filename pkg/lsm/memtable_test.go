package lsm

import "testing"

func TestMemtablePutGetOrdering(t *testing.T) {
	m := newMemtable()
	m.Put([]byte("b"), []byte("2"))
	m.Put([]byte("a"), []byte("1"))
	m.Put([]byte("c"), []byte("3"))

	recs := m.records()
	if len(recs) != 3 {
		t.Fatalf("want 3 records, got %d", len(recs))
	}
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if string(recs[i].Key) != w {
			t.Fatalf("records not sorted: %v", recs)
		}
	}
}

func TestMemtableByteAccountingOnOverwrite(t *testing.T) {
	m := newMemtable()
	m.Put([]byte("k"), []byte("aaaa"))
	afterFirst := m.bytesUsed

	m.Put([]byte("k"), []byte("bb")) // shorter value, same key
	want := 1 + 4 + 4 + 1 + 2
	if m.bytesUsed != want {
		t.Fatalf("want bytesUsed=%d after overwrite, got %d (was %d)", want, m.bytesUsed, afterFirst)
	}
}

func TestMemtableDeleteTombstone(t *testing.T) {
	m := newMemtable()
	m.Put([]byte("k"), []byte("v"))
	m.Delete([]byte("k"))

	e, ok := m.Get([]byte("k"))
	if !ok || !e.deleted {
		t.Fatalf("want deleted entry, got %+v ok=%v", e, ok)
	}
}

func TestMemtableOverThresholdAtExactBoundary(t *testing.T) {
	m := newMemtable()
	m.Put([]byte("k"), []byte("value")) // cost = 1+4+4+1+5 = 15
	if m.bytesUsed != 15 {
		t.Fatalf("want bytesUsed=15, got %d", m.bytesUsed)
	}
	if !m.overThreshold(15) {
		t.Fatalf("want over_threshold true when bytes_used == max_bytes")
	}
	if m.overThreshold(16) {
		t.Fatalf("want over_threshold false when bytes_used < max_bytes")
	}
}

func TestMemtableSetRotatesOverThreshold(t *testing.T) {
	s := newMemtableSet(20)
	frozen := s.Put([]byte("key"), []byte("0123456789012345"))
	if frozen == nil {
		t.Fatalf("want rotation to have happened")
	}
	if !s.active.isEmpty() {
		t.Fatalf("want fresh active memtable after rotation")
	}
	if e, ok := s.Get([]byte("key")); !ok || e.deleted {
		t.Fatalf("want rotated key still visible via immutable queue")
	}
}
