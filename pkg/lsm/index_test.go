package lsm

import "testing"

func TestIndexFindBlock(t *testing.T) {
	ix := newIndex()
	ix.add([]byte("bbb"), blockHandle{Offset: 0, Length: 10})
	ix.add([]byte("fff"), blockHandle{Offset: 10, Length: 20})
	ix.add([]byte("zzz"), blockHandle{Offset: 30, Length: 5})

	cases := []struct {
		key    string
		offset uint64
		ok     bool
	}{
		{"aaa", 0, true},
		{"bbb", 0, true},
		{"ccc", 10, true},
		{"fff", 10, true},
		{"ggg", 30, true},
		{"zzz", 30, true},
		{"zzz1", 0, false},
	}
	for _, c := range cases {
		h, ok := ix.findBlock([]byte(c.key))
		if ok != c.ok {
			t.Fatalf("key %q: want ok=%v, got %v", c.key, c.ok, ok)
		}
		if ok && h.Offset != c.offset {
			t.Fatalf("key %q: want offset %d, got %d", c.key, c.offset, h.Offset)
		}
	}
}

func TestIndexEncodeDecodeRoundTrip(t *testing.T) {
	ix := newIndex()
	ix.add([]byte("a"), blockHandle{Offset: 1, Length: 2})
	ix.add([]byte("bb"), blockHandle{Offset: 3, Length: 4})

	decoded, err := decodeIndex(ix.encode())
	if err != nil {
		t.Fatalf("decodeIndex: %v", err)
	}
	if len(decoded.entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(decoded.entries))
	}
	if string(decoded.entries[1].LastKey) != "bb" || decoded.entries[1].Handle.Offset != 3 {
		t.Fatalf("entry 1 mismatch: %+v", decoded.entries[1])
	}
}
