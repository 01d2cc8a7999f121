package lsm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func buildTestTable(t *testing.T, dir string, blockSize int, puts map[string]string, deletes []string) *sstableReader {
	t.Helper()
	path := filepath.Join(dir, "test.sst")
	b, err := newSSTableBuilder(path, blockSize)
	if err != nil {
		t.Fatalf("newSSTableBuilder: %v", err)
	}
	type testRecord struct {
		key     string
		value   string
		deleted bool
	}
	var recs []testRecord
	for k, v := range puts {
		recs = append(recs, testRecord{key: k, value: v})
	}
	for _, k := range deletes {
		recs = append(recs, testRecord{key: k, deleted: true})
	}
	// The builder expects records in ascending key order, as a flushed
	// memtable supplies them.
	sort.Slice(recs, func(i, j int) bool { return recs[i].key < recs[j].key })
	for _, rc := range recs {
		if rc.deleted {
			if err := b.AddDelete([]byte(rc.key)); err != nil {
				t.Fatalf("AddDelete: %v", err)
			}
			continue
		}
		if err := b.AddPut([]byte(rc.key), []byte(rc.value)); err != nil {
			t.Fatalf("AddPut: %v", err)
		}
	}
	if _, err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	r, err := openSSTable(path)
	if err != nil {
		t.Fatalf("openSSTable: %v", err)
	}
	return r
}

func TestSSTableGetThreeStates(t *testing.T) {
	dir := t.TempDir()
	r := buildTestTable(t, dir, 4096, map[string]string{"present": "value"}, []string{"deleted"})
	defer r.Close()

	if v, state, err := r.Get([]byte("present")); err != nil || state != statePresent || string(v) != "value" {
		t.Fatalf("present: got value=%q state=%v err=%v", v, state, err)
	}
	if _, state, err := r.Get([]byte("deleted")); err != nil || state != stateDeleted {
		t.Fatalf("deleted: got state=%v err=%v", state, err)
	}
	if _, state, err := r.Get([]byte("absent")); err != nil || state != stateAbsent {
		t.Fatalf("absent: got state=%v err=%v", state, err)
	}
}

func TestSSTableManyBlocksBinarySearch(t *testing.T) {
	dir := t.TempDir()
	puts := make(map[string]string)
	for i := 0; i < 200; i++ {
		k := fmt.Sprintf("key-%04d", i)
		puts[k] = fmt.Sprintf("value-%d", i)
	}
	// Small block size forces many blocks.
	r := buildTestTable(t, dir, 64, puts, nil)
	defer r.Close()

	for i := 0; i < 200; i++ {
		k := fmt.Sprintf("key-%04d", i)
		want := fmt.Sprintf("value-%d", i)
		v, state, err := r.Get([]byte(k))
		if err != nil || state != statePresent || string(v) != want {
			t.Fatalf("key %q: got value=%q state=%v err=%v", k, v, state, err)
		}
	}

	all, err := r.allRecords()
	if err != nil {
		t.Fatalf("allRecords: %v", err)
	}
	if len(all) != 200 {
		t.Fatalf("want 200 records, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if string(all[i-1].Key) >= string(all[i].Key) {
			t.Fatalf("records not in ascending order at %d: %q >= %q", i, all[i-1].Key, all[i].Key)
		}
	}
}

func TestOpenSSTableRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.sst")
	b, err := newSSTableBuilder(path, 4096)
	if err != nil {
		t.Fatalf("newSSTableBuilder: %v", err)
	}
	b.AddPut([]byte("k"), []byte("v"))
	if _, err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	// Corrupt the magic bytes at the end of the file.
	f, err := os.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open for corruption: %v", err)
	}
	info, err := f.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if _, err := f.WriteAt([]byte{0, 0, 0, 0}, info.Size()-8); err != nil {
		t.Fatalf("corrupt magic: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := openSSTable(path); err != ErrCorrupt {
		t.Fatalf("want ErrCorrupt, got %v", err)
	}
}
