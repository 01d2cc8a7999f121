package lsm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/zynkdb/zynk/pkg/crdt"
)

const sstSubdir = "sst"

// sstableFileName zero-pads the table id to 6 digits, matching spec §4.3.
func sstableFileName(id uint64) string {
	return fmt.Sprintf("%06d.sst", id)
}

// table pairs a live SSTable reader with the id that names it on disk.
type table struct {
	id     uint64
	reader *sstableReader
}

// Engine is the top-level embedded store: one active memtable, a
// queue of immutable ones, and the on-disk SSTables registered in the
// manifest. Every operation is synchronous and performs no background
// work — spec §5 requires callers to serialize their own access, and
// spec §1's Non-goals rule out background compaction entirely, so
// unlike the teacher's LSMTree there is no flushWorker or
// compactionWorker goroutine here.
type Engine struct {
	dataDir   string
	sstDir    string
	cfg       Config
	closed    bool

	memtables *memtableSet
	tables    []*table // ascending by id; newest last

	manifest    *manifest
	nextTableID uint64

	actorID      uint64
	elementSeq   atomic.Uint64
}

// Open loads (or initializes) the engine rooted at cfg.DataDir. Any
// active SSTable that fails to open fails the whole Open call, per
// DESIGN.md open question #2 — a silently truncated view of the store
// is worse than refusing to start.
func Open(cfg Config) (*Engine, error) {
	if cfg.MemtableMaxBytes <= 0 {
		cfg.MemtableMaxBytes = defaultMemtableMaxBytes
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = defaultBlockSize
	}

	sstDir := filepath.Join(cfg.DataDir, sstSubdir)
	if err := os.MkdirAll(sstDir, 0755); err != nil {
		return nil, err
	}

	manifestName, err := readCurrentOrInit(cfg.DataDir, manifestFileName)
	if err != nil {
		return nil, err
	}
	m, err := openManifest(cfg.DataDir, manifestName)
	if err != nil {
		return nil, err
	}

	ids, err := replayManifest(cfg.DataDir, manifestName)
	if err != nil {
		m.Close()
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	e := &Engine{
		dataDir:   cfg.DataDir,
		sstDir:    sstDir,
		cfg:       cfg,
		memtables: newMemtableSet(cfg.MemtableMaxBytes),
		manifest:  m,
	}

	for _, id := range ids {
		path := filepath.Join(sstDir, sstableFileName(id))
		r, err := openSSTable(path)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("lsm: open table %d: %w", id, err)
		}
		e.tables = append(e.tables, &table{id: id, reader: r})
	}
	if len(ids) > 0 {
		e.nextTableID = ids[len(ids)-1] + 1
	}

	if cfg.ActorID != 0 {
		actorID, err := readOrInitActorID(cfg.DataDir, cfg.ActorID)
		if err != nil {
			m.Close()
			return nil, err
		}
		e.actorID = actorID
	}

	return e, nil
}

func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	for _, t := range e.tables {
		t.reader.Close()
	}
	return e.manifest.Close()
}

// Put writes key=value into the active memtable, flushing it
// synchronously if the write crosses MemtableMaxBytes.
func (e *Engine) Put(key, value []byte) error {
	if e.closed {
		return ErrClosed
	}
	frozen := e.memtables.Put(key, value)
	if frozen != nil {
		return e.flushImmutable(frozen)
	}
	return nil
}

// Delete inserts a tombstone for key. Like Put, it may trigger a
// synchronous flush.
func (e *Engine) Delete(key []byte) error {
	if e.closed {
		return ErrClosed
	}
	frozen := e.memtables.Delete(key)
	if frozen != nil {
		return e.flushImmutable(frozen)
	}
	return nil
}

// Get implements the full read path from spec §4.4/§4.8: the active
// and immutable memtables first, then SSTables from newest to oldest.
// A Delete tombstone anywhere in that order is a definitive miss —
// older layers are never consulted once a layer has an opinion.
func (e *Engine) Get(key []byte) ([]byte, bool, error) {
	if e.closed {
		return nil, false, ErrClosed
	}

	if entry, ok := e.memtables.Get(key); ok {
		if entry.deleted {
			return nil, false, nil
		}
		return entry.value, true, nil
	}

	for i := len(e.tables) - 1; i >= 0; i-- {
		value, state, err := e.tables[i].reader.Get(key)
		if err != nil {
			return nil, false, err
		}
		switch state {
		case statePresent:
			return value, true, nil
		case stateDeleted:
			return nil, false, nil
		case stateAbsent:
			continue
		}
	}
	return nil, false, nil
}

// Flush forces the active memtable (if non-empty) out to disk,
// synchronously. Useful before a clean shutdown or in tests.
func (e *Engine) Flush() error {
	if e.closed {
		return ErrClosed
	}
	frozen := e.memtables.rotate()
	if frozen == nil {
		return nil
	}
	return e.flushImmutable(frozen)
}

// flushImmutable writes one frozen memtable to a new SSTable and
// registers it, in the exact order spec §4.7 requires for crash
// safety: build under a .tmp name, rename into place, fsync the
// containing directory, then append+fsync the manifest record, and
// only then make the table visible to readers.
func (e *Engine) flushImmutable(m *memtable) error {
	id := e.nextTableID
	e.nextTableID++

	finalName := sstableFileName(id)
	tmpPath := filepath.Join(e.sstDir, finalName+".tmp")
	finalPath := filepath.Join(e.sstDir, finalName)

	b, err := newSSTableBuilder(tmpPath, e.cfg.BlockSize)
	if err != nil {
		return err
	}
	for _, rec := range m.records() {
		if rec.Deleted {
			if err := b.AddDelete(rec.Key); err != nil {
				return err
			}
			continue
		}
		if err := b.AddPut(rec.Key, rec.Value); err != nil {
			return err
		}
	}
	if _, err := b.Finish(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return err
	}
	if err := fsyncDir(e.sstDir); err != nil {
		return err
	}

	if err := e.manifest.RecordAddTable(id); err != nil {
		return err
	}

	r, err := openSSTable(finalPath)
	if err != nil {
		return err
	}
	e.tables = append(e.tables, &table{id: id, reader: r})
	e.memtables.popOldestImmutable()
	return nil
}

// NextElementID allocates the next RGA element id for this engine's
// actor. Callers must configure Config.ActorID to use the RGA API.
func (e *Engine) NextElementID() crdt.ElementId {
	return crdt.ElementId{Actor: e.actorID, Counter: e.elementSeq.Add(1)}
}
