package lsm

import (
	"encoding/binary"
	"io"
	"os"
)

const (
	sstableVersion uint32 = 1
	sstableMagic   uint64 = 0x7a796e6b5353544b // "zynkSSTK"
	footerSize     int    = 24
)

// lookupState distinguishes "found as Put", "found as Delete (tombstone)"
// and "key not present in this table" — spec §4.4 requires all three,
// unlike a plain Option<Vec<u8>>.
type lookupState int

const (
	stateAbsent lookupState = iota
	statePresent
	stateDeleted
)

// sstableBuilder accumulates records into blocks and emits an index +
// footer. See spec §4.3. The table id is the engine's concern (open
// question #3 in DESIGN.md) — the builder never sees or returns one.
type sstableBuilder struct {
	file          *os.File
	blockSize     int
	block         *dataBlock
	lastKeyInBlk  []byte
	idx           *index
}

func newSSTableBuilder(path string, blockSize int) (*sstableBuilder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return &sstableBuilder{
		file:      f,
		blockSize: blockSize,
		block:     newDataBlock(blockSize),
		idx:       newIndex(),
	}, nil
}

func (b *sstableBuilder) AddPut(key, value []byte) error {
	if b.block.isFull(recordSize(key, value, false)) {
		if err := b.flushBlock(); err != nil {
			return err
		}
	}
	b.block.addPut(key, value)
	b.lastKeyInBlk = append(b.lastKeyInBlk[:0], key...)
	return nil
}

func (b *sstableBuilder) AddDelete(key []byte) error {
	if b.block.isFull(recordSize(key, nil, true)) {
		if err := b.flushBlock(); err != nil {
			return err
		}
	}
	b.block.addDelete(key)
	b.lastKeyInBlk = append(b.lastKeyInBlk[:0], key...)
	return nil
}

func (b *sstableBuilder) flushBlock() error {
	if b.block.isEmpty() {
		return nil
	}
	offset, err := b.file.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	enc := b.block.encode()
	if _, err := b.file.Write(enc); err != nil {
		return err
	}
	b.idx.add(b.lastKeyInBlk, blockHandle{Offset: uint64(offset), Length: uint32(len(enc))})
	b.block = newDataBlock(b.blockSize)
	return nil
}

// Finish flushes any pending block, writes the index and footer, and
// fsyncs the file before returning. Per DESIGN.md open question #4 the
// sync happens here, before the engine renames the temp file.
func (b *sstableBuilder) Finish() (blockHandle, error) {
	if !b.block.isEmpty() {
		if err := b.flushBlock(); err != nil {
			return blockHandle{}, err
		}
	}

	indexOffset, err := b.file.Seek(0, io.SeekEnd)
	if err != nil {
		return blockHandle{}, err
	}
	indexBytes := b.idx.encode()
	if _, err := b.file.Write(indexBytes); err != nil {
		return blockHandle{}, err
	}

	footer := make([]byte, 0, footerSize)
	footer = binary.LittleEndian.AppendUint64(footer, uint64(indexOffset))
	footer = binary.LittleEndian.AppendUint32(footer, uint32(len(indexBytes)))
	footer = binary.LittleEndian.AppendUint32(footer, sstableVersion)
	footer = binary.LittleEndian.AppendUint64(footer, sstableMagic)
	if _, err := b.file.Write(footer); err != nil {
		return blockHandle{}, err
	}

	if err := b.file.Sync(); err != nil {
		return blockHandle{}, err
	}
	if err := b.file.Close(); err != nil {
		return blockHandle{}, err
	}

	return blockHandle{Offset: uint64(indexOffset), Length: uint32(len(indexBytes))}, nil
}

// sstableReader is a read-only handle on one immutable table file.
// Per spec §5, a reader's file descriptor is not safe for concurrent
// use without external synchronization.
type sstableReader struct {
	path  string
	file  *os.File
	index *index
}

func openSSTable(path string) (*sstableReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < int64(footerSize) {
		f.Close()
		return nil, ErrCorrupt
	}

	footer := make([]byte, footerSize)
	if _, err := f.ReadAt(footer, info.Size()-int64(footerSize)); err != nil {
		f.Close()
		return nil, err
	}
	indexOffset := binary.LittleEndian.Uint64(footer[0:8])
	indexLen := binary.LittleEndian.Uint32(footer[8:12])
	version := binary.LittleEndian.Uint32(footer[12:16])
	magic := binary.LittleEndian.Uint64(footer[16:24])
	if magic != sstableMagic || version != sstableVersion {
		f.Close()
		return nil, ErrCorrupt
	}

	indexBuf := make([]byte, indexLen)
	if _, err := f.ReadAt(indexBuf, int64(indexOffset)); err != nil {
		f.Close()
		return nil, err
	}
	idx, err := decodeIndex(indexBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &sstableReader{path: path, file: f, index: idx}, nil
}

func (r *sstableReader) Close() error {
	return r.file.Close()
}

// Get implements spec §4.4's three-state point lookup.
func (r *sstableReader) Get(key []byte) (value []byte, state lookupState, err error) {
	h, ok := r.index.findBlock(key)
	if !ok {
		return nil, stateAbsent, nil
	}

	raw := make([]byte, h.Length)
	if _, err := r.file.ReadAt(raw, int64(h.Offset)); err != nil {
		return nil, stateAbsent, err
	}
	records, err := decodeBlock(raw)
	if err != nil {
		return nil, stateAbsent, err
	}

	// Track the *last* record whose key matches; records are already
	// in ascending key order so there is at most one, but the scan is
	// robust to duplicates per spec §4.4.
	found := stateAbsent
	var foundValue []byte
	for _, rec := range records {
		if string(rec.Key) != string(key) {
			continue
		}
		if rec.Deleted {
			found = stateDeleted
			foundValue = nil
		} else {
			found = statePresent
			foundValue = rec.Value
		}
	}
	return foundValue, found, nil
}

// allRecords returns every record in the table, in ascending key
// order; the tests use it to verify a table's full contents.
func (r *sstableReader) allRecords() ([]blockRecord, error) {
	var out []blockRecord
	for _, e := range r.index.entries {
		raw := make([]byte, e.Handle.Length)
		if _, err := r.file.ReadAt(raw, int64(e.Handle.Offset)); err != nil {
			return nil, err
		}
		recs, err := decodeBlock(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}
