package lsm

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// blockHandle identifies a byte range inside an SSTable file.
type blockHandle struct {
	Offset uint64
	Length uint32
}

type indexEntry struct {
	LastKey []byte
	Handle  blockHandle
}

// index is the sorted, binary-searchable list of (last key in block,
// block handle) pairs written once per flushed data block. See spec §4.2.
type index struct {
	entries []indexEntry
}

func newIndex() *index {
	return &index{}
}

// add appends one entry. Callers must pass keys in ascending order.
func (ix *index) add(lastKey []byte, h blockHandle) {
	k := append([]byte(nil), lastKey...)
	ix.entries = append(ix.entries, indexEntry{LastKey: k, Handle: h})
}

// findBlock returns the handle of the first entry whose LastKey >= key,
// or ok=false if key exceeds every entry's LastKey.
func (ix *index) findBlock(key []byte) (blockHandle, bool) {
	i := sort.Search(len(ix.entries), func(i int) bool {
		return bytes.Compare(ix.entries[i].LastKey, key) >= 0
	})
	if i == len(ix.entries) {
		return blockHandle{}, false
	}
	return ix.entries[i].Handle, true
}

// encode: count(4 LE) then, per entry, klen(4 LE) || key || offset(8 LE) || length(4 LE).
func (ix *index) encode() []byte {
	out := make([]byte, 0, 4+len(ix.entries)*16)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(ix.entries)))
	for _, e := range ix.entries {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(e.LastKey)))
		out = append(out, e.LastKey...)
		out = binary.LittleEndian.AppendUint64(out, e.Handle.Offset)
		out = binary.LittleEndian.AppendUint32(out, e.Handle.Length)
	}
	return out
}

func decodeIndex(raw []byte) (*index, error) {
	if len(raw) < 4 {
		return nil, ErrCorrupt
	}
	count := binary.LittleEndian.Uint32(raw[:4])
	p := 4
	ix := newIndex()
	for i := uint32(0); i < count; i++ {
		if p+4 > len(raw) {
			return nil, ErrCorrupt
		}
		klen := int(binary.LittleEndian.Uint32(raw[p : p+4]))
		p += 4
		if p+klen+8+4 > len(raw) {
			return nil, ErrCorrupt
		}
		key := append([]byte(nil), raw[p:p+klen]...)
		p += klen
		offset := binary.LittleEndian.Uint64(raw[p : p+8])
		p += 8
		length := binary.LittleEndian.Uint32(raw[p : p+4])
		p += 4
		ix.entries = append(ix.entries, indexEntry{LastKey: key, Handle: blockHandle{Offset: offset, Length: length}})
	}
	return ix, nil
}
