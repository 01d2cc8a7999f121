package lsm

import (
	"encoding/binary"
	"hash/crc32"
)

const (
	opPut    byte = 0
	opDelete byte = 1
)

// recordSize returns the encoded byte length of one put/delete record:
// op(1) + klen(4) + vlen(4) + key + value.
func recordSize(key, value []byte, deleted bool) int {
	n := 1 + 4 + 4 + len(key)
	if !deleted {
		n += len(value)
	}
	return n
}

// dataBlock accumulates put/delete records into one block's payload,
// up to a target block_size. See spec §4.1.
type dataBlock struct {
	blockSize int
	payload   []byte
}

func newDataBlock(blockSize int) *dataBlock {
	return &dataBlock{blockSize: blockSize}
}

func (b *dataBlock) isEmpty() bool {
	return len(b.payload) == 0
}

// isFull reports whether appending a record of the given size would
// exceed blockSize — a pure function of current size + incoming size,
// per spec §9's "Block-full predicate" design note.
func (b *dataBlock) isFull(nextRecordSize int) bool {
	return len(b.payload)+nextRecordSize > b.blockSize
}

func (b *dataBlock) addPut(key, value []byte) {
	b.appendRecord(opPut, key, value)
}

func (b *dataBlock) addDelete(key []byte) {
	b.appendRecord(opDelete, key, nil)
}

func (b *dataBlock) appendRecord(op byte, key, value []byte) {
	vlen := uint32(0)
	if op == opPut {
		vlen = uint32(len(value))
	}
	rec := make([]byte, 0, recordSize(key, value, op == opDelete))
	rec = append(rec, op)
	rec = binary.LittleEndian.AppendUint32(rec, uint32(len(key)))
	rec = binary.LittleEndian.AppendUint32(rec, vlen)
	rec = append(rec, key...)
	if op == opPut {
		rec = append(rec, value...)
	}
	b.payload = append(b.payload, rec...)
}

// encode returns payload || crc32_ieee(payload, 4 bytes little-endian).
func (b *dataBlock) encode() []byte {
	crc := crc32.ChecksumIEEE(b.payload)
	out := make([]byte, len(b.payload)+4)
	copy(out, b.payload)
	binary.LittleEndian.PutUint32(out[len(b.payload):], crc)
	return out
}

// blockRecord is one decoded put/delete record from a block payload.
type blockRecord struct {
	Key     []byte
	Value   []byte
	Deleted bool
}

// decodeBlock verifies the trailing CRC and returns every record in
// the block, in on-disk (ascending key) order.
func decodeBlock(raw []byte) ([]blockRecord, error) {
	if len(raw) < 4 {
		return nil, ErrCorrupt
	}
	payload := raw[:len(raw)-4]
	storedCRC := binary.LittleEndian.Uint32(raw[len(raw)-4:])
	if crc32.ChecksumIEEE(payload) != storedCRC {
		return nil, ErrCorrupt
	}

	var records []blockRecord
	p := 0
	for p < len(payload) {
		if p+1+4+4 > len(payload) {
			return nil, ErrCorrupt
		}
		op := payload[p]
		p++
		klen := int(binary.LittleEndian.Uint32(payload[p : p+4]))
		p += 4
		vlen := int(binary.LittleEndian.Uint32(payload[p : p+4]))
		p += 4
		if p+klen > len(payload) {
			return nil, ErrCorrupt
		}
		key := payload[p : p+klen]
		p += klen

		rec := blockRecord{Key: key}
		switch op {
		case opPut:
			if p+vlen > len(payload) {
				return nil, ErrCorrupt
			}
			rec.Value = payload[p : p+vlen]
			p += vlen
		case opDelete:
			rec.Deleted = true
		default:
			return nil, ErrCorrupt
		}
		records = append(records, rec)
	}
	return records, nil
}
