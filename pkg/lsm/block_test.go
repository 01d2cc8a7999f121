package lsm

import "testing"

func TestDataBlockEncodeDecodeRoundTrip(t *testing.T) {
	b := newDataBlock(4096)
	b.addPut([]byte("alpha"), []byte("1"))
	b.addPut([]byte("beta"), []byte("2"))
	b.addDelete([]byte("gamma"))

	enc := b.encode()
	records, err := decodeBlock(enc)
	if err != nil {
		t.Fatalf("decodeBlock: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("want 3 records, got %d", len(records))
	}
	if string(records[0].Key) != "alpha" || string(records[0].Value) != "1" || records[0].Deleted {
		t.Fatalf("record 0 mismatch: %+v", records[0])
	}
	if !records[2].Deleted || string(records[2].Key) != "gamma" {
		t.Fatalf("record 2 mismatch: %+v", records[2])
	}
}

func TestDecodeBlockDetectsCorruption(t *testing.T) {
	b := newDataBlock(4096)
	b.addPut([]byte("k"), []byte("v"))
	enc := b.encode()
	enc[0] ^= 0xFF // corrupt the payload, leaving the stale CRC behind

	if _, err := decodeBlock(enc); err != ErrCorrupt {
		t.Fatalf("want ErrCorrupt, got %v", err)
	}
}

func TestDataBlockIsFull(t *testing.T) {
	b := newDataBlock(16)
	if b.isFull(10) {
		t.Fatalf("empty block should not be full for a 10-byte record")
	}
	b.addPut([]byte("k"), []byte("v")) // 1+4+4+1+1 = 11 bytes
	if !b.isFull(10) {
		t.Fatalf("11 + 10 > 16, should report full")
	}
}
