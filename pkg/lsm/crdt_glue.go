package lsm

import "github.com/zynkdb/zynk/pkg/crdt"

// Value is the shared shape of both CRDT types stored by the engine.
// It exists purely to document the symmetry between GSetAdd/RgaInsertAfter
// below — every concrete merge still happens through the specific type,
// since Go has no dynamic dispatch on Merge's differing argument types.
type Value interface {
	Encode() []byte
}

// collectVersions gathers every live encoded blob stored under key,
// newest first: the active memtable, then each immutable memtable
// newest-first, then each SSTable newest-first. A tombstone at any
// layer stops the scan — a Delete removes the key outright, it does
// not merely shadow older CRDT state. This differs from a plain Get,
// which only needs the single newest value: a CRDT key's value is
// taken as the merge of every blob still stored under it, per
// DESIGN.md's open question #1 decision.
func (e *Engine) collectVersions(key []byte) ([][]byte, error) {
	var out [][]byte

	if entry, ok := e.memtables.active.Get(key); ok {
		if entry.deleted {
			return out, nil
		}
		out = append(out, entry.value)
	}
	for i := len(e.memtables.immutable) - 1; i >= 0; i-- {
		if entry, ok := e.memtables.immutable[i].Get(key); ok {
			if entry.deleted {
				return out, nil
			}
			out = append(out, entry.value)
		}
	}
	for i := len(e.tables) - 1; i >= 0; i-- {
		value, state, err := e.tables[i].reader.Get(key)
		if err != nil {
			return nil, err
		}
		switch state {
		case statePresent:
			out = append(out, value)
		case stateDeleted:
			return out, nil
		case stateAbsent:
			continue
		}
	}
	return out, nil
}

// GSetGet returns the union of every G-Set blob ever written under key.
func (e *Engine) GSetGet(key []byte) (*crdt.GSet, error) {
	versions, err := e.collectVersions(key)
	if err != nil {
		return nil, err
	}
	merged := crdt.NewGSet()
	for _, v := range versions {
		merged.Merge(crdt.DecodeGSet(v))
	}
	return merged, nil
}

// GSetAdd merges every existing layer's state, inserts elem, and
// writes the result back as a single new blob.
func (e *Engine) GSetAdd(key, elem []byte) error {
	merged, err := e.GSetGet(key)
	if err != nil {
		return err
	}
	merged.Insert(elem)
	return e.Put(key, merged.Encode())
}

// rgaGet returns the merge of every Rga blob ever written under key.
func (e *Engine) rgaGet(key []byte) (*crdt.Rga, error) {
	versions, err := e.collectVersions(key)
	if err != nil {
		return nil, err
	}
	merged := crdt.NewRga()
	for _, v := range versions {
		merged.Merge(crdt.DecodeRga(v))
	}
	return merged, nil
}

// RgaInsertAfter inserts value immediately after prev (nil for the
// head) under a freshly allocated element id, and persists the result.
func (e *Engine) RgaInsertAfter(key []byte, prev *crdt.ElementId, value []byte) (crdt.ElementId, error) {
	merged, err := e.rgaGet(key)
	if err != nil {
		return crdt.ElementId{}, err
	}
	id := e.NextElementID()
	merged.Insert(id, prev, value)
	if err := e.Put(key, merged.Encode()); err != nil {
		return crdt.ElementId{}, err
	}
	return id, nil
}

// RgaDelete tombstones the element id within key's sequence.
func (e *Engine) RgaDelete(key []byte, id crdt.ElementId) error {
	merged, err := e.rgaGet(key)
	if err != nil {
		return err
	}
	merged.Delete(id)
	return e.Put(key, merged.Encode())
}

// RgaGetVisible returns key's current visible sequence, in document order.
func (e *Engine) RgaGetVisible(key []byte) ([][]byte, error) {
	merged, err := e.rgaGet(key)
	if err != nil {
		return nil, err
	}
	return merged.VisibleSequence(), nil
}
