// Package handlers implements the HTTP handlers for the key/value and
// CRDT endpoints exposed by pkg/server. Every handler takes the
// server's shared RWMutex: point writes (Put/Delete/GSetAdd/Rga
// mutations) take it exclusively, reads take it shared — the engine
// itself performs no locking of its own, per spec §5.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/zynkdb/zynk/pkg/crdt"
	"github.com/zynkdb/zynk/pkg/lsm"
)

// Handlers bundles the engine, the lock that serializes access to it,
// and the optional watch fan-out.
type Handlers struct {
	Engine *lsm.Engine
	Mu     *sync.RWMutex
	Watch  *WatchManager
}

func New(engine *lsm.Engine, mu *sync.RWMutex, watch *WatchManager) *Handlers {
	return &Handlers{Engine: engine, Mu: mu, Watch: watch}
}

// notify pushes value (already resolved by the caller, which knows
// which of the three wire formats key holds) to every watcher of key.
func (h *Handlers) notify(key, op string, value interface{}) {
	if h.Watch == nil {
		return
	}
	h.Watch.Broadcast(WatchEvent{Key: key, Op: op, Value: value})
}

// WriteJSON writes a JSON response, matching the envelope shape the
// rest of the pack's HTTP handlers use.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	WriteJSON(w, statusCode, map[string]interface{}{
		"ok":      false,
		"error":   errorType,
		"message": message,
		"code":    statusCode,
	})
}

func WriteSuccess(w http.ResponseWriter, result interface{}) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"result": result,
	})
}

func keyParam(r *http.Request) string {
	return chi.URLParam(r, "key")
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, limit))
}

// --- plain key/value ---

func (h *Handlers) PutKey(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)
	value, err := readBody(r, 16<<20)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	h.Mu.Lock()
	defer h.Mu.Unlock()
	if err := h.Engine.Put([]byte(key), value); err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.notify(key, "put", string(value))
	WriteSuccess(w, map[string]string{"key": key})
}

func (h *Handlers) GetKey(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	h.Mu.RLock()
	value, ok, err := h.Engine.Get([]byte(key))
	h.Mu.RUnlock()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "not_found", "key not found")
		return
	}
	WriteSuccess(w, map[string]string{"key": key, "value": string(value)})
}

func (h *Handlers) DeleteKey(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	h.Mu.Lock()
	defer h.Mu.Unlock()
	if err := h.Engine.Delete([]byte(key)); err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.notify(key, "delete", nil)
	WriteSuccess(w, map[string]string{"key": key})
}

// --- G-Set ---

func (h *Handlers) GSetAdd(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)
	elem, err := readBody(r, 1<<20)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	h.Mu.Lock()
	defer h.Mu.Unlock()
	if err := h.Engine.GSetAdd([]byte(key), elem); err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	set, err := h.Engine.GSetGet([]byte(key))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.notify(key, "gset_add", gsetElements(set))
	WriteSuccess(w, map[string]string{"key": key})
}

func (h *Handlers) GSetGet(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	h.Mu.RLock()
	set, err := h.Engine.GSetGet([]byte(key))
	h.Mu.RUnlock()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	WriteSuccess(w, map[string]interface{}{"key": key, "elements": gsetElements(set)})
}

func gsetElements(set *crdt.GSet) []string {
	elements := make([]string, 0, len(set.Elements()))
	for _, e := range set.Elements() {
		elements = append(elements, string(e))
	}
	return elements
}

// --- RGA ---

type rgaInsertRequest struct {
	PrevActor   *uint64 `json:"prev_actor,omitempty"`
	PrevCounter *uint64 `json:"prev_counter,omitempty"`
	Value       string  `json:"value"`
}

func (h *Handlers) RgaInsert(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	var req rgaInsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var prev *crdt.ElementId
	if req.PrevActor != nil && req.PrevCounter != nil {
		prev = &crdt.ElementId{Actor: *req.PrevActor, Counter: *req.PrevCounter}
	}

	h.Mu.Lock()
	defer h.Mu.Unlock()
	id, err := h.Engine.RgaInsertAfter([]byte(key), prev, []byte(req.Value))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	seq, err := h.Engine.RgaGetVisible([]byte(key))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.notify(key, "rga_insert", rgaSequence(seq))
	WriteSuccess(w, map[string]uint64{"actor": id.Actor, "counter": id.Counter})
}

func (h *Handlers) RgaDelete(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	actor, err := strconv.ParseUint(chi.URLParam(r, "actor"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "missing or invalid actor")
		return
	}
	counter, err := strconv.ParseUint(chi.URLParam(r, "counter"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "missing or invalid counter")
		return
	}

	h.Mu.Lock()
	defer h.Mu.Unlock()
	if err := h.Engine.RgaDelete([]byte(key), crdt.ElementId{Actor: actor, Counter: counter}); err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	seq, err := h.Engine.RgaGetVisible([]byte(key))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.notify(key, "rga_delete", rgaSequence(seq))
	WriteSuccess(w, map[string]string{"key": key})
}

func (h *Handlers) RgaGetVisible(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	h.Mu.RLock()
	seq, err := h.Engine.RgaGetVisible([]byte(key))
	h.Mu.RUnlock()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	WriteSuccess(w, map[string]interface{}{"key": key, "sequence": rgaSequence(seq)})
}

func rgaSequence(seq [][]byte) []string {
	out := make([]string, 0, len(seq))
	for _, v := range seq {
		out = append(out, string(v))
	}
	return out
}

// --- health ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]string{"status": "ok"})
}
