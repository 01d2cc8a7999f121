package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/zynkdb/zynk/pkg/crdt"
)

// remoteStore drives a pkg/server instance over its HTTP/JSON API
// instead of opening the engine in-process.
type remoteStore struct {
	base string
	c    *http.Client
}

func newRemoteStore(base string) remoteStore {
	return remoteStore{base: base, c: &http.Client{Timeout: 10 * time.Second}}
}

type apiEnvelope struct {
	OK      bool            `json:"ok"`
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
}

func (s remoteStore) call(method, path string, body []byte) (apiEnvelope, int, error) {
	req, err := http.NewRequest(method, s.base+path, bytes.NewReader(body))
	if err != nil {
		return apiEnvelope{}, 0, err
	}
	resp, err := s.c.Do(req)
	if err != nil {
		return apiEnvelope{}, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiEnvelope{}, resp.StatusCode, err
	}
	var env apiEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return apiEnvelope{}, resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return env, resp.StatusCode, nil
}

func (s remoteStore) Put(key, value []byte) error {
	_, _, err := s.call(http.MethodPut, "/kv/"+url.PathEscape(string(key))+"/", value)
	return err
}

func (s remoteStore) Get(key []byte) ([]byte, bool, error) {
	env, status, err := s.call(http.MethodGet, "/kv/"+url.PathEscape(string(key))+"/", nil)
	if err != nil {
		return nil, false, err
	}
	if status == http.StatusNotFound {
		return nil, false, nil
	}
	if !env.OK {
		return nil, false, fmt.Errorf("%s", env.Message)
	}
	var result struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, false, err
	}
	return []byte(result.Value), true, nil
}

func (s remoteStore) Delete(key []byte) error {
	_, _, err := s.call(http.MethodDelete, "/kv/"+url.PathEscape(string(key))+"/", nil)
	return err
}

func (s remoteStore) Flush() error {
	return fmt.Errorf("flush is not exposed over HTTP; connect with -data-dir for embedded mode")
}

func (s remoteStore) GSetAdd(key, elem []byte) error {
	_, _, err := s.call(http.MethodPost, "/gset/"+url.PathEscape(string(key))+"/", elem)
	return err
}

func (s remoteStore) GSetGet(key []byte) ([][]byte, error) {
	env, _, err := s.call(http.MethodGet, "/gset/"+url.PathEscape(string(key))+"/", nil)
	if err != nil {
		return nil, err
	}
	if !env.OK {
		return nil, fmt.Errorf("%s", env.Message)
	}
	var result struct {
		Elements []string `json:"elements"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, err
	}
	out := make([][]byte, len(result.Elements))
	for i, e := range result.Elements {
		out[i] = []byte(e)
	}
	return out, nil
}

func (s remoteStore) RgaInsertAfter(key []byte, prev *crdt.ElementId, value []byte) (crdt.ElementId, error) {
	body := struct {
		PrevActor   *uint64 `json:"prev_actor,omitempty"`
		PrevCounter *uint64 `json:"prev_counter,omitempty"`
		Value       string  `json:"value"`
	}{Value: string(value)}
	if prev != nil {
		body.PrevActor, body.PrevCounter = &prev.Actor, &prev.Counter
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return crdt.ElementId{}, err
	}
	env, _, err := s.call(http.MethodPost, "/rga/"+url.PathEscape(string(key))+"/", raw)
	if err != nil {
		return crdt.ElementId{}, err
	}
	if !env.OK {
		return crdt.ElementId{}, fmt.Errorf("%s", env.Message)
	}
	var result struct {
		Actor   uint64 `json:"actor"`
		Counter uint64 `json:"counter"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return crdt.ElementId{}, err
	}
	return crdt.ElementId{Actor: result.Actor, Counter: result.Counter}, nil
}

func (s remoteStore) RgaDelete(key []byte, id crdt.ElementId) error {
	path := fmt.Sprintf("/rga/%s/%s/%s", url.PathEscape(string(key)),
		strconv.FormatUint(id.Actor, 10), strconv.FormatUint(id.Counter, 10))
	_, _, err := s.call(http.MethodDelete, path, nil)
	return err
}

func (s remoteStore) RgaGetVisible(key []byte) ([][]byte, error) {
	env, _, err := s.call(http.MethodGet, "/rga/"+url.PathEscape(string(key))+"/", nil)
	if err != nil {
		return nil, err
	}
	if !env.OK {
		return nil, fmt.Errorf("%s", env.Message)
	}
	var result struct {
		Sequence []string `json:"sequence"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, err
	}
	out := make([][]byte, len(result.Sequence))
	for i, v := range result.Sequence {
		out[i] = []byte(v)
	}
	return out, nil
}

func (s remoteStore) Close() error { return nil }
