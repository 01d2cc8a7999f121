package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPoolRoundRobins(t *testing.T) {
	var hits [2]int
	backendA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[0]++
		w.WriteHeader(http.StatusOK)
	}))
	defer backendA.Close()
	backendB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[1]++
		w.WriteHeader(http.StatusOK)
	}))
	defer backendB.Close()

	pool, err := NewPool([]string{backendA.URL, backendB.URL})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	front := httptest.NewServer(pool)
	defer front.Close()

	for i := 0; i < 4; i++ {
		resp, err := http.Get(front.URL + "/kv/x")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
	}

	if hits[0] != 2 || hits[1] != 2 {
		t.Fatalf("want even 2/2 split, got %v", hits)
	}
}

func TestNewPoolRejectsEmptyBackendList(t *testing.T) {
	if _, err := NewPool(nil); err == nil {
		t.Fatalf("want error for empty backend list")
	}
}
