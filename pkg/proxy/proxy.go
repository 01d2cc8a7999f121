// Package proxy implements a round-robin reverse proxy over a fixed
// set of zynk server backends, grounded on original_source's
// zynk_lb binary (a tonic gRPC load balancer doing the same
// round-robin pick over a backend pool). The Go rendering fronts
// plain HTTP/JSON backends with net/http/httputil instead of gRPC
// channels, since the front end in pkg/server speaks HTTP/JSON.
package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync/atomic"
)

// Pool round-robins requests across a fixed list of backend base URLs.
type Pool struct {
	proxies []*httputil.ReverseProxy
	next    atomic.Uint64
}

// NewPool builds a Pool from backend base URLs such as
// "http://127.0.0.1:8081".
func NewPool(backends []string) (*Pool, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("proxy: at least one backend is required")
	}

	p := &Pool{}
	for _, b := range backends {
		u, err := url.Parse(b)
		if err != nil {
			return nil, fmt.Errorf("proxy: invalid backend %q: %w", b, err)
		}
		p.proxies = append(p.proxies, httputil.NewSingleHostReverseProxy(u))
	}
	return p, nil
}

// pick returns the next backend in round-robin order.
func (p *Pool) pick() *httputil.ReverseProxy {
	idx := p.next.Add(1) % uint64(len(p.proxies))
	return p.proxies[idx]
}

// ServeHTTP implements http.Handler, forwarding every request to the
// next backend in rotation.
func (p *Pool) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.pick().ServeHTTP(w, r)
}
