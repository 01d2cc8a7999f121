// Command zynk-lb is a round-robin reverse proxy in front of one or
// more zynkd backends.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/zynkdb/zynk/pkg/proxy"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:8090", "address for the load balancer to listen on")
	peers := flag.String("peers", "", "comma-separated list of backend base URLs, e.g. http://127.0.0.1:8081,http://127.0.0.1:8082")
	flag.Parse()

	var backends []string
	for _, p := range strings.Split(*peers, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			backends = append(backends, p)
		}
	}
	if len(backends) == 0 {
		fmt.Fprintln(os.Stderr, "zynk-lb requires -peers, a comma-separated list of backend base URLs")
		os.Exit(1)
	}

	pool, err := proxy.NewPool(backends)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build backend pool: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("zynk-lb listening on %s, forwarding to %v\n", *addr, backends)
	if err := http.ListenAndServe(*addr, pool); err != nil {
		fmt.Fprintf(os.Stderr, "zynk-lb error: %v\n", err)
		os.Exit(1)
	}
}
