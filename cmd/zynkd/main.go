// Command zynkd runs the HTTP front end for a single zynk engine.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zynkdb/zynk/pkg/server"
)

func main() {
	host := flag.String("host", "localhost", "server host address")
	port := flag.Int("port", 8080, "server port")
	dataDir := flag.String("data-dir", "./data", "engine data directory")
	memtableMax := flag.Int("memtable-max-bytes", 4<<20, "active memtable byte threshold before a synchronous flush")
	blockSize := flag.Int("block-size", 4<<10, "target SSTable data block size in bytes")
	actorID := flag.Uint64("actor-id", 0, "RGA actor id for this process (required to use the RGA endpoints)")
	corsOrigin := flag.String("cors-origin", "*", "CORS allowed origin")
	compression := flag.Bool("compression", true, "enable gzip response compression")
	flag.Parse()

	config := server.DefaultConfig(*dataDir)
	config.Host = *host
	config.Port = *port
	config.MemtableMaxBytes = *memtableMax
	config.BlockSize = *blockSize
	config.ActorID = *actorID
	config.AllowedOrigins = []string{*corsOrigin}
	config.EnableCompression = *compression

	srv, err := server.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
