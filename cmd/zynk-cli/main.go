// Command zynk-cli is an interactive REPL that drives either an
// embedded engine or a remote pkg/server instance over HTTP, grounded
// on original_source's main.rs (put/get/del/flush over an
// InputHandler-driven prompt).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zynkdb/zynk/pkg/crdt"
	"github.com/zynkdb/zynk/pkg/lsm"
)

// store is the surface the REPL drives, implemented either directly
// against an embedded engine or over HTTP against a running server.
type store interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, bool, error)
	Delete(key []byte) error
	Flush() error
	GSetAdd(key, elem []byte) error
	GSetGet(key []byte) ([][]byte, error)
	RgaInsertAfter(key []byte, prev *crdt.ElementId, value []byte) (crdt.ElementId, error)
	RgaDelete(key []byte, id crdt.ElementId) error
	RgaGetVisible(key []byte) ([][]byte, error)
	Close() error
}

func main() {
	dataDir := flag.String("data-dir", "./data", "engine data directory (embedded mode)")
	actorID := flag.Uint64("actor-id", 1, "RGA actor id for this process")
	server := flag.String("server", "", "base URL of a running zynkd instance, e.g. http://localhost:8080 (remote mode; overrides -data-dir)")
	flag.Parse()

	var s store
	if *server != "" {
		s = newRemoteStore(*server)
		fmt.Printf("connected to %s\n", *server)
	} else {
		cfg := lsm.DefaultConfig(*dataDir)
		cfg.ActorID = *actorID
		engine, err := lsm.Open(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open engine: %v\n", err)
			os.Exit(1)
		}
		s = embeddedStore{engine}
	}
	defer s.Close()

	fmt.Println("zynk LSM+CRDT store. Commands: put/get/del/flush/gset-add/gset-get/rga-insert/rga-delete/rga-get/exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("zynk> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !dispatch(s, line) {
			break
		}
	}
}

func dispatch(s store, line string) bool {
	parts := strings.SplitN(line, " ", 3)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "put":
		if len(parts) < 3 {
			fmt.Println("usage: put <key> <value>")
			return true
		}
		if err := s.Put([]byte(parts[1]), []byte(parts[2])); err != nil {
			fmt.Printf("error: %v\n", err)
			return true
		}
		fmt.Println("OK")

	case "get":
		if len(parts) < 2 {
			fmt.Println("usage: get <key>")
			return true
		}
		v, ok, err := s.Get([]byte(parts[1]))
		switch {
		case err != nil:
			fmt.Printf("error: %v\n", err)
		case !ok:
			fmt.Println("(nil)")
		default:
			fmt.Println(string(v))
		}

	case "del", "delete":
		if len(parts) < 2 {
			fmt.Println("usage: del <key>")
			return true
		}
		if err := s.Delete([]byte(parts[1])); err != nil {
			fmt.Printf("error: %v\n", err)
			return true
		}
		fmt.Println("1")

	case "flush":
		if err := s.Flush(); err != nil {
			fmt.Printf("error: %v\n", err)
			return true
		}
		fmt.Println("flushed")

	case "gset-add":
		if len(parts) < 3 {
			fmt.Println("usage: gset-add <key> <element>")
			return true
		}
		if err := s.GSetAdd([]byte(parts[1]), []byte(parts[2])); err != nil {
			fmt.Printf("error: %v\n", err)
			return true
		}
		fmt.Println("OK")

	case "gset-get":
		if len(parts) < 2 {
			fmt.Println("usage: gset-get <key>")
			return true
		}
		elements, err := s.GSetGet([]byte(parts[1]))
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return true
		}
		for _, e := range elements {
			fmt.Println(string(e))
		}

	case "rga-insert":
		if len(parts) < 3 {
			fmt.Println("usage: rga-insert <key> <value> [prevActor:prevCounter]")
			return true
		}
		rest := strings.SplitN(parts[2], " ", 2)
		value := rest[0]
		var prev *crdt.ElementId
		if len(rest) == 2 {
			p, err := parseElementID(strings.TrimSpace(rest[1]))
			if err != nil {
				fmt.Printf("error: %v\n", err)
				return true
			}
			prev = &p
		}
		id, err := s.RgaInsertAfter([]byte(parts[1]), prev, []byte(value))
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return true
		}
		fmt.Printf("%d:%d\n", id.Actor, id.Counter)

	case "rga-delete":
		if len(parts) < 3 {
			fmt.Println("usage: rga-delete <key> <actor:counter>")
			return true
		}
		id, err := parseElementID(parts[2])
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return true
		}
		if err := s.RgaDelete([]byte(parts[1]), id); err != nil {
			fmt.Printf("error: %v\n", err)
			return true
		}
		fmt.Println("1")

	case "rga-get":
		if len(parts) < 2 {
			fmt.Println("usage: rga-get <key>")
			return true
		}
		seq, err := s.RgaGetVisible([]byte(parts[1]))
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return true
		}
		for _, v := range seq {
			fmt.Println(string(v))
		}

	case "exit", "quit":
		fmt.Println("bye")
		return false

	default:
		fmt.Printf("unknown command: %s\n", cmd)
	}
	return true
}

func parseElementID(s string) (crdt.ElementId, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return crdt.ElementId{}, fmt.Errorf("want actor:counter, got %q", s)
	}
	actor, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return crdt.ElementId{}, err
	}
	counter, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return crdt.ElementId{}, err
	}
	return crdt.ElementId{Actor: actor, Counter: counter}, nil
}

// embeddedStore drives the engine in-process.
type embeddedStore struct {
	engine *lsm.Engine
}

func (s embeddedStore) Put(key, value []byte) error { return s.engine.Put(key, value) }
func (s embeddedStore) Get(key []byte) ([]byte, bool, error) {
	return s.engine.Get(key)
}
func (s embeddedStore) Delete(key []byte) error { return s.engine.Delete(key) }
func (s embeddedStore) Flush() error            { return s.engine.Flush() }
func (s embeddedStore) GSetAdd(key, elem []byte) error {
	return s.engine.GSetAdd(key, elem)
}
func (s embeddedStore) GSetGet(key []byte) ([][]byte, error) {
	set, err := s.engine.GSetGet(key)
	if err != nil {
		return nil, err
	}
	return set.Elements(), nil
}
func (s embeddedStore) RgaInsertAfter(key []byte, prev *crdt.ElementId, value []byte) (crdt.ElementId, error) {
	return s.engine.RgaInsertAfter(key, prev, value)
}
func (s embeddedStore) RgaDelete(key []byte, id crdt.ElementId) error {
	return s.engine.RgaDelete(key, id)
}
func (s embeddedStore) RgaGetVisible(key []byte) ([][]byte, error) {
	return s.engine.RgaGetVisible(key)
}
func (s embeddedStore) Close() error { return s.engine.Close() }
