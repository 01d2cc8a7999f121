package lsm

import (
	"fmt"
	"testing"
)

// BenchmarkEnginePut and BenchmarkEngineGet mirror the engine side of
// the put/get comparison in original_source's lsm_vs_hashmap benchmark,
// adapted to Go's testing.B harness instead of a standalone criterion
// binary; the hash-map side is not benchmarked here.

func BenchmarkEnginePut(b *testing.B) {
	dir := b.TempDir()
	cfg := DefaultConfig(dir)
	e, err := Open(cfg)
	if err != nil {
		b.Fatalf("Open: %v", err)
	}
	defer e.Close()

	value := make([]byte, 128)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Appendf(nil, "key-%d", i)
		if err := e.Put(key, value); err != nil {
			b.Fatalf("Put: %v", err)
		}
	}
}

func BenchmarkEngineGet(b *testing.B) {
	dir := b.TempDir()
	cfg := DefaultConfig(dir)
	e, err := Open(cfg)
	if err != nil {
		b.Fatalf("Open: %v", err)
	}
	defer e.Close()

	const n = 10_000
	value := make([]byte, 128)
	for i := 0; i < n; i++ {
		key := fmt.Appendf(nil, "key-%d", i)
		if err := e.Put(key, value); err != nil {
			b.Fatalf("Put: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Appendf(nil, "key-%d", i%n)
		if _, _, err := e.Get(key); err != nil {
			b.Fatalf("Get: %v", err)
		}
	}
}
