package server

import "time"

// Config holds the HTTP front-end's configuration: the transport
// settings plus the engine settings (DataDir, MemtableMaxBytes,
// BlockSize, ActorID) that New copies into an lsm.Config.
type Config struct {
	Host    string // Server host address
	Port    int    // Server port
	DataDir string // Engine data directory, forwarded to lsm.Config

	MemtableMaxBytes int // forwarded to lsm.Config
	BlockSize        int // forwarded to lsm.Config
	ActorID          uint64

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64

	EnableCORS     bool
	AllowedOrigins []string

	EnableLogging     bool
	EnableCompression bool
}

// DefaultConfig returns a Config with sensible defaults, rooted at dataDir.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		Host:              "localhost",
		Port:              8080,
		DataDir:           dataDir,
		MemtableMaxBytes:  4 << 20,
		BlockSize:         4 << 10,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxRequestSize:    10 * 1024 * 1024,
		EnableCORS:        true,
		AllowedOrigins:    []string{"*"},
		EnableLogging:     true,
		EnableCompression: true,
	}
}
