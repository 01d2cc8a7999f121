package lsm

// Config controls how an Engine lays out and flushes its data. See
// spec §4.1/§4.5 for the defaults' provenance.
type Config struct {
	// DataDir is the root directory holding sst/, MANIFEST-000001,
	// CURRENT and actor_id.
	DataDir string

	// MemtableMaxBytes is the active memtable's byte-accounting
	// threshold; crossing it triggers a synchronous flush.
	MemtableMaxBytes int

	// BlockSize is the target size, in bytes, of one SSTable data
	// block before a new block is started.
	BlockSize int

	// ActorID identifies this process's RGA element author. Zero
	// means "let the engine assign one" is not supported — callers
	// that use the RGA API must supply a nonzero, globally unique id.
	ActorID uint64
}

const (
	defaultMemtableMaxBytes = 4 << 20 // 4 MiB
	defaultBlockSize        = 4 << 10 // 4 KiB
)

// DefaultConfig returns a Config with the package's default sizing,
// rooted at dataDir, with no actor id configured.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:          dataDir,
		MemtableMaxBytes: defaultMemtableMaxBytes,
		BlockSize:        defaultBlockSize,
	}
}
