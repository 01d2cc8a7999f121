package lsm

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const actorFileName = "actor_id"

// readOrInitActorID loads the data directory's persisted actor id,
// creating the file with want on first open. Once the file exists its
// stored id is returned as-is, even when it differs from want; want is
// not compared against it. A file that does not parse as a decimal
// uint64 yields ErrCorrupt.
func readOrInitActorID(dir string, want uint64) (uint64, error) {
	path := filepath.Join(dir, actorFileName)
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(strconv.FormatUint(want, 10)), 0644); err != nil {
			return 0, err
		}
		return want, nil
	}
	if err != nil {
		return 0, err
	}
	got, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, ErrCorrupt
	}
	return got, nil
}
