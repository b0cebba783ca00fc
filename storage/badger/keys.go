package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	manifestKey    = "snapmeta"
	snapshotPrefix = "snapent"
)

// makeGenerationPrefix returns the key prefix shared by all entries of one
// snapshot generation.
// Format: prefix:generation:
func makeGenerationPrefix(generation uint64) []byte {
	return []byte(fmt.Sprintf("%s:%d:", snapshotPrefix, generation))
}

// makeEntryKey generates a key for one snapshot entry.
// Format: prefix:generation:position
func makeEntryKey(generation uint64, position int) []byte {
	prefix := makeGenerationPrefix(generation)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort matches position order
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	return buf
}

// entryPosition decodes the position from an entry key.
func entryPosition(key []byte) (int, bool) {
	if len(key) < 8 {
		return 0, false
	}
	return int(binary.BigEndian.Uint64(key[len(key)-8:])), true
}
