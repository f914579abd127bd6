package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Entity id prefixes, one per collection.
const (
	ContextIDPrefix = "ctx"
	MemoryIDPrefix  = "mem"
	BranchIDPrefix  = "branch"
)

// GenerateID builds a collision-resistant id from a content hash and a
// millisecond timestamp: "{prefix}_{8-hex}_{unix-ms}". Two calls with the
// same seed inside the same millisecond collide; the second record then
// overwrites the first, which is an accepted tradeoff of the scheme.
func GenerateID(prefix, seed string) string {
	sum := md5.Sum([]byte(seed))
	return fmt.Sprintf("%s_%s_%d", prefix, hex.EncodeToString(sum[:4]), time.Now().UnixMilli())
}
