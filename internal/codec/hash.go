package codec

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash computes the lowercase-hex SHA-256 of content's UTF-8 bytes
// (§4.3). It is independent of path, time, and implementation (the hash
// law, §8).
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
