// Package fingerprint derives the content hash used for duplicate detection.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sync"
)

// Size is the fingerprint length in bytes before hex encoding.
const Size = 16

var digests = sync.Pool{
	New: func() any { return sha256.New() },
}

// Compute fingerprints an event by its source, title and body. An empty title
// or body still contributes a zero-length segment.
func Compute(source, title, body string) string {
	return Of(source, title, body)
}

// Of hashes each part as a length-prefixed segment so that no part can bleed
// into its neighbour, then truncates SHA-256 to 128 bits.
func Of(parts ...string) string {
	h := digests.Get().(hash.Hash)
	defer func() {
		h.Reset()
		digests.Put(h)
	}()

	var prefix [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(p)))
		h.Write(prefix[:])
		h.Write([]byte(p))
	}

	var sum [sha256.Size]byte
	return hex.EncodeToString(h.Sum(sum[:0])[:Size])
}
