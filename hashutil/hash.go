// Package hashutil provides a stable content hash over translation-unit
// bytes, used as the cache key callers may attach to a BuildResult.
package hashutil

import (
	"github.com/minio/highwayhash"
)

var key = []byte("cflow/translation-unit-hash-key!")

// Hash computes a 64-bit highwayhash of the given source bytes.
func Hash(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write(data)
	return hash.Sum64(), err
}
