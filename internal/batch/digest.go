package batch

import (
	"github.com/minio/highwayhash"
)

var digestKey = []byte("bytegraft-class-digest-key-32byt")

// Digest fingerprints written class bytes.
func Digest(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(digestKey)
	if err != nil {
		return 0, err
	}

	_, err = hash.Write(data)

	return hash.Sum64(), err
}
