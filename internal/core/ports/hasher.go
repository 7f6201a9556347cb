package ports

import "go.trai.ch/bob/internal/core/domain"

// Hasher defines the interface for computing the hashes that name the store.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// HashExternalFile hashes the content of a single external file.
	HashExternalFile(path string) (domain.Hash, error)

	// HashExternalTree hashes every file under an external directory, keyed by
	// its relative path within that directory.
	HashExternalTree(root string) (domain.Hash, error)

	// HashCommandQ produces the canonical hash of a CommandQ. externalHashes
	// maps the subpath of every External input in the command to its current
	// content hash, so the result depends on external content at call time,
	// not on wall-clock time or the store's absolute location.
	HashCommandQ(q domain.CommandQ, externalHashes map[string]domain.Hash) (domain.Hash, error)
}
