package ports

import (
	"context"

	"go.trai.ch/bob/internal/core/domain"
)

// ArtifactStore owns the content-addressed `_pier/artifact/<hash>` tree: it
// acquires a fresh result directory for a build-in-progress, freezes it into
// a published, read-only artifact on success. It has no teardown operation:
// the staging directory of a build that fails is left where Acquire put it.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ArtifactStore interface {
	// Acquire returns an absolute path for h and whether it is already
	// published. If published, the path is the final, frozen result
	// directory. If not, the path is a fresh, not-yet-existing staging
	// directory the caller must populate and hand to Publish; distinct
	// Acquire calls for the same not-yet-published hash always return
	// distinct staging directories.
	Acquire(h domain.Hash) (path string, published bool, err error)

	// Publish moves a populated staging directory (previously returned by
	// Acquire) into place with a single atomic rename, and freezes its
	// permissions to read-only, making it visible to future Acquire calls.
	// If a shared cache is configured, it also populates the cache via
	// hardlink-then-copy fallback.
	Publish(ctx context.Context, h domain.Hash, stagingDir string) error

	// Unfreeze removes the published result directory for h so it can be
	// rebuilt, for intentional destructive use outside the memoizer.
	Unfreeze(h domain.Hash) error
}

// RuleStore is the advisory, persistent memoization database: a CommandQ's
// structural hash maps to the result hash it previously produced. It is never
// consulted as a correctness shortcut — the cryptographic hash of a CommandQ
// is always recomputed fresh — and a hit in it skips no work: whether a build
// runs is decided by the ArtifactStore alone.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type RuleStore interface {
	// Lookup returns the previously recorded result hash for a CommandQ
	// structural digest, if any.
	Lookup(digest string) (domain.Hash, bool)

	// Record saves the result hash produced for a CommandQ structural digest.
	Record(digest string, result domain.Hash) error

	// Close flushes the database to disk.
	Close() error
}
