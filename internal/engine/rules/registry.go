package rules

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Builder runs the pipeline for q once its hash is known, materializing
// results into resultDir. It is supplied by the caller (the app layer,
// wired to internal/engine/pipeline) so this package never imports the
// pipeline package directly.
type Builder func(ctx context.Context, q domain.CommandQ, resultDir string) error

// Registry memoizes CommandQ executions. The CommandQ's BLAKE3 hash is
// always recomputed fresh; the RuleStore consulted here is advisory
// bookkeeping only — the actual correctness check is the ArtifactStore's
// frozen-or-absent result directory.
type Registry struct {
	hasher        ports.Hasher
	artifactStore ports.ArtifactStore
	ruleStore     ports.RuleStore
	externalRoot  string
	build         Builder

	sf singleflight.Group
}

// NewRegistry creates a Registry. externalRoot is the project root External
// artifacts are resolved against when computing their content hashes.
func NewRegistry(hasher ports.Hasher, artifactStore ports.ArtifactStore, ruleStore ports.RuleStore, externalRoot string, build Builder) *Registry {
	return &Registry{
		hasher:        hasher,
		artifactStore: artifactStore,
		ruleStore:     ruleStore,
		externalRoot:  externalRoot,
		build:         build,
	}
}

// Resolve returns the result hash for q, running the build at most once
// concurrently per hash regardless of how many callers request it
// simultaneously.
func (r *Registry) Resolve(ctx context.Context, q domain.CommandQ) (domain.Hash, error) {
	externalHashes, err := r.hashExternalInputs(q)
	if err != nil {
		return domain.Hash{}, err
	}

	hash, err := r.hasher.HashCommandQ(q, externalHashes)
	if err != nil {
		return domain.Hash{}, zerr.Wrap(err, "failed to hash command")
	}

	key := hash.String()
	// Lookup is advisory only: a hit just confirms this hash was seen in a
	// prior process, it never substitutes for the ArtifactStore check below.
	r.ruleStore.Lookup(key)

	// singleflight.Group.Do only needs a comparable in-memory key, not the
	// full BLAKE3 digest string it dedups the in-flight build against; a
	// cheap non-cryptographic hash of the same digest keeps the group's
	// internal map keyed by a short base-36 string (at most 13 characters)
	// instead of the digest's own 43-character base64 form.
	sfKey := strconv.FormatUint(xxhash.Sum64String(key), 36)

	v, err, _ := r.sf.Do(sfKey, func() (any, error) {
		return r.resolveOnce(ctx, q, hash)
	})
	if err != nil {
		return domain.Hash{}, err
	}
	return v.(domain.Hash), nil
}

func (r *Registry) resolveOnce(ctx context.Context, q domain.CommandQ, hash domain.Hash) (domain.Hash, error) {
	resultDir, published, err := r.artifactStore.Acquire(hash)
	if err != nil {
		return domain.Hash{}, err
	}
	if published {
		return hash, nil
	}

	if err := r.build(ctx, q, resultDir); err != nil {
		return domain.Hash{}, err
	}

	if err := r.artifactStore.Publish(ctx, hash, resultDir); err != nil {
		return domain.Hash{}, err
	}

	if err := r.ruleStore.Record(hash.String(), hash); err != nil {
		return domain.Hash{}, zerr.Wrap(err, "failed to record rule store entry")
	}

	return hash, nil
}

// Close flushes the underlying RuleStore, persisting every entry recorded
// this process to disk. Callers should invoke this once, at shutdown.
func (r *Registry) Close() error {
	return r.ruleStore.Close()
}

// hashExternalInputs computes the content hash of every distinct External
// artifact referenced by q's inputs, resolving files against externalRoot.
func (r *Registry) hashExternalInputs(q domain.CommandQ) (map[string]domain.Hash, error) {
	hashes := make(map[string]domain.Hash)
	for _, a := range q.Command.Inputs {
		if !a.IsExternal() {
			continue
		}
		subpath := a.Subpath.String()
		if _, ok := hashes[subpath]; ok {
			continue
		}
		full := filepath.Join(r.externalRoot, subpath)
		info, err := os.Stat(full)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrMissingSource, err.Error()), "path", full)
		}

		var h domain.Hash
		if info.IsDir() {
			h, err = r.hasher.HashExternalTree(full)
		} else {
			h, err = r.hasher.HashExternalFile(full)
		}
		if err != nil {
			return nil, err
		}
		hashes[subpath] = h
	}
	return hashes, nil
}
