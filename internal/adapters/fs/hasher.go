package fs

import (
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes BLAKE3 content hashes and canonical-CBOR structural hashes
// of CommandQs.
type Hasher struct {
	walker  *Walker
	encMode cbor.EncMode
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		// CoreDetEncOptions() is a fixed, valid configuration; EncMode() can
		// only fail on invalid options.
		panic(err)
	}
	return &Hasher{walker: walker, encMode: encMode}
}

func encodeHash(sum [32]byte) domain.Hash {
	return domain.NewHash(base64.RawURLEncoding.EncodeToString(sum[:]))
}

// HashExternalFile hashes the content of a single external file.
func (h *Hasher) HashExternalFile(path string) (domain.Hash, error) {
	f, err := os.Open(path) //nolint:gosec // path is controlled by caller
	if err != nil {
		return domain.Hash{}, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // best effort close in defer

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return domain.Hash{}, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return encodeHash(sum), nil
}

// HashExternalTree hashes every file under root, keyed by its path relative
// to root, in sorted order, so the result is independent of directory
// iteration order.
func (h *Hasher) HashExternalTree(root string) (domain.Hash, error) {
	var files []string
	for path := range h.walker.WalkFiles(root, nil) {
		files = append(files, path)
	}
	sort.Strings(files)

	hasher := blake3.New()
	for _, path := range files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return domain.Hash{}, zerr.With(zerr.Wrap(err, "failed to compute relative path"), "path", path)
		}
		fileHash, err := h.HashExternalFile(path)
		if err != nil {
			return domain.Hash{}, err
		}
		_, _ = hasher.WriteString(filepath.ToSlash(rel))
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(fileHash.String())
		_, _ = hasher.Write([]byte{0})
	}

	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return encodeHash(sum), nil
}

// HashCommandQ produces the canonical hash of a CommandQ. externalHashes maps
// the subpath of every External input to its current content hash.
func (h *Hasher) HashCommandQ(q domain.CommandQ, externalHashes map[string]domain.Hash) (domain.Hash, error) {
	canonical := toCanonicalCommandQ(q, externalHashes)

	data, err := h.encMode.Marshal(canonical)
	if err != nil {
		return domain.Hash{}, zerr.Wrap(err, "failed to encode canonical command")
	}

	hasher := blake3.New()
	_, _ = hasher.Write(data)
	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return encodeHash(sum), nil
}
