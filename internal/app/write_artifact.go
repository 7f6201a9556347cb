package app

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/zerr"
)

// WriteArtifact materializes contents as a single file at path inside a
// freshly minted Built artifact. The result is keyed by (path, contents)
// alone: writing the same contents to the same path twice is a no-op past
// the first call, regardless of what command produced either artifact.
func (a *App) WriteArtifact(ctx context.Context, path domain.RelPath, contents []byte) (domain.Artifact, error) {
	hash := hashWrite(path, contents)

	resultDir, published, err := a.artifactStore.Acquire(hash)
	if err != nil {
		return domain.Artifact{}, err
	}
	if published {
		return domain.Artifact{Source: domain.Built(hash), Subpath: path}, nil
	}

	dest := filepath.Join(resultDir, path.String())
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return domain.Artifact{}, zerr.With(zerr.Wrap(err, "failed to create artifact parent directory"), "path", dest)
	}
	if err := os.WriteFile(dest, contents, 0o640); err != nil {
		return domain.Artifact{}, zerr.With(zerr.Wrap(err, "failed to write artifact content"), "path", dest)
	}

	if err := a.artifactStore.Publish(ctx, hash, resultDir); err != nil {
		return domain.Artifact{}, err
	}

	return domain.Artifact{Source: domain.Built(hash), Subpath: path}, nil
}

// hashWrite computes the content hash a written artifact is keyed by, using
// the same BLAKE3-then-base64 pattern as the external and command-structural
// hashes, prefixed so it can never collide with either. path is folded into
// the digest alongside contents so that two different paths written with the
// same bytes acquire two different result directories, each holding exactly
// the one path it was written for.
func hashWrite(path domain.RelPath, contents []byte) domain.Hash {
	hasher := blake3.New()
	_, _ = hasher.WriteString("writeArtifact: ")
	pathBytes := []byte(path.String())
	_, _ = hasher.Write(pathBytes)
	_, _ = hasher.Write([]byte{0}) // separator: no RelPath can contain a NUL byte
	_, _ = hasher.Write(contents)
	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return domain.NewHash(base64.RawURLEncoding.EncodeToString(sum[:]))
}
