package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.trai.ch/bob/internal/adapters/fs"
	"go.trai.ch/bob/internal/core/domain"
)

func TestWalker_WalkFiles(t *testing.T) { //nolint:cyclop // Test complexity is acceptable
	// Create temp directory structure
	// tmp/
	//   .git/
	//     config
	//   ignored/
	//     file
	//   src/
	//     main.go
	//   README.md

	tmpDir, err := os.MkdirTemp("", "walker_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck // Best effort cleanup in test

	// Create .git directory
	if err := os.MkdirAll(filepath.Join(tmpDir, ".git"), 0o750); err != nil { //nolint:gosec // Test directory permissions
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".git", "config"), []byte("git config"), 0o600); err != nil { //nolint:gosec // Test file permissions
		t.Fatal(err)
	}

	// Create ignored directory
	if err := os.MkdirAll(filepath.Join(tmpDir, "ignored"), 0o750); err != nil { //nolint:gosec // Test directory permissions
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "ignored", "file"), []byte("ignored content"), 0o600); err != nil { //nolint:gosec // Test file permissions
		t.Fatal(err)
	}

	// Create src directory
	if err := os.MkdirAll(filepath.Join(tmpDir, "src"), 0o750); err != nil { //nolint:gosec // Test directory permissions
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "src", "main.go"), []byte("package main"), 0o600); err != nil { //nolint:gosec // Test file permissions
		t.Fatal(err)
	}

	// Create README.md
	if err := os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("# Readme"), 0o600); err != nil { //nolint:gosec // Test file permissions
		t.Fatal(err)
	}

	walker := fs.NewWalker()
	ignores := []string{"ignored"}

	files := make(map[string]bool)
	for path := range walker.WalkFiles(tmpDir, ignores) {
		rel, err := filepath.Rel(tmpDir, path)
		if err != nil {
			t.Fatal(err)
		}
		files[rel] = true
	}

	// Assertions
	if files[".git/config"] {
		t.Error("expected .git/config to be skipped")
	}
	if files["ignored/file"] {
		t.Error("expected ignored/file to be skipped")
	}
	if !files["src/main.go"] {
		t.Error("expected src/main.go to be found")
	}
	if !files["README.md"] {
		t.Error("expected README.md to be found")
	}
}

func TestHasher_HashExternalFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "hasher_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name()) //nolint:errcheck // Best effort cleanup in test

	if _, writeErr := tmpFile.Write([]byte("hello world")); writeErr != nil {
		t.Fatal(writeErr)
	}
	_ = tmpFile.Close()

	walker := fs.NewWalker()
	hasher := fs.NewHasher(walker)

	hash1, err := hasher.HashExternalFile(tmpFile.Name())
	if err != nil {
		t.Fatalf("HashExternalFile failed: %v", err)
	}
	if hash1.IsZero() {
		t.Error("expected non-zero hash")
	}

	hash2, err := hasher.HashExternalFile(tmpFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	if hash1.String() != hash2.String() {
		t.Error("expected deterministic hash")
	}
}

func TestHasher_HashCommandQ(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "input_hash_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck // Best effort cleanup in test

	inputFile := filepath.Join(tmpDir, "input.txt")
	if writeErr := os.WriteFile(inputFile, []byte("input content"), 0o600); writeErr != nil { //nolint:gosec // Test file permissions
		t.Fatal(writeErr)
	}

	walker := fs.NewWalker()
	hasher := fs.NewHasher(walker)

	input, err := domain.NewExternalArtifact("input.txt")
	if err != nil {
		t.Fatal(err)
	}
	outputPath, err := domain.NewRelPath("output.txt")
	if err != nil {
		t.Fatal(err)
	}

	contentHash, err := hasher.HashExternalFile(inputFile)
	if err != nil {
		t.Fatal(err)
	}
	externalHashes := map[string]domain.Hash{"input.txt": contentHash}

	q1 := domain.NewCommandQ(domain.NewCommand(
		[]domain.Prog{domain.ProgCall(domain.Env("cat"), []string{"input.txt"}, domain.RelPath{})},
		[]domain.Artifact{input},
	), []domain.RelPath{outputPath})

	hash1, err := hasher.HashCommandQ(q1, externalHashes)
	if err != nil {
		t.Fatalf("HashCommandQ failed: %v", err)
	}
	if hash1.IsZero() {
		t.Error("expected non-zero hash")
	}

	// 1. Deterministic: same CommandQ, same external hashes, same result.
	hash2, err := hasher.HashCommandQ(q1, externalHashes)
	if err != nil {
		t.Fatal(err)
	}
	if hash1.String() != hash2.String() {
		t.Error("expected deterministic hash")
	}

	// 2. Changing the command's arguments changes the hash.
	q2 := domain.NewCommandQ(domain.NewCommand(
		[]domain.Prog{domain.ProgCall(domain.Env("cat"), []string{"other.txt"}, domain.RelPath{})},
		[]domain.Artifact{input},
	), []domain.RelPath{outputPath})
	hash3, err := hasher.HashCommandQ(q2, externalHashes)
	if err != nil {
		t.Fatal(err)
	}
	if hash1.String() == hash3.String() {
		t.Error("expected hash to change when command arguments change")
	}

	// 3. Changing the external input's content hash changes the result.
	if writeErr := os.WriteFile(inputFile, []byte("modified content"), 0o600); writeErr != nil { //nolint:gosec // Test file permissions
		t.Fatal(writeErr)
	}
	newContentHash, err := hasher.HashExternalFile(inputFile)
	if err != nil {
		t.Fatal(err)
	}
	hash4, err := hasher.HashCommandQ(q1, map[string]domain.Hash{"input.txt": newContentHash})
	if err != nil {
		t.Fatal(err)
	}
	if hash1.String() == hash4.String() {
		t.Error("expected hash to change when external content changes")
	}
}
