package cas

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pierrec/lz4/v4"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RuleStore = (*RuleStore)(nil)

// ruleRecord is the on-disk representation of one memoized CommandQ result.
type ruleRecord struct {
	Digest string `cbor:"digest"`
	Result string `cbor:"result"`
}

// RuleStore is the advisory, persistent memoization database described in
// §6: a flat file of (CommandQ digest -> result hash) pairs, canonical-CBOR
// encoded and LZ4-compressed, loaded in full at construction and rewritten
// in full on Close. It is never consulted as a correctness shortcut, and a
// hit in it skips no work: whether a build runs is decided by the ArtifactStore.
type RuleStore struct {
	path string

	mu      sync.RWMutex
	entries map[string]domain.Hash
	dirty   bool

	encMode cbor.EncMode
}

// NewRuleStore opens (or creates) the rule store at path.
func NewRuleStore(path string) (*RuleStore, error) {
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to build canonical CBOR encoder")
	}

	s := &RuleStore{
		path:    filepath.Clean(path),
		entries: make(map[string]domain.Hash),
		encMode: encMode,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RuleStore) load() error {
	//nolint:gosec // path is a fixed store location, not user input
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to open rule store"), "path", s.path)
	}
	defer f.Close()

	decompressed, err := io.ReadAll(lz4.NewReader(f))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to decompress rule store"), "path", s.path)
	}
	if len(decompressed) == 0 {
		return nil
	}

	var records []ruleRecord
	if err := cbor.Unmarshal(decompressed, &records); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to decode rule store"), "path", s.path)
	}

	for _, r := range records {
		s.entries[r.Digest] = domain.NewHash(r.Result)
	}
	return nil
}

// Lookup returns the previously recorded result hash for digest, if any.
func (s *RuleStore) Lookup(digest string) (domain.Hash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.entries[digest]
	return h, ok
}

// Record saves the result hash produced for digest. The store is marked
// dirty; it is flushed on Close.
func (s *RuleStore) Record(digest string, result domain.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[digest] = result
	s.dirty = true
	return nil
}

// Close flushes the database to disk if any records were added since load.
func (s *RuleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.flush()
}

func (s *RuleStore) flush() error {
	records := make([]ruleRecord, 0, len(s.entries))
	for digest, h := range s.entries {
		records = append(records, ruleRecord{Digest: digest, Result: h.String()})
	}

	encoded, err := s.encMode.Marshal(records)
	if err != nil {
		return zerr.Wrap(err, "failed to encode rule store")
	}

	var compressed bytes.Buffer
	w := lz4.NewWriter(&compressed)
	if _, err := w.Write(encoded); err != nil {
		return zerr.Wrap(err, "failed to compress rule store")
	}
	if err := w.Close(); err != nil {
		return zerr.Wrap(err, "failed to finalize rule store compression")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create rule store directory"), "path", s.path)
	}
	//nolint:gosec // path is a fixed store location, not user input
	if err := os.WriteFile(s.path, compressed.Bytes(), 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write rule store"), "path", s.path)
	}

	s.dirty = false
	return nil
}
