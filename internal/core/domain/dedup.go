package domain

import (
	"sort"

	"go.trai.ch/zerr"
)

// WithCwd rewrites the cwd of every ProgCall in c to path and rebases every
// Shadow step's destination under path, leaving Message steps untouched.
// path must already be a validated relative path; the string-accepting
// entry point that rejects an absolute path at construction time is
// NewWithCwd.
func WithCwd(path RelPath, c Command) Command {
	progs := make([]Prog, len(c.Progs))
	for i, p := range c.Progs {
		switch p.kind {
		case ProgKindCall:
			p.cwd = path
		case ProgKindShadow:
			p.shadowDest = path.Join(p.shadowDest)
		default:
		}
		progs[i] = p
	}
	return Command{Progs: progs, Inputs: c.Inputs}
}

// NewWithCwd validates path and applies WithCwd, failing synchronously (per
// §7's validation error kind) on an absolute or otherwise invalid path.
func NewWithCwd(path string, c Command) (Command, error) {
	p, err := NewRelPath(path)
	if err != nil {
		return Command{}, err
	}
	return WithCwd(p, c), nil
}

// DedupArtifacts returns c's inputs sorted into CommandQ.SortedInputs order
// with descendants of an already-claimed directory dropped: if two
// consecutive artifacts (in that sort order) share the same source and one's
// subpath is a glob-prefix ("a/**") of the other's, the descendant is
// dropped. This preserves the known lexicographic-sort limitation described
// in §4.7: siblings like "Picture" and "Picture/Foo" may sort with
// "Picture.hs" between them and miss a dedup opportunity. Do not "fix" the
// sort without also revisiting every caller that depends on this ordering
// for hash stability.
func DedupArtifacts(inputs []Artifact) []Artifact {
	sorted := make([]Artifact, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool {
		return inputSortKey(sorted[i]) < inputSortKey(sorted[j])
	})

	out := make([]Artifact, 0, len(sorted))
	for _, a := range sorted {
		if len(out) > 0 && sameSource(out[len(out)-1], a) && out[len(out)-1].Subpath.HasPathPrefix(a.Subpath) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func sameSource(a, b Artifact) bool {
	return a.Source.kind == b.Source.kind && a.Source.hash == b.Source.hash
}

// CheckAllDistinctPaths rejects an input set where two artifacts with
// different sandbox identities (PathIn) claim the same sandbox path. Two
// occurrences of the very same artifact are not a collision.
func CheckAllDistinctPaths(inputs []Artifact) error {
	claimed := make(map[string]Artifact, len(inputs))
	for _, a := range inputs {
		key := a.PathIn()
		if prior, ok := claimed[key]; ok {
			if !prior.Equal(a) {
				return zerr.With(ErrInputCollision, "path", key)
			}
			continue
		}
		claimed[key] = a
	}
	return nil
}
