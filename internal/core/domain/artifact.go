package domain

// Hash is an opaque content digest, rendered as URL-safe base64 without padding.
// It is used verbatim as a store directory name, so its zero value must never be published.
type Hash struct {
	s string
}

// NewHash wraps an already-encoded digest string.
func NewHash(s string) Hash {
	return Hash{s: s}
}

// String returns the encoded digest.
func (h Hash) String() string {
	return h.s
}

// IsZero reports whether no digest has been set.
func (h Hash) IsZero() bool {
	return h.s == ""
}

// SourceKind distinguishes the two places an Artifact's bytes can live.
type SourceKind int

const (
	// SourceExternal names a path relative to the project root, outside the store.
	SourceExternal SourceKind = iota
	// SourceBuilt names a path relative to a command's frozen result directory.
	SourceBuilt
)

// Source is the origin of an Artifact: either the external project tree or a
// previously built command's result directory.
type Source struct {
	kind SourceKind
	hash Hash // only meaningful when kind == SourceBuilt
}

// External is the source referring to the project root.
func External() Source {
	return Source{kind: SourceExternal}
}

// Built is the source referring to the frozen result directory of the command
// that hashed to h.
func Built(h Hash) Source {
	return Source{kind: SourceBuilt, hash: h}
}

// Kind reports whether this is an External or Built source.
func (s Source) Kind() SourceKind {
	return s.kind
}

// Hash returns the result hash for a Built source. It is the zero Hash for External.
func (s Source) Hash() Hash {
	return s.hash
}

// Artifact names a file or directory by its origin plus a relative subpath.
// Artifacts are values: equality and hashing are structural, and they never
// own filesystem state directly.
type Artifact struct {
	Source  Source
	Subpath RelPath
}

// NewArtifact builds an Artifact, validating the subpath.
func NewArtifact(source Source, subpath string) (Artifact, error) {
	p, err := NewRelPath(subpath)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Source: source, Subpath: p}, nil
}

// NewExternalArtifact is shorthand for NewArtifact(External(), subpath).
func NewExternalArtifact(subpath string) (Artifact, error) {
	return NewArtifact(External(), subpath)
}

// Equal reports structural equality between two artifacts.
func (a Artifact) Equal(other Artifact) bool {
	return a.Source.kind == other.Source.kind &&
		a.Source.hash == other.Source.hash &&
		a.Subpath == other.Subpath
}

// IsExternal reports whether the artifact's source is the project root.
func (a Artifact) IsExternal() bool {
	return a.Source.kind == SourceExternal
}

// Extend returns a new artifact with sub appended to a's subpath. This is
// the `/>` operator of §4.1: extending a Built artifact's subpath keeps
// tracking the same source hash, so Extend never changes a.Source.
func (a Artifact) Extend(sub RelPath) Artifact {
	return Artifact{Source: a.Source, Subpath: a.Subpath.Join(sub)}
}

// PathIn is the sandbox-relative path at which a is materialized:
// "artifact/external/<p>" for an External artifact, "artifact/<hash>/<p>"
// for a Built one.
func (a Artifact) PathIn() string {
	if a.IsExternal() {
		return "artifact/external/" + a.Subpath.String()
	}
	return "artifact/" + a.Source.hash.String() + "/" + a.Subpath.String()
}

// RealPathIn is the project-root-relative real path backing a: "<p>" for
// External (no prefix, since it already lives under the project root), or
// "artifact/<hash>/<p>" for Built.
func (a Artifact) RealPathIn() string {
	if a.IsExternal() {
		return a.Subpath.String()
	}
	return "artifact/" + a.Source.hash.String() + "/" + a.Subpath.String()
}

// ReplaceExtension returns a copy of a with its subpath's file extension
// rewritten to ext (which may or may not include a leading dot).
func ReplaceExtension(a Artifact, ext string) Artifact {
	return Artifact{Source: a.Source, Subpath: a.Subpath.ReplaceExtension(ext)}
}
