package domain

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// RelPath is a normalized, slash-separated path relative to some root.
// It never contains ".." components and is never empty or ".".
type RelPath struct {
	p string
}

// NewRelPath validates and normalizes a relative path.
func NewRelPath(s string) (RelPath, error) {
	if s == "" {
		return RelPath{}, zerr.With(ErrInvalidPath, "path", s)
	}

	cleaned := filepath.ToSlash(filepath.Clean(s))
	if cleaned == "." || cleaned == "" {
		return RelPath{}, zerr.With(ErrInvalidPath, "path", s)
	}
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return RelPath{}, zerr.With(ErrInvalidPath, "path", s)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return RelPath{}, zerr.With(ErrInvalidPath, "path", s)
		}
	}

	return RelPath{p: cleaned}, nil
}

// String returns the normalized slash-separated path.
func (r RelPath) String() string {
	return r.p
}

// IsZero reports whether this is the zero value (never produced by NewRelPath).
func (r RelPath) IsZero() bool {
	return r.p == ""
}

// Join appends a relative path to this one. The result is not re-validated.
func (r RelPath) Join(sub RelPath) RelPath {
	return RelPath{p: filepath.ToSlash(filepath.Join(r.p, sub.p))}
}

// ReplaceExtension rewrites the final extension of the path's last
// component to ext, which may be given with or without a leading dot.
func (r RelPath) ReplaceExtension(ext string) RelPath {
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	trimmed := strings.TrimSuffix(r.p, filepath.Ext(r.p))
	return RelPath{p: trimmed + ext}
}

// HasPathPrefix reports whether r names child, or an ancestor whose
// glob-style "**" descendant would match child — i.e. child equals r or
// begins with r followed by a path separator.
func (r RelPath) HasPathPrefix(child RelPath) bool {
	if r.p == child.p {
		return true
	}
	return strings.HasPrefix(child.p, r.p+"/")
}
