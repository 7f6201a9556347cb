package domain

import "sort"

// CommandQ is the memoization key: a Command paired with the list of output
// paths it is expected to produce. Its hash is the identity of the resulting
// Built(hash) artifacts.
type CommandQ struct {
	Command     Command
	OutputPaths []RelPath
}

// NewCommandQ pairs a command with its declared output paths.
func NewCommandQ(cmd Command, outputPaths []RelPath) CommandQ {
	return CommandQ{Command: cmd, OutputPaths: outputPaths}
}

// SortedInputs returns a copy of the command's inputs sorted by the
// lexicographic string form of (source-kind, hash, subpath). This ordering is
// used both for deterministic hashing and for sandbox materialization; it
// sorts purely on path text, so "Picture" sorts before "Picture.hs" which
// sorts before "Picture/Foo" even though "Picture/Foo" is nested under
// "Picture" as a directory entry. Distinctness is checked on this same order.
func (q CommandQ) SortedInputs() []Artifact {
	sorted := make([]Artifact, len(q.Command.Inputs))
	copy(sorted, q.Command.Inputs)
	sort.Slice(sorted, func(i, j int) bool {
		return inputSortKey(sorted[i]) < inputSortKey(sorted[j])
	})
	return sorted
}

func inputSortKey(a Artifact) string {
	prefix := "e:"
	if a.Source.Kind() == SourceBuilt {
		prefix = "b:" + a.Source.Hash().String() + ":"
	}
	return prefix + a.Subpath.String()
}
