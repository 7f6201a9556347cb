package fs

import "go.trai.ch/bob/internal/core/domain"

// The canonical* types are a tagged intermediate representation of a
// CommandQ, built purely to get a deterministic CBOR encoding out of
// fxamacker/cbor's core deterministic mode: sorted map keys, fixed-width
// integers, no floats. Every variant (Callee, Prog, Source) carries an
// explicit Kind so the byte-for-byte representation never depends on which
// unexported struct fields the domain types happen to carry this version.

type canonicalCommandQ struct {
	OutputPaths []string         `cbor:"outputs"`
	Progs       []canonicalProg  `cbor:"progs"`
	Inputs      []canonicalInput `cbor:"inputs"`
}

type canonicalProg struct {
	Kind   int              `cbor:"kind"`
	Callee *canonicalCallee `cbor:"callee,omitempty"`
	Args   []string         `cbor:"args,omitempty"`
	Cwd    string           `cbor:"cwd,omitempty"`
	Text   string           `cbor:"text,omitempty"`
	Shadow *canonicalInput  `cbor:"shadow,omitempty"`
	Dest   string           `cbor:"dest,omitempty"`
}

type canonicalCallee struct {
	Kind int             `cbor:"kind"`
	Name string          `cbor:"name,omitempty"`
	Ref  *canonicalInput `cbor:"ref,omitempty"`
	Temp string          `cbor:"temp,omitempty"`
}

// canonicalInput names an Artifact by source kind, source hash, and subpath.
// The source hash is the result hash for a Built source, and the content hash
// looked up in externalHashes for an External one (empty if absent there).
type canonicalInput struct {
	SourceKind int    `cbor:"source_kind"`
	SourceHash string `cbor:"source_hash,omitempty"`
	Subpath    string `cbor:"subpath"`
}

func toCanonicalInput(a domain.Artifact, externalHashes map[string]domain.Hash) canonicalInput {
	ci := canonicalInput{
		SourceKind: int(a.Source.Kind()),
		Subpath:    a.Subpath.String(),
	}
	switch a.Source.Kind() {
	case domain.SourceBuilt:
		ci.SourceHash = a.Source.Hash().String()
	case domain.SourceExternal:
		if h, ok := externalHashes[a.Subpath.String()]; ok {
			ci.SourceHash = h.String()
		}
	}
	return ci
}

func toCanonicalCallee(c domain.Callee, externalHashes map[string]domain.Hash) canonicalCallee {
	cc := canonicalCallee{Kind: int(c.Kind())}
	switch c.Kind() {
	case domain.CalleeEnv:
		cc.Name = c.Name()
	case domain.CalleeArtifact:
		ref := toCanonicalInput(c.Artifact(), externalHashes)
		cc.Ref = &ref
	case domain.CalleeTemp:
		cc.Temp = c.TempPath().String()
	}
	return cc
}

func toCanonicalCommandQ(q domain.CommandQ, externalHashes map[string]domain.Hash) canonicalCommandQ {
	outputPaths := make([]string, len(q.OutputPaths))
	for i, p := range q.OutputPaths {
		outputPaths[i] = p.String()
	}

	progs := make([]canonicalProg, len(q.Command.Progs))
	for i, p := range q.Command.Progs {
		cp := canonicalProg{Kind: int(p.Kind())}
		switch p.Kind() {
		case domain.ProgKindCall:
			callee := toCanonicalCallee(p.Callee(), externalHashes)
			cp.Callee = &callee
			cp.Args = p.Args()
			cp.Cwd = p.Cwd().String()
		case domain.ProgKindMessage:
			cp.Text = p.Text()
		case domain.ProgKindShadow:
			shadow := toCanonicalInput(p.ShadowArtifact(), externalHashes)
			cp.Shadow = &shadow
			cp.Dest = p.ShadowDest().String()
		}
		progs[i] = cp
	}

	inputs := make([]canonicalInput, len(q.Command.Inputs))
	for i, a := range q.SortedInputs() {
		inputs[i] = toCanonicalInput(a, externalHashes)
	}

	return canonicalCommandQ{OutputPaths: outputPaths, Progs: progs, Inputs: inputs}
}
