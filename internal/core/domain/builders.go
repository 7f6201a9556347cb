package domain

// ProgEnv builds a one-step Command invoking name (resolved via PATH) with
// args, at the sandbox root. It is the common case of ProgCall wrapped as a
// Command so it composes directly with Then/inputs.
func ProgEnv(name string, args []string) Command {
	return Command{Progs: []Prog{ProgCall(Env(name), args, RelPath{})}}
}

// ProgArtifact builds a one-step Command invoking a Built or External input
// artifact as the executable. bin is not added to the command's input set;
// callers combine the result with Input(bin) themselves so a callee that is
// reused across steps is only declared once.
func ProgArtifact(bin Artifact, args []string) Command {
	return Command{Progs: []Prog{ProgCall(FromArtifact(bin), args, RelPath{})}}
}

// ProgTemp builds a one-step Command invoking a file produced by an earlier
// step within the same sandbox.
func ProgTemp(path RelPath, args []string) Command {
	return Command{Progs: []Prog{ProgCall(Temp(path), args, RelPath{})}}
}

// MessageCmd builds a one-step Command that emits a status line with no
// filesystem effect.
func MessageCmd(text string) Command {
	return Command{Progs: []Prog{Message(text)}}
}

// ShadowCmd builds a one-step Command that replicates artifact at destPath
// within the sandbox. artifact is not added to the command's input set;
// combine with Input(artifact) explicitly.
func ShadowCmd(artifact Artifact, destPath RelPath) Command {
	return Command{Progs: []Prog{Shadow(artifact, destPath)}}
}

// Input builds an input-only Command contributing a to the input set with no
// program steps, for composing declared inputs via Then.
func Input(a Artifact) Command {
	return Command{Inputs: []Artifact{a}}
}

// Inputs builds an input-only Command contributing every artifact in as.
func Inputs(as []Artifact) Command {
	return Command{Inputs: as}
}

// InputList is an alias for Inputs kept for parity with the source API's
// separate list-taking constructor; both simply extend the input set.
func InputList(as []Artifact) Command {
	return Inputs(as)
}

// CreateDirectoryArtifact builds a Command whose single program step creates
// an empty directory at path within the sandbox, producing it as a declared
// output when combined with an Output over the same path.
func CreateDirectoryArtifact(path RelPath) Command {
	return Command{Progs: []Prog{ProgCall(Env("mkdir"), []string{"-p", path.String()}, RelPath{})}}
}
