package domain

// CalleeKind distinguishes how a ProgCall locates its executable.
type CalleeKind int

const (
	// CalleeEnv resolves the callee by name via PATH inside the sandbox.
	CalleeEnv CalleeKind = iota
	// CalleeArtifact uses an input artifact as the executable.
	CalleeArtifact
	// CalleeTemp uses a file produced by an earlier step within the same sandbox.
	CalleeTemp
)

// Callee names the program a ProgCall invokes.
type Callee struct {
	kind     CalleeKind
	name     string   // CalleeEnv
	artifact Artifact // CalleeArtifact
	temp     RelPath  // CalleeTemp
}

// Env resolves name via PATH inside the sandbox.
func Env(name string) Callee {
	return Callee{kind: CalleeEnv, name: name}
}

// FromArtifact uses an input artifact as the executable.
func FromArtifact(a Artifact) Callee {
	return Callee{kind: CalleeArtifact, artifact: a}
}

// Temp uses a file produced by an earlier step in the same sandbox.
func Temp(path RelPath) Callee {
	return Callee{kind: CalleeTemp, temp: path}
}

// Kind reports which variant this Callee is.
func (c Callee) Kind() CalleeKind {
	return c.kind
}

// Name returns the PATH-resolved name for a CalleeEnv.
func (c Callee) Name() string {
	return c.name
}

// Artifact returns the executable artifact for a CalleeArtifact.
func (c Callee) Artifact() Artifact {
	return c.artifact
}

// TempPath returns the sandbox-relative path for a CalleeTemp.
func (c Callee) TempPath() RelPath {
	return c.temp
}

// ProgKind distinguishes the three Prog variants.
type ProgKind int

const (
	// ProgKindCall runs an executable.
	ProgKindCall ProgKind = iota
	// ProgKindMessage emits a user-visible status line with no filesystem effect.
	ProgKindMessage
	// ProgKindShadow replicates an artifact tree into the sandbox by symlinking.
	ProgKindShadow
)

// Prog is one step of a Command's program: a process call, a status message,
// or a shadow-tree replication.
type Prog struct {
	kind ProgKind

	// ProgKindCall
	callee Callee
	args   []string
	cwd    RelPath

	// ProgKindMessage
	text string

	// ProgKindShadow
	shadowArtifact Artifact
	shadowDest     RelPath
}

// ProgCall builds a process-invocation step.
func ProgCall(callee Callee, args []string, cwd RelPath) Prog {
	return Prog{kind: ProgKindCall, callee: callee, args: args, cwd: cwd}
}

// Message builds a status-line step with no filesystem effect.
func Message(text string) Prog {
	return Prog{kind: ProgKindMessage, text: text}
}

// Shadow builds a step that replicates artifact at destPath within the sandbox.
func Shadow(artifact Artifact, destPath RelPath) Prog {
	return Prog{kind: ProgKindShadow, shadowArtifact: artifact, shadowDest: destPath}
}

// Kind reports which variant this Prog is.
func (p Prog) Kind() ProgKind {
	return p.kind
}

// Callee returns the callee for a ProgKindCall.
func (p Prog) Callee() Callee {
	return p.callee
}

// Args returns the argument vector for a ProgKindCall.
func (p Prog) Args() []string {
	return p.args
}

// Cwd returns the sandbox-relative working directory for a ProgKindCall.
func (p Prog) Cwd() RelPath {
	return p.cwd
}

// Text returns the status text for a ProgKindMessage.
func (p Prog) Text() string {
	return p.text
}

// ShadowArtifact returns the artifact to replicate for a ProgKindShadow.
func (p Prog) ShadowArtifact() Artifact {
	return p.shadowArtifact
}

// ShadowDest returns the sandbox-relative destination for a ProgKindShadow.
func (p Prog) ShadowDest() RelPath {
	return p.shadowDest
}

// Command is an ordered sequence of Prog steps plus an unordered set of input
// artifacts. The empty Command is the identity element of composition:
// composition concatenates program sequences and unions input sets.
type Command struct {
	Progs  []Prog
	Inputs []Artifact
}

// NewCommand builds a Command from explicit steps and inputs.
func NewCommand(progs []Prog, inputs []Artifact) Command {
	return Command{Progs: progs, Inputs: inputs}
}

// Then returns a new Command with other's steps appended after this one's and
// the two input sets unioned. Composition is associative; the program order
// is significant, the input set is not.
func (c Command) Then(other Command) Command {
	progs := make([]Prog, 0, len(c.Progs)+len(other.Progs))
	progs = append(progs, c.Progs...)
	progs = append(progs, other.Progs...)

	inputs := make([]Artifact, 0, len(c.Inputs)+len(other.Inputs))
	inputs = append(inputs, c.Inputs...)
	inputs = append(inputs, other.Inputs...)

	return Command{Progs: progs, Inputs: inputs}
}

// WithInput returns a copy of c with a extended to its input set.
func (c Command) WithInput(a Artifact) Command {
	inputs := make([]Artifact, len(c.Inputs), len(c.Inputs)+1)
	copy(inputs, c.Inputs)
	inputs = append(inputs, a)
	return Command{Progs: c.Progs, Inputs: inputs}
}
