// Package pipeline orchestrates a single CommandQ execution on a rule
// registry cache miss: sandbox creation, input materialization, sequential
// program execution, output verification, and output extraction.
package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
)

// stdoutFile is the path, relative to a sandbox root, that a command's
// concatenated captured stdout is written to. It is always available once a
// command has run, whether or not it appears in that command's declared
// outputs.
const stdoutFile = "_stdout"

// TempPolicy controls whether a build's sandbox directory is kept after
// completion. The application wired in internal/app always uses DeleteTemps.
type TempPolicy int

const (
	// DeleteTemps removes the sandbox directory once the build finishes.
	DeleteTemps TempPolicy = iota
	// KeepTemps leaves the sandbox directory in place for inspection.
	KeepTemps
)

// Pipeline runs the steps of a single CommandQ execution.
type Pipeline struct {
	materializer ports.Materializer
	executor     ports.Executor
	verifier     ports.Verifier
	artifactRoot func(domain.Hash) (string, error)

	externalRoot string
	tempRoot     string
	handleTemps  TempPolicy
	telemetry    ports.Telemetry
}

// New creates a Pipeline. artifactRoot resolves a Built source's hash to its
// frozen result directory, for materializing inputs that were produced by
// an earlier command.
func New(
	materializer ports.Materializer,
	executor ports.Executor,
	verifier ports.Verifier,
	telemetry ports.Telemetry,
	artifactRoot func(domain.Hash) (string, error),
	externalRoot, tempRoot string,
	handleTemps TempPolicy,
) *Pipeline {
	return &Pipeline{
		materializer: materializer,
		executor:     executor,
		verifier:     verifier,
		telemetry:    telemetry,
		artifactRoot: artifactRoot,
		externalRoot: externalRoot,
		tempRoot:     tempRoot,
		handleTemps:  handleTemps,
	}
}

// Run executes q's program inside a fresh sandbox and moves its declared
// outputs into resultDir. It matches rules.Builder's signature so a Registry
// can be constructed directly against Run.
func (p *Pipeline) Run(ctx context.Context, q domain.CommandQ, resultDir string) error {
	vertexCtx, vertex := p.telemetry.Record(ctx, "command")
	var runErr error
	defer func() { vertex.Complete(runErr) }()

	sandboxDir, err := p.createSandbox()
	if err != nil {
		runErr = err
		return err
	}
	defer p.cleanupSandbox(sandboxDir)

	resolve := func(src domain.Source) (string, error) {
		if src.Kind() == domain.SourceExternal {
			return p.externalRoot, nil
		}
		return p.artifactRoot(src.Hash())
	}

	if err := p.materializer.MaterializeInputs(vertexCtx, sandboxDir, p.externalRoot, q.Command.Inputs, resolve); err != nil {
		runErr = err
		return err
	}

	outputPaths := make([]string, len(q.OutputPaths))
	for i, rel := range q.OutputPaths {
		outputPaths[i] = rel.String()
	}

	if err := createOutputParents(sandboxDir, outputPaths); err != nil {
		runErr = err
		return err
	}

	var stdout bytes.Buffer
	for _, prog := range q.Command.Progs {
		if err := p.runProg(vertexCtx, vertex, sandboxDir, prog, &stdout); err != nil {
			runErr = err
			return err
		}
	}

	if err := os.WriteFile(filepath.Join(sandboxDir, stdoutFile), stdout.Bytes(), 0o640); err != nil {
		runErr = zerr.With(zerr.Wrap(err, "failed to write captured stdout"), "sandbox", sandboxDir)
		return runErr
	}

	ok, err := p.verifier.VerifyOutputs(sandboxDir, outputPaths)
	if err != nil {
		runErr = err
		return err
	}
	if !ok {
		runErr = zerr.With(domain.ErrMissingOutput, "sandbox", sandboxDir)
		return runErr
	}

	if err := p.extractOutputs(sandboxDir, resultDir, outputPaths); err != nil {
		runErr = err
		return err
	}

	return nil
}

func (p *Pipeline) createSandbox() (string, error) {
	dir := filepath.Join(p.tempRoot, uuid.NewString())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to create sandbox directory"), "path", dir)
	}
	return dir, nil
}

func (p *Pipeline) cleanupSandbox(dir string) {
	if p.handleTemps == KeepTemps {
		return
	}
	_ = os.RemoveAll(dir)
}

func (p *Pipeline) runProg(ctx context.Context, vertex ports.Vertex, sandboxDir string, prog domain.Prog, stdout *bytes.Buffer) error {
	switch prog.Kind() {
	case domain.ProgKindMessage:
		vertex.Log(domain.LogLevelInfo, prog.Text())
		return nil
	case domain.ProgKindShadow:
		srcRoot := filepath.Join(sandboxDir, prog.ShadowArtifact().PathIn())
		dest := filepath.Join(sandboxDir, prog.ShadowDest().String())
		return p.materializer.Shadow(ctx, srcRoot, dest)
	case domain.ProgKindCall:
		return p.runCall(ctx, vertex, sandboxDir, prog, stdout)
	default:
		return zerr.With(zerr.New("unknown prog kind"), "kind", int(prog.Kind()))
	}
}

func (p *Pipeline) runCall(ctx context.Context, vertex ports.Vertex, sandboxDir string, prog domain.Prog, stdout *bytes.Buffer) error {
	name := resolveCallee(sandboxDir, prog.Callee())

	cwd := sandboxDir
	if !prog.Cwd().IsZero() {
		cwd = filepath.Join(sandboxDir, prog.Cwd().String())
	}

	env := []string{"PATH=/usr/bin:/bin", "LANG=en_US.UTF-8"}
	args := substituteTempDir(prog.Args(), sandboxDir)

	// Captured stdout feeds the command's "_stdout" output in addition to
	// streaming live to the progress vertex.
	out := io.MultiWriter(stdout, vertex.Stdout())

	return p.executor.Run(ctx, name, args, cwd, env, out, vertex.Stderr())
}

// createOutputParents ensures the parent directory of every declared output
// path exists before the command's program steps run, so a program that
// writes a nested output doesn't also need to create its own parent
// directories.
func createOutputParents(sandboxDir string, outputs []string) error {
	for _, rel := range outputs {
		dir := filepath.Join(sandboxDir, filepath.Dir(rel))
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create output parent directory"), "path", dir)
		}
	}
	return nil
}

// resolveCallee resolves a Prog's callee to the executable path the
// process should be invoked with: PATH-relative for Env, the sandbox-local
// pathIn location for Artifact and Temp.
func resolveCallee(sandboxDir string, callee domain.Callee) string {
	switch callee.Kind() {
	case domain.CalleeEnv:
		return callee.Name()
	case domain.CalleeArtifact:
		return filepath.Join(sandboxDir, callee.Artifact().PathIn())
	case domain.CalleeTemp:
		return filepath.Join(sandboxDir, callee.TempPath().String())
	default:
		return ""
	}
}

func substituteTempDir(args []string, sandboxDir string) []string {
	resolved := make([]string, len(args))
	for i, a := range args {
		resolved[i] = strings.ReplaceAll(a, "${TMPDIR}", sandboxDir)
	}
	return resolved
}

// extractOutputs moves every declared output path from sandboxDir into
// resultDir, preserving the sandbox-relative structure.
func (p *Pipeline) extractOutputs(sandboxDir, resultDir string, outputs []string) error {
	if err := os.MkdirAll(resultDir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create result directory"), "path", resultDir)
	}
	for _, rel := range outputs {
		src := filepath.Join(sandboxDir, rel)
		dest := filepath.Join(resultDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create output parent directory"), "path", dest)
		}
		if err := moveTree(src, dest); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to move output into result directory"), "path", rel)
		}
	}
	return nil
}

func moveTree(src, dest string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	// A symlink (such as the relative ones a Shadow step creates) would
	// dangle once moved out of the sandbox, so its target is copied instead.
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		resolved := target
		if !filepath.IsAbs(target) {
			resolved = filepath.Join(filepath.Dir(src), target)
		}
		if err := copyPath(resolved, dest); err != nil {
			return err
		}
		return os.RemoveAll(src)
	}
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	// Rename can fail across filesystem boundaries (sandbox under a tmpfs,
	// store under a different mount); fall back to copy-then-remove.
	if err := copyPath(src, dest); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

func copyPath(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return copyDir(src, dest)
	}
	return copyFile(src, dest, info.Mode())
}

func copyDir(src, dest string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyPath(filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string, mode os.FileMode) error {
	//nolint:gosec // path is derived from a walk of the sandbox this process created
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	//nolint:gosec // path is derived from a walk of the sandbox this process created
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
