// Package shell provides the shell executor adapter.
package shell

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec. It carries no state of
// its own: the caller constructs the hermetic process environment
// (PATH=/usr/bin:/bin, LANG=en_US.UTF-8) and resolves ${TMPDIR} before
// calling Run.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Run executes name with args inside cwd, with the given environment.
func (e *Executor) Run(ctx context.Context, name string, args []string, cwd string, env []string, stdout, stderr io.Writer) error {
	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // command is provided by the build author
	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}
	cmd.Dir = cwd
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.Wrap(domain.ErrProcessFailed, err.Error()), "exit_code", exitCode)
	}

	return nil
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

// ResolveTempDir substitutes every occurrence of the literal token
// "${TMPDIR}" in args with tmpDir, per the process environment convention.
func ResolveTempDir(args []string, tmpDir string) []string {
	resolved := make([]string, len(args))
	for i, a := range args {
		resolved[i] = strings.ReplaceAll(a, "${TMPDIR}", tmpDir)
	}
	return resolved
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := info.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return exec.ErrNotFound
}
