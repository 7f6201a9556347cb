package shell_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/bob/internal/adapters/shell"
)

// TestExecutor_Run_WritesToArbitraryWriters verifies Run streams stdout and
// stderr directly to whatever writers the caller supplies, with no
// intermediary buffering or logger involved. The pipeline wires a
// ports.Vertex's Stdout()/Stderr() writers in here.
func TestExecutor_Run_WritesToArbitraryWriters(t *testing.T) {
	executor := shell.NewExecutor()
	tmpDir := t.TempDir()

	var stdoutBuf bytes.Buffer
	var stderrBuf bytes.Buffer

	env := []string{"PATH=/usr/bin:/bin", "LANG=en_US.UTF-8"}
	err := executor.Run(context.Background(), "sh", []string{"-c", "echo hello to stdout; echo hello to stderr >&2"}, tmpDir, env, &stdoutBuf, &stderrBuf)
	require.NoError(t, err)

	require.Contains(t, stdoutBuf.String(), "hello to stdout")
	require.Contains(t, stderrBuf.String(), "hello to stderr")
}
