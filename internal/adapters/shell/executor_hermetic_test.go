package shell_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/bob/internal/adapters/shell"
)

func TestExecutor_Run_HermeticBinaryOnly(t *testing.T) {
	executor := shell.NewExecutor()

	hermeticDir := t.TempDir()

	cmdName := "my-hermetic-tool"
	cmdPath := filepath.Join(hermeticDir, cmdName)
	content := "#!/bin/sh\necho success\n"
	//nolint:gosec // Test requires executable file
	err := os.WriteFile(cmdPath, []byte(content), 0o700)
	require.NoError(t, err)

	env := []string{"PATH=" + hermeticDir, "LANG=en_US.UTF-8"}

	var stdout bytes.Buffer
	err = executor.Run(context.Background(), cmdName, nil, hermeticDir, env, &stdout, io.Discard)
	require.NoError(t, err)
	require.Equal(t, "success\n", stdout.String())
}
