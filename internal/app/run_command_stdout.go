package app

import (
	"context"

	"go.trai.ch/bob/internal/core/domain"
)

// stdoutPath is the declared output path a command's captured stdout is
// always available under, matching the pipeline's stdoutFile constant.
var stdoutPath = mustRelPath("_stdout")

func mustRelPath(s string) domain.RelPath {
	p, err := domain.NewRelPath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// RunCommandStdout runs cmd and returns the concatenated stdout captured
// across its ProgCall steps, read back from the command's implicit "_stdout"
// output. It is a thin wrapper over RunCommand for the common case of a
// command run purely to capture what it prints.
func RunCommandStdout(ctx context.Context, a *App, cmd domain.Command) (string, error) {
	artifact, err := RunCommand[domain.Artifact](ctx, a, cmd, domain.SingleArtifact(stdoutPath))
	if err != nil {
		return "", err
	}
	return a.ReadArtifact(artifact)
}
