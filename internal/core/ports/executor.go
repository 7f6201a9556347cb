// Package ports defines the core interfaces consumed by the engine.
package ports

import (
	"context"
	"io"
)

// Executor runs a single resolved process step inside an already-materialized
// sandbox directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Run executes name with args inside cwd (an absolute path within the
	// sandbox), with the given process environment. stdout and stderr are
	// streamed to the given writers as the process produces output.
	Run(ctx context.Context, name string, args []string, cwd string, env []string, stdout, stderr io.Writer) error
}
