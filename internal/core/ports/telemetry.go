package ports

import (
	"context"
	"io"

	"go.trai.ch/bob/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records progress for executed CommandQs and CallArtifact calls.
type Telemetry interface {
	// Record starts a new Vertex named name. It returns the context the
	// vertex's work runs under (the progrock recorder returns ctx unchanged)
	// and the Vertex.
	Record(ctx context.Context, name string) (context.Context, Vertex)

	// Close flushes and closes the recording session.
	Close() error
}

// Vertex is a single unit of recorded progress.
type Vertex interface {
	// Stdout returns a writer capturing the step's standard output.
	Stdout() io.Writer
	// Stderr returns a writer capturing the step's error output.
	Stderr() io.Writer
	// Log records a structured message against this vertex.
	Log(level domain.LogLevel, msg string)
	// Complete marks the vertex finished, successfully or with err.
	Complete(err error)
	// Cached marks the vertex as a cache hit rather than an execution.
	Cached()
}
