package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a step with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("step already exists")

	// ErrMissingDependency is returned when a step references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the step dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested step is not found in the graph.
	ErrTaskNotFound = zerr.New("step not found")

	// ErrInvalidPath is returned when a relative path fails normalization (empty, absolute, or escapes its root).
	ErrInvalidPath = zerr.New("invalid path")

	// ErrInputCollision is returned when two distinct input artifacts claim the same sandbox path.
	ErrInputCollision = zerr.New("input collision")

	// ErrMissingSource is returned when an External artifact's underlying file does not exist.
	ErrMissingSource = zerr.New("missing source")

	// ErrMissingOutput is returned when a command finishes without producing a declared output path.
	ErrMissingOutput = zerr.New("missing output")

	// ErrProcessFailed is returned when a ProgCall step exits non-zero.
	ErrProcessFailed = zerr.New("process failed")

	// ErrNoTargetsSpecified is returned when a build is requested with no targets.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrBuildExecutionFailed is a sentinel wrapping any failure during recipe execution, for CLI exit-code mapping.
	ErrBuildExecutionFailed = zerr.New("build execution failed")
)
