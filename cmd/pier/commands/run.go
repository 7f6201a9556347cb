package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/bob/internal/app"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/zerr"
)

// newRunCmd builds the "run" command, which loads the recipe rooted at the
// current directory and drives every named target (or every task in the
// graph, if none are named) through the engine.
func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Run one or more tasks from pier.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTargets(cmd.Context(), args)
		},
	}
	return cmd
}

func (c *CLI) runTargets(ctx context.Context, targets []string) error {
	graph, err := c.loader.Load(".")
	if err != nil {
		return err
	}
	if err := graph.Validate(); err != nil {
		return err
	}

	names, err := closure(graph, targets)
	if err != nil {
		return err
	}

	for _, task := range names {
		artifacts, err := runTask(ctx, c.app, task)
		if err != nil {
			return zerr.With(err, "task", task.Name.String())
		}
		for _, a := range artifacts {
			fmt.Printf("%s -> %s\n", task.Name.String(), a.RealPathIn())
		}
	}
	return nil
}

// closure resolves targets to the set of tasks that must run: their
// transitive dependencies followed by the targets themselves, in the
// graph's validated execution order. An empty targets list runs every task.
func closure(graph *domain.Graph, targets []string) ([]domain.Task, error) {
	if len(targets) == 0 {
		var all []domain.Task
		for t := range graph.Walk() {
			all = append(all, t)
		}
		return all, nil
	}

	wanted := make(map[domain.InternedString]bool, len(targets))
	var mark func(name domain.InternedString) error
	mark = func(name domain.InternedString) error {
		if wanted[name] {
			return nil
		}
		task, ok := graph.Task(name)
		if !ok {
			return zerr.With(domain.ErrMissingDependency, "dependency", name.String())
		}
		wanted[name] = true
		for _, dep := range task.Dependencies {
			if err := mark(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, target := range targets {
		if err := mark(domain.NewInternedString(target)); err != nil {
			return nil, err
		}
	}

	var ordered []domain.Task
	for t := range graph.Walk() {
		if wanted[t.Name] {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}

// runTask turns a Task into a Command and executes it: each declared input
// path is treated as project-relative, shadowed into the sandbox at its own
// path, and the task's command line runs at the sandbox root. This ignores
// any Built artifacts a dependency task may itself have produced, since
// Task exists to drive this CLI rather than to model the engine's own
// cross-command wiring.
func runTask(ctx context.Context, a *app.App, task domain.Task) ([]domain.Artifact, error) {
	if len(task.Cmd) == 0 {
		return nil, zerr.With(domain.ErrInvalidPath, "task", task.Name.String())
	}

	var progs []domain.Prog
	var inputs []domain.Artifact
	for _, in := range task.Inputs {
		path, err := domain.NewRelPath(in.String())
		if err != nil {
			return nil, err
		}
		artifact, err := domain.NewExternalArtifact(in.String())
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, artifact)
		progs = append(progs, domain.Shadow(artifact, path))
	}

	progs = append(progs, domain.ProgCall(domain.Env(task.Cmd[0]), task.Cmd[1:], domain.RelPath{}))
	cmd := domain.NewCommand(progs, inputs)

	outPaths := make([]domain.RelPath, 0, len(task.Outputs))
	for _, out := range task.Outputs {
		path, err := domain.NewRelPath(out.String())
		if err != nil {
			return nil, err
		}
		outPaths = append(outPaths, path)
	}

	return app.RunCommand[[]domain.Artifact](ctx, a, cmd, domain.MultiArtifacts(outPaths))
}
