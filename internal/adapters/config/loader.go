// Package config loads the demo CLI's YAML recipe files into a step
// dependency graph. It is an external collaborator of the core engine: the
// engine itself knows nothing of tasks or YAML, only of Commands and
// Artifacts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	pierfileName  = "pier.yaml"
	workfileName = "pier.work.yaml"
)

var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileConfigLoader implements ports.ConfigLoader by discovering the nearest
// recipe file upward from the given working directory.
type FileConfigLoader struct {
	Filename string
}

// Load discovers and loads the recipe rooted above cwd.
func (l *FileConfigLoader) Load(cwd string) (*domain.Graph, error) {
	loader := &Loader{Logger: discardLogger{}, pierfileName: l.Filename}
	return loader.Load(cwd)
}

// Loader loads a recipe graph from either a standalone pier.yaml or a
// pier.work.yaml-rooted multi-project workspace, discovered by walking
// upward from the given working directory.
type Loader struct {
	Logger ports.Logger

	pierfileName string
}

// NewLoader creates a Loader that reports workspace warnings through log.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{Logger: log}
}

func (l *Loader) logger() ports.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return discardLogger{}
}

func (l *Loader) name() string {
	if l.pierfileName != "" {
		return l.pierfileName
	}
	return pierfileName
}

// Load discovers the nearest pier.work.yaml or pier.yaml above cwd and loads
// its recipe graph. A workspace file anywhere above cwd takes precedence
// over a nearer standalone pier.yaml.
func (l *Loader) Load(cwd string) (*domain.Graph, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve working directory")
	}

	if root := findUpward(abs, workfileName); root != "" {
		return l.loadWorkspace(root)
	}
	if root := findUpward(abs, l.name()); root != "" {
		return Load(filepath.Join(root, l.name()))
	}
	return nil, zerr.With(zerr.New("no recipe file found"), "start", abs)
}

func findUpward(start, name string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func (l *Loader) loadWorkspace(root string) (*domain.Graph, error) {
	data, err := os.ReadFile(filepath.Join(root, workfileName))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read workspace file")
	}
	var wf WorkspaceFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, zerr.Wrap(err, "failed to parse workspace file")
	}

	dirs, err := resolveProjectDirs(root, wf.projectGlobs())
	if err != nil {
		return nil, err
	}

	g := domain.NewGraph()
	firstSeenAt := make(map[string]string, len(dirs))

	for _, dir := range dirs {
		rel, _ := filepath.Rel(root, dir)
		rel = filepath.ToSlash(rel)

		bfPath := filepath.Join(dir, l.name())
		if _, err := os.Stat(bfPath); err != nil {
			l.logger().Warn(fmt.Sprintf("%s is missing %s, skipping", rel, l.name()))
			continue
		}

		bf, err := readPierfile(bfPath, "failed to read config file", "failed to parse project config")
		if err != nil {
			return nil, err
		}

		if bf.Project == "" {
			return nil, zerr.With(zerr.New("missing project name"), "dir", rel)
		}
		if !projectNamePattern.MatchString(bf.Project) {
			return nil, zerr.With(zerr.New("project name can only contain letters, digits, dashes and underscores"), "project_name", bf.Project)
		}
		if bf.Root != "" {
			l.logger().Warn(fmt.Sprintf("'root' defined in %s's pier.yaml is ignored in workspace mode", bf.Project))
		}

		if first, ok := firstSeenAt[bf.Project]; ok {
			return nil, zerr.With(zerr.With(zerr.With(zerr.New("duplicate project name"),
				"project_name", bf.Project), "first_occurrence", first), "duplicate_at", rel)
		}
		firstSeenAt[bf.Project] = rel

		if err := addProjectTasks(g, bf, bf.Project); err != nil {
			return nil, err
		}
	}

	if err := checkCrossProjectDependencies(g); err != nil {
		return nil, err
	}

	return g, nil
}

func checkCrossProjectDependencies(g *domain.Graph) error {
	for t := range g.Tasks() {
		for _, dep := range t.Dependencies {
			if _, ok := g.Task(dep); !ok {
				return zerr.With(zerr.New("missing dependency"), "missing_dependency", dep.String())
			}
		}
	}
	return nil
}

func resolveProjectDirs(root string, globs []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	for _, pattern := range globs {
		if pattern == "" || pattern == "." {
			if !seen[root] {
				seen[root] = true
				dirs = append(dirs, root)
			}
			continue
		}

		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid workspace project glob"), "pattern", pattern)
		}
		for _, m := range matches {
			info, statErr := os.Stat(m)
			if statErr != nil || !info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				dirs = append(dirs, m)
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Load reads a single pier.yaml at path and returns its recipe graph. Tasks
// are namespaced with the file's project name, if set.
func Load(path string) (*domain.Graph, error) {
	bf, err := readPierfile(path, "failed to read config file", "failed to parse config file")
	if err != nil {
		return nil, err
	}

	g := domain.NewGraph()
	if err := addProjectTasks(g, bf, bf.Project); err != nil {
		return nil, err
	}
	return g, nil
}

func readPierfile(path, readErrMsg, parseErrMsg string) (Pierfile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the caller, not request-controlled
	if err != nil {
		return Pierfile{}, zerr.Wrap(err, readErrMsg)
	}
	var bf Pierfile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return Pierfile{}, zerr.Wrap(err, parseErrMsg)
	}
	return bf, nil
}

// addProjectTasks adds every task in bf to g, prefixing task names and their
// local (same-project) dependencies with namespace when non-empty.
// Cross-project dependencies (already containing ":") pass through unchanged.
func addProjectTasks(g *domain.Graph, bf Pierfile, namespace string) error {
	taskNames := make(map[string]bool, len(bf.Tasks))
	for name := range bf.Tasks {
		taskNames[name] = true
	}

	for name, dto := range bf.Tasks {
		if name == "all" {
			return zerr.With(zerr.New("task name 'all' is reserved"), "task_name", name)
		}

		deps := make([]string, 0, len(dto.DependsOn))
		for _, dep := range dto.DependsOn {
			if strings.Contains(dep, ":") {
				deps = append(deps, dep)
				continue
			}
			if !taskNames[dep] {
				return zerr.With(zerr.New("missing dependency"), "missing_dependency", dep)
			}
			if namespace != "" {
				dep = namespace + ":" + dep
			}
			deps = append(deps, dep)
		}

		taskName := name
		if namespace != "" {
			taskName = namespace + ":" + name
		}

		task := &domain.Task{
			Name:         domain.NewInternedString(taskName),
			Cmd:          dto.Cmd,
			Inputs:       canonicalizeStrings(dto.Input),
			Outputs:      canonicalizeStrings(dto.Target),
			Dependencies: internStrings(sortUnique(deps)),
			Environment:  dto.Environment,
		}

		if err := g.AddTask(task); err != nil {
			return err
		}
	}
	return nil
}

func internStrings(strs []string) []domain.InternedString {
	res := make([]domain.InternedString, len(strs))
	for i, s := range strs {
		res[i] = domain.NewInternedString(s)
	}
	return res
}

func canonicalizeStrings(strs []string) []domain.InternedString {
	return internStrings(sortUnique(strs))
}

func sortUnique(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}
	sorted := make([]string, len(strs))
	copy(sorted, strs)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

// discardLogger is used when a Loader is constructed without an explicit
// ports.Logger, so workspace warnings simply have nowhere to go.
type discardLogger struct{}

func (discardLogger) Info(string)  {}
func (discardLogger) Warn(string)  {}
func (discardLogger) Error(error)  {}
