package ports

import "go.trai.ch/bob/internal/core/domain"

// ConfigLoader loads the demo CLI's YAML recipe into a step dependency graph.
// This is an external collaborator of the core engine, not part of it.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the recipe from the given working directory and returns the
	// step graph.
	Load(cwd string) (*domain.Graph, error)
}
