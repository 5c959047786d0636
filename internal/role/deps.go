package role

// deps.go — transitive role dependency resolution via meta/main.yml.

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// metaMain mirrors the dependency section of meta/main.yml.
type metaMain struct {
	Dependencies []struct {
		Role string `yaml:"role"`
	} `yaml:"dependencies"`
}

// Dependencies returns every role transitively required by name. The
// traversal carries a visited set, so cyclic and self-referential graphs
// terminate and a role reachable through several paths is counted once.
// A missing role directory logs a warning and contributes nothing; a role
// without a meta file simply has no dependencies.
func (s *Store) Dependencies(name string) map[string]bool {
	deps := make(map[string]bool)
	s.collectDeps(name, deps)
	return deps
}

// collectDeps walks one role's declared dependencies into acc, skipping
// roles already accumulated.
func (s *Store) collectDeps(name string, acc map[string]bool) {
	dir := filepath.Join(s.Root, "roles", name)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.Log.Warn("role directory not found", "role", name)
		return
	}

	path := s.metaFile(name, filepath.Join("meta", "main"))
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.Log.Warn("failed to read role meta", "role", name, "error", err)
		return
	}
	var meta metaMain
	if err := yaml.Unmarshal(data, &meta); err != nil {
		s.Log.Warn("failed to parse role meta", "role", name, "error", err)
		return
	}

	for _, dep := range meta.Dependencies {
		if dep.Role == "" || acc[dep.Role] {
			continue
		}
		acc[dep.Role] = true
		s.collectDeps(dep.Role, acc)
	}
}
