// Package role reads per-role metadata from the deployment tree:
// documented configuration options (meta/argument_specs.yml), resolved
// defaults (defaults/main.yml), and declared dependencies (meta/main.yml).
package role

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SecretKey is the custom argument-spec key that flags an option as
// secret. Secret options are routed to the companion .secrets file.
const SecretKey = "x-secret"

// Property is one documented role variable. Default == nil means the
// variable has no known default, from either the spec or the defaults
// file.
type Property struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Secret      bool
	Default     any
}

// Config is a role's documented configuration. A role with no argument
// spec file yields a Config with only Name set — the common case, not an
// error.
type Config struct {
	Name             string
	Description      string
	ShortDescription string
	Properties       []Property
}

// Partition splits the properties by secrecy. Both render passes consume
// the same partition, so every property lands in exactly one output file.
func (c Config) Partition() (normal, secret []Property) {
	for _, p := range c.Properties {
		if p.Secret {
			secret = append(secret, p)
		} else {
			normal = append(normal, p)
		}
	}
	return normal, secret
}

// HasSecrets reports whether any property is flagged secret.
func (c Config) HasSecrets() bool {
	for _, p := range c.Properties {
		if p.Secret {
			return true
		}
	}
	return false
}

// Store reads role metadata from <Root>/roles/<name>/.
type Store struct {
	Root string // project root, the playbook's directory
	Log  *slog.Logger
}

// metaFile resolves a metadata file under the role directory, accepting
// both .yml and .yaml spellings. Returns "" when neither exists.
func (s *Store) metaFile(role, rel string) string {
	for _, ext := range []string{".yml", ".yaml"} {
		p := filepath.Join(s.Root, "roles", role, rel+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// argSpecsFile mirrors the spec file's outer shape. Main stays a raw node
// so "present but empty" can be told apart from a populated spec.
type argSpecsFile struct {
	ArgumentSpecs struct {
		Main yaml.Node `yaml:"main"`
	} `yaml:"argument_specs"`
}

// mainSpec is the argument_specs.main object. Options stays a raw node so
// declaration order survives into the rendered output.
type mainSpec struct {
	Description      yaml.Node `yaml:"description"`
	ShortDescription yaml.Node `yaml:"short_description"`
	Options          yaml.Node `yaml:"options"`
}

// optionMeta is the per-variable spec entry.
type optionMeta struct {
	Type        string    `yaml:"type"`
	Description yaml.Node `yaml:"description"`
	Required    bool      `yaml:"required"`
	Secret      bool      `yaml:"x-secret"`
	Default     any       `yaml:"default"`
}

// Load reads the role's argument spec and resolved defaults into a
// Config. A role without a spec file returns an empty Config and no error
// (logged at debug; most roles are undocumented). Empty description
// fields are a metadata hygiene warning, not a failure.
func (s *Store) Load(name string) (Config, error) {
	cfg := Config{Name: name}

	specPath := s.metaFile(name, filepath.Join("meta", "argument_specs"))
	if specPath == "" {
		s.Log.Debug("role has no argument spec", "role", name)
		return cfg, nil
	}

	data, err := os.ReadFile(specPath)
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", specPath, err)
	}
	var spec argSpecsFile
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", specPath, err)
	}
	if spec.ArgumentSpecs.Main.Kind != yaml.MappingNode {
		// Spec file exists but documents nothing.
		return cfg, nil
	}
	var main mainSpec
	if err := spec.ArgumentSpecs.Main.Decode(&main); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", specPath, err)
	}

	defaults, err := s.loadDefaults(name)
	if err != nil {
		return cfg, err
	}

	cfg.Description = nodeText(&main.Description)
	if cfg.Description == "" {
		s.Log.Warn("role has empty description in its argument spec", "role", name)
	}
	cfg.ShortDescription = nodeText(&main.ShortDescription)
	if cfg.ShortDescription == "" {
		s.Log.Warn("role has empty short_description in its argument spec", "role", name)
	}

	options := main.Options
	for i := 0; i+1 < len(options.Content); i += 2 {
		varName := options.Content[i].Value
		var meta optionMeta
		if err := options.Content[i+1].Decode(&meta); err != nil {
			return cfg, fmt.Errorf("parse option %s of role %s: %w", varName, name, err)
		}
		// The defaults file wins over the default declared in the spec.
		def := meta.Default
		if v, ok := defaults[varName]; ok {
			def = v
		}
		cfg.Properties = append(cfg.Properties, Property{
			Name:        varName,
			Type:        meta.Type,
			Description: strings.TrimSpace(nodeText(&meta.Description)),
			Required:    meta.Required,
			Secret:      meta.Secret,
			Default:     def,
		})
	}
	return cfg, nil
}

// loadDefaults reads the role's resolved defaults file, if present.
func (s *Store) loadDefaults(name string) (map[string]any, error) {
	path := s.metaFile(name, filepath.Join("defaults", "main"))
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var defaults map[string]any
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return defaults, nil
}

// nodeText renders a description node as a single string. Specs write
// descriptions as either a scalar or a list of lines; lists are joined
// with spaces.
func nodeText(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			parts = append(parts, c.Value)
		}
		return strings.Join(parts, " ")
	}
	return ""
}
