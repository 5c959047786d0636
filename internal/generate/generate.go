// Package generate plans which roles apply to each host and renders the
// per-host example configuration files.
//
// Output layout, rooted at the deployment tree:
//
//	host_vars/<host>/.<host>.yml.example           documented non-secret vars
//	host_vars/<host>/.<host>.secrets.yml.example   secret vars only
//
// The leading dot keeps the deployment tool from picking the examples up
// as real host vars.
package generate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rolevars/internal/inventory"
	"rolevars/internal/playbook"
	"rolevars/internal/role"
)

// SecretFileSuffix is appended to the host stem for the secrets file:
// .web1.secrets.yml.example.
const SecretFileSuffix = ".secrets"

// Generator renders example config files for a deployment rooted at Root.
type Generator struct {
	Root  string
	Tasks []playbook.Task
	Roles *role.Store
	Log   *slog.Logger
}

// Plan computes the applicable role set per host: the roles directly
// assigned to the host's group plus their transitive dependencies. When
// the shared host is planned, its set is then subtracted from every other
// host's, so shared roles are documented once, in the shared file. The
// subtraction runs only after every closure is complete.
func (g *Generator) Plan(hosts []inventory.Host) (map[string]map[string]bool, error) {
	plan := make(map[string]map[string]bool, len(hosts))
	for _, h := range hosts {
		direct, err := playbook.RolesForGroup(g.Tasks, h.Group)
		if err != nil {
			return nil, fmt.Errorf("extract roles for host %s: %w", h.Name, err)
		}
		closure := make(map[string]bool, len(direct))
		for r := range direct {
			closure[r] = true
			for dep := range g.Roles.Dependencies(r) {
				closure[dep] = true
			}
		}
		plan[h.Name] = closure
	}

	if shared, ok := plan[inventory.SharedHostName]; ok {
		for name, roles := range plan {
			if name == inventory.SharedHostName {
				continue
			}
			for r := range shared {
				delete(roles, r)
			}
		}
	}
	return plan, nil
}

// BuildBlock renders one role's annotated block. props must be the half
// of cfg.Properties matching secrets (see role.Config.Partition); handing
// both passes pre-filtered slices of one partition keeps them consistent.
//
// "(no options)" appears only when the role documents no variables at
// all. A documented role whose variables all fall in the other pass keeps
// its header (plus, in the non-secret pass, the see-secrets note), which
// tells the reader where the variables went.
func BuildBlock(cfg role.Config, props []role.Property, secrets bool) []string {
	header := "\n### Role: " + cfg.Name
	if cfg.ShortDescription != "" {
		header += " - " + cfg.ShortDescription
	}
	block := []string{header}
	if cfg.Description != "" {
		block = append(block, "###     "+cfg.Description)
	}
	block = append(block, strings.Repeat("#", 64), "")

	if len(cfg.Properties) > 0 {
		for _, p := range props {
			requirement := "Optional"
			if p.Required {
				requirement = "REQUIRED"
			}
			block = append(block, fmt.Sprintf("#  (%s) %s", requirement, p.Description))
			if p.Type != "" {
				block = append(block, "#  Type: "+p.Type)
			}
			value := ""
			if p.Default != nil {
				block = append(block, fmt.Sprintf("#  Default: %v", p.Default))
				value = fmt.Sprintf("%v", p.Default)
			}
			// Copy-paste starting point for the operator.
			block = append(block, fmt.Sprintf("%s: %s", p.Name, value), "")
		}
	} else {
		block = append(block, "(no options)")
	}

	if !secrets && cfg.HasSecrets() {
		block = append(block, fmt.Sprintf(
			"# Note: This role has secret variables. See the corresponding '%s' file for the list of those variables.",
			SecretFileSuffix))
	}
	return append(block, "")
}

// WriteHostFile renders and writes one host's example file. Blocks appear
// in sorted role-name order so reruns are byte-identical. The target file
// is overwritten unconditionally. In the secrets pass, roles without any
// secret property are left out entirely.
func (g *Generator) WriteHostFile(host string, roles map[string]bool, secrets bool) error {
	stem := host
	if secrets {
		stem += SecretFileSuffix
	}
	dir := filepath.Join(g.Root, "host_vars", host)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, "."+stem+".yml.example")

	lines := []string{"---", "# Autogenerated example config from roles argument_specs"}
	if secrets {
		lines = append(lines, "# SECRETS: This file contains only secret variables and is meant as a list of variables you should put in a vault or some secret manager, instead of here.")
	}
	if host == inventory.SharedHostName {
		lines = append(lines,
			"# These are the shared configs applied for all hosts. Any value here can be overriden in the specific host config.",
			"# Use the `shared` tag (in main playbook) to make configs appear here.")
	}

	for _, name := range sortedNames(roles) {
		cfg, err := g.Roles.Load(name)
		if err != nil {
			return err
		}
		normal, secret := cfg.Partition()
		props := normal
		if secrets {
			props = secret
			if len(secret) == 0 {
				continue
			}
		}
		lines = append(lines, BuildBlock(cfg, props, secrets)...)
	}

	content := strings.Join(lines, "\n") + "\n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	g.Log.Info("generated example config", "path", path)
	return nil
}

// Run plans every host and writes both files (secrets first, then normal)
// per host. A failure aborts the run; files already written stay on disk.
func (g *Generator) Run(hosts []inventory.Host) error {
	plan, err := g.Plan(hosts)
	if err != nil {
		return err
	}
	for _, h := range hosts {
		roles := plan[h.Name]
		g.Log.Info("accumulated roles", "host", h.Name, "roles", sortedNames(roles))
		if err := g.WriteHostFile(h.Name, roles, true); err != nil {
			return err
		}
		if err := g.WriteHostFile(h.Name, roles, false); err != nil {
			return err
		}
	}
	return nil
}

// sortedNames returns the set's members in sorted order, for stable file
// content and logs.
func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
