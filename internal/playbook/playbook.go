// Package playbook loads the deployment's main task list and extracts the
// roles statically assigned to a host group.
//
// Only static, directly listed roles are supported; dynamic
// include_role/import_role tasks are out of scope.
package playbook

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SharedTag marks a task as part of the shared baseline regardless of its
// hosts selector. Roles from tagged tasks land in the shared host's file.
const SharedTag = "shared"

// ErrUnrecognizedRoleFormat reports a roles value whose shape is none of
// the supported representations. The playbook is malformed; the run
// aborts.
var ErrUnrecognizedRoleFormat = errors.New("unrecognized role list format")

// Task is one record from the playbook: a hosts selector plus the roles
// and tags attached to it. Roles stays untyped because playbooks write it
// in several shapes; RoleNames normalizes them.
type Task struct {
	Name  string   `yaml:"name"`
	Hosts string   `yaml:"hosts"`
	Roles any      `yaml:"roles"`
	Tags  []string `yaml:"tags"`
}

// Load reads the playbook task list at path.
func Load(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read playbook %s: %w", path, err)
	}
	var tasks []Task
	if err := yaml.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse playbook %s: %w", path, err)
	}
	return tasks, nil
}

// RoleNames flattens a task's roles value into a set of role names.
//
// Supported shapes:
//
//	roles: [ssh, nginx]                   sequence of bare names
//	roles: [{role: ssh, tags: [x]}]       sequence of role mappings
//	roles: {ssh: {}, nginx: {}}           mapping keyed by role name
//
// Sequence entries that are mappings without a "role" key are ignored.
// Any other shape returns ErrUnrecognizedRoleFormat.
func RoleNames(roles any) (map[string]bool, error) {
	names := make(map[string]bool)
	switch v := roles.(type) {
	case []any:
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				names[entry] = true
			case map[string]any:
				if name, ok := entry["role"].(string); ok {
					names[name] = true
				}
			default:
				return nil, fmt.Errorf("%w: sequence entry %T (%v)", ErrUnrecognizedRoleFormat, item, item)
			}
		}
	case map[string]any:
		for name := range v {
			names[name] = true
		}
	default:
		return nil, fmt.Errorf("%w: %T (%v)", ErrUnrecognizedRoleFormat, roles, roles)
	}
	return names, nil
}

// RolesForGroup returns the roles directly attached to tasks that apply
// to group. A task applies when its hosts selector contains the group
// name, targets every host ("all"), or carries the shared tag.
func RolesForGroup(tasks []Task, group string) (map[string]bool, error) {
	roles := make(map[string]bool)
	for _, t := range tasks {
		applies := strings.Contains(t.Hosts, group) ||
			t.Hosts == "all" ||
			slices.Contains(t.Tags, SharedTag)
		if !applies || t.Roles == nil {
			continue
		}
		names, err := RoleNames(t.Roles)
		if err != nil {
			return nil, err
		}
		for name := range names {
			roles[name] = true
		}
	}
	return roles, nil
}
