// Package inventory parses the deployment inventory document into the
// list of hosts to generate example configs for.
package inventory

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// SharedHostName is the synthetic pseudo-host that anchors configuration
// shared by every real host. Its output file lands in
// host_vars/all/.all.yml.example.
const SharedHostName = "all"

// Host is one entry from the inventory: a host name and the group it
// belongs to.
type Host struct {
	Name  string
	Group string
}

// Parse reads the inventory document at path and returns every host it
// declares, in document order. When includeShared is true the synthetic
// shared host is prepended so it is planned before any real host.
//
// The expected shape: top-level entries carry a `children` mapping of
// group name → group data; each group may carry a `hosts` mapping whose
// keys are host names. A missing or empty document is a fatal error.
func Parse(path string, includeShared bool, log *slog.Logger) ([]Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse inventory %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("inventory %s is empty", path)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("inventory %s: expected a mapping at the top level", path)
	}

	var hosts []Host
	if includeShared {
		hosts = append(hosts, Host{Name: SharedHostName, Group: SharedHostName})
	}

	// Walk <top>.children.<group>.hosts via raw nodes so hosts come out in
	// the order the operator wrote them; a plain map would randomize it.
	for _, top := range mappingValues(root) {
		children := mappingValue(top, "children")
		if children == nil || children.Kind != yaml.MappingNode {
			continue
		}
		for i := 0; i+1 < len(children.Content); i += 2 {
			group := children.Content[i].Value
			hostsNode := mappingValue(children.Content[i+1], "hosts")
			if hostsNode == nil || hostsNode.Kind != yaml.MappingNode {
				continue
			}
			for j := 0; j+1 < len(hostsNode.Content); j += 2 {
				hosts = append(hosts, Host{Name: hostsNode.Content[j].Value, Group: group})
			}
		}
	}

	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = h.Name
	}
	log.Info("hosts discovered", "inventory", path, "hosts", names)
	return hosts, nil
}

// mappingValues returns a mapping node's value nodes in document order.
func mappingValues(n *yaml.Node) []*yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	vals := make([]*yaml.Node, 0, len(n.Content)/2)
	for i := 1; i < len(n.Content); i += 2 {
		vals = append(vals, n.Content[i])
	}
	return vals
}

// mappingValue returns the value node under key, or nil when the key is
// absent or n is not a mapping.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
