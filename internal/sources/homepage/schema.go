package homepage

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ServicesConfig is a parsed services.yaml, groups in document order.
//
// Homepage keys groups and services by name, so plain maps would lose the
// order users arranged their dashboard in. Decoding goes through yaml.Node.
type ServicesConfig []Group

// Group is one named section. Nested groups are flattened into Services.
type Group struct {
	Name     string
	Services []Service
}

// Service is one named entry of a group.
type Service struct {
	Name string
	ServiceProps
}

// ServiceProps contains the actual service properties
type ServiceProps struct {
	Href        string         `yaml:"href"`
	Icon        string         `yaml:"icon,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Target      string         `yaml:"target,omitempty"`
	Ping        string         `yaml:"ping,omitempty"`
	SiteMonitor string         `yaml:"siteMonitor,omitempty"`
	Widget      map[string]any `yaml:"widget,omitempty"`
}

// UnmarshalYAML decodes a `- GroupName: [ {ServiceName: props}, ... ]` item.
func (g *Group) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return fmt.Errorf("line %d: group must be a single-key mapping", n.Line)
	}
	g.Name = n.Content[0].Value
	services, err := decodeEntries(n.Content[1])
	if err != nil {
		return fmt.Errorf("group %q: %w", g.Name, err)
	}
	g.Services = services
	return nil
}

// decodeEntries walks a sequence of single-key mappings. A value that is a
// sequence is a nested group and is flattened.
func decodeEntries(seq *yaml.Node) ([]Service, error) {
	if seq.Kind == yaml.ScalarNode && seq.Tag == "!!null" {
		return nil, nil
	}
	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list of services", seq.Line)
	}

	var out []Service
	for _, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: expected a service mapping", item.Line)
		}
		for i := 0; i+1 < len(item.Content); i += 2 {
			name, value := item.Content[i].Value, item.Content[i+1]

			if value.Kind == yaml.SequenceNode {
				nested, err := decodeEntries(value)
				if err != nil {
					return nil, fmt.Errorf("group %q: %w", name, err)
				}
				out = append(out, nested...)
				continue
			}

			var props ServiceProps
			if err := value.Decode(&props); err != nil {
				return nil, fmt.Errorf("service %q: %w", name, err)
			}
			out = append(out, Service{Name: name, ServiceProps: props})
		}
	}
	return out, nil
}
