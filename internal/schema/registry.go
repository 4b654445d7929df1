package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Registry holds the loaded tool definitions. It is built once at startup
// and read-only afterwards, so it is safe for concurrent use without locks.
type Registry struct {
	tools []*Tool
	byID  map[string]*Tool
}

// Load reads and parses the tool schema file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse builds a registry from YAML tool definitions and validates them.
func Parse(data []byte) (*Registry, error) {
	var doc struct {
		Tools []*Tool `yaml:"tools"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	reg := &Registry{byID: make(map[string]*Tool, len(doc.Tools))}
	for _, t := range doc.Tools {
		if err := validate(t); err != nil {
			return nil, fmt.Errorf("tool %q: %w", t.ID, err)
		}
		if _, dup := reg.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate tool id %q", t.ID)
		}
		reg.tools = append(reg.tools, t)
		reg.byID[t.ID] = t
	}
	return reg, nil
}

func validate(t *Tool) error {
	if t.ID == "" {
		return fmt.Errorf("missing id")
	}
	if t.Provider == "" {
		return fmt.Errorf("missing provider")
	}
	if t.APIEndpoint == "" {
		return fmt.Errorf("missing api_endpoint")
	}
	if t.Response.ImageURLPath == "" && t.Response.VideoURLPath == "" {
		return fmt.Errorf("response_config declares no media path")
	}

	// Every mapped input must exist in the flattened input specs. Inputs
	// without a mapping are fine; they are simply never sent.
	names := make(map[string]bool)
	for _, s := range t.FlatInputs() {
		names[s.Name] = true
	}
	for inputName := range t.Request.PayloadStructure.ParamMapping {
		if inputName == "__fixed" {
			continue
		}
		if !names[inputName] {
			return fmt.Errorf("param_mapping references unknown input %q", inputName)
		}
	}
	return nil
}

// Get returns the tool with the given id.
func (r *Registry) Get(id string) (*Tool, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// List returns all tools in file order.
func (r *Registry) List() []*Tool {
	return r.tools
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
