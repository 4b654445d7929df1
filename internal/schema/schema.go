package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Provider tags understood by the gateway. Each one selects an auth scheme
// and payload dialect (see internal/provider).
const (
	ProviderRunpod = "runpod"
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// Pricing model kinds.
const (
	PricingPerMillionPixels = "per_million_pixels"
	PricingPerImage         = "per_image"
	PricingPerGeneration    = "per_generation"
	PricingPerMillionTokens = "per_million_tokens"
)

// Tool is the declarative description of one generation capability:
// a provider, its user-facing input schema, pricing, and the mapping
// between user inputs and the provider's wire format. Tools are loaded
// once at startup and never mutated afterwards.
type Tool struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Logo        string `yaml:"logo,omitempty" json:"logo,omitempty"`
	Provider    string `yaml:"provider" json:"provider"`
	APIEndpoint string `yaml:"api_endpoint" json:"-"`

	Pricing  Pricing        `yaml:"pricing" json:"pricing"`
	Inputs   []InputSpec    `yaml:"inputs" json:"inputs"`
	Request  RequestConfig  `yaml:"request_config" json:"-"`
	Response ResponseConfig `yaml:"response_config" json:"-"`
}

// InputSpec describes one user-facing input. A "group" input has no name of
// its own and only serves to nest children in the form UI; the engine always
// works on the flattened view.
type InputSpec struct {
	Type        string  `yaml:"type" json:"type"`
	Name        string  `yaml:"name,omitempty" json:"name,omitempty"`
	Label       string  `yaml:"label,omitempty" json:"label,omitempty"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Placeholder string  `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Required    bool    `yaml:"required,omitempty" json:"required,omitempty"`
	Default     any     `yaml:"default,omitempty" json:"default,omitempty"`
	Min         *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max         *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Step        *float64 `yaml:"step,omitempty" json:"step,omitempty"`
	Lines       int     `yaml:"lines,omitempty" json:"lines,omitempty"`
	Options     []Option `yaml:"options,omitempty" json:"options,omitempty"`

	Collapsible bool        `yaml:"collapsible,omitempty" json:"collapsible,omitempty"`
	DefaultOpen bool        `yaml:"default_open,omitempty" json:"default_open,omitempty"`
	Children    []InputSpec `yaml:"children,omitempty" json:"children,omitempty"`
}

// Option is one choice of a button_group/select input. In the schema file it
// is either a bare scalar or a {label, value} pair.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var aux struct {
			Label string `yaml:"label"`
			Value any    `yaml:"value"`
		}
		if err := node.Decode(&aux); err != nil {
			return err
		}
		o.Label = aux.Label
		o.Value = aux.Value
		return nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	o.Label = fmt.Sprintf("%v", v)
	o.Value = v
	return nil
}

func (o Option) MarshalYAML() (any, error) {
	if o.Label == fmt.Sprintf("%v", o.Value) {
		return o.Value, nil
	}
	return map[string]any{"label": o.Label, "value": o.Value}, nil
}

// Pricing is the tagged pricing union. Exactly one family applies per tool;
// Kind resolves which one from the populated fields, matching the persisted
// shape of the schema file.
type Pricing struct {
	Type             string                        `yaml:"type,omitempty" json:"type,omitempty"`
	PerMillionPixels float64                       `yaml:"per_million_pixels,omitempty" json:"per_million_pixels,omitempty"`
	PerMillionTokens float64                       `yaml:"per_million_tokens,omitempty" json:"per_million_tokens,omitempty"`
	Cost             float64                       `yaml:"cost,omitempty" json:"cost,omitempty"`
	Costs            map[string]map[string]float64 `yaml:"costs,omitempty" json:"costs,omitempty"`
	Template         string                        `yaml:"example_template,omitempty" json:"example_template,omitempty"`
}

func (p Pricing) Kind() string {
	switch {
	case p.Type != "":
		return p.Type
	case p.PerMillionPixels > 0:
		return PricingPerMillionPixels
	case p.PerMillionTokens > 0:
		return PricingPerMillionTokens
	default:
		return ""
	}
}

// RequestConfig declares how the wire payload is constructed.
type RequestConfig struct {
	PayloadStructure PayloadStructure `yaml:"payload_structure" json:"payload_structure"`
}

// PayloadStructure is the wire-shape declaration: an optional root key the
// whole payload nests under, constants merged verbatim, the input-name to
// wire-field-name mapping, and per-input type coercion.
type PayloadStructure struct {
	Root         string            `yaml:"root,omitempty" json:"root,omitempty"`
	Fixed        map[string]any    `yaml:"__fixed,omitempty" json:"__fixed,omitempty"`
	ParamMapping map[string]string `yaml:"param_mapping" json:"param_mapping"`
	TypeHandling map[string]string `yaml:"type_handling,omitempty" json:"type_handling,omitempty"`
}

// ResponseConfig declares where the produced media lives in the provider
// response, as dot-delimited paths. Numeric segments index arrays.
type ResponseConfig struct {
	ImageURLPath string `yaml:"image_url_path,omitempty" json:"image_url_path,omitempty"`
	VideoURLPath string `yaml:"video_url_path,omitempty" json:"video_url_path,omitempty"`
}

// FlatInputs returns the input specs with groups expanded in declaration
// order. Group nodes themselves are not included.
func (t *Tool) FlatInputs() []InputSpec {
	var out []InputSpec
	var walk func(specs []InputSpec)
	walk = func(specs []InputSpec) {
		for _, s := range specs {
			if s.Type == "group" {
				walk(s.Children)
				continue
			}
			out = append(out, s)
		}
	}
	walk(t.Inputs)
	return out
}

// Input looks up a flattened input spec by name.
func (t *Tool) Input(name string) (InputSpec, bool) {
	for _, s := range t.FlatInputs() {
		if s.Name == name {
			return s, true
		}
	}
	return InputSpec{}, false
}
