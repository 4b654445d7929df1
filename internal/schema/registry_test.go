package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSchema = `
tools:
  - id: flux-test
    name: Flux Test
    provider: runpod
    api_endpoint: https://api.example.com/v2/flux/runsync
    pricing:
      per_million_pixels: 0.04
    inputs:
      - type: textbox
        name: prompt
        label: Prompt
        required: true
      - type: group
        label: Advanced
        collapsible: true
        children:
          - type: button_group
            name: aspect_ratio
            label: Aspect Ratio
            default: "1:1"
            options:
              - "1:1"
              - label: Widescreen
                value: "16:9"
          - type: slider
            name: steps
            default: 28
    request_config:
      payload_structure:
        root: input
        __fixed:
          model: flux-dev
        param_mapping:
          prompt: prompt
          aspect_ratio: size
          steps: num_inference_steps
        type_handling:
          steps: integer
    response_config:
      image_url_path: output.image_url
`

func TestParse(t *testing.T) {
	reg, err := Parse([]byte(sampleSchema))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 tool, got %d", reg.Len())
	}

	tool, ok := reg.Get("flux-test")
	if !ok {
		t.Fatal("expected flux-test to be registered")
	}
	if tool.Provider != ProviderRunpod {
		t.Errorf("expected provider runpod, got %q", tool.Provider)
	}
	if tool.Pricing.Kind() != PricingPerMillionPixels {
		t.Errorf("expected per_million_pixels pricing, got %q", tool.Pricing.Kind())
	}
	if tool.Request.PayloadStructure.Root != "input" {
		t.Errorf("expected root 'input', got %q", tool.Request.PayloadStructure.Root)
	}
	if tool.Request.PayloadStructure.Fixed["model"] != "flux-dev" {
		t.Errorf("expected __fixed model, got %v", tool.Request.PayloadStructure.Fixed)
	}
}

func TestFlatInputs(t *testing.T) {
	reg, err := Parse([]byte(sampleSchema))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tool, _ := reg.Get("flux-test")

	flat := tool.FlatInputs()
	if len(flat) != 3 {
		t.Fatalf("expected 3 flattened inputs, got %d", len(flat))
	}
	want := []string{"prompt", "aspect_ratio", "steps"}
	for i, name := range want {
		if flat[i].Name != name {
			t.Errorf("flat[%d]: expected %q, got %q", i, name, flat[i].Name)
		}
	}

	if _, ok := tool.Input("aspect_ratio"); !ok {
		t.Error("expected to find nested input aspect_ratio")
	}
	if _, ok := tool.Input("nonexistent"); ok {
		t.Error("expected nonexistent input lookup to fail")
	}
}

func TestOptionForms(t *testing.T) {
	reg, err := Parse([]byte(sampleSchema))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tool, _ := reg.Get("flux-test")
	spec, _ := tool.Input("aspect_ratio")

	if len(spec.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(spec.Options))
	}
	if spec.Options[0].Label != "1:1" || spec.Options[0].Value != "1:1" {
		t.Errorf("scalar option: got label=%q value=%v", spec.Options[0].Label, spec.Options[0].Value)
	}
	if spec.Options[1].Label != "Widescreen" || spec.Options[1].Value != "16:9" {
		t.Errorf("pair option: got label=%q value=%v", spec.Options[1].Label, spec.Options[1].Value)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing id",
			yaml: `
tools:
  - name: No ID
    provider: runpod
    api_endpoint: https://x
    response_config:
      image_url_path: url
`,
			wantErr: "missing id",
		},
		{
			name: "missing provider",
			yaml: `
tools:
  - id: t1
    api_endpoint: https://x
    response_config:
      image_url_path: url
`,
			wantErr: "missing provider",
		},
		{
			name: "no media path",
			yaml: `
tools:
  - id: t1
    provider: runpod
    api_endpoint: https://x
`,
			wantErr: "no media path",
		},
		{
			name: "mapping references unknown input",
			yaml: `
tools:
  - id: t1
    provider: runpod
    api_endpoint: https://x
    request_config:
      payload_structure:
        param_mapping:
          ghost: ghost
    response_config:
      image_url_path: url
`,
			wantErr: "unknown input",
		},
		{
			name: "duplicate id",
			yaml: `
tools:
  - id: t1
    provider: runpod
    api_endpoint: https://x
    response_config:
      image_url_path: url
  - id: t1
    provider: runpod
    api_endpoint: https://x
    response_config:
      image_url_path: url
`,
			wantErr: "duplicate tool id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	if err := os.WriteFile(path, []byte(sampleSchema), 0644); err != nil {
		t.Fatalf("failed to write schema file: %v", err)
	}

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 tool, got %d", reg.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
