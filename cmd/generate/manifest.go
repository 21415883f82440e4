package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docgen/internal/generate"
	"docgen/pkg"

	"gopkg.in/yaml.v3"
)

// Manifest lists the documents of one batch run.
type Manifest struct {
	Requests []ManifestItem `yaml:"requests" json:"requests" validate:"required,min=1,dive"`
}

type ManifestItem struct {
	Template string            `yaml:"template" json:"template" validate:"required"`
	Output   string            `yaml:"output" json:"output" validate:"required"`
	Metadata map[string]string `yaml:"metadata" json:"metadata"`
}

// LoadManifest reads a YAML or JSON manifest, chosen by file extension.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data, filepath.Ext(path))
}

func ParseManifest(data []byte, ext string) (Manifest, error) {
	var m Manifest
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return Manifest{}, fmt.Errorf("invalid JSON manifest: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Manifest{}, fmt.Errorf("invalid YAML manifest: %w", err)
		}
	}
	if err := pkg.Validate(m); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}
	return m, nil
}

func (m Manifest) GenerateRequests() []generate.Request {
	reqs := make([]generate.Request, len(m.Requests))
	for i, item := range m.Requests {
		reqs[i] = generate.Request{
			TemplateName: item.Template,
			Metadata:     item.Metadata,
			OutputName:   item.Output,
		}
	}
	return reqs
}
