package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"capital-risk/internal/catalog"
	"capital-risk/internal/model"

	"gopkg.in/yaml.v3"
)

// ReferenceFile is a fixture catalog on disk, JSON or YAML by extension.
type ReferenceFile struct {
	UpdatedAt     string               `json:"updated_at" yaml:"updated_at"` // RFC3339
	BusinessUnits []model.BusinessUnit `json:"business_units" yaml:"business_units"`
}

// DefaultReference wraps the built-in catalog.
func DefaultReference() *ReferenceFile {
	return &ReferenceFile{
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339),
		BusinessUnits: catalog.Defaults(),
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadReferenceFile loads a catalog from a JSON or YAML file.
func LoadReferenceFile(path string) (*ReferenceFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}

	var ref ReferenceFile
	if isYAML(path) {
		err = yaml.Unmarshal(raw, &ref)
	} else {
		err = json.Unmarshal(raw, &ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference file: %w", err)
	}
	for i, u := range ref.BusinessUnits {
		if strings.TrimSpace(u.Name) == "" {
			return nil, fmt.Errorf("reference file: business unit %d has no name", i+1)
		}
	}
	return &ref, nil
}

// SaveReferenceFile writes ref to path, creating the directory if needed.
func SaveReferenceFile(ref *ReferenceFile, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var raw []byte
	var err error
	if isYAML(path) {
		raw, err = yaml.Marshal(ref)
	} else {
		raw, err = json.MarshalIndent(ref, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal reference data: %w", err)
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write reference file: %w", err)
	}
	return nil
}
