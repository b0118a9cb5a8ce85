package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/querykit/pkg/schema"
)

// catalogFile is the on-disk layout of an entity catalog
type catalogFile struct {
	Entities []*schema.Entity `yaml:"entities"`
}

// LoadCatalog reads and validates the entity catalog at path
func LoadCatalog(path string) (*schema.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes a YAML catalog. Unknown keys are rejected.
func ParseCatalog(data []byte) (*schema.Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(file.Entities) == 0 {
		return nil, fmt.Errorf("catalog declares no entities")
	}

	return schema.NewCatalog(file.Entities...)
}
