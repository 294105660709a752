package remediation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const maxOverrideFileSize = 1024 * 1024 // 1MB

// OverrideFile is the YAML root of a catalog override file.
type OverrideFile struct {
	Descriptors []Descriptor `yaml:"descriptors"`
}

// LoadOverrides reads descriptors from a YAML file.
func LoadOverrides(path string) ([]Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxOverrideFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	if len(data) > maxOverrideFileSize {
		return nil, fmt.Errorf("catalog file too large (max %d bytes)", maxOverrideFileSize)
	}

	return ParseOverrides(data)
}

// ParseOverrides decodes an override document, rejecting unknown keys.
func ParseOverrides(data []byte) ([]Descriptor, error) {
	var file OverrideFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	for _, d := range file.Descriptors {
		if err := validate(d); err != nil {
			return nil, err
		}
	}
	return file.Descriptors, nil
}

// Load returns the built-in catalog with the file at path applied. An empty
// path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	overrides, err := LoadOverrides(path)
	if err != nil {
		return nil, err
	}
	return base.WithOverrides(overrides)
}
