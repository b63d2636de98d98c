package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSchemaFile reads a standalone attribute-schema YAML file. Pipelines
// that export graphs with non-default attribute names ship one of these
// next to their data instead of a full config.
func LoadSchemaFile(path string) (*SchemaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := Default().Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
