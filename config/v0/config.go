// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

// Package v0 provides the schema for v0 of the saptune-schemagen config file
//
// v0 allows for breaking changes without a major version increase
package v0

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"
	"github.com/spf13/afero"
	"github.com/xeipuuv/gojsonschema"

	"github.com/SUSE/saptune-schemagen/config"
	"github.com/SUSE/saptune-schemagen/schema"
)

// SchemaVersion is the current schema version for configs
const SchemaVersion = "v0"

// Config is the config file for saptune-schemagen
type Config struct {
	SchemaVersion string             `json:"schema-version"`
	Pattern       string             `json:"pattern,omitempty"`
	OutputDir     string             `json:"output-dir,omitempty"`
	Indent        int                `json:"indent,omitempty" jsonschema:"minimum=0,maximum=8"`
	PrunePolicy   config.PrunePolicy `json:"prune-policy,omitempty"`
	MaxDepth      int                `json:"max-depth,omitempty" jsonschema:"minimum=1"`
}

// JSONSchemaExtend extends the JSON schema for a config
func (Config) JSONSchemaExtend(schema *jsonschema.Schema) {
	if schemaVersion, ok := schema.Properties.Get("schema-version"); ok && schemaVersion != nil {
		schemaVersion.Description = "Config schema version"
		schemaVersion.Enum = []any{SchemaVersion}
	}

	if pattern, ok := schema.Properties.Get("pattern"); ok && pattern != nil {
		pattern.Description = "Glob matching the templates to expand, relative to the working directory"
	}

	if outputDir, ok := schema.Properties.Get("output-dir"); ok && outputDir != nil {
		outputDir.Description = "Directory generated schemas are written to"
	}

	if indent, ok := schema.Properties.Get("indent"); ok && indent != nil {
		indent.Description = "Spaces per indentation level in generated schemas"
	}

	if maxDepth, ok := schema.Properties.Get("max-depth"); ok && maxDepth != nil {
		maxDepth.Description = "Longest reference chain followed before giving up"
	}
}

// Default returns a valid config with every setting at its default
func Default() *Config {
	return &Config{
		SchemaVersion: SchemaVersion,
		Pattern:       config.DefaultPattern,
		OutputDir:     config.DefaultOutputDir,
		Indent:        schema.DefaultIndent,
		PrunePolicy:   config.DefaultPrunePolicy,
		MaxDepth:      schema.DefaultMaxDepth,
	}
}

// LoadConfig reads a config from r, applying defaults for unset values
func LoadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var versioned config.Versioned
	if err := yaml.Unmarshal(data, &versioned); err != nil {
		return nil, err
	}

	switch version := versioned.SchemaVersion; version {
	case SchemaVersion:
		cfg := Default()
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		return cfg, Validate(cfg)
	default:
		return nil, fmt.Errorf("unsupported config schema version: expected %q, got %q", SchemaVersion, version)
	}
}

// LoadFile loads the config at name from fsys
//
// If required is false and the file does not exist, the default config is returned.
func LoadFile(fsys afero.Fs, name string, required bool) (*Config, error) {
	f, err := fsys.Open(name)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := LoadConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", name, err)
	}
	return cfg, nil
}

// Since every validation operation leverages the same schema, only calculate it once
var schemaOnce = sync.OnceValues(func() (string, error) {
	s := Schema()
	b, err := json.Marshal(s)
	return string(b), err
})

// Validate checks if a config adheres to the JSON schema
func Validate(cfg *Config) error {
	s, err := schemaOnce()
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(s), gojsonschema.NewGoLoader(cfg))
	if err != nil {
		return err
	}

	if result.Valid() {
		return nil
	}

	var resErr error
	for _, err := range result.Errors() {
		resErr = errors.Join(resErr, errors.New(err.String()))
	}
	return resErr
}

// Schema returns the JSON schema for the Config type
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&Config{})
}
