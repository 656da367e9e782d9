// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

// Package config provides the environment and file based configuration for saptune-schemagen
package config

import (
	"errors"

	env "github.com/caarlos0/env/v11"
)

const (
	// DefaultFileName is the config file looked up in the working directory
	DefaultFileName = "saptune-schemagen.yaml"
	// DefaultPattern matches the templates to expand
	DefaultPattern = "saptune*.template"
	// DefaultOutputDir is where generated schemas are written, relative to the working directory
	DefaultOutputDir = ".."
	// TemplateSuffix is stripped from a template's file name to get the generated file's name
	TemplateSuffix = ".template"
)

// ForceValue is the only value of FORCE that allows a run
const ForceValue = "1"

// ErrNotForced is returned when FORCE does not allow the run to proceed
var ErrNotForced = errors.New("variable FORCE not set to " + ForceValue)

// Versioned is a tiny struct used to grab the schema version of a config file
type Versioned struct {
	SchemaVersion string `json:"schema-version"`
}

// Env holds the settings read from the environment
type Env struct {
	// Force must be exactly "1" for any file to be written
	Force string `env:"FORCE"`
	// ConfigPath overrides the config file location
	ConfigPath string `env:"SAPTUNE_SCHEMAGEN_CONFIG"`
}

// LoadEnv reads Env from the process environment, or from environ when it is not nil
func LoadEnv(environ map[string]string) (Env, error) {
	var e Env
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Guard returns ErrNotForced unless FORCE is set to exactly "1"
func (e Env) Guard() error {
	if e.Force != ForceValue {
		return ErrNotForced
	}
	return nil
}
