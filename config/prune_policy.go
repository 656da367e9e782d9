// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

package config

import (
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/pflag"
)

// PrunePolicy defines how a missing $defs block is treated when pruning a resolved schema
type PrunePolicy string

var _ pflag.Value = (*PrunePolicy)(nil)

const (
	// PrunePolicyStrict fails the template when there is no $defs block to remove
	PrunePolicyStrict PrunePolicy = "strict"
	// PrunePolicyLenient treats a missing $defs block as nothing to do
	PrunePolicyLenient PrunePolicy = "lenient"
	// DefaultPrunePolicy is the default prune policy used when none is specified
	DefaultPrunePolicy PrunePolicy = PrunePolicyStrict
)

// AvailablePrunePolicies returns a list of available prune policies
func AvailablePrunePolicies() []string {
	return []string{
		string(PrunePolicyStrict),
		string(PrunePolicyLenient),
	}
}

// Strict reports whether a missing $defs block is an error
func (p PrunePolicy) Strict() bool {
	return p != PrunePolicyLenient
}

// String implements the pflag.Value and fmt.Stringer interfaces
func (p *PrunePolicy) String() string {
	return string(*p)
}

// Set implements the pflag.Value interface
func (p *PrunePolicy) Set(value string) error {
	switch value {
	case string(PrunePolicyStrict):
		*p = PrunePolicyStrict
	case string(PrunePolicyLenient):
		*p = PrunePolicyLenient
	default:
		return fmt.Errorf("invalid prune policy: %s", value)
	}
	return nil
}

// Type implements the pflag.Value interface
func (p *PrunePolicy) Type() string {
	return "string"
}

// JSONSchemaExtend extends the JSON schema for PrunePolicy
func (PrunePolicy) JSONSchemaExtend(schema *jsonschema.Schema) {
	schema.Type = "string"
	all := []any{}
	for _, pp := range AvailablePrunePolicies() {
		all = append(all, pp)
	}
	schema.Enum = all
	schema.Description = "How a missing $defs block is treated after references are resolved"
}
