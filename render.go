// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

package schemagen

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/afero"
)

// MaxIncludeDepth limits how deeply templates may include each other
const MaxIncludeDepth = 32

// Renderer expands templates read from a filesystem
//
// The filesystem root is the template search root: template names and
// include paths are relative to it.
type Renderer struct {
	fs afero.Fs
}

// NewRenderer creates a Renderer reading templates from fsys
func NewRenderer(fsys afero.Fs) *Renderer {
	return &Renderer{fs: fsys}
}

// Render expands the template called name with an empty data context
func (r *Renderer) Render(name string) (string, error) {
	return r.render(name, nil)
}

func (r *Renderer) render(name string, stack []string) (string, error) {
	name = filepath.Clean(name)

	if len(stack) >= MaxIncludeDepth {
		return "", fmt.Errorf("include depth %d exceeded: %s", MaxIncludeDepth, strings.Join(append(stack, name), " -> "))
	}

	b, err := afero.ReadFile(r.fs, name)
	if err != nil {
		if len(stack) > 0 {
			return "", fmt.Errorf("include %q from %q: %w", name, stack[len(stack)-1], err)
		}
		return "", err
	}

	stack = append(stack, name)

	tmpl, err := template.New(name).
		Funcs(r.funcs(stack)).
		Option("missingkey=error").
		Parse(string(b))
	if err != nil {
		return "", err
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, map[string]any{}); err != nil {
		return "", err
	}

	return result.String(), nil
}

func (r *Renderer) funcs(stack []string) template.FuncMap {
	fm := sprig.TxtFuncMap()

	// templates only see what is in the filesystem, never the caller's environment
	delete(fm, "env")
	delete(fm, "expandenv")

	fm["include"] = func(name string) (string, error) {
		return r.render(name, stack)
	}

	return fm
}
