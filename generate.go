// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

// Package schemagen expands JSON-Schema templates into standalone, reference free JSON-Schema documents
package schemagen

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/SUSE/saptune-schemagen/config"
	"github.com/SUSE/saptune-schemagen/schema"
)

// Generator expands every template matching a pattern into a resolved JSON-Schema document
type Generator struct {
	fs        afero.Fs
	renderer  *Renderer
	pattern   string
	outputDir string
	indent    int
	prune     config.PrunePolicy
	maxDepth  int
	dry       bool
	stdout    io.Writer
	stderr    io.Writer
}

// Option configures a Generator
type Option func(*Generator)

// WithPattern sets the glob used to discover templates
func WithPattern(pattern string) Option {
	return func(g *Generator) {
		g.pattern = pattern
	}
}

// WithOutputDir sets the directory generated schemas are written to
func WithOutputDir(dir string) Option {
	return func(g *Generator) {
		g.outputDir = dir
	}
}

// WithIndent sets the number of spaces per indentation level
func WithIndent(n int) Option {
	return func(g *Generator) {
		g.indent = n
	}
}

// WithPrunePolicy sets how a missing $defs block is treated
func WithPrunePolicy(p config.PrunePolicy) Option {
	return func(g *Generator) {
		g.prune = p
	}
}

// WithMaxDepth sets the longest reference chain that is followed
func WithMaxDepth(n int) Option {
	return func(g *Generator) {
		g.maxDepth = n
	}
}

// WithDryRun prints generated schemas instead of writing them
func WithDryRun(dry bool) Option {
	return func(g *Generator) {
		g.dry = dry
	}
}

// WithOutput sets where OK and FAIL lines (and dry run output) are printed
func WithOutput(stdout, stderr io.Writer) Option {
	return func(g *Generator) {
		g.stdout = stdout
		g.stderr = stderr
	}
}

// New creates a Generator working on fsys
//
// fsys is rooted at the working directory: templates are discovered and
// included relative to it, and the output directory is resolved against it.
func New(fsys afero.Fs, opts ...Option) *Generator {
	g := &Generator{
		fs:        fsys,
		renderer:  NewRenderer(fsys),
		pattern:   config.DefaultPattern,
		outputDir: config.DefaultOutputDir,
		indent:    schema.DefaultIndent,
		prune:     config.DefaultPrunePolicy,
		maxDepth:  schema.DefaultMaxDepth,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Discover lists the templates matching the generator's pattern in lexical order
func (g *Generator) Discover() ([]string, error) {
	matches, err := afero.Glob(g.fs, g.pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", g.pattern, err)
	}
	slices.Sort(matches)
	return matches, nil
}

// Destination returns where the schema generated from the template called name is written
//
// saptune-note.template becomes ../saptune-note with the default output directory.
func (g *Generator) Destination(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), config.TemplateSuffix)
	return filepath.Join(g.outputDir, base)
}

// Generate renders, resolves, prunes and writes a single template, returning the destination path
func (g *Generator) Generate(ctx context.Context, name string) (string, error) {
	logger := log.FromContext(ctx)
	dest := g.Destination(name)

	text, err := g.renderer.Render(name)
	if err != nil {
		return dest, err
	}
	logger.Debug("rendered", "template", name, "bytes", len(text))

	doc, err := schema.Load([]byte(text), schema.WithMaxDepth(g.maxDepth))
	if err != nil {
		return dest, err
	}
	logger.Debug("resolved", "template", name)

	out := doc.Copy()
	if err := schema.Prune(out, g.prune.Strict()); err != nil {
		return dest, err
	}

	b, err := schema.Marshal(out, g.indent)
	if err != nil {
		return dest, err
	}

	if g.dry {
		logger.Debug("dry run, not writing", "destination", dest)
		printSchema(g.stdout, b)
		return dest, nil
	}

	if err := afero.WriteFile(g.fs, dest, b, 0o644); err != nil {
		return dest, err
	}
	logger.Debug("wrote", "destination", dest, "bytes", len(b))

	return dest, nil
}

// Run generates every discovered template
//
// A failing template never stops the others from being attempted; the
// returned Report holds each template's outcome. The error is only set when
// discovery itself fails.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	logger := log.FromContext(ctx)

	names, err := g.Discover()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		logger.Warn("no templates found", "pattern", g.pattern)
	}

	report := &Report{}
	for _, name := range names {
		res := Result{Source: name}
		if err := ctx.Err(); err != nil {
			res.Err = err
		} else {
			res.Dest, res.Err = g.Generate(ctx, name)
		}
		report.Results = append(report.Results, res)
		res.Print(g.stdout, g.stderr, g.dry)
	}

	return report, nil
}
