// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

package schemagen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SUSE/saptune-schemagen/config"
	"github.com/SUSE/saptune-schemagen/schema"
)

const noteTemplate = `{{- define "id" }}{"type": "string", "pattern": "^[0-9]+$"}{{ end -}}
{
    "$schema": "https://json-schema.org/draft/2020-12/schema",
    "title": "saptune note",
    "type": "object",
    "properties": {
        "id": {"$ref": "#/$defs/noteID"},
        "version": {"$ref": "#/$defs/version"}
    },
    "$defs": {
        "noteID": {{ template "id" }},
        "version": {"$ref": "#/$defs/versionString"},
        "versionString": {"type": "string", "minLength": 1}
    }
}
`

const noteExpected = `{
    "$schema": "https://json-schema.org/draft/2020-12/schema",
    "title": "saptune note",
    "type": "object",
    "properties": {
        "id": {
            "type": "string",
            "pattern": "^[0-9]+$"
        },
        "version": {
            "type": "string",
            "minLength": 1
        }
    }
}
`

// workspace creates <tmp>/templates with the given files and changes into it
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "templates")
	require.NoError(t, os.Mkdir(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	t.Chdir(dir)
	return root
}

func TestDestination(t *testing.T) {
	g := New(afero.NewMemMapFs())
	assert.Equal(t, "../saptune-note", g.Destination("saptune-note.template"))
	// only the literal suffix is removed
	assert.Equal(t, "../saptune-solution.json", g.Destination("saptune-solution.json.template"))
	assert.Equal(t, "../saptune-templated", g.Destination("saptune-templated"))
	assert.Equal(t, "../saptune-x.template", g.Destination("saptune-x.template.template"))

	g = New(afero.NewMemMapFs(), WithOutputDir("out"))
	assert.Equal(t, filepath.Join("out", "saptune-note"), g.Destination("saptune-note.template"))
}

func TestDiscover(t *testing.T) {
	workspace(t, map[string]string{
		"saptune-z.template":    "{}",
		"saptune-a.template":    "{}",
		"saptune-m.template":    "{}",
		"other.template":        "{}",
		"saptune-a.template.bk": "{}",
	})

	names, err := New(afero.NewOsFs()).Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"saptune-a.template", "saptune-m.template", "saptune-z.template"}, names)

	names, err = New(afero.NewOsFs(), WithPattern("*.template")).Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"other.template", "saptune-a.template", "saptune-m.template", "saptune-z.template"}, names)

	_, err = New(afero.NewOsFs(), WithPattern("[")).Discover()
	require.ErrorContains(t, err, `invalid pattern "["`)
}

func TestRun(t *testing.T) {
	root := workspace(t, map[string]string{
		"saptune-note.template": noteTemplate,
	})

	var stdout, stderr bytes.Buffer
	g := New(afero.NewOsFs(), WithOutput(&stdout, &stderr))

	report, err := g.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())
	require.Len(t, report.Results, 1)

	b, err := os.ReadFile(filepath.Join(root, "saptune-note"))
	require.NoError(t, err)
	assert.Equal(t, noteExpected, string(b))
	assert.NotContains(t, string(b), schema.DefsKey)
	assert.NotContains(t, string(b), schema.RefKey)

	assert.Equal(t, "[ OK ] \"saptune-note.template\" -> \"../saptune-note\"\n", ansi.Strip(stdout.String()))
	assert.Empty(t, stderr.String())

	// running again produces identical output
	report, err = g.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())
	again, err := os.ReadFile(filepath.Join(root, "saptune-note"))
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestRunOverwrites(t *testing.T) {
	root := workspace(t, map[string]string{
		"saptune-note.template": noteTemplate,
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "saptune-note"), []byte(strings.Repeat("stale ", 1000)), 0o644))

	report, err := New(afero.NewOsFs(), WithOutput(&bytes.Buffer{}, &bytes.Buffer{})).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())

	b, err := os.ReadFile(filepath.Join(root, "saptune-note"))
	require.NoError(t, err)
	assert.Equal(t, noteExpected, string(b))
}

func TestRunIsolatesFailures(t *testing.T) {
	root := workspace(t, map[string]string{
		"saptune-a.template":       noteTemplate,
		"saptune-b.template":       `{"broken": }`,
		"saptune-c.template":       `{"a": {"$ref": "#/$defs/x"}, "$defs": {"x": {"$ref": "#/$defs/y"}, "y": {"$ref": "#/$defs/x"}}}`,
		"saptune-d.template":       `{"type": "string"}`,
		"saptune-e.template":       `{"a": {{ .nothing }}}`,
		"saptune-f.template":       `{"a": {"$ref": "#/$defs/missing"}, "$defs": {}}`,
		"saptune-g.template":       `{"$defs": {}, "title": "last"}`,
		"saptune-ignored.template~": `{}`,
	})

	var stdout, stderr bytes.Buffer
	report, err := New(afero.NewOsFs(), WithOutput(&stdout, &stderr)).Run(context.Background())
	require.NoError(t, err)

	var failed *FailedError
	require.ErrorAs(t, report.Err(), &failed)
	assert.Equal(t, 5, failed.Failed)
	assert.Equal(t, 7, failed.Total)
	assert.EqualError(t, report.Err(), "5 of 7 templates failed")

	for _, name := range []string{"saptune-a", "saptune-g"} {
		assert.FileExists(t, filepath.Join(root, name))
	}
	for _, name := range []string{"saptune-b", "saptune-c", "saptune-d", "saptune-e", "saptune-f"} {
		assert.NoFileExists(t, filepath.Join(root, name))
	}

	out := ansi.Strip(stdout.String())
	assert.Equal(t, "[ OK ] \"saptune-a.template\" -> \"../saptune-a\"\n[ OK ] \"saptune-g.template\" -> \"../saptune-g\"\n", out)

	lines := strings.Split(strings.TrimSpace(ansi.Strip(stderr.String())), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], `[FAIL] "saptune-b.template": invalid JSON`)
	assert.Contains(t, lines[1], `[FAIL] "saptune-c.template": reference cycle`)
	assert.Contains(t, lines[2], `[FAIL] "saptune-d.template": missing key "$defs"`)
	assert.Contains(t, lines[3], `[FAIL] "saptune-e.template": template:`)
	assert.Contains(t, lines[4], `[FAIL] "saptune-f.template": "#/$defs/missing": dangling reference`)
}

func TestRunUnusedDefinitions(t *testing.T) {
	root := workspace(t, map[string]string{
		"saptune-tree.template": `{"pattern": "^<[a-z]+>$", "$defs": {"tree": {"properties": {"kids": {"$ref": "#/$defs/tree"}}}}}`,
	})

	report, err := New(afero.NewOsFs(), WithOutput(&bytes.Buffer{}, &bytes.Buffer{})).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())

	b, err := os.ReadFile(filepath.Join(root, "saptune-tree"))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"pattern\": \"^<[a-z]+>$\"\n}\n", string(b))
}

func TestRunLenient(t *testing.T) {
	root := workspace(t, map[string]string{
		"saptune-plain.template": `{"type": "string"}`,
	})

	report, err := New(afero.NewOsFs(),
		WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
		WithPrunePolicy(config.PrunePolicyLenient),
		WithIndent(2),
	).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())

	b, err := os.ReadFile(filepath.Join(root, "saptune-plain"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"type\": \"string\"\n}\n", string(b))
}

func TestRunMaxDepth(t *testing.T) {
	workspace(t, map[string]string{
		"saptune-deep.template": `{"a": {"$ref": "#/$defs/one"}, "$defs": {"one": {"$ref": "#/$defs/two"}, "two": {}}}`,
	})

	var stderr bytes.Buffer
	report, err := New(afero.NewOsFs(), WithOutput(&bytes.Buffer{}, &stderr), WithMaxDepth(1)).Run(context.Background())
	require.NoError(t, err)
	require.Error(t, report.Err())
	assert.Contains(t, stderr.String(), "maximum reference depth exceeded")
}

func TestRunDry(t *testing.T) {
	t.Setenv("NO_COLOR", "true")
	root := workspace(t, map[string]string{
		"saptune-note.template": noteTemplate,
	})

	var stdout bytes.Buffer
	report, err := New(afero.NewOsFs(), WithOutput(&stdout, &bytes.Buffer{}), WithDryRun(true)).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.NoFileExists(t, filepath.Join(root, "saptune-note"))
	assert.Equal(t, noteExpected+"[ OK ] \"saptune-note.template\" -> \"../saptune-note\" (dry run)\n", stdout.String())
}

func TestRunNoTemplates(t *testing.T) {
	workspace(t, nil)

	var stdout, stderr bytes.Buffer
	report, err := New(afero.NewOsFs(), WithOutput(&stdout, &stderr)).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Empty(t, report.Results)
	assert.Empty(t, stdout.String())
}

func TestRunCancelled(t *testing.T) {
	root := workspace(t, map[string]string{
		"saptune-a.template": noteTemplate,
		"saptune-b.template": noteTemplate,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stderr bytes.Buffer
	report, err := New(afero.NewOsFs(), WithOutput(&bytes.Buffer{}, &stderr)).Run(ctx)
	require.NoError(t, err)
	assert.EqualError(t, report.Err(), "2 of 2 templates failed")
	assert.Contains(t, stderr.String(), "context canceled")
	assert.NoFileExists(t, filepath.Join(root, "saptune-a"))
}

func TestRunMissingOutputDir(t *testing.T) {
	workspace(t, map[string]string{
		"saptune-note.template": noteTemplate,
	})

	var stderr bytes.Buffer
	report, err := New(afero.NewOsFs(), WithOutput(&bytes.Buffer{}, &stderr), WithOutputDir("does/not/exist")).Run(context.Background())
	require.NoError(t, err)
	require.Error(t, report.Err())
	assert.Contains(t, ansi.Strip(stderr.String()), `[FAIL] "saptune-note.template": open does/not/exist/saptune-note`)
}
