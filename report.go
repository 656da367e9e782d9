// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

package schemagen

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Result is the outcome of generating a single template
type Result struct {
	Source string
	Dest   string
	Err    error
}

// Report collects the results of a run
type Report struct {
	Results []Result
}

// Failed returns the results that carry an error
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err returns a *FailedError if any template failed, nil otherwise
func (r *Report) Err() error {
	if failed := len(r.Failed()); failed > 0 {
		return &FailedError{Failed: failed, Total: len(r.Results)}
	}
	return nil
}

// FailedError reports that a run completed but some templates could not be generated
type FailedError struct {
	Failed int
	Total  int
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("%d of %d templates failed", e.Failed, e.Total)
}

var (
	okColor   = lipgloss.Color("2")
	failColor = lipgloss.Color("1")
)

func tag(w io.Writer, text string, color lipgloss.TerminalColor) string {
	if termenv.EnvNoColor() {
		return text
	}
	return lipgloss.NewRenderer(w).NewStyle().Foreground(color).Render(text)
}

// Print writes the result's OK line to stdout or its FAIL line to stderr
func (r Result) Print(stdout, stderr io.Writer, dry bool) {
	if r.Err != nil {
		fmt.Fprintf(stderr, "[%s] %q: %v\n", tag(stderr, "FAIL", failColor), r.Source, r.Err)
		return
	}

	suffix := ""
	if dry {
		suffix = " (dry run)"
	}
	fmt.Fprintf(stdout, "[%s] %q -> %q%s\n", tag(stdout, " OK ", okColor), r.Source, r.Dest, suffix)
}
