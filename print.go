// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

package schemagen

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// printSchema writes a generated schema to w, highlighted unless NO_COLOR is set
func printSchema(w io.Writer, b []byte) {
	if termenv.EnvNoColor() {
		_, _ = w.Write(b)
		return
	}

	style := "tokyonight-day"
	if lipgloss.HasDarkBackground() {
		style = "tokyonight-moon"
	}

	var buf strings.Builder
	if err := quick.Highlight(&buf, string(b), "json", "terminal256", style); err != nil {
		_, _ = w.Write(b)
		return
	}

	_, _ = io.WriteString(w, buf.String())
}
