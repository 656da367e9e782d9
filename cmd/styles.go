// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

package cmd

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// DefaultStyles returns the default styles.
//
// Levels use the basic ANSI palette so they match the OK and FAIL tags.
func DefaultStyles() *log.Styles {
	styles := log.DefaultStyles()

	levels := map[log.Level]struct {
		name  string
		color lipgloss.Color
	}{
		log.DebugLevel: {"DEBUG", "4"}, // blue
		log.InfoLevel:  {"INFO", "6"},  // cyan
		log.WarnLevel:  {"WARN", "3"},  // yellow
		log.ErrorLevel: {"ERROR", "1"}, // red
		log.FatalLevel: {"FATAL", "5"}, // magenta
	}

	for level, l := range levels {
		styles.Levels[level] = lipgloss.NewStyle().
			SetString(l.name).
			Bold(true).
			Foreground(l.color)
	}

	return styles
}
