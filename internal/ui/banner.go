// Package ui renders the console chrome for the interactive mode.
package ui

import (
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
)

// TRIPAL ASCII art (filled block style).
var tripalArt = []string{
	"  ████████╗██████╗ ██╗██████╗  █████╗ ██╗     ",
	"  ╚══██╔══╝██╔══██╗██║██╔══██╗██╔══██╗██║     ",
	"     ██║   ██████╔╝██║██████╔╝███████║██║     ",
	"     ██║   ██╔══██╗██║██╔═══╝ ██╔══██║██║     ",
	"     ██║   ██║  ██║██║██║     ██║  ██║███████╗",
	"     ╚═╝   ╚═╝  ╚═╝╚═╝╚═╝     ╚═╝  ╚═╝╚══════╝",
}

// PrintBanner writes the banner with version and model info.
func PrintBanner(w io.Writer, version, model string) {
	_, _ = fmt.Fprintln(w)

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00A0B0")).
		Bold(true)
	for _, line := range tripalArt {
		_, _ = fmt.Fprintln(w, style.Render(line))
	}

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#808080")).
		Italic(true)
	_, _ = fmt.Fprintln(w, infoStyle.Render(
		fmt.Sprintf("  Version: %s | Model: %s", version, model)))
	_, _ = fmt.Fprintln(w)
}
