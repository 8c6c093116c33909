package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kdlocpanda/vision/internal/doctor"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarning)
	mutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

// Success renders a green check line.
func Success(msg string) string {
	return successStyle.Render(SymbolSuccess) + " " + msg
}

// Failure renders a red cross line.
func Failure(msg string) string {
	return errorStyle.Render(SymbolFail) + " " + msg
}

// Warning renders a yellow warning line.
func Warning(msg string) string {
	return warnStyle.Render(SymbolWarn) + " " + msg
}

// Muted renders secondary detail text.
func Muted(msg string) string {
	return mutedStyle.Render(msg)
}

// Header renders a bold section header.
func Header(msg string) string {
	return headerStyle.Render(msg)
}

// RenderChecks formats doctor results as an indented report.
func RenderChecks(results []doctor.CheckResult) string {
	var b strings.Builder
	for _, r := range results {
		switch r.Status {
		case doctor.StatusPass:
			b.WriteString("  " + Success(r.Message) + "\n")
		case doctor.StatusWarn:
			b.WriteString("  " + Warning(r.Message) + "\n")
		default:
			b.WriteString("  " + Failure(r.Message) + "\n")
		}
		if r.Suggestion != "" && r.Status != doctor.StatusPass {
			for _, line := range strings.Split(r.Suggestion, "\n") {
				b.WriteString("    " + Muted(line) + "\n")
			}
		}
	}
	b.WriteString("\n" + doctor.Summary(results) + "\n")
	return b.String()
}

// KeyValue renders an aligned key/value block for human CLI output.
func KeyValue(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}

	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%-*s  %s\n", width+1, p[0]+":", p[1])
	}
	return b.String()
}
