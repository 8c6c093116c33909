package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Semantic colors for status indication, ANSI codes for broad terminal
// compatibility.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// DisableColor forces plain output. Used for --json mode and pipes.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// AutoColor disables styling when stdout is not a terminal.
func AutoColor() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		DisableColor()
	}
}
