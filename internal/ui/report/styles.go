package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type Styles struct {
	Banner  lipgloss.Style
	Title   lipgloss.Style
	File    lipgloss.Style
	Import  lipgloss.Style
	Symbol  lipgloss.Style
	Muted   lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
}

// NewStyles builds the palette for w. mode is "auto", "always" or "never";
// auto enables color only when w is a terminal.
func NewStyles(w io.Writer, mode string) Styles {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case "never":
		r.SetColorProfile(termenv.Ascii)
	case "always":
		r.SetColorProfile(termenv.ANSI256)
	}

	return Styles{
		Banner:  r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		Title:   r.NewStyle().Bold(true),
		File:    r.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true),
		Import:  r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		Symbol:  r.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("#64748B")),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true),
		Error:   r.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
		Success: r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
	}
}

// PlainStyles renders without any escape sequences.
func PlainStyles(w io.Writer) Styles {
	return NewStyles(w, "never")
}
