package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the colours used in terminal output.
var palette = struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
}{
	Primary: lipgloss.Color("#7C3AED"),
	Accent:  lipgloss.Color("#06B6D4"),
	Muted:   lipgloss.Color("#6C7086"),
	Success: lipgloss.Color("#A6E3A1"),
	Warning: lipgloss.Color("#F9E2AF"),
}

type styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Score   lipgloss.Style
	Warning lipgloss.Style
	Body    lipgloss.Style
}

// newStyles builds styles for w. Colour is only emitted when w is a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		Title:   r.NewStyle().Bold(true).Foreground(palette.Primary),
		Label:   r.NewStyle().Foreground(palette.Accent),
		Muted:   r.NewStyle().Foreground(palette.Muted),
		Score:   r.NewStyle().Bold(true).Foreground(palette.Success),
		Warning: r.NewStyle().Foreground(palette.Warning),
		Body:    r.NewStyle().PaddingLeft(2),
	}
}
