package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	notesMinWidth = 24
	notesMaxWidth = 72
	noNotes       = "no notes yet • press e to add some"
)

// notesView renders a job's markdown notes for the details overlay. The last result is kept
// because View runs on every frame while the overlay is open.
type notesView struct {
	width    int
	renderer *glamour.TermRenderer

	lastNotes string
	lastOut   string
}

// render returns notes wrapped to width, or "" when there are none. Plain text comes back
// when glamour cannot render.
func (v *notesView) render(notes string, width int) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ""
	}
	width = min(notesMaxWidth, max(notesMinWidth, width))
	if v.renderer != nil && v.width == width && v.lastNotes == notes {
		return v.lastOut
	}
	if v.renderer == nil || v.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return notes
		}
		v.renderer = renderer
		v.width = width
	}
	out, err := v.renderer.Render(notes)
	if err != nil {
		return notes
	}
	v.lastNotes = notes
	v.lastOut = strings.Trim(out, "\n")
	return v.lastOut
}
