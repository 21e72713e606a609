package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hylla/skadi/internal/app"
	"github.com/hylla/skadi/internal/dnd"
	"github.com/hylla/skadi/internal/domain"
)

// Board geometry in terminal cells. Every card has a one-row slot above it where the insertion
// line is drawn, so the layout never shifts while a card is dragged.
const (
	headerRows     = 3
	cardHeight     = 4
	slotHeight     = cardHeight + 1
	columnGap      = 2
	minColumnWidth = 16
	maxColumnWidth = 36
	footerRows     = 2
)

// boardLayout maps board entities to screen cells. It is shared by every copy of the model so the
// drag session always sees the current terminal size.
type boardLayout struct {
	board  *app.Board
	width  int
	height int
}

func (l *boardLayout) resize(width, height int) {
	l.width = width
	l.height = height
}

func (l *boardLayout) columnWidth() int {
	n := len(l.board.Statuses())
	if n == 0 || l.width <= 0 {
		return 24
	}
	w := (l.width - (n-1)*columnGap) / n
	return clamp(w, minColumnWidth, maxColumnWidth)
}

func (l *boardLayout) columnX(idx int) int {
	return idx * (l.columnWidth() + columnGap)
}

// titleRow is the row holding column titles.
func (l *boardLayout) titleRow() int {
	return headerRows
}

// bodyTop is the first insertion slot row.
func (l *boardLayout) bodyTop() int {
	return headerRows + 1
}

func (l *boardLayout) bodyRows() int {
	if l.height <= 0 {
		return 4 * slotHeight
	}
	return max(slotHeight, l.height-l.bodyTop()-footerRows)
}

// columnAt returns the status column under x.
func (l *boardLayout) columnAt(x int) (int, domain.JobStatus, bool) {
	statuses := l.board.Statuses()
	w := l.columnWidth()
	for idx, status := range statuses {
		start := l.columnX(idx)
		if x >= start && x < start+w {
			return idx, status, true
		}
	}
	return 0, domain.JobStatus{}, false
}

func (l *boardLayout) cardRect(statusIdx, itemIdx int) dnd.Rect {
	return dnd.Rect{
		X: float64(l.columnX(statusIdx)),
		Y: float64(l.bodyTop() + 1 + itemIdx*slotHeight),
		W: float64(l.columnWidth()),
		H: cardHeight,
	}
}

// CardBoxes implements dnd.Layout.
func (l *boardLayout) CardBoxes(statusID string) []dnd.Rect {
	for si, status := range l.board.Statuses() {
		if status.ID != statusID {
			continue
		}
		items := l.board.ColumnItems(statusID)
		boxes := make([]dnd.Rect, 0, len(items))
		for ii := range items {
			boxes = append(boxes, l.cardRect(si, ii))
		}
		return boxes
	}
	return nil
}

// cardAt returns the card under the cell (x, y).
func (l *boardLayout) cardAt(x, y int) (statusIdx, itemIdx int, item domain.JobItem, ok bool) {
	si, status, ok := l.columnAt(x)
	if !ok {
		return 0, 0, domain.JobItem{}, false
	}
	p := dnd.Point{X: float64(x), Y: float64(y)}
	for ii, it := range l.board.ColumnItems(status.ID) {
		if l.cardRect(si, ii).Contains(p) {
			return si, ii, it, true
		}
	}
	return si, 0, domain.JobItem{}, false
}

// slotPoint returns a pointer position that resolves to insertion index in column statusIdx.
func (l *boardLayout) slotPoint(statusIdx, index int) dnd.Point {
	x := float64(l.columnX(statusIdx) + l.columnWidth()/2)
	return dnd.Point{X: x, Y: float64(l.bodyTop() + index*slotHeight)}
}

type boardStyles struct {
	accent lipgloss.Style
	title  lipgloss.Style
	muted  lipgloss.Style
	dim    lipgloss.Style
	border lipgloss.Style
	active lipgloss.Style
	ghost  lipgloss.Style
	marker lipgloss.Style
	errorS lipgloss.Style
}

func newBoardStyles() boardStyles {
	accent := lipgloss.Color("62")
	return boardStyles{
		accent: lipgloss.NewStyle().Foreground(accent),
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("239")),
		border: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		active: lipgloss.NewStyle().Foreground(accent).Bold(true),
		ghost:  lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("244")),
		marker: lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		errorS: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
}

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.viewContent())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

func (m Model) viewContent() string {
	switch {
	case m.err != nil:
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	case !m.ready:
		return "loading..."
	default:
		return m.renderScreen(newBoardStyles())
	}
}

func (m Model) renderScreen(styles boardStyles) string {
	header := m.renderHeader(styles)
	var body string
	if _, ok := m.board.List(); ok {
		body = m.renderBoard(styles)
	} else {
		body = strings.Join([]string{
			"No job lists yet.",
			"Press N to create one, p to pick a list, q to quit.",
		}, "\n")
	}
	footer := m.renderFooter(styles)

	content := header + "\n" + body
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(footer)))
	}
	screen := content + "\n" + footer
	if overlay := m.renderOverlay(styles); overlay != "" {
		screen = overlayOnContent(screen, overlay, m.width, m.height)
	}
	return screen
}

func (m Model) renderHeader(styles boardStyles) string {
	title := styles.title.Render("skadi")
	if list, ok := m.board.List(); ok {
		title += styles.muted.Render("  ·  ") + styles.accent.Render(list.Title)
	}
	if m.user != "" {
		title += styles.dim.Render("  (" + m.user + ")")
	}
	summary := fmt.Sprintf("%d jobs", len(m.board.Items()))
	switch {
	case m.keyboard != nil:
		summary += " • moving with keyboard: h/j/k/l choose slot • space drop • esc cancel"
	case m.session.State() != dnd.StateIdle:
		summary += " • dragging: release over a column to drop"
	default:
		summary += " • drag cards with the mouse or press space"
	}
	return strings.Join([]string{title, styles.muted.Render(summary), ""}, "\n")
}

func (m Model) renderBoard(styles boardStyles) string {
	statuses := m.board.Statuses()
	if len(statuses) == 0 {
		return "This list has no status columns."
	}
	width := m.layout.columnWidth()
	bodyRows := m.layout.bodyRows()
	indStatus, indIndex, indOK := m.session.Indicator()
	dragged := m.session.DraggedID()

	columns := make([][]string, 0, len(statuses))
	for si, status := range statuses {
		items := m.board.ColumnItems(status.ID)
		lines := make([]string, 0, 1+bodyRows)

		heading := padRight(truncate(fmt.Sprintf("%s (%d)", status.Title, len(items)), width), width)
		if si == m.selectedStatus {
			heading = styles.active.Render(heading)
		} else {
			heading = styles.title.Render(heading)
		}
		lines = append(lines, heading)

		for ii := 0; ii <= len(items); ii++ {
			if indOK && indStatus == status.ID && indIndex == ii {
				lines = append(lines, styles.marker.Render(strings.Repeat("━", width)))
			} else {
				lines = append(lines, strings.Repeat(" ", width))
			}
			if ii == len(items) {
				break
			}
			item := items[ii]
			selected := si == m.selectedStatus && ii == m.selectedItem
			lines = append(lines, renderCard(item, width, selected, item.ID == dragged, styles)...)
		}
		for len(lines) < 1+bodyRows {
			lines = append(lines, strings.Repeat(" ", width))
		}
		columns = append(columns, lines[:1+bodyRows])
	}

	gap := strings.Repeat(" ", columnGap)
	rows := make([]string, 0, 1+bodyRows)
	for r := 0; r < 1+bodyRows; r++ {
		parts := make([]string, 0, len(columns))
		for _, col := range columns {
			parts = append(parts, col[r])
		}
		rows = append(rows, strings.Join(parts, gap))
	}
	return strings.Join(rows, "\n")
}

// renderCard draws one card in exactly cardHeight rows of width cells. The card being dragged stays
// in place as a faint dashed ghost.
func renderCard(item domain.JobItem, width int, selected, ghost bool, styles boardStyles) []string {
	inner := max(1, width-2)
	h, v := "─", "│"
	tl, tr, bl, br := "╭", "╮", "╰", "╯"
	if ghost {
		h, v = "╌", "╎"
		tl, tr, bl, br = "┌", "┐", "└", "┘"
	}
	frame := styles.border
	text := lipgloss.NewStyle()
	switch {
	case ghost:
		frame, text = styles.ghost, styles.ghost
	case selected:
		frame, text = styles.accent, styles.title
	}
	company := item.Company
	if loc := strings.TrimSpace(item.Location); loc != "" {
		company += " · " + loc
	}
	return []string{
		frame.Render(tl + strings.Repeat(h, inner) + tr),
		frame.Render(v) + text.Render(padRight(truncate(item.Title, inner), inner)) + frame.Render(v),
		frame.Render(v) + styles.muted.Render(padRight(truncate(company, inner), inner)) + frame.Render(v),
		frame.Render(bl + strings.Repeat(h, inner) + br),
	}
}

func (m Model) renderFooter(styles boardStyles) string {
	status := strings.TrimSpace(m.status)
	statusLine := ""
	if status != "" && status != "ready" {
		if strings.Contains(status, "failed:") {
			statusLine = styles.errorS.Render(status)
		} else {
			statusLine = styles.dim.Render(status)
		}
	}
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	return statusLine + "\n" + styles.muted.Render(helpBubble.View(m.keys))
}

func padRight(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// fitLines pads or cuts content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		return overlay + "\n\n" + base
	}
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}
