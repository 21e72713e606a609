package tui

import (
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/hylla/skadi/internal/dnd"
)

// pressState is a mouse press on a card that has not turned into a drag yet.
type pressState struct {
	itemID string
	x      int
	y      int
}

// keyboardDrag is the slot a card picked up with the keyboard is aimed at.
type keyboardDrag struct {
	status int
	index  int
}

func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.keyboard != nil {
		return m, nil
	}
	if msg.Button != tea.MouseLeft {
		return m, nil
	}
	if m.session.State() != dnd.StateIdle {
		m.session.OnDragCancel()
	}
	m.press = nil
	si, ii, item, ok := m.layout.cardAt(msg.X, msg.Y)
	if !ok {
		if col, _, inColumn := m.layout.columnAt(msg.X); inColumn && msg.Y >= m.layout.titleRow() {
			m.selectedStatus = col
			m.clampSelections()
		}
		return m, nil
	}
	m.selectedStatus = si
	m.selectedItem = ii
	m.press = &pressState{itemID: item.ID, x: msg.X, y: msg.Y}
	return m, nil
}

func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.press == nil {
		return m, nil
	}
	if m.session.State() == dnd.StateIdle {
		if msg.X == m.press.x && msg.Y == m.press.y {
			return m, nil
		}
		if !m.session.OnDragStart(m.press.itemID) {
			m.press = nil
			return m, nil
		}
	}
	m.hover(msg.X, msg.Y)
	return m, nil
}

func (m *Model) hover(x, y int) {
	if _, status, ok := m.layout.columnAt(x); ok {
		m.session.OnDragOverTarget(status.ID, dnd.Point{X: float64(x), Y: float64(y)})
		return
	}
	m.session.OnDragLeave()
}

func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.press == nil {
		return m, nil
	}
	m.press = nil
	if m.session.State() == dnd.StateIdle {
		return m, nil
	}
	_, status, ok := m.layout.columnAt(msg.X)
	if !ok {
		m.session.OnDragCancel()
		cmd := m.setStatus("drop cancelled")
		return m, cmd
	}
	return m.drop(status.ID, dnd.Point{X: float64(msg.X), Y: float64(msg.Y)})
}

func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.session.State() != dnd.StateIdle {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		if m.selectedItem > 0 {
			m.selectedItem--
		}
	case tea.MouseWheelDown:
		if m.selectedItem < len(m.currentColumnItems())-1 {
			m.selectedItem++
		}
	}
	return m, nil
}

// drop ends the active gesture over statusID. The card moves on screen immediately; the returned
// command persists it and reports back with moveResultMsg.
func (m Model) drop(statusID string, p dnd.Point) (tea.Model, tea.Cmd) {
	commit, err := m.session.Drop(statusID, p)
	if err != nil {
		cmd := m.reportError("move", err)
		return m, cmd
	}
	if commit == nil {
		return m, nil
	}
	m.focusItemByID(commit.ItemID())
	ctx := m.ctx
	return m, m.writes.track(func() tea.Msg {
		return moveResultMsg{itemID: commit.ItemID(), err: commit.Run(ctx)}
	})
}

func (m Model) startKeyboardDrag() (tea.Model, tea.Cmd) {
	item, ok := m.selectedJob()
	if !ok {
		return m, nil
	}
	if !m.session.OnDragStart(item.ID) {
		return m, nil
	}
	m.press = nil
	m.keyboard = &keyboardDrag{status: m.selectedStatus, index: m.selectedItem}
	m.aimKeyboardDrag()
	return m, nil
}

func (m *Model) aimKeyboardDrag() {
	statuses := m.board.Statuses()
	if m.keyboard == nil || len(statuses) == 0 {
		return
	}
	m.keyboard.status = clamp(m.keyboard.status, 0, len(statuses)-1)
	status := statuses[m.keyboard.status]
	m.keyboard.index = clamp(m.keyboard.index, 0, len(m.board.ColumnItems(status.ID)))
	m.session.OnDragOverTarget(status.ID, m.layout.slotPoint(m.keyboard.status, m.keyboard.index))
}

func (m Model) handleKeyboardDragKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel), msg.String() == "ctrl+c", msg.String() == "q":
		m.session.OnDragCancel()
		m.keyboard = nil
		cmd := m.setStatus("move cancelled")
		return m, cmd
	case key.Matches(msg, m.keys.moveLeft):
		if m.keyboard.status > 0 {
			m.keyboard.status--
		}
	case key.Matches(msg, m.keys.moveRight):
		m.keyboard.status++
	case key.Matches(msg, m.keys.moveUp):
		if m.keyboard.index > 0 {
			m.keyboard.index--
		}
	case key.Matches(msg, m.keys.moveDown):
		m.keyboard.index++
	case key.Matches(msg, m.keys.grab), msg.String() == "enter":
		statuses := m.board.Statuses()
		if m.keyboard.status >= len(statuses) {
			m.session.OnDragCancel()
			m.keyboard = nil
			return m, nil
		}
		status := statuses[m.keyboard.status]
		p := m.layout.slotPoint(m.keyboard.status, m.keyboard.index)
		m.keyboard = nil
		return m.drop(status.ID, p)
	default:
		return m, nil
	}
	m.aimKeyboardDrag()
	return m, nil
}
