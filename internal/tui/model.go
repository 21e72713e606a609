// Package tui renders a job list as a kanban board and turns mouse and keyboard gestures into
// drag sessions against it.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/hylla/skadi/internal/app"
	"github.com/hylla/skadi/internal/dnd"
	"github.com/hylla/skadi/internal/domain"
)

// statusTTL is how long a transient status line stays up.
var statusTTL = 4 * time.Second

// inputMode represents a selectable mode.
type inputMode int

const (
	modeNone inputMode = iota
	modeItemForm
	modeListForm
	modeListPicker
	modeItemInfo
	modeConfirm
)

// confirmAction is a destructive action waiting for y/n.
type confirmAction struct {
	kind  string
	id    string
	label string
}

// Model is the bubbletea model for the board.
type Model struct {
	ctx   context.Context
	deps  app.Deps
	svc   *app.Service
	board *app.Board

	rebalancer *app.Rebalancer
	writes     *writeTracker
	layout     *boardLayout
	session    *dnd.Session
	notes      *notesView

	defaultStatuses []string
	rebalanceDelay  time.Duration
	copyToClipboard func(string) error

	ready  bool
	width  int
	height int
	err    error

	status    string
	statusSeq int

	help help.Model
	keys keyMap

	user           string
	lists          []domain.JobList
	pendingListID  string
	selectedStatus int
	selectedItem   int

	mode       inputMode
	pickerIdx  int
	confirm    confirmAction
	editItemID string
	formInputs []textinput.Model
	formFocus  int
	formError  string
	listInput  textinput.Model

	press    *pressState
	keyboard *keyboardDrag
}

type listsLoadedMsg struct {
	lists    []domain.JobList
	selectID string
	err      error
}

type boardLoadedMsg struct {
	listID string
	err    error
}

type boardChangedMsg struct{}

type actionMsg struct {
	status     string
	err        error
	reloadList bool
	selectList string
	focusItem  string
}

type moveResultMsg struct {
	itemID string
	err    error
}

type clearStatusMsg struct {
	seq int
}

// NewModel constructs the board UI over deps. deps.Store is required.
func NewModel(deps app.Deps, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		ctx:             context.Background(),
		deps:            deps,
		notes:           &notesView{},
		writes:          newWriteTracker(),
		rebalanceDelay:  app.DefaultRebalanceDelay,
		copyToClipboard: systemClipboard,
		status:          "loading...",
		help:            h,
		keys:            newKeyMap(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.svc = app.NewService(deps, app.ServiceConfig{DefaultStatuses: m.defaultStatuses})
	m.board = app.NewBoard(deps)
	m.rebalancer = app.NewRebalancer(m.board, deps, m.rebalanceDelay)
	m.layout = &boardLayout{board: m.board}
	m.session = dnd.NewSession(m.board, m.layout, m.rebalancer)
	return m
}

// Wait blocks until store writes started by the board and any rebalances they scheduled have
// finished. Call it after the program exits.
func (m Model) Wait() {
	m.writes.wait()
	m.rebalancer.Wait()
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadLists(m.pendingListID), m.waitForChange())
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.layout.resize(msg.Width, msg.Height)
		return m, nil

	case listsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.lists = msg.lists
		m.user = m.currentUserName()
		if len(m.lists) == 0 {
			m.board.Reset()
			if m.mode == modeNone {
				statusCmd := m.setStatus("create your first job list")
				formCmd := m.startListForm()
				return m, tea.Batch(statusCmd, formCmd)
			}
			return m, nil
		}
		target := m.lists[0].ID
		for _, list := range m.lists {
			if list.ID == msg.selectID {
				target = list.ID
				break
			}
		}
		if current, ok := m.board.List(); ok && msg.selectID == "" {
			for _, list := range m.lists {
				if list.ID == current.ID {
					target = current.ID
					break
				}
			}
		}
		return m, m.loadBoard(target)

	case boardLoadedMsg:
		if msg.err != nil {
			cmd := m.reportError("load board", msg.err)
			return m, cmd
		}
		m.err = nil
		m.clampSelections()
		if m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case boardChangedMsg:
		m.clampSelections()
		return m, m.waitForChange()

	case actionMsg:
		if msg.err != nil {
			cmd := m.reportError(msg.status, msg.err)
			return m, cmd
		}
		if msg.focusItem != "" {
			m.focusItemByID(msg.focusItem)
		}
		var cmds []tea.Cmd
		if msg.status != "" {
			cmds = append(cmds, m.setStatus(msg.status))
		}
		if msg.reloadList {
			cmds = append(cmds, m.loadLists(msg.selectList))
		}
		return m, tea.Batch(cmds...)

	case moveResultMsg:
		if msg.err != nil {
			cmd := m.reportError("move", msg.err)
			return m, cmd
		}
		m.focusItemByID(msg.itemID)
		return m, nil

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		if m.mode == modeItemForm || m.mode == modeListForm {
			return m.updateFocusedInput(msg)
		}
		return m, nil
	}
}

func (m Model) loadLists(selectID string) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		lists, err := svc.ListJobLists(ctx)
		return listsLoadedMsg{lists: lists, selectID: selectID, err: err}
	}
}

func (m Model) loadBoard(listID string) tea.Cmd {
	board, ctx := m.board, m.ctx
	return func() tea.Msg {
		return boardLoadedMsg{listID: listID, err: board.Load(ctx, listID)}
	}
}

// waitForChange blocks until the board signals a mutation made outside Update, e.g. a rebalance.
func (m Model) waitForChange() tea.Cmd {
	changes := m.board.Changes()
	return func() tea.Msg {
		<-changes
		return boardChangedMsg{}
	}
}

func (m *Model) setStatus(status string) tea.Cmd {
	m.statusSeq++
	m.status = status
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// reportError shows a store failure on the status line. Stale references are dropped silently.
func (m *Model) reportError(op string, err error) tea.Cmd {
	if errors.Is(err, app.ErrStaleReference) {
		return nil
	}
	if m.deps.Logger != nil {
		m.deps.Logger.Warn("tui action failed", "op", op, "err", err)
	}
	if op == "" {
		op = "error"
	}
	return m.setStatus(fmt.Sprintf("%s failed: %v", op, err))
}

func (m Model) currentUserName() string {
	if m.deps.Identity == nil {
		return ""
	}
	user, err := m.deps.Identity.CurrentUser(m.ctx)
	if err != nil {
		return ""
	}
	return user.DisplayName
}

func (m Model) currentStatus() (domain.JobStatus, bool) {
	statuses := m.board.Statuses()
	if m.selectedStatus < 0 || m.selectedStatus >= len(statuses) {
		return domain.JobStatus{}, false
	}
	return statuses[m.selectedStatus], true
}

func (m Model) currentColumnItems() []domain.JobItem {
	status, ok := m.currentStatus()
	if !ok {
		return nil
	}
	return m.board.ColumnItems(status.ID)
}

func (m Model) selectedJob() (domain.JobItem, bool) {
	items := m.currentColumnItems()
	if m.selectedItem < 0 || m.selectedItem >= len(items) {
		return domain.JobItem{}, false
	}
	return items[m.selectedItem], true
}

func (m *Model) clampSelections() {
	statuses := m.board.Statuses()
	m.selectedStatus = clamp(m.selectedStatus, 0, len(statuses)-1)
	m.selectedItem = clamp(m.selectedItem, 0, len(m.currentColumnItems())-1)
}

func (m *Model) focusItemByID(itemID string) {
	item, ok := m.board.Item(itemID)
	if !ok {
		m.clampSelections()
		return
	}
	for si, status := range m.board.Statuses() {
		if status.ID != item.StatusID {
			continue
		}
		m.selectedStatus = si
		for ii, it := range m.board.ColumnItems(status.ID) {
			if it.ID == itemID {
				m.selectedItem = ii
				return
			}
		}
	}
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.keyboard != nil {
		return m.handleKeyboardDragKey(msg)
	}
	if m.press != nil && key.Matches(msg, m.keys.cancel) {
		m.session.OnDragCancel()
		m.press = nil
		cmd := m.setStatus("drag cancelled")
		return m, cmd
	}
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadLists("")
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedStatus > 0 {
			m.selectedStatus--
			m.selectedItem = clamp(m.selectedItem, 0, len(m.currentColumnItems())-1)
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedStatus < len(m.board.Statuses())-1 {
			m.selectedStatus++
			m.selectedItem = clamp(m.selectedItem, 0, len(m.currentColumnItems())-1)
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedItem > 0 {
			m.selectedItem--
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.selectedItem < len(m.currentColumnItems())-1 {
			m.selectedItem++
		}
		return m, nil
	case key.Matches(msg, m.keys.lists):
		m.mode = modeListPicker
		m.pickerIdx = m.currentListIndex()
		return m, nil
	case key.Matches(msg, m.keys.newList):
		cmd := m.startListForm()
		return m, cmd
	case key.Matches(msg, m.keys.deleteList):
		list, ok := m.board.List()
		if !ok {
			return m, nil
		}
		m.mode = modeConfirm
		m.confirm = confirmAction{kind: "delete_list", id: list.ID, label: list.Title}
		return m, nil
	}

	if _, ok := m.board.List(); !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.newItem):
		cmd := m.startItemForm(nil)
		return m, cmd
	case key.Matches(msg, m.keys.itemInfo):
		if _, ok := m.selectedJob(); ok {
			m.mode = modeItemInfo
		}
		return m, nil
	case key.Matches(msg, m.keys.editItem):
		if item, ok := m.selectedJob(); ok {
			cmd := m.startItemForm(&item)
			return m, cmd
		}
		return m, nil
	case key.Matches(msg, m.keys.deleteItem):
		if item, ok := m.selectedJob(); ok {
			m.mode = modeConfirm
			m.confirm = confirmAction{kind: "delete_item", id: item.ID, label: item.Title}
		}
		return m, nil
	case key.Matches(msg, m.keys.copyLink):
		return m, m.copySelectedLink()
	case key.Matches(msg, m.keys.grab):
		return m.startKeyboardDrag()
	case key.Matches(msg, m.keys.rebalance):
		status, ok := m.currentStatus()
		if !ok {
			return m, nil
		}
		rebalancer, ctx := m.rebalancer, m.ctx
		return m, m.writes.track(func() tea.Msg {
			if err := rebalancer.RebalanceColumn(ctx, status.ID); err != nil {
				return actionMsg{status: "respace column", err: err}
			}
			return actionMsg{status: "respaced " + status.Title}
		})
	}
	return m, nil
}

func (m Model) currentListIndex() int {
	list, ok := m.board.List()
	if !ok {
		return 0
	}
	for idx, l := range m.lists {
		if l.ID == list.ID {
			return idx
		}
	}
	return 0
}

func (m Model) copySelectedLink() tea.Cmd {
	item, ok := m.selectedJob()
	if !ok {
		return nil
	}
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return m.actionStatus("no link on " + truncate(item.Title, 28))
	}
	if err := m.copyToClipboard(link); err != nil {
		return func() tea.Msg { return actionMsg{status: "copy link", err: err} }
	}
	return m.actionStatus("copied " + truncate(link, 48))
}

func (m Model) actionStatus(status string) tea.Cmd {
	return func() tea.Msg { return actionMsg{status: status} }
}

func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// truncate shortens s to at most max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
