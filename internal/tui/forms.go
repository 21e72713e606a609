package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hylla/skadi/internal/domain"
)

// Item form field order.
const (
	fieldTitle = iota
	fieldCompany
	fieldLocation
	fieldLink
	fieldNotes
)

var itemFieldLabels = []string{"title", "company", "location", "link", "notes"}

const formInputWidth = 48

func newFormInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.SetWidth(formInputWidth)
	return in
}

// startItemForm opens the card form. A nil item creates a new card in the first column.
func (m *Model) startItemForm(item *domain.JobItem) tea.Cmd {
	m.formInputs = []textinput.Model{
		newFormInput("Staff Engineer", domain.MaxTitleLen),
		newFormInput("Acme Corp", domain.MaxCompanyLen),
		newFormInput("Remote", domain.MaxLocationLen),
		newFormInput("https://", domain.MaxLinkLen),
		newFormInput("markdown notes", domain.MaxNotesLen),
	}
	m.editItemID = ""
	if item != nil {
		m.editItemID = item.ID
		m.formInputs[fieldTitle].SetValue(item.Title)
		m.formInputs[fieldCompany].SetValue(item.Company)
		m.formInputs[fieldLocation].SetValue(item.Location)
		m.formInputs[fieldLink].SetValue(item.Link)
		m.formInputs[fieldNotes].SetValue(item.Notes)
	}
	m.mode = modeItemForm
	m.formError = ""
	m.formFocus = fieldTitle
	return m.formInputs[fieldTitle].Focus()
}

func (m *Model) startListForm() tea.Cmd {
	m.listInput = newFormInput("Job hunt 2026", domain.MaxListTitleLen)
	m.mode = modeListForm
	m.formError = ""
	return m.listInput.Focus()
}

func (m *Model) closeForm() {
	m.mode = modeNone
	m.formInputs = nil
	m.formFocus = 0
	m.formError = ""
	m.editItemID = ""
}

func (m *Model) focusField(idx int) tea.Cmd {
	if len(m.formInputs) == 0 {
		return nil
	}
	m.formInputs[m.formFocus].Blur()
	m.formFocus = (idx + len(m.formInputs)) % len(m.formInputs)
	return m.formInputs[m.formFocus].Focus()
}

func (m Model) itemFormFields() domain.JobItemFields {
	value := func(idx int) string {
		if idx >= len(m.formInputs) {
			return ""
		}
		return m.formInputs[idx].Value()
	}
	return domain.JobItemFields{
		Title:    value(fieldTitle),
		Company:  value(fieldCompany),
		Location: value(fieldLocation),
		Link:     value(fieldLink),
		Notes:    value(fieldNotes),
	}
}

func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeItemForm:
		return m.handleItemFormKey(msg)
	case modeListForm:
		return m.handleListFormKey(msg)
	case modeListPicker:
		return m.handleListPickerKey(msg)
	case modeItemInfo:
		return m.handleItemInfoKey(msg)
	case modeConfirm:
		return m.handleConfirmKey(msg)
	}
	return m, nil
}

func (m Model) handleItemFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return m, nil
	case "tab", "down":
		cmd := m.focusField(m.formFocus + 1)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.focusField(m.formFocus - 1)
		return m, cmd
	case "ctrl+s":
		return m.submitItemForm()
	case "enter":
		if m.formFocus == len(m.formInputs)-1 {
			return m.submitItemForm()
		}
		cmd := m.focusField(m.formFocus + 1)
		return m, cmd
	}
	return m.updateFocusedInput(msg)
}

func (m Model) submitItemForm() (tea.Model, tea.Cmd) {
	fields, err := m.itemFormFields().Normalize()
	if err != nil {
		m.formError = err.Error()
		return m, nil
	}
	board, rebalancer, ctx := m.board, m.rebalancer, m.ctx
	editID := m.editItemID
	m.closeForm()
	if editID != "" {
		return m, m.writes.track(func() tea.Msg {
			item, err := board.UpdateItem(ctx, editID, fields)
			if err != nil {
				return actionMsg{status: "update job", err: err}
			}
			return actionMsg{status: "saved " + truncate(item.Title, 32), focusItem: item.ID}
		})
	}
	return m, m.writes.track(func() tea.Msg {
		item, err := board.CreateItem(ctx, fields)
		if err != nil {
			return actionMsg{status: "create job", err: err}
		}
		if domain.NeedsRebalance(item.SortOrder) {
			rebalancer.Schedule(item.StatusID)
		}
		return actionMsg{status: "added " + truncate(item.Title, 32), focusItem: item.ID}
	})
}

func (m Model) handleListFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return m, nil
	case "enter":
		title, err := domain.NormalizeListTitle(m.listInput.Value())
		if err != nil {
			m.formError = err.Error()
			return m, nil
		}
		svc, ctx := m.svc, m.ctx
		m.closeForm()
		return m, m.writes.track(func() tea.Msg {
			list, err := svc.CreateJobList(ctx, title)
			if err != nil {
				return actionMsg{status: "create list", err: err}
			}
			return actionMsg{status: "created " + list.Title, reloadList: true, selectList: list.ID}
		})
	}
	return m.updateFocusedInput(msg)
}

// updateFocusedInput forwards msg to the input that has focus.
func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case modeItemForm:
		if m.formFocus < len(m.formInputs) {
			m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
		}
	case modeListForm:
		m.listInput, cmd = m.listInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleListPickerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.lists):
		m.mode = modeNone
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.pickerIdx = clamp(m.pickerIdx-1, 0, len(m.lists)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.pickerIdx = clamp(m.pickerIdx+1, 0, len(m.lists)-1)
		return m, nil
	case key.Matches(msg, m.keys.newList):
		cmd := m.startListForm()
		return m, cmd
	case key.Matches(msg, m.keys.deleteList):
		if m.pickerIdx < len(m.lists) {
			list := m.lists[m.pickerIdx]
			m.mode = modeConfirm
			m.confirm = confirmAction{kind: "delete_list", id: list.ID, label: list.Title}
		}
		return m, nil
	case msg.String() == "enter":
		m.mode = modeNone
		if m.pickerIdx >= len(m.lists) {
			return m, nil
		}
		m.selectedStatus, m.selectedItem = 0, 0
		return m, m.loadBoard(m.lists[m.pickerIdx].ID)
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleItemInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel), msg.String() == "i", msg.String() == "q":
		m.mode = modeNone
		return m, nil
	case key.Matches(msg, m.keys.editItem):
		item, ok := m.selectedJob()
		if !ok {
			m.mode = modeNone
			return m, nil
		}
		cmd := m.startItemForm(&item)
		return m, cmd
	case key.Matches(msg, m.keys.copyLink):
		return m, m.copySelectedLink()
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
	case "n", "esc", "q":
		m.mode = modeNone
		m.confirm = confirmAction{}
		return m, nil
	default:
		return m, nil
	}

	action := m.confirm
	m.mode = modeNone
	m.confirm = confirmAction{}
	board, svc, ctx := m.board, m.svc, m.ctx
	switch action.kind {
	case "delete_item":
		return m, m.writes.track(func() tea.Msg {
			if err := board.DeleteItem(ctx, action.id); err != nil {
				return actionMsg{status: "delete job", err: err}
			}
			return actionMsg{status: "deleted " + truncate(action.label, 32)}
		})
	case "delete_list":
		return m, m.writes.track(func() tea.Msg {
			if err := svc.DeleteJobList(ctx, action.id); err != nil {
				return actionMsg{status: "delete list", err: err}
			}
			if current, ok := board.List(); ok && current.ID == action.id {
				board.Reset()
			}
			return actionMsg{status: "deleted list " + truncate(action.label, 32), reloadList: true}
		})
	}
	return m, nil
}

// renderOverlay returns the modal for the current mode, or "" when none is open.
func (m Model) renderOverlay(styles boardStyles) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)
	hint := func(s string) string { return styles.muted.Render(s) }

	var lines []string
	switch m.mode {
	case modeItemForm:
		heading := "New job"
		if m.editItemID != "" {
			heading = "Edit job"
		}
		lines = append(lines, styles.title.Render(heading), "")
		for idx, in := range m.formInputs {
			label := fmt.Sprintf("%-9s", itemFieldLabels[idx])
			if idx == m.formFocus {
				label = styles.accent.Render(label)
			} else {
				label = styles.muted.Render(label)
			}
			lines = append(lines, label+" "+in.View())
		}
		if m.formError != "" {
			lines = append(lines, "", styles.errorS.Render(m.formError))
		}
		lines = append(lines, "", hint("tab next • enter on notes or ctrl+s save • esc cancel"))

	case modeListForm:
		lines = append(lines, styles.title.Render("New job list"), "", m.listInput.View())
		if m.formError != "" {
			lines = append(lines, "", styles.errorS.Render(m.formError))
		}
		lines = append(lines, "", hint("enter create • esc cancel"))

	case modeListPicker:
		lines = append(lines, styles.title.Render("Job lists"), "")
		if len(m.lists) == 0 {
			lines = append(lines, styles.muted.Render("(none)"))
		}
		current, _ := m.board.List()
		for idx, list := range m.lists {
			cursor := "  "
			if idx == m.pickerIdx {
				cursor = "> "
			}
			row := cursor + list.Title
			if list.ID == current.ID {
				row += styles.muted.Render("  (open)")
			}
			if idx == m.pickerIdx {
				row = styles.accent.Render(row)
			}
			lines = append(lines, row)
		}
		lines = append(lines, "", hint("enter open • N new • X delete • esc close"))

	case modeItemInfo:
		item, ok := m.selectedJob()
		if !ok {
			return ""
		}
		lines = append(lines, styles.title.Render(item.Title), item.Company)
		if item.Location != "" {
			lines = append(lines, styles.muted.Render(item.Location))
		}
		if item.Link != "" {
			lines = append(lines, styles.accent.Render(item.Link))
		}
		lines = append(lines, "", styles.muted.Render("Notes"))
		if notes := m.notes.render(item.Notes, m.width-10); notes != "" {
			lines = append(lines, notes)
		} else {
			lines = append(lines, styles.muted.Render(noNotes))
		}
		lines = append(lines, "", hint("e edit • y copy link • esc close"))

	case modeConfirm:
		verb := "Delete job"
		if m.confirm.kind == "delete_list" {
			verb = "Delete list and all its jobs"
		}
		lines = append(lines,
			styles.title.Render(verb+"?"),
			"",
			truncate(m.confirm.label, 48),
			"",
			hint("y confirm • n cancel"),
		)

	default:
		return ""
	}
	return box.Render(strings.Join(lines, "\n"))
}
