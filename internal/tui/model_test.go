package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/hylla/skadi/internal/adapters/storage/sqlite"
	"github.com/hylla/skadi/internal/app"
	"github.com/hylla/skadi/internal/domain"
)

// failingMoves rejects every item update so optimistic moves roll back.
type failingMoves struct {
	app.Store
}

func (failingMoves) UpdateItem(context.Context, string, domain.JobItemPatch) error {
	return errors.New("disk full")
}

type seededBoard struct {
	store  app.Store
	list   domain.JobList
	first  domain.JobItem
	second domain.JobItem
}

// seedBoard creates one list with two cards in Saved. The newer card sits on top.
func seedBoard(t *testing.T) seededBoard {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	svc := app.NewService(app.Deps{Store: repo}, app.ServiceConfig{})
	list, err := svc.CreateJobList(ctx, "Search")
	if err != nil {
		t.Fatalf("CreateJobList() error = %v", err)
	}
	first, err := svc.CreateJobItem(ctx, list.ID, domain.JobItemFields{Title: "Backend Engineer", Company: "Acme", Link: "https://acme.example/jobs/1"})
	if err != nil {
		t.Fatalf("CreateJobItem() error = %v", err)
	}
	second, err := svc.CreateJobItem(ctx, list.ID, domain.JobItemFields{Title: "Platform Engineer", Company: "Globex"})
	if err != nil {
		t.Fatalf("CreateJobItem() error = %v", err)
	}
	return seededBoard{store: repo, list: list, first: first, second: second}
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return applyCmd(t, m, m.loadLists(m.pendingListID))
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

// applyCmd runs cmd and feeds its result back into the model. Commands that do not finish quickly
// (status timers, change subscriptions) are dropped.
func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(200 * time.Millisecond):
		return m
	}
	switch msg := msg.(type) {
	case nil, boardChangedMsg, clearStatusMsg:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = applyCmd(t, m, c)
		}
		return m
	}
	return applyMsg(t, m, msg)
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func keyCode(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func mustItem(t *testing.T, store app.Store, id string) domain.JobItem {
	t.Helper()
	item, err := store.GetItem(context.Background(), id)
	if err != nil {
		t.Fatalf("GetItem(%q) error = %v", id, err)
	}
	return item
}

func TestModelLoadsBoard(t *testing.T) {
	seed := seedBoard(t)
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))

	list, ok := m.board.List()
	if !ok || list.ID != seed.list.ID {
		t.Fatalf("board list = %+v, %v, want %q", list, ok, seed.list.ID)
	}
	out := m.viewContent()
	for _, want := range []string{"skadi", "Search", "Saved (2)", "Applied (0)", "Platform Engineer", "Backend Engineer"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view, got\n%s", want, out)
		}
	}
	if got := strings.Index(out, "Platform Engineer"); got > strings.Index(out, "Backend Engineer") {
		t.Fatal("expected newest card rendered first")
	}
}

func TestModelViewStates(t *testing.T) {
	seed := seedBoard(t)
	m := NewModel(app.Deps{Store: seed.store})
	v := m.View()
	if v.MouseMode != tea.MouseModeCellMotion || !v.AltScreen {
		t.Fatal("expected alt screen with cell motion mouse")
	}
	if got := m.viewContent(); got != "loading..." {
		t.Fatalf("viewContent() = %q, want loading", got)
	}
	m.err = context.DeadlineExceeded
	if got := m.viewContent(); !strings.Contains(got, "error: context deadline exceeded") {
		t.Fatalf("expected error view, got %q", got)
	}
}

func TestModelMouseDragMovesCard(t *testing.T) {
	seed := seedBoard(t)
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))
	applied := m.board.Statuses()[1]

	// Backend Engineer is the second card of Saved.
	box := m.layout.cardRect(0, 1)
	x, y := int(box.X)+3, int(box.Y)+1
	m = applyMsg(t, m, tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft})
	if m.press == nil || m.press.itemID != seed.first.ID {
		t.Fatalf("expected press on %q, got %+v", seed.first.ID, m.press)
	}

	target := m.layout.slotPoint(1, 0)
	m = applyMsg(t, m, tea.MouseMotionMsg{X: int(target.X), Y: int(target.Y), Button: tea.MouseLeft})
	statusID, index, ok := m.session.Indicator()
	if !ok || statusID != applied.ID || index != 0 {
		t.Fatalf("Indicator() = %q, %d, %v", statusID, index, ok)
	}
	if out := m.viewContent(); !strings.Contains(out, "━") || !strings.Contains(out, "┌") {
		t.Fatal("expected insertion line and ghost card while dragging")
	}

	m = applyMsg(t, m, tea.MouseReleaseMsg{X: int(target.X), Y: int(target.Y), Button: tea.MouseLeft})
	moved, _ := m.board.Item(seed.first.ID)
	if moved.StatusID != applied.ID || moved.SortOrder != domain.SeedOrder {
		t.Fatalf("board item = %+v", moved)
	}
	stored := mustItem(t, seed.store, seed.first.ID)
	if stored.StatusID != applied.ID || stored.SortOrder != domain.SeedOrder {
		t.Fatalf("stored item = %+v", stored)
	}
	if m.selectedStatus != 1 || m.selectedItem != 0 {
		t.Fatalf("selection = %d/%d, want moved card", m.selectedStatus, m.selectedItem)
	}
	if _, _, ok := m.session.Indicator(); ok {
		t.Fatal("expected idle session after drop")
	}
}

func TestModelMouseDragOutsideColumnsCancels(t *testing.T) {
	seed := seedBoard(t)
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))

	box := m.layout.cardRect(0, 0)
	m = applyMsg(t, m, tea.MouseClickMsg{X: int(box.X) + 1, Y: int(box.Y) + 1, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseMotionMsg{X: 119, Y: 6, Button: tea.MouseLeft})
	if _, _, ok := m.session.Indicator(); ok {
		t.Fatal("expected no indicator outside columns")
	}
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: 119, Y: 6, Button: tea.MouseLeft})

	item, _ := m.board.Item(seed.second.ID)
	if item.StatusID != seed.second.StatusID || item.SortOrder != seed.second.SortOrder {
		t.Fatalf("expected card untouched, got %+v", item)
	}
	if m.status != "drop cancelled" {
		t.Fatalf("status = %q", m.status)
	}
}

func TestModelEscCancelsMouseDrag(t *testing.T) {
	seed := seedBoard(t)
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))

	box := m.layout.cardRect(0, 0)
	m = applyMsg(t, m, tea.MouseClickMsg{X: int(box.X) + 1, Y: int(box.Y) + 1, Button: tea.MouseLeft})
	target := m.layout.slotPoint(2, 0)
	m = applyMsg(t, m, tea.MouseMotionMsg{X: int(target.X), Y: int(target.Y), Button: tea.MouseLeft})
	m = applyMsg(t, m, keyCode(tea.KeyEscape))
	if m.press != nil || m.session.DraggedID() != "" {
		t.Fatal("expected drag cleared")
	}
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: int(target.X), Y: int(target.Y), Button: tea.MouseLeft})
	if item, _ := m.board.Item(seed.second.ID); item.StatusID != seed.second.StatusID {
		t.Fatalf("expected card to stay in Saved, got %+v", item)
	}
}

func TestModelFailedMoveRollsBack(t *testing.T) {
	seed := seedBoard(t)
	m := loadReadyModel(t, NewModel(app.Deps{Store: failingMoves{Store: seed.store}}))

	box := m.layout.cardRect(0, 0)
	m = applyMsg(t, m, tea.MouseClickMsg{X: int(box.X) + 1, Y: int(box.Y) + 1, Button: tea.MouseLeft})
	target := m.layout.slotPoint(3, 0)
	m = applyMsg(t, m, tea.MouseMotionMsg{X: int(target.X), Y: int(target.Y), Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: int(target.X), Y: int(target.Y), Button: tea.MouseLeft})

	item, _ := m.board.Item(seed.second.ID)
	if item.StatusID != seed.second.StatusID || item.SortOrder != seed.second.SortOrder {
		t.Fatalf("expected rollback to %+v, got %+v", seed.second, item)
	}
	if !strings.Contains(m.status, "move failed:") || !strings.Contains(m.status, "disk full") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestModelKeyboardDrag(t *testing.T) {
	tests := []struct {
		name       string
		keys       []tea.KeyPressMsg
		wantStatus int
		wantOrder  float64
	}{
		{
			name:       "move right into empty column",
			keys:       []tea.KeyPressMsg{keyRune(' '), keyRune('l'), keyRune(' ')},
			wantStatus: 1,
			wantOrder:  domain.SeedOrder,
		},
		{
			name:       "move below sibling",
			keys:       []tea.KeyPressMsg{keyRune(' '), keyRune('j'), keyRune('j'), keyCode(tea.KeyEnter)},
			wantStatus: 0,
			wantOrder:  2,
		},
		{
			name:       "put back in place",
			keys:       []tea.KeyPressMsg{keyRune(' '), keyRune('j'), keyRune(' ')},
			wantStatus: 0,
			wantOrder:  0.5,
		},
		{
			name:       "cancel",
			keys:       []tea.KeyPressMsg{keyRune(' '), keyRune('l'), keyCode(tea.KeyEscape)},
			wantStatus: 0,
			wantOrder:  0.5,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seed := seedBoard(t)
			m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))
			for _, k := range tc.keys {
				m = applyMsg(t, m, k)
			}
			if m.keyboard != nil || m.session.DraggedID() != "" {
				t.Fatal("expected keyboard drag to end")
			}
			want := m.board.Statuses()[tc.wantStatus].ID
			item := mustItem(t, seed.store, seed.second.ID)
			if item.StatusID != want || item.SortOrder != tc.wantOrder {
				t.Fatalf("stored = %s/%v, want %s/%v", item.StatusID, item.SortOrder, want, tc.wantOrder)
			}
		})
	}
}

func TestModelItemForm(t *testing.T) {
	seed := seedBoard(t)
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))

	m = applyMsg(t, m, keyRune('n'))
	if m.mode != modeItemForm || len(m.formInputs) != 5 {
		t.Fatalf("expected item form, got mode %d", m.mode)
	}
	m.formInputs[fieldTitle].SetValue("SRE")
	m.formFocus = fieldNotes
	m = applyMsg(t, m, keyCode(tea.KeyEnter))
	if m.mode != modeItemForm || !strings.Contains(m.formError, "company") {
		t.Fatalf("expected company validation error, got mode %d error %q", m.mode, m.formError)
	}
	if !strings.Contains(m.viewContent(), "company") {
		t.Fatal("expected form rendered with error")
	}

	m.formInputs[fieldCompany].SetValue("  Initech ")
	m = applyMsg(t, m, keyCode(tea.KeyEnter))
	if m.mode != modeNone {
		t.Fatalf("expected form closed, got mode %d", m.mode)
	}
	column := m.board.ColumnItems(m.board.Statuses()[0].ID)
	if len(column) != 3 || column[0].Title != "SRE" || column[0].Company != "Initech" {
		t.Fatalf("column = %+v", column)
	}
	if column[0].SortOrder != 0.25 {
		t.Fatalf("new card order = %v, want 0.25", column[0].SortOrder)
	}
	if m.selectedItem != 0 {
		t.Fatalf("expected new card selected, got %d", m.selectedItem)
	}

	m = applyMsg(t, m, keyRune('e'))
	if m.mode != modeItemForm || m.formInputs[fieldTitle].Value() != "SRE" {
		t.Fatal("expected edit form prefilled")
	}
	m.formInputs[fieldTitle].SetValue("Senior SRE")
	m.formFocus = fieldNotes
	m = applyMsg(t, m, keyCode(tea.KeyEnter))
	stored := mustItem(t, seed.store, column[0].ID)
	if stored.Title != "Senior SRE" || stored.SortOrder != 0.25 {
		t.Fatalf("stored = %+v", stored)
	}

	m = applyMsg(t, m, keyRune('n'))
	m = applyMsg(t, m, keyCode(tea.KeyEscape))
	if m.mode != modeNone || m.formInputs != nil {
		t.Fatal("expected esc to discard form")
	}
}

func TestModelDeleteItemConfirm(t *testing.T) {
	seed := seedBoard(t)
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))

	m = applyMsg(t, m, keyRune('d'))
	if m.mode != modeConfirm || m.confirm.id != seed.second.ID {
		t.Fatalf("expected confirm for %q, got %+v", seed.second.ID, m.confirm)
	}
	m = applyMsg(t, m, keyRune('n'))
	if _, ok := m.board.Item(seed.second.ID); !ok || m.mode != modeNone {
		t.Fatal("expected n to keep card")
	}

	m = applyMsg(t, m, keyRune('d'))
	m = applyMsg(t, m, keyRune('y'))
	if _, ok := m.board.Item(seed.second.ID); ok {
		t.Fatal("expected card removed from board")
	}
	if _, err := seed.store.GetItem(context.Background(), seed.second.ID); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("GetItem() error = %v, want ErrNotFound", err)
	}
}

func TestModelListLifecycle(t *testing.T) {
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	m := loadReadyModel(t, NewModel(app.Deps{Store: repo}, WithDefaultStatuses([]string{"Wishlist", "Applied"})))
	if m.mode != modeListForm {
		t.Fatalf("expected list form on empty store, got mode %d", m.mode)
	}

	m = applyMsg(t, m, keyCode(tea.KeyEnter))
	if m.formError == "" {
		t.Fatal("expected required title error")
	}
	m.listInput.SetValue("Autumn search")
	m = applyMsg(t, m, keyCode(tea.KeyEnter))
	list, ok := m.board.List()
	if !ok || list.Title != "Autumn search" {
		t.Fatalf("board list = %+v, %v", list, ok)
	}
	if got := m.board.Statuses(); len(got) != 2 || got[0].Title != "Wishlist" {
		t.Fatalf("statuses = %+v", got)
	}

	m = applyMsg(t, m, keyRune('X'))
	if m.mode != modeConfirm || m.confirm.kind != "delete_list" {
		t.Fatalf("expected list delete confirm, got %+v", m.confirm)
	}
	m = applyMsg(t, m, keyRune('y'))
	if _, ok := m.board.List(); ok {
		t.Fatal("expected board reset after deleting open list")
	}
	if m.mode != modeListForm {
		t.Fatalf("expected list form after deleting last list, got mode %d", m.mode)
	}
}

func TestModelListPicker(t *testing.T) {
	seed := seedBoard(t)
	svc := app.NewService(app.Deps{Store: seed.store}, app.ServiceConfig{})
	other, err := svc.CreateJobList(context.Background(), "Contracts")
	if err != nil {
		t.Fatalf("CreateJobList() error = %v", err)
	}

	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))
	m = applyMsg(t, m, keyRune('p'))
	if m.mode != modeListPicker || m.pickerIdx != 0 {
		t.Fatalf("expected picker on current list, got mode %d idx %d", m.mode, m.pickerIdx)
	}
	if !strings.Contains(m.viewContent(), "Contracts") {
		t.Fatal("expected picker to list every job list")
	}
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyCode(tea.KeyEnter))
	list, _ := m.board.List()
	if list.ID != other.ID || len(m.board.Items()) != 0 {
		t.Fatalf("expected %q open, got %+v", other.ID, list)
	}
}

func TestModelInitialListOption(t *testing.T) {
	seed := seedBoard(t)
	svc := app.NewService(app.Deps{Store: seed.store}, app.ServiceConfig{})
	other, err := svc.CreateJobList(context.Background(), "Contracts")
	if err != nil {
		t.Fatalf("CreateJobList() error = %v", err)
	}
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}, WithInitialList(other.ID)))
	if list, _ := m.board.List(); list.ID != other.ID {
		t.Fatalf("expected initial list %q, got %q", other.ID, list.ID)
	}
}

func TestModelCopyLinkAndInfo(t *testing.T) {
	seed := seedBoard(t)
	var copied string
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}, WithClipboard(func(s string) error {
		copied = s
		return nil
	})))

	m = applyMsg(t, m, keyRune('y'))
	if copied != "" || !strings.Contains(m.status, "no link") {
		t.Fatalf("expected no-link status, got %q (copied %q)", m.status, copied)
	}

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('i'))
	if m.mode != modeItemInfo {
		t.Fatalf("expected info overlay, got mode %d", m.mode)
	}
	if !strings.Contains(m.viewContent(), "https://acme.example/jobs/1") {
		t.Fatal("expected link in info overlay")
	}
	m = applyMsg(t, m, keyRune('y'))
	if copied != seed.first.Link {
		t.Fatalf("copied = %q, want %q", copied, seed.first.Link)
	}
	m = applyMsg(t, m, keyCode(tea.KeyEscape))
	if m.mode != modeNone {
		t.Fatal("expected esc to close info")
	}
}

func TestModelRespaceColumn(t *testing.T) {
	seed := seedBoard(t)
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))

	m = applyMsg(t, m, keyRune('R'))
	got := []float64{
		mustItem(t, seed.store, seed.second.ID).SortOrder,
		mustItem(t, seed.store, seed.first.ID).SortOrder,
	}
	if got[0] != 10 || got[1] != 20 {
		t.Fatalf("orders = %v, want [10 20]", got)
	}
	if !strings.Contains(m.status, "respaced Saved") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestModelNavigationClamps(t *testing.T) {
	seed := seedBoard(t)
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))

	for _, k := range []rune{'k', 'h'} {
		m = applyMsg(t, m, keyRune(k))
	}
	if m.selectedStatus != 0 || m.selectedItem != 0 {
		t.Fatalf("selection = %d/%d", m.selectedStatus, m.selectedItem)
	}
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('j'))
	if m.selectedItem != 1 {
		t.Fatalf("selectedItem = %d, want 1", m.selectedItem)
	}
	m = applyMsg(t, m, keyRune('l'))
	if m.selectedStatus != 1 || m.selectedItem != 0 {
		t.Fatalf("selection = %d/%d after moving into empty column", m.selectedStatus, m.selectedItem)
	}
	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll {
		t.Fatal("expected full help")
	}
}

func TestBoardLayoutGeometry(t *testing.T) {
	seed := seedBoard(t)
	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}))

	if got := m.layout.columnWidth(); got != 28 {
		t.Fatalf("columnWidth() = %d, want 28", got)
	}
	saved := m.board.Statuses()[0].ID
	boxes := m.layout.CardBoxes(saved)
	if len(boxes) != 2 || boxes[0].Y != 5 || boxes[1].Y != 10 || boxes[0].H != cardHeight {
		t.Fatalf("CardBoxes() = %+v", boxes)
	}
	if _, _, _, ok := m.layout.cardAt(29, 6); ok {
		t.Fatal("expected gap between columns to miss")
	}
	if si, ii, item, ok := m.layout.cardAt(31, 6); ok {
		t.Fatalf("expected empty Applied column to miss, got %d/%d %+v", si, ii, item)
	}
	_, _, item, ok := m.layout.cardAt(0, 11)
	if !ok || item.ID != seed.first.ID {
		t.Fatalf("cardAt(0, 11) = %+v, %v", item, ok)
	}
	if got := m.layout.CardBoxes("missing"); got != nil {
		t.Fatalf("expected nil boxes for unknown status, got %+v", got)
	}
}

func TestModelWaitFinishesScheduledRebalance(t *testing.T) {
	seed := seedBoard(t)
	ctx := context.Background()
	third, err := app.NewService(app.Deps{Store: seed.store}, app.ServiceConfig{}).
		CreateJobItem(ctx, seed.list.ID, domain.JobItemFields{Title: "Data Engineer", Company: "Initech"})
	if err != nil {
		t.Fatalf("CreateJobItem() error = %v", err)
	}
	for id, order := range map[string]float64{third.ID: 0.000001, seed.second.ID: 0.000002, seed.first.ID: 0.000003} {
		if err := seed.store.UpdateItem(ctx, id, domain.JobItemPatch{SortOrder: &order}); err != nil {
			t.Fatalf("UpdateItem() error = %v", err)
		}
	}

	m := loadReadyModel(t, NewModel(app.Deps{Store: seed.store}, WithRebalanceDelay(300*time.Millisecond)))
	for _, k := range []tea.KeyPressMsg{keyRune(' '), keyRune('j'), keyRune('j'), keyRune(' ')} {
		m = applyMsg(t, m, k)
	}
	m.Wait()

	want := map[string]float64{seed.second.ID: 10, third.ID: 20, seed.first.ID: 30}
	for id, order := range want {
		if got := mustItem(t, seed.store, id).SortOrder; got != order {
			t.Fatalf("stored rank of %s = %v, want %v", id, got, order)
		}
		if item, _ := m.board.Item(id); item.SortOrder != order {
			t.Fatalf("board rank of %s = %v, want %v", id, item.SortOrder, order)
		}
	}
}

func TestWriteTrackerWaitsForRunningWrites(t *testing.T) {
	tracker := newWriteTracker()
	started := make(chan struct{})
	release := make(chan struct{})
	cmd := tracker.track(func() tea.Msg {
		close(started)
		<-release
		return nil
	})
	go cmd()
	<-started

	waited := make(chan struct{})
	go func() {
		tracker.wait()
		close(waited)
	}()
	select {
	case <-waited:
		t.Fatal("wait returned while a write was running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after the write finished")
	}
}

func TestModelFirstListPromptClears(t *testing.T) {
	orig := statusTTL
	statusTTL = 10 * time.Millisecond
	t.Cleanup(func() { statusTTL = orig })

	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	m := applyMsg(t, NewModel(app.Deps{Store: repo}), tea.WindowSizeMsg{Width: 120, Height: 40})

	updated, cmd := m.Update(listsLoadedMsg{})
	m = updated.(Model)
	if m.status != "create your first job list" || m.mode != modeListForm {
		t.Fatalf("status = %q mode = %d", m.status, m.mode)
	}

	pending := []tea.Cmd{cmd}
	cleared := false
	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			pending = append(pending, msg...)
		case clearStatusMsg:
			updated, _ = m.Update(msg)
			m = updated.(Model)
			cleared = true
		}
	}
	if !cleared || m.status != "" {
		t.Fatalf("expected prompt to clear, cleared=%v status=%q", cleared, m.status)
	}
}
