package tui

import (
	"sync"

	tea "charm.land/bubbletea/v2"
)

// writeTracker counts store writes running inside commands.
type writeTracker struct {
	mu     sync.Mutex
	idle   *sync.Cond
	active int
}

func newWriteTracker() *writeTracker {
	t := &writeTracker{}
	t.idle = sync.NewCond(&t.mu)
	return t
}

// track wraps fn so the write is counted from the moment the command starts running.
func (t *writeTracker) track(fn func() tea.Msg) tea.Cmd {
	return func() tea.Msg {
		t.mu.Lock()
		t.active++
		t.mu.Unlock()
		defer t.done()
		return fn()
	}
}

func (t *writeTracker) done() {
	t.mu.Lock()
	t.active--
	if t.active == 0 {
		t.idle.Broadcast()
	}
	t.mu.Unlock()
}

// wait blocks until no tracked write is running.
func (t *writeTracker) wait() {
	t.mu.Lock()
	for t.active > 0 {
		t.idle.Wait()
	}
	t.mu.Unlock()
}
