package dnd

import (
	"context"
	"errors"
	"strings"

	"github.com/hylla/skadi/internal/app"
)

// State is the phase of the current drag gesture.
type State int

// Drag gesture phases.
const (
	StateIdle State = iota
	StateDragging
	StateHovering
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateHovering:
		return "hovering"
	default:
		return "idle"
	}
}

// Layout reports where the cards of a column are currently rendered, top to bottom.
type Layout interface {
	CardBoxes(statusID string) []Rect
}

// LayoutFunc adapts a function to Layout.
type LayoutFunc func(statusID string) []Rect

// CardBoxes implements Layout.
func (f LayoutFunc) CardBoxes(statusID string) []Rect {
	return f(statusID)
}

// RebalanceScheduler queues a background rebalance of one column.
type RebalanceScheduler interface {
	Schedule(statusID string)
}

// Session drives one drag gesture at a time. Its methods are called from a single event loop.
type Session struct {
	board     *app.Board
	layout    Layout
	rebalance RebalanceScheduler

	state  State
	itemID string
	target string
	index  int
}

// NewSession constructs an idle session.
func NewSession(board *app.Board, layout Layout, rebalance RebalanceScheduler) *Session {
	return &Session{
		board:     board,
		layout:    layout,
		rebalance: rebalance,
	}
}

// State returns the current phase.
func (s *Session) State() State {
	return s.state
}

// DraggedID returns the card being dragged, or "" when idle.
func (s *Session) DraggedID() string {
	return s.itemID
}

// Indicator returns where the insertion line should be drawn while hovering.
func (s *Session) Indicator() (statusID string, index int, ok bool) {
	if s.state != StateHovering {
		return "", 0, false
	}
	return s.target, s.index, true
}

// OnDragStart picks up a card. It reports false when the card is not on the board.
func (s *Session) OnDragStart(itemID string) bool {
	itemID = strings.TrimSpace(itemID)
	if _, ok := s.board.Item(itemID); !ok {
		s.reset()
		return false
	}
	s.state = StateDragging
	s.itemID = itemID
	s.target = ""
	s.index = 0
	return true
}

// OnDragOverTarget records the hovered column and recomputes the insertion index from the
// column's current layout.
func (s *Session) OnDragOverTarget(statusID string, p Point) {
	if s.state == StateIdle {
		return
	}
	s.state = StateHovering
	s.target = statusID
	s.index = ResolveDropIndex(p.Y, s.layout.CardBoxes(statusID))
}

// OnDragLeave clears the active target while the card is still held.
func (s *Session) OnDragLeave() {
	if s.state == StateIdle {
		return
	}
	s.state = StateDragging
	s.target = ""
	s.index = 0
}

// OnDragCancel aborts the gesture without touching the board.
func (s *Session) OnDragCancel() {
	s.reset()
}

// Drop ends the gesture over statusID. The insertion index is resolved again from p rather than
// taken from the last hover. The placement is applied to the board before Drop returns; the
// returned Commit persists it. A nil Commit means nothing changed: no drag was active, the card
// is gone, or it was dropped back into its own slot.
func (s *Session) Drop(statusID string, p Point) (*Commit, error) {
	itemID := s.itemID
	active := s.state != StateIdle
	s.reset()
	if !active || strings.TrimSpace(statusID) == "" {
		return nil, nil
	}

	index := ResolveDropIndex(p.Y, s.layout.CardBoxes(statusID))
	plan, err := s.board.PlanPlacement(itemID, statusID, index)
	if errors.Is(err, app.ErrStaleReference) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if plan.NoOp {
		return nil, nil
	}

	move, err := s.board.BeginMove(itemID, plan.To.StatusID, plan.To.SortOrder)
	if errors.Is(err, app.ErrStaleReference) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Commit{
		move:      move,
		rebalance: plan.NeedsRebalance,
		scheduler: s.rebalance,
	}, nil
}

// OnDrop is Drop followed by Commit.Run.
func (s *Session) OnDrop(ctx context.Context, statusID string, p Point) error {
	commit, err := s.Drop(statusID, p)
	if err != nil || commit == nil {
		return err
	}
	return commit.Run(ctx)
}

func (s *Session) reset() {
	s.state = StateIdle
	s.itemID = ""
	s.target = ""
	s.index = 0
}

// Commit persists a dropped card. Failures roll the card back to where it was picked up.
type Commit struct {
	move      *app.Move
	rebalance bool
	scheduler RebalanceScheduler
}

// ItemID returns the dropped card.
func (c *Commit) ItemID() string {
	return c.move.ItemID()
}

// Target returns the optimistic placement.
func (c *Commit) Target() app.Placement {
	return c.move.To()
}

// Run writes the placement and, when the new rank ran out of precision, schedules a rebalance of
// the target column.
func (c *Commit) Run(ctx context.Context) error {
	if err := c.move.Commit(ctx); err != nil {
		return err
	}
	if c.rebalance && c.scheduler != nil {
		c.scheduler.Schedule(c.move.To().StatusID)
	}
	return nil
}
