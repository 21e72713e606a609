package app

import (
	"context"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/hylla/skadi/internal/domain"
)

// noOpTolerance is the rank distance below which a drop counts as "put back where it was".
const noOpTolerance = 1e-6

// Board holds the in-memory working copy of the open list. Only its own methods mutate it.
type Board struct {
	deps Deps

	mu       sync.RWMutex
	loadSeq  uint64
	list     domain.JobList
	statuses []domain.JobStatus
	items    []domain.JobItem

	changes chan struct{}
}

// NewBoard constructs an empty board.
func NewBoard(deps Deps) *Board {
	return &Board{
		deps:    deps.withDefaults(),
		changes: make(chan struct{}, 1),
	}
}

// Changes signals after every in-memory mutation. Signals coalesce.
func (b *Board) Changes() <-chan struct{} {
	return b.changes
}

func (b *Board) notify() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

// Load fetches statuses and items for listID and replaces the board wholesale.
// When a newer Load starts before this one finishes, this result is discarded.
func (b *Board) Load(ctx context.Context, listID string) error {
	listID = strings.TrimSpace(listID)
	if listID == "" {
		return domain.ErrInvalidID
	}
	if err := b.deps.requireUser(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	b.loadSeq++
	seq := b.loadSeq
	b.mu.Unlock()

	list, err := b.deps.Store.GetJobList(ctx, listID)
	if err != nil {
		return storeErr("get list", err)
	}
	statuses, err := b.deps.Store.ListStatuses(ctx, listID)
	if err != nil {
		return storeErr("list statuses", err)
	}
	items, err := b.deps.Store.ListItems(ctx, listID)
	if err != nil {
		return storeErr("list items", err)
	}
	domain.SortStatuses(statuses)
	domain.SortItems(items)

	b.mu.Lock()
	if seq != b.loadSeq {
		b.mu.Unlock()
		b.deps.Logger.Debug("discarding superseded board load", "list_id", listID)
		return nil
	}
	b.list = list
	b.statuses = statuses
	b.items = items
	b.mu.Unlock()

	b.notify()
	return nil
}

// Reset clears the board, e.g. after its list was deleted. In-flight loads are discarded.
func (b *Board) Reset() {
	b.mu.Lock()
	b.loadSeq++
	b.list = domain.JobList{}
	b.statuses = nil
	b.items = nil
	b.mu.Unlock()
	b.notify()
}

// List returns the loaded list.
func (b *Board) List() (domain.JobList, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.list, b.list.ID != ""
}

// Statuses returns the columns left to right.
func (b *Board) Statuses() []domain.JobStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.statuses)
}

// Items returns every card on the board ordered by rank.
func (b *Board) Items() []domain.JobItem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.items)
}

// ColumnItems returns the cards of one column in display order.
func (b *Board) ColumnItems(statusID string) []domain.JobItem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return domain.ColumnItems(b.items, statusID)
}

// Item returns one card by id.
func (b *Board) Item(id string) (domain.JobItem, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := b.indexOf(id)
	if idx < 0 {
		return domain.JobItem{}, false
	}
	return b.items[idx], true
}

func (b *Board) indexOf(id string) int {
	return slices.IndexFunc(b.items, func(item domain.JobItem) bool {
		return item.ID == id
	})
}

func (b *Board) hasStatus(statusID string) bool {
	return slices.ContainsFunc(b.statuses, func(status domain.JobStatus) bool {
		return status.ID == statusID
	})
}

// CreateItem inserts a card at the top of the first column and prepends it on success.
func (b *Board) CreateItem(ctx context.Context, fields domain.JobItemFields) (domain.JobItem, error) {
	fields, err := fields.Normalize()
	if err != nil {
		return domain.JobItem{}, err
	}

	b.mu.RLock()
	listID := b.list.ID
	if listID == "" {
		b.mu.RUnlock()
		return domain.JobItem{}, ErrNoListLoaded
	}
	if len(b.statuses) == 0 {
		b.mu.RUnlock()
		return domain.JobItem{}, ErrNoStatuses
	}
	statusID := b.statuses[0].ID
	order := domain.InsertionOrder(domain.ColumnItems(b.items, statusID), 0)
	b.mu.RUnlock()

	item, err := b.deps.Store.InsertItem(ctx, domain.JobItemInput{
		ListID:    listID,
		StatusID:  statusID,
		SortOrder: order,
		Fields:    fields,
	})
	if err != nil {
		return domain.JobItem{}, storeErr("insert item", err)
	}

	b.mu.Lock()
	if b.list.ID == listID {
		b.items = append([]domain.JobItem{item}, b.items...)
		domain.SortItems(b.items)
	}
	b.mu.Unlock()
	b.notify()
	return item, nil
}

// UpdateItem persists field edits, then patches the in-memory card. Placement is untouched.
func (b *Board) UpdateItem(ctx context.Context, id string, fields domain.JobItemFields) (domain.JobItem, error) {
	current, ok := b.Item(id)
	if !ok {
		return domain.JobItem{}, ErrStaleReference
	}
	patch := domain.FieldsPatch(fields)
	next := current
	if err := next.Apply(patch); err != nil {
		return domain.JobItem{}, err
	}
	if err := b.deps.Store.UpdateItem(ctx, id, domain.FieldsPatch(next.Fields())); err != nil {
		return domain.JobItem{}, storeErr("update item", err)
	}

	b.mu.Lock()
	idx := b.indexOf(id)
	if idx < 0 {
		b.mu.Unlock()
		return domain.JobItem{}, ErrStaleReference
	}
	if err := b.items[idx].Apply(domain.FieldsPatch(next.Fields())); err != nil {
		b.mu.Unlock()
		return domain.JobItem{}, err
	}
	updated := b.items[idx]
	b.mu.Unlock()
	b.notify()
	return updated, nil
}

// DeleteItem removes the card immediately, then deletes it from the store.
// A failed delete reloads the whole list to resynchronize.
func (b *Board) DeleteItem(ctx context.Context, id string) error {
	b.mu.Lock()
	idx := b.indexOf(id)
	if idx < 0 {
		b.mu.Unlock()
		return ErrStaleReference
	}
	listID := b.list.ID
	b.items = slices.Delete(b.items, idx, idx+1)
	b.mu.Unlock()
	b.notify()

	if err := b.deps.Store.DeleteItem(ctx, id); err != nil {
		b.deps.Logger.Warn("delete failed, reloading list", "item_id", id, "err", err)
		if reloadErr := b.Load(ctx, listID); reloadErr != nil {
			b.deps.Logger.Error("reload after failed delete", "list_id", listID, "err", reloadErr)
		}
		return storeErr("delete item", err)
	}
	return nil
}

// Placement is a card's column and rank.
type Placement struct {
	StatusID  string
	SortOrder float64
}

// Plan is the outcome of placing a card at a display index.
type Plan struct {
	ItemID         string
	From           Placement
	To             Placement
	NoOp           bool
	NeedsRebalance bool
}

// PlanPlacement computes where itemID lands when dropped at index of statusID. index counts the
// column in display order with the card still where it currently sits, so dropping a card on its
// own slot is a no-op.
func (b *Board) PlanPlacement(itemID, statusID string, index int) (Plan, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	idx := b.indexOf(itemID)
	if idx < 0 {
		return Plan{}, ErrStaleReference
	}
	if !b.hasStatus(statusID) {
		return Plan{}, domain.ErrInvalidStatusID
	}
	item := b.items[idx]
	column := domain.ColumnItems(b.items, statusID)

	sameColumn := item.StatusID == statusID
	pos := -1
	if sameColumn {
		pos = slices.IndexFunc(column, func(it domain.JobItem) bool { return it.ID == itemID })
		if index > pos {
			index--
		}
		column = slices.Delete(column, pos, pos+1)
	}
	index = max(0, min(index, len(column)))

	var order float64
	if sameColumn && index == pos {
		order = item.SortOrder
	} else {
		order = domain.InsertionOrder(column, index)
	}

	plan := Plan{
		ItemID: itemID,
		From:   Placement{StatusID: item.StatusID, SortOrder: item.SortOrder},
		To:     Placement{StatusID: statusID, SortOrder: order},
	}
	plan.NoOp = sameColumn && math.Abs(item.SortOrder-order) < noOpTolerance
	if !plan.NoOp {
		plan.NeedsRebalance = domain.NeedsRebalance(order) || domain.OrderCollides(column, index, order)
	}
	return plan, nil
}

// MoveItem optimistically places the card and persists the placement, rolling back on failure.
func (b *Board) MoveItem(ctx context.Context, id, statusID string, order float64) error {
	move, err := b.BeginMove(id, statusID, order)
	if err != nil {
		return err
	}
	return move.Commit(ctx)
}

// BeginMove applies the placement in memory and returns the command that persists it.
func (b *Board) BeginMove(id, statusID string, order float64) (*Move, error) {
	b.mu.Lock()
	idx := b.indexOf(id)
	if idx < 0 {
		b.mu.Unlock()
		return nil, ErrStaleReference
	}
	prior := b.items[idx]
	next := prior
	if err := next.Place(statusID, order); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	b.items[idx] = next
	domain.SortItems(b.items)
	b.mu.Unlock()
	b.notify()

	return &Move{
		board:  b,
		itemID: id,
		from:   Placement{StatusID: prior.StatusID, SortOrder: prior.SortOrder},
		to:     Placement{StatusID: next.StatusID, SortOrder: next.SortOrder},
	}, nil
}

// restore puts a card back to p in one replacement.
func (b *Board) restore(id string, p Placement) {
	b.mu.Lock()
	idx := b.indexOf(id)
	if idx < 0 {
		b.mu.Unlock()
		return
	}
	b.items[idx].StatusID = p.StatusID
	b.items[idx].SortOrder = p.SortOrder
	domain.SortItems(b.items)
	b.mu.Unlock()
	b.notify()
}

// ApplyRanks writes rebalanced ranks for cards that still match their change.
func (b *Board) ApplyRanks(changes []domain.RankChange) {
	if len(changes) == 0 {
		return
	}
	b.mu.Lock()
	for _, c := range changes {
		idx := b.indexOf(c.ID)
		if idx < 0 || !c.Matches(b.items[idx]) {
			continue
		}
		b.items[idx].SortOrder = c.To
	}
	domain.SortItems(b.items)
	b.mu.Unlock()
	b.notify()
}
