package app

import (
	"context"

	"github.com/hylla/skadi/internal/domain"
)

// Move is an optimistic placement already visible on the board and not yet persisted.
type Move struct {
	board  *Board
	itemID string
	from   Placement
	to     Placement
}

// ItemID returns the moved card.
func (m *Move) ItemID() string { return m.itemID }

// From returns the placement captured before the move.
func (m *Move) From() Placement { return m.from }

// To returns the optimistic placement.
func (m *Move) To() Placement { return m.to }

// Commit writes status and rank in a single update. On failure the card is put back to
// its prior placement and a *StoreError is returned. Commit is not retried.
func (m *Move) Commit(ctx context.Context) error {
	deps := m.board.deps
	patch := domain.PlacementPatch(m.to.StatusID, m.to.SortOrder)
	if err := deps.Store.UpdateItem(ctx, m.itemID, patch); err != nil {
		m.board.restore(m.itemID, m.from)
		deps.Metrics.MoveRolledBack(m.to.StatusID)
		deps.Logger.Warn("move rolled back",
			"item_id", m.itemID,
			"status_id", m.to.StatusID,
			"sort_order", m.to.SortOrder,
			"err", err,
		)
		return storeErr("move item", err)
	}
	deps.Metrics.MoveCommitted(m.to.StatusID)
	deps.Logger.Debug("move committed", "item_id", m.itemID, "status_id", m.to.StatusID, "sort_order", m.to.SortOrder)
	return nil
}
