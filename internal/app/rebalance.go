package app

import (
	"context"
	"sync"
	"time"

	"github.com/hylla/skadi/internal/domain"
)

// DefaultRebalanceDelay is how long a scheduled rebalance waits before it snapshots the column.
const DefaultRebalanceDelay = 250 * time.Millisecond

// rebalanceTimeout bounds one background rebalance write.
const rebalanceTimeout = 10 * time.Second

// Rebalancer rewrites a column's ranks to evenly spaced values.
type Rebalancer struct {
	board *Board
	deps  Deps
	delay time.Duration

	wg sync.WaitGroup
}

// NewRebalancer constructs a rebalancer for board. A non-positive delay uses DefaultRebalanceDelay.
func NewRebalancer(board *Board, deps Deps, delay time.Duration) *Rebalancer {
	if delay <= 0 {
		delay = DefaultRebalanceDelay
	}
	return &Rebalancer{
		board: board,
		deps:  deps.withDefaults(),
		delay: delay,
	}
}

// Rebalance assigns (position+1)*10 to items, which must be every card of statusID sorted by rank.
// Changed ranks go to the store in one bulk write; the board is updated only after it succeeds.
// Only ranks are written, and a card that moved since items was read keeps its newer placement in
// both the store and the board.
func (r *Rebalancer) Rebalance(ctx context.Context, statusID string, items []domain.JobItem) error {
	changes := domain.RankChanges(statusID, items)
	if len(changes) == 0 {
		r.deps.Metrics.RebalanceFinished(statusID, 0, nil)
		return nil
	}

	if err := r.deps.Store.UpsertRanks(ctx, changes); err != nil {
		r.deps.Metrics.RebalanceFinished(statusID, len(changes), err)
		r.deps.Logger.Warn("rebalance abandoned", "status_id", statusID, "items", len(changes), "err", err)
		return storeErr("rebalance", err)
	}

	r.board.ApplyRanks(changes)
	r.deps.Metrics.RebalanceFinished(statusID, len(changes), nil)
	r.deps.Logger.Info("column rebalanced", "status_id", statusID, "items", len(changes))
	return nil
}

// RebalanceColumn snapshots the column as it is now and rebalances it.
func (r *Rebalancer) RebalanceColumn(ctx context.Context, statusID string) error {
	return r.Rebalance(ctx, statusID, r.board.ColumnItems(statusID))
}

// Schedule runs RebalanceColumn after the configured delay without blocking the caller.
// The column is read when the timer fires, not when Schedule is called.
func (r *Rebalancer) Schedule(statusID string) {
	r.wg.Add(1)
	time.AfterFunc(r.delay, func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), rebalanceTimeout)
		defer cancel()
		_ = r.RebalanceColumn(ctx, statusID)
	})
}

// Wait blocks until every scheduled rebalance has finished.
func (r *Rebalancer) Wait() {
	r.wg.Wait()
}
