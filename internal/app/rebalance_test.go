package app

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/hylla/skadi/internal/domain"
)

func loadedBoard(t *testing.T, store *fakeStore, metrics *fakeMetrics) *Board {
	t.Helper()
	board := NewBoard(Deps{Store: store, Metrics: metrics})
	if err := board.Load(context.Background(), "l1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return board
}

func columnOrders(board *Board, statusID string) []float64 {
	items := board.ColumnItems(statusID)
	out := make([]float64, 0, len(items))
	for _, item := range items {
		out = append(out, item.SortOrder)
	}
	return out
}

func TestRebalanceColumnSpacesRanksAndIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.seed("l1", "s1")
	store.seedItem("l1", "s1", "a", 0.001)
	store.seedItem("l1", "s1", "b", 0.002)
	store.seedItem("l1", "s1", "c", 0.0035)
	metrics := &fakeMetrics{}
	board := loadedBoard(t, store, metrics)
	rebalancer := NewRebalancer(board, Deps{Store: store, Metrics: metrics}, 0)

	if err := rebalancer.RebalanceColumn(context.Background(), "s1"); err != nil {
		t.Fatalf("RebalanceColumn() error = %v", err)
	}
	if got := columnIDs(board.ColumnItems("s1")); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("relative order changed: %v", got)
	}
	if got := columnOrders(board, "s1"); !slices.Equal(got, []float64{10, 20, 30}) {
		t.Fatalf("rebalanced orders = %v, want [10 20 30]", got)
	}
	if len(store.upserts) != 1 || len(store.upserts[0]) != 3 {
		t.Fatalf("expected one bulk upsert of 3 items, got %v", store.upserts)
	}
	if store.stored("c").SortOrder != 30 {
		t.Fatalf("store not updated: %#v", store.stored("c"))
	}

	if err := rebalancer.RebalanceColumn(context.Background(), "s1"); err != nil {
		t.Fatalf("second RebalanceColumn() error = %v", err)
	}
	if got := columnOrders(board, "s1"); !slices.Equal(got, []float64{10, 20, 30}) {
		t.Fatalf("second rebalance orders = %v", got)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("second rebalance wrote %d more upserts", len(store.upserts)-1)
	}
}

func TestRebalanceFailureKeepsBoard(t *testing.T) {
	store := newFakeStore()
	store.seed("l1", "s1")
	store.seedItem("l1", "s1", "a", 0.001)
	store.seedItem("l1", "s1", "b", 0.002)
	store.upsertErr = errors.New("timeout")
	metrics := &fakeMetrics{}
	board := loadedBoard(t, store, metrics)

	err := NewRebalancer(board, Deps{Store: store, Metrics: metrics}, 0).RebalanceColumn(context.Background(), "s1")
	if !IsStoreError(err) {
		t.Fatalf("RebalanceColumn() error = %v, want StoreError", err)
	}
	if got := columnOrders(board, "s1"); !slices.Equal(got, []float64{0.001, 0.002}) {
		t.Fatalf("failed rebalance changed board: %v", got)
	}
	if len(metrics.rebalances) != 1 || metrics.rebalances[0] == nil {
		t.Fatalf("expected failed rebalance metric, got %v", metrics.rebalances)
	}
}

func TestScheduleSnapshotsColumnWhenItRuns(t *testing.T) {
	store := newFakeStore()
	store.seed("l1", "s1", "s2")
	store.seedItem("l1", "s1", "a", 0.001)
	store.seedItem("l1", "s1", "b", 0.002)
	store.seedItem("l1", "s2", "c", 7)
	board := loadedBoard(t, store, nil)
	rebalancer := NewRebalancer(board, Deps{Store: store}, 30*time.Millisecond)

	rebalancer.Schedule("s1")
	if err := board.MoveItem(context.Background(), "c", "s1", 0.0015); err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}
	rebalancer.Wait()

	if got := columnIDs(board.ColumnItems("s1")); !slices.Equal(got, []string{"a", "c", "b"}) {
		t.Fatalf("s1 column = %v", got)
	}
	if got := columnOrders(board, "s1"); !slices.Equal(got, []float64{10, 20, 30}) {
		t.Fatalf("s1 orders = %v, want [10 20 30]", got)
	}
}

func TestApplyRanksSkipsCardsThatMoved(t *testing.T) {
	store := newFakeStore()
	store.seed("l1", "s1", "s2")
	store.seedItem("l1", "s1", "a", 1)
	store.seedItem("l1", "s1", "b", 2)
	board := loadedBoard(t, store, nil)

	if err := board.MoveItem(context.Background(), "b", "s2", 1); err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}
	board.ApplyRanks([]domain.RankChange{
		{ID: "a", StatusID: "s1", From: 1, To: 10},
		{ID: "b", StatusID: "s1", From: 2, To: 20},
	})

	b, _ := board.Item("b")
	if b.StatusID != "s2" || b.SortOrder != 1 {
		t.Fatalf("moved card was rewritten: %#v", b)
	}
	a, _ := board.Item("a")
	if a.SortOrder != 10 {
		t.Fatalf("a.SortOrder = %v, want 10", a.SortOrder)
	}
}

func TestRebalanceKeepsMoveThatLandsBeforeWrite(t *testing.T) {
	cases := []struct {
		name       string
		toStatus   string
		toOrder    float64
		wantStatus string
		wantOrder  float64
	}{
		{name: "moved to other column", toStatus: "s2", toOrder: 1, wantStatus: "s2", wantOrder: 1},
		{name: "reranked in same column", toStatus: "s1", toOrder: 0.0005, wantStatus: "s1", wantOrder: 0.0005},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			store.seed("l1", "s1", "s2")
			store.seedItem("l1", "s1", "a", 0.001)
			store.seedItem("l1", "s1", "b", 0.002)
			store.seedItem("l1", "s1", "x", 0.0035)
			board := loadedBoard(t, store, nil)
			store.beforeUpsert = func() {
				store.beforeUpsert = nil
				if err := board.MoveItem(context.Background(), "x", tc.toStatus, tc.toOrder); err != nil {
					t.Errorf("MoveItem() error = %v", err)
				}
			}

			if err := NewRebalancer(board, Deps{Store: store}, 0).RebalanceColumn(context.Background(), "s1"); err != nil {
				t.Fatalf("RebalanceColumn() error = %v", err)
			}

			mem, _ := board.Item("x")
			stored := store.stored("x")
			if mem.StatusID != stored.StatusID || mem.SortOrder != stored.SortOrder {
				t.Fatalf("board %s/%v and store %s/%v disagree", mem.StatusID, mem.SortOrder, stored.StatusID, stored.SortOrder)
			}
			if mem.StatusID != tc.wantStatus || mem.SortOrder != tc.wantOrder {
				t.Fatalf("x = %s/%v, want %s/%v", mem.StatusID, mem.SortOrder, tc.wantStatus, tc.wantOrder)
			}
			for id, want := range map[string]float64{"a": 10, "b": 20} {
				item, _ := board.Item(id)
				if item.SortOrder != want || store.stored(id).SortOrder != want {
					t.Fatalf("%s: board %v store %v, want %v", id, item.SortOrder, store.stored(id).SortOrder, want)
				}
			}
		})
	}
}
