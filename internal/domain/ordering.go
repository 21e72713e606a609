package domain

import (
	"strconv"
	"strings"
)

// SeedOrder is the rank given to the first card of an empty column.
const SeedOrder = 1.0

// RebalanceSpacing is the gap between consecutive ranks after a rebalance.
const RebalanceSpacing = 10.0

// maxFractionDigits is how many decimal places a rank may carry before it is rewritten.
const maxFractionDigits = 6

// InsertionOrder returns the rank for a card inserted at index into items, which must
// already be sorted by SortOrder. index is clamped to [0, len(items)].
func InsertionOrder(items []JobItem, index int) float64 {
	n := len(items)
	if n == 0 {
		return SeedOrder
	}
	if index <= 0 {
		return items[0].SortOrder / 2
	}
	if index >= n {
		return items[n-1].SortOrder + 1
	}
	prev := items[index-1].SortOrder
	next := items[index].SortOrder
	return (prev + next) / 2
}

// NeedsRebalance reports whether order carries more than six decimal places.
// Whole numbers never do.
func NeedsRebalance(order float64) bool {
	s := strconv.FormatFloat(order, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return false
	}
	return len(s)-dot-1 > maxFractionDigits
}

// OrderCollides reports whether order equals the rank of a neighbour at the insertion
// point. Midpoints between equal ranks land here and can only be fixed by a rebalance.
func OrderCollides(items []JobItem, index int, order float64) bool {
	if index > 0 && index-1 < len(items) && items[index-1].SortOrder == order {
		return true
	}
	if index >= 0 && index < len(items) && items[index].SortOrder == order {
		return true
	}
	return false
}

// RebalancedOrders returns clean ranks (1-based position x 10) for items, keyed by id.
// items must be sorted; their relative order is preserved exactly.
func RebalancedOrders(items []JobItem) map[string]float64 {
	out := make(map[string]float64, len(items))
	for idx, item := range items {
		out[item.ID] = float64(idx+1) * RebalanceSpacing
	}
	return out
}

// RankChange rewrites one card's rank. It only applies while the card still sits in StatusID
// at rank From, so a card moved after the change was computed keeps its newer placement.
type RankChange struct {
	ID       string
	StatusID string
	From     float64
	To       float64
}

// Matches reports whether item is still where the change expects it.
func (c RankChange) Matches(item JobItem) bool {
	return item.ID == c.ID && item.StatusID == c.StatusID && item.SortOrder == c.From
}

// RankChanges returns the rebalanced ranks of statusID's sorted items, skipping cards
// whose rank would not change.
func RankChanges(statusID string, items []JobItem) []RankChange {
	orders := RebalancedOrders(items)
	out := make([]RankChange, 0, len(items))
	for _, item := range items {
		to := orders[item.ID]
		if item.SortOrder == to {
			continue
		}
		out = append(out, RankChange{ID: item.ID, StatusID: statusID, From: item.SortOrder, To: to})
	}
	return out
}
