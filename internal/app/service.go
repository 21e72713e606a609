package app

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/hylla/skadi/internal/domain"
)

// DefaultStatuses are the columns a new list starts with.
var DefaultStatuses = []string{"Saved", "Applied", "Interviewing", "Offered"}

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	DefaultStatuses []string
}

// Service runs list and board operations for callers without a long-lived board (CLI, MCP).
type Service struct {
	deps     Deps
	statuses []string
}

// NewService constructs a new value for this package.
func NewService(deps Deps, cfg ServiceConfig) *Service {
	statuses := sanitizeStatuses(cfg.DefaultStatuses)
	if len(statuses) == 0 {
		statuses = slices.Clone(DefaultStatuses)
	}
	return &Service{
		deps:     deps.withDefaults(),
		statuses: statuses,
	}
}

func sanitizeStatuses(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, raw := range in {
		title := strings.TrimSpace(raw)
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, title)
	}
	return out
}

// ListJobLists returns every list, oldest first.
func (s *Service) ListJobLists(ctx context.Context) ([]domain.JobList, error) {
	if err := s.deps.requireUser(ctx); err != nil {
		return nil, err
	}
	lists, err := s.deps.Store.ListJobLists(ctx)
	if err != nil {
		return nil, storeErr("list lists", err)
	}
	return lists, nil
}

// CreateJobList creates a list with the default status columns.
func (s *Service) CreateJobList(ctx context.Context, title string) (domain.JobList, error) {
	if err := s.deps.requireUser(ctx); err != nil {
		return domain.JobList{}, err
	}
	title, err := domain.NormalizeListTitle(title)
	if err != nil {
		return domain.JobList{}, err
	}
	list, err := s.deps.Store.InsertJobList(ctx, title)
	if err != nil {
		return domain.JobList{}, storeErr("insert list", err)
	}
	for idx, name := range s.statuses {
		if _, err := s.deps.Store.InsertStatus(ctx, list.ID, name, idx); err != nil {
			if delErr := s.deps.Store.DeleteJobList(ctx, list.ID); delErr != nil {
				s.deps.Logger.Error("cleanup of partial list failed", "list_id", list.ID, "err", delErr)
			}
			return domain.JobList{}, storeErr("insert status", err)
		}
	}
	s.deps.Logger.Info("job list created", "list_id", list.ID, "title", list.Title)
	return list, nil
}

// DeleteJobList removes a list with its statuses and items.
func (s *Service) DeleteJobList(ctx context.Context, listID string) error {
	if err := s.deps.requireUser(ctx); err != nil {
		return err
	}
	if err := s.deps.Store.DeleteJobList(ctx, listID); err != nil {
		return storeErr("delete list", err)
	}
	s.deps.Logger.Info("job list deleted", "list_id", listID)
	return nil
}

// BoardSnapshot is one list with its columns and cards in display order.
type BoardSnapshot struct {
	List     domain.JobList
	Statuses []domain.JobStatus
	Items    []domain.JobItem
}

// Column returns the cards of statusID in display order.
func (b BoardSnapshot) Column(statusID string) []domain.JobItem {
	return domain.ColumnItems(b.Items, statusID)
}

func (s *Service) openBoard(ctx context.Context, listID string) (*Board, error) {
	board := NewBoard(s.deps)
	if err := board.Load(ctx, listID); err != nil {
		return nil, err
	}
	return board, nil
}

// LoadBoard returns the current state of a list.
func (s *Service) LoadBoard(ctx context.Context, listID string) (BoardSnapshot, error) {
	board, err := s.openBoard(ctx, listID)
	if err != nil {
		return BoardSnapshot{}, err
	}
	list, _ := board.List()
	return BoardSnapshot{
		List:     list,
		Statuses: board.Statuses(),
		Items:    board.Items(),
	}, nil
}

// CreateJobItem adds a card at the top of the list's first column.
func (s *Service) CreateJobItem(ctx context.Context, listID string, fields domain.JobItemFields) (domain.JobItem, error) {
	if _, err := fields.Normalize(); err != nil {
		return domain.JobItem{}, err
	}
	board, err := s.openBoard(ctx, listID)
	if err != nil {
		return domain.JobItem{}, err
	}
	item, err := board.CreateItem(ctx, fields)
	if err != nil {
		return domain.JobItem{}, err
	}
	if domain.NeedsRebalance(item.SortOrder) {
		if err := NewRebalancer(board, s.deps, 0).RebalanceColumn(ctx, item.StatusID); err == nil {
			item, _ = board.Item(item.ID)
		}
	}
	return item, nil
}

// UpdateJobItem rewrites a card's fields.
func (s *Service) UpdateJobItem(ctx context.Context, itemID string, fields domain.JobItemFields) (domain.JobItem, error) {
	board, err := s.boardForItem(ctx, itemID)
	if err != nil {
		return domain.JobItem{}, err
	}
	return board.UpdateItem(ctx, itemID, fields)
}

// DeleteJobItem removes a card.
func (s *Service) DeleteJobItem(ctx context.Context, itemID string) error {
	board, err := s.boardForItem(ctx, itemID)
	if err != nil {
		return err
	}
	return board.DeleteItem(ctx, itemID)
}

func (s *Service) boardForItem(ctx context.Context, itemID string) (*Board, error) {
	if err := s.deps.requireUser(ctx); err != nil {
		return nil, err
	}
	item, err := s.deps.Store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get item", err)
	}
	return s.openBoard(ctx, item.ListID)
}

// MoveJobItem places a card at index of statusID, counted in display order with the card where it
// currently sits, and rebalances the column before returning when the new rank needs it.
func (s *Service) MoveJobItem(ctx context.Context, listID, itemID, statusID string, index int) (domain.JobItem, error) {
	board, err := s.openBoard(ctx, listID)
	if err != nil {
		return domain.JobItem{}, err
	}
	plan, err := board.PlanPlacement(itemID, statusID, index)
	if errors.Is(err, ErrStaleReference) {
		return domain.JobItem{}, ErrNotFound
	}
	if err != nil {
		return domain.JobItem{}, err
	}
	if !plan.NoOp {
		if err := board.MoveItem(ctx, itemID, plan.To.StatusID, plan.To.SortOrder); err != nil {
			return domain.JobItem{}, err
		}
		if plan.NeedsRebalance {
			if err := NewRebalancer(board, s.deps, 0).RebalanceColumn(ctx, plan.To.StatusID); err != nil {
				s.deps.Logger.Warn("rebalance after move failed", "status_id", plan.To.StatusID, "err", err)
			}
		}
	}
	item, _ := board.Item(itemID)
	return item, nil
}

// RebalanceStatus rewrites every rank in one column.
func (s *Service) RebalanceStatus(ctx context.Context, listID, statusID string) (BoardSnapshot, error) {
	board, err := s.openBoard(ctx, listID)
	if err != nil {
		return BoardSnapshot{}, err
	}
	if !slices.ContainsFunc(board.Statuses(), func(st domain.JobStatus) bool { return st.ID == statusID }) {
		return BoardSnapshot{}, domain.ErrInvalidStatusID
	}
	if err := NewRebalancer(board, s.deps, 0).RebalanceColumn(ctx, statusID); err != nil {
		return BoardSnapshot{}, err
	}
	list, _ := board.List()
	return BoardSnapshot{List: list, Statuses: board.Statuses(), Items: board.Items()}, nil
}
