package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/skadi/internal/app"
	"github.com/hylla/skadi/internal/domain"
)

// BoardService is the list/board surface the MCP tools call.
type BoardService interface {
	ListJobLists(context.Context) ([]JobList, error)
	CreateJobList(context.Context, CreateListRequest) (JobList, error)
	GetBoard(context.Context, string) (Board, error)
	CreateJobItem(context.Context, CreateJobItemRequest) (JobItem, error)
	MoveJobItem(context.Context, MoveJobItemRequest) (JobItem, error)
	RebalanceStatus(context.Context, string, string) (Board, error)
}

// CreateJobItemRequest adds a card to the top of a list's first column.
type CreateJobItemRequest struct {
	ListID   string `json:"list_id" validate:"required"`
	Title    string `json:"title" validate:"required,max=100"`
	Company  string `json:"company" validate:"required,max=100"`
	Location string `json:"location,omitempty" validate:"max=200"`
	Link     string `json:"link,omitempty" validate:"max=2048"`
	Notes    string `json:"notes,omitempty" validate:"max=1000"`
}

// MoveJobItemRequest places a card at a display index of a column.
type MoveJobItemRequest struct {
	ListID   string `json:"list_id" validate:"required"`
	ItemID   string `json:"item_id" validate:"required"`
	StatusID string `json:"status_id" validate:"required"`
	Index    int    `json:"index" validate:"min=0"`
}

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service  *app.Service
	validate *Validator
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{
		service:  service,
		validate: NewValidator(),
	}
}

// ListJobLists returns every list, oldest first.
func (a *AppServiceAdapter) ListJobLists(ctx context.Context) ([]JobList, error) {
	lists, err := a.service.ListJobLists(ctx)
	if err != nil {
		return nil, mapAppError("list job lists", err)
	}
	out := make([]JobList, 0, len(lists))
	for _, list := range lists {
		out = append(out, FromJobList(list))
	}
	return out, nil
}

// CreateJobList creates a list with the default columns.
func (a *AppServiceAdapter) CreateJobList(ctx context.Context, in CreateListRequest) (JobList, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := a.validate.Struct(in); err != nil {
		return JobList{}, err
	}
	list, err := a.service.CreateJobList(ctx, in.Title)
	if err != nil {
		return JobList{}, mapAppError("create job list", err)
	}
	return FromJobList(list), nil
}

// GetBoard returns one list with its columns and cards.
func (a *AppServiceAdapter) GetBoard(ctx context.Context, listID string) (Board, error) {
	listID = strings.TrimSpace(listID)
	if listID == "" {
		return Board{}, fmt.Errorf("%w: list_id is required", ErrInvalidRequest)
	}
	snapshot, err := a.service.LoadBoard(ctx, listID)
	if err != nil {
		return Board{}, mapAppError("get board", err)
	}
	return FromBoard(snapshot.List, snapshot.Statuses, snapshot.Items), nil
}

// CreateJobItem adds a card at the top of the first column.
func (a *AppServiceAdapter) CreateJobItem(ctx context.Context, in CreateJobItemRequest) (JobItem, error) {
	if err := a.validate.Struct(in); err != nil {
		return JobItem{}, err
	}
	item, err := a.service.CreateJobItem(ctx, strings.TrimSpace(in.ListID), domain.JobItemFields{
		Title:    in.Title,
		Company:  in.Company,
		Location: in.Location,
		Link:     in.Link,
		Notes:    in.Notes,
	})
	if err != nil {
		return JobItem{}, mapAppError("create job item", err)
	}
	return FromJobItem(item), nil
}

// MoveJobItem places a card and rebalances its new column when needed.
func (a *AppServiceAdapter) MoveJobItem(ctx context.Context, in MoveJobItemRequest) (JobItem, error) {
	if err := a.validate.Struct(in); err != nil {
		return JobItem{}, err
	}
	item, err := a.service.MoveJobItem(ctx, in.ListID, in.ItemID, in.StatusID, in.Index)
	if err != nil {
		return JobItem{}, mapAppError("move job item", err)
	}
	return FromJobItem(item), nil
}

// RebalanceStatus rewrites every rank of one column.
func (a *AppServiceAdapter) RebalanceStatus(ctx context.Context, listID, statusID string) (Board, error) {
	snapshot, err := a.service.RebalanceStatus(ctx, strings.TrimSpace(listID), strings.TrimSpace(statusID))
	if err != nil {
		return Board{}, mapAppError("rebalance status", err)
	}
	return FromBoard(snapshot.List, snapshot.Statuses, snapshot.Items), nil
}

// mapAppError converts app and domain failures into transport sentinels.
func mapAppError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrUnauthenticated):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrUnauthorized, err))
	case errors.Is(err, app.ErrNotFound), errors.Is(err, app.ErrStaleReference):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrNotFound, err))
	case domain.IsValidation(err),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidStatusID),
		errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, app.ErrNoStatuses):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
