// Package common provides transport-agnostic contracts shared by the HTTP API, the MCP tools
// and the remote store client.
package common

import (
	"errors"
	"time"

	"github.com/hylla/skadi/internal/domain"
)

// ErrInvalidRequest reports malformed or rejected transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized reports calls made without a signed-in user.
var ErrUnauthorized = errors.New("unauthorized")

// JobList is the wire form of domain.JobList.
type JobList struct {
	ID        string    `json:"id" validate:"required"`
	Title     string    `json:"title" validate:"required,max=40"`
	CreatedAt time.Time `json:"created_at"`
}

// JobStatus is the wire form of domain.JobStatus.
type JobStatus struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// JobItem is the wire form of domain.JobItem.
type JobItem struct {
	ID        string    `json:"id" validate:"required"`
	ListID    string    `json:"list_id" validate:"required"`
	StatusID  string    `json:"status_id" validate:"required"`
	Title     string    `json:"title" validate:"required,max=100"`
	Company   string    `json:"company" validate:"required,max=100"`
	Location  string    `json:"location,omitempty" validate:"max=200"`
	Link      string    `json:"link,omitempty" validate:"max=2048"`
	Notes     string    `json:"notes,omitempty" validate:"max=1000"`
	SortOrder float64   `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// Board is one list with its columns and cards.
type Board struct {
	List     JobList     `json:"list"`
	Statuses []JobStatus `json:"statuses"`
	Items    []JobItem   `json:"items"`
}

// CreateListRequest is the body of POST /lists.
type CreateListRequest struct {
	Title string `json:"title" validate:"required,max=40"`
}

// CreateStatusRequest is the body of POST /lists/{id}/statuses.
type CreateStatusRequest struct {
	Title string `json:"title" validate:"required,max=100"`
	Order int    `json:"order" validate:"min=0"`
}

// CreateItemRequest is the body of POST /items.
type CreateItemRequest struct {
	ListID    string  `json:"list_id" validate:"required"`
	StatusID  string  `json:"status_id" validate:"required"`
	SortOrder float64 `json:"sort_order"`
	Title     string  `json:"title" validate:"required,max=100"`
	Company   string  `json:"company" validate:"required,max=100"`
	Location  string  `json:"location,omitempty" validate:"max=200"`
	Link      string  `json:"link,omitempty" validate:"max=2048"`
	Notes     string  `json:"notes,omitempty" validate:"max=1000"`
}

// PatchItemRequest is the body of PATCH /items/{id}. Absent fields are left untouched.
type PatchItemRequest struct {
	Title     *string  `json:"title,omitempty" validate:"omitempty,max=100"`
	Company   *string  `json:"company,omitempty" validate:"omitempty,max=100"`
	Location  *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	Link      *string  `json:"link,omitempty" validate:"omitempty,max=2048"`
	Notes     *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
	StatusID  *string  `json:"status_id,omitempty" validate:"omitempty,min=1"`
	SortOrder *float64 `json:"sort_order,omitempty"`
}

// RankChange is one guarded rank write. It applies only while the card is still in status_id at from.
type RankChange struct {
	ID       string  `json:"id" validate:"required"`
	StatusID string  `json:"status_id" validate:"required"`
	From     float64 `json:"from"`
	To       float64 `json:"to"`
}

// UpsertRanksRequest is the body of PUT /items.
type UpsertRanksRequest struct {
	Ranks []RankChange `json:"ranks" validate:"required,dive"`
}

// NewUpsertRanksRequest maps domain rank changes to their wire form.
func NewUpsertRanksRequest(changes []domain.RankChange) UpsertRanksRequest {
	out := UpsertRanksRequest{Ranks: make([]RankChange, 0, len(changes))}
	for _, c := range changes {
		out.Ranks = append(out.Ranks, RankChange{ID: c.ID, StatusID: c.StatusID, From: c.From, To: c.To})
	}
	return out
}

// Domain maps the wire form back to domain rank changes.
func (r UpsertRanksRequest) Domain() []domain.RankChange {
	out := make([]domain.RankChange, 0, len(r.Ranks))
	for _, c := range r.Ranks {
		out = append(out, domain.RankChange{ID: c.ID, StatusID: c.StatusID, From: c.From, To: c.To})
	}
	return out
}

// FromJobList maps a domain list to its wire form.
func FromJobList(list domain.JobList) JobList {
	return JobList{ID: list.ID, Title: list.Title, CreatedAt: list.CreatedAt}
}

// Domain maps the wire form back to a domain list.
func (l JobList) Domain() domain.JobList {
	return domain.JobList{ID: l.ID, Title: l.Title, CreatedAt: l.CreatedAt.UTC()}
}

// FromJobStatus maps a domain status to its wire form.
func FromJobStatus(status domain.JobStatus) JobStatus {
	return JobStatus{
		ID:        status.ID,
		ListID:    status.ListID,
		Title:     status.Title,
		Order:     status.Order,
		CreatedAt: status.CreatedAt,
	}
}

// Domain maps the wire form back to a domain status.
func (s JobStatus) Domain() domain.JobStatus {
	return domain.JobStatus{
		ID:        s.ID,
		ListID:    s.ListID,
		Title:     s.Title,
		Order:     s.Order,
		CreatedAt: s.CreatedAt.UTC(),
	}
}

// FromJobItem maps a domain item to its wire form.
func FromJobItem(item domain.JobItem) JobItem {
	return JobItem{
		ID:        item.ID,
		ListID:    item.ListID,
		StatusID:  item.StatusID,
		Title:     item.Title,
		Company:   item.Company,
		Location:  item.Location,
		Link:      item.Link,
		Notes:     item.Notes,
		SortOrder: item.SortOrder,
		CreatedAt: item.CreatedAt,
	}
}

// Domain maps the wire form back to a domain item.
func (i JobItem) Domain() domain.JobItem {
	return domain.JobItem{
		ID:        i.ID,
		ListID:    i.ListID,
		StatusID:  i.StatusID,
		Title:     i.Title,
		Company:   i.Company,
		Location:  i.Location,
		Link:      i.Link,
		Notes:     i.Notes,
		SortOrder: i.SortOrder,
		CreatedAt: i.CreatedAt.UTC(),
	}
}

// FromBoard maps a board snapshot to its wire form.
func FromBoard(list domain.JobList, statuses []domain.JobStatus, items []domain.JobItem) Board {
	out := Board{
		List:     FromJobList(list),
		Statuses: make([]JobStatus, 0, len(statuses)),
		Items:    make([]JobItem, 0, len(items)),
	}
	for _, status := range statuses {
		out.Statuses = append(out.Statuses, FromJobStatus(status))
	}
	for _, item := range items {
		out.Items = append(out.Items, FromJobItem(item))
	}
	return out
}

// Input maps the request to a domain insert.
func (r CreateItemRequest) Input() domain.JobItemInput {
	return domain.JobItemInput{
		ListID:    r.ListID,
		StatusID:  r.StatusID,
		SortOrder: r.SortOrder,
		Fields: domain.JobItemFields{
			Title:    r.Title,
			Company:  r.Company,
			Location: r.Location,
			Link:     r.Link,
			Notes:    r.Notes,
		},
	}
}

// NewCreateItemRequest maps a domain insert to the request body.
func NewCreateItemRequest(in domain.JobItemInput) CreateItemRequest {
	return CreateItemRequest{
		ListID:    in.ListID,
		StatusID:  in.StatusID,
		SortOrder: in.SortOrder,
		Title:     in.Fields.Title,
		Company:   in.Fields.Company,
		Location:  in.Fields.Location,
		Link:      in.Fields.Link,
		Notes:     in.Fields.Notes,
	}
}

// Patch maps the request to a domain patch.
func (r PatchItemRequest) Patch() domain.JobItemPatch {
	return domain.JobItemPatch{
		Title:     r.Title,
		Company:   r.Company,
		Location:  r.Location,
		Link:      r.Link,
		Notes:     r.Notes,
		StatusID:  r.StatusID,
		SortOrder: r.SortOrder,
	}
}

// NewPatchItemRequest maps a domain patch to the request body.
func NewPatchItemRequest(p domain.JobItemPatch) PatchItemRequest {
	return PatchItemRequest{
		Title:     p.Title,
		Company:   p.Company,
		Location:  p.Location,
		Link:      p.Link,
		Notes:     p.Notes,
		StatusID:  p.StatusID,
		SortOrder: p.SortOrder,
	}
}
