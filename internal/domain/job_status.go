package domain

import (
	"slices"
	"strings"
	"time"
)

// JobStatus is one column of a job list. Order fixes its left-to-right position.
type JobStatus struct {
	ID        string
	ListID    string
	Title     string
	Order     int
	CreatedAt time.Time
}

// NewJobStatus constructs a status column.
func NewJobStatus(id, listID, title string, order int, now time.Time) (JobStatus, error) {
	id = strings.TrimSpace(id)
	listID = strings.TrimSpace(listID)
	title = strings.TrimSpace(title)
	if id == "" || listID == "" {
		return JobStatus{}, ErrInvalidID
	}
	if title == "" {
		return JobStatus{}, &ValidationError{Field: "title", Err: ErrRequired}
	}
	if order < 0 {
		return JobStatus{}, ErrInvalidPosition
	}
	return JobStatus{
		ID:        id,
		ListID:    listID,
		Title:     title,
		Order:     order,
		CreatedAt: now.UTC(),
	}, nil
}

// SortStatuses orders columns left to right.
func SortStatuses(statuses []JobStatus) {
	slices.SortStableFunc(statuses, func(a, b JobStatus) int {
		return a.Order - b.Order
	})
}
