package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxListTitleLen bounds a job list title.
const MaxListTitleLen = 40

// JobList is one named board.
type JobList struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// NewJobList constructs a list with a store-assigned id.
func NewJobList(id, title string, now time.Time) (JobList, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return JobList{}, ErrInvalidID
	}
	title, err := NormalizeListTitle(title)
	if err != nil {
		return JobList{}, err
	}
	return JobList{
		ID:        id,
		Title:     title,
		CreatedAt: now.UTC(),
	}, nil
}

// NormalizeListTitle trims and bounds a list title.
func NormalizeListTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Err: ErrRequired}
	}
	if utf8.RuneCountInString(title) > MaxListTitleLen {
		return "", &ValidationError{Field: "title", Limit: MaxListTitleLen, Err: ErrTooLong}
	}
	return title, nil
}
