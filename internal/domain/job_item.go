package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Field bounds for job item forms.
const (
	MaxTitleLen    = 100
	MaxCompanyLen  = 100
	MaxLocationLen = 200
	MaxLinkLen     = 2048
	MaxNotesLen    = 1000
)

// JobItem is one job application card.
type JobItem struct {
	ID        string
	ListID    string
	StatusID  string
	Title     string
	Company   string
	Location  string
	Link      string
	Notes     string
	SortOrder float64
	CreatedAt time.Time
}

// JobItemFields holds the user-editable text of a card.
type JobItemFields struct {
	Title    string
	Company  string
	Location string
	Link     string
	Notes    string
}

// JobItemInput holds the values needed to insert a card.
type JobItemInput struct {
	ListID    string
	StatusID  string
	SortOrder float64
	Fields    JobItemFields
}

// JobItemPatch is a partial update. Nil fields are left untouched.
type JobItemPatch struct {
	Title     *string
	Company   *string
	Location  *string
	Link      *string
	Notes     *string
	StatusID  *string
	SortOrder *float64
}

// Normalize trims every field and enforces required/length rules.
func (f JobItemFields) Normalize() (JobItemFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Company = strings.TrimSpace(f.Company)
	f.Location = strings.TrimSpace(f.Location)
	f.Link = strings.TrimSpace(f.Link)
	f.Notes = strings.TrimSpace(f.Notes)

	checks := []struct {
		field    string
		value    string
		limit    int
		required bool
	}{
		{"title", f.Title, MaxTitleLen, true},
		{"company", f.Company, MaxCompanyLen, true},
		{"location", f.Location, MaxLocationLen, false},
		{"link", f.Link, MaxLinkLen, false},
		{"notes", f.Notes, MaxNotesLen, false},
	}
	for _, c := range checks {
		if c.required && c.value == "" {
			return JobItemFields{}, &ValidationError{Field: c.field, Err: ErrRequired}
		}
		if utf8.RuneCountInString(c.value) > c.limit {
			return JobItemFields{}, &ValidationError{Field: c.field, Limit: c.limit, Err: ErrTooLong}
		}
	}
	return f, nil
}

// NewJobItem constructs a card with a store-assigned id.
func NewJobItem(id string, in JobItemInput, now time.Time) (JobItem, error) {
	id = strings.TrimSpace(id)
	in.ListID = strings.TrimSpace(in.ListID)
	in.StatusID = strings.TrimSpace(in.StatusID)
	if id == "" || in.ListID == "" {
		return JobItem{}, ErrInvalidID
	}
	if in.StatusID == "" {
		return JobItem{}, ErrInvalidStatusID
	}
	fields, err := in.Fields.Normalize()
	if err != nil {
		return JobItem{}, err
	}
	item := JobItem{
		ID:        id,
		ListID:    in.ListID,
		StatusID:  in.StatusID,
		SortOrder: in.SortOrder,
		CreatedAt: now.UTC(),
	}
	item.setFields(fields)
	return item, nil
}

// Fields returns the editable text of the card.
func (t JobItem) Fields() JobItemFields {
	return JobItemFields{
		Title:    t.Title,
		Company:  t.Company,
		Location: t.Location,
		Link:     t.Link,
		Notes:    t.Notes,
	}
}

// Place moves the card to a column at the given rank.
func (t *JobItem) Place(statusID string, order float64) error {
	statusID = strings.TrimSpace(statusID)
	if statusID == "" {
		return ErrInvalidStatusID
	}
	t.StatusID = statusID
	t.SortOrder = order
	return nil
}

// Apply validates the patch against the current item and writes it.
func (t *JobItem) Apply(p JobItemPatch) error {
	fields := t.Fields()
	if p.Title != nil {
		fields.Title = *p.Title
	}
	if p.Company != nil {
		fields.Company = *p.Company
	}
	if p.Location != nil {
		fields.Location = *p.Location
	}
	if p.Link != nil {
		fields.Link = *p.Link
	}
	if p.Notes != nil {
		fields.Notes = *p.Notes
	}
	fields, err := fields.Normalize()
	if err != nil {
		return err
	}
	statusID, order := t.StatusID, t.SortOrder
	if p.StatusID != nil {
		statusID = *p.StatusID
	}
	if p.SortOrder != nil {
		order = *p.SortOrder
	}
	if err := t.Place(statusID, order); err != nil {
		return err
	}
	t.setFields(fields)
	return nil
}

func (t *JobItem) setFields(f JobItemFields) {
	t.Title = f.Title
	t.Company = f.Company
	t.Location = f.Location
	t.Link = f.Link
	t.Notes = f.Notes
}

// FieldsPatch builds a patch that rewrites every editable field and leaves placement alone.
func FieldsPatch(f JobItemFields) JobItemPatch {
	return JobItemPatch{
		Title:    &f.Title,
		Company:  &f.Company,
		Location: &f.Location,
		Link:     &f.Link,
		Notes:    &f.Notes,
	}
}

// PlacementPatch builds the single patch a move writes: column and rank together.
func PlacementPatch(statusID string, order float64) JobItemPatch {
	return JobItemPatch{
		StatusID:  &statusID,
		SortOrder: &order,
	}
}

// TouchesPlacement reports whether the patch changes column or rank.
func (p JobItemPatch) TouchesPlacement() bool {
	return p.StatusID != nil || p.SortOrder != nil
}

// SortItems orders cards by rank. Ties keep their existing relative order.
func SortItems(items []JobItem) {
	slices.SortStableFunc(items, func(a, b JobItem) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
}

// ColumnItems returns the cards of one column in display order.
func ColumnItems(items []JobItem, statusID string) []JobItem {
	out := make([]JobItem, 0, len(items))
	for _, item := range items {
		if item.StatusID == statusID {
			out = append(out, item)
		}
	}
	SortItems(out)
	return out
}
