package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewJobItemNormalizesFields(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.FixedZone("X", 3600))
	item, err := NewJobItem("i1", JobItemInput{
		ListID:    " l1 ",
		StatusID:  "s1",
		SortOrder: 0.5,
		Fields: JobItemFields{
			Title:   "  Backend Engineer ",
			Company: " Acme",
			Notes:   "\nreferral from Sam\n",
		},
	}, now)
	if err != nil {
		t.Fatalf("NewJobItem() error = %v", err)
	}
	if item.Title != "Backend Engineer" || item.Company != "Acme" || item.Notes != "referral from Sam" {
		t.Fatalf("fields not trimmed: %#v", item)
	}
	if item.ListID != "l1" || item.SortOrder != 0.5 {
		t.Fatalf("unexpected placement %#v", item)
	}
	if item.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", item.CreatedAt.Location())
	}
}

func TestJobItemFieldValidation(t *testing.T) {
	cases := []struct {
		name   string
		fields JobItemFields
		field  string
		target error
	}{
		{name: "missing title", fields: JobItemFields{Title: "  ", Company: "Acme"}, field: "title", target: ErrRequired},
		{name: "missing company", fields: JobItemFields{Title: "SRE"}, field: "company", target: ErrRequired},
		{name: "long title", fields: JobItemFields{Title: strings.Repeat("x", MaxTitleLen+1), Company: "Acme"}, field: "title", target: ErrTooLong},
		{name: "long notes", fields: JobItemFields{Title: "SRE", Company: "Acme", Notes: strings.Repeat("n", MaxNotesLen+1)}, field: "notes", target: ErrTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.fields.Normalize()
			if !errors.Is(err, tc.target) {
				t.Fatalf("Normalize() error = %v, want %v", err, tc.target)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("expected validation error on %q, got %v", tc.field, err)
			}
			if !IsValidation(err) {
				t.Fatal("IsValidation() = false")
			}
		})
	}
}

func TestJobItemApplyPatch(t *testing.T) {
	item := JobItem{ID: "i1", ListID: "l1", StatusID: "s1", Title: "SRE", Company: "Acme", SortOrder: 10}

	notes := "  phone screen booked "
	if err := item.Apply(JobItemPatch{Notes: &notes}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if item.Notes != "phone screen booked" || item.StatusID != "s1" || item.SortOrder != 10 {
		t.Fatalf("unexpected item after notes patch %#v", item)
	}

	if err := item.Apply(PlacementPatch("s2", 2.5)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if item.StatusID != "s2" || item.SortOrder != 2.5 {
		t.Fatalf("unexpected placement %#v", item)
	}

	empty := ""
	before := item
	if err := item.Apply(JobItemPatch{Company: &empty}); !errors.Is(err, ErrRequired) {
		t.Fatalf("Apply() error = %v, want ErrRequired", err)
	}
	if item != before {
		t.Fatal("rejected patch must not modify the item")
	}
}

func TestColumnItemsStableOnTies(t *testing.T) {
	items := []JobItem{
		{ID: "a", StatusID: "s1", SortOrder: 2},
		{ID: "b", StatusID: "s2", SortOrder: 1},
		{ID: "c", StatusID: "s1", SortOrder: 1},
		{ID: "d", StatusID: "s1", SortOrder: 2},
	}
	got := ColumnItems(items, "s1")
	ids := make([]string, 0, len(got))
	for _, item := range got {
		ids = append(ids, item.ID)
	}
	if strings.Join(ids, ",") != "c,a,d" {
		t.Fatalf("ColumnItems() order = %v, want c,a,d", ids)
	}
}

func TestNewJobListTitleRules(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	if _, err := NewJobList("l1", "   ", now); !errors.Is(err, ErrRequired) {
		t.Fatalf("NewJobList() error = %v, want ErrRequired", err)
	}
	if _, err := NewJobList("l1", strings.Repeat("q", MaxListTitleLen+1), now); !errors.Is(err, ErrTooLong) {
		t.Fatalf("NewJobList() error = %v, want ErrTooLong", err)
	}
	list, err := NewJobList("l1", " Fall 2026 search ", now)
	if err != nil {
		t.Fatalf("NewJobList() error = %v", err)
	}
	if list.Title != "Fall 2026 search" {
		t.Fatalf("unexpected title %q", list.Title)
	}
}

func TestSortStatuses(t *testing.T) {
	statuses := []JobStatus{{ID: "c", Order: 2}, {ID: "a", Order: 0}, {ID: "b", Order: 1}}
	SortStatuses(statuses)
	if statuses[0].ID != "a" || statuses[2].ID != "c" {
		t.Fatalf("unexpected order %#v", statuses)
	}
}
