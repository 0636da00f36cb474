package quality

import (
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

var istanbul = time.FixedZone("TRT", 3*60*60)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, istanbul)
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, istanbul)
}

func ids(entries []models.Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveRange_Defaults(t *testing.T) {
	r, err := ResolveRange(models.DateRangeQuery{StartDate: "2025-01-01", EndDate: "2025-01-31"}, istanbul)
	if err != nil {
		t.Fatalf("ResolveRange: %v", err)
	}
	if r.Field != FilterByDate || r.TimeQualified {
		t.Fatalf("unexpected range: %+v", r)
	}
	if !r.Start.Equal(day(2025, 1, 1)) {
		t.Fatalf("expected start at midnight, got %s", r.Start)
	}
	wantEnd := time.Date(2025, 1, 31, 23, 59, 59, int(999*time.Millisecond), istanbul)
	if !r.End.Equal(wantEnd) {
		t.Fatalf("expected end %s, got %s", wantEnd, r.End)
	}
}

func TestResolveRange_ClockQualifiers(t *testing.T) {
	r, err := ResolveRange(models.DateRangeQuery{
		StartDate: "2025-01-05",
		EndDate:   "2025-01-05",
		StartTime: "08:00",
		EndTime:   "17:30",
		FilterBy:  "CREATED",
	}, istanbul)
	if err != nil {
		t.Fatalf("ResolveRange: %v", err)
	}
	if r.Field != FilterByCreated || !r.TimeQualified {
		t.Fatalf("unexpected range: %+v", r)
	}
	if !r.Start.Equal(at(2025, 1, 5, 8, 0)) || !r.End.Equal(at(2025, 1, 5, 17, 30)) {
		t.Fatalf("unexpected interval %s - %s", r.Start, r.End)
	}
}

func TestResolveRange_UnknownFilterDefaultsToDate(t *testing.T) {
	r, err := ResolveRange(models.DateRangeQuery{StartDate: "2025-01-01", EndDate: "2025-01-02", FilterBy: "shift"}, istanbul)
	if err != nil {
		t.Fatalf("ResolveRange: %v", err)
	}
	if r.Field != FilterByDate {
		t.Fatalf("expected date filter, got %s", r.Field)
	}
}

func TestResolveRange_ValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		query models.DateRangeQuery
		field string
	}{
		{"missing start", models.DateRangeQuery{EndDate: "2025-01-01"}, "start_date/end_date"},
		{"missing end", models.DateRangeQuery{StartDate: "2025-01-01"}, "start_date/end_date"},
		{"bad start", models.DateRangeQuery{StartDate: "01/13/2025", EndDate: "2025-01-01"}, "start_date"},
		{"bad end", models.DateRangeQuery{StartDate: "2025-01-01", EndDate: "2025-02-30"}, "end_date"},
		{"bad start time", models.DateRangeQuery{StartDate: "2025-01-01", EndDate: "2025-01-01", StartTime: "25:99"}, "start_time"},
		{"bad end time", models.DateRangeQuery{StartDate: "2025-01-01", EndDate: "2025-01-01", EndTime: "noon"}, "end_time"},
	}
	for _, tc := range cases {
		_, err := ResolveRange(tc.query, istanbul)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %v", tc.name, tc.field, err)
		}
	}
}

func TestParseDate_AcceptsTimestamps(t *testing.T) {
	got, err := ParseDate("2025-01-15T22:30:00Z", istanbul)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !got.Equal(day(2025, 1, 15)) {
		t.Fatalf("expected the written date, got %s", got)
	}
}

func TestDateRange_DayFilterOrdering(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Date: day(2025, 1, 10), CreatedAt: at(2025, 1, 10, 9, 0)},
		{ID: 2, Date: day(2025, 1, 31), CreatedAt: at(2025, 2, 1, 7, 0)},
		{ID: 3, Date: day(2025, 1, 10), CreatedAt: at(2025, 1, 10, 15, 0)},
		{ID: 4, Date: day(2024, 12, 31), CreatedAt: at(2025, 1, 1, 1, 0)},
		{ID: 5, Date: day(2025, 2, 1), CreatedAt: at(2025, 2, 1, 8, 0)},
		{ID: 6, Date: day(2025, 1, 1), CreatedAt: at(2024, 12, 31, 23, 0)},
	}
	r, err := ResolveRange(models.DateRangeQuery{StartDate: "2025-01-01", EndDate: "2025-01-31"}, istanbul)
	if err != nil {
		t.Fatalf("ResolveRange: %v", err)
	}

	got := ids(r.Apply(entries))
	want := []int64{2, 3, 1, 6}
	if !sameIDs(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDateRange_DayFilterIgnoresStoredTimeOfDay(t *testing.T) {
	// A production date stored at UTC midnight is still the same calendar day in a UTC+3 zone.
	entry := models.Entry{ID: 1, Date: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)}
	r, err := ResolveRange(models.DateRangeQuery{StartDate: "2025-01-31", EndDate: "2025-01-31"}, istanbul)
	if err != nil {
		t.Fatalf("ResolveRange: %v", err)
	}
	if !r.Match(&entry) {
		t.Fatalf("expected entry to match its own day")
	}
}

func TestDateRange_DateFilterWithClockUsesCreatedAt(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Date: day(2025, 1, 1), CreatedAt: at(2025, 1, 1, 7, 59)},
		{ID: 2, Date: day(2025, 1, 1), CreatedAt: at(2025, 1, 1, 8, 0)},
		{ID: 3, Date: day(2025, 1, 1), CreatedAt: at(2025, 1, 1, 12, 0)},
		{ID: 4, Date: day(2025, 1, 1), CreatedAt: at(2025, 1, 1, 17, 0)},
		{ID: 5, Date: day(2025, 1, 1), CreatedAt: at(2025, 1, 1, 17, 1)},
		{ID: 6, Date: day(2024, 12, 31), CreatedAt: at(2025, 1, 1, 10, 0)},
	}
	r, err := ResolveRange(models.DateRangeQuery{
		StartDate: "2025-01-01",
		EndDate:   "2025-01-01",
		StartTime: "08:00",
		EndTime:   "17:00",
	}, istanbul)
	if err != nil {
		t.Fatalf("ResolveRange: %v", err)
	}

	got := ids(r.Apply(entries))
	want := []int64{4, 3, 2}
	if !sameIDs(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDateRange_CreatedFilter(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Date: day(2024, 1, 1), CreatedAt: at(2025, 1, 1, 0, 0)},
		{ID: 2, Date: day(2025, 1, 1), CreatedAt: at(2025, 1, 2, 0, 0)},
		{ID: 3, Date: day(2025, 1, 1), CreatedAt: at(2025, 1, 1, 23, 59)},
	}
	r, err := ResolveRange(models.DateRangeQuery{StartDate: "2025-01-01", EndDate: "2025-01-01", FilterBy: "created"}, istanbul)
	if err != nil {
		t.Fatalf("ResolveRange: %v", err)
	}

	got := ids(r.Apply(entries))
	want := []int64{3, 1}
	if !sameIDs(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDescribeFilters(t *testing.T) {
	info := DescribeFilters(45 * time.Minute)
	if len(info.FilterTypes) != 2 || info.FilterTypes[0].Value != "date" || info.FilterTypes[1].Value != "created" {
		t.Fatalf("unexpected filter types: %+v", info.FilterTypes)
	}
	if info.EditWindow != "45m0s" {
		t.Fatalf("expected edit window 45m0s, got %q", info.EditWindow)
	}
}
