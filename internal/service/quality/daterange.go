package quality

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

// FilterField selects which entry field a date range applies to.
type FilterField string

const (
	// FilterByDate filters on the production date.
	FilterByDate FilterField = "date"
	// FilterByCreated filters on the creation instant.
	FilterByCreated FilterField = "created"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var clockLayouts = []string{ClockLayout, "15:04:05"}

// DateRange is a resolved, inclusive filter interval.
type DateRange struct {
	Field FilterField
	Start time.Time
	End   time.Time

	// StartDay and EndDay are the calendar days of Start and End at midnight.
	StartDay time.Time
	EndDay   time.Time

	// TimeQualified is set when either clock qualifier was supplied.
	TimeQualified bool

	loc *time.Location
}

// ParseFilterField maps the raw filter_by value; unknown values select FilterByDate.
func ParseFilterField(raw string) FilterField {
	if strings.EqualFold(strings.TrimSpace(raw), string(FilterByCreated)) {
		return FilterByCreated
	}
	return FilterByDate
}

// ResolveRange turns raw query parameters into a concrete interval in loc.
func ResolveRange(q models.DateRangeQuery, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}

	if strings.TrimSpace(q.StartDate) == "" || strings.TrimSpace(q.EndDate) == "" {
		return DateRange{}, invalid("start_date/end_date", "start and end dates are required")
	}

	startDay, err := ParseDate(q.StartDate, loc)
	if err != nil {
		return DateRange{}, invalid("start_date", "invalid start date %q", q.StartDate)
	}
	endDay, err := ParseDate(q.EndDate, loc)
	if err != nil {
		return DateRange{}, invalid("end_date", "invalid end date %q", q.EndDate)
	}

	r := DateRange{
		Field:    ParseFilterField(q.FilterBy),
		StartDay: startDay,
		EndDay:   endDay,
		Start:    startDay,
		End:      startOfNextDay(endDay).Add(-time.Millisecond),
		loc:      loc,
	}

	if raw := strings.TrimSpace(q.StartTime); raw != "" {
		offset, err := ParseClock(raw)
		if err != nil {
			return DateRange{}, invalid("start_time", "invalid start time %q, expected HH:mm", raw)
		}
		r.Start = atClock(startDay, offset)
		r.TimeQualified = true
	}
	if raw := strings.TrimSpace(q.EndTime); raw != "" {
		offset, err := ParseClock(raw)
		if err != nil {
			return DateRange{}, invalid("end_time", "invalid end time %q, expected HH:mm", raw)
		}
		r.End = atClock(endDay, offset)
		r.TimeQualified = true
	}

	return r, nil
}

// Match reports whether the entry falls inside the range.
func (r DateRange) Match(e *models.Entry) bool {
	if r.Field == FilterByCreated {
		return r.containsInstant(e.CreatedAt)
	}

	day := DayOf(e.Date, r.location())
	if day.Before(r.StartDay) || day.After(r.EndDay) {
		return false
	}
	if !r.TimeQualified {
		return true
	}
	// Production dates carry no time of day, so clock qualifiers apply to the creation instant.
	return r.containsInstant(e.CreatedAt)
}

// Apply returns the matching entries, newest first.
func (r DateRange) Apply(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, 0, len(entries))
	for i := range entries {
		if r.Match(&entries[i]) {
			out = append(out, entries[i])
		}
	}

	if r.Field == FilterByCreated {
		SortByCreatedDesc(out)
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r DateRange) containsInstant(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r DateRange) location() *time.Location {
	if r.loc == nil {
		return time.Local
	}
	return r.loc
}

// SortByCreatedDesc orders entries by creation instant, newest first.
func SortByCreatedDesc(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// ParseDate reads a calendar date and returns midnight of that day in loc. Timestamps are
// accepted and reduced to the date they spell out.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var (
		t   time.Time
		err error
	)
	for _, layout := range dateLayouts {
		t, err = time.ParseInLocation(layout, raw, loc)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
		}
	}
	return time.Time{}, err
}

// ParseClock reads an HH:mm (or HH:mm:ss) time of day as an offset from midnight.
func ParseClock(raw string) (time.Duration, error) {
	var (
		t   time.Time
		err error
	)
	for _, layout := range clockLayouts {
		t, err = time.Parse(layout, raw)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, err
}

// DayOf returns midnight of t's calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func startOfNextDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1)
}

func atClock(day time.Time, offset time.Duration) time.Time {
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	s := int((offset % time.Minute) / time.Second)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, day.Location())
}

// DescribeFilters lists the accepted date-range parameters together with the edit window in force.
func DescribeFilters(window time.Duration) models.FilterInfo {
	return models.FilterInfo{
		FilterTypes: []models.FilterOption{
			{Value: string(FilterByDate), Label: "Production date", Description: "Filters on the production date of the entry"},
			{Value: string(FilterByCreated), Label: "Record time", Description: "Filters on the instant the entry was created"},
		},
		DateFormat: "YYYY-MM-DD",
		TimeFormat: "HH:mm (e.g. 08:30, 17:45)",
		Examples: []string{
			"Date only: ?start_date=2025-01-01&end_date=2025-01-31",
			"Date and time (production): ?start_date=2025-01-01&end_date=2025-01-01&start_time=08:00&end_time=17:00&filter_by=date",
			"Date and time (record): ?start_date=2025-01-01&end_date=2025-01-01&start_time=08:00&end_time=17:00&filter_by=created",
		},
		EditWindow: window.String(),
		EditInfo:   fmt.Sprintf("Entries can be edited for %s after they are created.", window),
	}
}
