package quality

import (
	"testing"
	"time"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

func sampleEntries() []models.Entry {
	raw := []models.Entry{
		{MeasurementError: 5, KnittingError: 2, ToeDefect: 1, OtherDefect: 0, CountTakenFromTable: 200},
		{MeasurementError: 0, KnittingError: 3, ToeDefect: 0, OtherDefect: 4, CountTakenFromTable: 100},
		{MeasurementError: 1, KnittingError: 0, ToeDefect: 6, OtherDefect: 1, CountTakenFromTable: 0},
	}
	for i := range raw {
		CalculateDefects(&raw[i])
	}
	return raw
}

func TestAggregate_WeightedRates(t *testing.T) {
	at := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	s := Aggregate(sampleEntries(), at)

	if s.TotalTableCount != 300 {
		t.Fatalf("expected table total 300, got %d", s.TotalTableCount)
	}
	if s.TotalErrorCount != 23 {
		t.Fatalf("expected error total 23, got %d", s.TotalErrorCount)
	}
	if s.MeasurementErrorCount != 6 || s.KnittingErrorCount != 5 || s.ToeDefectCount != 7 || s.OtherDefectCount != 5 {
		t.Fatalf("unexpected category counts: %+v", s)
	}

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"table dozen", s.TotalTableCountDozen.String(), "25"},
		{"error dozen", s.TotalErrorCountDozen.String(), "1.9"},
		{"measurement dozen", s.MeasurementErrorDozen.String(), "0.5"},
		{"measurement rate", s.MeasurementErrorRate.String(), "2"},
		{"knitting rate", s.KnittingErrorRate.String(), "1.67"},
		{"toe rate", s.ToeDefectRate.String(), "2.33"},
		{"other rate", s.OtherDefectRate.String(), "1.67"},
		{"overall rate", s.OverallErrorRate.String(), "7.67"},
	}
	for _, c := range checks {
		if !dec(t, c.got).Equal(dec(t, c.want)) {
			t.Fatalf("%s: expected %s, got %s", c.name, c.want, c.got)
		}
	}
	if !s.CalculatedAt.Equal(at) {
		t.Fatalf("expected calculated_at %s, got %s", at, s.CalculatedAt)
	}
}

func TestAggregate_EmptyIsAllZero(t *testing.T) {
	s := Aggregate(nil, time.Time{})

	if s.TotalTableCount != 0 || s.TotalErrorCount != 0 {
		t.Fatalf("expected zero counts, got %+v", s)
	}
	for i, d := range []interface{ IsZero() bool }{
		s.TotalTableCountDozen, s.TotalErrorCountDozen,
		s.MeasurementErrorDozen, s.MeasurementErrorRate,
		s.KnittingErrorDozen, s.KnittingErrorRate,
		s.ToeDefectDozen, s.ToeDefectRate,
		s.OtherDefectDozen, s.OtherDefectRate,
		s.OverallErrorRate,
	} {
		if !d.IsZero() {
			t.Fatalf("field %d expected zero", i)
		}
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	at := time.Unix(100, 0).UTC()
	entries := sampleEntries()
	base := Aggregate(entries, at)

	permutations := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {1, 0, 2}}
	for _, p := range permutations {
		shuffled := []models.Entry{entries[p[0]], entries[p[1]], entries[p[2]]}
		got := Aggregate(shuffled, at)
		if got.TotalTableCount != base.TotalTableCount ||
			got.TotalErrorCount != base.TotalErrorCount ||
			!got.OverallErrorRate.Equal(base.OverallErrorRate) ||
			!got.ToeDefectRate.Equal(base.ToeDefectRate) ||
			!got.TotalErrorCountDozen.Equal(base.TotalErrorCountDozen) {
			t.Fatalf("permutation %v changed the summary: %+v vs %+v", p, got, base)
		}
	}
}

func TestAggregate_IsNotAverageOfEntryRates(t *testing.T) {
	entries := []models.Entry{
		{MeasurementError: 10, CountTakenFromTable: 100},
		{MeasurementError: 0, CountTakenFromTable: 900},
	}
	for i := range entries {
		CalculateDefects(&entries[i])
	}
	s := Aggregate(entries, time.Time{})

	// (10% + 0%) / 2 would be 5; the weighted rate is 10/1000.
	if !s.MeasurementErrorRate.Equal(dec(t, "1")) {
		t.Fatalf("expected weighted rate 1, got %s", s.MeasurementErrorRate)
	}
}
