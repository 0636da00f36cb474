package quality

import (
	"time"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

type totals struct {
	table       int
	defects     int
	measurement int
	knitting    int
	toe         int
	other       int
}

// Aggregate folds entries into one Summary stamped with calculatedAt. Rates are weighted by the
// summed table counts, never averaged per entry, so the result does not depend on entry order.
// Entries are expected to carry up-to-date TotalDefects (see CalculateDefects).
func Aggregate(entries []models.Entry, calculatedAt time.Time) models.Summary {
	var t totals
	for i := range entries {
		e := &entries[i]
		t.table += e.CountTakenFromTable
		t.defects += e.TotalDefects
		t.measurement += e.MeasurementError
		t.knitting += e.KnittingError
		t.toe += e.ToeDefect
		t.other += e.OtherDefect
	}

	return models.Summary{
		TotalTableCount:      t.table,
		TotalTableCountDozen: Dozens(t.table),

		TotalErrorCount:      t.defects,
		TotalErrorCountDozen: Dozens(t.defects),

		MeasurementErrorCount: t.measurement,
		MeasurementErrorDozen: Dozens(t.measurement),
		MeasurementErrorRate:  Rate(t.measurement, t.table),

		KnittingErrorCount: t.knitting,
		KnittingErrorDozen: Dozens(t.knitting),
		KnittingErrorRate:  Rate(t.knitting, t.table),

		ToeDefectCount: t.toe,
		ToeDefectDozen: Dozens(t.toe),
		ToeDefectRate:  Rate(t.toe, t.table),

		OtherDefectCount: t.other,
		OtherDefectDozen: Dozens(t.other),
		OtherDefectRate:  Rate(t.other, t.table),

		OverallErrorRate: Rate(t.defects, t.table),

		CalculatedAt: calculatedAt,
	}
}
