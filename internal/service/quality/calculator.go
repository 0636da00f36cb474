// Package quality holds the production quality rules: defect rates, weighted summaries, the edit
// window and date-range resolution. Everything here is a pure computation over in-memory entries.
package quality

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

const (
	rateDecimals  = 2
	dozenDecimals = 1
)

var (
	hundred = decimal.NewFromInt(100)
	dozen   = decimal.NewFromInt(12)
)

// CalculateDefects fills TotalDefects and the five per-entry rates from the raw counts.
// The total is a plain sum and may exceed CountTakenFromTable.
func CalculateDefects(e *models.Entry) {
	e.TotalDefects = e.MeasurementError + e.KnittingError + e.ToeDefect + e.OtherDefect

	table := e.CountTakenFromTable
	e.MeasurementErrorRate = Rate(e.MeasurementError, table)
	e.KnittingErrorRate = Rate(e.KnittingError, table)
	e.ToeDefectRate = Rate(e.ToeDefect, table)
	e.OtherDefectRate = Rate(e.OtherDefect, table)
	e.GeneralErrorRate = Rate(e.TotalDefects, table)
}

// Rate returns count/denominator as a percentage rounded half-up to two places, or zero when the
// denominator is not positive.
func Rate(count, denominator int) decimal.Decimal {
	if denominator <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(count)).
		Mul(hundred).
		DivRound(decimal.NewFromInt(int64(denominator)), rateDecimals)
}

// Dozens converts a piece count into dozens rounded half-up to one place.
func Dozens(count int) decimal.Decimal {
	return decimal.NewFromInt(int64(count)).DivRound(dozen, dozenDecimals)
}
