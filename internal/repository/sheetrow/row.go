// Package sheetrow maps entries and summaries to flat spreadsheet rows. The Google Sheets and xlsx
// stores share this layout so a workbook exported from one can be loaded by the other.
package sheetrow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

const (
	EntrySheet   = "ProductionEntries"
	SummarySheet = "ProductionSummaries"

	timeLayout = time.RFC3339Nano
)

// EntryHeaders is the header row of the entry sheet, in column order.
var EntryHeaders = []string{
	"id", "date", "machineNo", "mkCycleSpeed", "shift", "moldNo", "steam",
	"formCount", "matchingPersonnelCount", "tablePersonnelCount", "modelNo",
	"sizeNo", "itemsPerPackage", "packagesPerBag", "bagsPerBox", "tableTotalPackage",
	"sampleFormCount", "repeatFormCount", "yesterdayRemainingCount", "unmatchedProductCount",
	"aQualityProductCount", "threadedProductCount", "stainedProductCount", "countTakenFromTable",
	"countTakenFromMachine", "measurementError", "knittingError", "toeDefect", "otherDefect",
	"totalDefects", "remainingOnTableCount", "measurementErrorRate", "knittingErrorRate",
	"toeDefectRate", "otherDefectRate", "generalErrorRate", "createdAt", "updatedAt", "note",
	"photoPath", "version",
}

// SummaryHeaders is the header row of the summary sheet, in column order.
var SummaryHeaders = []string{
	"id", "calculatedAt", "totalTableCount", "totalTableCountDozen", "totalErrorCount",
	"totalErrorCountDozen", "measurementErrorCount", "measurementErrorDozen", "measurementErrorRate",
	"knittingErrorCount", "knittingErrorDozen", "knittingErrorRate", "toeDefectCount",
	"toeDefectDozen", "toeDefectRate", "otherDefectCount", "otherDefectDozen", "otherDefectRate",
	"overallErrorRate",
}

// EncodeEntry flattens an entry into EntryHeaders order.
func EncodeEntry(e *models.Entry) []interface{} {
	return []interface{}{
		e.ID, e.Date.Format(timeLayout), e.MachineNo, e.MkCycleSpeed.String(), e.Shift, e.MoldNo, e.Steam.String(),
		e.FormCount, e.MatchingPersonnelCount, e.TablePersonnelCount, e.ModelNo,
		e.SizeNo, e.ItemsPerPackage, optInt(e.PackagesPerBag), optInt(e.BagsPerBox), e.TableTotalPackage,
		e.SampleFormCount, e.RepeatFormCount, e.YesterdayRemainingCount, e.UnmatchedProductCount,
		e.AQualityProductCount, e.ThreadedProductCount, e.StainedProductCount, e.CountTakenFromTable,
		e.CountTakenFromMachine, e.MeasurementError, e.KnittingError, e.ToeDefect, e.OtherDefect,
		e.TotalDefects, optInt(e.RemainingOnTableCount), e.MeasurementErrorRate.String(), e.KnittingErrorRate.String(),
		e.ToeDefectRate.String(), e.OtherDefectRate.String(), e.GeneralErrorRate.String(),
		e.CreatedAt.Format(timeLayout), optTime(e.UpdatedAt), optString(e.Note),
		optString(e.PhotoPath), e.Version,
	}
}

// DecodeEntry rebuilds an entry from a row in EntryHeaders order. Missing trailing cells read as
// empty.
func DecodeEntry(row []string) (models.Entry, error) {
	r := reader{row: row, headers: EntryHeaders}
	e := models.Entry{
		ID:                      r.int64At(0),
		Date:                    r.timeAt(1),
		MachineNo:               r.strAt(2),
		MkCycleSpeed:            r.decAt(3),
		Shift:                   r.intAt(4),
		MoldNo:                  r.intAt(5),
		Steam:                   r.decAt(6),
		FormCount:               r.intAt(7),
		MatchingPersonnelCount:  r.intAt(8),
		TablePersonnelCount:     r.intAt(9),
		ModelNo:                 r.intAt(10),
		SizeNo:                  r.strAt(11),
		ItemsPerPackage:         r.intAt(12),
		PackagesPerBag:          r.optIntAt(13),
		BagsPerBox:              r.optIntAt(14),
		TableTotalPackage:       r.intAt(15),
		SampleFormCount:         r.intAt(16),
		RepeatFormCount:         r.intAt(17),
		YesterdayRemainingCount: r.intAt(18),
		UnmatchedProductCount:   r.intAt(19),
		AQualityProductCount:    r.intAt(20),
		ThreadedProductCount:    r.intAt(21),
		StainedProductCount:     r.intAt(22),
		CountTakenFromTable:     r.intAt(23),
		CountTakenFromMachine:   r.intAt(24),
		MeasurementError:        r.intAt(25),
		KnittingError:           r.intAt(26),
		ToeDefect:               r.intAt(27),
		OtherDefect:             r.intAt(28),
		TotalDefects:            r.intAt(29),
		RemainingOnTableCount:   r.optIntAt(30),
		MeasurementErrorRate:    r.decAt(31),
		KnittingErrorRate:       r.decAt(32),
		ToeDefectRate:           r.decAt(33),
		OtherDefectRate:         r.decAt(34),
		GeneralErrorRate:        r.decAt(35),
		CreatedAt:               r.timeAt(36),
		UpdatedAt:               r.optTimeAt(37),
		Note:                    r.optStringAt(38),
		PhotoPath:               r.optStringAt(39),
		Version:                 r.intAt(40),
	}
	if e.Version == 0 {
		e.Version = 1
	}
	return e, r.err
}

// EncodeSummary flattens a summary into SummaryHeaders order.
func EncodeSummary(s *models.Summary) []interface{} {
	return []interface{}{
		s.ID, s.CalculatedAt.Format(timeLayout), s.TotalTableCount, s.TotalTableCountDozen.String(), s.TotalErrorCount,
		s.TotalErrorCountDozen.String(), s.MeasurementErrorCount, s.MeasurementErrorDozen.String(), s.MeasurementErrorRate.String(),
		s.KnittingErrorCount, s.KnittingErrorDozen.String(), s.KnittingErrorRate.String(), s.ToeDefectCount,
		s.ToeDefectDozen.String(), s.ToeDefectRate.String(), s.OtherDefectCount, s.OtherDefectDozen.String(), s.OtherDefectRate.String(),
		s.OverallErrorRate.String(),
	}
}

// DecodeSummary rebuilds a summary from a row in SummaryHeaders order.
func DecodeSummary(row []string) (models.Summary, error) {
	r := reader{row: row, headers: SummaryHeaders}
	s := models.Summary{
		ID:                    r.int64At(0),
		CalculatedAt:          r.timeAt(1),
		TotalTableCount:       r.intAt(2),
		TotalTableCountDozen:  r.decAt(3),
		TotalErrorCount:       r.intAt(4),
		TotalErrorCountDozen:  r.decAt(5),
		MeasurementErrorCount: r.intAt(6),
		MeasurementErrorDozen: r.decAt(7),
		MeasurementErrorRate:  r.decAt(8),
		KnittingErrorCount:    r.intAt(9),
		KnittingErrorDozen:    r.decAt(10),
		KnittingErrorRate:     r.decAt(11),
		ToeDefectCount:        r.intAt(12),
		ToeDefectDozen:        r.decAt(13),
		ToeDefectRate:         r.decAt(14),
		OtherDefectCount:      r.intAt(15),
		OtherDefectDozen:      r.decAt(16),
		OtherDefectRate:       r.decAt(17),
		OverallErrorRate:      r.decAt(18),
	}
	return s, r.err
}

// Tombstone is the row written over a deleted entry. It keeps the id so identifiers are never
// handed out twice.
func Tombstone(id int64) []interface{} {
	row := make([]interface{}, len(EntryHeaders))
	row[0] = id
	for i := 1; i < len(row); i++ {
		row[i] = ""
	}
	return row
}

// IsTombstone reports whether an entry row only carries the id of a deleted entry.
func IsTombstone(row []string) bool {
	if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
		return false
	}
	return IsBlank(row[1:])
}

// LastColumn returns the column letter of the last header, e.g. "AO" for the entry sheet.
func LastColumn(headers []string) string {
	name, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return "A"
	}
	return name
}

// Strings converts the cells returned by a spreadsheet API into strings.
func Strings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		out[i] = fmt.Sprint(c)
	}
	return out
}

// IsBlank reports whether a row holds no data (deleted rows are cleared, not removed).
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// reader decodes cells by index and keeps the first error it meets.
type reader struct {
	row     []string
	headers []string
	err     error
}

func (r *reader) strAt(i int) string {
	if i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

func (r *reader) fail(i int, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("column %d (%s): %w", i, r.column(i), err)
	}
}

func (r *reader) intAt(i int) int {
	s := r.strAt(i)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.fail(i, err)
	}
	return n
}

func (r *reader) int64At(i int) int64 {
	s := r.strAt(i)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		r.fail(i, err)
	}
	return n
}

func (r *reader) optIntAt(i int) *int {
	if r.strAt(i) == "" {
		return nil
	}
	n := r.intAt(i)
	return &n
}

func (r *reader) decAt(i int) decimal.Decimal {
	s := r.strAt(i)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		r.fail(i, err)
	}
	return d
}

func (r *reader) timeAt(i int) time.Time {
	s := r.strAt(i)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		r.fail(i, err)
	}
	return t
}

func (r *reader) optTimeAt(i int) *time.Time {
	if r.strAt(i) == "" {
		return nil
	}
	t := r.timeAt(i)
	return &t
}

func (r *reader) optStringAt(i int) *string {
	if i >= len(r.row) || r.row[i] == "" {
		return nil
	}
	s := r.row[i]
	return &s
}

func (r *reader) column(i int) string {
	if i < len(r.headers) {
		return r.headers[i]
	}
	return "?"
}

func optInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(timeLayout)
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
