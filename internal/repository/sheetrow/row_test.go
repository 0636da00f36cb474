package sheetrow

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

func TestDecodeEntry_OptionalCellsAndLegacyVersion(t *testing.T) {
	bags := 4
	note := "second mold swapped"
	created := time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)
	entry := models.Entry{
		ID:                  7,
		Date:                time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		MachineNo:           "M-12",
		MkCycleSpeed:        decimal.RequireFromString("12.50"),
		SizeNo:              "38-40",
		BagsPerBox:          &bags,
		CountTakenFromTable: 200,
		MeasurementError:    3,
		TotalDefects:        3,
		GeneralErrorRate:    decimal.RequireFromString("1.50"),
		CreatedAt:           created,
		Note:                &note,
		Version:             2,
	}

	row := Strings(EncodeEntry(&entry))
	row[len(row)-1] = "" // rows written before versioning have no version cell

	got, err := DecodeEntry(row)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if got.ID != 7 || got.MachineNo != "M-12" || got.SizeNo != "38-40" {
		t.Fatalf("unexpected identity fields: %+v", got)
	}
	if got.PackagesPerBag != nil {
		t.Fatalf("expected empty packagesPerBag to decode as nil, got %d", *got.PackagesPerBag)
	}
	if got.BagsPerBox == nil || *got.BagsPerBox != 4 {
		t.Fatalf("expected bagsPerBox 4, got %v", got.BagsPerBox)
	}
	if got.UpdatedAt != nil || got.PhotoPath != nil {
		t.Fatalf("expected unset optional fields, got updatedAt=%v photoPath=%v", got.UpdatedAt, got.PhotoPath)
	}
	if got.Note == nil || *got.Note != note {
		t.Fatalf("expected note %q, got %v", note, got.Note)
	}
	if !got.MkCycleSpeed.Equal(entry.MkCycleSpeed) || !got.GeneralErrorRate.Equal(entry.GeneralErrorRate) {
		t.Fatalf("decimal fields changed: %s %s", got.MkCycleSpeed, got.GeneralErrorRate)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("expected createdAt %s, got %s", created, got.CreatedAt)
	}
	if got.Version != 1 {
		t.Fatalf("expected missing version to read as 1, got %d", got.Version)
	}
}

func TestDecodeEntry_ReportsOffendingColumn(t *testing.T) {
	row := make([]string, len(EntryHeaders))
	row[0] = "1"
	row[7] = "eleven"

	_, err := DecodeEntry(row)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if !strings.Contains(err.Error(), "formCount") {
		t.Fatalf("expected error to name the column, got %v", err)
	}
}

func TestDecodeSummary_ShortRow(t *testing.T) {
	s, err := DecodeSummary([]string{"3", "2025-01-10T12:00:00Z", "240"})
	if err != nil {
		t.Fatalf("DecodeSummary: %v", err)
	}
	if s.ID != 3 || s.TotalTableCount != 240 || !s.OverallErrorRate.IsZero() {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank([]string{"", "  "}) {
		t.Fatalf("expected whitespace row to be blank")
	}
	if IsBlank([]string{"", "x"}) {
		t.Fatalf("expected row with data to be non-blank")
	}
}

func TestTombstone(t *testing.T) {
	row := Strings(Tombstone(12))
	if len(row) != len(EntryHeaders) || row[0] != "12" {
		t.Fatalf("unexpected tombstone row: %v", row)
	}
	if !IsTombstone(row) || IsBlank(row) {
		t.Fatalf("expected a tombstone, not a blank row")
	}
	if IsTombstone(Strings(EncodeEntry(&models.Entry{ID: 12, MachineNo: "M-1"}))) {
		t.Fatalf("expected a live entry row not to be a tombstone")
	}
}

func TestLastColumn(t *testing.T) {
	if got := LastColumn(EntryHeaders); got != "AO" {
		t.Fatalf("expected AO, got %s", got)
	}
	if got := LastColumn(SummaryHeaders); got != "S" {
		t.Fatalf("expected S, got %s", got)
	}
}
