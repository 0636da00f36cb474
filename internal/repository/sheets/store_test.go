package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
	"github.com/mamadbah2/prodtracker/internal/repository"
	"github.com/mamadbah2/prodtracker/internal/repository/sheetrow"
)

var rangePattern = regexp.MustCompile(`^([^!]+)!A(\d+):([A-Z]+)(\d*)$`)

// fakeRows keeps sheet tabs in memory; index 0 is sheet row 1.
type fakeRows struct {
	mu     sync.Mutex
	tabs   map[string][][]interface{}
	writes int
}

func newFakeRows() *fakeRows {
	return &fakeRows{tabs: make(map[string][][]interface{})}
}

func parseRange(r string) (sheet string, start, end int, err error) {
	m := rangePattern.FindStringSubmatch(r)
	if m == nil {
		return "", 0, 0, fmt.Errorf("unsupported range %q", r)
	}
	start, _ = strconv.Atoi(m[2])
	end = -1
	if m[4] != "" {
		end, _ = strconv.Atoi(m[4])
	}
	return m[1], start, end, nil
}

func (f *fakeRows) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	sheet, _, _, err := parseRange(sheetRange)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.tabs[sheet] = append(f.tabs[sheet], append([]interface{}(nil), values...))
	return nil
}

func (f *fakeRows) UpdateRow(_ context.Context, sheetRange string, values []interface{}) error {
	sheet, start, _, err := parseRange(sheetRange)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	rows := f.tabs[sheet]
	for len(rows) < start {
		rows = append(rows, nil)
	}
	rows[start-1] = append([]interface{}(nil), values...)
	f.tabs[sheet] = rows
	return nil
}

func (f *fakeRows) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	sheet, start, end, err := parseRange(sheetRange)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.tabs[sheet]
	if start > len(rows) {
		return nil, nil
	}
	stop := len(rows)
	if end > 0 && end < stop {
		stop = end
	}
	return append([][]interface{}(nil), rows[start-1:stop]...), nil
}

func newTestStore(t *testing.T) (*Store, *fakeRows) {
	t.Helper()
	rows := newFakeRows()
	store, err := NewStore(context.Background(), rows, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, rows
}

func sampleEntry(machine string, created time.Time) *models.Entry {
	return &models.Entry{
		Date:                created.Truncate(24 * time.Hour),
		MachineNo:           machine,
		SizeNo:              "38-40",
		CountTakenFromTable: 120,
		KnittingError:       6,
		TotalDefects:        6,
		KnittingErrorRate:   decimal.RequireFromString("5.00"),
		GeneralErrorRate:    decimal.RequireFromString("5.00"),
		CreatedAt:           created,
		Version:             1,
	}
}

func TestNewStore_WritesHeadersOnce(t *testing.T) {
	_, rows := newTestStore(t)
	if got := rows.tabs[sheetrow.EntrySheet][0][0]; got != "id" {
		t.Fatalf("expected header row, got %v", got)
	}
	writes := rows.writes

	if _, err := NewStore(context.Background(), rows, nil); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if rows.writes != writes {
		t.Fatalf("expected existing headers to be kept, saw %d extra writes", rows.writes-writes)
	}
}

func TestStore_EntryLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	created := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	first := sampleEntry("M-01", created)
	second := sampleEntry("M-02", created.Add(time.Minute))
	for _, e := range []*models.Entry{first, second} {
		if err := store.CreateEntry(ctx, e); err != nil {
			t.Fatalf("CreateEntry: %v", err)
		}
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected sequential ids, got %d and %d", first.ID, second.ID)
	}

	got, err := store.GetEntry(ctx, 2)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.MachineNo != "M-02" || !got.KnittingErrorRate.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("unexpected entry: %+v", got)
	}

	got.Shift = 3
	got.Version = 2
	if err := store.UpdateEntry(ctx, got); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	reloaded, err := store.GetEntry(ctx, 2)
	if err != nil {
		t.Fatalf("GetEntry after update: %v", err)
	}
	if reloaded.Shift != 3 || reloaded.Version != 2 {
		t.Fatalf("update not persisted: %+v", reloaded)
	}

	if err := store.DeleteEntry(ctx, 2); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if _, err := store.GetEntry(ctx, 2); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteEntry(ctx, 2); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	third := sampleEntry("M-03", created.Add(2*time.Minute))
	if err := store.CreateEntry(ctx, third); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if third.ID != 3 {
		t.Fatalf("expected deleted id to stay retired, got %d", third.ID)
	}

	entries, err := store.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != 1 || entries[1].ID != 3 {
		t.Fatalf("unexpected live entries: %+v", entries)
	}
}

func TestStore_UpdateMissingEntry(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.UpdateEntry(context.Background(), &models.Entry{ID: 42})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Summaries(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if _, err := store.LatestSummary(ctx); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty history, got %v", err)
	}

	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	for i, total := range []int{100, 250} {
		s := &models.Summary{TotalTableCount: total, CalculatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.AppendSummary(ctx, s); err != nil {
			t.Fatalf("AppendSummary: %v", err)
		}
		if s.ID != int64(i+1) {
			t.Fatalf("expected summary id %d, got %d", i+1, s.ID)
		}
	}

	latest, err := store.LatestSummary(ctx)
	if err != nil {
		t.Fatalf("LatestSummary: %v", err)
	}
	if latest.ID != 2 || latest.TotalTableCount != 250 {
		t.Fatalf("expected newest summary, got %+v", latest)
	}
}
