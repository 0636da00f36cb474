package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
	"github.com/mamadbah2/prodtracker/internal/repository"
	"github.com/mamadbah2/prodtracker/internal/repository/sheetrow"
)

// firstDataRow is the sheet row holding the first record; row 1 carries the headers.
const firstDataRow = 2

// Store keeps entries and summaries in two tabs of one spreadsheet. Deleted entries are replaced
// by a tombstone row so row positions and identifiers stay stable.
type Store struct {
	rows   RowClient
	logger *zap.Logger

	// mu serialises read-modify-write cycles issued by this process.
	mu sync.Mutex
}

var _ repository.Repository = (*Store)(nil)

// NewStore writes the header rows when a tab is still empty and returns the store.
func NewStore(ctx context.Context, rows RowClient, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{rows: rows, logger: logger.Named("sheets_store")}

	for _, tab := range []struct {
		name    string
		headers []string
	}{
		{sheetrow.EntrySheet, sheetrow.EntryHeaders},
		{sheetrow.SummarySheet, sheetrow.SummaryHeaders},
	} {
		if err := s.ensureHeaders(ctx, tab.name, tab.headers); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) CreateEntry(ctx context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.entryRows(ctx)
	if err != nil {
		return err
	}

	var maxID int64
	for _, row := range rows {
		if id := rowID(row); id > maxID {
			maxID = id
		}
	}
	entry.ID = maxID + 1

	if err := s.rows.WriteRow(ctx, tableRange(sheetrow.EntrySheet, sheetrow.EntryHeaders), sheetrow.EncodeEntry(entry)); err != nil {
		return fmt.Errorf("append entry %d: %w", entry.ID, err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	rows, err := s.entryRows(ctx)
	if err != nil {
		return nil, err
	}

	pos := findRow(rows, id)
	if pos < 0 {
		return nil, fmt.Errorf("entry %d: %w", id, repository.ErrNotFound)
	}
	entry, err := sheetrow.DecodeEntry(rows[pos])
	if err != nil {
		return nil, fmt.Errorf("decode entry %d: %w", id, err)
	}
	return &entry, nil
}

func (s *Store) UpdateEntry(ctx context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.overwrite(ctx, entry.ID, sheetrow.EncodeEntry(entry))
}

func (s *Store) DeleteEntry(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.overwrite(ctx, id, sheetrow.Tombstone(id))
}

// ListEntries returns live entries in sheet order. Rows that fail to decode are skipped and logged.
func (s *Store) ListEntries(ctx context.Context) ([]models.Entry, error) {
	rows, err := s.entryRows(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]models.Entry, 0, len(rows))
	for i, row := range rows {
		if sheetrow.IsBlank(row) || sheetrow.IsTombstone(row) {
			continue
		}
		entry, err := sheetrow.DecodeEntry(row)
		if err != nil {
			s.logger.Warn("skipping malformed entry row", zap.Int("row", i+firstDataRow), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) AppendSummary(ctx context.Context, summary *models.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(ctx, dataRange(sheetrow.SummarySheet, sheetrow.SummaryHeaders))
	if err != nil {
		return err
	}
	summary.ID = int64(len(rows)) + 1

	if err := s.rows.WriteRow(ctx, tableRange(sheetrow.SummarySheet, sheetrow.SummaryHeaders), sheetrow.EncodeSummary(summary)); err != nil {
		return fmt.Errorf("append summary: %w", err)
	}
	return nil
}

// LatestSummary returns the summary with the newest calculation time; ties go to the later row.
func (s *Store) LatestSummary(ctx context.Context) (*models.Summary, error) {
	rows, err := s.readRows(ctx, dataRange(sheetrow.SummarySheet, sheetrow.SummaryHeaders))
	if err != nil {
		return nil, err
	}

	var latest *models.Summary
	for _, row := range rows {
		if sheetrow.IsBlank(row) {
			continue
		}
		summary, err := sheetrow.DecodeSummary(row)
		if err != nil {
			s.logger.Warn("skipping malformed summary row", zap.Error(err))
			continue
		}
		if latest == nil || !summary.CalculatedAt.Before(latest.CalculatedAt) {
			latest = &summary
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("summary: %w", repository.ErrNotFound)
	}
	return latest, nil
}

func (s *Store) Close(context.Context) error {
	return nil
}

func (s *Store) overwrite(ctx context.Context, id int64, values []interface{}) error {
	rows, err := s.entryRows(ctx)
	if err != nil {
		return err
	}

	pos := findRow(rows, id)
	if pos < 0 {
		return fmt.Errorf("entry %d: %w", id, repository.ErrNotFound)
	}

	target := rowRange(sheetrow.EntrySheet, sheetrow.EntryHeaders, pos+firstDataRow)
	if err := s.rows.UpdateRow(ctx, target, values); err != nil {
		return fmt.Errorf("write entry %d: %w", id, err)
	}
	return nil
}

func (s *Store) entryRows(ctx context.Context) ([][]string, error) {
	return s.readRows(ctx, dataRange(sheetrow.EntrySheet, sheetrow.EntryHeaders))
}

func (s *Store) readRows(ctx context.Context, sheetRange string) ([][]string, error) {
	values, err := s.rows.ReadRange(ctx, sheetRange)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(values))
	for i, v := range values {
		out[i] = sheetrow.Strings(v)
	}
	return out, nil
}

func (s *Store) ensureHeaders(ctx context.Context, sheet string, headers []string) error {
	existing, err := s.rows.ReadRange(ctx, rowRange(sheet, headers, 1))
	if err != nil {
		return fmt.Errorf("read %s headers: %w", sheet, err)
	}
	if len(existing) > 0 && len(existing[0]) > 0 {
		return nil
	}

	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := s.rows.UpdateRow(ctx, rowRange(sheet, headers, 1), values); err != nil {
		return fmt.Errorf("write %s headers: %w", sheet, err)
	}
	s.logger.Info("sheet headers initialised", zap.String("sheet", sheet))
	return nil
}

// findRow returns the index of the live row carrying id, or -1.
func findRow(rows [][]string, id int64) int {
	for i, row := range rows {
		if rowID(row) == id && !sheetrow.IsTombstone(row) {
			return i
		}
	}
	return -1
}

func rowID(row []string) int64 {
	if len(row) == 0 {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func tableRange(sheet string, headers []string) string {
	return fmt.Sprintf("%s!A1:%s", sheet, sheetrow.LastColumn(headers))
}

func dataRange(sheet string, headers []string) string {
	return fmt.Sprintf("%s!A%d:%s", sheet, firstDataRow, sheetrow.LastColumn(headers))
}

func rowRange(sheet string, headers []string, row int) string {
	last := sheetrow.LastColumn(headers)
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, last, row)
}
