// Package excel keeps entries and summaries in a local xlsx workbook. It uses the same column
// layout as the Google Sheets store so a workbook can be moved between the two.
package excel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
	"github.com/mamadbah2/prodtracker/internal/repository"
	"github.com/mamadbah2/prodtracker/internal/repository/sheetrow"
)

// Store is a workbook-backed repository. Every write is saved to disk before returning.
type Store struct {
	mu     sync.Mutex
	path   string
	file   *excelize.File
	logger *zap.Logger
}

var _ repository.Repository = (*Store)(nil)

// Open loads the workbook at path, creating it with header rows when missing.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		file *excelize.File
		err  error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		file, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", path, err)
		}
	} else if errors.Is(statErr, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create workbook directory: %w", err)
		}
		file = excelize.NewFile()
	} else {
		return nil, fmt.Errorf("stat workbook %s: %w", path, statErr)
	}

	s := &Store{path: path, file: file, logger: logger.Named("excel_store")}
	if err := s.ensureSheets(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSheets() error {
	created := false
	for _, tab := range []struct {
		name    string
		headers []string
	}{
		{sheetrow.EntrySheet, sheetrow.EntryHeaders},
		{sheetrow.SummarySheet, sheetrow.SummaryHeaders},
	} {
		idx, err := s.file.GetSheetIndex(tab.name)
		if err != nil {
			return fmt.Errorf("look up sheet %s: %w", tab.name, err)
		}
		if idx >= 0 {
			continue
		}
		if _, err := s.file.NewSheet(tab.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", tab.name, err)
		}
		header := make([]interface{}, len(tab.headers))
		for i, h := range tab.headers {
			header[i] = h
		}
		if err := s.file.SetSheetRow(tab.name, "A1", &header); err != nil {
			return fmt.Errorf("write %s headers: %w", tab.name, err)
		}
		created = true
	}
	if !created {
		return nil
	}

	// Drop the default sheet of a fresh workbook.
	if idx, err := s.file.GetSheetIndex("Sheet1"); err == nil && idx >= 0 {
		if err := s.file.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("remove default sheet: %w", err)
		}
	}
	if idx, err := s.file.GetSheetIndex(sheetrow.EntrySheet); err == nil && idx >= 0 {
		s.file.SetActiveSheet(idx)
	}
	return s.save()
}

func (s *Store) CreateEntry(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(sheetrow.EntrySheet)
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

	if err := s.writeRow(sheetrow.EntrySheet, len(rows)+2, sheetrow.EncodeEntry(entry)); err != nil {
		return fmt.Errorf("write entry %d: %w", entry.ID, err)
	}
	return s.save()
}

func (s *Store) GetEntry(_ context.Context, id int64) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(sheetrow.EntrySheet)
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

func (s *Store) UpdateEntry(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.overwrite(entry.ID, sheetrow.EncodeEntry(entry))
}

func (s *Store) DeleteEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.overwrite(id, sheetrow.Tombstone(id))
}

func (s *Store) ListEntries(_ context.Context) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(sheetrow.EntrySheet)
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
			s.logger.Warn("skipping malformed entry row", zap.Int("row", i+2), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) AppendSummary(_ context.Context, summary *models.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(sheetrow.SummarySheet)
	if err != nil {
		return err
	}
	summary.ID = int64(len(rows)) + 1

	if err := s.writeRow(sheetrow.SummarySheet, len(rows)+2, sheetrow.EncodeSummary(summary)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return s.save()
}

func (s *Store) LatestSummary(_ context.Context) (*models.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(sheetrow.SummarySheet)
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

// Close releases the workbook. Data is already on disk.
func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.file.Close()
}

func (s *Store) overwrite(id int64, values []interface{}) error {
	rows, err := s.rows(sheetrow.EntrySheet)
	if err != nil {
		return err
	}
	pos := findRow(rows, id)
	if pos < 0 {
		return fmt.Errorf("entry %d: %w", id, repository.ErrNotFound)
	}

	if err := s.writeRow(sheetrow.EntrySheet, pos+2, values); err != nil {
		return fmt.Errorf("write entry %d: %w", id, err)
	}
	return s.save()
}

// rows returns the data rows of sheet, without the header row.
func (s *Store) rows(sheet string) ([][]string, error) {
	all, err := s.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(all) <= 1 {
		return nil, nil
	}
	return all[1:], nil
}

func (s *Store) writeRow(sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return s.file.SetSheetRow(sheet, cell, &values)
}

func (s *Store) save() error {
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", s.path, err)
	}
	return nil
}

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
