package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
	"github.com/mamadbah2/prodtracker/internal/service/quality"
)

// EntrySource returns entries matching a date-range query.
type EntrySource interface {
	EntriesByDateRange(ctx context.Context, q models.DateRangeQuery) ([]models.Entry, error)
}

// Service builds plain text production digests for messaging channels.
type Service struct {
	source EntrySource
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(source EntrySource, now func() time.Time, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{source: source, logger: logger, now: now}
}

// DailyDigest summarises the entries whose production date is day.
func (s *Service) DailyDigest(ctx context.Context, day time.Time) (string, error) {
	date := day.Format(quality.DateLayout)
	entries, err := s.source.EntriesByDateRange(ctx, models.DateRangeQuery{
		StartDate: date,
		EndDate:   date,
		FilterBy:  string(quality.FilterByDate),
	})
	if err != nil {
		return "", fmt.Errorf("load entries for %s: %w", date, err)
	}

	if len(entries) == 0 {
		return fmt.Sprintf("Production digest %s: no entries recorded.", date), nil
	}

	total := quality.Aggregate(entries, s.now())

	var b strings.Builder
	fmt.Fprintf(&b, "Production digest %s\n", date)
	fmt.Fprintf(&b, "Entries: %d\n", len(entries))
	b.WriteString(FormatSummary(total))
	b.WriteString("\n")

	byMachine := make(map[string][]models.Entry)
	for _, e := range entries {
		byMachine[e.MachineNo] = append(byMachine[e.MachineNo], e)
	}
	machines := make([]string, 0, len(byMachine))
	for m := range byMachine {
		machines = append(machines, m)
	}
	sort.Strings(machines)

	b.WriteString("By machine:")
	for _, m := range machines {
		sum := quality.Aggregate(byMachine[m], total.CalculatedAt)
		fmt.Fprintf(&b, "\n- %s: %d pcs, %d defects, %s%%", m, sum.TotalTableCount, sum.TotalErrorCount, sum.OverallErrorRate.StringFixed(2))
	}

	s.logger.Debug("daily digest built", zap.String("date", date), zap.Int("entries", len(entries)))
	return b.String(), nil
}

// FormatSummary renders the totals and weighted rates of a summary, one figure group per line.
func FormatSummary(sum models.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Taken from table: %d (%s dz)\n", sum.TotalTableCount, sum.TotalTableCountDozen.StringFixed(1))
	fmt.Fprintf(&b, "Defects: %d (%s dz), overall %s%%\n", sum.TotalErrorCount, sum.TotalErrorCountDozen.StringFixed(1), sum.OverallErrorRate.StringFixed(2))
	fmt.Fprintf(&b, "Measurement %s%% | Knitting %s%% | Toe %s%% | Other %s%%",
		sum.MeasurementErrorRate.StringFixed(2),
		sum.KnittingErrorRate.StringFixed(2),
		sum.ToeDefectRate.StringFixed(2),
		sum.OtherDefectRate.StringFixed(2))
	return b.String()
}
