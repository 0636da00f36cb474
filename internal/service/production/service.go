package production

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
	"github.com/mamadbah2/prodtracker/internal/lock"
	"github.com/mamadbah2/prodtracker/internal/repository"
	"github.com/mamadbah2/prodtracker/internal/service/quality"
)

// ErrVersionConflict indicates the caller edited a stale copy of the entry.
var ErrVersionConflict = errors.New("entry was modified by another request")

// Service runs production entry use cases on top of a repository.
type Service struct {
	repo     repository.Repository
	guard    *quality.Guard
	locker   lock.Locker
	validate *validator.Validate
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a production service. now stamps created/updated times and should be the same
// clock the guard evaluates deadlines with.
func NewService(repo repository.Repository, guard *quality.Guard, locker lock.Locker, loc *time.Location, now func() time.Time, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     repo,
		guard:    guard,
		locker:   locker,
		validate: newValidator(),
		loc:      loc,
		logger:   logger,
		now:      now,
	}
}

// EditWindow exposes the configured edit window.
func (s *Service) EditWindow() time.Duration {
	return s.guard.Window()
}

// CreateEntry validates the input, derives quality figures and persists a new entry.
func (s *Service) CreateEntry(ctx context.Context, in models.EntryInput) (*models.Entry, error) {
	date, err := s.checkInput(in)
	if err != nil {
		return nil, err
	}

	entry := &models.Entry{
		PhotoPath: in.PhotoPath,
		CreatedAt: s.now(),
		Version:   1,
	}
	in.Apply(entry, date)
	quality.CalculateDefects(entry)

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	s.logger.Info("entry created",
		zap.Int64("entry_id", entry.ID),
		zap.String("machine_no", entry.MachineNo),
		zap.Int("total_defects", entry.TotalDefects))

	s.refreshSummary(ctx)
	return entry, nil
}

// UpdateEntry replaces the caller-owned fields of an entry that is still inside its edit window.
// Nothing is written when the guard, the version check or validation rejects the request.
func (s *Service) UpdateEntry(ctx context.Context, id int64, in models.EntryUpdate) (*models.Entry, error) {
	date, err := s.checkInput(in.EntryInput)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Obtain(ctx, lock.EntryKey(id))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			s.logger.Warn("failed to release entry lock", zap.Int64("entry_id", id), zap.Error(err))
		}
	}()

	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.guard.Authorize(entry); err != nil {
		s.logger.Info("update rejected, edit window closed", zap.Int64("entry_id", id))
		return nil, err
	}

	if in.Version != nil && *in.Version != entry.Version {
		return nil, fmt.Errorf("entry %d at version %d, request carries %d: %w", id, entry.Version, *in.Version, ErrVersionConflict)
	}

	in.Apply(entry, date)
	if in.DeleteCurrentPhoto {
		entry.PhotoPath = nil
	}
	if in.PhotoPath != nil {
		entry.PhotoPath = in.PhotoPath
	}
	updatedAt := s.now()
	entry.UpdatedAt = &updatedAt
	entry.Version++
	quality.CalculateDefects(entry)

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("update entry %d: %w", id, err)
	}

	s.logger.Info("entry updated", zap.Int64("entry_id", id), zap.Int("version", entry.Version))

	s.refreshSummary(ctx)
	return entry, nil
}

// DeleteEntry removes an entry regardless of its edit window.
func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	release, err := s.locker.Obtain(ctx, lock.EntryKey(id))
	if err != nil {
		return err
	}
	defer func() { _ = release(context.Background()) }()

	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}

	s.logger.Info("entry deleted", zap.Int64("entry_id", id))
	s.refreshSummary(ctx)
	return nil
}

func (s *Service) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

// ListEntries returns every entry, newest creation first.
func (s *Service) ListEntries(ctx context.Context) ([]models.Entry, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	quality.SortByCreatedDesc(entries)
	return entries, nil
}

// GetEntryView returns the entry together with its edit status.
func (s *Service) GetEntryView(ctx context.Context, id int64) (*models.EntryView, error) {
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	check := s.guard.Check(entry)
	return &models.EntryView{
		Entry:                *entry,
		CanEdit:              check.CanEdit,
		TimeRemainingForEdit: check.RemainingText,
		EditStatus:           check.Message,
	}, nil
}

// CheckEditability reports the edit status of an entry. Unknown ids produce the not-found verdict
// rather than an error.
func (s *Service) CheckEditability(ctx context.Context, id int64) (models.EditabilityCheck, error) {
	entry, err := s.repo.GetEntry(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return s.guard.Check(nil), nil
	}
	if err != nil {
		return models.EditabilityCheck{}, err
	}
	return s.guard.Check(entry), nil
}

// CurrentSummary returns the latest summary, calculating the first one on demand.
func (s *Service) CurrentSummary(ctx context.Context) (*models.Summary, error) {
	summary, err := s.repo.LatestSummary(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return s.RecalculateSummary(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load latest summary: %w", err)
	}
	return summary, nil
}

// RecalculateSummary aggregates every stored entry and appends the result as the current summary.
func (s *Service) RecalculateSummary(ctx context.Context) (*models.Summary, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries for summary: %w", err)
	}

	summary := quality.Aggregate(entries, s.now())
	if err := s.repo.AppendSummary(ctx, &summary); err != nil {
		return nil, fmt.Errorf("append summary: %w", err)
	}

	s.logger.Debug("summary recalculated",
		zap.Int("entries", len(entries)),
		zap.String("overall_error_rate", summary.OverallErrorRate.String()))
	return &summary, nil
}

// EntriesByDateRange resolves the query and returns the matching entries in display order.
func (s *Service) EntriesByDateRange(ctx context.Context, q models.DateRangeQuery) ([]models.Entry, error) {
	r, err := quality.ResolveRange(q, s.loc)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return r.Apply(entries), nil
}

func (s *Service) refreshSummary(ctx context.Context) {
	if _, err := s.RecalculateSummary(ctx); err != nil {
		s.logger.Error("failed to refresh summary", zap.Error(err))
	}
}

func (s *Service) checkInput(in models.EntryInput) (time.Time, error) {
	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return time.Time{}, &quality.ValidationError{
				Field:   fe.Field(),
				Message: describeRule(fe),
			}
		}
		return time.Time{}, &quality.ValidationError{Message: err.Error()}
	}

	date, err := quality.ParseDate(in.Date, s.loc)
	if err != nil {
		return time.Time{}, &quality.ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q", in.Date)}
	}
	return date, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
