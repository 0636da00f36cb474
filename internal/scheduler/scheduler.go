package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

// SummaryRecalculator appends a fresh production summary.
type SummaryRecalculator interface {
	RecalculateSummary(ctx context.Context) (*models.Summary, error)
}

// DigestBuilder renders the digest of one production day.
type DigestBuilder interface {
	DailyDigest(ctx context.Context, day time.Time) (string, error)
}

// Notifier delivers a digest to its audience.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Options selects the jobs to run. An empty schedule disables the job, and the digest also
// needs a notifier.
type Options struct {
	SummarySchedule string
	DigestSchedule  string
	Location        *time.Location
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	opts     Options
	summary  SummaryRecalculator
	digest   DigestBuilder
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. notifier may be nil.
func NewScheduler(opts Options, summary SummaryRecalculator, digest DigestBuilder, notifier Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	// Standard 5 field cron expressions evaluated in the production time zone.
	c := cron.New(cron.WithLocation(opts.Location))

	return &Scheduler{
		cron:     c,
		opts:     opts,
		summary:  summary,
		digest:   digest,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().In(opts.Location) },
	}
}

// Start registers the configured jobs and starts the scheduler. Invalid schedules are reported
// before anything runs.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if s.opts.SummarySchedule != "" {
		if _, err := s.cron.AddFunc(s.opts.SummarySchedule, s.recalculateSummary); err != nil {
			return fmt.Errorf("schedule summary job %q: %w", s.opts.SummarySchedule, err)
		}
	}

	if s.opts.DigestSchedule != "" && s.notifier != nil {
		if _, err := s.cron.AddFunc(s.opts.DigestSchedule, s.sendDailyDigest); err != nil {
			return fmt.Errorf("schedule digest job %q: %w", s.opts.DigestSchedule, err)
		}
	} else {
		s.logger.Info("daily digest disabled")
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) recalculateSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary, err := s.summary.RecalculateSummary(ctx)
	if err != nil {
		s.logger.Error("scheduled summary failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled summary appended",
		zap.Int64("summary_id", summary.ID),
		zap.String("overall_error_rate", summary.OverallErrorRate.String()))
}

func (s *Scheduler) sendDailyDigest() {
	s.logger.Info("generating daily digest")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.digest.DailyDigest(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to generate daily digest", zap.Error(err))
		return
	}

	if err := s.notifier.Notify(ctx, report); err != nil {
		s.logger.Error("failed to send daily digest", zap.Error(err))
	} else {
		s.logger.Info("daily digest sent successfully")
	}
}
