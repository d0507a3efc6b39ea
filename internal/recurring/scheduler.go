package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/logging"
)

var errPanic = errors.New("recurring: panic while materializing")

// Engine is the part of Service the scheduler drives.
type Engine interface {
	DueDefinitions(ctx context.Context, horizon time.Time) ([]*Definition, error)
	MaterializeNext(ctx context.Context, id string, horizon time.Time) (*Result, error)
	ResumeExpiredPauses(ctx context.Context) (int, error)
}

type SchedulerConfig struct {
	// LookaheadDays is how far past today an occurrence may lie and still be
	// booked on this tick.
	LookaheadDays int
	Concurrency   int
	Location      *time.Location
	Now           func() time.Time
	Logger        *slog.Logger
}

// Scheduler runs one pass over every due definition per Tick.
type Scheduler struct {
	engine      Engine
	lookahead   int
	concurrency int
	loc         *time.Location
	now         func() time.Time
	logger      *slog.Logger
}

func NewScheduler(engine Engine, cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		engine:      engine,
		lookahead:   cfg.LookaheadDays,
		concurrency: cfg.Concurrency,
		loc:         cfg.Location,
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
	if s.lookahead < 0 {
		s.lookahead = 0
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type TickReport struct {
	Horizon      time.Time
	Resumed      int
	Processed    int
	Materialized int
	Skipped      int
	Completed    int
	NotDue       int
	Failed       int
	FailedIDs    []string
}

// Tick resumes expired pauses, then materializes the next occurrence of every
// ACTIVE definition due within the lookahead window. A failing definition is
// logged and counted; it never stops the rest of the batch. The returned
// error is only set when the due definitions could not be listed.
func (s *Scheduler) Tick(ctx context.Context) (TickReport, error) {
	logger := logging.FromContext(ctx, s.logger)
	started := s.now()
	today := DateOf(started.In(s.loc))
	report := TickReport{Horizon: today.AddDate(0, 0, s.lookahead)}

	resumed, err := s.engine.ResumeExpiredPauses(ctx)
	if err != nil {
		logger.Error("auto-resume pass failed", "error", err, "error_kind", ErrorKind(err))
	}
	report.Resumed = resumed

	due, err := s.engine.DueDefinitions(ctx, report.Horizon)
	if err != nil {
		return report, fmt.Errorf("list due recurring bookings: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, d := range due {
		id := d.ID
		g.Go(func() error {
			res, err := s.process(gctx, id, report.Horizon)

			mu.Lock()
			defer mu.Unlock()
			report.Processed++
			if err != nil {
				report.Failed++
				report.FailedIDs = append(report.FailedIDs, id)
				logger.Error("materialization failed",
					"recurring_booking_id", id, "error", err, "error_kind", ErrorKind(err))
				return nil
			}
			report.Skipped += res.Skipped
			switch res.Outcome {
			case OutcomeMaterialized:
				report.Materialized++
			case OutcomeNotDue, OutcomeInactive:
				report.NotDue++
			}
			if res.Outcome != OutcomeInactive && res.Definition != nil && res.Definition.Status == StatusCompleted {
				report.Completed++
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("recurring booking tick finished",
		"horizon", FormatDate(report.Horizon),
		"processed", report.Processed,
		"materialized", report.Materialized,
		"skipped", report.Skipped,
		"completed", report.Completed,
		"failed", report.Failed,
		"resumed", report.Resumed,
		"duration", s.now().Sub(started))
	return report, nil
}

// process runs one definition, converting a panic into an error.
func (s *Scheduler) process(ctx context.Context, id string, horizon time.Time) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return s.engine.MaterializeNext(ctx, id, horizon)
}
