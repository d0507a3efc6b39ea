package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/logging"
)

// DefaultTickSpec fires once a day at 02:00.
const DefaultTickSpec = "0 2 * * *"

// Ticker is what the periodic trigger invokes.
type Ticker interface {
	Tick(ctx context.Context) (TickReport, error)
}

// Trigger calls Tick on a cron schedule. Overlapping runs are skipped.
type Trigger struct {
	cron   *cron.Cron
	ticker Ticker
	logger *slog.Logger
	ctx    context.Context
}

func NewTrigger(ctx context.Context, ticker Ticker, spec string, loc *time.Location, logger *slog.Logger) (*Trigger, error) {
	if spec == "" {
		spec = DefaultTickSpec
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	t := &Trigger{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		ticker: ticker,
		logger: logger,
		ctx:    logging.ContextWithLogger(ctx, logger),
	}
	if _, err := t.cron.AddFunc(spec, t.run); err != nil {
		return nil, fmt.Errorf("invalid scheduler cron spec %q: %w", spec, err)
	}
	return t, nil
}

func (t *Trigger) run() {
	if _, err := t.ticker.Tick(t.ctx); err != nil {
		t.logger.Error("scheduled tick failed", "error", err)
	}
}

func (t *Trigger) Start() {
	t.cron.Start()
	t.logger.Info("recurring booking trigger started")
}

// Stop halts the schedule and waits for a running tick to finish or ctx to expire.
func (t *Trigger) Stop(ctx context.Context) {
	done := t.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		t.logger.Warn("recurring booking trigger stop timed out")
	}
}
