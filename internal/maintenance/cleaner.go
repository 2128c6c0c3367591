package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/resumine/resumine/pkg/logger"
)

// SessionSweeper removes sessions that can never be refreshed again.
type SessionSweeper interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Cleaner runs periodic maintenance jobs. It deliberately does not touch
// password reset rows: those stay queryable until a completed reset removes
// them, and expiry is enforced on read.
type Cleaner struct {
	cron     *cron.Cron
	sessions SessionSweeper
	schedule string
	timeout  time.Duration
	log      *zap.Logger
}

// NewCleaner builds a Cleaner sweeping sessions on the given cron schedule
// (for example "@hourly").
func NewCleaner(sessions SessionSweeper, schedule string) (*Cleaner, error) {
	if sessions == nil {
		return nil, errors.New("maintenance: session sweeper is required")
	}
	if schedule == "" {
		schedule = "@hourly"
	}

	return &Cleaner{
		cron:     cron.New(),
		sessions: sessions,
		schedule: schedule,
		timeout:  time.Minute,
		log:      logger.WithModule("maintenance"),
	}, nil
}

// Start registers the jobs and launches the scheduler.
func (c *Cleaner) Start() error {
	if _, err := c.cron.AddFunc(c.schedule, c.sweep); err != nil {
		return err
	}
	c.cron.Start()
	c.log.Info("maintenance scheduler started", zap.String("schedule", c.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (c *Cleaner) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// RunOnce executes every maintenance job immediately, returning the combined
// failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	var errs error

	removed, err := c.sessions.CleanupExpired(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if removed > 0 {
		c.log.Info("expired sessions removed", zap.Int64("count", removed))
	}

	return errs
}

func (c *Cleaner) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.RunOnce(ctx); err != nil {
		c.log.Error("maintenance sweep failed", zap.Error(err))
	}
}
