// Package jobs runs the periodic maintenance tasks.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron"

	applog "superloja/internal/log"
)

// AuctionCloser ends auctions whose window has passed and reports how many it closed.
type AuctionCloser interface {
	CloseDue(ctx context.Context, now time.Time) (int, error)
}

type Scheduler struct {
	c *cron.Cron
}

// Start schedules the auction sweep on spec (robfig cron syntax, e.g. "@every 1m").
func Start(spec string, auctions AuctionCloser) (*Scheduler, error) {
	c := cron.New()
	if err := c.AddFunc(spec, func() { SweepAuctions(context.Background(), auctions, time.Now()) }); err != nil {
		return nil, err
	}
	c.Start()
	applog.Std().WithField("spec", spec).Info("jobs.start")
	return &Scheduler{c: c}, nil
}

func (s *Scheduler) Stop() {
	if s != nil && s.c != nil {
		s.c.Stop()
	}
}

// SweepAuctions runs one close pass and logs the outcome.
func SweepAuctions(ctx context.Context, auctions AuctionCloser, now time.Time) int {
	n, err := auctions.CloseDue(ctx, now)
	if err != nil {
		applog.Std().WithError(err).Error("jobs.auctions.sweep.fail")
		return n
	}
	if n > 0 {
		applog.Std().WithField("closed", n).Info("jobs.auctions.sweep")
	}
	return n
}
