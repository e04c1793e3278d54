// Package scheduler runs the periodic income sweep.
package scheduler

import (
	"budget-bee-server/src/ledger"
	"budget-bee-server/src/reports"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type IncomeSweeper interface {
	SweepDueIncome(ctx context.Context, asOf time.Time) (*ledger.SweepReport, error)
}

// Sweeper fires due income for every user on a cron schedule. A run that is
// still going when the next tick arrives makes that tick a no-op.
type Sweeper struct {
	cron    *cron.Cron
	sweeper IncomeSweeper
	timeout time.Duration
	now     func() time.Time
}

func NewSweeper(sweeper IncomeSweeper, schedule string, timeout time.Duration) (*Sweeper, error) {
	s := &Sweeper{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		sweeper: sweeper,
		timeout: timeout,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	log.Printf("INFO: Income sweeper started")
}

// Stop prevents new runs and waits for a running sweep or ctx, whichever
// ends first.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Printf("ERROR: Income sweeper did not stop in time: %v", ctx.Err())
	}
}

func (s *Sweeper) run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if _, err := RunOnce(ctx, s.sweeper, s.now()); err != nil {
		log.Printf("ERROR: Scheduled income sweep failed: %v", err)
	}
}

// RunOnce sweeps income due by the start of now's UTC day.
func RunOnce(ctx context.Context, sweeper IncomeSweeper, now time.Time) (*ledger.SweepReport, error) {
	return sweeper.SweepDueIncome(ctx, reports.DayStart(now))
}
