// Package scheduler runs the overdue sweep on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Parser parses sweep schedules. The seconds field is optional, so both
// "0 6 * * *" and "0 0 6 * * *" run at 06:00.
var Parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Sweeper marks overdue obligations.
type Sweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// Scheduler runs the sweep of a Sweeper on a cron schedule.
//
// A sweep that is still running when the next one is due is skipped.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	ctx     context.Context
}

// New creates a Scheduler for the spec, which is interpreted in the location.
func New(ctx context.Context, sweeper Sweeper, spec string, loc *time.Location) (*Scheduler, error) {
	logger := cronLogger{log.With().Str("component", "scheduler").Logger()}

	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(Parser),
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sweeper: sweeper,
		ctx:     ctx,
	}

	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("register overdue sweep: %w", err)
	}

	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// Next returns the time of the next sweep. It is the zero time if the
// scheduler is not running.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	return entries[0].Next
}

// RunNow runs a sweep immediately. The serve command uses it to sweep on
// start when configured.
func (s *Scheduler) RunNow() (int, error) {
	start := time.Now()

	marked, err := s.sweeper.SweepOverdue(s.ctx)
	if err != nil {
		log.Error().Err(err).Msg("overdue sweep failed")
		return 0, err
	}

	log.Info().Int("marked", marked).Dur("duration", time.Since(start)).Msg("overdue sweep finished")
	return marked, nil
}

func (s *Scheduler) sweep() {
	// Errors are logged by RunNow, the next run retries
	_, _ = s.RunNow()
}

// cronLogger logs cron events with zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
