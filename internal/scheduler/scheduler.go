package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// RunFunc is the work done on every tick
type RunFunc func(ctx context.Context) error

// JobScheduler runs a job on a cron schedule. A tick is skipped while the previous run is
// still going.
type JobScheduler struct {
	cron    *cron.Cron
	expr    string
	run     RunFunc
	entryID cron.EntryID

	mu         sync.Mutex
	isRunning  bool
	context    context.Context
	cancelFunc context.CancelFunc
}

// New creates a scheduler for a cron expression evaluated in timezone. The expression takes
// an optional leading seconds field.
func New(expr, timezone string, run RunFunc) (*JobScheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}

	logger := NewCronLogger(log.Logger)
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	s := &JobScheduler{cron: c, expr: expr, run: run}
	s.entryID, err = c.AddFunc(expr, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression '%s': %w", expr, err)
	}
	return s, nil
}

// Start begins running the job on schedule. It returns straightaway, the job runs on the
// cron goroutine until Stop is called or ctx is done.
func (s *JobScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.isRunning = true
	s.context, s.cancelFunc = context.WithCancel(ctx)
	s.cron.Start()

	log.Info().Str("cron", s.expr).Time("next_run", s.Next()).Msg("Scheduler started")
	return nil
}

// Stop cancels the current run, if any, and waits for it to return
func (s *JobScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.cancelFunc()
	s.isRunning = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// Next returns the time of the next run
func (s *JobScheduler) Next() time.Time {
	if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
		return next
	}
	return s.cron.Entry(s.entryID).Schedule.Next(time.Now())
}

func (s *JobScheduler) tick() {
	s.mu.Lock()
	ctx := s.context
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return // Context cancelled
	}

	start := time.Now()
	log.Info().Str("cron", s.expr).Msg("Scheduled run starting")
	if err := s.run(ctx); err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Scheduled run failed")
		return
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("Scheduled run finished")
}
