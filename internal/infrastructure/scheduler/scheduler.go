package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
)

type Logger interface {
	Errorw(msg string, keysAndValues ...interface{})
}

// Scheduler triggers jobs on 6-field cron specs (seconds first). A job that
// is still running when its next tick arrives is skipped for that tick.
type Scheduler struct {
	cron   *cron.Cron
	logger Logger
}

func New(logger Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}
}

func (s *Scheduler) AddJob(ctx context.Context, name, spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(ctx); err != nil && s.logger != nil {
			s.logger.Errorw("Scheduled job failed", "job", name, "error", err)
		}
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
