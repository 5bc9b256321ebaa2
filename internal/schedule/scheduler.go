package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jfries/batchlens/internal/logger"
)

// Job is a unit of periodic background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// CronScheduler runs jobs on standard 5-field cron specs. A job that is
// still running when its next tick fires is skipped rather than overlapped.
type CronScheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	log     *logger.Logger
	ctx     context.Context
}

func NewCronScheduler(log *logger.Logger) *CronScheduler {
	if log == nil {
		log = logger.GetDefault()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
		log:     log,
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	log := c.log.WithFields(logger.Fields{"job": name, "spec": spec})
	entryID, err := c.cron.AddFunc(spec, c.wrap(job, spec))
	if err != nil {
		log.WithError(err).Error("Failed to schedule job")
		return err
	}
	c.entries[name] = entryID
	log.Info("Job scheduled")
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

// Stop halts the ticker and waits for in-flight jobs to finish.
func (c *CronScheduler) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *CronScheduler) wrap(job Job, spec string) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			c.log.WithField("job", job.Name()).Info("Job skipped: previous run still in progress")
			return
		}
		defer running.Store(false)

		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		log := c.log.WithFields(logger.Fields{"job": job.Name(), "spec": spec})
		start := time.Now()
		log.Debug("Job started")
		err := job.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			log.WithError(err).WithField(logger.FieldDurationMs, elapsed.Milliseconds()).Error("Job failed")
			return
		}
		log.WithField(logger.FieldDurationMs, elapsed.Milliseconds()).Info("Job finished")
	}
}
