package schedule

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// CronScheduler runs sweepers on five-field cron specs. A job never overlaps
// with itself, whether it was fired by cron or through RunNow.
type CronScheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	jobs    map[string]*registered
	ctx     context.Context
	started bool
}

type registered struct {
	job     Job
	spec    string
	entry   cron.EntryID
	running atomic.Bool
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		jobs: make(map[string]*registered),
		ctx:  context.Background(),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.jobs[name]; ok {
		return fmt.Errorf("job %s already scheduled", name)
	}
	reg := &registered{job: job, spec: spec}
	entryID, err := c.cron.AddFunc(spec, func() { c.run(c.runContext(), reg) })
	if err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	reg.entry = entryID
	c.jobs[name] = reg
	logger.Info("job scheduled")
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	c.ctx = ctx
	c.started = true
	c.mu.Unlock()
	c.cron.Start()
}

func (c *CronScheduler) Stop() {
	c.mu.Lock()
	started := c.started
	c.started = false
	c.mu.Unlock()
	if !started {
		return
	}
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// RunNow runs a registered job once in the caller's goroutine. It returns
// false when the job is unknown or already running.
func (c *CronScheduler) RunNow(ctx context.Context, name string) (bool, error) {
	c.mu.Lock()
	reg, ok := c.jobs[name]
	c.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("job %s is not registered", name)
	}
	return c.run(ctx, reg)
}

// Next reports when the named job fires next; zero when not started.
func (c *CronScheduler) Next(name string) time.Time {
	c.mu.Lock()
	reg, ok := c.jobs[name]
	c.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return c.cron.Entry(reg.entry).Next
}

func (c *CronScheduler) runContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

func (c *CronScheduler) run(ctx context.Context, reg *registered) (bool, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("job", reg.job.Name()),
		zap.String("spec", reg.spec),
	)
	if !reg.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return false, nil
	}
	defer reg.running.Store(false)

	start := time.Now()
	logger.Info("job started")
	err := reg.job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
		return true, err
	}
	logger.Info("job finished", zap.Duration("duration", elapsed))
	return true, nil
}
