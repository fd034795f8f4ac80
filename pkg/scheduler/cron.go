package scheduler

import (
	"context"
	"time"

	"LifeLine/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Cron struct {
	c      *cron.Cron
	loc    *time.Location
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

// NewCron 创建调度器。A job still running when its next tick fires is
// skipped for that tick; a panicking job is logged and recovered.
func NewCron(loc *time.Location) *Cron {
	if loc == nil {
		loc = time.Local
	}
	log := logger.Named("cron")
	cl := cronLogger{s: log.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Cron{c: c, loc: loc, ctx: ctx, cancel: cancel, log: log}
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop cancels running jobs' contexts and waits for them to return.
func (cr *Cron) Stop() {
	cr.cancel()
	<-cr.c.Stop().Done()
}

// Add schedules job under name. timeout <= 0 means no per-run deadline.
func (cr *Cron) Add(name, expr string, timeout time.Duration, job Job) (cron.EntryID, error) {
	return cr.c.AddFunc(expr, cr.runner(name, timeout, job))
}

func (cr *Cron) runner(name string, timeout time.Duration, job Job) func() {
	return func() {
		ctx := cr.ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			cr.log.Warn("job failed", zap.String("job", name), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
			return
		}
		cr.log.Debug("job done", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	}
}

func (cr *Cron) Entries() []cron.Entry { return cr.c.Entries() }

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
