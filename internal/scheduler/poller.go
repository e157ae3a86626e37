package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"StockTracker/internal/logger"
)

// Poller runs a job on a fixed interval. A run that is still in flight when the next one is due
// causes that next run to be skipped rather than overlapped.
type Poller struct {
	name     string
	interval time.Duration
	fn       func()
	clog     cron.Logger
	log      *zap.SugaredLogger

	mu   sync.Mutex
	job  cron.Job
	cron *cron.Cron
}

// NewPoller creates a stopped Poller. Intervals below one second are raised to one second.
func NewPoller(name string, interval time.Duration, fn func(), log *zap.SugaredLogger) *Poller {
	p := &Poller{
		name:     name,
		interval: interval,
		fn:       fn,
		clog:     cron.PrintfLogger(logger.StdLog(log.Named(name))),
		log:      log,
	}
	p.job = p.newJob()
	return p
}

// newJob wraps fn in a fresh overlap guard. A run left over from a previous Start does not
// hold the new guard.
func (p *Poller) newJob() cron.Job {
	return cron.NewChain(cron.Recover(p.clog), cron.SkipIfStillRunning(p.clog)).Then(cron.FuncJob(p.fn))
}

// Start arms the interval timer. With immediate set, one run is kicked off right away.
// Starting a running Poller is a no-op.
func (p *Poller) Start(immediate bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		return
	}

	p.job = p.newJob()
	c := cron.New()
	c.Schedule(cron.Every(p.interval), p.job)
	c.Start()
	p.cron = c
	p.log.Debugf("%s poller started, every %v", p.name, p.interval)

	if immediate {
		go p.job.Run()
	}
}

// Stop cancels the interval timer. A run already in flight is not waited for. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron == nil {
		return
	}
	p.cron.Stop()
	p.cron = nil
	p.log.Debugf("%s poller stopped", p.name)
}

// running reports whether the interval timer is armed.
func (p *Poller) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cron != nil
}

// trigger runs the job once on the caller's goroutine, subject to the current overlap guard.
func (p *Poller) trigger() {
	p.mu.Lock()
	job := p.job
	p.mu.Unlock()
	job.Run()
}
