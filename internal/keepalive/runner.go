// Package keepalive periodically refreshes the active user's session so it
// never lapses while the application is idle.
package keepalive

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
)

// SessionKeeper is what the runner pokes on every tick. In production this
// is the multi-user context, so the check always follows the currently
// active user.
type SessionKeeper interface {
	EnsureActive(ctx context.Context) (bool, error)
}

// Runner drives SessionKeeper.EnsureActive at a fixed cadence. A failed
// check is logged and retried on the next tick; nothing is escalated.
type Runner struct {
	keeper   SessionKeeper
	interval time.Duration
	log      logging.Logger
	cron     *cron.Cron
}

func NewRunner(keeper SessionKeeper, interval time.Duration, log logging.Logger) *Runner {
	return &Runner{keeper: keeper, interval: interval, log: log}
}

// Start schedules the periodic check. The first check runs one interval
// after Start, not immediately: the caller has just built the session.
func (r *Runner) Start() {
	r.cron = cron.New(cron.WithChain(cron.Recover(&cronLogger{log: r.log})))
	r.cron.Schedule(cron.Every(r.interval), cron.FuncJob(r.check))
	r.cron.Start()
}

// Stop halts scheduling and waits for an in-flight check to finish.
func (r *Runner) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

func (r *Runner) check() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	loggedIn, err := r.keeper.EnsureActive(ctx)
	switch {
	case errors.Is(err, common.ErrNoActiveUser):
		r.log.Debug(ctx, "keep-alive idle, no active user")
	case err != nil:
		r.log.Warn(ctx, "keep-alive check failed", "error", err)
	case loggedIn:
		r.log.Info(ctx, "keep-alive refreshed session")
	default:
		r.log.Debug(ctx, "keep-alive ok")
	}
}

// cronLogger adapts logging.Logger to the cron.Logger interface, used by the
// panic-recovery wrapper.
type cronLogger struct {
	log logging.Logger
}

func (c *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(context.Background(), msg, keysAndValues...)
}

func (c *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err}, keysAndValues...)
	c.log.Error(context.Background(), msg, args...)
}
