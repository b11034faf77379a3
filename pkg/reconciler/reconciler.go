// Package reconciler runs the server's periodic background tasks (spec
// §4.8, supplemented from original_source's background_tasks/mod.rs):
// the job lease reclaimer, an orphan storage sweep, and the storage
// location reconcile loop. There is no reconcile loop for apps or
// policies.
// Grounded on the teacher's pkg/metrics/driver/xcloud ticker-loop shape
// (time.NewTicker + select + quit channel), generalized into one
// Runner that schedules any number of named periodic jobs instead of
// one hardcoded refresh loop.
package reconciler

import (
	"context"
	"time"

	"github.com/filez-project/filez/pkg/log"
)

var logger = log.New("reconciler")

// Task is one named periodic unit of work.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner schedules and drives a set of Tasks, each on its own ticker.
type Runner struct {
	tasks []Task
	quit  chan struct{}
}

func New(tasks ...Task) *Runner {
	return &Runner{tasks: tasks, quit: make(chan struct{})}
}

// Start launches one goroutine per task, each firing Run on its own
// interval until ctx is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	for _, t := range r.tasks {
		go r.loop(ctx, t)
	}
}

func (r *Runner) loop(ctx context.Context, t Task) {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := t.Run(ctx); err != nil {
				logger.Warn().Err(err).Str("task", t.Name).Msg("reconcile task failed")
			}
		case <-ctx.Done():
			return
		case <-r.quit:
			return
		}
	}
}

// Stop ends every task's loop.
func (r *Runner) Stop() { close(r.quit) }
