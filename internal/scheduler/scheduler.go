package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// Recomputer is the part of the service the nightly job drives.
type Recomputer interface {
	RecomputeSafetyStock(ctx context.Context)
}

// SafetyStockJob recomputes safety stock on a cron schedule so that the
// trailing window rolls forward at day boundaries without any new sale.
type SafetyStockJob struct {
	scheduler *gocron.Scheduler
	target    Recomputer
	schedule  string
	log       logrus.FieldLogger

	mu          sync.Mutex
	running     bool
	completions int
}

func NewSafetyStockJob(target Recomputer, schedule string, loc *time.Location, log logrus.FieldLogger) *SafetyStockJob {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SafetyStockJob{
		scheduler: gocron.NewScheduler(loc),
		target:    target,
		schedule:  schedule,
		log:       log.WithField("module", "scheduler"),
	}
}

// Start registers the job and runs the scheduler until ctx is cancelled.
func (j *SafetyStockJob) Start(ctx context.Context) error {
	_, err := j.scheduler.Cron(j.schedule).Do(func() {
		j.Run(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule safety stock recompute %q: %w", j.schedule, err)
	}

	j.scheduler.StartAsync()
	j.log.WithField("cron", j.schedule).Info("safety stock recompute scheduled")

	go func() {
		<-ctx.Done()
		j.log.Info("stopping safety stock scheduler")
		j.scheduler.Stop()
	}()
	return nil
}

// Run performs one recompute. A call that overlaps a running one is skipped.
func (j *SafetyStockJob) Run(ctx context.Context) bool {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		j.log.Warn("safety stock recompute already running, skipping")
		return false
	}
	j.running = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.running = false
		j.completions++
		j.mu.Unlock()
	}()

	started := time.Now()
	j.target.RecomputeSafetyStock(ctx)
	j.log.WithField("duration", time.Since(started).String()).Info("scheduled safety stock recompute finished")
	return true
}

func (j *SafetyStockJob) Completions() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completions
}
