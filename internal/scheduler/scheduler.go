package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/logger"
)

// Pruner deletes monitoring rows older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler periodically applies the monitoring retention policy.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	retention time.Duration
	interval  time.Duration
	log       *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	pruned int64
}

// New creates a new Scheduler. A zero retention disables pruning.
func New(pruner Pruner, retention, interval time.Duration, log *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		pruner:    pruner,
		retention: retention,
		interval:  interval,
		log:       logger.OrNop(log),
		now:       time.Now,
	}
}

// Start schedules the retention job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.retention <= 0 {
		s.log.Info("scheduler: monitoring retention disabled; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(s.pruneOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) pruneOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	n, err := s.pruner.Prune(ctx, cutoff)
	if err != nil {
		s.log.Error("scheduler: monitoring prune failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.pruned += n
	s.mu.Unlock()
	s.log.Info("scheduler: monitoring prune completed", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
}

// Pruned reports how many rows the job has deleted so far.
func (s *Scheduler) Pruned() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruned
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
