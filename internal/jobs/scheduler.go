package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Kamal-Wagle/recondition/internal/queue"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, tasks ...queue.Task) error
}

// Scheduler runs periodic maintenance from the API process. The work itself
// happens in the worker; the scheduler only enqueues tasks.
type Scheduler struct {
	cron          *cron.Cron
	queue         Enqueuer
	sweepSchedule string
	log           zerolog.Logger
}

func NewScheduler(queue Enqueuer, sweepSchedule string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:          c,
		queue:         queue,
		sweepSchedule: sweepSchedule,
		log:           log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil || s.sweepSchedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.sweepSchedule, s.enqueueSweep); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", s.sweepSchedule, err)
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.sweepSchedule).Msg("orphan sweep scheduled")
	return nil
}

// Stop prevents new runs. The returned context is done once a running job
// has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueueSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.queue.Enqueue(ctx, queue.Task{Type: queue.TaskSweep}); err != nil {
		s.log.Error().Err(err).Msg("enqueue sweep failed")
		return
	}
	s.log.Info().Msg("orphan sweep enqueued")
}
