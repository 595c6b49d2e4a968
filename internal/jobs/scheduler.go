package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"lensfolio/api/internal/views"
)

// Scheduler drives the periodic fold of buffered view counts into the
// database.
type Scheduler struct {
	cron    *cron.Cron
	counter *views.Counter
	log     zerolog.Logger
}

func NewScheduler(counter *views.Counter, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:    c,
		counter: counter,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 * * * * *", s.flushViews); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()

	// Final flush so a clean shutdown loses as few counts as possible.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.counter.Flush(ctx); err != nil {
		s.log.Warn().Err(err).Msg("final view flush failed")
	}
}

func (s *Scheduler) flushViews() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.counter.Flush(ctx); err != nil {
		s.log.Error().Err(err).Msg("flush views failed")
	}
}
