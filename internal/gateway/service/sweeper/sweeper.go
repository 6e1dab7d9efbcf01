package sweeper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultSchedule = "@every 5m"
	DefaultIdle     = 24 * time.Hour
)

// Abandoner marks in-progress conversations idle since before as abandoned.
type Abandoner interface {
	AbandonIdle(ctx context.Context, before time.Time) (int, error)
}

// Sweeper periodically abandons conversations nobody has touched for Idle.
type Sweeper struct {
	store    Abandoner
	idle     time.Duration
	schedule string
	cron     *cron.Cron
	logger   *log.Logger
	now      func() time.Time
}

func New(store Abandoner, idle time.Duration, schedule string, logger *log.Logger) (*Sweeper, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if idle <= 0 {
		idle = DefaultIdle
	}
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		store:    store,
		idle:     idle,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// SweepOnce abandons idle conversations and reports how many changed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	before := s.now().Add(-s.idle)
	n, err := s.store.AbandonIdle(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("abandon idle: %w", err)
	}
	if n > 0 {
		s.logger.Printf("sweeper: abandoned=%d idle_since=%s", n, before.UTC().Format(time.RFC3339))
	}
	return n, nil
}

// Run schedules sweeps and blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.SweepOnce(ctx); err != nil {
			s.logger.Printf("sweeper: sweep failed err=%v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Printf("sweeper: started schedule=%q idle=%s", s.schedule, s.idle)
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Printf("sweeper: stopped")
	return nil
}
