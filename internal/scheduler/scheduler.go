// Package scheduler runs the reminder loop: on a fixed interval, inside the
// configured notification hours, it asks for what is due and hands it to a
// Notifier.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/progress/internal/engine"
)

// Default notification settings.
const (
	DefaultEvery                 = time.Hour
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier delivers a reminder for the work due on a day.
type Notifier interface {
	Remind(ctx context.Context, due engine.Due) error
}

// DueSource computes what is due right now. Implementations usually open a
// short store session so that other processes can write between ticks.
type DueSource func(ctx context.Context) (engine.Due, error)

// Config controls when reminders fire.
type Config struct {
	Every     time.Duration
	StartHour int
	EndHour   int
	Location  *time.Location
}

// DefaultConfig returns hourly reminders between 8:00 and 22:00 local time.
func DefaultConfig() Config {
	return Config{
		Every:     DefaultEvery,
		StartHour: DefaultNotificationStartHour,
		EndHour:   DefaultNotificationEndHour,
		Location:  time.Local,
	}
}

// Scheduler manages the periodic reminder job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    DueSource
	notifier  Notifier
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a new scheduler instance. A nil logger disables logging.
func New(source DueSource, notifier Notifier, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Every <= 0 {
		cfg.Every = DefaultEvery
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(cfg.Location),
		source:    source,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the reminder job and runs it in the background. The first
// run happens immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.scheduler.Every(s.cfg.Every).Do(s.tick, ctx); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("reminders started",
		zap.Duration("every", s.cfg.Every),
		zap.Int("start_hour", s.cfg.StartHour),
		zap.Int("end_hour", s.cfg.EndHour))
	return nil
}

// Stop terminates the reminder job.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// InWindow reports whether hour falls inside the notification hours. A start
// hour after the end hour wraps past midnight.
func (s *Scheduler) InWindow(hour int) bool {
	start, end := s.cfg.StartHour, s.cfg.EndHour
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}

func (s *Scheduler) tick(ctx context.Context) {
	hour := s.now().In(s.cfg.Location).Hour()
	if !s.InWindow(hour) {
		s.logger.Debug("outside notification hours, skipping reminders",
			zap.Int("hour", hour),
			zap.Int("start_hour", s.cfg.StartHour),
			zap.Int("end_hour", s.cfg.EndHour))
		return
	}
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Warn("reminder run failed", zap.Error(err))
	}
}

// RunOnce checks what is due and notifies if anything is, regardless of the
// notification hours.
func (s *Scheduler) RunOnce(ctx context.Context) (engine.Due, error) {
	if s.source == nil {
		return engine.Due{}, errors.New("scheduler: no due source")
	}
	due, err := s.source(ctx)
	if err != nil {
		return engine.Due{}, err
	}
	s.logger.Info("reminder check",
		zap.Stringer("date", due.Date),
		zap.Int("habits_due", len(due.Habits)),
		zap.Int("reviews_due", len(due.Reviews)))
	if due.Empty() || s.notifier == nil {
		return due, nil
	}
	return due, s.notifier.Remind(ctx, due)
}
