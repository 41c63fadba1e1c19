package keepalive

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler pings the API on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	pinger *Pinger
	logger *slog.Logger
}

func NewScheduler(pinger *Pinger, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		pinger: pinger,
		logger: logger.With(slog.String("component", "keepalive")),
	}
}

// Register adds the ping job. Schedule examples: "@every 10m", "*/5 * * * *".
func (s *Scheduler) Register(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.run)
	if err != nil {
		return err
	}

	s.logger.Info("Health ping registered", slog.String("schedule", schedule), slog.String("url", s.pinger.URL()))
	return nil
}

func (s *Scheduler) run() {
	res := s.pinger.Ping(context.Background())
	if !res.OK {
		s.logger.Error("Health ping failed", slog.String("url", res.Error.URL), slog.String("error", res.Error.Message))
		return
	}
	s.logger.Debug("Health ping succeeded", slog.Int("status", res.HealthCheck.Status))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}
