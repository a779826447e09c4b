package worker

import (
	"context"
	"time"

	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ReminderSource builds the daily reminder jobs of an institution.
type ReminderSource interface {
	VaccinationReminderJobs(ctx context.Context, institutionID int, today model.Date, days int) ([]model.NotificationJob, error)
}

// ReminderScheduler enqueues the daily vaccination reminders once a day at the
// configured hour. A Redis marker keeps replicas from sending them twice.
type ReminderScheduler struct {
	rdb          *redis.Client
	institutions repository.InstitutionRepository
	source       ReminderSource
	notifier     service.Notifier
	hour         int
	days         int
	log          zerolog.Logger
	now          func() time.Time
}

func NewReminderScheduler(
	cfg *config.Config,
	rdb *redis.Client,
	institutions repository.InstitutionRepository,
	source ReminderSource,
	notifier service.Notifier,
	log zerolog.Logger,
) *ReminderScheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderScheduler{
		rdb:          rdb,
		institutions: institutions,
		source:       source,
		notifier:     notifier,
		hour:         cfg.ReminderHour,
		days:         cfg.VaccineReminderDays,
		log:          log.With().Str("component", "reminder_scheduler").Logger(),
		now:          func() time.Time { return time.Now().In(loc) },
	}
}

// Start ticks every minute until ctx is cancelled.
func (s *ReminderScheduler) Start(ctx context.Context) {
	s.log.Info().Int("hour", s.hour).Msg("ReminderScheduler started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("ReminderScheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs the reminders when the hour has come and nobody ran them today.
func (s *ReminderScheduler) tick(ctx context.Context) {
	now := s.now()
	if now.Hour() != s.hour {
		return
	}

	today := model.NewDate(now)
	runKey := config.CacheKey.ReminderRunKey(today.String())
	ok, err := s.rdb.SetNX(ctx, runKey, now.Unix(), 25*time.Hour).Result()
	if err != nil {
		s.log.Error().Err(err).Msg("Could not claim reminder run")
		return
	}
	if !ok {
		return
	}

	queued, err := s.RunOnce(ctx, today)
	if err != nil {
		s.log.Error().Err(err).Msg("Reminder run failed")
		// Release the day so the next tick within the hour retries.
		if delErr := s.rdb.Del(context.WithoutCancel(ctx), runKey).Err(); delErr != nil {
			s.log.Error().Err(delErr).Msg("Could not release reminder run")
		}
		return
	}
	s.log.Info().Str("date", today.String()).Int("jobs", queued).Msg("Reminders queued")
}

// RunOnce enqueues the reminders of every institution for today and returns how many
// jobs were queued. One failing institution does not stop the others.
func (s *ReminderScheduler) RunOnce(ctx context.Context, today model.Date) (int, error) {
	institutions, err := s.institutions.List(ctx)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, inst := range institutions {
		jobs, err := s.source.VaccinationReminderJobs(ctx, inst.ID, today, s.days)
		if err != nil {
			s.log.Error().Err(err).Int("institution_id", inst.ID).Msg("Building vaccination reminders failed")
			continue
		}
		for _, job := range jobs {
			if err := s.notifier.Enqueue(ctx, job); err != nil {
				s.log.Error().Err(err).Int("institution_id", inst.ID).Msg("Queueing reminder failed")
				continue
			}
			queued++
		}
	}
	return queued, nil
}
