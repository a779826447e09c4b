package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Notifier queues notifications for asynchronous delivery.
type Notifier interface {
	Enqueue(ctx context.Context, job model.NotificationJob) error
}

// NotificationService queues, stores and streams notifications.
type NotificationService struct {
	rdb              *redis.Client
	notificationRepo repository.NotificationRepository
	profileRepo      repository.ProfileRepository
	studentRepo      repository.StudentRepository
	classRepo        repository.ClassRepository
	log              zerolog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	rdb *redis.Client,
	notificationRepo repository.NotificationRepository,
	profileRepo repository.ProfileRepository,
	studentRepo repository.StudentRepository,
	classRepo repository.ClassRepository,
	log zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		rdb:              rdb,
		notificationRepo: notificationRepo,
		profileRepo:      profileRepo,
		studentRepo:      studentRepo,
		classRepo:        classRepo,
		log:              log.With().Str("component", "notification_service").Logger(),
	}
}

// Enqueue pushes a job to the notification queue. Jobs without recipients are dropped.
func (s *NotificationService) Enqueue(ctx context.Context, job model.NotificationJob) error {
	job.RecipientIDs = uniqueIDs(job.RecipientIDs)
	if len(job.RecipientIDs) == 0 {
		return nil
	}
	if job.Kind == "" {
		job.Kind = model.NotificationGeneral
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.NotificationQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// Send broadcasts a notification to the requested audience and returns the number of recipients.
func (s *NotificationService) Send(ctx context.Context, viewer model.Viewer, req *model.SendNotificationRequest) (int, error) {
	recipients, err := s.resolveAudience(ctx, viewer.InstitutionID, req)
	if err != nil {
		return 0, err
	}

	job := model.NotificationJob{
		InstitutionID: viewer.InstitutionID,
		RecipientIDs:  recipients,
		Title:         req.Title,
		Message:       req.Message,
		Kind:          model.NotificationGeneral,
	}
	if err := s.Enqueue(ctx, job); err != nil {
		return 0, err
	}

	n := len(uniqueIDs(recipients))
	s.log.Info().Str("audience", string(req.Audience)).Int("recipients", n).Msg("Notification queued")
	return n, nil
}

func (s *NotificationService) resolveAudience(ctx context.Context, institutionID int, req *model.SendNotificationRequest) ([]int, error) {
	switch req.Audience {
	case model.AudienceProfile:
		p, err := s.profileRepo.GetByID(ctx, institutionID, req.ProfileID)
		if err != nil {
			return nil, err
		}
		return []int{p.ID}, nil
	case model.AudienceClass:
		if _, err := s.classRepo.GetByID(ctx, institutionID, req.ClassID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrInvalidClass
			}
			return nil, err
		}
		return s.studentRepo.GuardianIDsByClass(ctx, institutionID, req.ClassID)
	case model.AudienceAllGuardians:
		return s.profileRepo.IDsByRole(ctx, institutionID, model.RoleGuardian)
	case model.AudienceAllStaff:
		return s.profileRepo.IDsByRole(ctx, institutionID, model.RoleAdmin, model.RoleEducator)
	}
	return nil, fmt.Errorf("unknown audience %q", req.Audience)
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, viewer model.Viewer, unreadOnly bool, limit, offset int) ([]model.Notification, int, error) {
	return s.notificationRepo.List(ctx, viewer.ProfileID, unreadOnly, limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, viewer model.Viewer) (int, error) {
	return s.notificationRepo.UnreadCount(ctx, viewer.ProfileID)
}

func (s *NotificationService) MarkRead(ctx context.Context, viewer model.Viewer, id int) error {
	return s.notificationRepo.MarkRead(ctx, viewer.ProfileID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, viewer model.Viewer) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, viewer.ProfileID)
}

// Publish fans stored notifications out to each recipient's PubSub channel.
func (s *NotificationService) Publish(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	pipe := s.rdb.Pipeline()
	for _, n := range notifications {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		pipe.Publish(ctx, config.CacheKey.NotificationChannel(n.RecipientID), data)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Subscribe opens the live notification channel of a profile. The caller must close it.
func (s *NotificationService) Subscribe(ctx context.Context, profileID int) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.NotificationChannel(profileID))
}

// notifyGuardians queues a notification to every guardian of a student. Delivery is best
// effort: failures are logged and do not fail the calling operation.
func notifyGuardians(ctx context.Context, notifier Notifier, log zerolog.Logger, st *model.Student, title, message, kind string) bool {
	if notifier == nil || st == nil || len(st.Guardians) == 0 {
		return false
	}
	job := model.NotificationJob{
		InstitutionID: st.InstitutionID,
		RecipientIDs:  st.GuardianIDs(),
		Title:         title,
		Message:       message,
		Kind:          kind,
	}
	if err := notifier.Enqueue(ctx, job); err != nil {
		log.Warn().Err(err).Int("student_id", st.ID).Str("kind", kind).Msg("Failed to queue guardian notification")
		return false
	}
	return true
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id <= 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
