package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/rs/zerolog"
)

// DailyLogService handles daily log (registro diário) business logic.
type DailyLogService struct {
	logRepo     repository.DailyLogRepository
	studentRepo repository.StudentRepository
	notifier    Notifier
	log         zerolog.Logger
	now         func() time.Time
}

// NewDailyLogService creates a new DailyLogService.
func NewDailyLogService(logRepo repository.DailyLogRepository, studentRepo repository.StudentRepository, notifier Notifier, log zerolog.Logger) *DailyLogService {
	return &DailyLogService{
		logRepo:     logRepo,
		studentRepo: studentRepo,
		notifier:    notifier,
		log:         log.With().Str("component", "daily_log_service").Logger(),
		now:         time.Now,
	}
}

// List retrieves logs newest first. Guardians only see logs of their children.
func (s *DailyLogService) List(ctx context.Context, viewer model.Viewer, filter model.DailyLogFilter, limit, offset int) ([]model.DailyLog, int, error) {
	ids, err := guardianStudentIDs(ctx, s.studentRepo, viewer)
	if err != nil {
		return nil, 0, err
	}
	filter.StudentIDs = ids
	return s.logRepo.List(ctx, viewer.InstitutionID, filter, limit, offset)
}

func (s *DailyLogService) Get(ctx context.Context, viewer model.Viewer, id int) (*model.DailyLog, error) {
	l, err := s.logRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	ok, err := canSeeStudent(ctx, s.studentRepo, viewer, l.StudentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return l, nil
}

// Create records a log authored by the caller and notifies the student's guardians.
func (s *DailyLogService) Create(ctx context.Context, viewer model.Viewer, req *model.DailyLogRequest) (*model.DailyLog, error) {
	st, err := loadStudent(ctx, s.studentRepo, viewer.InstitutionID, req.StudentID)
	if err != nil {
		return nil, err
	}

	author := viewer.ProfileID
	l := &model.DailyLog{
		InstitutionID: viewer.InstitutionID,
		AuthorID:      &author,
	}
	s.apply(l, req)
	if err := s.logRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	notifyGuardians(ctx, s.notifier, s.log, st,
		fmt.Sprintf("%s: %s", l.Kind.Label(), st.Name), l.Description, model.NotificationDailyLog)

	return s.logRepo.GetByID(ctx, viewer.InstitutionID, l.ID)
}

func (s *DailyLogService) Update(ctx context.Context, viewer model.Viewer, id int, req *model.DailyLogRequest) (*model.DailyLog, error) {
	l, err := s.logRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if req.StudentID != l.StudentID {
		if _, err := loadStudent(ctx, s.studentRepo, viewer.InstitutionID, req.StudentID); err != nil {
			return nil, err
		}
	}
	s.apply(l, req)
	if err := s.logRepo.Update(ctx, l); err != nil {
		return nil, err
	}
	return s.logRepo.GetByID(ctx, viewer.InstitutionID, id)
}

func (s *DailyLogService) Delete(ctx context.Context, viewer model.Viewer, id int) error {
	return s.logRepo.Delete(ctx, viewer.InstitutionID, id)
}

func (s *DailyLogService) apply(l *model.DailyLog, req *model.DailyLogRequest) {
	l.StudentID = req.StudentID
	l.Kind = req.Kind
	l.Description = strings.TrimSpace(req.Description)
	if req.RecordedAt != nil {
		l.RecordedAt = *req.RecordedAt
	} else if l.RecordedAt.IsZero() {
		l.RecordedAt = s.now()
	}
}
