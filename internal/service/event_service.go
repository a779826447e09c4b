package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/rs/zerolog"
)

// EventService handles calendar events.
type EventService struct {
	eventRepo   repository.EventRepository
	classRepo   repository.ClassRepository
	studentRepo repository.StudentRepository
	profileRepo repository.ProfileRepository
	notifier    Notifier
	log         zerolog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(
	eventRepo repository.EventRepository,
	classRepo repository.ClassRepository,
	studentRepo repository.StudentRepository,
	profileRepo repository.ProfileRepository,
	notifier Notifier,
	log zerolog.Logger,
) *EventService {
	return &EventService{
		eventRepo:   eventRepo,
		classRepo:   classRepo,
		studentRepo: studentRepo,
		profileRepo: profileRepo,
		notifier:    notifier,
		log:         log.With().Str("component", "event_service").Logger(),
	}
}

// List returns events overlapping the window. Guardians see institution-wide events and
// events of their children's classes.
func (s *EventService) List(ctx context.Context, viewer model.Viewer, filter model.EventFilter) ([]model.Event, error) {
	ids, err := guardianClassIDs(ctx, s.studentRepo, viewer)
	if err != nil {
		return nil, err
	}
	filter.ClassIDs = ids
	return s.eventRepo.List(ctx, viewer.InstitutionID, filter)
}

func (s *EventService) Get(ctx context.Context, viewer model.Viewer, id int) (*model.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if e.ClassID != nil {
		ids, err := guardianClassIDs(ctx, s.studentRepo, viewer)
		if err != nil {
			return nil, err
		}
		if ids != nil && !containsID(ids, *e.ClassID) {
			return nil, ErrNotFound
		}
	}
	return e, nil
}

// Create adds an event and announces it to the guardians concerned.
func (s *EventService) Create(ctx context.Context, viewer model.Viewer, req *model.EventRequest) (*model.Event, error) {
	creator := viewer.ProfileID
	e := &model.Event{InstitutionID: viewer.InstitutionID, CreatedBy: &creator}
	if err := s.apply(ctx, e, req); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.announce(ctx, e)
	return e, nil
}

func (s *EventService) Update(ctx context.Context, viewer model.Viewer, id int, req *model.EventRequest) (*model.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, e, req); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) Delete(ctx context.Context, viewer model.Viewer, id int) error {
	return s.eventRepo.Delete(ctx, viewer.InstitutionID, id)
}

func (s *EventService) apply(ctx context.Context, e *model.Event, req *model.EventRequest) error {
	if req.EndsAt.Before(req.StartsAt) {
		return ErrInvalidDateRange
	}
	if req.ClassID != nil {
		if _, err := s.classRepo.GetByID(ctx, e.InstitutionID, *req.ClassID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidClass
			}
			return err
		}
	}

	e.ClassID = req.ClassID
	e.Title = strings.TrimSpace(req.Title)
	e.Description = strings.TrimSpace(req.Description)
	e.Kind = req.Kind
	if e.Kind == "" {
		e.Kind = "GERAL"
	}
	e.StartsAt = req.StartsAt
	e.EndsAt = req.EndsAt
	e.AllDay = req.AllDay
	return nil
}

func (s *EventService) announce(ctx context.Context, e *model.Event) {
	var recipients []int
	var err error
	if e.ClassID != nil {
		recipients, err = s.studentRepo.GuardianIDsByClass(ctx, e.InstitutionID, *e.ClassID)
	} else {
		recipients, err = s.profileRepo.IDsByRole(ctx, e.InstitutionID, model.RoleGuardian)
	}
	if err != nil {
		s.log.Warn().Err(err).Int("event_id", e.ID).Msg("Failed to resolve event audience")
		return
	}

	job := model.NotificationJob{
		InstitutionID: e.InstitutionID,
		RecipientIDs:  recipients,
		Title:         "Novo evento: " + e.Title,
		Message:       fmt.Sprintf("%s em %s", e.Title, e.StartsAt.Format("02/01/2006 15:04")),
		Kind:          model.NotificationEvent,
	}
	if err := s.notifier.Enqueue(ctx, job); err != nil {
		s.log.Warn().Err(err).Int("event_id", e.ID).Msg("Failed to queue event notification")
	}
}
