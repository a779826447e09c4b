package service

import (
	"context"
	"errors"
	"strings"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
)

// ClassService handles class (turma) business logic.
type ClassService struct {
	classRepo   repository.ClassRepository
	profileRepo repository.ProfileRepository
}

// NewClassService creates a new ClassService.
func NewClassService(classRepo repository.ClassRepository, profileRepo repository.ProfileRepository) *ClassService {
	return &ClassService{classRepo: classRepo, profileRepo: profileRepo}
}

// Get retrieves a class by its ID.
func (s *ClassService) Get(ctx context.Context, viewer model.Viewer, id int) (*model.Class, error) {
	return s.classRepo.GetByID(ctx, viewer.InstitutionID, id)
}

// List retrieves all classes of the caller's institution.
func (s *ClassService) List(ctx context.Context, viewer model.Viewer) ([]model.Class, error) {
	return s.classRepo.List(ctx, viewer.InstitutionID)
}

// Create creates a new class.
func (s *ClassService) Create(ctx context.Context, viewer model.Viewer, req *model.ClassRequest) (*model.Class, error) {
	c := &model.Class{InstitutionID: viewer.InstitutionID}
	if err := s.apply(ctx, c, req); err != nil {
		return nil, err
	}
	if err := s.classRepo.Create(ctx, c); err != nil {
		return nil, classWriteError(err)
	}
	return s.classRepo.GetByID(ctx, viewer.InstitutionID, c.ID)
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, viewer model.Viewer, id int, req *model.ClassRequest) (*model.Class, error) {
	c, err := s.classRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, c, req); err != nil {
		return nil, err
	}
	if err := s.classRepo.Update(ctx, c); err != nil {
		return nil, classWriteError(err)
	}
	return s.classRepo.GetByID(ctx, viewer.InstitutionID, id)
}

// Delete removes a class. Classes with students assigned cannot be deleted.
func (s *ClassService) Delete(ctx context.Context, viewer model.Viewer, id int) error {
	err := s.classRepo.Delete(ctx, viewer.InstitutionID, id)
	if errors.Is(err, repository.ErrReferenced) {
		return ErrClassInUse
	}
	return err
}

// classWriteError reports the (institution_id, name) unique violation as ErrClassNameTaken.
func classWriteError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrClassNameTaken
	}
	return err
}

func (s *ClassService) apply(ctx context.Context, c *model.Class, req *model.ClassRequest) error {
	if req.TeacherID != nil {
		teacher, err := s.profileRepo.GetByID(ctx, c.InstitutionID, *req.TeacherID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidTeacher
			}
			return err
		}
		if teacher.Role != model.RoleEducator || !teacher.Active {
			return ErrInvalidTeacher
		}
	}

	c.Name = strings.TrimSpace(req.Name)
	c.AgeGroup = strings.TrimSpace(req.AgeGroup)
	c.Shift = req.Shift
	c.Capacity = req.Capacity
	c.TeacherID = req.TeacherID
	return nil
}
