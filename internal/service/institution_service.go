package service

import (
	"context"
	"strings"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
)

// InstitutionService exposes the caller's institution record.
type InstitutionService struct {
	repo repository.InstitutionRepository
}

// NewInstitutionService creates a new InstitutionService.
func NewInstitutionService(repo repository.InstitutionRepository) *InstitutionService {
	return &InstitutionService{repo: repo}
}

func (s *InstitutionService) Get(ctx context.Context, viewer model.Viewer) (*model.Institution, error) {
	return s.repo.GetByID(ctx, viewer.InstitutionID)
}

func (s *InstitutionService) Update(ctx context.Context, viewer model.Viewer, req *model.UpdateInstitutionRequest) (*model.Institution, error) {
	inst, err := s.repo.GetByID(ctx, viewer.InstitutionID)
	if err != nil {
		return nil, err
	}
	inst.Name = strings.TrimSpace(req.Name)
	inst.Document = strings.TrimSpace(req.Document)
	inst.Phone = strings.TrimSpace(req.Phone)
	inst.Address = strings.TrimSpace(req.Address)
	if err := s.repo.Update(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}
