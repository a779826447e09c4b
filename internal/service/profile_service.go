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

// ProfileService manages staff and guardian accounts.
type ProfileService struct {
	tx          repository.Transactor
	profileRepo repository.ProfileRepository
	studentRepo repository.StudentRepository
	auth        *AuthService
	log         zerolog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(tx repository.Transactor, profileRepo repository.ProfileRepository, studentRepo repository.StudentRepository, auth *AuthService, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		tx:          tx,
		profileRepo: profileRepo,
		studentRepo: studentRepo,
		auth:        auth,
		log:         log.With().Str("component", "profile_service").Logger(),
	}
}

func (s *ProfileService) List(ctx context.Context, viewer model.Viewer, filter model.ProfileFilter, limit, offset int) ([]model.Profile, int, error) {
	return s.profileRepo.List(ctx, viewer.InstitutionID, filter, limit, offset)
}

func (s *ProfileService) Get(ctx context.Context, viewer model.Viewer, id int) (*model.Profile, error) {
	return s.profileRepo.GetByID(ctx, viewer.InstitutionID, id)
}

// Create provisions an account in the caller's institution.
func (s *ProfileService) Create(ctx context.Context, viewer model.Viewer, req *model.CreateProfileRequest) (*model.Profile, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &model.Profile{
		InstitutionID: viewer.InstitutionID,
		Name:          strings.TrimSpace(req.Name),
		Email:         normalizeEmail(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Role:          req.Role,
		PasswordHash:  hash,
		Active:        true,
	}
	if err := s.profileRepo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info().Int("profile_id", p.ID).Str("role", string(p.Role)).Msg("Profile created")
	return p, nil
}

// Update edits an account. Guardian contact changes are propagated to the students they are linked to.
func (s *ProfileService) Update(ctx context.Context, viewer model.Viewer, id int, req *model.UpdateProfileRequest) (*model.Profile, error) {
	var p *model.Profile
	revoke := false

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.profileRepo.GetByID(ctx, viewer.InstitutionID, id)
		if err != nil {
			return err
		}

		if id == viewer.ProfileID && (req.Role != p.Role || (req.Active != nil && !*req.Active)) {
			return ErrSelfDelete
		}
		if p.Role == model.RoleGuardian && req.Role != model.RoleGuardian {
			if err := s.ensureNotLinked(ctx, viewer.InstitutionID, id); err != nil {
				return err
			}
		}

		p.Name = strings.TrimSpace(req.Name)
		p.Email = normalizeEmail(req.Email)
		p.Phone = strings.TrimSpace(req.Phone)
		if req.Role != p.Role {
			revoke = true
		}
		p.Role = req.Role
		if req.Active != nil {
			if p.Active && !*req.Active {
				revoke = true
			}
			p.Active = *req.Active
		}

		if err := s.profileRepo.Update(ctx, p); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailTaken
			}
			return err
		}

		if req.Password != "" {
			hash, err := s.auth.HashPassword(req.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			if err := s.profileRepo.UpdatePassword(ctx, p.ID, hash); err != nil {
				return err
			}
			revoke = true
		}

		if p.Role == model.RoleGuardian {
			return s.studentRepo.SyncGuardianContact(ctx, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Tokens embed role permissions, so a role change or deactivation ends every session.
	if revoke {
		if err := s.auth.RevokeSessions(ctx, p.ID, ""); err != nil {
			s.log.Warn().Err(err).Int("profile_id", p.ID).Msg("Failed to revoke sessions")
		}
	}
	return p, nil
}

// Delete removes an account. Guardians must be unlinked from every student first.
func (s *ProfileService) Delete(ctx context.Context, viewer model.Viewer, id int) error {
	if id == viewer.ProfileID {
		return ErrSelfDelete
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.profileRepo.GetByID(ctx, viewer.InstitutionID, id)
		if err != nil {
			return err
		}
		if p.Role == model.RoleGuardian {
			if err := s.ensureNotLinked(ctx, viewer.InstitutionID, id); err != nil {
				return err
			}
		}
		return s.profileRepo.Delete(ctx, viewer.InstitutionID, id)
	})
	if err != nil {
		return err
	}

	if err := s.auth.RevokeSessions(ctx, id, ""); err != nil {
		s.log.Warn().Err(err).Int("profile_id", id).Msg("Failed to revoke sessions")
	}
	s.log.Info().Int("profile_id", id).Msg("Profile deleted")
	return nil
}

func (s *ProfileService) ensureNotLinked(ctx context.Context, institutionID, profileID int) error {
	n, err := s.studentRepo.CountByGuardian(ctx, institutionID, profileID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrGuardianStillLinked
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
