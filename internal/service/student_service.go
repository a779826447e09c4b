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

// StudentService handles student (aluno) business logic, guardian links and authorized pickups.
type StudentService struct {
	tx          repository.Transactor
	studentRepo repository.StudentRepository
	classRepo   repository.ClassRepository
	profileRepo repository.ProfileRepository
	auth        *AuthService
	log         zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(
	tx repository.Transactor,
	studentRepo repository.StudentRepository,
	classRepo repository.ClassRepository,
	profileRepo repository.ProfileRepository,
	auth *AuthService,
	log zerolog.Logger,
) *StudentService {
	return &StudentService{
		tx:          tx,
		studentRepo: studentRepo,
		classRepo:   classRepo,
		profileRepo: profileRepo,
		auth:        auth,
		log:         log.With().Str("component", "student_service").Logger(),
	}
}

// List retrieves students with pagination. Guardians only see the students they are linked to.
func (s *StudentService) List(ctx context.Context, viewer model.Viewer, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error) {
	if viewer.IsGuardian() {
		filter.GuardianID = &viewer.ProfileID
	}
	return s.studentRepo.List(ctx, viewer.InstitutionID, filter, limit, offset)
}

// Get retrieves a student visible to the viewer.
func (s *StudentService) Get(ctx context.Context, viewer model.Viewer, id int) (*model.Student, error) {
	st, err := s.studentRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if viewer.IsGuardian() && st.GuardianIndex(viewer.ProfileID) < 0 {
		return nil, ErrNotFound
	}
	return st, nil
}

// Create enrolls a student with empty guardian and pickup lists.
func (s *StudentService) Create(ctx context.Context, viewer model.Viewer, req *model.StudentRequest) (*model.Student, error) {
	st := &model.Student{InstitutionID: viewer.InstitutionID, Active: true}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.apply(ctx, st, req); err != nil {
			return err
		}
		return s.studentRepo.Create(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("student_id", st.ID).Msg("Student created")
	return s.studentRepo.GetByID(ctx, viewer.InstitutionID, st.ID)
}

// Update modifies the basic student fields.
func (s *StudentService) Update(ctx context.Context, viewer model.Viewer, id int, req *model.StudentRequest) (*model.Student, error) {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		st, err := s.studentRepo.GetByIDForUpdate(ctx, viewer.InstitutionID, id)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, st, req); err != nil {
			return err
		}
		return s.studentRepo.Update(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	return s.studentRepo.GetByID(ctx, viewer.InstitutionID, id)
}

// Delete removes a student and, by cascade, their logs and health records.
func (s *StudentService) Delete(ctx context.Context, viewer model.Viewer, id int) error {
	if err := s.studentRepo.Delete(ctx, viewer.InstitutionID, id); err != nil {
		return err
	}
	s.log.Info().Int("student_id", id).Msg("Student deleted")
	return nil
}

func (s *StudentService) apply(ctx context.Context, st *model.Student, req *model.StudentRequest) error {
	birth, err := model.ParseDate(req.BirthDate)
	if err != nil {
		return ErrInvalidDate
	}

	if req.ClassID != nil && (st.ClassID == nil || *st.ClassID != *req.ClassID) {
		if err := s.checkClassSeat(ctx, st.InstitutionID, *req.ClassID); err != nil {
			return err
		}
	}

	st.Name = strings.TrimSpace(req.Name)
	st.BirthDate = birth
	st.Gender = req.Gender
	st.ClassID = req.ClassID
	st.Allergies = strings.TrimSpace(req.Allergies)
	st.Notes = strings.TrimSpace(req.Notes)
	st.PhotoURL = req.PhotoURL
	if req.Active != nil {
		st.Active = *req.Active
	}
	return nil
}

// checkClassSeat verifies the class exists and, when it has a capacity, still has room.
// It runs inside the caller's transaction and holds the class row lock until commit.
func (s *StudentService) checkClassSeat(ctx context.Context, institutionID, classID int) error {
	c, err := s.classRepo.GetByIDForUpdate(ctx, institutionID, classID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidClass
		}
		return err
	}
	if c.Capacity > 0 && c.StudentCount >= c.Capacity {
		return ErrClassFull
	}
	return nil
}

// ─── Guardians ──────────────────────────────────────────────────────────────

// ListGuardians returns the guardian list of a student.
func (s *StudentService) ListGuardians(ctx context.Context, viewer model.Viewer, id int) ([]model.Guardian, error) {
	st, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	return st.Guardians, nil
}

// LinkGuardian adds a guardian to a student. The guardian is either an existing RESPONSAVEL
// profile (req.ProfileID) or provisioned from the request. Profile creation and the list
// update commit together.
func (s *StudentService) LinkGuardian(ctx context.Context, viewer model.Viewer, studentID int, req *model.LinkGuardianRequest) (*model.LinkGuardianResult, error) {
	result := &model.LinkGuardianResult{}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		st, err := s.studentRepo.GetByIDForUpdate(ctx, viewer.InstitutionID, studentID)
		if err != nil {
			return err
		}

		var profile *model.Profile
		if req.ProfileID != 0 {
			profile, err = s.existingGuardian(ctx, viewer.InstitutionID, req.ProfileID)
			if err != nil {
				return err
			}
		} else {
			email := normalizeEmail(req.Email)
			if st.HasGuardianEmail(email) {
				return ErrGuardianAlreadyLinked
			}
			profile, err = s.profileRepo.GetByEmail(ctx, email)
			switch {
			case err == nil:
				if profile.InstitutionID != viewer.InstitutionID || profile.Role != model.RoleGuardian {
					return ErrEmailTaken
				}
			case errors.Is(err, repository.ErrNotFound):
				profile, err = s.provisionGuardian(ctx, viewer.InstitutionID, email, req, result)
				if err != nil {
					return err
				}
			default:
				return err
			}
		}

		if st.GuardianIndex(profile.ID) >= 0 {
			return ErrGuardianAlreadyLinked
		}

		g := model.Guardian{
			ProfileID:            profile.ID,
			Name:                 profile.Name,
			Relationship:         strings.TrimSpace(req.Relationship),
			Phone:                profile.Phone,
			Email:                profile.Email,
			FinancialResponsible: req.FinancialResponsible,
		}
		guardians := append(append([]model.Guardian{}, st.Guardians...), g)
		if err := checkFinancialGuardian(guardians); err != nil {
			return err
		}
		if err := s.studentRepo.UpdateGuardians(ctx, viewer.InstitutionID, studentID, guardians); err != nil {
			return err
		}

		st.Guardians = guardians
		result.Student = st
		result.Guardian = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("student_id", studentID).
		Int("profile_id", result.Guardian.ProfileID).
		Bool("profile_created", result.ProfileCreated).
		Msg("Guardian linked")
	return result, nil
}

func (s *StudentService) existingGuardian(ctx context.Context, institutionID, profileID int) (*model.Profile, error) {
	p, err := s.profileRepo.GetByID(ctx, institutionID, profileID)
	if err != nil {
		return nil, err
	}
	if p.Role != model.RoleGuardian {
		return nil, ErrNotGuardianProfile
	}
	return p, nil
}

func (s *StudentService) provisionGuardian(ctx context.Context, institutionID int, email string, req *model.LinkGuardianRequest, result *model.LinkGuardianResult) (*model.Profile, error) {
	password := req.Password
	if password == "" {
		generated, err := GeneratePassword(TemporaryPasswordLength)
		if err != nil {
			return nil, err
		}
		password = generated
		result.TemporaryPassword = generated
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &model.Profile{
		InstitutionID: institutionID,
		Name:          strings.TrimSpace(req.Name),
		Email:         email,
		Phone:         strings.TrimSpace(req.Phone),
		Role:          model.RoleGuardian,
		PasswordHash:  hash,
		Active:        true,
	}
	if err := s.profileRepo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	result.ProfileCreated = true
	return p, nil
}

// UnlinkGuardian removes a guardian from a student. The guardian profile itself is kept.
func (s *StudentService) UnlinkGuardian(ctx context.Context, viewer model.Viewer, studentID, profileID int) (*model.Student, error) {
	return s.editGuardians(ctx, viewer, studentID, profileID, func(list []model.Guardian, idx int) []model.Guardian {
		return append(list[:idx], list[idx+1:]...)
	})
}

// UpdateGuardianLink changes the relationship and financial flag of a linked guardian.
func (s *StudentService) UpdateGuardianLink(ctx context.Context, viewer model.Viewer, studentID, profileID int, req *model.UpdateGuardianRequest) (*model.Student, error) {
	return s.editGuardians(ctx, viewer, studentID, profileID, func(list []model.Guardian, idx int) []model.Guardian {
		list[idx].Relationship = strings.TrimSpace(req.Relationship)
		list[idx].FinancialResponsible = req.FinancialResponsible
		return list
	})
}

func (s *StudentService) editGuardians(ctx context.Context, viewer model.Viewer, studentID, profileID int, edit func([]model.Guardian, int) []model.Guardian) (*model.Student, error) {
	var st *model.Student
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		st, err = s.studentRepo.GetByIDForUpdate(ctx, viewer.InstitutionID, studentID)
		if err != nil {
			return err
		}
		idx := st.GuardianIndex(profileID)
		if idx < 0 {
			return ErrGuardianNotLinked
		}

		guardians := edit(append([]model.Guardian{}, st.Guardians...), idx)
		if err := checkFinancialGuardian(guardians); err != nil {
			return err
		}
		if err := s.studentRepo.UpdateGuardians(ctx, viewer.InstitutionID, studentID, guardians); err != nil {
			return err
		}
		st.Guardians = guardians
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// UpdatePickups replaces the list of people authorized to collect the student.
func (s *StudentService) UpdatePickups(ctx context.Context, viewer model.Viewer, studentID int, pickups []model.AuthorizedPickup) (*model.Student, error) {
	for i := range pickups {
		pickups[i].Name = strings.TrimSpace(pickups[i].Name)
		pickups[i].Document = strings.TrimSpace(pickups[i].Document)
	}
	if err := s.studentRepo.UpdatePickups(ctx, viewer.InstitutionID, studentID, pickups); err != nil {
		return nil, err
	}
	return s.studentRepo.GetByID(ctx, viewer.InstitutionID, studentID)
}

// checkFinancialGuardian enforces that a non-empty guardian list has a financially
// responsible guardian.
func checkFinancialGuardian(guardians []model.Guardian) error {
	candidate := model.Student{Guardians: guardians}
	if len(guardians) > 0 && !candidate.HasFinancialGuardian() {
		return ErrNoFinancialGuardian
	}
	return nil
}
