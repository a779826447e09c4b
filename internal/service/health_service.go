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

// HealthService handles medication schedules, incidents and vaccinations.
type HealthService struct {
	medicationRepo  repository.MedicationRepository
	incidentRepo    repository.IncidentRepository
	vaccinationRepo repository.VaccinationRepository
	studentRepo     repository.StudentRepository
	notifier        Notifier
	log             zerolog.Logger
	now             func() time.Time
}

// NewHealthService creates a new HealthService.
func NewHealthService(
	medicationRepo repository.MedicationRepository,
	incidentRepo repository.IncidentRepository,
	vaccinationRepo repository.VaccinationRepository,
	studentRepo repository.StudentRepository,
	notifier Notifier,
	loc *time.Location,
	log zerolog.Logger,
) *HealthService {
	return &HealthService{
		medicationRepo:  medicationRepo,
		incidentRepo:    incidentRepo,
		vaccinationRepo: vaccinationRepo,
		studentRepo:     studentRepo,
		notifier:        notifier,
		log:             log.With().Str("component", "health_service").Logger(),
		now:             clock(loc),
	}
}

// clock reads the current time on loc's wall clock.
func clock(loc *time.Location) func() time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

// Today returns the current calendar day.
func (s *HealthService) Today() model.Date {
	return model.NewDate(s.now())
}

func (s *HealthService) scope(ctx context.Context, viewer model.Viewer, studentID *int) (model.HealthFilter, error) {
	ids, err := guardianStudentIDs(ctx, s.studentRepo, viewer)
	if err != nil {
		return model.HealthFilter{}, err
	}
	return model.HealthFilter{StudentID: studentID, StudentIDs: ids}, nil
}

func (s *HealthService) visible(ctx context.Context, viewer model.Viewer, studentID int) error {
	ok, err := canSeeStudent(ctx, s.studentRepo, viewer, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ─── Medication schedules ───────────────────────────────────────────────────

func (s *HealthService) ListMedications(ctx context.Context, viewer model.Viewer, studentID *int) ([]model.MedicationSchedule, error) {
	filter, err := s.scope(ctx, viewer, studentID)
	if err != nil {
		return nil, err
	}
	return s.medicationRepo.List(ctx, viewer.InstitutionID, filter)
}

// DueMedications lists active schedules covering day, ordered by dose time.
func (s *HealthService) DueMedications(ctx context.Context, viewer model.Viewer, day model.Date) ([]model.MedicationSchedule, error) {
	filter, err := s.scope(ctx, viewer, nil)
	if err != nil {
		return nil, err
	}
	return s.medicationRepo.Due(ctx, viewer.InstitutionID, day, filter)
}

func (s *HealthService) GetMedication(ctx context.Context, viewer model.Viewer, id int) (*model.MedicationSchedule, error) {
	m, err := s.medicationRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if err := s.visible(ctx, viewer, m.StudentID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *HealthService) CreateMedication(ctx context.Context, viewer model.Viewer, req *model.MedicationRequest) (*model.MedicationSchedule, error) {
	m := &model.MedicationSchedule{InstitutionID: viewer.InstitutionID, Active: true}
	if err := s.applyMedication(ctx, m, req); err != nil {
		return nil, err
	}
	if err := s.medicationRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	return s.medicationRepo.GetByID(ctx, viewer.InstitutionID, m.ID)
}

func (s *HealthService) UpdateMedication(ctx context.Context, viewer model.Viewer, id int, req *model.MedicationRequest) (*model.MedicationSchedule, error) {
	m, err := s.medicationRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyMedication(ctx, m, req); err != nil {
		return nil, err
	}
	if err := s.medicationRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	return s.medicationRepo.GetByID(ctx, viewer.InstitutionID, id)
}

func (s *HealthService) DeleteMedication(ctx context.Context, viewer model.Viewer, id int) error {
	return s.medicationRepo.Delete(ctx, viewer.InstitutionID, id)
}

func (s *HealthService) applyMedication(ctx context.Context, m *model.MedicationSchedule, req *model.MedicationRequest) error {
	startsOn, err := model.ParseDate(req.StartsOn)
	if err != nil {
		return ErrInvalidDate
	}
	endsOn, err := model.ParseOptionalDate(req.EndsOn)
	if err != nil {
		return ErrInvalidDate
	}
	if endsOn != nil && endsOn.Before(startsOn) {
		return ErrInvalidDateRange
	}
	if req.StudentID != m.StudentID {
		if _, err := loadStudent(ctx, s.studentRepo, m.InstitutionID, req.StudentID); err != nil {
			return err
		}
	}

	m.StudentID = req.StudentID
	m.Medication = strings.TrimSpace(req.Medication)
	m.Dosage = strings.TrimSpace(req.Dosage)
	m.ScheduleTime = req.ScheduleTime
	m.StartsOn = startsOn
	m.EndsOn = endsOn
	m.Instructions = strings.TrimSpace(req.Instructions)
	if req.Active != nil {
		m.Active = *req.Active
	}
	return nil
}

// ─── Incidents ──────────────────────────────────────────────────────────────

func (s *HealthService) ListIncidents(ctx context.Context, viewer model.Viewer, studentID *int, limit, offset int) ([]model.Incident, int, error) {
	filter, err := s.scope(ctx, viewer, studentID)
	if err != nil {
		return nil, 0, err
	}
	return s.incidentRepo.List(ctx, viewer.InstitutionID, filter, limit, offset)
}

func (s *HealthService) GetIncident(ctx context.Context, viewer model.Viewer, id int) (*model.Incident, error) {
	i, err := s.incidentRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if err := s.visible(ctx, viewer, i.StudentID); err != nil {
		return nil, err
	}
	return i, nil
}

// CreateIncident records an incident and notifies the student's guardians.
func (s *HealthService) CreateIncident(ctx context.Context, viewer model.Viewer, req *model.IncidentRequest) (*model.Incident, error) {
	st, err := loadStudent(ctx, s.studentRepo, viewer.InstitutionID, req.StudentID)
	if err != nil {
		return nil, err
	}

	author := viewer.ProfileID
	i := &model.Incident{InstitutionID: viewer.InstitutionID, AuthorID: &author}
	s.applyIncident(i, req)
	if err := s.incidentRepo.Create(ctx, i); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Ocorrência (%s): %s", strings.ToLower(string(i.Severity)), st.Name)
	if notifyGuardians(ctx, s.notifier, s.log, st, title, i.Description, model.NotificationIncident) {
		if err := s.incidentRepo.MarkGuardiansNotified(ctx, viewer.InstitutionID, i.ID); err != nil {
			s.log.Warn().Err(err).Int("incident_id", i.ID).Msg("Failed to flag incident as notified")
		}
	}

	return s.incidentRepo.GetByID(ctx, viewer.InstitutionID, i.ID)
}

func (s *HealthService) UpdateIncident(ctx context.Context, viewer model.Viewer, id int, req *model.IncidentRequest) (*model.Incident, error) {
	i, err := s.incidentRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if req.StudentID != i.StudentID {
		if _, err := loadStudent(ctx, s.studentRepo, viewer.InstitutionID, req.StudentID); err != nil {
			return nil, err
		}
	}
	s.applyIncident(i, req)
	if err := s.incidentRepo.Update(ctx, i); err != nil {
		return nil, err
	}
	return s.incidentRepo.GetByID(ctx, viewer.InstitutionID, id)
}

func (s *HealthService) DeleteIncident(ctx context.Context, viewer model.Viewer, id int) error {
	return s.incidentRepo.Delete(ctx, viewer.InstitutionID, id)
}

func (s *HealthService) applyIncident(i *model.Incident, req *model.IncidentRequest) {
	i.StudentID = req.StudentID
	i.Kind = strings.TrimSpace(req.Kind)
	i.Severity = req.Severity
	i.Description = strings.TrimSpace(req.Description)
	i.ActionTaken = strings.TrimSpace(req.ActionTaken)
	if req.OccurredAt != nil {
		i.OccurredAt = *req.OccurredAt
	} else if i.OccurredAt.IsZero() {
		i.OccurredAt = s.now()
	}
}

// ─── Vaccinations ───────────────────────────────────────────────────────────

func (s *HealthService) ListVaccinations(ctx context.Context, viewer model.Viewer, studentID *int) ([]model.Vaccination, error) {
	filter, err := s.scope(ctx, viewer, studentID)
	if err != nil {
		return nil, err
	}
	return s.vaccinationRepo.List(ctx, viewer.InstitutionID, filter)
}

// OverdueVaccinations lists pending doses whose due date has passed.
func (s *HealthService) OverdueVaccinations(ctx context.Context, viewer model.Viewer) ([]model.Vaccination, error) {
	filter, err := s.scope(ctx, viewer, nil)
	if err != nil {
		return nil, err
	}
	return s.vaccinationRepo.Overdue(ctx, viewer.InstitutionID, s.Today(), filter)
}

func (s *HealthService) GetVaccination(ctx context.Context, viewer model.Viewer, id int) (*model.Vaccination, error) {
	v, err := s.vaccinationRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if err := s.visible(ctx, viewer, v.StudentID); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *HealthService) CreateVaccination(ctx context.Context, viewer model.Viewer, req *model.VaccinationRequest) (*model.Vaccination, error) {
	v := &model.Vaccination{InstitutionID: viewer.InstitutionID}
	if err := s.applyVaccination(ctx, v, req); err != nil {
		return nil, err
	}
	if err := s.vaccinationRepo.Create(ctx, v); err != nil {
		return nil, err
	}
	return s.vaccinationRepo.GetByID(ctx, viewer.InstitutionID, v.ID)
}

func (s *HealthService) UpdateVaccination(ctx context.Context, viewer model.Viewer, id int, req *model.VaccinationRequest) (*model.Vaccination, error) {
	v, err := s.vaccinationRepo.GetByID(ctx, viewer.InstitutionID, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyVaccination(ctx, v, req); err != nil {
		return nil, err
	}
	if err := s.vaccinationRepo.Update(ctx, v); err != nil {
		return nil, err
	}
	return s.vaccinationRepo.GetByID(ctx, viewer.InstitutionID, id)
}

func (s *HealthService) DeleteVaccination(ctx context.Context, viewer model.Viewer, id int) error {
	return s.vaccinationRepo.Delete(ctx, viewer.InstitutionID, id)
}

func (s *HealthService) applyVaccination(ctx context.Context, v *model.Vaccination, req *model.VaccinationRequest) error {
	appliedOn, err := model.ParseOptionalDate(req.AppliedOn)
	if err != nil {
		return ErrInvalidDate
	}
	dueOn, err := model.ParseOptionalDate(req.DueOn)
	if err != nil {
		return ErrInvalidDate
	}
	if req.StudentID != v.StudentID {
		if _, err := loadStudent(ctx, s.studentRepo, v.InstitutionID, req.StudentID); err != nil {
			return err
		}
	}

	v.StudentID = req.StudentID
	v.Vaccine = strings.TrimSpace(req.Vaccine)
	v.Dose = strings.TrimSpace(req.Dose)
	v.AppliedOn = appliedOn
	v.DueOn = dueOn
	v.Notes = strings.TrimSpace(req.Notes)
	return nil
}

// VaccinationReminderJobs builds one notification job per student with doses due within
// the next days, addressed to that student's guardians.
func (s *HealthService) VaccinationReminderJobs(ctx context.Context, institutionID int, today model.Date, days int) ([]model.NotificationJob, error) {
	until := model.NewDate(today.AddDate(0, 0, days))
	due, err := s.vaccinationRepo.Upcoming(ctx, institutionID, today, until)
	if err != nil {
		return nil, err
	}

	byStudent := map[int][]model.Vaccination{}
	order := []int{}
	for _, v := range due {
		if _, ok := byStudent[v.StudentID]; !ok {
			order = append(order, v.StudentID)
		}
		byStudent[v.StudentID] = append(byStudent[v.StudentID], v)
	}

	jobs := []model.NotificationJob{}
	for _, studentID := range order {
		st, err := s.studentRepo.GetByID(ctx, institutionID, studentID)
		if err != nil {
			return nil, err
		}
		if len(st.Guardians) == 0 {
			continue
		}

		lines := make([]string, 0, len(byStudent[studentID]))
		for _, v := range byStudent[studentID] {
			label := v.Vaccine
			if v.Dose != "" {
				label += " (" + v.Dose + ")"
			}
			lines = append(lines, fmt.Sprintf("%s até %s", label, v.DueOn.Format("02/01/2006")))
		}
		jobs = append(jobs, model.NotificationJob{
			InstitutionID: institutionID,
			RecipientIDs:  st.GuardianIDs(),
			Title:         "Lembrete de vacina: " + st.Name,
			Message:       strings.Join(lines, "\n"),
			Kind:          model.NotificationVaccine,
		})
	}
	return jobs, nil
}
