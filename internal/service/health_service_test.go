package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthFixture struct {
	svc          *HealthService
	medications  *fakeMedicationRepo
	incidents    *fakeIncidentRepo
	vaccinations *fakeVaccinationRepo
	notifier     *recordingNotifier
}

func newHealthFixture(t *testing.T, vaccinations ...model.Vaccination) *healthFixture {
	t.Helper()
	students := newFakeStudentRepo(
		model.Student{ID: 10, InstitutionID: testInstitution, Name: "Ana", Guardians: []model.Guardian{{ProfileID: 3, FinancialResponsible: true}}},
		model.Student{ID: 11, InstitutionID: testInstitution, Name: "Bruno", Guardians: []model.Guardian{{ProfileID: 4, FinancialResponsible: true}}},
		model.Student{ID: 12, InstitutionID: testInstitution, Name: "Caio"},
	)
	f := &healthFixture{
		medications:  newFakeMedicationRepo(),
		incidents:    newFakeIncidentRepo(),
		vaccinations: newFakeVaccinationRepo(vaccinations...),
		notifier:     &recordingNotifier{},
	}
	f.svc = NewHealthService(f.medications, f.incidents, f.vaccinations, students, f.notifier, time.UTC, zerolog.Nop())
	f.svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC) }
	return f
}

func datePtr(t *testing.T, s string) *model.Date {
	d := mustDate(t, s)
	return &d
}

func TestHealthService_MedicationDates(t *testing.T) {
	f := newHealthFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateMedication(ctx, educatorViewer, &model.MedicationRequest{
		StudentID: 10, Medication: "Dipirona", Dosage: "5 gotas", ScheduleTime: "10:00", StartsOn: "2026-03-10", EndsOn: "2026-03-01",
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = f.svc.CreateMedication(ctx, educatorViewer, &model.MedicationRequest{
		StudentID: 99, Medication: "Dipirona", Dosage: "5 gotas", ScheduleTime: "10:00", StartsOn: "2026-03-10",
	})
	assert.ErrorIs(t, err, ErrInvalidStudent)

	m, err := f.svc.CreateMedication(ctx, educatorViewer, &model.MedicationRequest{
		StudentID: 10, Medication: "Dipirona", Dosage: "5 gotas", ScheduleTime: "10:00", StartsOn: "2026-03-10", EndsOn: "2026-03-12",
	})
	require.NoError(t, err)
	assert.True(t, m.Active)
	require.NotNil(t, m.EndsOn)
	assert.Equal(t, "2026-03-12", m.EndsOn.String())
}

func TestHealthService_DueMedications(t *testing.T) {
	f := newHealthFixture(t)
	ctx := context.Background()
	inactive := false

	for _, req := range []model.MedicationRequest{
		{StudentID: 10, Medication: "Antibiótico", Dosage: "5ml", ScheduleTime: "14:00", StartsOn: "2026-03-08", EndsOn: "2026-03-15"},
		{StudentID: 11, Medication: "Xarope", Dosage: "2ml", ScheduleTime: "09:00", StartsOn: "2026-03-01"},
		{StudentID: 10, Medication: "Antigo", Dosage: "1ml", ScheduleTime: "08:00", StartsOn: "2026-02-01", EndsOn: "2026-02-10"},
		{StudentID: 11, Medication: "Suspenso", Dosage: "1ml", ScheduleTime: "07:00", StartsOn: "2026-03-01", Active: &inactive},
	} {
		req := req
		_, err := f.svc.CreateMedication(ctx, educatorViewer, &req)
		require.NoError(t, err)
	}

	due, err := f.svc.DueMedications(ctx, educatorViewer, f.svc.Today())
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "Xarope", due[0].Medication)
	assert.Equal(t, "Antibiótico", due[1].Medication)

	// Guardians only see their own children's doses.
	due, err = f.svc.DueMedications(ctx, guardianViewer(3), f.svc.Today())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 10, due[0].StudentID)
}

func TestHealthService_CreateIncidentNotifiesGuardians(t *testing.T) {
	f := newHealthFixture(t)
	ctx := context.Background()

	i, err := f.svc.CreateIncident(ctx, educatorViewer, &model.IncidentRequest{
		StudentID: 10, Kind: "Queda", Severity: model.SeverityLow, Description: "Caiu no parquinho",
	})
	require.NoError(t, err)
	assert.True(t, i.GuardiansNotified)
	assert.Equal(t, educatorViewer.ProfileID, *i.AuthorID)
	assert.Equal(t, f.svc.now(), i.OccurredAt)

	require.Len(t, f.notifier.jobs, 1)
	job := f.notifier.jobs[0]
	assert.Equal(t, []int{3}, job.RecipientIDs)
	assert.Equal(t, model.NotificationIncident, job.Kind)
	assert.Contains(t, job.Title, "Ana")
}

func TestHealthService_IncidentWithoutGuardiansOrQueue(t *testing.T) {
	f := newHealthFixture(t)
	ctx := context.Background()

	i, err := f.svc.CreateIncident(ctx, educatorViewer, &model.IncidentRequest{
		StudentID: 12, Kind: "Febre", Severity: model.SeverityModerate, Description: "38,5 graus",
	})
	require.NoError(t, err)
	assert.False(t, i.GuardiansNotified)

	f.notifier.err = errors.New("redis down")
	i, err = f.svc.CreateIncident(ctx, educatorViewer, &model.IncidentRequest{
		StudentID: 10, Kind: "Febre", Severity: model.SeverityModerate, Description: "38,5 graus",
	})
	require.NoError(t, err)
	assert.False(t, i.GuardiansNotified)
}

func TestHealthService_GuardianScope(t *testing.T) {
	f := newHealthFixture(t,
		model.Vaccination{InstitutionID: testInstitution, StudentID: 10, Vaccine: "Tríplice viral"},
		model.Vaccination{InstitutionID: testInstitution, StudentID: 11, Vaccine: "Hepatite B"},
	)
	ctx := context.Background()

	list, err := f.svc.ListVaccinations(ctx, guardianViewer(3), nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 10, list[0].StudentID)

	_, err = f.svc.GetVaccination(ctx, guardianViewer(3), 2)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err = f.svc.ListVaccinations(ctx, adminViewer, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestHealthService_OverdueVaccinations(t *testing.T) {
	f := newHealthFixture(t,
		model.Vaccination{InstitutionID: testInstitution, StudentID: 10, Vaccine: "Atrasada", DueOn: datePtr(t, "2026-03-01")},
		model.Vaccination{InstitutionID: testInstitution, StudentID: 10, Vaccine: "Aplicada", DueOn: datePtr(t, "2026-03-01"), AppliedOn: datePtr(t, "2026-02-28")},
		model.Vaccination{InstitutionID: testInstitution, StudentID: 11, Vaccine: "Hoje", DueOn: datePtr(t, "2026-03-10")},
	)

	overdue, err := f.svc.OverdueVaccinations(context.Background(), adminViewer)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Atrasada", overdue[0].Vaccine)
}

func TestHealthService_VaccinationReminderJobs(t *testing.T) {
	f := newHealthFixture(t,
		model.Vaccination{InstitutionID: testInstitution, StudentID: 10, Vaccine: "Pentavalente", Dose: "2ª dose", DueOn: datePtr(t, "2026-03-12")},
		model.Vaccination{InstitutionID: testInstitution, StudentID: 10, Vaccine: "Rotavírus", DueOn: datePtr(t, "2026-03-15")},
		model.Vaccination{InstitutionID: testInstitution, StudentID: 11, Vaccine: "Fora da janela", DueOn: datePtr(t, "2026-04-30")},
		model.Vaccination{InstitutionID: testInstitution, StudentID: 12, Vaccine: "Sem responsáveis", DueOn: datePtr(t, "2026-03-11")},
	)

	jobs, err := f.svc.VaccinationReminderJobs(context.Background(), testInstitution, f.svc.Today(), 7)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, []int{3}, job.RecipientIDs)
	assert.Equal(t, model.NotificationVaccine, job.Kind)
	assert.Equal(t, "Lembrete de vacina: Ana", job.Title)
	assert.Equal(t, "Pentavalente (2ª dose) até 12/03/2026\nRotavírus até 15/03/2026", job.Message)
}
