package service

import (
	"context"
	"testing"
	"time"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDailyLogFixture(t *testing.T) (*DailyLogService, *fakeDailyLogRepo, *recordingNotifier) {
	t.Helper()
	students := newFakeStudentRepo(
		model.Student{ID: 10, InstitutionID: testInstitution, Name: "Ana", Guardians: []model.Guardian{{ProfileID: 3, FinancialResponsible: true}, {ProfileID: 4}}},
		model.Student{ID: 11, InstitutionID: testInstitution, Name: "Bruno", Guardians: []model.Guardian{{ProfileID: 5, FinancialResponsible: true}}},
	)
	logs := newFakeDailyLogRepo()
	notifier := &recordingNotifier{}
	svc := NewDailyLogService(logs, students, notifier, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, logs, notifier
}

func TestDailyLogService_CreateNotifiesGuardians(t *testing.T) {
	svc, _, notifier := newDailyLogFixture(t)

	l, err := svc.Create(context.Background(), educatorViewer, &model.DailyLogRequest{
		StudentID:   10,
		Kind:        model.DailyLogFood,
		Description: "  Comeu todo o almoço ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Comeu todo o almoço", l.Description)
	assert.Equal(t, educatorViewer.ProfileID, *l.AuthorID)
	assert.Equal(t, svc.now(), l.RecordedAt)

	require.Len(t, notifier.jobs, 1)
	assert.Equal(t, []int{3, 4}, notifier.jobs[0].RecipientIDs)
	assert.Equal(t, "Alimentação: Ana", notifier.jobs[0].Title)
	assert.Equal(t, model.NotificationDailyLog, notifier.jobs[0].Kind)
}

func TestDailyLogService_CreateUnknownStudent(t *testing.T) {
	svc, _, notifier := newDailyLogFixture(t)

	_, err := svc.Create(context.Background(), educatorViewer, &model.DailyLogRequest{StudentID: 99, Kind: model.DailyLogSleep, Description: "Dormiu"})
	assert.ErrorIs(t, err, ErrInvalidStudent)
	assert.Empty(t, notifier.jobs)
}

func TestDailyLogService_GuardianScope(t *testing.T) {
	svc, logs, _ := newDailyLogFixture(t)
	ctx := context.Background()

	mine, err := svc.Create(ctx, educatorViewer, &model.DailyLogRequest{StudentID: 10, Kind: model.DailyLogMood, Description: "Feliz"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, educatorViewer, &model.DailyLogRequest{StudentID: 11, Kind: model.DailyLogMood, Description: "Choroso"})
	require.NoError(t, err)

	list, total, err := svc.List(ctx, guardianViewer(3), model.DailyLogFilter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, mine.ID, list[0].ID)
	assert.Equal(t, []int{10}, logs.filter.StudentIDs)

	_, err = svc.Get(ctx, guardianViewer(3), other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, total, err = svc.List(ctx, educatorViewer, model.DailyLogFilter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Nil(t, logs.filter.StudentIDs)
}

func TestDailyLogService_UpdateKeepsRecordedAt(t *testing.T) {
	svc, _, _ := newDailyLogFixture(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, educatorViewer, &model.DailyLogRequest{StudentID: 10, Kind: model.DailyLogSleep, Description: "Dormiu 1h"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC) }
	updated, err := svc.Update(ctx, educatorViewer, l.ID, &model.DailyLogRequest{StudentID: 10, Kind: model.DailyLogSleep, Description: "Dormiu 2h"})
	require.NoError(t, err)
	assert.Equal(t, "Dormiu 2h", updated.Description)
	assert.Equal(t, l.RecordedAt, updated.RecordedAt)
}
