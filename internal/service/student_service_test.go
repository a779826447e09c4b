package service

import (
	"context"
	"testing"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type studentFixture struct {
	svc      *StudentService
	students *fakeStudentRepo
	profiles *fakeProfileRepo
	classes  *fakeClassRepo
	auth     *AuthService
}

func newStudentFixture(t *testing.T, students ...model.Student) *studentFixture {
	t.Helper()
	profiles := newFakeProfileRepo(
		model.Profile{ID: 1, InstitutionID: testInstitution, Name: "Admin", Email: "admin@creche.test", Role: model.RoleAdmin, Active: true},
		model.Profile{ID: 2, InstitutionID: testInstitution, Name: "Educadora", Email: "edu@creche.test", Role: model.RoleEducator, Active: true},
		model.Profile{ID: 3, InstitutionID: testInstitution, Name: "Maria", Email: "maria@familia.test", Phone: "1199", Role: model.RoleGuardian, Active: true},
		model.Profile{ID: 4, InstitutionID: 2, Name: "Outra", Email: "outra@familia.test", Role: model.RoleGuardian, Active: true},
	)
	studentRepo := newFakeStudentRepo(students...)
	classes := newFakeClassRepo(
		model.Class{ID: 5, InstitutionID: testInstitution, Name: "Maternal I", Shift: model.ShiftMorning, Capacity: 2},
		model.Class{ID: 6, InstitutionID: testInstitution, Name: "Berçário", Shift: model.ShiftFullDay},
	)
	classes.students = studentRepo
	auth := NewAuthService(testConfig(), nil, profiles, zerolog.Nop())

	tx := &fakeTx{students: studentRepo, profiles: profiles}
	return &studentFixture{
		svc:      NewStudentService(tx, studentRepo, classes, profiles, auth, zerolog.Nop()),
		students: studentRepo,
		profiles: profiles,
		classes:  classes,
		auth:     auth,
	}
}

func aluno(id int, guardians ...model.Guardian) model.Student {
	return model.Student{ID: id, InstitutionID: testInstitution, Name: "Aluno", Active: true, Guardians: guardians}
}

func TestStudentService_CreateStartsWithoutGuardians(t *testing.T) {
	f := newStudentFixture(t)

	st, err := f.svc.Create(context.Background(), adminViewer, &model.StudentRequest{
		Name:      "  Lucas Lima ",
		BirthDate: "2023-04-10",
		ClassID:   intPtr(6),
	})
	require.NoError(t, err)
	assert.Equal(t, "Lucas Lima", st.Name)
	assert.Empty(t, st.Guardians)
	assert.Empty(t, st.AuthorizedPickups)
	assert.True(t, st.Active)
	assert.Equal(t, "2023-04-10", st.BirthDate.String())
}

func TestStudentService_CreateValidation(t *testing.T) {
	classID := 5
	tests := []struct {
		name    string
		req     model.StudentRequest
		wantErr error
	}{
		{"invalid date", model.StudentRequest{Name: "Ana", BirthDate: "10/04/2023"}, ErrInvalidDate},
		{"unknown class", model.StudentRequest{Name: "Ana", BirthDate: "2023-04-10", ClassID: intPtr(99)}, ErrInvalidClass},
		{"class full", model.StudentRequest{Name: "Ana", BirthDate: "2023-04-10", ClassID: &classID}, ErrClassFull},
	}

	full1, full2 := aluno(20), aluno(21)
	full1.ClassID, full2.ClassID = &classID, &classID
	f := newStudentFixture(t, full1, full2)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), adminViewer, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStudentService_ClassSeatCheckedUnderLock(t *testing.T) {
	f := newStudentFixture(t, aluno(10))
	ctx := context.Background()

	_, err := f.svc.Create(ctx, adminViewer, &model.StudentRequest{Name: "Ana", BirthDate: "2023-04-10", ClassID: intPtr(5)})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, adminViewer, 10, &model.StudentRequest{Name: "Aluno", BirthDate: "2022-01-01", ClassID: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 5}, f.classes.locked)

	_, err = f.svc.Update(ctx, adminViewer, 10, &model.StudentRequest{Name: "Aluno", BirthDate: "2022-01-01", ClassID: intPtr(6)})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, adminViewer, &model.StudentRequest{Name: "Bia", BirthDate: "2023-05-10", ClassID: intPtr(5)})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, adminViewer, &model.StudentRequest{Name: "Caio", BirthDate: "2023-06-10", ClassID: intPtr(5)})
	assert.ErrorIs(t, err, ErrClassFull)
}

func TestStudentService_FirstGuardianMustBeFinancial(t *testing.T) {
	f := newStudentFixture(t, aluno(10))

	_, err := f.svc.LinkGuardian(context.Background(), adminViewer, 10, &model.LinkGuardianRequest{
		Name:         "João Pai",
		Email:        "joao@familia.test",
		Relationship: "Pai",
	})
	require.ErrorIs(t, err, ErrNoFinancialGuardian)

	// The provisioned profile is rolled back with the link.
	_, err = f.profiles.GetByEmail(context.Background(), "joao@familia.test")
	assert.Error(t, err)
	assert.Empty(t, f.students.get(10).Guardians)
}

func TestStudentService_LinkGuardianProvisionsProfile(t *testing.T) {
	f := newStudentFixture(t, aluno(10))

	res, err := f.svc.LinkGuardian(context.Background(), adminViewer, 10, &model.LinkGuardianRequest{
		Name:                 "João Pai",
		Email:                " Joao@Familia.test ",
		Phone:                "11988887777",
		Relationship:         "Pai",
		FinancialResponsible: true,
	})
	require.NoError(t, err)

	assert.True(t, res.ProfileCreated)
	assert.Len(t, res.TemporaryPassword, TemporaryPasswordLength)
	assert.Equal(t, "joao@familia.test", res.Guardian.Email)
	assert.True(t, res.Guardian.FinancialResponsible)

	p, err := f.profiles.GetByEmail(context.Background(), "joao@familia.test")
	require.NoError(t, err)
	assert.Equal(t, model.RoleGuardian, p.Role)
	assert.Equal(t, testInstitution, p.InstitutionID)
	assert.NoError(t, f.auth.CheckPassword(p.PasswordHash, res.TemporaryPassword))

	stored := f.students.get(10)
	require.Len(t, stored.Guardians, 1)
	assert.Equal(t, p.ID, stored.Guardians[0].ProfileID)
}

func TestStudentService_LinkGuardianWithExplicitPassword(t *testing.T) {
	f := newStudentFixture(t, aluno(10))

	res, err := f.svc.LinkGuardian(context.Background(), adminViewer, 10, &model.LinkGuardianRequest{
		Name:                 "João Pai",
		Email:                "joao@familia.test",
		Password:             "segredo123",
		Relationship:         "Pai",
		FinancialResponsible: true,
	})
	require.NoError(t, err)
	assert.Empty(t, res.TemporaryPassword)

	p, err := f.profiles.GetByEmail(context.Background(), "joao@familia.test")
	require.NoError(t, err)
	assert.NoError(t, f.auth.CheckPassword(p.PasswordHash, "segredo123"))
}

func TestStudentService_LinkExistingGuardian(t *testing.T) {
	f := newStudentFixture(t, aluno(10))

	t.Run("by profile id", func(t *testing.T) {
		res, err := f.svc.LinkGuardian(context.Background(), adminViewer, 10, &model.LinkGuardianRequest{
			ProfileID:            3,
			Relationship:         "Mãe",
			FinancialResponsible: true,
		})
		require.NoError(t, err)
		assert.False(t, res.ProfileCreated)
		assert.Equal(t, "Maria", res.Guardian.Name)
		assert.Equal(t, "1199", res.Guardian.Phone)
	})

	t.Run("same profile twice", func(t *testing.T) {
		_, err := f.svc.LinkGuardian(context.Background(), adminViewer, 10, &model.LinkGuardianRequest{
			ProfileID:    3,
			Relationship: "Mãe",
		})
		assert.ErrorIs(t, err, ErrGuardianAlreadyLinked)
	})

	t.Run("same email twice", func(t *testing.T) {
		_, err := f.svc.LinkGuardian(context.Background(), adminViewer, 10, &model.LinkGuardianRequest{
			Name:         "Maria",
			Email:        "MARIA@familia.test",
			Relationship: "Mãe",
		})
		assert.ErrorIs(t, err, ErrGuardianAlreadyLinked)
	})
}

func TestStudentService_LinkGuardianEmailResolution(t *testing.T) {
	f := newStudentFixture(t, aluno(10), aluno(11))

	t.Run("existing guardian email links the profile", func(t *testing.T) {
		res, err := f.svc.LinkGuardian(context.Background(), adminViewer, 11, &model.LinkGuardianRequest{
			Name:                 "Ignored",
			Email:                "maria@familia.test",
			Relationship:         "Mãe",
			FinancialResponsible: true,
		})
		require.NoError(t, err)
		assert.False(t, res.ProfileCreated)
		assert.Equal(t, 3, res.Guardian.ProfileID)
	})

	t.Run("staff email is taken", func(t *testing.T) {
		_, err := f.svc.LinkGuardian(context.Background(), adminViewer, 10, &model.LinkGuardianRequest{
			Name:                 "Educadora",
			Email:                "edu@creche.test",
			Relationship:         "Tia",
			FinancialResponsible: true,
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("guardian of another institution is taken", func(t *testing.T) {
		_, err := f.svc.LinkGuardian(context.Background(), adminViewer, 10, &model.LinkGuardianRequest{
			Name:                 "Outra",
			Email:                "outra@familia.test",
			Relationship:         "Mãe",
			FinancialResponsible: true,
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("staff profile id is not a guardian", func(t *testing.T) {
		_, err := f.svc.LinkGuardian(context.Background(), adminViewer, 10, &model.LinkGuardianRequest{
			ProfileID:            2,
			Relationship:         "Tia",
			FinancialResponsible: true,
		})
		assert.ErrorIs(t, err, ErrNotGuardianProfile)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := f.svc.LinkGuardian(context.Background(), adminViewer, 99, &model.LinkGuardianRequest{
			ProfileID:            3,
			Relationship:         "Mãe",
			FinancialResponsible: true,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStudentService_UnlinkKeepsFinancialGuardian(t *testing.T) {
	mother := model.Guardian{ProfileID: 3, Name: "Maria", Relationship: "Mãe", FinancialResponsible: true}
	father := model.Guardian{ProfileID: 7, Name: "João", Relationship: "Pai"}
	f := newStudentFixture(t, aluno(10, mother, father))

	_, err := f.svc.UnlinkGuardian(context.Background(), adminViewer, 10, 3)
	require.ErrorIs(t, err, ErrNoFinancialGuardian)
	assert.Len(t, f.students.get(10).Guardians, 2)

	st, err := f.svc.UnlinkGuardian(context.Background(), adminViewer, 10, 7)
	require.NoError(t, err)
	require.Len(t, st.Guardians, 1)
	assert.Equal(t, 3, st.Guardians[0].ProfileID)

	// Removing the last guardian leaves an empty list, which is allowed.
	st, err = f.svc.UnlinkGuardian(context.Background(), adminViewer, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, st.Guardians)

	// The guardian profile itself survives.
	_, err = f.profiles.GetByID(context.Background(), testInstitution, 3)
	assert.NoError(t, err)

	_, err = f.svc.UnlinkGuardian(context.Background(), adminViewer, 10, 3)
	assert.ErrorIs(t, err, ErrGuardianNotLinked)
}

func TestStudentService_UpdateGuardianLink(t *testing.T) {
	mother := model.Guardian{ProfileID: 3, Name: "Maria", Relationship: "Mãe", FinancialResponsible: true}
	father := model.Guardian{ProfileID: 7, Name: "João", Relationship: "Pai"}
	f := newStudentFixture(t, aluno(10, mother, father))
	ctx := context.Background()

	_, err := f.svc.UpdateGuardianLink(ctx, adminViewer, 10, 3, &model.UpdateGuardianRequest{Relationship: "Mãe"})
	require.ErrorIs(t, err, ErrNoFinancialGuardian)

	_, err = f.svc.UpdateGuardianLink(ctx, adminViewer, 10, 7, &model.UpdateGuardianRequest{Relationship: "Pai", FinancialResponsible: true})
	require.NoError(t, err)

	st, err := f.svc.UpdateGuardianLink(ctx, adminViewer, 10, 3, &model.UpdateGuardianRequest{Relationship: " Madrasta "})
	require.NoError(t, err)
	assert.Equal(t, "Madrasta", st.Guardians[0].Relationship)
	assert.False(t, st.Guardians[0].FinancialResponsible)
	assert.True(t, st.Guardians[1].FinancialResponsible)
}

func TestStudentService_GuardianVisibility(t *testing.T) {
	mine := aluno(10, model.Guardian{ProfileID: 3, FinancialResponsible: true})
	other := aluno(11, model.Guardian{ProfileID: 8, FinancialResponsible: true})
	f := newStudentFixture(t, mine, other)
	ctx := context.Background()

	list, total, err := f.svc.List(ctx, guardianViewer(3), model.StudentFilter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 10, list[0].ID)

	_, err = f.svc.Get(ctx, guardianViewer(3), 10)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, guardianViewer(3), 11)
	assert.ErrorIs(t, err, ErrNotFound)

	_, total, err = f.svc.List(ctx, educatorViewer, model.StudentFilter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestStudentService_UpdatePickups(t *testing.T) {
	f := newStudentFixture(t, aluno(10))

	st, err := f.svc.UpdatePickups(context.Background(), adminViewer, 10, []model.AuthorizedPickup{
		{Name: "  Vó Ana ", Document: " 123.456.789-00 ", Relationship: "Avó"},
	})
	require.NoError(t, err)
	require.Len(t, st.AuthorizedPickups, 1)
	assert.Equal(t, "Vó Ana", st.AuthorizedPickups[0].Name)
	assert.Equal(t, "123.456.789-00", st.AuthorizedPickups[0].Document)

	st, err = f.svc.UpdatePickups(context.Background(), adminViewer, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, st.AuthorizedPickups)
}
