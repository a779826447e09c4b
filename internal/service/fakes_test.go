package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// ─── Transactor ─────────────────────────────────────────────────────

// fakeTx snapshots the student and profile stores and restores them when fn fails.
type fakeTx struct {
	students *fakeStudentRepo
	profiles *fakeProfileRepo
}

func (t *fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var students map[int]model.Student
	var profiles map[int]model.Profile
	if t.students != nil {
		students = t.students.snapshot()
	}
	if t.profiles != nil {
		profiles = t.profiles.snapshot()
	}
	if err := fn(ctx); err != nil {
		if t.students != nil {
			t.students.restore(students)
		}
		if t.profiles != nil {
			t.profiles.restore(profiles)
		}
		return err
	}
	return nil
}

// ─── Profiles ───────────────────────────────────────────────────────

type fakeProfileRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]model.Profile
}

func newFakeProfileRepo(profiles ...model.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{rows: map[int]model.Profile{}}
	for _, p := range profiles {
		r.rows[p.ID] = p
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
	}
	return r
}

func (r *fakeProfileRepo) snapshot() map[int]model.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]model.Profile, len(r.rows))
	for k, v := range r.rows {
		out[k] = v
	}
	return out
}

func (r *fakeProfileRepo) restore(rows map[int]model.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = rows
}

func (r *fakeProfileRepo) GetByID(_ context.Context, institutionID, id int) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.InstitutionID != institutionID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if strings.EqualFold(p.Email, email) {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProfileRepo) List(_ context.Context, institutionID int, filter model.ProfileFilter, limit, offset int) ([]model.Profile, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Profile
	for _, p := range r.rows {
		if p.InstitutionID == institutionID && (filter.Role == "" || p.Role == filter.Role) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeProfileRepo) Create(_ context.Context, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if strings.EqualFold(existing.Email, p.Email) {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	p.ID = r.nextID
	r.rows[p.ID] = *p
	return nil
}

func (r *fakeProfileRepo) Update(_ context.Context, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.ID != p.ID && strings.EqualFold(existing.Email, p.Email) {
			return repository.ErrDuplicate
		}
	}
	old, ok := r.rows[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.PasswordHash = old.PasswordHash
	r.rows[p.ID] = *p
	return nil
}

func (r *fakeProfileRepo) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.PasswordHash = passwordHash
	r.rows[id] = p
	return nil
}

func (r *fakeProfileRepo) Delete(_ context.Context, institutionID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.InstitutionID != institutionID {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeProfileRepo) IDsByRole(_ context.Context, institutionID int, roles ...model.Role) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int
	for _, p := range r.rows {
		if p.InstitutionID != institutionID || !p.Active {
			continue
		}
		for _, role := range roles {
			if p.Role == role {
				ids = append(ids, p.ID)
			}
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// ─── Classes ────────────────────────────────────────────────────────

type fakeClassRepo struct {
	mu       sync.Mutex
	nextID   int
	rows     map[int]model.Class
	students *fakeStudentRepo
	// locked records the classes read with a row lock.
	locked []int
}

func newFakeClassRepo(classes ...model.Class) *fakeClassRepo {
	r := &fakeClassRepo{rows: map[int]model.Class{}}
	for _, c := range classes {
		r.rows[c.ID] = c
		if c.ID > r.nextID {
			r.nextID = c.ID
		}
	}
	return r
}

func (r *fakeClassRepo) GetByID(_ context.Context, institutionID, id int) (*model.Class, error) {
	r.mu.Lock()
	c, ok := r.rows[id]
	r.mu.Unlock()
	if !ok || c.InstitutionID != institutionID {
		return nil, repository.ErrNotFound
	}
	if r.students != nil {
		c.StudentCount = r.students.countInClass(id)
	}
	return &c, nil
}

func (r *fakeClassRepo) GetByIDForUpdate(ctx context.Context, institutionID, id int) (*model.Class, error) {
	r.mu.Lock()
	r.locked = append(r.locked, id)
	r.mu.Unlock()
	return r.GetByID(ctx, institutionID, id)
}

func (r *fakeClassRepo) List(_ context.Context, institutionID int) ([]model.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Class
	for _, c := range r.rows {
		if c.InstitutionID == institutionID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// nameTaken mirrors UNIQUE (institution_id, name). Callers hold r.mu.
func (r *fakeClassRepo) nameTaken(c *model.Class) bool {
	for id, other := range r.rows {
		if id != c.ID && other.InstitutionID == c.InstitutionID && other.Name == c.Name {
			return true
		}
	}
	return false
}

func (r *fakeClassRepo) Create(_ context.Context, c *model.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(c) {
		return fmt.Errorf("%w: classes_institution_id_name_key", repository.ErrDuplicate)
	}
	r.nextID++
	c.ID = r.nextID
	r.rows[c.ID] = *c
	return nil
}

func (r *fakeClassRepo) Update(_ context.Context, c *model.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[c.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(c) {
		return fmt.Errorf("%w: classes_institution_id_name_key", repository.ErrDuplicate)
	}
	r.rows[c.ID] = *c
	return nil
}

func (r *fakeClassRepo) Delete(_ context.Context, institutionID, id int) error {
	if r.students != nil && r.students.countInClass(id) > 0 {
		return repository.ErrReferenced
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok || c.InstitutionID != institutionID {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// ─── Students ───────────────────────────────────────────────────────

type fakeStudentRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]model.Student
}

func newFakeStudentRepo(students ...model.Student) *fakeStudentRepo {
	r := &fakeStudentRepo{rows: map[int]model.Student{}}
	for _, s := range students {
		r.rows[s.ID] = s
		if s.ID > r.nextID {
			r.nextID = s.ID
		}
	}
	return r
}

func cloneStudent(s model.Student) model.Student {
	s.Guardians = append([]model.Guardian{}, s.Guardians...)
	s.AuthorizedPickups = append([]model.AuthorizedPickup{}, s.AuthorizedPickups...)
	return s
}

func (r *fakeStudentRepo) snapshot() map[int]model.Student {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]model.Student, len(r.rows))
	for k, v := range r.rows {
		out[k] = cloneStudent(v)
	}
	return out
}

func (r *fakeStudentRepo) restore(rows map[int]model.Student) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = rows
}

func (r *fakeStudentRepo) countInClass(classID int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.rows {
		if s.ClassID != nil && *s.ClassID == classID {
			n++
		}
	}
	return n
}

func (r *fakeStudentRepo) get(id int) model.Student {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneStudent(r.rows[id])
}

func (r *fakeStudentRepo) GetByID(_ context.Context, institutionID, id int) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok || s.InstitutionID != institutionID {
		return nil, repository.ErrNotFound
	}
	s = cloneStudent(s)
	return &s, nil
}

func (r *fakeStudentRepo) GetByIDForUpdate(ctx context.Context, institutionID, id int) (*model.Student, error) {
	return r.GetByID(ctx, institutionID, id)
}

func (r *fakeStudentRepo) List(_ context.Context, institutionID int, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Student
	for _, s := range r.rows {
		if s.InstitutionID != institutionID {
			continue
		}
		if filter.ClassID != nil && (s.ClassID == nil || *s.ClassID != *filter.ClassID) {
			continue
		}
		if filter.GuardianID != nil && s.GuardianIndex(*filter.GuardianID) < 0 {
			continue
		}
		out = append(out, cloneStudent(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (r *fakeStudentRepo) Create(_ context.Context, s *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	r.rows[s.ID] = cloneStudent(*s)
	return nil
}

func (r *fakeStudentRepo) CreateBatch(ctx context.Context, students []model.Student) (int64, error) {
	for i := range students {
		if err := r.Create(ctx, &students[i]); err != nil {
			return 0, err
		}
	}
	return int64(len(students)), nil
}

func (r *fakeStudentRepo) Update(_ context.Context, s *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := cloneStudent(*s)
	updated.Guardians = old.Guardians
	updated.AuthorizedPickups = old.AuthorizedPickups
	r.rows[s.ID] = updated
	return nil
}

func (r *fakeStudentRepo) UpdateGuardians(_ context.Context, institutionID, id int, guardians []model.Guardian) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok || s.InstitutionID != institutionID {
		return repository.ErrNotFound
	}
	s.Guardians = append([]model.Guardian{}, guardians...)
	r.rows[id] = s
	return nil
}

func (r *fakeStudentRepo) UpdatePickups(_ context.Context, institutionID, id int, pickups []model.AuthorizedPickup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok || s.InstitutionID != institutionID {
		return repository.ErrNotFound
	}
	s.AuthorizedPickups = append([]model.AuthorizedPickup{}, pickups...)
	r.rows[id] = s
	return nil
}

func (r *fakeStudentRepo) Delete(_ context.Context, institutionID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok || s.InstitutionID != institutionID {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeStudentRepo) IDsForGuardian(_ context.Context, institutionID, profileID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []int{}
	for _, s := range r.rows {
		if s.InstitutionID == institutionID && s.GuardianIndex(profileID) >= 0 {
			ids = append(ids, s.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *fakeStudentRepo) ClassIDsForGuardian(_ context.Context, institutionID, profileID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []int{}
	for _, s := range r.rows {
		if s.InstitutionID == institutionID && s.ClassID != nil && s.GuardianIndex(profileID) >= 0 {
			ids = append(ids, *s.ClassID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *fakeStudentRepo) GuardianIDsByClass(_ context.Context, institutionID, classID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int
	for _, s := range r.rows {
		if s.InstitutionID == institutionID && s.ClassID != nil && *s.ClassID == classID {
			ids = append(ids, s.GuardianIDs()...)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *fakeStudentRepo) CountByGuardian(_ context.Context, institutionID, profileID int) (int, error) {
	ids, err := r.IDsForGuardian(context.Background(), institutionID, profileID)
	return len(ids), err
}

func (r *fakeStudentRepo) SyncGuardianContact(_ context.Context, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.rows {
		if idx := s.GuardianIndex(p.ID); idx >= 0 {
			s = cloneStudent(s)
			s.Guardians[idx].Name = p.Name
			s.Guardians[idx].Email = p.Email
			s.Guardians[idx].Phone = p.Phone
			r.rows[id] = s
		}
	}
	return nil
}

// ─── Daily logs ─────────────────────────────────────────────────────

type fakeDailyLogRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]model.DailyLog
	filter model.DailyLogFilter
}

func newFakeDailyLogRepo() *fakeDailyLogRepo {
	return &fakeDailyLogRepo{rows: map[int]model.DailyLog{}}
}

func (r *fakeDailyLogRepo) GetByID(_ context.Context, institutionID, id int) (*model.DailyLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok || l.InstitutionID != institutionID {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (r *fakeDailyLogRepo) List(_ context.Context, institutionID int, filter model.DailyLogFilter, limit, offset int) ([]model.DailyLog, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter = filter
	var out []model.DailyLog
	for _, l := range r.rows {
		if l.InstitutionID != institutionID {
			continue
		}
		if filter.StudentIDs != nil && !containsID(filter.StudentIDs, l.StudentID) {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (r *fakeDailyLogRepo) Create(_ context.Context, l *model.DailyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	l.ID = r.nextID
	r.rows[l.ID] = *l
	return nil
}

func (r *fakeDailyLogRepo) Update(_ context.Context, l *model.DailyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[l.ID] = *l
	return nil
}

func (r *fakeDailyLogRepo) Delete(_ context.Context, institutionID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// ─── Health ─────────────────────────────────────────────────────────

type fakeMedicationRepo struct {
	nextID int
	rows   map[int]model.MedicationSchedule
}

func newFakeMedicationRepo() *fakeMedicationRepo {
	return &fakeMedicationRepo{rows: map[int]model.MedicationSchedule{}}
}

func (r *fakeMedicationRepo) GetByID(_ context.Context, institutionID, id int) (*model.MedicationSchedule, error) {
	m, ok := r.rows[id]
	if !ok || m.InstitutionID != institutionID {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *fakeMedicationRepo) List(_ context.Context, institutionID int, filter model.HealthFilter) ([]model.MedicationSchedule, error) {
	var out []model.MedicationSchedule
	for _, m := range r.rows {
		if m.InstitutionID == institutionID && (filter.StudentIDs == nil || containsID(filter.StudentIDs, m.StudentID)) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMedicationRepo) Due(_ context.Context, institutionID int, day model.Date, filter model.HealthFilter) ([]model.MedicationSchedule, error) {
	var out []model.MedicationSchedule
	for _, m := range r.rows {
		if m.InstitutionID != institutionID || !m.CoversDate(day) {
			continue
		}
		if filter.StudentIDs != nil && !containsID(filter.StudentIDs, m.StudentID) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduleTime < out[j].ScheduleTime })
	return out, nil
}

func (r *fakeMedicationRepo) Create(_ context.Context, m *model.MedicationSchedule) error {
	r.nextID++
	m.ID = r.nextID
	r.rows[m.ID] = *m
	return nil
}

func (r *fakeMedicationRepo) Update(_ context.Context, m *model.MedicationSchedule) error {
	r.rows[m.ID] = *m
	return nil
}

func (r *fakeMedicationRepo) Delete(_ context.Context, institutionID, id int) error {
	delete(r.rows, id)
	return nil
}

type fakeIncidentRepo struct {
	nextID int
	rows   map[int]model.Incident
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{rows: map[int]model.Incident{}}
}

func (r *fakeIncidentRepo) GetByID(_ context.Context, institutionID, id int) (*model.Incident, error) {
	i, ok := r.rows[id]
	if !ok || i.InstitutionID != institutionID {
		return nil, repository.ErrNotFound
	}
	return &i, nil
}

func (r *fakeIncidentRepo) List(_ context.Context, institutionID int, filter model.HealthFilter, limit, offset int) ([]model.Incident, int, error) {
	var out []model.Incident
	for _, i := range r.rows {
		if i.InstitutionID == institutionID && (filter.StudentIDs == nil || containsID(filter.StudentIDs, i.StudentID)) {
			out = append(out, i)
		}
	}
	return out, len(out), nil
}

func (r *fakeIncidentRepo) Create(_ context.Context, i *model.Incident) error {
	r.nextID++
	i.ID = r.nextID
	r.rows[i.ID] = *i
	return nil
}

func (r *fakeIncidentRepo) Update(_ context.Context, i *model.Incident) error {
	r.rows[i.ID] = *i
	return nil
}

func (r *fakeIncidentRepo) MarkGuardiansNotified(_ context.Context, institutionID, id int) error {
	i, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	i.GuardiansNotified = true
	r.rows[id] = i
	return nil
}

func (r *fakeIncidentRepo) Delete(_ context.Context, institutionID, id int) error {
	delete(r.rows, id)
	return nil
}

type fakeVaccinationRepo struct {
	nextID int
	rows   map[int]model.Vaccination
}

func newFakeVaccinationRepo(vs ...model.Vaccination) *fakeVaccinationRepo {
	r := &fakeVaccinationRepo{rows: map[int]model.Vaccination{}}
	for _, v := range vs {
		r.nextID++
		v.ID = r.nextID
		r.rows[v.ID] = v
	}
	return r
}

func (r *fakeVaccinationRepo) sorted(keep func(model.Vaccination) bool) []model.Vaccination {
	var out []model.Vaccination
	for _, v := range r.rows {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeVaccinationRepo) GetByID(_ context.Context, institutionID, id int) (*model.Vaccination, error) {
	v, ok := r.rows[id]
	if !ok || v.InstitutionID != institutionID {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *fakeVaccinationRepo) List(_ context.Context, institutionID int, filter model.HealthFilter) ([]model.Vaccination, error) {
	return r.sorted(func(v model.Vaccination) bool {
		return v.InstitutionID == institutionID && (filter.StudentIDs == nil || containsID(filter.StudentIDs, v.StudentID))
	}), nil
}

func (r *fakeVaccinationRepo) Overdue(_ context.Context, institutionID int, today model.Date, filter model.HealthFilter) ([]model.Vaccination, error) {
	return r.sorted(func(v model.Vaccination) bool {
		return v.InstitutionID == institutionID && v.Overdue(today) &&
			(filter.StudentIDs == nil || containsID(filter.StudentIDs, v.StudentID))
	}), nil
}

func (r *fakeVaccinationRepo) Upcoming(_ context.Context, institutionID int, from, to model.Date) ([]model.Vaccination, error) {
	return r.sorted(func(v model.Vaccination) bool {
		return v.InstitutionID == institutionID && v.AppliedOn == nil && v.DueOn != nil &&
			!v.DueOn.Before(from) && !to.Before(*v.DueOn)
	}), nil
}

func (r *fakeVaccinationRepo) Create(_ context.Context, v *model.Vaccination) error {
	r.nextID++
	v.ID = r.nextID
	r.rows[v.ID] = *v
	return nil
}

func (r *fakeVaccinationRepo) Update(_ context.Context, v *model.Vaccination) error {
	r.rows[v.ID] = *v
	return nil
}

func (r *fakeVaccinationRepo) Delete(_ context.Context, institutionID, id int) error {
	delete(r.rows, id)
	return nil
}

// ─── Events ─────────────────────────────────────────────────────────

type fakeEventRepo struct {
	nextID int
	rows   map[int]model.Event
	filter model.EventFilter
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{rows: map[int]model.Event{}}
}

func (r *fakeEventRepo) GetByID(_ context.Context, institutionID, id int) (*model.Event, error) {
	e, ok := r.rows[id]
	if !ok || e.InstitutionID != institutionID {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *fakeEventRepo) List(_ context.Context, institutionID int, filter model.EventFilter) ([]model.Event, error) {
	r.filter = filter
	var out []model.Event
	for _, e := range r.rows {
		if e.InstitutionID != institutionID {
			continue
		}
		if e.ClassID != nil && filter.ClassIDs != nil && !containsID(filter.ClassIDs, *e.ClassID) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *fakeEventRepo) Upcoming(_ context.Context, institutionID int, limit int) ([]model.Event, error) {
	return nil, nil
}

func (r *fakeEventRepo) Create(_ context.Context, e *model.Event) error {
	r.nextID++
	e.ID = r.nextID
	r.rows[e.ID] = *e
	return nil
}

func (r *fakeEventRepo) Update(_ context.Context, e *model.Event) error {
	r.rows[e.ID] = *e
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, institutionID, id int) error {
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// ─── Settings ───────────────────────────────────────────────────────

type fakeSettingRepo struct {
	rows    map[string]string
	failKey string
}

func (r *fakeSettingRepo) GetAll(_ context.Context, institutionID int) ([]model.AppSetting, error) {
	var out []model.AppSetting
	for k, v := range r.rows {
		out = append(out, model.AppSetting{InstitutionID: institutionID, Key: k, Value: v})
	}
	return out, nil
}

func (r *fakeSettingRepo) GetByKey(_ context.Context, institutionID int, key string) (*model.AppSetting, error) {
	v, ok := r.rows[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.AppSetting{InstitutionID: institutionID, Key: key, Value: v}, nil
}

func (r *fakeSettingRepo) Upsert(_ context.Context, _ int, key, value string) error {
	if key == r.failKey {
		return errors.New("upsert failed")
	}
	r.rows[key] = value
	return nil
}

// ─── Notifier ───────────────────────────────────────────────────────

type recordingNotifier struct {
	mu   sync.Mutex
	jobs []model.NotificationJob
	err  error
}

func (n *recordingNotifier) Enqueue(_ context.Context, job model.NotificationJob) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.jobs = append(n.jobs, job)
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────

const testInstitution = 1

var (
	adminViewer    = model.Viewer{ProfileID: 1, InstitutionID: testInstitution, Role: model.RoleAdmin}
	educatorViewer = model.Viewer{ProfileID: 2, InstitutionID: testInstitution, Role: model.RoleEducator}
)

func guardianViewer(id int) model.Viewer {
	return model.Viewer{ProfileID: id, InstitutionID: testInstitution, Role: model.RoleGuardian}
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4}
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func newTestAuth(t *testing.T, profiles repository.ProfileRepository) *AuthService {
	t.Helper()
	return NewAuthService(testConfig(), newTestRedis(t), profiles, zerolog.Nop())
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	auth := NewAuthService(testConfig(), nil, nil, zerolog.Nop())
	h, err := auth.HashPassword(password)
	require.NoError(t, err)
	return h
}

func intPtr(v int) *int { return &v }

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}
