package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository handles student (aluno) data access, including the embedded guardian
// and authorized pickup lists.
type StudentRepository interface {
	GetByID(ctx context.Context, institutionID, id int) (*model.Student, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, institutionID, id int) (*model.Student, error)
	List(ctx context.Context, institutionID int, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error)
	Create(ctx context.Context, s *model.Student) error
	// CreateBatch bulk inserts students with empty guardian lists.
	CreateBatch(ctx context.Context, students []model.Student) (int64, error)
	Update(ctx context.Context, s *model.Student) error
	UpdateGuardians(ctx context.Context, institutionID, id int, guardians []model.Guardian) error
	UpdatePickups(ctx context.Context, institutionID, id int, pickups []model.AuthorizedPickup) error
	Delete(ctx context.Context, institutionID, id int) error

	IDsForGuardian(ctx context.Context, institutionID, profileID int) ([]int, error)
	ClassIDsForGuardian(ctx context.Context, institutionID, profileID int) ([]int, error)
	GuardianIDsByClass(ctx context.Context, institutionID, classID int) ([]int, error)
	CountByGuardian(ctx context.Context, institutionID, profileID int) (int, error)
	// SyncGuardianContact refreshes the name/email/phone snapshot of a guardian in every
	// student list that contains it.
	SyncGuardianContact(ctx context.Context, p *model.Profile) error
}

type studentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) StudentRepository {
	return &studentRepository{pool: pool}
}

const studentSelect = `SELECT s.id, s.institution_id, s.class_id, COALESCE(c.name, ''), s.name, s.birth_date,
	s.gender, s.allergies, s.notes, s.photo_url, s.active, s.guardians, s.authorized_pickups,
	s.created_at, s.updated_at
	FROM students s LEFT JOIN classes c ON c.id = s.class_id`

func scanStudent(row rowScanner, s *model.Student) error {
	return row.Scan(&s.ID, &s.InstitutionID, &s.ClassID, &s.ClassName, &s.Name, &s.BirthDate,
		&s.Gender, &s.Allergies, &s.Notes, &s.PhotoURL, &s.Active, &s.Guardians, &s.AuthorizedPickups,
		&s.CreatedAt, &s.UpdatedAt)
}

// guardianContains builds the JSONB containment argument matching a guardian profile.
func guardianContains(profileID int) []map[string]int {
	return []map[string]int{{"profile_id": profileID}}
}

func (r *studentRepository) GetByID(ctx context.Context, institutionID, id int) (*model.Student, error) {
	return r.get(ctx, studentSelect+` WHERE s.institution_id = $1 AND s.id = $2`, institutionID, id)
}

func (r *studentRepository) GetByIDForUpdate(ctx context.Context, institutionID, id int) (*model.Student, error) {
	return r.get(ctx, studentSelect+` WHERE s.institution_id = $1 AND s.id = $2 FOR UPDATE OF s`, institutionID, id)
}

func (r *studentRepository) get(ctx context.Context, query string, args ...any) (*model.Student, error) {
	s := &model.Student{}
	if err := scanStudent(conn(ctx, r.pool).QueryRow(ctx, query, args...), s); err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

// List retrieves students with pagination. A non-positive limit returns every match.
func (r *studentRepository) List(ctx context.Context, institutionID int, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error) {
	db := conn(ctx, r.pool)

	w := &whereBuilder{}
	w.and("s.institution_id = " + w.arg(institutionID))
	if filter.ClassID != nil {
		w.and("s.class_id = " + w.arg(*filter.ClassID))
	}
	if filter.Search != "" {
		w.and("s.name ILIKE " + w.arg("%"+filter.Search+"%"))
	}
	if filter.ActiveOnly {
		w.and("s.active")
	}
	if filter.GuardianID != nil {
		w.and("s.guardians @> " + w.arg(guardianContains(*filter.GuardianID)))
	}

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM students s`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx, studentSelect+w.sql()+` ORDER BY s.name`+w.page(limit, offset), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		var s model.Student
		if err := scanStudent(rows, &s); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

func (r *studentRepository) Create(ctx context.Context, s *model.Student) error {
	normalizeLists(s)
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO students (institution_id, class_id, name, birth_date, gender, allergies, notes, photo_url, active, guardians, authorized_pickups)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		s.InstitutionID, s.ClassID, s.Name, s.BirthDate, s.Gender, s.Allergies, s.Notes, s.PhotoURL, s.Active,
		s.Guardians, s.AuthorizedPickups,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapError(err)
}

func (r *studentRepository) CreateBatch(ctx context.Context, students []model.Student) (int64, error) {
	n, err := conn(ctx, r.pool).CopyFrom(ctx,
		pgx.Identifier{"students"},
		[]string{"institution_id", "class_id", "name", "birth_date", "gender", "allergies", "active"},
		pgx.CopyFromSlice(len(students), func(i int) ([]any, error) {
			s := students[i]
			return []any{s.InstitutionID, s.ClassID, s.Name, s.BirthDate, s.Gender, s.Allergies, s.Active}, nil
		}),
	)
	return n, mapError(err)
}

// Update modifies the basic student fields. Guardian and pickup lists have their own writes.
func (r *studentRepository) Update(ctx context.Context, s *model.Student) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE students SET class_id = $1, name = $2, birth_date = $3, gender = $4, allergies = $5,
		 notes = $6, photo_url = $7, active = $8, updated_at = NOW()
		 WHERE institution_id = $9 AND id = $10
		 RETURNING updated_at`,
		s.ClassID, s.Name, s.BirthDate, s.Gender, s.Allergies, s.Notes, s.PhotoURL, s.Active,
		s.InstitutionID, s.ID,
	).Scan(&s.UpdatedAt)
	return mapError(err)
}

func (r *studentRepository) UpdateGuardians(ctx context.Context, institutionID, id int, guardians []model.Guardian) error {
	if guardians == nil {
		guardians = []model.Guardian{}
	}
	return affected(conn(ctx, r.pool).Exec(ctx,
		`UPDATE students SET guardians = $1, updated_at = NOW() WHERE institution_id = $2 AND id = $3`,
		guardians, institutionID, id))
}

func (r *studentRepository) UpdatePickups(ctx context.Context, institutionID, id int, pickups []model.AuthorizedPickup) error {
	if pickups == nil {
		pickups = []model.AuthorizedPickup{}
	}
	return affected(conn(ctx, r.pool).Exec(ctx,
		`UPDATE students SET authorized_pickups = $1, updated_at = NOW() WHERE institution_id = $2 AND id = $3`,
		pickups, institutionID, id))
}

func (r *studentRepository) Delete(ctx context.Context, institutionID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM students WHERE institution_id = $1 AND id = $2`, institutionID, id))
}

func (r *studentRepository) IDsForGuardian(ctx context.Context, institutionID, profileID int) ([]int, error) {
	return r.ids(ctx,
		`SELECT id FROM students WHERE institution_id = $1 AND guardians @> $2 ORDER BY id`,
		institutionID, guardianContains(profileID))
}

func (r *studentRepository) ClassIDsForGuardian(ctx context.Context, institutionID, profileID int) ([]int, error) {
	return r.ids(ctx,
		`SELECT DISTINCT class_id FROM students
		 WHERE institution_id = $1 AND class_id IS NOT NULL AND guardians @> $2 ORDER BY class_id`,
		institutionID, guardianContains(profileID))
}

func (r *studentRepository) GuardianIDsByClass(ctx context.Context, institutionID, classID int) ([]int, error) {
	return r.ids(ctx,
		`SELECT DISTINCT (g->>'profile_id')::int AS profile_id
		 FROM students s, jsonb_array_elements(s.guardians) g
		 WHERE s.institution_id = $1 AND s.class_id = $2 AND s.active
		 ORDER BY profile_id`,
		institutionID, classID)
}

func (r *studentRepository) CountByGuardian(ctx context.Context, institutionID, profileID int) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM students WHERE institution_id = $1 AND guardians @> $2`,
		institutionID, guardianContains(profileID)).Scan(&n)
	return n, err
}

func (r *studentRepository) SyncGuardianContact(ctx context.Context, p *model.Profile) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE students SET guardians = (
			SELECT jsonb_agg(CASE WHEN (g->>'profile_id')::int = $2
				THEN g || jsonb_build_object('name', $3::text, 'email', $4::text, 'phone', $5::text)
				ELSE g END ORDER BY ord)
			FROM jsonb_array_elements(guardians) WITH ORDINALITY AS e(g, ord)
		 ), updated_at = NOW()
		 WHERE institution_id = $1 AND guardians @> $6`,
		p.InstitutionID, p.ID, p.Name, p.Email, p.Phone, guardianContains(p.ID))
	return err
}

func (r *studentRepository) ids(ctx context.Context, query string, args ...any) ([]int, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func normalizeLists(s *model.Student) {
	if s.Guardians == nil {
		s.Guardians = []model.Guardian{}
	}
	if s.AuthorizedPickups == nil {
		s.AuthorizedPickups = []model.AuthorizedPickup{}
	}
}
