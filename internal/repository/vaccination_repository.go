package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VaccinationRepository interface {
	GetByID(ctx context.Context, institutionID, id int) (*model.Vaccination, error)
	List(ctx context.Context, institutionID int, filter model.HealthFilter) ([]model.Vaccination, error)
	// Overdue returns pending doses whose due date is before today.
	Overdue(ctx context.Context, institutionID int, today model.Date, filter model.HealthFilter) ([]model.Vaccination, error)
	// Upcoming returns pending doses due within [from, to].
	Upcoming(ctx context.Context, institutionID int, from, to model.Date) ([]model.Vaccination, error)
	Create(ctx context.Context, v *model.Vaccination) error
	Update(ctx context.Context, v *model.Vaccination) error
	Delete(ctx context.Context, institutionID, id int) error
}

type vaccinationRepository struct {
	pool *pgxpool.Pool
}

func NewVaccinationRepository(pool *pgxpool.Pool) VaccinationRepository {
	return &vaccinationRepository{pool: pool}
}

const vaccinationSelect = `SELECT v.id, v.institution_id, v.student_id, s.name, v.vaccine, v.dose, v.applied_on,
	v.due_on, v.notes, v.created_at, v.updated_at
	FROM vaccinations v JOIN students s ON s.id = v.student_id`

func scanVaccination(row rowScanner, v *model.Vaccination) error {
	return row.Scan(&v.ID, &v.InstitutionID, &v.StudentID, &v.StudentName, &v.Vaccine, &v.Dose, &v.AppliedOn,
		&v.DueOn, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
}

func (r *vaccinationRepository) GetByID(ctx context.Context, institutionID, id int) (*model.Vaccination, error) {
	v := &model.Vaccination{}
	row := conn(ctx, r.pool).QueryRow(ctx, vaccinationSelect+` WHERE v.institution_id = $1 AND v.id = $2`, institutionID, id)
	if err := scanVaccination(row, v); err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

func (r *vaccinationRepository) List(ctx context.Context, institutionID int, filter model.HealthFilter) ([]model.Vaccination, error) {
	w := &whereBuilder{}
	healthWhere(w, "v", institutionID, filter)
	return r.query(ctx, vaccinationSelect+w.sql()+` ORDER BY s.name, v.due_on NULLS LAST, v.id`, w.args...)
}

func (r *vaccinationRepository) Overdue(ctx context.Context, institutionID int, today model.Date, filter model.HealthFilter) ([]model.Vaccination, error) {
	w := &whereBuilder{}
	healthWhere(w, "v", institutionID, filter)
	w.and("v.applied_on IS NULL AND v.due_on < " + w.arg(today))
	return r.query(ctx, vaccinationSelect+w.sql()+` ORDER BY v.due_on, s.name`, w.args...)
}

func (r *vaccinationRepository) Upcoming(ctx context.Context, institutionID int, from, to model.Date) ([]model.Vaccination, error) {
	return r.query(ctx, vaccinationSelect+
		` WHERE v.institution_id = $1 AND s.active AND v.applied_on IS NULL AND v.due_on BETWEEN $2 AND $3
		 ORDER BY v.due_on, s.name`,
		institutionID, from, to)
}

func (r *vaccinationRepository) query(ctx context.Context, query string, args ...any) ([]model.Vaccination, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Vaccination{}
	for rows.Next() {
		var v model.Vaccination
		if err := scanVaccination(rows, &v); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

func (r *vaccinationRepository) Create(ctx context.Context, v *model.Vaccination) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO vaccinations (institution_id, student_id, vaccine, dose, applied_on, due_on, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		v.InstitutionID, v.StudentID, v.Vaccine, v.Dose, v.AppliedOn, v.DueOn, v.Notes,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	return mapError(err)
}

func (r *vaccinationRepository) Update(ctx context.Context, v *model.Vaccination) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE vaccinations SET student_id = $1, vaccine = $2, dose = $3, applied_on = $4, due_on = $5,
		 notes = $6, updated_at = NOW()
		 WHERE institution_id = $7 AND id = $8
		 RETURNING updated_at`,
		v.StudentID, v.Vaccine, v.Dose, v.AppliedOn, v.DueOn, v.Notes, v.InstitutionID, v.ID,
	).Scan(&v.UpdatedAt)
	return mapError(err)
}

func (r *vaccinationRepository) Delete(ctx context.Context, institutionID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx, `DELETE FROM vaccinations WHERE institution_id = $1 AND id = $2`, institutionID, id))
}
