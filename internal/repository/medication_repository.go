package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MedicationRepository interface {
	GetByID(ctx context.Context, institutionID, id int) (*model.MedicationSchedule, error)
	List(ctx context.Context, institutionID int, filter model.HealthFilter) ([]model.MedicationSchedule, error)
	// Due returns active schedules covering the day, ordered by time of dose.
	Due(ctx context.Context, institutionID int, day model.Date, filter model.HealthFilter) ([]model.MedicationSchedule, error)
	Create(ctx context.Context, m *model.MedicationSchedule) error
	Update(ctx context.Context, m *model.MedicationSchedule) error
	Delete(ctx context.Context, institutionID, id int) error
}

type medicationRepository struct {
	pool *pgxpool.Pool
}

func NewMedicationRepository(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepository{pool: pool}
}

const medicationSelect = `SELECT m.id, m.institution_id, m.student_id, s.name, m.medication, m.dosage, m.schedule_time,
	m.starts_on, m.ends_on, m.instructions, m.active, m.created_at, m.updated_at
	FROM medication_schedules m JOIN students s ON s.id = m.student_id`

func scanMedication(row rowScanner, m *model.MedicationSchedule) error {
	return row.Scan(&m.ID, &m.InstitutionID, &m.StudentID, &m.StudentName, &m.Medication, &m.Dosage,
		&m.ScheduleTime, &m.StartsOn, &m.EndsOn, &m.Instructions, &m.Active, &m.CreatedAt, &m.UpdatedAt)
}

func healthWhere(w *whereBuilder, alias string, institutionID int, filter model.HealthFilter) {
	w.and(alias + ".institution_id = " + w.arg(institutionID))
	if filter.StudentID != nil {
		w.and(alias + ".student_id = " + w.arg(*filter.StudentID))
	}
	if filter.StudentIDs != nil {
		w.and(alias + ".student_id = ANY(" + w.arg(filter.StudentIDs) + ")")
	}
}

func (r *medicationRepository) GetByID(ctx context.Context, institutionID, id int) (*model.MedicationSchedule, error) {
	m := &model.MedicationSchedule{}
	row := conn(ctx, r.pool).QueryRow(ctx, medicationSelect+` WHERE m.institution_id = $1 AND m.id = $2`, institutionID, id)
	if err := scanMedication(row, m); err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *medicationRepository) List(ctx context.Context, institutionID int, filter model.HealthFilter) ([]model.MedicationSchedule, error) {
	w := &whereBuilder{}
	healthWhere(w, "m", institutionID, filter)
	return r.query(ctx, medicationSelect+w.sql()+` ORDER BY s.name, m.schedule_time`, w.args...)
}

func (r *medicationRepository) Due(ctx context.Context, institutionID int, day model.Date, filter model.HealthFilter) ([]model.MedicationSchedule, error) {
	w := &whereBuilder{}
	healthWhere(w, "m", institutionID, filter)
	d := w.arg(day)
	w.and("m.active AND s.active")
	w.and("m.starts_on <= " + d + " AND (m.ends_on IS NULL OR m.ends_on >= " + d + ")")
	return r.query(ctx, medicationSelect+w.sql()+` ORDER BY m.schedule_time, s.name`, w.args...)
}

func (r *medicationRepository) query(ctx context.Context, query string, args ...any) ([]model.MedicationSchedule, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.MedicationSchedule{}
	for rows.Next() {
		var m model.MedicationSchedule
		if err := scanMedication(rows, &m); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *medicationRepository) Create(ctx context.Context, m *model.MedicationSchedule) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO medication_schedules (institution_id, student_id, medication, dosage, schedule_time, starts_on, ends_on, instructions, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		m.InstitutionID, m.StudentID, m.Medication, m.Dosage, m.ScheduleTime, m.StartsOn, m.EndsOn, m.Instructions, m.Active,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return mapError(err)
}

func (r *medicationRepository) Update(ctx context.Context, m *model.MedicationSchedule) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE medication_schedules SET student_id = $1, medication = $2, dosage = $3, schedule_time = $4,
		 starts_on = $5, ends_on = $6, instructions = $7, active = $8, updated_at = NOW()
		 WHERE institution_id = $9 AND id = $10
		 RETURNING updated_at`,
		m.StudentID, m.Medication, m.Dosage, m.ScheduleTime, m.StartsOn, m.EndsOn, m.Instructions, m.Active,
		m.InstitutionID, m.ID,
	).Scan(&m.UpdatedAt)
	return mapError(err)
}

func (r *medicationRepository) Delete(ctx context.Context, institutionID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx, `DELETE FROM medication_schedules WHERE institution_id = $1 AND id = $2`, institutionID, id))
}
