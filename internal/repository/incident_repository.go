package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IncidentRepository interface {
	GetByID(ctx context.Context, institutionID, id int) (*model.Incident, error)
	List(ctx context.Context, institutionID int, filter model.HealthFilter, limit, offset int) ([]model.Incident, int, error)
	Create(ctx context.Context, i *model.Incident) error
	Update(ctx context.Context, i *model.Incident) error
	MarkGuardiansNotified(ctx context.Context, institutionID, id int) error
	Delete(ctx context.Context, institutionID, id int) error
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

const incidentSelect = `SELECT i.id, i.institution_id, i.student_id, s.name, i.author_id, i.kind, i.severity,
	i.description, i.action_taken, i.occurred_at, i.guardians_notified, i.created_at, i.updated_at
	FROM incidents i JOIN students s ON s.id = i.student_id`

func scanIncident(row rowScanner, i *model.Incident) error {
	return row.Scan(&i.ID, &i.InstitutionID, &i.StudentID, &i.StudentName, &i.AuthorID, &i.Kind, &i.Severity,
		&i.Description, &i.ActionTaken, &i.OccurredAt, &i.GuardiansNotified, &i.CreatedAt, &i.UpdatedAt)
}

func (r *incidentRepository) GetByID(ctx context.Context, institutionID, id int) (*model.Incident, error) {
	i := &model.Incident{}
	row := conn(ctx, r.pool).QueryRow(ctx, incidentSelect+` WHERE i.institution_id = $1 AND i.id = $2`, institutionID, id)
	if err := scanIncident(row, i); err != nil {
		return nil, mapError(err)
	}
	return i, nil
}

func (r *incidentRepository) List(ctx context.Context, institutionID int, filter model.HealthFilter, limit, offset int) ([]model.Incident, int, error) {
	db := conn(ctx, r.pool)

	w := &whereBuilder{}
	healthWhere(w, "i", institutionID, filter)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM incidents i`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx, incidentSelect+w.sql()+` ORDER BY i.occurred_at DESC, i.id DESC`+w.page(limit, offset), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	incidents := []model.Incident{}
	for rows.Next() {
		var i model.Incident
		if err := scanIncident(rows, &i); err != nil {
			return nil, 0, err
		}
		incidents = append(incidents, i)
	}
	return incidents, total, rows.Err()
}

func (r *incidentRepository) Create(ctx context.Context, i *model.Incident) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO incidents (institution_id, student_id, author_id, kind, severity, description, action_taken, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		i.InstitutionID, i.StudentID, i.AuthorID, i.Kind, i.Severity, i.Description, i.ActionTaken, i.OccurredAt,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	return mapError(err)
}

func (r *incidentRepository) Update(ctx context.Context, i *model.Incident) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE incidents SET student_id = $1, kind = $2, severity = $3, description = $4, action_taken = $5,
		 occurred_at = $6, updated_at = NOW()
		 WHERE institution_id = $7 AND id = $8
		 RETURNING updated_at`,
		i.StudentID, i.Kind, i.Severity, i.Description, i.ActionTaken, i.OccurredAt, i.InstitutionID, i.ID,
	).Scan(&i.UpdatedAt)
	return mapError(err)
}

func (r *incidentRepository) MarkGuardiansNotified(ctx context.Context, institutionID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx,
		`UPDATE incidents SET guardians_notified = TRUE WHERE institution_id = $1 AND id = $2`, institutionID, id))
}

func (r *incidentRepository) Delete(ctx context.Context, institutionID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx, `DELETE FROM incidents WHERE institution_id = $1 AND id = $2`, institutionID, id))
}
