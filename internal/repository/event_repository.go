package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	GetByID(ctx context.Context, institutionID, id int) (*model.Event, error)
	List(ctx context.Context, institutionID int, filter model.EventFilter) ([]model.Event, error)
	Upcoming(ctx context.Context, institutionID int, limit int) ([]model.Event, error)
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, institutionID, id int) error
}

type eventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventSelect = `SELECT id, institution_id, class_id, title, description, kind, starts_at, ends_at, all_day,
	created_by, created_at, updated_at FROM events`

func scanEvent(row rowScanner, e *model.Event) error {
	return row.Scan(&e.ID, &e.InstitutionID, &e.ClassID, &e.Title, &e.Description, &e.Kind, &e.StartsAt,
		&e.EndsAt, &e.AllDay, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
}

func (r *eventRepository) GetByID(ctx context.Context, institutionID, id int) (*model.Event, error) {
	e := &model.Event{}
	if err := scanEvent(conn(ctx, r.pool).QueryRow(ctx, eventSelect+` WHERE institution_id = $1 AND id = $2`, institutionID, id), e); err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

// List returns events overlapping the filter window ordered by start.
func (r *eventRepository) List(ctx context.Context, institutionID int, filter model.EventFilter) ([]model.Event, error) {
	w := &whereBuilder{}
	w.and("institution_id = " + w.arg(institutionID))
	if !filter.From.IsZero() {
		w.and("ends_at >= " + w.arg(filter.From))
	}
	if !filter.To.IsZero() {
		w.and("starts_at <= " + w.arg(filter.To))
	}
	if filter.ClassID != nil {
		w.and("(class_id IS NULL OR class_id = " + w.arg(*filter.ClassID) + ")")
	}
	if filter.ClassIDs != nil {
		w.and("(class_id IS NULL OR class_id = ANY(" + w.arg(filter.ClassIDs) + "))")
	}
	return r.query(ctx, eventSelect+w.sql()+` ORDER BY starts_at, id`, w.args...)
}

func (r *eventRepository) Upcoming(ctx context.Context, institutionID int, limit int) ([]model.Event, error) {
	return r.query(ctx, eventSelect+` WHERE institution_id = $1 AND ends_at >= NOW() ORDER BY starts_at LIMIT $2`,
		institutionID, limit)
}

func (r *eventRepository) query(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Create(ctx context.Context, e *model.Event) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO events (institution_id, class_id, title, description, kind, starts_at, ends_at, all_day, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		e.InstitutionID, e.ClassID, e.Title, e.Description, e.Kind, e.StartsAt, e.EndsAt, e.AllDay, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapError(err)
}

func (r *eventRepository) Update(ctx context.Context, e *model.Event) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE events SET class_id = $1, title = $2, description = $3, kind = $4, starts_at = $5, ends_at = $6,
		 all_day = $7, updated_at = NOW()
		 WHERE institution_id = $8 AND id = $9
		 RETURNING updated_at`,
		e.ClassID, e.Title, e.Description, e.Kind, e.StartsAt, e.EndsAt, e.AllDay, e.InstitutionID, e.ID,
	).Scan(&e.UpdatedAt)
	return mapError(err)
}

func (r *eventRepository) Delete(ctx context.Context, institutionID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx, `DELETE FROM events WHERE institution_id = $1 AND id = $2`, institutionID, id))
}
