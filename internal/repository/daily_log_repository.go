package repository

import (
	"context"
	"time"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DailyLogRepository handles daily log (registro diário) data access.
type DailyLogRepository interface {
	GetByID(ctx context.Context, institutionID, id int) (*model.DailyLog, error)
	List(ctx context.Context, institutionID int, filter model.DailyLogFilter, limit, offset int) ([]model.DailyLog, int, error)
	Create(ctx context.Context, l *model.DailyLog) error
	Update(ctx context.Context, l *model.DailyLog) error
	Delete(ctx context.Context, institutionID, id int) error
}

type dailyLogRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// NewDailyLogRepository creates a new DailyLogRepository. Date filters cover
// whole days on loc's wall clock.
func NewDailyLogRepository(pool *pgxpool.Pool, loc *time.Location) DailyLogRepository {
	return &dailyLogRepository{pool: pool, loc: loc}
}

const dailyLogSelect = `SELECT l.id, l.institution_id, l.student_id, s.name, l.author_id, COALESCE(p.name, ''),
	l.kind, l.description, l.recorded_at, l.created_at, l.updated_at
	FROM daily_logs l
	JOIN students s ON s.id = l.student_id
	LEFT JOIN profiles p ON p.id = l.author_id`

func scanDailyLog(row rowScanner, l *model.DailyLog) error {
	return row.Scan(&l.ID, &l.InstitutionID, &l.StudentID, &l.StudentName, &l.AuthorID, &l.AuthorName,
		&l.Kind, &l.Description, &l.RecordedAt, &l.CreatedAt, &l.UpdatedAt)
}

func (r *dailyLogRepository) GetByID(ctx context.Context, institutionID, id int) (*model.DailyLog, error) {
	l := &model.DailyLog{}
	row := conn(ctx, r.pool).QueryRow(ctx, dailyLogSelect+` WHERE l.institution_id = $1 AND l.id = $2`, institutionID, id)
	if err := scanDailyLog(row, l); err != nil {
		return nil, mapError(err)
	}
	return l, nil
}

// List retrieves logs newest first.
func (r *dailyLogRepository) List(ctx context.Context, institutionID int, filter model.DailyLogFilter, limit, offset int) ([]model.DailyLog, int, error) {
	db := conn(ctx, r.pool)

	w := &whereBuilder{}
	w.and("l.institution_id = " + w.arg(institutionID))
	if filter.StudentID != nil {
		w.and("l.student_id = " + w.arg(*filter.StudentID))
	}
	if filter.ClassID != nil {
		w.and("s.class_id = " + w.arg(*filter.ClassID))
	}
	if filter.Date != nil {
		start, end := filter.Date.Bounds(r.loc)
		w.and("l.recorded_at >= " + w.arg(start) + " AND l.recorded_at < " + w.arg(end))
	}
	if filter.StudentIDs != nil {
		w.and("l.student_id = ANY(" + w.arg(filter.StudentIDs) + ")")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM daily_logs l JOIN students s ON s.id = l.student_id` + w.sql()
	if err := db.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx, dailyLogSelect+w.sql()+` ORDER BY l.recorded_at DESC, l.id DESC`+w.page(limit, offset), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := []model.DailyLog{}
	for rows.Next() {
		var l model.DailyLog
		if err := scanDailyLog(rows, &l); err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

func (r *dailyLogRepository) Create(ctx context.Context, l *model.DailyLog) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO daily_logs (institution_id, student_id, author_id, kind, description, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		l.InstitutionID, l.StudentID, l.AuthorID, l.Kind, l.Description, l.RecordedAt,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return mapError(err)
}

func (r *dailyLogRepository) Update(ctx context.Context, l *model.DailyLog) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE daily_logs SET student_id = $1, kind = $2, description = $3, recorded_at = $4, updated_at = NOW()
		 WHERE institution_id = $5 AND id = $6
		 RETURNING updated_at`,
		l.StudentID, l.Kind, l.Description, l.RecordedAt, l.InstitutionID, l.ID,
	).Scan(&l.UpdatedAt)
	return mapError(err)
}

func (r *dailyLogRepository) Delete(ctx context.Context, institutionID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx, `DELETE FROM daily_logs WHERE institution_id = $1 AND id = $2`, institutionID, id))
}
