package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PhotoRepository interface {
	GetByID(ctx context.Context, institutionID, id int) (*model.Photo, error)
	List(ctx context.Context, institutionID int, filter model.PhotoFilter, limit, offset int) ([]model.Photo, int, error)
	Create(ctx context.Context, p *model.Photo) error
	Delete(ctx context.Context, institutionID, id int) error
}

type photoRepository struct {
	pool *pgxpool.Pool
}

func NewPhotoRepository(pool *pgxpool.Pool) PhotoRepository {
	return &photoRepository{pool: pool}
}

const photoColumns = `id, institution_id, class_id, event_id, uploaded_by, url, caption, created_at`

func scanPhoto(row rowScanner, p *model.Photo) error {
	return row.Scan(&p.ID, &p.InstitutionID, &p.ClassID, &p.EventID, &p.UploadedBy, &p.URL, &p.Caption, &p.CreatedAt)
}

func (r *photoRepository) GetByID(ctx context.Context, institutionID, id int) (*model.Photo, error) {
	p := &model.Photo{}
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE institution_id = $1 AND id = $2`, institutionID, id)
	if err := scanPhoto(row, p); err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *photoRepository) List(ctx context.Context, institutionID int, filter model.PhotoFilter, limit, offset int) ([]model.Photo, int, error) {
	db := conn(ctx, r.pool)

	w := &whereBuilder{}
	w.and("institution_id = " + w.arg(institutionID))
	if filter.ClassID != nil {
		w.and("class_id = " + w.arg(*filter.ClassID))
	}
	if filter.EventID != nil {
		w.and("event_id = " + w.arg(*filter.EventID))
	}
	if filter.ClassIDs != nil {
		w.and("(class_id IS NULL OR class_id = ANY(" + w.arg(filter.ClassIDs) + "))")
	}

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM photos`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx, `SELECT `+photoColumns+` FROM photos`+w.sql()+
		` ORDER BY created_at DESC, id DESC`+w.page(limit, offset), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	photos := []model.Photo{}
	for rows.Next() {
		var p model.Photo
		if err := scanPhoto(rows, &p); err != nil {
			return nil, 0, err
		}
		photos = append(photos, p)
	}
	return photos, total, rows.Err()
}

func (r *photoRepository) Create(ctx context.Context, p *model.Photo) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO photos (institution_id, class_id, event_id, uploaded_by, url, caption)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		p.InstitutionID, p.ClassID, p.EventID, p.UploadedBy, p.URL, p.Caption,
	).Scan(&p.ID, &p.CreatedAt)
	return mapError(err)
}

func (r *photoRepository) Delete(ctx context.Context, institutionID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx, `DELETE FROM photos WHERE institution_id = $1 AND id = $2`, institutionID, id))
}
