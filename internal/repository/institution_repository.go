package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InstitutionRepository interface {
	GetByID(ctx context.Context, id int) (*model.Institution, error)
	List(ctx context.Context) ([]model.Institution, error)
	Create(ctx context.Context, inst *model.Institution) error
	Update(ctx context.Context, inst *model.Institution) error
}

type institutionRepository struct {
	pool *pgxpool.Pool
}

func NewInstitutionRepository(pool *pgxpool.Pool) InstitutionRepository {
	return &institutionRepository{pool: pool}
}

func (r *institutionRepository) GetByID(ctx context.Context, id int) (*model.Institution, error) {
	i := &model.Institution{}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name, document, phone, address, created_at, updated_at
		 FROM institutions WHERE id = $1`, id,
	).Scan(&i.ID, &i.Name, &i.Document, &i.Phone, &i.Address, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return i, nil
}

func (r *institutionRepository) List(ctx context.Context) ([]model.Institution, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, name, document, phone, address, created_at, updated_at
		 FROM institutions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	institutions := []model.Institution{}
	for rows.Next() {
		var i model.Institution
		if err := rows.Scan(&i.ID, &i.Name, &i.Document, &i.Phone, &i.Address, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		institutions = append(institutions, i)
	}
	return institutions, rows.Err()
}

func (r *institutionRepository) Create(ctx context.Context, i *model.Institution) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO institutions (name, document, phone, address)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		i.Name, i.Document, i.Phone, i.Address,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	return mapError(err)
}

func (r *institutionRepository) Update(ctx context.Context, i *model.Institution) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE institutions SET name = $1, document = $2, phone = $3, address = $4, updated_at = NOW()
		 WHERE id = $5
		 RETURNING updated_at`,
		i.Name, i.Document, i.Phone, i.Address, i.ID,
	).Scan(&i.UpdatedAt)
	return mapError(err)
}
