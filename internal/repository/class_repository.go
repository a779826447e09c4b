package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClassRepository handles class (turma) data access.
type ClassRepository interface {
	GetByID(ctx context.Context, institutionID, id int) (*model.Class, error)
	// GetByIDForUpdate locks the class row for the rest of the transaction before reading it,
	// so capacity checks see every enrollment committed ahead of them.
	GetByIDForUpdate(ctx context.Context, institutionID, id int) (*model.Class, error)
	List(ctx context.Context, institutionID int) ([]model.Class, error)
	Create(ctx context.Context, c *model.Class) error
	Update(ctx context.Context, c *model.Class) error
	Delete(ctx context.Context, institutionID, id int) error
}

type classRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) ClassRepository {
	return &classRepository{pool: pool}
}

const classSelect = `SELECT c.id, c.institution_id, c.name, c.age_group, c.shift, c.capacity, c.teacher_id,
	COALESCE(p.name, ''),
	(SELECT COUNT(*) FROM students s WHERE s.class_id = c.id AND s.active),
	c.created_at, c.updated_at
	FROM classes c LEFT JOIN profiles p ON p.id = c.teacher_id`

func scanClass(row rowScanner, c *model.Class) error {
	return row.Scan(&c.ID, &c.InstitutionID, &c.Name, &c.AgeGroup, &c.Shift, &c.Capacity, &c.TeacherID,
		&c.TeacherName, &c.StudentCount, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID retrieves a class with its teacher name and active student count.
func (r *classRepository) GetByID(ctx context.Context, institutionID, id int) (*model.Class, error) {
	c := &model.Class{}
	row := conn(ctx, r.pool).QueryRow(ctx, classSelect+` WHERE c.institution_id = $1 AND c.id = $2`, institutionID, id)
	if err := scanClass(row, c); err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *classRepository) GetByIDForUpdate(ctx context.Context, institutionID, id int) (*model.Class, error) {
	var locked int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id FROM classes WHERE institution_id = $1 AND id = $2 FOR UPDATE`, institutionID, id).Scan(&locked)
	if err != nil {
		return nil, mapError(err)
	}
	// Separate statement: under READ COMMITTED it takes a fresh snapshot for the count.
	return r.GetByID(ctx, institutionID, id)
}

// List retrieves all classes of an institution ordered by name.
func (r *classRepository) List(ctx context.Context, institutionID int) ([]model.Class, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, classSelect+` WHERE c.institution_id = $1 ORDER BY c.name`, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := []model.Class{}
	for rows.Next() {
		var c model.Class
		if err := scanClass(rows, &c); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// Create inserts a new class.
func (r *classRepository) Create(ctx context.Context, c *model.Class) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO classes (institution_id, name, age_group, shift, capacity, teacher_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		c.InstitutionID, c.Name, c.AgeGroup, c.Shift, c.Capacity, c.TeacherID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err)
}

// Update modifies an existing class.
func (r *classRepository) Update(ctx context.Context, c *model.Class) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE classes SET name = $1, age_group = $2, shift = $3, capacity = $4, teacher_id = $5, updated_at = NOW()
		 WHERE institution_id = $6 AND id = $7
		 RETURNING updated_at`,
		c.Name, c.AgeGroup, c.Shift, c.Capacity, c.TeacherID, c.InstitutionID, c.ID,
	).Scan(&c.UpdatedAt)
	return mapError(err)
}

// Delete removes a class. Fails with ErrReferenced while students are assigned to it.
func (r *classRepository) Delete(ctx context.Context, institutionID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM classes WHERE institution_id = $1 AND id = $2`, institutionID, id))
}
