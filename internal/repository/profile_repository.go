package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles staff and guardian account data access.
type ProfileRepository interface {
	GetByID(ctx context.Context, institutionID, id int) (*model.Profile, error)
	// GetByEmail looks up an account across institutions; used by login.
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	List(ctx context.Context, institutionID int, filter model.ProfileFilter, limit, offset int) ([]model.Profile, int, error)
	Create(ctx context.Context, p *model.Profile) error
	Update(ctx context.Context, p *model.Profile) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	Delete(ctx context.Context, institutionID, id int) error
	// IDsByRole returns the IDs of active profiles holding any of the roles.
	IDsByRole(ctx context.Context, institutionID int, roles ...model.Role) ([]int, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id, institution_id, name, email, phone, role, password_hash, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner, p *model.Profile) error {
	return row.Scan(&p.ID, &p.InstitutionID, &p.Name, &p.Email, &p.Phone, &p.Role,
		&p.PasswordHash, &p.Active, &p.CreatedAt, &p.UpdatedAt)
}

func (r *profileRepository) GetByID(ctx context.Context, institutionID, id int) (*model.Profile, error) {
	p := &model.Profile{}
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE institution_id = $1 AND id = $2`, institutionID, id)
	if err := scanProfile(row, p); err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	p := &model.Profile{}
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE LOWER(email) = LOWER($1)`, email)
	if err := scanProfile(row, p); err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *profileRepository) List(ctx context.Context, institutionID int, filter model.ProfileFilter, limit, offset int) ([]model.Profile, int, error) {
	db := conn(ctx, r.pool)

	w := &whereBuilder{}
	w.and("institution_id = " + w.arg(institutionID))
	if filter.Role != "" {
		w.and("role = " + w.arg(filter.Role))
	}
	if filter.Search != "" {
		p := w.arg("%" + filter.Search + "%")
		w.and("(name ILIKE " + p + " OR email ILIKE " + p + ")")
	}

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + profileColumns + ` FROM profiles` + w.sql() + ` ORDER BY name` + w.page(limit, offset)
	rows, err := db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := []model.Profile{}
	for rows.Next() {
		var p model.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}

func (r *profileRepository) Create(ctx context.Context, p *model.Profile) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO profiles (institution_id, name, email, phone, role, password_hash, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		p.InstitutionID, p.Name, p.Email, p.Phone, p.Role, p.PasswordHash, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

// Update modifies account data. The password hash is left untouched.
func (r *profileRepository) Update(ctx context.Context, p *model.Profile) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE profiles SET name = $1, email = $2, phone = $3, role = $4, active = $5, updated_at = NOW()
		 WHERE institution_id = $6 AND id = $7
		 RETURNING updated_at`,
		p.Name, p.Email, p.Phone, p.Role, p.Active, p.InstitutionID, p.ID,
	).Scan(&p.UpdatedAt)
	return mapError(err)
}

func (r *profileRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return affected(conn(ctx, r.pool).Exec(ctx,
		`UPDATE profiles SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	))
}

func (r *profileRepository) Delete(ctx context.Context, institutionID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM profiles WHERE institution_id = $1 AND id = $2`, institutionID, id))
}

func (r *profileRepository) IDsByRole(ctx context.Context, institutionID int, roles ...model.Role) ([]int, error) {
	codes := make([]string, len(roles))
	for i, role := range roles {
		codes[i] = string(role)
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id FROM profiles WHERE institution_id = $1 AND active AND role = ANY($2) ORDER BY id`,
		institutionID, codes)
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
