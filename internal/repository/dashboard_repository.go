package repository

import (
	"context"
	"time"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardRepository handles dashboard aggregate queries.
type DashboardRepository interface {
	GetSummaryCounts(ctx context.Context, institutionID int, today model.Date) (*DashboardCounts, error)
	GetDailyLogKindCounts(ctx context.Context, institutionID int, today model.Date) (map[model.DailyLogKind]int, error)
	GetClassOccupancy(ctx context.Context, institutionID int) ([]DashboardClassOccupancy, error)
}

type dashboardRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool, loc *time.Location) DashboardRepository {
	return &dashboardRepository{pool: pool, loc: loc}
}

// DashboardCounts holds the headline numbers of an institution.
type DashboardCounts struct {
	ActiveStudents      int `json:"active_students"`
	Classes             int `json:"classes"`
	Staff               int `json:"staff"`
	Guardians           int `json:"guardians"`
	DailyLogsToday      int `json:"daily_logs_today"`
	IncidentsLast7Days  int `json:"incidents_last_7_days"`
	OverdueVaccinations int `json:"overdue_vaccinations"`
	MedicationsDueToday int `json:"medications_due_today"`
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
func (r *dashboardRepository) GetSummaryCounts(ctx context.Context, institutionID int, today model.Date) (*DashboardCounts, error) {
	start, end := today.Bounds(r.loc)
	c := &DashboardCounts{}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM students WHERE institution_id = $1 AND active),
			(SELECT COUNT(*) FROM classes WHERE institution_id = $1),
			(SELECT COUNT(*) FROM profiles WHERE institution_id = $1 AND active AND role IN ('ADMIN', 'EDUCADOR')),
			(SELECT COUNT(*) FROM profiles WHERE institution_id = $1 AND active AND role = 'RESPONSAVEL'),
			(SELECT COUNT(*) FROM daily_logs WHERE institution_id = $1 AND recorded_at >= $2 AND recorded_at < $3),
			(SELECT COUNT(*) FROM incidents WHERE institution_id = $1 AND occurred_at >= $4),
			(SELECT COUNT(*) FROM vaccinations WHERE institution_id = $1 AND applied_on IS NULL AND due_on < $5),
			(SELECT COUNT(*) FROM medication_schedules WHERE institution_id = $1 AND active
				AND starts_on <= $5 AND (ends_on IS NULL OR ends_on >= $5))`,
		institutionID, start, end, start.AddDate(0, 0, -7), today,
	).Scan(&c.ActiveStudents, &c.Classes, &c.Staff, &c.Guardians, &c.DailyLogsToday,
		&c.IncidentsLast7Days, &c.OverdueVaccinations, &c.MedicationsDueToday)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetDailyLogKindCounts retrieves the distribution of today's daily logs by kind.
func (r *dashboardRepository) GetDailyLogKindCounts(ctx context.Context, institutionID int, today model.Date) (map[model.DailyLogKind]int, error) {
	start, end := today.Bounds(r.loc)
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT kind, COUNT(*) FROM daily_logs
		 WHERE institution_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		 GROUP BY kind`,
		institutionID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.DailyLogKind]int)
	for rows.Next() {
		var kind model.DailyLogKind
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}

// DashboardClassOccupancy compares enrolled students with class capacity.
type DashboardClassOccupancy struct {
	ClassID  int    `json:"class_id"`
	Name     string `json:"name"`
	Students int    `json:"students"`
	Capacity int    `json:"capacity"`
}

// GetClassOccupancy retrieves active student counts per class.
func (r *dashboardRepository) GetClassOccupancy(ctx context.Context, institutionID int) ([]DashboardClassOccupancy, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT c.id, c.name, COUNT(s.id), c.capacity
		 FROM classes c
		 LEFT JOIN students s ON s.class_id = c.id AND s.active
		 WHERE c.institution_id = $1
		 GROUP BY c.id, c.name, c.capacity
		 ORDER BY c.name`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []DashboardClassOccupancy{}
	for rows.Next() {
		var o DashboardClassOccupancy
		if err := rows.Scan(&o.ClassID, &o.Name, &o.Students, &o.Capacity); err != nil {
			return nil, err
		}
		results = append(results, o)
	}
	return results, rows.Err()
}
