package service

import (
	"context"
	"time"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
)

// DashboardData consolidates all metrics for the dashboard.
type DashboardData struct {
	Date           string                               `json:"date"`
	Counts         *repository.DashboardCounts          `json:"counts"`
	DailyLogKinds  map[model.DailyLogKind]int           `json:"daily_log_kinds"`
	ClassOccupancy []repository.DashboardClassOccupancy `json:"class_occupancy"`
	UpcomingEvents []model.Event                        `json:"upcoming_events"`
}

// DashboardService handles dashboard business logic.
type DashboardService struct {
	repo      repository.DashboardRepository
	eventRepo repository.EventRepository
	now       func() time.Time
}

// NewDashboardService creates a new DashboardService. Today is taken from loc's wall clock.
func NewDashboardService(repo repository.DashboardRepository, eventRepo repository.EventRepository, loc *time.Location) *DashboardService {
	return &DashboardService{repo: repo, eventRepo: eventRepo, now: clock(loc)}
}

// GetDashboardData fetches all dashboard metrics of the caller's institution.
func (s *DashboardService) GetDashboardData(ctx context.Context, viewer model.Viewer) (*DashboardData, error) {
	today := model.NewDate(s.now())

	counts, err := s.repo.GetSummaryCounts(ctx, viewer.InstitutionID, today)
	if err != nil {
		return nil, err
	}

	kinds, err := s.repo.GetDailyLogKindCounts(ctx, viewer.InstitutionID, today)
	if err != nil {
		return nil, err
	}

	occupancy, err := s.repo.GetClassOccupancy(ctx, viewer.InstitutionID)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.eventRepo.Upcoming(ctx, viewer.InstitutionID, 5)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		Date:           today.String(),
		Counts:         counts,
		DailyLogKinds:  kinds,
		ClassOccupancy: occupancy,
		UpcomingEvents: upcoming,
	}, nil
}
