package service

import (
	"context"
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
)

type DashboardService struct {
	UserRepo       *repository.UserRepository
	TestRepo       *repository.TestRepository
	AttemptRepo    *repository.AttemptRepository
	Cache          StatsCache
	RecentAttempts int
}

func NewDashboardService(
	userRepo *repository.UserRepository,
	testRepo *repository.TestRepository,
	attemptRepo *repository.AttemptRepository,
	cache StatsCache,
	recentAttempts int,
) *DashboardService {
	if cache == nil {
		cache = nopStatsCache{}
	}
	if recentAttempts <= 0 {
		recentAttempts = 20
	}
	return &DashboardService{
		UserRepo:       userRepo,
		TestRepo:       testRepo,
		AttemptRepo:    attemptRepo,
		Cache:          cache,
		RecentAttempts: recentAttempts,
	}
}

type StaffStats struct {
	StudentCount   int64               `json:"studentCount"`
	TestCount      int64               `json:"testCount"`
	AttemptCount   int64               `json:"totalAttemptsCount"`
	RecentAttempts []model.TestAttempt `json:"recentAttempts"`
}

// Dashboard 教职人员看全局统计，普通用户看自己的作答记录
type Dashboard struct {
	Role     model.UserRole      `json:"role"`
	Staff    *StaffStats         `json:"staff,omitempty"`
	Attempts []model.TestAttempt `json:"attempts,omitempty"`
}

func (s *DashboardService) GetDashboard(ctx context.Context, actor Actor) (*Dashboard, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	if actor.IsStaff() {
		stats, err := s.staffStats(ctx)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Role: actor.Role, Staff: stats}, nil
	}

	attempts, err := s.AttemptRepo.ListByUser(actor.UserID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Role: actor.Role, Attempts: attempts}, nil
}

func (s *DashboardService) staffStats(ctx context.Context) (*StaffStats, error) {
	if stats, ok := s.Cache.Get(ctx); ok {
		return stats, nil
	}

	students, err := s.UserRepo.CountByRole(model.Student)
	if err != nil {
		return nil, err
	}
	tests, err := s.TestRepo.Count()
	if err != nil {
		return nil, err
	}
	attempts, err := s.AttemptRepo.Count()
	if err != nil {
		return nil, err
	}
	recent, err := s.AttemptRepo.ListRecent(s.RecentAttempts)
	if err != nil {
		return nil, err
	}

	stats := &StaffStats{
		StudentCount:   students,
		TestCount:      tests,
		AttemptCount:   attempts,
		RecentAttempts: recent,
	}
	s.Cache.Set(ctx, stats)
	return stats, nil
}
