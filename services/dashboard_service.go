package services

import (
	"context"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	userRepo        repositories.UserRepository
	teamRepo        repositories.TeamRepository
	complexRepo     repositories.ComplexRepository
	courtRepo       repositories.CourtRepository
	reservationRepo repositories.ReservationRepository
	proposalRepo    repositories.ProposalRepository
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	complexRepo repositories.ComplexRepository,
	courtRepo repositories.CourtRepository,
	reservationRepo repositories.ReservationRepository,
	proposalRepo repositories.ProposalRepository,
) DashboardService {
	return &dashboardService{
		userRepo:        userRepo,
		teamRepo:        teamRepo,
		complexRepo:     complexRepo,
		courtRepo:       courtRepo,
		reservationRepo: reservationRepo,
		proposalRepo:    proposalRepo,
	}
}

// GetStats собирает счётчики параллельно: шесть независимых запросов,
// первая же ошибка отменяет остальные.
func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.Users, err = s.userRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Teams, err = s.teamRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Complexes, err = s.complexRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Courts, err = s.courtRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveReservations, err = s.reservationRepo.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingProposals, err = s.proposalRepo.CountPending(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, err
	}
	return stats, nil
}
