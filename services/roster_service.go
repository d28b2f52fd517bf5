package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
)

// RosterService задает единственный санкционированный путь мутации состава команды.
// AddMember вызывается только из accepted-перехода JoinProposal (в его
// транзакции, через exec), чтобы причина вступления всегда была зафиксирована.
type RosterService interface {
	IsMember(ctx context.Context, teamID, userID int) (bool, error)
	AddMember(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int) error
	RemoveMember(ctx context.Context, teamID, userID, currentUserID int) error
	ListMembers(ctx context.Context, teamID int) ([]models.User, error)
}

type rosterService struct {
	rosterRepo repositories.RosterRepository
	teamRepo   repositories.TeamRepository
}

func NewRosterService(rosterRepo repositories.RosterRepository, teamRepo repositories.TeamRepository) RosterService {
	return &rosterService{
		rosterRepo: rosterRepo,
		teamRepo:   teamRepo,
	}
}

func (s *rosterService) IsMember(ctx context.Context, teamID, userID int) (bool, error) {
	return s.rosterRepo.Exists(ctx, nil, teamID, userID)
}

func (s *rosterService) AddMember(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int) error {
	// Вместимость проверяется в репозитории под advisory-блокировкой
	// команды, в одной транзакции со вставкой.
	member := &models.TeamMember{TeamID: teamID, UserID: userID}
	if err := s.rosterRepo.AddWithCapacityGuard(ctx, exec, member); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRosterTeamFull):
			return ErrTeamFull
		case errors.Is(err, repositories.ErrRosterTeamInvalid):
			return ErrTeamNotFound
		case errors.Is(err, repositories.ErrRosterMemberConflict):
			return ErrAlreadyMember
		case errors.Is(err, repositories.ErrRosterUserInvalid):
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to add user %d to team %d: %w", userID, teamID, err)
	}
	return nil
}

func (s *rosterService) RemoveMember(ctx context.Context, teamID, userID, currentUserID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if userID == team.CaptainID {
		return ErrCannotRemoveCaptain
	}
	if currentUserID != team.CaptainID && currentUserID != userID {
		return ErrSelfLeaveForbidden
	}

	if err := s.rosterRepo.Remove(ctx, nil, teamID, userID); err != nil {
		if errors.Is(err, repositories.ErrRosterMemberNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove user %d from team %d: %w", userID, teamID, err)
	}
	return nil
}

func (s *rosterService) ListMembers(ctx context.Context, teamID int) ([]models.User, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return s.rosterRepo.ListByTeam(ctx, teamID)
}
