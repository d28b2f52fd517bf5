package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
)

type CreateMatchInvitationInput struct {
	ReservationID  int    `json:"reservation_id" validate:"required,gt=0"`
	InvitingTeamID int    `json:"inviting_team_id" validate:"required,gt=0"`
	InvitedTeamID  int    `json:"invited_team_id" validate:"required,gt=0"`
	Comment        string `json:"comment" validate:"max=500"`

	CurrentUserID int `json:"-"`
}

type MatchInvitationService interface {
	CreateMatchInvitation(ctx context.Context, input CreateMatchInvitationInput) (*models.MatchInvitation, error)
	AcceptMatchInvitation(ctx context.Context, invitationID, currentUserID int) (*models.MatchInvitation, error)
	RejectMatchInvitation(ctx context.Context, invitationID, currentUserID int) (*models.MatchInvitation, error)
	ListIncoming(ctx context.Context, teamID, currentUserID int) ([]*models.MatchInvitation, error)
	ListOutgoing(ctx context.Context, teamID, currentUserID int) ([]*models.MatchInvitation, error)
	// ExpirePastInvitations отклоняет pending-приглашения, чьи брони уже
	// прошли или отменены. Запускается планировщиком из cmd/main.go.
	ExpirePastInvitations(ctx context.Context) (int64, error)
}

type matchInvitationService struct {
	db              *sql.DB
	invitationRepo  repositories.MatchInvitationRepository
	reservationRepo repositories.ReservationRepository
	linkRepo        repositories.ReservationTeamRepository
	teamRepo        repositories.TeamRepository
	notifier        Notifier
}

func NewMatchInvitationService(
	db *sql.DB,
	invitationRepo repositories.MatchInvitationRepository,
	reservationRepo repositories.ReservationRepository,
	linkRepo repositories.ReservationTeamRepository,
	teamRepo repositories.TeamRepository,
	notifier Notifier,
) MatchInvitationService {
	return &matchInvitationService{
		db:              db,
		invitationRepo:  invitationRepo,
		reservationRepo: reservationRepo,
		linkRepo:        linkRepo,
		teamRepo:        teamRepo,
		notifier:        notifier,
	}
}

func (s *matchInvitationService) CreateMatchInvitation(ctx context.Context, input CreateMatchInvitationInput) (*models.MatchInvitation, error) {
	if input.InvitingTeamID == input.InvitedTeamID {
		return nil, ErrSelfMatchInvitation
	}

	reservation, err := s.reservationRepo.GetByID(ctx, input.ReservationID)
	if err != nil {
		if errors.Is(err, repositories.ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation %d: %w", input.ReservationID, err)
	}
	if !reservation.Active {
		return nil, ErrReservationInactive
	}

	invitingTeam, err := s.getTeam(ctx, input.InvitingTeamID)
	if err != nil {
		return nil, err
	}
	if invitingTeam.CaptainID != input.CurrentUserID {
		return nil, ErrCaptainActionForbidden
	}

	// Приглашать может только команда, у которой есть доступ к брони.
	linked, err := s.linkRepo.Exists(ctx, input.ReservationID, input.InvitingTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to check reservation access: %w", err)
	}
	if !linked {
		return nil, ErrReservationNotShared
	}

	invitedTeam, err := s.getTeam(ctx, input.InvitedTeamID)
	if err != nil {
		return nil, err
	}

	invitation := &models.MatchInvitation{
		ReservationID:  input.ReservationID,
		InvitingTeamID: input.InvitingTeamID,
		InvitedTeamID:  input.InvitedTeamID,
		Status:         models.ProposalStatusPending,
		Comment:        input.Comment,
	}
	// Дубликаты по тройке сериализует уникальный индекс; отдельной
	// предварительной проверки нет, гонка невозможна.
	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		if errors.Is(err, repositories.ErrMatchInvitationConflict) {
			return nil, ErrMatchInvitationConflict
		}
		if errors.Is(err, repositories.ErrMatchInvitationInvalidRef) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to create match invitation: %w", err)
	}

	s.notifier.Notify(ctx, invitedTeam.CaptainID, models.RecipientUser,
		"Match invitation",
		fmt.Sprintf("Team %q invited your team %q to a match on %s.",
			invitingTeam.Name, invitedTeam.Name, reservation.Date.Format("2006-01-02")),
		nil)

	return invitation, nil
}

func (s *matchInvitationService) AcceptMatchInvitation(ctx context.Context, invitationID, currentUserID int) (*models.MatchInvitation, error) {
	invitation, invitedTeam, err := s.loadForDecision(ctx, invitationID, currentUserID)
	if err != nil {
		return nil, err
	}

	// Смена статуса и создание связи reservation_teams выполняются в одной транзакции.
	err = repositories.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.invitationRepo.UpdateStatus(ctx, tx, invitation.ID, models.ProposalStatusAccepted); err != nil {
			if errors.Is(err, repositories.ErrMatchInvitationNotPending) {
				return ErrMatchInvitationAlreadyProcessed
			}
			return err
		}
		link := &models.ReservationTeam{
			ReservationID: invitation.ReservationID,
			TeamID:        invitation.InvitedTeamID,
			Creator:       false,
		}
		return s.linkRepo.Create(ctx, tx, link)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrReservationTeamConflict) {
			return nil, ErrMatchInvitationConflict
		}
		return nil, err
	}
	invitation.Status = models.ProposalStatusAccepted

	s.notifyInviter(ctx, invitation, invitedTeam, "accepted")
	return invitation, nil
}

func (s *matchInvitationService) RejectMatchInvitation(ctx context.Context, invitationID, currentUserID int) (*models.MatchInvitation, error) {
	invitation, invitedTeam, err := s.loadForDecision(ctx, invitationID, currentUserID)
	if err != nil {
		return nil, err
	}

	if err := s.invitationRepo.UpdateStatus(ctx, nil, invitation.ID, models.ProposalStatusRejected); err != nil {
		if errors.Is(err, repositories.ErrMatchInvitationNotPending) {
			return nil, ErrMatchInvitationAlreadyProcessed
		}
		return nil, fmt.Errorf("failed to reject match invitation %d: %w", invitation.ID, err)
	}
	invitation.Status = models.ProposalStatusRejected

	s.notifyInviter(ctx, invitation, invitedTeam, "rejected")
	return invitation, nil
}

func (s *matchInvitationService) ListIncoming(ctx context.Context, teamID, currentUserID int) ([]*models.MatchInvitation, error) {
	if err := s.authorizeCaptain(ctx, teamID, currentUserID); err != nil {
		return nil, err
	}
	return s.invitationRepo.ListIncoming(ctx, teamID)
}

func (s *matchInvitationService) ListOutgoing(ctx context.Context, teamID, currentUserID int) ([]*models.MatchInvitation, error) {
	if err := s.authorizeCaptain(ctx, teamID, currentUserID); err != nil {
		return nil, err
	}
	return s.invitationRepo.ListOutgoing(ctx, teamID)
}

func (s *matchInvitationService) ExpirePastInvitations(ctx context.Context) (int64, error) {
	return s.invitationRepo.RejectForPastReservations(ctx, time.Now())
}

func (s *matchInvitationService) loadForDecision(ctx context.Context, invitationID, currentUserID int) (*models.MatchInvitation, *models.Team, error) {
	invitation, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchInvitationNotFound) {
			return nil, nil, ErrMatchInvitationNotFound
		}
		return nil, nil, fmt.Errorf("failed to get match invitation %d: %w", invitationID, err)
	}

	if invitation.Status != models.ProposalStatusPending {
		return nil, nil, ErrMatchInvitationAlreadyProcessed
	}

	invitedTeam, err := s.getTeam(ctx, invitation.InvitedTeamID)
	if err != nil {
		return nil, nil, err
	}
	if invitedTeam.CaptainID != currentUserID {
		return nil, nil, ErrCaptainActionForbidden
	}

	return invitation, invitedTeam, nil
}

func (s *matchInvitationService) notifyInviter(ctx context.Context, invitation *models.MatchInvitation, invitedTeam *models.Team, decision string) {
	invitingTeam, err := s.teamRepo.GetByID(ctx, invitation.InvitingTeamID)
	if err != nil {
		return
	}
	s.notifier.Notify(ctx, invitingTeam.CaptainID, models.RecipientUser,
		"Match invitation "+decision,
		fmt.Sprintf("Team %q %s your match invitation.", invitedTeam.Name, decision),
		nil)
}

func (s *matchInvitationService) authorizeCaptain(ctx context.Context, teamID, currentUserID int) error {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.CaptainID != currentUserID {
		return ErrCaptainActionForbidden
	}
	return nil
}

func (s *matchInvitationService) getTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}
