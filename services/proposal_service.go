package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
)

type ProposalBlockReason string

const (
	// Игрок уже в составе, создавать нечего.
	ProposalBlockedAlreadyMember ProposalBlockReason = "already_member"
	// Для пары уже есть активная заявка или приглашение (любого вида).
	ProposalBlockedOutstanding ProposalBlockReason = "proposal_outstanding"
)

// ProposalOutcome различает созданный proposal и дружелюбный отказ:
// заблокированное создание считается ожидаемым ответом пользователю, а не ошибкой сервера.
type ProposalOutcome struct {
	Proposal *models.JoinProposal `json:"proposal,omitempty"`
	Blocked  ProposalBlockReason  `json:"blocked,omitempty"`
}

type ProposalService interface {
	CreateJoinRequest(ctx context.Context, teamID, currentUserID int) (*ProposalOutcome, error)
	CreateJoinInvitation(ctx context.Context, teamID, playerID, currentUserID int) (*ProposalOutcome, error)
	AcceptProposal(ctx context.Context, proposalID, currentUserID int) (*models.JoinProposal, error)
	RejectProposal(ctx context.Context, proposalID, currentUserID int) (*models.JoinProposal, error)
	ListTeamProposals(ctx context.Context, teamID, currentUserID int, statusFilter *models.ProposalStatus) ([]*models.JoinProposal, error)
	ListUserProposals(ctx context.Context, currentUserID int, statusFilter *models.ProposalStatus) ([]*models.JoinProposal, error)
}

type proposalService struct {
	db           *sql.DB
	proposalRepo repositories.ProposalRepository
	teamRepo     repositories.TeamRepository
	userRepo     repositories.UserRepository
	roster       RosterService
	notifier     Notifier
}

func NewProposalService(
	db *sql.DB,
	proposalRepo repositories.ProposalRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	roster RosterService,
	notifier Notifier,
) ProposalService {
	return &proposalService{
		db:           db,
		proposalRepo: proposalRepo,
		teamRepo:     teamRepo,
		userRepo:     userRepo,
		roster:       roster,
		notifier:     notifier,
	}
}

func (s *proposalService) CreateJoinRequest(ctx context.Context, teamID, currentUserID int) (*ProposalOutcome, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if outcome, err := s.checkCreationPreconditions(ctx, teamID, currentUserID); err != nil || outcome != nil {
		return outcome, err
	}

	proposal := &models.JoinProposal{
		TeamID:    teamID,
		UserID:    currentUserID,
		Kind:      models.ProposalKindRequest,
		Status:    models.ProposalStatusPending,
		CreatedBy: currentUserID,
	}
	if err := s.proposalRepo.Create(ctx, proposal); err != nil {
		// Гонка с параллельным созданием: уникальный индекс сработал первым.
		if errors.Is(err, repositories.ErrProposalConflict) {
			return &ProposalOutcome{Blocked: ProposalBlockedOutstanding}, nil
		}
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	s.notifier.Notify(ctx, team.CaptainID, models.RecipientUser,
		"New join request",
		fmt.Sprintf("A player asked to join your team %q.", team.Name),
		nil)

	return &ProposalOutcome{Proposal: proposal}, nil
}

func (s *proposalService) CreateJoinInvitation(ctx context.Context, teamID, playerID, currentUserID int) (*ProposalOutcome, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}

	if _, err := s.userRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", playerID, err)
	}

	if outcome, err := s.checkCreationPreconditions(ctx, teamID, playerID); err != nil || outcome != nil {
		return outcome, err
	}

	proposal := &models.JoinProposal{
		TeamID:    teamID,
		UserID:    playerID,
		Kind:      models.ProposalKindInvitation,
		Status:    models.ProposalStatusPending,
		CreatedBy: currentUserID,
	}
	if err := s.proposalRepo.Create(ctx, proposal); err != nil {
		if errors.Is(err, repositories.ErrProposalConflict) {
			return &ProposalOutcome{Blocked: ProposalBlockedOutstanding}, nil
		}
		return nil, fmt.Errorf("failed to create join invitation: %w", err)
	}

	s.notifier.Notify(ctx, playerID, models.RecipientUser,
		"Team invitation",
		fmt.Sprintf("You were invited to join team %q.", team.Name),
		nil)

	return &ProposalOutcome{Proposal: proposal}, nil
}

// checkCreationPreconditions проверяет условия (a) и (b) из жизненного цикла
// proposal: игрок не в составе, и нет активной заявки/приглашения любого вида.
// Проверка дает только быстрый дружелюбный отказ; арбитром остаётся частичный
// уникальный индекс join_proposals_active_pair_key.
func (s *proposalService) checkCreationPreconditions(ctx context.Context, teamID, userID int) (*ProposalOutcome, error) {
	isMember, err := s.roster.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return &ProposalOutcome{Blocked: ProposalBlockedAlreadyMember}, nil
	}

	_, err = s.proposalRepo.FindActiveByTeamAndUser(ctx, teamID, userID)
	if err == nil {
		return &ProposalOutcome{Blocked: ProposalBlockedOutstanding}, nil
	}
	if !errors.Is(err, repositories.ErrProposalNotFound) {
		return nil, fmt.Errorf("failed to check outstanding proposals: %w", err)
	}
	return nil, nil
}

func (s *proposalService) AcceptProposal(ctx context.Context, proposalID, currentUserID int) (*models.JoinProposal, error) {
	proposal, team, err := s.loadForDecision(ctx, proposalID, currentUserID)
	if err != nil {
		return nil, err
	}

	// Переход статуса и мутация состава выполняются как одна единица работы: либо proposal
	// стал accepted и игрок в составе, либо ни того, ни другого.
	err = repositories.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.proposalRepo.UpdateStatus(ctx, tx, proposal.ID, models.ProposalStatusAccepted); err != nil {
			if errors.Is(err, repositories.ErrProposalNotPending) {
				return ErrProposalAlreadyProcessed
			}
			return err
		}
		return s.roster.AddMember(ctx, tx, proposal.TeamID, proposal.UserID)
	})
	if err != nil {
		return nil, err
	}
	proposal.Status = models.ProposalStatusAccepted

	s.notifyDecision(ctx, proposal, team, "accepted")
	return proposal, nil
}

func (s *proposalService) RejectProposal(ctx context.Context, proposalID, currentUserID int) (*models.JoinProposal, error) {
	proposal, team, err := s.loadForDecision(ctx, proposalID, currentUserID)
	if err != nil {
		return nil, err
	}

	if err := s.proposalRepo.UpdateStatus(ctx, nil, proposal.ID, models.ProposalStatusRejected); err != nil {
		if errors.Is(err, repositories.ErrProposalNotPending) {
			return nil, ErrProposalAlreadyProcessed
		}
		return nil, fmt.Errorf("failed to reject proposal %d: %w", proposal.ID, err)
	}
	proposal.Status = models.ProposalStatusRejected

	s.notifyDecision(ctx, proposal, team, "rejected")
	return proposal, nil
}

func (s *proposalService) ListTeamProposals(ctx context.Context, teamID, currentUserID int, statusFilter *models.ProposalStatus) ([]*models.JoinProposal, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}
	return s.proposalRepo.ListByTeam(ctx, teamID, statusFilter)
}

func (s *proposalService) ListUserProposals(ctx context.Context, currentUserID int, statusFilter *models.ProposalStatus) ([]*models.JoinProposal, error) {
	return s.proposalRepo.ListByUser(ctx, currentUserID, statusFilter)
}

// loadForDecision загружает proposal и авторизует решающую сторону:
// заявку решает капитан, приглашение решает приглашённый игрок.
func (s *proposalService) loadForDecision(ctx context.Context, proposalID, currentUserID int) (*models.JoinProposal, *models.Team, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repositories.ErrProposalNotFound) {
			return nil, nil, ErrProposalNotFound
		}
		return nil, nil, fmt.Errorf("failed to get proposal %d: %w", proposalID, err)
	}

	if proposal.Status != models.ProposalStatusPending {
		return nil, nil, ErrProposalAlreadyProcessed
	}

	team, err := s.getTeam(ctx, proposal.TeamID)
	if err != nil {
		return nil, nil, err
	}

	switch proposal.Kind {
	case models.ProposalKindRequest:
		if team.CaptainID != currentUserID {
			return nil, nil, ErrCaptainActionForbidden
		}
	case models.ProposalKindInvitation:
		if proposal.UserID != currentUserID {
			return nil, nil, ErrForbiddenOperation
		}
	default:
		return nil, nil, fmt.Errorf("unknown proposal kind %q", proposal.Kind)
	}

	return proposal, team, nil
}

func (s *proposalService) notifyDecision(ctx context.Context, proposal *models.JoinProposal, team *models.Team, decision string) {
	// Уведомляем инициатора, а не решившую сторону.
	recipient := proposal.UserID
	if proposal.Kind == models.ProposalKindInvitation {
		recipient = team.CaptainID
	}
	s.notifier.Notify(ctx, recipient, models.RecipientUser,
		"Join proposal "+decision,
		fmt.Sprintf("Your join proposal for team %q was %s.", team.Name, decision),
		nil)
}

func (s *proposalService) getTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}
