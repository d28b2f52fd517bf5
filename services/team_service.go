package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
	"github.com/canchalibre/booking-system/storage"
)

type CreateTeamInput struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	MaxPlayers int    `json:"max_players" validate:"required,gt=0,lte=50"`
	Public     bool   `json:"public"`
	Location   string `json:"location" validate:"max=200"`

	CreatorID int `json:"-"`
}

type UpdateTeamInput struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=100"`
	MaxPlayers *int    `json:"max_players" validate:"omitempty,gt=0,lte=50"`
	Public     *bool   `json:"public"`
	Location   *string `json:"location" validate:"omitempty,max=200"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeamByID(ctx context.Context, teamID int) (*models.Team, error)
	UpdateTeam(ctx context.Context, teamID int, input UpdateTeamInput, currentUserID int) (*models.Team, error)
	DeleteTeam(ctx context.Context, teamID, currentUserID int) error
	ListPublicTeams(ctx context.Context) ([]*models.Team, error)
	UploadTeamLogo(ctx context.Context, teamID, currentUserID int, contentType string, file io.Reader) (*models.Team, error)
}

type teamService struct {
	db         *sql.DB
	teamRepo   repositories.TeamRepository
	rosterRepo repositories.RosterRepository
	uploader   storage.FileUploader
}

func NewTeamService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	rosterRepo repositories.RosterRepository,
	uploader storage.FileUploader,
) TeamService {
	return &teamService{
		db:         db,
		teamRepo:   teamRepo,
		rosterRepo: rosterRepo,
		uploader:   uploader,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if input.MaxPlayers <= 0 {
		return nil, ErrTeamCapacityInvalid
	}

	team := &models.Team{
		Name:       name,
		CaptainID:  input.CreatorID,
		MaxPlayers: input.MaxPlayers,
		Public:     input.Public,
		Location:   input.Location,
	}

	// Капитан попадает в состав той же транзакцией, что и создание команды:
	// команды без капитана в team_members не существует ни одного мгновения.
	err := repositories.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.teamRepo.Create(ctx, tx, team); err != nil {
			return err
		}
		member := &models.TeamMember{TeamID: team.ID, UserID: input.CreatorID}
		return s.rosterRepo.Add(ctx, tx, member)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		if errors.Is(err, repositories.ErrTeamCaptainInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	members, err := s.rosterRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	team.Members = members

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, teamID int, input UpdateTeamInput, currentUserID int) (*models.Team, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTeamNameRequired
		}
		team.Name = name
	}
	if input.MaxPlayers != nil {
		if *input.MaxPlayers <= 0 {
			return nil, ErrTeamCapacityInvalid
		}
		// Сужать вместимость ниже текущего размера состава нельзя.
		count, err := s.rosterRepo.CountMembers(ctx, nil, teamID)
		if err != nil {
			return nil, fmt.Errorf("failed to count members of team %d: %w", teamID, err)
		}
		if *input.MaxPlayers < count {
			return nil, ErrTeamCapacityInvalid
		}
		team.MaxPlayers = *input.MaxPlayers
	}
	if input.Public != nil {
		team.Public = *input.Public
	}
	if input.Location != nil {
		team.Location = *input.Location
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to update team %d: %w", teamID, err)
	}

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, teamID, currentUserID int) error {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.CaptainID != currentUserID {
		return ErrCaptainActionForbidden
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}

	if team.LogoKey != nil && s.uploader != nil {
		// Ошибку удаления файла не возвращаем: команда уже удалена.
		_ = s.uploader.Delete(ctx, *team.LogoKey)
	}
	return nil
}

func (s *teamService) ListPublicTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		populateTeamLogoURL(team, s.uploader)
	}
	return teams, nil
}

func (s *teamService) UploadTeamLogo(ctx context.Context, teamID, currentUserID int, contentType string, file io.Reader) (*models.Team, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}

	result, err := s.uploader.Upload(ctx, storage.TeamLogoKey(teamID), contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	team.LogoKey = &result.Key
	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to store team logo key: %w", err)
	}

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) getTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}
