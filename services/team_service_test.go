package services

import (
	"context"
	"errors"
	"testing"

	"github.com/canchalibre/booking-system/models"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestTeamService_CreateTeam(t *testing.T) {
	t.Parallel()

	teamRepo := newFakeTeamRepo()
	rosterRepo := newFakeRosterRepo()
	service := NewTeamService(newTxDB(t, true), teamRepo, rosterRepo, nil)

	team, err := service.CreateTeam(context.Background(), CreateTeamInput{
		Name:       "Toros FC",
		MaxPlayers: 5,
		Public:     true,
		CreatorID:  10,
	})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if team.ID == 0 || team.CaptainID != 10 {
		t.Fatalf("unexpected team: %+v", team)
	}

	// Капитан сразу числится в составе.
	isMember, err := rosterRepo.Exists(context.Background(), nil, team.ID, 10)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !isMember {
		t.Fatal("captain not in roster after CreateTeam")
	}
}

func TestTeamService_CreateTeam_Validation(t *testing.T) {
	t.Parallel()

	service := NewTeamService(newTxDB(t, true), newFakeTeamRepo(), newFakeRosterRepo(), nil)

	if _, err := service.CreateTeam(context.Background(), CreateTeamInput{Name: "   ", MaxPlayers: 5, CreatorID: 10}); !errors.Is(err, ErrTeamNameRequired) {
		t.Fatalf("CreateTeam error = %v, want ErrTeamNameRequired", err)
	}
	if _, err := service.CreateTeam(context.Background(), CreateTeamInput{Name: "Toros FC", MaxPlayers: 0, CreatorID: 10}); !errors.Is(err, ErrTeamCapacityInvalid) {
		t.Fatalf("CreateTeam error = %v, want ErrTeamCapacityInvalid", err)
	}
}

func TestTeamService_CreateTeam_NameConflict(t *testing.T) {
	t.Parallel()

	teamRepo := newFakeTeamRepo(&models.Team{ID: 1, Name: "Toros FC", CaptainID: 20, MaxPlayers: 5})
	service := NewTeamService(newTxDB(t, false), teamRepo, newFakeRosterRepo(), nil)

	_, err := service.CreateTeam(context.Background(), CreateTeamInput{Name: "Toros FC", MaxPlayers: 5, CreatorID: 10})
	if !errors.Is(err, ErrTeamNameConflict) {
		t.Fatalf("CreateTeam error = %v, want ErrTeamNameConflict", err)
	}
}

func TestTeamService_UpdateTeam(t *testing.T) {
	t.Parallel()

	team := &models.Team{ID: 1, Name: "Toros FC", CaptainID: 10, MaxPlayers: 5}

	t.Run("captain updates fields", func(t *testing.T) {
		t.Parallel()
		teamRepo := newFakeTeamRepo(team)
		service := NewTeamService(newTxDB(t, true), teamRepo, newFakeRosterRepo([2]int{1, 10}), nil)

		updated, err := service.UpdateTeam(context.Background(), 1, UpdateTeamInput{
			Name:     strPtr("Pumas"),
			Location: strPtr("Monterrey"),
		}, 10)
		if err != nil {
			t.Fatalf("UpdateTeam: %v", err)
		}
		if updated.Name != "Pumas" || updated.Location != "Monterrey" {
			t.Fatalf("unexpected team after update: %+v", updated)
		}
	})

	t.Run("only captain", func(t *testing.T) {
		t.Parallel()
		service := NewTeamService(newTxDB(t, true), newFakeTeamRepo(team), newFakeRosterRepo(), nil)

		_, err := service.UpdateTeam(context.Background(), 1, UpdateTeamInput{Name: strPtr("Pumas")}, 20)
		if !errors.Is(err, ErrCaptainActionForbidden) {
			t.Fatalf("UpdateTeam error = %v, want ErrCaptainActionForbidden", err)
		}
	})

	t.Run("cannot shrink below roster size", func(t *testing.T) {
		t.Parallel()
		rosterRepo := newFakeRosterRepo([2]int{1, 10}, [2]int{1, 20}, [2]int{1, 30})
		service := NewTeamService(newTxDB(t, true), newFakeTeamRepo(team), rosterRepo, nil)

		_, err := service.UpdateTeam(context.Background(), 1, UpdateTeamInput{MaxPlayers: intPtr(2)}, 10)
		if !errors.Is(err, ErrTeamCapacityInvalid) {
			t.Fatalf("UpdateTeam error = %v, want ErrTeamCapacityInvalid", err)
		}
	})

	t.Run("shrink to exact roster size is allowed", func(t *testing.T) {
		t.Parallel()
		rosterRepo := newFakeRosterRepo([2]int{1, 10}, [2]int{1, 20})
		service := NewTeamService(newTxDB(t, true), newFakeTeamRepo(team), rosterRepo, nil)

		updated, err := service.UpdateTeam(context.Background(), 1, UpdateTeamInput{MaxPlayers: intPtr(2)}, 10)
		if err != nil {
			t.Fatalf("UpdateTeam: %v", err)
		}
		if updated.MaxPlayers != 2 {
			t.Fatalf("MaxPlayers = %d, want 2", updated.MaxPlayers)
		}
	})
}

func TestTeamService_DeleteTeam_OnlyCaptain(t *testing.T) {
	t.Parallel()

	teamRepo := newFakeTeamRepo(&models.Team{ID: 1, Name: "Toros FC", CaptainID: 10, MaxPlayers: 5})
	service := NewTeamService(newTxDB(t, true), teamRepo, newFakeRosterRepo(), nil)

	if err := service.DeleteTeam(context.Background(), 1, 20); !errors.Is(err, ErrCaptainActionForbidden) {
		t.Fatalf("DeleteTeam error = %v, want ErrCaptainActionForbidden", err)
	}
	if err := service.DeleteTeam(context.Background(), 1, 10); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	if _, err := service.GetTeamByID(context.Background(), 1); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("GetTeamByID after delete error = %v, want ErrTeamNotFound", err)
	}
}

func TestTeamService_ListPublicTeams(t *testing.T) {
	t.Parallel()

	teamRepo := newFakeTeamRepo(
		&models.Team{ID: 1, Name: "Toros FC", CaptainID: 10, MaxPlayers: 5, Public: true},
		&models.Team{ID: 2, Name: "Pumas", CaptainID: 20, MaxPlayers: 5, Public: false},
	)
	service := NewTeamService(newTxDB(t, true), teamRepo, newFakeRosterRepo(), nil)

	teams, err := service.ListPublicTeams(context.Background())
	if err != nil {
		t.Fatalf("ListPublicTeams: %v", err)
	}
	if len(teams) != 1 || teams[0].ID != 1 {
		t.Fatalf("public teams = %+v, want only team #1", teams)
	}
}
