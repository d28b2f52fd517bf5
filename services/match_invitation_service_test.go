package services

import (
	"context"
	"errors"
	"testing"

	"github.com/canchalibre/booking-system/models"
)

type matchFixture struct {
	service         MatchInvitationService
	invitationRepo  *fakeInvitationRepo
	reservationRepo *fakeReservationRepo
	linkRepo        *fakeLinkRepo
	notifier        *fakeNotifier
}

// Бронь 1 принадлежит команде 1 (капитан 10), команда 2 (капитан 20) выступает соперником.
func newMatchFixture(t *testing.T, commit bool, invitations ...*models.MatchInvitation) matchFixture {
	t.Helper()

	reservationRepo := newFakeReservationRepo(&models.Reservation{
		ID: 1, TeamID: 1, ComplexID: 3, CourtID: 5, Date: testDate, Slots: []int{14}, Active: true,
	})
	linkRepo := newFakeLinkRepo(&models.ReservationTeam{ID: 1, ReservationID: 1, TeamID: 1, Creator: true})
	teamRepo := newFakeTeamRepo(
		&models.Team{ID: 1, Name: "Toros FC", CaptainID: 10, MaxPlayers: 5},
		&models.Team{ID: 2, Name: "Pumas", CaptainID: 20, MaxPlayers: 5},
	)
	invitationRepo := newFakeInvitationRepo(invitations...)
	notifier := &fakeNotifier{}

	service := NewMatchInvitationService(
		newTxDB(t, commit),
		invitationRepo,
		reservationRepo,
		linkRepo,
		teamRepo,
		notifier,
	)
	return matchFixture{
		service:         service,
		invitationRepo:  invitationRepo,
		reservationRepo: reservationRepo,
		linkRepo:        linkRepo,
		notifier:        notifier,
	}
}

func pendingInvitation() *models.MatchInvitation {
	return &models.MatchInvitation{
		ID: 7, ReservationID: 1, InvitingTeamID: 1, InvitedTeamID: 2,
		Status: models.ProposalStatusPending,
	}
}

func TestMatchInvitationService_Create(t *testing.T) {
	t.Parallel()

	fx := newMatchFixture(t, true)

	invitation, err := fx.service.CreateMatchInvitation(context.Background(), CreateMatchInvitationInput{
		ReservationID:  1,
		InvitingTeamID: 1,
		InvitedTeamID:  2,
		Comment:        "friendly at 14:00",
		CurrentUserID:  10,
	})
	if err != nil {
		t.Fatalf("CreateMatchInvitation: %v", err)
	}
	if invitation.ID == 0 || invitation.Status != models.ProposalStatusPending {
		t.Fatalf("unexpected invitation: %+v", invitation)
	}

	// Уведомляется капитан приглашённой команды.
	if sent := fx.notifier.sentTo(20); len(sent) != 1 {
		t.Fatalf("invited captain notifications = %d, want 1", len(sent))
	}
}

func TestMatchInvitationService_Create_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   CreateMatchInvitationInput
		wantErr error
	}{
		{
			name:    "self invitation",
			input:   CreateMatchInvitationInput{ReservationID: 1, InvitingTeamID: 1, InvitedTeamID: 1, CurrentUserID: 10},
			wantErr: ErrSelfMatchInvitation,
		},
		{
			name:    "unknown reservation",
			input:   CreateMatchInvitationInput{ReservationID: 99, InvitingTeamID: 1, InvitedTeamID: 2, CurrentUserID: 10},
			wantErr: ErrReservationNotFound,
		},
		{
			name:    "not the inviting captain",
			input:   CreateMatchInvitationInput{ReservationID: 1, InvitingTeamID: 1, InvitedTeamID: 2, CurrentUserID: 20},
			wantErr: ErrCaptainActionForbidden,
		},
		{
			name:    "inviting team has no access to reservation",
			input:   CreateMatchInvitationInput{ReservationID: 1, InvitingTeamID: 2, InvitedTeamID: 1, CurrentUserID: 20},
			wantErr: ErrReservationNotShared,
		},
		{
			name:    "unknown invited team",
			input:   CreateMatchInvitationInput{ReservationID: 1, InvitingTeamID: 1, InvitedTeamID: 99, CurrentUserID: 10},
			wantErr: ErrTeamNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fx := newMatchFixture(t, true)

			_, err := fx.service.CreateMatchInvitation(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateMatchInvitation error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMatchInvitationService_Create_CanceledReservation(t *testing.T) {
	t.Parallel()

	fx := newMatchFixture(t, true)
	// Бронь отменяется до приглашения.
	if err := fx.reservationRepo.Cancel(context.Background(), 1); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err := fx.service.CreateMatchInvitation(context.Background(), CreateMatchInvitationInput{
		ReservationID: 1, InvitingTeamID: 1, InvitedTeamID: 2, CurrentUserID: 10,
	})
	if !errors.Is(err, ErrReservationInactive) {
		t.Fatalf("CreateMatchInvitation error = %v, want ErrReservationInactive", err)
	}
}

func TestMatchInvitationService_Create_DuplicateTriple(t *testing.T) {
	t.Parallel()

	fx := newMatchFixture(t, true, pendingInvitation())

	_, err := fx.service.CreateMatchInvitation(context.Background(), CreateMatchInvitationInput{
		ReservationID: 1, InvitingTeamID: 1, InvitedTeamID: 2, CurrentUserID: 10,
	})
	if !errors.Is(err, ErrMatchInvitationConflict) {
		t.Fatalf("CreateMatchInvitation error = %v, want ErrMatchInvitationConflict", err)
	}
}

func TestMatchInvitationService_Accept(t *testing.T) {
	t.Parallel()

	fx := newMatchFixture(t, true, pendingInvitation())

	invitation, err := fx.service.AcceptMatchInvitation(context.Background(), 7, 20)
	if err != nil {
		t.Fatalf("AcceptMatchInvitation: %v", err)
	}
	if invitation.Status != models.ProposalStatusAccepted {
		t.Fatalf("Status = %s, want accepted", invitation.Status)
	}

	// Принятие даёт приглашённой команде доступ к брони, но не делает её создателем.
	links, err := fx.linkRepo.ListByReservation(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListByReservation: %v", err)
	}
	var invitedLinked bool
	for _, link := range links {
		if link.TeamID == 2 {
			invitedLinked = true
			if link.Creator {
				t.Fatal("invited team must not be marked as creator")
			}
		}
	}
	if !invitedLinked {
		t.Fatal("invited team not linked to reservation after accept")
	}

	// Капитан пригласившей команды узнаёт о решении.
	if sent := fx.notifier.sentTo(10); len(sent) != 1 {
		t.Fatalf("inviting captain notifications = %d, want 1", len(sent))
	}
}

func TestMatchInvitationService_Accept_OnlyInvitedCaptain(t *testing.T) {
	t.Parallel()

	fx := newMatchFixture(t, true, pendingInvitation())

	_, err := fx.service.AcceptMatchInvitation(context.Background(), 7, 10)
	if !errors.Is(err, ErrCaptainActionForbidden) {
		t.Fatalf("AcceptMatchInvitation error = %v, want ErrCaptainActionForbidden", err)
	}
}

func TestMatchInvitationService_Reject(t *testing.T) {
	t.Parallel()

	fx := newMatchFixture(t, true, pendingInvitation())

	invitation, err := fx.service.RejectMatchInvitation(context.Background(), 7, 20)
	if err != nil {
		t.Fatalf("RejectMatchInvitation: %v", err)
	}
	if invitation.Status != models.ProposalStatusRejected {
		t.Fatalf("Status = %s, want rejected", invitation.Status)
	}

	// Доступ к брони не появился.
	linked, _ := fx.linkRepo.Exists(context.Background(), 1, 2)
	if linked {
		t.Fatal("invited team linked to reservation after reject")
	}
}

func TestMatchInvitationService_DecideTwice(t *testing.T) {
	t.Parallel()

	accepted := pendingInvitation()
	accepted.Status = models.ProposalStatusAccepted
	fx := newMatchFixture(t, true, accepted)

	if _, err := fx.service.AcceptMatchInvitation(context.Background(), 7, 20); !errors.Is(err, ErrMatchInvitationAlreadyProcessed) {
		t.Fatalf("AcceptMatchInvitation error = %v, want ErrMatchInvitationAlreadyProcessed", err)
	}
	if _, err := fx.service.RejectMatchInvitation(context.Background(), 7, 20); !errors.Is(err, ErrMatchInvitationAlreadyProcessed) {
		t.Fatalf("RejectMatchInvitation error = %v, want ErrMatchInvitationAlreadyProcessed", err)
	}
}

func TestMatchInvitationService_Lists_OnlyCaptain(t *testing.T) {
	t.Parallel()

	fx := newMatchFixture(t, true, pendingInvitation())

	if _, err := fx.service.ListIncoming(context.Background(), 2, 10); !errors.Is(err, ErrCaptainActionForbidden) {
		t.Fatalf("ListIncoming error = %v, want ErrCaptainActionForbidden", err)
	}
	if _, err := fx.service.ListOutgoing(context.Background(), 1, 20); !errors.Is(err, ErrCaptainActionForbidden) {
		t.Fatalf("ListOutgoing error = %v, want ErrCaptainActionForbidden", err)
	}

	incoming, err := fx.service.ListIncoming(context.Background(), 2, 20)
	if err != nil {
		t.Fatalf("ListIncoming: %v", err)
	}
	if len(incoming) != 1 || incoming[0].ID != 7 {
		t.Fatalf("incoming = %+v, want invitation #7", incoming)
	}
}

func TestMatchInvitationService_ExpirePastInvitations(t *testing.T) {
	t.Parallel()

	fx := newMatchFixture(t, true)
	fx.invitationRepo.expired = 3

	count, err := fx.service.ExpirePastInvitations(context.Background())
	if err != nil {
		t.Fatalf("ExpirePastInvitations: %v", err)
	}
	if count != 3 {
		t.Fatalf("expired = %d, want 3", count)
	}
}
