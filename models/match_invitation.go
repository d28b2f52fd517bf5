package models

import "time"

type MatchInvitation struct {
	ID             int            `json:"id" db:"id"`
	ReservationID  int            `json:"reservation_id" db:"reservation_id"`
	InvitingTeamID int            `json:"inviting_team_id" db:"inviting_team_id"`
	InvitedTeamID  int            `json:"invited_team_id" db:"invited_team_id"`
	Status         ProposalStatus `json:"status" db:"status"`
	Comment        string         `json:"comment" db:"comment"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`

	Reservation  *Reservation `json:"reservation,omitempty" db:"-"`
	InvitingTeam *Team        `json:"inviting_team,omitempty" db:"-"`
	InvitedTeam  *Team        `json:"invited_team,omitempty" db:"-"`
}
