package models

import "time"

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

type ProposalKind string

const (
	// ProposalKindRequest: игрок сам просится в команду.
	ProposalKindRequest ProposalKind = "request"
	// ProposalKindInvitation: капитан приглашает игрока.
	ProposalKindInvitation ProposalKind = "invitation"
)

// JoinProposal объединяет заявку игрока и приглашение капитана в одну модель.
// Для пары (team, user) одновременно может существовать не более одного
// proposal в статусе pending/accepted, независимо от kind.
type JoinProposal struct {
	ID        int            `json:"id" db:"id"`
	TeamID    int            `json:"team_id" db:"team_id"`
	UserID    int            `json:"user_id" db:"user_id"`
	Kind      ProposalKind   `json:"kind" db:"kind"`
	Status    ProposalStatus `json:"status" db:"status"`
	CreatedBy int            `json:"created_by" db:"created_by"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`

	Team *Team `json:"team,omitempty" db:"-"`
	User *User `json:"user,omitempty" db:"-"`
}
