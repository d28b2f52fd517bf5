package models

import "time"

type Team struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	CaptainID  int       `json:"captain_id" db:"captain_id"`
	MaxPlayers int       `json:"max_players" db:"max_players"`
	Public     bool      `json:"public" db:"public"`
	Location   string    `json:"location" db:"location"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Captain *User  `json:"captain,omitempty" db:"-"`
	Members []User `json:"members,omitempty" db:"-"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

type TeamMember struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
