package models

import "time"

// Reservation бронирует один корт на дату и набор часовых слотов.
// Слоты задаются целыми часами (14 означает 14:00-15:00). Отмена не удаляет строку,
// а снимает флаг Active, после чего слоты снова доступны.
type Reservation struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	ComplexID int       `json:"complex_id" db:"complex_id"`
	CourtID   int       `json:"court_id" db:"court_id"`
	Date      time.Time `json:"date" db:"date"`
	Slots     []int     `json:"slots" db:"slots"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Team  *Team  `json:"team,omitempty" db:"-"`
	Court *Court `json:"court,omitempty" db:"-"`
}

// ReservationTeam связывает команду с бронированием. Creator = true только
// у команды, создавшей бронь; приглашённые по матчу команды получают creator = false.
type ReservationTeam struct {
	ID            int       `json:"id" db:"id"`
	ReservationID int       `json:"reservation_id" db:"reservation_id"`
	TeamID        int       `json:"team_id" db:"team_id"`
	Creator       bool      `json:"creator" db:"creator"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
