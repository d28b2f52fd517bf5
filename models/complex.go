package models

import "time"

// Complex представляет спортивный комплекс, которому принадлежат корты.
type Complex struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Location  string    `json:"location" db:"location"`
	AdminID   int       `json:"admin_id" db:"admin_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Courts []Court `json:"courts,omitempty" db:"-"`

	PhotoKey *string `json:"-" db:"photo_key"`
	PhotoURL *string `json:"photo_url,omitempty" db:"-"`
}
