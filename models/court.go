package models

import "time"

type Court struct {
	ID           int       `json:"id" db:"id"`
	ComplexID    int       `json:"complex_id" db:"complex_id"`
	Name         string    `json:"name" db:"name"`
	Capacity     int       `json:"capacity" db:"capacity"`
	Roofed       bool      `json:"roofed" db:"roofed"`
	PricePerSlot int       `json:"price_per_slot" db:"price_per_slot"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Complex *Complex `json:"complex,omitempty" db:"-"`

	PhotoKey *string `json:"-" db:"photo_key"`
	PhotoURL *string `json:"photo_url,omitempty" db:"-"`
}
