package models

import "time"

// DefaultRouteColor is used when a route is created without a color.
const DefaultRouteColor = "#3b82f6"

// Route is a river route a reservation points at by id (Trasa).
type Route struct {
	ID        int64     `json:"id" validate:"gte=0"`
	Name      string    `json:"name" validate:"required,max=120"`
	Color     string    `json:"color" validate:"omitempty,hexcolor"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
