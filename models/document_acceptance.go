package models

import "time"

const (
	AcceptanceStatusPending  = "pending"
	AcceptanceStatusAccepted = "accepted"
)

// DocumentAcceptance records a customer accepting a document such as the
// rental terms or the campsite rules.
type DocumentAcceptance struct {
	ID            int64     `json:"id"`
	DocumentID    string    `json:"documentId" validate:"required,max=120"`
	Version       string    `json:"version,omitempty"`
	ReservationID *int64    `json:"reservationId,omitempty"`
	AcceptedBy    string    `json:"acceptedBy" validate:"required,max=200"`
	Action        string    `json:"action"`
	Status        string    `json:"status"`
	AcceptedAt    time.Time `json:"acceptedAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
