package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Table names for every envelope collection.
const (
	TableReservations        = "reservations"
	TableRoutes              = "routes"
	TableSpots               = "spots"
	TableEquipment           = "equipment"
	TableCars                = "cars"
	TableCategories          = "categories"
	TableCampsiteBookings    = "campsite_bookings"
	TableDocumentAcceptances = "document_acceptances"
)

// EnvelopeTables lists the tables migrated at startup, in creation order.
var EnvelopeTables = []string{
	TableReservations,
	TableRoutes,
	TableSpots,
	TableEquipment,
	TableCars,
	TableCategories,
	TableCampsiteBookings,
	TableDocumentAcceptances,
}

// Envelope is one row of a collection: a typed id plus the whole entity as JSON.
// CreatedAt mirrors the payload's createdAt so rows can be ordered in SQL.
// Always used through db.Table(name).
type Envelope struct {
	ID        int64          `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"-"`
}

// Wrap marshals v into an envelope row.
func Wrap(id int64, createdAt time.Time, v any) (Envelope, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: id, Payload: datatypes.JSON(raw), CreatedAt: createdAt}, nil
}

// Unwrap decodes the payload into v.
func (e Envelope) Unwrap(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Fields decodes the payload as a generic object, keeping each value's raw bytes.
func (e Envelope) Fields() (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(e.Payload) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(e.Payload, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Now is the timestamp used for every audit field: UTC, millisecond precision,
// so values survive a JSON round trip unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
