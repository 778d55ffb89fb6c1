package models

import "time"

type ReservationStatus string

const (
	StatusUnconfirmed  ReservationStatus = "nie_potwierdzony"
	StatusConfirmed    ReservationStatus = "potwierdzony"
	StatusTripStarted  ReservationStatus = "w_trakcie"
	StatusTripFinished ReservationStatus = "zakonczony"
)

type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "nieoplacony"
	PaymentPaid          PaymentStatus = "oplacony"
	PaymentInvoiceUnpaid PaymentStatus = "faktura_nieoplacona"
	PaymentInvoicePaid   PaymentStatus = "faktura_oplacona"
)

// History actions written by the server.
const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
	ActionRouteDeleted  = "route_deleted"
)

// NoRoute is the Trasa value of a reservation without a route.
const NoRoute int64 = 0

// TimeSlots are the trip start hours offered to customers.
var TimeSlots = []string{"08:00", "09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}

type HistoryEntry struct {
	Timestamp     time.Time         `json:"timestamp"`
	Action        string            `json:"action"`
	Status        ReservationStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"paymentStatus"`
	Notes         string            `json:"notes,omitempty"`
}

// Reservation is a kayak trip booking. JSON keys follow the booking form.
type Reservation struct {
	ID int64 `json:"id" validate:"gte=0"`

	FirstName string `json:"Imie" validate:"required,max=100"`
	LastName  string `json:"Nazwisko" validate:"required,max=100"`
	Phone     string `json:"Telefon" validate:"required,max=32"`
	Email     string `json:"Email" validate:"required,email"`

	RouteID  int64  `json:"Trasa" validate:"gte=0"`
	Date     string `json:"Data" validate:"required,datetime=2006-01-02"`
	TimeSlot string `json:"Godzina,omitempty" validate:"omitempty,oneof=08:00 09:00 10:00 11:00 12:00 13:00 14:00 15:00 16:00"`

	SingleKayaks int `json:"jednoosobowe" validate:"gte=0"`
	DoubleKayaks int `json:"dwuosobowe" validate:"gte=0"`

	Status        ReservationStatus `json:"status" validate:"oneof=nie_potwierdzony potwierdzony w_trakcie zakonczony"`
	PaymentStatus PaymentStatus     `json:"paymentStatus" validate:"oneof=nieoplacony oplacony faktura_nieoplacona faktura_oplacona"`

	Meals            bool `json:"posilki,omitempty"`
	GroupTransport   bool `json:"transportGrupowy,omitempty"`
	Campfire         bool `json:"ognisko,omitempty"`
	Electricity      bool `json:"prad,omitempty"`
	Gazebo           bool `json:"altana,omitempty"`
	Drivers          int  `json:"kierowcy,omitempty" validate:"gte=0"`
	ChildLifeJackets int  `json:"kamizelkiDzieciece,omitempty" validate:"gte=0"`
	Deliveries       int  `json:"dostawy,omitempty" validate:"gte=0"`
	WaterproofBags   int  `json:"workiWodoszczelne,omitempty" validate:"gte=0"`

	Notes string `json:"uwagi,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	History   []HistoryEntry `json:"history"`
}

// ApplyDefaults fills the statuses a new booking starts with.
func (r *Reservation) ApplyDefaults() {
	if r.Status == "" {
		r.Status = StatusUnconfirmed
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = PaymentUnpaid
	}
}

// AppendHistory records the reservation's current statuses under action.
func (r *Reservation) AppendHistory(action, notes string, at time.Time) {
	r.History = append(r.History, HistoryEntry{
		Timestamp:     at,
		Action:        action,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
		Notes:         notes,
	})
}

// HistoryStartsWithCreated reports whether the history is non-empty and opens
// with the "created" entry.
func (r Reservation) HistoryStartsWithCreated() bool {
	return len(r.History) > 0 && r.History[0].Action == ActionCreated
}

// EnsureHistory adds at most one entry: "created" for an empty history, or
// "status_changed" when the last entry disagrees with the reservation's
// statuses. A non-empty history must already start with "created".
func (r *Reservation) EnsureHistory(at time.Time) {
	if len(r.History) == 0 {
		r.AppendHistory(ActionCreated, "", at)
		return
	}
	last := r.History[len(r.History)-1]
	if last.Status != r.Status || last.PaymentStatus != r.PaymentStatus {
		r.AppendHistory(ActionStatusChanged, "", at)
	}
}

// TransitionTo moves the reservation to the given statuses. Empty values keep
// the current ones. A history entry is appended only if something changed.
func (r *Reservation) TransitionTo(status ReservationStatus, payment PaymentStatus, notes string, at time.Time) bool {
	next, nextPayment := r.Status, r.PaymentStatus
	if status != "" {
		next = status
	}
	if payment != "" {
		nextPayment = payment
	}
	if next == r.Status && nextPayment == r.PaymentStatus {
		return false
	}
	r.Status, r.PaymentStatus = next, nextPayment
	r.UpdatedAt = at
	r.AppendHistory(ActionStatusChanged, notes, at)
	return true
}

// Kayaks is the number of boats the booking occupies.
func (r Reservation) Kayaks() int {
	return r.SingleKayaks + r.DoubleKayaks
}

// Participants counts seats: one per single kayak, two per double.
func (r Reservation) Participants() int {
	return r.SingleKayaks + 2*r.DoubleKayaks
}
