package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"kayak-backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReservationService struct {
	store  EnvelopeStore
	ids    IDGenerator
	events EventPublisher
	now    func() time.Time
}

func NewReservationService(db *gorm.DB, events EventPublisher) *ReservationService {
	if events == nil {
		events = NopPublisher{}
	}
	return &ReservationService{
		store:  NewEnvelopeStore(db, models.TableReservations),
		ids:    NewClockIDGenerator(),
		events: events,
		now:    models.Now,
	}
}

// List returns every reservation in creation order. Storage or decode
// failures are logged and yield an empty list.
func (s *ReservationService) List(ctx context.Context) []models.Reservation {
	rows, err := s.store.WithContext(ctx).All()
	if err != nil {
		log.Printf("❌ list reservations: %v", err)
		return []models.Reservation{}
	}
	out := make([]models.Reservation, 0, len(rows))
	for _, row := range rows {
		var r models.Reservation
		if err := row.Unwrap(&r); err != nil {
			log.Printf("⚠️ skip reservation %d: %v", row.ID, err)
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *ReservationService) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	row, err := s.store.WithContext(ctx).Find(id)
	if err != nil {
		return nil, err
	}
	var r models.Reservation
	if err := row.Unwrap(&r); err != nil {
		return nil, fmt.Errorf("decode reservation %d: %w", id, err)
	}
	return &r, nil
}

// Create stores a new reservation. A zero id is replaced by a generated one;
// a supplied id that already exists is ErrConflict.
func (s *ReservationService) Create(ctx context.Context, in models.Reservation) (*models.Reservation, error) {
	r := in
	r.ApplyDefaults()
	if verr := validateStruct(r, ""); verr != nil {
		return nil, verr
	}
	if len(r.History) > 0 && !r.HistoryStartsWithCreated() {
		return nil, errHistoryStart("history")
	}

	now := s.now()
	r.CreatedAt = now
	r.UpdatedAt = now
	r.EnsureHistory(now)

	err := s.store.Transaction(ctx, func(tx EnvelopeStore) error {
		id, err := tx.allocateID(s.ids, r.ID)
		if err != nil {
			return err
		}
		r.ID = id
		row, err := models.Wrap(r.ID, r.CreatedAt, r)
		if err != nil {
			return err
		}
		return tx.Insert(row)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ reservation %d created (%s %s, %s)", r.ID, r.FirstName, r.LastName, r.Date)
	publish(ctx, s.events, EventReservationCreated, r)
	return &r, nil
}

// OverwriteAll replaces the whole collection in one transaction. Every entry
// is normalized like Create; any invalid entry rejects the whole batch.
func (s *ReservationService) OverwriteAll(ctx context.Context, list []models.Reservation) (int, error) {
	now := s.now()
	seen := make(map[int64]int, len(list))
	rows := make([]models.Envelope, 0, len(list))
	issues := &ValidationError{}

	for i := range list {
		r := list[i]
		r.ApplyDefaults()
		if r.ID == 0 {
			r.ID = s.ids.NextID()
		}
		if prev, dup := seen[r.ID]; dup {
			issues.Issues = append(issues.Issues, Issue{
				Field:   fmt.Sprintf("[%d].id", i),
				Message: fmt.Sprintf("duplicates entry %d", prev),
			})
			continue
		}
		seen[r.ID] = i
		if verr := validateStruct(r, fmt.Sprintf("[%d].", i)); verr != nil {
			issues.Issues = append(issues.Issues, verr.Issues...)
			continue
		}
		if len(r.History) > 0 && !r.HistoryStartsWithCreated() {
			issues.Issues = append(issues.Issues, errHistoryStart(fmt.Sprintf("[%d].history", i)).Issues...)
			continue
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
		if len(r.History) == 0 {
			r.AppendHistory(models.ActionCreated, "", r.CreatedAt)
		} else {
			r.EnsureHistory(r.UpdatedAt)
		}
		row, err := models.Wrap(r.ID, r.CreatedAt, r)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	if len(issues.Issues) > 0 {
		return 0, issues
	}

	if err := s.store.Transaction(ctx, func(tx EnvelopeStore) error {
		return tx.ReplaceAll(rows)
	}); err != nil {
		return 0, err
	}

	log.Printf("💾 reservations overwritten: %d rows", len(rows))
	publish(ctx, s.events, EventReservationsSynced, map[string]int{"count": len(rows)})
	return len(rows), nil
}

// Update merges fields into the stored payload. Keys not present in fields
// keep their stored bytes; id and createdAt cannot change.
func (s *ReservationService) Update(ctx context.Context, id int64, fields map[string]json.RawMessage) (*models.Reservation, error) {
	var out models.Reservation
	err := s.store.Transaction(ctx, func(tx EnvelopeStore) error {
		row, err := tx.Find(id)
		if err != nil {
			return err
		}
		current, err := row.Fields()
		if err != nil {
			return fmt.Errorf("decode reservation %d: %w", id, err)
		}

		merged := mergeFields(current, fields)
		stamp, _ := json.Marshal(s.now())
		merged["updatedAt"] = stamp

		payload, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		if err := decodeInto(payload, &out); err != nil {
			return err
		}
		if verr := validateStruct(out, ""); verr != nil {
			return verr
		}
		if !out.HistoryStartsWithCreated() {
			return errHistoryStart("history")
		}
		_, err = tx.SetPayload(id, datatypes.JSON(payload))
		return err
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, EventReservationUpdated, out)
	return &out, nil
}

// ChangeStatus moves a reservation to new statuses, appending a history entry
// only when one of them actually changes.
func (s *ReservationService) ChangeStatus(ctx context.Context, id int64, status models.ReservationStatus, payment models.PaymentStatus, notes string) (*models.Reservation, bool, error) {
	if status == "" && payment == "" {
		return nil, false, invalid("status", "status or paymentStatus is required")
	}

	var (
		out     models.Reservation
		changed bool
	)
	err := s.store.Transaction(ctx, func(tx EnvelopeStore) error {
		row, err := tx.Find(id)
		if err != nil {
			return err
		}
		if err := row.Unwrap(&out); err != nil {
			return fmt.Errorf("decode reservation %d: %w", id, err)
		}
		changed = out.TransitionTo(status, payment, notes, s.now())
		if !changed {
			return nil
		}
		if verr := validateStruct(out, ""); verr != nil {
			return verr
		}
		return s.writeFields(tx, row, map[string]any{
			"status":        out.Status,
			"paymentStatus": out.PaymentStatus,
			"updatedAt":     out.UpdatedAt,
			"history":       out.History,
		})
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		log.Printf("🔄 reservation %d -> %s / %s", id, out.Status, out.PaymentStatus)
		publish(ctx, s.events, EventReservationUpdated, out)
	}
	return &out, changed, nil
}

// Delete removes the reservation. Deleting an unknown id is not an error.
func (s *ReservationService) Delete(ctx context.Context, id int64) error {
	n, err := s.store.WithContext(ctx).Delete(id)
	if err != nil {
		return err
	}
	if n > 0 {
		publish(ctx, s.events, EventReservationDeleted, map[string]int64{"id": id})
	}
	return nil
}

// writeFields overlays values on the row's stored payload and saves it.
func (s *ReservationService) writeFields(tx EnvelopeStore, row models.Envelope, values map[string]any) error {
	current, err := row.Fields()
	if err != nil {
		return err
	}
	updates, err := rawFields(values)
	if err != nil {
		return err
	}
	payload, err := marshalFields(mergeFields(current, updates))
	if err != nil {
		return err
	}
	_, err = tx.SetPayload(row.ID, payload)
	return err
}

func errHistoryStart(field string) *ValidationError {
	return invalid(field, "must start with a created entry")
}

// decodeInto unmarshals a merged payload, reporting type mismatches as
// validation issues.
func decodeInto(payload []byte, v any) error {
	err := json.Unmarshal(payload, v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return invalid(typeErr.Field, "must be a "+typeErr.Type.String())
	}
	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		return invalid("timestamp", "must be an RFC3339 timestamp")
	}
	return invalid("body", err.Error())
}
