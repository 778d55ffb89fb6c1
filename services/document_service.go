package services

import (
	"context"
	"log"
	"strings"
	"time"

	"kayak-backend/models"

	"gorm.io/gorm"
)

// DocumentService keeps the log of accepted documents (rental terms, campsite
// rules). Entries are append-only apart from Delete.
type DocumentService struct {
	store  EnvelopeStore
	ids    IDGenerator
	events EventPublisher
	now    func() time.Time
}

func NewDocumentService(db *gorm.DB, events EventPublisher) *DocumentService {
	if events == nil {
		events = NopPublisher{}
	}
	return &DocumentService{
		store:  NewEnvelopeStore(db, models.TableDocumentAcceptances),
		ids:    NewClockIDGenerator(),
		events: events,
		now:    models.Now,
	}
}

func (s *DocumentService) List(ctx context.Context) []models.DocumentAcceptance {
	rows, err := s.store.WithContext(ctx).All()
	if err != nil {
		log.Printf("❌ list document acceptances: %v", err)
		return []models.DocumentAcceptance{}
	}
	out := make([]models.DocumentAcceptance, 0, len(rows))
	for _, row := range rows {
		var a models.DocumentAcceptance
		if err := row.Unwrap(&a); err != nil {
			log.Printf("⚠️ skip document acceptance %d: %v", row.ID, err)
			continue
		}
		out = append(out, a)
	}
	return out
}

// Accept records an acceptance. With a reservation id the reservation must
// exist and the entry is accepted; without one it stays pending until the
// booking is made.
func (s *DocumentService) Accept(ctx context.Context, in models.DocumentAcceptance) (*models.DocumentAcceptance, error) {
	a := in
	a.DocumentID = strings.TrimSpace(a.DocumentID)
	a.AcceptedBy = strings.TrimSpace(a.AcceptedBy)
	if verr := validateStruct(a, ""); verr != nil {
		return nil, verr
	}
	if a.ReservationID != nil && *a.ReservationID <= 0 {
		return nil, invalid("reservationId", "must be a positive integer")
	}

	if a.Action == "" {
		a.Action = "accepted"
	}
	a.Status = models.AcceptanceStatusPending
	if a.ReservationID != nil {
		a.Status = models.AcceptanceStatusAccepted
	}
	now := s.now()
	a.AcceptedAt = now
	a.CreatedAt = now
	a.UpdatedAt = now

	err := s.store.Transaction(ctx, func(tx EnvelopeStore) error {
		if a.ReservationID != nil {
			found, err := tx.On(models.TableReservations).Exists(*a.ReservationID)
			if err != nil {
				return err
			}
			if !found {
				return ErrNotFound
			}
		}
		id, err := tx.allocateID(s.ids, 0)
		if err != nil {
			return err
		}
		a.ID = id
		row, err := models.Wrap(a.ID, a.CreatedAt, a)
		if err != nil {
			return err
		}
		return tx.Insert(row)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📝 document %s %s by %s", a.DocumentID, a.Action, a.AcceptedBy)
	publish(ctx, s.events, EventDocumentAccepted, a)
	return &a, nil
}

// AttachReservation links the pending acceptances made by acceptedBy to a
// reservation created afterwards and marks them accepted. Returns how many
// entries were linked.
func (s *DocumentService) AttachReservation(ctx context.Context, reservationID int64, acceptedBy string) (int, error) {
	acceptedBy = strings.TrimSpace(acceptedBy)
	if reservationID <= 0 {
		return 0, invalid("reservationId", "must be a positive integer")
	}
	if acceptedBy == "" {
		return 0, invalid("acceptedBy", "is required")
	}

	linked := 0
	err := s.store.Transaction(ctx, func(tx EnvelopeStore) error {
		found, err := tx.On(models.TableReservations).Exists(reservationID)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		rows, err := tx.All()
		if err != nil {
			return err
		}
		now := s.now()
		for _, row := range rows {
			var a models.DocumentAcceptance
			if err := row.Unwrap(&a); err != nil {
				continue
			}
			if a.ReservationID != nil || a.Status != models.AcceptanceStatusPending || !strings.EqualFold(a.AcceptedBy, acceptedBy) {
				continue
			}
			updates, err := rawFields(map[string]any{
				"reservationId": reservationID,
				"status":        models.AcceptanceStatusAccepted,
				"updatedAt":     now,
			})
			if err != nil {
				return err
			}
			current, err := row.Fields()
			if err != nil {
				return err
			}
			payload, err := marshalFields(mergeFields(current, updates))
			if err != nil {
				return err
			}
			if _, err := tx.SetPayload(row.ID, payload); err != nil {
				return err
			}
			linked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if linked > 0 {
		log.Printf("📎 linked %d pending acceptances to reservation %d", linked, reservationID)
	}
	return linked, nil
}

func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	_, err := s.store.WithContext(ctx).Delete(id)
	return err
}
