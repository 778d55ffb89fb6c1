package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kayak-backend/config"
	"kayak-backend/models"

	"gorm.io/gorm"
)

// CascadeService clears route references from reservations after a route is
// removed. There is no foreign key between the two tables.
type CascadeService struct {
	db     *gorm.DB
	mode   string
	events EventPublisher
	now    func() time.Time
}

func NewCascadeService(db *gorm.DB, mode string, events EventPublisher) *CascadeService {
	if mode != config.CascadeBestEffort {
		mode = config.CascadeAtomic
	}
	if events == nil {
		events = NopPublisher{}
	}
	return &CascadeService{db: db, mode: mode, events: events, now: models.Now}
}

func (s *CascadeService) Mode() string { return s.mode }

// routeRef is the slice of a reservation payload the cascade touches.
type routeRef struct {
	RouteID       int64                    `json:"Trasa"`
	Status        models.ReservationStatus `json:"status"`
	PaymentStatus models.PaymentStatus     `json:"paymentStatus"`
	History       []models.HistoryEntry    `json:"history"`
}

// ClearRoute sets Trasa to 0 on every reservation referencing routeID and
// returns how many were changed. In atomic mode a failure applies nothing and
// reports 0; in best_effort mode it stops at the first failure and reports
// the rows written before it.
func (s *CascadeService) ClearRoute(ctx context.Context, routeID int64) (int, error) {
	if routeID <= 0 {
		return 0, invalid("routeId", "must be a positive route id")
	}

	var (
		affected int
		err      error
	)
	if s.mode == config.CascadeBestEffort {
		affected, err = s.clearBestEffort(ctx, routeID)
	} else {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			n, err := s.clearIn(tx, routeID)
			affected = n
			return err
		})
		if err != nil {
			affected = 0
		}
	}
	if err != nil {
		log.Printf("❌ cascade for route %d (%s) failed after %d rows: %v", routeID, s.mode, affected, err)
		return affected, err
	}

	log.Printf("🔗 cascade for route %d cleared %d reservations", routeID, affected)
	publish(ctx, s.events, EventRouteCleared, map[string]any{"routeId": routeID, "affectedBookings": affected})
	return affected, nil
}

// DeleteRouteAndClear removes the route and clears its references in one
// transaction, so a failure leaves both tables untouched.
func (s *CascadeService) DeleteRouteAndClear(ctx context.Context, routeID int64) (int, error) {
	if routeID <= 0 {
		return 0, invalid("id", "must be a positive route id")
	}
	var affected int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := NewEnvelopeStore(tx, models.TableRoutes).Delete(routeID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		affected, err = s.clearIn(tx, routeID)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.Printf("🗑️ route %d deleted, %d reservations cleared", routeID, affected)
	publish(ctx, s.events, EventRouteDeleted, map[string]int64{"id": routeID})
	publish(ctx, s.events, EventRouteCleared, map[string]any{"routeId": routeID, "affectedBookings": affected})
	return affected, nil
}

func (s *CascadeService) clearIn(db *gorm.DB, routeID int64) (int, error) {
	store := NewEnvelopeStore(db, models.TableReservations)
	rows, err := store.All()
	if err != nil {
		return 0, err
	}
	now := s.now()
	affected := 0
	for _, row := range rows {
		ok, err := s.clearRow(store, row, routeID, now)
		if err != nil {
			return affected, err
		}
		if ok {
			affected++
		}
	}
	return affected, nil
}

func (s *CascadeService) clearBestEffort(ctx context.Context, routeID int64) (int, error) {
	store := NewEnvelopeStore(s.db, models.TableReservations)
	rows, err := store.WithContext(ctx).All()
	if err != nil {
		return 0, err
	}
	now := s.now()
	affected := 0
	for _, candidate := range rows {
		var ref routeRef
		if err := candidate.Unwrap(&ref); err != nil || ref.RouteID != routeID {
			continue
		}
		// re-read under a row transaction so a concurrent edit is not lost
		var ok bool
		err := store.Transaction(ctx, func(tx EnvelopeStore) error {
			row, err := tx.Find(candidate.ID)
			if err != nil {
				return err
			}
			ok, err = s.clearRow(tx, row, routeID, now)
			return err
		})
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return affected, err
		}
		if ok {
			affected++
		}
	}
	return affected, nil
}

// clearRow resets one reservation if it still points at routeID.
func (s *CascadeService) clearRow(store EnvelopeStore, row models.Envelope, routeID int64, now time.Time) (bool, error) {
	var ref routeRef
	if err := row.Unwrap(&ref); err != nil {
		log.Printf("⚠️ cascade skips reservation %d: %v", row.ID, err)
		return false, nil
	}
	if ref.RouteID != routeID {
		return false, nil
	}

	history := append(ref.History, models.HistoryEntry{
		Timestamp:     now,
		Action:        models.ActionRouteDeleted,
		Status:        ref.Status,
		PaymentStatus: ref.PaymentStatus,
		Notes:         fmt.Sprintf("Trasa %d została usunięta", routeID),
	})
	updates, err := rawFields(map[string]any{
		"Trasa":     models.NoRoute,
		"updatedAt": now,
		"history":   history,
	})
	if err != nil {
		return false, err
	}
	current, err := row.Fields()
	if err != nil {
		return false, err
	}
	payload, err := marshalFields(mergeFields(current, updates))
	if err != nil {
		return false, err
	}
	if _, err := store.SetPayload(row.ID, payload); err != nil {
		return false, fmt.Errorf("clear reservation %d: %w", row.ID, err)
	}
	return true, nil
}
