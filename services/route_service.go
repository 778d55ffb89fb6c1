package services

import (
	"context"
	"log"
	"strings"
	"time"

	"kayak-backend/models"

	"gorm.io/gorm"
)

type RouteService struct {
	store  EnvelopeStore
	events EventPublisher
	now    func() time.Time
}

func NewRouteService(db *gorm.DB, events EventPublisher) *RouteService {
	if events == nil {
		events = NopPublisher{}
	}
	return &RouteService{
		store:  NewEnvelopeStore(db, models.TableRoutes),
		events: events,
		now:    models.Now,
	}
}

func (s *RouteService) List(ctx context.Context) []models.Route {
	rows, err := s.store.WithContext(ctx).All()
	if err != nil {
		log.Printf("❌ list routes: %v", err)
		return []models.Route{}
	}
	out := make([]models.Route, 0, len(rows))
	for _, row := range rows {
		var r models.Route
		if err := row.Unwrap(&r); err != nil {
			log.Printf("⚠️ skip route %d: %v", row.ID, err)
			continue
		}
		out = append(out, r)
	}
	return out
}

// Names maps route id to name, for labelling.
func (s *RouteService) Names(ctx context.Context) map[int64]string {
	routes := s.List(ctx)
	names := make(map[int64]string, len(routes))
	for _, r := range routes {
		names[r.ID] = r.Name
	}
	return names
}

// Create adds a route. Without an id it takes max(id)+1.
func (s *RouteService) Create(ctx context.Context, in models.Route) (*models.Route, error) {
	r := in
	r.Name = strings.TrimSpace(r.Name)
	r.Color = strings.TrimSpace(r.Color)
	if r.Color == "" {
		r.Color = models.DefaultRouteColor
	}
	if verr := validateStruct(r, ""); verr != nil {
		return nil, verr
	}

	now := s.now()
	r.CreatedAt = now
	r.UpdatedAt = now

	err := s.store.Transaction(ctx, func(tx EnvelopeStore) error {
		if r.ID == 0 {
			max, err := tx.MaxID()
			if err != nil {
				return err
			}
			r.ID = max + 1
		}
		row, err := models.Wrap(r.ID, r.CreatedAt, r)
		if err != nil {
			return err
		}
		return tx.Insert(row)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ route %d created: %s", r.ID, r.Name)
	return &r, nil
}

// Delete removes the route only. Reservations pointing at it are cleared by
// CascadeService.ClearRoute.
func (s *RouteService) Delete(ctx context.Context, id int64) error {
	n, err := s.store.WithContext(ctx).Delete(id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	log.Printf("🗑️ route %d deleted", id)
	publish(ctx, s.events, EventRouteDeleted, map[string]int64{"id": id})
	return nil
}
