package services

import (
	"context"
	"sync"
	"testing"

	"kayak-backend/config"
	"kayak-backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.Open(config.Settings{DBDriver: "sqlite", SQLitePath: ":memory:", DBLogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func kowalski() models.Reservation {
	return models.Reservation{
		FirstName:     "Jan",
		LastName:      "Kowalski",
		RouteID:       1,
		Status:        models.StatusUnconfirmed,
		PaymentStatus: models.PaymentUnpaid,
		DoubleKayaks:  2,
		SingleKayaks:  0,
		Phone:         "123456789",
		Email:         "jan@x.pl",
		Date:          "2025-06-01",
	}
}

func withRoute(r models.Reservation, routeID int64) models.Reservation {
	r.RouteID = routeID
	return r
}

func storedFields(t *testing.T, db *gorm.DB, table string, id int64) map[string]string {
	t.Helper()
	row, err := NewEnvelopeStore(db, table).Find(id)
	require.NoError(t, err)
	fields, err := row.Fields()
	require.NoError(t, err)
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = string(v)
	}
	return out
}
