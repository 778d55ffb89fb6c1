package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"kayak-backend/models"
	"kayak-backend/utils"

	"gorm.io/gorm"
)

// CollectionService is schema-less CRUD over one envelope table. It backs the
// small lookup lists the admin panel edits (spots, equipment, cars...).
type CollectionService struct {
	store EnvelopeStore
	ids   IDGenerator
	now   func() time.Time
}

func NewCollectionService(db *gorm.DB, table string) *CollectionService {
	return &CollectionService{
		store: NewEnvelopeStore(db, table),
		ids:   NewClockIDGenerator(),
		now:   models.Now,
	}
}

func (s *CollectionService) Name() string { return s.store.Table() }

func (s *CollectionService) List(ctx context.Context) []json.RawMessage {
	rows, err := s.store.WithContext(ctx).All()
	if err != nil {
		log.Printf("❌ list %s: %v", s.store.Table(), err)
		return []json.RawMessage{}
	}
	out := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, json.RawMessage(row.Payload))
	}
	return out
}

// prepare stamps id and timestamps on a new item.
func (s *CollectionService) prepare(fields map[string]json.RawMessage, id int64, now time.Time) (models.Envelope, error) {
	createdAt := now
	if raw, ok := fields["createdAt"]; ok {
		var t time.Time
		if err := json.Unmarshal(raw, &t); err == nil && !t.IsZero() {
			createdAt = t
		}
	}
	stamps, err := rawFields(map[string]any{"id": id, "createdAt": createdAt, "updatedAt": now})
	if err != nil {
		return models.Envelope{}, err
	}
	item := make(map[string]json.RawMessage, len(fields)+3)
	for k, v := range fields {
		item[k] = v
	}
	for k, v := range stamps {
		item[k] = v
	}
	payload, err := marshalFields(item)
	if err != nil {
		return models.Envelope{}, err
	}
	return models.Envelope{ID: id, Payload: payload, CreatedAt: createdAt}, nil
}

func suppliedID(fields map[string]json.RawMessage, field string) (int64, error) {
	raw, ok := fields["id"]
	if !ok || string(raw) == "null" {
		return 0, nil
	}
	id, ok := utils.ParseID(raw)
	if !ok {
		return 0, invalid(field, "must be a positive integer")
	}
	return id, nil
}

// Create stores one item and returns the stored payload.
func (s *CollectionService) Create(ctx context.Context, fields map[string]json.RawMessage) (json.RawMessage, error) {
	supplied, err := suppliedID(fields, "id")
	if err != nil {
		return nil, err
	}
	var row models.Envelope
	err = s.store.Transaction(ctx, func(tx EnvelopeStore) error {
		id, err := tx.allocateID(s.ids, supplied)
		if err != nil {
			return err
		}
		row, err = s.prepare(fields, id, s.now())
		if err != nil {
			return err
		}
		return tx.Insert(row)
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(row.Payload), nil
}

// OverwriteAll replaces the whole table with items in one transaction.
func (s *CollectionService) OverwriteAll(ctx context.Context, items []map[string]json.RawMessage) (int, error) {
	now := s.now()
	seen := make(map[int64]bool, len(items))
	rows := make([]models.Envelope, 0, len(items))
	for i, fields := range items {
		field := fmt.Sprintf("[%d].id", i)
		id, err := suppliedID(fields, field)
		if err != nil {
			return 0, err
		}
		if id == 0 {
			id = s.ids.NextID()
		}
		if seen[id] {
			return 0, invalid(field, "duplicate id")
		}
		seen[id] = true
		row, err := s.prepare(fields, id, now)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	if err := s.store.Transaction(ctx, func(tx EnvelopeStore) error {
		return tx.ReplaceAll(rows)
	}); err != nil {
		return 0, err
	}
	log.Printf("💾 %s overwritten: %d rows", s.store.Table(), len(rows))
	return len(rows), nil
}

func (s *CollectionService) Update(ctx context.Context, id int64, fields map[string]json.RawMessage) (json.RawMessage, error) {
	var payload json.RawMessage
	err := s.store.Transaction(ctx, func(tx EnvelopeStore) error {
		row, err := tx.Find(id)
		if err != nil {
			return err
		}
		current, err := row.Fields()
		if err != nil {
			return fmt.Errorf("decode %s %d: %w", s.store.Table(), id, err)
		}
		stamp, err := rawFields(map[string]any{"updatedAt": s.now()})
		if err != nil {
			return err
		}
		merged := mergeFields(mergeFields(current, fields), stamp)
		data, err := marshalFields(merged)
		if err != nil {
			return err
		}
		payload = json.RawMessage(data)
		_, err = tx.SetPayload(id, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Delete removes one item; an unknown id is not an error.
func (s *CollectionService) Delete(ctx context.Context, id int64) error {
	_, err := s.store.WithContext(ctx).Delete(id)
	return err
}
