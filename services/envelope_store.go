package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"kayak-backend/models"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnvelopeStore is the row-level access to one envelope table. Values are
// cheap to copy; Transaction hands the callback a store bound to the tx.
type EnvelopeStore struct {
	db    *gorm.DB
	table string
}

func NewEnvelopeStore(db *gorm.DB, table string) EnvelopeStore {
	return EnvelopeStore{db: db, table: table}
}

func (s EnvelopeStore) Table() string { return s.table }

// On returns a store for another table sharing this one's connection or tx.
func (s EnvelopeStore) On(table string) EnvelopeStore {
	return EnvelopeStore{db: s.db, table: table}
}

func (s EnvelopeStore) WithContext(ctx context.Context) EnvelopeStore {
	return EnvelopeStore{db: s.db.WithContext(ctx), table: s.table}
}

func (s EnvelopeStore) Transaction(ctx context.Context, fn func(tx EnvelopeStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(EnvelopeStore{db: tx, table: s.table})
	})
}

func (s EnvelopeStore) q() *gorm.DB {
	return s.db.Table(s.table)
}

// All returns every row in creation order.
func (s EnvelopeStore) All() ([]models.Envelope, error) {
	var rows []models.Envelope
	if err := s.q().Order("created_at asc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s EnvelopeStore) Find(id int64) (models.Envelope, error) {
	var row models.Envelope
	err := s.q().Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Envelope{}, ErrNotFound
	}
	return row, err
}

func (s EnvelopeStore) Exists(id int64) (bool, error) {
	var n int64
	if err := s.q().Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s EnvelopeStore) MaxID() (int64, error) {
	var max sql.NullInt64
	if err := s.q().Select("MAX(id)").Row().Scan(&max); err != nil {
		return 0, err
	}
	return max.Int64, nil
}

func (s EnvelopeStore) Insert(row models.Envelope) error {
	if err := s.q().Create(&row).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// SetPayload replaces the payload of one row and reports rows affected.
func (s EnvelopeStore) SetPayload(id int64, payload datatypes.JSON) (int64, error) {
	res := s.q().Where("id = ?", id).Update("payload", payload)
	return res.RowsAffected, res.Error
}

func (s EnvelopeStore) Delete(id int64) (int64, error) {
	res := s.q().Where("id = ?", id).Delete(&models.Envelope{})
	return res.RowsAffected, res.Error
}

// ReplaceAll empties the table and inserts rows. Run it inside Transaction so
// readers never see a partial set.
func (s EnvelopeStore) ReplaceAll(rows []models.Envelope) error {
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Table(s.table).Delete(&models.Envelope{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.q().CreateInBatches(&rows, 100).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// allocateID picks an unused id for a new row. A supplied id must be free.
func (s EnvelopeStore) allocateID(gen IDGenerator, supplied int64) (int64, error) {
	if supplied != 0 {
		taken, err := s.Exists(supplied)
		if err != nil {
			return 0, err
		}
		if taken {
			return 0, ErrConflict
		}
		return supplied, nil
	}
	for attempt := 0; attempt < 5; attempt++ {
		id := gen.NextID()
		taken, err := s.Exists(id)
		if err != nil {
			return 0, err
		}
		if !taken {
			return id, nil
		}
	}
	return 0, ErrConflict
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1062
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "duplicate") || strings.Contains(lower, "unique constraint")
}

// protectedFields are never overwritten by a merge.
var protectedFields = map[string]bool{"id": true, "createdAt": true}

// mergeFields overlays updates on base field by field and returns a new map.
func mergeFields(base, updates map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(base)+len(updates))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range updates {
		if protectedFields[k] {
			continue
		}
		out[k] = v
	}
	return out
}

// rawFields marshals each value so it can be merged into a payload.
func rawFields(values map[string]any) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = raw
	}
	return out, nil
}

func marshalFields(fields map[string]json.RawMessage) (datatypes.JSON, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
