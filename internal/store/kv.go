package store

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/majorjayant/siteconfig/internal/models"
)

// KVStore keeps one row per configuration key.
type KVStore struct {
	db *gorm.DB
}

// NewKVStore returns a key-value adapter over db.
func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Kind() Kind { return KindKV }

// Read folds every row into a configuration map.
func (s *KVStore) Read(ctx context.Context) (map[string]string, error) {
	var rows []models.SiteSetting
	err := withTable(ctx, s.db, &models.SiteSetting{}, "kv read", func() error {
		rows = rows[:0]
		return s.db.WithContext(ctx).Find(&rows).Error
	})
	if err != nil {
		return nil, unavailable("kv read", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

// Write upserts every key of partial inside one transaction.
func (s *KVStore) Write(ctx context.Context, partial map[string]string) error {
	if len(partial) == 0 {
		return nil
	}

	keys := make([]string, 0, len(partial))
	for key := range partial {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]models.SiteSetting, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, models.SiteSetting{Key: key, Value: partial[key]})
	}

	err := withTable(ctx, s.db, &models.SiteSetting{}, "kv write", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "config_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"config_value", "updated_at"}),
			}).Create(&rows).Error
		})
	})
	if err != nil {
		return unavailable("kv write", err)
	}
	return nil
}

// Close is a no-op; the connection pool belongs to the caller.
func (s *KVStore) Close() error { return nil }

var _ Store = (*KVStore)(nil)
