package store

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/majorjayant/siteconfig/internal/models"
)

// HistoryStore appends a full snapshot per write. The newest row wins.
type HistoryStore struct {
	db *gorm.DB
}

// NewHistoryStore returns an append-only adapter over db.
func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Kind() Kind { return KindHistory }

func (s *HistoryStore) Read(ctx context.Context) (map[string]string, error) {
	var values map[string]string
	err := withTable(ctx, s.db, &models.SiteConfigRevision{}, "history read", func() error {
		var err error
		values, err = latestSnapshot(s.db.WithContext(ctx))
		return err
	})
	if err != nil {
		return nil, unavailable("history read", err)
	}
	return values, nil
}

// Write merges partial over the newest snapshot and appends the result.
func (s *HistoryStore) Write(ctx context.Context, partial map[string]string) error {
	if len(partial) == 0 {
		return nil
	}

	err := withTable(ctx, s.db, &models.SiteConfigRevision{}, "history write", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			current, err := latestSnapshot(tx.Clauses(clause.Locking{Strength: "UPDATE"}))
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}

			data, err := encodeSnapshot(mergeInto(current, partial))
			if err != nil {
				return err
			}
			return tx.Create(&models.SiteConfigRevision{Data: datatypes.JSON(data)}).Error
		})
	})
	if err != nil {
		return unavailable("history write", err)
	}
	return nil
}

// Revisions reports how many snapshots have been recorded.
func (s *HistoryStore) Revisions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.SiteConfigRevision{}).Count(&count).Error
	return count, err
}

// Prune deletes every snapshot older than the newest retain rows and reports
// how many were removed. A non-positive retain keeps everything.
func (s *HistoryStore) Prune(ctx context.Context, retain int) (int64, error) {
	if retain <= 0 {
		return 0, nil
	}

	var removed int64
	err := withTable(ctx, s.db, &models.SiteConfigRevision{}, "history prune", func() error {
		var ids []uint64
		if err := s.db.WithContext(ctx).
			Model(&models.SiteConfigRevision{}).
			Order("id DESC").
			Offset(retain-1).
			Limit(1).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		result := s.db.WithContext(ctx).Where("id < ?", ids[0]).Delete(&models.SiteConfigRevision{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, unavailable("history prune", err)
	}
	return removed, nil
}

func (s *HistoryStore) Close() error { return nil }

func latestSnapshot(db *gorm.DB) (map[string]string, error) {
	var rev models.SiteConfigRevision
	if err := db.Order("id DESC").Take(&rev).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return decodeSnapshot(rev.Data)
}

var _ Store = (*HistoryStore)(nil)
