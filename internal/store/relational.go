package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/majorjayant/siteconfig/pkg/logger"
)

// withTable runs fn and, when it fails because model's table is missing,
// creates the table and runs fn exactly once more.
func withTable(ctx context.Context, db *gorm.DB, model any, op string, fn func() error) error {
	err := fn()
	if err == nil || !isMissingTableError(err) {
		return err
	}

	log := logger.WithModule("store")
	log.Warn("configuration table missing, creating it", zap.String("operation", op), zap.Error(err))

	if migrateErr := db.WithContext(ctx).AutoMigrate(model); migrateErr != nil {
		return fmt.Errorf("%w: create table: %w", ErrSchemaMismatch, migrateErr)
	}

	err = fn()
	if err != nil && isMissingTableError(err) {
		return fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	return err
}

// encodeSnapshot renders a configuration as a flat JSON object.
func encodeSnapshot(values map[string]string) ([]byte, error) {
	if values == nil {
		values = map[string]string{}
	}
	return json.Marshal(values)
}

// decodeSnapshot accepts a flat JSON object. Non-string primitives written by
// other tools are converted to their string form; nested values are kept as
// raw JSON text.
func decodeSnapshot(data []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode configuration snapshot: %w", err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			values[key] = s
			continue
		}

		var n json.Number
		if err := json.Unmarshal(value, &n); err == nil {
			values[key] = n.String()
			continue
		}

		var b bool
		if err := json.Unmarshal(value, &b); err == nil {
			values[key] = strconv.FormatBool(b)
			continue
		}

		if string(value) == "null" {
			continue
		}
		values[key] = string(value)
	}
	return values, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
