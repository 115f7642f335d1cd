// Package store persists the site configuration. Exactly one adapter backs a
// deployment; callers only see the Store interface.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind names a storage adapter.
type Kind string

const (
	KindKV       Kind = "kv"
	KindHistory  Kind = "history"
	KindDynamoDB Kind = "dynamodb"
	KindS3       Kind = "s3"
	KindStatic   Kind = "static"
)

var (
	// ErrNotFound reports that no configuration has been written yet.
	ErrNotFound = errors.New("store: configuration not found")
	// ErrUnavailable covers network, credential and timeout failures.
	ErrUnavailable = errors.New("store: unavailable")
	// ErrSchemaMismatch reports a missing table, table resource or bucket.
	ErrSchemaMismatch = errors.New("store: schema mismatch")
	// ErrUnsupported is returned by adapters that cannot perform an operation.
	ErrUnsupported = errors.New("store: operation not supported")
)

// Store reads and merges the site configuration.
//
// Read returns the most recently written configuration or ErrNotFound.
// Write merges partial into the stored configuration: absent keys are left
// untouched and every key of one call is applied atomically.
type Store interface {
	Kind() Kind
	Read(ctx context.Context) (map[string]string, error)
	Write(ctx context.Context, partial map[string]string) error
	Close() error
}

// ParseKind normalises a configured adapter name.
func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case KindKV, KindHistory, KindDynamoDB, KindS3, KindStatic:
		return kind, nil
	case "":
		return "", fmt.Errorf("store: kind is required")
	}
	return "", fmt.Errorf("store: unknown kind %q", value)
}

// UsesDatabase reports whether the adapter needs a relational connection.
func (k Kind) UsesDatabase() bool {
	return k == KindKV || k == KindHistory
}

// unavailable wraps err so callers can match ErrUnavailable while logs keep
// the underlying cause.
func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupported) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func mergeInto(dst, partial map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(partial))
	}
	for key, value := range partial {
		dst[key] = value
	}
	return dst
}
