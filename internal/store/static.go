package store

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"os"
)

//go:embed static_site_config.json
var embeddedSiteConfig []byte

// StaticStore serves a configuration baked into the build or shipped next
// to it. It never accepts writes.
type StaticStore struct {
	values map[string]string
	source string
}

// NewStaticStore loads the configuration file at path, or the embedded
// snapshot when path is empty.
func NewStaticStore(path string) (*StaticStore, error) {
	data := embeddedSiteConfig
	source := "embedded"
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("store: read static configuration: %w", err)
		}
		data = raw
		source = path
	}

	values, err := decodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", source, err)
	}
	return &StaticStore{values: values, source: source}, nil
}

func (s *StaticStore) Kind() Kind { return KindStatic }

func (s *StaticStore) Read(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("static read", err)
	}
	if len(s.values) == 0 {
		return nil, ErrNotFound
	}
	return maps.Clone(s.values), nil
}

func (s *StaticStore) Write(context.Context, map[string]string) error {
	return fmt.Errorf("static configuration from %s is read-only: %w", s.source, ErrUnsupported)
}

func (s *StaticStore) Close() error { return nil }

var _ Store = (*StaticStore)(nil)
