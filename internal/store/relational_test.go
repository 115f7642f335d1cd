package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/majorjayant/siteconfig/internal/database/testutil"
)

func TestKVStoreReadEmptyIsNotFound(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	s := NewKVStore(db)

	_, err := s.Read(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestKVStoreCreatesMissingTable(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	s := NewKVStore(db)
	ctx := context.Background()

	require.False(t, db.Migrator().HasTable("site_settings"))

	_, err := s.Read(ctx)
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, db.Migrator().HasTable("site_settings"))
}

func TestKVStoreWriteCreatesMissingTable(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	s := NewKVStore(db)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, map[string]string{"about_title": "Hello"}))

	got, err := s.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"about_title": "Hello"}, got)
}

func TestKVStoreWriteMergesKeys(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	s := NewKVStore(db)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, s.Write(ctx, map[string]string{"b": "3", "c": "4"}))

	got, err := s.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "3", "c": "4"}, got)
}

func TestKVStoreEmptyWriteIsNoop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	s := NewKVStore(db)

	require.NoError(t, s.Write(context.Background(), nil))
	_, err := s.Read(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestKVStoreCancelledContextIsUnavailable(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	s := NewKVStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Write(ctx, map[string]string{"a": "1"})
	require.ErrorIs(t, err, ErrUnavailable)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestHistoryStoreAppendsMergedSnapshots(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	s := NewHistoryStore(db)
	ctx := context.Background()

	_, err := s.Read(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(ctx, map[string]string{"about_title": "v1", "about_subtitle": "sub"}))
	require.NoError(t, s.Write(ctx, map[string]string{"about_title": "v2"}))

	got, err := s.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"about_title": "v2", "about_subtitle": "sub"}, got)

	count, err := s.Revisions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestHistoryStoreCreatesMissingTable(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	s := NewHistoryStore(db)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, map[string]string{"image_banner_url": "/b.png"}))
	require.True(t, db.Migrator().HasTable("site_config_revisions"))

	got, err := s.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, "/b.png", got["image_banner_url"])
}

func TestDecodeSnapshotConvertsPrimitives(t *testing.T) {
	got, err := decodeSnapshot([]byte(`{"title":"x","count":3,"ratio":1.5,"on":true,"gone":null,"nested":{"a":1}}`))
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"title":  "x",
		"count":  "3",
		"ratio":  "1.5",
		"on":     "true",
		"nested": `{"a":1}`,
	}, got)

	_, err = decodeSnapshot([]byte(`[1,2]`))
	require.Error(t, err)
}

func TestHistoryStorePruneKeepsNewest(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	s := NewHistoryStore(db)
	ctx := context.Background()

	for _, v := range []string{"1", "2", "3", "4", "5"} {
		require.NoError(t, s.Write(ctx, map[string]string{"site_title": v}))
	}

	removed, err := s.Prune(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), removed)

	count, err := s.Revisions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	got, err := s.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, "5", got["site_title"])

	removed, err = s.Prune(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, removed)

	removed, err = s.Prune(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, removed)
}
