package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetAndUpsertSystemSetting(t *testing.T) {
	db := openSystemSettingTestDB(t)
	ctx := context.Background()

	value, err := GetSystemSetting(ctx, db, "missing")
	require.NoError(t, err)
	require.Equal(t, "", value)

	require.NoError(t, UpsertSystemSetting(ctx, db, "sample", "value1"))

	retrieved, err := GetSystemSetting(ctx, db, "sample")
	require.NoError(t, err)
	require.Equal(t, "value1", retrieved)

	require.NoError(t, UpsertSystemSetting(ctx, db, "sample", "value2"))

	retrieved, err = GetSystemSetting(ctx, db, "sample")
	require.NoError(t, err)
	require.Equal(t, "value2", retrieved)

	require.Error(t, UpsertSystemSetting(ctx, db, "  ", "value"))
}

func TestEnsureSystemSettingKeepsFirstValue(t *testing.T) {
	db := openSystemSettingTestDB(t)
	ctx := context.Background()

	value, err := EnsureSystemSetting(ctx, db, JWTSecretSetting, "initial")
	require.NoError(t, err)
	require.Equal(t, "initial", value)

	value, err = EnsureSystemSetting(ctx, db, JWTSecretSetting, "rotated")
	require.NoError(t, err)
	require.Equal(t, "initial", value)

	_, err = EnsureSystemSetting(ctx, db, "other", "")
	require.Error(t, err)
}

func openSystemSettingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file::memory:", Pool: PoolConfig{MaxOpenConns: 1}})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	t.Cleanup(func() {
		_ = Close(db)
	})

	return db
}
