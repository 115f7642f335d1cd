package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/majorjayant/siteconfig/internal/auth"
	"github.com/majorjayant/siteconfig/internal/store"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "/site-config", cfg.Server.Endpoint)
	require.False(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, 120, cfg.Server.RateLimit.Requests)

	require.Equal(t, "history", cfg.Store.Kind)
	require.Equal(t, 1500*time.Millisecond, cfg.Store.ReadBudget)
	require.Equal(t, 10, cfg.Store.History.Retain)
	require.Equal(t, "@hourly", cfg.Store.History.PruneSchedule)
	require.Equal(t, "portfolio", cfg.Store.DynamoDB.Table)
	require.Equal(t, "site_config", cfg.Store.DynamoDB.Key)
	require.Equal(t, 30*time.Second, cfg.Store.DynamoDB.CreateTimeout)
	require.Equal(t, "portfolio-config", cfg.Store.S3.Bucket)
	require.Equal(t, "site_config.json", cfg.Store.S3.Key)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "require", cfg.Database.Postgres.Options["sslmode"])
	require.Equal(t, 8, cfg.Database.Pool.MaxOpen)
	require.Equal(t, 10*time.Minute, cfg.Database.Pool.MaxLifetime)

	require.True(t, cfg.Auth.RequireTokenForWrites)
	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, "siteconfig", cfg.Auth.JWT.Issuer)
	require.Equal(t, "admin", cfg.Auth.Admin.Username)

	require.NoError(t, cfg.Validate())
	require.True(t, cfg.UsesDatabase())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "/api/config", cfg.Server.Endpoint)
	require.Equal(t, "kv", cfg.Store.Kind)
	require.Equal(t, 3*time.Second, cfg.Store.ReadBudget)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 4, cfg.Database.Pool.MaxOpen)
	require.Equal(t, 2, cfg.Database.Pool.MaxIdle)
	require.Equal(t, 5*time.Minute, cfg.Database.Pool.MaxLifetime)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigPrefixedEnvOverrides(t *testing.T) {
	t.Setenv("SITECONF_STORE_KIND", "S3")
	t.Setenv("SITECONF_STORE_S3_BUCKET", "from-env")
	t.Setenv("SITECONF_SERVER_PORT", "7000")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "s3", cfg.Store.Kind)
	require.Equal(t, "from-env", cfg.Store.S3.Bucket)
	require.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadConfigLegacyEnvAliases(t *testing.T) {
	t.Setenv("DB_HOST", "legacy-host")
	t.Setenv("DB_USER", "legacy-user")
	t.Setenv("DB_PASSWORD", "legacy-pass")
	t.Setenv("DB_NAME", "legacy-db")
	t.Setenv("ADMIN_USERNAME", " owner ")
	t.Setenv("ADMIN_PASSWORD", "pw")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "legacy-host", cfg.Database.MySQL.Host)
	require.Equal(t, "legacy-user", cfg.Database.MySQL.Username)
	require.Equal(t, "legacy-pass", cfg.Database.Postgres.Password)
	require.Equal(t, "legacy-db", cfg.Database.Postgres.Database)
	require.Equal(t, "owner", cfg.Auth.Admin.Username)
	require.Equal(t, "pw", cfg.Auth.Admin.Password)
	require.Equal(t, "eu-west-1", cfg.Store.DynamoDB.Region)
	require.Equal(t, "eu-west-1", cfg.Store.S3.Region)
}

func TestLoadConfigPrefixedBeatsLegacy(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "legacy")
	t.Setenv("SITECONF_AUTH_ADMIN_USERNAME", "preferred")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "preferred", cfg.Auth.Admin.Username)
}

func TestLoadConfigFileExplicitPath(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
}

func TestValidateFailsClosed(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{Port: 8000},
		Store:  StoreConfig{Kind: "kv"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "auth.admin.username")

	cfg.Auth.Admin = AdminSettings{Username: "admin", Password: "pw"}
	require.NoError(t, cfg.Validate())

	cfg.Store.Kind = "redis"
	require.ErrorContains(t, cfg.Validate(), "unknown kind")

	cfg.Store.Kind = "s3"
	require.ErrorContains(t, cfg.Validate(), "store.s3.bucket")

	cfg.Store.S3.Bucket = "bucket"
	cfg.Server.Port = 0
	require.ErrorContains(t, cfg.Validate(), "server.port")
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "secret",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
		Admin: AdminSettings{Username: "admin", Password: "pw"},
	}

	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, cfg.JWTServiceConfig())

	credential, err := cfg.Credential()
	require.NoError(t, err)
	require.True(t, credential.Verify("admin", "pw"))
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	require.Equal(t, auth.DefaultAccessTokenTTL, cfg.JWTServiceConfig().AccessTokenTTL)

	_, err := cfg.Credential()
	require.ErrorIs(t, err, auth.ErrCredentialMissing)
}

func TestStoreFactoryConfig(t *testing.T) {
	cfg := StoreConfig{
		Kind:     "dynamodb",
		DynamoDB: DynamoDBConfig{Table: " t ", Key: "k", Endpoint: "http://localhost:8000", CreateTimeout: time.Minute},
		S3:       S3Config{Bucket: "b", Region: "eu-west-1"},
	}

	out := cfg.FactoryConfig()
	require.Equal(t, "dynamodb", out.Kind)
	require.Equal(t, store.DynamoDBConfig{Table: "t", Key: "k", Endpoint: "http://localhost:8000", CreateTimeout: time.Minute}, out.DynamoDB)
	require.Equal(t, "eu-west-1", out.S3.Region)
}

func TestDatabaseConnectionConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: "MariaDB",
		MySQL:  DBAuthConfig{Host: "db", Port: 3307, Database: "site", Username: "u", Password: "p"},
		Pool:   PoolConfig{MaxOpen: 6, MaxIdle: 1, MaxLifetime: time.Minute},
	}

	out := cfg.ConnectionConfig()
	require.Equal(t, "mysql", out.Driver)
	require.Equal(t, "db", out.Host)
	require.Equal(t, 3307, out.Port)
	require.Equal(t, "site", out.Name)
	require.Equal(t, 6, out.Pool.MaxOpenConns)

	sqlite := DatabaseConfig{Path: " ./data/x.sqlite "}.ConnectionConfig()
	require.Equal(t, "sqlite", sqlite.Driver)
	require.Equal(t, "./data/x.sqlite", sqlite.Path)
	require.Empty(t, sqlite.Host)
}
