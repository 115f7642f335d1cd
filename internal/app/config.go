package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/majorjayant/siteconfig/internal/store"
)

// EnvPrefix namespaces every environment override, e.g. SITECONF_STORE_KIND.
const EnvPrefix = "SITECONF"

// Config represents the runtime configuration for the site configuration service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int             `mapstructure:"port"`
	LogLevel        string          `mapstructure:"log_level"`
	LogFile         string          `mapstructure:"log_file"`
	Endpoint        string          `mapstructure:"endpoint"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig throttles requests per client IP.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// StoreConfig selects the persistence adapter.
type StoreConfig struct {
	Kind       string         `mapstructure:"kind"`
	ReadBudget time.Duration  `mapstructure:"read_budget"`
	Static     StaticConfig   `mapstructure:"static"`
	History    HistoryConfig  `mapstructure:"history"`
	DynamoDB   DynamoDBConfig `mapstructure:"dynamodb"`
	S3         S3Config       `mapstructure:"s3"`
}

// StaticConfig points at a JSON file; empty uses the embedded snapshot.
type StaticConfig struct {
	Path string `mapstructure:"path"`
}

// HistoryConfig bounds how many snapshots the history kind keeps.
type HistoryConfig struct {
	Retain        int    `mapstructure:"retain"`
	PruneSchedule string `mapstructure:"prune_schedule"`
}

// DynamoDBConfig addresses the document store.
type DynamoDBConfig struct {
	Table         string        `mapstructure:"table"`
	Key           string        `mapstructure:"key"`
	Region        string        `mapstructure:"region"`
	Endpoint      string        `mapstructure:"endpoint"`
	CreateTimeout time.Duration `mapstructure:"create_timeout"`
}

// S3Config addresses the object store.
type S3Config struct {
	Bucket   string `mapstructure:"bucket"`
	Key      string `mapstructure:"key"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver      string       `mapstructure:"driver"`
	Path        string       `mapstructure:"path"`
	DSN         string       `mapstructure:"dsn"`
	AutoMigrate bool         `mapstructure:"auto_migrate"`
	Postgres    DBAuthConfig `mapstructure:"postgres"`
	MySQL       DBAuthConfig `mapstructure:"mysql"`
	Pool        PoolConfig   `mapstructure:"pool"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Database string            `mapstructure:"database"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	Options  map[string]string `mapstructure:"options"`
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open"`
	MaxIdle     int           `mapstructure:"max_idle"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

// AuthConfig captures the admin account and token settings.
type AuthConfig struct {
	JWT                   JWTSettings   `mapstructure:"jwt"`
	Admin                 AdminSettings `mapstructure:"admin"`
	RequireTokenForWrites bool          `mapstructure:"require_token_for_writes"`
}

// JWTSettings configures admin session tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// AdminSettings is the single admin account. Password may be a bcrypt hash.
type AdminSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// legacyEnv maps configuration keys to the unprefixed variable names older
// deployments already export.
var legacyEnv = map[string][]string{
	"database.mysql.host":        {"DB_HOST"},
	"database.mysql.port":        {"DB_PORT"},
	"database.mysql.database":    {"DB_NAME"},
	"database.mysql.username":    {"DB_USER"},
	"database.mysql.password":    {"DB_PASSWORD"},
	"database.postgres.host":     {"DB_HOST"},
	"database.postgres.port":     {"DB_PORT"},
	"database.postgres.database": {"DB_NAME"},
	"database.postgres.username": {"DB_USER"},
	"database.postgres.password": {"DB_PASSWORD"},
	"auth.admin.username":        {"ADMIN_USERNAME"},
	"auth.admin.password":        {"ADMIN_PASSWORD"},
	"auth.jwt.secret":            {"JWT_SECRET"},
	"store.dynamodb.region":      {"AWS_REGION", "AWS_DEFAULT_REGION"},
	"store.s3.region":            {"AWS_REGION", "AWS_DEFAULT_REGION"},
}

// LoadConfig reads config.yaml from ./config or the supplied directories,
// applies SITECONF_* and legacy environment overrides, and validates the result.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	return load(v)
}

// LoadConfigFile reads an explicit configuration file.
func LoadConfigFile(file string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigFile(file)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	config.normalise()
	return &config, nil
}

// bindLegacyEnv keeps SITECONF_* as the first choice and falls back to the
// unprefixed names.
func bindLegacyEnv(v *viper.Viper) error {
	for key, names := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		args := append([]string{key, prefixed}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_file", "")
	v.SetDefault("server.endpoint", "/api/config")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests", 120)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("store.kind", "kv")
	v.SetDefault("store.read_budget", "3s")
	v.SetDefault("store.static.path", "")
	v.SetDefault("store.history.retain", 50)
	v.SetDefault("store.history.prune_schedule", "@daily")
	v.SetDefault("store.dynamodb.table", "site_config")
	v.SetDefault("store.dynamodb.key", "site_config")
	v.SetDefault("store.dynamodb.region", "")
	v.SetDefault("store.dynamodb.endpoint", "")
	v.SetDefault("store.dynamodb.create_timeout", "2m")
	v.SetDefault("store.s3.bucket", "")
	v.SetDefault("store.s3.key", "site_config.json")
	v.SetDefault("store.s3.region", "")
	v.SetDefault("store.s3.endpoint", "")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/siteconfig.sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.pool.max_open", 4)
	v.SetDefault("database.pool.max_idle", 2)
	v.SetDefault("database.pool.max_lifetime", "5m")

	v.SetDefault("auth.jwt.secret", "")
	v.SetDefault("auth.jwt.issuer", "siteconfig")
	v.SetDefault("auth.jwt.access_token_ttl", "2h")
	v.SetDefault("auth.admin.username", "")
	v.SetDefault("auth.admin.password", "")
	v.SetDefault("auth.require_token_for_writes", false)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
	v.SetDefault("monitoring.health_check.timeout", "2s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

func (c *Config) normalise() {
	c.Store.Kind = strings.ToLower(strings.TrimSpace(c.Store.Kind))
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Auth.Admin.Username = strings.TrimSpace(c.Auth.Admin.Username)

	endpoint := strings.TrimSpace(c.Server.Endpoint)
	if endpoint == "" {
		endpoint = "/api/config"
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	c.Server.Endpoint = endpoint
}

// Validate fails closed on settings the service cannot run without.
func (c *Config) Validate() error {
	var problems []string

	kind, err := store.ParseKind(c.Store.Kind)
	if err != nil {
		problems = append(problems, err.Error())
	}
	if kind == store.KindS3 && strings.TrimSpace(c.Store.S3.Bucket) == "" {
		problems = append(problems, "store.s3.bucket is required when store.kind is s3")
	}

	if c.Auth.Admin.Username == "" || c.Auth.Admin.Password == "" {
		problems = append(problems, "auth.admin.username and auth.admin.password must be set (ADMIN_USERNAME / ADMIN_PASSWORD)")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// UsesDatabase reports whether the selected store needs a relational connection.
func (c *Config) UsesDatabase() bool {
	kind, err := store.ParseKind(c.Store.Kind)
	return err == nil && kind.UsesDatabase()
}
