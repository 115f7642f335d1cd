package app

import (
	"strings"

	"github.com/majorjayant/siteconfig/internal/database"
	"github.com/majorjayant/siteconfig/internal/store"
)

// FactoryConfig converts StoreConfig into the adapter factory parameters.
func (c StoreConfig) FactoryConfig() store.Config {
	return store.Config{
		Kind:   c.Kind,
		Static: store.StaticConfig{Path: strings.TrimSpace(c.Static.Path)},
		DynamoDB: store.DynamoDBConfig{
			Table:         strings.TrimSpace(c.DynamoDB.Table),
			Key:           strings.TrimSpace(c.DynamoDB.Key),
			Region:        strings.TrimSpace(c.DynamoDB.Region),
			Endpoint:      strings.TrimSpace(c.DynamoDB.Endpoint),
			CreateTimeout: c.DynamoDB.CreateTimeout,
		},
		S3: store.S3Config{
			Bucket:   strings.TrimSpace(c.S3.Bucket),
			Key:      strings.TrimSpace(c.S3.Key),
			Region:   strings.TrimSpace(c.S3.Region),
			Endpoint: strings.TrimSpace(c.S3.Endpoint),
		},
	}
}

// ConnectionConfig converts DatabaseConfig into database.Open parameters,
// picking the host block that matches the driver.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:   strings.TrimSpace(c.Path),
		DSN:    strings.TrimSpace(c.DSN),
		Pool: database.PoolConfig{
			MaxOpenConns:    c.Pool.MaxOpen,
			MaxIdleConns:    c.Pool.MaxIdle,
			ConnMaxLifetime: c.Pool.MaxLifetime,
		},
	}

	var host DBAuthConfig
	switch cfg.Driver {
	case "", "sqlite", "sqlite3":
		cfg.Driver = "sqlite"
		return cfg
	case "postgres", "postgresql":
		cfg.Driver = "postgres"
		host = c.Postgres
	case "mysql", "mariadb":
		cfg.Driver = "mysql"
		host = c.MySQL
	default:
		return cfg
	}

	cfg.Host = strings.TrimSpace(host.Host)
	cfg.Port = host.Port
	cfg.Name = strings.TrimSpace(host.Database)
	cfg.User = strings.TrimSpace(host.Username)
	cfg.Password = host.Password
	cfg.Options = host.Options
	return cfg
}
