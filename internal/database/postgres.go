package database

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// buildPostgresDSN renders a libpq keyword/value string. Unset options get
// sslmode=disable, a connect timeout and an application name so the service
// is identifiable in pg_stat_activity.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	params := []string{
		pgParam("host", host),
		pgParam("port", strconv.Itoa(port)),
		pgParam("user", cfg.User),
		pgParam("dbname", cfg.Name),
	}
	if cfg.Password != "" {
		params = append(params, pgParam("password", cfg.Password))
	}

	options := map[string]string{
		"sslmode":          "disable",
		"connect_timeout":  strconv.Itoa(int(dialTimeout.Seconds())),
		"application_name": "siteconfig",
	}
	for key, value := range cfg.Options {
		options[key] = value
	}

	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		params = append(params, pgParam(key, options[key]))
	}

	return strings.Join(params, " "), nil
}

// pgParam quotes values that libpq would otherwise split or misread.
func pgParam(key, value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return fmt.Sprintf("%s=%s", key, value)
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return fmt.Sprintf("%s='%s'", key, escaped)
}
