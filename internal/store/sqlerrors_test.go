package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsMissingTableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres", fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01", Message: `relation "site_settings" does not exist`}), true},
		{"postgres other", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, false},
		{"mysql", &mysql.MySQLError{Number: 1146, Message: "Table 'site.site_settings' doesn't exist"}, true},
		{"mysql other", &mysql.MySQLError{Number: 1045, Message: "Access denied"}, false},
		{"sqlite", errors.New("no such table: site_settings"), true},
		{"network", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, isMissingTableError(tc.err))
		})
	}
}
