package store

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// isMissingTableError detects "table does not exist" failures across vendors.
func isMissingTableError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "42P01" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1146 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "no such table") ||
		strings.Contains(lower, "doesn't exist") ||
		(strings.Contains(lower, "relation") && strings.Contains(lower, "does not exist"))
}
