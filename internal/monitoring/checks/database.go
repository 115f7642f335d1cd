package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/majorjayant/siteconfig/internal/monitoring"
)

// Database returns a readiness check that pings the relational connection pool.
// Details report pool usage so saturation shows up next to the ping result.
func Database(db *gorm.DB) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.CheckResult {
		start := time.Now()
		if db == nil {
			return monitoring.CheckResult{
				Status:   monitoring.StatusDown,
				Details:  "database not configured",
				Duration: time.Since(start),
			}
		}

		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		if err := sqlDB.PingContext(ctx); err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		stats := sqlDB.Stats()
		return monitoring.CheckResult{
			Status:   monitoring.StatusUp,
			Details:  fmt.Sprintf("open=%d in_use=%d idle=%d", stats.OpenConnections, stats.InUse, stats.Idle),
			Duration: time.Since(start),
		}
	})
}
