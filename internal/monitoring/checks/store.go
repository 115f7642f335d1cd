package checks

import (
	"context"
	"errors"
	"time"

	"github.com/majorjayant/siteconfig/internal/monitoring"
	"github.com/majorjayant/siteconfig/internal/store"
)

// StoreReader is the part of the configuration store the check exercises.
type StoreReader interface {
	Read(ctx context.Context) (map[string]string, error)
}

// Store returns a readiness check that performs one configuration read. An
// empty store is healthy: readers are served defaults.
func Store(s StoreReader) monitoring.Check {
	return monitoring.NewCheck("store", func(ctx context.Context) monitoring.CheckResult {
		start := time.Now()
		if s == nil {
			return monitoring.CheckResult{
				Status:   monitoring.StatusDown,
				Details:  "store not configured",
				Duration: time.Since(start),
			}
		}

		_, err := s.Read(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return monitoring.CheckResult{
				Status:   monitoring.StatusUp,
				Details:  "no configuration stored yet",
				Duration: time.Since(start),
			}
		}
		return monitoring.ResultFromError("store", err, time.Since(start))
	})
}
