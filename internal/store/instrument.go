package store

import (
	"context"
	"errors"
	"time"

	"github.com/majorjayant/siteconfig/pkg/metrics"
)

type instrumented struct {
	Store
}

// Instrument records the latency and outcome of every Read and Write.
func Instrument(s Store) Store {
	if s == nil {
		return nil
	}
	if _, ok := s.(instrumented); ok {
		return s
	}
	return instrumented{Store: s}
}

func (i instrumented) Read(ctx context.Context) (map[string]string, error) {
	start := time.Now()
	values, err := i.Store.Read(ctx)
	observe(i.Kind(), "read", start, err)
	return values, err
}

func (i instrumented) Write(ctx context.Context, partial map[string]string) error {
	start := time.Now()
	err := i.Store.Write(ctx, partial)
	observe(i.Kind(), "write", start, err)
	return err
}

func observe(kind Kind, op string, start time.Time, err error) {
	metrics.StoreLatency.
		WithLabelValues(string(kind), op, outcome(err)).
		Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "error"
}
