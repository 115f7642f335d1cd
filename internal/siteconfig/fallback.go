package siteconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/majorjayant/siteconfig/internal/store"
	"github.com/majorjayant/siteconfig/pkg/logger"
)

// DefaultReadBudget bounds how long a read waits for the store.
const DefaultReadBudget = 3 * time.Second

// Origin tells where a configuration came from.
type Origin string

const (
	OriginStore   Origin = "store"
	OriginDefault Origin = "default"
	OriginTimeout Origin = "timeout"
)

// ErrReadTimeout is recorded in Result.Err when the budget elapses first.
var ErrReadTimeout = errors.New("siteconfig: store read exceeded budget")

// Reader is the read half of a store.
type Reader interface {
	Read(ctx context.Context) (map[string]string, error)
}

// Result is a complete configuration plus its provenance. Err carries the
// reason a fallback was served and is for diagnostics only.
type Result struct {
	Config Configuration
	Origin Origin
	Err    error
}

// FallbackPolicy races a store read against a timer so callers always get
// a configuration within the budget.
type FallbackPolicy struct {
	reader Reader
	budget time.Duration
	log    *zap.Logger
}

// NewFallbackPolicy wraps reader. A non-positive budget selects DefaultReadBudget.
func NewFallbackPolicy(reader Reader, budget time.Duration) *FallbackPolicy {
	if budget <= 0 {
		budget = DefaultReadBudget
	}
	return &FallbackPolicy{
		reader: reader,
		budget: budget,
		log:    logger.WithModule("siteconfig"),
	}
}

// Budget reports the configured read budget.
func (p *FallbackPolicy) Budget() time.Duration {
	return p.budget
}

type readOutcome struct {
	values map[string]string
	err    error
}

// Get reads the store within the budget and never fails.
func (p *FallbackPolicy) Get(ctx context.Context) Result {
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so an abandoned read can still deliver and exit.
	outcomes := make(chan readOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcomes <- readOutcome{err: fmt.Errorf("siteconfig: store read panicked: %v", r)}
			}
		}()
		values, err := p.reader.Read(readCtx)
		outcomes <- readOutcome{values: values, err: err}
	}()

	timer := time.NewTimer(p.budget)
	defer timer.Stop()

	select {
	case out := <-outcomes:
		return p.resolve(out)
	case <-timer.C:
		p.log.Warn("store read exceeded budget, serving defaults", zap.Duration("budget", p.budget))
		return Result{Config: DefaultConfiguration(), Origin: OriginTimeout, Err: ErrReadTimeout}
	case <-ctx.Done():
		return Result{Config: DefaultConfiguration(), Origin: OriginDefault, Err: ctx.Err()}
	}
}

func (p *FallbackPolicy) resolve(out readOutcome) Result {
	switch {
	case out.err == nil && len(out.values) > 0:
		return Result{Config: Merge(out.values), Origin: OriginStore}
	case out.err == nil, errors.Is(out.err, store.ErrNotFound):
		return Result{Config: DefaultConfiguration(), Origin: OriginDefault}
	}

	p.log.Warn("store read failed, serving defaults", zap.Error(out.err))
	return Result{Config: DefaultConfiguration(), Origin: OriginDefault, Err: out.err}
}
