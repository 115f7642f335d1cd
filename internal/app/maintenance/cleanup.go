package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/majorjayant/siteconfig/internal/monitoring"
	"github.com/majorjayant/siteconfig/pkg/logger"
)

const (
	defaultRetain        = 50
	defaultPruneSchedule = "@daily"

	// PruneJob names the snapshot pruning job in health reports.
	PruneJob = "history_prune"
)

// RevisionPruner trims stored configuration snapshots down to the newest retain rows.
type RevisionPruner interface {
	Prune(ctx context.Context, retain int) (int64, error)
}

// Cleaner runs background maintenance for the configuration store on a cron schedule.
type Cleaner struct {
	pruner  RevisionPruner
	tracker *monitoring.JobTracker
	cron    *cron.Cron
	log     *zap.Logger
	retain  int

	pruneSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithTracker reports every run to tracker.
func WithTracker(tracker *monitoring.JobTracker) Option {
	return func(cleaner *Cleaner) {
		cleaner.tracker = tracker
	}
}

// WithRetain sets how many snapshots survive a prune. Zero disables pruning.
func WithRetain(retain int) Option {
	return func(cleaner *Cleaner) {
		if retain >= 0 {
			cleaner.retain = retain
		}
	}
}

// WithPruneSchedule overrides the cron specification for snapshot pruning.
func WithPruneSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.pruneSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil pruner leaves the cleaner idle.
func NewCleaner(pruner RevisionPruner, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		pruner:        pruner,
		retain:        defaultRetain,
		pruneSchedule: defaultPruneSchedule,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

func (c *Cleaner) enabled() bool {
	return c.pruner != nil && c.retain > 0
}

// Start registers the prune job and launches the scheduler when pruning is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled() {
		return nil
	}

	c.tracker.Register(PruneJob)
	if _, err := c.cron.AddFunc(c.pruneSchedule, func() {
		removed, err := c.prune(context.Background())
		if err != nil {
			c.log.Warn("snapshot prune failed", zap.Error(err))
			return
		}
		if removed > 0 {
			c.log.Info("pruned configuration snapshots", zap.Int64("removed", removed), zap.Int("retained", c.retain))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule prune %q: %w", c.pruneSchedule, err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured routine sequentially and reports the
// number of snapshots removed.
func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !c.enabled() {
		return 0, nil
	}

	var errs error

	removed, err := c.prune(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("prune snapshots: %w", err))
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		errs = multierr.Append(errs, ctxErr)
	}

	return removed, errs
}

func (c *Cleaner) prune(ctx context.Context) (int64, error) {
	start := time.Now()
	removed, err := c.pruner.Prune(ctx, c.retain)
	c.tracker.Record(PruneJob, err, time.Since(start))
	return removed, err
}
