package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/majorjayant/siteconfig/internal/api"
	"github.com/majorjayant/siteconfig/internal/app"
	"github.com/majorjayant/siteconfig/internal/app/maintenance"
	iauth "github.com/majorjayant/siteconfig/internal/auth"
	"github.com/majorjayant/siteconfig/internal/database"
	"github.com/majorjayant/siteconfig/internal/middleware"
	"github.com/majorjayant/siteconfig/internal/monitoring"
	"github.com/majorjayant/siteconfig/internal/monitoring/checks"
	"github.com/majorjayant/siteconfig/internal/siteconfig"
	"github.com/majorjayant/siteconfig/internal/store"
)

// bootstrapOptions toggles the pieces only some entry points need.
type bootstrapOptions struct {
	// MountRoot also answers at "/" (API Gateway stage roots).
	MountRoot bool
	// Maintenance starts the snapshot pruning schedule.
	Maintenance bool
}

// runtimeStack bundles long-lived services shared by the entry points.
type runtimeStack struct {
	Config  *app.Config
	DB      *gorm.DB
	Store   store.Store
	Service *siteconfig.Service
	JWT     *iauth.JWTService
	Health  *monitoring.HealthManager
	Tracker *monitoring.JobTracker
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime opens the store, builds the services and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, generated map[string]bool, opts bootstrapOptions, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{Config: cfg, Tracker: monitoring.NewJobTracker()}
	var err error
	success := false

	defer func() {
		if !success {
			_ = stack.Shutdown(context.Background())
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.UsesDatabase() {
		if stack.DB, err = initialiseDatabase(cfg, log); err != nil {
			return nil, err
		}
	}

	if err := resolveJWTSecret(ctx, stack.DB, cfg, generated, log); err != nil {
		return nil, err
	}

	if stack.Store, err = store.New(ctx, cfg.Store.FactoryConfig(), stack.DB); err != nil {
		return nil, fmt.Errorf("initialise %s store: %w", cfg.Store.Kind, err)
	}
	log.Info("configuration store ready", zap.String("kind", string(stack.Store.Kind())))

	if stack.JWT, err = iauth.NewJWTService(cfg.Auth.JWTServiceConfig()); err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	credential, err := cfg.Auth.Credential()
	if err != nil {
		return nil, fmt.Errorf("initialise admin credential: %w", err)
	}
	if !credential.Hashed() {
		log.Warn("admin password is configured in plain text; consider a bcrypt hash")
	}

	stack.Service, err = siteconfig.NewService(stack.Store, credential, stack.JWT, siteconfig.WithReadBudget(cfg.Store.ReadBudget))
	if err != nil {
		return nil, fmt.Errorf("initialise site configuration service: %w", err)
	}

	if opts.Maintenance && stack.Store.Kind() == store.KindHistory {
		stack.Cleaner = maintenance.NewCleaner(
			store.NewHistoryStore(stack.DB),
			maintenance.WithTracker(stack.Tracker),
			maintenance.WithRetain(cfg.Store.History.Retain),
			maintenance.WithPruneSchedule(cfg.Store.History.PruneSchedule),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Health = newHealthManager(stack)

	stack.Router, err = api.NewRouter(cfg, api.Dependencies{
		Service:   stack.Service,
		JWT:       stack.JWT,
		Health:    stack.Health,
		RateStore: middleware.NewMemoryRateStore(),
		MountRoot: opts.MountRoot,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

func newHealthManager(stack *runtimeStack) *monitoring.HealthManager {
	manager := monitoring.NewHealthManager(stack.Config.Monitoring.Health.Timeout)
	manager.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.CheckResult {
		return monitoring.CheckResult{Status: monitoring.StatusUp}
	}))

	manager.RegisterReadiness(checks.Store(stack.Store))
	if stack.DB != nil {
		manager.RegisterReadiness(checks.Database(stack.DB))
	}
	if stack.Cleaner != nil {
		manager.RegisterReadiness(checks.Maintenance(stack.Tracker, 0))
	}
	return manager
}

// resolveJWTSecret keeps a generated token secret stable across restarts by
// storing the first one in the system settings table.
func resolveJWTSecret(ctx context.Context, db *gorm.DB, cfg *app.Config, generated map[string]bool, log *zap.Logger) error {
	if !generated[app.GeneratedJWTSecret] {
		return nil
	}
	if db == nil {
		log.Warn("generated an ephemeral jwt secret; tokens will not survive a restart")
		return nil
	}

	secret, err := database.EnsureSystemSetting(ctx, db, database.JWTSecretSetting, cfg.Auth.JWT.Secret)
	if err != nil {
		return fmt.Errorf("persist jwt secret: %w", err)
	}
	cfg.Auth.JWT.Secret = secret
	log.Info("using persisted jwt secret")
	return nil
}

func initialiseDatabase(cfg *app.Config, log *zap.Logger) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := database.MigrateSchema(db); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("auto-migrate database: %w", err)
		}
	}

	log.Info("database connected", zap.String("driver", strings.ToLower(dbCfg.Driver)))
	return db, nil
}

// Shutdown stops background jobs and releases resources. Errors from every
// step are combined.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs error
	if s.Cleaner != nil {
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
			errs = multierr.Append(errs, fmt.Errorf("stop maintenance: %w", ctx.Err()))
		}
	}
	if s.Store != nil {
		errs = multierr.Append(errs, s.Store.Close())
	}
	if s.DB != nil {
		errs = multierr.Append(errs, database.Close(s.DB))
	}
	return errs
}
