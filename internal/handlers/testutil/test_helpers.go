package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/majorjayant/siteconfig/internal/api"
	"github.com/majorjayant/siteconfig/internal/app"
	iauth "github.com/majorjayant/siteconfig/internal/auth"
	sharedtestutil "github.com/majorjayant/siteconfig/internal/database/testutil"
	"github.com/majorjayant/siteconfig/internal/middleware"
	"github.com/majorjayant/siteconfig/internal/monitoring"
	"github.com/majorjayant/siteconfig/internal/monitoring/checks"
	"github.com/majorjayant/siteconfig/internal/siteconfig"
	"github.com/majorjayant/siteconfig/internal/store"
)

const (
	AdminUsername = "admin"
	AdminPassword = "Secret123!"
	Endpoint      = "/api/config"
)

// Env encapsulates a fully-wired API instance for handler tests. Unless a
// store is supplied it is backed by the key-value adapter on an in-memory database.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Store  store.Store
	Config *app.Config
	Router *gin.Engine
	JWT    *iauth.JWTService
}

// Option customises the environment before the router is built.
type Option func(*envOptions)

type envOptions struct {
	store        store.Store
	requireToken bool
	readBudget   time.Duration
	rateLimit    int
	mountRoot    bool
}

// WithStore replaces the default key-value store.
func WithStore(s store.Store) Option {
	return func(o *envOptions) { o.store = s }
}

// WithRequireToken protects writes with a bearer token.
func WithRequireToken() Option {
	return func(o *envOptions) { o.requireToken = true }
}

// WithReadBudget overrides the read fallback budget.
func WithReadBudget(budget time.Duration) Option {
	return func(o *envOptions) { o.readBudget = budget }
}

// WithRateLimit enables the per-IP limiter on the endpoint.
func WithRateLimit(requests int) Option {
	return func(o *envOptions) { o.rateLimit = requests }
}

// WithMountRoot also serves the endpoint at "/".
func WithMountRoot() Option {
	return func(o *envOptions) { o.mountRoot = true }
}

// NewEnv provisions a fresh handler test environment.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	options := envOptions{readBudget: time.Second}
	for _, opt := range opts {
		opt(&options)
	}

	var db *gorm.DB
	st := options.store
	if st == nil {
		db = sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())
		st = store.NewKVStore(db)
	}

	cfg := &app.Config{
		Server: app.ServerConfig{
			Port:     8000,
			Endpoint: Endpoint,
			RateLimit: app.RateLimitConfig{
				Enabled:  options.rateLimit > 0,
				Requests: options.rateLimit,
				Window:   time.Minute,
			},
		},
		Store: app.StoreConfig{Kind: string(st.Kind()), ReadBudget: options.readBudget},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			Admin:                 app.AdminSettings{Username: AdminUsername, Password: AdminPassword},
			RequireTokenForWrites: options.requireToken,
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true, Timeout: time.Second},
		},
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	credential, err := cfg.Auth.Credential()
	require.NoError(t, err)

	svc, err := siteconfig.NewService(st, credential, jwtSvc, siteconfig.WithReadBudget(cfg.Store.ReadBudget))
	require.NoError(t, err)

	health := monitoring.NewHealthManager(cfg.Monitoring.Health.Timeout)
	health.RegisterReadiness(checks.Store(st))

	router, err := api.NewRouter(cfg, api.Dependencies{
		Service:   svc,
		JWT:       jwtSvc,
		Health:    health,
		RateStore: middleware.NewMemoryRateStore(),
		MountRoot: options.mountRoot,
	})
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Store:  st,
		Config: cfg,
		Router: router,
		JWT:    jwtSvc,
	}
}

// UserPayload is the user block of a login response.
type UserPayload struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// APIResponse is the union of every payload the endpoint renders.
type APIResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	Error      string            `json:"error"`
	SiteConfig map[string]string `json:"site_config"`
	Origin     string            `json:"origin"`
	Warning    string            `json:"warning"`
	Token      string            `json:"token"`
	User       *UserPayload      `json:"user"`
}

// DecodeResponse parses the flat response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// Login authenticates as the admin and returns the issued token.
func (e *Env) Login() string {
	e.T.Helper()

	w := e.Request(http.MethodPost, Endpoint, map[string]string{
		"action":   "login",
		"username": AdminUsername,
		"password": AdminPassword,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())
	require.NotEmpty(e.T, resp.Token)
	return resp.Token
}

// Request executes an HTTP request against the test router, JSON-encoding body
// unless it is already raw bytes.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	switch v := body.(type) {
	case nil:
		buf = bytes.NewBuffer(nil)
	case []byte:
		buf = bytes.NewBuffer(v)
	case string:
		buf = bytes.NewBufferString(v)
	default:
		data, err := json.Marshal(v)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
