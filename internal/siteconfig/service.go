package siteconfig

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/majorjayant/siteconfig/internal/auth"
	"github.com/majorjayant/siteconfig/internal/store"
	apperrors "github.com/majorjayant/siteconfig/pkg/errors"
	"github.com/majorjayant/siteconfig/pkg/logger"
	"github.com/majorjayant/siteconfig/pkg/metrics"
	"github.com/majorjayant/siteconfig/pkg/validator"
)

// Writer is the write half of a store.
type Writer interface {
	Write(ctx context.Context, partial map[string]string) error
}

// Store is what the service needs from a persistence adapter.
type Store interface {
	Reader
	Writer
}

// TokenIssuer signs admin session tokens.
type TokenIssuer interface {
	GenerateAccessToken(username, role string) (auth.AccessToken, error)
}

// User describes the authenticated admin.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// WriteResult summarises an accepted write.
type WriteResult struct {
	Keys []string
}

type loginInput struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=1024"`
}

// Service is the single entry point for reading, writing and logging in.
type Service struct {
	store      Store
	fallback   *FallbackPolicy
	credential auth.Credential
	tokens     TokenIssuer
	log        *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithReadBudget overrides DefaultReadBudget.
func WithReadBudget(budget time.Duration) Option {
	return func(s *Service) {
		s.fallback = NewFallbackPolicy(s.store, budget)
	}
}

// NewService wires the façade over a store, the admin credential and a token issuer.
func NewService(st Store, credential auth.Credential, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("siteconfig: store is required")
	}
	if tokens == nil {
		return nil, errors.New("siteconfig: token issuer is required")
	}

	svc := &Service{
		store:      st,
		fallback:   NewFallbackPolicy(st, DefaultReadBudget),
		credential: credential,
		tokens:     tokens,
		log:        logger.WithModule("siteconfig"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// GetConfig returns a complete configuration. It never fails; Result.Origin
// tells whether defaults were served.
func (s *Service) GetConfig(ctx context.Context) Result {
	res := s.fallback.Get(ctx)
	metrics.ConfigReads.WithLabelValues(string(res.Origin)).Inc()
	return res
}

// PutConfig validates partial and merges it into the store.
func (s *Service) PutConfig(ctx context.Context, partial map[string]any) (WriteResult, error) {
	values, err := normalisePartial(partial)
	if err != nil {
		metrics.ConfigWrites.WithLabelValues("invalid").Inc()
		return WriteResult{}, err
	}

	if err := s.store.Write(ctx, values); err != nil {
		if errors.Is(err, store.ErrUnsupported) {
			metrics.ConfigWrites.WithLabelValues("read_only").Inc()
			return WriteResult{}, apperrors.ErrStoreReadOnly.WithInternal(err)
		}
		metrics.ConfigWrites.WithLabelValues("unavailable").Inc()
		s.log.Error("configuration write failed", zap.Int("keys", len(values)), zap.Error(err))
		return WriteResult{}, apperrors.ErrStoreUnavailable.WithInternal(err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	metrics.ConfigWrites.WithLabelValues("success").Inc()
	s.log.Info("configuration updated", zap.Strings("keys", keys))
	return WriteResult{Keys: keys}, nil
}

// Login checks the admin credential and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	input := loginInput{Username: strings.TrimSpace(username), Password: password}
	if err := validator.ValidateStruct(input); err != nil {
		metrics.AuthAttempts.WithLabelValues("invalid").Inc()
		return LoginResult{}, apperrors.NewInvalidPayload("Username and password are required")
	}
	if err := ctx.Err(); err != nil {
		return LoginResult{}, apperrors.ErrInternalServer.WithInternal(err)
	}

	if !s.credential.Verify(username, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		s.log.Warn("admin login rejected")
		return LoginResult{}, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(s.credential.Username, auth.RoleAdmin)
	if err != nil {
		return LoginResult{}, apperrors.ErrInternalServer.WithInternal(fmt.Errorf("issue token: %w", err))
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return LoginResult{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		User:      User{Username: s.credential.Username, Role: auth.RoleAdmin},
	}, nil
}

func normalisePartial(partial map[string]any) (map[string]string, error) {
	if len(partial) == 0 {
		return nil, apperrors.NewInvalidPayload("site_config must contain at least one key")
	}

	values := make(map[string]string, len(partial))
	for rawKey, rawValue := range partial {
		key := strings.TrimSpace(rawKey)
		if err := validator.ValidateVar("key", key, "configkey"); err != nil {
			return nil, apperrors.NewInvalidPayload(fmt.Sprintf("invalid key %q", truncate(rawKey, 32)))
		}
		if _, dup := values[key]; dup {
			return nil, apperrors.NewInvalidPayload(fmt.Sprintf("key %q appears more than once", key))
		}

		value, err := stringifyValue(rawValue)
		if err != nil {
			return nil, apperrors.NewInvalidPayload(fmt.Sprintf("%s: %v", key, err))
		}
		values[key] = value
	}
	return values, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
