package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/limiter"
	"github.com/and161185/library-keeper/internal/metrics"
	"github.com/and161185/library-keeper/internal/model"
)

// Authenticator verifies an email/secret pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, secret string) (*model.Person, error)
}

// AuthService defines login for the boundary layer.
type AuthService interface {
	// Login applies rate-limiting and authenticates the person.
	Login(ctx context.Context, email, secret, client string) (*model.Person, error)
}

type AuthServiceImpl struct {
	people  Authenticator
	lim     limiter.Limiter
	log     *zap.Logger
	metrics *metrics.Collector
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(people Authenticator, lim limiter.Limiter, log *zap.Logger, m *metrics.Collector) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{people: people, lim: lim, log: log, metrics: m}
}

// Login authenticates with rate limiting by (email, client).
func (s *AuthServiceImpl) Login(ctx context.Context, email, secret, client string) (*model.Person, error) {
	clientHash := limiter.HashClient(client)

	allowed, retry, err := s.lim.Allow(ctx, email, clientHash)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.metrics.LoginFailed()
		s.log.Warn("login blocked", zap.Duration("retry_after", retry))
		return nil, errs.ErrRateLimited
	}

	p, err := s.people.Authenticate(ctx, email, secret)
	if err != nil {
		s.metrics.LoginFailed()
		if blocked, _, ferr := s.lim.Failure(ctx, email, clientHash); ferr == nil && blocked {
			return nil, errs.ErrRateLimited
		}
		if errors.Is(err, errs.ErrUnauthorized) {
			return nil, errs.ErrUnauthorized
		}
		// lookup errors are masked as unauthorized
		s.log.Error("authenticate", zap.Error(err))
		return nil, errs.ErrUnauthorized
	}

	// best-effort reset
	_ = s.lim.Success(ctx, email, clientHash)
	s.log.Info("login", zap.String("person_id", p.ID.String()), zap.String("role", p.Role.String()))
	return p, nil
}
