package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/limiter"
	"github.com/and161185/library-keeper/internal/metrics"
	"github.com/and161185/library-keeper/internal/model"
)

type fakeAuthenticator struct {
	person *model.Person
	secret string
	err    error
}

var _ Authenticator = (*fakeAuthenticator)(nil)

func (f *fakeAuthenticator) Authenticate(_ context.Context, email, secret string) (*model.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.person == nil || email != f.person.Email || secret != f.secret {
		return nil, errs.ErrUnauthorized
	}
	return f.person.Clone(), nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, time.Minute, l.failErr
}

func TestAuth_Login_RateLimiterAndCreds(t *testing.T) {
	t.Parallel()

	p := &model.Person{ID: uuid.Must(uuid.NewV4()), Email: "alice@example.com", Role: model.RoleMember, Member: &model.MemberDetails{}}
	people := &fakeAuthenticator{person: p, secret: "correct"}
	lim := &fakeLimiter{allowOK: true}
	m := metrics.NewCollector("test")
	s := NewAuthService(people, lim, zaptest.NewLogger(t), m)
	ctx := context.Background()

	lim.allowErr = errors.New("lim-err")
	if _, err := s.Login(ctx, "alice@example.com", "correct", "tty1"); err == nil {
		t.Fatalf("want limiter error propagate")
	}
	lim.allowErr = nil

	lim.allowOK = false
	if _, err := s.Login(ctx, "alice@example.com", "correct", "tty1"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
	lim.allowOK = true

	people.err = errs.ErrNotFound
	if _, err := s.Login(ctx, "nope@example.com", "x", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on lookup error, got %v", err)
	}
	people.err = nil

	lim.failBlocked = true
	if _, err := s.Login(ctx, "alice@example.com", "wrong", ""); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited on blocked after failure, got %v", err)
	}

	lim.failBlocked = false
	if _, err := s.Login(ctx, "alice@example.com", "wrong", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on wrong secret, got %v", err)
	}

	got, err := s.Login(ctx, "alice@example.com", "correct", "tty1")
	if err != nil {
		t.Fatalf("Login success: %v", err)
	}
	if got.ID != p.ID {
		t.Fatalf("bad person returned: %+v", got)
	}
	if lim.successCalls != 1 {
		t.Fatalf("expected Success() to be called once, got %d", lim.successCalls)
	}
	if lim.failureCalls != 3 {
		t.Fatalf("expected 3 recorded failures, got %d", lim.failureCalls)
	}
}

func TestAuth_Login_WithMemoryLimiterAndService(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	mustMember(t, svc, "bob@example.com", 30)
	s := NewAuthService(svc, limiter.NewMemory(time.Minute, 2, time.Hour), zaptest.NewLogger(t), nil)
	ctx := context.Background()

	if _, err := s.Login(ctx, "bob@example.com", "pw-bob@example.com", "tty1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := s.Login(ctx, "bob@example.com", "bad", "tty1"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("first failure: want ErrUnauthorized, got %v", err)
	}
	if _, err := s.Login(ctx, "bob@example.com", "bad", "tty1"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("second failure blocks: got %v", err)
	}
	if _, err := s.Login(ctx, "bob@example.com", "pw-bob@example.com", "tty1"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("blocked key must stay blocked, got %v", err)
	}
	if _, err := s.Login(ctx, "bob@example.com", "pw-bob@example.com", "tty2"); err != nil {
		t.Fatalf("other client is not blocked: %v", err)
	}
}
