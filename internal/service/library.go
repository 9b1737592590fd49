// Package service contains the library domain services: person registry,
// catalog registry, loan engine and authentication.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/metrics"
	"github.com/and161185/library-keeper/internal/model"
	"github.com/and161185/library-keeper/internal/repository"
)

// Hasher turns a plaintext secret into an opaque one-way value and checks it back.
type Hasher interface {
	Hash(secret string) ([]byte, error)
	Verify(secret string, opaque []byte) bool
}

// NewPerson is the registration input.
type NewPerson struct {
	Role   model.Role
	Name   string
	Email  string
	Age    int
	Secret string

	// staff only
	EmployeeID string
	Shift      string
}

// LibraryService defines person, catalog and loan operations.
type LibraryService interface {
	// RegisterPerson validates input, hashes the secret and stores a new person.
	RegisterPerson(ctx context.Context, in NewPerson) (*model.Person, error)
	// Authenticate returns the person whose email and secret match.
	Authenticate(ctx context.Context, email, secret string) (*model.Person, error)
	// DeregisterPerson removes a person; existing loans are kept.
	DeregisterPerson(ctx context.Context, id uuid.UUID) error
	// RenewSubscription extends a member's expiry by one subscription term.
	RenewSubscription(ctx context.Context, id uuid.UUID) (*model.Person, error)
	// ExtendSubscription pushes a member's expiry forward by days.
	ExtendSubscription(ctx context.Context, id uuid.UUID, days int) (*model.Person, error)
	// GetPerson loads a person by id.
	GetPerson(ctx context.Context, id uuid.UUID) (*model.Person, error)
	// GetPersonByEmail loads a person by email.
	GetPersonByEmail(ctx context.Context, email string) (*model.Person, error)
	// ListPersons returns persons in registration order.
	ListPersons(ctx context.Context) ([]*model.Person, error)

	// AddItem inserts an item or merges its stock into an existing entry with the same key.
	AddItem(ctx context.Context, it model.Item) (*model.Item, bool, error)
	// RemoveItem deletes an item from the catalog.
	RemoveItem(ctx context.Context, id uuid.UUID) error
	// AdjustStock adds delta (possibly negative) to an item's stock.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.Item, error)
	// FindItem loads an item by id.
	FindItem(ctx context.Context, id uuid.UUID) (*model.Item, error)
	// FindByTitle returns items whose title contains substr, ignoring case.
	FindByTitle(ctx context.Context, substr string) ([]*model.Item, error)
	// ListItems returns the catalog grouped by kind.
	ListItems(ctx context.Context) ([]*model.Item, error)

	// CreateLoan validates lines, stores the loan and reserves stock.
	CreateLoan(ctx context.Context, personID uuid.UUID, lines []model.LoanLine, loanDays int) (*model.Loan, []model.LineRejection, error)
	// ReturnLoan closes a loan and restores stock; repeated calls are no-ops.
	ReturnLoan(ctx context.Context, loanID uuid.UUID) (model.ReturnResult, error)
	// ExtendLoan pushes the due date of an open loan.
	ExtendLoan(ctx context.Context, loanID uuid.UUID, extraDays int) (*model.Loan, error)
	// GetLoan loads a loan by id.
	GetLoan(ctx context.Context, loanID uuid.UUID) (*model.Loan, error)
	// ListLoansForPerson returns a person's loans ordered by start time.
	ListLoansForPerson(ctx context.Context, personID uuid.UUID) ([]*model.Loan, error)
	// ListOverdueLoans returns open loans past their due date, earliest due first.
	ListOverdueLoans(ctx context.Context) ([]*model.Loan, error)
}

// LibraryServiceImpl owns the three collections. Every mutating call holds mu
// for its whole validate-then-mutate sequence.
type LibraryServiceImpl struct {
	mu sync.Mutex

	persons repository.PersonRepository
	items   repository.ItemRepository
	loans   repository.LoanRepository
	hasher  Hasher

	decoyOnce sync.Once
	decoy     []byte

	log      *zap.Logger
	metrics  *metrics.Collector
	now      func() time.Time
	loanDays int
	term     time.Duration
}

// Option customises LibraryServiceImpl.
type Option func(*LibraryServiceImpl)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *LibraryServiceImpl) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *LibraryServiceImpl) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *LibraryServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLoanDays sets the default loan period.
func WithLoanDays(days int) Option {
	return func(s *LibraryServiceImpl) {
		if days > 0 {
			s.loanDays = days
		}
	}
}

// WithSubscriptionTerm sets the validity granted on registration and renewal.
func WithSubscriptionTerm(d time.Duration) Option {
	return func(s *LibraryServiceImpl) {
		if d > 0 {
			s.term = d
		}
	}
}

// NewLibraryService constructs LibraryService with required dependencies.
func NewLibraryService(
	persons repository.PersonRepository,
	items repository.ItemRepository,
	loans repository.LoanRepository,
	hasher Hasher,
	opts ...Option,
) *LibraryServiceImpl {
	s := &LibraryServiceImpl{
		persons:  persons,
		items:    items,
		loans:    loans,
		hasher:   hasher,
		log:      zap.NewNop(),
		now:      time.Now,
		loanDays: model.DefaultLoanDays,
		term:     model.SubscriptionTerm,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func checkDays(days int) error {
	if days <= 0 || days > model.MaxPeriodDays {
		return invalid("days must be between 1 and %d, got %d", model.MaxPeriodDays, days)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errs.ErrValidation}, args...)...)
}
