package memory

import (
	"context"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// LoanRepo implements LoanRepository in memory.
type LoanRepo struct{ db *DB }

// NewLoanRepo constructs a loan repository.
func NewLoanRepo(db *DB) *LoanRepo { return &LoanRepo{db: db} }

// Create appends a new loan.
func (r *LoanRepo) Create(_ context.Context, l *model.Loan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if !r.db.loans.insert(l.ID, l.Clone()) {
		return errDuplicateID
	}
	return nil
}

// GetByID returns a single loan by ID.
func (r *LoanRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Loan, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	l, ok := r.db.loans.get(id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	return l.Clone(), nil
}

// Update replaces a stored loan.
func (r *LoanRepo) Update(_ context.Context, l *model.Loan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if !r.db.loans.replace(l.ID, l.Clone()) {
		return errs.ErrNotFound
	}
	return nil
}

// ListByPerson returns the loans of a person in creation order.
func (r *LoanRepo) ListByPerson(_ context.Context, personID uuid.UUID) ([]*model.Loan, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Loan
	r.db.loans.each(func(l *model.Loan) {
		if l.PersonID == personID {
			out = append(out, l.Clone())
		}
	})
	return out, nil
}

// List returns every loan in creation order.
func (r *LoanRepo) List(_ context.Context) ([]*model.Loan, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*model.Loan, 0, len(r.db.loans.order))
	r.db.loans.each(func(l *model.Loan) { out = append(out, l.Clone()) })
	return out, nil
}
