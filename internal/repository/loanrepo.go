package repository

import (
	"context"

	"github.com/and161185/library-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// LoanRepository keeps loans for history; loans are never deleted.
type LoanRepository interface {
	// Create appends a new loan.
	Create(ctx context.Context, l *model.Loan) error
	// GetByID returns a single loan by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	// Update replaces a stored loan.
	Update(ctx context.Context, l *model.Loan) error
	// ListByPerson returns the loans of a person in creation order.
	ListByPerson(ctx context.Context, personID uuid.UUID) ([]*model.Loan, error)
	// List returns every loan in creation order.
	List(ctx context.Context) ([]*model.Loan, error)
}
