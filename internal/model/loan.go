package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// DefaultLoanDays is the loan period used when the caller does not supply one.
const DefaultLoanDays = 14

// LoanLine is a requested or granted (item, quantity) pair.
type LoanLine struct {
	ItemID   uuid.UUID
	Quantity int
}

// LineRejection reports a requested line that was skipped while creating a loan.
type LineRejection struct {
	Line   LoanLine
	Reason error
}

// Loan binds a person to a set of item lines. Returned is terminal.
type Loan struct {
	ID        uuid.UUID
	PersonID  uuid.UUID
	Lines     []LoanLine
	StartedAt time.Time
	DueAt     time.Time
	Returned  bool
}

// IsActive reports whether the loan is open and not past due.
func (l *Loan) IsActive(now time.Time) bool {
	return !l.Returned && !now.After(l.DueAt)
}

// Overdue reports whether the loan is open and past due.
func (l *Loan) Overdue(now time.Time) bool {
	return !l.Returned && now.After(l.DueAt)
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (l *Loan) Clone() *Loan {
	c := *l
	c.Lines = append([]LoanLine(nil), l.Lines...)
	return &c
}

// ReturnResult is the outcome of returning a loan.
type ReturnResult struct {
	LoanID          uuid.UUID
	AlreadyReturned bool // second and later calls are no-ops
	Message         string
}
