package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
)

// CreateLoan checks the person, then every line in input order. Lines with a
// non-positive quantity, not enough stock or an age rating above the member's
// age are skipped and reported; the loan fails only when no line survives.
// An unknown item id on a line with a positive quantity fails the whole call.
// loanDays <= 0 uses the default period.
func (s *LibraryServiceImpl) CreateLoan(ctx context.Context, personID uuid.UUID, lines []model.LoanLine, loanDays int) (*model.Loan, []model.LineRejection, error) {
	if loanDays <= 0 {
		loanDays = s.loanDays
	}
	if err := checkDays(loanDays); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.persons.GetByID(ctx, personID)
	if err != nil {
		return nil, nil, fmt.Errorf("person %s: %w", personID, err)
	}
	now := s.now()
	if p.SubscriptionExpired(now) {
		return nil, nil, errs.ErrExpiredSubscription
	}

	var (
		granted  []model.LoanLine
		rejected []model.LineRejection
		touched  = map[uuid.UUID]*model.Item{}
		order    []uuid.UUID
		reserved = map[uuid.UUID]int{}
	)
	reject := func(ln model.LoanLine, reason error, label string) {
		rejected = append(rejected, model.LineRejection{Line: ln, Reason: reason})
		s.metrics.LineRejected(label)
		s.log.Debug("loan line skipped",
			zap.String("person_id", personID.String()),
			zap.String("item_id", ln.ItemID.String()),
			zap.Int("quantity", ln.Quantity),
			zap.Error(reason),
		)
	}

	for _, ln := range lines {
		if ln.Quantity <= 0 {
			reject(ln, invalid("quantity for item %s must be positive", ln.ItemID), "invalid_quantity")
			continue
		}

		it, ok := touched[ln.ItemID]
		if !ok {
			if it, err = s.items.GetByID(ctx, ln.ItemID); err != nil {
				return nil, nil, fmt.Errorf("item %s: %w", ln.ItemID, err)
			}
			touched[ln.ItemID] = it
			order = append(order, ln.ItemID)
		}

		if ln.Quantity > it.Stock-reserved[ln.ItemID] {
			reject(ln, fmt.Errorf("%q: %w", it.Title, errs.ErrInsufficientStock), "insufficient_stock")
			continue
		}
		if !p.IsStaff() {
			if minAge, restricted := it.MinimumAge(); restricted && p.Age < minAge {
				reject(ln, fmt.Errorf("%q requires age %d: %w", it.Title, minAge, errs.ErrAgeRestricted), "age_restricted")
				continue
			}
		}
		reserved[ln.ItemID] += ln.Quantity
		granted = append(granted, ln)
	}

	if len(granted) == 0 {
		reasons := make([]error, 0, len(rejected)+1)
		reasons = append(reasons, errs.ErrNoValidItems)
		for _, r := range rejected {
			reasons = append(reasons, r.Reason)
		}
		return nil, rejected, errors.Join(reasons...)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, nil, err
	}
	loan := &model.Loan{
		ID:        id,
		PersonID:  personID,
		Lines:     granted,
		StartedAt: now,
		DueAt:     now.AddDate(0, 0, loanDays),
	}
	if err := s.loans.Create(ctx, loan); err != nil {
		return nil, nil, err
	}

	for _, itemID := range order {
		n := reserved[itemID]
		if n == 0 {
			continue
		}
		it := touched[itemID]
		it.Stock -= n
		if err := s.items.Update(ctx, it); err != nil {
			return nil, nil, fmt.Errorf("reserve stock of %s: %w", itemID, err)
		}
	}

	s.metrics.LoanCreated()
	s.log.Info("loan created",
		zap.String("loan_id", loan.ID.String()),
		zap.String("person_id", personID.String()),
		zap.Int("lines", len(granted)),
		zap.Int("skipped", len(rejected)),
		zap.Time("due_at", loan.DueAt),
	)
	return loan.Clone(), rejected, nil
}

// ReturnLoan marks the loan returned and restores stock for every line.
// Returning an already returned loan changes nothing and is not an error.
func (s *LibraryServiceImpl) ReturnLoan(ctx context.Context, loanID uuid.UUID) (model.ReturnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return model.ReturnResult{}, fmt.Errorf("loan %s: %w", loanID, err)
	}
	if loan.Returned {
		return model.ReturnResult{LoanID: loanID, AlreadyReturned: true, Message: "loan was already returned"}, nil
	}

	loan.Returned = true
	if err := s.loans.Update(ctx, loan); err != nil {
		return model.ReturnResult{}, err
	}

	for _, ln := range loan.Lines {
		it, err := s.items.GetByID(ctx, ln.ItemID)
		if errors.Is(err, errs.ErrNotFound) {
			s.log.Warn("returned item no longer in catalog",
				zap.String("loan_id", loanID.String()),
				zap.String("item_id", ln.ItemID.String()),
			)
			continue
		}
		if err != nil {
			return model.ReturnResult{}, err
		}
		it.Stock += ln.Quantity
		if err := s.items.Update(ctx, it); err != nil {
			return model.ReturnResult{}, err
		}
	}

	who := loan.PersonID.String()
	if p, err := s.persons.GetByID(ctx, loan.PersonID); err == nil {
		who = p.Name
	}
	s.metrics.LoanReturned()
	s.log.Info("loan returned", zap.String("loan_id", loanID.String()))
	return model.ReturnResult{LoanID: loanID, Message: fmt.Sprintf("loan of %s returned", who)}, nil
}

// ExtendLoan adds extraDays to the due date of an open loan.
func (s *LibraryServiceImpl) ExtendLoan(ctx context.Context, loanID uuid.UUID, extraDays int) (*model.Loan, error) {
	if err := checkDays(extraDays); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("loan %s: %w", loanID, err)
	}
	if loan.Returned {
		return nil, errs.ErrAlreadyReturned
	}
	loan.DueAt = loan.DueAt.AddDate(0, 0, extraDays)
	if err := s.loans.Update(ctx, loan); err != nil {
		return nil, err
	}
	s.metrics.LoanExtended()
	s.log.Info("loan extended",
		zap.String("loan_id", loanID.String()),
		zap.Time("due_at", loan.DueAt),
	)
	return loan, nil
}

// GetLoan loads a loan by id.
func (s *LibraryServiceImpl) GetLoan(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loans.GetByID(ctx, loanID)
}

// ListLoansForPerson returns the person's loans ordered by start time, oldest first.
// Loans of deregistered persons are still listed.
func (s *LibraryServiceImpl) ListLoansForPerson(ctx context.Context, personID uuid.UUID) ([]*model.Loan, error) {
	s.mu.Lock()
	out, err := s.loans.ListByPerson(ctx, personID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// ListOverdueLoans returns every open loan past its due date, earliest due first.
func (s *LibraryServiceImpl) ListOverdueLoans(ctx context.Context) ([]*model.Loan, error) {
	s.mu.Lock()
	all, err := s.loans.List(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	now := s.now()
	var out []*model.Loan
	for _, l := range all {
		if l.Overdue(now) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}
