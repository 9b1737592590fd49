package memory

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func newLoan(personID uuid.UUID) *model.Loan {
	now := time.Now()
	return &model.Loan{
		ID:        uuid.Must(uuid.NewV4()),
		PersonID:  personID,
		Lines:     []model.LoanLine{{ItemID: uuid.Must(uuid.NewV4()), Quantity: 1}},
		StartedAt: now,
		DueAt:     now.Add(14 * 24 * time.Hour),
	}
}

func TestLoanRepo_CreateGetUpdate(t *testing.T) {
	r := NewLoanRepo(New())
	ctx := context.Background()
	l := newLoan(uuid.Must(uuid.NewV4()))

	require.NoError(t, r.Create(ctx, l))
	require.ErrorIs(t, r.Create(ctx, l), errs.ErrValidation)

	got, err := r.GetByID(ctx, l.ID)
	require.NoError(t, err)
	got.Lines[0].Quantity = 7
	again, err := r.GetByID(ctx, l.ID)
	require.NoError(t, err)
	require.Equal(t, 1, again.Lines[0].Quantity)

	got.Returned = true
	require.NoError(t, r.Update(ctx, got))
	again, err = r.GetByID(ctx, l.ID)
	require.NoError(t, err)
	require.True(t, again.Returned)

	_, err = r.GetByID(ctx, uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, r.Update(ctx, newLoan(uuid.Nil)), errs.ErrNotFound)
}

func TestLoanRepo_ListByPerson(t *testing.T) {
	r := NewLoanRepo(New())
	ctx := context.Background()
	alice, bob := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	l1, l2, l3 := newLoan(alice), newLoan(bob), newLoan(alice)
	for _, l := range []*model.Loan{l1, l2, l3} {
		require.NoError(t, r.Create(ctx, l))
	}

	got, err := r.ListByPerson(ctx, alice)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, l1.ID, got[0].ID)
	require.Equal(t, l3.ID, got[1].ID)

	none, err := r.ListByPerson(ctx, uuid.Must(uuid.NewV4()))
	require.NoError(t, err)
	require.Empty(t, none)

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}
