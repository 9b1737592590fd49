package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/library-keeper/internal/crypto"
	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
	"github.com/and161185/library-keeper/internal/repository/memory"
	"github.com/and161185/library-keeper/internal/service"
)

const sample = `
persons:
  - role: staff
    name: Ada Desk
    email: ada@library.test
    age: 41
    secret: s3cret
    employee_id: E-100
    shift: morning
  - role: member
    name: Tom Reader
    email: tom@library.test
    age: 15
    secret: hunter2
items:
  - kind: book
    title: "1984"
    author: George Orwell
    stock: 5
    pages: 328
    genre: dystopia
  - kind: dvd
    title: Alien
    author: Ridley Scott
    stock: 2
    runtime_minutes: 117
    rating: "+18"
  - kind: book
    title: "1984"
    author: george orwell
    stock: 2
`

var _ Registrar = (*service.LibraryServiceImpl)(nil)

func newService(t *testing.T) *service.LibraryServiceImpl {
	t.Helper()
	db := memory.New()
	return service.NewLibraryService(
		memory.NewPersonRepo(db), memory.NewItemRepo(db), memory.NewLoanRepo(db),
		crypto.NewArgon2id(crypto.Params{Time: 1, Memory: 8 * 1024, Threads: 1}),
		service.WithLogger(zaptest.NewLogger(t)),
	)
}

func TestParseAndApply(t *testing.T) {
	t.Parallel()

	f, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, f.Persons, 2)
	require.Len(t, f.Items, 3)

	svc := newService(t)
	ctx := context.Background()
	res, err := Apply(ctx, svc, f, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, Result{Persons: 2, Items: 2, Merged: 1}, res)

	ada, err := svc.Authenticate(ctx, "ADA@library.test", "s3cret")
	require.NoError(t, err)
	require.True(t, ada.IsStaff())
	require.Equal(t, "E-100", ada.Staff.EmployeeID)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 7, items[0].Stock)
	require.Equal(t, model.KindVideo, items[1].Kind)
	require.Equal(t, "+18", items[1].Video.Rating)

	// second run only merges stock and skips known emails
	res, err = Apply(ctx, svc, f, nil)
	require.NoError(t, err)
	require.Equal(t, Result{Skipped: 2, Merged: 3}, res)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("persons:\n  - nmae: typo\n"))
	require.Error(t, err)

	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, f.Persons)
}

func TestApply_BadEntries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := Apply(ctx, newService(t), &File{Persons: []Person{{Role: "admin", Name: "x", Email: "x@y"}}}, nil)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = Apply(ctx, newService(t), &File{Items: []Item{{Kind: "vinyl", Title: "t", Author: "a"}}}, nil)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = Apply(ctx, newService(t), &File{Items: []Item{{Kind: "book", Author: "a", Stock: 1}}}, nil)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o600))
	f, err := LoadFile(p)
	require.NoError(t, err)
	require.Equal(t, "Tom Reader", f.Persons[1].Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
